package main

import (
	"context"
	"encoding/base64"
	"flag"
	"os"
	"os/signal"
	"syscall"

	easy "git.fiblab.net/utils/logrus-easy-formatter"
	"github.com/sirupsen/logrus"
	"github.com/tsinghua-fib-lab/crossroad-sim/clock"
	"github.com/tsinghua-fib-lab/crossroad-sim/task"
	"github.com/tsinghua-fib-lab/crossroad-sim/utils/config"
)

var (
	// 配置文件路径，与config-data都为空时使用内置的十字路口布局
	configPath = flag.String("config", "", "config file path (empty means built-in layout)")
	// 配置文件Base64编码后的数据
	configData = flag.String("config-data", "", "config file base64 encoded data")
	// 覆盖配置中的速度与总帧数
	velocity = flag.Float64("velocity", 0, "override control.velocity (0 means use config)")
	steps    = flag.Int("steps", -1, "override control.steps (-1 means use config, 0 means until interrupted)")

	// log
	logLevels = map[string]logrus.Level{
		"trace":    logrus.TraceLevel,
		"debug":    logrus.DebugLevel,
		"info":     logrus.InfoLevel,
		"warn":     logrus.WarnLevel,
		"error":    logrus.ErrorLevel,
		"critical": logrus.FatalLevel,
		"off":      logrus.PanicLevel,
	}
	logLevel = flag.String("log.level", "info", "日志级别（可选项：trace debug info warn error critical off）")

	log = logrus.WithField("module", "main")
)

func main() {
	flag.Parse()
	logrus.SetFormatter(&easy.Formatter{
		TimestampFormat: "2006-01-02 15:04:05.0000",
		LogFormat:       "[%module%] [%time%] [%lvl%] %msg%\n",
	})
	// log: 运行时才修改
	if level, ok := logLevels[*logLevel]; ok {
		logrus.SetLevel(level)
	} else {
		log.Panicf("log.level must be one of %v", logLevels)
	}
	// 获取配置
	var c config.Config
	var file []byte
	var err error
	if *configPath != "" {
		file, err = os.ReadFile(*configPath)
		if err != nil {
			log.Panicf("config file load err: %v", err)
		}
	} else if *configData != "" {
		file, err = base64.StdEncoding.DecodeString(*configData)
		if err != nil {
			log.Panicf("config data load err: %v", err)
		}
	}
	if file != nil {
		if c, err = config.Parse(file); err != nil {
			log.Panicf("config file load err: %v", err)
		}
	} else {
		log.Info("no config specified, use built-in layout")
		c = config.Default()
	}
	if *velocity != 0 {
		c.Control.Velocity = *velocity
	}
	if *steps >= 0 {
		c.Control.Steps = int32(*steps)
	}
	log.Infof("%+v", c.Control)

	t, err := task.NewContext(c, clock.NewReal(), nil)
	if err != nil {
		log.Panicf("init err: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := t.Run(ctx); err != nil {
		log.Panicf("run err: %v", err)
	}
}
