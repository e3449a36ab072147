package task

import "github.com/sirupsen/logrus"

// log 仿真任务的日志记录器
// 功能：为task模块提供统一的日志记录功能
// 说明：使用logrus库，并添加"module"字段标识为"simulet"模块
var log = logrus.WithField("module", "simulet")
