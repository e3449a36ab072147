package junction

import "github.com/sirupsen/logrus"

// log 路口模块的日志记录器
// 功能：为junction模块（协调器与路口管理器）提供统一的日志记录功能
// 说明：使用logrus库，并添加"module"字段标识为"junction"模块
var log = logrus.WithField("module", "junction")
