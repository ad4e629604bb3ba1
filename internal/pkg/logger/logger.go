package logger

import (
	"os"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/qs3c/sub_billing_server/config"
)

// Setup 按配置设置全局日志级别与格式，未知级别回退到 info
func Setup(cfg config.LogConfig) {
	log.SetOutput(os.Stdout)

	level, err := log.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if strings.EqualFold(cfg.Format, "json") {
		log.SetFormatter(&log.JSONFormatter{})
		return
	}
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
	})
}
