package helpers

import (
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger creates a configured Logrus logger: text at debug level in
// development, JSON at info level elsewhere. LOG_LEVEL overrides the level.
func NewLogger(appName, env string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	if env == "development" {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetLevel(logrus.InfoLevel)
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	if lvl, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		logger.SetLevel(lvl)
	}
	logger.WithFields(logrus.Fields{"app": appName, "env": env}).Info("logger initialized")
	return logger
}
