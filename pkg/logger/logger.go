package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Init initializes the structured logger. LOG_LEVEL overrides the default
// info level.
func Init() {
	logrus.SetFormatter(&logrus.JSONFormatter{})

	level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	logrus.Info("Logger initialized")
}
