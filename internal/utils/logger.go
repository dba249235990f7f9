package utils

import (
	"os"

	"github.com/sirupsen/logrus"
)

var log = logrus.New()

// InitLogger configures the process logger. Level and format come from
// config; an unknown level falls back to info.
func InitLogger(level, format string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)

	if format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	log.SetOutput(os.Stdout)
}

func GetLogger() *logrus.Logger {
	return log
}
