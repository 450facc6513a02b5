package utils

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// LoggerConfig controls the process-wide logrus logger
type LoggerConfig struct {
	Level      string
	File       string // optional, appended to in addition to stdout
	Production bool
}

// ConfigureLogger sets up the standard logrus logger. It returns a closer for the
// log file, which is a no-op when no file is configured.
func ConfigureLogger(cfg LoggerConfig) (func() error, error) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if cfg.Production {
		logrus.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "2006-01-02 15:04:05"})
	}

	if cfg.File == "" {
		logrus.SetOutput(os.Stdout)
		return func() error { return nil }, nil
	}

	file, err := os.OpenFile(cfg.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	logrus.SetOutput(io.MultiWriter(os.Stdout, file))

	return file.Close, nil
}
