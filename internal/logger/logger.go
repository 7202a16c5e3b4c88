// Package logger configures the process-wide logrus logger.
package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var log = logrus.New()

// Options control logger initialization.
type Options struct {
	// Level is a logrus level name ("debug", "info", "warn", "error").
	Level string

	// File, when non-empty, duplicates log output into a rotating file
	// in addition to stderr.
	File string
}

// Init configures the shared logger. Called once at startup.
func Init(opts Options) error {
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	lvl, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		return err
	}
	log.SetLevel(lvl)

	if opts.File != "" {
		rotating := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     30, // days
		}
		log.SetOutput(io.MultiWriter(os.Stderr, rotating))
	}

	return nil
}

// L returns the shared logger for components that take a
// *logrus.Logger dependency.
func L() *logrus.Logger {
	return log
}

// Debug logs a debug message
func Debug(msg string, fields ...map[string]interface{}) {
	if len(fields) > 0 {
		log.WithFields(fields[0]).Debug(msg)
	} else {
		log.Debug(msg)
	}
}

// Info logs an info message
func Info(msg string, fields ...map[string]interface{}) {
	if len(fields) > 0 {
		log.WithFields(fields[0]).Info(msg)
	} else {
		log.Info(msg)
	}
}

// Warn logs a warning message
func Warn(msg string, fields ...map[string]interface{}) {
	if len(fields) > 0 {
		log.WithFields(fields[0]).Warn(msg)
	} else {
		log.Warn(msg)
	}
}

// Error logs an error message
func Error(msg string, err error, fields ...map[string]interface{}) {
	if len(fields) > 0 {
		log.WithFields(fields[0]).WithError(err).Error(msg)
	} else {
		log.WithError(err).Error(msg)
	}
}
