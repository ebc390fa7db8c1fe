package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

const timestampFormat = "2006-01-02T15:04:05.000Z07:00"

// New creates a new logger instance writing to stdout
func New(level, format string) *logrus.Logger {
	return NewWithOutput(level, format, os.Stdout)
}

// NewWithOutput creates a logger writing to out. The CLI logs to stderr so
// stdout carries only the result.
func NewWithOutput(level, format string, out io.Writer) *logrus.Logger {
	logger := logrus.New()

	// Set log level
	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	logger.SetOutput(out)

	// Set formatter
	switch format {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: timestampFormat,
		})
	default:
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: timestampFormat,
		})
	}

	return logger
}

// WithInvocation creates a logger entry scoped to one ingestion run
func WithInvocation(logger *logrus.Logger, invocationID, sink string) *logrus.Entry {
	return logger.WithFields(logrus.Fields{
		"invocation_id": invocationID,
		"sink":          sink,
	})
}
