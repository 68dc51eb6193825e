package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// New builds the application logger writing to out, or stdout when out is nil.
func New(level, format string, out io.Writer) *logrus.Logger {
	logg := logrus.New()
	if out == nil {
		out = os.Stdout
	}
	logg.SetOutput(out)
	Configure(logg, level, format)
	return logg
}

// Configure applies a level and format to logg. format is "json" or "text";
// an unknown level falls back to info.
func Configure(logg *logrus.Logger, level, format string) {
	if format == "text" {
		logg.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logg.SetFormatter(&logrus.JSONFormatter{})
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logg.SetLevel(lvl)
}

func LogError(logger logrus.FieldLogger, moduleName string, funcName string, context string, data any, err error) {
	fields := logrus.Fields{
		"module":   moduleName,
		"funcName": funcName,
		"context":  context,
	}
	if data != nil {
		fields["data"] = data
	}
	logger.WithFields(fields).Error(err.Error())
}
