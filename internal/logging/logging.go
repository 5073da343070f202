// internal/logging/logging.go
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// New builds the process logger. level and format come from validated config;
// unknown values fall back to info / text.
func New(level, format string, out io.Writer) *logrus.Logger {
	if out == nil {
		out = os.Stderr
	}

	l := logrus.New()
	l.SetOutput(out)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)

	switch format {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return l
}
