// Package logging provides a thin wrapper around logrus for structured
// logging across the exchange.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New builds a logrus.Logger for the given level ("debug", "info", "warn",
// "error"), falling back to Info on an unparseable level. In production
// (ENVIRONMENT=production) it emits JSON; otherwise a human-readable
// timestamped format.
func New(level string) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	l.SetLevel(parsed)

	if os.Getenv("ENVIRONMENT") == "production" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return l
}
