// Package logging wraps github.com/kamalyes/go-logger with the
// component-prefixed defaults KeyForge's processes use, the same way the
// teacher's logger package wraps go-logger with a "[STRESS] " prefix.
package logging

import (
	"time"

	"github.com/kamalyes/go-logger"
)

type (
	ILogger   = logger.ILogger
	LogConfig = logger.LogConfig
)

// New builds a logger with the given bracketed component prefix, e.g.
// New("HIVE") -> "[HIVE] ".
func New(component string) logger.ILogger {
	cfg := logger.DefaultConfig().
		WithPrefix("[" + component + "] ").
		WithShowCaller(false).
		WithColorful(true).
		WithTimeFormat(time.DateTime)
	return logger.NewLogger(cfg)
}

// Default is a process-wide fallback logger for packages that are handed
// no explicit logger.
var Default = New("KEYFORGE")
