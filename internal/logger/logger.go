/*
Copyright (c) 2025 Tobias Schäfer. All rights reserved.
Licensed under the MIT License, see LICENSE file in the project root for details.
*/
package logger

import (
	"fmt"
	"log/slog"
	"os"
)

type Logger struct {
	Format string
	Level  string
	Logger *slog.Logger
}

var (
	Levels  = []string{"debug", "info", "warn", "error"}
	Formats = []string{"json", "text"}
	level   slog.Level
)

// Initialize builds the slog logger from the configured level and format.
// Empty fields fall back to info/json.
func (l *Logger) Initialize() error {
	if l.Level == "" {
		l.Level = "info"
	}
	if l.Format == "" {
		l.Format = "json"
	}

	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return fmt.Errorf("unknown log level: %q", l.Level)
	}

	o := &slog.HandlerOptions{Level: level}
	if level == slog.LevelDebug {
		o.AddSource = true
	}

	var handler slog.Handler
	switch l.Format {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, o)
	case "text":
		handler = slog.NewTextHandler(os.Stderr, o)
	default:
		return fmt.Errorf("unknown log format: %q", l.Format)
	}

	l.Logger = slog.New(handler)

	return nil
}

func Level() slog.Level {
	return level
}
