/*
Copyright (c) 2025 Tobias Schäfer. All rights reserved.
Licensed under the MIT License, see LICENSE file in the project root for details.
*/
package sink

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

var StreamWriters = []string{"stdout", "stderr", "discard", "file:PATH"}

type Stream struct {
	Enable bool
	Writer string
}

func (s *Stream) TargetStream(options *slog.HandlerOptions) (slog.Handler, error) {
	slog.Debug("Initializing stream sink.")

	switch s.Writer {
	case "stdout":
		return slog.NewJSONHandler(os.Stdout, options), nil
	case "stderr":
		return slog.NewJSONHandler(os.Stderr, options), nil
	case "discard":
		return slog.NewJSONHandler(io.Discard, options), nil
	}

	if path, ok := strings.CutPrefix(s.Writer, "file:"); ok && path != "" {
		file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, err
		}
		return slog.NewJSONHandler(file, options), nil
	}

	return nil, fmt.Errorf("invalid stream writer specified: %q", s.Writer)
}
