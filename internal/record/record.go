/*
Copyright (c) 2025 Tobias Schäfer. All rights reserved.
Licensed under the MIT License, see LICENSE file in the project root for details.
*/
package record

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/tschaefer/flowfilter/internal/rule"
)

// Record logs one compiled rule through the sink logger.
func Record(r *rule.Rule, index int, logger *slog.Logger) {
	slog.Debug("Compiled rule", "data", r)

	masked := false
	var fields []string
	for _, m := range r.MatchList() {
		fields = append(fields, fmt.Sprintf("%s=%s", m.Type, m.Value))
		if m.Flags&rule.MatchFlagUseMask != 0 {
			masked = true
		}
	}

	established := []any{
		slog.Int("rule", index),
		slog.String("action", r.Action.String()),
		slog.Int("matches", r.NMatches),
		slog.Bool("masked", masked),
		slog.String("fields", strings.Join(fields, " ")),
	}

	msg := fmt.Sprintf("%s rule with %d matches", r.Action, r.NMatches)

	logger.Info(msg, established...)
}
