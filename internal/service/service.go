/*
Copyright (c) 2025 Tobias Schäfer. All rights reserved.
Licensed under the MIT License, see LICENSE file in the project root for details.
*/
package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/tschaefer/flowfilter/internal/cprog"
	"github.com/tschaefer/flowfilter/internal/emit"
	"github.com/tschaefer/flowfilter/internal/logger"
	"github.com/tschaefer/flowfilter/internal/record"
	"github.com/tschaefer/flowfilter/internal/rule"
	"github.com/tschaefer/flowfilter/internal/sink"
	"github.com/tschaefer/flowfilter/internal/tcflower"
	"github.com/tschaefer/flowfilter/internal/version"
)

// Config carries everything one compile pass needs.
type Config struct {
	Rules  []string
	Output string
	Format string
	Target cprog.Target
	Tuning cprog.Tuning
	Watch  bool
}

type Service struct {
	Config *Config
	Sink   *sink.Sink
	Logger *slog.Logger
}

func NewService(logger *logger.Logger, sink *sink.Sink, config *Config) (*Service, error) {
	slog.SetDefault(logger.Logger)

	return &Service{
		Config: config,
		Sink:   sink,
		Logger: logger.Logger,
	}, nil
}

// Run compiles the configured rules once, then in watch mode keeps
// recompiling whenever the config file changes until the context ends.
func (s *Service) Run(ctx context.Context) bool {
	slog.Info("Starting filter compiler.",
		"release", version.Release(), "commit", version.Commit(),
	)

	if err := s.Compile(); err != nil {
		return false
	}

	if !s.Config.Watch {
		return true
	}

	reload := make(chan struct{}, 1)
	viper.OnConfigChange(func(fsnotify.Event) {
		select {
		case reload <- struct{}{}:
		default:
		}
	})
	viper.WatchConfig()

	g := s.startWatchLoop(ctx, reload)
	if err := g.Wait(); err != nil {
		slog.Error("Watch loop returned error during shutdown.", "error", err)
		return false
	}

	slog.Info("Shutting down filter compiler.")
	return true
}

// Compile parses every configured rule into a fresh filter, derives the
// compilation options and writes the artifact. On any parse failure nothing
// is written and the previous artifact stays in place.
func (s *Service) Compile() error {
	filter := rule.NewFilter()

	for i, line := range s.Config.Rules {
		tokens := strings.Fields(line)
		r, err := tcflower.ParseRule(tokens)
		if err != nil {
			slog.Error("Failed to parse rule.", "rule", i, "error", err)
			return err
		}

		if err := filter.AddRule(r, -1); err != nil {
			slog.Error("Failed to add rule to filter.", "rule", i, "error", err)
			return err
		}

		record.Record(r, i, s.Sink.Logger)
	}

	opts := cprog.DeriveOptions(filter, s.Config.Target, s.Config.Tuning)

	if err := emit.WriteFile(s.Config.Output, filter, opts, s.Config.Format); err != nil {
		slog.Error("Failed to write filter artifact.", "output", s.Config.Output, "error", err)
		return err
	}

	slog.Info("Compiled filter.",
		"rules", filter.Len(), "target", opts.Target.String(),
		"flags", opts.Flags.String(), "output", s.Config.Output,
	)

	return nil
}

func (s *Service) startWatchLoop(ctx context.Context, reload <-chan struct{}) *errgroup.Group {
	var g errgroup.Group
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-reload:
				s.Config.Rules = viper.GetStringSlice("rules")
				if err := s.Compile(); err != nil {
					// Keep serving the previous artifact, wait for the
					// next change.
					continue
				}
			}
		}
	})
	return &g
}
