/*
Copyright (c) 2025 Tobias Schäfer. All rights reserved.
Licensed under the MIT License, see LICENSE file in the project root for details.
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tschaefer/flowfilter/internal/config"
	"github.com/tschaefer/flowfilter/internal/cprog"
	"github.com/tschaefer/flowfilter/internal/logger"
	"github.com/tschaefer/flowfilter/internal/profiler"
	"github.com/tschaefer/flowfilter/internal/service"
	"github.com/tschaefer/flowfilter/internal/sink"
)

type Options struct {
	configFile string

	logLevel  string
	logFormat string

	rules  []string
	output string
	format string
	target string
	watch  bool

	inline bool
	clone  bool
	printk bool

	profilerAddress string

	sink sink.Config
}

var options = Options{}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Compile tc flower rules into a filter artifact",
	Run: func(cmd *cobra.Command, args []string) {
		if err := config.InitConfig(options.configFile); err != nil {
			cobra.CheckErr(fmt.Sprintf("Failed to read config: %v", err))
		}

		for _, check := range []error{
			validateStringFlag("log.level", options.logLevel, validLogLevels),
			validateStringFlag("log.format", options.logFormat, validLogFormats),
			validateStringFlag("target", options.target, validTargets),
			validateStringFlag("format", options.format, validEmitFormats),
			validateStringSliceFlag("sink.loki.labels", options.sink.Loki.Labels, nil),
		} {
			cobra.CheckErr(check)
		}
		if options.sink.Syslog.Enable {
			cobra.CheckErr(validateStringFlag("sink.syslog.address", options.sink.Syslog.Address, nil))
		}
		if options.sink.Loki.Enable {
			cobra.CheckErr(validateStringFlag("sink.loki.address", options.sink.Loki.Address, nil))
		}

		l := &logger.Logger{Level: options.logLevel, Format: options.logFormat}
		if err := l.Initialize(); err != nil {
			cobra.CheckErr(fmt.Sprintf("Failed to create logger: %v", err))
		}

		if options.profilerAddress != "" {
			p := profiler.NewProfiler(options.profilerAddress)
			if err := p.Start(); err != nil {
				cobra.CheckErr(fmt.Sprintf("Failed to start profiler: %v", err))
			}
			defer func() {
				_ = p.Stop()
			}()
		}

		s, err := sink.NewSink(&options.sink)
		if err != nil {
			cobra.CheckErr(fmt.Sprintf("Failed to initialize sink: %v", err))
		}

		target, err := cprog.TargetFromString(options.target)
		cobra.CheckErr(err)

		rules := append(viper.GetStringSlice("rules"), options.rules...)

		svc, err := service.NewService(l, s, &service.Config{
			Rules:  rules,
			Output: options.output,
			Format: options.format,
			Target: target,
			Tuning: cprog.Tuning{
				Inline: options.inline,
				Clone:  options.clone,
				Printk: options.printk,
			},
			Watch: options.watch,
		})
		cobra.CheckErr(err)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if tranquil := svc.Run(ctx); !tranquil {
			os.Exit(1)
		}
	},
}

func init() {
	runCmd.CompletionOptions.SetDefaultShellCompDirective(cobra.ShellCompDirectiveNoFileComp)

	runCmd.Flags().StringVar(&options.configFile, "config", "", "Path to config file")

	runCmd.Flags().StringArrayVar(&options.rules, "rule", nil, "Rule in tc flower syntax (repeatable, evaluated top-down)")
	runCmd.Flags().StringVar(&options.output, "output", "-", "Artifact output path, '-' for stdout")
	runCmd.Flags().StringVar(&options.format, "format", "yaml", fmt.Sprintf("Artifact format (%s)", strings.Join(validEmitFormats, ", ")))
	_ = runCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return validEmitFormats, cobra.ShellCompDirectiveNoFileComp
	})

	runCmd.Flags().StringVar(&options.target, "target", "tc", fmt.Sprintf("Program target (%s)", strings.Join(validTargets, ", ")))
	_ = runCmd.RegisterFlagCompletionFunc("target", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return validTargets, cobra.ShellCompDirectiveNoFileComp
	})

	runCmd.Flags().BoolVar(&options.watch, "watch", false, "Recompile when the config file changes")

	runCmd.Flags().BoolVar(&options.inline, "cprog.inline", false, "Inline generated match functions")
	runCmd.Flags().BoolVar(&options.clone, "cprog.clone", false, "Clone the filter into the generated program")
	runCmd.Flags().BoolVar(&options.printk, "cprog.printk", false, "Emit trace_printk calls in the generated program")

	runCmd.Flags().StringVar(&options.logLevel, "log.level", "info", fmt.Sprintf("Log level (%s)", strings.Join(logger.Levels, ", ")))
	_ = runCmd.RegisterFlagCompletionFunc("log.level", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return logger.Levels, cobra.ShellCompDirectiveNoFileComp
	})

	runCmd.Flags().StringVar(&options.logFormat, "log.format", "json", fmt.Sprintf("Log format (%s)", strings.Join(logger.Formats, ", ")))
	_ = runCmd.RegisterFlagCompletionFunc("log.format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return logger.Formats, cobra.ShellCompDirectiveNoFileComp
	})

	runCmd.Flags().StringVar(&options.profilerAddress, "profiler.address", "", "Pyroscope server address")

	runCmd.Flags().BoolVar(&options.sink.Journal.Enable, "sink.journal.enable", false, "Enable journald sink")
	runCmd.Flags().BoolVar(&options.sink.Syslog.Enable, "sink.syslog.enable", false, "Enable syslog sink")
	runCmd.Flags().StringVar(&options.sink.Syslog.Address, "sink.syslog.address", "udp://localhost:514", "Syslog address")

	runCmd.Flags().BoolVar(&options.sink.Loki.Enable, "sink.loki.enable", false, "Enable Loki sink")
	runCmd.Flags().StringVar(&options.sink.Loki.Address, "sink.loki.address", "http://localhost:3100", "Loki address")
	runCmd.Flags().StringSliceVar(&options.sink.Loki.Labels, "sink.loki.labels", nil, "Additional labels for Loki sink in key=value format")

	runCmd.Flags().BoolVar(&options.sink.Stream.Enable, "sink.stream.enable", true, "Enable stream sink")
	runCmd.Flags().StringVar(&options.sink.Stream.Writer, "sink.stream.writer", "stderr", fmt.Sprintf("Stream writer (%s)", strings.Join(sink.StreamWriters, ", ")))
	_ = runCmd.RegisterFlagCompletionFunc("sink.stream.writer", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return sink.StreamWriters, cobra.ShellCompDirectiveNoFileComp
	})
}
