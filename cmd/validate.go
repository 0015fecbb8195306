/*
Copyright (c) 2025 Tobias Schäfer. All rights reserved.
Licensed under the MIT License, see LICENSE file in the project root for details.
*/
package cmd

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/tschaefer/flowfilter/internal/cprog"
	"github.com/tschaefer/flowfilter/internal/emit"
	"github.com/tschaefer/flowfilter/internal/logger"
	"github.com/tschaefer/flowfilter/internal/sink"
)

var (
	validLogLevels   = logger.Levels
	validLogFormats  = logger.Formats
	validTargets     = cprog.Targets
	validEmitFormats = emit.Formats

	validSyslogSchemes = []string{"udp", "tcp", "unix", "unixgram", "unixpacket"}
)

func validateStringFlag(name, value string, valid []string) error {
	switch name {
	case "sink.syslog.address":
		return validateSyslogAddress(value)
	case "sink.loki.address":
		return validateLokiAddress(value)
	}

	if !slices.Contains(valid, value) {
		return fmt.Errorf("invalid value %q for flag %q, valid values are: %s",
			value, name, strings.Join(valid, ", "))
	}
	return nil
}

func validateStringSliceFlag(name string, values []string, valid []string) error {
	if name == "sink.loki.labels" {
		for _, v := range values {
			if !strings.Contains(v, "=") {
				return fmt.Errorf("invalid label %q for flag %q, expected key=value", v, name)
			}
		}
		return nil
	}

	for _, v := range values {
		if !slices.Contains(valid, v) {
			return fmt.Errorf("invalid value %q for flag %q, valid values are: %s",
				v, name, strings.Join(valid, ", "))
		}
	}
	return nil
}

func validateSyslogAddress(value string) error {
	uri, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("invalid syslog address %q: %w", value, err)
	}

	if !slices.Contains(validSyslogSchemes, uri.Scheme) {
		return fmt.Errorf("invalid syslog address %q, scheme must be one of: %s",
			value, strings.Join(validSyslogSchemes, ", "))
	}

	if strings.HasPrefix(uri.Scheme, "unix") {
		if uri.Path == "" {
			return fmt.Errorf("invalid syslog address %q, missing socket path", value)
		}
		return nil
	}

	if uri.Host == "" {
		return fmt.Errorf("invalid syslog address %q, missing host", value)
	}
	return nil
}

func validateLokiAddress(value string) error {
	uri, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("invalid loki address %q: %w", value, err)
	}

	if !slices.Contains(sink.LokiProtocols, uri.Scheme) {
		return fmt.Errorf("invalid loki address %q, scheme must be one of: %s",
			value, strings.Join(sink.LokiProtocols, ", "))
	}

	if uri.Host == "" {
		return fmt.Errorf("invalid loki address %q, missing host", value)
	}
	return nil
}
