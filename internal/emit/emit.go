/*
Copyright (c) 2025 Tobias Schäfer. All rights reserved.
Licensed under the MIT License, see LICENSE file in the project root for details.
*/

// Package emit serializes a compiled filter and its compilation options
// into an artifact the backend repository consumes.
package emit

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tschaefer/flowfilter/internal/cprog"
	"github.com/tschaefer/flowfilter/internal/rule"
)

// Formats lists the supported artifact formats.
var Formats = []string{"yaml", "json"}

type matchDoc struct {
	Type  string   `yaml:"type" json:"type"`
	Op    string   `yaml:"op" json:"op"`
	Value string   `yaml:"value" json:"value"`
	Mask  string   `yaml:"mask" json:"mask"`
	Flags []string `yaml:"flags,omitempty" json:"flags,omitempty"`
}

type ruleDoc struct {
	Action  string     `yaml:"action" json:"action"`
	Matches []matchDoc `yaml:"matches" json:"matches"`
}

type optionsDoc struct {
	Target    string   `yaml:"target" json:"target"`
	Flags     []string `yaml:"flags" json:"flags"`
	NbMatches int      `yaml:"nb_matches" json:"nb_matches"`
	Helpers   []string `yaml:"helpers" json:"helpers"`
}

type document struct {
	Rules   []ruleDoc  `yaml:"rules" json:"rules"`
	Options optionsDoc `yaml:"options" json:"options"`
}

// WriteFilter writes the artifact for a validated filter to w.
func WriteFilter(w io.Writer, f *rule.Filter, opts cprog.Options, format string) error {
	doc := buildDocument(f, opts)

	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	default:
		return fmt.Errorf("invalid artifact format specified: %q", format)
	}
}

// WriteFile writes the artifact to path, or to stdout for "-".
func WriteFile(path string, f *rule.Filter, opts cprog.Options, format string) error {
	if path == "" || path == "-" {
		return WriteFilter(os.Stdout, f, opts, format)
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		_ = file.Close()
	}()

	return WriteFilter(file, f, opts, format)
}

func buildDocument(f *rule.Filter, opts cprog.Options) document {
	doc := document{
		Rules: make([]ruleDoc, 0, f.Len()),
		Options: optionsDoc{
			Target:    opts.Target.String(),
			NbMatches: opts.NbMatches,
		},
	}

	if s := opts.Flags.String(); s != "" {
		doc.Options.Flags = strings.Split(s, ",")
	}
	for _, fn := range opts.ReqHelpers.List() {
		doc.Options.Helpers = append(doc.Options.Helpers, fn.String())
	}

	for _, r := range f.Rules() {
		rd := ruleDoc{
			Action:  r.Action.String(),
			Matches: make([]matchDoc, 0, r.NMatches),
		}
		for _, m := range r.MatchList() {
			rd.Matches = append(rd.Matches, matchDocument(m))
		}
		doc.Rules = append(doc.Rules, rd)
	}

	return doc
}

func matchDocument(m rule.Match) matchDoc {
	doc := matchDoc{
		Type:  m.Type.String(),
		Op:    m.Op.String(),
		Value: m.Value.String(),
		Mask:  hex.EncodeToString(m.Mask[:m.Value.Format.ByteLen()]),
	}

	if m.Flags&rule.MatchFlagUseMask != 0 {
		doc.Flags = append(doc.Flags, "use_mask")
	}
	if m.Flags&rule.MatchFlagUseRange != 0 {
		doc.Flags = append(doc.Flags, "use_range")
	}

	return doc
}
