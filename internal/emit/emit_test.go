/*
Copyright (c) 2025 Tobias Schäfer. All rights reserved.
Licensed under the MIT License, see LICENSE file in the project root for details.
*/
package emit

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/tschaefer/flowfilter/internal/cprog"
	"github.com/tschaefer/flowfilter/internal/rule"
	"github.com/tschaefer/flowfilter/internal/tcflower"
)

func __compile(t *testing.T, lines ...string) (*rule.Filter, cprog.Options) {
	f := rule.NewFilter()
	for _, line := range lines {
		r, err := tcflower.ParseRule(strings.Fields(line))
		require.NoError(t, err)
		require.NoError(t, f.AddRule(r, -1))
	}
	opts := cprog.DeriveOptions(f, cprog.TargetTC, cprog.Tuning{})
	return f, opts
}

func TestWriteFilter_YAML(t *testing.T) {
	f, opts := __compile(t,
		"protocol ip flower ip_proto tcp dst_port 80 action pass",
		"protocol ip flower dst_ip 10.0.0.0/8 action drop",
	)

	var buf bytes.Buffer
	require.NoError(t, WriteFilter(&buf, f, opts, "yaml"))

	var doc document
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))

	require.Len(t, doc.Rules, 2)
	assert.Equal(t, "pass", doc.Rules[0].Action)
	require.Len(t, doc.Rules[0].Matches, 2)
	assert.Equal(t, "ipv4_l4proto", doc.Rules[0].Matches[0].Type)
	assert.Equal(t, "eq", doc.Rules[0].Matches[0].Op)
	assert.Equal(t, "6", doc.Rules[0].Matches[0].Value)

	assert.Equal(t, "drop", doc.Rules[1].Action)
	assert.Equal(t, "ipv4_dst", doc.Rules[1].Matches[0].Type)
	assert.Equal(t, "10.0.0.0", doc.Rules[1].Matches[0].Value)
	assert.Equal(t, "ff000000", doc.Rules[1].Matches[0].Mask)
	assert.Contains(t, doc.Rules[1].Matches[0].Flags, "use_mask")

	assert.Equal(t, "tc", doc.Options.Target)
	assert.Equal(t, 2, doc.Options.NbMatches)
	assert.Contains(t, doc.Options.Flags, "need_ipv4")
	assert.Contains(t, doc.Options.Flags, "need_tcp")
	assert.Contains(t, doc.Options.Helpers, "MapLookupElem")
}

func TestWriteFilter_JSON(t *testing.T) {
	f, opts := __compile(t, "protocol ipv6 flower ip_proto udp action drop")

	var buf bytes.Buffer
	require.NoError(t, WriteFilter(&buf, f, opts, "json"))

	var doc document
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	require.Len(t, doc.Rules, 1)
	assert.Equal(t, "ipv6_l4proto", doc.Rules[0].Matches[0].Type)
	assert.Contains(t, doc.Options.Flags, "need_ipv6")
	assert.Contains(t, doc.Options.Flags, "need_udp")
}

func TestWriteFilter_InvalidFormat(t *testing.T) {
	f, opts := __compile(t, "protocol ip flower ip_proto tcp action drop")

	var buf bytes.Buffer
	err := WriteFilter(&buf, f, opts, "xml")
	assert.EqualError(t, err, "invalid artifact format specified: \"xml\"")
}

func TestWriteFile(t *testing.T) {
	f, opts := __compile(t, "protocol ip flower ip_proto tcp action drop")

	path := filepath.Join(t.TempDir(), "filter.yaml")
	require.NoError(t, WriteFile(path, f, opts, "yaml"))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "ipv4_l4proto")
	assert.Contains(t, string(content), "action: drop")
}

func TestWriteFile_CreateFails(t *testing.T) {
	f, opts := __compile(t, "protocol ip flower ip_proto tcp action drop")

	err := WriteFile("/nonexistent/dir/filter.yaml", f, opts, "yaml")
	assert.Error(t, err)
}
