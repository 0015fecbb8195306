/*
Copyright (c) 2025 Tobias Schäfer. All rights reserved.
Licensed under the MIT License, see LICENSE file in the project root for details.
*/
package tcflower

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tschaefer/flowfilter/internal/parse"
	"github.com/tschaefer/flowfilter/internal/rule"
)

func tokens(line string) []string {
	return strings.Fields(line)
}

func TestParseRule_Basic(t *testing.T) {
	r, err := ParseRule(tokens("protocol ip flower ip_proto tcp dst_port 80 action pass"))
	require.NoError(t, err)

	assert.Equal(t, rule.ActionPass, r.Action)
	require.Equal(t, 2, r.NMatches)

	assert.Equal(t, rule.MatchIPv4L4Proto, r.Matches[0].Type)
	assert.Equal(t, uint32(6), r.Matches[0].Value.Uint())
	assert.Equal(t, rule.CompEqual, r.Matches[0].Op)

	assert.Equal(t, rule.MatchIPv4L4PortDst, r.Matches[1].Type)
	assert.Equal(t, uint32(80), r.Matches[1].Value.Uint())

	for _, m := range r.Matches[r.NMatches:] {
		assert.Equal(t, rule.MatchUnspec, m.Type, "trailing slots stay unspecified")
	}
}

func TestParseRule_FlowerKeywordIsOptional(t *testing.T) {
	with, err := ParseRule(tokens("protocol ip flower ip_proto udp action drop"))
	require.NoError(t, err)
	without, err := ParseRule(tokens("protocol ip ip_proto udp action drop"))
	require.NoError(t, err)

	assert.Equal(t, with, without)
}

func TestParseRule_FamilySelectsMatchVariant(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		matchType rule.MatchType
	}{
		{"ip selects ipv4 dst", "protocol ip flower dst_ip 10.0.0.1 action drop", rule.MatchIPv4Dst},
		{"ipv4 selects ipv4 src", "protocol ipv4 flower src_ip 10.0.0.1 action drop", rule.MatchIPv4Src},
		{"ipv6 selects ipv6 dst", "protocol ipv6 flower dst_ip 2001:db8::1 action drop", rule.MatchIPv6Dst},
		{"ipv6 selects ipv6 proto", "protocol ipv6 flower ip_proto tcp action drop", rule.MatchIPv6L4Proto},
		{"ipv6 selects ipv6 tos", "protocol ipv6 flower ip_tos 12 action drop", rule.MatchIPv6ToS},
		{"ipv6 selects ipv6 ttl", "protocol ipv6 flower ip_ttl 64 action drop", rule.MatchIPv6TTL},
		{"ipv6 keeps vlan family independent", "protocol ipv6 flower vlan_id 42 action drop", rule.MatchVLANID},
		{"ipv6 with proto selects ipv6 dst port", "protocol ipv6 flower ip_proto tcp dst_port 80 action drop", rule.MatchIPv6L4Proto},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := ParseRule(tokens(tt.line))
			require.NoError(t, err)
			assert.Equal(t, tt.matchType, r.Matches[0].Type)
		})
	}
}

func TestParseRule_Actions(t *testing.T) {
	r, err := ParseRule(tokens("protocol ip flower ip_proto tcp action pass"))
	require.NoError(t, err)
	assert.Equal(t, rule.ActionPass, r.Action)

	r, err = ParseRule(tokens("protocol ip flower ip_proto tcp action drop"))
	require.NoError(t, err)
	assert.Equal(t, rule.ActionDrop, r.Action)
}

func TestParseRule_Errors(t *testing.T) {
	tests := []struct {
		name string
		line string
		err  error
	}{
		{"too few tokens", "protocol ip action drop", ErrArgumentCount},
		{"empty input", "", ErrArgumentCount},
		{"missing protocol literal", "proto ip flower ip_proto tcp action drop", ErrUnsupportedProtocol},
		{"unknown family", "protocol decnet flower ip_proto tcp action drop", ErrUnsupportedProtocol},
		{"unknown keyword", "protocol ip flower color red action drop", ErrUnsupportedKeyword},
		{"dangling token before action", "protocol ip flower ip_proto tcp drop", ErrArgumentCount},
		{"missing action literal", "protocol ip flower ip_proto tcp accept pass", ErrUnsupportedAction},
		{"unknown action verb", "protocol ip flower ip_proto tcp action permit", ErrUnsupportedAction},
		{"port without transport protocol", "protocol ip flower dst_port 80 action drop", ErrMissingDependency},
		{"port without transport protocol nor flower", "protocol ip dst_port 80 action pass", ErrMissingDependency},
		{"source port without transport protocol", "protocol ipv6 flower src_port 443 action drop", ErrMissingDependency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := ParseRule(tokens(tt.line))
			assert.Nil(t, r)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestParseRule_ValueErrors(t *testing.T) {
	tests := []struct {
		name string
		line string
		err  error
	}{
		{"port out of range", "protocol ip flower ip_proto tcp dst_port 99999 action drop", parse.ErrRange},
		{"port not a numeral", "protocol ip flower ip_proto tcp dst_port http action drop", parse.ErrFormat},
		{"vlan id out of range", "protocol ip flower vlan_id 4096 action drop", parse.ErrRange},
		{"bad address", "protocol ip flower dst_ip 10.0.0.256 action drop", parse.ErrFormat},
		{"family mismatch", "protocol ipv6 flower dst_ip 10.0.0.1 action drop", parse.ErrFormat},
		{"bad mac", "protocol ip flower dst_mac 10.0.0.1 action drop", parse.ErrFormat},
		{"unknown transport protocol", "protocol ip flower ip_proto quic action drop", ErrUnsupportedProtocol},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := ParseRule(tokens(tt.line))
			assert.Nil(t, r)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestParseRule_MatchBound(t *testing.T) {
	line := "protocol ip flower " +
		"ip_proto tcp dst_port 80 src_port 1024 ip_ttl 64 ip_tos 8 " +
		"action drop"
	r, err := ParseRule(tokens(line))
	require.NoError(t, err)
	assert.Equal(t, rule.MaxMatchesPerRule, r.NMatches)

	line = "protocol ip flower " +
		"ip_proto tcp dst_port 80 src_port 1024 ip_ttl 64 ip_tos 8 dst_ip 10.0.0.1 " +
		"action drop"
	r, err = ParseRule(tokens(line))
	assert.Nil(t, r)
	assert.ErrorIs(t, err, ErrArgumentCount)
}

func TestParseRule_Masks(t *testing.T) {
	t.Run("prefix length and dotted mask build the same match", func(t *testing.T) {
		prefixed, err := ParseRule(tokens("protocol ip flower dst_ip 10.0.0.0/8 action drop"))
		require.NoError(t, err)
		dotted, err := ParseRule(tokens("protocol ip flower dst_ip 10.0.0.0/255.0.0.0 action drop"))
		require.NoError(t, err)

		assert.Equal(t, prefixed, dotted)
		assert.NotZero(t, prefixed.Matches[0].Flags&rule.MatchFlagUseMask)
	})

	t.Run("full-width mask is not flagged", func(t *testing.T) {
		r, err := ParseRule(tokens("protocol ip flower dst_ip 10.0.0.1/32 action drop"))
		require.NoError(t, err)
		assert.Zero(t, r.Matches[0].Flags&rule.MatchFlagUseMask)
		assert.Equal(t, rule.AllOnesMask(rule.FormatIPv4Addr), r.Matches[0].Mask)
	})

	t.Run("tos literal mask", func(t *testing.T) {
		r, err := ParseRule(tokens("protocol ip flower ip_tos 0x1e/0xfc action drop"))
		require.NoError(t, err)
		assert.Equal(t, uint32(0x1e), r.Matches[0].Value.Uint())
		assert.Equal(t, byte(0xfc), r.Matches[0].Mask[0])
		assert.NotZero(t, r.Matches[0].Flags&rule.MatchFlagUseMask)
	})

	t.Run("ipv6 prefix", func(t *testing.T) {
		r, err := ParseRule(tokens("protocol ipv6 flower src_ip 2001:db8::/64 action pass"))
		require.NoError(t, err)
		assert.Equal(t, rule.MatchIPv6Src, r.Matches[0].Type)
		assert.NotZero(t, r.Matches[0].Flags&rule.MatchFlagUseMask)
	})
}

func TestParseRule_SymbolicValues(t *testing.T) {
	tests := []struct {
		name  string
		line  string
		value uint32
	}{
		{"tcp protocol number", "protocol ip flower ip_proto tcp action drop", 6},
		{"udp protocol number", "protocol ip flower ip_proto udp action drop", 17},
		{"sctp protocol number", "protocol ip flower ip_proto sctp action drop", 132},
		{"icmp protocol number", "protocol ip flower ip_proto icmp action drop", 1},
		{"icmpv6 protocol number", "protocol ipv6 flower ip_proto icmpv6 action drop", 58},
		{"numeric protocol", "protocol ip flower ip_proto 47 action drop", 47},
		{"arp ethertype", "protocol ip flower eth_type arp action drop", 0x0806},
		{"ipv4 ethertype", "protocol ip flower eth_type ip action drop", 0x0800},
		{"ipv6 ethertype", "protocol ip flower vlan_ethtype ipv6 action drop", 0x86dd},
		{"numeric ethertype", "protocol ip flower eth_type 0x8847 action drop", 0x8847},
		{"arp request opcode", "protocol ip flower arp_op request action drop", 1},
		{"arp reply opcode", "protocol ip flower arp_op reply action drop", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := ParseRule(tokens(tt.line))
			require.NoError(t, err)
			assert.Equal(t, tt.value, r.Matches[0].Value.Uint())
		})
	}
}

func TestParseRule_KeywordDispatch(t *testing.T) {
	tests := []struct {
		keyword   string
		value     string
		matchType rule.MatchType
		format    rule.Format
	}{
		{"dst_mac", "de:ad:be:ef:00:01", rule.MatchEtherDst, rule.FormatMACAddr},
		{"src_mac", "de:ad:be:ef:00:01", rule.MatchEtherSrc, rule.FormatMACAddr},
		{"eth_type", "0x0800", rule.MatchEtherProto, rule.FormatUint16},
		{"vlan_id", "42", rule.MatchVLANID, rule.FormatUint12},
		{"vlan_prio", "5", rule.MatchVLANPrio, rule.FormatUint3},
		{"cvlan_id", "42", rule.MatchCVLANID, rule.FormatUint12},
		{"cvlan_prio", "5", rule.MatchCVLANPrio, rule.FormatUint3},
		{"cvlan_ethtype", "ipv6", rule.MatchCVLANEthertype, rule.FormatUint16},
		{"ip_tos", "8", rule.MatchIPv4ToS, rule.FormatUint8},
		{"ip_ttl", "64", rule.MatchIPv4TTL, rule.FormatUint8},
		{"tcp_flags", "0x2/0x17", rule.MatchIPv4TCPFlags, rule.FormatUint12},
		{"type", "8", rule.MatchICMPType, rule.FormatUint8},
		{"code", "0", rule.MatchICMPCode, rule.FormatUint8},
		{"mpls_label", "1048575", rule.MatchMPLSLabel, rule.FormatUint20},
		{"mpls_tc", "7", rule.MatchMPLSTC, rule.FormatUint3},
		{"mpls_bos", "1", rule.MatchMPLSBoS, rule.FormatBit},
		{"mpls_ttl", "64", rule.MatchMPLSTTL, rule.FormatUint8},
		{"arp_tip", "10.0.0.1", rule.MatchARPTIP, rule.FormatIPv4Addr},
		{"arp_sip", "10.0.0.1/24", rule.MatchARPSIP, rule.FormatIPv4Addr},
		{"arp_op", "request", rule.MatchARPOp, rule.FormatUint16},
		{"arp_tha", "de:ad:be:ef:00:01", rule.MatchARPTHA, rule.FormatMACAddr},
		{"arp_sha", "de:ad:be:ef:00:01", rule.MatchARPSHA, rule.FormatMACAddr},
		{"enc_key_id", "100", rule.MatchEncKeyID, rule.FormatUint32},
		{"enc_dst_port", "4789", rule.MatchEncDstPort, rule.FormatUint16},
		{"enc_tos", "8", rule.MatchEncToS, rule.FormatUint8},
		{"enc_ttl", "64", rule.MatchEncTTL, rule.FormatUint8},
	}

	for _, tt := range tests {
		t.Run(tt.keyword, func(t *testing.T) {
			r, err := ParseRule(tokens("protocol ip flower " + tt.keyword + " " + tt.value + " action drop"))
			require.NoError(t, err)
			require.Equal(t, 1, r.NMatches)
			assert.Equal(t, tt.matchType, r.Matches[0].Type)
			assert.Equal(t, tt.format, r.Matches[0].Value.Format)
		})
	}
}

func TestParseRule_TCPFlagsFamilySelected(t *testing.T) {
	r, err := ParseRule(tokens("protocol ipv6 flower tcp_flags 0x2 action drop"))
	require.NoError(t, err)
	assert.Equal(t, rule.MatchIPv6TCPFlags, r.Matches[0].Type)
}

func TestParseRule_Idempotence(t *testing.T) {
	line := "protocol ipv6 flower ip_proto tcp dst_port 443 src_ip 2001:db8::/32 action pass"

	first, err := ParseRule(tokens(line))
	require.NoError(t, err)
	second, err := ParseRule(tokens(line))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.NotSame(t, first, second, "every parse allocates its own rule")
}

func TestParseRule_PortWithProtocolInEitherOrder(t *testing.T) {
	r, err := ParseRule(tokens("protocol ip flower dst_port 80 ip_proto tcp action drop"))
	require.NoError(t, err)
	assert.Equal(t, 2, r.NMatches)
}

func TestParseRule_PortsFollowFamily(t *testing.T) {
	r, err := ParseRule(tokens("protocol ipv6 flower ip_proto tcp dst_port 80 src_port 1024 action drop"))
	require.NoError(t, err)

	assert.Equal(t, rule.MatchIPv6L4PortDst, r.Matches[1].Type)
	assert.Equal(t, rule.MatchIPv6L4PortSrc, r.Matches[2].Type)
}
