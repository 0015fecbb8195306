/*
Copyright (c) 2025 Tobias Schäfer. All rights reserved.
Licensed under the MIT License, see LICENSE file in the project root for details.
*/
package tcflower

import (
	"fmt"

	"github.com/google/gopacket/layers"
	"golang.org/x/sys/unix"

	"github.com/tschaefer/flowfilter/internal/parse"
	"github.com/tschaefer/flowfilter/internal/rule"
)

type valueKind int

const (
	kindUint     valueKind = iota // plain numeral, width from the match type
	kindUintMask                  // numeral with optional /mask
	kindMAC                       // MAC address with optional /mask-or-prefixlen
	kindIPAddr                    // family-selected address with optional /mask-or-prefixlen
	kindIPv4Addr                  // IPv4 address regardless of family (ARP)
	kindIPProto                   // symbolic L4 protocol name or numeral
	kindEthertype                 // symbolic ethertype name or numeral
	kindARPOp                     // request/reply or numeral
)

// matchKeyword describes one entry of the dispatch table: how the value
// token decodes and which taxonomy variant the match gets. A zero v6 means
// the keyword is family-independent and v4 applies to both families.
type matchKeyword struct {
	kind valueKind
	v4   rule.MatchType
	v6   rule.MatchType
}

func (k matchKeyword) typeFor(fam family) rule.MatchType {
	if fam == familyIPv6 && k.v6 != rule.MatchUnspec {
		return k.v6
	}
	return k.v4
}

var matchKeywords = map[string]matchKeyword{
	"dst_mac":       {kind: kindMAC, v4: rule.MatchEtherDst},
	"src_mac":       {kind: kindMAC, v4: rule.MatchEtherSrc},
	"eth_type":      {kind: kindEthertype, v4: rule.MatchEtherProto},
	"vlan_id":       {kind: kindUint, v4: rule.MatchVLANID},
	"vlan_prio":     {kind: kindUint, v4: rule.MatchVLANPrio},
	"vlan_ethtype":  {kind: kindEthertype, v4: rule.MatchVLANEthertype},
	"cvlan_id":      {kind: kindUint, v4: rule.MatchCVLANID},
	"cvlan_prio":    {kind: kindUint, v4: rule.MatchCVLANPrio},
	"cvlan_ethtype": {kind: kindEthertype, v4: rule.MatchCVLANEthertype},
	"ip_proto":      {kind: kindIPProto, v4: rule.MatchIPv4L4Proto, v6: rule.MatchIPv6L4Proto},
	"ip_tos":        {kind: kindUintMask, v4: rule.MatchIPv4ToS, v6: rule.MatchIPv6ToS},
	"ip_ttl":        {kind: kindUintMask, v4: rule.MatchIPv4TTL, v6: rule.MatchIPv6TTL},
	"dst_ip":        {kind: kindIPAddr, v4: rule.MatchIPv4Dst, v6: rule.MatchIPv6Dst},
	"src_ip":        {kind: kindIPAddr, v4: rule.MatchIPv4Src, v6: rule.MatchIPv6Src},
	"dst_port":      {kind: kindUint, v4: rule.MatchIPv4L4PortDst, v6: rule.MatchIPv6L4PortDst},
	"src_port":      {kind: kindUint, v4: rule.MatchIPv4L4PortSrc, v6: rule.MatchIPv6L4PortSrc},
	"tcp_flags":     {kind: kindUintMask, v4: rule.MatchIPv4TCPFlags, v6: rule.MatchIPv6TCPFlags},
	"type":          {kind: kindUint, v4: rule.MatchICMPType},
	"code":          {kind: kindUint, v4: rule.MatchICMPCode},
	"mpls_label":    {kind: kindUint, v4: rule.MatchMPLSLabel},
	"mpls_tc":       {kind: kindUint, v4: rule.MatchMPLSTC},
	"mpls_bos":      {kind: kindUint, v4: rule.MatchMPLSBoS},
	"mpls_ttl":      {kind: kindUint, v4: rule.MatchMPLSTTL},
	"arp_tip":       {kind: kindIPv4Addr, v4: rule.MatchARPTIP},
	"arp_sip":       {kind: kindIPv4Addr, v4: rule.MatchARPSIP},
	"arp_op":        {kind: kindARPOp, v4: rule.MatchARPOp},
	"arp_tha":       {kind: kindMAC, v4: rule.MatchARPTHA},
	"arp_sha":       {kind: kindMAC, v4: rule.MatchARPSHA},
	"enc_key_id":    {kind: kindUint, v4: rule.MatchEncKeyID},
	"enc_dst_port":  {kind: kindUint, v4: rule.MatchEncDstPort},
	"enc_tos":       {kind: kindUintMask, v4: rule.MatchEncToS},
	"enc_ttl":       {kind: kindUintMask, v4: rule.MatchEncTTL},
}

// decodeMatch fills one match from a keyword descriptor and its value token.
func decodeMatch(kw matchKeyword, fam family, token string, m *rule.Match) error {
	mt := kw.typeFor(fam)
	format := mt.Format()

	m.Type = mt
	m.Op = rule.CompEqual
	m.Mask = rule.AllOnesMask(format)

	switch kw.kind {
	case kindUint:
		v, err := parse.ParseUint(token, format.Bits())
		if err != nil {
			return err
		}
		m.Value = rule.NewUintValue(format, v)

	case kindUintMask:
		value, mask, err := parse.ParseUintMask(token, format)
		if err != nil {
			return err
		}
		m.Value = value
		setMask(m, mask, format)

	case kindMAC:
		value, mask, err := parse.ParseMACMask(token)
		if err != nil {
			return err
		}
		m.Value = rule.Value{Format: format, Data: value.Data}
		setMask(m, mask, format)

	case kindIPAddr:
		var value rule.Value
		var mask [rule.ValueSize]byte
		var err error
		if fam == familyIPv6 {
			value, mask, err = parse.ParseIPv6Mask(token)
		} else {
			value, mask, err = parse.ParseIPv4Mask(token)
		}
		if err != nil {
			return err
		}
		m.Value = value
		setMask(m, mask, value.Format)

	case kindIPv4Addr:
		value, mask, err := parse.ParseIPv4Mask(token)
		if err != nil {
			return err
		}
		m.Value = rule.Value{Format: format, Data: value.Data}
		setMask(m, mask, format)

	case kindIPProto:
		v, err := parseIPProto(token)
		if err != nil {
			return err
		}
		m.Value = rule.NewUintValue(format, uint32(v))

	case kindEthertype:
		v, err := parseEthertype(token)
		if err != nil {
			return err
		}
		m.Value = rule.NewUintValue(format, uint32(v))

	case kindARPOp:
		v, err := parseARPOp(token)
		if err != nil {
			return err
		}
		m.Value = rule.NewUintValue(format, uint32(v))

	default:
		return fmt.Errorf("%w: %v", ErrUnsupportedKeyword, kw.kind)
	}

	return nil
}

// setMask stores the mask and flags the match when the mask narrows the
// field below exact-match width.
func setMask(m *rule.Match, mask [rule.ValueSize]byte, format rule.Format) {
	m.Mask = mask
	if mask != rule.AllOnesMask(format) {
		m.Flags |= rule.MatchFlagUseMask
	}
}

// parseIPProto accepts the symbolic transport protocol names tc flower
// knows, or a raw 8-bit numeral.
func parseIPProto(token string) (uint8, error) {
	switch token {
	case "tcp":
		return unix.IPPROTO_TCP, nil
	case "udp":
		return unix.IPPROTO_UDP, nil
	case "sctp":
		return unix.IPPROTO_SCTP, nil
	case "icmp":
		return unix.IPPROTO_ICMP, nil
	case "icmpv6":
		return unix.IPPROTO_ICMPV6, nil
	}

	v, err := parse.ParseUint(token, 8)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedProtocol, token)
	}
	return uint8(v), nil
}

// parseEthertype accepts symbolic ethertype names or a 16-bit numeral.
func parseEthertype(token string) (uint16, error) {
	switch token {
	case "ip", "ipv4":
		return uint16(layers.EthernetTypeIPv4), nil
	case "ipv6":
		return uint16(layers.EthernetTypeIPv6), nil
	case "arp":
		return uint16(layers.EthernetTypeARP), nil
	}

	v, err := parse.ParseUint(token, 16)
	if err != nil {
		return 0, err
	}
	return uint16(v), nil
}

// parseARPOp accepts the two symbolic ARP opcodes or a 16-bit numeral.
func parseARPOp(token string) (uint16, error) {
	switch token {
	case "request":
		return 1, nil
	case "reply":
		return 2, nil
	}

	v, err := parse.ParseUint(token, 16)
	if err != nil {
		return 0, err
	}
	return uint16(v), nil
}
