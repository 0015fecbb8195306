/*
Copyright (c) 2025 Tobias Schäfer. All rights reserved.
Licensed under the MIT License, see LICENSE file in the project root for details.
*/
package rule

// MatchType identifies the protocol field a match tests. The "Any" variants
// are indifferent to source/destination orientation (Ethernet) or to the IP
// version (IP family); the tc-flower front-end never produces them, they are
// reserved for the backend's rule merge step.
type MatchType int

const (
	MatchUnspec MatchType = iota

	MatchEtherSrc
	MatchEtherDst
	MatchEtherAny
	MatchEtherProto

	MatchIPv4Src
	MatchIPv4Dst
	MatchIPv4Any
	MatchIPv4ToS
	MatchIPv4TTL
	MatchIPv4Flags
	MatchIPv4L4Proto
	MatchIPv4L4Data
	MatchIPv4L4PortSrc
	MatchIPv4L4PortDst
	MatchIPv4L4PortAny
	MatchIPv4SPI
	MatchIPv4TCPFlags

	MatchIPv6Src
	MatchIPv6Dst
	MatchIPv6Any
	MatchIPv6ToS // traffic class
	MatchIPv6TTL // hop limit
	MatchIPv6Flags
	MatchIPv6L4Proto
	MatchIPv6L4Data
	MatchIPv6L4PortSrc
	MatchIPv6L4PortDst
	MatchIPv6L4PortAny
	MatchIPv6SPI
	MatchIPv6TCPFlags

	MatchIPAnySrc
	MatchIPAnyDst
	MatchIPAnyAny
	MatchIPAnyToS
	MatchIPAnyTTL
	MatchIPAnyFlags
	MatchIPAnyL4Proto
	MatchIPAnyL4Data
	MatchIPAnyL4PortSrc
	MatchIPAnyL4PortDst
	MatchIPAnyL4PortAny
	MatchIPAnySPI
	MatchIPAnyTCPFlags

	MatchVLANID
	MatchVLANPrio
	MatchVLANEthertype

	MatchCVLANID
	MatchCVLANPrio
	MatchCVLANEthertype

	MatchMPLSLabel
	MatchMPLSTC
	MatchMPLSBoS
	MatchMPLSTTL

	MatchICMPType
	MatchICMPCode

	MatchARPTIP
	MatchARPSIP
	MatchARPOp
	MatchARPTHA
	MatchARPSHA

	MatchEncKeyID
	MatchEncDstID
	MatchEncSrcID
	MatchEncDstPort
	MatchEncToS
	MatchEncTTL

	MatchGeneveOptions

	maxMatchType
)

var matchTypeNames = map[MatchType]string{
	MatchUnspec: "unspec",

	MatchEtherSrc:   "ether_src",
	MatchEtherDst:   "ether_dst",
	MatchEtherAny:   "ether_any",
	MatchEtherProto: "ether_proto",

	MatchIPv4Src:       "ipv4_src",
	MatchIPv4Dst:       "ipv4_dst",
	MatchIPv4Any:       "ipv4_any",
	MatchIPv4ToS:       "ipv4_tos",
	MatchIPv4TTL:       "ipv4_ttl",
	MatchIPv4Flags:     "ipv4_flags",
	MatchIPv4L4Proto:   "ipv4_l4proto",
	MatchIPv4L4Data:    "ipv4_l4data",
	MatchIPv4L4PortSrc: "ipv4_l4port_src",
	MatchIPv4L4PortDst: "ipv4_l4port_dst",
	MatchIPv4L4PortAny: "ipv4_l4port_any",
	MatchIPv4SPI:       "ipv4_spi",
	MatchIPv4TCPFlags:  "ipv4_tcp_flags",

	MatchIPv6Src:       "ipv6_src",
	MatchIPv6Dst:       "ipv6_dst",
	MatchIPv6Any:       "ipv6_any",
	MatchIPv6ToS:       "ipv6_tos",
	MatchIPv6TTL:       "ipv6_ttl",
	MatchIPv6Flags:     "ipv6_flags",
	MatchIPv6L4Proto:   "ipv6_l4proto",
	MatchIPv6L4Data:    "ipv6_l4data",
	MatchIPv6L4PortSrc: "ipv6_l4port_src",
	MatchIPv6L4PortDst: "ipv6_l4port_dst",
	MatchIPv6L4PortAny: "ipv6_l4port_any",
	MatchIPv6SPI:       "ipv6_spi",
	MatchIPv6TCPFlags:  "ipv6_tcp_flags",

	MatchIPAnySrc:       "ip_any_src",
	MatchIPAnyDst:       "ip_any_dst",
	MatchIPAnyAny:       "ip_any_any",
	MatchIPAnyToS:       "ip_any_tos",
	MatchIPAnyTTL:       "ip_any_ttl",
	MatchIPAnyFlags:     "ip_any_flags",
	MatchIPAnyL4Proto:   "ip_any_l4proto",
	MatchIPAnyL4Data:    "ip_any_l4data",
	MatchIPAnyL4PortSrc: "ip_any_l4port_src",
	MatchIPAnyL4PortDst: "ip_any_l4port_dst",
	MatchIPAnyL4PortAny: "ip_any_l4port_any",
	MatchIPAnySPI:       "ip_any_spi",
	MatchIPAnyTCPFlags:  "ip_any_tcp_flags",

	MatchVLANID:        "vlan_id",
	MatchVLANPrio:      "vlan_prio",
	MatchVLANEthertype: "vlan_ethtype",

	MatchCVLANID:        "cvlan_id",
	MatchCVLANPrio:      "cvlan_prio",
	MatchCVLANEthertype: "cvlan_ethtype",

	MatchMPLSLabel: "mpls_label",
	MatchMPLSTC:    "mpls_tc",
	MatchMPLSBoS:   "mpls_bos",
	MatchMPLSTTL:   "mpls_ttl",

	MatchICMPType: "icmp_type",
	MatchICMPCode: "icmp_code",

	MatchARPTIP: "arp_tip",
	MatchARPSIP: "arp_sip",
	MatchARPOp:  "arp_op",
	MatchARPTHA: "arp_tha",
	MatchARPSHA: "arp_sha",

	MatchEncKeyID:   "enc_key_id",
	MatchEncDstID:   "enc_dst_id",
	MatchEncSrcID:   "enc_src_id",
	MatchEncDstPort: "enc_dst_port",
	MatchEncToS:     "enc_tos",
	MatchEncTTL:     "enc_ttl",

	MatchGeneveOptions: "geneve_opts",
}

func (t MatchType) String() string {
	if name, ok := matchTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// matchTypeFormats gives the one value format of each match type. The IPv4
// ToS entry is deliberately 8 bits wide, the DSCP restriction is left to the
// backend. Family-agnostic address variants use the 16-byte format so either
// family fits.
var matchTypeFormats = map[MatchType]Format{
	MatchEtherSrc:   FormatMACAddr,
	MatchEtherDst:   FormatMACAddr,
	MatchEtherAny:   FormatMACAddr,
	MatchEtherProto: FormatUint16,

	MatchIPv4Src:       FormatIPv4Addr,
	MatchIPv4Dst:       FormatIPv4Addr,
	MatchIPv4Any:       FormatIPv4Addr,
	MatchIPv4ToS:       FormatUint8,
	MatchIPv4TTL:       FormatUint8,
	MatchIPv4Flags:     FormatUint8,
	MatchIPv4L4Proto:   FormatUint8,
	MatchIPv4L4Data:    FormatUint32,
	MatchIPv4L4PortSrc: FormatUint16,
	MatchIPv4L4PortDst: FormatUint16,
	MatchIPv4L4PortAny: FormatUint16,
	MatchIPv4SPI:       FormatUint32,
	MatchIPv4TCPFlags:  FormatUint12,

	MatchIPv6Src:       FormatIPv6Addr,
	MatchIPv6Dst:       FormatIPv6Addr,
	MatchIPv6Any:       FormatIPv6Addr,
	MatchIPv6ToS:       FormatUint8,
	MatchIPv6TTL:       FormatUint8,
	MatchIPv6Flags:     FormatUint8,
	MatchIPv6L4Proto:   FormatUint8,
	MatchIPv6L4Data:    FormatUint32,
	MatchIPv6L4PortSrc: FormatUint16,
	MatchIPv6L4PortDst: FormatUint16,
	MatchIPv6L4PortAny: FormatUint16,
	MatchIPv6SPI:       FormatUint32,
	MatchIPv6TCPFlags:  FormatUint12,

	MatchIPAnySrc:       FormatIPv6Addr,
	MatchIPAnyDst:       FormatIPv6Addr,
	MatchIPAnyAny:       FormatIPv6Addr,
	MatchIPAnyToS:       FormatUint8,
	MatchIPAnyTTL:       FormatUint8,
	MatchIPAnyFlags:     FormatUint8,
	MatchIPAnyL4Proto:   FormatUint8,
	MatchIPAnyL4Data:    FormatUint32,
	MatchIPAnyL4PortSrc: FormatUint16,
	MatchIPAnyL4PortDst: FormatUint16,
	MatchIPAnyL4PortAny: FormatUint16,
	MatchIPAnySPI:       FormatUint32,
	MatchIPAnyTCPFlags:  FormatUint12,

	MatchVLANID:        FormatUint12,
	MatchVLANPrio:      FormatUint3,
	MatchVLANEthertype: FormatUint16,

	MatchCVLANID:        FormatUint12,
	MatchCVLANPrio:      FormatUint3,
	MatchCVLANEthertype: FormatUint16,

	MatchMPLSLabel: FormatUint20,
	MatchMPLSTC:    FormatUint3,
	MatchMPLSBoS:   FormatBit,
	MatchMPLSTTL:   FormatUint8,

	MatchICMPType: FormatUint8,
	MatchICMPCode: FormatUint8,

	MatchARPTIP: FormatIPv4Addr,
	MatchARPSIP: FormatIPv4Addr,
	MatchARPOp:  FormatUint16,
	MatchARPTHA: FormatMACAddr,
	MatchARPSHA: FormatMACAddr,

	MatchEncKeyID:   FormatUint32,
	MatchEncDstID:   FormatUint32,
	MatchEncSrcID:   FormatUint32,
	MatchEncDstPort: FormatUint16,
	MatchEncToS:     FormatUint8,
	MatchEncTTL:     FormatUint8,

	MatchGeneveOptions: FormatUint32,
}

// Format returns the value format of the match type.
func (t MatchType) Format() Format {
	return matchTypeFormats[t]
}

// IsL4Port reports whether the type matches a transport-layer port, for any
// address family and either orientation.
func (t MatchType) IsL4Port() bool {
	switch t {
	case MatchIPv4L4PortSrc, MatchIPv4L4PortDst, MatchIPv4L4PortAny,
		MatchIPv6L4PortSrc, MatchIPv6L4PortDst, MatchIPv6L4PortAny,
		MatchIPAnyL4PortSrc, MatchIPAnyL4PortDst, MatchIPAnyL4PortAny:
		return true
	}
	return false
}

// IsL4Proto reports whether the type matches the transport-layer protocol
// number.
func (t MatchType) IsL4Proto() bool {
	switch t {
	case MatchIPv4L4Proto, MatchIPv6L4Proto, MatchIPAnyL4Proto:
		return true
	}
	return false
}

// The family classifiers below rely on the declaration order of the
// taxonomy blocks above.

// IsEther reports whether the type matches an Ethernet header field.
func (t MatchType) IsEther() bool {
	return t >= MatchEtherSrc && t <= MatchEtherProto
}

// IsIPv4 reports whether the type matches an IPv4-tagged field.
func (t MatchType) IsIPv4() bool {
	return t >= MatchIPv4Src && t <= MatchIPv4TCPFlags
}

// IsIPv6 reports whether the type matches an IPv6-tagged field.
func (t MatchType) IsIPv6() bool {
	return t >= MatchIPv6Src && t <= MatchIPv6TCPFlags
}

// IsIPAny reports whether the type is a family-agnostic IP variant.
func (t MatchType) IsIPAny() bool {
	return t >= MatchIPAnySrc && t <= MatchIPAnyTCPFlags
}

// IsVLAN reports whether the type matches an outer or inner 802.1Q tag
// field.
func (t MatchType) IsVLAN() bool {
	return t >= MatchVLANID && t <= MatchCVLANEthertype
}

// Comparator is the comparison a match performs between the masked packet
// field and the match value.
type Comparator int

const (
	CompEqual Comparator = iota
	CompLT
	CompLEQ
	CompGT
	CompGEQ
)

func (c Comparator) String() string {
	switch c {
	case CompEqual:
		return "eq"
	case CompLT:
		return "lt"
	case CompLEQ:
		return "leq"
	case CompGT:
		return "gt"
	case CompGEQ:
		return "geq"
	default:
		return "unknown"
	}
}

// MatchFlags carry per-match options.
type MatchFlags uint64

const (
	// MatchFlagUseMask marks a match whose mask was set explicitly and is
	// narrower than the full field.
	MatchFlagUseMask MatchFlags = 1 << iota
	// MatchFlagUseRange marks a match against [Value, Max] instead of a
	// single value.
	MatchFlagUseRange
)

// Match is one field-level test of a rule.
type Match struct {
	Type  MatchType
	Op    Comparator
	Value Value
	// Max is the upper bound when MatchFlagUseRange is set.
	Max [ValueSize]byte
	// Mask is applied to the packet field before comparison. All-ones over
	// the field width means exact match.
	Mask  [ValueSize]byte
	Flags MatchFlags
}

// AllOnesMask returns the exact-match mask for a format: every significant
// bit of the field set, anything beyond the field width clear.
func AllOnesMask(f Format) [ValueSize]byte {
	var mask [ValueSize]byte
	bits := f.Bits()
	n := f.ByteLen()
	// Leading partial byte first for non-byte-aligned widths.
	rem := bits % 8
	i := 0
	if rem != 0 {
		// The value is big-endian in n bytes, so the partial byte is the
		// most significant one that still carries bits.
		full := bits / 8
		for ; i < n-full-1; i++ {
			mask[i] = 0
		}
		mask[i] = byte(1<<rem - 1)
		i++
	}
	for ; i < n; i++ {
		mask[i] = 0xff
	}
	return mask
}
