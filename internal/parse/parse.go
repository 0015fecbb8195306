/*
Copyright (c) 2025 Tobias Schäfer. All rights reserved.
Licensed under the MIT License, see LICENSE file in the project root for details.
*/

// Package parse decodes single value tokens into fixed-format match values.
// Every function is stateless and performs no I/O. Tokens may carry a
// "/MASK" suffix holding either a literal mask or, for address formats, a
// prefix length; without a suffix the mask is all-ones over the field.
package parse

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"strconv"
	"strings"

	"github.com/tschaefer/flowfilter/internal/rule"
)

var (
	// ErrFormat reports a token that is not a valid encoding of the
	// requested value type.
	ErrFormat = errors.New("invalid value format")
	// ErrRange reports a numeric value that does not fit the field width.
	ErrRange = errors.New("value out of range")
)

// ParseUint decodes a base-10 or hexadecimal numeral of at most bits bits.
func ParseUint(token string, bits int) (uint32, error) {
	v, err := strconv.ParseUint(token, 0, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, fmt.Errorf("%w: %q", ErrRange, token)
		}
		return 0, fmt.Errorf("%w: %q", ErrFormat, token)
	}

	if bits < 32 && v > uint64(1)<<bits-1 || v > 1<<32-1 {
		return 0, fmt.Errorf("%w: %q exceeds %d bits", ErrRange, token, bits)
	}

	return uint32(v), nil
}

// ParseUintMask decodes "VALUE[/MASK]" into a value of the given integer
// format plus a byte mask aligned with the value encoding. The mask side is
// a literal mask of the same width; without one the mask is all-ones.
func ParseUintMask(token string, format rule.Format) (rule.Value, [rule.ValueSize]byte, error) {
	bits := format.Bits()

	val, maskTok, found := strings.Cut(token, "/")

	v, err := ParseUint(val, bits)
	if err != nil {
		return rule.Value{}, [rule.ValueSize]byte{}, err
	}
	value := rule.NewUintValue(format, v)

	if !found {
		return value, rule.AllOnesMask(format), nil
	}

	m, err := ParseUint(maskTok, bits)
	if err != nil {
		return rule.Value{}, [rule.ValueSize]byte{}, err
	}

	masked := rule.NewUintValue(format, m)
	var mask [rule.ValueSize]byte
	copy(mask[:], masked.Data[:])

	return value, mask, nil
}

// ParseMACMask decodes "MAC[/MASK-or-prefixlen]" into a 6-byte hardware
// address value plus mask. A mask side containing a separator is a literal
// MAC-formatted mask, a bare numeral is a prefix length out of 48.
func ParseMACMask(token string) (rule.Value, [rule.ValueSize]byte, error) {
	val, maskTok, found := strings.Cut(token, "/")

	hw, err := net.ParseMAC(val)
	if err != nil || len(hw) != 6 {
		return rule.Value{}, [rule.ValueSize]byte{}, fmt.Errorf("%w: %q is not a MAC address", ErrFormat, val)
	}
	value := rule.NewMACValue(hw)

	if !found {
		return value, rule.AllOnesMask(rule.FormatMACAddr), nil
	}

	var mask [rule.ValueSize]byte
	if strings.ContainsAny(maskTok, ":-.") {
		m, err := net.ParseMAC(maskTok)
		if err != nil || len(m) != 6 {
			return rule.Value{}, mask, fmt.Errorf("%w: %q is not a MAC mask", ErrFormat, maskTok)
		}
		copy(mask[:], m)
		return value, mask, nil
	}

	mask, err = prefixMask(maskTok, 48)
	if err != nil {
		return rule.Value{}, mask, err
	}
	return value, mask, nil
}

// ParseIPv4Mask decodes "ADDR[/MASK-or-prefixlen]" into a 4-byte address
// value plus mask. A dotted mask side is a literal netmask, a bare numeral
// is a prefix length out of 32.
func ParseIPv4Mask(token string) (rule.Value, [rule.ValueSize]byte, error) {
	val, maskTok, found := strings.Cut(token, "/")

	addr, err := netip.ParseAddr(val)
	if err != nil || !addr.Is4() {
		return rule.Value{}, [rule.ValueSize]byte{}, fmt.Errorf("%w: %q is not an IPv4 address", ErrFormat, val)
	}
	value := rule.NewIPv4Value(addr)

	if !found {
		return value, rule.AllOnesMask(rule.FormatIPv4Addr), nil
	}

	var mask [rule.ValueSize]byte
	if strings.Contains(maskTok, ".") {
		m, err := netip.ParseAddr(maskTok)
		if err != nil || !m.Is4() {
			return rule.Value{}, mask, fmt.Errorf("%w: %q is not an IPv4 mask", ErrFormat, maskTok)
		}
		b := m.As4()
		copy(mask[:], b[:])
		return value, mask, nil
	}

	mask, err = prefixMask(maskTok, 32)
	if err != nil {
		return rule.Value{}, mask, err
	}
	return value, mask, nil
}

// ParseIPv6Mask decodes "ADDR[/MASK-or-prefixlen]" into a 16-byte address
// value plus mask. A colon-separated mask side is a literal mask, a bare
// numeral is a prefix length out of 128.
func ParseIPv6Mask(token string) (rule.Value, [rule.ValueSize]byte, error) {
	val, maskTok, found := strings.Cut(token, "/")

	addr, err := netip.ParseAddr(val)
	if err != nil || !addr.Is6() || addr.Is4In6() {
		return rule.Value{}, [rule.ValueSize]byte{}, fmt.Errorf("%w: %q is not an IPv6 address", ErrFormat, val)
	}
	value := rule.NewIPv6Value(addr)

	if !found {
		return value, rule.AllOnesMask(rule.FormatIPv6Addr), nil
	}

	var mask [rule.ValueSize]byte
	if strings.Contains(maskTok, ":") {
		m, err := netip.ParseAddr(maskTok)
		if err != nil || !m.Is6() || m.Is4In6() {
			return rule.Value{}, mask, fmt.Errorf("%w: %q is not an IPv6 mask", ErrFormat, maskTok)
		}
		mask = m.As16()
		return value, mask, nil
	}

	mask, err = prefixMask(maskTok, 128)
	if err != nil {
		return rule.Value{}, mask, err
	}
	return value, mask, nil
}

// prefixMask normalizes a prefix length to a byte mask over width bits.
func prefixMask(token string, width int) ([rule.ValueSize]byte, error) {
	var mask [rule.ValueSize]byte

	p, err := strconv.Atoi(token)
	if err != nil {
		return mask, fmt.Errorf("%w: %q is not a prefix length", ErrFormat, token)
	}
	if p < 0 || p > width {
		return mask, fmt.Errorf("%w: prefix length %d exceeds %d bits", ErrRange, p, width)
	}

	for i := 0; i < p/8; i++ {
		mask[i] = 0xff
	}
	if rem := p % 8; rem != 0 {
		mask[p/8] = byte(0xff << (8 - rem))
	}
	return mask, nil
}
