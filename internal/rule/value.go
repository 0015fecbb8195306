/*
Copyright (c) 2025 Tobias Schäfer. All rights reserved.
Licensed under the MIT License, see LICENSE file in the project root for details.
*/
package rule

import (
	"encoding/binary"
	"fmt"
	"net"
	"net/netip"
)

// Format identifies the wire format of a match value. Every match type maps
// to exactly one format, see MatchType.Format.
type Format int

const (
	FormatBit Format = iota // MPLS bottom-of-stack
	FormatUint3             // VLAN priority, MPLS traffic class
	FormatUint6
	FormatUint8
	FormatUint12 // VLAN ID, TCP flags
	FormatUint16
	FormatUint20 // MPLS label
	FormatUint32
	FormatMACAddr
	FormatIPv4Addr
	FormatIPv6Addr
)

func (f Format) String() string {
	switch f {
	case FormatBit:
		return "bit"
	case FormatUint3:
		return "uint3"
	case FormatUint6:
		return "uint6"
	case FormatUint8:
		return "uint8"
	case FormatUint12:
		return "uint12"
	case FormatUint16:
		return "uint16"
	case FormatUint20:
		return "uint20"
	case FormatUint32:
		return "uint32"
	case FormatMACAddr:
		return "mac"
	case FormatIPv4Addr:
		return "ipv4"
	case FormatIPv6Addr:
		return "ipv6"
	default:
		return "unknown"
	}
}

// Bits returns the number of significant bits for the format.
func (f Format) Bits() int {
	switch f {
	case FormatBit:
		return 1
	case FormatUint3:
		return 3
	case FormatUint6:
		return 6
	case FormatUint8:
		return 8
	case FormatUint12:
		return 12
	case FormatUint16:
		return 16
	case FormatUint20:
		return 20
	case FormatUint32:
		return 32
	case FormatMACAddr:
		return 48
	case FormatIPv4Addr:
		return 32
	case FormatIPv6Addr:
		return 128
	default:
		return 0
	}
}

// ByteLen returns the number of bytes the format occupies in the flat
// backing buffer. Integer formats narrower than a byte boundary round up.
func (f Format) ByteLen() int {
	switch f {
	case FormatBit, FormatUint3, FormatUint6, FormatUint8:
		return 1
	case FormatUint12, FormatUint16:
		return 2
	case FormatUint20, FormatUint32, FormatIPv4Addr:
		return 4
	case FormatMACAddr:
		return 6
	case FormatIPv6Addr:
		return 16
	default:
		return 0
	}
}

// ValueSize is the size of the flat backing buffer of a Value, large enough
// for the widest format (an IPv6 address).
const ValueSize = 16

// Value is one match value. The active representation is determined by
// Format; Data holds the big-endian encoding in its leading ByteLen bytes so
// the backend can emit it without format-specific cases.
type Value struct {
	Format Format
	Data   [ValueSize]byte
}

// NewUintValue encodes v in the given integer format. Values wider than the
// format are truncated to its byte length; callers are expected to have
// range-checked the value first.
func NewUintValue(format Format, v uint32) Value {
	val := Value{Format: format}
	switch format.ByteLen() {
	case 1:
		val.Data[0] = byte(v)
	case 2:
		binary.BigEndian.PutUint16(val.Data[:2], uint16(v))
	case 4:
		binary.BigEndian.PutUint32(val.Data[:4], v)
	}
	return val
}

// NewMACValue encodes a 6-byte hardware address.
func NewMACValue(hw net.HardwareAddr) Value {
	val := Value{Format: FormatMACAddr}
	copy(val.Data[:6], hw)
	return val
}

// NewIPv4Value encodes a 4-byte IPv4 address.
func NewIPv4Value(addr netip.Addr) Value {
	val := Value{Format: FormatIPv4Addr}
	b := addr.As4()
	copy(val.Data[:4], b[:])
	return val
}

// NewIPv6Value encodes a 16-byte IPv6 address.
func NewIPv6Value(addr netip.Addr) Value {
	val := Value{Format: FormatIPv6Addr}
	b := addr.As16()
	copy(val.Data[:16], b[:])
	return val
}

// Uint decodes the value for integer formats. It returns 0 for address
// formats.
func (v Value) Uint() uint32 {
	switch v.Format.ByteLen() {
	case 1:
		if v.Format == FormatMACAddr || v.Format == FormatIPv4Addr || v.Format == FormatIPv6Addr {
			return 0
		}
		return uint32(v.Data[0])
	case 2:
		return uint32(binary.BigEndian.Uint16(v.Data[:2]))
	case 4:
		if v.Format == FormatIPv4Addr {
			return 0
		}
		return binary.BigEndian.Uint32(v.Data[:4])
	default:
		return 0
	}
}

// MAC returns the hardware address for FormatMACAddr values.
func (v Value) MAC() net.HardwareAddr {
	hw := make(net.HardwareAddr, 6)
	copy(hw, v.Data[:6])
	return hw
}

// Addr returns the address for FormatIPv4Addr and FormatIPv6Addr values.
func (v Value) Addr() netip.Addr {
	if v.Format == FormatIPv4Addr {
		return netip.AddrFrom4([4]byte(v.Data[:4]))
	}
	return netip.AddrFrom16(v.Data)
}

// Bytes returns the significant prefix of the flat backing buffer.
func (v Value) Bytes() []byte {
	return v.Data[:v.Format.ByteLen()]
}

func (v Value) String() string {
	switch v.Format {
	case FormatMACAddr:
		return v.MAC().String()
	case FormatIPv4Addr, FormatIPv6Addr:
		return v.Addr().String()
	default:
		return fmt.Sprintf("%d", v.Uint())
	}
}
