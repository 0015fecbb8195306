/*
Copyright (c) 2025 Tobias Schäfer. All rights reserved.
Licensed under the MIT License, see LICENSE file in the project root for details.
*/

// Package cprog holds the compilation options handed to the eBPF code
// generation backend alongside a validated filter. The backend itself lives
// out of tree; this package only derives what it needs to know about a
// filter before emitting a program for it.
package cprog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cilium/ebpf/asm"
	"golang.org/x/sys/unix"

	"github.com/tschaefer/flowfilter/internal/rule"
)

// Target selects the program type the backend generates.
type Target int

const (
	TargetTC Target = iota
	TargetXDP
)

func (t Target) String() string {
	switch t {
	case TargetTC:
		return "tc"
	case TargetXDP:
		return "xdp"
	default:
		return "unknown"
	}
}

// Targets lists the valid target names for flag completion and validation.
var Targets = []string{"tc", "xdp"}

// TargetFromString resolves a target name.
func TargetFromString(name string) (Target, error) {
	switch name {
	case "tc":
		return TargetTC, nil
	case "xdp":
		return TargetXDP, nil
	default:
		return 0, fmt.Errorf("unknown target %q, valid targets are: %s", name, strings.Join(Targets, ", "))
	}
}

// Flags describe which protocol headers the generated program must be able
// to walk and how the backend should shape the code.
type Flags uint64

const (
	FlagNeedEther Flags = 1 << iota
	FlagNeedIPv4
	FlagNeedIPv6
	FlagNeedUDP
	FlagNeedTCP
	FlagNeedSCTP
	FlagUseMasks
	FlagInlineFunc
	FlagCloneFilter
	FlagNoVLAN
	FlagUsePrintk
)

// FlagNeedL4 groups the transport-layer header flags.
const FlagNeedL4 = FlagNeedUDP | FlagNeedTCP | FlagNeedSCTP

var flagNames = []struct {
	flag Flags
	name string
}{
	{FlagNeedEther, "need_ether"},
	{FlagNeedIPv4, "need_ipv4"},
	{FlagNeedIPv6, "need_ipv6"},
	{FlagNeedUDP, "need_udp"},
	{FlagNeedTCP, "need_tcp"},
	{FlagNeedSCTP, "need_sctp"},
	{FlagUseMasks, "use_masks"},
	{FlagInlineFunc, "inline_func"},
	{FlagCloneFilter, "clone_filter"},
	{FlagNoVLAN, "no_vlan"},
	{FlagUsePrintk, "use_printk"},
}

func (f Flags) String() string {
	var names []string
	for _, fn := range flagNames {
		if f&fn.flag != 0 {
			names = append(names, fn.name)
		}
	}
	return strings.Join(names, ",")
}

// HelperSet records the eBPF helper functions the generated program calls.
type HelperSet map[asm.BuiltinFunc]struct{}

// Mark adds a helper to the set.
func (s HelperSet) Mark(fn asm.BuiltinFunc) {
	s[fn] = struct{}{}
}

// Contains reports whether the helper is in the set.
func (s HelperSet) Contains(fn asm.BuiltinFunc) bool {
	_, ok := s[fn]
	return ok
}

// List returns the helpers in ascending identifier order.
func (s HelperSet) List() []asm.BuiltinFunc {
	fns := make([]asm.BuiltinFunc, 0, len(s))
	for fn := range s {
		fns = append(fns, fn)
	}
	sort.Slice(fns, func(i, j int) bool { return fns[i] < fns[j] })
	return fns
}

// Tuning carries the caller-chosen code shaping options.
type Tuning struct {
	Inline bool
	Clone  bool
	Printk bool
}

// Options is the compilation-options structure passed to the backend
// together with a read-only reference to the filter. The filter is expected
// to have passed matchlist validation already.
type Options struct {
	Target     Target
	Flags      Flags
	NbMatches  int
	ReqHelpers HelperSet
}

// DeriveOptions computes the options for a filter: which headers the
// program must parse, whether masks are in play, the per-rule match bound
// and the helpers the backend will call.
func DeriveOptions(f *rule.Filter, target Target, tuning Tuning) Options {
	opts := Options{
		Target:     target,
		ReqHelpers: make(HelperSet),
	}

	vlanSeen := false

	for _, r := range f.Rules() {
		if r.NMatches > opts.NbMatches {
			opts.NbMatches = r.NMatches
		}

		for _, m := range r.MatchList() {
			switch {
			case m.Type.IsEther():
				opts.Flags |= FlagNeedEther
			case m.Type.IsIPv4():
				opts.Flags |= FlagNeedIPv4
			case m.Type.IsIPv6():
				opts.Flags |= FlagNeedIPv6
			case m.Type.IsIPAny():
				opts.Flags |= FlagNeedIPv4 | FlagNeedIPv6
			case m.Type.IsVLAN():
				vlanSeen = true
			}

			if m.Type.IsL4Proto() {
				switch m.Value.Uint() {
				case unix.IPPROTO_TCP:
					opts.Flags |= FlagNeedTCP
				case unix.IPPROTO_UDP:
					opts.Flags |= FlagNeedUDP
				case unix.IPPROTO_SCTP:
					opts.Flags |= FlagNeedSCTP
				}
			}

			if m.Flags&rule.MatchFlagUseMask != 0 {
				opts.Flags |= FlagUseMasks
			}
		}
	}

	if !vlanSeen {
		opts.Flags |= FlagNoVLAN
	}

	if tuning.Inline {
		opts.Flags |= FlagInlineFunc
	}
	if tuning.Clone {
		opts.Flags |= FlagCloneFilter
	}
	if tuning.Printk {
		opts.Flags |= FlagUsePrintk
		opts.ReqHelpers.Mark(asm.FnTracePrintk)
	}

	// The rule table lives in a map regardless of shape.
	opts.ReqHelpers.Mark(asm.FnMapLookupElem)

	return opts
}
