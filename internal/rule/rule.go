/*
Copyright (c) 2025 Tobias Schäfer. All rights reserved.
Licensed under the MIT License, see LICENSE file in the project root for details.
*/

// Package rule defines the intermediate representation of traffic
// classification rules: match values, the match taxonomy, rules and the
// filter container handed to the eBPF code generation backend.
package rule

// MaxMatchesPerRule bounds the number of field matches one rule can carry.
const MaxMatchesPerRule = 5

// Action is what a matching rule does with the packet.
type Action int

const (
	ActionDrop Action = iota
	ActionPass
)

func (a Action) String() string {
	switch a {
	case ActionDrop:
		return "drop"
	case ActionPass:
		return "pass"
	default:
		return "unknown"
	}
}

// Rule is a conjunction of up to MaxMatchesPerRule field matches plus an
// action. Populated matches occupy the leading NMatches slots without gaps;
// trailing slots keep the explicit MatchUnspec type so a zeroed slot is
// never mistaken for a match.
type Rule struct {
	Matches  [MaxMatchesPerRule]Match
	NMatches int
	Action   Action
}

// MatchList returns the populated prefix of the match sequence.
func (r *Rule) MatchList() []Match {
	n := r.NMatches
	if n < 0 {
		n = 0
	}
	if n > MaxMatchesPerRule {
		n = MaxMatchesPerRule
	}
	return r.Matches[:n]
}
