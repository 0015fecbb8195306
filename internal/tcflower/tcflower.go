/*
Copyright (c) 2025 Tobias Schäfer. All rights reserved.
Licensed under the MIT License, see LICENSE file in the project root for details.
*/

// Package tcflower parses tc-flower style rule tokens into the rule IR.
//
// Grammar:
//
//	protocol <ip|ipv4|ipv6> [flower] (<keyword> <value>)* action <pass|drop>
//
// The address family resolved by the protocol clause selects the IPv4 or
// IPv6 variant of family-dependent match types; the front-end never emits
// the family-agnostic variants. Parsing is fail-fast: the first failure
// aborts the whole rule and nothing is allocated or inserted anywhere.
package tcflower

import (
	"fmt"

	"github.com/tschaefer/flowfilter/internal/rule"
)

type family int

const (
	familyIPv4 family = iota
	familyIPv6
)

// ParseRule parses one complete rule from its token sequence.
func ParseRule(tokens []string) (*rule.Rule, error) {
	if len(tokens) < 6 {
		return nil, fmt.Errorf("%w: got %d tokens, need at least 6", ErrArgumentCount, len(tokens))
	}

	cur := &cursor{tokens: tokens}

	tok, _ := cur.next()
	if tok != "protocol" {
		return nil, fmt.Errorf("%w: expected protocol clause, got %q", ErrUnsupportedProtocol, tok)
	}

	fam, err := parseFamily(cur)
	if err != nil {
		return nil, err
	}

	// The flower keyword is not mandatory, skip it if present.
	if tok, ok := cur.peek(); ok && tok == "flower" {
		cur.next()
	}

	var matches [rule.MaxMatchesPerRule]rule.Match
	count := 0
	for cur.remaining() > 2 {
		if count == rule.MaxMatchesPerRule {
			return nil, fmt.Errorf("%w: more than %d match clauses", ErrArgumentCount, rule.MaxMatchesPerRule)
		}
		if err := parseMatch(cur, fam, &matches[count]); err != nil {
			return nil, err
		}
		count++
	}

	if err := checkMatchList(matches[:count]); err != nil {
		return nil, err
	}

	action, err := parseAction(cur)
	if err != nil {
		return nil, err
	}

	return composeRule(matches, count, action), nil
}

func parseFamily(cur *cursor) (family, error) {
	tok, ok := cur.next()
	if !ok {
		return 0, fmt.Errorf("%w: missing address family", ErrArgumentCount)
	}

	switch tok {
	case "ip", "ipv4":
		return familyIPv4, nil
	case "ipv6":
		return familyIPv6, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedProtocol, tok)
	}
}

func parseMatch(cur *cursor, fam family, m *rule.Match) error {
	if cur.remaining() < 2 {
		return fmt.Errorf("%w: match clause needs a keyword and a value", ErrArgumentCount)
	}

	keyword, _ := cur.next()
	kw, ok := matchKeywords[keyword]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnsupportedKeyword, keyword)
	}

	value, _ := cur.next()
	if err := decodeMatch(kw, fam, value, m); err != nil {
		return fmt.Errorf("match %q: %w", keyword, err)
	}

	return nil
}

func parseAction(cur *cursor) (rule.Action, error) {
	if cur.remaining() != 2 {
		return 0, fmt.Errorf("%w: action clause needs exactly 2 tokens, got %d", ErrArgumentCount, cur.remaining())
	}

	tok, _ := cur.next()
	if tok != "action" {
		return 0, fmt.Errorf("%w: expected action clause, got %q", ErrUnsupportedAction, tok)
	}

	tok, _ = cur.next()
	switch tok {
	case "pass":
		return rule.ActionPass, nil
	case "drop":
		return rule.ActionDrop, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedAction, tok)
	}
}

// composeRule materializes the owned rule from the validated match sequence.
func composeRule(matches [rule.MaxMatchesPerRule]rule.Match, count int, action rule.Action) *rule.Rule {
	r := &rule.Rule{
		NMatches: count,
		Action:   action,
	}
	copy(r.Matches[:], matches[:])
	return r
}
