/*
Copyright (c) 2025 Tobias Schäfer. All rights reserved.
Licensed under the MIT License, see LICENSE file in the project root for details.
*/
package rule

import (
	"errors"
	"slices"
)

// Filter is an ordered collection of rules, evaluated top-down by the
// backend. It owns every rule it holds. Filters are not safe for concurrent
// mutation; callers serialize access.
type Filter struct {
	rules []*Rule
}

// NewFilter returns an empty filter.
func NewFilter() *Filter {
	return &Filter{}
}

// AddRule inserts a rule at the given position. A negative or out-of-range
// index appends; an in-range index shifts subsequent rules down.
func (f *Filter) AddRule(r *Rule, index int) error {
	if r == nil {
		return errors.New("cannot add nil rule to filter")
	}

	if index < 0 || index >= len(f.rules) {
		f.rules = append(f.rules, r)
		return nil
	}
	f.rules = slices.Insert(f.rules, index, r)
	return nil
}

// Len returns the number of rules in the filter.
func (f *Filter) Len() int {
	return len(f.rules)
}

// Rule returns the rule at the given position, or nil if out of range.
func (f *Filter) Rule(index int) *Rule {
	if index < 0 || index >= len(f.rules) {
		return nil
	}
	return f.rules[index]
}

// Rules returns the rules in evaluation order. The slice is a copy, the
// rules are not.
func (f *Filter) Rules() []*Rule {
	return slices.Clone(f.rules)
}
