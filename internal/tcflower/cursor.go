/*
Copyright (c) 2025 Tobias Schäfer. All rights reserved.
Licensed under the MIT License, see LICENSE file in the project root for details.
*/
package tcflower

// cursor walks a token sequence. Parsing stages share one cursor and
// advance it as they consume clauses.
type cursor struct {
	tokens []string
	pos    int
}

func (c *cursor) next() (string, bool) {
	if c.pos >= len(c.tokens) {
		return "", false
	}
	tok := c.tokens[c.pos]
	c.pos++
	return tok, true
}

func (c *cursor) peek() (string, bool) {
	if c.pos >= len(c.tokens) {
		return "", false
	}
	return c.tokens[c.pos], true
}

func (c *cursor) remaining() int {
	return len(c.tokens) - c.pos
}
