/*
Copyright (c) 2025 Tobias Schäfer. All rights reserved.
Licensed under the MIT License, see LICENSE file in the project root for details.
*/
package tcflower

import (
	"fmt"

	"github.com/tschaefer/flowfilter/internal/rule"
)

// checkMatchList enforces cross-field consistency over the populated prefix
// of a rule's match sequence. A transport-layer port match is meaningless
// without the transport protocol: the generated bytecode cannot locate a
// port offset without knowing which L4 header to decode.
func checkMatchList(matches []rule.Match) error {
	var foundL4Port, foundL4Proto bool

	for _, m := range matches {
		if m.Type == rule.MatchUnspec {
			break
		}
		if m.Type.IsL4Proto() {
			foundL4Proto = true
		}
		if m.Type.IsL4Port() {
			foundL4Port = true
		}
	}

	if foundL4Port && !foundL4Proto {
		return fmt.Errorf("%w: src_port/dst_port requires ip_proto", ErrMissingDependency)
	}

	return nil
}
