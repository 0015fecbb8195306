/*
Copyright (c) 2025 Tobias Schäfer. All rights reserved.
Licensed under the MIT License, see LICENSE file in the project root for details.
*/
package tcflower

import "errors"

// Parse failures are classified by these sentinels; errors.Is works on
// anything ParseRule returns. Value-level failures additionally wrap
// parse.ErrFormat or parse.ErrRange.
var (
	ErrArgumentCount       = errors.New("bad number of arguments")
	ErrUnsupportedProtocol = errors.New("unsupported protocol")
	ErrUnsupportedKeyword  = errors.New("unsupported match keyword")
	ErrUnsupportedAction   = errors.New("unsupported action")
	ErrMissingDependency   = errors.New("missing match dependency")
)
