/*
Copyright (c) 2025 Tobias Schäfer. All rights reserved.
Licensed under the MIT License, see LICENSE file in the project root for details.
*/
package main

import "github.com/tschaefer/flowfilter/cmd"

func main() {
	cmd.Execute()
}
