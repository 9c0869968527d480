// SPDX-License-Identifier: MPL-2.0

// Command runner runs recipes from a Runfile.
package main

import cmd "github.com/recipekit/runner/cmd/runner"

func main() {
	cmd.Execute()
}
