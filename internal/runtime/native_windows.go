// SPDX-License-Identifier: MPL-2.0

//go:build windows

package runtime

import "os/exec"

// setProcessGroup is a no-op on Windows; cancellation kills the shell only.
func setProcessGroup(*exec.Cmd) {}
