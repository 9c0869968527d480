// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package runtime

import (
	"os/exec"
	"syscall"
)

// setProcessGroup starts c in a process group of its own and makes
// cancellation kill the whole group, so processes spawned by the shell
// do not outlive the line.
func setProcessGroup(c *exec.Cmd) {
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	c.Cancel = func() error {
		return syscall.Kill(-c.Process.Pid, syscall.SIGKILL)
	}
}
