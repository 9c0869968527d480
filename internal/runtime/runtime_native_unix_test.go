// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package runtime

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"testing"
	"time"
)

func TestNativeRuntime_CancelKillsProcessGroup(t *testing.T) {
	t.Parallel()

	pidFile := filepath.Join(t.TempDir(), "pid")
	ctx, cancel := context.WithTimeout(t.Context(), 500*time.Millisecond)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := nativeCommand("sleep 30 & echo $! > '"+pidFile+"'; wait", &stdout, &stderr)
	cmd.ProcessGroup = true
	result := NewNativeRuntime(nil).Run(ctx, cmd)
	if result.ExitCode != ExitInterrupted {
		t.Fatalf("exit code = %d, want %d", result.ExitCode, ExitInterrupted)
	}

	data, err := os.ReadFile(pidFile)
	if err != nil {
		t.Fatalf("background process did not start: %v", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		t.Fatalf("bad pid %q: %v", data, err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		if exited(pid) {
			return
		}
		if time.Now().After(deadline) {
			_ = syscall.Kill(pid, syscall.SIGKILL)
			t.Fatalf("background process %d outlived the cancelled line", pid)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

// exited reports whether pid is gone or only a zombie waiting to be reaped.
func exited(pid int) bool {
	if err := syscall.Kill(pid, 0); errors.Is(err, syscall.ESRCH) {
		return true
	}
	stat, err := os.ReadFile(filepath.Join("/proc", strconv.Itoa(pid), "stat"))
	if err != nil {
		return false
	}
	// The state follows the parenthesized command name.
	fields := strings.Fields(string(stat[bytes.LastIndexByte(stat, ')')+1:]))
	return len(fields) > 0 && fields[0] == "Z"
}
