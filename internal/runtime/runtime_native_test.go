// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	goruntime "runtime"
	"strings"
	"testing"
	"time"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if goruntime.GOOS == "windows" {
		t.Skip("skipping: POSIX shell test")
	}
}

func nativeCommand(line string, stdout, stderr *bytes.Buffer) *Command {
	return &Command{
		Line:   line,
		Env:    HostEnv(),
		Stdout: stdout,
		Stderr: stderr,
	}
}

func TestNativeRuntime_Echo(t *testing.T) {
	t.Parallel()
	skipOnWindows(t)

	var stdout, stderr bytes.Buffer
	result := NewNativeRuntime(nil).Run(t.Context(), nativeCommand("echo 'Hello from native'", &stdout, &stderr))
	if !result.Success() {
		t.Fatalf("Run() = %+v, stderr: %s", result, stderr.String())
	}
	if got := strings.TrimSpace(stdout.String()); got != "Hello from native" {
		t.Errorf("stdout = %q", got)
	}
}

func TestNativeRuntime_ExitCode(t *testing.T) {
	t.Parallel()
	skipOnWindows(t)

	tests := []struct {
		line string
		want ExitCode
	}{
		{"exit 0", 0},
		{"exit 2", 2},
		{"false", 1},
		{"exit 42", 42},
	}
	for _, tt := range tests {
		var stdout, stderr bytes.Buffer
		result := NewNativeRuntime(nil).Run(t.Context(), nativeCommand(tt.line, &stdout, &stderr))
		if result.ExitCode != tt.want {
			t.Errorf("Run(%q) exit code = %d, want %d", tt.line, result.ExitCode, tt.want)
		}
		if result.Error != nil {
			t.Errorf("Run(%q) error = %v, want nil for a plain exit", tt.line, result.Error)
		}
	}
}

func TestNativeRuntime_DirAndEnv(t *testing.T) {
	t.Parallel()
	skipOnWindows(t)

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "marker.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	cmd := &Command{
		Line:   `ls marker.txt && printf '%s' "$RUNNER_GREETING"`,
		Dir:    dir,
		Env:    HostEnv().With(map[string]string{"RUNNER_GREETING": "hi there"}),
		Stdout: &stdout,
		Stderr: &stderr,
	}
	result := NewNativeRuntime(nil).Run(t.Context(), cmd)
	if !result.Success() {
		t.Fatalf("Run() = %+v, stderr: %s", result, stderr.String())
	}
	if got := stdout.String(); got != "marker.txt\nhi there" {
		t.Errorf("stdout = %q", got)
	}
}

func TestNativeRuntime_ConfiguredShell(t *testing.T) {
	t.Parallel()
	skipOnWindows(t)

	var stdout, stderr bytes.Buffer
	rt := NewNativeRuntime([]string{"sh", "-e", "-c"})
	result := rt.Run(t.Context(), nativeCommand("false; echo unreachable", &stdout, &stderr))
	if result.ExitCode != 1 {
		t.Errorf("exit code = %d, want 1 with -e", result.ExitCode)
	}
	if strings.Contains(stdout.String(), "unreachable") {
		t.Error("shell arguments were not applied")
	}
}

func TestNativeRuntime_MissingShell(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	rt := NewNativeRuntime([]string{"/nonexistent/shell-binary", "-c"})
	result := rt.Run(t.Context(), nativeCommand("echo hi", &stdout, &stderr))
	if result.Error == nil || result.ExitCode != ExitFailure {
		t.Errorf("Run() = %+v, want start failure", result)
	}
}

func TestNativeRuntime_Cancel(t *testing.T) {
	t.Parallel()
	skipOnWindows(t)

	ctx, cancel := context.WithTimeout(t.Context(), 100*time.Millisecond)
	defer cancel()

	var stdout, stderr bytes.Buffer
	start := time.Now()
	result := NewNativeRuntime(nil).Run(ctx, nativeCommand("sleep 10", &stdout, &stderr))
	if result.ExitCode != ExitInterrupted {
		t.Errorf("exit code = %d, want %d", result.ExitCode, ExitInterrupted)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("cancelled process was not terminated promptly")
	}
}

func TestShellArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		shell string
		want  string
	}{
		{"/bin/sh", "-c"},
		{"/usr/bin/bash", "-c"},
		{`C:\Windows\System32\cmd.exe`, "/C"},
		{"pwsh", "-NoProfile -Command"},
		{"PowerShell.exe", "-NoProfile -Command"},
	}
	for _, tt := range tests {
		if got := strings.Join(shellArgs(tt.shell), " "); got != tt.want {
			t.Errorf("shellArgs(%q) = %q, want %q", tt.shell, got, tt.want)
		}
	}
}
