// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	goruntime "runtime"
	"strings"
)

// ErrNoShell is returned when no usable shell is found on the host.
var ErrNoShell = errors.New("no shell found")

// defaultShell picks the host shell: PowerShell or cmd on Windows, and on
// Unix-like systems sh, falling back to $SHELL.
func defaultShell() (string, error) {
	if goruntime.GOOS == "windows" {
		for _, name := range []string{"pwsh", "powershell", "cmd"} {
			if p, err := exec.LookPath(name); err == nil {
				return p, nil
			}
		}
		return "", ErrNoShell
	}

	if sh, err := exec.LookPath("sh"); err == nil {
		return sh, nil
	}
	if shell := os.Getenv("SHELL"); shell != "" {
		return shell, nil
	}
	return "", ErrNoShell
}

// shellArgs returns the arguments that make shell run its next argument as
// a command string.
func shellArgs(shell string) []string {
	base := filepath.Base(shell)
	// Handle Windows paths on Unix systems too.
	if i := strings.LastIndex(base, "\\"); i >= 0 {
		base = base[i+1:]
	}
	base = strings.TrimSuffix(strings.ToLower(base), ".exe")

	switch base {
	case "cmd":
		return []string{"/C"}
	case "powershell", "pwsh":
		return []string{"-NoProfile", "-Command"}
	default:
		return []string{"-c"}
	}
}

// extractExitCode converts the error of exec.Cmd.Run into a Result.
func extractExitCode(err error) *Result {
	if err == nil {
		return NewSuccessResult()
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := ExitCode(exitErr.ExitCode())
		if code < 0 {
			return NewErrorResult(ExitFailure, fmt.Errorf("process terminated: %s", exitErr.ProcessState))
		}
		if validateErr := code.Validate(); validateErr != nil {
			return NewErrorResult(ExitFailure, validateErr)
		}
		return NewExitCodeResult(code)
	}

	// The command never ran (shell missing, permission denied, bad directory).
	return NewErrorResult(ExitFailure, fmt.Errorf("failed to execute command: %w", err))
}
