// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"context"
	"os/exec"
	"slices"
	"time"

	"github.com/charmbracelet/log"
)

// waitDelay bounds how long Run waits for output to drain after the process
// was killed.
const waitDelay = 2 * time.Second

// NativeRuntime runs each line with the host shell as `<shell> <args...> <line>`.
type NativeRuntime struct {
	// Shell overrides the shell program and its leading arguments,
	// e.g. ["bash", "-eu", "-c"]. Empty selects the platform default.
	Shell []string
	// Logger receives debug output; nil disables logging.
	Logger *log.Logger
}

// NewNativeRuntime creates a native runtime using shell, or the platform
// default when shell is empty.
func NewNativeRuntime(shell []string) *NativeRuntime {
	return &NativeRuntime{Shell: slices.Clone(shell)}
}

// Name returns the runtime name
func (r *NativeRuntime) Name() string {
	return string(TypeNative)
}

// Available returns whether a shell can be found
func (r *NativeRuntime) Available() bool {
	_, _, err := r.resolveShell()
	return err == nil
}

// Run executes the line with the host shell. The process, or its whole
// process group when cmd.ProcessGroup is set, is killed when ctx is
// cancelled and the result then carries ExitInterrupted.
func (r *NativeRuntime) Run(ctx context.Context, cmd *Command) *Result {
	program, args, err := r.resolveShell()
	if err != nil {
		return NewErrorResult(ExitFailure, err)
	}
	args = append(slices.Clone(args), cmd.Line)

	c := exec.CommandContext(ctx, program, args...)
	c.Dir = cmd.Dir
	c.Env = cmd.Env.Slice()
	c.Stdin = cmd.Stdin
	c.Stdout = cmd.Stdout
	c.Stderr = cmd.Stderr
	// Orphaned grandchildren may hold the output pipes open after a kill.
	c.WaitDelay = waitDelay
	if cmd.ProcessGroup {
		setProcessGroup(c)
	}

	if r.Logger != nil {
		r.Logger.Debug("exec", "shell", program, "args", args[:len(args)-1], "dir", cmd.Dir)
	}

	err = c.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return NewErrorResult(ExitInterrupted, ctxErr)
	}
	return extractExitCode(err)
}

func (r *NativeRuntime) resolveShell() (string, []string, error) {
	if len(r.Shell) > 0 {
		return r.Shell[0], r.Shell[1:], nil
	}
	shell, err := defaultShell()
	if err != nil {
		return "", nil, err
	}
	return shell, shellArgs(shell), nil
}
