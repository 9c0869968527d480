// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// VirtualRuntime interprets each line with the embedded mvdan/sh POSIX shell,
// so recipes run the same way on hosts without a system shell. External
// programs named by the line are still started as host processes.
type VirtualRuntime struct {
	// Logger receives debug output; nil disables logging.
	Logger *log.Logger
}

// NewVirtualRuntime creates a new virtual runtime
func NewVirtualRuntime() *VirtualRuntime {
	return &VirtualRuntime{}
}

// Name returns the runtime name
func (r *VirtualRuntime) Name() string {
	return string(TypeVirtual)
}

// Available returns whether this runtime is available
func (r *VirtualRuntime) Available() bool {
	// The interpreter is built in.
	return true
}

// Check parses line without running it.
func (r *VirtualRuntime) Check(line string) error {
	if _, err := syntax.NewParser().Parse(strings.NewReader(line), ""); err != nil {
		return fmt.Errorf("script syntax error: %w", err)
	}
	return nil
}

// Run interprets the line. Cancelling ctx stops the interpreter and any
// process it started; the result then carries ExitInterrupted.
func (r *VirtualRuntime) Run(ctx context.Context, cmd *Command) *Result {
	prog, err := syntax.NewParser().Parse(strings.NewReader(cmd.Line), "")
	if err != nil {
		return NewErrorResult(ExitFailure, fmt.Errorf("failed to parse line: %w", err))
	}

	opts := []interp.RunnerOption{
		interp.Env(expand.ListEnviron(cmd.Env.Slice()...)),
		interp.StdIO(cmd.Stdin, cmd.Stdout, cmd.Stderr),
		interp.ExecHandlers(r.execHandler),
	}
	if cmd.Dir != "" {
		opts = append(opts, interp.Dir(cmd.Dir))
	}

	runner, err := interp.New(opts...)
	if err != nil {
		return NewErrorResult(ExitFailure, fmt.Errorf("failed to create interpreter: %w", err))
	}

	err = runner.Run(ctx, prog)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return NewErrorResult(ExitInterrupted, ctxErr)
	}
	if err == nil {
		return NewSuccessResult()
	}

	var status interp.ExitStatus
	if errors.As(err, &status) {
		return NewExitCodeResult(ExitCode(status))
	}
	return NewErrorResult(ExitFailure, fmt.Errorf("line execution failed: %w", err))
}

// execHandler logs external commands before handing them to the default handler.
func (r *VirtualRuntime) execHandler(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
	return func(ctx context.Context, args []string) error {
		if r.Logger != nil && len(args) > 0 {
			r.Logger.Debug("exec", "program", args[0], "args", args[1:])
		}
		return next(ctx, args)
	}
}
