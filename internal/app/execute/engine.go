// SPDX-License-Identifier: MPL-2.0

package execute

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/recipekit/runner/internal/plan"
	"github.com/recipekit/runner/internal/runtime"
)

type (
	// Options configures an Engine.
	Options struct {
		// Runtime runs each body line. Required unless DryRun is set.
		Runtime runtime.Runtime
		// Dir is the working directory of every line, normally the
		// directory of the recipe file.
		Dir string
		// Env is the environment context shared by all recipes.
		Env runtime.Env
		// Variables are the resolved file variables used for placeholders.
		Variables map[string]string

		Stdin  io.Reader
		Stdout io.Writer
		// Stderr receives command stderr and the echo of each line.
		Stderr io.Writer

		// Echo formats an echoed line; nil prints it unchanged.
		Echo func(line string) string
		// Quiet suppresses the echo of every line.
		Quiet bool
		// DryRun echoes every line, including '@' lines, and runs nothing.
		DryRun bool
		// ProcessGroups runs each line in its own process group so that
		// cancellation also stops the processes it spawned.
		ProcessGroups bool

		// Logger receives debug output; nil disables logging.
		Logger *log.Logger
	}

	// Engine runs plans sequentially.
	Engine struct {
		opts Options
	}

	// Report summarizes a finished run.
	Report struct {
		// Recipes are the recipes whose bodies ran to completion, in order.
		Recipes []string
		// Lines is the number of lines handed to the runtime.
		Lines int
		// Ignored is the number of failed lines skipped through the '-' prefix.
		Ignored  int
		Duration time.Duration
	}

	// preparedStep is a plan step with every line already expanded.
	preparedStep struct {
		recipe    string
		requested bool
		env       runtime.Env
		lines     []preparedLine
	}

	preparedLine struct {
		number      int
		text        string
		quiet       bool
		ignoreError bool
	}
)

// New creates an Engine. Missing writers default to io.Discard.
func New(opts Options) *Engine {
	if opts.Stdout == nil {
		opts.Stdout = io.Discard
	}
	if opts.Stderr == nil {
		opts.Stderr = io.Discard
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Echo == nil {
		opts.Echo = func(line string) string { return line }
	}
	opts.Variables = maps.Clone(opts.Variables)
	return &Engine{opts: opts}
}

// Run executes the plan. Argument and placeholder problems anywhere in the
// plan are reported as ArgumentError before the first line runs. The first
// failing line stops the run with an ExecutionError carrying its exit code;
// earlier side effects are kept.
func (e *Engine) Run(ctx context.Context, p *plan.Plan) (*Report, error) {
	start := time.Now()
	steps, err := e.prepare(p)
	if err != nil {
		return nil, err
	}
	if e.opts.Runtime == nil && !e.opts.DryRun {
		return nil, fmt.Errorf("no runtime configured")
	}

	e.opts.Logger.Debug("plan ready", "recipes", p.Names(), "dry_run", e.opts.DryRun)

	report := &Report{}
	for _, step := range steps {
		e.opts.Logger.Debug("recipe start", "recipe", step.recipe, "requested", step.requested, "lines", len(step.lines))
		for _, line := range step.lines {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return report, &ExecutionError{
					Recipe: step.recipe, Line: line.text, LineNumber: line.number,
					ExitCode: runtime.ExitInterrupted, Err: ctxErr,
				}
			}

			if e.opts.DryRun || (!line.quiet && !e.opts.Quiet) {
				fmt.Fprintln(e.opts.Stderr, e.opts.Echo(line.text))
			}
			if e.opts.DryRun {
				continue
			}

			report.Lines++
			result := e.opts.Runtime.Run(ctx, &runtime.Command{
				Line:   line.text,
				Dir:    e.opts.Dir,
				Env:    step.env,
				Stdin:  e.opts.Stdin,
				Stdout: e.opts.Stdout,
				Stderr: e.opts.Stderr,

				ProcessGroup: e.opts.ProcessGroups,
			})
			if result.Success() {
				continue
			}

			interrupted := ctx.Err() != nil
			if line.ignoreError && result.Error == nil && !interrupted {
				report.Ignored++
				e.opts.Logger.Warn("ignoring failed line", "recipe", step.recipe, "line", line.number, "exit_code", result.ExitCode)
				continue
			}

			execErr := &ExecutionError{
				Recipe: step.recipe, Line: line.text, LineNumber: line.number,
				ExitCode: result.ExitCode, Err: result.Error,
			}
			if interrupted {
				execErr.ExitCode = runtime.ExitInterrupted
				execErr.Err = ctx.Err()
			}
			return report, execErr
		}
		report.Recipes = append(report.Recipes, step.recipe)
		e.opts.Logger.Debug("recipe done", "recipe", step.recipe)
	}

	report.Duration = time.Since(start)
	return report, nil
}

// prepare binds arguments and expands every line of the plan.
func (e *Engine) prepare(p *plan.Plan) ([]preparedStep, error) {
	checker, _ := e.opts.Runtime.(runtime.LineChecker)

	steps := make([]preparedStep, 0, p.Len())
	for _, step := range p.Steps {
		r := step.Recipe
		b, err := bindArgs(r, step.Args)
		if err != nil {
			return nil, err
		}
		scope := b.scope(e.opts.Variables)

		prepared := preparedStep{
			recipe:    r.Name,
			requested: step.Requested,
			env:       e.opts.Env.With(b.exports),
			lines:     make([]preparedLine, 0, len(r.Body)),
		}
		for _, line := range r.Body {
			for _, name := range line.Placeholders() {
				if _, ok := scope[name]; !ok {
					return nil, &ArgumentError{
						Recipe: r.Name,
						Reason: fmt.Sprintf("line %d uses undefined placeholder '{{%s}}'%s", line.Number, name, knownNames(scope)),
					}
				}
			}
			text := line.Expand(scope)
			if checker != nil && !e.opts.DryRun {
				if err := checker.Check(text); err != nil {
					return nil, &ExecutionError{Recipe: r.Name, Line: text, LineNumber: line.Number, ExitCode: 2, Err: err}
				}
			}
			prepared.lines = append(prepared.lines, preparedLine{
				number:      line.Number,
				text:        text,
				quiet:       line.Quiet,
				ignoreError: line.IgnoreError,
			})
		}
		steps = append(steps, prepared)
	}
	return steps, nil
}

func knownNames(scope map[string]string) string {
	if len(scope) == 0 {
		return ""
	}
	return fmt.Sprintf(" (defined: %v)", slices.Sorted(maps.Keys(scope)))
}
