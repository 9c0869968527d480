// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/recipekit/runner/internal/app/execute"
	"github.com/recipekit/runner/internal/issue"
	"github.com/recipekit/runner/internal/plan"
	"github.com/recipekit/runner/internal/runtime"
	"github.com/recipekit/runner/pkg/recipefile"

	"github.com/charmbracelet/fang"
)

// classify maps a failure to its issue catalog entry and process exit code.
// Execution failures keep the exit code of the failing line.
func classify(err error) (issue.Id, int) {
	if id := issue.IssueOf(err); id != 0 {
		return id, 1
	}

	var execErr *execute.ExecutionError
	switch {
	case errors.Is(err, recipefile.ErrSyntax):
		return issue.SyntaxErrorId, 1
	case errors.Is(err, plan.ErrUnknownRecipe):
		return issue.UnknownRecipeId, 1
	case errors.Is(err, plan.ErrDependencyCycle):
		return issue.DependencyCycleId, 1
	case errors.Is(err, execute.ErrArgument):
		return issue.ArgumentErrorId, 1
	case errors.Is(err, execute.ErrInvalidRuntimeSelection):
		return issue.InvalidRuntimeId, 1
	case errors.Is(err, runtime.ErrNoShell), errors.Is(err, runtime.ErrRuntimeNotAvailable):
		return issue.ShellNotFoundId, 1
	case errors.As(err, &execErr):
		code := int(execErr.ExitCode)
		if code == 0 {
			code = int(runtime.ExitFailure)
		}
		return issue.ExecutionFailedId, code
	default:
		return 0, 1
	}
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

// handleError renders a failure returned by the root command. Under verbose
// mode the matching issue page follows the message.
func (a *App) handleError(w io.Writer, _ fang.Styles, err error) {
	a.renderError(w, err)
}

func (a *App) renderError(w io.Writer, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Err == nil {
		return
	}

	fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("error:"), formatErrorForDisplay(err, a.verbose))

	id, _ := classify(err)
	if !a.verbose || id == 0 {
		return
	}
	page := issue.Get(id)
	if page == nil {
		return
	}
	rendered, renderErr := page.Render(glamourStyle(a.colorScheme))
	if renderErr != nil {
		fmt.Fprintf(w, "%s render help page: %v\n", WarningStyle.Render("warning:"), renderErr)
		return
	}
	fmt.Fprint(w, rendered)
}
