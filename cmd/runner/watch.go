// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/recipekit/runner/internal/discovery"
	"github.com/recipekit/runner/internal/watch"
)

// runWatch runs the invocation once, then again after every debounced batch
// of changes to files matching the --watch globs or to the recipe file
// itself. Globs are relative to the recipe file's directory. It blocks
// until ctx is canceled.
func (a *App) runWatch(ctx context.Context, inv *invocation) error {
	found, err := discovery.New(a.WorkDir).Find(inv.flags.file)
	if err != nil {
		return err
	}
	baseDir := filepath.Dir(found.Path)
	if inv.flags.workingDir != "" {
		dir, err := workingDir(inv.flags.workingDir, a.WorkDir, nil)
		if err != nil {
			return err
		}
		baseDir = dir
	}

	rerun := func(ctx context.Context) {
		if err := a.invoke(ctx, inv); err != nil && ctx.Err() == nil {
			a.renderError(a.stderr, err)
		}
	}

	w, err := watch.New(watch.Config{
		BaseDir:  baseDir,
		Patterns: inv.flags.watch,
		Always:   []string{found.Path},
		Restart:  inv.flags.restart,
		Logger:   inv.logger,
		OnChange: func(ctx context.Context, changed []string) error {
			fmt.Fprintf(a.stderr, "%s Detected %d change(s), re-running...\n",
				VerboseHighlightStyle.Render("→"), len(changed))
			rerun(ctx)
			fmt.Fprintf(a.stderr, "\n%s Watching for changes...\n\n", VerboseHighlightStyle.Render("→"))
			return nil
		},
	})
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	rerun(ctx)
	fmt.Fprintf(a.stderr, "\n%s Watching for changes (Ctrl+C to stop)...\n\n", VerboseHighlightStyle.Render("→"))
	return w.Run(ctx)
}
