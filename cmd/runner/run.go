// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/recipekit/runner/internal/app/execute"
	"github.com/recipekit/runner/internal/config"
	"github.com/recipekit/runner/internal/discovery"
	"github.com/recipekit/runner/internal/issue"
	"github.com/recipekit/runner/internal/plan"
	"github.com/recipekit/runner/internal/runtime"
	"github.com/recipekit/runner/pkg/recipefile"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"golang.org/x/term"
)

// invocation is one resolved command line, re-run as a whole in watch mode.
type invocation struct {
	flags   *rootFlags
	cfg     *config.Config
	targets []string
	extra   []string
	quiet   bool
	logger  *log.Logger
}

func (a *App) run(ctx context.Context, flags *rootFlags, targets, extra []string) error {
	if flags.dumpFormat != dumpFormatJSON && flags.dumpFormat != dumpFormatTOML {
		return fmt.Errorf("invalid --dump-format %q (valid: %s, %s)", flags.dumpFormat, dumpFormatJSON, dumpFormatTOML)
	}
	if flags.restart && len(flags.watch) == 0 {
		return fmt.Errorf("--restart requires --watch")
	}

	cfg, err := a.Config.Load(ctx, config.LoadOptions{
		ConfigFilePath: flags.configPath,
		ConfigDirPath:  a.ConfigDir,
	})
	if err != nil {
		return err
	}

	inv := &invocation{
		flags:   flags,
		cfg:     cfg,
		targets: targets,
		extra:   extra,
		quiet:   flags.quiet || (cfg.UI.Quiet && !flags.verbose),
	}
	a.verbose = flags.verbose || (cfg.UI.Verbose && !flags.quiet)
	a.colorScheme = cfg.UI.ColorScheme
	switch cfg.UI.ColorScheme {
	case config.ColorSchemeDark:
		lipgloss.SetHasDarkBackground(true)
	case config.ColorSchemeLight:
		lipgloss.SetHasDarkBackground(false)
	}

	inv.logger = log.NewWithOptions(a.stderr, log.Options{Prefix: config.AppName})
	if a.verbose {
		inv.logger.SetLevel(log.DebugLevel)
	}
	if cfg.Path != "" {
		inv.logger.Debug("config loaded", "path", cfg.Path)
	}

	if len(flags.watch) > 0 {
		return a.runWatch(ctx, inv)
	}
	return a.invoke(ctx, inv)
}

// invoke discovers and parses the recipe file, then lists, dumps or runs
// according to the flags.
func (a *App) invoke(ctx context.Context, inv *invocation) error {
	found, err := discovery.New(a.WorkDir).Find(inv.flags.file)
	if err != nil {
		return err
	}
	inv.logger.Debug("recipe file", "path", found.Path, "source", found.Source)

	tbl, err := recipefile.ParseFile(found.Path)
	if err != nil {
		return err
	}

	switch {
	case inv.flags.list:
		return a.list(tbl)
	case inv.flags.summary:
		return a.summary(tbl)
	case inv.flags.show != "":
		return a.show(tbl, inv.flags.show)
	case inv.flags.dump:
		return a.dump(tbl, inv.flags.dumpFormat)
	}

	targets := inv.targets
	if len(targets) == 0 {
		name := defaultRecipe(tbl, inv.cfg)
		if name == "" {
			if len(inv.extra) > 0 {
				return &execute.ArgumentError{Reason: "arguments given without a target recipe"}
			}
			return a.list(tbl)
		}
		inv.logger.Debug("running default recipe", "recipe", name)
		targets = []string{name}
	}

	return a.execute(ctx, inv, tbl, targets)
}

func (a *App) execute(ctx context.Context, inv *invocation, tbl *recipefile.Table, targets []string) error {
	resolver, err := plan.NewResolver(tbl)
	if err != nil {
		return err
	}
	p, err := resolver.Resolve(targets, inv.extra)
	if err != nil {
		return err
	}

	overrides, err := execute.ParseOverrides(inv.flags.sets)
	if err != nil {
		return err
	}
	vars, err := execute.Variables(tbl, overrides)
	if err != nil {
		return err
	}

	env, err := execute.BuildEnv(tbl, execute.EnvOptions{
		Base:       runtime.HostEnv(),
		DotenvLoad: tbl.Settings().DotenvLoad || inv.cfg.DotenvLoad,
		EnvFiles:   inv.flags.envFiles,
		Variables:  vars,
	})
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("load environment files").
			WithSuggestion("Check the --env-file paths and the .env syntax").
			WithSuggestion("Append '?' to an --env-file path to make it optional").
			WithIssue(issue.EnvFileErrorId).
			Wrap(err).
			BuildError()
	}

	var rt runtime.Runtime
	if !inv.flags.dryRun {
		reg := runtime.BuildRegistry(runtime.Options{
			Shell:  shellCommand(inv.flags.shell, tbl, inv.cfg),
			Logger: inv.logger,
		})
		rt, err = execute.ResolveRuntime(reg, inv.flags.runtime, inv.cfg.Runtime.String())
		if err != nil {
			return err
		}
	}

	dir, err := workingDir(inv.flags.workingDir, a.WorkDir, tbl)
	if err != nil {
		return err
	}

	engine := execute.New(execute.Options{
		Runtime:   rt,
		Dir:       dir,
		Env:       env,
		Variables: vars,
		Stdin:     a.stdin,
		Stdout:    a.stdout,
		Stderr:    a.stderr,
		Echo:      func(line string) string { return EchoStyle.Render(line) },
		Quiet:     inv.quiet,
		DryRun:    inv.flags.dryRun,
		Logger:    inv.logger,

		ProcessGroups: inv.flags.restart || !isTerminal(a.stdin),
	})
	report, err := engine.Run(ctx, p)
	if err != nil {
		_, code := classify(err)
		return &ExitError{Code: code, Err: err}
	}
	inv.logger.Debug("run finished",
		"recipes", report.Recipes,
		"lines", report.Lines,
		"ignored", report.Ignored,
		"duration", report.Duration)
	return nil
}

// defaultRecipe picks the recipe run without targets: the file's `set
// default` first, then the configured default when the file defines it.
func defaultRecipe(tbl *recipefile.Table, cfg *config.Config) string {
	if name := tbl.Settings().Default; name != "" {
		return name
	}
	if cfg.DefaultRecipe == "" {
		return ""
	}
	if _, ok := tbl.Get(cfg.DefaultRecipe); ok {
		return cfg.DefaultRecipe
	}
	return ""
}

// shellCommand applies shell precedence: --shell, then `set shell` in the
// recipe file, then the config. nil selects the platform default.
func shellCommand(flag string, tbl *recipefile.Table, cfg *config.Config) []string {
	if fields := strings.Fields(flag); len(fields) > 0 {
		return fields
	}
	if shell := tbl.Settings().Shell; len(shell) > 0 {
		return shell
	}
	return cfg.ShellCommand()
}

// workingDir returns the directory recipe lines run in. A relative override
// is taken relative to base, or the process directory when base is empty.
func workingDir(override, base string, tbl *recipefile.Table) (string, error) {
	if override == "" {
		return tbl.Dir(), nil
	}
	if !filepath.IsAbs(override) && base != "" {
		override = filepath.Join(base, override)
	}
	dir, err := filepath.Abs(override)
	if err != nil {
		return "", fmt.Errorf("resolve working directory: %w", err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return "", fmt.Errorf("working directory: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("working directory %s is not a directory", dir)
	}
	return dir, nil
}

// isTerminal reports whether r is a terminal. Lines that may read from a
// terminal stay in the foreground process group.
func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// glamourStyle maps the configured color scheme to a glamour style name.
func glamourStyle(cs config.ColorScheme) string {
	switch cs {
	case config.ColorSchemeDark, config.ColorSchemeLight:
		return cs.String()
	default:
		return "auto"
	}
}
