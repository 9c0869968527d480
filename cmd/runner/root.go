// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/recipekit/runner/internal/config"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

const (
	dumpFormatJSON = "json"
	dumpFormatTOML = "toml"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

type (
	// App wires the CLI to its dependencies. One App serves one invocation.
	App struct {
		Config config.Provider
		// ConfigDir overrides the platform config directory when set.
		ConfigDir string
		// WorkDir is where recipe file discovery starts; empty means the
		// process working directory.
		WorkDir string

		stdin  io.Reader
		stdout io.Writer
		stderr io.Writer

		// Set once the configuration is known; used when rendering errors.
		verbose     bool
		colorScheme config.ColorScheme
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config    config.Provider
		ConfigDir string
		WorkDir   string
		Stdin     io.Reader
		Stdout    io.Writer
		Stderr    io.Writer
	}

	// rootFlags holds the parsed root command flags.
	rootFlags struct {
		file       string
		workingDir string
		configPath string
		sets       []string
		envFiles   []string
		runtime    string
		shell      string
		verbose    bool
		quiet      bool
		dryRun     bool
		list       bool
		summary    bool
		show       string
		dump       bool
		dumpFormat string
		watch      []string
		restart    bool
	}
)

// NewApp creates an App, filling nil dependencies with the process defaults.
func NewApp(deps Dependencies) *App {
	app := &App{
		Config:      deps.Config,
		ConfigDir:   deps.ConfigDir,
		WorkDir:     deps.WorkDir,
		stdin:       deps.Stdin,
		stdout:      deps.Stdout,
		stderr:      deps.Stderr,
		colorScheme: config.ColorSchemeAuto,
	}
	if app.Config == nil {
		app.Config = config.NewProvider()
	}
	if app.stdin == nil {
		app.stdin = os.Stdin
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}
	return app
}

// newRootCommand builds the runner command. It has no subcommands so that any
// recipe name can be used as a target.
func newRootCommand(app *App) *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:   "runner [flags] [target...] [-- args...]",
		Short: "Run recipes from a Runfile",
		Long: TitleStyle.Render("runner") + SubtitleStyle.Render(" - a recipe runner") + `

runner reads recipes from a Runfile found in the current directory or one
of its parents, resolves their dependencies and runs each body line in a
shell, stopping at the first failure.

` + SubtitleStyle.Render("Examples:") + `
  runner                     Run the default recipe or list recipes
  runner build test          Run 'build' then 'test', with dependencies
  runner deploy -- prod      Pass 'prod' to the 'deploy' recipe
  runner --dry-run release   Print the lines 'release' would run
  runner --show build        Print the source of 'build'`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			targets, extra := splitArgs(cmd, args)
			return app.run(cmd.Context(), flags, targets, extra)
		},
	}

	f := root.Flags()
	f.StringVarP(&flags.file, "file", "f", "", "recipe file or directory to use instead of searching for a Runfile")
	f.StringVarP(&flags.workingDir, "working-directory", "d", "", "run recipe lines in this directory instead of the recipe file's")
	f.StringVar(&flags.configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/runner/config.cue)")
	f.StringArrayVar(&flags.sets, "set", nil, "override a file variable (NAME=VALUE, can be repeated)")
	f.StringArrayVarP(&flags.envFiles, "env-file", "e", nil, "load environment variables from a dotenv file (a trailing '?' marks it optional)")
	f.StringVar(&flags.runtime, "runtime", "", "runtime for recipe lines: native or virtual")
	f.StringVar(&flags.shell, "shell", "", "shell command line for the native runtime, e.g. \"bash -eu -c\"")
	f.BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging and detailed error help")
	f.BoolVarP(&flags.quiet, "quiet", "q", false, "do not echo recipe lines")
	f.BoolVarP(&flags.dryRun, "dry-run", "n", false, "print the lines that would run without running them")
	f.BoolVarP(&flags.list, "list", "l", false, "list recipes")
	f.BoolVar(&flags.summary, "summary", false, "print recipe names on one line")
	f.StringVar(&flags.show, "show", "", "print the source of a recipe")
	f.BoolVar(&flags.dump, "dump", false, "print the parsed recipe file")
	f.StringVar(&flags.dumpFormat, "dump-format", dumpFormatJSON, "format for --dump: json or toml")
	f.StringArrayVarP(&flags.watch, "watch", "w", nil, "re-run when files matching this glob change (can be repeated)")
	f.BoolVar(&flags.restart, "restart", false, "with --watch, cancel a run in progress when files change")

	root.MarkFlagsMutuallyExclusive("list", "summary", "show", "dump")
	root.MarkFlagsMutuallyExclusive("verbose", "quiet")
	root.MarkFlagsMutuallyExclusive("dry-run", "watch")

	return root
}

// splitArgs separates targets from the arguments after "--".
func splitArgs(cmd *cobra.Command, args []string) (targets, extra []string) {
	if dash := cmd.ArgsLenAtDash(); dash >= 0 {
		return args[:dash], args[dash:]
	}
	return args, nil
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the command line and returns the process exit code.
func (a *App) Execute(ctx context.Context, args []string) int {
	root := newRootCommand(a)
	root.SetArgs(args)
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	err := fang.Execute(
		ctx,
		root,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithoutManpage(),
		fang.WithoutCompletions(),
		fang.WithErrorHandler(a.handleError),
	)
	if err == nil {
		return 0
	}
	return exitCode(err)
}

// Run executes the process command line and returns its exit code.
func Run() int {
	return NewApp(Dependencies{}).Execute(context.Background(), os.Args[1:])
}

// Execute is called by main.main.
func Execute() {
	os.Exit(Run())
}

// exitCode maps an error returned by the root command to a process exit code.
func exitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	_, code := classify(err)
	return code
}
