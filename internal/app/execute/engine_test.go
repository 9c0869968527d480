// SPDX-License-Identifier: MPL-2.0

package execute

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"

	"github.com/recipekit/runner/internal/plan"
	"github.com/recipekit/runner/internal/runtime"
	"github.com/recipekit/runner/pkg/recipefile"
)

// fakeRuntime records every line it receives and answers with scripted exit
// codes keyed by line text.
type fakeRuntime struct {
	mu     sync.Mutex
	lines  []string
	envs   []runtime.Env
	exits  map[string]runtime.ExitCode
	errs   map[string]error
	onRun  func(line string)
	reject map[string]bool
	groups []bool
}

func (f *fakeRuntime) Name() string    { return "fake" }
func (f *fakeRuntime) Available() bool { return true }

func (f *fakeRuntime) Run(_ context.Context, cmd *runtime.Command) *runtime.Result {
	f.mu.Lock()
	f.lines = append(f.lines, cmd.Line)
	f.envs = append(f.envs, cmd.Env)
	f.groups = append(f.groups, cmd.ProcessGroup)
	f.mu.Unlock()
	if f.onRun != nil {
		f.onRun(cmd.Line)
	}
	if err := f.errs[cmd.Line]; err != nil {
		return runtime.NewErrorResult(runtime.ExitFailure, err)
	}
	return runtime.NewExitCodeResult(f.exits[cmd.Line])
}

type checkingRuntime struct{ fakeRuntime }

func (c *checkingRuntime) Check(line string) error {
	if c.reject[line] {
		return errors.New("bad syntax")
	}
	return nil
}

func resolve(t *testing.T, src string, targets []string, args []string) (*recipefile.Table, *plan.Plan) {
	t.Helper()
	tbl, err := recipefile.ParseString(src)
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	r, err := plan.NewResolver(tbl)
	if err != nil {
		t.Fatalf("NewResolver() error = %v", err)
	}
	p, err := r.Resolve(targets, args)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	return tbl, p
}

func TestEngine_StopsOnFirstFailure(t *testing.T) {
	t.Parallel()

	_, p := resolve(t, "a:\n    cmd1\n    cmd2\nb: a\n    cmd3\n", []string{"b"}, nil)
	rt := &fakeRuntime{exits: map[string]runtime.ExitCode{"cmd2": 2}}
	var stderr bytes.Buffer

	report, err := New(Options{Runtime: rt, Stderr: &stderr}).Run(t.Context(), p)
	if !errors.Is(err, ErrExecution) {
		t.Fatalf("expected ErrExecution, got %v", err)
	}
	var execErr *ExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("expected *ExecutionError, got %T", err)
	}
	if execErr.ExitCode != 2 || execErr.Recipe != "a" || execErr.LineNumber != 3 || execErr.Line != "cmd2" {
		t.Errorf("ExecutionError = %+v", execErr)
	}
	if diff := cmp.Diff([]string{"cmd1", "cmd2"}, rt.lines); diff != "" {
		t.Errorf("executed lines mismatch (-want +got):\n%s", diff)
	}
	if report.Lines != 2 || len(report.Recipes) != 0 {
		t.Errorf("report = %+v", report)
	}
	if err.Error() != "recipe 'a' failed on line 3 with exit code 2" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestEngine_SharedDependencyRunsOnce(t *testing.T) {
	t.Parallel()

	_, p := resolve(t, "x: z\n    run-x\ny: z\n    run-y\nz:\n    run-z\n", []string{"x", "y"}, nil)
	rt := &fakeRuntime{}

	report, err := New(Options{Runtime: rt}).Run(t.Context(), p)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if diff := cmp.Diff([]string{"run-z", "run-x", "run-y"}, rt.lines); diff != "" {
		t.Errorf("executed lines mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"z", "x", "y"}, report.Recipes); diff != "" {
		t.Errorf("report recipes mismatch (-want +got):\n%s", diff)
	}
}

func TestEngine_ProcessGroups(t *testing.T) {
	t.Parallel()

	_, p := resolve(t, "a:\n    echo a\nb: a\n    echo b\n", []string{"b"}, nil)
	for _, enabled := range []bool{false, true} {
		rt := &fakeRuntime{}
		if _, err := New(Options{Runtime: rt, ProcessGroups: enabled}).Run(t.Context(), p); err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if diff := cmp.Diff([]bool{enabled, enabled}, rt.groups); diff != "" {
			t.Errorf("ProcessGroups=%v mismatch (-want +got):\n%s", enabled, diff)
		}
	}
}

func TestEngine_LogsRequestedRecipes(t *testing.T) {
	t.Parallel()

	_, p := resolve(t, "a:\n    echo a\nb: a\n    echo b\n", []string{"b"}, nil)
	var logs bytes.Buffer
	logger := log.NewWithOptions(&logs, log.Options{Level: log.DebugLevel})
	if _, err := New(Options{Runtime: &fakeRuntime{}, Logger: logger}).Run(t.Context(), p); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	for _, want := range []string{"recipe=a requested=false", "recipe=b requested=true"} {
		if !strings.Contains(logs.String(), want) {
			t.Errorf("debug log missing %q:\n%s", want, logs.String())
		}
	}
}

func TestEngine_EchoAndQuiet(t *testing.T) {
	t.Parallel()

	src := "build:\n    echo loud\n    @echo silent\n    -@false\n"
	_, p := resolve(t, src, []string{"build"}, nil)

	tests := []struct {
		name  string
		opts  Options
		echo  string
		lines int
	}{
		{"default", Options{}, "> echo loud\n", 3},
		{"quiet", Options{Quiet: true}, "", 3},
		{"dry run", Options{DryRun: true}, "> echo loud\n> echo silent\n> false\n", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rt := &fakeRuntime{exits: map[string]runtime.ExitCode{"false": 1}}
			var stderr bytes.Buffer
			opts := tt.opts
			opts.Runtime = rt
			opts.Stderr = &stderr
			opts.Echo = func(line string) string { return "> " + line }

			report, err := New(opts).Run(t.Context(), p)
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if got := stderr.String(); got != tt.echo {
				t.Errorf("echo = %q, want %q", got, tt.echo)
			}
			if len(rt.lines) != tt.lines || report.Lines != tt.lines {
				t.Errorf("ran %d lines (report %d), want %d", len(rt.lines), report.Lines, tt.lines)
			}
		})
	}
}

func TestEngine_IgnoreErrorPrefix(t *testing.T) {
	t.Parallel()

	_, p := resolve(t, "a:\n    -flaky\n    after\n", []string{"a"}, nil)
	rt := &fakeRuntime{exits: map[string]runtime.ExitCode{"flaky": 3}}

	report, err := New(Options{Runtime: rt}).Run(t.Context(), p)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.Ignored != 1 || !cmp.Equal(rt.lines, []string{"flaky", "after"}) {
		t.Errorf("report = %+v, lines = %v", report, rt.lines)
	}

	// A line that cannot start is never ignored.
	rt = &fakeRuntime{errs: map[string]error{"flaky": errors.New("no shell")}}
	_, err = New(Options{Runtime: rt}).Run(t.Context(), p)
	var execErr *ExecutionError
	if !errors.As(err, &execErr) || execErr.ExitCode != runtime.ExitFailure {
		t.Errorf("expected start failure to stop the run, got %v", err)
	}
}

func TestEngine_ArgumentBinding(t *testing.T) {
	t.Parallel()

	src := `build target mode='debug' $LEVEL='1' *flags:
    compile {{target}} --mode {{mode}} {{flags}}
`
	tests := []struct {
		name  string
		args  []string
		want  string
		level string
	}{
		{"defaults", []string{"app"}, "compile app --mode debug ", "1"},
		{"override", []string{"app", "release", "5"}, "compile app --mode release ", "5"},
		{"variadic", []string{"app", "release", "5", "-v", "--fast"}, "compile app --mode release -v --fast", "5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, p := resolve(t, src, []string{"build"}, tt.args)
			rt := &fakeRuntime{}
			if _, err := New(Options{Runtime: rt}).Run(t.Context(), p); err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if len(rt.lines) != 1 || rt.lines[0] != tt.want {
				t.Errorf("lines = %q, want %q", rt.lines, tt.want)
			}
			if v, _ := rt.envs[0].Get("LEVEL"); v != tt.level {
				t.Errorf("exported LEVEL = %q, want %q", v, tt.level)
			}
		})
	}
}

func TestEngine_ArgumentErrorsBeforeAnythingRuns(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		src     string
		targets []string
		args    []string
		reason  string
	}{
		{"missing required", "dep:\n    first\nbuild target: dep\n    make {{target}}\n", []string{"build"}, nil, "missing argument for parameter 'target'"},
		{"too many", "dep:\n    first\nbuild: dep\n    make\n", []string{"build"}, []string{"extra"}, "too many arguments"},
		{"plus needs one", "dep:\n    first\nfmt +files: dep\n    fmt {{files}}\n", []string{"fmt"}, nil, "missing argument for parameter 'files'"},
		{"undefined placeholder late in plan", "dep:\n    first\nbuild: dep\n    echo ok\n    make {{nope}}\n", []string{"build"}, nil, "undefined placeholder '{{nope}}'"},
		{"dependency needs argument", "dep x:\n    first {{x}}\nbuild: dep\n    make\n", []string{"build"}, nil, "parameter 'x'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, p := resolve(t, tt.src, tt.targets, tt.args)
			rt := &fakeRuntime{}
			_, err := New(Options{Runtime: rt}).Run(t.Context(), p)
			if !errors.Is(err, ErrArgument) {
				t.Fatalf("expected ErrArgument, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.reason) {
				t.Errorf("error %q does not contain %q", err, tt.reason)
			}
			if len(rt.lines) != 0 {
				t.Errorf("lines ran before the argument error: %v", rt.lines)
			}
		})
	}
}

func TestEngine_VariablesAndParamsShadowing(t *testing.T) {
	t.Parallel()

	src := "profile := release\ntarget := all\n\nbuild target:\n    cargo build --profile {{profile}} -p {{target}}\n"
	tbl, p := resolve(t, src, []string{"build"}, []string{"core"})
	vars, err := Variables(tbl, map[string]string{"profile": "dev"})
	if err != nil {
		t.Fatalf("Variables() error = %v", err)
	}

	rt := &fakeRuntime{}
	if _, err := New(Options{Runtime: rt, Variables: vars}).Run(t.Context(), p); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if want := "cargo build --profile dev -p core"; rt.lines[0] != want {
		t.Errorf("line = %q, want %q", rt.lines[0], want)
	}
}

func TestEngine_ExportsDoNotLeakBetweenRecipes(t *testing.T) {
	t.Parallel()

	_, p := resolve(t, "dep $TOKEN='dep-value':\n    first\nmain: dep\n    second\n", []string{"main"}, nil)
	rt := &fakeRuntime{}
	base := runtime.NewEnv(map[string]string{"HOME": "/home/test"})
	if _, err := New(Options{Runtime: rt, Env: base}).Run(t.Context(), p); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if v, ok := rt.envs[0].Get("TOKEN"); !ok || v != "dep-value" {
		t.Errorf("dep env TOKEN = %q (%v)", v, ok)
	}
	if _, ok := rt.envs[1].Get("TOKEN"); ok {
		t.Error("TOKEN leaked into the next recipe")
	}
	if v, _ := rt.envs[1].Get("HOME"); v != "/home/test" {
		t.Errorf("base env not inherited: HOME=%q", v)
	}
}

func TestEngine_Cancellation(t *testing.T) {
	t.Parallel()

	_, p := resolve(t, "a:\n    one\n    two\nb: a\n    three\n", []string{"b"}, nil)
	ctx, cancel := context.WithCancel(t.Context())
	rt := &fakeRuntime{onRun: func(line string) {
		if line == "one" {
			cancel()
		}
	}}

	_, err := New(Options{Runtime: rt}).Run(ctx, p)
	var execErr *ExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("expected *ExecutionError, got %v", err)
	}
	if !execErr.Interrupted() || execErr.ExitCode != runtime.ExitInterrupted {
		t.Errorf("ExecutionError = %+v, want interrupted", execErr)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error should wrap context.Canceled: %v", err)
	}
	if !cmp.Equal(rt.lines, []string{"one"}) {
		t.Errorf("lines after cancel = %v", rt.lines)
	}
}

func TestEngine_LineCheckerRejectsBeforeRunning(t *testing.T) {
	t.Parallel()

	_, p := resolve(t, "a:\n    fine\nb: a\n    if then\n", []string{"b"}, nil)
	rt := &checkingRuntime{fakeRuntime{reject: map[string]bool{"if then": true}}}

	_, err := New(Options{Runtime: rt}).Run(t.Context(), p)
	var execErr *ExecutionError
	if !errors.As(err, &execErr) || execErr.ExitCode != 2 || execErr.Recipe != "b" {
		t.Fatalf("expected syntax ExecutionError in b, got %v", err)
	}
	if len(rt.lines) != 0 {
		t.Errorf("lines ran despite a rejected line: %v", rt.lines)
	}
}

func TestEngine_NoRuntime(t *testing.T) {
	t.Parallel()

	_, p := resolve(t, "a:\n    one\n", []string{"a"}, nil)
	if _, err := New(Options{}).Run(t.Context(), p); err == nil {
		t.Error("expected error without a runtime")
	}
	if _, err := New(Options{DryRun: true}).Run(t.Context(), p); err != nil {
		t.Errorf("dry run without runtime error = %v", err)
	}
}
