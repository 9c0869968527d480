// SPDX-License-Identifier: MPL-2.0

package recipefile

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
)

// HiddenPrefix marks recipes that are left out of listings.
const HiddenPrefix = "_"

const (
	// ParamSingular binds exactly one argument.
	ParamSingular ParamKind = iota
	// ParamPlus binds one or more trailing arguments.
	ParamPlus
	// ParamStar binds zero or more trailing arguments.
	ParamStar
)

// DefaultFileNames lists the recipe file names searched for, in order.
var DefaultFileNames = []string{"Runfile", "runfile", ".runfile"}

type (
	// ParamKind distinguishes singular parameters from variadic ones.
	ParamKind int

	// Parameter is a named recipe input, optionally defaulted.
	Parameter struct {
		Name       string    `json:"name" toml:"name"`
		Default    string    `json:"default,omitempty" toml:"default,omitempty"`
		HasDefault bool      `json:"has_default" toml:"has_default"`
		Kind       ParamKind `json:"kind" toml:"kind"`
		// Export makes the bound value visible to the recipe's commands as an
		// environment variable of the same name.
		Export bool `json:"export,omitempty" toml:"export,omitempty"`
	}

	// Fragment is a piece of a body line: literal text or a placeholder name.
	Fragment struct {
		Text        string
		Placeholder bool
	}

	// Line is a single body line of a recipe.
	Line struct {
		// Number is the 1-based line number of the first physical line.
		Number int `json:"line" toml:"line"`
		// Text is the command with prefixes removed and placeholders intact.
		Text string `json:"text" toml:"text"`
		// Quiet suppresses the pre-execution echo (`@` prefix).
		Quiet bool `json:"quiet,omitempty" toml:"quiet,omitempty"`
		// IgnoreError lets the recipe continue after a non-zero exit (`-` prefix).
		IgnoreError bool `json:"ignore_error,omitempty" toml:"ignore_error,omitempty"`

		fragments []Fragment
	}

	// Recipe is a named unit of work: dependencies followed by a body of commands.
	Recipe struct {
		Name         string      `json:"name" toml:"name"`
		Doc          string      `json:"doc,omitempty" toml:"doc,omitempty"`
		Params       []Parameter `json:"params,omitempty" toml:"params,omitempty"`
		Dependencies []string    `json:"dependencies,omitempty" toml:"dependencies,omitempty"`
		Body         []Line      `json:"body,omitempty" toml:"body,omitempty"`
		// Line is the 1-based line number of the recipe header.
		Line int `json:"line" toml:"line"`
	}

	// Assignment is a file-level variable.
	Assignment struct {
		Name   string `json:"name" toml:"name"`
		Value  string `json:"value" toml:"value"`
		Export bool   `json:"export,omitempty" toml:"export,omitempty"`
		Line   int    `json:"line" toml:"line"`
	}

	// Settings holds the `set` directives of a recipe file.
	Settings struct {
		// Default names the recipe run when no target is given.
		Default string `json:"default,omitempty" toml:"default,omitempty"`
		// Shell is the command prefix used to run body lines (e.g. ["bash", "-c"]).
		Shell []string `json:"shell,omitempty" toml:"shell,omitempty"`
		// DotenvLoad loads a .env file next to the recipe file.
		DotenvLoad bool `json:"dotenv_load,omitempty" toml:"dotenv_load,omitempty"`
	}

	// Table is the parsed, immutable content of one recipe file.
	Table struct {
		path      string
		recipes   map[string]*Recipe
		order     []string
		variables []Assignment
		settings  Settings
	}

	// Document is the serializable view of a Table used for dumps.
	Document struct {
		Path      string       `json:"path,omitempty" toml:"path,omitempty"`
		Settings  Settings     `json:"settings" toml:"settings"`
		Variables []Assignment `json:"variables,omitempty" toml:"variables,omitempty"`
		Recipes   []*Recipe    `json:"recipes" toml:"recipes"`
	}
)

// String returns the kind's name.
func (k ParamKind) String() string {
	switch k {
	case ParamPlus:
		return "plus"
	case ParamStar:
		return "star"
	default:
		return "singular"
	}
}

// MarshalText encodes the kind by name for JSON and TOML dumps.
func (k ParamKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Variadic reports whether the parameter takes all remaining arguments.
func (p Parameter) Variadic() bool {
	return p.Kind == ParamPlus || p.Kind == ParamStar
}

// Required reports whether an argument must be supplied for the parameter.
func (p Parameter) Required() bool {
	if p.HasDefault {
		return false
	}
	return p.Kind != ParamStar
}

// String renders the parameter the way it is written in a recipe header.
func (p Parameter) String() string {
	var sb strings.Builder
	switch p.Kind {
	case ParamPlus:
		sb.WriteByte('+')
	case ParamStar:
		sb.WriteByte('*')
	}
	if p.Export {
		sb.WriteByte('$')
	}
	sb.WriteString(p.Name)
	if p.HasDefault {
		sb.WriteByte('=')
		sb.WriteString(quoteDefault(p.Default))
	}
	return sb.String()
}

func quoteDefault(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t'\"") {
		return s
	}
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	return fmt.Sprintf("%q", s)
}

// Fragments returns the line split into literal text and placeholders.
func (l Line) Fragments() []Fragment {
	return slices.Clone(l.fragments)
}

// Placeholders returns the distinct placeholder names used by the line in
// order of first appearance.
func (l Line) Placeholders() []string {
	var names []string
	for _, f := range l.fragments {
		if f.Placeholder && !slices.Contains(names, f.Text) {
			names = append(names, f.Text)
		}
	}
	return names
}

// Expand substitutes placeholders with values. Placeholders missing from values
// expand to the empty string; callers check Placeholders first.
func (l Line) Expand(values map[string]string) string {
	var sb strings.Builder
	for _, f := range l.fragments {
		if f.Placeholder {
			sb.WriteString(values[f.Text])
			continue
		}
		sb.WriteString(f.Text)
	}
	return sb.String()
}

// Source renders the line with its prefixes, as written in the file.
func (l Line) Source() string {
	prefix := ""
	if l.Quiet {
		prefix += "@"
	}
	if l.IgnoreError {
		prefix += "-"
	}
	return prefix + l.Text
}

// Hidden reports whether the recipe is left out of listings.
func (r *Recipe) Hidden() bool {
	return strings.HasPrefix(r.Name, HiddenPrefix)
}

// Signature renders the recipe name followed by its parameters.
func (r *Recipe) Signature() string {
	if len(r.Params) == 0 {
		return r.Name
	}
	parts := make([]string, 0, len(r.Params)+1)
	parts = append(parts, r.Name)
	for _, p := range r.Params {
		parts = append(parts, p.String())
	}
	return strings.Join(parts, " ")
}

// MinArgs returns the number of arguments the recipe requires.
func (r *Recipe) MinArgs() int {
	n := 0
	for _, p := range r.Params {
		if p.Required() {
			n++
		}
	}
	return n
}

// MaxArgs returns the number of arguments the recipe accepts, or -1 when the
// last parameter is variadic.
func (r *Recipe) MaxArgs() int {
	if len(r.Params) > 0 && r.Params[len(r.Params)-1].Variadic() {
		return -1
	}
	return len(r.Params)
}

// String renders the recipe in source form.
func (r *Recipe) String() string {
	var sb strings.Builder
	if r.Doc != "" {
		sb.WriteString("# ")
		sb.WriteString(r.Doc)
		sb.WriteByte('\n')
	}
	sb.WriteString(r.Signature())
	sb.WriteByte(':')
	for _, dep := range r.Dependencies {
		sb.WriteByte(' ')
		sb.WriteString(dep)
	}
	sb.WriteByte('\n')
	for _, line := range r.Body {
		for physical := range strings.SplitSeq(line.Source(), "\n") {
			sb.WriteString("    ")
			sb.WriteString(physical)
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func newTable(path string) *Table {
	return &Table{
		path:    path,
		recipes: make(map[string]*Recipe),
	}
}

// Path returns the file the table was parsed from; empty for in-memory sources.
func (t *Table) Path() string { return t.path }

// Dir returns the directory containing the recipe file, the default working
// directory for recipe commands.
func (t *Table) Dir() string {
	if t.path == "" {
		return ""
	}
	return filepath.Dir(t.path)
}

// Len returns the number of recipes.
func (t *Table) Len() int { return len(t.order) }

// Get looks up a recipe by name. The returned recipe must be treated as read-only.
func (t *Table) Get(name string) (*Recipe, bool) {
	r, ok := t.recipes[name]
	return r, ok
}

// Names returns all recipe names in file order.
func (t *Table) Names() []string {
	return slices.Clone(t.order)
}

// Recipes returns all recipes in file order.
func (t *Table) Recipes() []*Recipe {
	out := make([]*Recipe, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, t.recipes[name])
	}
	return out
}

// Visible returns the recipes shown in listings, in file order.
func (t *Table) Visible() []*Recipe {
	var out []*Recipe
	for _, r := range t.Recipes() {
		if !r.Hidden() {
			out = append(out, r)
		}
	}
	return out
}

// Variables returns the file-level variable assignments in file order.
func (t *Table) Variables() []Assignment {
	return slices.Clone(t.variables)
}

// Settings returns the file settings.
func (t *Table) Settings() Settings {
	s := t.settings
	s.Shell = slices.Clone(s.Shell)
	return s
}

// Document returns a serializable snapshot of the table.
func (t *Table) Document() Document {
	return Document{
		Path:      t.path,
		Settings:  t.Settings(),
		Variables: t.Variables(),
		Recipes:   t.Recipes(),
	}
}
