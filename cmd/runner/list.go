// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/recipekit/runner/internal/plan"
	"github.com/recipekit/runner/pkg/recipefile"

	"github.com/charmbracelet/lipgloss"
	"github.com/pelletier/go-toml/v2"
)

// list prints the visible recipes in file order with their signatures and
// doc comments. A file without visible recipes prints nothing.
func (a *App) list(tbl *recipefile.Table) error {
	recipes := tbl.Visible()
	if len(recipes) == 0 {
		return nil
	}

	width := 0
	for _, r := range recipes {
		width = max(width, lipgloss.Width(r.Signature()))
	}

	var sb strings.Builder
	sb.WriteString(TitleStyle.Render("Available recipes:"))
	sb.WriteByte('\n')
	for _, r := range recipes {
		sig := r.Signature()
		sb.WriteString("    ")
		sb.WriteString(CmdStyle.Render(sig))
		if r.Doc != "" {
			sb.WriteString(strings.Repeat(" ", width-lipgloss.Width(sig)+1))
			sb.WriteString(SubtitleStyle.Render("# " + r.Doc))
		}
		sb.WriteByte('\n')
	}
	_, err := fmt.Fprint(a.stdout, sb.String())
	return err
}

// summary prints the visible recipe names on one line.
func (a *App) summary(tbl *recipefile.Table) error {
	recipes := tbl.Visible()
	if len(recipes) == 0 {
		return nil
	}
	names := make([]string, len(recipes))
	for i, r := range recipes {
		names[i] = r.Name
	}
	_, err := fmt.Fprintln(a.stdout, strings.Join(names, " "))
	return err
}

// show prints one recipe in source form. Hidden recipes can be shown by name.
func (a *App) show(tbl *recipefile.Table, name string) error {
	r, err := plan.Lookup(tbl, name)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(a.stdout, r.String())
	return err
}

// dump prints the parsed table as JSON or TOML.
func (a *App) dump(tbl *recipefile.Table, format string) error {
	var (
		out []byte
		err error
	)
	switch format {
	case dumpFormatTOML:
		out, err = toml.Marshal(tbl.Document())
	default:
		out, err = json.MarshalIndent(tbl.Document(), "", "  ")
		out = append(out, '\n')
	}
	if err != nil {
		return fmt.Errorf("encode %s dump: %w", format, err)
	}
	_, err = a.stdout.Write(out)
	return err
}
