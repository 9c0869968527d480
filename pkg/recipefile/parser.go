// SPDX-License-Identifier: MPL-2.0

package recipefile

import (
	"bytes"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// DefaultMaxFileSize bounds the size of a recipe file read from disk.
const DefaultMaxFileSize = 4 << 20

var namePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

type (
	parser struct {
		path string
		tbl  *Table

		// doc is the most recent top-level comment, consumed by the next header.
		doc string

		cur    *Recipe
		indent string

		// cont accumulates a body line continued with a trailing backslash.
		cont     *strings.Builder
		contLine int

		defaultSet bool
		shellSet   bool
		dotenvSet  bool
	}
)

// ParseFile reads and parses the recipe file at path.
func ParseFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read recipe file: %w", err)
	}
	if len(data) > DefaultMaxFileSize {
		return nil, fmt.Errorf("%s: file size %d bytes exceeds maximum %d bytes", path, len(data), DefaultMaxFileSize)
	}
	return Parse(data, path)
}

// ParseString parses recipe-file text held in memory.
func ParseString(src string) (*Table, error) {
	return Parse([]byte(src), "")
}

// Parse parses recipe-file text. The path is recorded in the table and used in
// error messages; it may be empty.
func Parse(src []byte, path string) (*Table, error) {
	src = bytes.TrimPrefix(src, []byte("\xef\xbb\xbf"))

	p := &parser{path: path, tbl: newTable(path)}
	for i, raw := range strings.Split(string(src), "\n") {
		if err := p.line(i+1, strings.TrimSuffix(raw, "\r")); err != nil {
			return nil, err
		}
	}
	if err := p.endRecipe(); err != nil {
		return nil, err
	}
	return p.tbl, nil
}

func (p *parser) errorf(line int, text, format string, args ...any) error {
	return &SyntaxError{Path: p.path, Line: line, Text: text, Reason: fmt.Sprintf(format, args...)}
}

func (p *parser) line(n int, text string) error {
	trimmed := strings.TrimSpace(text)

	if trimmed == "" {
		if p.cont != nil {
			return p.errorf(p.contLine, text, "unterminated recipe body: line continuation not followed by a command")
		}
		p.doc = ""
		return nil
	}

	if strings.HasPrefix(trimmed, "#") {
		if !isIndented(text) {
			p.doc = strings.TrimSpace(strings.TrimPrefix(trimmed, "#"))
		}
		return nil
	}

	if isIndented(text) {
		p.doc = ""
		return p.bodyLine(n, text)
	}

	if err := p.endRecipe(); err != nil {
		return err
	}
	doc := p.doc
	p.doc = ""

	switch {
	case strings.HasPrefix(trimmed, "set ") && (isAssignment(trimmed) || !strings.Contains(trimmed, ":")):
		return p.setting(n, trimmed)
	case isAssignment(trimmed):
		return p.assignment(n, trimmed)
	default:
		return p.header(n, trimmed, doc)
	}
}

func isIndented(text string) bool {
	return text != "" && (text[0] == ' ' || text[0] == '\t')
}

// isAssignment reports whether the first colon outside quotes starts ":=".
func isAssignment(text string) bool {
	idx := indexUnquoted(text, ':')
	return idx >= 0 && idx+1 < len(text) && text[idx+1] == '='
}

func (p *parser) bodyLine(n int, text string) error {
	if p.cur == nil {
		return p.errorf(n, text, "unexpected indentation outside of a recipe body")
	}

	leading := text[:len(text)-len(strings.TrimLeft(text, " \t"))]
	if p.indent == "" {
		p.indent = leading
	} else if !strings.HasPrefix(leading, p.indent) {
		if strings.HasPrefix(p.indent, leading) {
			return p.errorf(n, text, "inconsistent indentation: line is indented less than the body of recipe '%s'", p.cur.Name)
		}
		return p.errorf(n, text, "inconsistent indentation: line mixes tabs and spaces differently from the body of recipe '%s'", p.cur.Name)
	}
	cmd := strings.TrimRight(text[len(p.indent):], " \t")

	if p.cont != nil {
		p.cont.WriteByte('\n')
		p.cont.WriteString(cmd)
		if continues(cmd) {
			return nil
		}
		joined := p.cont.String()
		start := p.contLine
		p.cont = nil
		return p.addBodyLine(start, joined)
	}

	if continues(cmd) {
		p.cont = &strings.Builder{}
		p.cont.WriteString(cmd)
		p.contLine = n
		return nil
	}
	return p.addBodyLine(n, cmd)
}

// continues reports whether cmd ends in an unescaped backslash.
func continues(cmd string) bool {
	n := 0
	for i := len(cmd) - 1; i >= 0 && cmd[i] == '\\'; i-- {
		n++
	}
	return n%2 == 1
}

func (p *parser) addBodyLine(n int, cmd string) error {
	line := Line{Number: n}
	rest := strings.TrimLeft(cmd, " \t")
prefixes:
	for rest != "" {
		switch {
		case rest[0] == '@' && !line.Quiet:
			line.Quiet = true
		case rest[0] == '-' && !line.IgnoreError:
			line.IgnoreError = true
		default:
			break prefixes
		}
		rest = rest[1:]
	}
	// Indentation past the body's is part of the command unless a prefix
	// was consumed.
	if line.Quiet || line.IgnoreError {
		cmd = strings.TrimLeft(rest, " \t")
	}
	if cmd == "" {
		return p.errorf(n, cmd, "empty command in recipe '%s'", p.cur.Name)
	}
	frags, err := parseFragments(cmd)
	if err != nil {
		return p.errorf(n, cmd, "%s", err)
	}
	line.Text = cmd
	line.fragments = frags
	p.cur.Body = append(p.cur.Body, line)
	return nil
}

func (p *parser) endRecipe() error {
	if p.cont != nil {
		return p.errorf(p.contLine, "", "unterminated recipe body: line continuation at end of recipe")
	}
	p.cur = nil
	p.indent = ""
	return nil
}

func (p *parser) header(n int, text, doc string) error {
	colon := indexUnquoted(text, ':')
	if colon < 0 {
		if _, err := splitFields(text); err != nil {
			return p.errorf(n, text, "%s", err)
		}
		return p.errorf(n, text, "expected ':' after recipe name")
	}

	tokens, err := splitFields(text[:colon])
	if err != nil {
		return p.errorf(n, text, "%s", err)
	}
	if len(tokens) == 0 {
		return p.errorf(n, text, "missing recipe name")
	}
	name := tokens[0]
	if !namePattern.MatchString(name) {
		return p.errorf(n, text, "invalid recipe name '%s'", name)
	}
	if prev, exists := p.tbl.recipes[name]; exists {
		return p.errorf(n, text, "duplicate recipe name '%s' (first defined on line %d)", name, prev.Line)
	}

	params, err := parseParams(tokens[1:])
	if err != nil {
		return p.errorf(n, text, "malformed parameter list for recipe '%s': %s", name, err)
	}

	var deps []string
	for dep := range strings.FieldsSeq(text[colon+1:]) {
		if !namePattern.MatchString(dep) {
			return p.errorf(n, text, "invalid dependency name '%s' in recipe '%s'", dep, name)
		}
		for _, seen := range deps {
			if seen == dep {
				return p.errorf(n, text, "recipe '%s' lists dependency '%s' more than once", name, dep)
			}
		}
		deps = append(deps, dep)
	}

	r := &Recipe{
		Name:         name,
		Doc:          doc,
		Params:       params,
		Dependencies: deps,
		Line:         n,
	}
	p.tbl.recipes[name] = r
	p.tbl.order = append(p.tbl.order, name)
	p.cur = r
	return nil
}

func (p *parser) assignment(n int, text string) error {
	export := false
	if rest, ok := strings.CutPrefix(text, "export "); ok {
		export = true
		text = strings.TrimSpace(rest)
	}
	name, raw, _ := strings.Cut(text, ":=")
	name = strings.TrimSpace(name)
	if !namePattern.MatchString(name) {
		return p.errorf(n, text, "invalid variable name '%s'", name)
	}
	for _, a := range p.tbl.variables {
		if a.Name == name {
			return p.errorf(n, text, "variable '%s' defined more than once (first defined on line %d)", name, a.Line)
		}
	}
	value, err := parseValue(strings.TrimSpace(raw))
	if err != nil {
		return p.errorf(n, text, "variable '%s': %s", name, err)
	}
	p.tbl.variables = append(p.tbl.variables, Assignment{Name: name, Value: value, Export: export, Line: n})
	return nil
}

func (p *parser) setting(n int, text string) error {
	body := strings.TrimSpace(strings.TrimPrefix(text, "set"))
	name, raw, hasValue := strings.Cut(body, ":=")
	name = strings.TrimSpace(name)
	raw = strings.TrimSpace(raw)

	var value string
	if hasValue {
		v, err := parseValue(raw)
		if err != nil {
			return p.errorf(n, text, "setting '%s': %s", name, err)
		}
		value = v
	}

	switch name {
	case "default":
		if p.defaultSet {
			return p.errorf(n, text, "setting 'default' given more than once")
		}
		if !namePattern.MatchString(value) {
			return p.errorf(n, text, "setting 'default' must name a recipe")
		}
		p.tbl.settings.Default = value
		p.defaultSet = true
	case "shell":
		if p.shellSet {
			return p.errorf(n, text, "setting 'shell' given more than once")
		}
		fields := strings.Fields(value)
		if len(fields) == 0 {
			return p.errorf(n, text, "setting 'shell' needs a command")
		}
		p.tbl.settings.Shell = fields
		p.shellSet = true
	case "dotenv-load":
		if p.dotenvSet {
			return p.errorf(n, text, "setting 'dotenv-load' given more than once")
		}
		switch {
		case !hasValue || value == "true":
			p.tbl.settings.DotenvLoad = true
		case value == "false":
			p.tbl.settings.DotenvLoad = false
		default:
			return p.errorf(n, text, "setting 'dotenv-load' expects true or false, got '%s'", value)
		}
		p.dotenvSet = true
	case "":
		return p.errorf(n, text, "missing setting name")
	default:
		return p.errorf(n, text, "unknown setting '%s'", name)
	}
	return nil
}

// indexUnquoted returns the index of the first c outside single or double
// quotes, or -1.
func indexUnquoted(s string, c byte) int {
	var quote byte
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case quote == '"' && ch == '\\':
			i++
		case quote != 0:
			if ch == quote {
				quote = 0
			}
		case ch == '"' || ch == '\'':
			quote = ch
		case ch == c:
			return i
		}
	}
	return -1
}

// splitFields splits s on blanks, keeping quoted sections (with their quotes)
// inside a single field.
func splitFields(s string) ([]string, error) {
	var (
		fields []string
		cur    strings.Builder
		quote  byte
		inside bool
	)
	flush := func() {
		if inside {
			fields = append(fields, cur.String())
			cur.Reset()
			inside = false
		}
	}
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case quote == '"' && ch == '\\' && i+1 < len(s):
			cur.WriteByte(ch)
			cur.WriteByte(s[i+1])
			i++
		case quote != 0:
			cur.WriteByte(ch)
			if ch == quote {
				quote = 0
			}
		case ch == ' ' || ch == '\t':
			flush()
		default:
			if ch == '"' || ch == '\'' {
				quote = ch
			}
			cur.WriteByte(ch)
			inside = true
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated string")
	}
	flush()
	return fields, nil
}

// parseValue decodes a bare or quoted value. Double-quoted values process the
// escapes \n, \t, \\ and \"; single-quoted values are literal.
func parseValue(raw string) (string, error) {
	if raw == "" {
		return "", nil
	}
	switch raw[0] {
	case '\'':
		if len(raw) < 2 || raw[len(raw)-1] != '\'' {
			return "", fmt.Errorf("unterminated string")
		}
		inner := raw[1 : len(raw)-1]
		if strings.Contains(inner, "'") {
			return "", fmt.Errorf("unexpected quote inside single-quoted string")
		}
		return inner, nil
	case '"':
		return unquoteDouble(raw)
	default:
		return raw, nil
	}
}

func unquoteDouble(raw string) (string, error) {
	var sb strings.Builder
	for i := 1; i < len(raw); i++ {
		ch := raw[i]
		switch ch {
		case '\\':
			if i+1 >= len(raw) {
				return "", fmt.Errorf("unterminated string")
			}
			i++
			switch raw[i] {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case '\\':
				sb.WriteByte('\\')
			case '"':
				sb.WriteByte('"')
			default:
				return "", fmt.Errorf("unknown escape sequence '\\%c'", raw[i])
			}
		case '"':
			if i != len(raw)-1 {
				return "", fmt.Errorf("unexpected text after closing quote")
			}
			return sb.String(), nil
		default:
			sb.WriteByte(ch)
		}
	}
	return "", fmt.Errorf("unterminated string")
}
