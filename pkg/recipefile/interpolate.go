// SPDX-License-Identifier: MPL-2.0

package recipefile

import (
	"fmt"
	"strings"
)

const (
	openDelim  = "{{"
	closeDelim = "}}"
	// escapedOpen writes a literal "{{" into a command.
	escapedOpen = "{{{{"
)

// parseFragments splits a command into literal text and `{{name}}` placeholders.
func parseFragments(cmd string) ([]Fragment, error) {
	var (
		frags []Fragment
		text  strings.Builder
	)
	flush := func() {
		if text.Len() > 0 {
			frags = append(frags, Fragment{Text: text.String()})
			text.Reset()
		}
	}

	rest := cmd
	for {
		idx := strings.Index(rest, openDelim)
		if idx < 0 {
			text.WriteString(rest)
			break
		}
		text.WriteString(rest[:idx])
		rest = rest[idx:]

		if strings.HasPrefix(rest, escapedOpen) {
			text.WriteString(openDelim)
			rest = rest[len(escapedOpen):]
			continue
		}

		end := strings.Index(rest, closeDelim)
		if end < 0 {
			return nil, fmt.Errorf("unterminated interpolation '%s'", rest)
		}
		name := strings.TrimSpace(rest[len(openDelim):end])
		if !namePattern.MatchString(name) {
			return nil, fmt.Errorf("invalid interpolation '%s'", rest[:end+len(closeDelim)])
		}
		flush()
		frags = append(frags, Fragment{Text: name, Placeholder: true})
		rest = rest[end+len(closeDelim):]
	}
	flush()
	return frags, nil
}
