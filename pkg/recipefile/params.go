// SPDX-License-Identifier: MPL-2.0

package recipefile

import (
	"fmt"
	"strings"
)

// parseParams parses the header tokens following the recipe name. Each token
// has the form [+|*][$]name[=default].
func parseParams(tokens []string) ([]Parameter, error) {
	var (
		params     []Parameter
		seenOption bool
	)
	for i, tok := range tokens {
		p := Parameter{}
		switch tok[0] {
		case '+':
			p.Kind = ParamPlus
			tok = tok[1:]
		case '*':
			p.Kind = ParamStar
			tok = tok[1:]
		}
		if rest, ok := strings.CutPrefix(tok, "$"); ok {
			p.Export = true
			tok = rest
		}

		name, raw, hasDefault := strings.Cut(tok, "=")
		if !namePattern.MatchString(name) {
			return nil, fmt.Errorf("invalid parameter name '%s'", name)
		}
		p.Name = name

		if hasDefault {
			if raw == "" {
				return nil, fmt.Errorf("parameter '%s' has an empty default; quote it to default to an empty string", name)
			}
			value, err := parseValue(raw)
			if err != nil {
				return nil, fmt.Errorf("parameter '%s': %w", name, err)
			}
			p.Default = value
			p.HasDefault = true
		}

		for _, prev := range params {
			if prev.Name == name {
				return nil, fmt.Errorf("parameter '%s' declared more than once", name)
			}
		}
		if p.Variadic() && i != len(tokens)-1 {
			return nil, fmt.Errorf("variadic parameter '%s' must be the last parameter", name)
		}
		if p.Kind == ParamSingular {
			if p.HasDefault {
				seenOption = true
			} else if seenOption {
				return nil, fmt.Errorf("parameter '%s' without a default follows a parameter with a default", name)
			}
		}
		params = append(params, p)
	}
	return params, nil
}
