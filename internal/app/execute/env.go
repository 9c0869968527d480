// SPDX-License-Identifier: MPL-2.0

package execute

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/recipekit/runner/internal/runtime"
	"github.com/recipekit/runner/pkg/recipefile"
)

// EnvOptions configures BuildEnv.
type EnvOptions struct {
	// Base is the inherited environment, normally runtime.HostEnv().
	Base runtime.Env
	// DotenvLoad loads .env from the recipe file's directory when present.
	DotenvLoad bool
	// EnvFiles are extra dotenv files, relative to the process working
	// directory; a '?' suffix marks a file optional.
	EnvFiles []string
	// Variables are the resolved file variables (see Variables).
	Variables map[string]string
}

// Variables resolves the file variables of tbl with overrides applied.
// Overriding a variable the file does not define is an ArgumentError.
func Variables(tbl *recipefile.Table, overrides map[string]string) (map[string]string, error) {
	vars := make(map[string]string)
	for _, a := range tbl.Variables() {
		vars[a.Name] = a.Value
	}
	for _, name := range slices.Sorted(maps.Keys(overrides)) {
		if _, ok := vars[name]; !ok {
			return nil, &ArgumentError{Reason: fmt.Sprintf("cannot override undefined variable '%s'", name)}
		}
		vars[name] = overrides[name]
	}
	return vars, nil
}

// ParseOverrides turns NAME=VALUE pairs into a map.
func ParseOverrides(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, &ArgumentError{Reason: fmt.Sprintf("invalid variable override '%s' (expected NAME=VALUE)", pair)}
		}
		out[strings.TrimSpace(name)] = value
	}
	return out, nil
}

// BuildEnv assembles the environment context shared by every recipe of a
// run. Later layers win:
//  1. Base (inherited process environment)
//  2. .env next to the recipe file, when DotenvLoad is set
//  3. EnvFiles, in order
//  4. exported file variables
func BuildEnv(tbl *recipefile.Table, opts EnvOptions) (runtime.Env, error) {
	layer := make(map[string]string)

	if opts.DotenvLoad {
		if err := runtime.LoadEnvFile(layer, runtime.DotenvFileName+"?", tbl.Dir()); err != nil {
			return runtime.Env{}, err
		}
	}
	for _, path := range opts.EnvFiles {
		if err := runtime.LoadEnvFile(layer, path, ""); err != nil {
			return runtime.Env{}, err
		}
	}
	for _, a := range tbl.Variables() {
		if !a.Export {
			continue
		}
		value, ok := opts.Variables[a.Name]
		if !ok {
			value = a.Value
		}
		layer[a.Name] = value
	}

	return opts.Base.With(layer), nil
}
