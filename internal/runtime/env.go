// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"maps"
	"os"
	"slices"
	"strings"
)

// Env is an immutable set of environment variables. The zero value is empty
// and ready to use. Every method that changes the set returns a new Env.
type Env struct {
	vars map[string]string
}

// NewEnv returns an Env holding a copy of vars.
func NewEnv(vars map[string]string) Env {
	return Env{vars: maps.Clone(vars)}
}

// HostEnv returns the environment of the current process.
func HostEnv() Env {
	return EnvFromSlice(os.Environ())
}

// EnvFromSlice builds an Env from KEY=VALUE entries. Entries without '=' are
// skipped; later entries win.
func EnvFromSlice(entries []string) Env {
	vars := make(map[string]string, len(entries))
	for _, e := range entries {
		k, v, ok := strings.Cut(e, "=")
		if !ok || k == "" {
			continue
		}
		vars[k] = v
	}
	return Env{vars: vars}
}

// With returns a new Env with overlay applied on top. The receiver is not
// modified.
func (e Env) With(overlay map[string]string) Env {
	if len(overlay) == 0 {
		return e
	}
	vars := make(map[string]string, len(e.vars)+len(overlay))
	maps.Copy(vars, e.vars)
	maps.Copy(vars, overlay)
	return Env{vars: vars}
}

// Get returns the value of name and whether it is set.
func (e Env) Get(name string) (string, bool) {
	v, ok := e.vars[name]
	return v, ok
}

// Len returns the number of variables.
func (e Env) Len() int { return len(e.vars) }

// Map returns a copy of the variables.
func (e Env) Map() map[string]string {
	return maps.Clone(e.vars)
}

// Slice returns the variables as sorted KEY=VALUE entries, the form expected
// by os/exec and the virtual shell.
func (e Env) Slice() []string {
	keys := slices.Sorted(maps.Keys(e.vars))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+e.vars[k])
	}
	return out
}
