// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
)

// Runtime type constants for the supported execution environments.
const (
	TypeNative  Type = "native"
	TypeVirtual Type = "virtual"
)

var (
	// ErrInvalidType is the sentinel error wrapped by InvalidTypeError.
	ErrInvalidType = errors.New("invalid runtime type")

	// ErrRuntimeNotAvailable is returned when a registered runtime cannot run
	// on the current host.
	ErrRuntimeNotAvailable = errors.New("runtime not available")
)

type (
	// Type identifies a runtime implementation.
	Type string

	// InvalidTypeError is returned when a Type is not one of the known runtimes.
	InvalidTypeError struct {
		Value Type
	}

	// Command is one expanded body line ready to run.
	Command struct {
		// Line is the command text with placeholders already substituted.
		Line string
		// Dir is the working directory; empty means the current directory.
		Dir string
		// Env is the complete environment of the line.
		Env Env
		// Stdin is where to read standard input
		Stdin io.Reader
		// Stdout is where to write standard output
		Stdout io.Writer
		// Stderr is where to write standard error
		Stderr io.Writer
		// ProcessGroup runs the line in its own process group, which is
		// killed as a whole on cancellation. Leave it off when the line
		// may read from the controlling terminal.
		ProcessGroup bool
	}

	// Runtime runs a single line and reports its exit status.
	Runtime interface {
		// Name returns the runtime name
		Name() string
		// Available returns whether this runtime can run on the current system
		Available() bool
		// Run executes the line and blocks until it finishes or ctx is done.
		Run(ctx context.Context, cmd *Command) *Result
	}

	// LineChecker is implemented by runtimes that can reject a line before
	// anything runs.
	LineChecker interface {
		Check(line string) error
	}

	// Options configures the runtimes built by BuildRegistry.
	Options struct {
		// Shell is the program and leading arguments for the native runtime,
		// e.g. ["bash", "-eu", "-c"]. Empty selects the platform default.
		Shell []string
		// Logger receives debug output; nil disables logging.
		Logger *log.Logger
	}

	// Registry holds the runtimes available to the engine.
	Registry struct {
		runtimes map[Type]Runtime
	}
)

// Error implements the error interface.
func (e *InvalidTypeError) Error() string {
	return fmt.Sprintf("invalid runtime type %q (valid: %s, %s)", string(e.Value), TypeNative, TypeVirtual)
}

// Unwrap returns ErrInvalidType so callers can use errors.Is for programmatic detection.
func (e *InvalidTypeError) Unwrap() error { return ErrInvalidType }

// String returns the string representation of the Type.
func (t Type) String() string { return string(t) }

// Validate returns nil if the Type names a known runtime.
func (t Type) Validate() error {
	switch t {
	case TypeNative, TypeVirtual:
		return nil
	default:
		return &InvalidTypeError{Value: t}
	}
}

// ParseType converts a user-supplied name into a Type. The empty string
// selects the native runtime.
func ParseType(s string) (Type, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return TypeNative, nil
	}
	t := Type(s)
	if err := t.Validate(); err != nil {
		return "", err
	}
	return t, nil
}

// NewRegistry creates an empty runtime registry.
func NewRegistry() *Registry {
	return &Registry{
		runtimes: make(map[Type]Runtime),
	}
}

// BuildRegistry creates a registry holding the native and virtual runtimes.
func BuildRegistry(opts Options) *Registry {
	reg := NewRegistry()
	native := NewNativeRuntime(opts.Shell)
	native.Logger = opts.Logger
	reg.Register(TypeNative, native)
	virtual := NewVirtualRuntime()
	virtual.Logger = opts.Logger
	reg.Register(TypeVirtual, virtual)
	return reg
}

// Register adds a runtime to the registry.
func (r *Registry) Register(typ Type, rt Runtime) {
	r.runtimes[typ] = rt
}

// Get returns a runtime by type.
func (r *Registry) Get(typ Type) (Runtime, error) {
	if err := typ.Validate(); err != nil {
		return nil, err
	}
	rt, ok := r.runtimes[typ]
	if !ok {
		return nil, fmt.Errorf("runtime '%s' is not registered", typ)
	}
	if !rt.Available() {
		return nil, fmt.Errorf("%w: %s", ErrRuntimeNotAvailable, typ)
	}
	return rt, nil
}
