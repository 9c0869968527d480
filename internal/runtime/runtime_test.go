// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Type
		wantErr bool
	}{
		{"", TypeNative, false},
		{"native", TypeNative, false},
		{" Virtual ", TypeVirtual, false},
		{"container", "", true},
	}
	for _, tt := range tests {
		got, err := ParseType(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseType(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if tt.wantErr && !errors.Is(err, ErrInvalidType) {
			t.Errorf("ParseType(%q) error does not wrap ErrInvalidType: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBuildRegistry(t *testing.T) {
	t.Parallel()

	reg := BuildRegistry(Options{Shell: []string{"bash", "-c"}})
	for _, typ := range []Type{TypeNative, TypeVirtual} {
		if _, ok := reg.runtimes[typ]; !ok {
			t.Errorf("runtime %q not registered", typ)
		}
	}

	rt, err := reg.Get(TypeVirtual)
	if err != nil {
		t.Fatalf("Get(virtual) error = %v", err)
	}
	if rt.Name() != "virtual" {
		t.Errorf("Name() = %q", rt.Name())
	}
	if _, ok := rt.(LineChecker); !ok {
		t.Error("virtual runtime should implement LineChecker")
	}

	native, err := reg.Get(TypeNative)
	if err != nil {
		t.Fatalf("Get(native) error = %v", err)
	}
	if got := native.(*NativeRuntime).Shell; !cmp.Equal(got, []string{"bash", "-c"}) {
		t.Errorf("native shell = %v", got)
	}

	if _, err := reg.Get("bogus"); !errors.Is(err, ErrInvalidType) {
		t.Errorf("Get(bogus) error = %v, want ErrInvalidType", err)
	}
	if _, err := NewRegistry().Get(TypeNative); err == nil {
		t.Error("expected error for unregistered runtime")
	}
}
