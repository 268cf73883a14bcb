package app

import (
	"errors"
	"fmt"
	"testing"
)

func TestError(t *testing.T) {
	cause := errors.New("permission denied")
	err := configError(cause, "invalid --%s", "ltm_directory")

	if got, want := err.Error(), "invalid --ltm_directory: permission denied"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, cause) {
		t.Error("Error does not unwrap to its cause")
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"configuration", configErrorf("bad"), KindConfiguration},
		{"environment", environmentError(errors.New("x"), "no home"), KindEnvironment},
		{"wrapped", fmt.Errorf("startup: %w", configErrorf("bad")), KindConfiguration},
		{"plain", errors.New("plain"), 0},
		{"nil", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKind_String(t *testing.T) {
	if KindConfiguration.String() != "configuration error" {
		t.Errorf("KindConfiguration.String() = %q", KindConfiguration.String())
	}
	if KindEnvironment.String() != "environment error" {
		t.Errorf("KindEnvironment.String() = %q", KindEnvironment.String())
	}
}
