package identity

import (
	"errors"
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		valid bool
	}{
		{"typical key", "4Nd1mY5yVjtuRFjfDc8fLyGKwT2HvPjgnX71T3AYpV9a", true},
		{"minimum length", strings.Repeat("a", 32), true},
		{"maximum length", strings.Repeat("a", 44), true},
		{"too short", strings.Repeat("a", 31), false},
		{"too long", strings.Repeat("a", 45), false},
		{"empty", "", false},
		{"contains zero", strings.Repeat("a", 31) + "0", false},
		{"contains capital O", strings.Repeat("a", 31) + "O", false},
		{"contains capital I", strings.Repeat("a", 31) + "I", false},
		{"contains lowercase l", strings.Repeat("a", 31) + "l", false},
		{"contains space", strings.Repeat("a", 16) + " " + strings.Repeat("a", 16), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.input)
			if tt.valid && err != nil {
				t.Errorf("Validate(%q) = %v, want nil", tt.input, err)
			}
			if !tt.valid && !errors.Is(err, ErrInvalidIdentity) {
				t.Errorf("Validate(%q) = %v, want ErrInvalidIdentity", tt.input, err)
			}
		})
	}
}

func TestValidateDistinct(t *testing.T) {
	a := strings.Repeat("a", 32)
	b := strings.Repeat("b", 32)

	if err := ValidateDistinct(a, b); err != nil {
		t.Errorf("distinct identities rejected: %v", err)
	}
	if err := ValidateDistinct(a, a); !errors.Is(err, ErrSameIdentity) {
		t.Errorf("expected ErrSameIdentity, got %v", err)
	}
	if err := ValidateDistinct("short", b); !errors.Is(err, ErrInvalidIdentity) {
		t.Errorf("expected ErrInvalidIdentity for malformed first identity, got %v", err)
	}
}
