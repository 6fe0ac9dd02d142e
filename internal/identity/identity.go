// Package identity validates the opaque signing identities used for
// players, the platform authority, and the treasury. Identities are
// base58-encoded public keys established outside this service; the
// engine only checks their shape, never their signatures.
package identity

import (
	"errors"
	"fmt"
	"regexp"
)

// idRegex matches a base58-encoded 32-byte public key (32–44 characters,
// no 0, O, I, or l).
var idRegex = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]{32,44}$`)

var (
	ErrInvalidIdentity = errors.New("identity: invalid identity format")

	// ErrSameIdentity is returned where two identities must be distinct
	// (the two players of a match, or transfer endpoints).
	ErrSameIdentity = errors.New("identity: identities must be distinct")
)

// Validate checks that s has the shape of a base58 public key.
func Validate(s string) error {
	if !idRegex.MatchString(s) {
		return fmt.Errorf("%w: %q (expected 32-44 base58 characters)", ErrInvalidIdentity, s)
	}
	return nil
}

// ValidateDistinct checks that both identities are well-formed and different.
func ValidateDistinct(a, b string) error {
	if err := Validate(a); err != nil {
		return err
	}
	if err := Validate(b); err != nil {
		return err
	}
	if a == b {
		return ErrSameIdentity
	}
	return nil
}
