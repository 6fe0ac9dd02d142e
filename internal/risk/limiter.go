// Package risk enforces stake limits at match creation.
//
// Two limits apply: a per-match maximum stake, and a cap on a player's
// aggregate exposure across all of their unresolved matches. The second
// limit exists because a player can be a participant in many pending or
// active matches at once; each one locks up another stake.
package risk

import (
	"errors"

	"github.com/skillstake/wager-engine/internal/escrow"
)

var (
	// ErrStakeLimitExceeded is returned when a single match's stake
	// exceeds the per-match maximum.
	ErrStakeLimitExceeded = errors.New("risk: stake exceeds per-match limit")

	// ErrExposureLimitExceeded is returned when a match would push a
	// player's aggregate open exposure beyond the maximum.
	ErrExposureLimitExceeded = errors.New("risk: aggregate open exposure limit exceeded")
)

// ExposureLimiter validates stakes against per-match and per-player limits.
// A zero limit disables that check.
type ExposureLimiter struct {
	// MaxStakePerMatch is the maximum stake for any single match.
	MaxStakePerMatch uint64

	// MaxOpenExposure is the maximum sum of stakes a player may have
	// locked across unresolved matches, including the one being created.
	MaxOpenExposure uint64
}

// NewExposureLimiter creates a limiter with the given limits.
func NewExposureLimiter(maxStakePerMatch, maxOpenExposure uint64) *ExposureLimiter {
	return &ExposureLimiter{
		MaxStakePerMatch: maxStakePerMatch,
		MaxOpenExposure:  maxOpenExposure,
	}
}

// CheckStake validates a new match's stake for one player.
//
// openExposure is the sum of that player's stakes across their current
// unresolved matches (supplied by the caller from the match store).
func (l *ExposureLimiter) CheckStake(stakeAmount, openExposure uint64) error {
	if l.MaxStakePerMatch > 0 && stakeAmount > l.MaxStakePerMatch {
		return ErrStakeLimitExceeded
	}

	if l.MaxOpenExposure > 0 {
		total, err := escrow.CheckedAdd(openExposure, stakeAmount)
		if err != nil {
			return ErrExposureLimitExceeded
		}
		if total > l.MaxOpenExposure {
			return ErrExposureLimitExceeded
		}
	}
	return nil
}
