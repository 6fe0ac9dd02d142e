// Package store defines the persistence interface for the wager engine.
// Implementations include PostgreSQL (source of truth), Redis (read-through
// cache), and in-memory (for testing).
package store

import (
	"context"
	"errors"

	"github.com/skillstake/wager-engine/internal/model"
)

var (
	// ErrPlatformExists is returned when initializing a platform twice.
	ErrPlatformExists = errors.New("store: platform already initialized")

	// ErrPlatformNotFound is returned before the platform is initialized.
	ErrPlatformNotFound = errors.New("store: platform not initialized")

	// ErrProfileExists is returned when a profile for the identity exists.
	ErrProfileExists = errors.New("store: profile already exists")

	// ErrProfileNotFound is returned for an unknown player identity.
	ErrProfileNotFound = errors.New("store: profile not found")

	// ErrMatchNotFound is returned for an unknown match ID.
	ErrMatchNotFound = errors.New("store: match not found")
)

// Store is the persistence interface. PostgreSQL is the source of truth;
// Redis provides a read-through cache layer.
type Store interface {
	// --- Platform registry (singleton) ---

	// CreatePlatform persists the one-time platform record.
	// Fails with ErrPlatformExists if one is already present.
	CreatePlatform(ctx context.Context, p *model.Platform) error

	// GetPlatform retrieves the platform record.
	GetPlatform(ctx context.Context) (*model.Platform, error)

	// UpdatePlatform overwrites the platform counters.
	UpdatePlatform(ctx context.Context, p *model.Platform) error

	// --- Player profiles ---

	// CreateProfile persists a new player profile.
	// Fails with ErrProfileExists for a duplicate owner.
	CreateProfile(ctx context.Context, p *model.PlayerProfile) error

	// GetProfile retrieves a profile by its owner identity.
	GetProfile(ctx context.Context, owner string) (*model.PlayerProfile, error)

	// UpdateProfile overwrites a profile after settlement.
	UpdateProfile(ctx context.Context, p *model.PlayerProfile) error

	// ListTopProfiles returns up to limit profiles ordered by rating,
	// highest first.
	ListTopProfiles(ctx context.Context, limit int) ([]model.PlayerProfile, error)

	// --- Match records ---

	// CreateMatch persists a new match record.
	CreateMatch(ctx context.Context, m *model.Match) error

	// GetMatch retrieves a match by its ID.
	GetMatch(ctx context.Context, matchID uint64) (*model.Match, error)

	// ListMatches returns all live match records, newest first.
	ListMatches(ctx context.Context) ([]model.Match, error)

	// UpdateMatch overwrites a match record after a transition.
	UpdateMatch(ctx context.Context, m *model.Match) error

	// DeleteMatch removes a closed match record.
	DeleteMatch(ctx context.Context, matchID uint64) error

	// OpenExposure returns the sum of a player's stakes across their
	// unresolved (Pending or Active) matches.
	OpenExposure(ctx context.Context, player string) (uint64, error)
}
