// Package model defines the core domain types shared across the wager engine.
// All monetary values are unsigned 64-bit integers in base units (micro-units
// of the settlement asset), never float64 for money.
package model

import (
	"errors"
	"time"
)

// Match status values. Pending and Active are live; the other four are
// resolved and make the match eligible for closing once its escrow is empty.
const (
	StatusPending   = "pending"
	StatusActive    = "active"
	StatusSettled   = "settled"
	StatusTied      = "tied"
	StatusForfeited = "forfeited"
	StatusCancelled = "cancelled"
)

const (
	// InitialRating is the ELO rating assigned to every new profile.
	InitialRating = 1200

	// MaxFeeBps caps the platform fee at 25%.
	MaxFeeBps = 2500

	// MaxDisplayNameBytes is the display name length limit in bytes.
	MaxDisplayNameBytes = 16
)

var (
	// ErrInvalidFeeBps is returned when fee basis points exceed MaxFeeBps.
	ErrInvalidFeeBps = errors.New("model: fee basis points must be between 0 and 2500")

	// ErrEmptyDisplayName is returned for an empty display name.
	ErrEmptyDisplayName = errors.New("model: display name cannot be empty")

	// ErrDisplayNameTooLong is returned when a display name exceeds 16 bytes.
	ErrDisplayNameTooLong = errors.New("model: display name exceeds maximum length of 16 bytes")
)

// Platform is the singleton registry: fee configuration, the authority
// allowed to create and settle matches, the treasury that collects fees,
// and running totals. Created once at bootstrap, never deleted.
type Platform struct {
	Authority    string    `json:"authority" db:"authority"`
	FeeBps       uint16    `json:"fee_bps" db:"fee_bps"`
	Treasury     string    `json:"treasury" db:"treasury"`
	TotalMatches uint64    `json:"total_matches" db:"total_matches"`
	TotalVolume  uint64    `json:"total_volume" db:"total_volume"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// PlayerProfile holds one player's skill rating and cumulative statistics.
// Mutated only by match settlement.
type PlayerProfile struct {
	Owner         string    `json:"owner" db:"owner"`
	DisplayName   string    `json:"display_name" db:"display_name"`
	Rating        uint32    `json:"rating" db:"rating"`
	Wins          uint32    `json:"wins" db:"wins"`
	Losses        uint32    `json:"losses" db:"losses"`
	Ties          uint32    `json:"ties" db:"ties"`
	GamesPlayed   uint32    `json:"games_played" db:"games_played"`
	TotalPnL      int64     `json:"total_pnl" db:"total_pnl"`
	CurrentStreak uint32    `json:"current_streak" db:"current_streak"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// Match is one wagering escrow between two players. StakeAmount is the
// per-player stake; the escrow account custodies up to twice that.
// Winner is empty until a settlement that produces one.
type Match struct {
	MatchID            uint64    `json:"match_id" db:"match_id"`
	PlayerOne          string    `json:"player_one" db:"player_one"`
	PlayerTwo          string    `json:"player_two" db:"player_two"`
	StakeAmount        uint64    `json:"stake_amount" db:"stake_amount"`
	TimeframeSeconds   uint32    `json:"timeframe_seconds" db:"timeframe_seconds"`
	EscrowAccount      string    `json:"escrow_account" db:"escrow_account"`
	Status             string    `json:"status" db:"status"`
	Winner             string    `json:"winner,omitempty" db:"winner"`
	PlayerOnePnL       int64     `json:"player_one_pnl" db:"player_one_pnl"`
	PlayerTwoPnL       int64     `json:"player_two_pnl" db:"player_two_pnl"`
	PlayerOneDeposited bool      `json:"player_one_deposited" db:"player_one_deposited"`
	PlayerTwoDeposited bool      `json:"player_two_deposited" db:"player_two_deposited"`
	StartTime          time.Time `json:"start_time" db:"start_time"`
	EndTime            time.Time `json:"end_time" db:"end_time"`
	SettledAt          time.Time `json:"settled_at" db:"settled_at"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
}

// IsParticipant reports whether the identity is one of the two players.
func (m *Match) IsParticipant(identity string) bool {
	return identity == m.PlayerOne || identity == m.PlayerTwo
}

// Resolved reports whether the match reached one of the four terminal
// outcomes (the precondition for closing, together with an empty escrow).
func (m *Match) Resolved() bool {
	switch m.Status {
	case StatusSettled, StatusTied, StatusForfeited, StatusCancelled:
		return true
	}
	return false
}

// ValidateFeeBps checks the platform fee bounds.
func ValidateFeeBps(feeBps uint16) error {
	if feeBps > MaxFeeBps {
		return ErrInvalidFeeBps
	}
	return nil
}

// ValidateDisplayName checks the 1–16 byte display name constraint.
func ValidateDisplayName(name string) error {
	if len(name) == 0 {
		return ErrEmptyDisplayName
	}
	if len(name) > MaxDisplayNameBytes {
		return ErrDisplayNameTooLong
	}
	return nil
}
