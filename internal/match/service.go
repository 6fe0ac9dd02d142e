// Package match implements the wagering escrow lifecycle: platform
// bootstrap, player registration, match creation, stake deposits,
// settlement, payout claims, refunds, and closure, plus the HTTP
// handlers that expose each transition.
//
// Every state-mutating operation runs under one mutex so transitions on
// the same record never interleave (single-instance serialization; for
// horizontal scaling replace with database-level locking).
package match

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/skillstake/wager-engine/internal/elo"
	"github.com/skillstake/wager-engine/internal/escrow"
	"github.com/skillstake/wager-engine/internal/identity"
	"github.com/skillstake/wager-engine/internal/ledger"
	"github.com/skillstake/wager-engine/internal/metrics"
	"github.com/skillstake/wager-engine/internal/model"
	"github.com/skillstake/wager-engine/internal/risk"
	"github.com/skillstake/wager-engine/internal/store"
)

var (
	// ErrNotAuthority is returned when the caller is not the platform authority.
	ErrNotAuthority = errors.New("match: caller is not the platform authority")

	// ErrNotParticipant is returned when the caller is not a player in the match.
	ErrNotParticipant = errors.New("match: caller is not a player in this match")

	// ErrNotWinner is returned when someone other than the recorded winner claims.
	ErrNotWinner = errors.New("match: only the recorded winner can claim")

	// ErrMatchNotPending is returned for deposits or cancellation outside Pending.
	ErrMatchNotPending = errors.New("match: match is not in pending status")

	// ErrMatchNotActive is returned for settlement outside Active.
	ErrMatchNotActive = errors.New("match: match is not in active status")

	// ErrAlreadyDeposited is returned for a second deposit by the same player.
	ErrAlreadyDeposited = errors.New("match: player has already deposited")

	// ErrNotClaimable is returned for claims outside Settled/Forfeited.
	ErrNotClaimable = errors.New("match: match must be settled or forfeited to claim")

	// ErrNotRefundable is returned for refunds outside Tied/Cancelled.
	ErrNotRefundable = errors.New("match: match must be tied or cancelled to refund")

	// ErrNotResolved is returned when closing a match still in play.
	ErrNotResolved = errors.New("match: match must be fully resolved before closing")

	// ErrEscrowNotEmpty is returned when closing a match whose escrow
	// still holds funds.
	ErrEscrowNotEmpty = errors.New("match: escrow must be empty before closing")

	// ErrWinnerNotPlayer is returned when the reported winner is neither player.
	ErrWinnerNotPlayer = errors.New("match: reported winner is not a player in this match")

	// ErrForfeitWithoutWinner is returned for a forfeit settlement with no
	// winner; such a match would be neither claimable nor refundable.
	ErrForfeitWithoutWinner = errors.New("match: forfeit settlement requires a winner")
)

// Service owns the match lifecycle state machine. One mutex serializes
// all state-mutating operations (see package doc).
type Service struct {
	store   store.Store
	ledger  ledger.Ledger
	limiter *risk.ExposureLimiter
	hub     *EventHub // optional; nil disables event broadcasting
	mu      sync.Mutex
}

// NewService creates a new match service.
// Pass nil for hub if WebSocket event broadcasting is not needed.
func NewService(st store.Store, lg ledger.Ledger, limiter *risk.ExposureLimiter, hub *EventHub) *Service {
	return &Service{
		store:   st,
		ledger:  lg,
		limiter: limiter,
		hub:     hub,
	}
}

// InitPlatform performs the one-time platform bootstrap. Fails if a
// platform record already exists or fee basis points are out of range.
func (s *Service) InitPlatform(ctx context.Context, authority, treasury string, feeBps uint16) (*model.Platform, error) {
	if err := model.ValidateFeeBps(feeBps); err != nil {
		return nil, err
	}
	if err := identity.Validate(authority); err != nil {
		return nil, err
	}
	if err := identity.Validate(treasury); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := &model.Platform{
		Authority: authority,
		FeeBps:    feeBps,
		Treasury:  treasury,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreatePlatform(ctx, p); err != nil {
		return nil, err
	}

	slog.Info("platform initialized",
		"authority", authority,
		"treasury", treasury,
		"fee_bps", feeBps,
	)
	return p, nil
}

// CreateProfile registers a new player profile with the initial rating.
func (s *Service) CreateProfile(ctx context.Context, owner, displayName string) (*model.PlayerProfile, error) {
	if err := identity.Validate(owner); err != nil {
		return nil, err
	}
	if err := model.ValidateDisplayName(displayName); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := &model.PlayerProfile{
		Owner:       owner,
		DisplayName: displayName,
		Rating:      model.InitialRating,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.store.CreateProfile(ctx, p); err != nil {
		return nil, err
	}

	slog.Info("profile created", "owner", owner, "display_name", displayName)
	s.publish(Event{Type: EventProfileCreated, Player: owner})
	return p, nil
}

// CreateMatch creates a new Pending match between two registered players,
// reserving a fresh escrow account. Authority only.
func (s *Service) CreateMatch(ctx context.Context, caller, playerOne, playerTwo string, stakeAmount uint64, timeframeSeconds uint32) (*model.Match, error) {
	if stakeAmount == 0 {
		return nil, escrow.ErrZeroStake
	}
	if err := identity.ValidateDistinct(playerOne, playerTwo); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	platform, err := s.store.GetPlatform(ctx)
	if err != nil {
		return nil, err
	}
	if caller != platform.Authority {
		return nil, ErrNotAuthority
	}

	// Both players must be registered before they can be matched.
	for _, player := range []string{playerOne, playerTwo} {
		if _, err := s.store.GetProfile(ctx, player); err != nil {
			return nil, err
		}
		exposure, err := s.store.OpenExposure(ctx, player)
		if err != nil {
			return nil, err
		}
		if err := s.limiter.CheckStake(stakeAmount, exposure); err != nil {
			metrics.RiskRejectionsTotal.Inc()
			return nil, err
		}
	}

	stakedVolume, err := escrow.CheckedMul(stakeAmount, 2)
	if err != nil {
		return nil, err
	}
	newVolume, err := escrow.CheckedAdd(platform.TotalVolume, stakedVolume)
	if err != nil {
		return nil, err
	}

	escrowAccount := "escrow-" + uuid.New().String()
	if err := s.ledger.CreateAccount(ctx, escrowAccount); err != nil {
		return nil, fmt.Errorf("reserve escrow account: %w", err)
	}

	m := &model.Match{
		MatchID:          platform.TotalMatches + 1,
		PlayerOne:        playerOne,
		PlayerTwo:        playerTwo,
		StakeAmount:      stakeAmount,
		TimeframeSeconds: timeframeSeconds,
		EscrowAccount:    escrowAccount,
		Status:           model.StatusPending,
		CreatedAt:        time.Now().UTC(),
	}
	if err := s.store.CreateMatch(ctx, m); err != nil {
		s.ledger.CloseAccount(ctx, escrowAccount)
		return nil, err
	}

	platform.TotalMatches = m.MatchID
	platform.TotalVolume = newVolume
	if err := s.store.UpdatePlatform(ctx, platform); err != nil {
		return nil, err
	}

	metrics.MatchesCreatedTotal.Inc()
	metrics.LiveMatches.Inc()

	slog.Info("match created",
		"match_id", m.MatchID,
		"player_one", playerOne,
		"player_two", playerTwo,
		"stake", stakeAmount,
		"timeframe_seconds", timeframeSeconds,
	)
	s.publish(Event{
		Type:    EventMatchCreated,
		MatchID: m.MatchID,
		Amount:  stakeAmount,
	})
	return m, nil
}

// Deposit moves the caller's stake into the match escrow. When the
// second deposit lands, the match activates and its clock starts.
func (s *Service) Deposit(ctx context.Context, matchID uint64, caller string) (*model.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if m.Status != model.StatusPending {
		return nil, ErrMatchNotPending
	}
	if !m.IsParticipant(caller) {
		return nil, ErrNotParticipant
	}

	isPlayerOne := caller == m.PlayerOne
	if (isPlayerOne && m.PlayerOneDeposited) || (!isPlayerOne && m.PlayerTwoDeposited) {
		return nil, ErrAlreadyDeposited
	}

	if err := s.ledger.Transfer(ctx, caller, m.EscrowAccount, m.StakeAmount); err != nil {
		return nil, fmt.Errorf("deposit transfer: %w", err)
	}

	if isPlayerOne {
		m.PlayerOneDeposited = true
	} else {
		m.PlayerTwoDeposited = true
	}

	activated := m.PlayerOneDeposited && m.PlayerTwoDeposited
	if activated {
		now := time.Now().UTC()
		m.Status = model.StatusActive
		m.StartTime = now
		m.EndTime = now.Add(time.Duration(m.TimeframeSeconds) * time.Second)
	}

	if err := s.store.UpdateMatch(ctx, m); err != nil {
		return nil, err
	}

	metrics.DepositsTotal.Inc()
	metrics.EscrowVolumeTotal.Add(float64(m.StakeAmount))

	slog.Info("deposit received",
		"match_id", matchID,
		"player", caller,
		"amount", m.StakeAmount,
		"activated", activated,
	)
	s.publish(Event{
		Type:    EventDepositReceived,
		MatchID: matchID,
		Player:  caller,
		Amount:  m.StakeAmount,
	})
	if activated {
		s.publish(Event{
			Type:      EventMatchActivated,
			MatchID:   matchID,
			StartTime: m.StartTime.Unix(),
			EndTime:   m.EndTime.Unix(),
		})
	}
	return m, nil
}

// Settle records the outcome of an Active match. Authority only.
//
// winner empty + not forfeit → Tied; winner present + forfeit → Forfeited;
// winner present + not forfeit → Settled. Ratings move only on Settled:
// a forfeit says nothing about relative skill, so it adjusts win/loss
// counters and PnL but never ratings.
func (s *Service) Settle(ctx context.Context, matchID uint64, caller, winner string, playerOnePnL, playerTwoPnL int64, isForfeit bool) (*model.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	platform, err := s.store.GetPlatform(ctx)
	if err != nil {
		return nil, err
	}
	if caller != platform.Authority {
		return nil, ErrNotAuthority
	}

	m, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if m.Status != model.StatusActive {
		return nil, ErrMatchNotActive
	}
	if winner != "" && !m.IsParticipant(winner) {
		return nil, ErrWinnerNotPlayer
	}
	if isForfeit && winner == "" {
		return nil, ErrForfeitWithoutWinner
	}

	p1, err := s.store.GetProfile(ctx, m.PlayerOne)
	if err != nil {
		return nil, err
	}
	p2, err := s.store.GetProfile(ctx, m.PlayerTwo)
	if err != nil {
		return nil, err
	}

	// All arithmetic is validated before any record is written, so a
	// failed settlement leaves every record untouched.
	newP1PnL, err := escrow.CheckedAddInt64(p1.TotalPnL, playerOnePnL)
	if err != nil {
		return nil, err
	}
	newP2PnL, err := escrow.CheckedAddInt64(p2.TotalPnL, playerTwoPnL)
	if err != nil {
		return nil, err
	}

	isTie := winner == "" && !isForfeit
	switch {
	case isTie:
		m.Status = model.StatusTied
	case isForfeit:
		m.Status = model.StatusForfeited
	default:
		m.Status = model.StatusSettled
	}

	m.Winner = winner
	m.PlayerOnePnL = playerOnePnL
	m.PlayerTwoPnL = playerTwoPnL
	m.SettledAt = time.Now().UTC()

	p1.TotalPnL = newP1PnL
	p2.TotalPnL = newP2PnL
	p1.GamesPlayed++
	p2.GamesPlayed++

	if isTie {
		p1.Ties++
		p2.Ties++
		p1.CurrentStreak = 0
		p2.CurrentStreak = 0
	} else {
		winnerProfile, loserProfile := p1, p2
		if winner == m.PlayerTwo {
			winnerProfile, loserProfile = p2, p1
		}
		winnerProfile.Wins++
		winnerProfile.CurrentStreak++
		loserProfile.Losses++
		loserProfile.CurrentStreak = 0

		if m.Status == model.StatusSettled {
			// Games-played counts were incremented above; rate on the
			// pre-match counts.
			winnerProfile.Rating, loserProfile.Rating = elo.UpdateRatings(
				winnerProfile.Rating, loserProfile.Rating,
				winnerProfile.GamesPlayed-1, loserProfile.GamesPlayed-1,
			)
		}
	}

	if err := s.store.UpdateMatch(ctx, m); err != nil {
		return nil, err
	}
	if err := s.store.UpdateProfile(ctx, p1); err != nil {
		return nil, err
	}
	if err := s.store.UpdateProfile(ctx, p2); err != nil {
		return nil, err
	}

	metrics.SettlementsTotal.WithLabelValues(m.Status).Inc()
	metrics.LiveMatches.Dec()

	slog.Info("match settled",
		"match_id", matchID,
		"status", m.Status,
		"winner", winner,
		"player_one_pnl", playerOnePnL,
		"player_two_pnl", playerTwoPnL,
	)
	s.publish(Event{
		Type:    EventMatchSettled,
		MatchID: matchID,
		Player:  winner,
		Outcome: m.Status,
	})
	return m, nil
}

// Claim pays out a Settled or Forfeited match: the pot minus the platform
// fee goes to the recorded winner, the fee to the treasury. Only the
// winner may claim, and only once: the escrow drains on the first claim.
func (s *Service) Claim(ctx context.Context, matchID uint64, caller string) (*escrow.Split, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	platform, err := s.store.GetPlatform(ctx)
	if err != nil {
		return nil, err
	}
	m, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if m.Status != model.StatusSettled && m.Status != model.StatusForfeited {
		return nil, ErrNotClaimable
	}
	if caller != m.Winner {
		return nil, ErrNotWinner
	}

	split, err := escrow.SplitPot(m.StakeAmount, platform.FeeBps)
	if err != nil {
		return nil, err
	}

	if err := s.ledger.Transfer(ctx, m.EscrowAccount, m.Winner, split.Payout); err != nil {
		return nil, fmt.Errorf("payout transfer: %w", err)
	}
	// Zero-amount transfers are rejected by some ledgers; skip the fee
	// leg entirely when rounding floors it to zero.
	if split.Fee > 0 {
		if err := s.ledger.Transfer(ctx, m.EscrowAccount, platform.Treasury, split.Fee); err != nil {
			return nil, fmt.Errorf("fee transfer: %w", err)
		}
	}

	metrics.ClaimsTotal.Inc()
	metrics.FeesCollectedTotal.Add(float64(split.Fee))

	slog.Info("payout claimed",
		"match_id", matchID,
		"winner", m.Winner,
		"payout", split.Payout,
		"fee", split.Fee,
	)
	s.publish(Event{
		Type:    EventPayoutClaimed,
		MatchID: matchID,
		Player:  m.Winner,
		Amount:  split.Payout,
		Fee:     split.Fee,
	})
	return &split, nil
}

// Refund returns deposited stakes for a Tied or Cancelled match. The
// operation is permissionless: funds can only ever move back to the
// players who deposited them.
func (s *Service) Refund(ctx context.Context, matchID uint64) (*model.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if m.Status != model.StatusTied && m.Status != model.StatusCancelled {
		return nil, ErrNotRefundable
	}

	amount := escrow.RefundAmount(m.StakeAmount)
	if m.PlayerOneDeposited {
		if err := s.ledger.Transfer(ctx, m.EscrowAccount, m.PlayerOne, amount); err != nil {
			return nil, fmt.Errorf("refund player one: %w", err)
		}
	}
	if m.PlayerTwoDeposited {
		if err := s.ledger.Transfer(ctx, m.EscrowAccount, m.PlayerTwo, amount); err != nil {
			return nil, fmt.Errorf("refund player two: %w", err)
		}
	}

	metrics.RefundsTotal.Inc()

	slog.Info("escrow refunded",
		"match_id", matchID,
		"refund_amount", amount,
		"player_one_refunded", m.PlayerOneDeposited,
		"player_two_refunded", m.PlayerTwoDeposited,
	)
	s.publish(Event{
		Type:    EventEscrowRefunded,
		MatchID: matchID,
		Amount:  amount,
	})
	return m, nil
}

// Cancel aborts a Pending match before activation. Authority only.
// Any partial deposit stays in escrow until refunded.
func (s *Service) Cancel(ctx context.Context, matchID uint64, caller string) (*model.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	platform, err := s.store.GetPlatform(ctx)
	if err != nil {
		return nil, err
	}
	if caller != platform.Authority {
		return nil, ErrNotAuthority
	}

	m, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if m.Status != model.StatusPending {
		return nil, ErrMatchNotPending
	}

	m.Status = model.StatusCancelled
	if err := s.store.UpdateMatch(ctx, m); err != nil {
		return nil, err
	}

	metrics.LiveMatches.Dec()

	slog.Info("match cancelled", "match_id", matchID)
	s.publish(Event{Type: EventMatchCancelled, MatchID: matchID})
	return m, nil
}

// Close removes a fully resolved match whose escrow has drained to zero,
// reclaiming both the record and the escrow account. Authority only.
func (s *Service) Close(ctx context.Context, matchID uint64, caller string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	platform, err := s.store.GetPlatform(ctx)
	if err != nil {
		return err
	}
	if caller != platform.Authority {
		return ErrNotAuthority
	}

	m, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		return err
	}
	if !m.Resolved() {
		return ErrNotResolved
	}

	balance, err := s.ledger.Balance(ctx, m.EscrowAccount)
	if err != nil {
		return err
	}
	if balance != 0 {
		return fmt.Errorf("%w: %d remaining", ErrEscrowNotEmpty, balance)
	}

	if err := s.ledger.CloseAccount(ctx, m.EscrowAccount); err != nil {
		return err
	}
	if err := s.store.DeleteMatch(ctx, matchID); err != nil {
		return err
	}

	slog.Info("match closed", "match_id", matchID, "status", m.Status)
	s.publish(Event{Type: EventMatchClosed, MatchID: matchID})
	return nil
}

// GetMatch returns a match record by ID.
func (s *Service) GetMatch(ctx context.Context, matchID uint64) (*model.Match, error) {
	return s.store.GetMatch(ctx, matchID)
}

// ListMatches returns all live match records.
func (s *Service) ListMatches(ctx context.Context) ([]model.Match, error) {
	return s.store.ListMatches(ctx)
}

// GetProfile returns a player profile by owner identity.
func (s *Service) GetProfile(ctx context.Context, owner string) (*model.PlayerProfile, error) {
	return s.store.GetProfile(ctx, owner)
}

// publish broadcasts an event if a hub is attached.
func (s *Service) publish(ev Event) {
	if s.hub != nil {
		s.hub.Broadcast(ev)
	}
}
