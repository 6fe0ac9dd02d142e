package match

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/skillstake/wager-engine/internal/escrow"
	"github.com/skillstake/wager-engine/internal/ledger"
	"github.com/skillstake/wager-engine/internal/model"
	"github.com/skillstake/wager-engine/internal/risk"
	"github.com/skillstake/wager-engine/internal/store"
)

// Base58-shaped identities for the fixed cast.
var (
	authority = strings.Repeat("q", 32)
	treasury  = strings.Repeat("t", 32)
	alice     = strings.Repeat("a", 32)
	bob       = strings.Repeat("b", 32)
	carol     = strings.Repeat("c", 32)
)

const (
	stake     = uint64(1_000_000)
	feeBps    = uint16(250)
	timeframe = uint32(300)
	funding   = uint64(10_000_000)
)

type fixture struct {
	svc    *Service
	store  *store.MemoryStore
	ledger *ledger.MemoryLedger
	ctx    context.Context
}

// newFixture builds a service with an initialized platform and two
// registered, funded players.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:  store.NewMemoryStore(),
		ledger: ledger.NewMemoryLedger(),
		ctx:    context.Background(),
	}
	f.svc = NewService(f.store, f.ledger, risk.NewExposureLimiter(0, 0), nil)

	if _, err := f.svc.InitPlatform(f.ctx, authority, treasury, feeBps); err != nil {
		t.Fatalf("init platform: %v", err)
	}
	for _, p := range []struct{ owner, name string }{
		{alice, "alice"}, {bob, "bob"}, {carol, "carol"},
	} {
		if _, err := f.svc.CreateProfile(f.ctx, p.owner, p.name); err != nil {
			t.Fatalf("create profile %s: %v", p.name, err)
		}
		f.ledger.Mint(p.owner, funding)
	}
	return f
}

func (f *fixture) createMatch(t *testing.T) *model.Match {
	t.Helper()
	m, err := f.svc.CreateMatch(f.ctx, authority, alice, bob, stake, timeframe)
	if err != nil {
		t.Fatalf("create match: %v", err)
	}
	return m
}

func (f *fixture) activate(t *testing.T, matchID uint64) *model.Match {
	t.Helper()
	if _, err := f.svc.Deposit(f.ctx, matchID, alice); err != nil {
		t.Fatalf("deposit alice: %v", err)
	}
	m, err := f.svc.Deposit(f.ctx, matchID, bob)
	if err != nil {
		t.Fatalf("deposit bob: %v", err)
	}
	return m
}

func (f *fixture) balance(t *testing.T, account string) uint64 {
	t.Helper()
	bal, err := f.ledger.Balance(f.ctx, account)
	if err != nil {
		t.Fatalf("balance %s: %v", account, err)
	}
	return bal
}

// --- Platform bootstrap ---

func TestInitPlatform_Duplicate(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.InitPlatform(f.ctx, authority, treasury, feeBps)
	if !errors.Is(err, store.ErrPlatformExists) {
		t.Errorf("expected ErrPlatformExists, got %v", err)
	}
}

func TestInitPlatform_FeeOutOfRange(t *testing.T) {
	f := &fixture{store: store.NewMemoryStore(), ledger: ledger.NewMemoryLedger(), ctx: context.Background()}
	f.svc = NewService(f.store, f.ledger, risk.NewExposureLimiter(0, 0), nil)

	_, err := f.svc.InitPlatform(f.ctx, authority, treasury, 2501)
	if !errors.Is(err, model.ErrInvalidFeeBps) {
		t.Errorf("expected ErrInvalidFeeBps, got %v", err)
	}
}

// --- Profile registration ---

func TestCreateProfile_Validation(t *testing.T) {
	f := newFixture(t)

	if _, err := f.svc.CreateProfile(f.ctx, strings.Repeat("d", 32), ""); !errors.Is(err, model.ErrEmptyDisplayName) {
		t.Errorf("expected ErrEmptyDisplayName, got %v", err)
	}
	if _, err := f.svc.CreateProfile(f.ctx, strings.Repeat("d", 32), "seventeen-bytes!!"); !errors.Is(err, model.ErrDisplayNameTooLong) {
		t.Errorf("expected ErrDisplayNameTooLong, got %v", err)
	}
	if _, err := f.svc.CreateProfile(f.ctx, alice, "again"); !errors.Is(err, store.ErrProfileExists) {
		t.Errorf("expected ErrProfileExists, got %v", err)
	}
}

func TestCreateProfile_InitialState(t *testing.T) {
	f := newFixture(t)
	p, err := f.svc.GetProfile(f.ctx, alice)
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if p.Rating != model.InitialRating {
		t.Errorf("expected rating 1200, got %d", p.Rating)
	}
	if p.Wins != 0 || p.Losses != 0 || p.Ties != 0 || p.GamesPlayed != 0 || p.TotalPnL != 0 {
		t.Errorf("expected zeroed counters, got %+v", p)
	}
}

// --- Match creation ---

func TestCreateMatch_Guards(t *testing.T) {
	f := newFixture(t)

	if _, err := f.svc.CreateMatch(f.ctx, alice, alice, bob, stake, timeframe); !errors.Is(err, ErrNotAuthority) {
		t.Errorf("expected ErrNotAuthority, got %v", err)
	}
	if _, err := f.svc.CreateMatch(f.ctx, authority, alice, bob, 0, timeframe); !errors.Is(err, escrow.ErrZeroStake) {
		t.Errorf("expected ErrZeroStake, got %v", err)
	}
	if _, err := f.svc.CreateMatch(f.ctx, authority, alice, alice, stake, timeframe); err == nil {
		t.Error("expected error for identical players")
	}
	unregistered := strings.Repeat("z", 32)
	if _, err := f.svc.CreateMatch(f.ctx, authority, alice, unregistered, stake, timeframe); !errors.Is(err, store.ErrProfileNotFound) {
		t.Errorf("expected ErrProfileNotFound, got %v", err)
	}
}

func TestCreateMatch_SequentialIDsAndVolume(t *testing.T) {
	f := newFixture(t)

	const n = 3
	for i := 1; i <= n; i++ {
		m, err := f.svc.CreateMatch(f.ctx, authority, alice, bob, stake, timeframe)
		if err != nil {
			t.Fatalf("create match %d: %v", i, err)
		}
		if m.MatchID != uint64(i) {
			t.Errorf("expected match_id %d, got %d", i, m.MatchID)
		}
	}

	p, _ := f.store.GetPlatform(f.ctx)
	if p.TotalMatches != n {
		t.Errorf("expected total_matches %d, got %d", n, p.TotalMatches)
	}
	if p.TotalVolume != n*2*stake {
		t.Errorf("expected total_volume %d, got %d", n*2*stake, p.TotalVolume)
	}
}

func TestCreateMatch_ExposureLimit(t *testing.T) {
	f := newFixture(t)
	f.svc.limiter = risk.NewExposureLimiter(0, 2*stake)

	// First two matches lock 2×stake for each player; the third breaks the cap.
	for i := 0; i < 2; i++ {
		if _, err := f.svc.CreateMatch(f.ctx, authority, alice, bob, stake, timeframe); err != nil {
			t.Fatalf("create match %d: %v", i, err)
		}
	}
	_, err := f.svc.CreateMatch(f.ctx, authority, alice, bob, stake, timeframe)
	if !errors.Is(err, risk.ErrExposureLimitExceeded) {
		t.Errorf("expected ErrExposureLimitExceeded, got %v", err)
	}
}

// --- Deposits & activation ---

func TestDeposit_ActivatesWhenBothArrive(t *testing.T) {
	f := newFixture(t)
	m := f.createMatch(t)

	m1, err := f.svc.Deposit(f.ctx, m.MatchID, bob) // order should not matter
	if err != nil {
		t.Fatalf("deposit bob: %v", err)
	}
	if m1.Status != model.StatusPending {
		t.Errorf("expected pending after one deposit, got %s", m1.Status)
	}

	m2, err := f.svc.Deposit(f.ctx, m.MatchID, alice)
	if err != nil {
		t.Fatalf("deposit alice: %v", err)
	}
	if m2.Status != model.StatusActive {
		t.Errorf("expected active after both deposits, got %s", m2.Status)
	}
	if got := m2.EndTime.Sub(m2.StartTime); got != time.Duration(timeframe)*time.Second {
		t.Errorf("expected end-start == timeframe, got %v", got)
	}
	if bal := f.balance(t, m.EscrowAccount); bal != 2*stake {
		t.Errorf("expected escrow %d, got %d", 2*stake, bal)
	}
}

func TestDeposit_DoubleDepositRejected(t *testing.T) {
	f := newFixture(t)
	m := f.createMatch(t)

	if _, err := f.svc.Deposit(f.ctx, m.MatchID, alice); err != nil {
		t.Fatalf("first deposit: %v", err)
	}
	if _, err := f.svc.Deposit(f.ctx, m.MatchID, alice); !errors.Is(err, ErrAlreadyDeposited) {
		t.Errorf("expected ErrAlreadyDeposited, got %v", err)
	}
	// Balance moved exactly once.
	if bal := f.balance(t, alice); bal != funding-stake {
		t.Errorf("expected alice %d, got %d", funding-stake, bal)
	}
}

func TestDeposit_NonParticipant(t *testing.T) {
	f := newFixture(t)
	m := f.createMatch(t)

	if _, err := f.svc.Deposit(f.ctx, m.MatchID, carol); !errors.Is(err, ErrNotParticipant) {
		t.Errorf("expected ErrNotParticipant, got %v", err)
	}
}

func TestDeposit_RejectedOnceActive(t *testing.T) {
	f := newFixture(t)
	m := f.createMatch(t)
	f.activate(t, m.MatchID)

	if _, err := f.svc.Deposit(f.ctx, m.MatchID, alice); !errors.Is(err, ErrMatchNotPending) {
		t.Errorf("expected ErrMatchNotPending, got %v", err)
	}
}

func TestDeposit_InsufficientFunds(t *testing.T) {
	f := newFixture(t)
	m, err := f.svc.CreateMatch(f.ctx, authority, alice, bob, funding+1, timeframe)
	if err != nil {
		t.Fatalf("create match: %v", err)
	}

	_, err = f.svc.Deposit(f.ctx, m.MatchID, alice)
	if !errors.Is(err, ledger.ErrInsufficientBalance) {
		t.Errorf("expected ErrInsufficientBalance, got %v", err)
	}
	// Deposit flag must not be set on a failed transfer.
	got, _ := f.svc.GetMatch(f.ctx, m.MatchID)
	if got.PlayerOneDeposited {
		t.Error("deposit flag set despite failed transfer")
	}
}

// --- Settlement ---

func TestSettle_WinnerUpdatesProfilesAndRatings(t *testing.T) {
	f := newFixture(t)
	m := f.createMatch(t)
	f.activate(t, m.MatchID)

	settled, err := f.svc.Settle(f.ctx, m.MatchID, authority, alice, 500_000, -500_000, false)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if settled.Status != model.StatusSettled {
		t.Errorf("expected settled, got %s", settled.Status)
	}
	if settled.Winner != alice {
		t.Errorf("expected winner alice, got %s", settled.Winner)
	}
	if settled.SettledAt.IsZero() {
		t.Error("settled_at not stamped")
	}

	p1, _ := f.svc.GetProfile(f.ctx, alice)
	p2, _ := f.svc.GetProfile(f.ctx, bob)

	// 1200 vs 1200, both in placement: K=40, expected 0.5 → ±20.
	if p1.Rating != 1220 || p2.Rating != 1180 {
		t.Errorf("expected ratings 1220/1180, got %d/%d", p1.Rating, p2.Rating)
	}
	if p1.Wins != 1 || p1.CurrentStreak != 1 || p1.GamesPlayed != 1 {
		t.Errorf("winner counters wrong: %+v", p1)
	}
	if p2.Losses != 1 || p2.CurrentStreak != 0 || p2.GamesPlayed != 1 {
		t.Errorf("loser counters wrong: %+v", p2)
	}
	if p1.TotalPnL != 500_000 || p2.TotalPnL != -500_000 {
		t.Errorf("expected pnl 500000/-500000, got %d/%d", p1.TotalPnL, p2.TotalPnL)
	}
}

func TestSettle_TieLeavesRatingsAlone(t *testing.T) {
	f := newFixture(t)
	m := f.createMatch(t)
	f.activate(t, m.MatchID)

	settled, err := f.svc.Settle(f.ctx, m.MatchID, authority, "", 0, 0, false)
	if err != nil {
		t.Fatalf("settle tie: %v", err)
	}
	if settled.Status != model.StatusTied {
		t.Errorf("expected tied, got %s", settled.Status)
	}

	p1, _ := f.svc.GetProfile(f.ctx, alice)
	p2, _ := f.svc.GetProfile(f.ctx, bob)
	if p1.Rating != 1200 || p2.Rating != 1200 {
		t.Errorf("tie must not move ratings, got %d/%d", p1.Rating, p2.Rating)
	}
	if p1.Ties != 1 || p2.Ties != 1 {
		t.Errorf("expected ties incremented, got %d/%d", p1.Ties, p2.Ties)
	}
}

func TestSettle_ForfeitCountsWinButSkipsRatings(t *testing.T) {
	f := newFixture(t)
	m := f.createMatch(t)
	f.activate(t, m.MatchID)

	settled, err := f.svc.Settle(f.ctx, m.MatchID, authority, bob, -stake2i(), stake2i(), true)
	if err != nil {
		t.Fatalf("settle forfeit: %v", err)
	}
	if settled.Status != model.StatusForfeited {
		t.Errorf("expected forfeited, got %s", settled.Status)
	}

	p1, _ := f.svc.GetProfile(f.ctx, alice)
	p2, _ := f.svc.GetProfile(f.ctx, bob)
	if p2.Wins != 1 || p1.Losses != 1 {
		t.Errorf("forfeit must count win/loss, got wins=%d losses=%d", p2.Wins, p1.Losses)
	}
	if p1.Rating != 1200 || p2.Rating != 1200 {
		t.Errorf("forfeit must not move ratings, got %d/%d", p1.Rating, p2.Rating)
	}
}

func TestSettle_Guards(t *testing.T) {
	f := newFixture(t)
	m := f.createMatch(t)

	// Not active yet.
	if _, err := f.svc.Settle(f.ctx, m.MatchID, authority, alice, 0, 0, false); !errors.Is(err, ErrMatchNotActive) {
		t.Errorf("expected ErrMatchNotActive, got %v", err)
	}

	f.activate(t, m.MatchID)

	if _, err := f.svc.Settle(f.ctx, m.MatchID, alice, alice, 0, 0, false); !errors.Is(err, ErrNotAuthority) {
		t.Errorf("expected ErrNotAuthority, got %v", err)
	}
	if _, err := f.svc.Settle(f.ctx, m.MatchID, authority, carol, 0, 0, false); !errors.Is(err, ErrWinnerNotPlayer) {
		t.Errorf("expected ErrWinnerNotPlayer, got %v", err)
	}
	if _, err := f.svc.Settle(f.ctx, m.MatchID, authority, "", 0, 0, true); !errors.Is(err, ErrForfeitWithoutWinner) {
		t.Errorf("expected ErrForfeitWithoutWinner, got %v", err)
	}

	// Failed settlements must not mutate state.
	got, _ := f.svc.GetMatch(f.ctx, m.MatchID)
	if got.Status != model.StatusActive {
		t.Errorf("guard failure mutated status to %s", got.Status)
	}

	// Double settlement.
	if _, err := f.svc.Settle(f.ctx, m.MatchID, authority, alice, 0, 0, false); err != nil {
		t.Fatalf("settle: %v", err)
	}
	if _, err := f.svc.Settle(f.ctx, m.MatchID, authority, bob, 0, 0, false); !errors.Is(err, ErrMatchNotActive) {
		t.Errorf("expected ErrMatchNotActive on double settle, got %v", err)
	}
}

// --- Claims ---

func TestClaim_PaysWinnerAndTreasury(t *testing.T) {
	f := newFixture(t)
	m := f.createMatch(t)
	f.activate(t, m.MatchID)
	if _, err := f.svc.Settle(f.ctx, m.MatchID, authority, alice, 0, 0, false); err != nil {
		t.Fatalf("settle: %v", err)
	}

	split, err := f.svc.Claim(f.ctx, m.MatchID, alice)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}

	// stake=1,000,000 at 250 bps: pot 2,000,000 / fee 50,000 / payout 1,950,000.
	if split.TotalPot != 2_000_000 || split.Fee != 50_000 || split.Payout != 1_950_000 {
		t.Errorf("unexpected split %+v", split)
	}
	if bal := f.balance(t, alice); bal != funding-stake+split.Payout {
		t.Errorf("winner balance %d, want %d", bal, funding-stake+split.Payout)
	}
	if bal := f.balance(t, treasury); bal != split.Fee {
		t.Errorf("treasury balance %d, want %d", bal, split.Fee)
	}
	if bal := f.balance(t, m.EscrowAccount); bal != 0 {
		t.Errorf("escrow not drained: %d", bal)
	}
}

func TestClaim_ZeroFeeSkipsTreasuryLeg(t *testing.T) {
	f := &fixture{store: store.NewMemoryStore(), ledger: ledger.NewMemoryLedger(), ctx: context.Background()}
	f.svc = NewService(f.store, f.ledger, risk.NewExposureLimiter(0, 0), nil)
	if _, err := f.svc.InitPlatform(f.ctx, authority, treasury, 0); err != nil {
		t.Fatalf("init: %v", err)
	}
	for _, p := range []struct{ owner, name string }{{alice, "alice"}, {bob, "bob"}} {
		if _, err := f.svc.CreateProfile(f.ctx, p.owner, p.name); err != nil {
			t.Fatalf("profile: %v", err)
		}
		f.ledger.Mint(p.owner, funding)
	}

	m := f.createMatch(t)
	f.activate(t, m.MatchID)
	if _, err := f.svc.Settle(f.ctx, m.MatchID, authority, alice, 0, 0, false); err != nil {
		t.Fatalf("settle: %v", err)
	}

	split, err := f.svc.Claim(f.ctx, m.MatchID, alice)
	if err != nil {
		t.Fatalf("claim with zero fee: %v", err)
	}
	if split.Fee != 0 || split.Payout != 2*stake {
		t.Errorf("expected fee 0 payout %d, got %+v", 2*stake, split)
	}
}

func TestClaim_Guards(t *testing.T) {
	f := newFixture(t)
	m := f.createMatch(t)
	f.activate(t, m.MatchID)

	// Not yet claimable.
	if _, err := f.svc.Claim(f.ctx, m.MatchID, alice); !errors.Is(err, ErrNotClaimable) {
		t.Errorf("expected ErrNotClaimable, got %v", err)
	}

	if _, err := f.svc.Settle(f.ctx, m.MatchID, authority, alice, 0, 0, false); err != nil {
		t.Fatalf("settle: %v", err)
	}
	if _, err := f.svc.Claim(f.ctx, m.MatchID, bob); !errors.Is(err, ErrNotWinner) {
		t.Errorf("expected ErrNotWinner, got %v", err)
	}

	// Second claim fails: escrow already drained.
	if _, err := f.svc.Claim(f.ctx, m.MatchID, alice); err != nil {
		t.Fatalf("first claim: %v", err)
	}
	if _, err := f.svc.Claim(f.ctx, m.MatchID, alice); !errors.Is(err, ledger.ErrInsufficientBalance) {
		t.Errorf("expected ErrInsufficientBalance on double claim, got %v", err)
	}
}

// --- Refunds ---

func TestRefund_PartialDepositCancelled(t *testing.T) {
	f := newFixture(t)
	m := f.createMatch(t)

	if _, err := f.svc.Deposit(f.ctx, m.MatchID, alice); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if _, err := f.svc.Cancel(f.ctx, m.MatchID, authority); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := f.svc.Refund(f.ctx, m.MatchID); err != nil {
		t.Fatalf("refund: %v", err)
	}

	if bal := f.balance(t, alice); bal != funding {
		t.Errorf("alice should be made whole, got %d", bal)
	}
	if bal := f.balance(t, bob); bal != funding {
		t.Errorf("bob should be untouched, got %d", bal)
	}
	if bal := f.balance(t, m.EscrowAccount); bal != 0 {
		t.Errorf("escrow should be empty, got %d", bal)
	}
}

func TestRefund_TiedMatchRefundsBoth(t *testing.T) {
	f := newFixture(t)
	m := f.createMatch(t)
	f.activate(t, m.MatchID)
	if _, err := f.svc.Settle(f.ctx, m.MatchID, authority, "", 0, 0, false); err != nil {
		t.Fatalf("settle tie: %v", err)
	}

	if _, err := f.svc.Refund(f.ctx, m.MatchID); err != nil {
		t.Fatalf("refund: %v", err)
	}
	if bal := f.balance(t, alice); bal != funding {
		t.Errorf("alice balance %d, want %d", bal, funding)
	}
	if bal := f.balance(t, bob); bal != funding {
		t.Errorf("bob balance %d, want %d", bal, funding)
	}
}

func TestRefund_Guards(t *testing.T) {
	f := newFixture(t)
	m := f.createMatch(t)

	// Pending is not refundable.
	if _, err := f.svc.Refund(f.ctx, m.MatchID); !errors.Is(err, ErrNotRefundable) {
		t.Errorf("expected ErrNotRefundable while pending, got %v", err)
	}

	f.activate(t, m.MatchID)
	if _, err := f.svc.Refund(f.ctx, m.MatchID); !errors.Is(err, ErrNotRefundable) {
		t.Errorf("expected ErrNotRefundable while active, got %v", err)
	}

	if _, err := f.svc.Settle(f.ctx, m.MatchID, authority, alice, 0, 0, false); err != nil {
		t.Fatalf("settle: %v", err)
	}
	if _, err := f.svc.Refund(f.ctx, m.MatchID); !errors.Is(err, ErrNotRefundable) {
		t.Errorf("expected ErrNotRefundable once settled, got %v", err)
	}
}

// --- Cancellation ---

func TestCancel_Guards(t *testing.T) {
	f := newFixture(t)
	m := f.createMatch(t)

	if _, err := f.svc.Cancel(f.ctx, m.MatchID, alice); !errors.Is(err, ErrNotAuthority) {
		t.Errorf("expected ErrNotAuthority, got %v", err)
	}

	f.activate(t, m.MatchID)
	if _, err := f.svc.Cancel(f.ctx, m.MatchID, authority); !errors.Is(err, ErrMatchNotPending) {
		t.Errorf("expected ErrMatchNotPending once active, got %v", err)
	}
}

// --- Closure ---

func TestClose_FullLifecycle(t *testing.T) {
	f := newFixture(t)
	m := f.createMatch(t)
	f.activate(t, m.MatchID)
	if _, err := f.svc.Settle(f.ctx, m.MatchID, authority, alice, 0, 0, false); err != nil {
		t.Fatalf("settle: %v", err)
	}

	// Escrow still holds the pot.
	if err := f.svc.Close(f.ctx, m.MatchID, authority); !errors.Is(err, ErrEscrowNotEmpty) {
		t.Errorf("expected ErrEscrowNotEmpty, got %v", err)
	}

	if _, err := f.svc.Claim(f.ctx, m.MatchID, alice); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if err := f.svc.Close(f.ctx, m.MatchID, authority); err != nil {
		t.Fatalf("close: %v", err)
	}

	if _, err := f.svc.GetMatch(f.ctx, m.MatchID); !errors.Is(err, store.ErrMatchNotFound) {
		t.Errorf("expected match removed, got %v", err)
	}
	if _, err := f.ledger.Balance(f.ctx, m.EscrowAccount); !errors.Is(err, ledger.ErrAccountNotFound) {
		t.Errorf("expected escrow account reclaimed, got %v", err)
	}
}

func TestClose_Guards(t *testing.T) {
	f := newFixture(t)
	m := f.createMatch(t)

	if err := f.svc.Close(f.ctx, m.MatchID, authority); !errors.Is(err, ErrNotResolved) {
		t.Errorf("expected ErrNotResolved for pending match, got %v", err)
	}

	f.activate(t, m.MatchID)
	if err := f.svc.Close(f.ctx, m.MatchID, authority); !errors.Is(err, ErrNotResolved) {
		t.Errorf("expected ErrNotResolved for active match, got %v", err)
	}

	if _, err := f.svc.Settle(f.ctx, m.MatchID, authority, "", 0, 0, false); err != nil {
		t.Fatalf("settle: %v", err)
	}
	if _, err := f.svc.Refund(f.ctx, m.MatchID); err != nil {
		t.Fatalf("refund: %v", err)
	}
	if err := f.svc.Close(f.ctx, m.MatchID, alice); !errors.Is(err, ErrNotAuthority) {
		t.Errorf("expected ErrNotAuthority, got %v", err)
	}
	if err := f.svc.Close(f.ctx, m.MatchID, authority); err != nil {
		t.Fatalf("close after refund: %v", err)
	}
}

// stake2i returns the stake as a signed PnL magnitude.
func stake2i() int64 {
	return int64(stake)
}
