package ledger

import (
	"context"
	"fmt"
	"sync"
)

// MemoryLedger implements Ledger with an in-memory balance map. Used for
// development and tests. Not suitable for production (no persistence,
// no external settlement).
type MemoryLedger struct {
	mu       sync.RWMutex
	balances map[string]uint64
}

// NewMemoryLedger creates an empty in-memory ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		balances: make(map[string]uint64),
	}
}

// Mint credits an account out of thin air. Test/dev helper only; the
// production ledger has no equivalent.
func (l *MemoryLedger) Mint(account string, amount uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[account] += amount
}

func (l *MemoryLedger) CreateAccount(_ context.Context, account string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.balances[account]; ok {
		return fmt.Errorf("%w: %s", ErrAccountExists, account)
	}
	l.balances[account] = 0
	return nil
}

func (l *MemoryLedger) Transfer(_ context.Context, from, to string, amount uint64) error {
	if amount == 0 {
		return ErrZeroAmount
	}
	if from == to {
		return ErrSameAccount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	fromBal, ok := l.balances[from]
	if !ok {
		return fmt.Errorf("%w: %s", ErrAccountNotFound, from)
	}
	if fromBal < amount {
		return fmt.Errorf("%w: %s has %d, need %d", ErrInsufficientBalance, from, fromBal, amount)
	}

	// Both sides mutate under one lock, so the transfer is atomic.
	l.balances[from] = fromBal - amount
	l.balances[to] += amount
	return nil
}

func (l *MemoryLedger) Balance(_ context.Context, account string) (uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	bal, ok := l.balances[account]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrAccountNotFound, account)
	}
	return bal, nil
}

func (l *MemoryLedger) CloseAccount(_ context.Context, account string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	bal, ok := l.balances[account]
	if !ok {
		return fmt.Errorf("%w: %s", ErrAccountNotFound, account)
	}
	if bal != 0 {
		return fmt.Errorf("%w: %s holds %d", ErrAccountNotEmpty, account, bal)
	}
	delete(l.balances, account)
	return nil
}
