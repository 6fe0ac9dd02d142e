package ledger

import (
	"context"
	"errors"
	"testing"
)

func TestTransfer_MovesFunds(t *testing.T) {
	l := NewMemoryLedger()
	ctx := context.Background()
	l.Mint("alice", 1000)

	if err := l.Transfer(ctx, "alice", "bob", 400); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if bal, _ := l.Balance(ctx, "alice"); bal != 600 {
		t.Errorf("expected alice=600, got %d", bal)
	}
	if bal, _ := l.Balance(ctx, "bob"); bal != 400 {
		t.Errorf("expected bob=400, got %d", bal)
	}
}

func TestTransfer_InsufficientBalance(t *testing.T) {
	l := NewMemoryLedger()
	ctx := context.Background()
	l.Mint("alice", 100)

	err := l.Transfer(ctx, "alice", "bob", 101)
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	// No partial effect.
	if bal, _ := l.Balance(ctx, "alice"); bal != 100 {
		t.Errorf("balance mutated on failed transfer: %d", bal)
	}
}

func TestTransfer_SameAccount(t *testing.T) {
	l := NewMemoryLedger()
	l.Mint("alice", 100)
	if err := l.Transfer(context.Background(), "alice", "alice", 50); !errors.Is(err, ErrSameAccount) {
		t.Errorf("expected ErrSameAccount, got %v", err)
	}
}

func TestTransfer_ZeroAmount(t *testing.T) {
	l := NewMemoryLedger()
	if err := l.Transfer(context.Background(), "alice", "bob", 0); !errors.Is(err, ErrZeroAmount) {
		t.Errorf("expected ErrZeroAmount, got %v", err)
	}
}

func TestTransfer_UnknownSource(t *testing.T) {
	l := NewMemoryLedger()
	if err := l.Transfer(context.Background(), "ghost", "bob", 10); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestCreateAccount_Duplicate(t *testing.T) {
	l := NewMemoryLedger()
	ctx := context.Background()

	if err := l.CreateAccount(ctx, "escrow-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := l.CreateAccount(ctx, "escrow-1"); !errors.Is(err, ErrAccountExists) {
		t.Errorf("expected ErrAccountExists, got %v", err)
	}
}

func TestCloseAccount(t *testing.T) {
	l := NewMemoryLedger()
	ctx := context.Background()

	l.CreateAccount(ctx, "escrow-1")
	l.Mint("escrow-1", 5)

	if err := l.CloseAccount(ctx, "escrow-1"); !errors.Is(err, ErrAccountNotEmpty) {
		t.Errorf("expected ErrAccountNotEmpty, got %v", err)
	}

	l.Transfer(ctx, "escrow-1", "treasury", 5)
	if err := l.CloseAccount(ctx, "escrow-1"); err != nil {
		t.Errorf("unexpected error closing empty account: %v", err)
	}
	if _, err := l.Balance(ctx, "escrow-1"); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("expected account gone after close, got %v", err)
	}
}
