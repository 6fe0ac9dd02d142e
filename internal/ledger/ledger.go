// Package ledger abstracts the asset-transfer primitive that custodies
// stakes. A Ledger moves a fixed amount of a fungible asset between two
// named holding accounts and either succeeds fully or fails with no
// partial effect. The production implementation lives outside this
// service (an on-chain token program or a banking core); the engine only
// depends on the interface.
package ledger

import (
	"context"
	"errors"
)

var (
	// ErrInsufficientBalance is returned when the source account cannot
	// cover the transfer amount.
	ErrInsufficientBalance = errors.New("ledger: insufficient balance")

	// ErrAccountNotFound is returned for operations on unknown accounts.
	ErrAccountNotFound = errors.New("ledger: account not found")

	// ErrAccountExists is returned when creating an account that already exists.
	ErrAccountExists = errors.New("ledger: account already exists")

	// ErrSameAccount is returned for transfers where source and
	// destination are the same account.
	ErrSameAccount = errors.New("ledger: cannot transfer to the same account")

	// ErrZeroAmount is returned for zero-amount transfers; callers must
	// skip transfers that would move nothing.
	ErrZeroAmount = errors.New("ledger: transfer amount must be greater than zero")

	// ErrAccountNotEmpty is returned when closing an account that still
	// holds a balance.
	ErrAccountNotEmpty = errors.New("ledger: account balance must be zero before closing")
)

// Ledger is the atomic asset-transfer interface. Every method either
// applies fully or returns an error with no observable side effect.
type Ledger interface {
	// CreateAccount registers a new holding account with a zero balance.
	CreateAccount(ctx context.Context, account string) error

	// Transfer moves amount from one account to another.
	Transfer(ctx context.Context, from, to string, amount uint64) error

	// Balance returns the current balance of an account.
	Balance(ctx context.Context, account string) (uint64, error)

	// CloseAccount removes an empty account.
	CloseAccount(ctx context.Context, account string) error
}
