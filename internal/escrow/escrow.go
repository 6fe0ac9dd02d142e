// Package escrow computes the pot, fee, and payout amounts for match
// settlement, and the refund amounts for tied or cancelled matches.
//
// All functions are pure and side-effect free. Amounts are uint64 base
// units; every multiplication and addition is overflow-checked and fails
// with ErrMathOverflow rather than wrapping. The identity
//
//	payout + fee == stake × 2
//
// holds for every successful split.
package escrow

import (
	"errors"
	"math/bits"
)

// bpsDenominator converts basis points to a fraction (100 bps = 1%).
const bpsDenominator = 10_000

var (
	// ErrMathOverflow is returned when any intermediate computation
	// exceeds uint64 range.
	ErrMathOverflow = errors.New("escrow: arithmetic overflow")

	// ErrZeroStake is returned for a zero stake amount.
	ErrZeroStake = errors.New("escrow: stake amount must be greater than zero")
)

// Split is the result of dividing a match pot between winner and treasury.
type Split struct {
	TotalPot uint64 `json:"total_pot"`
	Fee      uint64 `json:"fee"`
	Payout   uint64 `json:"payout"`
}

// CheckedMul multiplies two uint64 values, failing on overflow.
func CheckedMul(a, b uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, ErrMathOverflow
	}
	return lo, nil
}

// CheckedAdd adds two uint64 values, failing on overflow.
func CheckedAdd(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, ErrMathOverflow
	}
	return sum, nil
}

// CheckedAddInt64 adds two signed 64-bit values, failing on overflow in
// either direction. Used for cumulative PnL accounting.
func CheckedAddInt64(a, b int64) (int64, error) {
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return 0, ErrMathOverflow
	}
	return sum, nil
}

// SplitPot computes the settlement amounts for a match with the given
// per-player stake and platform fee.
//
//	total_pot = stake × 2
//	fee       = floor(total_pot × fee_bps / 10000)
//	payout    = total_pot − fee
//
// Integer division truncates, so very small pots may yield a zero fee;
// callers skip the treasury transfer in that case.
func SplitPot(stakeAmount uint64, feeBps uint16) (Split, error) {
	if stakeAmount == 0 {
		return Split{}, ErrZeroStake
	}

	totalPot, err := CheckedMul(stakeAmount, 2)
	if err != nil {
		return Split{}, err
	}

	scaled, err := CheckedMul(totalPot, uint64(feeBps))
	if err != nil {
		return Split{}, err
	}
	fee := scaled / bpsDenominator

	// fee <= totalPot because feeBps <= 10000, so this cannot underflow.
	return Split{
		TotalPot: totalPot,
		Fee:      fee,
		Payout:   totalPot - fee,
	}, nil
}

// RefundAmount returns the amount owed back to a single deposited player.
// Refunds carry no fee: each deposited party receives exactly their stake.
func RefundAmount(stakeAmount uint64) uint64 {
	return stakeAmount
}
