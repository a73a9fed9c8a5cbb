// Package units converts between human-readable decimal amounts and the
// integer base units stored on the ledger.
package units

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// Ether is the decimals of every marketplace token and of fixed-point rates.
const Ether uint8 = 18

var (
	// ErrNegative is returned when a negative amount is converted to base units.
	ErrNegative = errors.New("amount is negative")
	// ErrPrecision is returned when an amount is finer than one base unit.
	ErrPrecision = errors.New("amount exceeds token precision")
)

// ToWei converts amount to base units of a token with the given decimals.
func ToWei(amount decimal.Decimal, decimals uint8) (*big.Int, error) {
	if amount.IsNegative() {
		return nil, fmt.Errorf("%w: %s", ErrNegative, amount)
	}
	shifted := amount.Shift(int32(decimals))
	if !shifted.Equal(shifted.Truncate(0)) {
		return nil, fmt.Errorf("%w: %s with %d decimals", ErrPrecision, amount, decimals)
	}
	return shifted.BigInt(), nil
}

// FromWei converts base units back into a decimal amount.
func FromWei(wei *big.Int, decimals uint8) decimal.Decimal {
	if wei == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(wei, -int32(decimals))
}
