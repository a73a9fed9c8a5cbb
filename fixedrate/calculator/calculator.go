// Package calculator prices fixed-rate swaps in 18-decimal fixed point with
// the ledger's uint256 semantics. Results round down, as on the ledger.
package calculator

import (
	"errors"
	"math/big"
	"sync"

	"github.com/holiman/uint256"
)

var (
	// One is 1.0 in 18-decimal fixed point.
	One = uint256.NewInt(1_000_000_000_000_000_000)

	// ErrInvalidAmount is returned when an amount is nil, negative or zero.
	ErrInvalidAmount = errors.New("amount must be positive")
	// ErrInvalidRate is returned when a rate is nil, negative or zero.
	ErrInvalidRate = errors.New("rate must be positive")
	// ErrOverflow is returned when an operand or result does not fit in 256 bits.
	ErrOverflow = errors.New("uint256 overflow")
)

// Calculator holds reusable operands. Instances are not safe for concurrent
// use by themselves and are managed by calculatorPool.
type Calculator struct {
	amount uint256.Int
	rate   uint256.Int
	result uint256.Int
}

var calculatorPool = sync.Pool{
	New: func() any {
		return new(Calculator)
	},
}

func (c *Calculator) load(amount, rate *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if rate == nil || rate.Sign() <= 0 {
		return ErrInvalidRate
	}
	if c.amount.SetFromBig(amount) {
		return ErrOverflow
	}
	if c.rate.SetFromBig(rate) {
		return ErrOverflow
	}
	return nil
}

// InGivenOut returns the quote amount needed to receive baseOut at rate
// (quote per base): baseOut * rate / 1e18.
func InGivenOut(baseOut, rate *big.Int) (*big.Int, error) {
	calc := calculatorPool.Get().(*Calculator)
	defer calculatorPool.Put(calc)

	if err := calc.load(baseOut, rate); err != nil {
		return nil, err
	}
	if _, overflow := calc.result.MulDivOverflow(&calc.amount, &calc.rate, One); overflow {
		return nil, ErrOverflow
	}
	return calc.result.ToBig(), nil
}

// OutGivenIn returns the base amount bought with quoteIn at rate:
// quoteIn * 1e18 / rate.
func OutGivenIn(quoteIn, rate *big.Int) (*big.Int, error) {
	calc := calculatorPool.Get().(*Calculator)
	defer calculatorPool.Put(calc)

	if err := calc.load(quoteIn, rate); err != nil {
		return nil, err
	}
	if _, overflow := calc.result.MulDivOverflow(&calc.amount, One, &calc.rate); overflow {
		return nil, ErrOverflow
	}
	return calc.result.ToBig(), nil
}
