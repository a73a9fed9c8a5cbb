// Package weightedpool models the weighted multi-token pools provisioned by
// the pool factory, and the bounds the factory enforces on them.
package weightedpool

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Kind distinguishes the two deployment paths of the factory.
type Kind uint8

const (
	// Weighted pools are deployed by deployPool.
	Weighted Kind = iota
	// Fork pools are legacy single-controller pools deployed by deployPoolWithFork.
	Fork
)

func (k Kind) String() string {
	switch k {
	case Weighted:
		return "weighted"
	case Fork:
		return "fork"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

const (
	MinTokens = 2
	MaxTokens = 8
)

var (
	// TotalWeight is 1.0 in 18-decimal fixed point; weights must sum to it.
	TotalWeight = big.NewInt(1_000_000_000_000_000_000)
	// MinSwapFee is 0.0001%.
	MinSwapFee = big.NewInt(1_000_000_000_000)
	// MaxSwapFee is 10%.
	MaxSwapFee = big.NewInt(100_000_000_000_000_000)
	// MaxMarketFee is 10%.
	MaxMarketFee = big.NewInt(100_000_000_000_000_000)
	// DefaultCommunityFee is 0.1%, waived when any constituent is fee-exempt.
	DefaultCommunityFee = big.NewInt(1_000_000_000_000_000)
)

var (
	ErrLengthMismatch  = errors.New("tokens and weights differ in length")
	ErrTokenCount      = fmt.Errorf("pool needs between %d and %d tokens", MinTokens, MaxTokens)
	ErrZeroToken       = errors.New("zero token address")
	ErrDuplicateToken  = errors.New("duplicate token")
	ErrInvalidWeight   = errors.New("weights must be positive")
	ErrWeightSum       = errors.New("weights must sum to 1.0")
	ErrSwapFeeBounds   = errors.New("swap fee out of bounds")
	ErrMarketFeeBounds = errors.New("market fee out of bounds")
)

// Pool is a deployed pool as recorded by the factory's deployment event.
type Pool struct {
	Address      common.Address   `json:"address"`
	Kind         Kind             `json:"kind"`
	Owner        common.Address   `json:"owner"`
	Controller   common.Address   `json:"controller,omitempty"`
	Name         string           `json:"name,omitempty"`
	Symbol       string           `json:"symbol,omitempty"`
	Tokens       []common.Address `json:"tokens,omitempty"`
	Weights      []*big.Int       `json:"weights,omitempty"`
	SwapFee      *big.Int         `json:"swapFee,omitempty"`
	MarketFee    *big.Int         `json:"marketFee,omitempty"`
	CommunityFee *big.Int         `json:"communityFee,omitempty"`
	BlockNumber  uint64           `json:"blockNumber"`
}

// Validate checks the constituent and fee bounds of a weighted pool.
func Validate(tokens []common.Address, weights []*big.Int, swapFee, marketFee *big.Int) error {
	if len(tokens) != len(weights) {
		return fmt.Errorf("%w: %d tokens, %d weights", ErrLengthMismatch, len(tokens), len(weights))
	}
	if len(tokens) < MinTokens || len(tokens) > MaxTokens {
		return fmt.Errorf("%w: got %d", ErrTokenCount, len(tokens))
	}

	seen := make(map[common.Address]struct{}, len(tokens))
	sum := new(big.Int)
	for i, token := range tokens {
		if token == (common.Address{}) {
			return fmt.Errorf("%w at position %d", ErrZeroToken, i)
		}
		if _, dup := seen[token]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateToken, token)
		}
		seen[token] = struct{}{}

		if weights[i] == nil || weights[i].Sign() <= 0 {
			return fmt.Errorf("%w: position %d", ErrInvalidWeight, i)
		}
		sum.Add(sum, weights[i])
	}
	if sum.Cmp(TotalWeight) != 0 {
		return fmt.Errorf("%w: got %s", ErrWeightSum, sum)
	}

	if swapFee == nil || swapFee.Cmp(MinSwapFee) < 0 || swapFee.Cmp(MaxSwapFee) > 0 {
		return fmt.Errorf("%w: %v", ErrSwapFeeBounds, swapFee)
	}
	if marketFee == nil || marketFee.Sign() < 0 || marketFee.Cmp(MaxMarketFee) > 0 {
		return fmt.Errorf("%w: %v", ErrMarketFeeBounds, marketFee)
	}
	return nil
}
