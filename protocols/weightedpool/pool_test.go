package weightedpool

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
)

func wei(s string) *big.Int {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("bad integer " + s)
	}
	return n
}

func TestValidate(t *testing.T) {
	tokenA := common.HexToAddress("0xa")
	tokenB := common.HexToAddress("0xb")
	tokenC := common.HexToAddress("0xc")
	half := wei("500000000000000000")
	fee := wei("1000000000000000") // 0.1%

	testCases := []struct {
		name      string
		tokens    []common.Address
		weights   []*big.Int
		swapFee   *big.Int
		marketFee *big.Int
		wantErr   error
	}{
		{
			name:      "balanced two token pool",
			tokens:    []common.Address{tokenA, tokenB},
			weights:   []*big.Int{half, half},
			swapFee:   fee,
			marketFee: big.NewInt(0),
		},
		{
			name:      "two tokens three weights",
			tokens:    []common.Address{tokenA, tokenB},
			weights:   []*big.Int{half, half, half},
			swapFee:   fee,
			marketFee: big.NewInt(0),
			wantErr:   ErrLengthMismatch,
		},
		{
			name:      "single token",
			tokens:    []common.Address{tokenA},
			weights:   []*big.Int{TotalWeight},
			swapFee:   fee,
			marketFee: big.NewInt(0),
			wantErr:   ErrTokenCount,
		},
		{
			name:      "duplicate token",
			tokens:    []common.Address{tokenA, tokenA},
			weights:   []*big.Int{half, half},
			swapFee:   fee,
			marketFee: big.NewInt(0),
			wantErr:   ErrDuplicateToken,
		},
		{
			name:      "zero token",
			tokens:    []common.Address{tokenA, {}},
			weights:   []*big.Int{half, half},
			swapFee:   fee,
			marketFee: big.NewInt(0),
			wantErr:   ErrZeroToken,
		},
		{
			name:      "zero weight",
			tokens:    []common.Address{tokenA, tokenB, tokenC},
			weights:   []*big.Int{half, half, big.NewInt(0)},
			swapFee:   fee,
			marketFee: big.NewInt(0),
			wantErr:   ErrInvalidWeight,
		},
		{
			name:      "weights not normalized",
			tokens:    []common.Address{tokenA, tokenB},
			weights:   []*big.Int{half, wei("400000000000000000")},
			swapFee:   fee,
			marketFee: big.NewInt(0),
			wantErr:   ErrWeightSum,
		},
		{
			name:      "swap fee above ten percent",
			tokens:    []common.Address{tokenA, tokenB},
			weights:   []*big.Int{half, half},
			swapFee:   wei("200000000000000000"),
			marketFee: big.NewInt(0),
			wantErr:   ErrSwapFeeBounds,
		},
		{
			name:      "swap fee below minimum",
			tokens:    []common.Address{tokenA, tokenB},
			weights:   []*big.Int{half, half},
			swapFee:   big.NewInt(1),
			marketFee: big.NewInt(0),
			wantErr:   ErrSwapFeeBounds,
		},
		{
			name:      "negative market fee",
			tokens:    []common.Address{tokenA, tokenB},
			weights:   []*big.Int{half, half},
			swapFee:   fee,
			marketFee: big.NewInt(-1),
			wantErr:   ErrMarketFeeBounds,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.tokens, tc.weights, tc.swapFee, tc.marketFee)
			if tc.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "weighted", Weighted.String())
	assert.Equal(t, "fork", Fork.String())
	assert.Equal(t, "kind(9)", Kind(9).String())
}
