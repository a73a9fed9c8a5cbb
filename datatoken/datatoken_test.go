package datatoken

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/defistate/ocean-client-go/ledger"
	"github.com/defistate/ocean-client-go/ledger/simulated"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	publisher = common.HexToAddress("0x0000000000000000000000000000000000000a11")
	consumer  = common.HexToAddress("0x0000000000000000000000000000000000000c01")
	market    = common.HexToAddress("0x000000000000000000000000000000000000ba5e")
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newClient(t *testing.T) (*Client, *simulated.Backend) {
	t.Helper()
	b := simulated.NewBackend()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tx, err := ledger.NewTransactor(b, logger)
	require.NoError(t, err)
	c, err := New(Config{Factory: b.DeployDTFactory(), Transactor: tx, Logger: logger})
	require.NoError(t, err)
	return c, b
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestCreateAndDescribe(t *testing.T) {
	c, _ := newClient(t)
	ctx := context.Background()

	res, err := c.Create(ctx, "https://example.com/ddo.json", publisher, dec("1000"), "DataToken 1", "DT1")
	require.NoError(t, err)
	require.NotNil(t, res.Receipt)

	token, err := c.Token(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, "DataToken 1", token.Name)
	assert.Equal(t, "DT1", token.Symbol)
	assert.Equal(t, uint8(18), token.Decimals)
	assert.True(t, token.Cap.Equal(dec("1000")))
	assert.True(t, token.TotalSupply.IsZero())
	assert.Equal(t, publisher, token.Minter)
	assert.Equal(t, "https://example.com/ddo.json", token.Blob)

	count, err := c.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestCreateRejections(t *testing.T) {
	c, b := newClient(t)

	testCases := []struct {
		name    string
		cap     string
		symbol  string
		wantErr error
	}{
		{name: "zero cap", cap: "0", symbol: "DT", wantErr: ErrInvalidAmount},
		{name: "negative cap", cap: "-5", symbol: "DT", wantErr: ErrInvalidAmount},
		{name: "missing symbol", cap: "10", symbol: "", wantErr: ErrInvalidInput},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			before := b.BlockNumber()
			_, err := c.Create(context.Background(), "", publisher, dec(tc.cap), "Token", tc.symbol)
			assert.ErrorIs(t, err, tc.wantErr)
			assert.Equal(t, before, b.BlockNumber())
		})
	}
}

func TestMintTransferAndApprove(t *testing.T) {
	c, _ := newClient(t)
	ctx := context.Background()
	res, err := c.Create(ctx, "", publisher, dec("100"), "DataToken", "DT")
	require.NoError(t, err)
	dt := res.Token

	t.Run("minter mints within the cap", func(t *testing.T) {
		_, err := c.Mint(ctx, dt, publisher, publisher, dec("60"))
		require.NoError(t, err)
		balance, err := c.Balance(ctx, dt, publisher)
		require.NoError(t, err)
		assert.True(t, balance.Equal(dec("60")))
	})

	t.Run("non-minter cannot mint", func(t *testing.T) {
		_, err := c.Mint(ctx, dt, consumer, consumer, dec("1"))
		assert.ErrorIs(t, err, ErrUnauthorized)
		assert.ErrorIs(t, err, ledger.ErrSubmissionFailed)
	})

	t.Run("minting past the cap fails", func(t *testing.T) {
		_, err := c.Mint(ctx, dt, publisher, publisher, dec("41"))
		assert.ErrorIs(t, err, ErrCapExceeded)
	})

	t.Run("transfer moves balance", func(t *testing.T) {
		_, err := c.Transfer(ctx, dt, publisher, consumer, dec("2.5"))
		require.NoError(t, err)
		balance, err := c.Balance(ctx, dt, consumer)
		require.NoError(t, err)
		assert.True(t, balance.Equal(dec("2.5")))
	})

	t.Run("transfer beyond balance fails", func(t *testing.T) {
		_, err := c.Transfer(ctx, dt, consumer, publisher, dec("3"))
		assert.ErrorIs(t, err, ErrInsufficientBalance)
	})

	t.Run("approve sets and resets the allowance", func(t *testing.T) {
		_, err := c.Approve(ctx, dt, publisher, market, dec("10"))
		require.NoError(t, err)
		allowance, err := c.Allowance(ctx, dt, publisher, market)
		require.NoError(t, err)
		assert.True(t, allowance.Equal(dec("10")))

		_, err = c.Approve(ctx, dt, publisher, market, decimal.Zero)
		require.NoError(t, err)
		allowance, err = c.Allowance(ctx, dt, publisher, market)
		require.NoError(t, err)
		assert.True(t, allowance.IsZero())
	})

	t.Run("amounts must be positive", func(t *testing.T) {
		_, err := c.Transfer(ctx, dt, publisher, consumer, decimal.Zero)
		assert.ErrorIs(t, err, ErrInvalidAmount)
		_, err = c.Approve(ctx, dt, publisher, market, dec("-1"))
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})
}

func TestRegistrations(t *testing.T) {
	c, _ := newClient(t)
	ctx := context.Background()

	first, err := c.Create(ctx, "blob-1", publisher, dec("10"), "One", "DT1")
	require.NoError(t, err)
	second, err := c.Create(ctx, "blob-2", consumer, dec("20"), "Two", "DT2")
	require.NoError(t, err)

	all, err := c.Registrations(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, first.Token, all[0].Token)
	assert.Equal(t, second.Token, all[1].Token)
	assert.Equal(t, "blob-2", all[1].Blob)
	assert.True(t, all[1].Cap.Equal(dec("20")))

	mine, err := c.Registrations(ctx, consumer)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, second.Token, mine[0].Token)
	assert.Equal(t, consumer, mine[0].RegisteredBy)
}

func TestRegistry(t *testing.T) {
	c, _ := newClient(t)
	ctx := context.Background()

	first, err := c.Create(ctx, "blob-1", publisher, dec("10"), "One", "DT1")
	require.NoError(t, err)
	second, err := c.Create(ctx, "blob-2", consumer, dec("20"), "Two", "DT2")
	require.NoError(t, err)

	registry, err := c.Registry(ctx)
	require.NoError(t, err)

	tok, ok := registry.GetByID(2)
	require.True(t, ok)
	assert.Equal(t, second.Token, tok.Address)

	tok, ok = registry.GetByAddress(first.Token)
	require.True(t, ok)
	assert.Equal(t, uint64(1), tok.ID)
	assert.Equal(t, "blob-1", tok.Blob)

	assert.Len(t, registry.BySymbol("dt2"), 1)
	assert.Len(t, registry.ByRegistrant(publisher), 1)
	assert.Len(t, registry.All(), 2)
}

func TestTokenNotFound(t *testing.T) {
	c, _ := newClient(t)
	_, err := c.Token(context.Background(), common.HexToAddress("0x00000000000000000000000000000000deadbeef"))
	assert.ErrorIs(t, err, ErrNotFound)
}
