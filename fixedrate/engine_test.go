package fixedrate

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/big"
	"sync"
	"testing"

	"github.com/defistate/ocean-client-go/contracts"
	"github.com/defistate/ocean-client-go/ledger"
	"github.com/defistate/ocean-client-go/ledger/simulated"
	"github.com/defistate/ocean-client-go/units"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob   = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
	carol = common.HexToAddress("0x00000000000000000000000000000000000ca201")
)

type fixture struct {
	backend  *simulated.Backend
	engine   *Engine
	exchange common.Address
	base     common.Address
	quote    common.Address
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func wei(t *testing.T, s string) *big.Int {
	t.Helper()
	v, err := units.ToWei(dec(s), units.Ether)
	require.NoError(t, err)
	return v
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newFixture deploys a registry, a datatoken owned by alice with 1000 units
// approved to the registry, and a quote token funding bob with 10 units.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	b := simulated.NewBackend()
	f := &fixture{
		backend:  b,
		exchange: b.DeployFixedRateExchange(),
		base:     b.DeployToken(alice, "DataToken", "DT1", wei(t, "10000")),
		quote:    b.DeployToken(carol, "Ocean Token", "OCEAN", wei(t, "10000")),
	}
	require.NoError(t, b.Fund(f.base, alice, wei(t, "1000")))
	require.NoError(t, b.Fund(f.quote, bob, wei(t, "10")))
	f.approve(t, f.base, alice, "1000")

	tx, err := ledger.NewTransactor(b, discardLogger())
	require.NoError(t, err)
	f.engine, err = New(Config{Address: f.exchange, QuoteToken: f.quote, Transactor: tx, Logger: discardLogger()})
	require.NoError(t, err)
	return f
}

func (f *fixture) approve(t *testing.T, token, owner common.Address, amount string) {
	t.Helper()
	_, err := f.backend.Send(context.Background(), ledger.TxRequest{
		CallRequest: ledger.CallRequest{
			From: owner, To: token, ABI: contracts.DataToken(),
			Method: contracts.MethodApprove, Args: []any{f.exchange, wei(t, amount)},
		},
		Gas: ledger.DefaultGas,
	})
	require.NoError(t, err)
}

func (f *fixture) create(t *testing.T, rate string) ExchangeID {
	t.Helper()
	res, err := f.engine.Create(context.Background(), f.base, dec(rate), alice)
	require.NoError(t, err)
	return res.ExchangeID
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestCreateAndGetExchange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.engine.Create(ctx, f.base, dec("0.5"), alice)
	require.NoError(t, err)
	assert.Equal(t, f.engine.GenerateExchangeID(f.base, alice), res.ExchangeID, "ledger id matches local derivation")
	require.NotNil(t, res.Receipt)

	ex, err := f.engine.GetExchange(ctx, res.ExchangeID)
	require.NoError(t, err)
	assert.True(t, ex.FixedRate.Equal(dec("0.5")))
	assert.Equal(t, alice, ex.Owner)
	assert.Equal(t, f.base, ex.BaseToken)
	assert.Equal(t, f.quote, ex.QuoteToken)
	assert.True(t, ex.Active)
	assert.True(t, ex.Supply.Equal(dec("1000")))
	assert.Zero(t, ex.SwapCount)
}

func TestCreateRejections(t *testing.T) {
	testCases := []struct {
		name string
		rate string
		want error
	}{
		{name: "zero rate", rate: "0", want: ErrInvalidRate},
		{name: "negative rate", rate: "-1", want: ErrInvalidRate},
		{name: "rate finer than fixed point", rate: "0.0000000000000000001", want: ErrInvalidRate},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			before := f.backend.BlockNumber()

			_, err := f.engine.Create(context.Background(), f.base, dec(tc.rate), alice)
			assert.ErrorIs(t, err, tc.want)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Equal(t, before, f.backend.BlockNumber(), "nothing was submitted")
		})
	}
}

func TestCreateDuplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.create(t, "0.5")

	_, err := f.engine.Create(ctx, f.base, dec("3"), alice)
	assert.ErrorIs(t, err, ErrDuplicateExchange)
	assert.ErrorIs(t, err, ledger.ErrSubmissionFailed)

	ex, err := f.engine.GetExchange(ctx, id)
	require.NoError(t, err)
	assert.True(t, ex.FixedRate.Equal(dec("0.5")), "first exchange unchanged")

	n, err := f.engine.GetNumberOfExchanges(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n)
}

func TestConcurrentCreateHasOneWinner(t *testing.T) {
	f := newFixture(t)
	const racers = 8

	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		successes  int
		duplicates int
	)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.engine.Create(context.Background(), f.base, dec("1"), alice)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrDuplicateExchange):
				duplicates++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, racers-1, duplicates)
}

func TestCreateSurvivesEstimationFailure(t *testing.T) {
	f := newFixture(t)
	f.backend.FailEstimation(contracts.MethodCreate)

	res, err := f.engine.Create(context.Background(), f.base, dec("2"), alice)
	require.NoError(t, err)
	assert.Equal(t, ledger.DefaultGas, res.Receipt.GasLimit, "default budget used")
}

func TestGetExchangeUnknown(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.GetExchange(context.Background(), ExchangeID{1})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCalcInGivenOut(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i, rate := range []string{"0.5", "1", "2", "0.333333333333333333", "1234.5678"} {
		t.Run("rate "+rate, func(t *testing.T) {
			owner := common.BigToAddress(big.NewInt(int64(1000 + i)))
			res, err := f.engine.Create(ctx, f.base, dec(rate), owner)
			require.NoError(t, err)

			for _, out := range []string{"1", "0.1", "999"} {
				got, err := f.engine.CalcInGivenOut(ctx, res.ExchangeID, dec(out))
				require.NoError(t, err)
				want := dec(out).Mul(dec(rate)).RoundDown(18)
				assert.True(t, want.Equal(got), "out %s at rate %s: want %s got %s", out, rate, want, got)
			}
		})
	}

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		id := f.create(t, "0.5")
		_, err := f.engine.CalcInGivenOut(ctx, id, dec("0"))
		assert.ErrorIs(t, err, ErrInvalidAmount)
		_, err = f.engine.CalcInGivenOut(ctx, id, dec("-1"))
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("quote and swap agree on dust amounts", func(t *testing.T) {
		id := f.create(t, "0.5")
		f.approve(t, f.quote, bob, "10")
		dust := dec("0.000000000000000001")

		_, err := f.engine.CalcInGivenOut(ctx, id, dust)
		assert.ErrorIs(t, err, ErrInvalidAmount)
		_, err = f.engine.BuyDT(ctx, id, dust, bob)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("unknown exchange", func(t *testing.T) {
		_, err := f.engine.CalcInGivenOut(ctx, ExchangeID{9}, dec("1"))
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestCalcOutGivenIn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	testCases := []struct {
		name    string
		rate    string
		in      string
		want    string
		wantErr error
	}{
		{name: "half rate doubles the base", rate: "0.5", in: "1", want: "2"},
		{name: "rate above one", rate: "2", in: "5", want: "2.5"},
		{name: "floors to the wei", rate: "3", in: "1", want: "0.333333333333333333"},
		{name: "dust buys nothing", rate: "2", in: "0.000000000000000001", wantErr: ErrInvalidAmount},
		{name: "non-positive amount", rate: "1", in: "0", wantErr: ErrInvalidAmount},
	}
	for i, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			owner := common.BigToAddress(big.NewInt(int64(2000 + i)))
			res, err := f.engine.Create(ctx, f.base, dec(tc.rate), owner)
			require.NoError(t, err)

			got, err := f.engine.CalcOutGivenIn(ctx, res.ExchangeID, dec(tc.in))
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, dec(tc.want).Equal(got), "want %s got %s", tc.want, got)

			cost, err := f.engine.CalcInGivenOut(ctx, res.ExchangeID, got)
			require.NoError(t, err)
			assert.True(t, cost.LessThanOrEqual(dec(tc.in)), "buying the result never costs more than the input")
		})
	}

	t.Run("unknown exchange", func(t *testing.T) {
		_, err := f.engine.CalcOutGivenIn(ctx, ExchangeID{9}, dec("1"))
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestBuyDTAllowance(t *testing.T) {
	t.Run("buyer with exactly the quoted allowance succeeds", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		id := f.create(t, "0.5")

		need, err := f.engine.CalcInGivenOut(ctx, id, dec("1"))
		require.NoError(t, err)
		require.True(t, need.Equal(dec("0.5")))
		f.approve(t, f.quote, bob, "0.5")

		res, err := f.engine.BuyDT(ctx, id, dec("1"), bob)
		require.NoError(t, err)
		assert.True(t, res.BaseAmount.Equal(dec("1")))
		assert.True(t, res.QuoteAmount.Equal(dec("0.5")))

		ex, err := f.engine.GetExchange(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), ex.SwapCount)
		assert.True(t, ex.BaseSupplied.Equal(dec("1")))
		assert.True(t, ex.QuoteSupplied.Equal(dec("0.5")))
		assert.True(t, ex.Supply.Equal(dec("999")))
	})

	t.Run("buyer short of allowance fails", func(t *testing.T) {
		f := newFixture(t)
		id := f.create(t, "0.5")
		f.approve(t, f.quote, bob, "0.49")

		_, err := f.engine.BuyDT(context.Background(), id, dec("1"), bob)
		assert.ErrorIs(t, err, ErrInsufficientAllowance)
		assert.ErrorIs(t, err, ledger.ErrSubmissionFailed)

		var subErr *ledger.SubmissionError
		require.ErrorAs(t, err, &subErr)
		assert.Equal(t, "ERC20: transfer amount exceeds allowance", subErr.Reason)
	})

	t.Run("buyer short of balance fails", func(t *testing.T) {
		f := newFixture(t)
		id := f.create(t, "5")
		f.approve(t, f.quote, bob, "100")

		_, err := f.engine.BuyDT(context.Background(), id, dec("3"), bob)
		assert.ErrorIs(t, err, ErrInsufficientBalance)
	})

	t.Run("rejects non-positive amounts before submission", func(t *testing.T) {
		f := newFixture(t)
		id := f.create(t, "1")
		before := f.backend.BlockNumber()

		_, err := f.engine.BuyDT(context.Background(), id, dec("0"), bob)
		assert.ErrorIs(t, err, ErrInvalidAmount)
		assert.Equal(t, before, f.backend.BlockNumber())
	})
}

func TestActivation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.create(t, "1")
	f.approve(t, f.quote, bob, "10")

	receipt, err := f.engine.Deactivate(ctx, id, alice)
	require.NoError(t, err)
	require.NotNil(t, receipt)

	active, err := f.engine.IsActive(ctx, id)
	require.NoError(t, err)
	assert.False(t, active)

	supply, err := f.engine.GetSupply(ctx, id)
	require.NoError(t, err)
	assert.True(t, supply.IsZero(), "inactive exchanges supply nothing")

	_, err = f.engine.BuyDT(ctx, id, dec("1"), bob)
	assert.ErrorIs(t, err, ErrExchangeInactive)

	t.Run("deactivating twice is a no-op", func(t *testing.T) {
		before := f.backend.BlockNumber()
		receipt, err := f.engine.Deactivate(ctx, id, alice)
		require.NoError(t, err)
		assert.Nil(t, receipt)
		assert.Equal(t, before, f.backend.BlockNumber())
	})

	_, err = f.engine.Activate(ctx, id, alice)
	require.NoError(t, err)

	_, err = f.engine.BuyDT(ctx, id, dec("1"), bob)
	assert.NoError(t, err, "identical swap succeeds after reactivation")

	t.Run("activating twice is a no-op", func(t *testing.T) {
		receipt, err := f.engine.Activate(ctx, id, alice)
		require.NoError(t, err)
		assert.Nil(t, receipt)
	})
}

// readBarrier holds every getExchange read until parties reads have arrived,
// so concurrent callers all observe the same pre-submission state.
type readBarrier struct {
	ledger.Backend
	wg *sync.WaitGroup
}

func (b *readBarrier) Call(ctx context.Context, req ledger.CallRequest) ([]any, error) {
	out, err := b.Backend.Call(ctx, req)
	if req.Method == contracts.MethodGetExchange {
		b.wg.Done()
		b.wg.Wait()
	}
	return out, err
}

func TestConcurrentDeactivateLeavesExchangeInactive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.create(t, "1")
	f.approve(t, f.quote, bob, "10")

	const parties = 2
	barrier := &readBarrier{Backend: f.backend, wg: &sync.WaitGroup{}}
	barrier.wg.Add(parties)
	tx, err := ledger.NewTransactor(barrier, discardLogger())
	require.NoError(t, err)
	racing, err := New(Config{Address: f.exchange, QuoteToken: f.quote, Transactor: tx, Logger: discardLogger()})
	require.NoError(t, err)

	errs := make([]error, parties)
	var wg sync.WaitGroup
	for i := 0; i < parties; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = racing.Deactivate(ctx, id, alice)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	active, err := f.engine.IsActive(ctx, id)
	require.NoError(t, err)
	assert.False(t, active)

	_, err = f.engine.BuyDT(ctx, id, dec("1"), bob)
	assert.ErrorIs(t, err, ErrExchangeInactive)
}

func TestSetExchangeStateIsIdempotentOnLedger(t *testing.T) {
	f := newFixture(t)
	id := f.create(t, "1")

	// Submitted directly so the engine's own state check is bypassed.
	receipt, err := f.engine.submit(context.Background(), alice, contracts.MethodSetExchangeState, [32]byte(id), true)
	require.NoError(t, err)
	_, activated := receipt.Event(contracts.EventExchangeActivated)
	assert.False(t, activated, "no transition, no event")

	active, err := f.engine.IsActive(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, active)
}

func TestOwnerOnlyOperations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.create(t, "1")

	testCases := []struct {
		name string
		op   func() error
	}{
		{name: "set rate", op: func() error {
			_, err := f.engine.SetRate(ctx, id, dec("9"), bob)
			return err
		}},
		{name: "deactivate", op: func() error {
			_, err := f.engine.Deactivate(ctx, id, bob)
			return err
		}},
		{name: "activate", op: func() error {
			_, err := f.engine.Activate(ctx, id, bob)
			return err
		}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, tc.op(), ErrUnauthorized)

			ex, err := f.engine.GetExchange(ctx, id)
			require.NoError(t, err)
			assert.True(t, ex.FixedRate.Equal(dec("1")))
			assert.True(t, ex.Active)
		})
	}
}

func TestSetRate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.create(t, "0.5")

	_, err := f.engine.SetRate(ctx, id, dec("2"), alice)
	require.NoError(t, err)
	rate, err := f.engine.GetRate(ctx, id)
	require.NoError(t, err)
	assert.True(t, rate.Equal(dec("2")))

	_, err = f.engine.SetRate(ctx, id, dec("0"), alice)
	assert.ErrorIs(t, err, ErrInvalidRate)
}

func TestSearchForDT(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.create(t, "1")

	other := f.backend.DeployToken(bob, "Other", "DT2", wei(t, "10"))

	testCases := []struct {
		name      string
		token     common.Address
		minSupply string
		wantIDs   []ExchangeID
	}{
		{name: "zero threshold", token: f.base, minSupply: "0", wantIDs: []ExchangeID{id}},
		{name: "threshold equal to supply", token: f.base, minSupply: "1000", wantIDs: []ExchangeID{id}},
		{name: "threshold above supply", token: f.base, minSupply: "1000.000000000000000001", wantIDs: []ExchangeID{}},
		{name: "token without exchanges", token: other, minSupply: "0", wantIDs: []ExchangeID{}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := f.engine.SearchForDT(ctx, tc.token, dec(tc.minSupply))
			require.NoError(t, err)
			require.NotNil(t, got)
			ids := make([]ExchangeID, 0, len(got))
			for _, s := range got {
				assert.Equal(t, tc.token, s.BaseToken)
				assert.True(t, s.Supply.GreaterThanOrEqual(dec(tc.minSupply)))
				ids = append(ids, s.ID)
			}
			assert.Equal(t, tc.wantIDs, ids)
		})
	}

	t.Run("inactive exchanges are excluded", func(t *testing.T) {
		_, err := f.engine.Deactivate(ctx, id, alice)
		require.NoError(t, err)
		got, err := f.engine.SearchForDT(ctx, f.base, dec("0"))
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestHistoricalQueries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.create(t, "0.5")
	f.approve(t, f.quote, bob, "10")

	_, err := f.engine.BuyDT(ctx, id, dec("1"), bob)
	require.NoError(t, err)
	_, err = f.engine.BuyDT(ctx, id, dec("2"), bob)
	require.NoError(t, err)

	created, err := f.engine.GetExchangesByCreator(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, []ExchangeID{id}, created)

	none, err := f.engine.GetExchangesByCreator(ctx, carol)
	require.NoError(t, err)
	assert.Empty(t, none)

	swaps, err := f.engine.GetAllExchangesSwaps(ctx, bob)
	require.NoError(t, err)
	require.Len(t, swaps, 2)
	assert.Equal(t, id, swaps[0].ExchangeID)
	assert.Equal(t, bob, swaps[0].Buyer)
	assert.True(t, swaps[1].BaseAmount.Equal(dec("2")))
	assert.True(t, swaps[1].QuoteAmount.Equal(dec("1")))
	assert.Less(t, swaps[0].BlockNumber, swaps[1].BlockNumber)

	mine, err := f.engine.GetExchangeSwaps(ctx, id, bob)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	theirs, err := f.engine.GetAllExchangesSwaps(ctx, carol)
	require.NoError(t, err)
	assert.Empty(t, theirs)
}

func TestExists(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, ok, err := f.engine.Exists(ctx, f.base, alice)
	require.NoError(t, err)
	assert.False(t, ok)

	id := f.create(t, "1")
	got, ok, err := f.engine.Exists(ctx, f.base, alice)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, id, got)
}

func TestParseExchangeID(t *testing.T) {
	id := ExchangeID{0xab, 0xcd}
	parsed, err := ParseExchangeID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = ParseExchangeID("0x1234")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = ParseExchangeID("not hex")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
