// Package fixedrate is the client of the fixed-rate exchange registry: it
// creates exchanges, quotes and executes swaps, and administers rates and
// activation on behalf of exchange owners.
//
// Rates are quote-per-base: buying n base tokens costs n*rate quote tokens.
// All amounts are 18-decimal tokens expressed as decimal.Decimal.
package fixedrate

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/defistate/ocean-client-go/contracts"
	"github.com/defistate/ocean-client-go/fixedrate/calculator"
	"github.com/defistate/ocean-client-go/ledger"
	"github.com/defistate/ocean-client-go/units"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Config binds an Engine to a registry deployment.
type Config struct {
	// Address of the exchange registry.
	Address common.Address
	// QuoteToken is paid by buyers of every exchange created through this Engine.
	QuoteToken common.Address
	Transactor *ledger.Transactor
	Logger     Logger
}

func (c *Config) validate() error {
	if c.Address == (common.Address{}) {
		return errors.New("config: Address is required")
	}
	if c.QuoteToken == (common.Address{}) {
		return errors.New("config: QuoteToken is required")
	}
	if c.Transactor == nil {
		return errors.New("config: Transactor is required")
	}
	if c.Logger == nil {
		return errors.New("config: Logger is required")
	}
	return nil
}

// Engine holds only immutable configuration and is safe for concurrent use.
type Engine struct {
	address    common.Address
	quoteToken common.Address
	abi        *abi.ABI
	tx         *ledger.Transactor
	backend    ledger.Backend
	logger     Logger
}

// New creates an Engine from cfg.
func New(cfg Config) (*Engine, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Engine{
		address:    cfg.Address,
		quoteToken: cfg.QuoteToken,
		abi:        contracts.FixedRateExchange(),
		tx:         cfg.Transactor,
		backend:    cfg.Transactor.Backend(),
		logger:     cfg.Logger,
	}, nil
}

// Address returns the registry address.
func (e *Engine) Address() common.Address { return e.address }

// QuoteToken returns the token buyers pay with.
func (e *Engine) QuoteToken() common.Address { return e.quoteToken }

func (e *Engine) request(from common.Address, method string, args ...any) ledger.CallRequest {
	return ledger.CallRequest{From: from, To: e.address, ABI: e.abi, Method: method, Args: args}
}

func (e *Engine) call(ctx context.Context, method string, args ...any) ([]any, error) {
	out, err := e.backend.Call(ctx, e.request(common.Address{}, method, args...))
	if err != nil {
		return nil, callError(method, err)
	}
	return out, nil
}

func (e *Engine) submit(ctx context.Context, from common.Address, method string, args ...any) (*ledger.Receipt, error) {
	return e.tx.Submit(ctx, e.request(from, method, args...), classify)
}

// Create registers an exchange selling baseToken for the configured quote
// token at rate. The id is read from the ExchangeCreated event.
func (e *Engine) Create(ctx context.Context, baseToken common.Address, rate decimal.Decimal, creator common.Address) (*CreateResult, error) {
	if baseToken == (common.Address{}) {
		return nil, fmt.Errorf("%w: zero base token", ErrInvalidInput)
	}
	rateWei, err := toRate(rate)
	if err != nil {
		return nil, err
	}

	receipt, err := e.submit(ctx, creator, contracts.MethodCreate, baseToken, e.quoteToken, rateWei)
	if err != nil {
		return nil, err
	}
	v, err := receipt.Value(contracts.EventExchangeCreated, 0)
	if err != nil {
		return nil, err
	}
	id := ExchangeID(v.([32]byte))

	e.logger.Info("Exchange created", "exchange_id", id, "base_token", baseToken, "rate", rate, "owner", creator)
	return &CreateResult{ExchangeID: id, Receipt: receipt}, nil
}

// GetExchange reads the state of exchange id.
func (e *Engine) GetExchange(ctx context.Context, id ExchangeID) (*Exchange, error) {
	out, err := e.call(ctx, contracts.MethodGetExchange, [32]byte(id))
	if err != nil {
		return nil, err
	}
	owner := out[0].(common.Address)
	if owner == (common.Address{}) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return &Exchange{
		ID:            id,
		Owner:         owner,
		BaseToken:     out[1].(common.Address),
		QuoteToken:    out[2].(common.Address),
		FixedRate:     units.FromWei(out[3].(*big.Int), units.Ether),
		Active:        out[4].(bool),
		Supply:        units.FromWei(out[5].(*big.Int), units.Ether),
		SwapCount:     out[6].(*big.Int).Uint64(),
		BaseSupplied:  units.FromWei(out[7].(*big.Int), units.Ether),
		QuoteSupplied: units.FromWei(out[8].(*big.Int), units.Ether),
	}, nil
}

// CalcInGivenOut returns the quote amount needed to buy baseAmount from
// exchange id. The ledger evaluates it with the same function swaps use, so
// an amount too small to cost anything fails with ErrInvalidAmount here as
// it would in BuyDT.
func (e *Engine) CalcInGivenOut(ctx context.Context, id ExchangeID, baseAmount decimal.Decimal) (decimal.Decimal, error) {
	amount, err := toAmount(baseAmount)
	if err != nil {
		return decimal.Zero, err
	}
	out, err := e.call(ctx, contracts.MethodCalcInGivenOut, [32]byte(id), amount)
	if err != nil {
		return decimal.Zero, err
	}
	return units.FromWei(out[0].(*big.Int), units.Ether), nil
}

// CalcOutGivenIn returns the base amount quoteAmount buys from exchange id at
// its current rate. It is computed locally from one rate read, with the
// floor rounding the ledger applies, and does not account for supply.
func (e *Engine) CalcOutGivenIn(ctx context.Context, id ExchangeID, quoteAmount decimal.Decimal) (decimal.Decimal, error) {
	amount, err := toAmount(quoteAmount)
	if err != nil {
		return decimal.Zero, err
	}
	out, err := e.call(ctx, contracts.MethodGetRate, [32]byte(id))
	if err != nil {
		return decimal.Zero, err
	}
	base, err := calculator.OutGivenIn(amount, out[0].(*big.Int))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if base.Sign() == 0 {
		return decimal.Zero, fmt.Errorf("%w: %s buys nothing", ErrInvalidAmount, quoteAmount)
	}
	return units.FromWei(base, units.Ether), nil
}

// BuyDT buys amount of the base token of exchange id for buyer. The quote
// amount is recomputed by the ledger at execution and pulled from buyer's
// allowance to the registry.
func (e *Engine) BuyDT(ctx context.Context, id ExchangeID, amount decimal.Decimal, buyer common.Address) (*SwapResult, error) {
	amountWei, err := toAmount(amount)
	if err != nil {
		return nil, err
	}
	receipt, err := e.submit(ctx, buyer, contracts.MethodSwap, [32]byte(id), amountWei)
	if err != nil {
		return nil, err
	}

	swapped, ok := receipt.Event(contracts.EventSwapped)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ledger.ErrEventMissing, contracts.EventSwapped)
	}
	result := &SwapResult{
		ExchangeID:  id,
		Buyer:       buyer,
		BaseAmount:  units.FromWei(swapped.Values[2].(*big.Int), units.Ether),
		QuoteAmount: units.FromWei(swapped.Values[3].(*big.Int), units.Ether),
		Receipt:     receipt,
	}
	e.logger.Info("Swap executed", "exchange_id", id, "buyer", buyer, "base_amount", result.BaseAmount, "quote_amount", result.QuoteAmount)
	return result, nil
}

// SetRate changes the rate of exchange id. Only the owner may call it.
func (e *Engine) SetRate(ctx context.Context, id ExchangeID, rate decimal.Decimal, caller common.Address) (*ledger.Receipt, error) {
	rateWei, err := toRate(rate)
	if err != nil {
		return nil, err
	}
	return e.submit(ctx, caller, contracts.MethodSetRate, [32]byte(id), rateWei)
}

// Activate enables swaps on exchange id. Activating an active exchange
// succeeds without submitting anything and returns a nil receipt.
func (e *Engine) Activate(ctx context.Context, id ExchangeID, caller common.Address) (*ledger.Receipt, error) {
	return e.setActive(ctx, id, caller, true)
}

// Deactivate disables swaps on exchange id. Deactivating an inactive
// exchange succeeds without submitting anything and returns a nil receipt.
func (e *Engine) Deactivate(ctx context.Context, id ExchangeID, caller common.Address) (*ledger.Receipt, error) {
	return e.setActive(ctx, id, caller, false)
}

func (e *Engine) setActive(ctx context.Context, id ExchangeID, caller common.Address, active bool) (*ledger.Receipt, error) {
	ex, err := e.GetExchange(ctx, id)
	if err != nil {
		return nil, err
	}
	if ex.Owner != caller {
		return nil, fmt.Errorf("%w: %s", ErrUnauthorized, caller)
	}
	if ex.Active == active {
		e.logger.Debug("Exchange already in requested state", "exchange_id", id, "active", active)
		return nil, nil
	}
	receipt, err := e.submit(ctx, caller, contracts.MethodSetExchangeState, [32]byte(id), active)
	if err != nil {
		return nil, err
	}
	event := contracts.EventExchangeDeactivated
	if active {
		event = contracts.EventExchangeActivated
	}
	if _, changed := receipt.Event(event); !changed {
		e.logger.Debug("Exchange reached requested state concurrently", "exchange_id", id, "active", active, "tx_hash", receipt.TxHash)
	}
	return receipt, nil
}

// Exchanges reads every registered exchange into an indexed snapshot.
func (e *Engine) Exchanges(ctx context.Context) (*IndexedExchanges, error) {
	out, err := e.call(ctx, contracts.MethodGetExchanges)
	if err != nil {
		return nil, err
	}
	ids := out[0].([][32]byte)
	exchanges := make([]Exchange, 0, len(ids))
	for _, raw := range ids {
		ex, err := e.GetExchange(ctx, ExchangeID(raw))
		if err != nil {
			return nil, err
		}
		exchanges = append(exchanges, *ex)
	}
	return NewIndexedExchanges(exchanges), nil
}

// SearchForDT returns the active exchanges selling baseToken with at least
// minSupply available. No match yields an empty slice, not an error.
func (e *Engine) SearchForDT(ctx context.Context, baseToken common.Address, minSupply decimal.Decimal) ([]ExchangeSummary, error) {
	snapshot, err := e.Exchanges(ctx)
	if err != nil {
		return nil, err
	}
	return snapshot.Search(baseToken, minSupply), nil
}

// GetExchangesByCreator returns the ids of the exchanges owned by creator.
func (e *Engine) GetExchangesByCreator(ctx context.Context, creator common.Address) ([]ExchangeID, error) {
	snapshot, err := e.Exchanges(ctx)
	if err != nil {
		return nil, err
	}
	return snapshot.ByOwner(creator), nil
}

// GetAllExchangesSwaps returns every swap made by account on any exchange.
func (e *Engine) GetAllExchangesSwaps(ctx context.Context, account common.Address) ([]SwapRecord, error) {
	return e.swaps(ctx, nil, []any{account})
}

// GetExchangeSwaps returns the swaps made by account on exchange id.
func (e *Engine) GetExchangeSwaps(ctx context.Context, id ExchangeID, account common.Address) ([]SwapRecord, error) {
	return e.swaps(ctx, []any{[32]byte(id)}, []any{account})
}

func (e *Engine) swaps(ctx context.Context, ids, buyers []any) ([]SwapRecord, error) {
	events, err := e.backend.Events(ctx, ledger.EventQuery{
		Contract: e.address,
		ABI:      e.abi,
		Event:    contracts.EventSwapped,
		Indexed:  [][]any{ids, buyers},
	})
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", contracts.EventSwapped, err)
	}
	records := make([]SwapRecord, 0, len(events))
	for _, ev := range events {
		records = append(records, SwapRecord{
			ExchangeID:  ExchangeID(ev.Values[0].([32]byte)),
			Buyer:       ev.Values[1].(common.Address),
			BaseAmount:  units.FromWei(ev.Values[2].(*big.Int), units.Ether),
			QuoteAmount: units.FromWei(ev.Values[3].(*big.Int), units.Ether),
			BlockNumber: ev.BlockNumber,
			TxHash:      ev.TxHash,
		})
	}
	return records, nil
}

// GenerateExchangeID derives locally the id the registry would assign to an
// exchange of baseToken created by owner. Use it for existence checks only;
// Create reports the authoritative id.
func (e *Engine) GenerateExchangeID(baseToken, owner common.Address) ExchangeID {
	return ExchangeID(contracts.ExchangeID(baseToken, e.quoteToken, owner))
}

// Exists reports whether owner already created an exchange for baseToken.
// Callers retrying a failed Create should check it before resubmitting.
func (e *Engine) Exists(ctx context.Context, baseToken, owner common.Address) (ExchangeID, bool, error) {
	id := e.GenerateExchangeID(baseToken, owner)
	_, err := e.GetExchange(ctx, id)
	switch {
	case err == nil:
		return id, true, nil
	case errors.Is(err, ErrNotFound):
		return id, false, nil
	}
	return id, false, err
}

// GetRate returns the current rate of exchange id.
func (e *Engine) GetRate(ctx context.Context, id ExchangeID) (decimal.Decimal, error) {
	out, err := e.call(ctx, contracts.MethodGetRate, [32]byte(id))
	if err != nil {
		return decimal.Zero, err
	}
	return units.FromWei(out[0].(*big.Int), units.Ether), nil
}

// GetSupply returns how much base token exchange id can still deliver.
func (e *Engine) GetSupply(ctx context.Context, id ExchangeID) (decimal.Decimal, error) {
	out, err := e.call(ctx, contracts.MethodGetSupply, [32]byte(id))
	if err != nil {
		return decimal.Zero, err
	}
	return units.FromWei(out[0].(*big.Int), units.Ether), nil
}

// IsActive reports whether exchange id accepts swaps.
func (e *Engine) IsActive(ctx context.Context, id ExchangeID) (bool, error) {
	out, err := e.call(ctx, contracts.MethodIsActive, [32]byte(id))
	if err != nil {
		return false, err
	}
	return out[0].(bool), nil
}

// GetNumberOfExchanges returns how many exchanges the registry holds.
func (e *Engine) GetNumberOfExchanges(ctx context.Context) (uint64, error) {
	out, err := e.call(ctx, contracts.MethodGetNumberOfExchanges)
	if err != nil {
		return 0, err
	}
	return out[0].(*big.Int).Uint64(), nil
}

func toRate(rate decimal.Decimal) (*big.Int, error) {
	if !rate.IsPositive() {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidRate, rate)
	}
	wei, err := units.ToWei(rate, units.Ether)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRate, err)
	}
	if wei.Sign() == 0 {
		return nil, fmt.Errorf("%w: %s rounds to zero", ErrInvalidRate, rate)
	}
	return wei, nil
}

func toAmount(amount decimal.Decimal) (*big.Int, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidAmount, amount)
	}
	wei, err := units.ToWei(amount, units.Ether)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	return wei, nil
}
