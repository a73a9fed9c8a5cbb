package simulated

import (
	"math/big"

	"github.com/defistate/ocean-client-go/contracts"
	"github.com/defistate/ocean-client-go/fixedrate/calculator"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const (
	reasonExchangeExists   = "FixedRateExchange: Exchange already exists!"
	reasonExchangeMissing  = "FixedRateExchange: Exchange does not exist!"
	reasonExchangeInactive = "FixedRateExchange: Exchange is not active"
	reasonNotOwner         = "FixedRateExchange: invalid exchange owner"
	reasonInvalidRate      = "FixedRateExchange: Invalid exchange rate value"
	reasonInvalidAmount    = "FixedRateExchange: invalid amount"
)

type exchange struct {
	owner         common.Address
	base          common.Address
	quote         common.Address
	rate          *big.Int
	active        bool
	swapCount     *big.Int
	baseSupplied  *big.Int
	quoteSupplied *big.Int
}

type fixedRateExchange struct {
	exchanges map[[32]byte]*exchange
	ids       [][32]byte
}

func newFixedRateExchange() *fixedRateExchange {
	return &fixedRateExchange{exchanges: make(map[[32]byte]*exchange)}
}

func (x *fixedRateExchange) abi() *abi.ABI { return contracts.FixedRateExchange() }

func (x *fixedRateExchange) exec(e *env, method string, args []any) ([]any, error) {
	switch method {
	case contracts.MethodCreate:
		return x.create(e, args[0].(common.Address), args[1].(common.Address), args[2].(*big.Int))
	case contracts.MethodGenerateExchangeID:
		return []any{contracts.ExchangeID(args[0].(common.Address), args[1].(common.Address), args[2].(common.Address))}, nil
	case contracts.MethodGetExchanges:
		ids := make([][32]byte, len(x.ids))
		copy(ids, x.ids)
		return []any{ids}, nil
	case contracts.MethodGetNumberOfExchanges:
		return []any{big.NewInt(int64(len(x.ids)))}, nil
	}

	id := args[0].([32]byte)
	ex, ok := x.exchanges[id]
	if !ok {
		return nil, revert(reasonExchangeMissing)
	}

	switch method {
	case contracts.MethodCalcInGivenOut:
		quote, err := x.calcInGivenOut(ex, args[1].(*big.Int))
		if err != nil {
			return nil, err
		}
		return []any{quote}, nil
	case contracts.MethodSwap:
		return nil, x.swap(e, id, ex, args[1].(*big.Int))
	case contracts.MethodSetRate:
		return nil, x.setRate(e, id, ex, args[1].(*big.Int))
	case contracts.MethodSetExchangeState:
		return nil, x.setState(e, id, ex, args[1].(bool))
	case contracts.MethodGetRate:
		return []any{new(big.Int).Set(ex.rate)}, nil
	case contracts.MethodIsActive:
		return []any{ex.active}, nil
	case contracts.MethodGetSupply:
		supply, err := x.supply(e, ex)
		if err != nil {
			return nil, err
		}
		return []any{supply}, nil
	case contracts.MethodGetExchange:
		supply, err := x.supply(e, ex)
		if err != nil {
			return nil, err
		}
		return []any{
			ex.owner, ex.base, ex.quote, new(big.Int).Set(ex.rate), ex.active, supply,
			new(big.Int).Set(ex.swapCount), new(big.Int).Set(ex.baseSupplied), new(big.Int).Set(ex.quoteSupplied),
		}, nil
	}
	return nil, revert("unsupported method " + method)
}

func (x *fixedRateExchange) create(e *env, base, quote common.Address, rate *big.Int) ([]any, error) {
	if base == (common.Address{}) {
		return nil, revert("FixedRateExchange: Invalid basetoken, zero address")
	}
	if quote == (common.Address{}) {
		return nil, revert("FixedRateExchange: Invalid quotetoken, zero address")
	}
	if base == quote {
		return nil, revert("FixedRateExchange: Invalid quotetoken, equals basetoken")
	}
	if rate.Sign() <= 0 {
		return nil, revert(reasonInvalidRate)
	}
	id := contracts.ExchangeID(base, quote, e.caller)
	if _, exists := x.exchanges[id]; exists {
		return nil, revert(reasonExchangeExists)
	}

	x.exchanges[id] = &exchange{
		owner:         e.caller,
		base:          base,
		quote:         quote,
		rate:          new(big.Int).Set(rate),
		active:        true,
		swapCount:     new(big.Int),
		baseSupplied:  new(big.Int),
		quoteSupplied: new(big.Int),
	}
	x.ids = append(x.ids, id)
	e.journal(func() {
		delete(x.exchanges, id)
		x.ids = x.ids[:len(x.ids)-1]
	})

	if err := e.emit(x.abi(), contracts.EventExchangeCreated, id, base, quote, e.caller, rate); err != nil {
		return nil, err
	}
	if err := e.emit(x.abi(), contracts.EventExchangeActivated, id, e.caller); err != nil {
		return nil, err
	}
	return []any{id}, nil
}

func (x *fixedRateExchange) calcInGivenOut(ex *exchange, baseAmount *big.Int) (*big.Int, error) {
	if baseAmount.Sign() <= 0 {
		return nil, revert(reasonInvalidAmount)
	}
	quote, err := calculator.InGivenOut(baseAmount, ex.rate)
	if err != nil {
		return nil, revert("FixedRateExchange: " + err.Error())
	}
	if quote.Sign() == 0 {
		return nil, revert(reasonInvalidAmount)
	}
	return quote, nil
}

func (x *fixedRateExchange) swap(e *env, id [32]byte, ex *exchange, baseAmount *big.Int) error {
	if !ex.active {
		return revert(reasonExchangeInactive)
	}
	quoteAmount, err := x.calcInGivenOut(ex, baseAmount)
	if err != nil {
		return err
	}

	if _, err := e.call(ex.quote, contracts.MethodTransferFrom, e.caller, ex.owner, quoteAmount); err != nil {
		return err
	}
	if _, err := e.call(ex.base, contracts.MethodTransferFrom, ex.owner, e.caller, baseAmount); err != nil {
		return err
	}

	x.update(e, ex, func(ex *exchange) {
		ex.swapCount = new(big.Int).Add(ex.swapCount, big.NewInt(1))
		ex.baseSupplied = new(big.Int).Add(ex.baseSupplied, baseAmount)
		ex.quoteSupplied = new(big.Int).Add(ex.quoteSupplied, quoteAmount)
	})
	return e.emit(x.abi(), contracts.EventSwapped, id, e.caller, baseAmount, quoteAmount)
}

func (x *fixedRateExchange) setRate(e *env, id [32]byte, ex *exchange, rate *big.Int) error {
	if e.caller != ex.owner {
		return revert(reasonNotOwner)
	}
	if rate.Sign() <= 0 {
		return revert(reasonInvalidRate)
	}
	x.update(e, ex, func(ex *exchange) { ex.rate = new(big.Int).Set(rate) })
	return e.emit(x.abi(), contracts.EventExchangeRateChanged, id, e.caller, rate)
}

// setState moves the exchange to active. A call that finds it already there
// changes nothing and emits nothing.
func (x *fixedRateExchange) setState(e *env, id [32]byte, ex *exchange, active bool) error {
	if e.caller != ex.owner {
		return revert(reasonNotOwner)
	}
	if ex.active == active {
		return nil
	}
	x.update(e, ex, func(ex *exchange) { ex.active = active })
	if active {
		return e.emit(x.abi(), contracts.EventExchangeActivated, id, e.caller)
	}
	return e.emit(x.abi(), contracts.EventExchangeDeactivated, id, e.caller)
}

// supply is what the owner can still deliver: min(balance, allowance granted
// to the exchange). Inactive exchanges supply nothing.
func (x *fixedRateExchange) supply(e *env, ex *exchange) (*big.Int, error) {
	if !ex.active {
		return new(big.Int), nil
	}
	balance, err := e.call(ex.base, contracts.MethodBalanceOf, ex.owner)
	if err != nil {
		return nil, err
	}
	allowance, err := e.call(ex.base, contracts.MethodAllowance, ex.owner, e.self)
	if err != nil {
		return nil, err
	}
	b, a := balance[0].(*big.Int), allowance[0].(*big.Int)
	if b.Cmp(a) < 0 {
		return b, nil
	}
	return a, nil
}

func (x *fixedRateExchange) update(e *env, ex *exchange, mutate func(*exchange)) {
	prev := *ex
	mutate(ex)
	e.journal(func() { *ex = prev })
}
