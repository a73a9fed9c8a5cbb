// Package datatoken creates datatokens through the datatoken factory and
// operates on them as ERC20 tokens. Amounts are 18-decimal decimal.Decimal.
package datatoken

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/defistate/ocean-client-go/contracts"
	"github.com/defistate/ocean-client-go/ledger"
	"github.com/defistate/ocean-client-go/protocols/tokenregistry"
	"github.com/defistate/ocean-client-go/protocols/tokenregistry/indexer"
	"github.com/defistate/ocean-client-go/units"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Config binds a Client to a datatoken factory.
type Config struct {
	Factory    common.Address
	Transactor *ledger.Transactor
	Logger     Logger
}

func (c *Config) validate() error {
	if c.Factory == (common.Address{}) {
		return errors.New("config: Factory is required")
	}
	if c.Transactor == nil {
		return errors.New("config: Transactor is required")
	}
	if c.Logger == nil {
		return errors.New("config: Logger is required")
	}
	return nil
}

// Client holds only immutable configuration and is safe for concurrent use.
type Client struct {
	factory    common.Address
	factoryABI *abi.ABI
	tokenABI   *abi.ABI
	tx         *ledger.Transactor
	backend    ledger.Backend
	logger     Logger
}

// New creates a Client from cfg.
func New(cfg Config) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Client{
		factory:    cfg.Factory,
		factoryABI: contracts.DTFactory(),
		tokenABI:   contracts.DataToken(),
		tx:         cfg.Transactor,
		backend:    cfg.Transactor.Backend(),
		logger:     cfg.Logger,
	}, nil
}

func (c *Client) tokenRequest(from, token common.Address, method string, args ...any) ledger.CallRequest {
	return ledger.CallRequest{From: from, To: token, ABI: c.tokenABI, Method: method, Args: args}
}

func (c *Client) call(ctx context.Context, token common.Address, method string, args ...any) ([]any, error) {
	out, err := c.backend.Call(ctx, c.tokenRequest(common.Address{}, token, method, args...))
	if err != nil {
		return nil, callError(method, err)
	}
	return out, nil
}

// Create deploys a datatoken with minter as its minter. blob is the
// metadata reference stored on the token.
func (c *Client) Create(ctx context.Context, blob string, minter common.Address, tokenCap decimal.Decimal, name, symbol string) (*CreateResult, error) {
	if name == "" || symbol == "" {
		return nil, fmt.Errorf("%w: name and symbol are required", ErrInvalidInput)
	}
	capWei, err := toAmount(tokenCap)
	if err != nil {
		return nil, err
	}
	req := ledger.CallRequest{
		From: minter, To: c.factory, ABI: c.factoryABI,
		Method: contracts.MethodCreateToken, Args: []any{blob, name, symbol, capWei},
	}
	receipt, err := c.tx.Submit(ctx, req, classify)
	if err != nil {
		return nil, err
	}
	v, err := receipt.Value(contracts.EventTokenRegistered, 0)
	if err != nil {
		return nil, err
	}
	token := v.(common.Address)

	c.logger.Info("Datatoken created", "token", token, "symbol", symbol, "minter", minter, "cap", tokenCap)
	return &CreateResult{Token: token, Receipt: receipt}, nil
}

// Mint mints amount of token to account. Only the token's minter may call it.
func (c *Client) Mint(ctx context.Context, token, minter, account common.Address, amount decimal.Decimal) (*ledger.Receipt, error) {
	wei, err := toAmount(amount)
	if err != nil {
		return nil, err
	}
	return c.tx.Submit(ctx, c.tokenRequest(minter, token, contracts.MethodMint, account, wei), classify)
}

// Approve lets spender move up to amount of owner's token.
func (c *Client) Approve(ctx context.Context, token, owner, spender common.Address, amount decimal.Decimal) (*ledger.Receipt, error) {
	if amount.IsNegative() {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidAmount, amount)
	}
	wei, err := units.ToWei(amount, units.Ether)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	return c.tx.Submit(ctx, c.tokenRequest(owner, token, contracts.MethodApprove, spender, wei), classify)
}

// Transfer moves amount of token from one account to another.
func (c *Client) Transfer(ctx context.Context, token, from, to common.Address, amount decimal.Decimal) (*ledger.Receipt, error) {
	wei, err := toAmount(amount)
	if err != nil {
		return nil, err
	}
	return c.tx.Submit(ctx, c.tokenRequest(from, token, contracts.MethodTransfer, to, wei), classify)
}

// Allowance returns how much of owner's token spender may move.
func (c *Client) Allowance(ctx context.Context, token, owner, spender common.Address) (decimal.Decimal, error) {
	out, err := c.call(ctx, token, contracts.MethodAllowance, owner, spender)
	if err != nil {
		return decimal.Zero, err
	}
	return units.FromWei(out[0].(*big.Int), units.Ether), nil
}

// Balance returns account's balance of token.
func (c *Client) Balance(ctx context.Context, token, account common.Address) (decimal.Decimal, error) {
	out, err := c.call(ctx, token, contracts.MethodBalanceOf, account)
	if err != nil {
		return decimal.Zero, err
	}
	return units.FromWei(out[0].(*big.Int), units.Ether), nil
}

// Token reads the description of the datatoken at address.
func (c *Client) Token(ctx context.Context, address common.Address) (*Token, error) {
	t := &Token{Address: address}
	reads := []struct {
		method string
		set    func(v any)
	}{
		{contracts.MethodName, func(v any) { t.Name = v.(string) }},
		{contracts.MethodSymbol, func(v any) { t.Symbol = v.(string) }},
		{contracts.MethodDecimals, func(v any) { t.Decimals = v.(uint8) }},
		{contracts.MethodCap, func(v any) { t.Cap = units.FromWei(v.(*big.Int), units.Ether) }},
		{contracts.MethodTotalSupply, func(v any) { t.TotalSupply = units.FromWei(v.(*big.Int), units.Ether) }},
		{contracts.MethodMinter, func(v any) { t.Minter = v.(common.Address) }},
		{contracts.MethodBlob, func(v any) { t.Blob = v.(string) }},
	}
	for _, r := range reads {
		out, err := c.call(ctx, address, r.method)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrNotFound, address, err)
		}
		r.set(out[0])
	}
	return t, nil
}

// Count returns how many datatokens the factory has created.
func (c *Client) Count(ctx context.Context) (uint64, error) {
	out, err := c.backend.Call(ctx, ledger.CallRequest{To: c.factory, ABI: c.factoryABI, Method: contracts.MethodGetCurrentTokenCount})
	if err != nil {
		return 0, callError(contracts.MethodGetCurrentTokenCount, err)
	}
	return out[0].(*big.Int).Uint64(), nil
}

// Registrations lists the datatokens the factory created, optionally only
// those registered by the given accounts.
func (c *Client) Registrations(ctx context.Context, registeredBy ...common.Address) ([]Registration, error) {
	var filter []any
	for _, addr := range registeredBy {
		filter = append(filter, addr)
	}
	events, err := c.backend.Events(ctx, ledger.EventQuery{
		Contract: c.factory,
		ABI:      c.factoryABI,
		Event:    contracts.EventTokenRegistered,
		Indexed:  [][]any{nil, filter},
	})
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", contracts.EventTokenRegistered, err)
	}
	regs := make([]Registration, 0, len(events))
	for _, ev := range events {
		regs = append(regs, Registration{
			Token:        ev.Values[0].(common.Address),
			Name:         ev.Values[1].(string),
			Symbol:       ev.Values[2].(string),
			Cap:          units.FromWei(ev.Values[3].(*big.Int), units.Ether),
			RegisteredBy: ev.Values[4].(common.Address),
			Blob:         ev.Values[5].(string),
			BlockNumber:  ev.BlockNumber,
		})
	}
	return regs, nil
}

// Registry indexes every registration the factory made, in ledger order.
func (c *Client) Registry(ctx context.Context) (indexer.IndexedTokens, error) {
	regs, err := c.Registrations(ctx)
	if err != nil {
		return nil, err
	}
	tokens := make([]tokenregistry.Token, len(regs))
	for i, r := range regs {
		tokens[i] = tokenregistry.Token{
			ID:           uint64(i + 1),
			Address:      r.Token,
			Name:         r.Name,
			Symbol:       r.Symbol,
			Cap:          r.Cap,
			RegisteredBy: r.RegisteredBy,
			Blob:         r.Blob,
			BlockNumber:  r.BlockNumber,
		}
	}
	return indexer.New().Index(tokens), nil
}

func toAmount(amount decimal.Decimal) (*big.Int, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidAmount, amount)
	}
	wei, err := units.ToWei(amount, units.Ether)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	if wei.Sign() == 0 {
		return nil, fmt.Errorf("%w: %s rounds to zero", ErrInvalidAmount, amount)
	}
	return wei, nil
}
