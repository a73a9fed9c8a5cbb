// Package factory is the client of the pool factory router: it deploys
// weighted and legacy forked pools and administers the fee-exempt token
// allowlist.
package factory

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math/big"
	"slices"

	"github.com/defistate/ocean-client-go/contracts"
	"github.com/defistate/ocean-client-go/ledger"
	"github.com/defistate/ocean-client-go/protocols/weightedpool"
	"github.com/defistate/ocean-client-go/units"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Config binds a Router to a factory deployment.
type Config struct {
	Address    common.Address
	Transactor *ledger.Transactor
	Logger     Logger
}

func (c *Config) validate() error {
	if c.Address == (common.Address{}) {
		return errors.New("config: Address is required")
	}
	if c.Transactor == nil {
		return errors.New("config: Transactor is required")
	}
	if c.Logger == nil {
		return errors.New("config: Logger is required")
	}
	return nil
}

// Router holds only immutable configuration and is safe for concurrent use.
type Router struct {
	address common.Address
	abi     *abi.ABI
	tx      *ledger.Transactor
	backend ledger.Backend
	logger  Logger
}

// New creates a Router from cfg.
func New(cfg Config) (*Router, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Router{
		address: cfg.Address,
		abi:     contracts.FactoryRouter(),
		tx:      cfg.Transactor,
		backend: cfg.Transactor.Backend(),
		logger:  cfg.Logger,
	}, nil
}

// Address returns the factory address.
func (r *Router) Address() common.Address { return r.address }

func (r *Router) request(from common.Address, method string, args ...any) ledger.CallRequest {
	return ledger.CallRequest{From: from, To: r.address, ABI: r.abi, Method: method, Args: args}
}

// DeployPool deploys a weighted pool. Parameters are checked locally before
// anything is submitted; the ledger re-validates them.
func (r *Router) DeployPool(ctx context.Context, p PoolParams) (*DeployResult, error) {
	if len(p.Tokens) != len(p.Weights) {
		return nil, fmt.Errorf("%w: %d tokens, %d weights", ErrLengthMismatch, len(p.Tokens), len(p.Weights))
	}
	weights := make([]*big.Int, len(p.Weights))
	for i, w := range p.Weights {
		wei, err := units.ToWei(w, units.Ether)
		if err != nil {
			return nil, fmt.Errorf("%w: weight %d: %v", ErrInvalidInput, i, err)
		}
		weights[i] = wei
	}
	swapFee, err := units.ToWei(p.SwapFee, units.Ether)
	if err != nil {
		return nil, fmt.Errorf("%w: swap fee: %v", ErrInvalidInput, err)
	}
	marketFee, err := units.ToWei(p.MarketFee, units.Ether)
	if err != nil {
		return nil, fmt.Errorf("%w: market fee: %v", ErrInvalidInput, err)
	}
	if err := weightedpool.Validate(p.Tokens, weights, swapFee, marketFee); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if p.Owner == (common.Address{}) {
		return nil, fmt.Errorf("%w: zero owner", ErrInvalidInput)
	}

	req := r.request(p.Creator, contracts.MethodDeployPool,
		p.Name, p.Symbol, p.Tokens, weights, swapFee, marketFee, p.Owner)
	receipt, err := r.tx.Submit(ctx, req, classifyDeploy)
	if err != nil {
		return nil, err
	}
	v, err := receipt.Value(contracts.EventNewPool, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDeploymentFailed, err)
	}
	pool := v.(common.Address)

	r.logger.Info("Pool deployed", "pool", pool, "owner", p.Owner, "tokens", len(p.Tokens), "tx", receipt.TxHash)
	return &DeployResult{Pool: pool, Receipt: receipt}, nil
}

// DeployPoolWithFork deploys a legacy single-controller pool.
func (r *Router) DeployPoolWithFork(ctx context.Context, creator, controller common.Address) (*DeployResult, error) {
	if controller == (common.Address{}) {
		return nil, fmt.Errorf("%w: zero controller", ErrInvalidInput)
	}
	receipt, err := r.tx.Submit(ctx, r.request(creator, contracts.MethodDeployPoolWithFork, controller), classifyDeploy)
	if err != nil {
		return nil, err
	}
	v, err := receipt.Value(contracts.EventNewPoolFork, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDeploymentFailed, err)
	}
	pool := v.(common.Address)

	r.logger.Info("Forked pool deployed", "pool", pool, "controller", controller, "tx", receipt.TxHash)
	return &DeployResult{Pool: pool, Receipt: receipt}, nil
}

// AddOceanToken adds token to the fee-exempt allowlist. Only the factory
// owner may call it. Failures are logged and returned.
func (r *Router) AddOceanToken(ctx context.Context, caller, token common.Address) (*ledger.Receipt, error) {
	if token == (common.Address{}) {
		return nil, fmt.Errorf("%w: zero token", ErrInvalidInput)
	}
	receipt, err := r.tx.Submit(ctx, r.request(caller, contracts.MethodAddOceanToken, token), classifyAdmin)
	if err != nil {
		r.logger.Error("Failed to add fee-exempt token", "token", token, "caller", caller, "error", err)
		return nil, err
	}
	return receipt, nil
}

// IsOceanToken reports whether token is fee-exempt.
func (r *Router) IsOceanToken(ctx context.Context, token common.Address) (bool, error) {
	out, err := r.backend.Call(ctx, r.request(common.Address{}, contracts.MethodOceanTokens, token))
	if err != nil {
		return false, fmt.Errorf("%s: %w", contracts.MethodOceanTokens, err)
	}
	return out[0].(bool), nil
}

// Owner returns the administrator of the factory.
func (r *Router) Owner(ctx context.Context) (common.Address, error) {
	out, err := r.backend.Call(ctx, r.request(common.Address{}, contracts.MethodOwner))
	if err != nil {
		return common.Address{}, fmt.Errorf("%s: %w", contracts.MethodOwner, err)
	}
	return out[0].(common.Address), nil
}

// Pools rebuilds the set of deployed pools from the factory's deployment events.
func (r *Router) Pools(ctx context.Context) (*PoolSnapshot, error) {
	weighted, err := r.events(ctx, contracts.EventNewPool)
	if err != nil {
		return nil, err
	}
	forked, err := r.events(ctx, contracts.EventNewPoolFork)
	if err != nil {
		return nil, err
	}
	events := append(weighted, forked...)
	slices.SortFunc(events, func(a, b ledger.Event) int {
		if c := cmp.Compare(a.BlockNumber, b.BlockNumber); c != 0 {
			return c
		}
		return cmp.Compare(a.LogIndex, b.LogIndex)
	})

	pools := make([]weightedpool.Pool, 0, len(events))
	for _, ev := range events {
		pools = append(pools, poolFromEvent(ev))
	}
	r.logger.Debug("Pools loaded", "weighted", len(weighted), "forked", len(forked))
	return NewPoolSnapshot(pools), nil
}

func (r *Router) events(ctx context.Context, name string) ([]ledger.Event, error) {
	events, err := r.backend.Events(ctx, ledger.EventQuery{Contract: r.address, ABI: r.abi, Event: name})
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", name, err)
	}
	return events, nil
}

func poolFromEvent(ev ledger.Event) weightedpool.Pool {
	if ev.Name == contracts.EventNewPoolFork {
		controller := ev.Values[1].(common.Address)
		return weightedpool.Pool{
			Address:     ev.Values[0].(common.Address),
			Kind:        weightedpool.Fork,
			Owner:       controller,
			Controller:  controller,
			BlockNumber: ev.BlockNumber,
		}
	}
	return weightedpool.Pool{
		Address:      ev.Values[0].(common.Address),
		Kind:         weightedpool.Weighted,
		Owner:        ev.Values[1].(common.Address),
		Name:         ev.Values[2].(string),
		Symbol:       ev.Values[3].(string),
		Tokens:       ev.Values[4].([]common.Address),
		Weights:      ev.Values[5].([]*big.Int),
		SwapFee:      ev.Values[6].(*big.Int),
		MarketFee:    ev.Values[7].(*big.Int),
		CommunityFee: ev.Values[8].(*big.Int),
		BlockNumber:  ev.BlockNumber,
	}
}
