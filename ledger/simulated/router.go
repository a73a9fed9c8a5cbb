package simulated

import (
	"math/big"

	"github.com/defistate/ocean-client-go/contracts"
	"github.com/defistate/ocean-client-go/protocols/weightedpool"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const reasonRouterNotOwner = "FactoryRouter: caller is not the owner"

// pool is the placeholder installed at a deployed pool's address. Pool
// trading lives in the pool contract itself and is not simulated.
type pool struct{}

func (pool) abi() *abi.ABI { return contracts.FactoryRouter() }

func (pool) exec(e *env, method string, args []any) ([]any, error) {
	return nil, revert("pool contract not simulated")
}

type router struct {
	owner       common.Address
	oceanTokens map[common.Address]bool
}

func newRouter(owner common.Address) *router {
	return &router{owner: owner, oceanTokens: make(map[common.Address]bool)}
}

func (r *router) abi() *abi.ABI { return contracts.FactoryRouter() }

func (r *router) exec(e *env, method string, args []any) ([]any, error) {
	switch method {
	case contracts.MethodOwner:
		return []any{r.owner}, nil
	case contracts.MethodOceanTokens:
		return []any{r.oceanTokens[args[0].(common.Address)]}, nil
	case contracts.MethodAddOceanToken:
		return nil, r.addOceanToken(e, args[0].(common.Address))
	case contracts.MethodDeployPool:
		return r.deployPool(e,
			args[0].(string), args[1].(string),
			args[2].([]common.Address), args[3].([]*big.Int),
			args[4].(*big.Int), args[5].(*big.Int), args[6].(common.Address))
	case contracts.MethodDeployPoolWithFork:
		controller := args[0].(common.Address)
		if controller == (common.Address{}) {
			return nil, revert("FactoryRouter: invalid controller")
		}
		addr := e.create(pool{})
		if err := e.emit(r.abi(), contracts.EventNewPoolFork, addr, controller); err != nil {
			return nil, err
		}
		return []any{addr}, nil
	}
	return nil, revert("unsupported method " + method)
}

func (r *router) addOceanToken(e *env, token common.Address) error {
	if e.caller != r.owner {
		return revert(reasonRouterNotOwner)
	}
	if token == (common.Address{}) {
		return revert("FactoryRouter: invalid token")
	}
	if !r.oceanTokens[token] {
		r.oceanTokens[token] = true
		e.journal(func() { delete(r.oceanTokens, token) })
	}
	return e.emit(r.abi(), contracts.EventOceanTokenAdded, token, e.caller)
}

func (r *router) deployPool(
	e *env,
	name, symbol string,
	tokens []common.Address,
	weights []*big.Int,
	swapFee, marketFee *big.Int,
	owner common.Address,
) ([]any, error) {
	if err := weightedpool.Validate(tokens, weights, swapFee, marketFee); err != nil {
		return nil, revert("FactoryRouter: " + err.Error())
	}
	if owner == (common.Address{}) {
		return nil, revert("FactoryRouter: invalid owner")
	}

	communityFee := new(big.Int).Set(weightedpool.DefaultCommunityFee)
	for _, token := range tokens {
		if r.oceanTokens[token] {
			communityFee.SetUint64(0)
			break
		}
	}

	addr := e.create(pool{})
	if err := e.emit(r.abi(), contracts.EventNewPool,
		addr, owner, name, symbol, tokens, weights, swapFee, marketFee, communityFee); err != nil {
		return nil, err
	}
	return []any{addr}, nil
}
