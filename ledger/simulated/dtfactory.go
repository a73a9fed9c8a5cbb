package simulated

import (
	"math/big"

	"github.com/defistate/ocean-client-go/contracts"
	"github.com/ethereum/go-ethereum/accounts/abi"
)

type dtFactory struct {
	count int64
}

func newDTFactory() *dtFactory {
	return &dtFactory{}
}

func (f *dtFactory) abi() *abi.ABI { return contracts.DTFactory() }

func (f *dtFactory) exec(e *env, method string, args []any) ([]any, error) {
	switch method {
	case contracts.MethodGetCurrentTokenCount:
		return []any{big.NewInt(f.count)}, nil
	case contracts.MethodCreateToken:
		blob, name, symbol, tokenCap := args[0].(string), args[1].(string), args[2].(string), args[3].(*big.Int)
		if tokenCap.Sign() <= 0 {
			return nil, revert("DTFactory: Invalid cap value")
		}
		if name == "" || symbol == "" {
			return nil, revert("DTFactory: Invalid name or symbol")
		}
		token := e.create(newERC20(e.caller, name, symbol, blob, tokenCap))
		f.count++
		e.journal(func() { f.count-- })
		if err := e.emit(f.abi(), contracts.EventTokenRegistered, token, name, symbol, tokenCap, e.caller, blob); err != nil {
			return nil, err
		}
		return []any{token}, nil
	}
	return nil, revert("unsupported method " + method)
}
