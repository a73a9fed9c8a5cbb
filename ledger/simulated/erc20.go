package simulated

import (
	"math/big"

	"github.com/defistate/ocean-client-go/contracts"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// erc20 is the datatoken template: a capped ERC20 with a single minter.
// Stored amounts are never mutated in place so the journal can restore pointers.
type erc20 struct {
	name        string
	symbol      string
	blob        string
	cap         *big.Int
	minter      common.Address
	totalSupply *big.Int
	balances    map[common.Address]*big.Int
	allowances  map[common.Address]map[common.Address]*big.Int
}

func newERC20(minter common.Address, name, symbol, blob string, supplyCap *big.Int) *erc20 {
	return &erc20{
		name:        name,
		symbol:      symbol,
		blob:        blob,
		cap:         new(big.Int).Set(supplyCap),
		minter:      minter,
		totalSupply: new(big.Int),
		balances:    make(map[common.Address]*big.Int),
		allowances:  make(map[common.Address]map[common.Address]*big.Int),
	}
}

func (t *erc20) abi() *abi.ABI { return contracts.DataToken() }

func (t *erc20) exec(e *env, method string, args []any) ([]any, error) {
	switch method {
	case contracts.MethodName:
		return []any{t.name}, nil
	case contracts.MethodSymbol:
		return []any{t.symbol}, nil
	case contracts.MethodDecimals:
		return []any{uint8(18)}, nil
	case contracts.MethodCap:
		return []any{new(big.Int).Set(t.cap)}, nil
	case contracts.MethodTotalSupply:
		return []any{new(big.Int).Set(t.totalSupply)}, nil
	case contracts.MethodMinter:
		return []any{t.minter}, nil
	case contracts.MethodBlob:
		return []any{t.blob}, nil
	case contracts.MethodBalanceOf:
		return []any{t.balanceOf(args[0].(common.Address))}, nil
	case contracts.MethodAllowance:
		return []any{t.allowance(args[0].(common.Address), args[1].(common.Address))}, nil
	case contracts.MethodApprove:
		spender, value := args[0].(common.Address), args[1].(*big.Int)
		if spender == (common.Address{}) {
			return nil, revert("ERC20: approve to the zero address")
		}
		t.setAllowance(e, e.caller, spender, value)
		if err := e.emit(t.abi(), contracts.EventApproval, e.caller, spender, value); err != nil {
			return nil, err
		}
		return []any{true}, nil
	case contracts.MethodTransfer:
		if err := t.transfer(e, e.caller, args[0].(common.Address), args[1].(*big.Int)); err != nil {
			return nil, err
		}
		return []any{true}, nil
	case contracts.MethodTransferFrom:
		from, to, value := args[0].(common.Address), args[1].(common.Address), args[2].(*big.Int)
		if err := t.transfer(e, from, to, value); err != nil {
			return nil, err
		}
		current := t.allowance(from, e.caller)
		if current.Cmp(value) < 0 {
			return nil, revert("ERC20: transfer amount exceeds allowance")
		}
		t.setAllowance(e, from, e.caller, new(big.Int).Sub(current, value))
		return []any{true}, nil
	case contracts.MethodMint:
		return nil, t.mint(e, args[0].(common.Address), args[1].(*big.Int))
	}
	return nil, revert("unsupported method " + method)
}

func (t *erc20) balanceOf(account common.Address) *big.Int {
	if b, ok := t.balances[account]; ok {
		return new(big.Int).Set(b)
	}
	return new(big.Int)
}

func (t *erc20) allowance(owner, spender common.Address) *big.Int {
	if a, ok := t.allowances[owner][spender]; ok {
		return new(big.Int).Set(a)
	}
	return new(big.Int)
}

func (t *erc20) setBalance(e *env, account common.Address, value *big.Int) {
	prev, had := t.balances[account]
	t.balances[account] = value
	e.journal(func() {
		if had {
			t.balances[account] = prev
		} else {
			delete(t.balances, account)
		}
	})
}

func (t *erc20) setAllowance(e *env, owner, spender common.Address, value *big.Int) {
	if t.allowances[owner] == nil {
		t.allowances[owner] = make(map[common.Address]*big.Int)
	}
	prev, had := t.allowances[owner][spender]
	t.allowances[owner][spender] = new(big.Int).Set(value)
	e.journal(func() {
		if had {
			t.allowances[owner][spender] = prev
		} else {
			delete(t.allowances[owner], spender)
		}
	})
}

func (t *erc20) transfer(e *env, from, to common.Address, value *big.Int) error {
	if from == (common.Address{}) {
		return revert("ERC20: transfer from the zero address")
	}
	if to == (common.Address{}) {
		return revert("ERC20: transfer to the zero address")
	}
	fromBalance := t.balanceOf(from)
	if fromBalance.Cmp(value) < 0 {
		return revert("ERC20: transfer amount exceeds balance")
	}
	t.setBalance(e, from, new(big.Int).Sub(fromBalance, value))
	t.setBalance(e, to, new(big.Int).Add(t.balanceOf(to), value))
	return e.emit(t.abi(), contracts.EventTransfer, from, to, value)
}

func (t *erc20) mint(e *env, account common.Address, value *big.Int) error {
	if e.caller != t.minter {
		return revert("DataTokenTemplate: invalid minter")
	}
	if account == (common.Address{}) {
		return revert("ERC20: mint to the zero address")
	}
	supply := new(big.Int).Add(t.totalSupply, value)
	if supply.Cmp(t.cap) > 0 {
		return revert("DataTokenTemplate: cap exceeded")
	}
	prevSupply := t.totalSupply
	t.totalSupply = supply
	e.journal(func() { t.totalSupply = prevSupply })
	t.setBalance(e, account, new(big.Int).Add(t.balanceOf(account), value))
	return e.emit(t.abi(), contracts.EventTransfer, common.Address{}, account, value)
}
