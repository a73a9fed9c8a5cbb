package simulated

import (
	"fmt"

	"github.com/defistate/ocean-client-go/ledger"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// txState is shared by every frame of one transaction.
type txState struct {
	undo []func()
	logs []*types.Log
}

// env is one call frame.
type env struct {
	backend *Backend
	caller  common.Address
	self    common.Address
	tx      *txState
}

func revert(reason string) error {
	return &ledger.RevertError{Reason: reason}
}

// journal records how to undo a state change made in this transaction.
func (e *env) journal(undo func()) {
	e.tx.undo = append(e.tx.undo, undo)
}

func (e *env) rollback() {
	for i := len(e.tx.undo) - 1; i >= 0; i-- {
		e.tx.undo[i]()
	}
	e.tx.undo = nil
	e.tx.logs = nil
}

func (e *env) emit(contract *abi.ABI, name string, values ...any) error {
	l, err := ledger.EncodeEvent(contract, name, e.self, values...)
	if err != nil {
		return err
	}
	e.tx.logs = append(e.tx.logs, l)
	return nil
}

// call invokes method on the contract at to, with this contract as caller.
func (e *env) call(to common.Address, method string, args ...any) ([]any, error) {
	target, ok := e.backend.contracts[to]
	if !ok {
		return nil, revert("call to non-contract account")
	}
	data, err := target.abi().Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("simulated: pack %s: %w", method, err)
	}
	frame := &env{backend: e.backend, caller: e.self, self: to, tx: e.tx}
	out, err := e.backend.invoke(frame, to, data)
	if err != nil {
		return nil, err
	}
	return target.abi().Unpack(method, out)
}

// create installs c at the next address derived from this contract's nonce.
func (e *env) create(c contract) common.Address {
	b := e.backend
	nonce := b.nonces[e.self]
	addr := crypto.CreateAddress(e.self, nonce)
	b.nonces[e.self] = nonce + 1
	b.contracts[addr] = c
	e.journal(func() {
		b.nonces[e.self] = nonce
		delete(b.contracts, addr)
	})
	return addr
}
