// Package simulated is an in-memory ledger hosting Go implementations of the
// marketplace contracts. Requests are ABI-encoded and dispatched by method
// selector, so callers are exercised exactly as against a node.
package simulated

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/defistate/ocean-client-go/contracts"
	"github.com/defistate/ocean-client-go/ledger"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

const defaultGasCost uint64 = 60_000

// ErrEstimationUnavailable is returned by EstimateGas for methods registered with FailEstimation.
var ErrEstimationUnavailable = errors.New("simulated: estimation unavailable")

var deployer = common.HexToAddress("0x00000000000000000000000000000000000de910")

type contract interface {
	abi() *abi.ABI
	exec(e *env, method string, args []any) ([]any, error)
}

// Backend is a single-writer ordered ledger. Every transaction lands in its
// own block. It implements ledger.Backend and is safe for concurrent use.
type Backend struct {
	mu             sync.Mutex
	contracts      map[common.Address]contract
	nonces         map[common.Address]uint64
	block          uint64
	logs           []*types.Log
	gasCosts       map[string]uint64
	failEstimation map[string]bool
}

// NewBackend creates an empty ledger.
func NewBackend() *Backend {
	return &Backend{
		contracts: make(map[common.Address]contract),
		nonces:    make(map[common.Address]uint64),
		gasCosts: map[string]uint64{
			contracts.MethodCreate:             180_000,
			contracts.MethodSwap:               150_000,
			contracts.MethodDeployPool:         450_000,
			contracts.MethodDeployPoolWithFork: 350_000,
			contracts.MethodCreateToken:        400_000,
		},
		failEstimation: make(map[string]bool),
	}
}

// FailEstimation makes EstimateGas fail for method, as a node refusing to simulate would.
func (b *Backend) FailEstimation(method string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failEstimation[method] = true
}

// SetGasCost overrides the gas consumed by method.
func (b *Backend) SetGasCost(method string, gas uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.gasCosts[method] = gas
}

// BlockNumber returns the number of the latest block.
func (b *Backend) BlockNumber() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.block
}

// DeployFixedRateExchange installs an empty exchange registry.
func (b *Backend) DeployFixedRateExchange() common.Address {
	return b.deploy(newFixedRateExchange())
}

// DeployRouter installs a pool factory administered by owner.
func (b *Backend) DeployRouter(owner common.Address) common.Address {
	return b.deploy(newRouter(owner))
}

// DeployDTFactory installs a datatoken factory.
func (b *Backend) DeployDTFactory() common.Address {
	return b.deploy(newDTFactory())
}

// DeployToken installs an ERC20 datatoken minted by minter.
func (b *Backend) DeployToken(minter common.Address, name, symbol string, supplyCap *big.Int) common.Address {
	return b.deploy(newERC20(minter, name, symbol, "", supplyCap))
}

// Fund mints amount of token to account outside of any transaction.
func (b *Backend) Fund(token, account common.Address, amount *big.Int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.contracts[token].(*erc20)
	if !ok {
		return fmt.Errorf("simulated: %s is not a token", token)
	}
	e := b.newEnv(c.minter, token)
	if _, err := c.exec(e, contracts.MethodMint, []any{account, amount}); err != nil {
		e.rollback()
		return err
	}
	return nil
}

func (b *Backend) deploy(c contract) common.Address {
	b.mu.Lock()
	defer b.mu.Unlock()
	addr := crypto.CreateAddress(deployer, b.nonces[deployer])
	b.nonces[deployer]++
	b.contracts[addr] = c
	return addr
}

// Call executes req without persisting any state change.
func (b *Backend) Call(ctx context.Context, req ledger.CallRequest) ([]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := req.Pack()
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	e := b.newEnv(req.From, req.To)
	out, err := b.invoke(e, req.To, data)
	e.rollback()
	b.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return req.Unpack(out)
}

// EstimateGas dry-runs req and returns the gas it consumes. Reverting
// requests fail estimation, as on a node.
func (b *Backend) EstimateGas(ctx context.Context, req ledger.CallRequest) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	data, err := req.Pack()
	if err != nil {
		return 0, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failEstimation[req.Method] {
		return 0, ErrEstimationUnavailable
	}
	e := b.newEnv(req.From, req.To)
	_, err = b.invoke(e, req.To, data)
	e.rollback()
	if err != nil {
		return 0, err
	}
	return b.gasCost(req.Method), nil
}

// Send executes req in a new block. A reverted transaction still consumes
// its block and is reported as *ledger.RevertError.
func (b *Backend) Send(ctx context.Context, req ledger.TxRequest) (*ledger.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := req.Pack()
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.block++
	txHash := b.txHash(req.From)
	cost := b.gasCost(req.Method)
	if req.Gas < cost {
		return nil, &ledger.RevertError{Reason: "out of gas"}
	}

	e := b.newEnv(req.From, req.To)
	if _, err := b.invoke(e, req.To, data); err != nil {
		e.rollback()
		return nil, err
	}

	logs := e.tx.logs
	for i, l := range logs {
		l.BlockNumber = b.block
		l.TxHash = txHash
		l.Index = uint(len(b.logs) + i)
	}
	b.logs = append(b.logs, logs...)

	events, err := ledger.DecodeReceiptLogs(req.ABI, req.To, logs)
	if err != nil {
		return nil, err
	}
	return &ledger.Receipt{
		TxHash:      txHash,
		BlockNumber: b.block,
		GasUsed:     cost,
		GasLimit:    req.Gas,
		Events:      events,
	}, nil
}

// Events returns the logs matching q in ledger order.
func (b *Backend) Events(ctx context.Context, q ledger.EventQuery) ([]ledger.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	filter, err := ledger.Topics(q)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	var events []ledger.Event
	for _, l := range b.logs {
		if l.Address != q.Contract || l.BlockNumber < q.FromBlock {
			continue
		}
		if q.ToBlock != 0 && l.BlockNumber > q.ToBlock {
			continue
		}
		if !ledger.MatchTopics(l.Topics, filter) {
			continue
		}
		ev, ok, err := ledger.DecodeLog(q.ABI, l)
		if err != nil {
			return nil, err
		}
		if ok {
			events = append(events, ev)
		}
	}
	return events, nil
}

// invoke dispatches calldata to the contract at to. Caller must hold b.mu.
func (b *Backend) invoke(e *env, to common.Address, data []byte) ([]byte, error) {
	c, ok := b.contracts[to]
	if !ok {
		return nil, &ledger.RevertError{Reason: "call to non-contract account"}
	}
	if len(data) < 4 {
		return nil, &ledger.RevertError{Reason: "missing function selector"}
	}
	method, err := c.abi().MethodById(data[:4])
	if err != nil {
		return nil, &ledger.RevertError{Reason: "function selector was not recognized"}
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, &ledger.RevertError{Reason: "malformed calldata"}
	}
	out, err := c.exec(e, method.Name, args)
	if err != nil {
		return nil, err
	}
	return method.Outputs.Pack(out...)
}

func (b *Backend) gasCost(method string) uint64 {
	if gas, ok := b.gasCosts[method]; ok {
		return gas
	}
	return defaultGasCost
}

func (b *Backend) txHash(from common.Address) common.Hash {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], b.block)
	return crypto.Keccak256Hash(from.Bytes(), n[:])
}

func (b *Backend) newEnv(caller, self common.Address) *env {
	return &env{backend: b, caller: caller, self: self, tx: &txState{}}
}
