// Package ledger is the boundary between the marketplace engines and the
// ordered transaction log they run against.
package ledger

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Logger defines a standard interface for structured, leveled logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Backend is a connection to a ledger node.
//
// Send blocks until the transaction is included. A transaction that was
// included but reverted is reported as a *RevertError.
type Backend interface {
	Call(ctx context.Context, req CallRequest) ([]any, error)
	EstimateGas(ctx context.Context, req CallRequest) (uint64, error)
	Send(ctx context.Context, req TxRequest) (*Receipt, error)
	Events(ctx context.Context, q EventQuery) ([]Event, error)
}

// CallRequest describes one contract method invocation.
type CallRequest struct {
	From   common.Address
	To     common.Address
	ABI    *abi.ABI
	Method string
	Args   []any
}

// Pack encodes the method selector and arguments.
func (r CallRequest) Pack() ([]byte, error) {
	if r.ABI == nil {
		return nil, fmt.Errorf("%w: nil ABI for %s", ErrInvalidRequest, r.Method)
	}
	data, err := r.ABI.Pack(r.Method, r.Args...)
	if err != nil {
		return nil, fmt.Errorf("%w: pack %s: %v", ErrInvalidRequest, r.Method, err)
	}
	return data, nil
}

// Unpack decodes the method's return data.
func (r CallRequest) Unpack(data []byte) ([]any, error) {
	out, err := r.ABI.Unpack(r.Method, data)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", r.Method, err)
	}
	return out, nil
}

// TxRequest is a state-changing CallRequest with its gas budget.
type TxRequest struct {
	CallRequest
	Gas uint64
}

// Event is a decoded log record. Values holds every input of the event,
// indexed ones included, in declaration order.
type Event struct {
	Name        string         `json:"name"`
	Address     common.Address `json:"address"`
	BlockNumber uint64         `json:"blockNumber"`
	TxHash      common.Hash    `json:"txHash"`
	LogIndex    uint           `json:"logIndex"`
	Values      []any          `json:"values"`
}

// Receipt is the outcome of an included transaction.
// Events holds the logs that decode against the request's ABI, keyed by event name.
type Receipt struct {
	TxHash      common.Hash        `json:"txHash"`
	BlockNumber uint64             `json:"blockNumber"`
	GasUsed     uint64             `json:"gasUsed"`
	GasLimit    uint64             `json:"gasLimit"`
	Events      map[string][]Event `json:"events"`
}

// Event returns the first event with the given name.
func (r *Receipt) Event(name string) (Event, bool) {
	if r == nil {
		return Event{}, false
	}
	evs := r.Events[name]
	if len(evs) == 0 {
		return Event{}, false
	}
	return evs[0], true
}

// Value returns positional value i of the first event with the given name.
func (r *Receipt) Value(name string, i int) (any, error) {
	ev, ok := r.Event(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEventMissing, name)
	}
	if i < 0 || i >= len(ev.Values) {
		return nil, fmt.Errorf("%w: %s has no value %d", ErrEventMissing, name, i)
	}
	return ev.Values[i], nil
}

// EventQuery selects historical events of one contract.
//
// Indexed filters the indexed inputs positionally; an empty entry matches anything.
// ToBlock 0 means the latest block.
type EventQuery struct {
	Contract  common.Address
	ABI       *abi.ABI
	Event     string
	Indexed   [][]any
	FromBlock uint64
	ToBlock   uint64
}
