// Package ethbackend implements ledger.Backend against an Ethereum JSON-RPC
// node. Transactions are sent with eth_sendTransaction, so the node must
// hold the sender's key.
package ethbackend

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/defistate/ocean-client-go/ledger"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

const defaultReceiptPollInterval = time.Second

// Config holds the configuration for the backend.
type Config struct {
	URL    string
	Logger ledger.Logger
	// ReceiptPollInterval is how often a pending transaction's receipt is
	// polled. Zero means one second.
	ReceiptPollInterval time.Duration
}

func (c *Config) validate() error {
	if c.URL == "" {
		return errors.New("config: URL is required")
	}
	if c.Logger == nil {
		return errors.New("config: Logger is required")
	}
	if c.ReceiptPollInterval < 0 {
		return errors.New("config: ReceiptPollInterval must not be negative")
	}
	return nil
}

// Backend talks to a single node. It is safe for concurrent use.
type Backend struct {
	rpc          *rpc.Client
	eth          *ethclient.Client
	logger       ledger.Logger
	pollInterval time.Duration
}

var _ ledger.Backend = (*Backend)(nil)

// Dial connects to the node at cfg.URL.
func Dial(ctx context.Context, cfg Config) (*Backend, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	rc, err := rpc.DialContext(ctx, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial node: %w", err)
	}
	poll := cfg.ReceiptPollInterval
	if poll == 0 {
		poll = defaultReceiptPollInterval
	}
	cfg.Logger.Info("Connected to node", "url", cfg.URL)
	return &Backend{
		rpc:          rc,
		eth:          ethclient.NewClient(rc),
		logger:       cfg.Logger,
		pollInterval: poll,
	}, nil
}

// Close releases the connection.
func (b *Backend) Close() {
	b.rpc.Close()
}

// ChainID returns the chain id reported by the node.
func (b *Backend) ChainID(ctx context.Context) (*big.Int, error) {
	return b.eth.ChainID(ctx)
}

func callMsg(req ledger.CallRequest, data []byte) ethereum.CallMsg {
	to := req.To
	return ethereum.CallMsg{From: req.From, To: &to, Data: data}
}

// Call runs req with eth_call against the latest block.
func (b *Backend) Call(ctx context.Context, req ledger.CallRequest) ([]any, error) {
	data, err := req.Pack()
	if err != nil {
		return nil, err
	}
	out, err := b.eth.CallContract(ctx, callMsg(req, data), nil)
	if err != nil {
		return nil, decodeRevert(err)
	}
	if len(out) == 0 && len(req.ABI.Methods[req.Method].Outputs) > 0 {
		return nil, &ledger.RevertError{Reason: "call to non-contract account"}
	}
	return req.Unpack(out)
}

// EstimateGas runs eth_estimateGas for req.
func (b *Backend) EstimateGas(ctx context.Context, req ledger.CallRequest) (uint64, error) {
	data, err := req.Pack()
	if err != nil {
		return 0, err
	}
	gas, err := b.eth.EstimateGas(ctx, callMsg(req, data))
	if err != nil {
		return 0, decodeRevert(err)
	}
	return gas, nil
}

type txArgs struct {
	From common.Address `json:"from"`
	To   common.Address `json:"to"`
	Gas  hexutil.Uint64 `json:"gas"`
	Data hexutil.Bytes  `json:"data"`
}

// Send submits req with eth_sendTransaction and blocks until it is included.
// A failed receipt is replayed with eth_call to recover the revert reason.
func (b *Backend) Send(ctx context.Context, req ledger.TxRequest) (*ledger.Receipt, error) {
	data, err := req.Pack()
	if err != nil {
		return nil, err
	}
	var hash common.Hash
	args := txArgs{From: req.From, To: req.To, Gas: hexutil.Uint64(req.Gas), Data: data}
	if err := b.rpc.CallContext(ctx, &hash, "eth_sendTransaction", args); err != nil {
		return nil, decodeRevert(err)
	}
	b.logger.Debug("Transaction sent", "tx", hash, "method", req.Method, "gas", req.Gas)

	receipt, err := b.waitReceipt(ctx, hash)
	if err != nil {
		return nil, err
	}
	if receipt.Status == types.ReceiptStatusFailed {
		return nil, b.replayRevert(ctx, req.CallRequest, data, receipt)
	}

	events, err := ledger.DecodeReceiptLogs(req.ABI, req.To, receipt.Logs)
	if err != nil {
		return nil, err
	}
	return &ledger.Receipt{
		TxHash:      receipt.TxHash,
		BlockNumber: receipt.BlockNumber.Uint64(),
		GasUsed:     receipt.GasUsed,
		GasLimit:    req.Gas,
		Events:      events,
	}, nil
}

func (b *Backend) waitReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(b.pollInterval)
	defer ticker.Stop()
	for {
		receipt, err := b.eth.TransactionReceipt(ctx, hash)
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			return nil, fmt.Errorf("receipt %s: %w", hash, err)
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for %s: %w", hash, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (b *Backend) replayRevert(ctx context.Context, req ledger.CallRequest, data []byte, receipt *types.Receipt) error {
	_, err := b.eth.CallContract(ctx, callMsg(req, data), receipt.BlockNumber)
	if err != nil {
		if reason, ok := ledger.Reason(decodeRevert(err)); ok {
			return &ledger.RevertError{Reason: reason}
		}
	}
	b.logger.Debug("Reverted without reason", "tx", receipt.TxHash, "gas_used", receipt.GasUsed)
	return &ledger.RevertError{}
}

// Events fetches the logs matching q with eth_getLogs.
func (b *Backend) Events(ctx context.Context, q ledger.EventQuery) ([]ledger.Event, error) {
	topics, err := ledger.Topics(q)
	if err != nil {
		return nil, err
	}
	filter := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(q.FromBlock),
		Addresses: []common.Address{q.Contract},
		Topics:    topics,
	}
	if q.ToBlock != 0 {
		filter.ToBlock = new(big.Int).SetUint64(q.ToBlock)
	}
	logs, err := b.eth.FilterLogs(ctx, filter)
	if err != nil {
		return nil, err
	}
	events := make([]ledger.Event, 0, len(logs))
	for i := range logs {
		if logs[i].Removed {
			continue
		}
		ev, ok, err := ledger.DecodeLog(q.ABI, &logs[i])
		if err != nil {
			return nil, err
		}
		if ok {
			events = append(events, ev)
		}
	}
	return events, nil
}

// decodeRevert turns a node's execution-reverted error into a
// *ledger.RevertError. Other errors are returned unchanged.
func decodeRevert(err error) error {
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		if s, ok := dataErr.ErrorData().(string); ok {
			if raw, decErr := hexutil.Decode(s); decErr == nil {
				if reason, unpackErr := abi.UnpackRevert(raw); unpackErr == nil {
					return &ledger.RevertError{Reason: reason}
				}
			}
		}
	}
	msg := err.Error()
	if strings.HasPrefix(msg, "execution reverted") {
		reason := strings.TrimPrefix(strings.TrimPrefix(msg, "execution reverted"), ": ")
		return &ledger.RevertError{Reason: reason}
	}
	return err
}
