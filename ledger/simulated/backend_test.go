package simulated

import (
	"context"
	"math/big"
	"testing"

	"github.com/defistate/ocean-client-go/contracts"
	"github.com/defistate/ocean-client-go/ledger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = common.HexToAddress("0xa11ce")
	bob   = common.HexToAddress("0xb0b")
)

func ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1_000_000_000_000_000_000))
}

func send(t *testing.T, b *Backend, from, to common.Address, method string, args ...any) (*ledger.Receipt, error) {
	t.Helper()
	abi := contracts.DataToken()
	switch method {
	case contracts.MethodCreate, contracts.MethodSwap, contracts.MethodSetExchangeState, contracts.MethodSetRate:
		abi = contracts.FixedRateExchange()
	}
	return b.Send(context.Background(), ledger.TxRequest{
		CallRequest: ledger.CallRequest{From: from, To: to, ABI: abi, Method: method, Args: args},
		Gas:         ledger.DefaultGas,
	})
}

func balanceOf(t *testing.T, b *Backend, token, account common.Address) *big.Int {
	t.Helper()
	out, err := b.Call(context.Background(), ledger.CallRequest{
		To: token, ABI: contracts.DataToken(), Method: contracts.MethodBalanceOf, Args: []any{account},
	})
	require.NoError(t, err)
	return out[0].(*big.Int)
}

func TestSwapIsAtomic(t *testing.T) {
	b := NewBackend()
	exchange := b.DeployFixedRateExchange()
	base := b.DeployToken(alice, "DataToken", "DT", ether(1000))
	quote := b.DeployToken(alice, "Ocean", "OCEAN", ether(1000))
	require.NoError(t, b.Fund(base, alice, ether(10)))
	require.NoError(t, b.Fund(quote, bob, ether(10)))

	receipt, err := send(t, b, alice, exchange, contracts.MethodCreate, base, quote, ether(1))
	require.NoError(t, err)
	id, err := receipt.Value(contracts.EventExchangeCreated, 0)
	require.NoError(t, err)

	// bob approves the quote token but alice never approved the base token,
	// so the second leg fails and the first must be undone.
	_, err = send(t, b, bob, quote, contracts.MethodApprove, exchange, ether(5))
	require.NoError(t, err)

	_, err = send(t, b, bob, exchange, contracts.MethodSwap, id, ether(1))
	reason, ok := ledger.Reason(err)
	require.True(t, ok)
	assert.Equal(t, "ERC20: transfer amount exceeds allowance", reason)

	assert.Equal(t, 0, ether(10).Cmp(balanceOf(t, b, quote, bob)))
	assert.Equal(t, 0, big.NewInt(0).Cmp(balanceOf(t, b, quote, alice)))
}

func TestCallDoesNotPersist(t *testing.T) {
	b := NewBackend()
	token := b.DeployToken(alice, "DataToken", "DT", ether(10))

	_, err := b.Call(context.Background(), ledger.CallRequest{
		From: alice, To: token, ABI: contracts.DataToken(), Method: contracts.MethodMint, Args: []any{alice, ether(1)},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, big.NewInt(0).Cmp(balanceOf(t, b, token, alice)))
}

func TestEstimateGas(t *testing.T) {
	b := NewBackend()
	token := b.DeployToken(alice, "DataToken", "DT", ether(10))
	req := ledger.CallRequest{
		From: alice, To: token, ABI: contracts.DataToken(), Method: contracts.MethodMint, Args: []any{alice, ether(1)},
	}

	gas, err := b.EstimateGas(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, defaultGasCost, gas)

	req.From = bob
	_, err = b.EstimateGas(context.Background(), req)
	assert.Error(t, err, "estimating a reverting call fails")

	b.FailEstimation(contracts.MethodMint)
	req.From = alice
	_, err = b.EstimateGas(context.Background(), req)
	assert.ErrorIs(t, err, ErrEstimationUnavailable)
}

func TestSendRequiresEnoughGas(t *testing.T) {
	b := NewBackend()
	token := b.DeployToken(alice, "DataToken", "DT", ether(10))

	_, err := b.Send(context.Background(), ledger.TxRequest{
		CallRequest: ledger.CallRequest{From: alice, To: token, ABI: contracts.DataToken(), Method: contracts.MethodMint, Args: []any{alice, ether(1)}},
		Gas:         defaultGasCost - 1,
	})
	reason, ok := ledger.Reason(err)
	require.True(t, ok)
	assert.Equal(t, "out of gas", reason)
}

func TestEventsFiltersByIndexedValue(t *testing.T) {
	b := NewBackend()
	token := b.DeployToken(alice, "DataToken", "DT", ether(10))
	require.NoError(t, b.Fund(token, alice, ether(5)))

	_, err := send(t, b, alice, token, contracts.MethodTransfer, bob, ether(1))
	require.NoError(t, err)
	_, err = send(t, b, alice, token, contracts.MethodTransfer, alice, ether(1))
	require.NoError(t, err)

	events, err := b.Events(context.Background(), ledger.EventQuery{
		Contract: token,
		ABI:      contracts.DataToken(),
		Event:    contracts.EventTransfer,
		Indexed:  [][]any{{alice}, {bob}},
	})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, bob, events[0].Values[1])
	assert.Equal(t, uint64(1), events[0].BlockNumber)
}
