package factory

import (
	"github.com/defistate/ocean-client-go/ledger"
	"github.com/defistate/ocean-client-go/protocols/tokenpoolregistry"
	"github.com/defistate/ocean-client-go/protocols/weightedpool"
	"github.com/defistate/ocean-client-go/protocols/weightedpool/indexer"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Logger defines a standard interface for structured, leveled logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// PoolParams describes a weighted pool to deploy. Weights and fees are
// fractions: weights must sum to 1 and 0.003 is a 0.3% swap fee.
type PoolParams struct {
	Creator   common.Address
	Name      string
	Symbol    string
	Tokens    []common.Address
	Weights   []decimal.Decimal
	SwapFee   decimal.Decimal
	MarketFee decimal.Decimal
	Owner     common.Address
}

// DeployResult carries the pool address the ledger assigned.
type DeployResult struct {
	Pool    common.Address
	Receipt *ledger.Receipt
}

// PoolSnapshot is every pool the factory has deployed, indexed by address
// and by the tokens each pool trades.
type PoolSnapshot struct {
	indexer.IndexedPools
	tokens *tokenpoolregistry.TokenPoolSystem
}

// NewPoolSnapshot indexes pools by address and by the tokens they trade.
func NewPoolSnapshot(pools []weightedpool.Pool) *PoolSnapshot {
	idx := indexer.New().Index(pools)
	tokens := tokenpoolregistry.NewTokenPoolSystem()
	all := idx.All()
	addrs := make([]common.Address, 0, len(all))
	tokenSets := make([][]common.Address, 0, len(all))
	for _, p := range all {
		if len(p.Tokens) == 0 {
			continue
		}
		addrs = append(addrs, p.Address)
		tokenSets = append(tokenSets, p.Tokens)
	}
	tokens.AddPools(addrs, tokenSets)
	return &PoolSnapshot{IndexedPools: idx, tokens: tokens}
}

// PoolsForToken returns the pools that trade token.
func (s *PoolSnapshot) PoolsForToken(token common.Address) []weightedpool.Pool {
	return s.lookup(s.tokens.PoolsForToken(token))
}

// PoolsForPair returns the pools that trade a against b.
func (s *PoolSnapshot) PoolsForPair(a, b common.Address) []weightedpool.Pool {
	return s.lookup(s.tokens.PoolsForPair(a, b))
}

// Graph returns a copy of the token graph.
func (s *PoolSnapshot) Graph() *tokenpoolregistry.TokenPoolRegistryView {
	return s.tokens.View()
}

func (s *PoolSnapshot) lookup(addrs []common.Address) []weightedpool.Pool {
	out := make([]weightedpool.Pool, 0, len(addrs))
	for _, addr := range addrs {
		if p, ok := s.GetByAddress(addr); ok {
			out = append(out, p)
		}
	}
	return out
}
