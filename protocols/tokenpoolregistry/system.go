package tokenpoolregistry

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
)

// TokenPoolSystem is a concurrency-safe TokenPoolRegistry. Writes take the
// mutex; View reads a cached snapshot without locking.
type TokenPoolSystem struct {
	mu         sync.RWMutex
	registry   *TokenPoolRegistry
	cachedView atomic.Pointer[TokenPoolRegistryView]
}

// NewTokenPoolSystem creates an empty system.
func NewTokenPoolSystem() *TokenPoolSystem {
	s := &TokenPoolSystem{
		registry: NewTokenPoolRegistry(),
	}
	s.cachedView.Store(s.registry.view())
	return s
}

// updateCachedView must be called with s.mu held for writing.
func (s *TokenPoolSystem) updateCachedView() {
	s.cachedView.Store(s.registry.view())
}

// AddPools records that pools[i] trades tokenSets[i] and refreshes the view once.
// It panics if the input slices have mismatched lengths.
func (s *TokenPoolSystem) AddPools(pools []common.Address, tokenSets [][]common.Address) {
	if len(pools) != len(tokenSets) {
		panic(fmt.Sprintf("mismatched input lengths: %d pools and %d token sets", len(pools), len(tokenSets)))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(pools) == 0 {
		return
	}
	for i, pool := range pools {
		s.registry.add(tokenSets[i], pool)
	}
	s.updateCachedView()
}

// PoolsForToken returns every pool that trades token.
func (s *TokenPoolSystem) PoolsForToken(token common.Address) []common.Address {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry.poolsForToken(token)
}

// PoolsForPair returns the pools that trade a against b.
func (s *TokenPoolSystem) PoolsForPair(a, b common.Address) []common.Address {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry.poolsForPair(a, b)
}

// View returns a deep copy of the cached snapshot.
func (s *TokenPoolSystem) View() *TokenPoolRegistryView {
	return copyView(s.cachedView.Load())
}
