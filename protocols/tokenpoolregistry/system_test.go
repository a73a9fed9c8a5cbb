package tokenpoolregistry

import (
	"context"
	"math/rand"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenPoolSystem(t *testing.T) {
	t.Run("API_Correctness_Add", func(t *testing.T) {
		s := NewTokenPoolSystem()
		s.AddPools([]common.Address{addr(101)}, [][]common.Address{{addr(10), addr(20)}})
		s.AddPools([]common.Address{addr(102)}, [][]common.Address{{addr(20), addr(30)}})

		assert.ElementsMatch(t, []common.Address{addr(101), addr(102)}, s.PoolsForToken(addr(20)))
		assert.Equal(t, []common.Address{addr(102)}, s.PoolsForPair(addr(30), addr(20)))
		assert.Len(t, s.View().Pools, 2)
	})

	t.Run("API_Correctness_BatchOperations", func(t *testing.T) {
		s := NewTokenPoolSystem()
		s.AddPools(
			[]common.Address{addr(101), addr(102)},
			[][]common.Address{{addr(10), addr(20)}, {addr(10), addr(30), addr(40)}},
		)

		assert.ElementsMatch(t, []common.Address{addr(101), addr(102)}, s.PoolsForToken(addr(10)))
		assert.Equal(t, []common.Address{addr(102)}, s.PoolsForPair(addr(30), addr(40)))

		s.AddPools(nil, nil)
		assert.Len(t, s.View().Pools, 2)

		assert.Panics(t, func() {
			s.AddPools([]common.Address{addr(1)}, nil)
		}, "mismatched inputs should panic")
	})

	t.Run("View_IsLockFreeAndReturnsCopy", func(t *testing.T) {
		s := NewTokenPoolSystem()
		s.AddPools([]common.Address{addr(101)}, [][]common.Address{{addr(10), addr(20)}})

		view1 := s.View()
		require.Len(t, view1.Tokens, 2)
		require.NotEmpty(t, view1.EdgePools)
		originalToken := view1.Tokens[0]
		originalPoolIndex := view1.EdgePools[0][0]

		view1.Tokens[0] = addr(9999)
		view1.EdgePools[0][0] = 8888

		view2 := s.View()
		assert.Equal(t, originalToken, view2.Tokens[0], "internal state should not be affected by modification of view copy")
		assert.Equal(t, originalPoolIndex, view2.EdgePools[0][0])
	})

	t.Run("Concurrency_ReadsAndWrites_WithBatching", func(t *testing.T) {
		s := NewTokenPoolSystem()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		writerWg := &sync.WaitGroup{}
		writerWg.Add(1)
		go func() {
			defer writerWg.Done()
			const batchSize = 20
			var pools []common.Address
			var tokenSets [][]common.Address
			for i := 0; i < 200; i++ {
				pools = append(pools, addr(int64(1000+i)))
				tokenSets = append(tokenSets, []common.Address{addr(int64(i)), addr(int64(i + 1))})
				if len(pools) >= batchSize {
					s.AddPools(pools, tokenSets)
					pools, tokenSets = nil, nil
				}
			}
			if len(pools) > 0 {
				s.AddPools(pools, tokenSets)
			}
		}()

		readerWg := &sync.WaitGroup{}
		numReaders := 10
		readerWg.Add(numReaders)
		for i := 0; i < numReaders; i++ {
			isViewReader := i%2 == 0
			go func(isViewReader bool) {
				defer readerWg.Done()
				for {
					select {
					case <-ctx.Done():
						return
					default:
						if isViewReader {
							_ = s.View()
						} else {
							_ = s.PoolsForToken(addr(int64(rand.Intn(150))))
						}
					}
				}
			}(isViewReader)
		}

		writerWg.Wait()
		cancel()
		readerWg.Wait()

		finalView := s.View()
		assert.Len(t, finalView.Pools, 200)
		assert.Len(t, finalView.Tokens, 201)
	})
}
