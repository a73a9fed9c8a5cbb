package indexer

import (
	"github.com/defistate/ocean-client-go/protocols/weightedpool"
	"github.com/ethereum/go-ethereum/common"
)

type Indexer struct{}

// New creates a new Indexer.
func New() *Indexer {
	return &Indexer{}
}

// Index creates an indexed pool set from pools in deployment order.
func (i *Indexer) Index(pools []weightedpool.Pool) IndexedPools {
	return NewIndexablePools(pools)
}

// IndexablePools provides fast, indexed access to deployed pools.
type IndexablePools struct {
	byAddress map[common.Address]weightedpool.Pool
	byOwner   map[common.Address][]common.Address
	byKind    map[weightedpool.Kind]int
	all       []weightedpool.Pool
}

// NewIndexablePools indexes pools. The first entry for an address wins.
func NewIndexablePools(pools []weightedpool.Pool) *IndexablePools {
	ip := &IndexablePools{
		byAddress: make(map[common.Address]weightedpool.Pool, len(pools)),
		byOwner:   make(map[common.Address][]common.Address),
		byKind:    make(map[weightedpool.Kind]int),
		all:       make([]weightedpool.Pool, 0, len(pools)),
	}
	for _, p := range pools {
		if _, dup := ip.byAddress[p.Address]; dup {
			continue
		}
		ip.byAddress[p.Address] = p
		ip.byOwner[p.Owner] = append(ip.byOwner[p.Owner], p.Address)
		ip.byKind[p.Kind]++
		ip.all = append(ip.all, p)
	}
	return ip
}

// GetByAddress retrieves a pool by its contract address.
func (ip *IndexablePools) GetByAddress(address common.Address) (weightedpool.Pool, bool) {
	p, ok := ip.byAddress[address]
	return p, ok
}

// ByOwner returns the addresses of the pools owned by owner.
func (ip *IndexablePools) ByOwner(owner common.Address) []common.Address {
	addrs := ip.byOwner[owner]
	out := make([]common.Address, len(addrs))
	copy(out, addrs)
	return out
}

// CountByKind returns how many pools of kind are indexed.
func (ip *IndexablePools) CountByKind(kind weightedpool.Kind) int {
	return ip.byKind[kind]
}

// All returns a defensive copy of every pool in deployment order.
func (ip *IndexablePools) All() []weightedpool.Pool {
	allCopy := make([]weightedpool.Pool, len(ip.all))
	copy(allCopy, ip.all)
	return allCopy
}
