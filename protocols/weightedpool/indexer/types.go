package indexer

import (
	"github.com/defistate/ocean-client-go/protocols/weightedpool"
	"github.com/ethereum/go-ethereum/common"
)

// IndexedPools is a read-only, indexed view of deployed pools.
type IndexedPools interface {
	GetByAddress(address common.Address) (weightedpool.Pool, bool)
	ByOwner(owner common.Address) []common.Address
	CountByKind(kind weightedpool.Kind) int
	All() []weightedpool.Pool
}
