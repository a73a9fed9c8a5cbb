package fixedrate

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// IndexedExchanges is an immutable snapshot of the registry with fast
// lookups by id, base token and owner. Registry order is preserved.
type IndexedExchanges struct {
	byID        map[ExchangeID]Exchange
	byBaseToken map[common.Address][]ExchangeID
	byOwner     map[common.Address][]ExchangeID
	all         []Exchange
}

// NewIndexedExchanges indexes exchanges, which must be in registry order.
func NewIndexedExchanges(exchanges []Exchange) *IndexedExchanges {
	idx := &IndexedExchanges{
		byID:        make(map[ExchangeID]Exchange, len(exchanges)),
		byBaseToken: make(map[common.Address][]ExchangeID),
		byOwner:     make(map[common.Address][]ExchangeID),
		all:         make([]Exchange, len(exchanges)),
	}
	copy(idx.all, exchanges)
	for _, ex := range exchanges {
		idx.byID[ex.ID] = ex
		idx.byBaseToken[ex.BaseToken] = append(idx.byBaseToken[ex.BaseToken], ex.ID)
		idx.byOwner[ex.Owner] = append(idx.byOwner[ex.Owner], ex.ID)
	}
	return idx
}

// GetByID retrieves an exchange by its identifier.
func (idx *IndexedExchanges) GetByID(id ExchangeID) (Exchange, bool) {
	ex, ok := idx.byID[id]
	return ex, ok
}

// ByOwner returns the ids of the exchanges created by owner.
func (idx *IndexedExchanges) ByOwner(owner common.Address) []ExchangeID {
	ids := idx.byOwner[owner]
	out := make([]ExchangeID, len(ids))
	copy(out, ids)
	return out
}

// Search returns the active exchanges selling baseToken with at least minSupply available.
func (idx *IndexedExchanges) Search(baseToken common.Address, minSupply decimal.Decimal) []ExchangeSummary {
	out := make([]ExchangeSummary, 0)
	for _, id := range idx.byBaseToken[baseToken] {
		ex := idx.byID[id]
		if !ex.Active || ex.Supply.LessThan(minSupply) {
			continue
		}
		out = append(out, ex.Summary())
	}
	return out
}

// All returns a defensive copy of every exchange in registry order.
func (idx *IndexedExchanges) All() []Exchange {
	allCopy := make([]Exchange, len(idx.all))
	copy(allCopy, idx.all)
	return allCopy
}

// Len returns the number of indexed exchanges.
func (idx *IndexedExchanges) Len() int {
	return len(idx.all)
}
