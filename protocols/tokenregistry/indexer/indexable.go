package indexer

import (
	"strings"

	"github.com/defistate/ocean-client-go/protocols/tokenregistry"
	"github.com/ethereum/go-ethereum/common"
)

// Indexer builds IndexedTokens snapshots.
type Indexer struct{}

// New creates a new Indexer.
func New() *Indexer {
	return &Indexer{}
}

// Index creates an indexed view from a raw slice of registrations.
func (i *Indexer) Index(tokens []tokenregistry.Token) IndexedTokens {
	return NewIndexableTokens(tokens)
}

// IndexableTokens provides fast, indexed access to registrations.
// Symbols are matched case-insensitively and need not be unique.
type IndexableTokens struct {
	byID         map[uint64]int
	byAddress    map[common.Address]int
	bySymbol     map[string][]int
	byRegistrant map[common.Address][]int
	all          []tokenregistry.Token
}

// NewIndexableTokens creates a new index from a raw slice.
func NewIndexableTokens(tokens []tokenregistry.Token) *IndexableTokens {
	idx := &IndexableTokens{
		byID:         make(map[uint64]int, len(tokens)),
		byAddress:    make(map[common.Address]int, len(tokens)),
		bySymbol:     make(map[string][]int),
		byRegistrant: make(map[common.Address][]int),
		all:          make([]tokenregistry.Token, len(tokens)),
	}
	copy(idx.all, tokens)

	for i, t := range idx.all {
		idx.byID[t.ID] = i
		idx.byAddress[t.Address] = i
		sym := strings.ToUpper(t.Symbol)
		idx.bySymbol[sym] = append(idx.bySymbol[sym], i)
		idx.byRegistrant[t.RegisteredBy] = append(idx.byRegistrant[t.RegisteredBy], i)
	}
	return idx
}

// GetByID retrieves a registration by its order.
func (it *IndexableTokens) GetByID(id uint64) (tokenregistry.Token, bool) {
	i, ok := it.byID[id]
	if !ok {
		return tokenregistry.Token{}, false
	}
	return it.all[i], true
}

// GetByAddress retrieves a registration by token address.
func (it *IndexableTokens) GetByAddress(address common.Address) (tokenregistry.Token, bool) {
	i, ok := it.byAddress[address]
	if !ok {
		return tokenregistry.Token{}, false
	}
	return it.all[i], true
}

// BySymbol returns every registration using symbol.
func (it *IndexableTokens) BySymbol(symbol string) []tokenregistry.Token {
	return it.pick(it.bySymbol[strings.ToUpper(symbol)])
}

// ByRegistrant returns the registrations made by registrant.
func (it *IndexableTokens) ByRegistrant(registrant common.Address) []tokenregistry.Token {
	return it.pick(it.byRegistrant[registrant])
}

// All returns a defensive copy of every registration.
func (it *IndexableTokens) All() []tokenregistry.Token {
	allCopy := make([]tokenregistry.Token, len(it.all))
	copy(allCopy, it.all)
	return allCopy
}

func (it *IndexableTokens) pick(positions []int) []tokenregistry.Token {
	out := make([]tokenregistry.Token, 0, len(positions))
	for _, i := range positions {
		out = append(out, it.all[i])
	}
	return out
}
