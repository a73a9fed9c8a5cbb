package indexer

import (
	"github.com/defistate/ocean-client-go/protocols/tokenregistry"
	"github.com/ethereum/go-ethereum/common"
)

// IndexedTokens defines the methods for accessing indexed registrations.
type IndexedTokens interface {
	GetByID(id uint64) (tokenregistry.Token, bool)
	GetByAddress(address common.Address) (tokenregistry.Token, bool)
	BySymbol(symbol string) []tokenregistry.Token
	ByRegistrant(registrant common.Address) []tokenregistry.Token
	All() []tokenregistry.Token
}
