// Package tokenregistry describes the datatokens a factory has registered.
package tokenregistry

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Token is one factory registration. ID is the 1-based registration order.
type Token struct {
	ID           uint64          `json:"id"`
	Address      common.Address  `json:"address"`
	Name         string          `json:"name"`
	Symbol       string          `json:"symbol"`
	Cap          decimal.Decimal `json:"cap"`
	RegisteredBy common.Address  `json:"registeredBy"`
	Blob         string          `json:"blob"`
	BlockNumber  uint64          `json:"blockNumber"`
}
