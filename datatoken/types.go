package datatoken

import (
	"github.com/defistate/ocean-client-go/ledger"
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

// Token is the on-ledger description of a datatoken.
type Token struct {
	Address     common.Address  `json:"address"`
	Name        string          `json:"name"`
	Symbol      string          `json:"symbol"`
	Decimals    uint8           `json:"decimals"`
	Cap         decimal.Decimal `json:"cap"`
	TotalSupply decimal.Decimal `json:"totalSupply"`
	Minter      common.Address  `json:"minter"`
	Blob        string          `json:"blob"`
}

// Registration is one datatoken recorded by the factory.
type Registration struct {
	Token        common.Address  `json:"tokenAddress"`
	Name         string          `json:"tokenName"`
	Symbol       string          `json:"tokenSymbol"`
	Cap          decimal.Decimal `json:"tokenCap"`
	RegisteredBy common.Address  `json:"registeredBy"`
	Blob         string          `json:"blob"`
	BlockNumber  uint64          `json:"blockNumber"`
}

// CreateResult carries the token address the factory assigned.
type CreateResult struct {
	Token   common.Address
	Receipt *ledger.Receipt
}
