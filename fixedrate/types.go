package fixedrate

import (
	"fmt"

	"github.com/defistate/ocean-client-go/ledger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"
)

// Logger defines a standard interface for structured, leveled logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// ExchangeID is the opaque 32-byte identifier the registry assigns on creation.
type ExchangeID [32]byte

func (id ExchangeID) String() string {
	return hexutil.Encode(id[:])
}

// MarshalText encodes the id as 0x-prefixed hex.
func (id ExchangeID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText decodes a 0x-prefixed 32-byte hex identifier.
func (id *ExchangeID) UnmarshalText(text []byte) error {
	parsed, err := ParseExchangeID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ParseExchangeID decodes a 0x-prefixed 32-byte hex identifier.
func ParseExchangeID(s string) (ExchangeID, error) {
	raw, err := hexutil.Decode(s)
	if err != nil {
		return ExchangeID{}, fmt.Errorf("%w: exchange id %q: %v", ErrInvalidInput, s, err)
	}
	if len(raw) != 32 {
		return ExchangeID{}, fmt.Errorf("%w: exchange id %q has %d bytes", ErrInvalidInput, s, len(raw))
	}
	var id ExchangeID
	copy(id[:], raw)
	return id, nil
}

// Exchange is the on-ledger state of one fixed-rate exchange.
//
// FixedRate is quote-per-base: buying n base tokens costs n*FixedRate quote
// tokens. Supply is what the owner can still deliver, zero when inactive.
type Exchange struct {
	ID            ExchangeID      `json:"id"`
	Owner         common.Address  `json:"exchangeOwner"`
	BaseToken     common.Address  `json:"baseToken"`
	QuoteToken    common.Address  `json:"quoteToken"`
	FixedRate     decimal.Decimal `json:"fixedRate"`
	Active        bool            `json:"active"`
	Supply        decimal.Decimal `json:"supply"`
	SwapCount     uint64          `json:"swapCount"`
	BaseSupplied  decimal.Decimal `json:"baseSupplied"`
	QuoteSupplied decimal.Decimal `json:"quoteSupplied"`
}

// ExchangeSummary is one searchForDT hit.
type ExchangeSummary struct {
	ID         ExchangeID      `json:"id"`
	Owner      common.Address  `json:"exchangeOwner"`
	BaseToken  common.Address  `json:"baseToken"`
	QuoteToken common.Address  `json:"quoteToken"`
	FixedRate  decimal.Decimal `json:"fixedRate"`
	Supply     decimal.Decimal `json:"supply"`
}

// Summary returns the search view of ex.
func (ex Exchange) Summary() ExchangeSummary {
	return ExchangeSummary{
		ID:         ex.ID,
		Owner:      ex.Owner,
		BaseToken:  ex.BaseToken,
		QuoteToken: ex.QuoteToken,
		FixedRate:  ex.FixedRate,
		Supply:     ex.Supply,
	}
}

// SwapRecord is one historical swap.
type SwapRecord struct {
	ExchangeID  ExchangeID      `json:"exchangeId"`
	Buyer       common.Address  `json:"by"`
	BaseAmount  decimal.Decimal `json:"baseTokenSwappedAmount"`
	QuoteAmount decimal.Decimal `json:"quoteTokenSwappedAmount"`
	BlockNumber uint64          `json:"blockNumber"`
	TxHash      common.Hash     `json:"txHash"`
}

// CreateResult carries the identifier the ledger recorded for a new exchange.
type CreateResult struct {
	ExchangeID ExchangeID
	Receipt    *ledger.Receipt
}

// SwapResult carries the amounts the ledger actually exchanged.
type SwapResult struct {
	ExchangeID  ExchangeID
	Buyer       common.Address
	BaseAmount  decimal.Decimal
	QuoteAmount decimal.Decimal
	Receipt     *ledger.Receipt
}
