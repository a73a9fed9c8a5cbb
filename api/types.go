package api

import (
	"context"

	"github.com/defistate/ocean-client-go/factory"
	"github.com/defistate/ocean-client-go/fixedrate"
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

// Exchanges is the read side of the fixed-rate exchange engine.
type Exchanges interface {
	SearchForDT(ctx context.Context, baseToken common.Address, minSupply decimal.Decimal) ([]fixedrate.ExchangeSummary, error)
	GetExchange(ctx context.Context, id fixedrate.ExchangeID) (*fixedrate.Exchange, error)
	CalcInGivenOut(ctx context.Context, id fixedrate.ExchangeID, baseAmount decimal.Decimal) (decimal.Decimal, error)
	CalcOutGivenIn(ctx context.Context, id fixedrate.ExchangeID, quoteAmount decimal.Decimal) (decimal.Decimal, error)
	GetExchangesByCreator(ctx context.Context, creator common.Address) ([]fixedrate.ExchangeID, error)
	GetAllExchangesSwaps(ctx context.Context, account common.Address) ([]fixedrate.SwapRecord, error)
}

// Pools is the read side of the pool factory.
type Pools interface {
	Pools(ctx context.Context) (*factory.PoolSnapshot, error)
}

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// HealthResponse is the body of GET /v1/health.
type HealthResponse struct {
	OK        bool `json:"ok"`
	Exchanges bool `json:"exchanges"`
	Pools     bool `json:"pools"`
}

// QuoteResponse is the body of GET /v1/exchanges/:id/quote.
type QuoteResponse struct {
	ExchangeID  fixedrate.ExchangeID `json:"exchangeId"`
	BaseAmount  decimal.Decimal      `json:"baseAmount"`
	QuoteAmount decimal.Decimal      `json:"quoteAmount"`
}

// ItemsResponse wraps list answers.
type ItemsResponse[T any] struct {
	Items []T `json:"items"`
}

var (
	_ Exchanges = (*fixedrate.Engine)(nil)
	_ Pools     = (*factory.Router)(nil)
)
