package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/defistate/ocean-client-go/fixedrate"
	"github.com/defistate/ocean-client-go/protocols/weightedpool"
	"github.com/ethereum/go-ethereum/common"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// Handlers holds the dependencies of the API endpoints.
type Handlers struct {
	Exchanges Exchanges
	Pools     Pools
	Logger    Logger
	Timeout   time.Duration
}

func (h *Handlers) err(c echo.Context, code int, msg string) error {
	return c.JSON(code, ErrorResponse{Error: msg, Code: code})
}

// fail renders a domain error. Unclassified errors are logged and hidden.
func (h *Handlers) fail(c echo.Context, err error) error {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		h.Logger.Error("Ledger query failed", "path", c.Path(), "err", err)
		return h.err(c, code, "internal server error")
	}
	return h.err(c, code, err.Error())
}

func (h *Handlers) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	d := h.Timeout
	if d <= 0 {
		d = defaultRequestTimeout
	}
	return context.WithTimeout(ctx, d)
}

func parseAddress(s string) (common.Address, bool) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return common.Address{}, false
	}
	return common.HexToAddress(s), true
}

// Health reports which query families are served.
func (h *Handlers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		OK:        true,
		Exchanges: h.Exchanges != nil,
		Pools:     h.Pools != nil,
	})
}

// SearchExchanges lists active exchanges selling baseToken with at least
// minSupply available. minSupply defaults to zero.
func (h *Handlers) SearchExchanges(c echo.Context) error {
	base, ok := parseAddress(c.QueryParam("baseToken"))
	if !ok {
		return h.err(c, http.StatusBadRequest, "invalid baseToken")
	}
	minSupply := decimal.Zero
	if v := strings.TrimSpace(c.QueryParam("minSupply")); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil || d.IsNegative() {
			return h.err(c, http.StatusBadRequest, "invalid minSupply")
		}
		minSupply = d
	}

	ctx, cancel := h.withTimeout(c.Request().Context())
	defer cancel()

	items, err := h.Exchanges.SearchForDT(ctx, base, minSupply)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, ItemsResponse[fixedrate.ExchangeSummary]{Items: items})
}

// GetExchange returns the full state of one exchange.
func (h *Handlers) GetExchange(c echo.Context) error {
	id, err := fixedrate.ParseExchangeID(c.Param("id"))
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid exchange id")
	}

	ctx, cancel := h.withTimeout(c.Request().Context())
	defer cancel()

	ex, err := h.Exchanges.GetExchange(ctx, id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, ex)
}

// Quote prices a swap on one exchange. ?amount=n asks what buying n base
// tokens costs; ?in=n asks how many base tokens n quote tokens buy.
func (h *Handlers) Quote(c echo.Context) error {
	id, err := fixedrate.ParseExchangeID(c.Param("id"))
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid exchange id")
	}
	out, in := strings.TrimSpace(c.QueryParam("amount")), strings.TrimSpace(c.QueryParam("in"))
	if (out == "") == (in == "") {
		return h.err(c, http.StatusBadRequest, "exactly one of amount or in is required")
	}

	ctx, cancel := h.withTimeout(c.Request().Context())
	defer cancel()

	if in != "" {
		quoteAmount, err := decimal.NewFromString(in)
		if err != nil {
			return h.err(c, http.StatusBadRequest, "invalid in")
		}
		baseAmount, err := h.Exchanges.CalcOutGivenIn(ctx, id, quoteAmount)
		if err != nil {
			return h.fail(c, err)
		}
		return c.JSON(http.StatusOK, QuoteResponse{ExchangeID: id, BaseAmount: baseAmount, QuoteAmount: quoteAmount})
	}

	baseAmount, err := decimal.NewFromString(out)
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid amount")
	}
	quoteAmount, err := h.Exchanges.CalcInGivenOut(ctx, id, baseAmount)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, QuoteResponse{ExchangeID: id, BaseAmount: baseAmount, QuoteAmount: quoteAmount})
}

// ExchangesByCreator lists the ids of the exchanges created by an address.
func (h *Handlers) ExchangesByCreator(c echo.Context) error {
	creator, ok := parseAddress(c.Param("address"))
	if !ok {
		return h.err(c, http.StatusBadRequest, "invalid address")
	}

	ctx, cancel := h.withTimeout(c.Request().Context())
	defer cancel()

	ids, err := h.Exchanges.GetExchangesByCreator(ctx, creator)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, ItemsResponse[fixedrate.ExchangeID]{Items: ids})
}

// AccountSwaps lists every swap an address made on any exchange.
func (h *Handlers) AccountSwaps(c echo.Context) error {
	account, ok := parseAddress(c.Param("address"))
	if !ok {
		return h.err(c, http.StatusBadRequest, "invalid address")
	}

	ctx, cancel := h.withTimeout(c.Request().Context())
	defer cancel()

	swaps, err := h.Exchanges.GetAllExchangesSwaps(ctx, account)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, ItemsResponse[fixedrate.SwapRecord]{Items: swaps})
}

// ListPools lists deployed pools, optionally only those holding token.
func (h *Handlers) ListPools(c echo.Context) error {
	var token common.Address
	filter := c.QueryParam("token") != ""
	if filter {
		var ok bool
		if token, ok = parseAddress(c.QueryParam("token")); !ok {
			return h.err(c, http.StatusBadRequest, "invalid token")
		}
	}

	ctx, cancel := h.withTimeout(c.Request().Context())
	defer cancel()

	snapshot, err := h.Pools.Pools(ctx)
	if err != nil {
		return h.fail(c, err)
	}
	var pools []weightedpool.Pool
	if filter {
		pools = snapshot.PoolsForToken(token)
	} else {
		pools = snapshot.All()
	}
	if pools == nil {
		pools = []weightedpool.Pool{}
	}
	return c.JSON(http.StatusOK, ItemsResponse[weightedpool.Pool]{Items: pools})
}
