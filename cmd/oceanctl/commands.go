package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/defistate/ocean-client-go/factory"
	"github.com/defistate/ocean-client-go/fixedrate"
	"github.com/defistate/ocean-client-go/ocean"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

var errUsage = errors.New("usage")

type app struct {
	client *ocean.Client
	out    io.Writer
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errUsage
	}
	group, cmd, rest := args[0], args[1], args[2:]
	switch group {
	case "exchange":
		return a.exchange(ctx, cmd, rest)
	case "pool":
		return a.pool(ctx, cmd, rest)
	case "token":
		return a.token(ctx, cmd, rest)
	}
	return errUsage
}

// flags collects the typed values of one subcommand.
type flags struct {
	fs *flag.FlagSet
}

func newFlags(name string) *flags {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return &flags{fs: fs}
}

func (f *flags) parse(args []string) error {
	if err := f.fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	return nil
}

func parseAddress(name, v string) (common.Address, error) {
	if !common.IsHexAddress(v) {
		return common.Address{}, fmt.Errorf("-%s: %q is not an address", name, v)
	}
	return common.HexToAddress(v), nil
}

func parseDecimal(name, v string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("-%s: %w", name, err)
	}
	return d, nil
}

func parseAddresses(name, v string) ([]common.Address, error) {
	var out []common.Address
	for _, part := range strings.Split(v, ",") {
		addr, err := parseAddress(name, strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		out = append(out, addr)
	}
	return out, nil
}

func parseDecimals(name, v string) ([]decimal.Decimal, error) {
	var out []decimal.Decimal
	for _, part := range strings.Split(v, ",") {
		d, err := parseDecimal(name, strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func (a *app) exchange(ctx context.Context, cmd string, args []string) error {
	engine := a.client.FixedRate()
	if engine == nil {
		return errors.New("fixed-rate exchange is not deployed on this network")
	}

	f := newFlags("exchange " + cmd)
	id := f.fs.String("id", "", "Exchange id.")
	from := f.fs.String("from", "", "Sending account.")
	base := f.fs.String("base", "", "Datatoken sold by the exchange.")
	amount := f.fs.String("amount", "", "Datatoken amount.")
	spend := f.fs.String("in", "", "Quote token amount to spend (quote only).")
	rate := f.fs.String("rate", "", "Quote tokens per datatoken.")
	minSupply := f.fs.String("min-supply", "0", "Minimum available supply.")
	if err := f.parse(args); err != nil {
		return err
	}

	exchangeID := func() (fixedrate.ExchangeID, error) { return fixedrate.ParseExchangeID(*id) }
	sender := func() (common.Address, error) { return parseAddress("from", *from) }

	switch cmd {
	case "get":
		eid, err := exchangeID()
		if err != nil {
			return err
		}
		ex, err := engine.GetExchange(ctx, eid)
		if err != nil {
			return err
		}
		return printJSON(a.out, ex)

	case "search":
		baseToken, err := parseAddress("base", *base)
		if err != nil {
			return err
		}
		floor, err := parseDecimal("min-supply", *minSupply)
		if err != nil {
			return err
		}
		hits, err := engine.SearchForDT(ctx, baseToken, floor)
		if err != nil {
			return err
		}
		return printJSON(a.out, hits)

	case "quote":
		eid, err := exchangeID()
		if err != nil {
			return err
		}
		if (*amount == "") == (*spend == "") {
			return fmt.Errorf("%w: exactly one of -amount or -in is required", errUsage)
		}
		if *spend != "" {
			in, err := parseDecimal("in", *spend)
			if err != nil {
				return err
			}
			out, err := engine.CalcOutGivenIn(ctx, eid, in)
			if err != nil {
				return err
			}
			return printJSON(a.out, map[string]any{"exchangeId": eid, "baseAmount": out, "quoteAmount": in})
		}
		amt, err := parseDecimal("amount", *amount)
		if err != nil {
			return err
		}
		in, err := engine.CalcInGivenOut(ctx, eid, amt)
		if err != nil {
			return err
		}
		return printJSON(a.out, map[string]any{"exchangeId": eid, "baseAmount": amt, "quoteAmount": in})

	case "create":
		baseToken, err := parseAddress("base", *base)
		if err != nil {
			return err
		}
		r, err := parseDecimal("rate", *rate)
		if err != nil {
			return err
		}
		creator, err := sender()
		if err != nil {
			return err
		}
		res, err := engine.Create(ctx, baseToken, r, creator)
		if err != nil {
			return err
		}
		return printJSON(a.out, map[string]any{"exchangeId": res.ExchangeID, "txHash": res.Receipt.TxHash})

	case "buy":
		eid, err := exchangeID()
		if err != nil {
			return err
		}
		amt, err := parseDecimal("amount", *amount)
		if err != nil {
			return err
		}
		buyer, err := sender()
		if err != nil {
			return err
		}
		res, err := engine.BuyDT(ctx, eid, amt, buyer)
		if err != nil {
			return err
		}
		return printJSON(a.out, map[string]any{
			"exchangeId":  res.ExchangeID,
			"baseAmount":  res.BaseAmount,
			"quoteAmount": res.QuoteAmount,
			"txHash":      res.Receipt.TxHash,
		})

	case "set-rate", "activate", "deactivate":
		eid, err := exchangeID()
		if err != nil {
			return err
		}
		caller, err := sender()
		if err != nil {
			return err
		}
		var receipt any
		switch cmd {
		case "set-rate":
			r, err := parseDecimal("rate", *rate)
			if err != nil {
				return err
			}
			receipt, err = engine.SetRate(ctx, eid, r, caller)
			if err != nil {
				return err
			}
		case "activate":
			rec, err := engine.Activate(ctx, eid, caller)
			if err != nil {
				return err
			}
			if rec != nil {
				receipt = rec
			}
		default:
			rec, err := engine.Deactivate(ctx, eid, caller)
			if err != nil {
				return err
			}
			if rec != nil {
				receipt = rec
			}
		}
		return printJSON(a.out, map[string]any{"exchangeId": eid, "receipt": receipt})

	case "swaps":
		account, err := sender()
		if err != nil {
			return err
		}
		if *id == "" {
			swaps, err := engine.GetAllExchangesSwaps(ctx, account)
			if err != nil {
				return err
			}
			return printJSON(a.out, swaps)
		}
		eid, err := exchangeID()
		if err != nil {
			return err
		}
		swaps, err := engine.GetExchangeSwaps(ctx, eid, account)
		if err != nil {
			return err
		}
		return printJSON(a.out, swaps)
	}
	return errUsage
}

func (a *app) pool(ctx context.Context, cmd string, args []string) error {
	router := a.client.Router()
	if router == nil {
		return errors.New("pool factory is not deployed on this network")
	}

	f := newFlags("pool " + cmd)
	from := f.fs.String("from", "", "Sending account.")
	name := f.fs.String("name", "", "Pool share name.")
	symbol := f.fs.String("symbol", "", "Pool share symbol.")
	tokens := f.fs.String("tokens", "", "Comma-separated token addresses.")
	weights := f.fs.String("weights", "", "Comma-separated normalized weights.")
	swapFee := f.fs.String("swap-fee", "0.001", "Swap fee fraction.")
	marketFee := f.fs.String("market-fee", "0", "Market fee fraction.")
	owner := f.fs.String("owner", "", "Pool owner, defaults to -from.")
	controller := f.fs.String("controller", "", "Controller of a forked pool.")
	token := f.fs.String("token", "", "Token address.")
	if err := f.parse(args); err != nil {
		return err
	}

	switch cmd {
	case "deploy":
		creator, err := parseAddress("from", *from)
		if err != nil {
			return err
		}
		params := factory.PoolParams{Creator: creator, Name: *name, Symbol: *symbol, Owner: creator}
		if *owner != "" {
			if params.Owner, err = parseAddress("owner", *owner); err != nil {
				return err
			}
		}
		if params.Tokens, err = parseAddresses("tokens", *tokens); err != nil {
			return err
		}
		if params.Weights, err = parseDecimals("weights", *weights); err != nil {
			return err
		}
		if params.SwapFee, err = parseDecimal("swap-fee", *swapFee); err != nil {
			return err
		}
		if params.MarketFee, err = parseDecimal("market-fee", *marketFee); err != nil {
			return err
		}
		res, err := router.DeployPool(ctx, params)
		if err != nil {
			return err
		}
		return printJSON(a.out, map[string]any{"pool": res.Pool, "txHash": res.Receipt.TxHash})

	case "fork":
		creator, err := parseAddress("from", *from)
		if err != nil {
			return err
		}
		ctrl, err := parseAddress("controller", *controller)
		if err != nil {
			return err
		}
		res, err := router.DeployPoolWithFork(ctx, creator, ctrl)
		if err != nil {
			return err
		}
		return printJSON(a.out, map[string]any{"pool": res.Pool, "txHash": res.Receipt.TxHash})

	case "add-ocean-token":
		caller, err := parseAddress("from", *from)
		if err != nil {
			return err
		}
		tok, err := parseAddress("token", *token)
		if err != nil {
			return err
		}
		receipt, err := router.AddOceanToken(ctx, caller, tok)
		if err != nil {
			return err
		}
		return printJSON(a.out, map[string]any{"token": tok, "txHash": receipt.TxHash})

	case "list":
		snapshot, err := router.Pools(ctx)
		if err != nil {
			return err
		}
		if *token == "" {
			return printJSON(a.out, snapshot.All())
		}
		tok, err := parseAddress("token", *token)
		if err != nil {
			return err
		}
		return printJSON(a.out, snapshot.PoolsForToken(tok))
	}
	return errUsage
}

func (a *app) token(ctx context.Context, cmd string, args []string) error {
	dts := a.client.Datatokens()
	if dts == nil {
		return errors.New("datatoken factory is not deployed on this network")
	}

	f := newFlags("token " + cmd)
	from := f.fs.String("from", "", "Sending account.")
	token := f.fs.String("token", "", "Token address.")
	to := f.fs.String("to", "", "Receiving account or spender.")
	amount := f.fs.String("amount", "", "Token amount.")
	tokenCap := f.fs.String("cap", "", "Supply cap of a new datatoken.")
	name := f.fs.String("name", "", "Datatoken name.")
	symbol := f.fs.String("symbol", "", "Datatoken symbol.")
	blob := f.fs.String("blob", "", "Metadata reference stored on the token.")
	if err := f.parse(args); err != nil {
		return err
	}

	sender := func() (common.Address, error) { return parseAddress("from", *from) }

	switch cmd {
	case "create":
		minter, err := sender()
		if err != nil {
			return err
		}
		c, err := parseDecimal("cap", *tokenCap)
		if err != nil {
			return err
		}
		res, err := dts.Create(ctx, *blob, minter, c, *name, *symbol)
		if err != nil {
			return err
		}
		return printJSON(a.out, map[string]any{"token": res.Token, "txHash": res.Receipt.TxHash})

	case "mint", "approve":
		account, err := sender()
		if err != nil {
			return err
		}
		tok, err := parseAddress("token", *token)
		if err != nil {
			return err
		}
		target, err := parseAddress("to", *to)
		if err != nil {
			return err
		}
		amt, err := parseDecimal("amount", *amount)
		if err != nil {
			return err
		}
		if cmd == "mint" {
			receipt, err := dts.Mint(ctx, tok, account, target, amt)
			if err != nil {
				return err
			}
			return printJSON(a.out, map[string]any{"txHash": receipt.TxHash})
		}
		receipt, err := dts.Approve(ctx, tok, account, target, amt)
		if err != nil {
			return err
		}
		return printJSON(a.out, map[string]any{"txHash": receipt.TxHash})

	case "balance":
		account, err := sender()
		if err != nil {
			return err
		}
		tok, err := parseAddress("token", *token)
		if err != nil {
			return err
		}
		bal, err := dts.Balance(ctx, tok, account)
		if err != nil {
			return err
		}
		return printJSON(a.out, map[string]any{"token": tok, "account": account, "balance": bal})
	}
	return errUsage
}
