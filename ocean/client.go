// Package ocean wires the marketplace components of one network behind a
// single client.
package ocean

import (
	"context"
	"errors"
	"fmt"

	"github.com/defistate/ocean-client-go/config"
	"github.com/defistate/ocean-client-go/datatoken"
	"github.com/defistate/ocean-client-go/factory"
	"github.com/defistate/ocean-client-go/fixedrate"
	"github.com/defistate/ocean-client-go/ledger"
	"github.com/defistate/ocean-client-go/ledger/ethbackend"
	"github.com/defistate/ocean-client-go/metadatastore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
)

// Logger defines a standard interface for structured, leveled logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Client exposes the components deployed on one network. A component whose
// addresses are missing from the network record is nil.
type Client struct {
	network config.Network
	logger  Logger
	backend ledger.Backend
	closer  func()
	tx      *ledger.Transactor

	fixedRate  *fixedrate.Engine
	router     *factory.Router
	datatokens *datatoken.Client
	metadata   metadatastore.Store

	txOpts []ledger.Option
}

// Option configures the Client.
// The interface method is unexported to prevent external modification after Dial.
type Option interface {
	apply(*Client)
}

type funcOption func(*Client)

func (f funcOption) apply(c *Client) {
	f(c)
}

func newOption(f func(*Client)) Option {
	return funcOption(f)
}

// WithBackend uses backend instead of dialing network.NodeURI.
func WithBackend(backend ledger.Backend) Option {
	return newOption(func(c *Client) {
		c.backend = backend
	})
}

// WithMetadataStore replaces the metadata store derived from the network record.
func WithMetadataStore(store metadatastore.Store) Option {
	return newOption(func(c *Client) {
		c.metadata = store
	})
}

// WithTransactorOptions passes opts to the shared Transactor.
func WithTransactorOptions(opts ...ledger.Option) Option {
	return newOption(func(c *Client) {
		c.txOpts = append(c.txOpts, opts...)
	})
}

// Dial connects to network and builds every component it has addresses for.
func Dial(
	ctx context.Context,
	network config.Network,
	logger Logger,
	prometheusRegistry prometheus.Registerer,
	opts ...Option,
) (*Client, error) {
	if logger == nil {
		return nil, errors.New("config: Logger is required")
	}
	c := &Client{
		network: network,
		logger:  logger,
		closer:  func() {},
	}
	for _, opt := range opts {
		opt.apply(c)
	}

	if c.backend == nil {
		if network.NodeURI == "" {
			return nil, fmt.Errorf("network %q has no node uri", network.Name)
		}
		b, err := ethbackend.Dial(ctx, ethbackend.Config{URL: network.NodeURI, Logger: logger})
		if err != nil {
			return nil, err
		}
		c.backend = b
		c.closer = b.Close
	}

	txOpts := append([]ledger.Option{ledger.WithMetrics(prometheusRegistry)}, c.txOpts...)
	tx, err := ledger.NewTransactor(c.backend, logger, txOpts...)
	if err != nil {
		c.closer()
		return nil, fmt.Errorf("failed to create transactor: %w", err)
	}
	c.tx = tx

	if err := c.build(); err != nil {
		c.closer()
		return nil, err
	}

	c.logger.Info("Client ready",
		"network", network.Name,
		"fixedRate", c.fixedRate != nil,
		"router", c.router != nil,
		"datatokens", c.datatokens != nil,
	)
	return c, nil
}

func (c *Client) build() error {
	n := c.network
	zero := common.Address{}

	if n.FixedRateExchangeAddress != zero && n.OceanTokenAddress != zero {
		e, err := fixedrate.New(fixedrate.Config{
			Address:    n.FixedRateExchangeAddress,
			QuoteToken: n.OceanTokenAddress,
			Transactor: c.tx,
			Logger:     c.logger,
		})
		if err != nil {
			return fmt.Errorf("failed to create fixed-rate engine: %w", err)
		}
		c.fixedRate = e
	} else {
		c.logger.Warn("Fixed-rate exchange disabled", "network", n.Name)
	}

	if n.PoolFactoryAddress != zero {
		r, err := factory.New(factory.Config{Address: n.PoolFactoryAddress, Transactor: c.tx, Logger: c.logger})
		if err != nil {
			return fmt.Errorf("failed to create pool factory: %w", err)
		}
		c.router = r
	} else {
		c.logger.Warn("Pool factory disabled", "network", n.Name)
	}

	if n.FactoryAddress != zero {
		d, err := datatoken.New(datatoken.Config{Factory: n.FactoryAddress, Transactor: c.tx, Logger: c.logger})
		if err != nil {
			return fmt.Errorf("failed to create datatoken client: %w", err)
		}
		c.datatokens = d
	} else {
		c.logger.Warn("Datatoken factory disabled", "network", n.Name)
	}

	if c.metadata == nil {
		if n.MetadataStoreURI != "" {
			s, err := metadatastore.NewAquariusStore(n.MetadataStoreURI)
			if err != nil {
				return err
			}
			c.metadata = s
		} else {
			c.metadata = metadatastore.NewMemoryStore(n.ProviderURI)
		}
	}
	return nil
}

// Close releases the node connection if Dial opened one.
func (c *Client) Close() {
	c.closer()
}

// Network returns the record the client was built from.
func (c *Client) Network() config.Network { return c.network }

// Backend returns the ledger connection shared by every component.
func (c *Client) Backend() ledger.Backend { return c.backend }

// Transactor returns the shared submission pipeline.
func (c *Client) Transactor() *ledger.Transactor { return c.tx }

// FixedRate returns the fixed-rate exchange engine, or nil if not deployed.
func (c *Client) FixedRate() *fixedrate.Engine { return c.fixedRate }

// Router returns the pool factory, or nil if not deployed.
func (c *Client) Router() *factory.Router { return c.router }

// Datatokens returns the datatoken client, or nil if not deployed.
func (c *Client) Datatokens() *datatoken.Client { return c.datatokens }

// Metadata returns the metadata store.
func (c *Client) Metadata() metadatastore.Store { return c.metadata }
