package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

// File is the on-disk configuration shared by the command-line tools.
// ${VAR} references are expanded from the environment before parsing.
type File struct {
	// Network names a known network. ChainID is used when Network is empty.
	Network     string    `yaml:"network"`
	ChainID     uint64    `yaml:"chainId"`
	ProviderKey string    `yaml:"providerKey"`
	Overrides   Overrides `yaml:"overrides"`
	Redis       Redis     `yaml:"redis"`
	API         API       `yaml:"api"`
}

// Overrides replace individual fields of the resolved network record.
type Overrides struct {
	NodeURI                  string `yaml:"nodeUri"`
	FactoryAddress           string `yaml:"factoryAddress"`
	OceanTokenAddress        string `yaml:"oceanTokenAddress"`
	PoolFactoryAddress       string `yaml:"poolFactoryAddress"`
	FixedRateExchangeAddress string `yaml:"fixedRateExchangeAddress"`
	MetadataStoreURI         string `yaml:"metadataStoreUri"`
	ProviderURI              string `yaml:"providerUri"`
}

// Redis enables the Redis metadata store when Addr is set.
type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// API configures the query service.
type API struct {
	Addr           string        `yaml:"addr"`
	MetricsAddr    string        `yaml:"metricsAddr"`
	RateLimit      float64       `yaml:"rateLimit"`
	Burst          int           `yaml:"burst"`
	RequestTimeout time.Duration `yaml:"requestTimeout"`
}

// LoadFile reads, expands and validates the configuration at path.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return ParseFile(data)
}

// ParseFile expands and validates a YAML configuration document.
func ParseFile(data []byte) (*File, error) {
	expanded := os.ExpandEnv(string(data))

	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if f.API.Addr == "" {
		f.API.Addr = ":8090"
	}
	if f.API.MetricsAddr == "" {
		f.API.MetricsAddr = ":9090"
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *File) validate() error {
	if f.Network == "" && f.ChainID == 0 {
		return errors.New("config: network or chainId is required")
	}
	if f.API.RateLimit < 0 || f.API.Burst < 0 || f.API.RequestTimeout < 0 {
		return errors.New("config: api limits must not be negative")
	}
	for name, v := range map[string]string{
		"factoryAddress":           f.Overrides.FactoryAddress,
		"oceanTokenAddress":        f.Overrides.OceanTokenAddress,
		"poolFactoryAddress":       f.Overrides.PoolFactoryAddress,
		"fixedRateExchangeAddress": f.Overrides.FixedRateExchangeAddress,
	} {
		if v != "" && !common.IsHexAddress(v) {
			return fmt.Errorf("config: overrides.%s %q is not an address", name, v)
		}
	}
	return nil
}

// Resolve looks up the configured network and applies the overrides.
func (f *File) Resolve() (Network, error) {
	var (
		n  Network
		ok bool
	)
	if f.Network != "" {
		n, ok = GetConfig(f.Network, f.ProviderKey)
	} else {
		n, ok = GetConfigByID(f.ChainID, f.ProviderKey)
	}
	if !ok {
		return Network{}, fmt.Errorf("unknown network %q (chain id %d)", f.Network, f.ChainID)
	}

	o := f.Overrides
	if o.NodeURI != "" {
		n.NodeURI = o.NodeURI
	}
	if o.MetadataStoreURI != "" {
		n.MetadataStoreURI = o.MetadataStoreURI
	}
	if o.ProviderURI != "" {
		n.ProviderURI = o.ProviderURI
	}
	setAddress(&n.FactoryAddress, o.FactoryAddress)
	setAddress(&n.OceanTokenAddress, o.OceanTokenAddress)
	setAddress(&n.PoolFactoryAddress, o.PoolFactoryAddress)
	setAddress(&n.FixedRateExchangeAddress, o.FixedRateExchangeAddress)
	return n, nil
}

func setAddress(dst *common.Address, v string) {
	if v != "" {
		*dst = common.HexToAddress(v)
	}
}
