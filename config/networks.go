// Package config resolves the deployment addresses and service endpoints of
// the known networks. The table is built once at start-up and never mutated.
package config

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Network is the deployment record of one network. Zero addresses and empty
// URIs mean the component is not deployed there.
type Network struct {
	Name                     string         `json:"network" yaml:"network"`
	ChainID                  uint64         `json:"chainId,omitempty" yaml:"chainId"`
	NodeURI                  string         `json:"nodeUri" yaml:"nodeUri"`
	FactoryAddress           common.Address `json:"factoryAddress" yaml:"factoryAddress"`
	OceanTokenAddress        common.Address `json:"oceanTokenAddress" yaml:"oceanTokenAddress"`
	PoolFactoryAddress       common.Address `json:"poolFactoryAddress" yaml:"poolFactoryAddress"`
	FixedRateExchangeAddress common.Address `json:"fixedRateExchangeAddress" yaml:"fixedRateExchangeAddress"`
	MetadataStoreURI         string         `json:"metadataStoreUri" yaml:"metadataStoreUri"`
	ProviderURI              string         `json:"providerUri" yaml:"providerUri"`
}

const (
	Development = "development"
	Rinkeby     = "rinkeby"
	Mainnet     = "mainnet"
	Polygon     = "polygon"
	Moonbase    = "moonbase"
)

var networks = []Network{
	{
		Name:             Development,
		NodeURI:          "http://localhost:8545",
		MetadataStoreURI: "http://127.0.0.1:5000",
		ProviderURI:      "http://127.0.0.1:8030",
	},
	{
		Name:                     Rinkeby,
		ChainID:                  4,
		NodeURI:                  "https://rinkeby.infura.io/v3",
		FactoryAddress:           common.HexToAddress("0x3ECd1429101f93149D799Ef257C07a2B1Dc30897"),
		OceanTokenAddress:        common.HexToAddress("0x8967BCF84170c91B0d24D4302C2376283b0B3a07"),
		PoolFactoryAddress:       common.HexToAddress("0x9B90A1358fbeEC1C4bB1DA7D4E85C708f87556Ec"),
		FixedRateExchangeAddress: common.HexToAddress("0x991c08bD00761A299d3126a81a985329096896D4"),
		MetadataStoreURI:         "https://aquarius.rinkeby.v3.dev-ocean.com",
		ProviderURI:              "https://provider.rinkeby.v3.dev-ocean.com",
	},
	{
		Name:              Mainnet,
		ChainID:           1,
		NodeURI:           "https://mainnet.infura.io/v3",
		OceanTokenAddress: common.HexToAddress("0x985dd3d42de1e256d09e1c10f112bccb8015ad41"),
	},
	{
		Name:    Polygon,
		ChainID: 137,
		NodeURI: "https://polygon-mainnet.infura.io/v3",
	},
	{
		Name:    Moonbase,
		ChainID: 1287,
		NodeURI: "https://rpc.testnet.moonbeam.network",
	},
}

var (
	byName    = make(map[string]int, len(networks))
	byChainID = make(map[uint64]int, len(networks))
)

func init() {
	for i, n := range networks {
		byName[n.Name] = i
		if n.ChainID != 0 {
			byChainID[n.ChainID] = i
		}
	}
}

// GetConfig returns the record of the named network. A non-empty
// providerKey is appended to the node URI as a path segment.
func GetConfig(network, providerKey string) (Network, bool) {
	i, ok := byName[network]
	if !ok {
		return Network{}, false
	}
	return withProviderKey(networks[i], providerKey), true
}

// GetConfigByID returns the record of the network with chainID. The local
// development network has no chain id and is only reachable by name.
func GetConfigByID(chainID uint64, providerKey string) (Network, bool) {
	i, ok := byChainID[chainID]
	if !ok {
		return Network{}, false
	}
	return withProviderKey(networks[i], providerKey), true
}

// Networks returns every known network in table order.
func Networks() []Network {
	out := make([]Network, len(networks))
	copy(out, networks)
	return out
}

func withProviderKey(n Network, providerKey string) Network {
	if providerKey != "" {
		n.NodeURI = strings.TrimSuffix(n.NodeURI, "/") + "/" + providerKey
	}
	return n
}
