package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFile(t *testing.T) {
	t.Setenv("TEST_PROVIDER_KEY", "secret")

	f, err := ParseFile([]byte(`
network: rinkeby
providerKey: ${TEST_PROVIDER_KEY}
overrides:
  fixedRateExchangeAddress: "0x00000000000000000000000000000000000000f1"
  providerUri: http://localhost:8030
redis:
  addr: localhost:6379
  db: 2
api:
  rateLimit: 5
  requestTimeout: 3s
`))
	require.NoError(t, err)
	assert.Equal(t, "secret", f.ProviderKey)
	assert.Equal(t, ":8090", f.API.Addr)
	assert.Equal(t, ":9090", f.API.MetricsAddr)
	assert.Equal(t, 3*time.Second, f.API.RequestTimeout)
	assert.Equal(t, 2, f.Redis.DB)

	n, err := f.Resolve()
	require.NoError(t, err)
	assert.Equal(t, Rinkeby, n.Name)
	assert.Equal(t, "https://rinkeby.infura.io/v3/secret", n.NodeURI)
	assert.Equal(t, common.HexToAddress("0xf1"), n.FixedRateExchangeAddress)
	assert.Equal(t, common.HexToAddress("0x8967BCF84170c91B0d24D4302C2376283b0B3a07"), n.OceanTokenAddress)
	assert.Equal(t, "http://localhost:8030", n.ProviderURI)
}

func TestParseFileByChainID(t *testing.T) {
	f, err := ParseFile([]byte("chainId: 1\n"))
	require.NoError(t, err)
	n, err := f.Resolve()
	require.NoError(t, err)
	assert.Equal(t, Mainnet, n.Name)
}

func TestParseFileErrors(t *testing.T) {
	testCases := []struct {
		name string
		doc  string
	}{
		{name: "no network", doc: "providerKey: x\n"},
		{name: "unknown field", doc: "network: rinkeby\nnodes: []\n"},
		{name: "bad override", doc: "network: rinkeby\noverrides:\n  oceanTokenAddress: ocean\n"},
		{name: "negative burst", doc: "network: rinkeby\napi:\n  burst: -1\n"},
		{name: "not yaml", doc: "network: [rinkeby\n"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseFile([]byte(tc.doc))
			assert.Error(t, err)
		})
	}
}

func TestResolveUnknownNetwork(t *testing.T) {
	f, err := ParseFile([]byte("network: ropsten\n"))
	require.NoError(t, err)
	_, err = f.Resolve()
	assert.ErrorContains(t, err, "unknown network")
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("network: development\n"), 0o600))

	f, err := LoadFile(path)
	require.NoError(t, err)
	n, err := f.Resolve()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8545", n.NodeURI)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
