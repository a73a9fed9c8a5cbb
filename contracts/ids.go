package contracts

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var exchangeIDArgs abi.Arguments

func init() {
	address, err := abi.NewType("address", "", nil)
	if err != nil {
		panic(fmt.Sprintf("contracts: address type: %v", err))
	}
	exchangeIDArgs = abi.Arguments{{Type: address}, {Type: address}, {Type: address}}
}

// ExchangeID derives the identifier the exchange registry assigns to
// (baseToken, quoteToken, owner): keccak256(abi.encode(base, quote, owner)).
func ExchangeID(baseToken, quoteToken, owner common.Address) [32]byte {
	packed, err := exchangeIDArgs.Pack(baseToken, quoteToken, owner)
	if err != nil {
		// static address tuple, cannot fail
		panic(fmt.Sprintf("contracts: pack exchange id: %v", err))
	}
	return crypto.Keccak256Hash(packed)
}
