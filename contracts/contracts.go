// Package contracts embeds the ABI descriptors of the marketplace contracts.
// Each ABI is parsed once at init and shared read-only by every engine.
package contracts

import (
	"bytes"
	"embed"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

//go:embed abi/*.json
var files embed.FS

// Method names used by the engines.
const (
	MethodCreate               = "create"
	MethodGenerateExchangeID   = "generateExchangeId"
	MethodCalcInGivenOut       = "CalcInGivenOut"
	MethodSwap                 = "swap"
	MethodSetRate              = "setRate"
	MethodSetExchangeState     = "setExchangeState"
	MethodGetRate              = "getRate"
	MethodGetSupply            = "getSupply"
	MethodIsActive             = "isActive"
	MethodGetNumberOfExchanges = "getNumberOfExchanges"
	MethodGetExchanges         = "getExchanges"
	MethodGetExchange          = "getExchange"

	MethodDeployPool         = "deployPool"
	MethodDeployPoolWithFork = "deployPoolWithFork"
	MethodAddOceanToken      = "addOceanToken"
	MethodOceanTokens        = "oceanTokens"
	MethodOwner              = "owner"

	MethodCreateToken          = "createToken"
	MethodGetCurrentTokenCount = "getCurrentTokenCount"

	MethodName         = "name"
	MethodSymbol       = "symbol"
	MethodDecimals     = "decimals"
	MethodCap          = "cap"
	MethodTotalSupply  = "totalSupply"
	MethodMinter       = "minter"
	MethodBlob         = "blob"
	MethodBalanceOf    = "balanceOf"
	MethodAllowance    = "allowance"
	MethodApprove      = "approve"
	MethodTransfer     = "transfer"
	MethodTransferFrom = "transferFrom"
	MethodMint         = "mint"
)

// Event names used by the engines.
const (
	EventExchangeCreated     = "ExchangeCreated"
	EventExchangeRateChanged = "ExchangeRateChanged"
	EventExchangeActivated   = "ExchangeActivated"
	EventExchangeDeactivated = "ExchangeDeactivated"
	EventSwapped             = "Swapped"

	EventNewPool         = "NewPool"
	EventNewPoolFork     = "NewPoolFork"
	EventOceanTokenAdded = "OceanTokenAdded"

	EventTokenRegistered = "TokenRegistered"

	EventTransfer = "Transfer"
	EventApproval = "Approval"
)

var (
	fixedRateExchange abi.ABI
	factoryRouter     abi.ABI
	dtFactory         abi.ABI
	dataToken         abi.ABI
)

func init() {
	fixedRateExchange = mustParse("abi/FixedRateExchange.json")
	factoryRouter = mustParse("abi/FactoryRouter.json")
	dtFactory = mustParse("abi/DTFactory.json")
	dataToken = mustParse("abi/DataTokenTemplate.json")
}

func mustParse(name string) abi.ABI {
	raw, err := files.ReadFile(name)
	if err != nil {
		panic(fmt.Sprintf("contracts: read %s: %v", name, err))
	}
	parsed, err := abi.JSON(bytes.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("contracts: parse %s: %v", name, err))
	}
	return parsed
}

// FixedRateExchange returns the ABI of the fixed-rate exchange registry.
func FixedRateExchange() *abi.ABI { return &fixedRateExchange }

// FactoryRouter returns the ABI of the pool factory.
func FactoryRouter() *abi.ABI { return &factoryRouter }

// DTFactory returns the ABI of the datatoken factory.
func DTFactory() *abi.ABI { return &dtFactory }

// DataToken returns the ABI of the ERC20 datatoken template.
func DataToken() *abi.ABI { return &dataToken }
