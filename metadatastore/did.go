package metadatastore

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// DIDPrefix is the method prefix of every asset identifier.
const DIDPrefix = "did:op:"

// DID identifies an asset by the address of its datatoken: did:op:<40 hex>.
type DID string

// NewDID derives the DID of the asset whose datatoken is token.
func NewDID(token common.Address) DID {
	return DID(DIDPrefix + strings.ToLower(token.Hex()[2:]))
}

// ParseDID validates s and returns it in canonical lower-case form. The
// bare 40-hex id, with or without 0x, is accepted too.
func ParseDID(s string) (DID, error) {
	id := strings.TrimPrefix(strings.TrimSpace(s), DIDPrefix)
	id = strings.TrimPrefix(strings.TrimPrefix(id, "0x"), "0X")
	if len(id) != 2*common.AddressLength || !isHex(id) {
		return "", fmt.Errorf("%w: %q", ErrInvalidDID, s)
	}
	return DID(DIDPrefix + strings.ToLower(id)), nil
}

func isHex(s string) bool {
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

func (d DID) String() string { return string(d) }

// ID returns the hex part of the DID.
func (d DID) ID() string {
	return strings.TrimPrefix(string(d), DIDPrefix)
}

// Address returns the datatoken address encoded in the DID.
func (d DID) Address() common.Address {
	return common.HexToAddress(d.ID())
}
