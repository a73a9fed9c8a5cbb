package fixedrate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/defistate/ocean-client-go/ledger"
)

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrInvalidRate           = fmt.Errorf("%w: rate must be positive", ErrInvalidInput)
	ErrInvalidAmount         = fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	ErrUnauthorized          = errors.New("caller is not the exchange owner")
	ErrNotFound              = errors.New("exchange not found")
	ErrDuplicateExchange     = errors.New("exchange already exists")
	ErrExchangeInactive      = errors.New("exchange is not active")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrInsufficientBalance   = errors.New("insufficient balance")
)

// classify maps a ledger revert reason to a domain error.
func classify(reason string) error {
	r := strings.ToLower(reason)
	switch {
	case strings.Contains(r, "already exists"):
		return ErrDuplicateExchange
	case strings.Contains(r, "does not exist"):
		return ErrNotFound
	case strings.Contains(r, "not active"):
		return ErrExchangeInactive
	case strings.Contains(r, "exchange owner"):
		return ErrUnauthorized
	case strings.Contains(r, "exceeds allowance"):
		return ErrInsufficientAllowance
	case strings.Contains(r, "exceeds balance"):
		return ErrInsufficientBalance
	case strings.Contains(r, "exchange rate"):
		return ErrInvalidRate
	case strings.Contains(r, "invalid amount"):
		return ErrInvalidAmount
	case strings.Contains(r, "invalid"):
		return ErrInvalidInput
	}
	return nil
}

// callError classifies a reverted read-only call.
func callError(method string, err error) error {
	reason, ok := ledger.Reason(err)
	if !ok {
		return fmt.Errorf("%s: %w", method, err)
	}
	if kind := classify(reason); kind != nil {
		return fmt.Errorf("%s: %w: %s", method, kind, reason)
	}
	return fmt.Errorf("%s: %w", method, err)
}
