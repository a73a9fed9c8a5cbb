package datatoken

import (
	"errors"
	"fmt"
	"strings"

	"github.com/defistate/ocean-client-go/ledger"
)

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrInvalidAmount         = fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	ErrUnauthorized          = errors.New("caller is not the minter")
	ErrCapExceeded           = errors.New("cap exceeded")
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrNotFound              = errors.New("token not found")
)

func classify(reason string) error {
	r := strings.ToLower(reason)
	switch {
	case strings.Contains(r, "invalid minter"):
		return ErrUnauthorized
	case strings.Contains(r, "cap exceeded"):
		return ErrCapExceeded
	case strings.Contains(r, "exceeds allowance"):
		return ErrInsufficientAllowance
	case strings.Contains(r, "exceeds balance"):
		return ErrInsufficientBalance
	case strings.Contains(r, "invalid"), strings.Contains(r, "zero address"):
		return ErrInvalidInput
	}
	return nil
}

func callError(method string, err error) error {
	if reason, ok := ledger.Reason(err); ok {
		if kind := classify(reason); kind != nil {
			return fmt.Errorf("%s: %w: %s", method, kind, reason)
		}
	}
	return fmt.Errorf("%s: %w", method, err)
}
