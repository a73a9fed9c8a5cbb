package factory

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrLengthMismatch   = fmt.Errorf("%w: tokens and weights differ in length", ErrInvalidInput)
	ErrUnauthorized     = errors.New("caller is not the factory owner")
	ErrDeploymentFailed = errors.New("pool deployment failed")
)

// classifyDeploy maps every deployment revert to ErrDeploymentFailed. The
// ledger reason travels with the SubmissionError.
func classifyDeploy(reason string) error {
	return ErrDeploymentFailed
}

// classifyAdmin maps allowlist reverts to domain errors.
func classifyAdmin(reason string) error {
	r := strings.ToLower(reason)
	switch {
	case strings.Contains(r, "not the owner"):
		return ErrUnauthorized
	case strings.Contains(r, "invalid"):
		return ErrInvalidInput
	}
	return nil
}
