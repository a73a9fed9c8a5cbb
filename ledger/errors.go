package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest is returned when a request cannot be encoded against its ABI.
	ErrInvalidRequest = errors.New("invalid ledger request")
	// ErrEstimationFailed marks a failed gas estimation. It is recovered by the
	// Transactor and never returned to engine callers.
	ErrEstimationFailed = errors.New("gas estimation failed")
	// ErrSubmissionFailed is returned when the ledger rejects or reverts a transaction.
	ErrSubmissionFailed = errors.New("transaction submission failed")
	// ErrEventMissing is returned when a receipt lacks an expected event.
	ErrEventMissing = errors.New("expected event missing from receipt")
)

// RevertError carries the ledger's revert reason verbatim.
type RevertError struct {
	Reason string
}

func (e *RevertError) Error() string {
	if e.Reason == "" {
		return "execution reverted"
	}
	return "execution reverted: " + e.Reason
}

// Reason extracts the revert reason from err, if it carries one.
func Reason(err error) (string, bool) {
	var revert *RevertError
	if errors.As(err, &revert) {
		return revert.Reason, true
	}
	return "", false
}

// Classifier maps a revert reason to a domain error, or nil when unknown.
type Classifier func(reason string) error

// SubmissionError reports a failed state-changing call. It matches
// ErrSubmissionFailed, the classified domain error (if any) and the
// underlying cause under errors.Is.
type SubmissionError struct {
	Method string
	Reason string
	Kind   error
	Err    error
}

func (e *SubmissionError) Error() string {
	if e.Kind != nil {
		return fmt.Sprintf("%s: %v: %s", e.Method, e.Kind, e.Reason)
	}
	return fmt.Sprintf("%s: %v: %s", e.Method, ErrSubmissionFailed, e.Reason)
}

func (e *SubmissionError) Unwrap() []error {
	errs := []error{ErrSubmissionFailed}
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}
