package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// DefaultGas is the budget used when estimation fails.
	DefaultGas uint64 = 1_000_000
	// DefaultGasMarginPercent pads every successful estimate.
	DefaultGasMarginPercent uint64 = 10
)

// Transactor runs the two-phase submission protocol shared by every
// state-changing operation: best-effort estimation, then a padded send.
// It holds only immutable configuration and is safe for concurrent use.
type Transactor struct {
	backend       Backend
	logger        Logger
	defaultGas    uint64
	marginPercent uint64
	metrics       *Metrics
}

// Option configures a Transactor.
type Option interface {
	apply(*Transactor)
}

type funcOption func(*Transactor)

func (f funcOption) apply(t *Transactor) {
	f(t)
}

func newOption(f func(*Transactor)) Option {
	return funcOption(f)
}

// WithDefaultGas sets the budget used when estimation fails.
func WithDefaultGas(gas uint64) Option {
	return newOption(func(t *Transactor) {
		if gas > 0 {
			t.defaultGas = gas
		}
	})
}

// WithGasMargin sets the percentage added on top of successful estimates.
func WithGasMargin(percent uint64) Option {
	return newOption(func(t *Transactor) {
		t.marginPercent = percent
	})
}

// WithMetrics records estimation and submission metrics on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return newOption(func(t *Transactor) {
		t.metrics = NewMetrics(reg)
	})
}

// NewTransactor creates a Transactor submitting through backend.
func NewTransactor(backend Backend, logger Logger, opts ...Option) (*Transactor, error) {
	if backend == nil {
		return nil, errors.New("config: Backend is required")
	}
	if logger == nil {
		return nil, errors.New("config: Logger is required")
	}
	t := &Transactor{
		backend:       backend,
		logger:        logger,
		defaultGas:    DefaultGas,
		marginPercent: DefaultGasMarginPercent,
	}
	for _, opt := range opts {
		opt.apply(t)
	}
	if t.metrics == nil {
		t.metrics = NewMetrics(nil)
	}
	return t, nil
}

// Backend returns the backend the Transactor submits through.
func (t *Transactor) Backend() Backend {
	return t.backend
}

// Budget estimates the gas for req. Estimation failures are logged and
// replaced by the default budget; they never abort the submission.
func (t *Transactor) Budget(ctx context.Context, req CallRequest) uint64 {
	est, err := t.backend.EstimateGas(ctx, req)
	if err != nil {
		t.metrics.estimations.WithLabelValues(req.Method, outcomeFallback).Inc()
		t.logger.Warn("Gas estimation failed, using default budget",
			"method", req.Method,
			"to", req.To,
			"default_gas", t.defaultGas,
			"error", fmt.Errorf("%w: %v", ErrEstimationFailed, err),
		)
		return t.defaultGas
	}
	t.metrics.estimations.WithLabelValues(req.Method, outcomeOK).Inc()
	return PadGas(est, t.marginPercent)
}

// PadGas adds marginPercent to est, and never returns less than est+1.
func PadGas(est, marginPercent uint64) uint64 {
	padded := est + est*marginPercent/100
	if padded <= est {
		padded = est + 1
	}
	return padded
}

// Submit estimates, pads and sends req, blocking until inclusion. Failures
// are returned as *SubmissionError; classify maps revert reasons to domain
// errors. Submissions are never retried.
func (t *Transactor) Submit(ctx context.Context, req CallRequest, classify Classifier) (*Receipt, error) {
	timer := prometheus.NewTimer(t.metrics.submissionDuration.WithLabelValues(req.Method))
	defer timer.ObserveDuration()

	gas := t.Budget(ctx, req)
	receipt, err := t.backend.Send(ctx, TxRequest{CallRequest: req, Gas: gas})
	if err != nil {
		subErr := &SubmissionError{Method: req.Method, Err: err}
		if reason, ok := Reason(err); ok {
			subErr.Reason = reason
			if classify != nil {
				subErr.Kind = classify(reason)
			}
			t.metrics.submissions.WithLabelValues(req.Method, outcomeReverted).Inc()
		} else {
			subErr.Reason = err.Error()
			t.metrics.submissions.WithLabelValues(req.Method, outcomeFailed).Inc()
		}
		t.logger.Error("Transaction failed",
			"method", req.Method,
			"from", req.From,
			"to", req.To,
			"gas", gas,
			"reason", subErr.Reason,
		)
		return nil, subErr
	}

	t.metrics.submissions.WithLabelValues(req.Method, outcomeOK).Inc()
	t.logger.Info("Transaction included",
		"method", req.Method,
		"tx", receipt.TxHash,
		"block", receipt.BlockNumber,
		"gas", gas,
		"gas_used", receipt.GasUsed,
	)
	return receipt, nil
}
