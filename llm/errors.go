package llm

import (
	"errors"
)

// Error kinds for the LLM boundary. Transient errors are retried with
// backoff; fatal errors surface immediately. Quota errors are transient but
// carry their own kind so callers can report them distinctly.

// TransientError represents a temporary failure that may succeed on retry.
type TransientError struct {
	err error
}

func (e *TransientError) Error() string { return e.err.Error() }

func (e *TransientError) Unwrap() error { return e.err }

// NewTransientError wraps an error as transient (retryable).
func NewTransientError(err error) error {
	return &TransientError{err: err}
}

// FatalError represents a permanent failure that must not be retried.
type FatalError struct {
	err error
}

func (e *FatalError) Error() string { return e.err.Error() }

func (e *FatalError) Unwrap() error { return e.err }

// NewFatalError wraps an error as fatal (non-retryable).
func NewFatalError(err error) error {
	return &FatalError{err: err}
}

// QuotaError indicates the provider rejected the call for quota or rate
// reasons. It is retryable, but distinguishable for reporting.
type QuotaError struct {
	err error
}

func (e *QuotaError) Error() string { return e.err.Error() }

func (e *QuotaError) Unwrap() error { return e.err }

// NewQuotaError wraps an error as a quota rejection.
func NewQuotaError(err error) error {
	return &QuotaError{err: err}
}

// IsTransient reports whether the error should be retried.
func IsTransient(err error) bool {
	var transient *TransientError
	var quota *QuotaError
	return errors.As(err, &transient) || errors.As(err, &quota)
}

// IsFatal reports whether the error must not be retried.
func IsFatal(err error) bool {
	var fatal *FatalError
	return errors.As(err, &fatal)
}

// IsQuota reports whether the error is a quota rejection.
func IsQuota(err error) bool {
	var quota *QuotaError
	return errors.As(err, &quota)
}
