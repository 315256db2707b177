package types

import (
	"errors"
	"fmt"
)

// ConfigError is fatal: the affected strategy never starts.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// TransientError wraps an RPC/network failure that may be retried with
// bounded backoff.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient error during %s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// Transient wraps err as retryable. A nil err returns nil.
func Transient(op string, err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Op: op, Err: err}
}

// IsTransient reports whether err is retryable.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// SimulationRevertError means the dry run reverted: the plan is abandoned
// immediately, never retried, and no gas is spent.
type SimulationRevertError struct {
	Reason string
}

func (e *SimulationRevertError) Error() string {
	return fmt.Sprintf("simulation reverted: %s", e.Reason)
}

// ErrSubjectGone means the subject transaction left the mempool (replaced,
// mined, or evicted) before submission.
var ErrSubjectGone = errors.New("subject transaction no longer pending")

// ErrStale means the opportunity's observation height is too far behind the
// current chain height. Expected under normal operation.
var ErrStale = errors.New("opportunity is stale")
