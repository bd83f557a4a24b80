package driver

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound reports that a remote resource does not exist.
var ErrNotFound = errors.New("resource not found")

// TransientError marks a failure worth retrying: timeouts, rate limits,
// temporarily locked resources.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return e.Err.Error() }

func (e *TransientError) Unwrap() error { return e.Err }

// PermanentError marks a failure that retrying cannot fix: validation,
// permission, conflicting remote state.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }

func (e *PermanentError) Unwrap() error { return e.Err }

// Transient wraps an error as retryable.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// Permanent wraps an error as non-retryable.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// Transientf formats a retryable error.
func Transientf(format string, args ...any) error {
	return &TransientError{Err: fmt.Errorf(format, args...)}
}

// Permanentf formats a non-retryable error.
func Permanentf(format string, args ...any) error {
	return &PermanentError{Err: fmt.Errorf(format, args...)}
}

// IsTransient reports whether the error is marked retryable.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// IsPermanent reports whether the error is marked non-retryable.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

// Classify wraps an unmarked provider error using message heuristics.
// Locked or rate-limited resources are retried; invalid parameters are not.
// Unrecognized errors default to transient so that flaky provider calls get
// their retry budget.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if IsTransient(err) || IsPermanent(err) {
		return err
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "invalid"),
		strings.Contains(msg, "forbidden"),
		strings.Contains(msg, "permission"),
		strings.Contains(msg, "unauthorized"),
		strings.Contains(msg, "does not exist"):
		return Permanent(err)
	case strings.Contains(msg, "locked"),
		strings.Contains(msg, "conflict"),
		strings.Contains(msg, "is busy"),
		strings.Contains(msg, "rate limit"),
		strings.Contains(msg, "timeout"),
		strings.Contains(msg, "temporarily"):
		return Transient(err)
	default:
		return Transient(err)
	}
}
