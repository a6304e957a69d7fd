package errors

import (
	"context"
	"errors"
	"fmt"
)

// Wrap wraps an error with additional context while preserving the
// error chain. If err is nil, Wrap returns nil. If err is already a
// structured Error, its code, category, and identifiers carry over.
func Wrap(err error, message string, opts ...Option) *Error {
	if err == nil {
		return nil
	}

	var serr *Error
	if errors.As(err, &serr) {
		wrapped := &Error{
			code:      serr.code,
			category:  serr.category,
			message:   message,
			cause:     err,
			metadata:  serr.Metadata(),
			retryable: serr.retryable,
			worker:    serr.worker,
			taskID:    serr.taskID,
		}
		for _, opt := range opts {
			opt(wrapped)
		}
		return wrapped
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return New(ErrCodeTimeout, message, append(opts, WithCause(err))...)
	}
	if errors.Is(err, context.Canceled) {
		return New(ErrCodeCanceled, message, append(opts, WithCause(err))...)
	}

	return New(ErrCodeInternal, message, append(opts, WithCause(err))...)
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, format string, args ...interface{}) *Error {
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WrapWithCode wraps an error with a specific error code.
func WrapWithCode(err error, code ErrorCode, message string, opts ...Option) *Error {
	if err == nil {
		return nil
	}
	opts = append(opts, WithCause(err))
	return New(code, message, opts...)
}

// AsSwarmError extracts a structured error from an error chain.
// Returns nil if none is found.
func AsSwarmError(err error) SwarmError {
	var serr *Error
	if errors.As(err, &serr) {
		return serr
	}
	return nil
}

// Is checks if any error in the chain has the given error code.
func Is(err error, code ErrorCode) bool {
	var serr *Error
	if errors.As(err, &serr) {
		return serr.code == code
	}
	return false
}

// IsCategory checks if any error in the chain has the given category.
func IsCategory(err error, category ErrorCategory) bool {
	var serr *Error
	if errors.As(err, &serr) {
		return serr.category == category
	}
	return false
}

// IsRetryable checks if the error is retryable. Errors without
// structure default to not retryable.
func IsRetryable(err error) bool {
	var serr *Error
	if errors.As(err, &serr) {
		return serr.Retryable()
	}
	return false
}

// IsTransient checks if the error is transient.
func IsTransient(err error) bool {
	return IsCategory(err, CategoryTransient)
}

// IsPermanent checks if the error is permanent.
func IsPermanent(err error) bool {
	return IsCategory(err, CategoryPermanent)
}
