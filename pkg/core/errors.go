package core

import (
	"context"
	"errors"
	"fmt"
	"net"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
)

// ErrorCategory describes the class of an error encountered while reconciling.
type ErrorCategory string

const (
	// ErrorCategoryNone indicates no error.
	ErrorCategoryNone ErrorCategory = ""
	// ErrorCategoryRBAC indicates insufficient permissions (Forbidden/Unauthorized).
	ErrorCategoryRBAC ErrorCategory = "rbac"
	// ErrorCategoryTransient indicates a retryable failure against the object store.
	ErrorCategoryTransient ErrorCategory = "transient"
	// ErrorCategoryPermanent indicates a failure that needs a spec change or human intervention.
	ErrorCategoryPermanent ErrorCategory = "permanent"
)

// ClassifiedError wraps an error with its detected category.
type ClassifiedError struct {
	Err      error
	Category ErrorCategory
}

func (e *ClassifiedError) Error() string { return e.Err.Error() }

func (e *ClassifiedError) Unwrap() error { return e.Err }

// Permanent marks err as non-retryable regardless of its underlying type.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &ClassifiedError{Err: err, Category: ErrorCategoryPermanent}
}

// SchemaError reports a Bot body that cannot be decoded into BotSpec.
type SchemaError struct {
	Field string
	Err   error
}

func (e *SchemaError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("malformed Bot: %v", e.Err)
	}
	return fmt.Sprintf("malformed Bot: %s: %v", e.Field, e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }

// IsSchemaError reports whether err wraps a SchemaError.
func IsSchemaError(err error) bool {
	var schemaErr *SchemaError
	return errors.As(err, &schemaErr)
}

// ClassifyError inspects an error and returns the appropriate category.
func ClassifyError(err error) ErrorCategory {
	if err == nil {
		return ErrorCategoryNone
	}
	// Walk the error chain to find a concrete classification.
	for current := err; current != nil; current = errors.Unwrap(current) {
		if classified, ok := current.(*ClassifiedError); ok && classified.Category != ErrorCategoryNone {
			return classified.Category
		}
		switch {
		case apierrors.IsForbidden(current) || apierrors.IsUnauthorized(current):
			return ErrorCategoryRBAC
		case apierrors.IsTooManyRequests(current), apierrors.IsTimeout(current), apierrors.IsServerTimeout(current):
			return ErrorCategoryTransient
		case apierrors.IsConflict(current), apierrors.IsAlreadyExists(current):
			// Losing an optimistic-concurrency race is retried against a fresh read.
			return ErrorCategoryTransient
		case apierrors.IsServiceUnavailable(current), apierrors.IsInternalError(current), apierrors.IsUnexpectedServerError(current):
			return ErrorCategoryTransient
		case apierrors.IsInvalid(current), apierrors.IsBadRequest(current):
			return ErrorCategoryPermanent
		}
		// Handle context cancellations and deadlines as transient issues.
		if errors.Is(current, context.DeadlineExceeded) || errors.Is(current, context.Canceled) {
			return ErrorCategoryTransient
		}
		// Net errors can expose retry semantics via the Timeout method.
		if ne, ok := current.(net.Error); ok {
			if ne.Timeout() {
				return ErrorCategoryTransient
			}
		}
		var opErr *net.OpError
		if errors.As(current, &opErr) {
			return ErrorCategoryTransient
		}
	}
	return ErrorCategoryPermanent
}

// IsRetryable reports whether err should feed the exponential backoff path.
func IsRetryable(err error) bool {
	return ClassifyError(err) == ErrorCategoryTransient
}
