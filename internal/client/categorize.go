package client

import (
	"context"
	"errors"
	"strings"
)

// ErrorCategory is a stable label for error classification in metrics.
type ErrorCategory string

// Error category constants used as metric labels (weatherApiErrorsTotal, fetchCyclesTotal).
const (
	ErrorCategoryTimeout          ErrorCategory = "timeout"
	ErrorCategoryNetwork          ErrorCategory = "network"
	ErrorCategoryAuth             ErrorCategory = "auth"
	ErrorCategoryRateLimited      ErrorCategory = "rate_limited"
	ErrorCategoryUpstream5xx      ErrorCategory = "upstream_5xx"
	ErrorCategoryLocationNotFound ErrorCategory = "location_not_found"
	ErrorCategoryProvider         ErrorCategory = "provider"
	ErrorCategoryValidation       ErrorCategory = "validation"
	ErrorCategoryUnknown          ErrorCategory = "unknown"
)

// CategorizeError maps an error to a stable ErrorCategory for metrics.
// ErrLocationNotFound is checked before ErrProvider because not-found payloads match both.
func CategorizeError(err error) ErrorCategory {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrRequestTimeout), errors.Is(err, context.DeadlineExceeded):
		return ErrorCategoryTimeout
	case errors.Is(err, ErrTransport), errors.Is(err, context.Canceled):
		return ErrorCategoryNetwork
	case errors.Is(err, ErrAuth):
		return ErrorCategoryAuth
	case errors.Is(err, ErrRateLimited):
		return ErrorCategoryRateLimited
	case errors.Is(err, ErrServiceUnavailable):
		return ErrorCategoryUpstream5xx
	case errors.Is(err, ErrLocationNotFound):
		return ErrorCategoryLocationNotFound
	case errors.Is(err, ErrProvider):
		return ErrorCategoryProvider
	}

	errStr := err.Error()
	if strings.Contains(errStr, "location is required") || strings.Contains(errStr, "location too long") {
		return ErrorCategoryValidation
	}
	return ErrorCategoryUnknown
}
