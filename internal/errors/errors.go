// Package errors provides categorized errors with HTTP status mapping.
package errors

import (
	"fmt"
	"net/http"

	"github.com/wallet-insight/internal/types"
)

// Category represents the category of an error
type Category string

const (
	// CategoryUserInput represents user input errors (4xx)
	CategoryUserInput Category = "user_input"
	// CategoryValidation represents validation errors
	CategoryValidation Category = "validation"
	// CategoryNotFound represents not found errors
	CategoryNotFound Category = "not_found"
	// CategoryConflict represents conflict errors
	CategoryConflict Category = "conflict"
	// CategoryRateLimit represents rate limit errors
	CategoryRateLimit Category = "rate_limit"
	// CategoryProvider represents data provider errors
	CategoryProvider Category = "provider"
	// CategoryStorage represents persistence errors
	CategoryStorage Category = "storage"
	// CategorySystem represents internal errors (5xx)
	CategorySystem Category = "system"
)

// CategorizedError is an error with category and HTTP status code
type CategorizedError struct {
	Category   Category
	StatusCode int
	Code       string
	Message    string
	Details    map[string]interface{}
	Cause      error
}

// Error implements the error interface
func (e *CategorizedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause
func (e *CategorizedError) Unwrap() error {
	return e.Cause
}

// ToServiceError converts to a ServiceError
func (e *CategorizedError) ToServiceError() *types.ServiceError {
	return &types.ServiceError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	}
}

// NewInvalidParameterError creates an invalid parameter error
func NewInvalidParameterError(param string, reason string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryValidation,
		StatusCode: http.StatusBadRequest,
		Code:       "INVALID_PARAMETER",
		Message:    fmt.Sprintf("invalid parameter '%s': %s", param, reason),
		Details: map[string]interface{}{
			"parameter": param,
			"reason":    reason,
		},
	}
}

// NewUnsupportedChainError creates an error for an unknown blockchain name
func NewUnsupportedChainError(chain string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryUserInput,
		StatusCode: http.StatusBadRequest,
		Code:       "UNSUPPORTED_CHAIN",
		Message:    fmt.Sprintf("unsupported blockchain: %s", chain),
		Details: map[string]interface{}{
			"blockchain": chain,
		},
	}
}

// NewInvalidAddressError creates an error for an address that fails the
// chain's format check
func NewInvalidAddressError(address string, chain string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryUserInput,
		StatusCode: http.StatusBadRequest,
		Code:       "INVALID_ADDRESS",
		Message:    fmt.Sprintf("invalid %s address: %s", chain, address),
		Details: map[string]interface{}{
			"address":    address,
			"blockchain": chain,
		},
	}
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string, id string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryNotFound,
		StatusCode: http.StatusNotFound,
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found: %s", resource, id),
		Details: map[string]interface{}{
			"resource": resource,
			"id":       id,
		},
	}
}

// NewConflictError creates a conflict error
func NewConflictError(message string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryConflict,
		StatusCode: http.StatusConflict,
		Code:       "CONFLICT",
		Message:    message,
	}
}

// NewRateLimitError creates a rate limit error
func NewRateLimitError(retryAfter int) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryRateLimit,
		StatusCode: http.StatusTooManyRequests,
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    "rate limit exceeded",
		Details: map[string]interface{}{
			"retryAfter": retryAfter,
		},
	}
}

// NewProviderError creates a data provider error
func NewProviderError(provider string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryProvider,
		StatusCode: http.StatusBadGateway,
		Code:       "PROVIDER_ERROR",
		Message:    fmt.Sprintf("data provider error: %s", provider),
		Cause:      cause,
		Details: map[string]interface{}{
			"provider": provider,
		},
	}
}

// NewProviderRateLimitError creates a provider rate limit error
func NewProviderRateLimitError(provider string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryProvider,
		StatusCode: http.StatusTooManyRequests,
		Code:       "PROVIDER_RATE_LIMIT",
		Message:    fmt.Sprintf("data provider rate limit exceeded: %s", provider),
		Details: map[string]interface{}{
			"provider": provider,
		},
	}
}

// NewStorageError creates a persistence error. A failed write is fatal to
// the call, so these always surface to the caller.
func NewStorageError(operation string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryStorage,
		StatusCode: http.StatusInternalServerError,
		Code:       "STORAGE_ERROR",
		Message:    fmt.Sprintf("storage error during %s", operation),
		Cause:      cause,
		Details: map[string]interface{}{
			"operation": operation,
		},
	}
}

// NewInternalError creates an internal server error
func NewInternalError(message string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategorySystem,
		StatusCode: http.StatusInternalServerError,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		Cause:      cause,
	}
}

// Categorize categorizes an existing error
func Categorize(err error) *CategorizedError {
	if err == nil {
		return nil
	}

	if catErr, ok := err.(*CategorizedError); ok {
		return catErr
	}

	if svcErr, ok := err.(*types.ServiceError); ok {
		return categorizeServiceError(svcErr)
	}

	return NewInternalError("unexpected error", err)
}

func categorizeServiceError(err *types.ServiceError) *CategorizedError {
	var category Category
	var status int

	switch err.Code {
	case "UNSUPPORTED_CHAIN", "INVALID_ADDRESS":
		category, status = CategoryUserInput, http.StatusBadRequest
	case "INVALID_PARAMETER":
		category, status = CategoryValidation, http.StatusBadRequest
	case "WALLET_NOT_FOUND", "PROFILE_NOT_FOUND", "USER_NOT_FOUND", "NOT_FOUND":
		category, status = CategoryNotFound, http.StatusNotFound
	case "USERNAME_TAKEN", "CONFLICT":
		category, status = CategoryConflict, http.StatusConflict
	case "RATE_LIMIT_EXCEEDED":
		category, status = CategoryRateLimit, http.StatusTooManyRequests
	default:
		category, status = CategorySystem, http.StatusInternalServerError
	}

	return &CategorizedError{
		Category:   category,
		StatusCode: status,
		Code:       err.Code,
		Message:    err.Message,
		Details:    err.Details,
	}
}

// GetHTTPStatusCode returns the HTTP status code for an error
func GetHTTPStatusCode(err error) int {
	if catErr := Categorize(err); catErr != nil {
		return catErr.StatusCode
	}
	return http.StatusInternalServerError
}

// IsRetryable reports whether an error is worth retrying
func IsRetryable(err error) bool {
	catErr := Categorize(err)
	if catErr == nil {
		return false
	}

	switch catErr.Category {
	case CategoryProvider, CategoryStorage:
		return true
	case CategorySystem:
		return catErr.StatusCode == http.StatusServiceUnavailable ||
			catErr.StatusCode == http.StatusGatewayTimeout
	default:
		return false
	}
}

// IsRateLimitError reports whether an error is a rate limit response,
// either ours or a provider's.
func IsRateLimitError(err error) bool {
	catErr := Categorize(err)
	if catErr == nil {
		return false
	}
	return catErr.StatusCode == http.StatusTooManyRequests
}

// IsConflict reports whether an error is a conflict
func IsConflict(err error) bool {
	catErr := Categorize(err)
	return catErr != nil && catErr.Category == CategoryConflict
}

// IsNotFound reports whether an error is a not-found
func IsNotFound(err error) bool {
	catErr := Categorize(err)
	return catErr != nil && catErr.Category == CategoryNotFound
}
