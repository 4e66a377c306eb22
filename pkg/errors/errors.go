// Package errors provides custom error types for the achievesync system.
// These errors enable programmatic error checking, so callers can tell a
// fatal storage or credential failure from a transient tracker failure.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Is and As are re-exported so callers need a single errors import.
var (
	Is = errors.Is
	As = errors.As
)

// Common sentinel errors for the achievesync system
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrTokenRequired indicates that a bearer token is required but not provided
	ErrTokenRequired = errors.New("bearer token required")

	// ErrTokenInvalid indicates that the tracker rejected the bearer token
	ErrTokenInvalid = errors.New("bearer token invalid")

	// ErrTrackerUnavailable indicates that the tracker is temporarily unavailable
	ErrTrackerUnavailable = errors.New("tracker unavailable")

	// ErrRateLimited indicates that the tracker rate limit has been exceeded
	ErrRateLimited = errors.New("rate limited")

	// ErrTimeout indicates that an operation timed out
	ErrTimeout = errors.New("operation timed out")

	// ErrCanceled indicates that an operation was canceled
	ErrCanceled = errors.New("operation canceled")

	// ErrUnsupported indicates input the system knows about but cannot process
	ErrUnsupported = errors.New("unsupported")
)

// NotFoundError represents an error when a resource is not found
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Resource, e.ID)
}

// Is implements errors.Is support
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// APIError represents a non-success response (or no response at all) from the tracker.
// A zero StatusCode means the request never produced a response.
type APIError struct {
	Category   string
	StatusCode int
	Message    string
	Endpoint   string
	Err        error
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("tracker error for %s (status %d): %s", e.Category, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("tracker error for %s: %s", e.Category, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *APIError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *APIError) Is(target error) bool {
	if e.StatusCode == http.StatusTooManyRequests {
		return target == ErrRateLimited
	}
	if e.StatusCode >= 500 {
		return target == ErrTrackerUnavailable
	}
	return false
}

// NewAPIError creates a new APIError
func NewAPIError(category string, statusCode int, message string) *APIError {
	return &APIError{
		Category:   category,
		StatusCode: statusCode,
		Message:    message,
	}
}

// ConfigError represents a configuration error
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{
		Component: component,
		Message:   message,
		Err:       err,
	}
}

// SyncError represents a failure that aborted the sync of a category
type SyncError struct {
	Category string
	IDs      []string
	Err      error
}

// Error implements the error interface
func (e *SyncError) Error() string {
	if len(e.IDs) > 0 {
		return fmt.Sprintf("sync error for category %s (affected ids: %v): %v", e.Category, e.IDs, e.Err)
	}
	return fmt.Sprintf("sync error for category %s: %v", e.Category, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *SyncError) Unwrap() error {
	return e.Err
}

// NewSyncError creates a new SyncError
func NewSyncError(category string, ids []string, err error) *SyncError {
	return &SyncError{
		Category: category,
		IDs:      ids,
		Err:      err,
	}
}

// ParseError represents an error when parsing data formats
type ParseError struct {
	Format  string // "json", "yaml", "gzip"
	File    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("parse error in %s file %s: %s", e.Format, e.File, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError
func NewParseError(format, file string, message string, err error) *ParseError {
	return &ParseError{
		Format:  format,
		File:    file,
		Message: message,
		Err:     err,
	}
}

// IOError represents an error during I/O operations
type IOError struct {
	Operation string // "read", "write", "create", "rename", "mkdir"
	Path      string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("IO error during %s of %s: %s", e.Operation, e.Path, e.Message)
	}
	return fmt.Sprintf("IO error during %s: %s", e.Operation, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *IOError) Unwrap() error {
	return e.Err
}

// NewIOError creates a new IOError
func NewIOError(operation, path string, err error) *IOError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &IOError{
		Operation: operation,
		Path:      path,
		Message:   message,
		Err:       err,
	}
}

// ResourceError represents an error during resource operations
type ResourceError struct {
	Operation string // "create", "load", "save", "initialize"
	Resource  string // "store", "category", "client", "config"
	ID        string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ResourceError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("failed to %s %s %s: %s", e.Operation, e.Resource, e.ID, e.Message)
	}
	return fmt.Sprintf("failed to %s %s: %s", e.Operation, e.Resource, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ResourceError) Unwrap() error {
	return e.Err
}

// AuthenticationError represents a rejected or missing credential.
// It is never retried: the credential itself has to change.
type AuthenticationError struct {
	Owner   string
	Method  string // "bearer"
	Message string
	Err     error
}

// Error implements the error interface
func (e *AuthenticationError) Error() string {
	if e.Owner != "" {
		return fmt.Sprintf("authentication error for %s (%s): %s", e.Owner, e.Method, e.Message)
	}
	return fmt.Sprintf("authentication error (%s): %s", e.Method, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *AuthenticationError) Is(target error) bool {
	return target == ErrTokenRequired || target == ErrTokenInvalid
}

// NewAuthenticationError creates a new AuthenticationError
func NewAuthenticationError(owner, method, message string, err error) *AuthenticationError {
	return &AuthenticationError{
		Owner:   owner,
		Method:  method,
		Message: message,
		Err:     err,
	}
}

// TimeoutError represents an operation timeout
type TimeoutError struct {
	Operation string
	Duration  string
	Message   string
}

// Error implements the error interface
func (e *TimeoutError) Error() string {
	if e.Duration != "" {
		return fmt.Sprintf("operation %s timed out after %s: %s", e.Operation, e.Duration, e.Message)
	}
	return fmt.Sprintf("operation %s timed out: %s", e.Operation, e.Message)
}

// Is implements errors.Is support
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// NewTimeoutError creates a new TimeoutError
func NewTimeoutError(operation, duration, message string) *TimeoutError {
	return &TimeoutError{
		Operation: operation,
		Duration:  duration,
		Message:   message,
	}
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsAuthenticationError checks if an error is related to the bearer token
func IsAuthenticationError(err error) bool {
	return errors.Is(err, ErrTokenRequired) || errors.Is(err, ErrTokenInvalid)
}

// IsRateLimited checks if an error is a rate limit error
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// IsTimeout checks if an error is a timeout error
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsCanceled checks if an error is a cancellation error
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled)
}

// IsTrackerUnavailable checks if an error indicates tracker unavailability
func IsTrackerUnavailable(err error) bool {
	return errors.Is(err, ErrTrackerUnavailable)
}

// IsIOError checks if an error is (or wraps) an IOError
func IsIOError(err error) bool {
	var ioErr *IOError
	return errors.As(err, &ioErr)
}

// Helper wrapping functions for common patterns

// WrapValidation wraps an error as a ValidationError
func WrapValidation(field string, err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Field: field, Message: err.Error()}
}

// WrapIO wraps an error as an IOError
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return NewIOError(operation, path, err)
}

// WrapResource wraps an error as a ResourceError
func WrapResource(operation, resource, id string, err error) error {
	if err == nil {
		return nil
	}
	return &ResourceError{
		Operation: operation,
		Resource:  resource,
		ID:        id,
		Message:   err.Error(),
		Err:       err,
	}
}

// WrapParse wraps an error as a ParseError
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return NewParseError(format, file, err.Error(), err)
}

// WrapAPI wraps an error as an APIError
func WrapAPI(category string, statusCode int, err error) error {
	if err == nil {
		return nil
	}
	return &APIError{
		Category:   category,
		StatusCode: statusCode,
		Message:    err.Error(),
		Err:        err,
	}
}
