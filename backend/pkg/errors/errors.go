package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeValidation represents a missing or malformed input
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeNotFound represents an absent user, post or comment
	ErrorTypeNotFound ErrorType = "not_found"
	// ErrorTypeUnauthorized represents a mutation the requester may not perform
	ErrorTypeUnauthorized ErrorType = "unauthorized"
	// ErrorTypeConflict represents a uniqueness violation
	ErrorTypeConflict ErrorType = "conflict"
	// ErrorTypeUpstream represents media or session service failures
	ErrorTypeUpstream ErrorType = "upstream"
	// ErrorTypeStorage represents database driver failures
	ErrorTypeStorage ErrorType = "storage"
	// ErrorTypeContext represents context cancellation/timeout errors
	ErrorTypeContext ErrorType = "context"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
)

// BaseError is the base error type with common fields
type BaseError struct {
	Type      ErrorType
	Message   string
	Timestamp time.Time
	Err       error // Wrapped error
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error for error unwrapping
func (e *BaseError) Unwrap() error {
	return e.Err
}

// Base returns the error itself; types embedding *BaseError promote it so
// the category can be recovered anywhere in a wrap chain.
func (e *BaseError) Base() *BaseError {
	return e
}

// Is matches sentinel errors by type and message so that a sentinel
// survives being re-wrapped by a store or service.
func (e *BaseError) Is(target error) bool {
	t, ok := target.(*BaseError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Message == t.Message
}

// NewBaseError creates a new base error
func NewBaseError(errType ErrorType, message string, err error) *BaseError {
	return &BaseError{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

// Validation Errors

// NewValidation is returned when a required field is missing or malformed
func NewValidation(message string) *BaseError {
	return NewBaseError(ErrorTypeValidation, message, nil)
}

// ErrMissingImage is returned when a post is created without image bytes
var ErrMissingImage = NewValidation("Image not found")

// ErrEmptyText is returned when a comment or message has no text
var ErrEmptyText = NewValidation("Please Enter Some comment")

// MaxPasswordBytes is the longest password bcrypt will hash
const MaxPasswordBytes = 72

// ErrPasswordTooLong is returned when a password exceeds MaxPasswordBytes
var ErrPasswordTooLong = NewValidation("Password must be at most 72 bytes")

// Not Found Errors

// ErrNotFound is returned when an entity cannot be found
type ErrNotFound struct {
	*BaseError
	Resource string
	ID       string
}

func NewNotFound(resource, id string) *ErrNotFound {
	return &ErrNotFound{
		BaseError: NewBaseError(ErrorTypeNotFound, fmt.Sprintf("%s not found", resource), nil),
		Resource:  resource,
		ID:        id,
	}
}

// Authorization Errors

// NewUnauthorized is returned when the requester may not perform a mutation
func NewUnauthorized(message string) *BaseError {
	return NewBaseError(ErrorTypeUnauthorized, message, nil)
}

// ErrSelfFollow is returned when a user tries to follow themselves
var ErrSelfFollow = NewUnauthorized("Can't Follow Yourself")

// ErrNotOwner is returned when a non-author mutates a post
var ErrNotOwner = NewUnauthorized("Unauthorized")

// ErrInvalidCredentials is returned when a password does not match
var ErrInvalidCredentials = NewUnauthorized("Wrong Password")

// Conflict Errors

// ErrConflict is returned when a unique field is already taken
type ErrConflict struct {
	*BaseError
	Field string
}

func NewConflict(field, message string) *ErrConflict {
	return &ErrConflict{
		BaseError: NewBaseError(ErrorTypeConflict, message, nil),
		Field:     field,
	}
}

// Upstream Errors

// ErrUpstreamFailed is returned when an external service call fails
type ErrUpstreamFailed struct {
	*BaseError
	Service string
}

func NewUpstream(service string, err error) *ErrUpstreamFailed {
	return &ErrUpstreamFailed{
		BaseError: NewBaseError(ErrorTypeUpstream, fmt.Sprintf("%s request failed", service), err),
		Service:   service,
	}
}

// Storage Errors

// ErrStorageFailed is returned when a database operation fails
type ErrStorageFailed struct {
	*BaseError
	Operation string
}

func NewStorage(operation string, err error) *ErrStorageFailed {
	return &ErrStorageFailed{
		BaseError: NewBaseError(ErrorTypeStorage, fmt.Sprintf("storage operation failed: %s", operation), err),
		Operation: operation,
	}
}

// Context Errors

// ErrContextTimeout is returned when context times out
type ErrContextTimeout struct {
	*BaseError
	Operation string
	Timeout   time.Duration
}

func NewContextTimeout(operation string, timeout time.Duration, err error) *ErrContextTimeout {
	return &ErrContextTimeout{
		BaseError: NewBaseError(ErrorTypeContext, fmt.Sprintf("context timeout: %s (timeout: %v)", operation, timeout), err),
		Operation: operation,
		Timeout:   timeout,
	}
}

// Config Errors

// ErrConfigMissingRequired is returned when a required config value is missing
type ErrConfigMissingRequired struct {
	*BaseError
	Field string
}

func NewConfigMissingRequired(field string) *ErrConfigMissingRequired {
	return &ErrConfigMissingRequired{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("missing required config: %s", field), nil),
		Field:     field,
	}
}

// Helper functions

func asBase(err error) *BaseError {
	var b interface{ Base() *BaseError }
	if stderrors.As(err, &b) {
		return b.Base()
	}
	return nil
}

// TypeOf returns the ErrorType of the first BaseError in the chain, or "" when
// the chain carries none.
func TypeOf(err error) ErrorType {
	if baseErr := asBase(err); baseErr != nil {
		return baseErr.Type
	}
	return ""
}

// IsErrorType checks if an error is of a specific type
func IsErrorType(err error, errType ErrorType) bool {
	return err != nil && TypeOf(err) == errType
}

// PublicMessage returns the message safe to show a client. Upstream, storage
// and untyped errors collapse to a generic message.
func PublicMessage(err error) string {
	baseErr := asBase(err)
	if baseErr == nil {
		return "Something went wrong"
	}
	switch baseErr.Type {
	case ErrorTypeUpstream, ErrorTypeStorage, ErrorTypeConfig:
		return "Something went wrong"
	case ErrorTypeContext:
		return "Request timed out"
	}
	return baseErr.Message
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	switch TypeOf(err) {
	case ErrorTypeUpstream, ErrorTypeStorage:
		return true
	}
	return false
}
