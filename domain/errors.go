package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeInvalid      ErrorCode = "INVALID"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeTransient    ErrorCode = "TRANSIENT"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeInternal     ErrorCode = "INTERNAL"
)

// Error represents a domain-level error. Details carries structured context
// (validation breakdowns, redemption records) so transports can serialize it
// without parsing message text.
type Error struct {
	Code    ErrorCode
	Message string
	Details interface{}
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// NewErrorWithDetails builds a domain error carrying a structured payload.
func NewErrorWithDetails(code ErrorCode, message string, details interface{}) *Error {
	return &Error{Code: code, Message: message, Details: details}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain errors.
var (
	ErrDropNotFound    = NewError(ErrCodeNotFound, "drop not found")
	ErrArticleNotFound = NewError(ErrCodeNotFound, "article not found")
	ErrGroupNotFound   = NewError(ErrCodeNotFound, "group not found")
	ErrOrderNotFound   = NewError(ErrCodeNotFound, "order not found")
	ErrTicketNotFound  = NewError(ErrCodeNotFound, "ticket not found")
	ErrInvalidPayload  = NewError(ErrCodeInvalid, "invalid payload")
	ErrTicketExists    = NewError(ErrCodeConflict, "order already has a ticket")
	ErrPairAlreadySent = NewError(ErrCodeConflict, "article already sent to group today")
	ErrTicketExpired   = NewError(ErrCodeInvalid, "ticket expired")
)

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}

// ErrorDetails extracts the structured payload from a domain error, if any.
func ErrorDetails(err error) interface{} {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Details
	}
	return nil
}
