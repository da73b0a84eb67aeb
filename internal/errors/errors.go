package errors

import (
	"errors"
	"net/http"
)

// Kind classifies a domain failure independently of the transport.
type Kind string

const (
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindValidation   Kind = "validation"
)

// DomainError is a failure with a stable kind and code plus a human-readable message.
type DomainError struct {
	Kind    Kind
	Code    string
	Message string
	cause   error
}

func (e *DomainError) Error() string {
	return e.Message
}

// Unwrap exposes the underlying cause, if any.
func (e *DomainError) Unwrap() error {
	return e.cause
}

// Is matches kind sentinels (no code) by kind and everything else by code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	if t.Code == "" {
		return t.Kind == e.Kind
	}
	return t.Kind == e.Kind && t.Code == e.Code
}

// WithCause returns a copy of e that wraps cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	cp := *e
	cp.cause = cause
	return &cp
}

// WithMessage returns a copy of e carrying a more specific message.
func (e *DomainError) WithMessage(msg string) *DomainError {
	cp := *e
	cp.Message = msg
	return &cp
}

// New creates a domain error.
func New(kind Kind, code, message string) *DomainError {
	return &DomainError{Kind: kind, Code: code, Message: message}
}

// Kind sentinels, for errors.Is(err, errors.ErrForbidden) style checks.
var (
	ErrUnauthorized = &DomainError{Kind: KindUnauthorized}
	ErrForbidden    = &DomainError{Kind: KindForbidden}
	ErrNotFound     = &DomainError{Kind: KindNotFound}
	ErrConflict     = &DomainError{Kind: KindConflict}
	ErrValidation   = &DomainError{Kind: KindValidation}
)

var (
	// ErrMissingToken is returned when a protected operation carries no token.
	ErrMissingToken = New(KindUnauthorized, "MISSING_TOKEN", "missing or malformed bearer token")
	// ErrInvalidToken is returned for bad signatures, malformed payloads and expired tokens.
	ErrInvalidToken = New(KindUnauthorized, "INVALID_TOKEN", "Access denied, check token validity")
	// ErrUnknownPrincipal is returned when a valid token names a user that does not exist.
	ErrUnknownPrincipal = New(KindUnauthorized, "INVALID_ACCESS", "Invalid access")

	// ErrAccessDenied is returned when an authenticated user is not entitled to a resource.
	ErrAccessDenied = New(KindForbidden, "FORBIDDEN", "You are not authorized to make this request.")
	// ErrAdminBootstrapDenied is returned when a non-admin tries to create an admin once one exists.
	ErrAdminBootstrapDenied = New(KindForbidden, "ADMIN_REQUIRED", "Only admins can create new admin users.")

	ErrUserNotFound  = New(KindNotFound, "USER_NOT_FOUND", "User not found.")
	ErrOrderNotFound = New(KindNotFound, "ORDER_NOT_FOUND", "Order not found.")
	ErrItemNotFound  = New(KindNotFound, "ITEM_NOT_FOUND", "Item not found.")

	// ErrEmailTaken is returned when signing up with an email that is already registered.
	ErrEmailTaken = New(KindConflict, "EMAIL_TAKEN", "This user already exists with this email.")
	// ErrOrderClosed is returned when mutating an order that is no longer pending.
	ErrOrderClosed = New(KindConflict, "ORDER_CLOSED", "Order is no longer pending.")
	// ErrInvalidTransition is returned for status changes the order state machine forbids.
	ErrInvalidTransition = New(KindConflict, "INVALID_TRANSITION", "Order status transition not allowed.")

	ErrInvalidCredentials = New(KindValidation, "INVALID_CREDENTIALS", "User not found or invalid password.")
	ErrInvalidQuantity    = New(KindValidation, "INVALID_QUANTITY", "quantity must be a positive integer")
	ErrInvalidUnitPrice   = New(KindValidation, "INVALID_UNIT_PRICE", "unit_price must be non-negative with at most two decimal places")
	ErrInvalidItem        = New(KindValidation, "INVALID_ITEM", "flavor and size are required")
	ErrInvalidInput       = New(KindValidation, "VALIDATION_ERROR", "invalid input")
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

// Codes whose status differs from their kind's default, kept for existing clients.
var statusOverrides = map[string]int{
	ErrEmailTaken.Code: http.StatusBadRequest,
}

// StatusFor returns the HTTP status for a domain error kind.
func StatusFor(kind Kind) int {
	switch kind {
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound, KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors.
func MapErrorToHTTP(err error) *HTTPError {
	var de *DomainError
	if !errors.As(err, &de) {
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
	status, ok := statusOverrides[de.Code]
	if !ok {
		status = StatusFor(de.Kind)
	}
	return NewHTTPError(status, de.Message, de.Code)
}
