// Package apperr is the error taxonomy shared by services and handlers.
// Every failure that reaches a client is an *Error carrying a Kind (which
// decides the HTTP status), a stable Code and a human readable Message.
// Wrapped causes stay server side and are only logged.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error.
type Kind uint8

const (
	KindInternal Kind = iota
	KindValidation
	KindMalformedToken
	KindNotFound
	KindConflict
	KindAccessDenied
	KindAuth
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindMalformedToken:
		return "malformed_token"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindAccessDenied:
		return "access_denied"
	case KindAuth:
		return "auth"
	default:
		return "internal"
	}
}

// Stable error codes.
const (
	CodeValidation            = "VALIDATION_FAILED"
	CodeMalformedID           = "MALFORMED_ID"
	CodeNotFound              = "NOT_FOUND"
	CodeAlreadyValidated      = "ALREADY_VALIDATED"
	CodeInsufficientInventory = "INSUFFICIENT_INVENTORY"
	CodeInvalidStatus         = "INVALID_STATUS"
	CodeAccessDenied          = "ACCESS_DENIED"
	CodeBookingMismatch       = "BOOKING_MISMATCH"
	CodeInvalidRole           = "INVALID_ROLE"
	CodeNoToken               = "NO_TOKEN"
	CodeInvalidToken          = "INVALID_TOKEN"
	CodeInvalidCredentials    = "INVALID_CREDENTIALS"
	CodeInternal              = "INTERNAL"
)

// Error is the structured application error.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return e.Code + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Status maps the error to an HTTP status code.  Insufficient inventory
// and invalid status transitions are reported as 400 to keep the public
// contract of the booking and order endpoints.
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation, KindMalformedToken:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		if e.Code == CodeInsufficientInventory || e.Code == CodeInvalidStatus {
			return http.StatusBadRequest
		}
		return http.StatusConflict
	case KindAccessDenied:
		return http.StatusForbidden
	case KindAuth:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// KindOf returns the Kind of err, KindInternal for foreign errors.
func KindOf(err error) Kind {
	if ae, ok := As(err); ok {
		return ae.Kind
	}
	return KindInternal
}

// CodeOf returns the Code of err, CodeInternal for foreign errors.
func CodeOf(err error) string {
	if ae, ok := As(err); ok {
		return ae.Code
	}
	return CodeInternal
}

func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Code: CodeValidation, Message: msg}
}

func Validationf(format string, args ...any) *Error {
	return Validation(fmt.Sprintf(format, args...))
}

// Malformed reports an opaque identifier that could not be decoded.
func Malformed(msg string, cause error) *Error {
	return &Error{Kind: KindMalformedToken, Code: CodeMalformedID, Message: msg, Err: cause}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Code: CodeNotFound, Message: msg}
}

func AlreadyValidated() *Error {
	return &Error{Kind: KindConflict, Code: CodeAlreadyValidated, Message: "ticket already validated"}
}

func InsufficientInventory() *Error {
	return &Error{Kind: KindConflict, Code: CodeInsufficientInventory, Message: "not enough tickets available"}
}

// StatusMessage reports an operation refused because of the reservation's
// current lifecycle state.
func StatusMessage(msg string) *Error {
	return &Error{Kind: KindConflict, Code: CodeInvalidStatus, Message: msg}
}

func AccessDenied(msg string) *Error {
	return &Error{Kind: KindAccessDenied, Code: CodeAccessDenied, Message: msg}
}

func BookingMismatch() *Error {
	return &Error{Kind: KindAccessDenied, Code: CodeBookingMismatch, Message: "token does not match this booking"}
}

func InvalidRole(msg string) *Error {
	return &Error{Kind: KindAccessDenied, Code: CodeInvalidRole, Message: msg}
}

// InvalidToken is a present but unusable bearer token.  It is a 403 so
// clients can tell it apart from a missing one.
func InvalidToken() *Error {
	return &Error{Kind: KindAccessDenied, Code: CodeInvalidToken, Message: "invalid or expired token"}
}

func NoToken() *Error {
	return &Error{Kind: KindAuth, Code: CodeNoToken, Message: "access token required"}
}

func Auth(msg string) *Error {
	return &Error{Kind: KindAuth, Code: CodeInvalidCredentials, Message: msg}
}

// Internal hides cause behind a generic message.
func Internal(cause error) *Error {
	return &Error{Kind: KindInternal, Code: CodeInternal, Message: "internal server error", Err: cause}
}
