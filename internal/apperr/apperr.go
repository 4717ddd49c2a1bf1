package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure for HTTP mapping and retry decisions.
// None of these are retried automatically; the caller decides.
type Kind int

const (
	KindValidation Kind = iota
	KindNotFound
	KindConflict
	KindRule
	KindStorage
)

// Rule and conflict codes surfaced to callers in the response body.
const (
	CodeInsufficientFunds     = "InsufficientFunds"
	CodeInsufficientInventory = "InsufficientInventory"
	CodeInsufficientHoldings  = "InsufficientHoldings"
	CodeLoanLimitExceeded     = "LoanLimitExceeded"
	CodeTradingSuspended      = "TradingSuspended"
	CodeInvalidAmount         = "InvalidAmount"
	CodeDuplicateUser         = "DuplicateUser"
	CodeDuplicateSymbol       = "DuplicateSymbol"
)

type Error struct {
	Kind    Kind
	Code    string
	Message string
	wrapped error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.wrapped != nil {
		return e.wrapped.Error()
	}
	return e.Code
}

func (e *Error) Unwrap() error { return e.wrapped }

func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Conflict(code, format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: fmt.Sprintf(format, args...)}
}

func Rule(code, format string, args ...any) *Error {
	return &Error{Kind: KindRule, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Storage wraps an underlying read/write failure. The detail stays
// server-side; callers only see a generic message.
func Storage(err error) *Error {
	return &Error{Kind: KindStorage, Message: "internal storage error", wrapped: err}
}

// As extracts an *Error from err, if present.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// CodeOf returns the rule/conflict code attached to err, or "".
func CodeOf(err error) string {
	if e, ok := As(err); ok {
		return e.Code
	}
	return ""
}

// HTTPStatus maps an error to its response status. Unknown errors are
// treated as storage failures.
func HTTPStatus(err error) int {
	e, ok := As(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindRule:
		if e.Code == CodeTradingSuspended {
			return http.StatusForbidden
		}
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
