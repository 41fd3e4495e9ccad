// Package errs provides the structured error taxonomy shared across the
// trading backend. Every failure the engine surfaces to a caller carries a
// Kind so transport layers can map it without string matching.
package errs

import (
	"errors"
	"fmt"
)

// Kind identifies an error category.
type Kind string

const (
	// KindValidation indicates a malformed or inconsistent submission.
	KindValidation Kind = "validation"
	// KindMarketClosed indicates the venue is closed for market orders.
	KindMarketClosed Kind = "market_closed"
	// KindQuoteUnavailable indicates the price oracle failed or returned no data.
	KindQuoteUnavailable Kind = "quote_unavailable"
	// KindInsufficientFunds indicates the available balance cannot cover the order.
	KindInsufficientFunds Kind = "insufficient_funds"
	// KindInsufficientHoldings indicates the held quantity cannot cover the order.
	KindInsufficientHoldings Kind = "insufficient_holdings"
	// KindInvalidState indicates an illegal lifecycle transition.
	KindInvalidState Kind = "invalid_state"
	// KindNotFound indicates a missing order or account.
	KindNotFound Kind = "not_found"
	// KindConflict indicates a concurrent mutation lost an optimistic check.
	KindConflict Kind = "conflict"
	// KindInternal captures uncategorized failures.
	KindInternal Kind = "internal"
)

// E is the error envelope produced across the engine.
type E struct {
	Kind    Kind
	Message string

	cause error
}

// New constructs an error of the given kind.
func New(kind Kind, message string) *E {
	return &E{Kind: kind, Message: message}
}

// Newf constructs an error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *E {
	return &E{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause to a new error of the given kind.
func Wrap(kind Kind, message string, cause error) *E {
	return &E{Kind: kind, Message: message, cause: cause}
}

// Error implements the error interface.
func (e *E) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.cause)
	}
	return msg
}

// Unwrap exposes the cause for errors.Is / errors.As chains.
func (e *E) Unwrap() error { return e.cause }

// KindOf extracts the Kind from an error chain. Unrecognized errors report
// KindInternal; nil reports an empty Kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *E
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether the error chain carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
