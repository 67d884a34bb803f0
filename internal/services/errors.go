// Package services defines the business logic of the ticket lifecycle:
// issuance, validation, and reporting. This file centralizes common
// service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler/controller layer.
package services

import "errors"

var (
	// ErrPurchaseNotCompleted is returned when issuance is invoked on a
	// purchase that has not transitioned into the completed state. No
	// tickets are written in that case.
	ErrPurchaseNotCompleted = errors.New("purchase is not completed")

	// ErrStoreUnavailable wraps persistence failures. The services do not
	// retry internally; retry policy belongs to the caller (or the queue
	// redelivery mechanism).
	ErrStoreUnavailable = errors.New("ticket store unavailable")
)

// LineItemError reports an issuance failure for a single line item. A bad
// line item never aborts issuance for its siblings, so callers receive one
// of these per affected item instead of a single opaque failure.
type LineItemError struct {
	LineItemID string
	Err        error
}

// Error implements the error interface.
func (e LineItemError) Error() string {
	return "line item " + e.LineItemID + ": " + e.Err.Error()
}

// Unwrap exposes the underlying cause for errors.Is / errors.As.
func (e LineItemError) Unwrap() error { return e.Err }
