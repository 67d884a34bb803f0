// Package handlers provides HTTP handler implementations for the public API.
//
// This file declares the Handlers aggregate and the narrow service
// contracts it consumes. Handlers are transport-thin: they validate input,
// delegate to application services, and translate domain/service errors
// into HTTP results.
package handlers

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-ticket-backend/internal/domain"
	"github.com/tbourn/go-ticket-backend/internal/services"
)

// TicketIssuer mints tickets for a completed purchase.
type TicketIssuer interface {
	IssueForPurchase(ctx context.Context, p domain.Purchase) ([]domain.Ticket, []services.LineItemError, error)
}

// TicketValidator classifies a presented credential key.
type TicketValidator interface {
	Validate(ctx context.Context, key string) (*services.ValidationResult, error)
}

// TicketReporter enumerates stored tickets joined with purchase context.
type TicketReporter interface {
	ListAllTicketsPage(ctx context.Context, page, pageSize int) ([]services.ReportRow, int64, error)
	ListTicketsForHolder(ctx context.Context, holderID string) ([]services.ReportRow, error)
}

// PurchaseRecorder stores the purchase snapshot delivered with a
// purchase-completed notification.
type PurchaseRecorder interface {
	RecordPurchase(ctx context.Context, p domain.Purchase) error
}

// PurchaseTicketLister returns the tickets minted for one purchase, for
// the receipt/thank-you surface.
type PurchaseTicketLister interface {
	TicketsForPurchase(ctx context.Context, purchaseID string) ([]domain.Ticket, error)
}

// Handlers bundles the API endpoints with their injected services.
type Handlers struct {
	issuer    TicketIssuer
	validator TicketValidator
	reporter  TicketReporter
	recorder  PurchaseRecorder
	lister    PurchaseTicketLister
}

// New constructs the Handlers aggregate.
func New(issuer TicketIssuer, validator TicketValidator, reporter TicketReporter, recorder PurchaseRecorder, lister PurchaseTicketLister) *Handlers {
	return &Handlers{
		issuer:    issuer,
		validator: validator,
		reporter:  reporter,
		recorder:  recorder,
		lister:    lister,
	}
}

// userID resolves the acting holder: context → header → demo fallback.
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return h
		}
	}
	return "demo-user"
}
