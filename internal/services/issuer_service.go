// Package services – IssuerService
//
// This file implements the IssuerService, which consumes a completed
// purchase and mints one ticket per eligible (ticketable) line item. The
// payload is a pure function of (purchase id, holder name, line-item id)
// and tickets are written with a keyed upsert, so re-running issuance for
// the same purchase converges on identical state instead of duplicating
// records.
package services

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-ticket-backend/internal/domain"
	"github.com/tbourn/go-ticket-backend/internal/payload"
)

// TicketStore defines the repository contract required by the ticket
// services. Implementations are responsible for persistence of tickets;
// the keyed upsert must linearize concurrent writes to the same line item.
type TicketStore interface {
	// UpsertTicket inserts or replaces the ticket for t.LineItemID.
	UpsertTicket(ctx context.Context, db *gorm.DB, t *domain.Ticket) error

	// GetTicket fetches a ticket by line-item id or repo.ErrNotFound.
	GetTicket(ctx context.Context, db *gorm.DB, lineItemID string) (*domain.Ticket, error)

	// FindTicketByPayload fetches a ticket by its exact payload string.
	FindTicketByPayload(ctx context.Context, db *gorm.DB, pl string) (*domain.Ticket, error)

	// ListTickets returns all tickets, ordered by purchase then line item.
	ListTickets(ctx context.Context, db *gorm.DB) ([]domain.Ticket, error)

	// CountTickets returns the total number of stored tickets.
	CountTickets(ctx context.Context, db *gorm.DB) (int64, error)

	// ListTicketsPage returns a page of tickets in ListTickets order.
	ListTicketsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Ticket, error)

	// ListTicketsForPurchase returns the tickets minted for one purchase.
	ListTicketsForPurchase(ctx context.Context, db *gorm.DB, purchaseID string) ([]domain.Ticket, error)
}

// DefaultValidity is the fixed validity window applied at minting time.
const DefaultValidity = 30 * 24 * time.Hour

// IssuerService mints tickets for completed purchases. It never contacts
// the rendering service; the render URL is computed and stored for the
// presentation layer to dereference at display time.
type IssuerService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Store is the ticket repository used by this service.
	Store TicketStore

	// Validity is the fixed window added to IssuedAt; DefaultValidity
	// when zero.
	Validity time.Duration
	// RenderServiceURL and RenderSize configure the external code-rendering
	// descriptor; package defaults when empty.
	RenderServiceURL string
	RenderSize       string

	// Now supplies the clock, injectable for tests; time.Now when nil.
	Now func() time.Time
}

// NewIssuerService constructs an IssuerService with the default validity
// window and render service settings.
func NewIssuerService(db *gorm.DB, store TicketStore) *IssuerService {
	return &IssuerService{
		DB:       db,
		Store:    store,
		Validity: DefaultValidity,
	}
}

// IssueForPurchase mints tickets for every ticketable line item of the
// purchase, in line-item order.
//
// Returns the minted/updated tickets, plus one LineItemError per line item
// whose issuance failed (malformed identity fields, or a storage failure
// wrapped in ErrStoreUnavailable). A failing item never aborts its
// siblings. The only fatal error is ErrPurchaseNotCompleted, which is
// checked before any write.
//
// Re-invocation for the same purchase is idempotent: identical inputs
// produce identical payloads and render URLs, and the keyed upsert
// overwrites rather than duplicates.
func (s *IssuerService) IssueForPurchase(ctx context.Context, p domain.Purchase) ([]domain.Ticket, []LineItemError, error) {
	if !p.Completed() {
		return nil, nil, fmt.Errorf("%w: purchase %s has status %q", ErrPurchaseNotCompleted, p.ID, p.Status)
	}

	validity := s.Validity
	if validity <= 0 {
		validity = DefaultValidity
	}

	var (
		minted   []domain.Ticket
		failures []LineItemError
	)
	for _, item := range p.Items {
		if !item.Ticketable {
			continue
		}

		pl, err := payload.Encode(p.ID, p.HolderName, item.ID)
		if err != nil {
			failures = append(failures, LineItemError{LineItemID: item.ID, Err: err})
			continue
		}

		issued := s.now()
		t := domain.Ticket{
			LineItemID: item.ID,
			PurchaseID: p.ID,
			Payload:    pl,
			RenderURL:  payload.RenderRequest(s.RenderServiceURL, pl, s.RenderSize),
			IssuedAt:   issued,
			ExpiresAt:  issued.Add(validity),
		}
		if err := s.Store.UpsertTicket(ctx, s.DB, &t); err != nil {
			failures = append(failures, LineItemError{
				LineItemID: item.ID,
				Err:        fmt.Errorf("%w: %v", ErrStoreUnavailable, err),
			})
			continue
		}
		minted = append(minted, t)
	}
	return minted, failures, nil
}

// now returns the injected clock or the wall clock in UTC.
func (s *IssuerService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}
