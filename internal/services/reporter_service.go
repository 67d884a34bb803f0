// Package services – ReporterService
//
// This file implements the ReporterService, which joins stored tickets
// against their purchase snapshots for the staff audit listing and the
// holder's own-ticket view. Reporting is a pure read; rows for tickets
// whose purchase can no longer be resolved are omitted rather than failing
// the whole listing.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-ticket-backend/internal/domain"
	"github.com/tbourn/go-ticket-backend/internal/repo"
)

// ReportRow is one line of the audit or holder listing: a ticket joined
// with its purchase's holder and product context.
type ReportRow struct {
	PurchaseID  string    `json:"purchase_id"`
	HolderName  string    `json:"holder_name"`
	ProductName string    `json:"product_name"`
	LineItemID  string    `json:"line_item_id"`
	RenderURL   string    `json:"render_url"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// ReporterService enumerates stored tickets with purchase context.
type ReporterService struct {
	// DB is the GORM handle used for lookups.
	DB *gorm.DB
	// Store is the ticket repository.
	Store TicketStore
	// Purchases resolves holder and product context.
	Purchases PurchaseDirectory
}

// ListAllTickets returns every stored ticket joined to its purchase, in a
// stable order: grouped by purchase id ascending, then by line-item id
// within a purchase. Tickets whose purchase snapshot is gone are skipped.
func (s *ReporterService) ListAllTickets(ctx context.Context) ([]ReportRow, error) {
	tickets, err := s.Store.ListTickets(ctx, s.DB)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	rows := make([]ReportRow, 0, len(tickets))
	// Tickets arrive grouped by purchase; cache the current purchase so a
	// run of sibling tickets costs one lookup.
	var cached *domain.Purchase
	for _, t := range tickets {
		if cached == nil || cached.ID != t.PurchaseID {
			p, err := s.Purchases.GetPurchase(ctx, s.DB, t.PurchaseID)
			if errors.Is(err, repo.ErrNotFound) {
				cached = nil
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
			}
			cached = p
		}
		rows = append(rows, rowFor(t, cached))
	}
	return rows, nil
}

// ListAllTicketsPage returns one page of the audit listing plus the total
// ticket count. page and pageSize must be positive; the transport layer
// clamps query parameters before calling. Rows whose purchase snapshot is
// gone are skipped, so a page may come back shorter than pageSize; the
// total still counts every stored ticket.
func (s *ReporterService) ListAllTicketsPage(ctx context.Context, page, pageSize int) ([]ReportRow, int64, error) {
	offset := (page - 1) * pageSize

	total, err := s.Store.CountTickets(ctx, s.DB)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if total == 0 {
		return []ReportRow{}, 0, nil
	}

	tickets, err := s.Store.ListTicketsPage(ctx, s.DB, offset, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	rows := make([]ReportRow, 0, len(tickets))
	var cached *domain.Purchase
	for _, t := range tickets {
		if cached == nil || cached.ID != t.PurchaseID {
			p, err := s.Purchases.GetPurchase(ctx, s.DB, t.PurchaseID)
			if errors.Is(err, repo.ErrNotFound) {
				cached = nil
				continue
			}
			if err != nil {
				return nil, 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
			}
			cached = p
		}
		rows = append(rows, rowFor(t, cached))
	}
	return rows, total, nil
}

// ListTicketsForHolder returns the holder's tickets across their completed
// purchases, in the same stable order. An empty slice (not an error) when
// the holder has none.
func (s *ReporterService) ListTicketsForHolder(ctx context.Context, holderID string) ([]ReportRow, error) {
	purchases, err := s.Purchases.ListCompletedPurchasesForHolder(ctx, s.DB, holderID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	rows := make([]ReportRow, 0)
	for i := range purchases {
		p := purchases[i]
		tickets, err := s.Store.ListTicketsForPurchase(ctx, s.DB, p.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		for _, t := range tickets {
			rows = append(rows, rowFor(t, &p))
		}
	}
	return rows, nil
}

// rowFor joins one ticket with its resolved purchase. A line item missing
// from the snapshot leaves the product name empty; the ticket itself is
// still listed.
func rowFor(t domain.Ticket, p *domain.Purchase) ReportRow {
	row := ReportRow{
		PurchaseID: t.PurchaseID,
		HolderName: p.HolderName,
		LineItemID: t.LineItemID,
		RenderURL:  t.RenderURL,
		ExpiresAt:  t.ExpiresAt,
	}
	if item, ok := p.Item(t.LineItemID); ok {
		row.ProductName = item.ProductName
	}
	return row
}
