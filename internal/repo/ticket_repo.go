// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Ticket
// model: the keyed idempotent upsert that issuance relies on, and the
// id/payload/purchase lookups used by validation and reporting.
package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-ticket-backend/internal/domain"
)

// UpsertTicket inserts or replaces the ticket for t.LineItemID. Concurrent
// upserts to the same key are linearized by the database; last writer wins,
// which is safe because the payload is deterministic and issuance is
// idempotent. A ticket is either fully present or absent, never partial.
func UpsertTicket(ctx context.Context, db *gorm.DB, t *domain.Ticket) error {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "line_item_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"purchase_id", "payload", "render_url", "issued_at", "expires_at"}),
		}).
		Create(t).Error
}

// GetTicket fetches a ticket by its line-item id, or ErrNotFound.
func GetTicket(ctx context.Context, db *gorm.DB, lineItemID string) (*domain.Ticket, error) {
	var t domain.Ticket
	err := db.WithContext(ctx).Where("line_item_id = ?", lineItemID).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// FindTicketByPayload fetches a ticket by its exact payload string, or
// ErrNotFound. The payload column is uniquely indexed, so this is an O(1)
// lookup rather than a scan.
func FindTicketByPayload(ctx context.Context, db *gorm.DB, pl string) (*domain.Ticket, error) {
	var t domain.Ticket
	err := db.WithContext(ctx).Where("payload = ?", pl).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTickets returns every stored ticket ordered deterministically
// (purchase id ASC, line-item id ASC) so report rows group by purchase.
func ListTickets(ctx context.Context, db *gorm.DB) ([]domain.Ticket, error) {
	var out []domain.Ticket
	err := db.WithContext(ctx).
		Order("purchase_id ASC, line_item_id ASC").
		Find(&out).Error
	return out, err
}

// CountTickets returns the total number of stored tickets for pagination.
func CountTickets(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.Ticket{}).Count(&total).Error
	return total, err
}

// ListTicketsPage returns a page of tickets in the same deterministic order
// as ListTickets.
func ListTicketsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Ticket, error) {
	var out []domain.Ticket
	err := db.WithContext(ctx).
		Order("purchase_id ASC, line_item_id ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// ListTicketsForPurchase returns the tickets minted for one purchase,
// ordered by line-item id.
func ListTicketsForPurchase(ctx context.Context, db *gorm.DB, purchaseID string) ([]domain.Ticket, error) {
	var out []domain.Ticket
	err := db.WithContext(ctx).
		Where("purchase_id = ?", purchaseID).
		Order("line_item_id ASC").
		Find(&out).Error
	return out, err
}
