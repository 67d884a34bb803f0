// Package services – ValidatorService
//
// This file implements the ValidatorService, which classifies a presented
// credential key as active, expired, or unknown. The key may be either a
// line-item id or a literal scanned payload; the caller does not have to
// say which. Validation is read-only and safely repeatable: there is no
// redeemed/consumed transition in this design.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-ticket-backend/internal/domain"
	"github.com/tbourn/go-ticket-backend/internal/repo"
)

// Validation verdicts. Active and Expired mirror the derived ticket status;
// Unknown covers malformed or unrecognized keys and is a verdict, never an
// error.
const (
	VerdictActive  = domain.TicketStatusActive
	VerdictExpired = domain.TicketStatusExpired
	VerdictUnknown = "unknown"
)

// PurchaseDirectory defines the purchase-snapshot contract required by the
// validator and reporter for joining holder and product context onto
// tickets at read time.
type PurchaseDirectory interface {
	// GetPurchase fetches one purchase with its line items or
	// repo.ErrNotFound.
	GetPurchase(ctx context.Context, db *gorm.DB, id string) (*domain.Purchase, error)

	// ListCompletedPurchasesForHolder returns the holder's completed
	// purchases with their line items.
	ListCompletedPurchasesForHolder(ctx context.Context, db *gorm.DB, holderID string) ([]domain.Purchase, error)
}

// ValidationResult is the verdict for one presented key. Holder and product
// names are joined from the purchase snapshot at validation time, never
// denormalized into the ticket, so a billing-name correction is reflected
// in subsequent validations without re-issuance. For VerdictUnknown all
// other fields are zero.
type ValidationResult struct {
	Status      string     `json:"status"`
	LineItemID  string     `json:"line_item_id,omitempty"`
	PurchaseID  string     `json:"purchase_id,omitempty"`
	HolderName  string     `json:"holder_name,omitempty"`
	ProductName string     `json:"product_name,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// ValidatorService classifies presented credentials against stored tickets.
type ValidatorService struct {
	// DB is the GORM handle used for lookups.
	DB *gorm.DB
	// Store is the ticket repository.
	Store TicketStore
	// Purchases resolves holder and product context.
	Purchases PurchaseDirectory

	// Now supplies the clock, injectable for tests; time.Now when nil.
	Now func() time.Time
}

// Validate classifies key, which may be a line-item id or a raw payload.
//
// Lookup order: ticket by id first, then by exact payload. A miss on both
// is the Unknown verdict. For a hit, the ticket is active when
// now <= expiresAt (inclusive boundary) and expired after.
//
// The only error path is storage unavailability; any well-formed key
// yields exactly one of the three verdicts.
func (s *ValidatorService) Validate(ctx context.Context, key string) (*ValidationResult, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return &ValidationResult{Status: VerdictUnknown}, nil
	}

	t, err := s.Store.GetTicket(ctx, s.DB, key)
	if errors.Is(err, repo.ErrNotFound) {
		t, err = s.Store.FindTicketByPayload(ctx, s.DB, key)
	}
	if errors.Is(err, repo.ErrNotFound) {
		return &ValidationResult{Status: VerdictUnknown}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	res := &ValidationResult{
		Status:     t.Status(s.now()),
		LineItemID: t.LineItemID,
		PurchaseID: t.PurchaseID,
		ExpiresAt:  &t.ExpiresAt,
	}

	// Join holder/product context. A purged purchase snapshot does not
	// invalidate the credential itself; the verdict stands with the
	// context fields left empty.
	p, err := s.Purchases.GetPurchase(ctx, s.DB, t.PurchaseID)
	if errors.Is(err, repo.ErrNotFound) {
		return res, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	res.HolderName = p.HolderName
	if item, ok := p.Item(t.LineItemID); ok {
		res.ProductName = item.ProductName
	}
	return res, nil
}

// now returns the injected clock or the wall clock in UTC.
func (s *ValidatorService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}
