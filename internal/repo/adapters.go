package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-ticket-backend/internal/domain"
)

// Store adapts the package's free functions to the ticket-store contract
// consumed by the services layer. It carries no state; the db handle is
// passed per call.
type Store struct{}

func (Store) UpsertTicket(ctx context.Context, db *gorm.DB, t *domain.Ticket) error {
	return UpsertTicket(ctx, db, t)
}

func (Store) GetTicket(ctx context.Context, db *gorm.DB, lineItemID string) (*domain.Ticket, error) {
	return GetTicket(ctx, db, lineItemID)
}

func (Store) FindTicketByPayload(ctx context.Context, db *gorm.DB, pl string) (*domain.Ticket, error) {
	return FindTicketByPayload(ctx, db, pl)
}

func (Store) ListTickets(ctx context.Context, db *gorm.DB) ([]domain.Ticket, error) {
	return ListTickets(ctx, db)
}

func (Store) CountTickets(ctx context.Context, db *gorm.DB) (int64, error) {
	return CountTickets(ctx, db)
}

func (Store) ListTicketsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Ticket, error) {
	return ListTicketsPage(ctx, db, offset, limit)
}

func (Store) ListTicketsForPurchase(ctx context.Context, db *gorm.DB, purchaseID string) ([]domain.Ticket, error) {
	return ListTicketsForPurchase(ctx, db, purchaseID)
}

// Directory adapts the purchase-snapshot functions to the directory
// contract consumed by the services layer.
type Directory struct{}

func (Directory) GetPurchase(ctx context.Context, db *gorm.DB, id string) (*domain.Purchase, error) {
	return GetPurchase(ctx, db, id)
}

func (Directory) ListCompletedPurchasesForHolder(ctx context.Context, db *gorm.DB, holderID string) ([]domain.Purchase, error) {
	return ListCompletedPurchasesForHolder(ctx, db, holderID)
}
