// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the purchase
// snapshot that validation and reporting join against.
package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-ticket-backend/internal/domain"
)

// UpsertPurchase stores or replaces the snapshot of one purchase together
// with its line items. Re-delivery of the same purchase (e.g. after a
// billing-name correction) replaces the previous snapshot atomically.
func UpsertPurchase(ctx context.Context, db *gorm.DB, p *domain.Purchase) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"holder_id", "holder_name", "status", "completed_at"}),
			}).
			Omit("Items").
			Create(p).Error; err != nil {
			return err
		}

		// Replace line items wholesale so removed items do not linger.
		if err := tx.Where("purchase_id = ?", p.ID).Delete(&domain.PurchaseLineItem{}).Error; err != nil {
			return err
		}
		for i := range p.Items {
			p.Items[i].PurchaseID = p.ID
			if err := tx.Create(&p.Items[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// GetPurchase fetches a purchase snapshot with its line items, or
// ErrNotFound.
func GetPurchase(ctx context.Context, db *gorm.DB, id string) (*domain.Purchase, error) {
	var p domain.Purchase
	err := db.WithContext(ctx).
		Preload("Items", func(tx *gorm.DB) *gorm.DB { return tx.Order("id ASC") }).
		Where("id = ?", id).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListCompletedPurchasesForHolder returns the holder's completed purchases
// with their line items, ordered by purchase id. An empty slice (not an
// error) when the holder has none.
func ListCompletedPurchasesForHolder(ctx context.Context, db *gorm.DB, holderID string) ([]domain.Purchase, error) {
	var out []domain.Purchase
	err := db.WithContext(ctx).
		Preload("Items", func(tx *gorm.DB) *gorm.DB { return tx.Order("id ASC") }).
		Where("holder_id = ? AND status = ?", holderID, domain.PurchaseStatusCompleted).
		Order("id ASC").
		Find(&out).Error
	return out, err
}
