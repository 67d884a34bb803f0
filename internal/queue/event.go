// Package queue contains the background consumer that listens for
// purchase-completed events from the purchase subsystem and runs ticket
// issuance for each delivery. This file defines the message payloads
// exchanged over the broker.
package queue

import (
	"time"

	"github.com/tbourn/go-ticket-backend/internal/domain"
)

// PurchaseCompletedEvent is published by the purchase subsystem once per
// purchase transition into the completed state. It carries the full
// purchase snapshot so the consumer can both record it for later joins and
// mint tickets without querying the publisher back.
type PurchaseCompletedEvent struct {
	PurchaseID  string          `json:"purchase_id"`
	HolderID    string          `json:"holder_id"`
	HolderName  string          `json:"holder_name"`
	Status      string          `json:"status"`
	CompletedAt time.Time       `json:"completed_at"`
	Items       []LineItemEvent `json:"items"`
}

// LineItemEvent is one purchased line item inside a PurchaseCompletedEvent.
type LineItemEvent struct {
	LineItemID  string `json:"line_item_id"`
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Ticketable  bool   `json:"ticketable"`
}

// Purchase converts the event into the domain snapshot, preserving the
// publisher's line-item order.
func (e PurchaseCompletedEvent) Purchase() domain.Purchase {
	p := domain.Purchase{
		ID:          e.PurchaseID,
		HolderID:    e.HolderID,
		HolderName:  e.HolderName,
		Status:      e.Status,
		CompletedAt: e.CompletedAt,
		Items:       make([]domain.PurchaseLineItem, 0, len(e.Items)),
	}
	for _, it := range e.Items {
		p.Items = append(p.Items, domain.PurchaseLineItem{
			ID:          it.LineItemID,
			PurchaseID:  e.PurchaseID,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Ticketable:  it.Ticketable,
		})
	}
	return p
}
