// Package domain defines the persistence models for tickets and the purchase
// snapshots they are joined against. These types are mapped with GORM and
// form the core data layer of the ticket service.
package domain

import "time"

// Purchase status values as delivered by the purchase subsystem.
const (
	// PurchaseStatusCompleted marks a purchase whose payment flow finished.
	// Only completed purchases are eligible for ticket issuance.
	PurchaseStatusCompleted = "completed"
)

// Ticket status values derived at read time from ExpiresAt.
const (
	// TicketStatusActive means the ticket is within its validity window.
	TicketStatusActive = "active"
	// TicketStatusExpired means the validity window has passed.
	TicketStatusExpired = "expired"
)

// Ticket is the admission credential minted for one eligible purchased line
// item. At most one ticket exists per line item; re-issuance overwrites the
// same row.
//
// Fields:
//   - LineItemID: purchase-scoped unique key; primary key of the ticket.
//   - PurchaseID: back-reference to the owning purchase (lookup only).
//   - Payload: deterministic encoding of (purchase id, holder name,
//     line-item id); also an alternate validation key, so it is indexed.
//   - RenderURL: fully-formed request URL for the external code-rendering
//     service; derived solely from Payload and recomputable.
//   - IssuedAt / ExpiresAt: minting time and minting time plus the fixed
//     validity window. ExpiresAt is set once at issuance and never
//     recomputed implicitly.
type Ticket struct {
	LineItemID string    `json:"line_item_id" gorm:"type:varchar(64);primaryKey"`
	PurchaseID string    `json:"purchase_id"  gorm:"type:varchar(64);not null;index:idx_purchase_tickets"`
	Payload    string    `json:"payload"      gorm:"type:varchar(255);not null;uniqueIndex:ux_ticket_payload"`
	RenderURL  string    `json:"render_url"   gorm:"type:varchar(512);not null"`
	IssuedAt   time.Time `json:"issued_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// TableName returns the database table name for Ticket.
func (Ticket) TableName() string { return "tickets" }

// Status classifies the ticket against the given instant. The boundary is
// inclusive: a ticket expiring exactly now is still active.
func (t Ticket) Status(now time.Time) string {
	if now.After(t.ExpiresAt) {
		return TicketStatusExpired
	}
	return TicketStatusActive
}

// Purchase is the locally stored snapshot of a completed purchase as
// delivered by the external purchase subsystem. The core never mutates it
// except by replacing the whole snapshot when the same purchase is
// re-delivered (which is how billing-name corrections become visible).
type Purchase struct {
	ID          string    `json:"id"           gorm:"type:varchar(64);primaryKey"`
	HolderID    string    `json:"holder_id"    gorm:"type:varchar(64);not null;index:idx_holder_purchases"`
	HolderName  string    `json:"holder_name"  gorm:"type:varchar(255);not null"`
	Status      string    `json:"status"       gorm:"type:varchar(32);not null"`
	CompletedAt time.Time `json:"completed_at"`

	// Items is the ordered sequence of purchased line items. Items are
	// cascade-deleted when their purchase snapshot is replaced.
	Items []PurchaseLineItem `json:"items" gorm:"foreignKey:PurchaseID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Purchase.
func (Purchase) TableName() string { return "purchases" }

// Completed reports whether this purchase finished its payment flow.
func (p Purchase) Completed() bool { return p.Status == PurchaseStatusCompleted }

// Item returns the line item with the given id, if present.
func (p Purchase) Item(lineItemID string) (PurchaseLineItem, bool) {
	for _, it := range p.Items {
		if it.ID == lineItemID {
			return it, true
		}
	}
	return PurchaseLineItem{}, false
}

// PurchaseLineItem is one purchased item within a purchase. Ticketable is
// the explicit eligibility flag (resolved by the purchase subsystem before
// the core ever sees the item); only ticketable items are minted.
type PurchaseLineItem struct {
	ID          string `json:"id"           gorm:"type:varchar(64);primaryKey"`
	PurchaseID  string `json:"purchase_id"  gorm:"type:varchar(64);not null;index:idx_purchase_items"`
	ProductID   string `json:"product_id"   gorm:"type:varchar(64);not null"`
	ProductName string `json:"product_name" gorm:"type:varchar(255);not null"`
	Ticketable  bool   `json:"ticketable"   gorm:"not null"`
}

// TableName returns the database table name for PurchaseLineItem.
func (PurchaseLineItem) TableName() string { return "purchase_line_items" }
