package services

import (
	"context"
	"testing"

	"github.com/tbourn/go-ticket-backend/internal/domain"
)

func newReporter(t *testing.T) (*ReporterService, *IssuerService) {
	t.Helper()
	db := newTestDB(t)
	issuer := NewIssuerService(db, storeShim{})
	issuer.Now = fixedClock(testNow)
	r := &ReporterService{DB: db, Store: storeShim{}, Purchases: directoryShim{}}
	return r, issuer
}

func twoPurchases() (domain.Purchase, domain.Purchase) {
	p1 := completedPurchase() // P1, Jane Doe, eligible L1
	p2 := domain.Purchase{
		ID:         "P2",
		HolderID:   "u2",
		HolderName: "Bob",
		Status:     domain.PurchaseStatusCompleted,
		Items: []domain.PurchaseLineItem{
			{ID: "L2", PurchaseID: "P2", ProductName: "Workshop pass", Ticketable: true},
			{ID: "L3", PurchaseID: "P2", ProductName: "Poster", Ticketable: false},
		},
	}
	return p1, p2
}

func TestReporter_ListAllTickets(t *testing.T) {
	r, issuer := newReporter(t)
	p1, p2 := twoPurchases()
	seedAndIssue(t, issuer, p1)
	seedAndIssue(t, issuer, p2)

	rows, err := r.ListAllTickets(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2 (one per eligible item, none for ineligible)", len(rows))
	}

	if rows[0].PurchaseID != "P1" || rows[0].HolderName != "Jane Doe" || rows[0].ProductName != "Concert entry" {
		t.Fatalf("row 0 join wrong: %+v", rows[0])
	}
	if rows[1].PurchaseID != "P2" || rows[1].HolderName != "Bob" || rows[1].ProductName != "Workshop pass" {
		t.Fatalf("row 1 join wrong: %+v", rows[1])
	}

	seen := map[string]bool{}
	for _, row := range rows {
		if seen[row.LineItemID] {
			t.Fatalf("duplicate row for %s", row.LineItemID)
		}
		seen[row.LineItemID] = true
		if row.LineItemID == "L3" {
			t.Fatal("ineligible line item appeared in the listing")
		}
	}
}

func TestReporter_OmitsUnresolvablePurchases(t *testing.T) {
	r, issuer := newReporter(t)
	p1, p2 := twoPurchases()
	seedAndIssue(t, issuer, p1)
	seedAndIssue(t, issuer, p2)

	// Purge P1's snapshot; its ticket must drop out of the listing without
	// failing the whole report.
	if err := r.DB.Where("id = ?", "P1").Delete(&domain.Purchase{}).Error; err != nil {
		t.Fatalf("delete purchase: %v", err)
	}

	rows, err := r.ListAllTickets(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 || rows[0].PurchaseID != "P2" {
		t.Fatalf("rows = %+v, want only P2's ticket", rows)
	}
}

func TestReporter_ListTicketsForHolder(t *testing.T) {
	r, issuer := newReporter(t)
	p1, p2 := twoPurchases()
	seedAndIssue(t, issuer, p1)
	seedAndIssue(t, issuer, p2)

	rows, err := r.ListTicketsForHolder(context.Background(), "u1")
	if err != nil {
		t.Fatalf("list for holder: %v", err)
	}
	if len(rows) != 1 || rows[0].LineItemID != "L1" || rows[0].HolderName != "Jane Doe" {
		t.Fatalf("rows = %+v, want Jane's single ticket", rows)
	}
	if rows[0].RenderURL == "" {
		t.Fatal("holder view needs the render url for display")
	}
}

func TestReporter_HolderWithNoTickets(t *testing.T) {
	r, issuer := newReporter(t)
	seedAndIssue(t, issuer, completedPurchase())

	rows, err := r.ListTicketsForHolder(context.Background(), "stranger")
	if err != nil {
		t.Fatalf("list for holder: %v", err)
	}
	if rows == nil || len(rows) != 0 {
		t.Fatalf("rows = %#v, want empty non-nil slice", rows)
	}
}
