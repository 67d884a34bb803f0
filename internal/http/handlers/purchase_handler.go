// Purchase HTTP handlers.
//
// This file exposes the inbound purchase-completed notification:
//   - POST /purchases/completed
//
// It is the HTTP twin of the queue consumer: the purchase subsystem may
// push completions over either edge. The snapshot is recorded first so the
// validator and reporter can join holder/product context later, then
// issuance runs. The whole operation is idempotent, so a retried
// notification converges instead of duplicating tickets.
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-ticket-backend/internal/domain"
	"github.com/tbourn/go-ticket-backend/internal/services"
)

// PurchaseCompletedRequest is the JSON payload of a completed purchase.
type PurchaseCompletedRequest struct {
	PurchaseID  string            `json:"purchase_id" binding:"required" example:"P1"`
	HolderID    string            `json:"holder_id"   binding:"required" example:"user123"`
	HolderName  string            `json:"holder_name" binding:"required" example:"Jane Doe"`
	Status      string            `json:"status"      binding:"required" example:"completed"`
	CompletedAt time.Time         `json:"completed_at"`
	Items       []LineItemRequest `json:"items"       binding:"required"`
}

// LineItemRequest is one purchased line item in the notification.
type LineItemRequest struct {
	LineItemID  string `json:"line_item_id" binding:"required" example:"L1"`
	ProductID   string `json:"product_id"   example:"prod-1"`
	ProductName string `json:"product_name" example:"Concert entry"`
	Ticketable  bool   `json:"ticketable"`
}

// LineItemFailure reports one line item whose issuance failed.
type LineItemFailure struct {
	LineItemID string `json:"line_item_id"`
	Error      string `json:"error"`
}

// IssueResponse reports the outcome of one purchase-completed notification.
type IssueResponse struct {
	PurchaseID string            `json:"purchase_id"`
	Tickets    []domain.Ticket   `json:"tickets"`
	Failures   []LineItemFailure `json:"failures,omitempty"`
}

// purchase converts the request into the domain snapshot, preserving
// line-item order.
func (r PurchaseCompletedRequest) purchase() domain.Purchase {
	p := domain.Purchase{
		ID:          r.PurchaseID,
		HolderID:    r.HolderID,
		HolderName:  r.HolderName,
		Status:      r.Status,
		CompletedAt: r.CompletedAt,
		Items:       make([]domain.PurchaseLineItem, 0, len(r.Items)),
	}
	for _, it := range r.Items {
		p.Items = append(p.Items, domain.PurchaseLineItem{
			ID:          it.LineItemID,
			PurchaseID:  r.PurchaseID,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Ticketable:  it.Ticketable,
		})
	}
	return p
}

// PurchaseCompleted godoc
// @ID          purchaseCompleted
// @Summary     Notify a completed purchase
// @Description Records the purchase snapshot and mints tickets for its eligible line items. Idempotent: a retried notification overwrites the same tickets.
// @Tags        Purchases
// @Accept      json
// @Produce     json
// @Param       body body handlers.PurchaseCompletedRequest true "Completed purchase"
// @Success     200 {object} handlers.IssueResponse
// @Failure     400 {object} handlers.ErrorResponse "Malformed notification"
// @Failure     422 {object} handlers.ErrorResponse "Purchase is not completed"
// @Failure     500 {object} handlers.ErrorResponse "Store unavailable"
// @Router      /purchases/completed [post]
func (h *Handlers) PurchaseCompleted(c *gin.Context) {
	var req PurchaseCompletedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "malformed purchase notification")
		return
	}

	p := req.purchase()
	ctx := c.Request.Context()

	if !p.Completed() {
		// Reject before any write; the snapshot of a non-completed purchase
		// is not recorded either.
		fail(c, http.StatusUnprocessableEntity, ErrCodeNotCompleted, "purchase is not completed")
		return
	}

	if err := h.recorder.RecordPurchase(ctx, p); err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}

	minted, failures, err := h.issuer.IssueForPurchase(ctx, p)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPurchaseNotCompleted):
			fail(c, http.StatusUnprocessableEntity, ErrCodeNotCompleted, "purchase is not completed")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeIssuanceFailed, err.Error())
		}
		return
	}

	resp := IssueResponse{PurchaseID: p.ID, Tickets: minted}
	if resp.Tickets == nil {
		resp.Tickets = []domain.Ticket{}
	}
	for _, f := range failures {
		resp.Failures = append(resp.Failures, LineItemFailure{LineItemID: f.LineItemID, Error: f.Err.Error()})
	}
	ok(c, http.StatusOK, resp)
}
