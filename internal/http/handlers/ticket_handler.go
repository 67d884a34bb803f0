// Ticket HTTP handlers.
//
// This file exposes the REST endpoints around stored tickets:
//   - POST /admin/tickets/validate  (staff validation of a presented key)
//   - GET  /admin/tickets           (staff audit listing, paginated)
//   - GET  /tickets                 (holder self-service listing)
//   - GET  /purchases/{id}/tickets  (receipt surface: render URLs per purchase)
//
// Validation is read-only: an unrecognized or malformed key is reported as
// the "unknown" verdict with HTTP 200, never as an error. Staff clients
// render that as "invalid or not found".
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-ticket-backend/internal/services"
	"github.com/tbourn/go-ticket-backend/internal/utils"
)

// ValidateTicketRequest is the JSON payload for validating a credential.
// TicketID is free text: either a line-item id or a literal scanned
// payload; the server figures out which.
type ValidateTicketRequest struct {
	TicketID string `json:"ticket_id" binding:"required" example:"L1"`
}

// TicketListResponse is the paginated audit listing envelope.
type TicketListResponse struct {
	Items    []services.ReportRow `json:"items"`
	Total    int64                `json:"total"`
	Page     int                  `json:"page"`
	PageSize int                  `json:"page_size"`
}

// HolderTicketsResponse is the holder self-service listing envelope.
type HolderTicketsResponse struct {
	HolderID string               `json:"holder_id"`
	Items    []services.ReportRow `json:"items"`
}

// ValidateTicket godoc
// @ID          validateTicket
// @Summary     Validate a presented ticket
// @Description Classifies a free-text key (line-item id or scanned payload) as active, expired, or unknown.
// @Tags        Admin
// @Accept      json
// @Produce     json
// @Param       body body handlers.ValidateTicketRequest true "Key to validate"
// @Success     200 {object} services.ValidationResult
// @Failure     400 {object} handlers.ErrorResponse "Missing ticket_id"
// @Failure     500 {object} handlers.ErrorResponse "Store unavailable"
// @Router      /admin/tickets/validate [post]
func (h *Handlers) ValidateTicket(c *gin.Context) {
	var req ValidateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "ticket_id is required")
		return
	}

	res, err := h.validator.Validate(c.Request.Context(), req.TicketID)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, res)
}

// ListAllTickets godoc
// @ID          listAllTickets
// @Summary     List all issued tickets
// @Description Audit listing of every stored ticket joined with holder and product context.
// @Tags        Admin
// @Produce     json
// @Param       page       query int false "Page number (1-based)"  default(1)
// @Param       page_size  query int false "Rows per page"          default(20)
// @Success     200 {object} handlers.TicketListResponse
// @Failure     500 {object} handlers.ErrorResponse "Store unavailable"
// @Router      /admin/tickets [get]
func (h *Handlers) ListAllTickets(c *gin.Context) {
	page := utils.AtoiDefault(c.Query("page"), 1)
	pageSize := utils.AtoiDefault(c.Query("page_size"), 20)
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	rows, total, err := h.reporter.ListAllTicketsPage(c.Request.Context(), page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, TicketListResponse{Items: rows, Total: total, Page: page, PageSize: pageSize})
}

// ListMyTickets godoc
// @ID          listMyTickets
// @Summary     List the current holder's tickets
// @Description Tickets across the holder's completed purchases, with render URLs for display.
// @Tags        Tickets
// @Produce     json
// @Param       X-User-ID header string false "Holder ID (demo header)" example(user123)
// @Success     200 {object} handlers.HolderTicketsResponse
// @Failure     500 {object} handlers.ErrorResponse "Store unavailable"
// @Router      /tickets [get]
func (h *Handlers) ListMyTickets(c *gin.Context) {
	uid := userID(c)

	rows, err := h.reporter.ListTicketsForHolder(c.Request.Context(), uid)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, HolderTicketsResponse{HolderID: uid, Items: rows})
}

// ListPurchaseTickets godoc
// @ID          listPurchaseTickets
// @Summary     List tickets for one purchase
// @Description Receipt/thank-you surface: the tickets minted for a purchase, including render URLs.
// @Tags        Tickets
// @Produce     json
// @Param       id path string true "Purchase ID"
// @Success     200 {object} gin.H
// @Failure     500 {object} handlers.ErrorResponse "Store unavailable"
// @Router      /purchases/{id}/tickets [get]
func (h *Handlers) ListPurchaseTickets(c *gin.Context) {
	purchaseID := c.Param("id")

	tickets, err := h.lister.TicketsForPurchase(c.Request.Context(), purchaseID)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, gin.H{"purchase_id": purchaseID, "tickets": tickets})
}
