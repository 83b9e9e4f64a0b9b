package api

import (
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/kioskpay/kioskpay/internal/app"
	"github.com/shopspring/decimal"
)

type createRefundTicketRequest struct {
	PaymentID uuid.UUID        `json:"payment_id" validate:"required"`
	Amount    *decimal.Decimal `json:"amount"`
	Reason    string           `json:"reason" validate:"required,max=500"`
}

type approveRefundTicketRequest struct {
	Amount *decimal.Decimal `json:"amount"`
	Notes  string           `json:"notes" validate:"omitempty,max=2000"`
}

type rejectRefundTicketRequest struct {
	Notes string `json:"notes" validate:"omitempty,max=2000"`
}

func (h *Handler) ListRefundTicketsHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	q, ok := parseListQuery(w, r)
	if !ok {
		return
	}
	tickets, err := h.service.ListRefundTickets(r.Context(), actor, q.KioskID, q.Status, q.Limit)
	if err != nil {
		writeServiceError(w, "list_refund_tickets", err)
		return
	}
	writeJSON(w, http.StatusOK, tickets)
}

// CreateRefundTicketHandler lets a kiosk owner ask for a refund.
func (h *Handler) CreateRefundTicketHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req createRefundTicketRequest
	if !h.decode(w, r, "create_refund_ticket", &req) {
		return
	}
	ticket, err := h.service.CreateRefundTicket(r.Context(), actor, app.RefundTicketInput{
		PaymentID: req.PaymentID, Amount: req.Amount, Reason: req.Reason,
	})
	if err != nil {
		writeServiceError(w, "create_refund_ticket", err)
		return
	}
	writeJSON(w, http.StatusCreated, ticket)
}

func (h *Handler) GetRefundTicketHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "ticketID")
	if !ok {
		return
	}
	ticket, err := h.service.GetRefundTicket(r.Context(), actor, id)
	if err != nil {
		writeServiceError(w, "get_refund_ticket", err)
		return
	}
	writeJSON(w, http.StatusOK, ticket)
}

// ApproveRefundTicketHandler refunds the ticket's payment. amount overrides
// the requested amount.
func (h *Handler) ApproveRefundTicketHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "ticketID")
	if !ok {
		return
	}
	var req approveRefundTicketRequest
	if !h.decode(w, r, "approve_refund_ticket", &req) {
		return
	}
	result, err := h.service.ApproveRefundTicket(r.Context(), actor, id, req.Amount, req.Notes)
	if err != nil {
		writeServiceError(w, "approve_refund_ticket", err)
		return
	}
	log.Printf("level=info component=api endpoint=approve_refund_ticket outcome=accepted ticket_id=%s amount=%s", id, result.Refund.Amount)
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) RejectRefundTicketHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "ticketID")
	if !ok {
		return
	}
	var req rejectRefundTicketRequest
	if !h.decode(w, r, "reject_refund_ticket", &req) {
		return
	}
	ticket, err := h.service.RejectRefundTicket(r.Context(), actor, id, req.Notes)
	if err != nil {
		writeServiceError(w, "reject_refund_ticket", err)
		return
	}
	writeJSON(w, http.StatusOK, ticket)
}
