package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/kioskpay/kioskpay/internal/app"
	"github.com/kioskpay/kioskpay/internal/domain"
	"github.com/shopspring/decimal"
)

type createMaintenanceRequest struct {
	KioskID     uuid.UUID `json:"kiosk_id" validate:"required"`
	Type        string    `json:"type" validate:"required,oneof=refill repair cleaning other"`
	Priority    string    `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Description string    `json:"description" validate:"required,max=2000"`
}

type updateMaintenanceRequest struct {
	Status             *string          `json:"status" validate:"omitempty,oneof=pending in_progress completed cancelled"`
	AssignedTechnician *string          `json:"assigned_technician" validate:"omitempty,max=200"`
	Cost               *decimal.Decimal `json:"cost"`
	Notes              *string          `json:"notes" validate:"omitempty,max=2000"`
}

type createRefillRequest struct {
	KioskID         uuid.UUID `json:"kiosk_id" validate:"required"`
	RequestedAmount int       `json:"requested_amount" validate:"gte=0,lte=100"`
	Reason          string    `json:"reason" validate:"omitempty,max=500"`
}

type approveRefillRequest struct {
	Cost  *decimal.Decimal `json:"cost" validate:"required"`
	Notes string           `json:"notes" validate:"omitempty,max=2000"`
}

type rejectRefillRequest struct {
	Notes string `json:"notes" validate:"omitempty,max=2000"`
}

func (h *Handler) ListMaintenanceHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	q, ok := parseListQuery(w, r)
	if !ok {
		return
	}
	reqs, err := h.service.ListMaintenanceRequests(r.Context(), actor, q.KioskID, q.Status, q.Limit)
	if err != nil {
		writeServiceError(w, "list_maintenance", err)
		return
	}
	writeJSON(w, http.StatusOK, reqs)
}

func (h *Handler) CreateMaintenanceHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req createMaintenanceRequest
	if !h.decode(w, r, "create_maintenance", &req) {
		return
	}
	created, err := h.service.CreateMaintenanceRequest(r.Context(), actor, app.MaintenanceInput{
		KioskID:     req.KioskID,
		Type:        domain.MaintenanceType(req.Type),
		Priority:    domain.Priority(req.Priority),
		Description: req.Description,
	})
	if err != nil {
		writeServiceError(w, "create_maintenance", err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) GetMaintenanceHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "requestID")
	if !ok {
		return
	}
	req, err := h.service.GetMaintenanceRequest(r.Context(), actor, id)
	if err != nil {
		writeServiceError(w, "get_maintenance", err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *Handler) UpdateMaintenanceHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "requestID")
	if !ok {
		return
	}
	var body updateMaintenanceRequest
	if !h.decode(w, r, "update_maintenance", &body) {
		return
	}
	update := domain.MaintenanceUpdate{
		AssignedTechnician: body.AssignedTechnician,
		Cost:               body.Cost,
		Notes:              body.Notes,
	}
	if body.Status != nil {
		status := domain.MaintenanceStatus(*body.Status)
		update.Status = &status
	}
	updated, err := h.service.UpdateMaintenanceRequest(r.Context(), actor, id, update)
	if err != nil {
		writeServiceError(w, "update_maintenance", err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) ListRefillsHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	q, ok := parseListQuery(w, r)
	if !ok {
		return
	}
	reqs, err := h.service.ListRefillRequests(r.Context(), actor, q.KioskID, q.Status, q.Limit)
	if err != nil {
		writeServiceError(w, "list_refills", err)
		return
	}
	writeJSON(w, http.StatusOK, reqs)
}

func (h *Handler) CreateRefillHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req createRefillRequest
	if !h.decode(w, r, "create_refill", &req) {
		return
	}
	created, err := h.service.CreateRefillRequest(r.Context(), actor, app.RefillInput{
		KioskID: req.KioskID, RequestedAmount: req.RequestedAmount, Reason: req.Reason,
	})
	if err != nil {
		writeServiceError(w, "create_refill", err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) GetRefillHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "requestID")
	if !ok {
		return
	}
	req, err := h.service.GetRefillRequest(r.Context(), actor, id)
	if err != nil {
		writeServiceError(w, "get_refill", err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *Handler) ApproveRefillHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "requestID")
	if !ok {
		return
	}
	var req approveRefillRequest
	if !h.decode(w, r, "approve_refill", &req) {
		return
	}
	approved, err := h.service.ApproveRefill(r.Context(), actor, id, *req.Cost, req.Notes)
	if err != nil {
		writeServiceError(w, "approve_refill", err)
		return
	}
	writeJSON(w, http.StatusOK, approved)
}

func (h *Handler) CompleteRefillHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "requestID")
	if !ok {
		return
	}
	completed, kiosk, err := h.service.CompleteRefill(r.Context(), actor, id)
	if err != nil {
		writeServiceError(w, "complete_refill", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"request": completed, "kiosk": kiosk})
}

func (h *Handler) RejectRefillHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "requestID")
	if !ok {
		return
	}
	var req rejectRefillRequest
	if !h.decode(w, r, "reject_refill", &req) {
		return
	}
	rejected, err := h.service.RejectRefill(r.Context(), actor, id, req.Notes)
	if err != nil {
		writeServiceError(w, "reject_refill", err)
		return
	}
	writeJSON(w, http.StatusOK, rejected)
}
