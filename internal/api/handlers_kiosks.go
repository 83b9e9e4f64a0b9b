package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/kioskpay/kioskpay/internal/app"
	"github.com/kioskpay/kioskpay/internal/domain"
	"github.com/shopspring/decimal"
)

type createKioskRequest struct {
	Name             string           `json:"name" validate:"required,max=200"`
	Location         string           `json:"location" validate:"required,max=500"`
	QRCode           string           `json:"qr_code" validate:"omitempty,max=100"`
	CustomerID       *uuid.UUID       `json:"customer_id"`
	PricePerCleaning *decimal.Decimal `json:"price_per_cleaning" validate:"required"`
	RefillLimit      int              `json:"refill_limit" validate:"gte=0"`
}

type updateKioskRequest struct {
	Name             *string          `json:"name" validate:"omitempty,max=200"`
	Location         *string          `json:"location" validate:"omitempty,max=500"`
	Status           *string          `json:"status" validate:"omitempty,oneof=active inactive maintenance"`
	CustomerID       *uuid.UUID       `json:"customer_id"`
	PricePerCleaning *decimal.Decimal `json:"price_per_cleaning"`
	RefillLimit      *int             `json:"refill_limit" validate:"omitempty,gte=0"`
}

type liquidLevelRequest struct {
	LiquidLevel *int `json:"liquid_level" validate:"required,gte=0,lte=100"`
}

func (h *Handler) ListKiosksHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	q, ok := parseListQuery(w, r)
	if !ok {
		return
	}
	kiosks, err := h.service.ListKiosks(r.Context(), actor, q.Status, q.Limit)
	if err != nil {
		writeServiceError(w, "list_kiosks", err)
		return
	}
	writeJSON(w, http.StatusOK, kiosks)
}

func (h *Handler) CreateKioskHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req createKioskRequest
	if !h.decode(w, r, "create_kiosk", &req) {
		return
	}
	onboarded, err := h.service.OnboardKiosk(r.Context(), actor, domain.NewKioskInput{
		Name:             req.Name,
		Location:         req.Location,
		QRCode:           req.QRCode,
		CustomerID:       req.CustomerID,
		PricePerCleaning: *req.PricePerCleaning,
		RefillLimit:      req.RefillLimit,
	})
	if err != nil {
		writeServiceError(w, "create_kiosk", err)
		return
	}
	writeJSON(w, http.StatusCreated, onboarded)
}

func (h *Handler) GetKioskHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "kioskID")
	if !ok {
		return
	}
	kiosk, err := h.service.GetKiosk(r.Context(), actor, id)
	if err != nil {
		writeServiceError(w, "get_kiosk", err)
		return
	}
	writeJSON(w, http.StatusOK, kiosk)
}

func (h *Handler) UpdateKioskHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "kioskID")
	if !ok {
		return
	}
	var req updateKioskRequest
	if !h.decode(w, r, "update_kiosk", &req) {
		return
	}
	update := app.KioskUpdate{
		Name:             req.Name,
		Location:         req.Location,
		CustomerID:       req.CustomerID,
		PricePerCleaning: req.PricePerCleaning,
		RefillLimit:      req.RefillLimit,
	}
	if req.Status != nil {
		status := domain.KioskStatus(*req.Status)
		update.Status = &status
	}
	kiosk, err := h.service.UpdateKiosk(r.Context(), actor, id, update)
	if err != nil {
		writeServiceError(w, "update_kiosk", err)
		return
	}
	writeJSON(w, http.StatusOK, kiosk)
}

func (h *Handler) UpdateLiquidLevelHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "kioskID")
	if !ok {
		return
	}
	var req liquidLevelRequest
	if !h.decode(w, r, "update_liquid_level", &req) {
		return
	}
	kiosk, err := h.service.UpdateLiquidLevel(r.Context(), actor, id, *req.LiquidLevel)
	if err != nil {
		writeServiceError(w, "update_liquid_level", err)
		return
	}
	writeJSON(w, http.StatusOK, kiosk)
}

func (h *Handler) KioskPaymentsHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "kioskID")
	if !ok {
		return
	}
	q, ok := parseListQuery(w, r)
	if !ok {
		return
	}
	payments, err := h.service.ListPayments(r.Context(), actor, &id, q.Status, q.Limit)
	if err != nil {
		writeServiceError(w, "kiosk_payments", err)
		return
	}
	writeJSON(w, http.StatusOK, payments)
}

func (h *Handler) KioskMaintenanceHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "kioskID")
	if !ok {
		return
	}
	q, ok := parseListQuery(w, r)
	if !ok {
		return
	}
	reqs, err := h.service.ListMaintenanceRequests(r.Context(), actor, &id, q.Status, q.Limit)
	if err != nil {
		writeServiceError(w, "kiosk_maintenance", err)
		return
	}
	writeJSON(w, http.StatusOK, reqs)
}

func (h *Handler) PaymentLinkHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "kioskID")
	if !ok {
		return
	}
	link, err := h.service.PaymentLink(r.Context(), actor, id)
	if err != nil {
		writeServiceError(w, "payment_link", err)
		return
	}
	writeJSON(w, http.StatusOK, link)
}
