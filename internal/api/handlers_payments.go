package api

import (
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/kioskpay/kioskpay/internal/app"
	"github.com/shopspring/decimal"
)

type createOrderRequest struct {
	KioskID       uuid.UUID `json:"kiosk_id" validate:"required"`
	CustomerPhone string    `json:"customer_phone" validate:"omitempty,max=32"`
}

type captureRequest struct {
	KioskID           uuid.UUID `json:"kiosk_id" validate:"required"`
	RazorpayOrderID   string    `json:"razorpay_order_id" validate:"required"`
	RazorpayPaymentID string    `json:"razorpay_payment_id" validate:"required"`
	RazorpaySignature string    `json:"razorpay_signature" validate:"required"`
	CustomerPhone     string    `json:"customer_phone" validate:"omitempty,max=32"`
}

type dismissRequest struct {
	KioskID uuid.UUID `json:"kiosk_id" validate:"required"`
	OrderID string    `json:"order_id"`
}

type refundRequest struct {
	Amount *decimal.Decimal `json:"amount"`
	Reason string           `json:"reason" validate:"omitempty,max=500"`
}

// CreateOrderHandler opens a gateway order for the public pay page.
func (h *Handler) CreateOrderHandler(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if !h.decode(w, r, "create_order", &req) {
		return
	}
	checkout, err := h.service.CreateOrder(r.Context(), req.KioskID, req.CustomerPhone)
	if err != nil {
		writeServiceError(w, "create_order", err)
		return
	}
	log.Printf("level=info component=api endpoint=create_order outcome=accepted kiosk_id=%s order_id=%s", req.KioskID, checkout.OrderID)
	writeJSON(w, http.StatusCreated, checkout)
}

// CapturePaymentHandler receives the checkout success callback.
func (h *Handler) CapturePaymentHandler(w http.ResponseWriter, r *http.Request) {
	var req captureRequest
	if !h.decode(w, r, "capture_payment", &req) {
		return
	}
	result, err := h.service.CapturePayment(r.Context(), app.CaptureInput{
		KioskID:       req.KioskID,
		OrderID:       req.RazorpayOrderID,
		PaymentID:     req.RazorpayPaymentID,
		Signature:     req.RazorpaySignature,
		CustomerPhone: req.CustomerPhone,
	})
	if err != nil {
		writeServiceError(w, "capture_payment", err)
		return
	}
	status := http.StatusCreated
	if result.Duplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, result)
}

// DismissCheckoutHandler acknowledges a closed checkout modal.
func (h *Handler) DismissCheckoutHandler(w http.ResponseWriter, r *http.Request) {
	var req dismissRequest
	if !h.decode(w, r, "dismiss_checkout", &req) {
		return
	}
	h.service.DismissCheckout(r.Context(), req.KioskID, req.OrderID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListPaymentsHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	q, ok := parseListQuery(w, r)
	if !ok {
		return
	}
	payments, err := h.service.ListPayments(r.Context(), actor, q.KioskID, q.Status, q.Limit)
	if err != nil {
		writeServiceError(w, "list_payments", err)
		return
	}
	writeJSON(w, http.StatusOK, payments)
}

func (h *Handler) GetPaymentHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "paymentID")
	if !ok {
		return
	}
	payment, err := h.service.GetPayment(r.Context(), actor, id)
	if err != nil {
		writeServiceError(w, "get_payment", err)
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

// RefundPaymentHandler refunds a payment. Without an amount the whole
// payment is refunded.
func (h *Handler) RefundPaymentHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "paymentID")
	if !ok {
		return
	}
	var req refundRequest
	if !h.decode(w, r, "refund_payment", &req) {
		return
	}
	result, err := h.service.RefundPayment(r.Context(), actor, id, app.RefundInput{Amount: req.Amount, Reason: req.Reason})
	if err != nil {
		writeServiceError(w, "refund_payment", err)
		return
	}
	log.Printf("level=info component=api endpoint=refund_payment outcome=accepted payment_id=%s amount=%s", id, result.Refund.Amount)
	writeJSON(w, http.StatusOK, result)
}
