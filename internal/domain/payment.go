/**
 * @description
 * Payment records and their refund state machine.
 */
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentStatus is the lifecycle state of a payment.
type PaymentStatus string

const (
	PaymentPending       PaymentStatus = "pending"
	PaymentCompleted     PaymentStatus = "completed"
	PaymentFailed        PaymentStatus = "failed"
	PaymentRefunded      PaymentStatus = "refunded"
	PaymentPartialRefund PaymentStatus = "partial_refund"
)

// CurrencyINR is the only currency kiosks charge in.
const CurrencyINR = "INR"

// Terminal reports whether no further transition is allowed.
func (s PaymentStatus) Terminal() bool {
	switch s {
	case PaymentFailed, PaymentRefunded, PaymentPartialRefund:
		return true
	}
	return false
}

// Payment is a single kiosk transaction.
type Payment struct {
	ID               uuid.UUID        `json:"id"`
	KioskID          uuid.UUID        `json:"kiosk_id"`
	Amount           decimal.Decimal  `json:"amount"`
	Currency         string           `json:"currency"`
	Status           PaymentStatus    `json:"status"`
	GatewayPaymentID string           `json:"gateway_payment_id"`
	GatewayOrderID   string           `json:"gateway_order_id"`
	CustomerPhone    *string          `json:"customer_phone,omitempty"`
	RefundAmount     *decimal.Decimal `json:"refund_amount,omitempty"`
	RefundReason     *string          `json:"refund_reason,omitempty"`
	RefundedAt       *time.Time       `json:"refunded_at,omitempty"`
	PlatformFee      decimal.Decimal  `json:"platform_fee"`
	OwnerRevenue     decimal.Decimal  `json:"owner_revenue"`
	CreatedAt        time.Time        `json:"created_at"`
}

// CaptureDetails are the gateway facts a payment is created from.
type CaptureDetails struct {
	KioskID          uuid.UUID
	GatewayOrderID   string
	GatewayPaymentID string
	CustomerPhone    string
}

// NewCompletedPayment builds the record persisted after successful
// verification.
func NewCompletedPayment(details CaptureDetails, split RevenueSplit, at time.Time) *Payment {
	p := newPayment(details, split, at)
	p.Status = PaymentCompleted
	return p
}

// NewFailedPayment builds the audit record kept when verification fails.
func NewFailedPayment(details CaptureDetails, split RevenueSplit, at time.Time) *Payment {
	p := newPayment(details, split, at)
	p.Status = PaymentFailed
	return p
}

func newPayment(details CaptureDetails, split RevenueSplit, at time.Time) *Payment {
	p := &Payment{
		ID:               uuid.New(),
		KioskID:          details.KioskID,
		Amount:           split.Amount,
		Currency:         CurrencyINR,
		GatewayPaymentID: details.GatewayPaymentID,
		GatewayOrderID:   details.GatewayOrderID,
		PlatformFee:      split.PlatformFee,
		OwnerRevenue:     split.OwnerRevenue,
		CreatedAt:        at.UTC(),
	}
	if phone := strings.TrimSpace(details.CustomerPhone); phone != "" {
		p.CustomerPhone = &phone
	}
	return p
}

// Refund is the result of a successful refund transition.
type Refund struct {
	Amount   decimal.Decimal `json:"amount"`
	Full     bool            `json:"full"`
	Reversal RevenueSplit    `json:"reversal"`
}

// ApplyRefund moves a completed payment to refunded or partial_refund. The
// payment is left untouched when the request is rejected.
func (p *Payment) ApplyRefund(amount decimal.Decimal, reason string, at time.Time) (Refund, error) {
	if p.Status != PaymentCompleted {
		return Refund{}, &TransitionError{Entity: "payment", From: string(p.Status), To: string(PaymentRefunded)}
	}
	if err := validateRefundAmount(p, amount); err != nil {
		return Refund{}, err
	}

	full := amount.Equal(p.Amount)
	reversal := p.refundSplit(amount)

	refunded := amount
	trimmed := strings.TrimSpace(reason)
	when := at.UTC()
	p.RefundAmount = &refunded
	p.RefundReason = &trimmed
	p.RefundedAt = &when
	if full {
		p.Status = PaymentRefunded
	} else {
		p.Status = PaymentPartialRefund
	}
	return Refund{Amount: amount, Full: full, Reversal: reversal}, nil
}

// refundSplit divides a refund in the same proportion as the original split.
// A full refund reverses exactly the recorded fee and owner share.
func (p *Payment) refundSplit(amount decimal.Decimal) RevenueSplit {
	if amount.Equal(p.Amount) {
		return RevenueSplit{Amount: amount, PlatformFee: p.PlatformFee, OwnerRevenue: p.OwnerRevenue}
	}
	fee := amount.Mul(p.PlatformFee).Div(p.Amount).Round(2)
	return RevenueSplit{Amount: amount, PlatformFee: fee, OwnerRevenue: amount.Sub(fee)}
}
