package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type RefundTicketStatus string

const (
	RefundTicketPending   RefundTicketStatus = "pending"
	RefundTicketProcessed RefundTicketStatus = "processed"
	RefundTicketRejected  RefundTicketStatus = "rejected"
)

func (s RefundTicketStatus) Valid() bool {
	switch s {
	case RefundTicketPending, RefundTicketProcessed, RefundTicketRejected:
		return true
	}
	return false
}

// RefundTicket is a kiosk owner's request to refund one payment. An admin
// either processes it, which refunds the payment, or rejects it.
type RefundTicket struct {
	ID             uuid.UUID          `json:"id"`
	PaymentID      uuid.UUID          `json:"payment_id"`
	KioskID        uuid.UUID          `json:"kiosk_id"`
	CustomerID     *uuid.UUID         `json:"customer_id,omitempty"`
	Amount         decimal.Decimal    `json:"amount"`
	Reason         string             `json:"reason"`
	Status         RefundTicketStatus `json:"status"`
	CreatedAt      time.Time          `json:"created_at"`
	ResolvedAt     *time.Time         `json:"resolved_at,omitempty"`
	RefundedAmount *decimal.Decimal   `json:"refunded_amount,omitempty"`
	AdminNotes     *string            `json:"admin_notes,omitempty"`
}

// NewRefundTicket opens a pending ticket against a completed payment. A nil
// amount asks for the whole payment back.
func NewRefundTicket(p *Payment, customerID *uuid.UUID, amount *decimal.Decimal, reason string, at time.Time) (*RefundTicket, error) {
	if p.Status != PaymentCompleted {
		return nil, &TransitionError{Entity: "payment", From: string(p.Status), To: string(PaymentRefunded)}
	}
	requested := p.Amount
	if amount != nil {
		requested = *amount
	}
	if err := validateRefundAmount(p, requested); err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, NewValidationError("reason", "is required")
	}
	return &RefundTicket{
		ID:         uuid.New(),
		PaymentID:  p.ID,
		KioskID:    p.KioskID,
		CustomerID: customerID,
		Amount:     requested,
		Reason:     reason,
		Status:     RefundTicketPending,
		CreatedAt:  at.UTC(),
	}, nil
}

func validateRefundAmount(p *Payment, amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return NewValidationError("refund_amount", "must be greater than zero")
	}
	if amount.GreaterThan(p.Amount) {
		return NewValidationError("refund_amount", "cannot exceed the payment amount")
	}
	if !amount.Equal(amount.Round(2)) {
		return NewValidationError("refund_amount", "must have at most two decimal places")
	}
	return nil
}

func (t *RefundTicket) resolve(actor Actor, to RefundTicketStatus, notes string, at time.Time) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	if t.Status != RefundTicketPending {
		return &TransitionError{Entity: "refund ticket", From: string(t.Status), To: string(to)}
	}
	when := at.UTC()
	t.Status = to
	t.ResolvedAt = &when
	if trimmed := strings.TrimSpace(notes); trimmed != "" {
		t.AdminNotes = &trimmed
	}
	return nil
}

// Process marks a pending ticket as refunded. A nil amount keeps the amount
// the owner asked for. It returns the amount to refund.
func (t *RefundTicket) Process(actor Actor, amount *decimal.Decimal, notes string, at time.Time) (decimal.Decimal, error) {
	if err := t.resolve(actor, RefundTicketProcessed, notes, at); err != nil {
		return decimal.Zero, err
	}
	refunded := t.Amount
	if amount != nil {
		refunded = *amount
	}
	t.RefundedAmount = &refunded
	return refunded, nil
}

// Reject declines a pending ticket.
func (t *RefundTicket) Reject(actor Actor, notes string, at time.Time) error {
	return t.resolve(actor, RefundTicketRejected, notes, at)
}
