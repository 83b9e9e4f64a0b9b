package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type RefillStatus string

const (
	RefillPending   RefillStatus = "pending"
	RefillApproved  RefillStatus = "approved"
	RefillCompleted RefillStatus = "completed"
	RefillRejected  RefillStatus = "rejected"
)

// RefillRequest asks the operator to restock a kiosk.
type RefillRequest struct {
	ID              uuid.UUID        `json:"id"`
	KioskID         uuid.UUID        `json:"kiosk_id"`
	CustomerID      *uuid.UUID       `json:"customer_id,omitempty"`
	RequestedAmount int              `json:"requested_amount"`
	Reason          string           `json:"reason"`
	Status          RefillStatus     `json:"status"`
	RequestDate     time.Time        `json:"request_date"`
	ApprovedDate    *time.Time       `json:"approved_date,omitempty"`
	CompletedDate   *time.Time       `json:"completed_date,omitempty"`
	Cost            *decimal.Decimal `json:"cost,omitempty"`
	Notes           *string          `json:"notes,omitempty"`
}

// NewRefillRequest opens a pending refill request. requestedAmount is the
// liquid to restock in percent of a full tank; zero means a full refill.
func NewRefillRequest(kioskID uuid.UUID, customerID *uuid.UUID, requestedAmount int, reason string, at time.Time) (*RefillRequest, error) {
	if requestedAmount == 0 {
		requestedAmount = FullLiquidLevel
	}
	if requestedAmount < 0 || requestedAmount > FullLiquidLevel {
		return nil, NewValidationError("requested_amount", "must be between 1 and 100")
	}
	return &RefillRequest{
		ID:              uuid.New(),
		KioskID:         kioskID,
		CustomerID:      customerID,
		RequestedAmount: requestedAmount,
		Reason:          strings.TrimSpace(reason),
		Status:          RefillPending,
		RequestDate:     at.UTC(),
	}, nil
}

func (r *RefillRequest) transition(actor Actor, from, to RefillStatus) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	if r.Status != from {
		return &TransitionError{Entity: "refill request", From: string(r.Status), To: string(to)}
	}
	return nil
}

// Approve assigns a cost to a pending request.
func (r *RefillRequest) Approve(actor Actor, cost decimal.Decimal, notes string, at time.Time) error {
	if err := r.transition(actor, RefillPending, RefillApproved); err != nil {
		return err
	}
	if cost.Sign() < 0 {
		return NewValidationError("cost", "cannot be negative")
	}
	when := at.UTC()
	r.Status = RefillApproved
	r.ApprovedDate = &when
	r.Cost = &cost
	r.setNotes(notes)
	return nil
}

// Complete closes an approved request. The caller resets the kiosk.
func (r *RefillRequest) Complete(actor Actor, at time.Time) error {
	if err := r.transition(actor, RefillApproved, RefillCompleted); err != nil {
		return err
	}
	when := at.UTC()
	r.Status = RefillCompleted
	r.CompletedDate = &when
	return nil
}

// Reject declines a pending request.
func (r *RefillRequest) Reject(actor Actor, notes string) error {
	if err := r.transition(actor, RefillPending, RefillRejected); err != nil {
		return err
	}
	r.Status = RefillRejected
	r.setNotes(notes)
	return nil
}

func (r *RefillRequest) setNotes(notes string) {
	if trimmed := strings.TrimSpace(notes); trimmed != "" {
		r.Notes = &trimmed
	}
}
