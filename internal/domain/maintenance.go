/**
 * @description
 * Maintenance requests and the per-role transition whitelist that replaces
 * free-form status edits.
 */
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type MaintenanceType string

const (
	MaintenanceRefill   MaintenanceType = "refill"
	MaintenanceRepair   MaintenanceType = "repair"
	MaintenanceCleaning MaintenanceType = "cleaning"
	MaintenanceOther    MaintenanceType = "other"
)

func (t MaintenanceType) Valid() bool {
	switch t {
	case MaintenanceRefill, MaintenanceRepair, MaintenanceCleaning, MaintenanceOther:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

type MaintenanceStatus string

const (
	MaintenancePending    MaintenanceStatus = "pending"
	MaintenanceInProgress MaintenanceStatus = "in_progress"
	MaintenanceCompleted  MaintenanceStatus = "completed"
	MaintenanceCancelled  MaintenanceStatus = "cancelled"
)

// MaintenanceRequest is a service ticket for one kiosk.
type MaintenanceRequest struct {
	ID                 uuid.UUID         `json:"id"`
	KioskID            uuid.UUID         `json:"kiosk_id"`
	CustomerID         *uuid.UUID        `json:"customer_id,omitempty"`
	Type               MaintenanceType   `json:"type"`
	Priority           Priority          `json:"priority"`
	Description        string            `json:"description"`
	Status             MaintenanceStatus `json:"status"`
	RequestDate        time.Time         `json:"request_date"`
	CompletedDate      *time.Time        `json:"completed_date,omitempty"`
	AssignedTechnician *string           `json:"assigned_technician,omitempty"`
	Cost               *decimal.Decimal  `json:"cost,omitempty"`
	Notes              *string           `json:"notes,omitempty"`
}

var maintenanceTransitions = map[AccountKind]map[MaintenanceStatus][]MaintenanceStatus{
	AccountAdmin: {
		MaintenancePending:    {MaintenanceInProgress, MaintenanceCompleted, MaintenanceCancelled},
		MaintenanceInProgress: {MaintenanceCompleted, MaintenanceCancelled},
	},
	AccountCustomer: {
		MaintenancePending: {MaintenanceCancelled},
	},
}

// CanTransitionMaintenance checks the whitelist for kind.
func CanTransitionMaintenance(kind AccountKind, from, to MaintenanceStatus) bool {
	for _, allowed := range maintenanceTransitions[kind][from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// NewMaintenanceRequest validates and opens a pending request.
func NewMaintenanceRequest(kioskID uuid.UUID, customerID *uuid.UUID, kind MaintenanceType, priority Priority, description string, at time.Time) (*MaintenanceRequest, error) {
	if !kind.Valid() {
		return nil, NewValidationError("type", "must be one of refill, repair, cleaning, other")
	}
	if priority == "" {
		priority = PriorityMedium
	}
	if !priority.Valid() {
		return nil, NewValidationError("priority", "must be one of low, medium, high, urgent")
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, NewValidationError("description", "is required")
	}
	return &MaintenanceRequest{
		ID:          uuid.New(),
		KioskID:     kioskID,
		CustomerID:  customerID,
		Type:        kind,
		Priority:    priority,
		Description: description,
		Status:      MaintenancePending,
		RequestDate: at.UTC(),
	}, nil
}

// MaintenanceUpdate is an edit to a request. Nil fields are left alone.
type MaintenanceUpdate struct {
	Status             *MaintenanceStatus
	AssignedTechnician *string
	Cost               *decimal.Decimal
	Notes              *string
}

// Apply validates and applies u on behalf of actor. It returns the previous
// status so callers can react to the transition.
func (r *MaintenanceRequest) Apply(actor Actor, u MaintenanceUpdate, at time.Time) (MaintenanceStatus, error) {
	previous := r.Status
	if !actor.IsAdmin() {
		if !actor.CanSeeCustomer(r.CustomerID) {
			return previous, ErrForbidden
		}
		if u.AssignedTechnician != nil || u.Cost != nil {
			return previous, ErrForbidden
		}
	}
	if u.Cost != nil && u.Cost.Sign() < 0 {
		return previous, NewValidationError("cost", "cannot be negative")
	}
	if u.Status != nil && *u.Status != r.Status {
		if !CanTransitionMaintenance(actor.Kind, r.Status, *u.Status) {
			return previous, &TransitionError{Entity: "maintenance request", From: string(r.Status), To: string(*u.Status)}
		}
	}

	if u.Status != nil && *u.Status != r.Status {
		r.Status = *u.Status
		if r.Status == MaintenanceCompleted {
			when := at.UTC()
			r.CompletedDate = &when
		}
	}
	if u.AssignedTechnician != nil {
		tech := strings.TrimSpace(*u.AssignedTechnician)
		r.AssignedTechnician = &tech
	}
	if u.Cost != nil {
		cost := *u.Cost
		r.Cost = &cost
	}
	if u.Notes != nil {
		notes := strings.TrimSpace(*u.Notes)
		r.Notes = &notes
	}
	return previous, nil
}
