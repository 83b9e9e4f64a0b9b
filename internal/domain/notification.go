package domain

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationRefill      NotificationType = "refill"
	NotificationMaintenance NotificationType = "maintenance"
	NotificationPayment     NotificationType = "payment"
	NotificationError       NotificationType = "error"
	NotificationRevenue     NotificationType = "revenue"
	NotificationCustomer    NotificationType = "customer"
)

func (t NotificationType) Valid() bool {
	switch t {
	case NotificationRefill, NotificationMaintenance, NotificationPayment, NotificationError, NotificationRevenue, NotificationCustomer:
		return true
	}
	return false
}

type NotificationPriority string

const (
	NotificationLow    NotificationPriority = "low"
	NotificationMedium NotificationPriority = "medium"
	NotificationHigh   NotificationPriority = "high"
)

// NotificationPriorityFor maps a request priority onto the three
// notification levels.
func NotificationPriorityFor(p Priority) NotificationPriority {
	switch p {
	case PriorityLow:
		return NotificationLow
	case PriorityHigh, PriorityUrgent:
		return NotificationHigh
	}
	return NotificationMedium
}

// Notification is an in-app alert for admins or a kiosk owner.
type Notification struct {
	ID         uuid.UUID            `json:"id"`
	Type       NotificationType     `json:"type"`
	KioskID    *uuid.UUID           `json:"kiosk_id,omitempty"`
	CustomerID *uuid.UUID           `json:"customer_id,omitempty"`
	Message    string               `json:"message"`
	CreatedAt  time.Time            `json:"created_at"`
	Read       bool                 `json:"read"`
	Priority   NotificationPriority `json:"priority"`
}
