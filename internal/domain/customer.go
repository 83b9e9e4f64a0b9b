package domain

import (
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CustomerStatus is the account state of a kiosk owner.
type CustomerStatus string

const (
	CustomerActive    CustomerStatus = "active"
	CustomerInactive  CustomerStatus = "inactive"
	CustomerSuspended CustomerStatus = "suspended"
)

// Valid reports whether s is a known status.
func (s CustomerStatus) Valid() bool {
	switch s {
	case CustomerActive, CustomerInactive, CustomerSuspended:
		return true
	}
	return false
}

// Customer owns zero or more kiosks. TotalKiosks and TotalRevenue are
// derived from the owned kiosks when read.
type Customer struct {
	ID               uuid.UUID       `json:"id"`
	Name             string          `json:"name"`
	Email            string          `json:"email"`
	Phone            string          `json:"phone"`
	RegistrationDate time.Time       `json:"registration_date"`
	TotalKiosks      int             `json:"total_kiosks"`
	TotalRevenue     decimal.Decimal `json:"total_revenue"`
	Status           CustomerStatus  `json:"status"`
	PasswordHash     string          `json:"-"`
}

// NewCustomer validates the registration form. The password hash is set by
// the caller.
func NewCustomer(name, email, phone string, at time.Time) (*Customer, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, NewValidationError("name", "is required")
	}
	normalized, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	return &Customer{
		ID:               uuid.New(),
		Name:             name,
		Email:            normalized,
		Phone:            strings.TrimSpace(phone),
		RegistrationDate: at.UTC(),
		TotalRevenue:     decimal.Zero,
		Status:           CustomerActive,
	}, nil
}

// NormalizeEmail lower-cases and validates an address.
func NormalizeEmail(email string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(email))
	if trimmed == "" {
		return "", NewValidationError("email", "is required")
	}
	if _, err := mail.ParseAddress(trimmed); err != nil {
		return "", NewValidationError("email", "is not a valid address")
	}
	return trimmed, nil
}
