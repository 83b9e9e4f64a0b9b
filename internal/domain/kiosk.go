/**
 * @description
 * Kiosk units, their revenue counters and the refill threshold policy.
 */
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// KioskStatus is the operational state of a kiosk.
type KioskStatus string

const (
	KioskActive      KioskStatus = "active"
	KioskInactive    KioskStatus = "inactive"
	KioskMaintenance KioskStatus = "maintenance"
)

// Valid reports whether s is a known status.
func (s KioskStatus) Valid() bool {
	switch s {
	case KioskActive, KioskInactive, KioskMaintenance:
		return true
	}
	return false
}

const (
	DefaultRefillPaymentLimit = 250
	DefaultLowLiquidThreshold = 25
	FullLiquidLevel           = 100
)

// Kiosk is a single cleaning unit. TotalPayments is the lifetime count;
// PaymentsSinceRefill resets whenever the kiosk is refilled.
type Kiosk struct {
	ID                  uuid.UUID       `json:"id"`
	Name                string          `json:"name"`
	Location            string          `json:"location"`
	QRCode              string          `json:"qr_code"`
	Status              KioskStatus     `json:"status"`
	TotalPayments       int             `json:"total_payments"`
	PaymentsSinceRefill int             `json:"payments_since_refill"`
	LiquidLevel         int             `json:"liquid_level"`
	NeedsRefill         bool            `json:"needs_refill"`
	LastMaintenance     *time.Time      `json:"last_maintenance,omitempty"`
	LastRefill          *time.Time      `json:"last_refill,omitempty"`
	TotalRevenue        decimal.Decimal `json:"total_revenue"`
	OwnerRevenue        decimal.Decimal `json:"owner_revenue"`
	PlatformRevenue     decimal.Decimal `json:"platform_revenue"`
	CustomerID          *uuid.UUID      `json:"customer_id,omitempty"`
	PricePerCleaning    decimal.Decimal `json:"price_per_cleaning"`
	RefillLimit         int             `json:"refill_limit,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
}

// NewKioskInput carries the onboarding form.
type NewKioskInput struct {
	Name             string
	Location         string
	QRCode           string
	CustomerID       *uuid.UUID
	PricePerCleaning decimal.Decimal
	RefillLimit      int
}

// NewKiosk onboards a kiosk with zeroed counters and a full tank.
func NewKiosk(in NewKioskInput, at time.Time) (*Kiosk, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, NewValidationError("name", "is required")
	}
	location := strings.TrimSpace(in.Location)
	if location == "" {
		return nil, NewValidationError("location", "is required")
	}
	if err := ValidateAmount("price_per_cleaning", in.PricePerCleaning); err != nil {
		return nil, err
	}
	if in.RefillLimit < 0 {
		return nil, NewValidationError("refill_limit", "cannot be negative")
	}

	id := uuid.New()
	qr := strings.TrimSpace(in.QRCode)
	if qr == "" {
		qr = "KIOSK-" + strings.ToUpper(id.String()[:8])
	}
	return &Kiosk{
		ID:               id,
		Name:             name,
		Location:         location,
		QRCode:           qr,
		Status:           KioskActive,
		LiquidLevel:      FullLiquidLevel,
		TotalRevenue:     decimal.Zero,
		OwnerRevenue:     decimal.Zero,
		PlatformRevenue:  decimal.Zero,
		CustomerID:       in.CustomerID,
		PricePerCleaning: in.PricePerCleaning,
		RefillLimit:      in.RefillLimit,
		CreatedAt:        at.UTC(),
	}, nil
}

// RecordPayment credits a completed payment to the kiosk counters.
func (k *Kiosk) RecordPayment(split RevenueSplit) {
	k.TotalPayments++
	k.PaymentsSinceRefill++
	k.TotalRevenue = k.TotalRevenue.Add(split.Amount)
	k.OwnerRevenue = k.OwnerRevenue.Add(split.OwnerRevenue)
	k.PlatformRevenue = k.PlatformRevenue.Add(split.PlatformFee)
}

// ReverseRefund takes a refund back out of the revenue counters. A full
// refund also removes the payment from the lifetime count. The counter since
// the last refill stays, the liquid was still used.
func (k *Kiosk) ReverseRefund(refund Refund) {
	k.TotalRevenue = nonNegative(k.TotalRevenue.Sub(refund.Reversal.Amount))
	k.OwnerRevenue = nonNegative(k.OwnerRevenue.Sub(refund.Reversal.OwnerRevenue))
	k.PlatformRevenue = nonNegative(k.PlatformRevenue.Sub(refund.Reversal.PlatformFee))
	if refund.Full && k.TotalPayments > 0 {
		k.TotalPayments--
	}
}

// SetLiquidLevel records a liquid reading in percent.
func (k *Kiosk) SetLiquidLevel(level int) error {
	if level < 0 || level > FullLiquidLevel {
		return NewValidationError("liquid_level", "must be between 0 and 100")
	}
	k.LiquidLevel = level
	return nil
}

// CompleteRefill resets the service counters. Revenue and the lifetime
// payment count are kept.
func (k *Kiosk) CompleteRefill(at time.Time) {
	when := at.UTC()
	k.LiquidLevel = FullLiquidLevel
	k.NeedsRefill = false
	k.PaymentsSinceRefill = 0
	k.LastRefill = &when
}

// ApplyMaintenanceTransition keeps the kiosk status in step with its
// maintenance tickets.
func (k *Kiosk) ApplyMaintenanceTransition(from, to MaintenanceStatus, at time.Time) {
	switch to {
	case MaintenanceInProgress:
		if k.Status == KioskActive {
			k.Status = KioskMaintenance
		}
	case MaintenanceCompleted:
		when := at.UTC()
		k.LastMaintenance = &when
		if k.Status == KioskMaintenance {
			k.Status = KioskActive
		}
	case MaintenanceCancelled:
		if from == MaintenanceInProgress && k.Status == KioskMaintenance {
			k.Status = KioskActive
		}
	}
}

// OwnedBy reports whether customerID owns the kiosk.
func (k *Kiosk) OwnedBy(customerID uuid.UUID) bool {
	return k.CustomerID != nil && *k.CustomerID == customerID
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.Sign() < 0 {
		return decimal.Zero
	}
	return d
}

// RefillPolicy decides when a kiosk must be refilled.
type RefillPolicy struct {
	PaymentLimit       int
	LowLiquidThreshold int
}

// DefaultRefillPolicy flags kiosks at 250 payments or below 25% liquid.
func DefaultRefillPolicy() RefillPolicy {
	return RefillPolicy{PaymentLimit: DefaultRefillPaymentLimit, LowLiquidThreshold: DefaultLowLiquidThreshold}
}

// LimitFor returns the payment limit for k, honouring its own override.
func (p RefillPolicy) LimitFor(k *Kiosk) int {
	if k.RefillLimit > 0 {
		return k.RefillLimit
	}
	if p.PaymentLimit > 0 {
		return p.PaymentLimit
	}
	return DefaultRefillPaymentLimit
}

func (p RefillPolicy) paymentLimitReached(k *Kiosk) bool {
	return k.PaymentsSinceRefill >= p.LimitFor(k)
}

func (p RefillPolicy) liquidLow(k *Kiosk) bool {
	return k.LiquidLevel < p.LowLiquidThreshold
}

// NeedsRefill evaluates the policy without mutating k.
func (p RefillPolicy) NeedsRefill(k *Kiosk) bool {
	return p.paymentLimitReached(k) || p.liquidLow(k)
}

// Reason explains why k needs a refill, or returns "".
func (p RefillPolicy) Reason(k *Kiosk) string {
	switch {
	case p.paymentLimitReached(k):
		return fmt.Sprintf("Reached %d payment limit", p.LimitFor(k))
	case p.liquidLow(k):
		return "Low liquid level"
	}
	return ""
}

// Apply stores the policy result on k and reports whether the kiosk has
// just become due for a refill.
func (p RefillPolicy) Apply(k *Kiosk) bool {
	before := k.NeedsRefill
	k.NeedsRefill = p.NeedsRefill(k)
	return k.NeedsRefill && !before
}
