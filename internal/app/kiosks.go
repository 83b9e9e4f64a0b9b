package app

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/kioskpay/kioskpay/internal/domain"
	"github.com/kioskpay/kioskpay/internal/store"
	"github.com/kioskpay/kioskpay/pkg/razorpay"
	"github.com/shopspring/decimal"
)

// Onboarding is the result of adding a kiosk: the row plus the revenue
// split one cleaning will produce.
type Onboarding struct {
	Kiosk *domain.Kiosk      `json:"kiosk"`
	Split domain.RevenueSplit `json:"split"`
}

// OnboardKiosk registers a kiosk, optionally assigned to a customer.
func (s *Service) OnboardKiosk(ctx context.Context, actor domain.Actor, in domain.NewKioskInput) (*Onboarding, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	split, err := s.opts.Splitter.Split(in.PricePerCleaning)
	if err != nil {
		return nil, err
	}
	if in.CustomerID != nil {
		if _, err := s.repo.GetCustomer(ctx, *in.CustomerID); err != nil {
			return nil, err
		}
	}
	kiosk, err := domain.NewKiosk(in, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateKiosk(ctx, kiosk); err != nil {
		return nil, err
	}

	s.logger.Info("kiosk onboarded", "kiosk_id", kiosk.ID, "customer_id", kiosk.CustomerID)
	s.notify(ctx, domain.NotificationMaintenance, kiosk, nil, domain.NotificationLow,
		fmt.Sprintf("New kiosk added: %s at %s", kiosk.Name, kiosk.Location))
	return &Onboarding{Kiosk: kiosk, Split: split}, nil
}

// PreviewSplit shows how amount would be divided.
func (s *Service) PreviewSplit(amount decimal.Decimal) (domain.RevenueSplit, error) {
	return s.opts.Splitter.Split(amount)
}

// ListKiosks returns kiosks visible to actor.
func (s *Service) ListKiosks(ctx context.Context, actor domain.Actor, status string, limit int) ([]domain.Kiosk, error) {
	if status != "" && !domain.KioskStatus(status).Valid() {
		return nil, domain.NewValidationError("status", "is not a known kiosk status")
	}
	return s.repo.ListKiosks(ctx, scopeFilter(actor, store.Filter{Status: status, Limit: limit}))
}

// GetKiosk loads one kiosk the actor may see.
func (s *Service) GetKiosk(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Kiosk, error) {
	return s.kioskFor(ctx, actor, id)
}

// KioskUpdate is an admin edit. Nil fields are left alone.
type KioskUpdate struct {
	Name             *string
	Location         *string
	Status           *domain.KioskStatus
	CustomerID       *uuid.UUID
	PricePerCleaning *decimal.Decimal
	RefillLimit      *int
}

// UpdateKiosk applies an admin edit and re-evaluates the refill policy,
// since the limit may have changed.
func (s *Service) UpdateKiosk(ctx context.Context, actor domain.Actor, id uuid.UUID, u KioskUpdate) (*domain.Kiosk, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if u.CustomerID != nil {
		if _, err := s.repo.GetCustomer(ctx, *u.CustomerID); err != nil {
			return nil, err
		}
	}
	var flagged bool
	kiosk, err := s.repo.UpdateKiosk(ctx, id, func(k *domain.Kiosk) error {
		if u.Name != nil {
			name := strings.TrimSpace(*u.Name)
			if name == "" {
				return domain.NewValidationError("name", "cannot be empty")
			}
			k.Name = name
		}
		if u.Location != nil {
			location := strings.TrimSpace(*u.Location)
			if location == "" {
				return domain.NewValidationError("location", "cannot be empty")
			}
			k.Location = location
		}
		if u.Status != nil {
			if !u.Status.Valid() {
				return domain.NewValidationError("status", "is not a known kiosk status")
			}
			k.Status = *u.Status
		}
		if u.CustomerID != nil {
			owner := *u.CustomerID
			k.CustomerID = &owner
		}
		if u.PricePerCleaning != nil {
			if err := domain.ValidateAmount("price_per_cleaning", *u.PricePerCleaning); err != nil {
				return err
			}
			k.PricePerCleaning = *u.PricePerCleaning
		}
		if u.RefillLimit != nil {
			if *u.RefillLimit < 0 {
				return domain.NewValidationError("refill_limit", "cannot be negative")
			}
			k.RefillLimit = *u.RefillLimit
		}
		flagged = s.opts.RefillPolicy.Apply(k)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if flagged {
		s.notifyRefillDue(ctx, kiosk)
	}
	return kiosk, nil
}

// UpdateLiquidLevel records a manual liquid reading from the dashboard.
func (s *Service) UpdateLiquidLevel(ctx context.Context, actor domain.Actor, id uuid.UUID, level int) (*domain.Kiosk, error) {
	if _, err := s.kioskFor(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.RecordLiquidLevel(ctx, id, level)
}

// RecordLiquidLevel stores a liquid reading and raises a refill alert when
// the kiosk has just become due.
func (s *Service) RecordLiquidLevel(ctx context.Context, id uuid.UUID, level int) (*domain.Kiosk, error) {
	var flagged bool
	kiosk, err := s.repo.UpdateKiosk(ctx, id, func(k *domain.Kiosk) error {
		if err := k.SetLiquidLevel(level); err != nil {
			return err
		}
		flagged = s.opts.RefillPolicy.Apply(k)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if flagged {
		s.notifyRefillDue(ctx, kiosk)
	}
	return kiosk, nil
}

// QRPayload is encoded into the QR code printed on a kiosk.
type QRPayload struct {
	MerchantID string    `json:"merchant_id"`
	KioskID    uuid.UUID `json:"kiosk_id"`
	Amount     int64     `json:"amount"`
	Currency   string    `json:"currency"`
	Timestamp  int64     `json:"timestamp"`
}

// PaymentLink is the public pay URL of a kiosk and its QR payload.
type PaymentLink struct {
	URL string    `json:"url"`
	QR  QRPayload `json:"qr"`
}

// PaymentLink builds the link buyers open to pay at a kiosk.
func (s *Service) PaymentLink(ctx context.Context, actor domain.Actor, id uuid.UUID) (*PaymentLink, error) {
	kiosk, err := s.kioskFor(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	query := url.Values{}
	query.Set("kiosk_id", kiosk.ID.String())
	query.Set("amount", kiosk.PricePerCleaning.StringFixed(2))
	query.Set("currency", domain.CurrencyINR)

	var merchant string
	if s.gateway != nil {
		merchant = s.gateway.KeyID()
	}
	return &PaymentLink{
		URL: s.opts.PublicBaseURL + "/pay?" + query.Encode(),
		QR: QRPayload{
			MerchantID: merchant,
			KioskID:    kiosk.ID,
			Amount:     razorpay.ToPaise(kiosk.PricePerCleaning),
			Currency:   domain.CurrencyINR,
			Timestamp:  s.now().Unix(),
		},
	}, nil
}
