package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/kioskpay/kioskpay/internal/domain"
	"github.com/kioskpay/kioskpay/internal/store"
	"github.com/kioskpay/kioskpay/pkg/razorpay"
	"github.com/shopspring/decimal"
)

// Checkout is returned when a gateway order is opened for a kiosk.
type Checkout struct {
	KioskID uuid.UUID                `json:"kiosk_id"`
	Amount  decimal.Decimal          `json:"amount"`
	OrderID string                   `json:"order_id"`
	Options razorpay.CheckoutOptions `json:"options"`
}

// CreateOrder opens a gateway order for one cleaning at kioskID.
func (s *Service) CreateOrder(ctx context.Context, kioskID uuid.UUID, customerPhone string) (*Checkout, error) {
	kiosk, err := s.repo.GetKiosk(ctx, kioskID)
	if err != nil {
		return nil, err
	}
	if kiosk.Status != domain.KioskActive {
		return nil, fmt.Errorf("%w: kiosk %s is %s", domain.ErrConflict, kiosk.Name, kiosk.Status)
	}
	if err := domain.ValidateAmount("price_per_cleaning", kiosk.PricePerCleaning); err != nil {
		return nil, err
	}

	receipt := fmt.Sprintf("receipt_%s_%d", kiosk.ID.String()[:8], s.now().Unix())
	notes := map[string]string{"kiosk_id": kiosk.ID.String(), "kiosk_name": kiosk.Name}
	order, err := s.gateway.CreateOrder(ctx, razorpay.ToPaise(kiosk.PricePerCleaning), domain.CurrencyINR, receipt, notes)
	if err != nil {
		s.logger.Error("failed to create gateway order", "kiosk_id", kiosk.ID, "error", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrGateway, err)
	}

	prefill := razorpay.Prefill{Contact: strings.TrimSpace(customerPhone)}
	description := fmt.Sprintf("Cleaning at %s", kiosk.Name)
	return &Checkout{
		KioskID: kiosk.ID,
		Amount:  kiosk.PricePerCleaning,
		OrderID: order.ID,
		Options: s.gateway.CheckoutOptions(*order, s.opts.BrandName, description, prefill),
	}, nil
}

// DismissCheckout records that the buyer closed the modal. Nothing changes.
func (s *Service) DismissCheckout(ctx context.Context, kioskID uuid.UUID, orderID string) {
	s.logger.Info("checkout dismissed", "kiosk_id", kioskID, "order_id", orderID)
}

// CaptureInput is the gateway callback posted by the browser.
type CaptureInput struct {
	KioskID       uuid.UUID
	OrderID       string
	PaymentID     string
	Signature     string
	CustomerPhone string
}

// CaptureResult is the outcome of a successful capture. Duplicate is set
// when the gateway payment had already been recorded.
type CaptureResult struct {
	Payment   *domain.Payment `json:"payment"`
	Kiosk     *domain.Kiosk   `json:"kiosk,omitempty"`
	Duplicate bool            `json:"duplicate"`
}

type paymentEvent struct {
	PaymentID    uuid.UUID       `json:"payment_id"`
	KioskID      uuid.UUID       `json:"kiosk_id"`
	Amount       decimal.Decimal `json:"amount"`
	PlatformFee  decimal.Decimal `json:"platform_fee"`
	OwnerRevenue decimal.Decimal `json:"owner_revenue"`
	Status       string          `json:"status"`
}

// CapturePayment verifies the gateway signature and records the payment.
// A failed verification is stored as a failed payment and reported as a
// gateway error. Only a verified callback can read back an earlier capture.
func (s *Service) CapturePayment(ctx context.Context, in CaptureInput) (*CaptureResult, error) {
	in.OrderID = strings.TrimSpace(in.OrderID)
	in.PaymentID = strings.TrimSpace(in.PaymentID)
	if in.OrderID == "" {
		return nil, domain.NewValidationError("order_id", "is required")
	}
	if in.PaymentID == "" {
		return nil, domain.NewValidationError("payment_id", "is required")
	}

	kiosk, err := s.repo.GetKiosk(ctx, in.KioskID)
	if err != nil {
		return nil, err
	}
	split, err := s.opts.Splitter.Split(kiosk.PricePerCleaning)
	if err != nil {
		return nil, err
	}

	details := domain.CaptureDetails{
		KioskID:          kiosk.ID,
		GatewayOrderID:   in.OrderID,
		GatewayPaymentID: in.PaymentID,
		CustomerPhone:    in.CustomerPhone,
	}

	if !s.gateway.VerifyPaymentSignature(in.OrderID, in.PaymentID, in.Signature) {
		failed := domain.NewFailedPayment(details, split, s.now())
		if err := s.repo.CreatePayment(ctx, failed); err != nil {
			s.logger.Warn("failed to record failed payment", "payment_id", in.PaymentID, "error", err)
		}
		s.logger.Warn("payment signature verification failed", "kiosk_id", kiosk.ID, "order_id", in.OrderID)
		s.notify(ctx, domain.NotificationError, kiosk, nil, domain.NotificationHigh,
			fmt.Sprintf("Payment verification failed for %s", kiosk.Name))
		return nil, fmt.Errorf("%w: payment signature verification failed", domain.ErrGateway)
	}

	if existing, err := s.existingCapture(ctx, in); existing != nil || err != nil {
		return existing, err
	}

	payment := domain.NewCompletedPayment(details, split, s.now())
	var flagged bool
	updated, err := s.repo.CapturePayment(ctx, payment, func(k *domain.Kiosk) error {
		k.RecordPayment(split)
		flagged = s.opts.RefillPolicy.Apply(k)
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			if existing, lookupErr := s.existingCapture(ctx, in); existing != nil {
				return existing, nil
			} else if lookupErr != nil {
				return nil, lookupErr
			}
		}
		return nil, err
	}

	s.logger.Info("payment captured", "payment_id", payment.ID, "kiosk_id", updated.ID, "amount", payment.Amount.String())
	s.notify(ctx, domain.NotificationPayment, updated, nil, domain.NotificationMedium,
		fmt.Sprintf("New payment received: ₹%s for %s", payment.Amount.StringFixed(2), updated.Name))
	s.publishEvent(ctx, "payment.captured", paymentEvent{
		PaymentID:    payment.ID,
		KioskID:      payment.KioskID,
		Amount:       payment.Amount,
		PlatformFee:  payment.PlatformFee,
		OwnerRevenue: payment.OwnerRevenue,
		Status:       string(payment.Status),
	})
	if flagged {
		s.notifyRefillDue(ctx, updated)
	}
	return &CaptureResult{Payment: payment, Kiosk: updated}, nil
}

// existingCapture returns the stored capture for the same gateway payment,
// if any. A gateway payment recorded against another kiosk is a conflict.
func (s *Service) existingCapture(ctx context.Context, in CaptureInput) (*CaptureResult, error) {
	existing, err := s.repo.FindCompletedPaymentByGatewayID(ctx, in.PaymentID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if existing.KioskID != in.KioskID {
		return nil, fmt.Errorf("%w: gateway payment already recorded for another kiosk", domain.ErrConflict)
	}
	s.logger.Info("duplicate capture ignored", "payment_id", existing.ID, "gateway_payment_id", in.PaymentID)
	return &CaptureResult{Payment: existing, Duplicate: true}, nil
}

// RefundInput is an admin refund request. A nil Amount refunds in full.
type RefundInput struct {
	Amount *decimal.Decimal
	Reason string
}

// RefundResult carries the refunded payment and the applied reversal.
type RefundResult struct {
	Payment *domain.Payment `json:"payment"`
	Kiosk   *domain.Kiosk   `json:"kiosk"`
	Refund  domain.Refund   `json:"refund"`
}

// RefundPayment refunds a completed payment fully or partially and takes the
// refunded share back out of the kiosk counters.
func (s *Service) RefundPayment(ctx context.Context, actor domain.Actor, id uuid.UUID, in RefundInput) (*RefundResult, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	var refund domain.Refund
	payment, kiosk, err := s.repo.RefundPayment(ctx, id, func(p *domain.Payment, k *domain.Kiosk) error {
		r, err := s.applyRefund(p, k, in.Amount, in.Reason)
		refund = r
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment refunded", "payment_id", payment.ID, "amount", refund.Amount.String(), "full", refund.Full)
	s.notify(ctx, domain.NotificationPayment, kiosk, nil, domain.NotificationHigh,
		fmt.Sprintf("Refund of ₹%s processed for %s", refund.Amount.StringFixed(2), kiosk.Name))
	s.publishRefund(ctx, payment, refund)
	return &RefundResult{Payment: payment, Kiosk: kiosk, Refund: refund}, nil
}

// applyRefund refunds amount, or the whole payment when amount is nil, and
// reverses the split on the kiosk.
func (s *Service) applyRefund(p *domain.Payment, k *domain.Kiosk, amount *decimal.Decimal, reason string) (domain.Refund, error) {
	value := p.Amount
	if amount != nil {
		value = *amount
	}
	r, err := p.ApplyRefund(value, reason, s.now())
	if err != nil {
		return domain.Refund{}, err
	}
	k.ReverseRefund(r)
	return r, nil
}

func (s *Service) publishRefund(ctx context.Context, payment *domain.Payment, refund domain.Refund) {
	s.publishEvent(ctx, "payment.refunded", paymentEvent{
		PaymentID:    payment.ID,
		KioskID:      payment.KioskID,
		Amount:       refund.Amount,
		PlatformFee:  refund.Reversal.PlatformFee,
		OwnerRevenue: refund.Reversal.OwnerRevenue,
		Status:       string(payment.Status),
	})
}

// ListPayments returns payments visible to actor. kioskID and status are
// optional.
func (s *Service) ListPayments(ctx context.Context, actor domain.Actor, kioskID *uuid.UUID, status string, limit int) ([]domain.Payment, error) {
	if kioskID != nil {
		if _, err := s.kioskFor(ctx, actor, *kioskID); err != nil {
			return nil, err
		}
	}
	filter := scopeFilter(actor, store.Filter{KioskID: kioskID, Status: status, Limit: limit})
	return s.repo.ListPayments(ctx, filter)
}

// GetPayment loads one payment the actor may see.
func (s *Service) GetPayment(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Payment, error) {
	p, err := s.repo.GetPayment(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.kioskFor(ctx, actor, p.KioskID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, store.ErrPaymentNotFound
		}
		return nil, err
	}
	return p, nil
}
