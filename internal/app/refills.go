package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/kioskpay/kioskpay/internal/domain"
	"github.com/kioskpay/kioskpay/internal/store"
	"github.com/shopspring/decimal"
)

// RefillInput asks for a kiosk to be restocked.
type RefillInput struct {
	KioskID         uuid.UUID
	RequestedAmount int
	Reason          string
}

// CreateRefillRequest opens a refill request. Without a reason the current
// policy reason is used.
func (s *Service) CreateRefillRequest(ctx context.Context, actor domain.Actor, in RefillInput) (*domain.RefillRequest, error) {
	kiosk, err := s.kioskFor(ctx, actor, in.KioskID)
	if err != nil {
		return nil, err
	}
	reason := in.Reason
	if reason == "" {
		reason = s.opts.RefillPolicy.Reason(kiosk)
	}
	req, err := domain.NewRefillRequest(kiosk.ID, kiosk.CustomerID, in.RequestedAmount, reason, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateRefillRequest(ctx, req); err != nil {
		return nil, err
	}

	s.logger.Info("refill request created", "request_id", req.ID, "kiosk_id", kiosk.ID)
	s.notify(ctx, domain.NotificationRefill, kiosk, nil, domain.NotificationMedium,
		fmt.Sprintf("Refill requested for %s", kiosk.Name))
	return req, nil
}

// ListRefillRequests returns refill requests visible to actor.
func (s *Service) ListRefillRequests(ctx context.Context, actor domain.Actor, kioskID *uuid.UUID, status string, limit int) ([]domain.RefillRequest, error) {
	if kioskID != nil {
		if _, err := s.kioskFor(ctx, actor, *kioskID); err != nil {
			return nil, err
		}
	}
	filter := scopeFilter(actor, store.Filter{KioskID: kioskID, Status: status, Limit: limit})
	return s.repo.ListRefillRequests(ctx, filter)
}

// GetRefillRequest loads one refill request the actor may see.
func (s *Service) GetRefillRequest(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.RefillRequest, error) {
	req, err := s.repo.GetRefillRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.canSeeRequest(ctx, actor, req.KioskID, store.ErrRefillNotFound); err != nil {
		return nil, err
	}
	return req, nil
}

// ApproveRefill prices a pending request.
func (s *Service) ApproveRefill(ctx context.Context, actor domain.Actor, id uuid.UUID, cost decimal.Decimal, notes string) (*domain.RefillRequest, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	req, kiosk, err := s.repo.UpdateRefillRequest(ctx, id, func(r *domain.RefillRequest, _ *domain.Kiosk) error {
		return r.Approve(actor, cost, notes, s.now())
	})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, domain.NotificationRefill, kiosk, nil, domain.NotificationMedium,
		fmt.Sprintf("Refill request approved for %s. Cost: ₹%s", kiosk.Name, cost.StringFixed(2)))
	return req, nil
}

// CompleteRefill closes an approved request and resets the kiosk in the
// same transaction.
func (s *Service) CompleteRefill(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.RefillRequest, *domain.Kiosk, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, nil, err
	}
	req, kiosk, err := s.repo.UpdateRefillRequest(ctx, id, func(r *domain.RefillRequest, k *domain.Kiosk) error {
		if err := r.Complete(actor, s.now()); err != nil {
			return err
		}
		k.CompleteRefill(s.now())
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	s.logger.Info("refill completed", "request_id", req.ID, "kiosk_id", kiosk.ID)
	s.notify(ctx, domain.NotificationRefill, kiosk, nil, domain.NotificationLow,
		fmt.Sprintf("Refill completed for %s. Kiosk is ready for service.", kiosk.Name))
	return req, kiosk, nil
}

// RejectRefill declines a pending request.
func (s *Service) RejectRefill(ctx context.Context, actor domain.Actor, id uuid.UUID, notes string) (*domain.RefillRequest, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	req, kiosk, err := s.repo.UpdateRefillRequest(ctx, id, func(r *domain.RefillRequest, _ *domain.Kiosk) error {
		return r.Reject(actor, notes)
	})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, domain.NotificationRefill, kiosk, nil, domain.NotificationLow,
		fmt.Sprintf("Refill request rejected for %s", kiosk.Name))
	return req, nil
}
