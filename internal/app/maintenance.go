package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/kioskpay/kioskpay/internal/domain"
	"github.com/kioskpay/kioskpay/internal/store"
)

// MaintenanceInput opens a maintenance ticket.
type MaintenanceInput struct {
	KioskID     uuid.UUID
	Type        domain.MaintenanceType
	Priority    domain.Priority
	Description string
}

// CreateMaintenanceRequest opens a ticket for a kiosk the actor may see.
func (s *Service) CreateMaintenanceRequest(ctx context.Context, actor domain.Actor, in MaintenanceInput) (*domain.MaintenanceRequest, error) {
	kiosk, err := s.kioskFor(ctx, actor, in.KioskID)
	if err != nil {
		return nil, err
	}
	req, err := domain.NewMaintenanceRequest(kiosk.ID, kiosk.CustomerID, in.Type, in.Priority, in.Description, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateMaintenanceRequest(ctx, req); err != nil {
		return nil, err
	}

	s.logger.Info("maintenance request created", "request_id", req.ID, "kiosk_id", kiosk.ID, "type", req.Type)
	s.notify(ctx, domain.NotificationMaintenance, kiosk, nil, domain.NotificationPriorityFor(req.Priority),
		fmt.Sprintf("New %s request for %s: %s", req.Type, kiosk.Name, req.Description))
	return req, nil
}

// ListMaintenanceRequests returns tickets visible to actor.
func (s *Service) ListMaintenanceRequests(ctx context.Context, actor domain.Actor, kioskID *uuid.UUID, status string, limit int) ([]domain.MaintenanceRequest, error) {
	if kioskID != nil {
		if _, err := s.kioskFor(ctx, actor, *kioskID); err != nil {
			return nil, err
		}
	}
	filter := scopeFilter(actor, store.Filter{KioskID: kioskID, Status: status, Limit: limit})
	return s.repo.ListMaintenanceRequests(ctx, filter)
}

// GetMaintenanceRequest loads one ticket the actor may see.
func (s *Service) GetMaintenanceRequest(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.MaintenanceRequest, error) {
	req, err := s.repo.GetMaintenanceRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.canSeeRequest(ctx, actor, req.KioskID, store.ErrMaintenanceNotFound); err != nil {
		return nil, err
	}
	return req, nil
}

// UpdateMaintenanceRequest applies an edit through the transition whitelist
// and keeps the kiosk status in step.
func (s *Service) UpdateMaintenanceRequest(ctx context.Context, actor domain.Actor, id uuid.UUID, u domain.MaintenanceUpdate) (*domain.MaintenanceRequest, error) {
	var previous domain.MaintenanceStatus
	req, kiosk, err := s.repo.UpdateMaintenanceRequest(ctx, id, func(r *domain.MaintenanceRequest, k *domain.Kiosk) error {
		if !actor.CanSeeCustomer(k.CustomerID) {
			return store.ErrMaintenanceNotFound
		}
		from, err := r.Apply(actor, u, s.now())
		if err != nil {
			return err
		}
		previous = from
		if r.Status != from {
			k.ApplyMaintenanceTransition(from, r.Status, s.now())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if req.Status != previous {
		s.logger.Info("maintenance request transitioned", "request_id", req.ID, "from", previous, "to", req.Status)
		if req.Status == domain.MaintenanceCompleted {
			s.notify(ctx, domain.NotificationMaintenance, kiosk, nil, domain.NotificationLow,
				fmt.Sprintf("Maintenance completed for %s", kiosk.Name))
		}
	}
	return req, nil
}

// canSeeRequest hides requests on kiosks the actor does not own.
func (s *Service) canSeeRequest(ctx context.Context, actor domain.Actor, kioskID uuid.UUID, notFound error) error {
	if actor.IsAdmin() {
		return nil
	}
	if _, err := s.kioskFor(ctx, actor, kioskID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return notFound
		}
		return err
	}
	return nil
}
