package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/kioskpay/kioskpay/internal/domain"
	"github.com/kioskpay/kioskpay/internal/store"
)

type notificationEvent struct {
	ID         uuid.UUID                   `json:"id"`
	Type       domain.NotificationType     `json:"type"`
	KioskID    *uuid.UUID                  `json:"kiosk_id,omitempty"`
	CustomerID *uuid.UUID                  `json:"customer_id,omitempty"`
	Message    string                      `json:"message"`
	Priority   domain.NotificationPriority `json:"priority"`
}

// notify stores an in-app notification and publishes it. Failures are
// logged and never fail the calling flow.
func (s *Service) notify(ctx context.Context, kind domain.NotificationType, kiosk *domain.Kiosk, customerID *uuid.UUID, priority domain.NotificationPriority, message string) {
	n := &domain.Notification{
		ID:         uuid.New(),
		Type:       kind,
		CustomerID: customerID,
		Message:    message,
		CreatedAt:  s.now().UTC(),
		Priority:   priority,
	}
	if kiosk != nil {
		id := kiosk.ID
		n.KioskID = &id
		if n.CustomerID == nil {
			n.CustomerID = kiosk.CustomerID
		}
	}
	if err := s.repo.CreateNotification(ctx, n); err != nil {
		s.logger.Warn("failed to store notification", "type", kind, "error", err)
		return
	}
	s.publishEvent(ctx, fmt.Sprintf("notification.%s", kind), notificationEvent{
		ID:         n.ID,
		Type:       n.Type,
		KioskID:    n.KioskID,
		CustomerID: n.CustomerID,
		Message:    n.Message,
		Priority:   n.Priority,
	})
}

// notifyRefillDue raises the refill alert for a kiosk that just crossed the
// policy threshold.
func (s *Service) notifyRefillDue(ctx context.Context, k *domain.Kiosk) {
	reason := s.opts.RefillPolicy.Reason(k)
	s.notify(ctx, domain.NotificationRefill, k, nil, domain.NotificationHigh,
		fmt.Sprintf("Kiosk %s needs a refill: %s", k.Name, reason))
}

// NotificationQuery narrows ListNotifications.
type NotificationQuery struct {
	Type       domain.NotificationType
	UnreadOnly bool
	Limit      int
}

// ListNotifications returns notifications visible to actor, newest first.
func (s *Service) ListNotifications(ctx context.Context, actor domain.Actor, q NotificationQuery) ([]domain.Notification, error) {
	if q.Type != "" && !q.Type.Valid() {
		return nil, domain.NewValidationError("type", "is not a known notification type")
	}
	filter := scopeFilter(actor, store.Filter{Type: string(q.Type), UnreadOnly: q.UnreadOnly, Limit: q.Limit})
	return s.repo.ListNotifications(ctx, filter)
}

// MarkNotificationRead flags one notification as read.
func (s *Service) MarkNotificationRead(ctx context.Context, actor domain.Actor, id uuid.UUID) error {
	n, err := s.repo.GetNotification(ctx, id)
	if err != nil {
		return err
	}
	if !actor.CanSeeCustomer(n.CustomerID) {
		return store.ErrNotificationNotFound
	}
	return s.repo.MarkNotificationRead(ctx, id)
}

// MarkAllNotificationsRead flags every notification the actor can see.
func (s *Service) MarkAllNotificationsRead(ctx context.Context, actor domain.Actor) (int64, error) {
	var customerID *uuid.UUID
	if id, ok := actor.CustomerID(); ok {
		customerID = &id
	}
	return s.repo.MarkAllNotificationsRead(ctx, customerID)
}
