package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/kioskpay/kioskpay/internal/domain"
	"github.com/kioskpay/kioskpay/internal/store"
	"github.com/shopspring/decimal"
)

// RefundTicketInput asks for a refund of one payment. A nil Amount asks for
// the whole payment.
type RefundTicketInput struct {
	PaymentID uuid.UUID
	Amount    *decimal.Decimal
	Reason    string
}

// RefundTicketResult is returned when an admin approves a ticket.
type RefundTicketResult struct {
	Ticket  *domain.RefundTicket `json:"ticket"`
	Payment *domain.Payment      `json:"payment"`
	Kiosk   *domain.Kiosk        `json:"kiosk"`
	Refund  domain.Refund        `json:"refund"`
}

// CreateRefundTicket opens a ticket against a completed payment on a kiosk
// the actor may see.
func (s *Service) CreateRefundTicket(ctx context.Context, actor domain.Actor, in RefundTicketInput) (*domain.RefundTicket, error) {
	payment, err := s.GetPayment(ctx, actor, in.PaymentID)
	if err != nil {
		return nil, err
	}
	kiosk, err := s.repo.GetKiosk(ctx, payment.KioskID)
	if err != nil {
		return nil, err
	}
	ticket, err := domain.NewRefundTicket(payment, kiosk.CustomerID, in.Amount, in.Reason, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateRefundTicket(ctx, ticket); err != nil {
		return nil, err
	}

	s.logger.Info("refund ticket created", "ticket_id", ticket.ID, "payment_id", payment.ID, "amount", ticket.Amount.String())
	s.notify(ctx, domain.NotificationPayment, kiosk, nil, domain.NotificationMedium,
		fmt.Sprintf("Refund requested: ₹%s for payment %s", ticket.Amount.StringFixed(2), payment.ID))
	return ticket, nil
}

// ListRefundTickets returns tickets visible to actor, newest first.
func (s *Service) ListRefundTickets(ctx context.Context, actor domain.Actor, kioskID *uuid.UUID, status string, limit int) ([]domain.RefundTicket, error) {
	if status != "" && !domain.RefundTicketStatus(status).Valid() {
		return nil, domain.NewValidationError("status", "is not a known refund ticket status")
	}
	if kioskID != nil {
		if _, err := s.kioskFor(ctx, actor, *kioskID); err != nil {
			return nil, err
		}
	}
	filter := scopeFilter(actor, store.Filter{KioskID: kioskID, Status: status, Limit: limit})
	return s.repo.ListRefundTickets(ctx, filter)
}

// GetRefundTicket loads one ticket the actor may see.
func (s *Service) GetRefundTicket(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.RefundTicket, error) {
	ticket, err := s.repo.GetRefundTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.canSeeRequest(ctx, actor, ticket.KioskID, store.ErrRefundTicketNotFound); err != nil {
		return nil, err
	}
	return ticket, nil
}

// ApproveRefundTicket refunds the ticket's payment and closes the ticket in
// one transaction. amount overrides the requested amount when set.
func (s *Service) ApproveRefundTicket(ctx context.Context, actor domain.Actor, id uuid.UUID, amount *decimal.Decimal, notes string) (*RefundTicketResult, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	var refund domain.Refund
	ticket, payment, kiosk, err := s.repo.ProcessRefundTicket(ctx, id, func(t *domain.RefundTicket, p *domain.Payment, k *domain.Kiosk) error {
		value, err := t.Process(actor, amount, notes, s.now())
		if err != nil {
			return err
		}
		r, err := s.applyRefund(p, k, &value, t.Reason)
		refund = r
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("refund ticket processed", "ticket_id", ticket.ID, "payment_id", payment.ID, "amount", refund.Amount.String())
	s.notify(ctx, domain.NotificationPayment, kiosk, ticket.CustomerID, domain.NotificationHigh,
		fmt.Sprintf("Refund processed: ₹%s has been refunded for payment %s", refund.Amount.StringFixed(2), payment.ID))
	s.publishRefund(ctx, payment, refund)
	return &RefundTicketResult{Ticket: ticket, Payment: payment, Kiosk: kiosk, Refund: refund}, nil
}

// RejectRefundTicket declines a pending ticket. The payment is untouched.
func (s *Service) RejectRefundTicket(ctx context.Context, actor domain.Actor, id uuid.UUID, notes string) (*domain.RefundTicket, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	ticket, err := s.repo.UpdateRefundTicket(ctx, id, func(t *domain.RefundTicket) error {
		return t.Reject(actor, notes, s.now())
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("refund ticket rejected", "ticket_id", ticket.ID, "payment_id", ticket.PaymentID)
	kiosk, err := s.repo.GetKiosk(ctx, ticket.KioskID)
	if err != nil {
		s.logger.Warn("refund ticket kiosk missing", "ticket_id", ticket.ID, "error", err)
	}
	message := "Refund request rejected"
	if ticket.AdminNotes != nil {
		message += ": " + *ticket.AdminNotes
	}
	s.notify(ctx, domain.NotificationPayment, kiosk, ticket.CustomerID, domain.NotificationMedium, message)
	return ticket, nil
}
