package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/kioskpay/kioskpay/internal/domain"
)

const refundTicketColumns = `id, payment_id, kiosk_id, customer_id, amount, reason, status, created_at,
	resolved_at, refunded_amount, admin_notes`

func scanRefundTicket(row pgx.Row) (*domain.RefundTicket, error) {
	var t domain.RefundTicket
	if err := row.Scan(
		&t.ID, &t.PaymentID, &t.KioskID, &t.CustomerID, &t.Amount, &t.Reason, &t.Status, &t.CreatedAt,
		&t.ResolvedAt, &t.RefundedAmount, &t.AdminNotes,
	); err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateRefundTicket inserts a pending ticket. A second open ticket for the
// same payment is a conflict.
func (r *PostgresRepository) CreateRefundTicket(ctx context.Context, t *domain.RefundTicket) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO refund_tickets (`+refundTicketColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		t.ID, t.PaymentID, t.KioskID, t.CustomerID, t.Amount, t.Reason, t.Status, t.CreatedAt,
		t.ResolvedAt, t.RefundedAmount, t.AdminNotes,
	)
	if err != nil {
		return storeError(err)
	}
	return nil
}

// GetRefundTicket loads one ticket.
func (r *PostgresRepository) GetRefundTicket(ctx context.Context, id uuid.UUID) (*domain.RefundTicket, error) {
	t, err := scanRefundTicket(r.db.QueryRow(ctx, "SELECT "+refundTicketColumns+" FROM refund_tickets WHERE id = $1", id))
	if err != nil {
		return nil, mapError(err, ErrRefundTicketNotFound)
	}
	return t, nil
}

// ListRefundTickets returns tickets newest first.
func (r *PostgresRepository) ListRefundTickets(ctx context.Context, filter Filter) ([]domain.RefundTicket, error) {
	w := &where{}
	if filter.KioskID != nil {
		w.add("kiosk_id = $%d", *filter.KioskID)
	}
	if filter.CustomerID != nil {
		w.add("customer_id = $%d", *filter.CustomerID)
	}
	if filter.Status != "" {
		w.add("status = $%d", filter.Status)
	}
	query := "SELECT " + refundTicketColumns + " FROM refund_tickets" + w.String() + " ORDER BY created_at DESC" + w.limit(filter.Limit)

	rows, err := r.db.Query(ctx, query, w.args...)
	if err != nil {
		return nil, storeError(err)
	}
	defer rows.Close()

	tickets := make([]domain.RefundTicket, 0)
	for rows.Next() {
		t, err := scanRefundTicket(rows)
		if err != nil {
			return nil, storeError(err)
		}
		tickets = append(tickets, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(err)
	}
	return tickets, nil
}

func lockRefundTicket(ctx context.Context, q querier, id uuid.UUID) (*domain.RefundTicket, error) {
	t, err := scanRefundTicket(q.QueryRow(ctx, "SELECT "+refundTicketColumns+" FROM refund_tickets WHERE id = $1 FOR UPDATE", id))
	if err != nil {
		return nil, mapError(err, ErrRefundTicketNotFound)
	}
	return t, nil
}

func saveRefundTicket(ctx context.Context, q querier, t *domain.RefundTicket) error {
	if _, err := q.Exec(ctx,
		`UPDATE refund_tickets SET status = $1, resolved_at = $2, refunded_amount = $3, admin_notes = $4
		 WHERE id = $5`,
		t.Status, t.ResolvedAt, t.RefundedAmount, t.AdminNotes, t.ID,
	); err != nil {
		return storeError(err)
	}
	return nil
}

// UpdateRefundTicket locks a ticket, applies mutate and saves it.
func (r *PostgresRepository) UpdateRefundTicket(ctx context.Context, id uuid.UUID, mutate func(*domain.RefundTicket) error) (*domain.RefundTicket, error) {
	var ticket *domain.RefundTicket
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		t, err := lockRefundTicket(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := mutate(t); err != nil {
			return err
		}
		if err := saveRefundTicket(ctx, tx, t); err != nil {
			return err
		}
		ticket = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

// ProcessRefundTicket locks the ticket, its payment and the payment's kiosk
// in that order, lets process change all three and saves them together.
func (r *PostgresRepository) ProcessRefundTicket(ctx context.Context, id uuid.UUID, process func(*domain.RefundTicket, *domain.Payment, *domain.Kiosk) error) (*domain.RefundTicket, *domain.Payment, *domain.Kiosk, error) {
	var (
		ticket  *domain.RefundTicket
		payment *domain.Payment
		kiosk   *domain.Kiosk
	)
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		t, err := lockRefundTicket(ctx, tx, id)
		if err != nil {
			return err
		}
		p, err := lockPayment(ctx, tx, t.PaymentID)
		if err != nil {
			return err
		}
		k, err := lockKiosk(ctx, tx, p.KioskID)
		if err != nil {
			return err
		}
		if err := process(t, p, k); err != nil {
			return err
		}
		if err := saveRefundTicket(ctx, tx, t); err != nil {
			return err
		}
		if err := savePaymentRefund(ctx, tx, p); err != nil {
			return err
		}
		if err := saveKiosk(ctx, tx, k); err != nil {
			return err
		}
		ticket, payment, kiosk = t, p, k
		return nil
	})
	if err != nil {
		return nil, nil, nil, err
	}
	return ticket, payment, kiosk, nil
}
