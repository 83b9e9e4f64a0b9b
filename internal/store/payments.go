package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/kioskpay/kioskpay/internal/domain"
)

const paymentColumns = `p.id, p.kiosk_id, p.amount, p.currency, p.status, p.gateway_payment_id,
	p.gateway_order_id, p.customer_phone, p.refund_amount, p.refund_reason, p.refunded_at,
	p.platform_fee, p.owner_revenue, p.created_at`

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var p domain.Payment
	if err := row.Scan(
		&p.ID, &p.KioskID, &p.Amount, &p.Currency, &p.Status, &p.GatewayPaymentID,
		&p.GatewayOrderID, &p.CustomerPhone, &p.RefundAmount, &p.RefundReason, &p.RefundedAt,
		&p.PlatformFee, &p.OwnerRevenue, &p.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}

func insertPayment(ctx context.Context, q querier, p *domain.Payment) error {
	_, err := q.Exec(ctx,
		`INSERT INTO payments (id, kiosk_id, amount, currency, status, gateway_payment_id,
			gateway_order_id, customer_phone, refund_amount, refund_reason, refunded_at,
			platform_fee, owner_revenue, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		p.ID, p.KioskID, p.Amount, p.Currency, p.Status, p.GatewayPaymentID,
		p.GatewayOrderID, p.CustomerPhone, p.RefundAmount, p.RefundReason, p.RefundedAt,
		p.PlatformFee, p.OwnerRevenue, p.CreatedAt,
	)
	if err != nil {
		return storeError(err)
	}
	return nil
}

// CreatePayment inserts a payment without touching kiosk counters. It is
// used for failed attempts.
func (r *PostgresRepository) CreatePayment(ctx context.Context, p *domain.Payment) error {
	return insertPayment(ctx, r.db, p)
}

// CapturePayment inserts a completed payment and credits its kiosk in one
// transaction. The kiosk row is locked while credit runs.
func (r *PostgresRepository) CapturePayment(ctx context.Context, p *domain.Payment, credit func(*domain.Kiosk) error) (*domain.Kiosk, error) {
	var updated *domain.Kiosk
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		k, err := lockKiosk(ctx, tx, p.KioskID)
		if err != nil {
			return err
		}
		if err := insertPayment(ctx, tx, p); err != nil {
			return err
		}
		if err := credit(k); err != nil {
			return err
		}
		if err := saveKiosk(ctx, tx, k); err != nil {
			return err
		}
		updated = k
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// GetPayment loads one payment.
func (r *PostgresRepository) GetPayment(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	p, err := scanPayment(r.db.QueryRow(ctx, "SELECT "+paymentColumns+" FROM payments p WHERE p.id = $1", id))
	if err != nil {
		return nil, mapError(err, ErrPaymentNotFound)
	}
	return p, nil
}

// FindCompletedPaymentByGatewayID finds the non-failed payment recorded for
// a gateway payment id.
func (r *PostgresRepository) FindCompletedPaymentByGatewayID(ctx context.Context, gatewayPaymentID string) (*domain.Payment, error) {
	p, err := scanPayment(r.db.QueryRow(ctx,
		"SELECT "+paymentColumns+" FROM payments p WHERE p.gateway_payment_id = $1 AND p.status <> 'failed'",
		gatewayPaymentID,
	))
	if err != nil {
		return nil, mapError(err, ErrPaymentNotFound)
	}
	return p, nil
}

// ListPayments returns payments newest first. A customer filter joins
// through kiosk ownership.
func (r *PostgresRepository) ListPayments(ctx context.Context, filter Filter) ([]domain.Payment, error) {
	w := &where{}
	from := " FROM payments p"
	if filter.CustomerID != nil {
		from += " JOIN kiosks k ON k.id = p.kiosk_id"
		w.add("k.customer_id = $%d", *filter.CustomerID)
	}
	if filter.KioskID != nil {
		w.add("p.kiosk_id = $%d", *filter.KioskID)
	}
	if filter.Status != "" {
		w.add("p.status = $%d", filter.Status)
	}
	query := "SELECT " + paymentColumns + from + w.String() + " ORDER BY p.created_at DESC" + w.limit(filter.Limit)

	rows, err := r.db.Query(ctx, query, w.args...)
	if err != nil {
		return nil, storeError(err)
	}
	defer rows.Close()

	payments := make([]domain.Payment, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, storeError(err)
		}
		payments = append(payments, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(err)
	}
	return payments, nil
}

// RefundPayment locks the payment and its kiosk, lets refund apply the
// state change to both, then saves them. Concurrent refunds on the same
// payment queue on the row lock.
func (r *PostgresRepository) RefundPayment(ctx context.Context, id uuid.UUID, refund func(*domain.Payment, *domain.Kiosk) error) (*domain.Payment, *domain.Kiosk, error) {
	var (
		payment *domain.Payment
		kiosk   *domain.Kiosk
	)
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		p, err := lockPayment(ctx, tx, id)
		if err != nil {
			return err
		}
		k, err := lockKiosk(ctx, tx, p.KioskID)
		if err != nil {
			return err
		}
		if err := refund(p, k); err != nil {
			return err
		}
		if err := savePaymentRefund(ctx, tx, p); err != nil {
			return err
		}
		if err := saveKiosk(ctx, tx, k); err != nil {
			return err
		}
		payment, kiosk = p, k
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return payment, kiosk, nil
}

func lockPayment(ctx context.Context, q querier, id uuid.UUID) (*domain.Payment, error) {
	p, err := scanPayment(q.QueryRow(ctx, "SELECT "+paymentColumns+" FROM payments p WHERE p.id = $1 FOR UPDATE", id))
	if err != nil {
		return nil, mapError(err, ErrPaymentNotFound)
	}
	return p, nil
}

func savePaymentRefund(ctx context.Context, q querier, p *domain.Payment) error {
	if _, err := q.Exec(ctx,
		"UPDATE payments SET status = $1, refund_amount = $2, refund_reason = $3, refunded_at = $4 WHERE id = $5",
		p.Status, p.RefundAmount, p.RefundReason, p.RefundedAt, p.ID,
	); err != nil {
		return storeError(err)
	}
	return nil
}
