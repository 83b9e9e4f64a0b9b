package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/kioskpay/kioskpay/internal/domain"
)

const kioskColumns = `id, name, location, qr_code, status, total_payments, payments_since_refill,
	liquid_level, needs_refill, last_maintenance, last_refill, total_revenue, owner_revenue,
	platform_revenue, customer_id, price_per_cleaning, refill_limit, created_at`

func scanKiosk(row pgx.Row) (*domain.Kiosk, error) {
	var k domain.Kiosk
	if err := row.Scan(
		&k.ID, &k.Name, &k.Location, &k.QRCode, &k.Status, &k.TotalPayments, &k.PaymentsSinceRefill,
		&k.LiquidLevel, &k.NeedsRefill, &k.LastMaintenance, &k.LastRefill, &k.TotalRevenue, &k.OwnerRevenue,
		&k.PlatformRevenue, &k.CustomerID, &k.PricePerCleaning, &k.RefillLimit, &k.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &k, nil
}

// CreateKiosk inserts an onboarded kiosk.
func (r *PostgresRepository) CreateKiosk(ctx context.Context, k *domain.Kiosk) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO kiosks (`+kioskColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		k.ID, k.Name, k.Location, k.QRCode, k.Status, k.TotalPayments, k.PaymentsSinceRefill,
		k.LiquidLevel, k.NeedsRefill, k.LastMaintenance, k.LastRefill, k.TotalRevenue, k.OwnerRevenue,
		k.PlatformRevenue, k.CustomerID, k.PricePerCleaning, k.RefillLimit, k.CreatedAt,
	)
	if err != nil {
		return storeError(err)
	}
	return nil
}

// GetKiosk loads one kiosk.
func (r *PostgresRepository) GetKiosk(ctx context.Context, id uuid.UUID) (*domain.Kiosk, error) {
	k, err := scanKiosk(r.db.QueryRow(ctx, "SELECT "+kioskColumns+" FROM kiosks WHERE id = $1", id))
	if err != nil {
		return nil, mapError(err, ErrKioskNotFound)
	}
	return k, nil
}

// ListKiosks returns kiosks newest first, optionally for one owner.
func (r *PostgresRepository) ListKiosks(ctx context.Context, filter Filter) ([]domain.Kiosk, error) {
	w := &where{}
	if filter.CustomerID != nil {
		w.add("customer_id = $%d", *filter.CustomerID)
	}
	if filter.Status != "" {
		w.add("status = $%d", filter.Status)
	}
	query := "SELECT " + kioskColumns + " FROM kiosks" + w.String() + " ORDER BY created_at DESC" + w.limit(filter.Limit)

	rows, err := r.db.Query(ctx, query, w.args...)
	if err != nil {
		return nil, storeError(err)
	}
	defer rows.Close()

	kiosks := make([]domain.Kiosk, 0)
	for rows.Next() {
		k, err := scanKiosk(rows)
		if err != nil {
			return nil, storeError(err)
		}
		kiosks = append(kiosks, *k)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(err)
	}
	return kiosks, nil
}

// UpdateKiosk locks the kiosk, applies mutate and saves every mutable column.
func (r *PostgresRepository) UpdateKiosk(ctx context.Context, id uuid.UUID, mutate func(*domain.Kiosk) error) (*domain.Kiosk, error) {
	var updated *domain.Kiosk
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		k, err := lockKiosk(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := mutate(k); err != nil {
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

func lockKiosk(ctx context.Context, q querier, id uuid.UUID) (*domain.Kiosk, error) {
	k, err := scanKiosk(q.QueryRow(ctx, "SELECT "+kioskColumns+" FROM kiosks WHERE id = $1 FOR UPDATE", id))
	if err != nil {
		return nil, mapError(err, ErrKioskNotFound)
	}
	return k, nil
}

func saveKiosk(ctx context.Context, q querier, k *domain.Kiosk) error {
	_, err := q.Exec(ctx,
		`UPDATE kiosks SET
			name = $1, location = $2, qr_code = $3, status = $4, total_payments = $5,
			payments_since_refill = $6, liquid_level = $7, needs_refill = $8, last_maintenance = $9,
			last_refill = $10, total_revenue = $11, owner_revenue = $12, platform_revenue = $13,
			customer_id = $14, price_per_cleaning = $15, refill_limit = $16
		 WHERE id = $17`,
		k.Name, k.Location, k.QRCode, k.Status, k.TotalPayments,
		k.PaymentsSinceRefill, k.LiquidLevel, k.NeedsRefill, k.LastMaintenance,
		k.LastRefill, k.TotalRevenue, k.OwnerRevenue, k.PlatformRevenue,
		k.CustomerID, k.PricePerCleaning, k.RefillLimit, k.ID,
	)
	if err != nil {
		return storeError(err)
	}
	return nil
}
