package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/kioskpay/kioskpay/internal/domain"
)

const maintenanceColumns = `id, kiosk_id, customer_id, type, priority, description, status,
	request_date, completed_date, assigned_technician, cost, notes`

func scanMaintenance(row pgx.Row) (*domain.MaintenanceRequest, error) {
	var m domain.MaintenanceRequest
	if err := row.Scan(
		&m.ID, &m.KioskID, &m.CustomerID, &m.Type, &m.Priority, &m.Description, &m.Status,
		&m.RequestDate, &m.CompletedDate, &m.AssignedTechnician, &m.Cost, &m.Notes,
	); err != nil {
		return nil, err
	}
	return &m, nil
}

// CreateMaintenanceRequest inserts a new ticket.
func (r *PostgresRepository) CreateMaintenanceRequest(ctx context.Context, m *domain.MaintenanceRequest) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO maintenance_requests (`+maintenanceColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		m.ID, m.KioskID, m.CustomerID, m.Type, m.Priority, m.Description, m.Status,
		m.RequestDate, m.CompletedDate, m.AssignedTechnician, m.Cost, m.Notes,
	)
	if err != nil {
		return storeError(err)
	}
	return nil
}

// GetMaintenanceRequest loads one ticket.
func (r *PostgresRepository) GetMaintenanceRequest(ctx context.Context, id uuid.UUID) (*domain.MaintenanceRequest, error) {
	m, err := scanMaintenance(r.db.QueryRow(ctx, "SELECT "+maintenanceColumns+" FROM maintenance_requests WHERE id = $1", id))
	if err != nil {
		return nil, mapError(err, ErrMaintenanceNotFound)
	}
	return m, nil
}

// ListMaintenanceRequests returns tickets newest first.
func (r *PostgresRepository) ListMaintenanceRequests(ctx context.Context, filter Filter) ([]domain.MaintenanceRequest, error) {
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
	query := "SELECT " + maintenanceColumns + " FROM maintenance_requests" + w.String() + " ORDER BY request_date DESC" + w.limit(filter.Limit)

	rows, err := r.db.Query(ctx, query, w.args...)
	if err != nil {
		return nil, storeError(err)
	}
	defer rows.Close()

	requests := make([]domain.MaintenanceRequest, 0)
	for rows.Next() {
		m, err := scanMaintenance(rows)
		if err != nil {
			return nil, storeError(err)
		}
		requests = append(requests, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(err)
	}
	return requests, nil
}

// UpdateMaintenanceRequest locks the ticket and its kiosk, applies mutate
// and saves both.
func (r *PostgresRepository) UpdateMaintenanceRequest(ctx context.Context, id uuid.UUID, mutate func(*domain.MaintenanceRequest, *domain.Kiosk) error) (*domain.MaintenanceRequest, *domain.Kiosk, error) {
	var (
		request *domain.MaintenanceRequest
		kiosk   *domain.Kiosk
	)
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		m, err := scanMaintenance(tx.QueryRow(ctx, "SELECT "+maintenanceColumns+" FROM maintenance_requests WHERE id = $1 FOR UPDATE", id))
		if err != nil {
			return mapError(err, ErrMaintenanceNotFound)
		}
		k, err := lockKiosk(ctx, tx, m.KioskID)
		if err != nil {
			return err
		}
		if err := mutate(m, k); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			`UPDATE maintenance_requests SET status = $1, completed_date = $2, assigned_technician = $3,
				cost = $4, notes = $5 WHERE id = $6`,
			m.Status, m.CompletedDate, m.AssignedTechnician, m.Cost, m.Notes, m.ID,
		); err != nil {
			return storeError(err)
		}
		if err := saveKiosk(ctx, tx, k); err != nil {
			return err
		}
		request, kiosk = m, k
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return request, kiosk, nil
}

const refillColumns = `id, kiosk_id, customer_id, requested_amount, reason, status, request_date,
	approved_date, completed_date, cost, notes`

func scanRefill(row pgx.Row) (*domain.RefillRequest, error) {
	var rr domain.RefillRequest
	if err := row.Scan(
		&rr.ID, &rr.KioskID, &rr.CustomerID, &rr.RequestedAmount, &rr.Reason, &rr.Status, &rr.RequestDate,
		&rr.ApprovedDate, &rr.CompletedDate, &rr.Cost, &rr.Notes,
	); err != nil {
		return nil, err
	}
	return &rr, nil
}

// CreateRefillRequest inserts a pending refill request.
func (r *PostgresRepository) CreateRefillRequest(ctx context.Context, rr *domain.RefillRequest) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO refill_requests (`+refillColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		rr.ID, rr.KioskID, rr.CustomerID, rr.RequestedAmount, rr.Reason, rr.Status, rr.RequestDate,
		rr.ApprovedDate, rr.CompletedDate, rr.Cost, rr.Notes,
	)
	if err != nil {
		return storeError(err)
	}
	return nil
}

// GetRefillRequest loads one refill request.
func (r *PostgresRepository) GetRefillRequest(ctx context.Context, id uuid.UUID) (*domain.RefillRequest, error) {
	rr, err := scanRefill(r.db.QueryRow(ctx, "SELECT "+refillColumns+" FROM refill_requests WHERE id = $1", id))
	if err != nil {
		return nil, mapError(err, ErrRefillNotFound)
	}
	return rr, nil
}

// ListRefillRequests returns refill requests newest first.
func (r *PostgresRepository) ListRefillRequests(ctx context.Context, filter Filter) ([]domain.RefillRequest, error) {
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
	query := "SELECT " + refillColumns + " FROM refill_requests" + w.String() + " ORDER BY request_date DESC" + w.limit(filter.Limit)

	rows, err := r.db.Query(ctx, query, w.args...)
	if err != nil {
		return nil, storeError(err)
	}
	defer rows.Close()

	requests := make([]domain.RefillRequest, 0)
	for rows.Next() {
		rr, err := scanRefill(rows)
		if err != nil {
			return nil, storeError(err)
		}
		requests = append(requests, *rr)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(err)
	}
	return requests, nil
}

// UpdateRefillRequest locks the request and its kiosk, applies mutate and
// saves both.
func (r *PostgresRepository) UpdateRefillRequest(ctx context.Context, id uuid.UUID, mutate func(*domain.RefillRequest, *domain.Kiosk) error) (*domain.RefillRequest, *domain.Kiosk, error) {
	var (
		request *domain.RefillRequest
		kiosk   *domain.Kiosk
	)
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		rr, err := scanRefill(tx.QueryRow(ctx, "SELECT "+refillColumns+" FROM refill_requests WHERE id = $1 FOR UPDATE", id))
		if err != nil {
			return mapError(err, ErrRefillNotFound)
		}
		k, err := lockKiosk(ctx, tx, rr.KioskID)
		if err != nil {
			return err
		}
		if err := mutate(rr, k); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			`UPDATE refill_requests SET status = $1, approved_date = $2, completed_date = $3,
				cost = $4, notes = $5 WHERE id = $6`,
			rr.Status, rr.ApprovedDate, rr.CompletedDate, rr.Cost, rr.Notes, rr.ID,
		); err != nil {
			return storeError(err)
		}
		if err := saveKiosk(ctx, tx, k); err != nil {
			return err
		}
		request, kiosk = rr, k
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return request, kiosk, nil
}
