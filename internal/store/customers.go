package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/kioskpay/kioskpay/internal/domain"
)

// FindAccountsByEmail returns every login row matching email in the table
// for kind. Callers decide what to do with zero or several matches.
func (r *PostgresRepository) FindAccountsByEmail(ctx context.Context, kind domain.AccountKind, email string) ([]domain.Account, error) {
	var query string
	switch kind {
	case domain.AccountAdmin:
		query = "SELECT id, email, name, role, password_hash FROM admin_users WHERE lower(email) = lower($1)"
	case domain.AccountCustomer:
		query = "SELECT id, email, name, 'customer', password_hash FROM customers WHERE lower(email) = lower($1)"
	default:
		return nil, domain.NewValidationError("kind", "must be admin or customer")
	}

	rows, err := r.db.Query(ctx, query, email)
	if err != nil {
		return nil, storeError(err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		a := domain.Account{Kind: kind}
		if err := rows.Scan(&a.ID, &a.Email, &a.Name, &a.Role, &a.PasswordHash); err != nil {
			return nil, storeError(err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(err)
	}
	return accounts, nil
}

// UpdatePasswordHash replaces the stored credential for one account.
func (r *PostgresRepository) UpdatePasswordHash(ctx context.Context, kind domain.AccountKind, id uuid.UUID, hash string) error {
	table := "customers"
	if kind == domain.AccountAdmin {
		table = "admin_users"
	}
	tag, err := r.db.Exec(ctx, fmt.Sprintf("UPDATE %s SET password_hash = $1 WHERE id = $2", table), hash, id)
	if err != nil {
		return storeError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// CreateAdminUser inserts an operator login.
func (r *PostgresRepository) CreateAdminUser(ctx context.Context, account domain.Account) error {
	_, err := r.db.Exec(ctx,
		"INSERT INTO admin_users (id, email, password_hash, name, role) VALUES ($1, $2, $3, $4, $5)",
		account.ID, account.Email, account.PasswordHash, account.Name, account.Role,
	)
	return mapError(err, ErrAccountNotFound)
}

const customerSelect = `
	SELECT c.id, c.name, c.email, c.phone, c.registration_date, c.status, c.password_hash,
	       COUNT(k.id), COALESCE(SUM(k.owner_revenue), 0)
	FROM customers c
	LEFT JOIN kiosks k ON k.customer_id = c.id`

const customerGroup = " GROUP BY c.id"

func scanCustomer(row pgx.Row) (*domain.Customer, error) {
	var c domain.Customer
	if err := row.Scan(
		&c.ID, &c.Name, &c.Email, &c.Phone, &c.RegistrationDate, &c.Status, &c.PasswordHash,
		&c.TotalKiosks, &c.TotalRevenue,
	); err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateCustomer inserts a customer. A duplicate email maps to ErrConflict.
func (r *PostgresRepository) CreateCustomer(ctx context.Context, c *domain.Customer) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO customers (id, name, email, phone, password_hash, registration_date, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.ID, c.Name, c.Email, c.Phone, c.PasswordHash, c.RegistrationDate, c.Status,
	)
	if err != nil {
		return storeError(err)
	}
	return nil
}

// GetCustomer loads one customer with its derived kiosk totals.
func (r *PostgresRepository) GetCustomer(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	c, err := scanCustomer(r.db.QueryRow(ctx, customerSelect+" WHERE c.id = $1"+customerGroup, id))
	if err != nil {
		return nil, mapError(err, ErrCustomerNotFound)
	}
	return c, nil
}

// ListCustomers returns customers newest first.
func (r *PostgresRepository) ListCustomers(ctx context.Context, filter Filter) ([]domain.Customer, error) {
	w := &where{}
	if filter.CustomerID != nil {
		w.add("c.id = $%d", *filter.CustomerID)
	}
	if filter.Status != "" {
		w.add("c.status = $%d", filter.Status)
	}
	query := customerSelect + w.String() + customerGroup + " ORDER BY c.registration_date DESC" + w.limit(filter.Limit)

	rows, err := r.db.Query(ctx, query, w.args...)
	if err != nil {
		return nil, storeError(err)
	}
	defer rows.Close()

	customers := make([]domain.Customer, 0)
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, storeError(err)
		}
		customers = append(customers, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(err)
	}
	return customers, nil
}

// UpdateCustomer locks the customer row, applies mutate and saves the
// editable columns.
func (r *PostgresRepository) UpdateCustomer(ctx context.Context, id uuid.UUID, mutate func(*domain.Customer) error) (*domain.Customer, error) {
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		var locked uuid.UUID
		if err := tx.QueryRow(ctx, "SELECT id FROM customers WHERE id = $1 FOR UPDATE", id).Scan(&locked); err != nil {
			return mapError(err, ErrCustomerNotFound)
		}
		c, err := scanCustomer(tx.QueryRow(ctx, customerSelect+" WHERE c.id = $1"+customerGroup, id))
		if err != nil {
			return mapError(err, ErrCustomerNotFound)
		}
		if err := mutate(c); err != nil {
			return err
		}
		_, err = tx.Exec(ctx,
			"UPDATE customers SET name = $1, phone = $2, status = $3 WHERE id = $4",
			c.Name, c.Phone, c.Status, c.ID,
		)
		return mapError(err, ErrCustomerNotFound)
	})
	if err != nil {
		return nil, err
	}
	return r.GetCustomer(ctx, id)
}
