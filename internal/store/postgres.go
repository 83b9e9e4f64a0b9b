/**
 * @description
 * PostgreSQL implementation of the Repository interface: pool setup, error
 * mapping, transaction helper and the shared list-query builder.
 *
 * @dependencies
 * - github.com/jackc/pgx/v5: PostgreSQL driver and pool.
 */

package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kioskpay/kioskpay/internal/domain"
)

var (
	ErrCustomerNotFound     = fmt.Errorf("customer %w", domain.ErrNotFound)
	ErrKioskNotFound        = fmt.Errorf("kiosk %w", domain.ErrNotFound)
	ErrPaymentNotFound      = fmt.Errorf("payment %w", domain.ErrNotFound)
	ErrMaintenanceNotFound  = fmt.Errorf("maintenance request %w", domain.ErrNotFound)
	ErrRefillNotFound       = fmt.Errorf("refill request %w", domain.ErrNotFound)
	ErrRefundTicketNotFound = fmt.Errorf("refund ticket %w", domain.ErrNotFound)
	ErrNotificationNotFound = fmt.Errorf("notification %w", domain.ErrNotFound)
	ErrAccountNotFound      = fmt.Errorf("account %w", domain.ErrNotFound)
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"

	defaultListLimit = 500
)

//go:embed schema.sql
var schemaSQL string

// PostgresRepository implements Repository on a pgx pool.
type PostgresRepository struct {
	db *pgxpool.Pool
}

var _ Repository = (*PostgresRepository)(nil)

// NewPostgresRepository wraps an open pool.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// NewPool opens a pool with the service's connection limits.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pgConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database URL: %w", err)
	}
	pgConfig.MaxConns = 50
	pgConfig.MinConns = 5
	pgConfig.MaxConnLifetime = 30 * time.Minute
	pgConfig.MaxConnIdleTime = 5 * time.Minute
	pgConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	pool, err := pgxpool.NewWithConfig(ctx, pgConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	return pool, nil
}

// Migrate applies the embedded bootstrap schema.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// inTx runs fn in a transaction and commits when it returns nil.
func (r *PostgresRepository) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return storeError(err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return storeError(err)
	}
	return nil
}

// mapError translates driver errors into the domain taxonomy. notFound is
// returned for pgx.ErrNoRows.
func mapError(err error, notFound error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return notFound
	}
	return storeError(err)
}

func storeError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%w: duplicate value violates %s", domain.ErrConflict, pgErr.ConstraintName)
		case pgForeignKeyViolation:
			return &domain.ValidationError{Field: pgErr.ColumnName, Message: "references a row that does not exist"}
		case pgCheckViolation:
			return &domain.ValidationError{Field: pgErr.ColumnName, Message: "violates constraint " + pgErr.ConstraintName}
		}
	}
	return fmt.Errorf("%w: %v", domain.ErrStore, err)
}

// where accumulates SQL predicates with positional arguments.
type where struct {
	clauses []string
	args    []any
}

func (w *where) add(format string, arg any) {
	w.args = append(w.args, arg)
	w.clauses = append(w.clauses, fmt.Sprintf(format, len(w.args)))
}

func (w *where) addRaw(clause string) {
	w.clauses = append(w.clauses, clause)
}

func (w *where) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

// limit appends a LIMIT placeholder and returns the clause.
func (w *where) limit(n int) string {
	if n <= 0 || n > defaultListLimit {
		n = defaultListLimit
	}
	w.args = append(w.args, n)
	return fmt.Sprintf(" LIMIT $%d", len(w.args))
}
