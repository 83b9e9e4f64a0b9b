package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/kioskpay/kioskpay/internal/app"
	"github.com/kioskpay/kioskpay/internal/config"
	"github.com/kioskpay/kioskpay/internal/domain"
	"github.com/kioskpay/kioskpay/internal/store"
	"github.com/kioskpay/kioskpay/pkg/rabbitmq"
)

// connect loads configuration and opens the database pool.
func connect(cmd *cobra.Command) (config.Config, *pgxpool.Pool, error) {
	dir, _ := cmd.Flags().GetString("config-dir")
	cfg, err := config.LoadConfig(dir)
	if err != nil {
		return cfg, nil, err
	}
	pool, err := store.NewPool(cmd.Context(), cfg.DatabaseURL)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, pool, nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, pool, err := connect(cmd)
			if err != nil {
				return err
			}
			defer pool.Close()
			if err := store.Migrate(cmd.Context(), pool); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema applied")
			return nil
		},
	}
}

func createAdminCmd() *cobra.Command {
	var email, name, password, role string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an operator login with a bcrypt password",
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := newAdminAccount(email, name, password, role)
			if err != nil {
				return err
			}
			_, pool, err := connect(cmd)
			if err != nil {
				return err
			}
			defer pool.Close()
			if err := store.NewPostgresRepository(pool).CreateAdminUser(cmd.Context(), account); err != nil {
				return fmt.Errorf("create admin: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "admin %s created (%s)\n", account.Email, account.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "login email")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&password, "password", "", "initial password (min 8 characters)")
	cmd.Flags().StringVar(&role, "role", domain.RoleAdmin, "admin or super_admin")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newAdminAccount(email, name, password, role string) (domain.Account, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return domain.Account{}, domain.NewValidationError("email", "is required")
	}
	if role != domain.RoleAdmin && role != domain.RoleSuperAdmin {
		return domain.Account{}, domain.NewValidationError("role", "must be admin or super_admin")
	}
	hash, err := app.HashPassword(password)
	if err != nil {
		return domain.Account{}, err
	}
	if strings.TrimSpace(name) == "" {
		name = email
	}
	return domain.Account{
		ID:           uuid.New(),
		Kind:         domain.AccountAdmin,
		Email:        email,
		Name:         strings.TrimSpace(name),
		Role:         role,
		PasswordHash: hash,
	}, nil
}

func refillSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refill-sweep",
		Short: "Re-evaluate the refill policy for every kiosk once",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, pool, err := connect(cmd)
			if err != nil {
				return err
			}
			defer pool.Close()

			logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
			service := app.NewService(store.NewPostgresRepository(pool), nil, &rabbitmq.EventProducerFallback{}, nil, logger, app.Options{
				Splitter: domain.NewSplitter(cfg.PlatformFeePercent),
				RefillPolicy: domain.RefillPolicy{
					PaymentLimit:       cfg.RefillPaymentLimit,
					LowLiquidThreshold: cfg.LowLiquidThreshold,
				},
				EventExchange: cfg.EventExchange,
			})

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()
			flagged, err := service.SweepRefills(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d kiosk(s) newly flagged for refill\n", flagged)
			return nil
		},
	}
}
