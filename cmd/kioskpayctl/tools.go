package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/kioskpay/kioskpay/internal/app"
	"github.com/kioskpay/kioskpay/internal/domain"
)

func hashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print a bcrypt hash for a password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := app.HashPassword(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

// digestCmd prints the legacy stored value for a credential, for checking
// rows that have not yet been upgraded to bcrypt.
func digestCmd() *cobra.Command {
	var kind, email string
	cmd := &cobra.Command{
		Use:   "digest [password]",
		Short: "Print the legacy base64 digest for a credential",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k := domain.AccountKind(strings.ToLower(kind))
			if !k.Valid() {
				return domain.NewValidationError("kind", "must be admin or customer")
			}
			if k == domain.AccountCustomer && strings.TrimSpace(email) == "" {
				return domain.NewValidationError("email", "is required for customer digests")
			}
			fmt.Fprintln(cmd.OutOrStdout(), app.LegacyDigest(k, strings.TrimSpace(email), args[0]))
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", string(domain.AccountCustomer), "admin or customer")
	cmd.Flags().StringVar(&email, "email", "", "account email (customers only)")
	return cmd
}

func splitCmd() *cobra.Command {
	var feePercent float64
	cmd := &cobra.Command{
		Use:   "split [amount]",
		Short: "Show the platform/owner split for an amount",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := decimal.NewFromString(args[0])
			if err != nil {
				return domain.NewValidationError("amount", "must be a decimal number")
			}
			split, err := domain.NewSplitter(feePercent).Split(amount)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(split)
		},
	}
	cmd.Flags().Float64Var(&feePercent, "fee-percent", domain.DefaultPlatformFeePercent, "platform share in percent")
	return cmd
}
