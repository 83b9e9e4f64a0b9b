// Command kioskpayctl is the operator tool for KioskPay: schema bootstrap,
// admin provisioning, credential helpers and one-off jobs.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "kioskpayctl",
		Short:         "Operator tooling for KioskPay",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("config-dir", ".", "directory holding the .env file")
	root.PersistentFlags().String("database-url", "", "overrides DATABASE_URL")
	_ = viper.BindPFlag("DATABASE_URL", root.PersistentFlags().Lookup("database-url"))

	root.AddCommand(migrateCmd())
	root.AddCommand(createAdminCmd())
	root.AddCommand(refillSweepCmd())
	root.AddCommand(hashPasswordCmd())
	root.AddCommand(digestCmd())
	root.AddCommand(splitCmd())
	return root
}
