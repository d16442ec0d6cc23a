package cmd

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/vibast-solutions/ms-go-payment-intake/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the payments table or collection indexes",
	Long:  "Ensure the configured storage backend has the payments schema, including the unique idempotency key index.",
	Run:   runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(_ *cobra.Command, _ []string) {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if err := configureLogging(cfg); err != nil {
		logrus.WithError(err).Fatal("Failed to configure logging")
	}

	store, cleanup, err := openStorage(context.Background(), cfg.Storage)
	if err != nil {
		logrus.WithError(err).WithField("driver", cfg.Storage.Driver).Fatal("Failed to connect to storage")
	}
	defer cleanup()

	if err := store.EnsureSchema(context.Background()); err != nil {
		cleanup()
		logrus.WithError(err).Fatal("Failed to ensure storage schema")
	}

	logrus.WithField("driver", cfg.Storage.Driver).Info("Storage schema is up to date")
}
