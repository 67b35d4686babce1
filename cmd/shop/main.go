// Command shop is the storefront's CLI: it serves the API and runs the
// database, queue, scheduler and reporting tasks.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/shopfront/config"
	_ "github.com/shashiranjanraj/shopfront/database/migrations"
	"github.com/shashiranjanraj/shopfront/internal/kernel"
	"github.com/shashiranjanraj/shopfront/pkg/logger"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "shop",
	Short:         "Storefront API and operations CLI",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, routeListCmd)
	rootCmd.AddCommand(migrateCmd, migrateRollbackCmd, migrateStatusCmd, seedCmd)
	rootCmd.AddCommand(queueWorkCmd, queueFailedCmd, scheduleRunCmd)
	rootCmd.AddCommand(dailyReportCmd)
}

// boot loads config, sets up logging and builds the application.
// The returned func releases everything.
func boot(ctx context.Context) (*kernel.App, func(), error) {
	if err := config.Load(); err != nil {
		return nil, nil, err
	}
	flush, err := kernel.ConfigureLogging()
	if err != nil {
		logger.Warn("log sink unavailable", "error", err)
	}
	app, err := kernel.New(ctx, kernel.Options{})
	if err != nil {
		flush()
		return nil, nil, err
	}
	return app, func() {
		app.Close()
		flush()
	}, nil
}
