package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/shopfront/config"
	"github.com/shashiranjanraj/shopfront/database/seeders"
	"github.com/shashiranjanraj/shopfront/pkg/database"
	"github.com/shashiranjanraj/shopfront/pkg/migration"
)

// withDB opens the configured database for the duration of fn.
func withDB(fn func(db *gorm.DB) error) error {
	if err := config.Load(); err != nil {
		return err
	}
	db, err := database.Open(config.DatabaseDriver(), config.DatabaseDSN())
	if err != nil {
		return err
	}
	defer database.Close(db) //nolint:errcheck
	return fn(db)
}

// shop migrate
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run all pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(db *gorm.DB) error {
			n, err := migration.New(db, os.Stdout).Up(cmd.Context())
			if err != nil {
				return err
			}
			if n == 0 {
				fmt.Println("Nothing to migrate.")
			}
			return nil
		})
	},
}

// shop migrate:rollback
var migrateRollbackCmd = &cobra.Command{
	Use:   "migrate:rollback",
	Short: "Roll back the last batch of migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(db *gorm.DB) error {
			n, err := migration.New(db, os.Stdout).Rollback(cmd.Context())
			if err != nil {
				return err
			}
			if n == 0 {
				fmt.Println("Nothing to roll back.")
			}
			return nil
		})
	},
}

// shop migrate:status
var migrateStatusCmd = &cobra.Command{
	Use:   "migrate:status",
	Short: "Show the status of each migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(db *gorm.DB) error {
			return printStatus(cmd.Context(), db)
		})
	},
}

func printStatus(ctx context.Context, db *gorm.DB) error {
	rows, err := migration.New(db, os.Stdout).Status(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "RAN?\tMIGRATION\tBATCH")
	for _, s := range rows {
		ran, batch := "No", ""
		if s.Ran {
			ran, batch = "Yes", fmt.Sprint(s.Batch)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", ran, s.Name, batch)
	}
	return w.Flush()
}

// shop seed
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the demo accounts and catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(db *gorm.DB) error {
			if err := seeders.RunAll(cmd.Context(), db, os.Stdout); err != nil {
				return err
			}
			fmt.Println("Database seeding completed.")
			return nil
		})
	},
}
