package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/shopfront/app/console"
	"github.com/shashiranjanraj/shopfront/app/services"
)

var reportDateFlag string

// shop sales:daily-report
var dailyReportCmd = &cobra.Command{
	Use:   console.DailyReportTask,
	Short: "Send the daily sales report to the admins",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, shutdown, err := boot(cmd.Context())
		if err != nil {
			return err
		}
		defer shutdown()
		return sendDailyReport(cmd.Context(), app.Reports, app.Admins.Emails(), reportDateFlag, cmd.OutOrStdout())
	},
}

// sendDailyReport reports on date (YYYY-MM-DD, today when empty). A
// missing admin account is an error so the command exits non-zero.
func sendDailyReport(ctx context.Context, reports console.DailyReporter, adminEmails []string, date string, out io.Writer) error {
	day := time.Now()
	if date != "" {
		parsed, err := time.ParseInLocation(time.DateOnly, date, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --date %q, expected YYYY-MM-DD", date)
		}
		day = parsed
	}

	_, admins, err := reports.SendDaily(ctx, day)
	if errors.Is(err, services.ErrAdminMissing) {
		return fmt.Errorf("Admin user not found. Please create a user with email: %s", strings.Join(adminEmails, ", "))
	}
	if err != nil {
		return err
	}
	for _, a := range admins {
		fmt.Fprintf(out, "Daily sales report sent to %s\n", a.Email)
	}
	return nil
}

func init() {
	dailyReportCmd.Flags().StringVar(&reportDateFlag, "date", "", "report day as YYYY-MM-DD (default today)")
}
