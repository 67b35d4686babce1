// Package console registers the application's scheduled commands.
package console

import (
	"context"
	"time"

	"github.com/shashiranjanraj/shopfront/app/models"
	"github.com/shashiranjanraj/shopfront/pkg/schedule"
)

const DailyReportTask = "sales:daily-report"

// DailyReporter sends the sales report for a day.
type DailyReporter interface {
	SendDaily(ctx context.Context, day time.Time) (models.SalesReport, []models.User, error)
}

// Schedule registers the daily sales report at reportTime (HH:MM).
// A run still in progress when the next slot arrives is not doubled.
func Schedule(s *schedule.Scheduler, reports DailyReporter, reportTime string) error {
	return s.Daily().
		At(reportTime).
		WithoutOverlapping().
		Name(DailyReportTask).
		Run(func(ctx context.Context) error {
			_, _, err := reports.SendDaily(ctx, time.Now())
			return err
		})
}
