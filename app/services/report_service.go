package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shashiranjanraj/shopfront/app/models"
	"github.com/shashiranjanraj/shopfront/app/notifications"
	"github.com/shashiranjanraj/shopfront/app/repositories"
	"github.com/shashiranjanraj/shopfront/pkg/logger"
	"github.com/shashiranjanraj/shopfront/pkg/metrics"
	"github.com/shashiranjanraj/shopfront/pkg/notification"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AdminResolver finds the accounts that receive admin mail.
type AdminResolver interface {
	Admins(ctx context.Context) ([]models.User, error)
}

// Notifier delivers a notification to an address.
type Notifier interface {
	Send(ctx context.Context, address string, n notification.Notification) error
}

// Archiver stores rendered reports.
type Archiver interface {
	Put(ctx context.Context, path string, content []byte) error
}

// ReportService builds and sends the daily sales report.
type ReportService struct {
	orders   *repositories.OrderRepository
	admins   AdminResolver
	notifier Notifier
	archive  Archiver
}

// NewReportService builds the service. archive may be nil.
func NewReportService(db *gorm.DB, admins AdminResolver, notifier Notifier, archive Archiver) *ReportService {
	return &ReportService{
		orders:   repositories.NewOrderRepository(db),
		admins:   admins,
		notifier: notifier,
		archive:  archive,
	}
}

// DayWindow returns the first and last instant of t's calendar day in t's
// location.
func DayWindow(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// Aggregate rolls up the orders created within [from, to]. Products keep
// the order they were first seen in; revenue uses order item snapshot
// prices.
func (s *ReportService) Aggregate(ctx context.Context, from, to time.Time) (models.SalesReport, error) {
	orders, err := s.orders.Between(ctx, from, to)
	if err != nil {
		return models.SalesReport{}, fmt.Errorf("report: load orders: %w", err)
	}

	report := models.SalesReport{
		Date:        from,
		From:        from,
		To:          to,
		TotalSales:  decimal.Zero,
		TotalOrders: len(orders),
		Products:    []models.ProductSales{},
	}
	index := map[uint]int{}
	for _, o := range orders {
		report.TotalSales = report.TotalSales.Add(o.Total)
		for _, item := range o.Items {
			i, seen := index[item.ProductID]
			if !seen {
				i = len(report.Products)
				index[item.ProductID] = i
				report.Products = append(report.Products, models.ProductSales{
					ProductID: item.ProductID,
					Name:      item.Product.Name,
					Revenue:   decimal.Zero,
				})
			}
			report.Products[i].Quantity += item.Quantity
			report.Products[i].Revenue = report.Products[i].Revenue.Add(item.Subtotal())
		}
	}
	return report, nil
}

// ForDay aggregates the calendar day containing day.
func (s *ReportService) ForDay(ctx context.Context, day time.Time) (models.SalesReport, error) {
	from, to := DayWindow(day)
	return s.Aggregate(ctx, from, to)
}

// SendDaily builds the report for day's calendar day and mails it to every
// admin. It fails with ErrAdminMissing before aggregating anything when no
// admin account exists. The returned users are the recipients.
func (s *ReportService) SendDaily(ctx context.Context, day time.Time) (models.SalesReport, []models.User, error) {
	admins, err := s.admins.Admins(ctx)
	if err != nil {
		metrics.DailyReportsTotal.WithLabelValues(reportOutcome(err)).Inc()
		return models.SalesReport{}, nil, err
	}

	report, err := s.ForDay(ctx, day)
	if err != nil {
		metrics.DailyReportsTotal.WithLabelValues("error").Inc()
		return models.SalesReport{}, nil, err
	}

	note, err := notifications.NewDailySalesReport(report)
	if err != nil {
		metrics.DailyReportsTotal.WithLabelValues("error").Inc()
		return models.SalesReport{}, nil, err
	}

	var sendErrs []error
	for _, admin := range admins {
		if err := s.notifier.Send(ctx, admin.Email, note); err != nil {
			sendErrs = append(sendErrs, fmt.Errorf("report: notify %s: %w", admin.Email, err))
		}
	}
	if err := errors.Join(sendErrs...); err != nil {
		metrics.DailyReportsTotal.WithLabelValues("error").Inc()
		return report, admins, err
	}

	s.store(ctx, report.Date, note.Body)
	metrics.DailyReportsTotal.WithLabelValues("sent").Inc()
	logger.WithCtx(ctx).Info("report: daily sales sent",
		"date", report.Date.Format(time.DateOnly),
		"orders", report.TotalOrders,
		"total", report.TotalSales.StringFixed(2),
		"recipients", len(admins))
	return report, admins, nil
}

// ArchivePath is where a day's report body is stored, without extension.
func ArchivePath(day time.Time) string {
	return "reports/daily-sales-" + day.Format(time.DateOnly)
}

// store archives both bodies. Archive failures are logged; the report has
// already been delivered.
func (s *ReportService) store(ctx context.Context, day time.Time, body notifications.Rendered) {
	if s.archive == nil {
		return
	}
	base := ArchivePath(day)
	for ext, content := range map[string]string{".html": body.HTML, ".txt": body.Text} {
		if err := s.archive.Put(ctx, base+ext, []byte(content)); err != nil {
			logger.WithCtx(ctx).Warn("report: archive failed", "path", base+ext, "error", err)
		}
	}
}

func reportOutcome(err error) string {
	if errors.Is(err, ErrAdminMissing) {
		return "admin_missing"
	}
	return "error"
}
