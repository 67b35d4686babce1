package notifications

import (
	"fmt"
	"time"

	"github.com/shashiranjanraj/shopfront/app/models"
	"github.com/shashiranjanraj/shopfront/pkg/notification"
)

// DailySalesReport carries a rendered report so every recipient and the
// archive get identical content.
type DailySalesReport struct {
	Report models.SalesReport
	Body   Rendered
}

// NewDailySalesReport renders r once.
func NewDailySalesReport(r models.SalesReport) (DailySalesReport, error) {
	body, err := render("daily_sales", r)
	if err != nil {
		return DailySalesReport{}, fmt.Errorf("notifications: render daily report: %w", err)
	}
	return DailySalesReport{Report: r, Body: body}, nil
}

func (n DailySalesReport) Via() []string {
	return []string{notification.Mail, notification.Slack}
}

func (n DailySalesReport) ToMail() (notification.MailData, error) {
	return notification.MailData{
		Subject: "Daily Sales Report - " + n.Report.Date.Format(time.DateOnly),
		HTML:    n.Body.HTML,
		Text:    n.Body.Text,
	}, nil
}

func (n DailySalesReport) ToSlack() notification.SlackData {
	return notification.SlackData{
		Text: fmt.Sprintf("Daily Sales Report %s: $%s over %d orders",
			n.Report.Date.Format(time.DateOnly), n.Report.TotalSales.StringFixed(2), n.Report.TotalOrders),
	}
}
