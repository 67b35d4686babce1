package notifications

import (
	"fmt"

	"github.com/shashiranjanraj/shopfront/app/models"
	"github.com/shashiranjanraj/shopfront/pkg/notification"
)

// LowStockAlert tells an admin a product is at or below the restock
// threshold.
type LowStockAlert struct {
	Product models.Product
}

func (n LowStockAlert) Via() []string {
	return []string{notification.Mail, notification.Slack}
}

func (n LowStockAlert) ToMail() (notification.MailData, error) {
	body, err := render("low_stock", n.Product)
	if err != nil {
		return notification.MailData{}, err
	}
	return notification.MailData{
		Subject: "Low Stock Alert: " + n.Product.Name,
		HTML:    body.HTML,
		Text:    body.Text,
	}, nil
}

func (n LowStockAlert) ToSlack() notification.SlackData {
	return notification.SlackData{
		Text: "Low Stock Alert",
		Attachments: []notification.SlackAttachment{{
			Color: "warning",
			Title: n.Product.Name,
			Text: fmt.Sprintf("Current Stock: %d units\nPrice: $%s",
				n.Product.StockQuantity, n.Product.Price.StringFixed(2)),
			Footer: "E-commerce System",
		}},
	}
}
