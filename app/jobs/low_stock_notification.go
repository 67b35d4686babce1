// Package jobs holds the background jobs processed by the queue workers.
package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/shashiranjanraj/shopfront/app/models"
	"github.com/shashiranjanraj/shopfront/app/notifications"
	"github.com/shashiranjanraj/shopfront/app/services"
	"github.com/shashiranjanraj/shopfront/pkg/logger"
	"github.com/shashiranjanraj/shopfront/pkg/queue"
	"gorm.io/gorm"
)

const LowStockNotificationName = "low_stock_notification"

// ProductFinder loads a product by id.
type ProductFinder interface {
	Find(ctx context.Context, id uint) (models.Product, error)
}

// Deps are the collaborators a LowStockNotification needs when it runs.
type Deps struct {
	Products  ProductFinder
	Admins    services.AdminResolver
	Notifier  services.Notifier
	Threshold int
}

// LowStockNotification mails the admins about a product at or below the
// restock threshold. Only the product id is queued; the product is read
// again when the job runs.
type LowStockNotification struct {
	ProductID uint `json:"product_id"`

	deps *Deps
}

func (LowStockNotification) JobName() string { return LowStockNotificationName }

// Handle skips products that are gone or no longer low, and completes
// without sending when no admin account exists. Delivery failures are
// returned so the queue retries.
func (j *LowStockNotification) Handle(ctx context.Context) error {
	if j.deps == nil {
		return errors.New("jobs: low stock notification has no dependencies")
	}
	log := logger.WithCtx(ctx).With("product_id", j.ProductID)

	product, err := j.deps.Products.Find(ctx, j.ProductID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Info("low stock: product gone, skipping")
		return nil
	}
	if err != nil {
		return fmt.Errorf("low stock: load product: %w", err)
	}
	if !product.IsLowStock(j.deps.Threshold) {
		log.Info("low stock: restocked since dispatch, skipping", "stock", product.StockQuantity)
		return nil
	}

	admins, err := j.deps.Admins.Admins(ctx)
	if errors.Is(err, services.ErrAdminMissing) {
		log.Warn("low stock: no admin account, alert not sent")
		return nil
	}
	if err != nil {
		return err
	}

	alert := notifications.LowStockAlert{Product: product}
	var errs []error
	for _, admin := range admins {
		if err := j.deps.Notifier.Send(ctx, admin.Email, alert); err != nil {
			errs = append(errs, fmt.Errorf("low stock: notify %s: %w", admin.Email, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	log.Info("low stock: alert sent", "stock", product.StockQuantity, "recipients", len(admins))
	return nil
}

// Register adds every job type to q, bound to deps.
func Register(q *queue.Manager, deps *Deps) {
	q.Register(func() queue.Job { return &LowStockNotification{deps: deps} })
}
