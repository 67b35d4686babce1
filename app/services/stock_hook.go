package services

import (
	"context"

	"github.com/shashiranjanraj/shopfront/app/events"
	"github.com/shashiranjanraj/shopfront/app/models"
	"gorm.io/gorm"
)

// Publisher delivers domain events to their listeners.
type Publisher interface {
	Fire(ctx context.Context, event string, payload any)
}

// stockLedger collects stock changes made inside a transaction.
type stockLedger struct {
	changes []events.StockChangedPayload
}

func (l *stockLedger) record(p models.Product, reason string) {
	l.changes = append(l.changes, events.StockChangedPayload{
		ProductID:     p.ID,
		Name:          p.Name,
		StockQuantity: p.StockQuantity,
		Reason:        reason,
	})
}

// withStockTx runs fn in a transaction and, only once it has committed,
// publishes one StockChanged event per recorded change. Every operation that
// mutates Product.stock_quantity goes through here.
func withStockTx(ctx context.Context, db *gorm.DB, pub Publisher, fn func(tx *gorm.DB, ledger *stockLedger) error) error {
	ledger := &stockLedger{}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(tx, ledger)
	})
	if err != nil {
		return err
	}
	if pub == nil {
		return nil
	}
	for _, change := range ledger.changes {
		pub.Fire(ctx, events.StockChanged, change)
	}
	return nil
}
