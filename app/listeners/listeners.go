// Package listeners reacts to domain events after the transaction that
// produced them has committed.
package listeners

import (
	"context"
	"fmt"

	"github.com/shashiranjanraj/shopfront/app/events"
	"github.com/shashiranjanraj/shopfront/app/jobs"
	"github.com/shashiranjanraj/shopfront/pkg/event"
	"github.com/shashiranjanraj/shopfront/pkg/logger"
	"github.com/shashiranjanraj/shopfront/pkg/metrics"
	"github.com/shashiranjanraj/shopfront/pkg/queue"
)

// Dispatcher queues a job.
type Dispatcher interface {
	Dispatch(ctx context.Context, job queue.Job) error
}

// Forgetter drops cached catalog data.
type Forgetter interface {
	ForgetCache(ctx context.Context) error
}

// Broadcaster pushes a message to connected stock feed clients.
type Broadcaster interface {
	BroadcastJSON(v any) error
}

func stockPayload(payload any) (events.StockChangedPayload, error) {
	switch p := payload.(type) {
	case events.StockChangedPayload:
		return p, nil
	case *events.StockChangedPayload:
		return *p, nil
	default:
		return events.StockChangedPayload{}, fmt.Errorf("listeners: unexpected payload %T", payload)
	}
}

// LowStock queues a notification when a stock decrease leaves a product at
// or below the threshold.
func LowStock(q Dispatcher, threshold int) event.Handler {
	return func(ctx context.Context, payload any) error {
		change, err := stockPayload(payload)
		if err != nil {
			return err
		}
		if change.Reason == events.ReasonRestock || change.StockQuantity > threshold {
			return nil
		}
		if err := q.Dispatch(ctx, &jobs.LowStockNotification{ProductID: change.ProductID}); err != nil {
			return fmt.Errorf("listeners: dispatch low stock: %w", err)
		}
		metrics.LowStockAlertsTotal.Inc()
		logger.WithCtx(ctx).Info("low stock: notification queued",
			"product_id", change.ProductID, "stock", change.StockQuantity)
		return nil
	}
}

// ForgetCatalog drops the cached product listing.
func ForgetCatalog(c Forgetter) event.Handler {
	return func(ctx context.Context, _ any) error {
		return c.ForgetCache(ctx)
	}
}

// StockFeed forwards stock changes to websocket clients.
func StockFeed(b Broadcaster) event.Handler {
	return func(_ context.Context, payload any) error {
		change, err := stockPayload(payload)
		if err != nil {
			return err
		}
		return b.BroadcastJSON(map[string]any{"event": events.StockChanged, "data": change})
	}
}

// Options selects the optional listeners.
type Options struct {
	Queue     Dispatcher
	Threshold int
	Catalog   Forgetter
	Feed      Broadcaster
}

// Register wires the listeners onto bus. The low-stock listener runs first.
func Register(bus *event.Bus, o Options) {
	if o.Queue != nil {
		bus.Listen(events.StockChanged, LowStock(o.Queue, o.Threshold))
	}
	if o.Catalog != nil {
		bus.Listen(events.StockChanged, ForgetCatalog(o.Catalog))
		bus.Listen(events.CatalogChanged, ForgetCatalog(o.Catalog))
	}
	if o.Feed != nil {
		bus.Listen(events.StockChanged, StockFeed(o.Feed))
	}
}
