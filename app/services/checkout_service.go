package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/shashiranjanraj/shopfront/app/events"
	"github.com/shashiranjanraj/shopfront/app/models"
	"github.com/shashiranjanraj/shopfront/app/repositories"
	"github.com/shashiranjanraj/shopfront/pkg/logger"
	"github.com/shashiranjanraj/shopfront/pkg/metrics"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CheckoutService turns a cart into an order.
type CheckoutService struct {
	db       *gorm.DB
	carts    *repositories.CartRepository
	products *repositories.ProductRepository
	orders   *repositories.OrderRepository
	events   Publisher
}

func NewCheckoutService(db *gorm.DB, events Publisher) *CheckoutService {
	return &CheckoutService{
		db:       db,
		carts:    repositories.NewCartRepository(db),
		products: repositories.NewProductRepository(db),
		orders:   repositories.NewOrderRepository(db),
		events:   events,
	}
}

// Checkout converts the user's cart into an order in one transaction:
// stock is re-checked under row locks, the order stores snapshot prices,
// stock is decremented with a guarded update and the cart is emptied.
// Nothing is observable unless every step succeeds. Stock events are
// published after commit.
func (s *CheckoutService) Checkout(ctx context.Context, userID uint) (models.Order, error) {
	var order models.Order

	err := withStockTx(ctx, s.db, s.events, func(tx *gorm.DB, ledger *stockLedger) error {
		carts := s.carts.WithTx(tx)
		products := s.products.WithTx(tx)

		cart, err := carts.FindWithItems(ctx, userID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEmptyCart
		}
		if err != nil {
			return fmt.Errorf("checkout: load cart: %w", err)
		}
		if cart.Empty() {
			return ErrEmptyCart
		}

		ids := make([]uint, 0, len(cart.Items))
		for _, item := range cart.Items {
			ids = append(ids, item.ProductID)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

		locked, err := products.LockByIDs(ctx, ids)
		if err != nil {
			return fmt.Errorf("checkout: lock products: %w", err)
		}
		byID := make(map[uint]models.Product, len(locked))
		for _, p := range locked {
			byID[p.ID] = p
		}

		// Re-validate every line against the locked rows and price the
		// order before anything is written.
		total := decimal.Zero
		order = models.Order{UserID: userID}
		for _, item := range cart.Items {
			p, ok := byID[item.ProductID]
			if !ok {
				return invalid("product_id", fmt.Sprintf("Product #%d is no longer available.", item.ProductID))
			}
			if p.StockQuantity < item.Quantity {
				return shortOf(p, item.Quantity)
			}
			item.Product = p
			total = total.Add(item.Subtotal())
			order.Items = append(order.Items, models.OrderItem{
				ProductID: p.ID,
				Quantity:  item.Quantity,
				Price:     p.Price,
			})
		}
		order.Total = total

		if err := s.orders.WithTx(tx).Create(ctx, &order); err != nil {
			return fmt.Errorf("checkout: create order: %w", err)
		}

		for _, item := range order.Items {
			ok, err := products.DecrementStock(ctx, item.ProductID, item.Quantity)
			if err != nil {
				return fmt.Errorf("checkout: decrement stock: %w", err)
			}
			refreshed, err := products.Find(ctx, item.ProductID)
			if err != nil {
				return fmt.Errorf("checkout: reload product: %w", err)
			}
			if !ok {
				return shortOf(refreshed, item.Quantity)
			}
			ledger.record(refreshed, events.ReasonCheckout)
		}

		if err := carts.ClearItems(ctx, cart.ID); err != nil {
			return fmt.Errorf("checkout: clear cart: %w", err)
		}
		return nil
	})
	if err != nil {
		metrics.CheckoutsTotal.WithLabelValues(checkoutOutcome(err)).Inc()
		return models.Order{}, err
	}

	metrics.CheckoutsTotal.WithLabelValues("success").Inc()
	logger.WithCtx(ctx).Info("checkout: order placed",
		"order_id", order.ID, "user_id", userID, "total", order.Total.StringFixed(2))
	return order, nil
}

func checkoutOutcome(err error) string {
	switch {
	case errors.Is(err, ErrEmptyCart):
		return "empty_cart"
	case errors.Is(err, ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, ErrValidation):
		return "invalid"
	default:
		return "error"
	}
}
