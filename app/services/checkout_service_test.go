package services

import (
	"context"
	"sync"
	"testing"

	"github.com/shashiranjanraj/shopfront/app/events"
	"github.com/shashiranjanraj/shopfront/app/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckoutPlacesOrder(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	user := seedUser(t, db, "test@example.com", models.RoleUser)
	a := seedProduct(t, db, "A", "10.00", 5)
	b := seedProduct(t, db, "B", "20.00", 5)
	pub := &recorder{}
	carts := NewCartService(db)

	_, err := carts.Add(ctx, user.ID, a.ID, 2)
	require.NoError(t, err)
	_, err = carts.Add(ctx, user.ID, b.ID, 1)
	require.NoError(t, err)

	order, err := NewCheckoutService(db, pub).Checkout(ctx, user.ID)
	require.NoError(t, err)

	assert.NotZero(t, order.ID)
	assert.Equal(t, "40.00", order.Total.StringFixed(2))
	require.Len(t, order.Items, 2)
	assert.Equal(t, "10.00", order.Items[0].Price.StringFixed(2))
	assert.Equal(t, 2, order.Items[0].Quantity)

	assert.Equal(t, 3, stockOf(t, db, a.ID))
	assert.Equal(t, 4, stockOf(t, db, b.ID))

	cart, err := carts.View(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, cart.Empty())

	fired := pub.fired()
	require.Len(t, fired, 2)
	first := fired[0].payload.(events.StockChangedPayload)
	assert.Equal(t, events.StockChanged, fired[0].name)
	assert.Equal(t, a.ID, first.ProductID)
	assert.Equal(t, 3, first.StockQuantity)
	assert.Equal(t, events.ReasonCheckout, first.Reason)
}

func TestCheckoutEmptyCart(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	user := seedUser(t, db, "test@example.com", models.RoleUser)
	svc := NewCheckoutService(db, &recorder{})

	_, err := svc.Checkout(ctx, user.ID)
	assert.ErrorIs(t, err, ErrEmptyCart, "no cart at all")

	_, err = NewCartService(db).View(ctx, user.ID)
	require.NoError(t, err)
	_, err = svc.Checkout(ctx, user.ID)
	assert.ErrorIs(t, err, ErrEmptyCart, "cart without items")
}

func TestCheckoutRollsBackOnShortStock(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	user := seedUser(t, db, "test@example.com", models.RoleUser)
	a := seedProduct(t, db, "A", "10.00", 5)
	b := seedProduct(t, db, "B", "20.00", 5)
	pub := &recorder{}
	carts := NewCartService(db)

	_, err := carts.Add(ctx, user.ID, a.ID, 2)
	require.NoError(t, err)
	_, err = carts.Add(ctx, user.ID, b.ID, 3)
	require.NoError(t, err)

	// Stock drops after the item was added.
	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", b.ID).Update("stock_quantity", 1).Error)

	_, err = NewCheckoutService(db, pub).Checkout(ctx, user.ID)
	var short *InsufficientStockError
	require.ErrorAs(t, err, &short)
	assert.Equal(t, "B", short.ProductName)
	assert.Equal(t, 1, short.Available)

	assert.Equal(t, 5, stockOf(t, db, a.ID))
	assert.Equal(t, 1, stockOf(t, db, b.ID))

	var orders, items int64
	require.NoError(t, db.Model(&models.Order{}).Count(&orders).Error)
	require.NoError(t, db.Model(&models.OrderItem{}).Count(&items).Error)
	assert.Zero(t, orders)
	assert.Zero(t, items)

	cart, err := carts.View(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 2)
	assert.Empty(t, pub.fired(), "nothing is published for a rolled back checkout")
}

func TestCheckoutRejectsDeletedProduct(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	user := seedUser(t, db, "test@example.com", models.RoleUser)
	a := seedProduct(t, db, "A", "10.00", 5)
	b := seedProduct(t, db, "B", "20.00", 5)
	pub := &recorder{}
	carts := NewCartService(db)

	_, err := carts.Add(ctx, user.ID, a.ID, 1)
	require.NoError(t, err)
	_, err = carts.Add(ctx, user.ID, b.ID, 1)
	require.NoError(t, err)

	// Withdrawn from the catalog while still in the cart.
	require.NoError(t, db.Delete(&models.Product{}, b.ID).Error)

	_, err = NewCheckoutService(db, pub).Checkout(ctx, user.ID)
	require.ErrorIs(t, err, ErrValidation)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields["product_id"], "no longer available")

	assert.Equal(t, 5, stockOf(t, db, a.ID))
	var orders int64
	require.NoError(t, db.Model(&models.Order{}).Count(&orders).Error)
	assert.Zero(t, orders)
	assert.Empty(t, pub.fired())
}

func TestConcurrentCheckoutOfLastUnit(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	p := seedProduct(t, db, "Last", "5.00", 1)
	u1 := seedUser(t, db, "one@example.com", models.RoleUser)
	u2 := seedUser(t, db, "two@example.com", models.RoleUser)
	carts := NewCartService(db)
	for _, u := range []models.User{u1, u2} {
		_, err := carts.Add(ctx, u.ID, p.ID, 1)
		require.NoError(t, err)
	}

	svc := NewCheckoutService(db, &recorder{})
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i, u := range []models.User{u1, u2} {
		wg.Add(1)
		go func(i int, id uint) {
			defer wg.Done()
			_, errs[i] = svc.Checkout(ctx, id)
		}(i, u.ID)
	}
	wg.Wait()

	var ok, short int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case assert.ErrorIs(t, err, ErrInsufficientStock):
			short++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, short)
	assert.Equal(t, 0, stockOf(t, db, p.ID))
}

func TestOrderKeepsPurchasePrice(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	user := seedUser(t, db, "test@example.com", models.RoleUser)
	p := seedProduct(t, db, "Laptop", "999.99", 15)

	_, err := NewCartService(db).Add(ctx, user.ID, p.ID, 1)
	require.NoError(t, err)
	order, err := NewCheckoutService(db, nil).Checkout(ctx, user.ID)
	require.NoError(t, err)

	_, err = NewCatalogService(db, nil, 0, nil).UpdatePrice(ctx, p.ID, mustDecimal("1299.99"))
	require.NoError(t, err)

	var stored models.OrderItem
	require.NoError(t, db.Where("order_id = ?", order.ID).First(&stored).Error)
	assert.Equal(t, "999.99", stored.Price.StringFixed(2))
	assert.Equal(t, "999.99", stored.Subtotal().StringFixed(2))
}

func TestCheckoutEventCarriesThresholdBoundary(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	user := seedUser(t, db, "test@example.com", models.RoleUser)
	p := seedProduct(t, db, "C", "1.00", 11)
	pub := &recorder{}

	_, err := NewCartService(db).Add(ctx, user.ID, p.ID, 1)
	require.NoError(t, err)
	_, err = NewCheckoutService(db, pub).Checkout(ctx, user.ID)
	require.NoError(t, err)

	fired := pub.fired()
	require.Len(t, fired, 1)
	change := fired[0].payload.(events.StockChangedPayload)
	assert.Equal(t, 10, change.StockQuantity)
	assert.True(t, (models.Product{StockQuantity: change.StockQuantity}).IsLowStock(10))
}
