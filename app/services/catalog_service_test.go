package services

import (
	"context"
	"testing"
	"time"

	"github.com/shashiranjanraj/shopfront/app/events"
	"github.com/shashiranjanraj/shopfront/pkg/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogListIsCached(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	seedProduct(t, db, "Laptop", "999.99", 15)
	store := cache.NewMemoryStore()
	svc := NewCatalogService(db, store, time.Minute, nil)

	first, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)

	seedProduct(t, db, "Mouse", "29.99", 50)
	cached, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, cached, 1)

	require.NoError(t, svc.ForgetCache(ctx))
	fresh, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, fresh, 2)
	assert.Equal(t, "Laptop", fresh[0].Name)
}

func TestCatalogFindMissing(t *testing.T) {
	_, err := NewCatalogService(newTestDB(t), nil, 0, nil).Find(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCatalogRestockPublishesAfterCommit(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	p := seedProduct(t, db, "Monitor", "299.99", 8)
	pub := &recorder{}
	svc := NewCatalogService(db, nil, 0, pub)

	got, err := svc.Restock(ctx, p.ID, 12)
	require.NoError(t, err)
	assert.Equal(t, 20, got.StockQuantity)
	assert.Equal(t, 20, stockOf(t, db, p.ID))

	fired := pub.fired()
	require.Len(t, fired, 1)
	assert.Equal(t, events.StockChangedPayload{
		ProductID: p.ID, Name: "Monitor", StockQuantity: 20, Reason: events.ReasonRestock,
	}, fired[0].payload)
}

func TestCatalogRestockValidation(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	pub := &recorder{}
	svc := NewCatalogService(db, nil, 0, pub)

	_, err := svc.Restock(ctx, 1, 0)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.Restock(ctx, 999, 5)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, pub.fired())
}

func TestCatalogUpdatePrice(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	p := seedProduct(t, db, "Webcam", "49.99", 12)
	pub := &recorder{}
	svc := NewCatalogService(db, nil, 0, pub)

	got, err := svc.UpdatePrice(ctx, p.ID, mustDecimal("39.505"))
	require.NoError(t, err)
	assert.Equal(t, "39.51", got.Price.StringFixed(2))

	fired := pub.fired()
	require.Len(t, fired, 1)
	assert.Equal(t, events.CatalogChanged, fired[0].name)
	assert.Equal(t, p.ID, fired[0].payload)

	_, err = svc.UpdatePrice(ctx, p.ID, mustDecimal("-1"))
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.UpdatePrice(ctx, 999, mustDecimal("1"))
	assert.ErrorIs(t, err, ErrNotFound)
}
