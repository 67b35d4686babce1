package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shashiranjanraj/shopfront/app/events"
	"github.com/shashiranjanraj/shopfront/app/models"
	"github.com/shashiranjanraj/shopfront/app/repositories"
	"github.com/shashiranjanraj/shopfront/pkg/cache"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CatalogCacheKey holds the cached product listing.
const CatalogCacheKey = "catalog:products"

// CatalogService reads and maintains the product catalog.
type CatalogService struct {
	db       *gorm.DB
	products *repositories.ProductRepository
	cache    cache.Store
	ttl      time.Duration
	events   Publisher
}

// NewCatalogService builds the service. store may be nil to disable caching.
func NewCatalogService(db *gorm.DB, store cache.Store, ttl time.Duration, events Publisher) *CatalogService {
	return &CatalogService{
		db:       db,
		products: repositories.NewProductRepository(db),
		cache:    store,
		ttl:      ttl,
		events:   events,
	}
}

// List returns every product ordered by id.
func (s *CatalogService) List(ctx context.Context) ([]models.Product, error) {
	products, err := cache.Remember(ctx, s.cache, CatalogCacheKey, s.ttl, func() ([]models.Product, error) {
		return s.products.All(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("catalog: list: %w", err)
	}
	return products, nil
}

func (s *CatalogService) Find(ctx context.Context, id uint) (models.Product, error) {
	p, err := s.products.Find(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Product{}, ErrNotFound
	}
	if err != nil {
		return models.Product{}, fmt.Errorf("catalog: find: %w", err)
	}
	return p, nil
}

// Restock adds amount units to a product's stock.
func (s *CatalogService) Restock(ctx context.Context, id uint, amount int) (models.Product, error) {
	if amount < 1 {
		return models.Product{}, invalid("amount", "The amount must be at least 1.")
	}

	var product models.Product
	err := withStockTx(ctx, s.db, s.events, func(tx *gorm.DB, ledger *stockLedger) error {
		products := s.products.WithTx(tx)
		ok, err := products.IncrementStock(ctx, id, amount)
		if err != nil {
			return fmt.Errorf("catalog: restock: %w", err)
		}
		if !ok {
			return ErrNotFound
		}
		if product, err = products.Find(ctx, id); err != nil {
			return fmt.Errorf("catalog: reload: %w", err)
		}
		ledger.record(product, events.ReasonRestock)
		return nil
	})
	if err != nil {
		return models.Product{}, err
	}
	return product, nil
}

// UpdatePrice sets a product's price. Existing order lines keep the price
// they were bought at; open carts see the new price.
func (s *CatalogService) UpdatePrice(ctx context.Context, id uint, price decimal.Decimal) (models.Product, error) {
	if price.IsNegative() {
		return models.Product{}, invalid("price", "The price must be at least 0.")
	}
	price = price.Round(2)

	ok, err := s.products.UpdatePrice(ctx, id, price)
	if err != nil {
		return models.Product{}, fmt.Errorf("catalog: update price: %w", err)
	}
	if !ok {
		return models.Product{}, ErrNotFound
	}
	product, err := s.Find(ctx, id)
	if err != nil {
		return models.Product{}, err
	}
	if s.events != nil {
		s.events.Fire(ctx, events.CatalogChanged, product.ID)
	}
	return product, nil
}

// ForgetCache drops the cached listing.
func (s *CatalogService) ForgetCache(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Forget(ctx, CatalogCacheKey)
}
