package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shashiranjanraj/shopfront/app/models"
	"github.com/shashiranjanraj/shopfront/app/repositories"
	"gorm.io/gorm"
)

// CartService manages a user's cart. None of its operations change stock,
// so none of them publish stock events.
type CartService struct {
	db       *gorm.DB
	carts    *repositories.CartRepository
	products *repositories.ProductRepository
}

func NewCartService(db *gorm.DB) *CartService {
	return &CartService{
		db:       db,
		carts:    repositories.NewCartRepository(db),
		products: repositories.NewProductRepository(db),
	}
}

// View returns the user's cart with items and products, creating an empty
// cart on first access.
func (s *CartService) View(ctx context.Context, userID uint) (models.Cart, error) {
	if _, err := s.carts.FirstOrCreate(ctx, userID); err != nil {
		return models.Cart{}, fmt.Errorf("cart: create: %w", err)
	}
	cart, err := s.carts.FindWithItems(ctx, userID)
	if err != nil {
		return models.Cart{}, fmt.Errorf("cart: load: %w", err)
	}
	return cart, nil
}

// Add puts qty units of a product in the cart. Adding a product that is
// already in the cart increments the existing line.
func (s *CartService) Add(ctx context.Context, userID, productID uint, qty int) (models.CartItem, error) {
	if qty < 1 {
		return models.CartItem{}, invalid("quantity", "The quantity must be at least 1.")
	}

	product, err := s.products.Find(ctx, productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.CartItem{}, invalid("product_id", "The selected product id is invalid.")
	}
	if err != nil {
		return models.CartItem{}, fmt.Errorf("cart: find product: %w", err)
	}
	if product.StockQuantity < qty {
		return models.CartItem{}, shortOf(product, qty)
	}

	var item models.CartItem
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		carts := s.carts.WithTx(tx)

		cart, err := carts.FirstOrCreate(ctx, userID)
		if err != nil {
			return err
		}

		existing, found, err := carts.FindItem(ctx, cart.ID, product.ID)
		if err != nil {
			return err
		}
		if found {
			newQty := existing.Quantity + qty
			if product.StockQuantity < newQty {
				return shortOf(product, newQty)
			}
			if err := carts.SetQuantity(ctx, existing.ID, newQty); err != nil {
				return err
			}
			existing.Quantity = newQty
			item = existing
			return nil
		}

		item = models.CartItem{CartID: cart.ID, ProductID: product.ID, Quantity: qty}
		return carts.CreateItem(ctx, &item)
	})
	if err != nil {
		return models.CartItem{}, err
	}

	item.Product = product
	return item, nil
}

// Update overwrites the quantity of one of the user's cart lines.
func (s *CartService) Update(ctx context.Context, userID, itemID uint, qty int) (models.CartItem, error) {
	if qty < 1 {
		return models.CartItem{}, invalid("quantity", "The quantity must be at least 1.")
	}

	item, err := s.ownedItem(ctx, userID, itemID)
	if err != nil {
		return models.CartItem{}, err
	}
	if item.Product.ID == 0 {
		return models.CartItem{}, invalid("product_id", "The selected product is no longer available.")
	}
	if item.Product.StockQuantity < qty {
		return models.CartItem{}, shortOf(item.Product, qty)
	}

	if err := s.carts.SetQuantity(ctx, item.ID, qty); err != nil {
		return models.CartItem{}, fmt.Errorf("cart: update item: %w", err)
	}
	item.Quantity = qty
	item.Cart = nil
	return item, nil
}

// Remove deletes one of the user's cart lines.
func (s *CartService) Remove(ctx context.Context, userID, itemID uint) error {
	item, err := s.ownedItem(ctx, userID, itemID)
	if err != nil {
		return err
	}
	if err := s.carts.DeleteItem(ctx, item.ID); err != nil {
		return fmt.Errorf("cart: remove item: %w", err)
	}
	return nil
}

// ownedItem loads a line and checks it belongs to userID's cart.
func (s *CartService) ownedItem(ctx context.Context, userID, itemID uint) (models.CartItem, error) {
	item, err := s.carts.FindItemByID(ctx, itemID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.CartItem{}, ErrNotFound
	}
	if err != nil {
		return models.CartItem{}, fmt.Errorf("cart: find item: %w", err)
	}
	if item.Cart == nil || item.Cart.UserID != userID {
		return models.CartItem{}, ErrForbidden
	}
	return item, nil
}

func shortOf(p models.Product, requested int) *InsufficientStockError {
	return &InsufficientStockError{
		ProductID:   p.ID,
		ProductName: p.Name,
		Available:   p.StockQuantity,
		Requested:   requested,
	}
}
