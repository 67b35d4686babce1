package repositories

import (
	"context"
	"errors"

	"github.com/shashiranjanraj/shopfront/app/models"
	"gorm.io/gorm"
)

// CartRepository handles carts and their line items.
type CartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) *CartRepository {
	return &CartRepository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *CartRepository) WithTx(tx *gorm.DB) *CartRepository {
	return &CartRepository{db: tx}
}

// FirstOrCreate returns the user's cart, creating an empty one if needed.
func (r *CartRepository) FirstOrCreate(ctx context.Context, userID uint) (models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Where(models.Cart{UserID: userID}).
		FirstOrCreate(&cart).Error
	return cart, err
}

// FindWithItems loads the user's cart with items and their products.
// It returns gorm.ErrRecordNotFound when the user has no cart yet.
func (r *CartRepository) FindWithItems(ctx context.Context, userID uint) (models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("cart_items.id") }).
		Preload("Items.Product").
		Where("user_id = ?", userID).
		First(&cart).Error
	return cart, err
}

// FindItem returns the line for product in cart, if any.
func (r *CartRepository) FindItem(ctx context.Context, cartID, productID uint) (models.CartItem, bool, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return item, false, nil
	}
	return item, err == nil, err
}

// FindItemByID loads a line with its cart (for ownership) and product.
func (r *CartRepository) FindItemByID(ctx context.Context, id uint) (models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Preload("Cart").
		Preload("Product").
		First(&item, id).Error
	return item, err
}

// CreateItem inserts a new line.
func (r *CartRepository) CreateItem(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).Omit("Product", "Cart").Create(item).Error
}

// SetQuantity overwrites the quantity of a line.
func (r *CartRepository) SetQuantity(ctx context.Context, itemID uint, qty int) error {
	return r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ?", itemID).
		Update("quantity", qty).Error
}

// DeleteItem removes a line.
func (r *CartRepository) DeleteItem(ctx context.Context, itemID uint) error {
	return r.db.WithContext(ctx).Delete(&models.CartItem{}, itemID).Error
}

// ClearItems removes every line of a cart but keeps the cart row.
func (r *CartRepository) ClearItems(ctx context.Context, cartID uint) error {
	return r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&models.CartItem{}).Error
}
