package services

import (
	"context"
	"fmt"

	"github.com/shashiranjanraj/shopfront/app/models"
	"github.com/shashiranjanraj/shopfront/app/repositories"
	"gorm.io/gorm"
)

// OrderService reads order history.
type OrderService struct {
	orders *repositories.OrderRepository
}

func NewOrderService(db *gorm.DB) *OrderService {
	return &OrderService{orders: repositories.NewOrderRepository(db)}
}

// ForUser returns the user's orders, newest first.
func (s *OrderService) ForUser(ctx context.Context, userID uint) ([]models.Order, error) {
	orders, err := s.orders.ForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("orders: list: %w", err)
	}
	return orders, nil
}
