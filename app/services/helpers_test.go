package services

import (
	"context"
	"sync"
	"testing"

	"github.com/shashiranjanraj/shopfront/app/models"
	"github.com/shashiranjanraj/shopfront/pkg/auth"
	"github.com/shashiranjanraj/shopfront/pkg/database"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open("sqlite", ":memory:")
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Product{},
		&models.Cart{}, &models.CartItem{},
		&models.Order{}, &models.OrderItem{},
	))
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func seedUser(t *testing.T, db *gorm.DB, email, role string) models.User {
	t.Helper()
	hash, err := auth.HashPassword("password")
	require.NoError(t, err)
	u := models.User{Name: email, Email: email, Password: hash, Role: role}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func seedProduct(t *testing.T, db *gorm.DB, name, price string, stock int) models.Product {
	t.Helper()
	p := models.Product{Name: name, Price: decimal.RequireFromString(price), StockQuantity: stock}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func stockOf(t *testing.T, db *gorm.DB, id uint) int {
	t.Helper()
	var p models.Product
	require.NoError(t, db.First(&p, id).Error)
	return p.StockQuantity
}

type firedEvent struct {
	name    string
	payload any
}

// recorder is a Publisher that keeps every event it receives.
type recorder struct {
	mu     sync.Mutex
	events []firedEvent
}

func (r *recorder) Fire(_ context.Context, name string, payload any) {
	r.mu.Lock()
	r.events = append(r.events, firedEvent{name: name, payload: payload})
	r.mu.Unlock()
}

func (r *recorder) fired() []firedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]firedEvent(nil), r.events...)
}

func mustDecimal(s string) decimal.Decimal { return decimal.RequireFromString(s) }
