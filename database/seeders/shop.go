package seeders

import (
	"context"

	"github.com/shashiranjanraj/shopfront/app/models"
	"github.com/shashiranjanraj/shopfront/pkg/auth"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const demoPassword = "password"

func init() {
	Register("users", SeedUsers)
	Register("products", SeedProducts)
}

var demoUsers = []models.User{
	{Name: "Admin User", Email: "admin@example.com", Role: models.RoleAdmin},
	{Name: "Test User", Email: "test@example.com", Role: models.RoleUser},
}

var demoProducts = []struct {
	name  string
	price string
	stock int
}{
	{"Laptop", "999.99", 15},
	{"Mouse", "29.99", 50},
	{"Keyboard", "79.99", 30},
	{"Monitor", "299.99", 8},
	{"Webcam", "49.99", 12},
	{"Headphones", "129.99", 25},
	{"USB Drive", "19.99", 100},
	{"External Hard Drive", "89.99", 5},
}

// SeedUsers creates the admin and test accounts unless they exist.
func SeedUsers(ctx context.Context, db *gorm.DB) error {
	hash, err := auth.HashPassword(demoPassword)
	if err != nil {
		return err
	}
	for _, u := range demoUsers {
		u.Password = hash
		err := db.WithContext(ctx).
			Where(models.User{Email: u.Email}).
			Attrs(models.User{Name: u.Name, Password: u.Password, Role: u.Role}).
			FirstOrCreate(&models.User{}).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// SeedProducts creates the demo catalog, matching products by name.
func SeedProducts(ctx context.Context, db *gorm.DB) error {
	for _, p := range demoProducts {
		err := db.WithContext(ctx).
			Where(models.Product{Name: p.name}).
			Attrs(models.Product{Price: decimal.RequireFromString(p.price), StockQuantity: p.stock}).
			FirstOrCreate(&models.Product{}).Error
		if err != nil {
			return err
		}
	}
	return nil
}
