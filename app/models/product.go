package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product represents a product in the catalogue.
type Product struct {
	gorm.Model
	Name          string          `gorm:"size:255;not null;index" json:"name"`
	Description   string          `gorm:"type:text"              json:"description"`
	Price         decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	StockQuantity int             `gorm:"not null;default:0;check:stock_quantity >= 0" json:"stock_quantity"`
}

// IsLowStock reports whether stock is at or below threshold.
func (p Product) IsLowStock(threshold int) bool {
	return p.StockQuantity <= threshold
}
