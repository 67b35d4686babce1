package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SalesReport is a read-only rollup of the orders in a window. Not persisted.
type SalesReport struct {
	Date        time.Time       `json:"date"`
	From        time.Time       `json:"from"`
	To          time.Time       `json:"to"`
	TotalSales  decimal.Decimal `json:"total_sales"`
	TotalOrders int             `json:"total_orders"`
	Products    []ProductSales  `json:"products"`
}

// ProductSales is one product's share of a SalesReport. Revenue is summed
// from order item snapshot prices.
type ProductSales struct {
	ProductID uint            `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Revenue   decimal.Decimal `json:"revenue"`
}
