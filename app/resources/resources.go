// Package resources shapes models into API responses. Money is always a
// string with two decimals.
package resources

import (
	"time"

	"github.com/shashiranjanraj/shopfront/app/models"
)

type Product struct {
	ID            uint   `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	Price         string `json:"price"`
	StockQuantity int    `json:"stock_quantity"`
}

func NewProduct(p models.Product) Product {
	return Product{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price.StringFixed(2),
		StockQuantity: p.StockQuantity,
	}
}

func NewProducts(ps []models.Product) []Product {
	out := make([]Product, 0, len(ps))
	for _, p := range ps {
		out = append(out, NewProduct(p))
	}
	return out
}

type CartItem struct {
	ID        uint    `json:"id"`
	ProductID uint    `json:"product_id"`
	Quantity  int     `json:"quantity"`
	Subtotal  string  `json:"subtotal"`
	Product   Product `json:"product"`
}

func NewCartItem(i models.CartItem) CartItem {
	return CartItem{
		ID:        i.ID,
		ProductID: i.ProductID,
		Quantity:  i.Quantity,
		Subtotal:  i.Subtotal().StringFixed(2),
		Product:   NewProduct(i.Product),
	}
}

// Cart.Total is computed from live prices.
type Cart struct {
	ID    uint       `json:"id"`
	Items []CartItem `json:"items"`
	Total string     `json:"total"`
}

func NewCart(c models.Cart) Cart {
	items := make([]CartItem, 0, len(c.Items))
	for _, i := range c.Items {
		items = append(items, NewCartItem(i))
	}
	return Cart{ID: c.ID, Items: items, Total: c.Total().StringFixed(2)}
}

type OrderItem struct {
	ProductID uint   `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price"`
	Subtotal  string `json:"subtotal"`
}

type Order struct {
	ID        uint        `json:"id"`
	Total     string      `json:"total"`
	Items     []OrderItem `json:"items"`
	CreatedAt time.Time   `json:"created_at"`
}

func NewOrder(o models.Order) Order {
	items := make([]OrderItem, 0, len(o.Items))
	for _, i := range o.Items {
		items = append(items, OrderItem{
			ProductID: i.ProductID,
			Quantity:  i.Quantity,
			Price:     i.Price.StringFixed(2),
			Subtotal:  i.Subtotal().StringFixed(2),
		})
	}
	return Order{ID: o.ID, Total: o.Total.StringFixed(2), Items: items, CreatedAt: o.CreatedAt}
}

func NewOrders(os []models.Order) []Order {
	out := make([]Order, 0, len(os))
	for _, o := range os {
		out = append(out, NewOrder(o))
	}
	return out
}

type ProductSales struct {
	ProductID uint   `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	Revenue   string `json:"revenue"`
}

type SalesReport struct {
	Date        string         `json:"date"`
	TotalSales  string         `json:"total_sales"`
	TotalOrders int            `json:"total_orders"`
	Products    []ProductSales `json:"products"`
}

func NewSalesReport(r models.SalesReport) SalesReport {
	products := make([]ProductSales, 0, len(r.Products))
	for _, p := range r.Products {
		products = append(products, ProductSales{
			ProductID: p.ProductID,
			Name:      p.Name,
			Quantity:  p.Quantity,
			Revenue:   p.Revenue.StringFixed(2),
		})
	}
	return SalesReport{
		Date:        r.Date.Format("2006-01-02"),
		TotalSales:  r.TotalSales.StringFixed(2),
		TotalOrders: r.TotalOrders,
		Products:    products,
	}
}

type User struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func NewUser(u models.User) User {
	return User{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}
