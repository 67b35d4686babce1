// Package events names the domain events published on the event bus.
package events

// StockChanged fires after a transaction that changed a product's stock
// has committed. Payload: StockChangedPayload.
const StockChanged = "product.stock_changed"

// Reasons carried in StockChangedPayload.Reason.
const (
	ReasonCheckout = "checkout"
	ReasonRestock  = "restock"
)

// StockChangedPayload carries identifiers and the committed stock level,
// never a live model.
type StockChangedPayload struct {
	ProductID     uint   `json:"product_id"`
	Name          string `json:"name"`
	StockQuantity int    `json:"stock_quantity"`
	Reason        string `json:"reason"`
}

// CatalogChanged fires after a price change. Payload: the product id.
const CatalogChanged = "product.catalog_changed"
