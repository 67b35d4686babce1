package controllers

import (
	"errors"
	"fmt"

	"github.com/shashiranjanraj/shopfront/app/services"
	"github.com/shashiranjanraj/shopfront/pkg/ctx"
	"github.com/shashiranjanraj/shopfront/pkg/logger"
)

// stockMessage renders an InsufficientStockError for a response field.
type stockMessage func(e *services.InsufficientStockError) (field, message string)

func cartStock(e *services.InsufficientStockError) (string, string) {
	return "quantity", fmt.Sprintf("Insufficient stock. Only %d items available.", e.Available)
}

func checkoutStock(e *services.InsufficientStockError) (string, string) {
	return "stock", fmt.Sprintf("Insufficient stock for %s. Only %d available.", e.ProductName, e.Available)
}

// fail maps a service error onto the response.
func fail(c *ctx.Context, err error, stock stockMessage) {
	var verr *services.ValidationError
	var serr *services.InsufficientStockError

	switch {
	case errors.As(err, &verr):
		c.ValidationError(verr.Fields)
	case errors.As(err, &serr) && stock != nil:
		field, msg := stock(serr)
		c.ValidationError(map[string]string{field: msg})
	case errors.Is(err, services.ErrEmptyCart):
		c.ValidationError(map[string]string{"cart": "Your cart is empty."})
	case errors.Is(err, services.ErrForbidden):
		c.Forbidden()
	case errors.Is(err, services.ErrNotFound):
		c.NotFound()
	case errors.Is(err, services.ErrInvalidLogin):
		c.Unauthorized("These credentials do not match our records.")
	default:
		logger.WithCtx(c.Context()).Error("request failed", "path", c.R.URL.Path, "error", err)
		c.InternalError()
	}
}
