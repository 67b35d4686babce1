package controllers

import (
	"github.com/shashiranjanraj/shopfront/app/resources"
	"github.com/shashiranjanraj/shopfront/app/services"
	"github.com/shashiranjanraj/shopfront/pkg/ctx"
)

type CartController struct {
	carts    *services.CartService
	checkout *services.CheckoutService
}

func NewCartController(carts *services.CartService, checkout *services.CheckoutService) *CartController {
	return &CartController{carts: carts, checkout: checkout}
}

type addItemInput struct {
	ProductID uint `json:"product_id" validate:"required"`
	Quantity  int  `json:"quantity"   validate:"required,min=1"`
}

type updateItemInput struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

// Index shows the caller's cart, creating it on first visit.
func (cc *CartController) Index(c *ctx.Context) {
	cart, err := cc.carts.View(c.Context(), c.UserID())
	if err != nil {
		fail(c, err, nil)
		return
	}
	c.Success(resources.NewCart(cart))
}

func (cc *CartController) Add(c *ctx.Context) {
	var in addItemInput
	if !c.BindJSON(&in) {
		return
	}
	item, err := cc.carts.Add(c.Context(), c.UserID(), in.ProductID, in.Quantity)
	if err != nil {
		fail(c, err, cartStock)
		return
	}
	c.Created("Product added to cart!", resources.NewCartItem(item))
}

func (cc *CartController) Update(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		c.NotFound()
		return
	}
	var in updateItemInput
	if !c.BindJSON(&in) {
		return
	}
	item, err := cc.carts.Update(c.Context(), c.UserID(), id, in.Quantity)
	if err != nil {
		fail(c, err, cartStock)
		return
	}
	c.Message("Cart updated!", resources.NewCartItem(item))
}

func (cc *CartController) Remove(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		c.NotFound()
		return
	}
	if err := cc.carts.Remove(c.Context(), c.UserID(), id); err != nil {
		fail(c, err, nil)
		return
	}
	c.Message("Item removed from cart!", nil)
}

// Checkout turns the cart into an order.
func (cc *CartController) Checkout(c *ctx.Context) {
	order, err := cc.checkout.Checkout(c.Context(), c.UserID())
	if err != nil {
		fail(c, err, checkoutStock)
		return
	}
	c.Created("Order placed successfully!", resources.NewOrder(order))
}
