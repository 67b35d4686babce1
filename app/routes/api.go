// Package routes maps URLs to controllers.
package routes

import (
	"net/http"

	"github.com/shashiranjanraj/shopfront/app/controllers"
	"github.com/shashiranjanraj/shopfront/app/models"
	"github.com/shashiranjanraj/shopfront/pkg/ctx"
	"github.com/shashiranjanraj/shopfront/pkg/metrics"
	"github.com/shashiranjanraj/shopfront/pkg/middleware"
	"github.com/shashiranjanraj/shopfront/pkg/rbac"
	"github.com/shashiranjanraj/shopfront/pkg/response"
	"github.com/shashiranjanraj/shopfront/pkg/router"
)

// Controllers are the handlers mounted by RegisterAPI. Nil handlers are
// left unmounted.
type Controllers struct {
	Auth     *controllers.AuthController
	Products *controllers.ProductController
	Cart     *controllers.CartController
	Orders   *controllers.OrderController
	Admin    *controllers.AdminController

	StockFeed http.Handler
	GraphQL   http.Handler
	Health    http.HandlerFunc
}

func RegisterAPI(r *router.Router, c Controllers) {
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) { response.NotFound(w) })
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	api := r.Group("/api")

	if c.Auth != nil {
		api.Post("/login", "auth.login", ctx.Wrap(c.Auth.Login))
		api.Post("/register", "auth.register", ctx.Wrap(c.Auth.Register))
	}

	if c.Products != nil {
		api.Get("/products", "products.index", ctx.Wrap(c.Products.Index))
		api.Get("/products/{id}", "products.show", ctx.Wrap(c.Products.Show))
	}

	user := api.Group("", middleware.Auth)
	if c.Cart != nil {
		cart := user.Group("/cart")
		cart.Get("", "cart.index", ctx.Wrap(c.Cart.Index))
		cart.Post("/items", "cart.add", ctx.Wrap(c.Cart.Add))
		cart.Patch("/items/{id}", "cart.update", ctx.Wrap(c.Cart.Update))
		cart.Delete("/items/{id}", "cart.remove", ctx.Wrap(c.Cart.Remove))
		cart.Post("/checkout", "cart.checkout", ctx.Wrap(c.Cart.Checkout))
	}
	if c.Orders != nil {
		user.Get("/orders", "orders.index", ctx.Wrap(c.Orders.Index))
	}

	if c.Admin != nil {
		admin := user.Group("/admin", rbac.HasRole(models.RoleAdmin))
		admin.Post("/products/{id}/restock", "admin.products.restock", ctx.Wrap(c.Admin.Restock))
		admin.Patch("/products/{id}/price", "admin.products.price", ctx.Wrap(c.Admin.UpdatePrice))
		admin.Get("/reports/daily", "admin.reports.daily", ctx.Wrap(c.Admin.DailyReport))
	}

	if c.StockFeed != nil {
		feed := r.Group("/ws", middleware.Auth, rbac.HasRole(models.RoleAdmin))
		feed.Get("/stock", "ws.stock", c.StockFeed.ServeHTTP)
	}
	if c.GraphQL != nil {
		r.Handle("/graphql", "graphql", c.GraphQL)
	}
	if c.Health != nil {
		r.Get("/health", "health", c.Health)
	}
	r.Get("/metrics", "metrics", metrics.Handler())
}
