package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tag(v string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("X-Chain", v)
			next.ServeHTTP(w, r)
		})
	}
}

func TestGroupsJoinPrefixesAndMiddleware(t *testing.T) {
	r := New()
	api := r.Group("/api", tag("api"))
	cart := api.Group("cart", tag("cart"))
	cart.Patch("/items/{id}", "cart.items.update", func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write([]byte(chi.URLParam(req, "id")))
	}, tag("route"))

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/api/cart/items/7", nil))

	assert.Equal(t, "7", rec.Body.String())
	assert.Equal(t, []string{"api", "cart", "route"}, rec.Header().Values("X-Chain"))
}

func TestNamedRoutes(t *testing.T) {
	r := New()
	g := r.Group("/api/admin")
	g.Post("/products/{id}/restock", "admin.products.restock", func(http.ResponseWriter, *http.Request) {})

	url, err := r.URL("admin.products.restock", map[string]string{"id": "4"})
	require.NoError(t, err)
	assert.Equal(t, "/api/admin/products/4/restock", url)

	_, err = r.URL("admin.products.restock", nil)
	assert.Error(t, err)
	_, err = r.URL("missing", nil)
	assert.Error(t, err)
}

func TestRoutesAreSorted(t *testing.T) {
	r := New()
	noop := func(http.ResponseWriter, *http.Request) {}
	api := r.Group("/api")
	api.Delete("/cart/items/{id}", "cart.items.remove", noop)
	api.Get("/cart", "cart.show", noop)
	api.Patch("/cart/items/{id}", "cart.items.update", noop)
	r.Get("/health", "health", noop)

	assert.Equal(t, []Route{
		{Method: http.MethodGet, Path: "/api/cart", Name: "cart.show"},
		{Method: http.MethodDelete, Path: "/api/cart/items/{id}", Name: "cart.items.remove"},
		{Method: http.MethodPatch, Path: "/api/cart/items/{id}", Name: "cart.items.update"},
		{Method: http.MethodGet, Path: "/health", Name: "health"},
	}, r.Routes())
}
