package kernel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/shashiranjanraj/shopfront/database/migrations"
	"github.com/shashiranjanraj/shopfront/database/seeders"
	"github.com/shashiranjanraj/shopfront/pkg/database"
	"github.com/shashiranjanraj/shopfront/pkg/mail"
	"github.com/shashiranjanraj/shopfront/pkg/migration"
	"github.com/shashiranjanraj/shopfront/pkg/testkit"
)

type envelope struct {
	Status  int               `json:"status"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

type shop struct {
	t       *testing.T
	app     *App
	handler http.Handler
	mailer  *mail.Fake
}

func newShop(t *testing.T) *shop {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	_, err = migration.New(db, io.Discard).Up(ctx)
	require.NoError(t, err)
	require.NoError(t, seeders.RunAll(ctx, db, io.Discard))

	fake := &mail.Fake{}
	app, err := New(ctx, Options{DB: db, Mailer: fake})
	require.NoError(t, err)
	t.Cleanup(app.Close)

	h, err := app.Handler()
	require.NoError(t, err)
	return &shop{t: t, app: app, handler: h, mailer: fake}
}

func (s *shop) do(method, path, token string, body any) (int, envelope) {
	s.t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 && rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec.Code, env
}

func (s *shop) login(email string) string {
	s.t.Helper()
	code, env := s.do(http.MethodPost, "/api/login", "", map[string]string{"email": email, "password": "password"})
	require.Equal(s.t, http.StatusOK, code, env.Message)
	var out struct {
		Token string `json:"token"`
	}
	require.NoError(s.t, json.Unmarshal(env.Data, &out))
	require.NotEmpty(s.t, out.Token)
	return out.Token
}

type product struct {
	ID            uint   `json:"id"`
	Name          string `json:"name"`
	Price         string `json:"price"`
	StockQuantity int    `json:"stock_quantity"`
}

func (s *shop) products() map[string]product {
	s.t.Helper()
	code, env := s.do(http.MethodGet, "/api/products", "", nil)
	require.Equal(s.t, http.StatusOK, code)
	var list []product
	require.NoError(s.t, json.Unmarshal(env.Data, &list))
	out := make(map[string]product, len(list))
	for _, p := range list {
		out[p.Name] = p
	}
	return out
}

func TestShopFlow(t *testing.T) {
	s := newShop(t)
	user := s.login("test@example.com")
	admin := s.login("admin@example.com")

	catalog := s.products()
	require.Len(t, catalog, 8)
	monitor, mouse := catalog["Monitor"], catalog["Mouse"]
	assert.Equal(t, "299.99", monitor.Price)
	assert.Equal(t, 8, monitor.StockQuantity)

	code, _ := s.do(http.MethodPost, "/api/cart/items", "", map[string]any{"product_id": monitor.ID, "quantity": 1})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env := s.do(http.MethodPost, "/api/cart/items", user, map[string]any{"product_id": monitor.ID, "quantity": 0})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Contains(t, env.Errors, "quantity")

	code, env = s.do(http.MethodPost, "/api/cart/items", user, map[string]any{"product_id": monitor.ID, "quantity": 100})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "Insufficient stock. Only 8 items available.", env.Errors["quantity"])

	code, env = s.do(http.MethodPost, "/api/cart/items", user, map[string]any{"product_id": monitor.ID, "quantity": 2})
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "Product added to cart!", env.Message)
	code, _ = s.do(http.MethodPost, "/api/cart/items", user, map[string]any{"product_id": mouse.ID, "quantity": 1})
	require.Equal(t, http.StatusCreated, code)

	code, env = s.do(http.MethodGet, "/api/cart", user, nil)
	require.Equal(t, http.StatusOK, code)
	var cart struct {
		Items []struct {
			ID uint `json:"id"`
		} `json:"items"`
		Total string `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &cart))
	assert.Len(t, cart.Items, 2)
	assert.Equal(t, "629.97", cart.Total)

	code, _ = s.do(http.MethodPatch, "/api/cart/items/9999", user, map[string]any{"quantity": 1})
	assert.Equal(t, http.StatusNotFound, code)

	// Another user may not touch this cart.
	code, _ = s.do(http.MethodDelete, fmt.Sprintf("/api/cart/items/%d", cart.Items[0].ID), admin, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, env = s.do(http.MethodPost, "/api/cart/checkout", user, nil)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "Order placed successfully!", env.Message)
	var order struct {
		Total string `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &order))
	assert.Equal(t, "629.97", order.Total)

	after := s.products()
	assert.Equal(t, 6, after["Monitor"].StockQuantity)
	assert.Equal(t, 49, after["Mouse"].StockQuantity)

	code, env = s.do(http.MethodPost, "/api/cart/checkout", user, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "Your cart is empty.", env.Errors["cart"])

	// Monitor dropped to 6: exactly one alert was queued.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	handled, err := s.app.Queue.Work(ctx)
	require.NoError(t, err)
	require.True(t, handled)
	sent := s.mailer.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "Low Stock Alert: Monitor", sent[0].SubjectLine())
	assert.Equal(t, []string{"admin@example.com"}, sent[0].Recipients())

	code, _ = s.do(http.MethodGet, "/api/admin/reports/daily", user, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, env = s.do(http.MethodGet, "/api/admin/reports/daily", admin, nil)
	require.Equal(t, http.StatusOK, code)
	var report struct {
		TotalSales  string `json:"total_sales"`
		TotalOrders int    `json:"total_orders"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.Equal(t, "629.97", report.TotalSales)
	assert.Equal(t, 1, report.TotalOrders)

	code, env = s.do(http.MethodGet, "/api/orders", user, nil)
	require.Equal(t, http.StatusOK, code)
	var orders []json.RawMessage
	require.NoError(t, json.Unmarshal(env.Data, &orders))
	assert.Len(t, orders, 1)
}

func TestAdminRestockRefreshesCatalog(t *testing.T) {
	s := newShop(t)
	admin := s.login("admin@example.com")
	drive := s.products()["External Hard Drive"]

	code, env := s.do(http.MethodPost, fmt.Sprintf("/api/admin/products/%d/restock", drive.ID), admin, map[string]any{"amount": 10})
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.Equal(t, "Product restocked.", env.Message)

	assert.Equal(t, 15, s.products()["External Hard Drive"].StockQuantity)

	code, _ = s.do(http.MethodPatch, fmt.Sprintf("/api/admin/products/%d/price", drive.ID), admin, map[string]any{"price": "79.50"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "79.50", s.products()["External Hard Drive"].Price)

	// Restocking never alerts.
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	handled, err := s.app.Queue.Work(ctx)
	require.NoError(t, err)
	assert.False(t, handled)
}

func TestHealthAndUnknownRoutes(t *testing.T) {
	s := newShop(t)

	code, env := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"status":"ok","database":"ok"}`, string(env.Data))

	code, _ = s.do(http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = s.do(http.MethodPost, "/api/login", "", map[string]string{"email": "test@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestGraphQLListsProducts(t *testing.T) {
	s := newShop(t)

	req := httptest.NewRequest(http.MethodPost, "/graphql",
		bytes.NewBufferString(`{"query":"{ products(lowStock: true) { name stockQuantity } }"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":{"products":[
		{"name":"Monitor","stockQuantity":8},
		{"name":"External Hard Drive","stockQuantity":5}
	]}}`, rec.Body.String())
}

func TestAPIScenarios(t *testing.T) {
	testkit.Runner{Setup: func(t *testing.T) testkit.Env {
		s := newShop(t)
		return testkit.Env{
			Handler: s.handler,
			Token:   func(_ *testing.T, account string) string { return s.login(account) },
			Mailer:  s.mailer,
			Settle: func(t *testing.T) {
				for {
					ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
					handled, err := s.app.Queue.Work(ctx)
					cancel()
					require.NoError(t, err)
					if !handled {
						return
					}
				}
			},
		}
	}}.RunDir(t, "testdata")
}
