package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"julianmorley.ca/con-plar/storefront/pkg/cart"
	"julianmorley.ca/con-plar/storefront/pkg/checkout"
	"julianmorley.ca/con-plar/storefront/pkg/global"
	"julianmorley.ca/con-plar/storefront/pkg/models"
)

type fakeCatalog struct {
	products []models.Product
	err      error
}

func (f *fakeCatalog) ListProducts(context.Context) ([]models.Product, error) {
	return f.products, f.err
}

func (f *fakeCatalog) FindProduct(_ context.Context, id int) (models.Product, error) {
	for _, p := range f.products {
		if p.ID == id {
			return p, nil
		}
	}
	return models.Product{}, models.ErrProductNotFound
}

type fakeLedger struct {
	mu     sync.Mutex
	orders []models.Order
	items  []models.OrderLineItem
}

func (l *fakeLedger) Record(_ context.Context, order models.Order, items []models.OrderLineItem) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.orders = append(l.orders, order)
	l.items = append(l.items, items...)
	return nil
}

func (l *fakeLedger) ListOrders(context.Context) ([]models.OrderSummary, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.OrderSummary, 0, len(l.orders))
	for i := len(l.orders) - 1; i >= 0; i-- {
		o := l.orders[i]
		var mine []models.OrderLineItem
		for _, it := range l.items {
			if it.OrderID == o.OrderID {
				mine = append(mine, it)
			}
		}
		out = append(out, models.OrderSummary{
			OrderID:       o.OrderID,
			CustomerName:  o.CustomerName,
			CustomerEmail: o.CustomerEmail,
			Total:         o.Total,
			Status:        o.Status,
			CreatedAt:     o.CreatedAt,
			Items:         models.SummarizeItems(mine),
		})
	}
	return out, nil
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

type envelope struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Error   string              `json:"error"`
	Errors  []global.FieldError `json:"errors"`
}

type RouterSuite struct {
	suite.Suite
	engine  *gin.Engine
	catalog *fakeCatalog
	ledger  *fakeLedger
	pinger  *fakePinger
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	s.catalog = &fakeCatalog{products: []models.Product{
		{ID: 1, Name: "Ten", Price: decimal.RequireFromString("10.00"), Category: "Test"},
		{ID: 2, Name: "Five", Price: decimal.RequireFromString("5.00"), Category: "Test"},
	}}
	s.ledger = &fakeLedger{}
	s.pinger = &fakePinger{}

	carts := cart.NewService(cart.NewMemoryStore(), s.catalog, nil)
	checkouts := checkout.NewService(s.catalog, s.ledger, carts, nil, checkout.Options{Currency: "USD"})

	h := NewHandler(Deps{
		Products: s.catalog,
		Carts:    carts,
		Checkout: checkouts,
		Orders:   s.ledger,
		Health:   s.pinger,
	})
	cfg := global.Config{CORSOrigins: []string{"http://localhost:5173"}, RequestTimeout: time.Second}
	s.engine = NewEngine(cfg, h, nil)
}

func (s *RouterSuite) do(method, path string, body interface{}, headers ...string) (*httptest.ResponseRecorder, envelope) {
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			s.Require().NoError(json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func (s *RouterSuite) decode(raw json.RawMessage, dst interface{}) {
	s.Require().NoError(json.Unmarshal(raw, dst))
}

func (s *RouterSuite) TestHealth() {
	w, _ := s.do(http.MethodGet, "/api/health", nil)
	s.Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"status":"ok"}`, w.Body.String())

	s.pinger.err = errors.New("no primary")
	w, _ = s.do(http.MethodGet, "/api/health", nil)
	s.Equal(http.StatusServiceUnavailable, w.Code)
	s.JSONEq(`{"status":"unavailable"}`, w.Body.String())
}

func (s *RouterSuite) TestGetProducts() {
	w, env := s.do(http.MethodGet, "/api/products", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.True(env.Success)

	var products []map[string]interface{}
	s.decode(env.Data, &products)
	s.Require().Len(products, 2)
	s.Equal(10.0, products[0]["price"])
	s.Equal("Ten", products[0]["name"])
}

func (s *RouterSuite) TestGetProducts_StorageError() {
	s.catalog.err = global.Storage("Failed to get products", errors.New("connection refused"))

	w, env := s.do(http.MethodGet, "/api/products", nil)
	s.Equal(http.StatusInternalServerError, w.Code)
	s.False(env.Success)
	s.Equal("Failed to get products", env.Error)
	s.NotContains(w.Body.String(), "connection refused")
}

func (s *RouterSuite) TestAddToCart() {
	w, env := s.do(http.MethodPost, "/api/cart", map[string]int{"productId": 1, "qty": 2})
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(cart.DefaultSession, w.Header().Get(SessionHeader))

	var entries []models.CartEntry
	s.decode(env.Data, &entries)
	s.Equal([]models.CartEntry{{ID: 1, ProductID: 1, Qty: 2}}, entries)

	// qty omitted defaults to one and merges into the existing entry
	_, env = s.do(http.MethodPost, "/api/cart", map[string]int{"productId": 1})
	s.decode(env.Data, &entries)
	s.Equal([]models.CartEntry{{ID: 1, ProductID: 1, Qty: 3}}, entries)
}

func (s *RouterSuite) TestAddToCart_Errors() {
	tests := []struct {
		name   string
		body   interface{}
		status int
		msg    string
	}{
		{"zero qty", map[string]int{"productId": 1, "qty": 0}, http.StatusBadRequest, "Invalid productId or quantity"},
		{"negative qty", map[string]int{"productId": 1, "qty": -3}, http.StatusBadRequest, "Invalid productId or quantity"},
		{"missing product id", map[string]int{"qty": 1}, http.StatusBadRequest, "Invalid productId or quantity"},
		{"unknown product", map[string]int{"productId": 999, "qty": 1}, http.StatusNotFound, "Product not found"},
		{"malformed json", `{"productId":`, http.StatusBadRequest, "Invalid JSON format"},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			w, env := s.do(http.MethodPost, "/api/cart", tt.body)
			s.Equal(tt.status, w.Code)
			s.False(env.Success)
			s.Equal(tt.msg, env.Error)
		})
	}
}

func (s *RouterSuite) TestGetCart() {
	s.do(http.MethodPost, "/api/cart", map[string]int{"productId": 1, "qty": 2})
	s.do(http.MethodPost, "/api/cart", map[string]int{"productId": 2, "qty": 1})

	w, env := s.do(http.MethodGet, "/api/cart", nil)
	s.Require().Equal(http.StatusOK, w.Code)

	var view struct {
		Items     []models.CartEntry `json:"items"`
		Total     float64            `json:"total"`
		ItemCount int                `json:"itemCount"`
	}
	s.decode(env.Data, &view)
	s.Len(view.Items, 2)
	s.Equal(25.0, view.Total)
	s.Equal(3, view.ItemCount)
}

func (s *RouterSuite) TestSessionsAreIsolated() {
	s.do(http.MethodPost, "/api/cart", map[string]int{"productId": 1}, SessionHeader, "alice")
	s.do(http.MethodPost, "/api/cart?session_id=bob", map[string]int{"productId": 2, "qty": 4})

	_, env := s.do(http.MethodGet, "/api/cart", nil, SessionHeader, "alice")
	var view models.CartView
	s.decode(env.Data, &view)
	s.Equal([]models.CartEntry{{ID: 1, ProductID: 1, Qty: 1}}, view.Items)

	w, env := s.do(http.MethodGet, "/api/cart?session_id=bob", nil)
	s.Equal("bob", w.Header().Get(SessionHeader))
	s.decode(env.Data, &view)
	s.Equal(4, view.ItemCount)

	_, env = s.do(http.MethodGet, "/api/cart", nil)
	s.decode(env.Data, &view)
	s.Empty(view.Items)
}

func (s *RouterSuite) TestRemoveFromCart() {
	s.do(http.MethodPost, "/api/cart", map[string]int{"productId": 1})
	s.do(http.MethodPost, "/api/cart", map[string]int{"productId": 2})

	w, env := s.do(http.MethodDelete, "/api/cart/1", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var entries []models.CartEntry
	s.decode(env.Data, &entries)
	s.Equal([]models.CartEntry{{ID: 2, ProductID: 2, Qty: 1}}, entries)

	w, env = s.do(http.MethodDelete, "/api/cart/1", nil)
	s.Equal(http.StatusNotFound, w.Code)
	s.Equal("Cart item not found", env.Error)

	w, env = s.do(http.MethodDelete, "/api/cart/abc", nil)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Require().Len(env.Errors, 1)
	s.Equal("id", env.Errors[0].Field)
}

func (s *RouterSuite) TestCheckoutFlow() {
	s.do(http.MethodPost, "/api/cart", map[string]int{"productId": 1, "qty": 2})
	s.do(http.MethodPost, "/api/cart", map[string]int{"productId": 2, "qty": 1})

	w, env := s.do(http.MethodPost, "/api/checkout", map[string]string{
		"customerName":  "Ada Lovelace",
		"customerEmail": "ada@example.com",
	})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var receipt struct {
		OrderID string  `json:"orderId"`
		Total   float64 `json:"total"`
		Status  string  `json:"status"`
		Items   []struct {
			ProductName string  `json:"productName"`
			Qty         int     `json:"qty"`
			Subtotal    float64 `json:"subtotal"`
		} `json:"items"`
	}
	s.decode(env.Data, &receipt)
	s.Regexp(`^ORD-\d+-[0-9a-f]{8}$`, receipt.OrderID)
	s.Equal(25.0, receipt.Total)
	s.Equal(models.OrderStatusCompleted, receipt.Status)
	s.Len(receipt.Items, 2)

	_, env = s.do(http.MethodGet, "/api/cart", nil)
	var view models.CartView
	s.decode(env.Data, &view)
	s.Empty(view.Items)

	w, env = s.do(http.MethodGet, "/api/orders", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var orders []map[string]interface{}
	s.decode(env.Data, &orders)
	s.Require().Len(orders, 1)
	s.Equal(receipt.OrderID, orders[0]["orderId"])
	s.Equal("Ten x2, Five x1", orders[0]["items"])
}

func (s *RouterSuite) TestCheckout_Validation() {
	w, env := s.do(http.MethodPost, "/api/checkout", map[string]string{
		"customerName":  "Ada",
		"customerEmail": "ada@example.com",
	})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("Cart is empty", env.Error)

	s.do(http.MethodPost, "/api/cart", map[string]int{"productId": 1})
	w, env = s.do(http.MethodPost, "/api/checkout", map[string]string{"customerName": "Ada"})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("Customer name and email required", env.Error)

	s.Empty(s.ledger.orders)
}

func (s *RouterSuite) TestCheckout_ExplicitCartItems() {
	w, env := s.do(http.MethodPost, "/api/checkout", map[string]interface{}{
		"cartItems":     []map[string]int{{"id": 1, "productId": 2, "qty": 3}},
		"customerName":  "Ada",
		"customerEmail": "ada@example.com",
	})
	s.Require().Equal(http.StatusOK, w.Code)

	var receipt struct {
		Total float64 `json:"total"`
	}
	s.decode(env.Data, &receipt)
	s.Equal(15.0, receipt.Total)
}

func (s *RouterSuite) TestGetOrders_Empty() {
	w, env := s.do(http.MethodGet, "/api/orders", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.JSONEq(`[]`, string(env.Data))
}

func (s *RouterSuite) TestCORSPreflight() {
	req := httptest.NewRequest(http.MethodOptions, "/api/cart", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", SessionHeader)

	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	s.Equal(http.StatusNoContent, w.Code)
	s.Equal("http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestSessionMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", SessionMiddleware(), func(c *gin.Context) { c.String(http.StatusOK, sessionID(c)) })

	tests := []struct {
		name   string
		target string
		header string
		want   string
	}{
		{"header wins", "/?session_id=q", "h", "h"},
		{"query fallback", "/?session_id=q", "", "q"},
		{"blank header", "/", "   ", cart.DefaultSession},
		{"default", "/", "", cart.DefaultSession},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.header != "" {
				req.Header.Set(SessionHeader, tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.want, w.Body.String())
			assert.Equal(t, tt.want, w.Header().Get(SessionHeader))
		})
	}
}

func TestRequestTimeout(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", RequestTimeout(50*time.Millisecond), func(c *gin.Context) {
		deadline, ok := c.Request.Context().Deadline()
		assert.True(t, ok)
		assert.WithinDuration(t, time.Now().Add(50*time.Millisecond), deadline, 50*time.Millisecond)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
