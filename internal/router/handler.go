package router

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"julianmorley.ca/con-plar/storefront/pkg/checkout"
	"julianmorley.ca/con-plar/storefront/pkg/global"
	"julianmorley.ca/con-plar/storefront/pkg/models"
)

type ProductLister interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
}

type CartService interface {
	AddToCart(ctx context.Context, sessionID string, productID, qty int) ([]models.CartEntry, error)
	RemoveFromCart(ctx context.Context, sessionID string, entryID int) ([]models.CartEntry, error)
	ListCart(ctx context.Context, sessionID string) (models.CartView, error)
}

type CheckoutService interface {
	Checkout(ctx context.Context, req checkout.Request) (*models.Receipt, error)
}

type OrderLister interface {
	ListOrders(ctx context.Context) ([]models.OrderSummary, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	products ProductLister
	carts    CartService
	checkout CheckoutService
	orders   OrderLister
	health   Pinger
	log      *slog.Logger
}

type Deps struct {
	Products ProductLister
	Carts    CartService
	Checkout CheckoutService
	Orders   OrderLister
	Health   Pinger
	Logger   *slog.Logger
}

func NewHandler(d Deps) *Handler {
	log := d.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		products: d.Products,
		carts:    d.Carts,
		checkout: d.Checkout,
		orders:   d.Orders,
		health:   d.Health,
		log:      log,
	}
}

// respondError writes the standard error envelope. Storage failures are
// logged with their cause, which never reaches the client.
func (h *Handler) respondError(c *gin.Context, err error) {
	status := global.StatusCode(err)
	if status >= http.StatusInternalServerError {
		h.log.ErrorContext(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
	}
	_ = c.Error(err)
	c.JSON(status, global.ErrorResponse(global.Message(err), nil))
}

func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, global.ErrorResponse("Invalid JSON format", []global.FieldError{
		{Field: "body", Message: err.Error(), Code: "json_parse_error"},
	}))
}

func (h *Handler) HealthCheck(c *gin.Context) {
	if err := h.health.Ping(c.Request.Context()); err != nil {
		h.log.WarnContext(c.Request.Context(), "health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) GetAllProducts(c *gin.Context) {
	products, err := h.products.ListProducts(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	if products == nil {
		products = []models.Product{}
	}
	c.JSON(http.StatusOK, global.SuccessResponse(products))
}

func (h *Handler) GetCart(c *gin.Context) {
	view, err := h.carts.ListCart(c.Request.Context(), sessionID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(view))
}

// AddToCart takes {"productId", "qty"}; qty defaults to 1 when omitted.
func (h *Handler) AddToCart(c *gin.Context) {
	var req models.AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	qty := 1
	if req.Qty != nil {
		qty = *req.Qty
	}

	entries, err := h.carts.AddToCart(c.Request.Context(), sessionID(c), req.ProductID, qty)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(entries))
}

func (h *Handler) RemoveFromCart(c *gin.Context) {
	entryID, err := strconv.Atoi(c.Param("id"))
	if err != nil || entryID < 1 {
		c.JSON(http.StatusBadRequest, global.ErrorResponse("Invalid cart item id", []global.FieldError{
			{Field: "id", Message: "id must be a positive integer", Code: "invalid_format"},
		}))
		return
	}

	entries, err := h.carts.RemoveFromCart(c.Request.Context(), sessionID(c), entryID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(entries))
}

func (h *Handler) Checkout(c *gin.Context) {
	var req models.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	receipt, err := h.checkout.Checkout(c.Request.Context(), checkout.Request{
		SessionID:     sessionID(c),
		Items:         req.CartItems,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(receipt))
}

func (h *Handler) GetAllOrders(c *gin.Context) {
	orders, err := h.orders.ListOrders(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	if orders == nil {
		orders = []models.OrderSummary{}
	}
	c.JSON(http.StatusOK, global.SuccessResponse(orders))
}
