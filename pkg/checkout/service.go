// Package checkout turns a cart into a persisted order and a receipt.
package checkout

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"julianmorley.ca/con-plar/storefront/pkg/events"
	"julianmorley.ca/con-plar/storefront/pkg/global"
	"julianmorley.ca/con-plar/storefront/pkg/models"
	"julianmorley.ca/con-plar/storefront/pkg/pricing"
)

var (
	ErrEmptyCart           = global.Validation("Cart is empty")
	ErrMissingCustomerInfo = global.Validation("Customer name and email required")
	ErrInvalidItem         = global.Validation("Invalid productId or quantity in cart")
)

type Catalog interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
}

// Ledger stores an order together with its line items.
type Ledger interface {
	Record(ctx context.Context, order models.Order, items []models.OrderLineItem) error
}

type Cart interface {
	Entries(ctx context.Context, sessionID string) ([]models.CartEntry, error)
	Clear(ctx context.Context, sessionID string) error
}

type Request struct {
	SessionID     string
	Items         []models.CartEntry
	CustomerName  string
	CustomerEmail string
}

type Options struct {
	// StrictPricing rejects a checkout whose cart references products the
	// catalog no longer has, instead of silently dropping them.
	StrictPricing bool
	Currency      string
	Now           func() time.Time
	NewOrderID    func(time.Time) string
	Logger        *slog.Logger
}

type Service struct {
	catalog   Catalog
	ledger    Ledger
	cart      Cart
	publisher events.Publisher

	strict   bool
	currency string
	now      func() time.Time
	newID    func(time.Time) string
	log      *slog.Logger
}

func NewService(catalog Catalog, ledger Ledger, cart Cart, publisher events.Publisher, opts Options) *Service {
	s := &Service{
		catalog:   catalog,
		ledger:    ledger,
		cart:      cart,
		publisher: publisher,
		strict:    opts.StrictPricing,
		currency:  opts.Currency,
		now:       opts.Now,
		newID:     opts.NewOrderID,
		log:       opts.Logger,
	}
	if s.publisher == nil {
		s.publisher = events.Noop{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = models.GenerateOrderID
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	return s
}

// Checkout validates the request, writes the order and its line items, then
// clears the session cart. Nothing is written and the cart is untouched when
// validation fails.
func (s *Service) Checkout(ctx context.Context, req Request) (*models.Receipt, error) {
	run := &attempt{log: s.log, session: req.SessionID, state: StateValidating}

	entries := req.Items
	if len(entries) == 0 && req.SessionID != "" {
		stored, err := s.cart.Entries(ctx, req.SessionID)
		if err != nil {
			return nil, err
		}
		entries = stored
	}

	name := strings.TrimSpace(req.CustomerName)
	email := strings.TrimSpace(req.CustomerEmail)

	switch {
	case len(entries) == 0:
		return nil, run.reject(ctx, ErrEmptyCart)
	case name == "" || email == "":
		return nil, run.reject(ctx, ErrMissingCustomerInfo)
	}
	for _, entry := range entries {
		if entry.ProductID < 1 || entry.Qty < 1 {
			return nil, run.reject(ctx, ErrInvalidItem)
		}
	}

	products, err := s.catalog.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	quote := pricing.Calculate(entries, models.IndexProducts(products))
	if quote.HasMissing() {
		if s.strict {
			return nil, run.reject(ctx, models.ErrProductNotFound)
		}
		s.log.WarnContext(ctx, "checkout skipped products missing from catalog",
			"session", req.SessionID, "product_ids", quote.Missing)
	}

	run.advance(ctx, StatePersisting)
	now := s.now().UTC()
	order := models.Order{
		OrderID:       s.newID(now),
		CustomerName:  name,
		CustomerEmail: email,
		Total:         quote.Total,
		Status:        models.OrderStatusCompleted,
		CreatedAt:     now,
	}
	items := lineItems(order.OrderID, quote)

	if err := s.ledger.Record(ctx, order, items); err != nil {
		s.log.ErrorContext(ctx, "failed to record order", "order_id", order.OrderID, "error", err)
		return nil, err
	}

	run.advance(ctx, StateCompleted)
	receipt := buildReceipt(order, quote, s.currency)

	if req.SessionID != "" {
		if err := s.cart.Clear(ctx, req.SessionID); err != nil {
			// The order is already committed; report success and leave the
			// stale cart for the client to clear.
			s.log.ErrorContext(ctx, "failed to clear cart after checkout",
				"session", req.SessionID, "order_id", order.OrderID, "error", err)
		}
	}

	if err := s.publisher.OrderCompleted(ctx, receipt); err != nil {
		s.log.WarnContext(ctx, "failed to publish order event", "order_id", order.OrderID, "error", err)
	}

	s.log.InfoContext(ctx, "checkout completed",
		"order_id", order.OrderID, "items", len(items), "total", order.Total.StringFixed(2))
	return &receipt, nil
}

func lineItems(orderID string, quote pricing.Quote) []models.OrderLineItem {
	items := make([]models.OrderLineItem, 0, len(quote.Lines))
	for _, line := range quote.Lines {
		items = append(items, models.OrderLineItem{
			OrderID:     orderID,
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Quantity:    line.Qty,
			UnitPrice:   line.UnitPrice,
			Subtotal:    line.Subtotal,
		})
	}
	return items
}

func buildReceipt(order models.Order, quote pricing.Quote, currency string) models.Receipt {
	items := make([]models.ReceiptItem, 0, len(quote.Lines))
	for _, line := range quote.Lines {
		items = append(items, models.ReceiptItem{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Qty:         line.Qty,
			Price:       line.UnitPrice,
			Subtotal:    line.Subtotal,
		})
	}
	return models.Receipt{
		OrderID:       order.OrderID,
		Timestamp:     order.CreatedAt,
		CustomerName:  order.CustomerName,
		CustomerEmail: order.CustomerEmail,
		Items:         items,
		Total:         order.Total,
		Currency:      currency,
		Status:        order.Status,
	}
}
