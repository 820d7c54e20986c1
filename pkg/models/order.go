package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const OrderStatusCompleted = "completed"

// Order is written once per successful checkout and never modified.
type Order struct {
	OrderID       string          `json:"orderId"`
	CustomerName  string          `json:"customerName"`
	CustomerEmail string          `json:"customerEmail"`
	Total         decimal.Decimal `json:"total"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// OrderLineItem snapshots one cart entry at checkout time. Name and price are
// copied, not referenced, so later catalog changes do not alter history.
type OrderLineItem struct {
	OrderID     string          `json:"orderId"`
	ProductID   int             `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type ReceiptItem struct {
	ProductID   int             `json:"productId"`
	ProductName string          `json:"productName"`
	Qty         int             `json:"qty"`
	Price       decimal.Decimal `json:"price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// Receipt is derived from a completed checkout and returned to the caller.
// It is not stored.
type Receipt struct {
	OrderID       string          `json:"orderId"`
	Timestamp     time.Time       `json:"timestamp"`
	CustomerName  string          `json:"customerName"`
	CustomerEmail string          `json:"customerEmail"`
	Items         []ReceiptItem   `json:"items"`
	Total         decimal.Decimal `json:"total"`
	Currency      string          `json:"currency,omitempty"`
	Status        string          `json:"status"`
}

// OrderSummary is the read model for GET /api/orders.
type OrderSummary struct {
	OrderID       string          `json:"orderId"`
	CustomerName  string          `json:"customerName"`
	CustomerEmail string          `json:"customerEmail"`
	Total         decimal.Decimal `json:"total"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"createdAt"`
	Items         string          `json:"items"`
}

type CheckoutRequest struct {
	CartItems     []CartEntry `json:"cartItems"`
	CustomerName  string      `json:"customerName"`
	CustomerEmail string      `json:"customerEmail"`
}

// SummarizeItems renders line items as "Product A x2, Product B x1".
func SummarizeItems(items []OrderLineItem) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, fmt.Sprintf("%s x%d", item.ProductName, item.Quantity))
	}
	return strings.Join(parts, ", ")
}

// GenerateOrderID returns an ID of the form ORD-<epochMillis>-<suffix>. The
// random suffix keeps IDs distinct when two checkouts land in the same
// millisecond.
func GenerateOrderID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("ORD-%d-%s", now.UnixMilli(), suffix)
}
