// Package pricing turns cart entries and the catalog into priced lines and a
// total. Each line subtotal is rounded to cents and the total is the exact
// sum of those subtotals.
package pricing

import (
	"github.com/shopspring/decimal"

	"julianmorley.ca/con-plar/storefront/pkg/models"
)

type Line struct {
	EntryID     int
	ProductID   int
	ProductName string
	Qty         int
	UnitPrice   decimal.Decimal
	Subtotal    decimal.Decimal
}

// Quote is the result of pricing a cart. Missing lists product IDs that did
// not resolve in the catalog; they contribute nothing to Total.
type Quote struct {
	Lines   []Line
	Total   decimal.Decimal
	Missing []int
}

func (q Quote) HasMissing() bool {
	return len(q.Missing) > 0
}

func Calculate(entries []models.CartEntry, products models.ProductIndex) Quote {
	quote := Quote{Lines: make([]Line, 0, len(entries)), Total: decimal.Zero}

	sum := decimal.Zero
	for _, entry := range entries {
		product, ok := products.Lookup(entry.ProductID)
		if !ok {
			quote.Missing = append(quote.Missing, entry.ProductID)
			continue
		}
		subtotal := models.RoundMoney(product.Price.Mul(decimal.NewFromInt(int64(entry.Qty))))
		quote.Lines = append(quote.Lines, Line{
			EntryID:     entry.ID,
			ProductID:   product.ID,
			ProductName: product.Name,
			Qty:         entry.Qty,
			UnitPrice:   product.Price,
			Subtotal:    subtotal,
		})
		sum = sum.Add(subtotal)
	}

	quote.Total = sum
	return quote
}

// Total is shorthand for Calculate(...).Total.
func Total(entries []models.CartEntry, products models.ProductIndex) decimal.Decimal {
	return Calculate(entries, products).Total
}

func ItemCount(entries []models.CartEntry) int {
	n := 0
	for _, entry := range entries {
		n += entry.Qty
	}
	return n
}
