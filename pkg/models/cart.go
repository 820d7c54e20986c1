package models

import (
	"math"

	"github.com/shopspring/decimal"
)

// CartEntry is one line of a cart. A cart holds at most one entry per
// product; adding the same product again increases Qty.
type CartEntry struct {
	ID        int `json:"id"`
	ProductID int `json:"productId"`
	Qty       int `json:"qty"`
}

// Cart is the persisted state of one session's cart. NextID is the ID the
// next new entry receives; it only moves forward until the cart is cleared.
type Cart struct {
	SessionID string      `json:"session_id"`
	Entries   []CartEntry `json:"entries"`
	NextID    int         `json:"next_id"`
}

func NewCart(sessionID string) *Cart {
	return &Cart{SessionID: sessionID, Entries: []CartEntry{}, NextID: 1}
}

// Add merges qty of productID into the cart and returns the affected entry.
// It reports false and leaves the cart untouched when the cart's total
// quantity would no longer fit in an int.
func (c *Cart) Add(productID, qty int) (CartEntry, bool) {
	if qty < 1 || qty > math.MaxInt-c.Quantity() {
		return CartEntry{}, false
	}
	for i := range c.Entries {
		if c.Entries[i].ProductID == productID {
			c.Entries[i].Qty += qty
			return c.Entries[i], true
		}
	}
	if c.NextID < 1 {
		c.NextID = 1
	}
	entry := CartEntry{ID: c.NextID, ProductID: productID, Qty: qty}
	c.NextID++
	c.Entries = append(c.Entries, entry)
	return entry, true
}

// Quantity is the sum of Qty over all entries.
func (c *Cart) Quantity() int {
	n := 0
	for _, entry := range c.Entries {
		n += entry.Qty
	}
	return n
}

// Remove deletes the entry with the given ID. It reports false when no such
// entry exists, leaving the cart untouched.
func (c *Cart) Remove(entryID int) bool {
	for i := range c.Entries {
		if c.Entries[i].ID == entryID {
			c.Entries = append(c.Entries[:i], c.Entries[i+1:]...)
			return true
		}
	}
	return false
}

// Snapshot returns a copy of the entries safe to hand out to callers.
func (c *Cart) Snapshot() []CartEntry {
	out := make([]CartEntry, len(c.Entries))
	copy(out, c.Entries)
	return out
}

// CartView is the read model returned by GET /api/cart.
type CartView struct {
	Items     []CartEntry     `json:"items"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"itemCount"`
}

type AddToCartRequest struct {
	ProductID int  `json:"productId"`
	Qty       *int `json:"qty"`
}
