package models

import (
	"github.com/shopspring/decimal"
)

// Product represents an item in the catalog. Products are immutable after
// seeding; carts and order line items reference them by ID.
type Product struct {
	ID       int             `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Image    string          `json:"image"`
	Category string          `json:"category"`
}

// ProductIndex maps product IDs to products for lookups during pricing.
type ProductIndex map[int]Product

func IndexProducts(products []Product) ProductIndex {
	index := make(ProductIndex, len(products))
	for _, p := range products {
		index[p.ID] = p
	}
	return index
}

func (idx ProductIndex) Lookup(id int) (Product, bool) {
	p, ok := idx[id]
	return p, ok
}

const unsplash = "https://images.unsplash.com/"

// StarterProducts is the catalog seeded into an empty store.
func StarterProducts() []Product {
	return []Product{
		{ID: 1, Name: "Wireless Headphones", Price: decimal.RequireFromString("79.99"), Image: unsplash + "photo-1505740420928-5e560c06d30e?w=300&h=300&fit=crop", Category: "Audio"},
		{ID: 2, Name: "Smart Watch", Price: decimal.RequireFromString("199.99"), Image: unsplash + "photo-1523275335684-37898b6baf30?w=300&h=300&fit=crop", Category: "Wearables"},
		{ID: 3, Name: "USB-C Cable", Price: decimal.RequireFromString("12.99"), Image: unsplash + "photo-1625948515291-69613efd103f?w=300&h=300&fit=crop", Category: "Accessories"},
		{ID: 4, Name: "Phone Stand", Price: decimal.RequireFromString("24.99"), Image: unsplash + "photo-1527864550417-7fd91fc51a46?w=300&h=300&fit=crop", Category: "Accessories"},
		{ID: 5, Name: "Portable Charger", Price: decimal.RequireFromString("49.99"), Image: unsplash + "photo-1609091839311-d5365f9ff1c5?w=300&h=300&fit=crop", Category: "Power"},
		{ID: 6, Name: "Bluetooth Speaker", Price: decimal.RequireFromString("89.99"), Image: unsplash + "photo-1608043152269-423dbba4e7e1?w=300&h=300&fit=crop", Category: "Audio"},
		{ID: 7, Name: "Screen Protector", Price: decimal.RequireFromString("9.99"), Image: unsplash + "photo-1598327105666-5b89351aff97?w=300&h=300&fit=crop", Category: "Protection"},
		{ID: 8, Name: "Phone Case", Price: decimal.RequireFromString("19.99"), Image: unsplash + "photo-1592286927505-1def25115558?w=300&h=300&fit=crop", Category: "Protection"},
	}
}
