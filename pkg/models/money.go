package models

import "github.com/shopspring/decimal"

func init() {
	// Prices and totals go over the wire as JSON numbers, matching what the
	// storefront client expects.
	decimal.MarshalJSONWithoutQuotes = true
}

// RoundMoney rounds an amount to cents.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
