package models

import "julianmorley.ca/con-plar/storefront/pkg/global"

// ErrProductNotFound is returned by every catalog lookup that misses.
var ErrProductNotFound = global.NotFound("Product not found")
