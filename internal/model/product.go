package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices travel as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Product represents a product in the catalogue.
type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description *string         `json:"description"`
	Price       decimal.Decimal `json:"price"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Payload is an inbound product body decoded one level deep, so that the
// validation layer can see exactly which keys the caller supplied.
type Payload map[string]json.RawMessage

// ProductFields holds validated, mutable product attributes. A nil field
// was not supplied by the caller.
type ProductFields struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
}

// Empty reports whether no field was supplied.
func (f ProductFields) Empty() bool {
	return f.Name == nil && f.Description == nil && f.Price == nil
}

// Apply returns a copy of p with the supplied fields overwritten.
// ID and CreatedAt are never touched.
func (f ProductFields) Apply(p Product) Product {
	if f.Name != nil {
		p.Name = *f.Name
	}
	if f.Description != nil {
		desc := *f.Description
		p.Description = &desc
	}
	if f.Price != nil {
		p.Price = *f.Price
	}
	return p
}

// DeleteResponse is returned after a product is removed.
type DeleteResponse struct {
	Message string `json:"message"`
	ID      int64  `json:"id"`
	Name    string `json:"name"`
}

// PriceToCents converts a validated price to integer cents for storage.
func PriceToCents(price decimal.Decimal) int64 {
	return price.Shift(2).Round(0).IntPart()
}

// PriceFromCents converts stored cents back to a price.
func PriceFromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}
