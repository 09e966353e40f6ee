// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is the only currency the storefront prices in.
const DefaultCurrency = "USD"

// OrderLine is one cart line as submitted at checkout. Price is the
// client-side snapshot taken when the line was added.
type OrderLine struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Qty       int             `json:"qty"`
}

// Subtotal returns price times quantity.
func (l OrderLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Qty)))
}

// Order is a checkout submission. TransactionID is assigned by the server.
type Order struct {
	TransactionID string          `json:"transaction_id,omitempty"`
	Items         []OrderLine     `json:"items"`
	Total         decimal.Decimal `json:"total"`
	Currency      string          `json:"currency"`
	Timestamp     time.Time       `json:"timestamp"`
	ReceivedAt    time.Time       `json:"received_at,omitzero"`
}

// Sum returns the total of all line subtotals.
func (o *Order) Sum() decimal.Decimal {
	total := decimal.Zero
	for _, l := range o.Items {
		total = total.Add(l.Subtotal())
	}
	return total
}
