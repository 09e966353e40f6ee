// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package models holds the catalog domain types shared by the stores,
// the HTTP layer and the clients.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices travel as JSON numbers (12.5), not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Category is a named product grouping. Names are unique; ids grow in
// creation order.
type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"-"`
}
