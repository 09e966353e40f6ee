// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the JSON HTTP handlers of the catalog API.
// Handlers decode requests, call the catalog service and encode the
// result; business rules live in the catalog package.
package handlers

import (
	"context"
	"time"

	"shopfront/internal/catalog"
	"shopfront/internal/models"
	"shopfront/internal/session"
)

// OrderPublisher hands accepted orders to fulfilment.
type OrderPublisher interface {
	Publish(ctx context.Context, order *models.Order) error
}

// SessionStore issues and revokes admin bearer tokens.
type SessionStore interface {
	Create(ctx context.Context, data *session.Data) (string, error)
	Destroy(ctx context.Context, token string) error
	TTL() time.Duration
}

// API groups the catalog, checkout and admin handlers.
type API struct {
	catalog      *catalog.Service
	orders       OrderPublisher
	sessions     SessionStore
	passwordHash []byte
}

// New creates the API handler group. orders may be nil, in which case
// accepted orders are only logged. sessions and passwordHash may be
// empty when admin authentication is disabled.
func New(svc *catalog.Service, orders OrderPublisher, sessions SessionStore, passwordHash string) *API {
	return &API{
		catalog:      svc,
		orders:       orders,
		sessions:     sessions,
		passwordHash: []byte(passwordHash),
	}
}
