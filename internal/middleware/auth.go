// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"shopfront/internal/session"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

const (
	// SessionKey is the context key for the admin session data.
	SessionKey contextKey = "session"
)

// SessionLookup resolves a bearer token into session data. It returns
// nil, nil for unknown tokens.
type SessionLookup interface {
	Get(ctx context.Context, token string) (*session.Data, error)
}

// RequireAdmin rejects requests without a valid admin bearer token with
// 401. A nil lookup disables authentication and every request passes.
func RequireAdmin(sessions SessionLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if sessions == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := session.TokenFromRequest(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			data, err := sessions.Get(r.Context(), token)
			if err != nil {
				slog.Error("session lookup failed", "error", err)
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			if data == nil {
				writeError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), SessionKey, data)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFromCtx extracts the session data from the request context.
// Returns nil if the request was not authenticated.
func SessionFromCtx(ctx context.Context) *session.Data {
	data, _ := ctx.Value(SessionKey).(*session.Data)
	return data
}
