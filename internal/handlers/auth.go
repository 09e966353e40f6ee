// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"

	"shopfront/internal/middleware"
	"shopfront/internal/session"
)

// adminSubject is the session subject of the single admin identity.
const adminSubject = "admin"

type loginRequest struct {
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in,omitempty"`
}

// Login handles POST /api/admin/login. A correct password yields a bearer
// token for the admin routes.
func (a *API) Login(w http.ResponseWriter, r *http.Request) {
	if a.sessions == nil || len(a.passwordHash) == 0 {
		writeError(w, http.StatusNotFound, "admin authentication is not enabled")
		return
	}

	var req loginRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(req.Password)); err != nil {
		slog.Warn("admin login failed", "remote", r.RemoteAddr)
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := a.sessions.Create(r.Context(), &session.Data{
		Subject:  adminSubject,
		RemoteIP: r.RemoteAddr,
	})
	if err != nil {
		slog.Error("create admin session", "error", err)
		writeError(w, http.StatusInternalServerError, "could not create session")
		return
	}

	resp := loginResponse{Token: token, ExpiresIn: int64(a.sessions.TTL() / time.Second)}

	slog.Info("admin logged in", "remote", r.RemoteAddr)
	writeJSON(w, http.StatusOK, resp)
}

// Logout handles POST /api/admin/logout and revokes the presented token.
func (a *API) Logout(w http.ResponseWriter, r *http.Request) {
	if a.sessions != nil && middleware.SessionFromCtx(r.Context()) != nil {
		if err := a.sessions.Destroy(r.Context(), session.TokenFromRequest(r)); err != nil {
			slog.Error("destroy admin session", "error", err)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}
