package handlers

import (
	"net/http"
	"strings"
)

type categoryRequest struct {
	Name string `json:"name"`
}

// ListCategories handles GET /api/categories.
func (a *API) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := a.catalog.ListCategories(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

// CreateCategory handles POST /api/categories.
func (a *API) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := validateCategoryName(req.Name); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	c, err := a.catalog.CreateCategory(r.Context(), strings.TrimSpace(req.Name))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// RenameCategory handles PUT /api/categories/{id}.
func (a *API) RenameCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeJSON(w, http.StatusOK, changesResponse{})
		return
	}

	var req categoryRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := validateCategoryName(req.Name); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	n, err := a.catalog.RenameCategory(r.Context(), id, strings.TrimSpace(req.Name))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, changesResponse{Changes: n})
}

// DeleteCategory handles DELETE /api/categories/{id}.
func (a *API) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeJSON(w, http.StatusOK, changesResponse{})
		return
	}

	n, err := a.catalog.DeleteCategory(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, changesResponse{Changes: n})
}
