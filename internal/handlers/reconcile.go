package handlers

import (
	"net/http"
	"strconv"
)

// defaultReconcileLimit bounds one on-demand reconciliation pass.
const defaultReconcileLimit = 100

// Reconcile handles POST /api/admin/reconcile?limit=N.
func (a *API) Reconcile(w http.ResponseWriter, r *http.Request) {
	limit := defaultReconcileLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	report, err := a.catalog.Reconcile(r.Context(), limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
