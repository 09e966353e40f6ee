package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"shopfront/internal/catalog"
)

// maxJSONBody caps JSON request bodies.
const maxJSONBody = 1 << 20

// changesResponse reports how many rows a write touched.
type changesResponse struct {
	Changes int64 `json:"changes"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps a catalog error onto the HTTP status table.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusBadRequest
	if catalog.KindOf(err) == catalog.KindProcessing {
		status = http.StatusInternalServerError
	}
	slog.Warn("request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"kind", catalog.KindOf(err).String(),
		"error", err,
	)
	writeError(w, status, err.Error())
}

// readJSON decodes a bounded JSON body into dst, rejecting unknown fields
// and trailing data.
func readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return errors.New("request body too large")
		case errors.Is(err, io.EOF):
			return errors.New("request body is empty")
		default:
			return errors.New("invalid JSON body")
		}
	}
	if dec.More() {
		return errors.New("invalid JSON body")
	}
	return nil
}

// idParam parses the {id} URL parameter.
func idParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
