// Package router sets up all HTTP routes and middleware chains for the
// shopfront server. Reads are public; catalog writes and admin
// operations sit behind the admin bearer token.
package router

import (
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"

	"shopfront/internal/assets"
	"shopfront/internal/handlers"
	"shopfront/internal/middleware"
	"shopfront/internal/models"
)

// Options carries the optional collaborators of the router.
type Options struct {
	// Sessions authenticates admin requests. nil leaves writes open.
	Sessions middleware.SessionLookup
	// Limiter throttles checkout and login. nil disables throttling.
	Limiter *middleware.RateLimiter
	// ImageDir is served under /images/.
	ImageDir string
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(api *handlers.API, opts Options) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)

	r.Get("/health", healthHandler)
	r.Handle("/images/*", http.StripPrefix("/images/", imageServer(opts.ImageDir)))

	throttle := func(h http.HandlerFunc) http.Handler {
		if opts.Limiter == nil {
			return h
		}
		return opts.Limiter.Middleware(h)
	}
	requireAdmin := middleware.RequireAdmin(opts.Sessions)

	r.Route("/api", func(r chi.Router) {
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			writeNotFound(w)
		})

		// Public catalog reads.
		r.Get("/categories", api.ListCategories)
		r.Get("/products", api.ListProducts)
		r.Get("/products/{id}", api.GetProduct)

		r.Method(http.MethodPost, "/checkout", throttle(api.Checkout))
		r.Method(http.MethodPost, "/admin/login", throttle(api.Login))

		// Admin writes.
		r.Group(func(r chi.Router) {
			r.Use(requireAdmin)

			r.Post("/categories", api.CreateCategory)
			r.Put("/categories/{id}", api.RenameCategory)
			r.Delete("/categories/{id}", api.DeleteCategory)

			r.Post("/products", api.CreateProduct)
			r.Put("/products/{id}", api.UpdateProduct)
			r.Delete("/products/{id}", api.DeleteProduct)

			r.Post("/admin/logout", api.Logout)
			r.Post("/admin/reconcile", api.Reconcile)
		})
	})

	return r
}

// imageServer serves finalized product images. Directory listings and
// staged uploads are hidden. Canonical names are reused when an image is
// replaced, so clients revalidate on every use.
func imageServer(dir string) http.Handler {
	files := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Path
		base := path.Base(name)
		if name == "" || strings.HasSuffix(name, "/") || assets.IsTempName(base) {
			http.NotFound(w, r)
			return
		}
		if strings.HasPrefix(base, models.ThumbnailPrefix) {
			if ct := assets.ThumbnailType(base); ct != "" {
				w.Header().Set("Content-Type", ct)
			}
		}
		w.Header().Set("Cache-Control", "no-cache")
		files.ServeHTTP(w, r)
	})
}

func writeNotFound(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte(`{"error":"not found"}`))
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
