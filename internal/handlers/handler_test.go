// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for the handler
// tests. The catalog runs on the in-memory store and a temp image dir.
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"shopfront/internal/assets"
	"shopfront/internal/catalog"
	"shopfront/internal/models"
	"shopfront/internal/session"
	"shopfront/internal/store"
)

type testEnv struct {
	api    *API
	router chi.Router
	mem    *store.Memory
	dir    string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWith(t, nil, nil, "")
}

func newTestEnvWith(t *testing.T, orders OrderPublisher, sessions SessionStore, hash string) *testEnv {
	t.Helper()

	dir := t.TempDir()
	pipeline, err := assets.New(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	mem := store.NewMemory()
	svc := catalog.NewService(mem.Categories(), mem.Products(), pipeline, nil)
	api := New(svc, orders, sessions, hash)

	r := chi.NewRouter()
	r.Get("/api/categories", api.ListCategories)
	r.Post("/api/categories", api.CreateCategory)
	r.Put("/api/categories/{id}", api.RenameCategory)
	r.Delete("/api/categories/{id}", api.DeleteCategory)
	r.Get("/api/products", api.ListProducts)
	r.Get("/api/products/{id}", api.GetProduct)
	r.Post("/api/products", api.CreateProduct)
	r.Put("/api/products/{id}", api.UpdateProduct)
	r.Delete("/api/products/{id}", api.DeleteProduct)
	r.Post("/api/checkout", api.Checkout)
	r.Post("/api/admin/login", api.Login)
	r.Post("/api/admin/logout", api.Logout)
	r.Post("/api/admin/reconcile", api.Reconcile)

	return &testEnv{api: api, router: r, mem: mem, dir: dir}
}

// do sends a request and returns the recorder.
func (e *testEnv) do(t *testing.T, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func (e *testEnv) doJSON(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = bytes.NewBufferString(body)
	}
	return e.do(t, method, path, r, "application/json")
}

// createCategory creates a category through the API and returns its id.
func (e *testEnv) createCategory(t *testing.T, name string) int64 {
	t.Helper()
	rr := e.doJSON(t, "POST", "/api/categories", `{"name":"`+name+`"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("create category: %d %s", rr.Code, rr.Body.String())
	}
	var c models.Category
	decode(t, rr, &c)
	return c.ID
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
}

func errorMessage(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	decode(t, rr, &body)
	return body["error"]
}

// productForm builds a multipart body. A nil image omits the file part.
func productForm(t *testing.T, fields map[string]string, filename string, img []byte) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if img != nil {
		fw, err := mw.CreateFormFile("image", filename)
		if err != nil {
			t.Fatal(err)
		}
		fw.Write(img)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h)), nil); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// fakeOrders records published orders.
type fakeOrders struct {
	mu     sync.Mutex
	orders []*models.Order
	err    error
}

func (f *fakeOrders) Publish(_ context.Context, o *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.orders = append(f.orders, o)
	return nil
}

// fakeSessions is an in-memory SessionStore.
type fakeSessions struct {
	mu      sync.Mutex
	created []*session.Data
	revoked []string
	err     error
}

func (f *fakeSessions) Create(_ context.Context, d *session.Data) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.created = append(f.created, d)
	return "token-1", nil
}

func (f *fakeSessions) Destroy(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked = append(f.revoked, token)
	return nil
}

func (f *fakeSessions) TTL() time.Duration { return time.Hour }

var errTestStore = errors.New("connection refused")

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 40, 30))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// multiImageForm builds a multipart body carrying several image parts.
func multiImageForm(t *testing.T, fields map[string]string, images ...[]byte) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	for i, img := range images {
		fw, err := mw.CreateFormFile("image", "img"+strconv.Itoa(i)+".jpg")
		if err != nil {
			t.Fatal(err)
		}
		fw.Write(img)
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}
