// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"shopfront/internal/assets"
	"shopfront/internal/catalog"
	"shopfront/internal/markdown"
	"shopfront/internal/models"
)

const (
	// maxMultipartBody leaves room for the form fields around the image.
	maxMultipartBody = assets.MaxUploadSize + 1<<20

	// multipartMemory is kept in memory; larger parts spill to temp files.
	multipartMemory = 1 << 20
)

// productResponse is the JSON shape of a product, with the derived
// thumbnail name and rendered description.
type productResponse struct {
	models.Product
	Thumbnail       string `json:"thumbnail"`
	DescriptionHTML string `json:"description_html"`
}

func newProductResponse(p *models.Product) productResponse {
	html, err := markdown.ToHTML(p.Description)
	if err != nil {
		slog.Warn("render product description", "product_id", p.ID, "error", err)
	}
	return productResponse{Product: *p, Thumbnail: p.Thumbnail(), DescriptionHTML: html}
}

type createProductResponse struct {
	ID    int64  `json:"id"`
	Image string `json:"image"`
}

// ListProducts handles GET /api/products, optionally filtered by ?catid=.
func (a *API) ListProducts(w http.ResponseWriter, r *http.Request) {
	var categoryID *int64
	if raw := r.URL.Query().Get("catid"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "catid must be an integer")
			return
		}
		categoryID = &id
	}

	products, err := a.catalog.ListProducts(r.Context(), categoryID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]productResponse, len(products))
	for i := range products {
		out[i] = newProductResponse(&products[i])
	}
	writeJSON(w, http.StatusOK, out)
}

// GetProduct handles GET /api/products/{id}. A missing product is a 200
// with a null body.
func (a *API) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeJSON(w, http.StatusOK, nil)
		return
	}

	p, err := a.catalog.GetProduct(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if p == nil {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	writeJSON(w, http.StatusOK, newProductResponse(p))
}

// CreateProduct handles the multipart POST /api/products. The image is
// required.
func (a *API) CreateProduct(w http.ResponseWriter, r *http.Request) {
	in, up, cleanup, err := parseProductForm(w, r)
	defer cleanup()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := a.catalog.CreateProduct(r.Context(), in, up)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	slog.Info("product created", "product_id", p.ID, "image", p.Image, "image_status", p.ImageStatus)
	writeJSON(w, http.StatusOK, createProductResponse{ID: p.ID, Image: p.Image})
}

// UpdateProduct handles the multipart PUT /api/products/{id}. The image
// is optional.
func (a *API) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	in, up, cleanup, err := parseProductForm(w, r)
	defer cleanup()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, ok := idParam(r)
	if !ok {
		if err := in.Validate(); err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, changesResponse{})
		return
	}

	n, err := a.catalog.UpdateProduct(r.Context(), id, in, up)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, changesResponse{Changes: n})
}

// DeleteProduct handles DELETE /api/products/{id}.
func (a *API) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeJSON(w, http.StatusOK, changesResponse{})
		return
	}

	n, err := a.catalog.DeleteProduct(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, changesResponse{Changes: n})
}

// parseProductForm reads the product fields and the optional image from
// a multipart body. The returned cleanup must always be called.
func parseProductForm(w http.ResponseWriter, r *http.Request) (catalog.ProductInput, *assets.Upload, func(), error) {
	var in catalog.ProductInput
	cleanup := func() {}

	r.Body = http.MaxBytesReader(w, r.Body, maxMultipartBody)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return in, nil, cleanup, fmt.Errorf("image exceeds %d MiB", assets.MaxUploadSize>>20)
		}
		return in, nil, cleanup, errors.New("expected a multipart/form-data body")
	}

	var opened multipart.File
	cleanup = func() {
		if opened != nil {
			opened.Close()
		}
		r.MultipartForm.RemoveAll()
	}

	form := r.MultipartForm.Value
	field := func(name string) string {
		if v := form[name]; len(v) > 0 {
			return v[0]
		}
		return ""
	}

	in.Name = field("name")
	in.Description = field("description")

	var err error
	if in.CategoryID, err = parseCategoryID(field("catid")); err != nil {
		return in, nil, cleanup, err
	}
	if in.Price, err = parsePrice(field("price")); err != nil {
		return in, nil, cleanup, err
	}

	files := r.MultipartForm.File["image"]
	switch len(files) {
	case 0:
		return in, nil, cleanup, nil
	case 1:
	default:
		return in, nil, cleanup, errors.New("only one image may be uploaded")
	}

	fh := files[0]
	opened, err = fh.Open()
	if err != nil {
		return in, nil, cleanup, fmt.Errorf("read image: %w", err)
	}
	return in, &assets.Upload{Filename: fh.Filename, Size: fh.Size, Content: opened}, cleanup, nil
}

// parseCategoryID parses the catid field; empty is left to the catalog
// validation so the message is consistent.
func parseCategoryID(raw string) (int64, error) {
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errors.New("catid must be an integer")
	}
	return id, nil
}

func parsePrice(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, errors.New("price is required")
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, errors.New("price must be a number")
	}
	return d, nil
}
