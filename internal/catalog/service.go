// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package catalog implements the catalog operations behind the HTTP API:
// category and product CRUD, the product image write sequence, read
// caching and the reconciliation of interrupted image writes.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"shopfront/internal/assets"
	"shopfront/internal/cache"
	"shopfront/internal/models"
	"shopfront/internal/store"
)

// CategoryRepository persists categories.
type CategoryRepository interface {
	List(ctx context.Context) ([]models.Category, error)
	FindByID(ctx context.Context, id int64) (*models.Category, error)
	Create(ctx context.Context, name string) (*models.Category, error)
	Rename(ctx context.Context, id int64, name string) (int64, error)
	Delete(ctx context.Context, id int64) (int64, error)
}

// ProductRepository persists products.
type ProductRepository interface {
	List(ctx context.Context, categoryID *int64) ([]models.Product, error)
	FindByID(ctx context.Context, id int64) (*models.Product, error)
	Create(ctx context.Context, p *models.Product) (*models.Product, error)
	Update(ctx context.Context, p *models.Product) (int64, error)
	UpdateWithImage(ctx context.Context, p *models.Product) (int64, error)
	SetImage(ctx context.Context, id int64, image string, status models.ImageStatus) (int64, error)
	Delete(ctx context.Context, id int64) (*models.Product, error)
	ListPendingImages(ctx context.Context, limit int) ([]models.Product, error)
}

// Cache is a read-through cache for catalog reads.
type Cache interface {
	Get(ctx context.Context, key string, dst any) bool
	Set(ctx context.Context, key string, v any)
	Invalidate(ctx context.Context)
}

// ProductInput holds the editable product fields.
type ProductInput struct {
	CategoryID  int64
	Name        string
	Price       decimal.Decimal
	Description string
}

// Validate checks the fields every product write requires.
func (in *ProductInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	switch {
	case in.Name == "":
		return validationf("name is required")
	case in.CategoryID <= 0:
		return validationf("catid is required")
	case in.Price.IsNegative():
		return validationf("price must not be negative")
	case !in.Price.Equal(in.Price.Round(2)):
		return validationf("price must have at most 2 decimal places")
	case in.Price.GreaterThanOrEqual(maxPrice):
		return validationf("price must be less than %s", maxPrice)
	}
	return nil
}

// maxPrice is the first value the NUMERIC(12,2) price column cannot hold.
var maxPrice = decimal.New(1, 10)

func (in *ProductInput) product(id int64) *models.Product {
	return &models.Product{
		ID:          id,
		CategoryID:  in.CategoryID,
		Name:        in.Name,
		Price:       in.Price,
		Description: in.Description,
	}
}

// Service coordinates the stores, the asset pipeline and the cache.
type Service struct {
	categories CategoryRepository
	products   ProductRepository
	assets     *assets.Pipeline
	cache      Cache

	// provisional rows younger than this are assumed to be mid-write
	reconcileGrace time.Duration
	reconcileMu    sync.Mutex
}

// NewService wires a Service. cache may be nil.
func NewService(categories CategoryRepository, products ProductRepository, pipeline *assets.Pipeline, c Cache) *Service {
	return &Service{
		categories:     categories,
		products:       products,
		assets:         pipeline,
		cache:          c,
		reconcileGrace: time.Minute,
	}
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(context.WithoutCancel(ctx))
	}
}

// ListCategories returns all categories in creation order.
func (s *Service) ListCategories(ctx context.Context) ([]models.Category, error) {
	var items []models.Category
	if s.cache != nil && s.cache.Get(ctx, cache.CategoriesKey(), &items) {
		return items, nil
	}
	items, err := s.categories.List(ctx)
	if err != nil {
		return nil, fromStore(err)
	}
	if s.cache != nil {
		s.cache.Set(ctx, cache.CategoriesKey(), items)
	}
	return items, nil
}

// CreateCategory adds a category with a unique name.
func (s *Service) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationf("name is required")
	}
	c, err := s.categories.Create(ctx, name)
	if err != nil {
		return nil, fromStore(err)
	}
	s.invalidate(ctx)
	return c, nil
}

// RenameCategory renames a category. A zero count means no such category.
func (s *Service) RenameCategory(ctx context.Context, id int64, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, validationf("name is required")
	}
	n, err := s.categories.Rename(ctx, id, name)
	if err != nil {
		return 0, fromStore(err)
	}
	s.invalidate(ctx)
	return n, nil
}

// DeleteCategory removes a category that has no products.
func (s *Service) DeleteCategory(ctx context.Context, id int64) (int64, error) {
	n, err := s.categories.Delete(ctx, id)
	if err != nil {
		return 0, fromStore(err)
	}
	s.invalidate(ctx)
	return n, nil
}

// ListProducts returns products in id order, filtered by category when
// categoryID is non-nil.
func (s *Service) ListProducts(ctx context.Context, categoryID *int64) ([]models.Product, error) {
	key := cache.ProductsKey(categoryID)
	var items []models.Product
	if s.cache != nil && s.cache.Get(ctx, key, &items) {
		return items, nil
	}
	items, err := s.products.List(ctx, categoryID)
	if err != nil {
		return nil, fromStore(err)
	}
	if s.cache != nil {
		s.cache.Set(ctx, key, items)
	}
	return items, nil
}

// GetProduct returns a product, or nil if it does not exist.
func (s *Service) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	key := cache.ProductKey(id)
	var p models.Product
	if s.cache != nil && s.cache.Get(ctx, key, &p) {
		return &p, nil
	}
	found, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, fromStore(err)
	}
	if found != nil && s.cache != nil {
		s.cache.Set(ctx, key, found)
	}
	return found, nil
}

// CreateProduct validates the fields and the image, inserts the product
// with its provisional image name, then finalizes the image under the new
// id. If finalizing fails the row is kept, marked failed, and a
// processing error is returned; the reconciliation pass picks it up.
func (s *Service) CreateProduct(ctx context.Context, in ProductInput, up *assets.Upload) (*models.Product, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if up == nil {
		return nil, validationf("image is required")
	}
	if err := s.requireCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}

	st, err := s.assets.Stage(*up)
	if err != nil {
		return nil, fromAssets(err)
	}

	draft := in.product(0)
	draft.Image = st.TempName
	draft.ImageStatus = models.ImageProvisional

	p, err := s.products.Create(ctx, draft)
	if err != nil {
		s.assets.Discard(st)
		return nil, fromStore(err)
	}
	defer s.invalidate(ctx)

	res, err := s.assets.Finalize(ctx, st, p.ID)
	if err != nil {
		slog.Error("product image processing failed", "product_id", p.ID, "error", err)
		if _, merr := s.products.SetImage(ctx, p.ID, st.TempName, models.ImageFailed); merr != nil {
			slog.Error("mark product image failed", "product_id", p.ID, "error", merr)
		}
		return nil, fromAssets(err)
	}

	if _, err := s.products.SetImage(ctx, p.ID, res.Image, res.Status()); err != nil {
		// The files are in place under the canonical name; the row stays
		// provisional until reconciliation settles it.
		return nil, fromStore(err)
	}

	p.Image = res.Image
	p.ImageStatus = res.Status()
	return p, nil
}

// UpdateProduct replaces the product fields. Without an image the stored
// image is left alone. With one, the image is finalized first and the
// fields and image are written together; the previous image files are
// removed if their name changed. Updating a missing product returns 0
// and leaves the image directory untouched.
func (s *Service) UpdateProduct(ctx context.Context, id int64, in ProductInput, up *assets.Upload) (int64, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}

	if up == nil {
		n, err := s.products.Update(ctx, in.product(id))
		if err != nil {
			return 0, fromStore(err)
		}
		s.invalidate(ctx)
		return n, nil
	}

	existing, err := s.products.FindByID(ctx, id)
	if err != nil {
		return 0, fromStore(err)
	}
	if existing == nil {
		return 0, nil
	}
	if err := s.requireCategory(ctx, in.CategoryID); err != nil {
		return 0, err
	}

	st, err := s.assets.Stage(*up)
	if err != nil {
		return 0, fromAssets(err)
	}

	res, err := s.assets.Finalize(ctx, st, id)
	if err != nil {
		s.assets.Discard(st)
		return 0, fromAssets(err)
	}

	p := in.product(id)
	p.Image = res.Image
	p.ImageStatus = res.Status()
	n, err := s.products.UpdateWithImage(ctx, p)
	if err != nil {
		if res.Image != existing.Image {
			s.assets.Remove(ctx, res.Image)
		}
		return 0, fromStore(err)
	}
	s.invalidate(ctx)

	if existing.Image != "" && existing.Image != res.Image {
		s.assets.Remove(ctx, existing.Image)
	}
	return n, nil
}

// requireCategory rejects writes to an unknown category before any image
// file is touched.
func (s *Service) requireCategory(ctx context.Context, id int64) error {
	c, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return fromStore(err)
	}
	if c == nil {
		return fromStore(fmt.Errorf("find category %d: %w", id, store.ErrUnknownCategory))
	}
	return nil
}

// DeleteProduct removes a product together with its image files.
func (s *Service) DeleteProduct(ctx context.Context, id int64) (int64, error) {
	p, err := s.products.Delete(ctx, id)
	if err != nil {
		return 0, fromStore(err)
	}
	if p == nil {
		return 0, nil
	}
	s.invalidate(ctx)
	if p.Image != "" {
		s.assets.Remove(ctx, p.Image)
	}
	return 1, nil
}
