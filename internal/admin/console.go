// Package admin is the catalog management front end. It builds table rows
// from API data and runs actions against the ids the rows were built from.
package admin

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/shopspring/decimal"

	"shopfront/internal/catalog"
	"shopfront/internal/client"
	"shopfront/internal/models"
)

// API is the subset of the HTTP client the console uses.
type API interface {
	Categories(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, name string) (*models.Category, error)
	RenameCategory(ctx context.Context, id int64, name string) (int64, error)
	DeleteCategory(ctx context.Context, id int64) (int64, error)
	Products(ctx context.Context, categoryID *int64) ([]client.Product, error)
	CreateProduct(ctx context.Context, form client.ProductForm) (*client.CreatedProduct, error)
	UpdateProduct(ctx context.Context, id int64, form client.ProductForm) (int64, error)
	DeleteProduct(ctx context.Context, id int64) (int64, error)
	Reconcile(ctx context.Context) (*catalog.ReconcileReport, error)
	ImageURL(name string) string
}

var _ API = (*client.Client)(nil)

// CategoryRow is one line of the category table.
type CategoryRow struct {
	ID       int64
	Name     string
	Products int
}

// ProductRow is one line of the product table.
type ProductRow struct {
	ID           int64
	Name         string
	CategoryID   int64
	CategoryName string
	Price        decimal.Decimal
	ThumbnailURL string
	ImageStatus  models.ImageStatus
}

// View is the data the console renders.
type View struct {
	Categories []CategoryRow
	Products   []ProductRow
}

// ProductEdit holds the editable fields of a product.
type ProductEdit struct {
	CategoryID  int64
	Name        string
	Price       decimal.Decimal
	Description string
	ImageName   string
	Image       io.Reader
}

func (e ProductEdit) form() client.ProductForm {
	return client.ProductForm{
		CategoryID:  e.CategoryID,
		Name:        e.Name,
		Price:       e.Price,
		Description: e.Description,
		ImageName:   e.ImageName,
		Image:       e.Image,
	}
}

// Console is the admin controller.
type Console struct {
	api API
}

// NewConsole returns a console over api.
func NewConsole(api API) *Console {
	return &Console{api: api}
}

// Load fetches categories and products and builds the table rows.
func (c *Console) Load(ctx context.Context) (*View, error) {
	categories, err := c.api.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	products, err := c.api.Products(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	return BuildView(categories, products, c.api.ImageURL), nil
}

// BuildView turns API data into rows. imageURL maps an image name to a
// URL. A product whose thumbnail is missing shows its full image instead;
// staged or failed images are not served, so those rows get no picture.
func BuildView(categories []models.Category, products []client.Product, imageURL func(string) string) *View {
	names := make(map[int64]string, len(categories))
	counts := make(map[int64]int, len(categories))
	for _, cat := range categories {
		names[cat.ID] = cat.Name
	}
	for _, p := range products {
		counts[p.CategoryID]++
	}

	v := &View{
		Categories: make([]CategoryRow, len(categories)),
		Products:   make([]ProductRow, len(products)),
	}
	for i, cat := range categories {
		v.Categories[i] = CategoryRow{ID: cat.ID, Name: cat.Name, Products: counts[cat.ID]}
	}
	for i, p := range products {
		picture := p.Thumbnail
		if picture == "" && p.ImageStatus == models.ImageThumbMissing {
			picture = p.Image
		}
		v.Products[i] = ProductRow{
			ID:           p.ID,
			Name:         p.Name,
			CategoryID:   p.CategoryID,
			CategoryName: names[p.CategoryID],
			Price:        p.Price,
			ThumbnailURL: imageURL(picture),
			ImageStatus:  p.ImageStatus,
		}
	}
	return v
}

// CreateCategory adds a category.
func (c *Console) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	return c.api.CreateCategory(ctx, name)
}

// RenameCategory renames the category with the given row id.
func (c *Console) RenameCategory(ctx context.Context, id int64, name string) error {
	return expectChange(c.api.RenameCategory(ctx, id, name))
}

// DeleteCategory removes the category with the given row id.
func (c *Console) DeleteCategory(ctx context.Context, id int64) error {
	return expectChange(c.api.DeleteCategory(ctx, id))
}

// CreateProduct uploads a product with its image.
func (c *Console) CreateProduct(ctx context.Context, e ProductEdit) (*client.CreatedProduct, error) {
	return c.api.CreateProduct(ctx, e.form())
}

// UpdateProduct saves the product with the given row id.
func (c *Console) UpdateProduct(ctx context.Context, id int64, e ProductEdit) error {
	return expectChange(c.api.UpdateProduct(ctx, id, e.form()))
}

// DeleteProduct removes the product with the given row id.
func (c *Console) DeleteProduct(ctx context.Context, id int64) error {
	return expectChange(c.api.DeleteProduct(ctx, id))
}

// Reconcile asks the server to settle incomplete image writes.
func (c *Console) Reconcile(ctx context.Context) (*catalog.ReconcileReport, error) {
	return c.api.Reconcile(ctx)
}

// ErrNotFound reports that an action targeted a row that no longer exists.
var ErrNotFound = errors.New("no such item")

func expectChange(n int64, err error) error {
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
