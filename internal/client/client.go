// Package client is a typed HTTP client for the shopfront API, used by the
// storefront and admin front ends and by the shopctl command.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"shopfront/internal/catalog"
	"shopfront/internal/models"
)

// DefaultTimeout bounds every request made by a Client built with New.
const DefaultTimeout = 30 * time.Second

// maxErrorBody caps how much of a failed response is read for the message.
const maxErrorBody = 64 << 10

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (status %d): %s", e.Status, e.Message)
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// Product is a product as returned by the API.
type Product struct {
	models.Product
	Thumbnail       string `json:"thumbnail"`
	DescriptionHTML string `json:"description_html"`
}

// ProductForm holds the fields of a product write. Image is optional on
// update and required on create.
type ProductForm struct {
	CategoryID  int64
	Name        string
	Price       decimal.Decimal
	Description string
	ImageName   string
	Image       io.Reader
}

// CreatedProduct is the result of a product create.
type CreatedProduct struct {
	ID    int64  `json:"id"`
	Image string `json:"image"`
}

// Receipt confirms an accepted checkout.
type Receipt struct {
	TransactionID string          `json:"transaction_id"`
	Total         decimal.Decimal `json:"total"`
	Currency      string          `json:"currency"`
}

type changes struct {
	Changes int64 `json:"changes"`
}

// Client talks to one shopfront server.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

// New creates a client for the server at baseURL, e.g.
// "http://localhost:8080".
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.http = hc
	return c
}

// SetToken sets the admin bearer token sent with every request.
func (c *Client) SetToken(token string) { c.token = token }

// Token returns the current admin bearer token.
func (c *Client) Token() string { return c.token }

// ImageURL returns the public URL of an image file name.
func (c *Client) ImageURL(name string) string {
	if name == "" {
		return ""
	}
	return c.baseURL + "/images/" + url.PathEscape(name)
}

// Categories lists all categories.
func (c *Client) Categories(ctx context.Context) ([]models.Category, error) {
	var out []models.Category
	err := c.doJSON(ctx, http.MethodGet, "/api/categories", nil, &out)
	return out, err
}

// CreateCategory adds a category.
func (c *Client) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	var out models.Category
	if err := c.doJSON(ctx, http.MethodPost, "/api/categories", map[string]string{"name": name}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RenameCategory renames a category and returns the number of rows changed.
func (c *Client) RenameCategory(ctx context.Context, id int64, name string) (int64, error) {
	var out changes
	err := c.doJSON(ctx, http.MethodPut, "/api/categories/"+itoa(id), map[string]string{"name": name}, &out)
	return out.Changes, err
}

// DeleteCategory removes a category and returns the number of rows changed.
func (c *Client) DeleteCategory(ctx context.Context, id int64) (int64, error) {
	var out changes
	err := c.doJSON(ctx, http.MethodDelete, "/api/categories/"+itoa(id), nil, &out)
	return out.Changes, err
}

// Products lists products, filtered by category when categoryID is non-nil.
func (c *Client) Products(ctx context.Context, categoryID *int64) ([]Product, error) {
	path := "/api/products"
	if categoryID != nil {
		path += "?catid=" + itoa(*categoryID)
	}
	var out []Product
	err := c.doJSON(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

// Product fetches one product. It returns nil, nil when there is no such
// product.
func (c *Client) Product(ctx context.Context, id int64) (*Product, error) {
	var out *Product
	if err := c.doJSON(ctx, http.MethodGet, "/api/products/"+itoa(id), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateProduct uploads a new product with its image.
func (c *Client) CreateProduct(ctx context.Context, form ProductForm) (*CreatedProduct, error) {
	if form.Image == nil {
		return nil, errors.New("create product: image is required")
	}
	var out CreatedProduct
	if err := c.doMultipart(ctx, http.MethodPost, "/api/products", form, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProduct replaces a product's fields and, if form.Image is set, its
// image. It returns the number of rows changed.
func (c *Client) UpdateProduct(ctx context.Context, id int64, form ProductForm) (int64, error) {
	var out changes
	err := c.doMultipart(ctx, http.MethodPut, "/api/products/"+itoa(id), form, &out)
	return out.Changes, err
}

// DeleteProduct removes a product and returns the number of rows changed.
func (c *Client) DeleteProduct(ctx context.Context, id int64) (int64, error) {
	var out changes
	err := c.doJSON(ctx, http.MethodDelete, "/api/products/"+itoa(id), nil, &out)
	return out.Changes, err
}

// Checkout submits an order.
func (c *Client) Checkout(ctx context.Context, order *models.Order) (*Receipt, error) {
	var out Receipt
	if err := c.doJSON(ctx, http.MethodPost, "/api/checkout", order, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login exchanges the admin password for a bearer token and keeps it on
// the client.
func (c *Client) Login(ctx context.Context, password string) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/admin/login", map[string]string{"password": password}, &out); err != nil {
		return "", err
	}
	c.token = out.Token
	return out.Token, nil
}

// Logout revokes the current token.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.doJSON(ctx, http.MethodPost, "/api/admin/logout", nil, nil); err != nil {
		return err
	}
	c.token = ""
	return nil
}

// Reconcile runs one image reconciliation pass on the server.
func (c *Client) Reconcile(ctx context.Context) (*catalog.ReconcileReport, error) {
	var out catalog.ReconcileReport
	if err := c.doJSON(ctx, http.MethodPost, "/api/admin/reconcile", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s %s marshal: %w", method, path, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s %s request: %w", method, path, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *Client) doMultipart(ctx context.Context, method, path string, form ProductForm, out any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fields := [][2]string{
		{"catid", itoa(form.CategoryID)},
		{"name", form.Name},
		{"price", form.Price.String()},
		{"description", form.Description},
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return fmt.Errorf("%s %s form: %w", method, path, err)
		}
	}
	if form.Image != nil {
		fw, err := mw.CreateFormFile("image", form.ImageName)
		if err != nil {
			return fmt.Errorf("%s %s form: %w", method, path, err)
		}
		if _, err := io.Copy(fw, form.Image); err != nil {
			return fmt.Errorf("%s %s read image: %w", method, path, err)
		}
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("%s %s form: %w", method, path, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("%s %s request: %w", method, path, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		var envelope struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(raw))
		if json.Unmarshal(raw, &envelope) == nil && envelope.Error != "" {
			msg = envelope.Error
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s decode: %w", req.Method, req.URL.Path, err)
	}
	return nil
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }
