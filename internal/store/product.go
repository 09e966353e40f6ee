// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"shopfront/internal/models"
)

// ProductStore handles all product-related database operations.
type ProductStore struct {
	db *sql.DB
}

// NewProductStore creates a new ProductStore with the given database connection.
func NewProductStore(db *sql.DB) *ProductStore {
	return &ProductStore{db: db}
}

// productColumns lists the columns selected in product queries.
const productColumns = `id, category_id, name, price, description,
	image, image_status, created_at, updated_at`

// scanProduct scans a product row from the result set.
func scanProduct(scanner interface{ Scan(...any) error }) (*models.Product, error) {
	var p models.Product
	err := scanner.Scan(
		&p.ID, &p.CategoryID, &p.Name, &p.Price, &p.Description,
		&p.Image, &p.ImageStatus, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *ProductStore) query(ctx context.Context, op, q string, args ...any) ([]models.Product, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	items := []models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		items = append(items, *p)
	}
	return items, rows.Err()
}

// List returns products in id order, restricted to one category when
// categoryID is non-nil.
func (s *ProductStore) List(ctx context.Context, categoryID *int64) ([]models.Product, error) {
	if categoryID == nil {
		return s.query(ctx, "list products", `SELECT `+productColumns+` FROM products ORDER BY id`)
	}
	return s.query(ctx, "list products by category",
		`SELECT `+productColumns+` FROM products WHERE category_id = $1 ORDER BY id`, *categoryID)
}

// FindByID retrieves a single product. Returns nil if not found.
func (s *ProductStore) FindByID(ctx context.Context, id int64) (*models.Product, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find product by id: %w", err)
	}
	return p, nil
}

// Create inserts a product and returns it with the generated ID.
func (s *ProductStore) Create(ctx context.Context, p *models.Product) (*models.Product, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO products (category_id, name, price, description, image, image_status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+productColumns,
		p.CategoryID, p.Name, p.Price, p.Description, p.Image, p.ImageStatus,
	)
	created, err := scanProduct(row)
	if err != nil {
		if pgCode(err) == pgForeignKeyViolation {
			return nil, fmt.Errorf("create product: %w", ErrUnknownCategory)
		}
		return nil, fmt.Errorf("create product: %w", err)
	}
	return created, nil
}

// Update replaces name, price, description and category, leaving the image
// untouched. Returns the number of rows changed.
func (s *ProductStore) Update(ctx context.Context, p *models.Product) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE products SET
			category_id = $1, name = $2, price = $3, description = $4,
			updated_at = NOW()
		WHERE id = $5
	`, p.CategoryID, p.Name, p.Price, p.Description, p.ID)
	return affected("update product", res, err)
}

// UpdateWithImage replaces every field including the image and its status.
func (s *ProductStore) UpdateWithImage(ctx context.Context, p *models.Product) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE products SET
			category_id = $1, name = $2, price = $3, description = $4,
			image = $5, image_status = $6, updated_at = NOW()
		WHERE id = $7
	`, p.CategoryID, p.Name, p.Price, p.Description, p.Image, p.ImageStatus, p.ID)
	return affected("update product with image", res, err)
}

// SetImage records an asset pipeline transition for a product.
func (s *ProductStore) SetImage(ctx context.Context, id int64, image string, status models.ImageStatus) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE products SET image = $1, image_status = $2, updated_at = NOW()
		WHERE id = $3
	`, image, status, id)
	return affected("set product image", res, err)
}

// Delete removes a product and returns it so the caller can clean up the
// image files. Returns nil if the product did not exist.
func (s *ProductStore) Delete(ctx context.Context, id int64) (*models.Product, error) {
	row := s.db.QueryRowContext(ctx, `
		DELETE FROM products WHERE id = $1
		RETURNING `+productColumns, id)
	p, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("delete product: %w", err)
	}
	return p, nil
}

// ListPendingImages returns up to limit products whose image is not yet in
// a final state, oldest first.
func (s *ProductStore) ListPendingImages(ctx context.Context, limit int) ([]models.Product, error) {
	return s.query(ctx, "list pending images", `
		SELECT `+productColumns+`
		FROM products
		WHERE image_status IN ('provisional', 'thumb_missing', 'failed')
		ORDER BY id
		LIMIT $1
	`, limit)
}

func affected(op string, res sql.Result, err error) (int64, error) {
	if err != nil {
		if pgCode(err) == pgForeignKeyViolation {
			return 0, fmt.Errorf("%s: %w", op, ErrUnknownCategory)
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: rows affected: %w", op, err)
	}
	return n, nil
}
