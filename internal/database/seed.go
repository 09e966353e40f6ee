package database

import (
	"database/sql"
	"fmt"
	"log/slog"
)

type seedProduct struct {
	category    string
	name        string
	price       string
	description string
}

var (
	seedCategories = []string{"Electronics", "Clothing"}

	seedProducts = []seedProduct{
		{"Electronics", "Smartphone", "299.99", "A capable phone with a **6.1 inch** display."},
		{"Electronics", "Laptop", "899.99", "Lightweight laptop for work and travel."},
		{"Clothing", "T-Shirt", "19.99", "Cotton tee, available in several colours."},
		{"Clothing", "Jeans", "49.99", "Classic straight-leg denim."},
	}
)

// Seed populates an empty catalog with development data. Seeded products
// carry no image. It is a no-op when any category already exists.
func Seed(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM categories").Scan(&count); err != nil {
		return fmt.Errorf("seed check categories: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed begin: %w", err)
	}
	defer tx.Rollback()

	ids := make(map[string]int64, len(seedCategories))
	for _, name := range seedCategories {
		var id int64
		if err := tx.QueryRow(`INSERT INTO categories (name) VALUES ($1) RETURNING id`, name).Scan(&id); err != nil {
			return fmt.Errorf("seed insert category %q: %w", name, err)
		}
		ids[name] = id
	}

	for _, p := range seedProducts {
		_, err := tx.Exec(`
			INSERT INTO products (category_id, name, price, description)
			VALUES ($1, $2, $3, $4)
		`, ids[p.category], p.name, p.price, p.description)
		if err != nil {
			return fmt.Errorf("seed insert product %q: %w", p.name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}

	slog.Info("database seeded with sample catalog",
		"categories", len(seedCategories),
		"products", len(seedProducts),
	)
	return nil
}
