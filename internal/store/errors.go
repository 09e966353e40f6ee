// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package store implements catalog persistence on PostgreSQL, plus an
// in-memory equivalent used by tests.
package store

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrDuplicateName is returned when a category name is already taken.
	ErrDuplicateName = errors.New("category name already exists")

	// ErrCategoryInUse is returned when deleting a category that still has
	// products.
	ErrCategoryInUse = errors.New("category still has products")

	// ErrUnknownCategory is returned when a product references a category
	// that does not exist.
	ErrUnknownCategory = errors.New("category does not exist")
)

// PostgreSQL error codes the stores translate.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
