package handlers

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"shopfront/internal/models"
)

// Validation limits for request fields.
const (
	maxCategoryNameLen = 100
	maxOrderLines      = 100
	maxLineQty         = 10_000
)

// validateCategoryName checks a category name and returns the first error
// found.
func validateCategoryName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "name is required"
	}
	if utf8.RuneCountInString(name) > maxCategoryNameLen {
		return fmt.Sprintf("name is too long (max %d characters)", maxCategoryNameLen)
	}
	return ""
}

// validateOrder checks a checkout submission. The client total must match
// the sum of its lines exactly.
func validateOrder(o *models.Order) string {
	if len(o.Items) == 0 {
		return "order has no items"
	}
	if len(o.Items) > maxOrderLines {
		return fmt.Sprintf("order has too many lines (max %d)", maxOrderLines)
	}
	for i, l := range o.Items {
		switch {
		case l.ProductID <= 0:
			return fmt.Sprintf("items[%d]: product_id is required", i)
		case l.Qty < 1:
			return fmt.Sprintf("items[%d]: qty must be at least 1", i)
		case l.Qty > maxLineQty:
			return fmt.Sprintf("items[%d]: qty is too large", i)
		case l.Price.IsNegative():
			return fmt.Sprintf("items[%d]: price must not be negative", i)
		}
	}
	if !isCurrencyCode(o.Currency) {
		return "currency must be a 3-letter code"
	}
	if sum := o.Sum(); !o.Total.Equal(sum) {
		return fmt.Sprintf("total %s does not match items sum %s", o.Total, sum)
	}
	return ""
}

func isCurrencyCode(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, c := range s {
		if c < 'A' || c > 'Z' {
			return false
		}
	}
	return true
}
