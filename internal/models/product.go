// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ImageStatus tracks where a product's image is in the asset pipeline.
type ImageStatus string

const (
	// ImageNone means the product has no image.
	ImageNone ImageStatus = "none"
	// ImageProvisional means the row still holds the temporary upload name.
	ImageProvisional ImageStatus = "provisional"
	// ImageReady means the canonical image and its thumbnail exist.
	ImageReady ImageStatus = "ready"
	// ImageThumbMissing means the canonical image exists but thumbnail
	// generation failed.
	ImageThumbMissing ImageStatus = "thumb_missing"
	// ImageFailed means the pipeline aborted after the row was written.
	ImageFailed ImageStatus = "failed"
)

// Valid reports whether s is a known status.
func (s ImageStatus) Valid() bool {
	switch s {
	case ImageNone, ImageProvisional, ImageReady, ImageThumbMissing, ImageFailed:
		return true
	}
	return false
}

// Pending reports whether the reconciliation pass should look at a product
// in this status.
func (s ImageStatus) Pending() bool {
	return s == ImageProvisional || s == ImageFailed || s == ImageThumbMissing
}

// ThumbnailPrefix is prepended to a canonical image name to form the
// thumbnail name.
const ThumbnailPrefix = "thumb_"

// Product is a sellable catalog item. Image holds the canonical name
// "{id}.{ext}" once the asset pipeline has finished with it.
type Product struct {
	ID          int64           `json:"id"`
	CategoryID  int64           `json:"catid"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Image       string          `json:"image"`
	ImageStatus ImageStatus     `json:"image_status"`
	CreatedAt   time.Time       `json:"-"`
	UpdatedAt   time.Time       `json:"-"`
}

// Thumbnail returns the thumbnail file name for the product image, or ""
// when the product has no usable thumbnail.
func (p *Product) Thumbnail() string {
	if p.Image == "" || p.ImageStatus != ImageReady {
		return ""
	}
	return ThumbnailPrefix + p.Image
}
