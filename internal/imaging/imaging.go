// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package imaging generates product thumbnails. Images are scaled to fit
// inside a bounding box with their aspect ratio preserved, never upscaled,
// and re-encoded in their source format. WebP has no encoder, so WebP
// sources get JPEG thumbnails.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	// MaxPixels caps decoded image area to guard against decompression bombs.
	MaxPixels = 100_000_000

	jpegQuality = 85
)

// ErrUnsupportedFormat is returned when an image decodes but its format
// has no thumbnail encoding.
var ErrUnsupportedFormat = errors.New("no thumbnail encoder for format")

// FitSize returns the largest size with the aspect ratio of w×h that fits
// inside maxW×maxH. Sizes already inside the box are returned unchanged.
func FitSize(w, h, maxW, maxH int) (int, int) {
	if w <= maxW && h <= maxH {
		return w, h
	}
	scale := min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	nw := max(1, int(float64(w)*scale+0.5))
	nh := max(1, int(float64(h)*scale+0.5))
	return min(nw, maxW), min(nh, maxH)
}

// Thumbnail decodes src and returns a fit-inside thumbnail together with
// the format it was encoded in ("jpeg", "png", "gif"). WebP input yields
// a JPEG thumbnail.
func Thumbnail(src io.ReadSeeker, maxW, maxH int) ([]byte, string, error) {
	cfg, format, err := image.DecodeConfig(src)
	if err != nil {
		return nil, "", fmt.Errorf("decode config: %w", err)
	}

	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, format, fmt.Errorf("image too large: %dx%d exceeds %d pixels", cfg.Width, cfg.Height, MaxPixels)
	}

	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, format, fmt.Errorf("seek: %w", err)
	}

	img, _, err := image.Decode(src)
	if err != nil {
		return nil, format, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := FitSize(bounds.Dx(), bounds.Dy(), maxW, maxH)

	var out image.Image = img
	if w != bounds.Dx() || h != bounds.Dy() {
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		out = dst
	}

	var buf bytes.Buffer
	switch format {
	case "webp":
		format = "jpeg"
		err = jpeg.Encode(&buf, out, &jpeg.Options{Quality: jpegQuality})
	case "jpeg":
		err = jpeg.Encode(&buf, out, &jpeg.Options{Quality: jpegQuality})
	case "png":
		err = png.Encode(&buf, out)
	case "gif":
		err = gif.Encode(&buf, out, nil)
	default:
		return nil, format, fmt.Errorf("%s: %w", format, ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, format, fmt.Errorf("encode thumbnail: %w", err)
	}

	return buf.Bytes(), format, nil
}
