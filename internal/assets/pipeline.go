// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package assets stores uploaded product images on local disk. An upload
// is validated and staged under a temporary name, then renamed to its
// canonical "{id}{ext}" name once the product id is known, and a
// "thumb_{id}{ext}" thumbnail is derived from it. Files can optionally be
// mirrored to object storage.
package assets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"shopfront/internal/imaging"
	"shopfront/internal/models"
)

const (
	// MaxUploadSize is the largest accepted image.
	MaxUploadSize = 10 << 20

	// ThumbnailSize bounds both thumbnail dimensions.
	ThumbnailSize = 300

	tempPrefix = "temp_"
	sniffLen   = 512
)

// allowedTypes maps accepted extensions to the content type their bytes
// must sniff as.
var allowedTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

var tempNamePattern = regexp.MustCompile(`^temp_\d+_[0-9a-f]{8}\.(jpg|jpeg|png|gif|webp)$`)

// Mirror is a remote copy of the image directory.
type Mirror interface {
	Put(ctx context.Context, name, contentType string, body io.Reader, size int64) error
	Get(ctx context.Context, name string) ([]byte, error)
	Delete(ctx context.Context, name string) error
}

// Upload is an incoming image. Size is the declared length, or -1 if
// unknown.
type Upload struct {
	Filename string
	Size     int64
	Content  io.Reader
}

// Staged is an upload persisted under its temporary name.
type Staged struct {
	TempName    string
	Ext         string
	ContentType string
}

// Result describes a finalized image.
type Result struct {
	Image     string
	Thumbnail string
	// ThumbErr is set when the thumbnail could not be produced. The main
	// image is still valid.
	ThumbErr error
}

// Status returns the product image status matching the result.
func (r *Result) Status() models.ImageStatus {
	if r.ThumbErr != nil {
		return models.ImageThumbMissing
	}
	return models.ImageReady
}

// ValidationError rejects an upload before anything is written to disk.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// ProcessingError is a hard failure after validation succeeded.
type ProcessingError struct {
	Op  string
	Err error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("image processing failed: %s: %v", e.Op, e.Err)
}

func (e *ProcessingError) Unwrap() error { return e.Err }

// Pipeline owns the image directory.
type Pipeline struct {
	dir       string
	maxSize   int64
	thumbSize int
	mirror    Mirror
}

// New returns a pipeline writing to dir, creating it if needed. mirror may
// be nil.
func New(dir string, mirror Mirror) (*Pipeline, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create image dir: %w", err)
	}
	return &Pipeline{
		dir:       dir,
		maxSize:   MaxUploadSize,
		thumbSize: ThumbnailSize,
		mirror:    mirror,
	}, nil
}

// Dir returns the image directory.
func (p *Pipeline) Dir() string { return p.dir }

// CanonicalName returns the main image name for a product.
func CanonicalName(productID int64, ext string) string {
	return strconv.FormatInt(productID, 10) + strings.ToLower(ext)
}

// ThumbnailType returns the content type of the thumbnail derived from
// image. WebP images have JPEG thumbnails under the .webp name.
func ThumbnailType(image string) string {
	ext := strings.ToLower(filepath.Ext(image))
	if ext == ".webp" {
		return "image/jpeg"
	}
	return allowedTypes[ext]
}

// IsTempName reports whether name looks like a staged upload.
func IsTempName(name string) bool {
	return tempNamePattern.MatchString(name)
}

// Stage validates an upload and writes it under a temporary name. The
// extension, declared size and sniffed content type are checked before
// any file is created.
func (p *Pipeline) Stage(u Upload) (*Staged, error) {
	ext := strings.ToLower(filepath.Ext(u.Filename))
	want, ok := allowedTypes[ext]
	if !ok {
		return nil, &ValidationError{Msg: fmt.Sprintf("unsupported image type %q: allowed jpeg, jpg, png, gif, webp", ext)}
	}
	if u.Size > p.maxSize {
		return nil, &ValidationError{Msg: fmt.Sprintf("image exceeds %d MiB", p.maxSize>>20)}
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(u.Content, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, &ProcessingError{Op: "read upload", Err: err}
	}
	head = head[:n]
	if n == 0 {
		return nil, &ValidationError{Msg: "image is empty"}
	}

	got := http.DetectContentType(head)
	if got != want {
		if !isAllowedType(got) {
			return nil, &ValidationError{Msg: fmt.Sprintf("unsupported content type %q", got)}
		}
		return nil, &ValidationError{Msg: fmt.Sprintf("file extension %s does not match content type %s", ext, got)}
	}

	name := fmt.Sprintf("%s%d_%s%s", tempPrefix, time.Now().UnixNano(), uuid.NewString()[:8], ext)
	path := filepath.Join(p.dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, &ProcessingError{Op: "create temp file", Err: err}
	}

	written, err := io.Copy(f, io.LimitReader(io.MultiReader(bytes.NewReader(head), u.Content), p.maxSize+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return nil, &ProcessingError{Op: "write temp file", Err: err}
	}
	if written > p.maxSize {
		os.Remove(path)
		return nil, &ValidationError{Msg: fmt.Sprintf("image exceeds %d MiB", p.maxSize>>20)}
	}

	return &Staged{TempName: name, Ext: ext, ContentType: want}, nil
}

// Discard removes a staged file that will not be finalized.
func (p *Pipeline) Discard(st *Staged) {
	if err := os.Remove(filepath.Join(p.dir, st.TempName)); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("discard staged image failed", "file", st.TempName, "error", err)
	}
}

// Finalize renames a staged file to the product's canonical name and
// derives its thumbnail. A thumbnail failure is logged and reported in
// Result.ThumbErr; only the rename is fatal.
func (p *Pipeline) Finalize(ctx context.Context, st *Staged, productID int64) (*Result, error) {
	image := CanonicalName(productID, st.Ext)

	if err := os.Rename(filepath.Join(p.dir, st.TempName), filepath.Join(p.dir, image)); err != nil {
		return nil, &ProcessingError{Op: "rename to " + image, Err: err}
	}

	res := &Result{Image: image}
	if err := p.writeThumbnail(image); err != nil {
		slog.Warn("thumbnail generation failed", "product_id", productID, "image", image, "error", err)
		res.ThumbErr = err
	} else {
		res.Thumbnail = models.ThumbnailPrefix + image
	}

	p.publish(ctx, res)
	return res, nil
}

// Resume finalizes a staged file left behind by an interrupted write.
func (p *Pipeline) Resume(ctx context.Context, tempName string, productID int64) (*Result, error) {
	if !IsTempName(tempName) {
		return nil, &ValidationError{Msg: fmt.Sprintf("not a staged image name: %q", tempName)}
	}
	if !p.Exists(tempName) {
		return nil, &ProcessingError{Op: "resume " + tempName, Err: os.ErrNotExist}
	}
	ext := filepath.Ext(tempName)
	return p.Finalize(ctx, &Staged{TempName: tempName, Ext: ext, ContentType: allowedTypes[ext]}, productID)
}

// RegenerateThumbnail rebuilds the thumbnail of a canonical image,
// restoring the main file from the mirror first if it is missing locally.
func (p *Pipeline) RegenerateThumbnail(ctx context.Context, image string) error {
	if !safeName(image) {
		return &ValidationError{Msg: fmt.Sprintf("invalid image name %q", image)}
	}
	if !p.Exists(image) {
		if err := p.restore(ctx, image); err != nil {
			return err
		}
	}
	if err := p.writeThumbnail(image); err != nil {
		return err
	}
	p.publish(ctx, &Result{Thumbnail: models.ThumbnailPrefix + image})
	return nil
}

// Exists reports whether name is present in the image directory.
func (p *Pipeline) Exists(name string) bool {
	if !safeName(name) {
		return false
	}
	_, err := os.Stat(filepath.Join(p.dir, name))
	return err == nil
}

// Remove deletes an image and its thumbnail, locally and in the mirror.
// Missing files are ignored.
func (p *Pipeline) Remove(ctx context.Context, image string) {
	if !safeName(image) {
		return
	}
	for _, name := range []string{image, models.ThumbnailPrefix + image} {
		if err := os.Remove(filepath.Join(p.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Warn("remove image failed", "file", name, "error", err)
		}
		if p.mirror != nil {
			if err := p.mirror.Delete(ctx, name); err != nil {
				slog.Warn("mirror delete failed", "file", name, "error", err)
			}
		}
	}
}

// writeThumbnail replaces the thumbnail of image. Any previous thumbnail is
// removed first so a failure never leaves a stale one behind.
func (p *Pipeline) writeThumbnail(image string) error {
	thumbPath := filepath.Join(p.dir, models.ThumbnailPrefix+image)
	if err := os.Remove(thumbPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove old thumbnail: %w", err)
	}
	f, err := os.Open(filepath.Join(p.dir, image))
	if err != nil {
		return fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	data, _, err := imaging.Thumbnail(f, p.thumbSize, p.thumbSize)
	if err != nil {
		return err
	}

	if err := os.WriteFile(thumbPath, data, 0o644); err != nil {
		os.Remove(thumbPath)
		return fmt.Errorf("write thumbnail: %w", err)
	}
	return nil
}

// publish copies the result's files to the mirror. Failures are logged;
// the local directory stays authoritative.
func (p *Pipeline) publish(ctx context.Context, res *Result) {
	if p.mirror == nil {
		return
	}
	for _, name := range []string{res.Image, res.Thumbnail} {
		if name == "" {
			continue
		}
		f, err := os.Open(filepath.Join(p.dir, name))
		if err != nil {
			slog.Warn("mirror open failed", "file", name, "error", err)
			continue
		}
		info, err := f.Stat()
		if err == nil {
			ct := allowedTypes[filepath.Ext(name)]
			if name == res.Thumbnail {
				ct = ThumbnailType(name)
			}
			err = p.mirror.Put(ctx, name, ct, f, info.Size())
		}
		f.Close()
		if err != nil {
			slog.Warn("mirror upload failed", "file", name, "error", err)
		}
	}
}

func (p *Pipeline) restore(ctx context.Context, image string) error {
	if p.mirror == nil {
		return &ProcessingError{Op: "restore " + image, Err: os.ErrNotExist}
	}
	data, err := p.mirror.Get(ctx, image)
	if err != nil {
		return &ProcessingError{Op: "restore " + image, Err: err}
	}
	if err := os.WriteFile(filepath.Join(p.dir, image), data, 0o644); err != nil {
		return &ProcessingError{Op: "restore " + image, Err: err}
	}
	slog.Info("image restored from mirror", "image", image)
	return nil
}

func isAllowedType(ct string) bool {
	for _, t := range allowedTypes {
		if t == ct {
			return true
		}
	}
	return false
}

// safeName accepts plain file names only, never paths.
func safeName(name string) bool {
	return name != "" && name != "." && name != ".." && filepath.Base(name) == name && !strings.ContainsAny(name, `/\`)
}
