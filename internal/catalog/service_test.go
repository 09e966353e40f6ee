package catalog

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"shopfront/internal/assets"
	"shopfront/internal/models"
	"shopfront/internal/store"
)

func jpegUpload(t *testing.T, name string) *assets.Upload {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 640, 480)), nil); err != nil {
		t.Fatal(err)
	}
	return &assets.Upload{Filename: name, Size: int64(buf.Len()), Content: bytes.NewReader(buf.Bytes())}
}

func pngUpload(t *testing.T, name string) *assets.Upload {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 64, 64))); err != nil {
		t.Fatal(err)
	}
	return &assets.Upload{Filename: name, Size: int64(buf.Len()), Content: bytes.NewReader(buf.Bytes())}
}

var webpData = []byte{
	'R', 'I', 'F', 'F', 0x1a, 0, 0, 0, 'W', 'E', 'B', 'P',
	'V', 'P', '8', 'L', 0x0d, 0, 0, 0,
	0x2f, 0, 0, 0, 0x10, 0x07, 0x10, 0x11, 0x11, 0x88, 0x88, 0xfe, 0x07, 0x00,
}

func webpUpload() *assets.Upload {
	return &assets.Upload{Filename: "pic.webp", Size: int64(len(webpData)), Content: bytes.NewReader(webpData)}
}

type fakeCache struct {
	mu          sync.Mutex
	data        map[string]any
	invalidated int
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return false
	}
	switch d := dst.(type) {
	case *[]models.Category:
		*d = v.([]models.Category)
	case *[]models.Product:
		*d = v.([]models.Product)
	case *models.Product:
		*d = *v.(*models.Product)
	}
	return true
}

func (c *fakeCache) Set(ctx context.Context, key string, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = v
}

func (c *fakeCache) Invalidate(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = map[string]any{}
	c.invalidated++
}

type fixture struct {
	svc      *Service
	mem      *store.Memory
	pipeline *assets.Pipeline
	cache    *fakeCache
	tools    *models.Category
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := store.NewMemory()
	pipeline, err := assets.New(t.TempDir(), nil)
	if err != nil {
		t.Fatal(err)
	}
	c := &fakeCache{data: map[string]any{}}
	svc := NewService(mem.Categories(), mem.Products(), pipeline, c)
	tools, err := svc.CreateCategory(context.Background(), "Tools")
	if err != nil {
		t.Fatal(err)
	}
	return &fixture{svc: svc, mem: mem, pipeline: pipeline, cache: c, tools: tools}
}

func (f *fixture) input(name string) ProductInput {
	return ProductInput{CategoryID: f.tools.ID, Name: name, Price: decimal.RequireFromString("12.50"), Description: "Steel"}
}

func (f *fixture) files(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(f.pipeline.Dir())
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestCreateProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.CreateProduct(ctx, f.input("Hammer"), jpegUpload(t, "hammer.jpg"))
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	want := assets.CanonicalName(p.ID, ".jpg")
	if p.Image != want || p.ImageStatus != models.ImageReady {
		t.Fatalf("CreateProduct = %+v, want image %s ready", p, want)
	}

	stored, _ := f.svc.GetProduct(ctx, p.ID)
	if stored == nil || stored.Image != want || !stored.Price.Equal(decimal.RequireFromString("12.5")) {
		t.Fatalf("GetProduct = %+v", stored)
	}
	if !f.pipeline.Exists(want) || !f.pipeline.Exists("thumb_"+want) {
		t.Errorf("files = %v", f.files(t))
	}
}

func TestCreateProductValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ProductInput)
		upload func(t *testing.T) *assets.Upload
	}{
		{name: "missing name", mutate: func(in *ProductInput) { in.Name = "  " }},
		{name: "missing catid", mutate: func(in *ProductInput) { in.CategoryID = 0 }},
		{name: "negative price", mutate: func(in *ProductInput) { in.Price = decimal.NewFromInt(-1) }},
		{name: "too many decimals", mutate: func(in *ProductInput) { in.Price = decimal.RequireFromString("12.555") }},
		{name: "price overflow", mutate: func(in *ProductInput) { in.Price = decimal.RequireFromString("10000000000") }},
		{name: "unknown category", mutate: func(in *ProductInput) { in.CategoryID = 99 }},
		{name: "missing image", upload: func(t *testing.T) *assets.Upload { return nil }},
		{
			name: "wrong image type",
			upload: func(t *testing.T) *assets.Upload {
				return &assets.Upload{Filename: "a.txt", Size: 3, Content: bytes.NewReader([]byte("abc"))}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			in := f.input("Hammer")
			if tt.mutate != nil {
				tt.mutate(&in)
			}
			up := jpegUpload(t, "hammer.jpg")
			if tt.upload != nil {
				up = tt.upload(t)
			}

			_, err := f.svc.CreateProduct(context.Background(), in, up)
			if KindOf(err) != KindValidation {
				t.Fatalf("error = %v (kind %v), want validation", err, KindOf(err))
			}

			items, _ := f.svc.ListProducts(context.Background(), nil)
			if len(items) != 0 {
				t.Errorf("rejected create left %d products", len(items))
			}
			if files := f.files(t); len(files) != 0 {
				t.Errorf("rejected create left files %v", files)
			}
		})
	}
}

func TestCreateProductThumbnailFailureSucceeds(t *testing.T) {
	f := newFixture(t)

	// Sniffs as JPEG but cannot be decoded.
	data := []byte("\xff\xd8\xffnot really a jpeg")
	up := &assets.Upload{Filename: "poster.jpg", Size: int64(len(data)), Content: bytes.NewReader(data)}

	p, err := f.svc.CreateProduct(context.Background(), f.input("Poster"), up)
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	if p.Image != assets.CanonicalName(p.ID, ".jpg") || p.ImageStatus != models.ImageThumbMissing {
		t.Errorf("CreateProduct = %+v", p)
	}
}

func TestCreateProductWebP(t *testing.T) {
	f := newFixture(t)

	p, err := f.svc.CreateProduct(context.Background(), f.input("Poster"), webpUpload())
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	if p.Image != assets.CanonicalName(p.ID, ".webp") || p.ImageStatus != models.ImageReady {
		t.Errorf("CreateProduct = %+v", p)
	}
	if !f.pipeline.Exists("thumb_" + p.Image) {
		t.Errorf("files = %v", f.files(t))
	}
}

// losingRepo deletes the staged file as soon as the row is inserted, so
// the rename that follows fails.
type losingRepo struct {
	*store.MemoryProductStore
	dir string
}

func (r *losingRepo) Create(ctx context.Context, p *models.Product) (*models.Product, error) {
	os.Remove(filepath.Join(r.dir, p.Image))
	return r.MemoryProductStore.Create(ctx, p)
}

func TestCreateProductProcessingFailureKeepsRow(t *testing.T) {
	f := newFixture(t)
	repo := &losingRepo{MemoryProductStore: f.mem.Products(), dir: f.pipeline.Dir()}
	svc := NewService(f.mem.Categories(), repo, f.pipeline, nil)
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, f.input("Hammer"), jpegUpload(t, "hammer.jpg"))
	if KindOf(err) != KindProcessing {
		t.Fatalf("error = %v, want processing", err)
	}

	items, _ := svc.ListProducts(ctx, nil)
	if len(items) != 1 {
		t.Fatalf("products = %d, want the provisional row kept", len(items))
	}
	if items[0].ImageStatus != models.ImageFailed || !assets.IsTempName(items[0].Image) {
		t.Errorf("row = %+v, want failed with provisional name", items[0])
	}
}

func TestUpdateProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.CreateProduct(ctx, f.input("Hammer"), jpegUpload(t, "hammer.jpg"))
	if err != nil {
		t.Fatal(err)
	}
	oldImage := p.Image

	t.Run("fields only keeps image", func(t *testing.T) {
		in := f.input("Claw Hammer")
		n, err := f.svc.UpdateProduct(ctx, p.ID, in, nil)
		if err != nil || n != 1 {
			t.Fatalf("UpdateProduct = %d, %v", n, err)
		}
		got, _ := f.svc.GetProduct(ctx, p.ID)
		if got.Name != "Claw Hammer" || got.Image != oldImage {
			t.Errorf("after update = %+v", got)
		}
	})

	t.Run("new image with another extension", func(t *testing.T) {
		n, err := f.svc.UpdateProduct(ctx, p.ID, f.input("Claw Hammer"), pngUpload(t, "new.png"))
		if err != nil || n != 1 {
			t.Fatalf("UpdateProduct = %d, %v", n, err)
		}
		got, _ := f.svc.GetProduct(ctx, p.ID)
		want := assets.CanonicalName(p.ID, ".png")
		if got.Image != want || got.ImageStatus != models.ImageReady {
			t.Errorf("after update = %+v, want %s", got, want)
		}
		if f.pipeline.Exists(oldImage) || f.pipeline.Exists("thumb_"+oldImage) {
			t.Errorf("old image files not removed: %v", f.files(t))
		}
	})

	t.Run("missing product leaves disk alone", func(t *testing.T) {
		before := f.files(t)
		n, err := f.svc.UpdateProduct(ctx, 999, f.input("Ghost"), jpegUpload(t, "ghost.jpg"))
		if err != nil || n != 0 {
			t.Fatalf("UpdateProduct = %d, %v; want 0, nil", n, err)
		}
		if after := f.files(t); len(after) != len(before) {
			t.Errorf("files changed: %v -> %v", before, after)
		}
	})

	t.Run("missing name", func(t *testing.T) {
		in := f.input("")
		if _, err := f.svc.UpdateProduct(ctx, p.ID, in, nil); KindOf(err) != KindValidation {
			t.Errorf("error = %v, want validation", err)
		}
	})
}

func TestUpdateProductUnknownCategoryLeavesFiles(t *testing.T) {
	tests := []struct {
		name   string
		upload func(t *testing.T) *assets.Upload
	}{
		{name: "other extension", upload: func(t *testing.T) *assets.Upload { return pngUpload(t, "b.png") }},
		{name: "same extension", upload: func(t *testing.T) *assets.Upload { return jpegUpload(t, "b.jpg") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()

			p, err := f.svc.CreateProduct(ctx, f.input("Hammer"), jpegUpload(t, "a.jpg"))
			if err != nil {
				t.Fatal(err)
			}
			before := f.files(t)
			main, err := os.ReadFile(filepath.Join(f.pipeline.Dir(), p.Image))
			if err != nil {
				t.Fatal(err)
			}

			in := f.input("Hammer")
			in.CategoryID = 999
			n, err := f.svc.UpdateProduct(ctx, p.ID, in, tt.upload(t))
			if KindOf(err) != KindValidation || n != 0 {
				t.Fatalf("UpdateProduct = %d, %v; want validation error", n, err)
			}

			if after := f.files(t); !slices.Equal(before, after) {
				t.Errorf("files changed: %v -> %v", before, after)
			}
			got, _ := os.ReadFile(filepath.Join(f.pipeline.Dir(), p.Image))
			if !bytes.Equal(got, main) {
				t.Error("live image was replaced by a rejected update")
			}
		})
	}
}

// failingUpdateRepo rejects every UpdateWithImage call.
type failingUpdateRepo struct {
	*store.MemoryProductStore
}

func (r *failingUpdateRepo) UpdateWithImage(ctx context.Context, p *models.Product) (int64, error) {
	return 0, errors.New("update product: connection reset")
}

func TestUpdateProductStoreFailureRemovesNewImage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.CreateProduct(ctx, f.input("Hammer"), jpegUpload(t, "a.jpg"))
	if err != nil {
		t.Fatal(err)
	}
	before := f.files(t)

	svc := NewService(f.mem.Categories(), &failingUpdateRepo{f.mem.Products()}, f.pipeline, nil)
	if _, err := svc.UpdateProduct(ctx, p.ID, f.input("Hammer"), pngUpload(t, "b.png")); KindOf(err) != KindStore {
		t.Fatalf("error = %v, want store error", err)
	}

	if after := f.files(t); !slices.Equal(before, after) {
		t.Errorf("files changed: %v -> %v", before, after)
	}
	got, _ := f.svc.GetProduct(ctx, p.ID)
	if got.Image != p.Image {
		t.Errorf("image = %s, want %s", got.Image, p.Image)
	}
}

func TestDeleteProductRemovesFiles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.CreateProduct(ctx, f.input("Hammer"), jpegUpload(t, "hammer.jpg"))
	if err != nil {
		t.Fatal(err)
	}

	n, err := f.svc.DeleteProduct(ctx, p.ID)
	if err != nil || n != 1 {
		t.Fatalf("DeleteProduct = %d, %v", n, err)
	}
	if files := f.files(t); len(files) != 0 {
		t.Errorf("files left after delete: %v", files)
	}
	got, _ := f.svc.GetProduct(ctx, p.ID)
	if got != nil {
		t.Errorf("GetProduct after delete = %+v", got)
	}

	n, err = f.svc.DeleteProduct(ctx, p.ID)
	if err != nil || n != 0 {
		t.Errorf("second DeleteProduct = %d, %v; want 0, nil", n, err)
	}
}

func TestCategories(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	books, err := f.svc.CreateCategory(ctx, "Books")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := f.svc.CreateCategory(ctx, "Tools"); KindOf(err) != KindConflict {
		t.Errorf("duplicate create = %v, want conflict", err)
	}
	if _, err := f.svc.CreateCategory(ctx, " "); KindOf(err) != KindValidation {
		t.Errorf("empty create = %v, want validation", err)
	}

	// Renaming onto an existing name is refused.
	if _, err := f.svc.RenameCategory(ctx, books.ID, "Tools"); KindOf(err) != KindConflict {
		t.Errorf("rename to existing = %v, want conflict", err)
	}
	if n, err := f.svc.RenameCategory(ctx, 404, "Nowhere"); err != nil || n != 0 {
		t.Errorf("rename missing = %d, %v", n, err)
	}

	if _, err := f.svc.CreateProduct(ctx, f.input("Hammer"), jpegUpload(t, "h.jpg")); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.DeleteCategory(ctx, f.tools.ID); KindOf(err) != KindConflict {
		t.Errorf("delete in-use = %v, want conflict", err)
	}
	if n, err := f.svc.DeleteCategory(ctx, books.ID); err != nil || n != 1 {
		t.Errorf("delete empty = %d, %v", n, err)
	}

	list, _ := f.svc.ListCategories(ctx)
	if len(list) != 1 || list[0].Name != "Tools" {
		t.Errorf("ListCategories = %+v", list)
	}
}

func TestListProductsFilter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	garden, _ := f.svc.CreateCategory(ctx, "Garden")

	if _, err := f.svc.CreateProduct(ctx, f.input("Hammer"), jpegUpload(t, "a.jpg")); err != nil {
		t.Fatal(err)
	}
	in := f.input("Rake")
	in.CategoryID = garden.ID
	if _, err := f.svc.CreateProduct(ctx, in, jpegUpload(t, "b.jpg")); err != nil {
		t.Fatal(err)
	}

	all, _ := f.svc.ListProducts(ctx, nil)
	onlyGarden, _ := f.svc.ListProducts(ctx, &garden.ID)
	unknown := int64(77)
	none, err := f.svc.ListProducts(ctx, &unknown)
	if err != nil {
		t.Fatal(err)
	}

	if len(all) != 2 || len(onlyGarden) != 1 || onlyGarden[0].Name != "Rake" || len(none) != 0 {
		t.Errorf("all=%d garden=%v unknown=%d", len(all), onlyGarden, len(none))
	}
}

func TestCacheInvalidatedOnWrite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.ListCategories(ctx); err != nil {
		t.Fatal(err)
	}
	if _, ok := f.cache.data["categories"]; !ok {
		t.Fatal("category list not cached")
	}

	before := f.cache.invalidated
	if _, err := f.svc.CreateCategory(ctx, "Garden"); err != nil {
		t.Fatal(err)
	}
	if f.cache.invalidated != before+1 {
		t.Errorf("invalidations = %d, want %d", f.cache.invalidated, before+1)
	}

	list, _ := f.svc.ListCategories(ctx)
	if len(list) != 2 {
		t.Errorf("ListCategories after write = %d, want 2", len(list))
	}
}

func TestStoreErrorsSurface(t *testing.T) {
	f := newFixture(t)
	f.mem.Err = errors.New("connection refused")

	_, err := f.svc.ListProducts(context.Background(), nil)
	if KindOf(err) != KindStore || err.Error() != "connection refused" {
		t.Errorf("error = %v (kind %v), want verbatim store error", err, KindOf(err))
	}
}
