package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"shopfront/internal/models"
)

// Memory is an in-memory catalog with the same observable behavior as the
// PostgreSQL stores: unique category names, restricted category deletion,
// unknown-category rejection and id ordering.
type Memory struct {
	mu         sync.Mutex
	categories []models.Category
	products   []models.Product
	nextCat    int64
	nextProd   int64

	// Err, when set, is returned by every operation.
	Err error
}

// NewMemory returns an empty in-memory catalog.
func NewMemory() *Memory {
	return &Memory{nextCat: 1, nextProd: 1}
}

// Categories returns the category view of the catalog.
func (m *Memory) Categories() *MemoryCategoryStore { return &MemoryCategoryStore{m: m} }

// Products returns the product view of the catalog.
func (m *Memory) Products() *MemoryProductStore { return &MemoryProductStore{m: m} }

func (m *Memory) hasCategory(id int64) bool {
	for _, c := range m.categories {
		if c.ID == id {
			return true
		}
	}
	return false
}

// MemoryCategoryStore is the in-memory counterpart of CategoryStore.
type MemoryCategoryStore struct{ m *Memory }

func (s *MemoryCategoryStore) List(ctx context.Context) ([]models.Category, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.m.Err != nil {
		return nil, s.m.Err
	}
	return append([]models.Category{}, s.m.categories...), nil
}

func (s *MemoryCategoryStore) FindByID(ctx context.Context, id int64) (*models.Category, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.m.Err != nil {
		return nil, s.m.Err
	}
	for _, c := range s.m.categories {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, nil
}

func (s *MemoryCategoryStore) Create(ctx context.Context, name string) (*models.Category, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.m.Err != nil {
		return nil, s.m.Err
	}
	for _, c := range s.m.categories {
		if c.Name == name {
			return nil, fmt.Errorf("create category %q: %w", name, ErrDuplicateName)
		}
	}
	c := models.Category{ID: s.m.nextCat, Name: name, CreatedAt: time.Now()}
	s.m.nextCat++
	s.m.categories = append(s.m.categories, c)
	return &c, nil
}

func (s *MemoryCategoryStore) Rename(ctx context.Context, id int64, name string) (int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.m.Err != nil {
		return 0, s.m.Err
	}
	idx := -1
	for i, c := range s.m.categories {
		if c.ID == id {
			idx = i
		}
	}
	if idx < 0 {
		return 0, nil
	}
	for _, c := range s.m.categories {
		if c.Name == name && c.ID != id {
			return 0, fmt.Errorf("rename category %d to %q: %w", id, name, ErrDuplicateName)
		}
	}
	s.m.categories[idx].Name = name
	return 1, nil
}

func (s *MemoryCategoryStore) Delete(ctx context.Context, id int64) (int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.m.Err != nil {
		return 0, s.m.Err
	}
	for _, p := range s.m.products {
		if p.CategoryID == id {
			return 0, fmt.Errorf("delete category %d: %w", id, ErrCategoryInUse)
		}
	}
	for i, c := range s.m.categories {
		if c.ID == id {
			s.m.categories = append(s.m.categories[:i], s.m.categories[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

// MemoryProductStore is the in-memory counterpart of ProductStore.
type MemoryProductStore struct{ m *Memory }

func (s *MemoryProductStore) List(ctx context.Context, categoryID *int64) ([]models.Product, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.m.Err != nil {
		return nil, s.m.Err
	}
	items := []models.Product{}
	for _, p := range s.m.products {
		if categoryID == nil || p.CategoryID == *categoryID {
			items = append(items, p)
		}
	}
	return items, nil
}

func (s *MemoryProductStore) FindByID(ctx context.Context, id int64) (*models.Product, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.m.Err != nil {
		return nil, s.m.Err
	}
	if i := s.index(id); i >= 0 {
		p := s.m.products[i]
		return &p, nil
	}
	return nil, nil
}

func (s *MemoryProductStore) Create(ctx context.Context, p *models.Product) (*models.Product, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.m.Err != nil {
		return nil, s.m.Err
	}
	if !s.m.hasCategory(p.CategoryID) {
		return nil, fmt.Errorf("create product: %w", ErrUnknownCategory)
	}
	created := *p
	created.ID = s.m.nextProd
	created.CreatedAt = time.Now()
	created.UpdatedAt = created.CreatedAt
	s.m.nextProd++
	s.m.products = append(s.m.products, created)
	return &created, nil
}

func (s *MemoryProductStore) Update(ctx context.Context, p *models.Product) (int64, error) {
	return s.update(p.ID, p.CategoryID, func(cur *models.Product) {
		cur.CategoryID = p.CategoryID
		cur.Name = p.Name
		cur.Price = p.Price
		cur.Description = p.Description
	})
}

func (s *MemoryProductStore) UpdateWithImage(ctx context.Context, p *models.Product) (int64, error) {
	return s.update(p.ID, p.CategoryID, func(cur *models.Product) {
		cur.CategoryID = p.CategoryID
		cur.Name = p.Name
		cur.Price = p.Price
		cur.Description = p.Description
		cur.Image = p.Image
		cur.ImageStatus = p.ImageStatus
	})
}

func (s *MemoryProductStore) SetImage(ctx context.Context, id int64, image string, status models.ImageStatus) (int64, error) {
	return s.update(id, 0, func(cur *models.Product) {
		cur.Image = image
		cur.ImageStatus = status
	})
}

func (s *MemoryProductStore) Delete(ctx context.Context, id int64) (*models.Product, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.m.Err != nil {
		return nil, s.m.Err
	}
	i := s.index(id)
	if i < 0 {
		return nil, nil
	}
	p := s.m.products[i]
	s.m.products = append(s.m.products[:i], s.m.products[i+1:]...)
	return &p, nil
}

func (s *MemoryProductStore) ListPendingImages(ctx context.Context, limit int) ([]models.Product, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.m.Err != nil {
		return nil, s.m.Err
	}
	items := []models.Product{}
	for _, p := range s.m.products {
		if p.ImageStatus.Pending() && len(items) < limit {
			items = append(items, p)
		}
	}
	return items, nil
}

// update applies fn to product id. A non-zero categoryID is checked first.
func (s *MemoryProductStore) update(id, categoryID int64, fn func(*models.Product)) (int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.m.Err != nil {
		return 0, s.m.Err
	}
	i := s.index(id)
	if i < 0 {
		return 0, nil
	}
	if categoryID != 0 && !s.m.hasCategory(categoryID) {
		return 0, fmt.Errorf("update product: %w", ErrUnknownCategory)
	}
	fn(&s.m.products[i])
	s.m.products[i].UpdatedAt = time.Now()
	return 1, nil
}

func (s *MemoryProductStore) index(id int64) int {
	for i, p := range s.m.products {
		if p.ID == id {
			return i
		}
	}
	return -1
}
