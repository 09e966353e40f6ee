package store

import (
	"context"
	"errors"
	"testing"

	"shopfront/internal/models"
)

func TestCategoryStoreCRUD(t *testing.T) {
	db := testDB(t)
	s := NewCategoryStore(db)
	ctx := context.Background()

	name := uniqueName("Tools")
	c, err := s.Create(ctx, name)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	t.Cleanup(func() { cleanCategory(db, c.ID) })

	if c.ID == 0 || c.Name != name {
		t.Fatalf("Create returned %+v", c)
	}

	found, err := s.FindByID(ctx, c.ID)
	if err != nil || found == nil || found.Name != name {
		t.Fatalf("FindByID = %+v, %v", found, err)
	}

	renamed := uniqueName("Hardware")
	n, err := s.Rename(ctx, c.ID, renamed)
	if err != nil || n != 1 {
		t.Fatalf("Rename = %d, %v; want 1, nil", n, err)
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var seen bool
	for i, item := range list {
		if i > 0 && list[i-1].ID >= item.ID {
			t.Errorf("List not in id order at %d", i)
		}
		if item.ID == c.ID {
			seen = item.Name == renamed
		}
	}
	if !seen {
		t.Error("renamed category not listed")
	}

	n, err = s.Delete(ctx, c.ID)
	if err != nil || n != 1 {
		t.Fatalf("Delete = %d, %v; want 1, nil", n, err)
	}
	n, err = s.Delete(ctx, c.ID)
	if err != nil || n != 0 {
		t.Fatalf("second Delete = %d, %v; want 0, nil", n, err)
	}
}

func TestCategoryStoreDuplicates(t *testing.T) {
	db := testDB(t)
	s := NewCategoryStore(db)
	ctx := context.Background()

	a, err := s.Create(ctx, uniqueName("A"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	t.Cleanup(func() { cleanCategory(db, a.ID) })
	b, err := s.Create(ctx, uniqueName("B"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	t.Cleanup(func() { cleanCategory(db, b.ID) })

	if _, err := s.Create(ctx, a.Name); !errors.Is(err, ErrDuplicateName) {
		t.Errorf("duplicate Create error = %v, want ErrDuplicateName", err)
	}

	// Renaming onto an existing name is refused by the unique constraint.
	if _, err := s.Rename(ctx, b.ID, a.Name); !errors.Is(err, ErrDuplicateName) {
		t.Errorf("duplicate Rename error = %v, want ErrDuplicateName", err)
	}
}

func TestCategoryStoreDeleteInUse(t *testing.T) {
	db := testDB(t)
	cats := NewCategoryStore(db)
	products := NewProductStore(db)
	ctx := context.Background()

	c, err := cats.Create(ctx, uniqueName("InUse"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	t.Cleanup(func() { cleanCategory(db, c.ID) })

	_, err = products.Create(ctx, &models.Product{
		CategoryID: c.ID, Name: "Widget", Price: price("1.00"), ImageStatus: models.ImageNone,
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}

	n, err := cats.Delete(ctx, c.ID)
	if !errors.Is(err, ErrCategoryInUse) || n != 0 {
		t.Fatalf("Delete = %d, %v; want 0, ErrCategoryInUse", n, err)
	}
}
