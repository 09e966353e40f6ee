package storefront

import (
	"path/filepath"
	"testing"
)

func TestBoltStorePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cart.db")

	s, err := OpenBolt(path)
	if err != nil {
		t.Fatal(err)
	}
	empty, err := s.Load()
	if err != nil || !empty.Empty() {
		t.Fatalf("fresh Load = %+v, %v", empty, err)
	}

	var c Cart
	c.Add(1, "Hammer", d("12.5"), 2)
	if err := s.Save(&c); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s, err = OpenBolt(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	got, err := s.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Lines) != 1 || got.Lines[0].Qty != 2 || !got.Lines[0].Price.Equal(d("12.5")) {
		t.Errorf("reloaded cart = %+v", got)
	}
}

func TestBoltStoreLastWriteWins(t *testing.T) {
	s, err := OpenBolt(filepath.Join(t.TempDir(), "cart.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	var a, b Cart
	a.Add(1, "a", d("1"), 1)
	b.Add(2, "b", d("2"), 1)
	s.Save(&a)
	s.Save(&b)

	got, _ := s.Load()
	if len(got.Lines) != 1 || got.Lines[0].ProductID != 2 {
		t.Errorf("got %+v", got)
	}
}

func TestMemoryStoreCopies(t *testing.T) {
	s := &MemoryStore{}
	var c Cart
	c.Add(1, "a", d("1"), 1)
	s.Save(&c)
	c.Add(1, "a", d("1"), 5)

	got, _ := s.Load()
	if got.Lines[0].Qty != 1 {
		t.Errorf("saved cart was mutated: %+v", got)
	}
}
