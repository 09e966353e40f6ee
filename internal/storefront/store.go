package storefront

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	bucketName = []byte("storefront")
	cartKey    = []byte("cart")
)

// Store persists the cart between sessions.
type Store interface {
	Load() (*Cart, error)
	Save(cart *Cart) error
}

// BoltStore keeps the cart in a local bbolt file. The last write wins.
type BoltStore struct {
	db *bolt.DB
}

// OpenBolt opens or creates the cart file at path.
func OpenBolt(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open cart store %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create cart bucket: %w", err)
	}
	return &BoltStore{db: db}, nil
}

// Load returns the saved cart, or an empty cart if none was saved.
func (s *BoltStore) Load() (*Cart, error) {
	cart := &Cart{}
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketName).Get(cartKey)
		if raw == nil {
			return nil
		}
		return json.Unmarshal(raw, cart)
	})
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	return cart, nil
}

// Save replaces the saved cart.
func (s *BoltStore) Save(cart *Cart) error {
	raw, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Put(cartKey, raw)
	})
	if err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

// Close releases the file lock.
func (s *BoltStore) Close() error { return s.db.Close() }

// MemoryStore keeps the cart in memory, for tests and throwaway sessions.
type MemoryStore struct {
	mu    sync.Mutex
	raw   []byte
	Saves int
}

// Load returns a copy of the last saved cart.
func (s *MemoryStore) Load() (*Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cart := &Cart{}
	if s.raw == nil {
		return cart, nil
	}
	if err := json.Unmarshal(s.raw, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// Save stores a copy of cart.
func (s *MemoryStore) Save(cart *Cart) error {
	raw, err := json.Marshal(cart)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw = raw
	s.Saves++
	return nil
}
