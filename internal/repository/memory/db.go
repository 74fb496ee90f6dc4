// Package memory is an in-process implementation of the data gateway. It
// enforces the same foreign keys as the Postgres schema so that the console
// behaves identically against both backends.
package memory

import (
	"fmt"
	"sync"
	"time"

	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/entity"
	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/repository"
)

// DB holds every table of the in-memory store.
type DB struct {
	mu       sync.RWMutex
	profiles []entity.Profile
	products []entity.Product
	orders   []entity.Order
	items    []entity.OrderItem
	objects  map[string]repository.Object

	now func() time.Time
}

func NewDB() *DB {
	return &DB{
		objects: make(map[string]repository.Object),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Profiles returns the profile table adapter.
func (db *DB) Profiles() repository.ProfileRepository { return &profileRepository{db: db} }

// Products returns the product table adapter.
func (db *DB) Products() repository.ProductRepository { return &productRepository{db: db} }

// Orders returns the order table adapter.
func (db *DB) Orders() repository.OrderRepository { return &orderRepository{db: db} }

// OrderItems returns the order_items table adapter.
func (db *DB) OrderItems() repository.OrderItemRepository { return &orderItemRepository{db: db} }

// Blobs returns a blob store whose public URLs are rooted at baseURL.
func (db *DB) Blobs(baseURL string) repository.BlobStore {
	return &blobStore{db: db, baseURL: baseURL}
}

// InsertProfile stores a profile row. The identity provider calls it when a
// user signs up.
func (db *DB) InsertProfile(p entity.Profile) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.profileIndex(p.ID) >= 0 {
		return fmt.Errorf("duplicate key value violates unique constraint \"profiles_pkey\": %s", p.ID)
	}
	db.profiles = append(db.profiles, p)
	return nil
}

func (db *DB) profileIndex(id string) int {
	for i := range db.profiles {
		if db.profiles[i].ID == id {
			return i
		}
	}
	return -1
}

func (db *DB) productIndex(id string) int {
	for i := range db.products {
		if db.products[i].ID == id {
			return i
		}
	}
	return -1
}

func (db *DB) orderIndex(id string) int {
	for i := range db.orders {
		if db.orders[i].ID == id {
			return i
		}
	}
	return -1
}

func notFound(table, id string) error {
	return fmt.Errorf("%s %s: %w", table, id, repository.ErrNotFound)
}

// SeedProducts inserts products with caller-chosen ids, skipping ids that
// already exist.
func (db *DB) SeedProducts(products ...entity.Product) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, p := range products {
		if db.productIndex(p.ID) >= 0 {
			continue
		}
		if p.CreatedAt.IsZero() {
			p.CreatedAt = db.now()
		}
		db.products = append(db.products, p.Clone())
	}
}
