// Package state holds the console's last-known-good copies of the remote
// collections. Snapshots change only through Refresh and Clear.
package state

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/entity"
	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/repository"
)

// Collection names one of the mirrored remote collections.
type Collection string

const (
	Profiles Collection = "profiles"
	Products Collection = "products"
	Orders   Collection = "orders"
)

// Collections lists every mirrored collection.
var Collections = []Collection{Profiles, Products, Orders}

// ParseCollection returns the collection named by v.
func ParseCollection(v string) (Collection, error) {
	for _, c := range Collections {
		if string(c) == v {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown collection %q", v)
}

// Status reports when a collection was last refreshed and whether the most
// recent attempt failed. A failed refresh leaves the previous snapshot in
// place, so LastError set means the data shown may be stale.
type Status struct {
	RefreshedAt time.Time `json:"refreshed_at"`
	LastError   string    `json:"last_error,omitempty"`
}

// Refresher is the single mutation entry point used by the write handlers.
type Refresher interface {
	Refresh(ctx context.Context, c Collection) error
}

// Store mirrors the three collections in memory.
type Store struct {
	profilesRepo repository.ProfileRepository
	productsRepo repository.ProductRepository
	ordersRepo   repository.OrderRepository
	now          func() time.Time

	mu       sync.RWMutex
	profiles []entity.Profile
	products []entity.Product
	orders   []entity.Order
	status   map[Collection]Status
	// generation advances on Clear; fetches started under an older
	// generation are discarded.
	generation uint64
}

func NewStore(profiles repository.ProfileRepository, products repository.ProductRepository, orders repository.OrderRepository) *Store {
	return &Store{
		profilesRepo: profiles,
		productsRepo: products,
		ordersRepo:   orders,
		now:          func() time.Time { return time.Now().UTC() },
		status:       make(map[Collection]Status),
	}
}

// Refresh fetches the full collection and replaces its snapshot. On failure
// the previous snapshot is kept and the error is recorded and returned.
//
// A fetch that is still in flight when Clear runs is dropped, so a cleared
// store stays empty until the next refresh starts.
func (s *Store) Refresh(ctx context.Context, c Collection) error {
	s.mu.RLock()
	gen := s.generation
	s.mu.RUnlock()

	var err error
	switch c {
	case Profiles:
		var rows []entity.Profile
		if rows, err = s.profilesRepo.FindAll(ctx); err == nil {
			s.swap(c, gen, func() { s.profiles = rows })
		}
	case Products:
		var rows []entity.Product
		if rows, err = s.productsRepo.FindAll(ctx); err == nil {
			s.swap(c, gen, func() { s.products = rows })
		}
	case Orders:
		var rows []entity.Order
		if rows, err = s.ordersRepo.FindAll(ctx); err == nil {
			s.swap(c, gen, func() { s.orders = rows })
		}
	default:
		return fmt.Errorf("unknown collection %q", c)
	}

	if err != nil {
		err = fmt.Errorf("failed to refresh %s: %w", c, err)
		slog.Error("State: Refresh failed, keeping previous snapshot", "collection", c, "err", err)

		s.mu.Lock()
		if s.generation == gen {
			st := s.status[c]
			st.LastError = err.Error()
			s.status[c] = st
		}
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) swap(c Collection, gen uint64, assign func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != gen {
		slog.Info("State: Discarding refresh started before clear", "collection", c)
		return
	}
	assign()
	s.status[c] = Status{RefreshedAt: s.now()}
}

// RefreshAll refreshes every collection concurrently. Each refresh succeeds
// or fails on its own; the failures are combined.
func (s *Store) RefreshAll(ctx context.Context) error {
	errs := make([]error, len(Collections))
	var g errgroup.Group
	for i, c := range Collections {
		g.Go(func() error {
			errs[i] = s.Refresh(ctx, c)
			return nil
		})
	}
	g.Wait()
	return multierr.Combine(errs...)
}

// Clear empties every snapshot and forgets their status.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.profiles = nil
	s.products = nil
	s.orders = nil
	s.status = make(map[Collection]Status)
}

// Profiles returns a copy of the profile snapshot.
func (s *Store) Profiles() []entity.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]entity.Profile, len(s.profiles))
	copy(out, s.profiles)
	return out
}

// Products returns a copy of the product snapshot.
func (s *Store) Products() []entity.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]entity.Product, len(s.products))
	for i, p := range s.products {
		out[i] = p.Clone()
	}
	return out
}

// Orders returns a copy of the order snapshot.
func (s *Store) Orders() []entity.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]entity.Order, len(s.orders))
	for i, o := range s.orders {
		out[i] = o.Clone()
	}
	return out
}

// Status returns the refresh status of every collection that has been
// refreshed or has failed since the last Clear.
func (s *Store) Status() map[Collection]Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[Collection]Status, len(s.status))
	for c, st := range s.status {
		out[c] = st
	}
	return out
}
