// Package wishlist keeps saved-for-later products, one entry per product variant.
package wishlist

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/storefront/internal/storage"
)

var ErrItemNotFound = errors.New("wishlist item not found")

type Item struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	VariantID string    `json:"variant_id"`
	Name      string    `json:"name"`
	Image     string    `json:"image,omitempty"`
	Price     int64     `json:"price"`
	AddedAt   time.Time `json:"added_at"`
}

func ItemID(productID, variantID string) string {
	return productID + ":" + variantID
}

type Store struct {
	mu      sync.Mutex
	storage storage.Storage
	key     string
	now     func() time.Time

	items []Item
}

func NewStore(ctx context.Context, st storage.Storage, key string) (*Store, error) {
	s := &Store{storage: st, key: key, now: time.Now, items: []Item{}}

	var items []Item
	found, err := storage.LoadJSON(ctx, st, key, &items)
	if err != nil {
		return nil, fmt.Errorf("wishlist: failed to load: %w", err)
	}
	if found && items != nil {
		s.items = items
	}

	return s, nil
}

// Add saves item unless the same product variant is already saved.
// It reports whether the item was added.
func (s *Store) Add(ctx context.Context, item Item) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, it := range s.items {
		if it.ProductID == item.ProductID && it.VariantID == item.VariantID {
			return false, nil
		}
	}

	item.ID = ItemID(item.ProductID, item.VariantID)
	item.AddedAt = s.now().UTC()

	next := append(append(make([]Item, 0, len(s.items)+1), s.items...), item)
	if err := s.commit(ctx, next); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]Item, 0, len(s.items))
	for _, it := range s.items {
		if it.ID != id {
			next = append(next, it)
		}
	}
	if len(next) == len(s.items) {
		return ErrItemNotFound
	}

	return s.commit(ctx, next)
}

func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.commit(ctx, []Item{})
}

func (s *Store) Get(id string) (Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, it := range s.items {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

func (s *Store) Contains(productID, variantID string) bool {
	_, ok := s.Get(ItemID(productID, variantID))
	return ok
}

func (s *Store) List() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]Item(nil), s.items...)
}

func (s *Store) commit(ctx context.Context, next []Item) error {
	if err := storage.SaveJSON(ctx, s.storage, s.key, next); err != nil {
		log.Error().Err(err).Str("key", s.key).Msg("wishlist: failed to persist snapshot")
		return fmt.Errorf("wishlist: %w", err)
	}
	s.items = next
	return nil
}
