// Package cart implements the shopper's cart with totals derived on every mutation.
package cart

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/vasiliy-maslov/storefront/internal/storage"
)

type Store struct {
	mu      sync.Mutex
	storage storage.Storage
	key     string
	taxRate decimal.Decimal

	items  []Item
	totals Totals
}

type Option func(*Store)

func WithTaxRate(rate decimal.Decimal) Option {
	return func(s *Store) {
		s.taxRate = rate
	}
}

// NewStore loads the cart persisted under key.
func NewStore(ctx context.Context, st storage.Storage, key string, opts ...Option) (*Store, error) {
	s := &Store{
		storage: st,
		key:     key,
		taxRate: DefaultTaxRate,
		items:   []Item{},
	}
	for _, opt := range opts {
		opt(s)
	}

	var items []Item
	found, err := storage.LoadJSON(ctx, st, key, &items)
	if err != nil {
		return nil, fmt.Errorf("cart: failed to load: %w", err)
	}
	if found && items != nil {
		s.items = items
	}
	s.totals = ComputeTotals(s.items, s.taxRate)

	return s, nil
}

// Add merges item into the line with the same product and variant, or appends it.
func (s *Store) Add(ctx context.Context, item Item) (Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item.ID = ItemID(item.ProductID, item.VariantID)

	next := CloneItems(s.items)
	merged := false
	for i := range next {
		if next[i].ProductID == item.ProductID && next[i].VariantID == item.VariantID {
			next[i].Quantity += item.Quantity
			merged = true
			break
		}
	}
	if !merged {
		next = append(next, item)
	}

	if err := s.commit(ctx, next); err != nil {
		return Cart{}, err
	}
	return s.snapshot(), nil
}

// UpdateQuantity sets the quantity of line id. Callers reject non-positive values.
func (s *Store) UpdateQuantity(ctx context.Context, id string, quantity int) (Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := CloneItems(s.items)
	for i := range next {
		if next[i].ID == id {
			next[i].Quantity = quantity
		}
	}

	if err := s.commit(ctx, next); err != nil {
		return Cart{}, err
	}
	return s.snapshot(), nil
}

func (s *Store) Remove(ctx context.Context, id string) (Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]Item, 0, len(s.items))
	for _, it := range s.items {
		if it.ID != id {
			next = append(next, it)
		}
	}

	if err := s.commit(ctx, next); err != nil {
		return Cart{}, err
	}
	return s.snapshot(), nil
}

// Clear empties the cart and deletes its persisted snapshot.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.storage.Delete(ctx, s.key); err != nil {
		log.Error().Err(err).Str("key", s.key).Msg("cart: failed to delete snapshot")
		return fmt.Errorf("cart: failed to clear: %w", err)
	}

	s.items = []Item{}
	s.totals = Totals{}
	return nil
}

func (s *Store) Snapshot() Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.snapshot()
}

func (s *Store) Item(id string) (Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, it := range s.items {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

// Count is the number of distinct lines.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.items)
}

func (s *Store) commit(ctx context.Context, next []Item) error {
	if err := storage.SaveJSON(ctx, s.storage, s.key, next); err != nil {
		log.Error().Err(err).Str("key", s.key).Msg("cart: failed to persist snapshot")
		return fmt.Errorf("cart: %w", err)
	}

	s.items = next
	s.totals = ComputeTotals(next, s.taxRate)
	return nil
}

func (s *Store) snapshot() Cart {
	return Cart{
		Items:  CloneItems(s.items),
		Totals: s.totals,
	}
}
