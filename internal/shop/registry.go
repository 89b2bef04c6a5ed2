package shop

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/storefront/internal/storage"
	"golang.org/x/sync/singleflight"
)

var ErrInvalidShopperID = errors.New("invalid shopper id")

var shopperIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Registry opens each shopper's shop on first use and keeps it for the
// lifetime of the process. Concurrent first requests for one shopper share a
// single Open; other shoppers are not held up by it.
type Registry struct {
	storage storage.Storage
	deps    Deps
	opening singleflight.Group

	mu    sync.Mutex
	shops map[string]*Shop
}

func NewRegistry(st storage.Storage, deps Deps) *Registry {
	return &Registry{
		storage: st,
		deps:    deps,
		shops:   make(map[string]*Shop),
	}
}

// ValidShopperID reports whether id can be used as a shopper id.
func ValidShopperID(id string) bool {
	return shopperIDPattern.MatchString(id)
}

func (r *Registry) Get(ctx context.Context, shopperID string) (*Shop, error) {
	if !ValidShopperID(shopperID) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidShopperID, shopperID)
	}

	if s, ok := r.lookup(shopperID); ok {
		return s, nil
	}

	v, err, _ := r.opening.Do(shopperID, func() (any, error) {
		if s, ok := r.lookup(shopperID); ok {
			return s, nil
		}

		s, err := Open(ctx, r.storage, shopperID, r.deps)
		if err != nil {
			log.Error().Err(err).Str("shopper_id", shopperID).Msg("shop: failed to open shop")
			return nil, err
		}

		r.mu.Lock()
		r.shops[shopperID] = s
		r.mu.Unlock()

		log.Debug().Str("shopper_id", shopperID).Msg("shop: opened shop")
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Shop), nil
}

func (r *Registry) lookup(shopperID string) (*Shop, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.shops[shopperID]
	return s, ok
}

// Len returns the number of open shops.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.shops)
}
