// Package address implements the saved address book. Within each address type
// at most one address is the default.
package address

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/storefront/internal/storage"
	"github.com/vasiliy-maslov/storefront/internal/validation"
)

var ErrAddressNotFound = errors.New("address not found")

type Store struct {
	mu        sync.Mutex
	storage   storage.Storage
	key       string
	validator *validation.Validator
	now       func() time.Time

	addresses []Address
}

func NewStore(ctx context.Context, st storage.Storage, key string, v *validation.Validator) (*Store, error) {
	s := &Store{
		storage:   st,
		key:       key,
		validator: v,
		now:       time.Now,
		addresses: []Address{},
	}

	var addresses []Address
	found, err := storage.LoadJSON(ctx, st, key, &addresses)
	if err != nil {
		return nil, fmt.Errorf("address: failed to load: %w", err)
	}
	if found && addresses != nil {
		s.addresses = addresses
	}

	return s, nil
}

// Add stores a with a fresh id. A default address clears the flag on its siblings.
func (s *Store) Add(ctx context.Context, a Address) (Address, error) {
	if err := s.validator.Struct(a); err != nil {
		return Address{}, err
	}

	id, err := uuid.NewV4()
	if err != nil {
		return Address{}, fmt.Errorf("address: failed to generate id: %w", err)
	}
	a.ID = id.String()
	a.CreatedAt = s.now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]Address, 0, len(s.addresses)+1)
	for _, existing := range s.addresses {
		if a.IsDefault && existing.Type == a.Type {
			existing.IsDefault = false
		}
		next = append(next, existing)
	}
	next = append(next, a)

	if err := s.commit(ctx, next); err != nil {
		return Address{}, err
	}

	log.Debug().Str("address_id", a.ID).Str("type", string(a.Type)).Bool("default", a.IsDefault).Msg("address: added")
	return a, nil
}

// SetDefault makes id the only default among addresses of type t.
func (s *Store) SetDefault(ctx context.Context, id string, t Type) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	for _, a := range s.addresses {
		if a.ID == id && a.Type == t {
			found = true
			break
		}
	}
	if !found {
		return ErrAddressNotFound
	}

	next := make([]Address, len(s.addresses))
	for i, a := range s.addresses {
		if a.Type == t {
			a.IsDefault = a.ID == id
		}
		next[i] = a
	}

	return s.commit(ctx, next)
}

// Delete removes id. A deleted default is not replaced.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]Address, 0, len(s.addresses))
	for _, a := range s.addresses {
		if a.ID != id {
			next = append(next, a)
		}
	}
	if len(next) == len(s.addresses) {
		return ErrAddressNotFound
	}

	return s.commit(ctx, next)
}

func (s *Store) List() []Address {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]Address(nil), s.addresses...)
}

// Default returns the default address of type t, if any.
func (s *Store) Default(t Type) (Address, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.addresses {
		if a.Type == t && a.IsDefault {
			return a, true
		}
	}
	return Address{}, false
}

func (s *Store) commit(ctx context.Context, next []Address) error {
	if err := storage.SaveJSON(ctx, s.storage, s.key, next); err != nil {
		return fmt.Errorf("address: %w", err)
	}
	s.addresses = next
	return nil
}
