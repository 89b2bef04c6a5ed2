// Package profile stores the shopper's account settings shown on the dashboard.
package profile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vasiliy-maslov/storefront/internal/storage"
	"github.com/vasiliy-maslov/storefront/internal/validation"
)

type Profile struct {
	FirstName  string    `json:"first_name" validate:"required,min=2"`
	LastName   string    `json:"last_name" validate:"required,min=2"`
	Email      string    `json:"email" validate:"required,email"`
	Phone      string    `json:"phone" validate:"omitempty,ph_mobile"`
	Newsletter bool      `json:"newsletter"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type Store struct {
	mu        sync.Mutex
	storage   storage.Storage
	key       string
	validator *validation.Validator
	now       func() time.Time

	profile Profile
}

func NewStore(ctx context.Context, st storage.Storage, key string, v *validation.Validator) (*Store, error) {
	s := &Store{storage: st, key: key, validator: v, now: time.Now}

	if _, err := storage.LoadJSON(ctx, st, key, &s.profile); err != nil {
		return nil, fmt.Errorf("profile: failed to load: %w", err)
	}
	return s, nil
}

// Get returns the stored profile; the zero Profile when none was saved.
func (s *Store) Get() Profile {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.profile
}

func (s *Store) Update(ctx context.Context, p Profile) (Profile, error) {
	if err := s.validator.Struct(p); err != nil {
		return Profile{}, err
	}
	p.UpdatedAt = s.now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := storage.SaveJSON(ctx, s.storage, s.key, p); err != nil {
		return Profile{}, fmt.Errorf("profile: %w", err)
	}
	s.profile = p
	return p, nil
}
