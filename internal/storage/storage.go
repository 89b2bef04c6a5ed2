// Package storage provides the key/value persistence port used by the shopper stores.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("storage: key not found")
	ErrSchemaMissing = errors.New("storage: state table does not exist, run migrations")
)

// Storage persists raw JSON snapshots by key. Get returns ErrNotFound for missing keys.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Key builds the storage key of a named snapshot owned by a shopper.
func Key(shopperID, name string) string {
	return "storefront:" + shopperID + ":" + name
}

// LoadJSON decodes the snapshot stored under key into dst.
// It reports false without error when nothing is stored.
func LoadJSON(ctx context.Context, s Storage, key string, dst any) (bool, error) {
	raw, err := s.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("storage: failed to load %s: %w", key, err)
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("storage: failed to decode %s: %w", key, err)
	}

	return true, nil
}

// SaveJSON encodes v and stores it under key.
func SaveJSON(ctx context.Context, s Storage, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("storage: failed to encode %s: %w", key, err)
	}

	if err := s.Put(ctx, key, raw); err != nil {
		return fmt.Errorf("storage: failed to save %s: %w", key, err)
	}

	return nil
}
