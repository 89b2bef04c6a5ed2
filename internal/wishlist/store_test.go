package wishlist_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/storefront/internal/storage"
	"github.com/vasiliy-maslov/storefront/internal/wishlist"
)

const wishlistKey = "storefront:shopper-1:wishlist"

func newStore(t *testing.T) (*wishlist.Store, *storage.Memory) {
	t.Helper()

	mem := storage.NewMemory()
	s, err := wishlist.NewStore(context.Background(), mem, wishlistKey)
	require.NoError(t, err)
	return s, mem
}

func TestStore_AddDeduplicates(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)
	item := wishlist.Item{ProductID: "marine-plywood", VariantID: "18mm", Name: "Marine Plywood 18mm", Price: 1680}

	added, err := s.Add(ctx, item)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = s.Add(ctx, item)
	require.NoError(t, err)
	assert.False(t, added)

	list := s.List()
	require.Len(t, list, 1)
	assert.Equal(t, "marine-plywood:18mm", list[0].ID)
	assert.False(t, list[0].AddedAt.IsZero())
	assert.True(t, s.Contains("marine-plywood", "18mm"))
}

func TestStore_RemoveAndClear(t *testing.T) {
	ctx := context.Background()
	s, mem := newStore(t)

	_, err := s.Add(ctx, wishlist.Item{ProductID: "a", VariantID: "1"})
	require.NoError(t, err)
	_, err = s.Add(ctx, wishlist.Item{ProductID: "b", VariantID: "1"})
	require.NoError(t, err)

	require.NoError(t, s.Remove(ctx, "a:1"))
	require.ErrorIs(t, s.Remove(ctx, "a:1"), wishlist.ErrItemNotFound)
	assert.Len(t, s.List(), 1)

	require.NoError(t, s.Clear(ctx))
	assert.Empty(t, s.List())

	reloaded, err := wishlist.NewStore(ctx, mem, wishlistKey)
	require.NoError(t, err)
	assert.Empty(t, reloaded.List())
}

// putFails rejects every write.
type putFails struct {
	*storage.Memory
}

func (putFails) Put(context.Context, string, []byte) error {
	return errors.New("disk full")
}

func TestStore_PersistFailureLeavesWishlistUnchanged(t *testing.T) {
	s, err := wishlist.NewStore(context.Background(), putFails{storage.NewMemory()}, wishlistKey)
	require.NoError(t, err)

	added, err := s.Add(context.Background(), wishlist.Item{ProductID: "marine-plywood", VariantID: "18mm", Price: 10000})
	require.Error(t, err)
	assert.False(t, added)
	assert.Empty(t, s.List())
}
