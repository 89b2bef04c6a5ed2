package cart_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/storefront/internal/cart"
	"github.com/vasiliy-maslov/storefront/internal/storage"
)

const cartKey = "storefront:shopper-1:cart"

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockStorage) Put(ctx context.Context, key string, value []byte) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockStorage) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func newStore(t *testing.T) (*cart.Store, *storage.Memory) {
	t.Helper()

	mem := storage.NewMemory()
	s, err := cart.NewStore(context.Background(), mem, cartKey)
	require.NoError(t, err)
	return s, mem
}

func plywood(qty int) cart.Item {
	return cart.Item{ProductID: "marine-plywood", VariantID: "12mm", Name: "Marine Plywood 12mm", Price: 1150, Quantity: qty, Thickness: "12mm"}
}

func tile(qty int) cart.Item {
	return cart.Item{ProductID: "porcelain-floor-tile", VariantID: "60x60-matte-grey", Name: "Porcelain 60x60", Price: 1250, Quantity: qty}
}

func assertTotalsConsistent(t *testing.T, c cart.Cart) {
	t.Helper()

	var subtotal int64
	for _, it := range c.Items {
		subtotal += it.Price * int64(it.Quantity)
	}
	assert.Equal(t, subtotal, c.Totals.Subtotal)
	assert.Equal(t, c.Totals.Subtotal+c.Totals.Tax, c.Totals.Total)
	assert.Equal(t, decimal.NewFromInt(subtotal).Mul(cart.DefaultTaxRate).Round(0).IntPart(), c.Totals.Tax)
}

func TestStore_TotalsFollowEveryMutation(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	c, err := s.Add(ctx, plywood(2))
	require.NoError(t, err)
	assertTotalsConsistent(t, c)

	c, err = s.Add(ctx, tile(4))
	require.NoError(t, err)
	assertTotalsConsistent(t, c)

	c, err = s.UpdateQuantity(ctx, cart.ItemID("porcelain-floor-tile", "60x60-matte-grey"), 1)
	require.NoError(t, err)
	assertTotalsConsistent(t, c)
	assert.Equal(t, int64(2*1150+1250), c.Totals.Subtotal)

	c, err = s.Remove(ctx, cart.ItemID("marine-plywood", "12mm"))
	require.NoError(t, err)
	assertTotalsConsistent(t, c)
	assert.Equal(t, cart.Totals{Subtotal: 1250, Tax: 150, Total: 1400}, c.Totals)
}

func TestStore_MergeOnAdd(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	_, err := s.Add(ctx, plywood(2))
	require.NoError(t, err)
	c, err := s.Add(ctx, plywood(3))
	require.NoError(t, err)

	require.Len(t, c.Items, 1)
	assert.Equal(t, 5, c.Items[0].Quantity)
	assert.Equal(t, "marine-plywood:12mm", c.Items[0].ID)
}

func TestStore_ExampleTotals(t *testing.T) {
	s, _ := newStore(t)

	c, err := s.Add(context.Background(), cart.Item{ProductID: "p", VariantID: "v", Price: 10000, Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, cart.Totals{Subtotal: 20000, Tax: 2400, Total: 22400}, c.Totals)
}

func TestStore_TaxRounding(t *testing.T) {
	s, _ := newStore(t)

	// 685 * 0.12 = 82.2
	c, err := s.Add(context.Background(), cart.Item{ProductID: "p", VariantID: "v", Price: 685, Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, cart.Totals{Subtotal: 685, Tax: 82, Total: 767}, c.Totals)
}

func TestStore_CustomTaxRate(t *testing.T) {
	s, err := cart.NewStore(context.Background(), storage.NewMemory(), cartKey, cart.WithTaxRate(decimal.RequireFromString("0.05")))
	require.NoError(t, err)

	c, err := s.Add(context.Background(), cart.Item{ProductID: "p", VariantID: "v", Price: 1000, Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(50), c.Totals.Tax)
}

func TestStore_UpdateUnknownItemKeepsCart(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	before, err := s.Add(ctx, plywood(1))
	require.NoError(t, err)

	after, err := s.UpdateQuantity(ctx, "missing", 9)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestStore_ClearDeletesSnapshot(t *testing.T) {
	ctx := context.Background()
	s, mem := newStore(t)

	_, err := s.Add(ctx, plywood(1))
	require.NoError(t, err)
	_, err = mem.Get(ctx, cartKey)
	require.NoError(t, err)

	require.NoError(t, s.Clear(ctx))

	_, err = mem.Get(ctx, cartKey)
	require.ErrorIs(t, err, storage.ErrNotFound)
	assert.Equal(t, cart.Cart{Items: []cart.Item{}}, s.Snapshot())
	assert.Zero(t, s.Count())
}

func TestStore_ReloadsPersistedItems(t *testing.T) {
	ctx := context.Background()
	s, mem := newStore(t)

	_, err := s.Add(ctx, plywood(2))
	require.NoError(t, err)
	_, err = s.Add(ctx, tile(1))
	require.NoError(t, err)

	reloaded, err := cart.NewStore(ctx, mem, cartKey)
	require.NoError(t, err)
	assert.Equal(t, s.Snapshot(), reloaded.Snapshot())
}

func TestStore_SnapshotIsACopy(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	_, err := s.Add(ctx, plywood(2))
	require.NoError(t, err)

	snap := s.Snapshot()
	snap.Items[0].Quantity = 99

	item, ok := s.Item(cart.ItemID("marine-plywood", "12mm"))
	require.True(t, ok)
	assert.Equal(t, 2, item.Quantity)
}

func TestStore_PersistFailureLeavesCartUnchanged(t *testing.T) {
	ctx := context.Background()
	st := new(MockStorage)
	putErr := errors.New("disk full")

	st.On("Get", mock.Anything, cartKey).Return(nil, storage.ErrNotFound).Once()
	st.On("Put", mock.Anything, cartKey, mock.Anything).Return(putErr).Once()

	s, err := cart.NewStore(ctx, st, cartKey)
	require.NoError(t, err)

	_, err = s.Add(ctx, plywood(1))
	require.ErrorIs(t, err, putErr)
	assert.Zero(t, s.Count())
	assert.Equal(t, cart.Totals{}, s.Snapshot().Totals)
	st.AssertExpectations(t)
}

func TestNewStore_LoadFailure(t *testing.T) {
	st := new(MockStorage)
	st.On("Get", mock.Anything, cartKey).Return(nil, errors.New("timeout")).Once()

	s, err := cart.NewStore(context.Background(), st, cartKey)
	require.Error(t, err)
	require.Nil(t, s)
	st.AssertExpectations(t)
}
