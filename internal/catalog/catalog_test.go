package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticProviderStores(t *testing.T) {
	stores := []Store{
		{ID: "kroger", Name: "Kroger", DeliveryFee: 399},
		{ID: "walmart", Name: "Walmart", DeliveryFee: 299},
	}
	p := NewStaticProvider(stores, 499)

	got, err := p.Stores(context.Background())
	require.NoError(t, err)
	assert.Equal(t, stores, got)

	// Callers get a copy, not the backing slice.
	got[0].ID = "mutated"
	again, err := p.Stores(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "kroger", again[0].ID)
}

func TestStaticProviderDeliveryFee(t *testing.T) {
	p := NewStaticProvider([]Store{
		{ID: "kroger", DeliveryFee: 399},
	}, 499)

	assert.Equal(t, int64(399), p.DeliveryFee("kroger"))
	// Unknown stores fall back to the default fee.
	assert.Equal(t, int64(499), p.DeliveryFee("target"))
}

func TestSortByID(t *testing.T) {
	stores := []Store{
		{ID: "walmart"},
		{ID: "kroger"},
		{ID: "safeway"},
	}
	SortByID(stores)
	assert.Equal(t, "kroger", stores[0].ID)
	assert.Equal(t, "safeway", stores[1].ID)
	assert.Equal(t, "walmart", stores[2].ID)
}
