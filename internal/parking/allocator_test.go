package parking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReserveNextSpotLowestFirst(t *testing.T) {
	store := newFakeStore(2, 2)
	allocator := NewAllocator(store)
	ctx := context.Background()

	spot, err := allocator.ReserveNextSpot(ctx, CategoryBike)
	require.NoError(t, err)
	assert.Equal(t, 3, spot.ID)
	assert.Equal(t, CategoryBike, spot.Category)
	assert.False(t, spot.Available)
	assert.False(t, store.spot(3).Available)

	spot, err = allocator.ReserveNextSpot(ctx, CategoryCar)
	require.NoError(t, err)
	assert.Equal(t, 1, spot.ID)
}

func TestReserveNextSpotExhausted(t *testing.T) {
	store := newFakeStore(1, 0)
	allocator := NewAllocator(store)
	ctx := context.Background()

	_, err := allocator.ReserveNextSpot(ctx, CategoryCar)
	require.NoError(t, err)

	_, err = allocator.ReserveNextSpot(ctx, CategoryCar)
	assert.ErrorIs(t, err, ErrNoSpotAvailable)

	_, err = allocator.ReserveNextSpot(ctx, CategoryBike)
	assert.ErrorIs(t, err, ErrNoSpotAvailable)
}

func TestReserveNextSpotErrors(t *testing.T) {
	store := newFakeStore(1, 1)
	allocator := NewAllocator(store)

	_, err := allocator.ReserveNextSpot(context.Background(), Category("BUS"))
	assert.ErrorIs(t, err, ErrInvalidCategory)

	store.failClaim = true
	_, err = allocator.ReserveNextSpot(context.Background(), CategoryCar)
	assert.ErrorIs(t, err, ErrPersistence)
	assert.NotErrorIs(t, err, ErrNoSpotAvailable)
}

func TestReleaseRetriesTransientFailure(t *testing.T) {
	store := newFakeStore(1, 0)
	allocator := NewAllocator(store, WithReleaseRetry(3, time.Millisecond))
	ctx := context.Background()

	spot, err := allocator.ReserveNextSpot(ctx, CategoryCar)
	require.NoError(t, err)

	store.failRelease = 2
	require.NoError(t, allocator.Release(ctx, spot))
	assert.True(t, spot.Available)
	assert.True(t, store.spot(1).Available)
	assert.Equal(t, 3, store.releases)
}

func TestReleaseGivesUp(t *testing.T) {
	store := newFakeStore(1, 0)
	allocator := NewAllocator(store, WithReleaseRetry(2, time.Millisecond))
	ctx := context.Background()

	spot, err := allocator.ReserveNextSpot(ctx, CategoryCar)
	require.NoError(t, err)

	store.failRelease = 5
	err = allocator.Release(ctx, spot)
	assert.ErrorIs(t, err, ErrPersistence)
	assert.True(t, spot.Available, "in-memory spot is freed regardless")
	assert.False(t, store.spot(1).Available)
	assert.Equal(t, 2, store.releases)
}
