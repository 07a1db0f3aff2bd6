package parking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoyalty(t *testing.T) {
	store := newFakeStore(1, 1)
	loyalty := NewLoyalty(store)
	ctx := context.Background()

	count, err := loyalty.TicketCount(ctx, "NEWCAR")
	require.NoError(t, err)
	assert.Zero(t, count)

	store.addClosedTickets("REGULAR", 2)
	regular, err := loyalty.IsRegular(ctx, "REGULAR")
	require.NoError(t, err)
	assert.False(t, regular, "two tickets is not enough")

	store.addClosedTickets("REGULAR", 1)
	regular, err = loyalty.IsRegular(ctx, "REGULAR")
	require.NoError(t, err)
	assert.True(t, regular)

	count, err = loyalty.TicketCount(ctx, "REGULAR")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestLoyaltyStoreFailure(t *testing.T) {
	store := newFakeStore(1, 1)
	store.failCount = true
	loyalty := NewLoyalty(store)

	_, err := loyalty.TicketCount(context.Background(), "ABC")
	assert.ErrorIs(t, err, ErrPersistence)

	regular, err := loyalty.IsRegular(context.Background(), "ABC")
	assert.ErrorIs(t, err, ErrPersistence)
	assert.False(t, regular)
}
