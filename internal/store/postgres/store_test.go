package postgres

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"parking-system/internal/parking"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore needs TEST_DATABASE_URL pointing at a disposable database.
func newTestStore(t *testing.T, car, bike int) (*Store, *pgxpool.Pool) {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := NewPool(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, "DROP TABLE IF EXISTS ticket, parking")
	require.NoError(t, err)
	require.NoError(t, Migrate(ctx, pool))
	require.NoError(t, Seed(ctx, pool, parking.SeedSpots(car, bike)))

	return NewStore(pool), pool
}

func TestClaimNextFreeSpot(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, 2, 1)

	id, err := s.ClaimNextFreeSpot(ctx, parking.CategoryCar)
	require.NoError(t, err)
	assert.Equal(t, 1, id)

	id, err = s.ClaimNextFreeSpot(ctx, parking.CategoryBike)
	require.NoError(t, err)
	assert.Equal(t, 3, id)

	id, err = s.ClaimNextFreeSpot(ctx, parking.CategoryBike)
	require.NoError(t, err)
	assert.Equal(t, 0, id)
}

func TestConcurrentClaimsAreUnique(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, 10, 0)

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids []int
	)
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := s.ClaimNextFreeSpot(ctx, parking.CategoryCar)
			if err != nil || id == 0 {
				return
			}
			mu.Lock()
			ids = append(ids, id)
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.ElementsMatch(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, ids)
}

func TestTicketLifecycle(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, 1, 0)
	in := time.Now().Add(-time.Hour).Truncate(time.Millisecond)

	id, err := s.InsertTicket(ctx, &parking.Ticket{
		Spot:      parking.Spot{ID: 1, Category: parking.CategoryCar},
		VehicleID: "ABCDEF",
		InTime:    in,
	})
	require.NoError(t, err)

	ticket, err := s.GetOpenTicket(ctx, "ABCDEF")
	require.NoError(t, err)
	assert.Equal(t, id, ticket.ID)
	assert.Equal(t, parking.CategoryCar, ticket.Spot.Category)
	assert.True(t, ticket.InTime.Equal(in))

	require.NoError(t, s.UpdateTicketOnExit(ctx, id, 1.5, time.Now()))
	assert.ErrorIs(t, s.UpdateTicketOnExit(ctx, id, 1.5, time.Now()), parking.ErrTicketNotOpen)

	_, err = s.GetOpenTicket(ctx, "ABCDEF")
	assert.ErrorIs(t, err, parking.ErrTicketNotFound)

	count, err := s.CountTickets(ctx, "ABCDEF")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestListSpotsAndAvailability(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, 1, 1)

	require.NoError(t, s.SetSpotAvailability(ctx, 2, false))
	assert.ErrorIs(t, s.SetSpotAvailability(ctx, 99, false), parking.ErrUnknownSpot)

	spots, err := s.ListSpots(ctx)
	require.NoError(t, err)
	require.Len(t, spots, 2)
	assert.True(t, spots[0].Available)
	assert.False(t, spots[1].Available)
	assert.Equal(t, parking.CategoryBike, spots[1].Category)
}
