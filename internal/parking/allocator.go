package parking

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
)

type Allocator struct {
	store           Store
	releaseTries    uint
	releaseInterval time.Duration
}

type AllocatorOption func(*Allocator)

// WithReleaseRetry bounds how often a failed release write is retried.
func WithReleaseRetry(tries uint, initialInterval time.Duration) AllocatorOption {
	return func(a *Allocator) {
		if tries > 0 {
			a.releaseTries = tries
		}
		a.releaseInterval = initialInterval
	}
}

func NewAllocator(store Store, opts ...AllocatorOption) *Allocator {
	a := &Allocator{
		store:           store,
		releaseTries:    3,
		releaseInterval: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Allocator) ReserveNextSpot(ctx context.Context, category Category) (*Spot, error) {
	if !category.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, string(category))
	}

	spotID, err := a.store.ClaimNextFreeSpot(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("%w: claim %s spot: %w", ErrPersistence, category, err)
	}
	if spotID <= 0 {
		return nil, fmt.Errorf("%w: category %s", ErrNoSpotAvailable, category)
	}

	return NewSpot(spotID, category, false), nil
}

// Release frees the spot in memory first, then persists it. A persistence
// error leaves the in-memory spot released.
func (a *Allocator) Release(ctx context.Context, spot *Spot) error {
	spot.Free()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = a.releaseInterval
	bo.MaxInterval = 10 * a.releaseInterval

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, a.store.SetSpotAvailability(ctx, spot.ID, true)
	},
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(a.releaseTries),
	)
	if err != nil {
		return fmt.Errorf("%w: release spot %d: %w", ErrPersistence, spot.ID, err)
	}
	return nil
}
