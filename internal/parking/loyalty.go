package parking

import (
	"context"
	"fmt"
)

// RegularThreshold is the ticket count a vehicle must exceed to get the
// loyalty discount at exit.
const RegularThreshold = 2

type Loyalty struct {
	store Store
}

func NewLoyalty(store Store) *Loyalty {
	return &Loyalty{store: store}
}

// TicketCount always reads the store; nothing is cached.
func (l *Loyalty) TicketCount(ctx context.Context, vehicleID string) (int, error) {
	count, err := l.store.CountTickets(ctx, vehicleID)
	if err != nil {
		return 0, fmt.Errorf("%w: count tickets: %w", ErrPersistence, err)
	}
	if count < 0 {
		count = 0
	}
	return count, nil
}

func (l *Loyalty) IsRegular(ctx context.Context, vehicleID string) (bool, error) {
	count, err := l.TicketCount(ctx, vehicleID)
	if err != nil {
		return false, err
	}
	return count > RegularThreshold, nil
}
