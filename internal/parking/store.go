package parking

import (
	"context"
	"errors"
	"time"
)

// Backends report these; the parking lot wraps them in ErrPersistence.
var (
	ErrUnknownSpot   = errors.New("unknown spot")
	ErrTicketNotOpen = errors.New("ticket not found or already closed")
)

// Store is the persistence contract the parking lot depends on. Backends live
// under internal/store.
type Store interface {
	// ClaimNextFreeSpot atomically marks one available spot of the category as
	// occupied and returns its id. It returns 0 when none is free.
	ClaimNextFreeSpot(ctx context.Context, category Category) (int, error)
	SetSpotAvailability(ctx context.Context, spotID int, available bool) error
	InsertTicket(ctx context.Context, ticket *Ticket) (int, error)
	// UpdateTicketOnExit closes an open ticket. It fails unless exactly one
	// row changed.
	UpdateTicketOnExit(ctx context.Context, ticketID int, price float64, outTime time.Time) error
	// GetOpenTicket returns the most recent open ticket of the vehicle, or
	// ErrTicketNotFound.
	GetOpenTicket(ctx context.Context, vehicleID string) (*Ticket, error)
	CountTickets(ctx context.Context, vehicleID string) (int, error)
	ListSpots(ctx context.Context) ([]Spot, error)
}
