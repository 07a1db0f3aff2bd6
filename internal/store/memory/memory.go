// Package memory keeps the lot in process memory. Every operation runs under
// one mutex, which makes the spot claim atomic.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"parking-system/internal/parking"
)

type Store struct {
	mu           sync.Mutex
	spots        []*parking.Spot
	tickets      []*parking.Ticket
	nextTicketID int
}

func New(spots []parking.Spot) *Store {
	s := &Store{nextTicketID: 1}
	for _, spot := range spots {
		s.spots = append(s.spots, &spot)
	}
	sort.Slice(s.spots, func(i, j int) bool {
		return s.spots[i].ID < s.spots[j].ID
	})
	return s
}

func NewSeeded(carSpots, bikeSpots int) *Store {
	return New(parking.SeedSpots(carSpots, bikeSpots))
}

func (s *Store) ClaimNextFreeSpot(ctx context.Context, category parking.Category) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, spot := range s.spots {
		if spot.Available && spot.Category == category {
			spot.Occupy()
			return spot.ID, nil
		}
	}
	return 0, nil
}

func (s *Store) SetSpotAvailability(ctx context.Context, spotID int, available bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	spot := s.spot(spotID)
	if spot == nil {
		return fmt.Errorf("%w: %d", parking.ErrUnknownSpot, spotID)
	}
	spot.Available = available
	return nil
}

func (s *Store) InsertTicket(ctx context.Context, ticket *parking.Ticket) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.spot(ticket.Spot.ID) == nil {
		return 0, fmt.Errorf("%w: %d", parking.ErrUnknownSpot, ticket.Spot.ID)
	}

	stored := *ticket
	stored.ID = s.nextTicketID
	if ticket.OutTime != nil {
		out := *ticket.OutTime
		stored.OutTime = &out
	}
	s.nextTicketID++
	s.tickets = append(s.tickets, &stored)

	return stored.ID, nil
}

func (s *Store) UpdateTicketOnExit(ctx context.Context, ticketID int, price float64, outTime time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ticket := range s.tickets {
		if ticket.ID == ticketID && ticket.OutTime == nil {
			ticket.Price = price
			ticket.OutTime = &outTime
			return nil
		}
	}
	return fmt.Errorf("%w: %d", parking.ErrTicketNotOpen, ticketID)
}

func (s *Store) GetOpenTicket(ctx context.Context, vehicleID string) (*parking.Ticket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var latest *parking.Ticket
	for _, ticket := range s.tickets {
		if ticket.VehicleID != vehicleID || ticket.OutTime != nil {
			continue
		}
		if latest == nil || ticket.InTime.After(latest.InTime) {
			latest = ticket
		}
	}
	if latest == nil {
		return nil, parking.ErrTicketNotFound
	}

	found := *latest
	return &found, nil
}

func (s *Store) CountTickets(ctx context.Context, vehicleID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, ticket := range s.tickets {
		if ticket.VehicleID == vehicleID {
			count++
		}
	}
	return count, nil
}

func (s *Store) ListSpots(ctx context.Context) ([]parking.Spot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	spots := make([]parking.Spot, len(s.spots))
	for i, spot := range s.spots {
		spots[i] = *spot
	}
	return spots, nil
}

// Tickets returns a snapshot of every stored ticket, oldest first.
func (s *Store) Tickets() []parking.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()

	tickets := make([]parking.Ticket, len(s.tickets))
	for i, ticket := range s.tickets {
		tickets[i] = *ticket
	}
	return tickets
}

func (s *Store) spot(id int) *parking.Spot {
	for _, spot := range s.spots {
		if spot.ID == id {
			return spot
		}
	}
	return nil
}

var _ parking.Store = (*Store)(nil)
