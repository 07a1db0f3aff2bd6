package parking

import (
	"context"
	"errors"
	"sync"
	"time"
)

var errStoreDown = errors.New("store down")

// fakeStore is an in-package Store with switchable failures.
type fakeStore struct {
	mu      sync.Mutex
	spots   []Spot
	tickets []Ticket

	failClaim   bool
	failInsert  bool
	failUpdate  bool
	failCount   bool
	failGet     bool
	failList    bool
	failRelease int // number of SetSpotAvailability calls that fail
	releases    int
}

func newFakeStore(carSpots, bikeSpots int) *fakeStore {
	return &fakeStore{spots: SeedSpots(carSpots, bikeSpots)}
}

func (f *fakeStore) ClaimNextFreeSpot(_ context.Context, category Category) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failClaim {
		return 0, errStoreDown
	}
	for i := range f.spots {
		if f.spots[i].Available && f.spots[i].Category == category {
			f.spots[i].Occupy()
			return f.spots[i].ID, nil
		}
	}
	return 0, nil
}

func (f *fakeStore) SetSpotAvailability(_ context.Context, spotID int, available bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.releases++
	if f.failRelease > 0 {
		f.failRelease--
		return errStoreDown
	}
	for i := range f.spots {
		if f.spots[i].ID == spotID {
			f.spots[i].Available = available
			return nil
		}
	}
	return ErrUnknownSpot
}

func (f *fakeStore) InsertTicket(_ context.Context, ticket *Ticket) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failInsert {
		return 0, errStoreDown
	}
	stored := *ticket
	stored.ID = len(f.tickets) + 1
	f.tickets = append(f.tickets, stored)
	return stored.ID, nil
}

func (f *fakeStore) UpdateTicketOnExit(_ context.Context, ticketID int, price float64, outTime time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUpdate {
		return errStoreDown
	}
	for i := range f.tickets {
		if f.tickets[i].ID == ticketID && f.tickets[i].OutTime == nil {
			out := outTime
			f.tickets[i].Price = price
			f.tickets[i].OutTime = &out
			return nil
		}
	}
	return ErrTicketNotOpen
}

func (f *fakeStore) GetOpenTicket(_ context.Context, vehicleID string) (*Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGet {
		return nil, errStoreDown
	}
	for i := len(f.tickets) - 1; i >= 0; i-- {
		if f.tickets[i].VehicleID == vehicleID && f.tickets[i].OutTime == nil {
			ticket := f.tickets[i]
			return &ticket, nil
		}
	}
	return nil, ErrTicketNotFound
}

func (f *fakeStore) CountTickets(_ context.Context, vehicleID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCount {
		return 0, errStoreDown
	}
	count := 0
	for _, ticket := range f.tickets {
		if ticket.VehicleID == vehicleID {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) ListSpots(_ context.Context) ([]Spot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failList {
		return nil, errStoreDown
	}
	spots := make([]Spot, len(f.spots))
	// Reversed so callers have to sort.
	for i, spot := range f.spots {
		spots[len(f.spots)-1-i] = spot
	}
	return spots, nil
}

func (f *fakeStore) spot(id int) Spot {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, spot := range f.spots {
		if spot.ID == id {
			return spot
		}
	}
	return Spot{}
}

func (f *fakeStore) ticketCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tickets)
}

func (f *fakeStore) addClosedTickets(vehicleID string, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	in := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		out := in.Add(time.Hour)
		f.tickets = append(f.tickets, Ticket{
			ID:        len(f.tickets) + 1,
			Spot:      Spot{ID: 1, Category: CategoryCar},
			VehicleID: vehicleID,
			InTime:    in,
			OutTime:   &out,
		})
	}
}
