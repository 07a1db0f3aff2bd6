package parking

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"parking-system/internal/logging"
)

// ParkingLot drives the ticket lifecycle: a ticket is opened on entry and
// closed exactly once on exit.
type ParkingLot struct {
	store     Store
	allocator *Allocator
	loyalty   *Loyalty
	now       func() time.Time
}

type Option func(*ParkingLot)

func WithClock(now func() time.Time) Option {
	return func(pl *ParkingLot) {
		pl.now = now
	}
}

func WithAllocator(allocator *Allocator) Option {
	return func(pl *ParkingLot) {
		pl.allocator = allocator
	}
}

func NewParkingLot(store Store, opts ...Option) *ParkingLot {
	pl := &ParkingLot{
		store:   store,
		loyalty: NewLoyalty(store),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(pl)
	}
	if pl.allocator == nil {
		pl.allocator = NewAllocator(store)
	}
	return pl
}

type EntryReceipt struct {
	Ticket *Ticket
	// Returning is set when the vehicle already has earlier tickets.
	Returning bool
}

type ExitReceipt struct {
	Ticket     *Ticket
	Discounted bool
}

func (pl *ParkingLot) Park(ctx context.Context, category Category, vehicleID string) (*EntryReceipt, error) {
	vehicleID, err := NormalizeVehicleID(vehicleID)
	if err != nil {
		return nil, err
	}
	if !category.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, string(category))
	}

	// One open ticket per vehicle; Leave only ever closes the newest.
	open, err := pl.openTicket(ctx, vehicleID)
	switch {
	case err == nil:
		return nil, fmt.Errorf("%w: vehicle %s holds ticket %d", ErrAlreadyParked, vehicleID, open.ID)
	case !errors.Is(err, ErrTicketNotFound):
		return nil, err
	}

	spot, err := pl.allocator.ReserveNextSpot(ctx, category)
	if err != nil {
		return nil, err
	}

	ticket := &Ticket{
		Spot:      *spot,
		VehicleID: vehicleID,
		Price:     0,
		InTime:    pl.now(),
	}

	ticketID, err := pl.store.InsertTicket(ctx, ticket)
	if err != nil {
		if releaseErr := pl.allocator.Release(ctx, spot); releaseErr != nil {
			logging.Error(ctx, "spot left occupied after failed ticket insert",
				"spot", spot.ID, "error", releaseErr)
		}
		return nil, fmt.Errorf("%w: insert ticket: %w", ErrPersistence, err)
	}
	ticket.ID = ticketID

	receipt := &EntryReceipt{Ticket: ticket}
	count, err := pl.loyalty.TicketCount(ctx, vehicleID)
	if err != nil {
		logging.Warn(ctx, "ticket count unavailable at entry", "vehicle", vehicleID, "error", err)
	} else {
		receipt.Returning = count > 1
	}

	logging.Info(ctx, "ticket generated",
		"ticket", ticket.ID,
		"spot", spot.ID,
		"category", spot.Category.String(),
		"vehicle", vehicleID,
		"in_time", ticket.InTime,
	)

	return receipt, nil
}

func (pl *ParkingLot) Leave(ctx context.Context, vehicleID string) (*ExitReceipt, error) {
	vehicleID, err := NormalizeVehicleID(vehicleID)
	if err != nil {
		return nil, err
	}

	ticket, err := pl.openTicket(ctx, vehicleID)
	if err != nil {
		return nil, err
	}

	outTime := pl.now()

	// Counted before the exit is written; the open ticket is included.
	count, err := pl.loyalty.TicketCount(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	discount := count > RegularThreshold

	price, err := ComputeFare(ticket.InTime, &outTime, ticket.Spot.Category, discount)
	if err != nil {
		return nil, err
	}

	if err := pl.store.UpdateTicketOnExit(ctx, ticket.ID, price, outTime); err != nil {
		return nil, fmt.Errorf("%w: update ticket %d: %w", ErrPersistence, ticket.ID, err)
	}
	ticket.Price = price
	ticket.OutTime = &outTime

	receipt := &ExitReceipt{Ticket: ticket, Discounted: discount}

	if err := pl.allocator.Release(ctx, &ticket.Spot); err != nil {
		logging.Error(ctx, "ticket closed but spot release was not persisted",
			"ticket", ticket.ID, "spot", ticket.Spot.ID, "error", err)
		return receipt, err
	}

	logging.Info(ctx, "ticket closed",
		"ticket", ticket.ID,
		"spot", ticket.Spot.ID,
		"vehicle", vehicleID,
		"price", price,
		"discount", discount,
		"out_time", outTime,
	)

	return receipt, nil
}

func (pl *ParkingLot) FindOpenTicket(ctx context.Context, vehicleID string) (*Ticket, error) {
	vehicleID, err := NormalizeVehicleID(vehicleID)
	if err != nil {
		return nil, err
	}
	return pl.openTicket(ctx, vehicleID)
}

// Status lists every spot ordered by id.
func (pl *ParkingLot) Status(ctx context.Context) ([]Spot, error) {
	spots, err := pl.store.ListSpots(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list spots: %w", ErrPersistence, err)
	}

	sort.Slice(spots, func(i, j int) bool {
		return spots[i].ID < spots[j].ID
	})

	return spots, nil
}

func (pl *ParkingLot) openTicket(ctx context.Context, vehicleID string) (*Ticket, error) {
	ticket, err := pl.store.GetOpenTicket(ctx, vehicleID)
	if errors.Is(err, ErrTicketNotFound) {
		return nil, fmt.Errorf("%w: vehicle %s", ErrTicketNotFound, vehicleID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get ticket: %w", ErrPersistence, err)
	}
	if ticket == nil {
		return nil, fmt.Errorf("%w: vehicle %s", ErrTicketNotFound, vehicleID)
	}
	return ticket, nil
}

// Lot is what the shell and the HTTP server drive. Both ParkingLot and
// InstrumentedParkingLot implement it.
type Lot interface {
	Park(ctx context.Context, category Category, vehicleID string) (*EntryReceipt, error)
	Leave(ctx context.Context, vehicleID string) (*ExitReceipt, error)
	FindOpenTicket(ctx context.Context, vehicleID string) (*Ticket, error)
	Status(ctx context.Context) ([]Spot, error)
}

var (
	_ Lot = (*ParkingLot)(nil)
	_ Lot = (*InstrumentedParkingLot)(nil)
)
