package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"parking-system/internal/parking"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type Store struct {
	q Querier
}

func NewStore(q Querier) *Store {
	return &Store{q: q}
}

// ClaimNextFreeSpot locks the lowest free row and flips it in one statement.
// SKIP LOCKED lets a concurrent claim move on to the next row instead of
// waiting and then claiming the same spot.
func (s *Store) ClaimNextFreeSpot(ctx context.Context, category parking.Category) (int, error) {
	var spotID int
	err := s.q.QueryRow(ctx, `
		UPDATE parking SET available = FALSE
		WHERE parking_number = (
			SELECT parking_number FROM parking
			WHERE available AND type = $1
			ORDER BY parking_number
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING parking_number`,
		category.String(),
	).Scan(&spotID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return spotID, nil
}

func (s *Store) SetSpotAvailability(ctx context.Context, spotID int, available bool) error {
	tag, err := s.q.Exec(ctx,
		"UPDATE parking SET available = $1 WHERE parking_number = $2", available, spotID)
	if err != nil {
		return err
	}
	return expectOneRow(tag, parking.ErrUnknownSpot, spotID)
}

func (s *Store) InsertTicket(ctx context.Context, ticket *parking.Ticket) (int, error) {
	var id int
	err := s.q.QueryRow(ctx, `
		INSERT INTO ticket (parking_number, vehicle_reg_number, price, in_time, out_time)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		ticket.Spot.ID, ticket.VehicleID, ticket.Price, ticket.InTime, ticket.OutTime,
	).Scan(&id)
	return id, err
}

func (s *Store) UpdateTicketOnExit(ctx context.Context, ticketID int, price float64, outTime time.Time) error {
	tag, err := s.q.Exec(ctx,
		"UPDATE ticket SET price = $1, out_time = $2 WHERE id = $3 AND out_time IS NULL",
		price, outTime, ticketID,
	)
	if err != nil {
		return err
	}
	return expectOneRow(tag, parking.ErrTicketNotOpen, ticketID)
}

func (s *Store) GetOpenTicket(ctx context.Context, vehicleID string) (*parking.Ticket, error) {
	var (
		ticket   parking.Ticket
		category string
	)
	err := s.q.QueryRow(ctx, `
		SELECT t.id, t.parking_number, p.type, t.vehicle_reg_number, t.price, t.in_time
		FROM ticket t
		JOIN parking p ON p.parking_number = t.parking_number
		WHERE t.vehicle_reg_number = $1 AND t.out_time IS NULL
		ORDER BY t.in_time DESC, t.id DESC
		LIMIT 1`,
		vehicleID,
	).Scan(&ticket.ID, &ticket.Spot.ID, &category, &ticket.VehicleID, &ticket.Price, &ticket.InTime)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, parking.ErrTicketNotFound
	}
	if err != nil {
		return nil, err
	}

	ticket.Spot.Category = parking.Category(category)
	ticket.Spot.Available = false
	return &ticket, nil
}

func (s *Store) CountTickets(ctx context.Context, vehicleID string) (int, error) {
	var count int
	err := s.q.QueryRow(ctx,
		"SELECT COUNT(*) FROM ticket WHERE vehicle_reg_number = $1", vehicleID,
	).Scan(&count)
	return count, err
}

func (s *Store) ListSpots(ctx context.Context) ([]parking.Spot, error) {
	rows, err := s.q.Query(ctx,
		"SELECT parking_number, type, available FROM parking ORDER BY parking_number")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var spots []parking.Spot
	for rows.Next() {
		var (
			spot     parking.Spot
			category string
		)
		if err := rows.Scan(&spot.ID, &category, &spot.Available); err != nil {
			return nil, err
		}
		spot.Category = parking.Category(category)
		spots = append(spots, spot)
	}
	return spots, rows.Err()
}

func expectOneRow(tag pgconn.CommandTag, notFound error, id int) error {
	if n := tag.RowsAffected(); n != 1 {
		return fmt.Errorf("%w: %d (%d rows affected)", notFound, id, n)
	}
	return nil
}

var _ parking.Store = (*Store)(nil)
