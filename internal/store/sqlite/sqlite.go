// Package sqlite stores the lot in a SQLite database through modernc.org/sqlite.
// Timestamps are kept as Unix milliseconds.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"parking-system/internal/parking"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS parking (
	parking_number INTEGER PRIMARY KEY,
	available      INTEGER NOT NULL DEFAULT 1,
	type           TEXT    NOT NULL CHECK (type IN ('CAR', 'BIKE'))
);
CREATE TABLE IF NOT EXISTS ticket (
	id                 INTEGER PRIMARY KEY AUTOINCREMENT,
	parking_number     INTEGER NOT NULL REFERENCES parking (parking_number),
	vehicle_reg_number TEXT    NOT NULL,
	price              REAL    NOT NULL DEFAULT 0,
	in_time            INTEGER NOT NULL,
	out_time           INTEGER
);
CREATE INDEX IF NOT EXISTS ticket_vehicle_in_time ON ticket (vehicle_reg_number, in_time);
`

const pragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

// dsn appends the connection pragmas, keeping any query the path already has.
func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + pragmas
}

type Store struct {
	db *sql.DB
}

// Open connects to the database at path (":memory:" works) and applies the
// schema. The pool holds a single connection so writers never contend.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Seed inserts spots that do not exist yet. Existing rows keep their state.
func (s *Store) Seed(ctx context.Context, spots []parking.Spot) error {
	for _, spot := range spots {
		_, err := s.db.ExecContext(ctx,
			"INSERT OR IGNORE INTO parking (parking_number, available, type) VALUES (?, ?, ?)",
			spot.ID, spot.Available, spot.Category.String(),
		)
		if err != nil {
			return fmt.Errorf("seed spot %d: %w", spot.ID, err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ClaimNextFreeSpot(ctx context.Context, category parking.Category) (int, error) {
	var spotID int
	err := s.db.QueryRowContext(ctx, `
		UPDATE parking SET available = 0
		WHERE available = 1 AND parking_number = (
			SELECT parking_number FROM parking
			WHERE available = 1 AND type = ?
			ORDER BY parking_number
			LIMIT 1
		)
		RETURNING parking_number`,
		category.String(),
	).Scan(&spotID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return spotID, nil
}

func (s *Store) SetSpotAvailability(ctx context.Context, spotID int, available bool) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE parking SET available = ? WHERE parking_number = ?", available, spotID)
	if err != nil {
		return err
	}
	return expectOneRow(res, parking.ErrUnknownSpot, spotID)
}

func (s *Store) InsertTicket(ctx context.Context, ticket *parking.Ticket) (int, error) {
	var outTime sql.NullInt64
	if ticket.OutTime != nil {
		outTime = sql.NullInt64{Int64: ticket.OutTime.UnixMilli(), Valid: true}
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO ticket (parking_number, vehicle_reg_number, price, in_time, out_time)
		VALUES (?, ?, ?, ?, ?)`,
		ticket.Spot.ID, ticket.VehicleID, ticket.Price, ticket.InTime.UnixMilli(), outTime,
	)
	if err != nil {
		return 0, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return int(id), nil
}

func (s *Store) UpdateTicketOnExit(ctx context.Context, ticketID int, price float64, outTime time.Time) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE ticket SET price = ?, out_time = ? WHERE id = ? AND out_time IS NULL",
		price, outTime.UnixMilli(), ticketID,
	)
	if err != nil {
		return err
	}
	return expectOneRow(res, parking.ErrTicketNotOpen, ticketID)
}

func (s *Store) GetOpenTicket(ctx context.Context, vehicleID string) (*parking.Ticket, error) {
	var (
		ticket   parking.Ticket
		category string
		inTime   int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT t.id, t.parking_number, p.type, t.vehicle_reg_number, t.price, t.in_time
		FROM ticket t
		JOIN parking p ON p.parking_number = t.parking_number
		WHERE t.vehicle_reg_number = ? AND t.out_time IS NULL
		ORDER BY t.in_time DESC, t.id DESC
		LIMIT 1`,
		vehicleID,
	).Scan(&ticket.ID, &ticket.Spot.ID, &category, &ticket.VehicleID, &ticket.Price, &inTime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, parking.ErrTicketNotFound
	}
	if err != nil {
		return nil, err
	}

	ticket.Spot.Category = parking.Category(category)
	ticket.Spot.Available = false
	ticket.InTime = time.UnixMilli(inTime)
	return &ticket, nil
}

func (s *Store) CountTickets(ctx context.Context, vehicleID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM ticket WHERE vehicle_reg_number = ?", vehicleID,
	).Scan(&count)
	return count, err
}

func (s *Store) ListSpots(ctx context.Context) ([]parking.Spot, error) {
	rows, err := s.db.QueryContext(ctx,
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

func expectOneRow(res sql.Result, notFound error, id int) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return fmt.Errorf("%w: %d (%d rows affected)", notFound, id, n)
	}
	return nil
}

var _ parking.Store = (*Store)(nil)
