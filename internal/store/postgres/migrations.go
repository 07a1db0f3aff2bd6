package postgres

import (
	"context"
	"fmt"

	"parking-system/internal/parking"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS parking (
		parking_number INTEGER PRIMARY KEY,
		available      BOOLEAN NOT NULL DEFAULT TRUE,
		type           VARCHAR(10) NOT NULL CHECK (type IN ('CAR', 'BIKE'))
	)`,
	`CREATE TABLE IF NOT EXISTS ticket (
		id                 SERIAL PRIMARY KEY,
		parking_number     INTEGER NOT NULL REFERENCES parking (parking_number),
		vehicle_reg_number VARCHAR(64) NOT NULL,
		price              DOUBLE PRECISION NOT NULL DEFAULT 0,
		in_time            TIMESTAMPTZ NOT NULL,
		out_time           TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS ticket_vehicle_in_time ON ticket (vehicle_reg_number, in_time DESC)`,
	`CREATE INDEX IF NOT EXISTS parking_free_by_type ON parking (type, parking_number) WHERE available`,
}

func Migrate(ctx context.Context, q Querier) error {
	for i, stmt := range migrations {
		if _, err := q.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

// Seed inserts spots that do not exist yet. Existing rows keep their state.
func Seed(ctx context.Context, q Querier, spots []parking.Spot) error {
	for _, spot := range spots {
		_, err := q.Exec(ctx,
			`INSERT INTO parking (parking_number, available, type) VALUES ($1, $2, $3)
			ON CONFLICT (parking_number) DO NOTHING`,
			spot.ID, spot.Available, spot.Category.String(),
		)
		if err != nil {
			return fmt.Errorf("seed spot %d: %w", spot.ID, err)
		}
	}
	return nil
}
