// Package store opens the parking.Store backend selected by configuration.
package store

import (
	"context"
	"fmt"

	"parking-system/internal/config"
	"parking-system/internal/parking"
	"parking-system/internal/store/memory"
	"parking-system/internal/store/postgres"
	"parking-system/internal/store/sqlite"
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Open returns the backend and a function releasing it. Spots from the
// configured layout are seeded when missing.
func Open(ctx context.Context, cfg *config.Config) (parking.Store, func(), error) {
	spots := parking.SeedSpots(cfg.CarSpots, cfg.BikeSpots)

	switch cfg.StoreDriver {
	case DriverMemory:
		return memory.New(spots), func() {}, nil

	case DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		if err := postgres.Seed(ctx, pool, spots); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return postgres.NewStore(pool), pool.Close, nil

	case DriverSQLite:
		s, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		if err := s.Seed(ctx, spots); err != nil {
			s.Close()
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
