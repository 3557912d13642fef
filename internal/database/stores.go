package database

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/airlog/airlog/internal/auth"
	"github.com/airlog/airlog/internal/station"
)

// Store drivers selectable with STORE_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Stores holds the repositories backed by one driver.
type Stores struct {
	Driver   string
	Stations station.Repository
	Users    auth.UserRepository

	close func()
}

// Close releases the underlying connection, if any.
func (s *Stores) Close() {
	if s.close != nil {
		s.close()
	}
}

// DriverFromEnv returns STORE_DRIVER, defaulting to postgres.
func DriverFromEnv() string {
	return getEnvOrDefault("STORE_DRIVER", DriverPostgres)
}

// OpenStores connects the configured driver and builds its repositories.
func OpenStores(ctx context.Context, driver string, logger zerolog.Logger) (*Stores, error) {
	switch driver {
	case DriverPostgres:
		cfg := ConfigFromEnv()
		pool, err := Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		logger.Info().
			Str("host", cfg.Host).
			Int("port", cfg.Port).
			Str("database", cfg.Database).
			Msg("database connected")
		return &Stores{
			Driver:   driver,
			Stations: station.NewPostgresRepository(pool),
			Users:    auth.NewPostgresUserRepository(pool),
			close:    pool.Close,
		}, nil

	case DriverSQLite:
		cfg := SQLiteConfigFromEnv()
		db, err := OpenSQLite(ctx, cfg)
		if err != nil {
			return nil, err
		}
		logger.Info().Str("path", cfg.Path).Msg("sqlite database opened")
		return &Stores{
			Driver:   driver,
			Stations: station.NewSQLiteRepository(db),
			Users:    auth.NewSQLiteUserRepository(db),
			close:    func() { _ = db.Close() },
		}, nil

	case DriverMemory:
		logger.Warn().Msg("using in-memory store, data is lost on restart")
		return &Stores{
			Driver:   driver,
			Stations: station.NewInMemoryRepository(),
			Users:    auth.NewInMemoryUserRepository(),
		}, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}
