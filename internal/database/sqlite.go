package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// Registers the "sqlite" driver.
	_ "modernc.org/sqlite"
)

// SQLiteConfig holds embedded database configuration.
type SQLiteConfig struct {
	Path string
}

// SQLiteConfigFromEnv creates a SQLiteConfig from environment variables.
func SQLiteConfigFromEnv() SQLiteConfig {
	return SQLiteConfig{
		Path: getEnvOrDefault("SQLITE_PATH", "airlog.db"),
	}
}

// sqlitePragmas are applied once on the single connection.
var sqlitePragmas = []string{
	"PRAGMA journal_mode=WAL;",
	"PRAGMA synchronous=NORMAL;",
	"PRAGMA foreign_keys=ON;",
	"PRAGMA busy_timeout=5000;",
}

// OpenSQLite opens the embedded database, applies pragmas and creates the schema.
// Access is serialized over one connection so pragmas such as foreign_keys stay in effect.
func OpenSQLite(ctx context.Context, cfg SQLiteConfig) (*sql.DB, error) {
	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	for _, pragma := range sqlitePragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}

	if err := InitSQLiteSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}
