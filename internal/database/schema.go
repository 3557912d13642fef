package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// postgresSchema creates the tables needed at startup. Records keep their
// insertion order through the serial id.
const postgresSchema = `
CREATE TABLE IF NOT EXISTS stations (
  id         TEXT PRIMARY KEY,
  name       TEXT NOT NULL,
  latitude   DOUBLE PRECISION NOT NULL,
  longitude  DOUBLE PRECISION NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS station_records (
  id         BIGSERIAL PRIMARY KEY,
  station_id TEXT NOT NULL REFERENCES stations(id) ON DELETE CASCADE,
  ts         DOUBLE PRECISION NOT NULL,
  nox        DOUBLE PRECISION NOT NULL,
  no2        DOUBLE PRECISION NOT NULL,
  "no"       DOUBLE PRECISION NOT NULL,
  pm10       DOUBLE PRECISION,
  co         DOUBLE PRECISION,
  o3         DOUBLE PRECISION,
  so2        DOUBLE PRECISION
);

CREATE INDEX IF NOT EXISTS station_records_station_idx ON station_records (station_id, id);

CREATE TABLE IF NOT EXISTS users (
  id            TEXT PRIMARY KEY,
  email         TEXT UNIQUE NOT NULL,
  password_hash TEXT NOT NULL,
  created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// sqliteSchema mirrors postgresSchema with SQLite types. Times are RFC 3339 text.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS stations (
  id         TEXT PRIMARY KEY,
  name       TEXT NOT NULL,
  latitude   REAL NOT NULL,
  longitude  REAL NOT NULL,
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS station_records (
  id         INTEGER PRIMARY KEY AUTOINCREMENT,
  station_id TEXT NOT NULL REFERENCES stations(id) ON DELETE CASCADE,
  ts         REAL NOT NULL,
  nox        REAL NOT NULL,
  no2        REAL NOT NULL,
  "no"       REAL NOT NULL,
  pm10       REAL,
  co         REAL,
  o3         REAL,
  so2        REAL
);

CREATE INDEX IF NOT EXISTS station_records_station_idx ON station_records (station_id, id);

CREATE TABLE IF NOT EXISTS users (
  id            TEXT PRIMARY KEY,
  email         TEXT UNIQUE NOT NULL,
  password_hash TEXT NOT NULL,
  created_at    TEXT NOT NULL,
  updated_at    TEXT NOT NULL
);
`

// InitPostgresSchema creates the PostgreSQL tables if they do not exist.
func InitPostgresSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("init postgres schema: %w", err)
	}
	return nil
}

// InitSQLiteSchema creates the SQLite tables if they do not exist.
// Statements run one at a time since database/sql executes a single statement per call.
func InitSQLiteSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range strings.Split(sqliteSchema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init sqlite schema: %w", err)
		}
	}
	return nil
}
