package station

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgQuerier is satisfied by both the pool and a transaction.
type pgQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL station repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const pgRecordColumns = `ts, nox, no2, "no", pm10, co, o3, so2`

// Create stores a new station.
func (r *PostgresRepository) Create(ctx context.Context, st *Station) error {
	query := `
		INSERT INTO stations (id, name, latitude, longitude, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		st.ID,
		st.Name,
		st.Latitude,
		st.Longitude,
		st.CreatedAt,
		st.UpdatedAt,
	)
	return err
}

// Get retrieves a station with its records.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*Station, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	st, err := r.getStation(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return st, nil
}

func (r *PostgresRepository) getStation(ctx context.Context, q pgQuerier, id string) (*Station, error) {
	query := `
		SELECT id, name, latitude, longitude, created_at, updated_at
		FROM stations
		WHERE id = $1
	`

	var st Station
	err := q.QueryRow(ctx, query, id).Scan(
		&st.ID,
		&st.Name,
		&st.Latitude,
		&st.Longitude,
		&st.CreatedAt,
		&st.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStationNotFound
		}
		return nil, err
	}

	rows, err := q.Query(ctx, `SELECT `+pgRecordColumns+` FROM station_records WHERE station_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	st.Records = []Record{}
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.TS, &rec.NOx, &rec.NO2, &rec.NO, &rec.PM10, &rec.CO, &rec.O3, &rec.SO2); err != nil {
			return nil, err
		}
		st.Records = append(st.Records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &st, nil
}

// List retrieves all stations without their records.
func (r *PostgresRepository) List(ctx context.Context) ([]*Station, error) {
	return r.listStations(ctx, r.pool)
}

func (r *PostgresRepository) listStations(ctx context.Context, q pgQuerier) ([]*Station, error) {
	query := `
		SELECT id, name, latitude, longitude, created_at, updated_at
		FROM stations
		ORDER BY created_at, id
	`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stations []*Station
	for rows.Next() {
		var st Station
		if err := rows.Scan(&st.ID, &st.Name, &st.Latitude, &st.Longitude, &st.CreatedAt, &st.UpdatedAt); err != nil {
			return nil, err
		}
		stations = append(stations, &st)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stations, nil
}

// ListWithRecords retrieves all stations with their records from one snapshot.
func (r *PostgresRepository) ListWithRecords(ctx context.Context) ([]*Station, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	stations, err := r.listStations(ctx, tx)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*Station, len(stations))
	for _, st := range stations {
		st.Records = []Record{}
		byID[st.ID] = st
	}

	rows, err := tx.Query(ctx, `SELECT station_id, `+pgRecordColumns+` FROM station_records ORDER BY station_id, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			stationID string
			rec       Record
		)
		if err := rows.Scan(&stationID, &rec.TS, &rec.NOx, &rec.NO2, &rec.NO, &rec.PM10, &rec.CO, &rec.O3, &rec.SO2); err != nil {
			return nil, err
		}
		if st, ok := byID[stationID]; ok {
			st.Records = append(st.Records, rec)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return stations, nil
}

// UpdateName sets a station's name.
func (r *PostgresRepository) UpdateName(ctx context.Context, id, name string) (UpdateResult, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return UpdateResult{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var current string
	err = tx.QueryRow(ctx, `SELECT name FROM stations WHERE id = $1 FOR UPDATE`, id).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return UpdateResult{}, nil
		}
		return UpdateResult{}, err
	}
	if current == name {
		return UpdateResult{Matched: true}, tx.Commit(ctx)
	}

	if _, err := tx.Exec(ctx, `UPDATE stations SET name = $2, updated_at = $3 WHERE id = $1`, id, name, time.Now()); err != nil {
		return UpdateResult{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return UpdateResult{}, err
	}

	return UpdateResult{Matched: true, Modified: true}, nil
}

// Delete removes a station; its records go with it through the cascade.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM stations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrStationNotFound
	}
	return nil
}

// AppendRecord adds a record to a station. The station row is locked so
// concurrent appends to the same station are serialized.
func (r *PostgresRepository) AppendRecord(ctx context.Context, id string, rec Record) (*Station, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var locked string
	if err := tx.QueryRow(ctx, `SELECT id FROM stations WHERE id = $1 FOR UPDATE`, id).Scan(&locked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStationNotFound
		}
		return nil, err
	}

	query := `
		INSERT INTO station_records (station_id, ` + pgRecordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	if _, err := tx.Exec(ctx, query, id, rec.TS, rec.NOx, rec.NO2, rec.NO, rec.PM10, rec.CO, rec.O3, rec.SO2); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `UPDATE stations SET updated_at = $2 WHERE id = $1`, id, time.Now()); err != nil {
		return nil, err
	}

	st, err := r.getStation(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return st, nil
}

// Ping checks the connection pool.
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
