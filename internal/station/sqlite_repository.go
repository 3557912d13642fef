package station

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// sqlQuerier is satisfied by both *sql.DB and *sql.Tx.
type sqlQuerier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLiteRepository is an embedded SQLite implementation of Repository.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite station repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const sqliteRecordColumns = `ts, nox, no2, "no", pm10, co, o3, so2`

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Create stores a new station.
func (r *SQLiteRepository) Create(ctx context.Context, st *Station) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO stations (id, name, latitude, longitude, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		st.ID, st.Name, st.Latitude, st.Longitude, formatTime(st.CreatedAt), formatTime(st.UpdatedAt),
	)
	return err
}

// Get retrieves a station with its records.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (*Station, error) {
	return r.getStation(ctx, r.db, id)
}

func (r *SQLiteRepository) getStation(ctx context.Context, q sqlQuerier, id string) (*Station, error) {
	var (
		st                   Station
		createdAt, updatedAt string
	)
	err := q.QueryRowContext(ctx,
		`SELECT id, name, latitude, longitude, created_at, updated_at FROM stations WHERE id = ?`, id,
	).Scan(&st.ID, &st.Name, &st.Latitude, &st.Longitude, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStationNotFound
		}
		return nil, err
	}
	st.CreatedAt = parseTime(createdAt)
	st.UpdatedAt = parseTime(updatedAt)

	rows, err := q.QueryContext(ctx,
		`SELECT `+sqliteRecordColumns+` FROM station_records WHERE station_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	st.Records = []Record{}
	for rows.Next() {
		rec, err := scanSQLiteRecord(rows)
		if err != nil {
			return nil, err
		}
		st.Records = append(st.Records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &st, nil
}

func scanSQLiteRecord(rows *sql.Rows, dest ...any) (Record, error) {
	var (
		rec               Record
		pm10, co, o3, so2 sql.NullFloat64
	)
	dest = append(dest, &rec.TS, &rec.NOx, &rec.NO2, &rec.NO, &pm10, &co, &o3, &so2)
	if err := rows.Scan(dest...); err != nil {
		return Record{}, err
	}
	rec.PM10 = nullFloat(pm10)
	rec.CO = nullFloat(co)
	rec.O3 = nullFloat(o3)
	rec.SO2 = nullFloat(so2)
	return rec, nil
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

// List retrieves all stations without their records.
func (r *SQLiteRepository) List(ctx context.Context) ([]*Station, error) {
	return r.listStations(ctx, r.db)
}

func (r *SQLiteRepository) listStations(ctx context.Context, q sqlQuerier) ([]*Station, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, name, latitude, longitude, created_at, updated_at FROM stations ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stations []*Station
	for rows.Next() {
		var (
			st                   Station
			createdAt, updatedAt string
		)
		if err := rows.Scan(&st.ID, &st.Name, &st.Latitude, &st.Longitude, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		st.CreatedAt = parseTime(createdAt)
		st.UpdatedAt = parseTime(updatedAt)
		stations = append(stations, &st)
	}
	return stations, rows.Err()
}

// ListWithRecords retrieves all stations with their records from one snapshot.
func (r *SQLiteRepository) ListWithRecords(ctx context.Context) ([]*Station, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	stations, err := r.listStations(ctx, tx)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*Station, len(stations))
	for _, st := range stations {
		st.Records = []Record{}
		byID[st.ID] = st
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT station_id, `+sqliteRecordColumns+` FROM station_records ORDER BY station_id, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var stationID string
		rec, err := scanSQLiteRecord(rows, &stationID)
		if err != nil {
			return nil, err
		}
		if st, ok := byID[stationID]; ok {
			st.Records = append(st.Records, rec)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stations, tx.Commit()
}

// UpdateName sets a station's name.
func (r *SQLiteRepository) UpdateName(ctx context.Context, id, name string) (UpdateResult, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return UpdateResult{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var current string
	if err := tx.QueryRowContext(ctx, `SELECT name FROM stations WHERE id = ?`, id).Scan(&current); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return UpdateResult{}, nil
		}
		return UpdateResult{}, err
	}
	if current == name {
		return UpdateResult{Matched: true}, tx.Commit()
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE stations SET name = ?, updated_at = ? WHERE id = ?`, name, formatTime(time.Now()), id,
	); err != nil {
		return UpdateResult{}, err
	}
	if err := tx.Commit(); err != nil {
		return UpdateResult{}, err
	}

	return UpdateResult{Matched: true, Modified: true}, nil
}

// Delete removes a station and its records.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM stations WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrStationNotFound
	}
	return nil
}

// AppendRecord adds a record to the end of a station's sequence.
func (r *SQLiteRepository) AppendRecord(ctx context.Context, id string, rec Record) (*Station, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `UPDATE stations SET updated_at = ? WHERE id = ?`, formatTime(time.Now()), id)
	if err != nil {
		return nil, err
	}
	if n, err := result.RowsAffected(); err != nil {
		return nil, err
	} else if n == 0 {
		return nil, ErrStationNotFound
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO station_records (station_id, `+sqliteRecordColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, rec.TS, rec.NOx, rec.NO2, rec.NO, rec.PM10, rec.CO, rec.O3, rec.SO2,
	); err != nil {
		return nil, err
	}

	st, err := r.getStation(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	return st, tx.Commit()
}

// Ping checks the database connection.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Ensure SQLiteRepository implements Repository interface.
var _ Repository = (*SQLiteRepository)(nil)
