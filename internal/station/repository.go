package station

import "context"

// Repository defines the interface for station persistence.
// Implementations return ErrStationNotFound for missing stations and must
// preserve record insertion order.
type Repository interface {
	// Create stores a new station.
	Create(ctx context.Context, st *Station) error

	// Get retrieves a station with its records.
	Get(ctx context.Context, id string) (*Station, error)

	// List retrieves all stations without their records.
	List(ctx context.Context) ([]*Station, error)

	// ListWithRecords retrieves all stations with their records.
	ListWithRecords(ctx context.Context) ([]*Station, error)

	// UpdateName sets a station's name.
	UpdateName(ctx context.Context, id, name string) (UpdateResult, error)

	// Delete removes a station and its records.
	Delete(ctx context.Context, id string) error

	// AppendRecord adds a record to the end of a station's sequence and
	// returns the updated station.
	AppendRecord(ctx context.Context, id string, rec Record) (*Station, error)

	// Ping checks that the store is reachable.
	Ping(ctx context.Context) error
}
