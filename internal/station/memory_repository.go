package station

import (
	"context"
	"sync"
	"time"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing and local development.
type InMemoryRepository struct {
	mu       sync.RWMutex
	stations map[string]*Station
	order    []string
}

// NewInMemoryRepository creates a new in-memory station repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		stations: make(map[string]*Station),
	}
}

// Create stores a new station.
func (r *InMemoryRepository) Create(_ context.Context, st *Station) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.stations[st.ID]; !ok {
		r.order = append(r.order, st.ID)
	}
	r.stations[st.ID] = copyStation(st, true)
	return nil
}

// Get retrieves a station with its records.
func (r *InMemoryRepository) Get(_ context.Context, id string) (*Station, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	st, ok := r.stations[id]
	if !ok {
		return nil, ErrStationNotFound
	}
	return copyStation(st, true), nil
}

// List retrieves all stations without their records, in creation order.
func (r *InMemoryRepository) List(_ context.Context) ([]*Station, error) {
	return r.list(false), nil
}

// ListWithRecords retrieves all stations with their records, in creation order.
func (r *InMemoryRepository) ListWithRecords(_ context.Context) ([]*Station, error) {
	return r.list(true), nil
}

func (r *InMemoryRepository) list(withRecords bool) []*Station {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stations := make([]*Station, 0, len(r.order))
	for _, id := range r.order {
		stations = append(stations, copyStation(r.stations[id], withRecords))
	}
	return stations
}

// UpdateName sets a station's name.
func (r *InMemoryRepository) UpdateName(_ context.Context, id, name string) (UpdateResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.stations[id]
	if !ok {
		return UpdateResult{}, nil
	}
	if st.Name == name {
		return UpdateResult{Matched: true}, nil
	}

	st.Name = name
	st.UpdatedAt = time.Now()
	return UpdateResult{Matched: true, Modified: true}, nil
}

// Delete removes a station and its records.
func (r *InMemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.stations[id]; !ok {
		return ErrStationNotFound
	}

	delete(r.stations, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// AppendRecord adds a record to the end of a station's sequence.
func (r *InMemoryRepository) AppendRecord(_ context.Context, id string, rec Record) (*Station, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.stations[id]
	if !ok {
		return nil, ErrStationNotFound
	}

	st.Records = append(st.Records, copyRecord(rec))
	st.UpdatedAt = time.Now()
	return copyStation(st, true), nil
}

// Ping always succeeds.
func (r *InMemoryRepository) Ping(_ context.Context) error {
	return nil
}

// copyStation returns a deep copy so callers never share record storage.
func copyStation(st *Station, withRecords bool) *Station {
	cpy := *st
	cpy.Records = nil
	if withRecords {
		cpy.Records = make([]Record, len(st.Records))
		for i, rec := range st.Records {
			cpy.Records[i] = copyRecord(rec)
		}
	}
	return &cpy
}

func copyRecord(rec Record) Record {
	cpy := rec
	cpy.PM10 = copyFloat(rec.PM10)
	cpy.CO = copyFloat(rec.CO)
	cpy.O3 = copyFloat(rec.O3)
	cpy.SO2 = copyFloat(rec.SO2)
	return cpy
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	cpy := *v
	return &cpy
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
