package station

import (
	"context"
	"errors"

	"github.com/airlog/airlog/internal/resilience"
)

// ResilientRepository guards another Repository with a circuit breaker.
// Reads are retried with backoff; writes run once.
type ResilientRepository struct {
	next  Repository
	guard *resilience.Guard
}

// NewResilientRepository wraps next. A not-found result is an ordinary outcome
// and never counts against the breaker.
func NewResilientRepository(next Repository, cfg resilience.GuardConfig) *ResilientRepository {
	cfg.Expected = func(err error) bool {
		return errors.Is(err, ErrStationNotFound) || errors.Is(err, context.Canceled)
	}
	return &ResilientRepository{
		next:  next,
		guard: resilience.NewGuard(cfg),
	}
}

// Create stores a new station.
func (r *ResilientRepository) Create(ctx context.Context, st *Station) error {
	err := r.guard.Execute(ctx, func(ctx context.Context) error {
		return r.next.Create(ctx, st)
	})
	return storeErr("create", err)
}

// Get retrieves a station with its records.
func (r *ResilientRepository) Get(ctx context.Context, id string) (*Station, error) {
	var st *Station
	err := r.guard.Retry(ctx, func(ctx context.Context) error {
		var err error
		st, err = r.next.Get(ctx, id)
		return err
	})
	if err != nil {
		return nil, storeErr("get", err)
	}
	return st, nil
}

// List retrieves all stations without their records.
func (r *ResilientRepository) List(ctx context.Context) ([]*Station, error) {
	var stations []*Station
	err := r.guard.Retry(ctx, func(ctx context.Context) error {
		var err error
		stations, err = r.next.List(ctx)
		return err
	})
	if err != nil {
		return nil, storeErr("list", err)
	}
	return stations, nil
}

// ListWithRecords retrieves all stations with their records.
func (r *ResilientRepository) ListWithRecords(ctx context.Context) ([]*Station, error) {
	var stations []*Station
	err := r.guard.Retry(ctx, func(ctx context.Context) error {
		var err error
		stations, err = r.next.ListWithRecords(ctx)
		return err
	})
	if err != nil {
		return nil, storeErr("list records", err)
	}
	return stations, nil
}

// UpdateName sets a station's name.
func (r *ResilientRepository) UpdateName(ctx context.Context, id, name string) (UpdateResult, error) {
	var result UpdateResult
	err := r.guard.Execute(ctx, func(ctx context.Context) error {
		var err error
		result, err = r.next.UpdateName(ctx, id, name)
		return err
	})
	if err != nil {
		return UpdateResult{}, storeErr("update name", err)
	}
	return result, nil
}

// Delete removes a station and its records.
func (r *ResilientRepository) Delete(ctx context.Context, id string) error {
	err := r.guard.Execute(ctx, func(ctx context.Context) error {
		return r.next.Delete(ctx, id)
	})
	return storeErr("delete", err)
}

// AppendRecord adds a record to a station.
func (r *ResilientRepository) AppendRecord(ctx context.Context, id string, rec Record) (*Station, error) {
	var st *Station
	err := r.guard.Execute(ctx, func(ctx context.Context) error {
		var err error
		st, err = r.next.AppendRecord(ctx, id, rec)
		return err
	})
	if err != nil {
		return nil, storeErr("append record", err)
	}
	return st, nil
}

// Ping checks the underlying store, bypassing the breaker so readiness
// reflects the store itself.
func (r *ResilientRepository) Ping(ctx context.Context) error {
	return storeErr("ping", r.next.Ping(ctx))
}

// Ensure ResilientRepository implements Repository interface.
var _ Repository = (*ResilientRepository)(nil)
