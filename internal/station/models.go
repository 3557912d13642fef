// Package station provides monitoring station and pollution record management.
package station

import (
	"errors"
	"fmt"
	"time"
)

// Repository errors.
var (
	ErrStationNotFound = errors.New("station not found")
	ErrStore           = errors.New("station store failure")
)

// Pollutant identifies one of the measured gas or particulate concentrations.
type Pollutant string

const (
	PollutantNOx  Pollutant = "nox"
	PollutantNO2  Pollutant = "no2"
	PollutantNO   Pollutant = "no"
	PollutantPM10 Pollutant = "pm10"
	PollutantCO   Pollutant = "co"
	PollutantO3   Pollutant = "o3"
	PollutantSO2  Pollutant = "so2"
)

// Pollutants lists every pollutant in record field order.
var Pollutants = []Pollutant{
	PollutantNOx, PollutantNO2, PollutantNO,
	PollutantPM10, PollutantCO, PollutantO3, PollutantSO2,
}

// ParsePollutant returns the pollutant named by s.
func ParsePollutant(s string) (Pollutant, bool) {
	for _, p := range Pollutants {
		if string(p) == s {
			return p, true
		}
	}
	return "", false
}

// Station is a fixed monitoring location owning a sequence of records.
type Station struct {
	ID        string
	Name      string
	Latitude  float64
	Longitude float64
	Records   []Record
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Record is one timestamped set of pollutant readings.
// Optional readings are nil when not supplied; a zero reading is a real value.
type Record struct {
	TS   float64
	NOx  float64
	NO2  float64
	NO   float64
	PM10 *float64
	CO   *float64
	O3   *float64
	SO2  *float64
}

// Value returns the reading for p. The boolean reports whether the record
// schema carries p as a field at all; the pointer is nil for an absent reading.
func (r *Record) Value(p Pollutant) (*float64, bool) {
	switch p {
	case PollutantNOx:
		return &r.NOx, true
	case PollutantNO2:
		return &r.NO2, true
	case PollutantNO:
		return &r.NO, true
	case PollutantPM10:
		return r.PM10, true
	case PollutantCO:
		return r.CO, true
	case PollutantO3:
		return r.O3, true
	case PollutantSO2:
		return r.SO2, true
	default:
		return nil, false
	}
}

// AggregatedRecord is a record tagged with its owning station's name.
type AggregatedRecord struct {
	StationName string
	Record
}

// UpdateResult reports the outcome of a name update.
type UpdateResult struct {
	Matched  bool
	Modified bool
}

// StoreError wraps a persistence failure. The cause is carried opaquely.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("station store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is reports StoreError as ErrStore.
func (e *StoreError) Is(target error) bool {
	return target == ErrStore
}

// storeErr wraps err as a StoreError unless it is an expected domain outcome.
func storeErr(op string, err error) error {
	if err == nil || errors.Is(err, ErrStationNotFound) || errors.Is(err, ErrStore) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}
