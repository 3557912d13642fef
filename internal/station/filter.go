package station

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/airlog/airlog/internal/api/models"
)

// Filter errors.
var (
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrInvalidRange     = errors.New("'from' timestamp must be before 'to' timestamp")
)

// ParameterError describes a malformed listing parameter.
type ParameterError struct {
	Param   string
	Message string
}

func (e *ParameterError) Error() string {
	return e.Message
}

// Is reports ParameterError as ErrInvalidParameter.
func (e *ParameterError) Is(target error) bool {
	return target == ErrInvalidParameter
}

// FilterSpec is the validated set of constraints applied to a record listing.
// Nil bounds, a zero Limit and an empty Pollutant mean "not set".
type FilterSpec struct {
	From      *float64
	To        *float64
	Limit     int
	Pollutant Pollutant
}

// ParseFilter validates the raw listing parameters. Empty strings are treated
// as not supplied.
func ParseFilter(params models.RecordFilterParams) (FilterSpec, error) {
	var spec FilterSpec

	if params.From != "" {
		from, err := parseBound(params.From)
		if err != nil {
			return FilterSpec{}, &ParameterError{Param: "from", Message: "Invalid 'from' timestamp. Must be a valid number."}
		}
		spec.From = &from
	}

	if params.To != "" {
		to, err := parseBound(params.To)
		if err != nil {
			return FilterSpec{}, &ParameterError{Param: "to", Message: "Invalid 'to' timestamp. Must be a valid number."}
		}
		spec.To = &to
	}

	if spec.From != nil && spec.To != nil && *spec.From > *spec.To {
		return FilterSpec{}, ErrInvalidRange
	}

	if params.Limit != "" {
		limit, err := strconv.Atoi(strings.TrimSpace(params.Limit))
		if err != nil || limit <= 0 {
			return FilterSpec{}, &ParameterError{Param: "limit", Message: "Invalid 'limit'. Must be a positive number."}
		}
		spec.Limit = limit
	}

	if params.Pollutant != "" {
		p, ok := ParsePollutant(params.Pollutant)
		if !ok {
			return FilterSpec{}, &ParameterError{
				Param:   "pollutant",
				Message: "Invalid pollutant type. Must be one of: nox, no2, no, pm10, co, o3, so2",
			}
		}
		spec.Pollutant = p
	}

	return spec, nil
}

func parseBound(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, strconv.ErrSyntax
	}
	return v, nil
}
