package station

import (
	"regexp"
	"strings"

	"github.com/airlog/airlog/internal/api/models"
)

// Field error codes.
const (
	CodeRequired   = "REQUIRED"
	CodeNotNumeric = "NOT_NUMERIC"
	CodeInvalid    = "INVALID_FORMAT"
)

// Validation messages.
const (
	msgStationMissing    = "Missing required fields: name, latitude, and longitude are required."
	msgStationNotNumeric = "Invalid input: latitude and longitude must be numbers."
	msgInvalidName       = "Invalid name. Only upper and lower case letters, numbers and spaces are allowed."
	msgRecordMissing     = "Missing required fields: ts, nox, no2, and no are required."
	msgRecordNotNumeric  = "Invalid input: ts, nox, no2, and no must be numbers."
)

// stationNameRegex allows letters, digits and spaces.
var stationNameRegex = regexp.MustCompile(`^[a-zA-Z0-9 ]+$`)

// ValidationError is returned when a create, update or append payload is malformed.
type ValidationError struct {
	Message string
	Errors  []models.FieldError
}

func (e *ValidationError) Error() string {
	if e.Message == "" {
		return "validation failed"
	}
	return e.Message
}

// namedNumber pairs a payload field with its JSON name.
type namedNumber struct {
	name  string
	value models.Number
}

// ValidateCreate checks a station creation payload and returns a draft
// station with an empty record sequence.
func ValidateCreate(input *models.StationCreateRequest) (*Station, error) {
	var missing []models.FieldError
	if strings.TrimSpace(input.Name) == "" {
		missing = append(missing, models.FieldError{Field: "name", Message: "is required", Code: CodeRequired})
	}

	coords := []namedNumber{
		{"latitude", input.Latitude},
		{"longitude", input.Longitude},
	}
	for _, c := range coords {
		if !c.value.IsSet() {
			missing = append(missing, models.FieldError{Field: c.name, Message: "is required", Code: CodeRequired})
		}
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Message: msgStationMissing, Errors: missing}
	}

	values, errs := numericValues(coords)
	if len(errs) > 0 {
		return nil, &ValidationError{Message: msgStationNotNumeric, Errors: errs}
	}

	return &Station{
		Name:      input.Name,
		Latitude:  values[0],
		Longitude: values[1],
		Records:   []Record{},
	}, nil
}

// ValidateName checks a station name update.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" || !stationNameRegex.MatchString(name) {
		return &ValidationError{
			Message: msgInvalidName,
			Errors:  []models.FieldError{{Field: "name", Message: "must contain only letters, numbers and spaces", Code: CodeInvalid}},
		}
	}
	return nil
}

// ValidateRecord checks a record payload. Optional readings that were not
// supplied stay absent rather than becoming zero.
func ValidateRecord(input *models.RecordCreateRequest) (*Record, error) {
	required := []namedNumber{
		{"ts", input.TS},
		{"nox", input.NOx},
		{"no2", input.NO2},
		{"no", input.NO},
	}

	var missing []models.FieldError
	for _, f := range required {
		if !f.value.IsSet() {
			missing = append(missing, models.FieldError{Field: f.name, Message: "is required", Code: CodeRequired})
		}
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Message: msgRecordMissing, Errors: missing}
	}

	values, errs := numericValues(required)
	if len(errs) > 0 {
		return nil, &ValidationError{Message: msgRecordNotNumeric, Errors: errs}
	}

	record := &Record{
		TS:  values[0],
		NOx: values[1],
		NO2: values[2],
		NO:  values[3],
	}

	optional := []struct {
		name  string
		value models.Number
		dst   **float64
	}{
		{"pm10", input.PM10, &record.PM10},
		{"co", input.CO, &record.CO},
		{"o3", input.O3, &record.O3},
		{"so2", input.SO2, &record.SO2},
	}
	for _, f := range optional {
		if !f.value.IsSet() {
			continue
		}
		v, err := f.value.Float64()
		if err != nil {
			return nil, &ValidationError{
				Message: "Invalid input: " + f.name + " must be a number if provided.",
				Errors:  []models.FieldError{{Field: f.name, Message: "must be a number", Code: CodeNotNumeric}},
			}
		}
		*f.dst = &v
	}

	return record, nil
}

// numericValues converts fields to floats, collecting an error per non-numeric field.
func numericValues(fields []namedNumber) ([]float64, []models.FieldError) {
	values := make([]float64, len(fields))
	var errs []models.FieldError
	for i, f := range fields {
		v, err := f.value.Float64()
		if err != nil {
			errs = append(errs, models.FieldError{Field: f.name, Message: "must be a number", Code: CodeNotNumeric})
			continue
		}
		values[i] = v
	}
	return values, errs
}
