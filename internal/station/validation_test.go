package station_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airlog/airlog/internal/api/models"
	"github.com/airlog/airlog/internal/station"
)

func decodeRecord(t *testing.T, body string) *models.RecordCreateRequest {
	t.Helper()
	var req models.RecordCreateRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))
	return &req
}

func decodeStation(t *testing.T, body string) *models.StationCreateRequest {
	t.Helper()
	var req models.StationCreateRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))
	return &req
}

func requireValidationError(t *testing.T, err error) *station.ValidationError {
	t.Helper()
	var valErr *station.ValidationError
	require.True(t, errors.As(err, &valErr), "expected ValidationError, got %v", err)
	return valErr
}

func TestValidateCreate_Valid(t *testing.T) {
	st, err := station.ValidateCreate(decodeStation(t, `{"name":"Leeds Centre","latitude":53.8,"longitude":"-1.55"}`))

	require.NoError(t, err)
	assert.Equal(t, "Leeds Centre", st.Name)
	assert.Equal(t, 53.8, st.Latitude)
	assert.Equal(t, -1.55, st.Longitude)
	assert.NotNil(t, st.Records)
	assert.Empty(t, st.Records)
}

func TestValidateCreate_ZeroCoordinates(t *testing.T) {
	st, err := station.ValidateCreate(decodeStation(t, `{"name":"Null Island","latitude":0,"longitude":0}`))

	require.NoError(t, err)
	assert.Zero(t, st.Latitude)
	assert.Zero(t, st.Longitude)
}

func TestValidateCreate_Missing(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantField string
	}{
		{"missing name", `{"latitude":1,"longitude":2}`, "name"},
		{"blank name", `{"name":"  ","latitude":1,"longitude":2}`, "name"},
		{"missing latitude", `{"name":"A","longitude":2}`, "latitude"},
		{"null longitude", `{"name":"A","latitude":1,"longitude":null}`, "longitude"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := station.ValidateCreate(decodeStation(t, tt.body))

			valErr := requireValidationError(t, err)
			assert.Contains(t, valErr.Message, "Missing required fields")
			require.NotEmpty(t, valErr.Errors)
			assert.Equal(t, tt.wantField, valErr.Errors[0].Field)
			assert.Equal(t, station.CodeRequired, valErr.Errors[0].Code)
		})
	}
}

func TestValidateCreate_NotNumeric(t *testing.T) {
	tests := []string{
		`{"name":"A","latitude":"north","longitude":2}`,
		`{"name":"A","latitude":1,"longitude":true}`,
		`{"name":"A","latitude":1,"longitude":""}`,
		`{"name":"A","latitude":[1],"longitude":2}`,
	}

	for _, body := range tests {
		_, err := station.ValidateCreate(decodeStation(t, body))

		valErr := requireValidationError(t, err)
		assert.Equal(t, "Invalid input: latitude and longitude must be numbers.", valErr.Message)
		assert.Equal(t, station.CodeNotNumeric, valErr.Errors[0].Code)
	}
}

func TestValidateName(t *testing.T) {
	valid := []string{"Station 1", "abc", "A B C 123"}
	for _, name := range valid {
		assert.NoError(t, station.ValidateName(name), name)
	}

	invalid := []string{"", "   ", "Invalid@Name!", "Café", "tab\tname", "dash-name"}
	for _, name := range invalid {
		err := station.ValidateName(name)
		valErr := requireValidationError(t, err)
		assert.Equal(t, "name", valErr.Errors[0].Field, name)
	}
}

func TestValidateRecord_Valid(t *testing.T) {
	rec, err := station.ValidateRecord(decodeRecord(t, `{"ts":1700000000,"nox":12.5,"no2":"8","no":4,"pm10":0,"o3":null}`))

	require.NoError(t, err)
	assert.Equal(t, 1700000000.0, rec.TS)
	assert.Equal(t, 12.5, rec.NOx)
	assert.Equal(t, 8.0, rec.NO2)
	assert.Equal(t, 4.0, rec.NO)

	require.NotNil(t, rec.PM10, "a zero reading is a real value")
	assert.Zero(t, *rec.PM10)
	assert.Nil(t, rec.CO)
	assert.Nil(t, rec.O3)
	assert.Nil(t, rec.SO2)
}

func TestValidateRecord_ZeroRequiredReadings(t *testing.T) {
	rec, err := station.ValidateRecord(decodeRecord(t, `{"ts":0,"nox":0,"no2":0,"no":0}`))

	require.NoError(t, err)
	assert.Zero(t, rec.TS)
}

func TestValidateRecord_MissingRequired(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantField string
	}{
		{"missing ts", `{"nox":1,"no2":2,"no":3}`, "ts"},
		{"missing nox", `{"ts":1,"no2":2,"no":3}`, "nox"},
		{"missing no2", `{"ts":1,"nox":1,"no":3}`, "no2"},
		{"null no", `{"ts":1,"nox":1,"no2":2,"no":null}`, "no"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := station.ValidateRecord(decodeRecord(t, tt.body))

			valErr := requireValidationError(t, err)
			assert.Equal(t, "Missing required fields: ts, nox, no2, and no are required.", valErr.Message)
			require.Len(t, valErr.Errors, 1)
			assert.Equal(t, tt.wantField, valErr.Errors[0].Field)
		})
	}
}

func TestValidateRecord_NotNumeric(t *testing.T) {
	_, err := station.ValidateRecord(decodeRecord(t, `{"ts":"later","nox":1,"no2":2,"no":3}`))
	valErr := requireValidationError(t, err)
	assert.Equal(t, "Invalid input: ts, nox, no2, and no must be numbers.", valErr.Message)

	_, err = station.ValidateRecord(decodeRecord(t, `{"ts":1,"nox":1,"no2":2,"no":3,"so2":"lots"}`))
	valErr = requireValidationError(t, err)
	assert.Equal(t, "Invalid input: so2 must be a number if provided.", valErr.Message)
	assert.Equal(t, "so2", valErr.Errors[0].Field)
}
