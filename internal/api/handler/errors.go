package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/airlog/airlog/internal/api/response"
	"github.com/airlog/airlog/internal/resilience"
	"github.com/airlog/airlog/internal/station"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

const msgStationNotFound = "Station not found"

// errInvalidBody marks a body that is not a JSON object.
var errInvalidBody = errors.New("invalid JSON body")

// decodeJSON reads a JSON request body into dst. An empty body decodes to
// the zero value so that missing fields surface as validation errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return errInvalidBody
	}
	return nil
}

// writeError maps station service errors onto Problem+JSON responses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		valErr   *station.ValidationError
		paramErr *station.ParameterError
	)

	switch {
	case errors.As(err, &valErr):
		response.BadRequest(w, r, valErr.Message, valErr.Errors)
	case errors.Is(err, station.ErrInvalidRange):
		response.InvalidParameter(w, r, err.Error()+".")
	case errors.As(err, &paramErr):
		response.InvalidParameter(w, r, paramErr.Message)
	case errors.Is(err, station.ErrStationNotFound):
		response.NotFound(w, r, msgStationNotFound)
	case errors.Is(err, resilience.ErrCircuitOpen):
		logFromRequest(r).Warn().Err(err).Msg("station store unavailable")
		response.ServiceUnavailable(w, r, "station store temporarily unavailable")
	default:
		logFromRequest(r).Error().Err(err).Msg("request failed")
		response.InternalError(w, r, "An internal error occurred.")
	}
}
