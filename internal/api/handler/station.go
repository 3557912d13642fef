package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/airlog/airlog/internal/api/models"
	"github.com/airlog/airlog/internal/api/response"
	"github.com/airlog/airlog/internal/station"
)

// StationHandler handles station and record endpoints.
type StationHandler struct {
	service *station.Service
}

// NewStationHandler creates a new StationHandler.
func NewStationHandler(service *station.Service) *StationHandler {
	return &StationHandler{service: service}
}

func filterParams(r *http.Request) models.RecordFilterParams {
	q := r.URL.Query()
	return models.RecordFilterParams{
		From:      q.Get("from"),
		To:        q.Get("to"),
		Limit:     q.Get("limit"),
		Pollutant: q.Get("pollutant"),
	}
}

// ListStations handles GET /v1/stations.
func (h *StationHandler) ListStations(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, list)
}

// NearestStations handles GET /v1/stations/nearest.
func (h *StationHandler) NearestStations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := h.service.Nearest(r.Context(), models.NearestParams{
		Lat:    q.Get("lat"),
		Lng:    q.Get("lng"),
		Radius: q.Get("radius"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, list)
}

// GetStation handles GET /v1/stations/{stationId}.
func (h *StationHandler) GetStation(w http.ResponseWriter, r *http.Request) {
	st, err := h.service.Get(r.Context(), chi.URLParam(r, "stationId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, st)
}

// CreateStation handles POST /v1/stations.
func (h *StationHandler) CreateStation(w http.ResponseWriter, r *http.Request) {
	var input models.StationCreateRequest
	if err := decodeJSON(w, r, &input); err != nil {
		response.BadRequest(w, r, err.Error(), nil)
		return
	}

	created, err := h.service.Create(r.Context(), &input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.Created(w, r, "/v1/stations/"+created.CreatedStation.ID, created)
}

// UpdateStation handles PATCH /v1/stations/{stationId}. Only the name is mutable.
func (h *StationHandler) UpdateStation(w http.ResponseWriter, r *http.Request) {
	var input models.StationUpdateRequest
	if err := decodeJSON(w, r, &input); err != nil {
		response.BadRequest(w, r, err.Error(), nil)
		return
	}

	updated, err := h.service.UpdateName(r.Context(), chi.URLParam(r, "stationId"), &input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, updated)
}

// DeleteStation handles DELETE /v1/stations/{stationId}.
func (h *StationHandler) DeleteStation(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "stationId")); err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, models.MessageResponse{Message: station.MsgStationDeleted})
}

// ListStationRecords handles GET /v1/stations/{stationId}/records.
func (h *StationHandler) ListStationRecords(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListRecords(r.Context(), chi.URLParam(r, "stationId"), filterParams(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, list)
}

// AppendRecord handles POST /v1/stations/{stationId}/records.
func (h *StationHandler) AppendRecord(w http.ResponseWriter, r *http.Request) {
	var input models.RecordCreateRequest
	if err := decodeJSON(w, r, &input); err != nil {
		response.BadRequest(w, r, err.Error(), nil)
		return
	}

	stationID := chi.URLParam(r, "stationId")
	updated, err := h.service.AppendRecord(r.Context(), stationID, &input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.Created(w, r, "/v1/stations/"+stationID+"/records", updated)
}

// StationSummary handles GET /v1/stations/{stationId}/summary.
func (h *StationHandler) StationSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context(), chi.URLParam(r, "stationId"), filterParams(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, summary)
}

// ListRecords handles GET /v1/records, merging the records of every station.
func (h *StationHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListAllRecords(r.Context(), filterParams(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, list)
}
