package station

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/airlog/airlog/internal/api/models"
)

// Response messages.
const (
	MsgStationCreated   = "Station created successfully"
	MsgStationUpdated   = "Station updated successfully"
	MsgStationUnchanged = "Station found but no changes made"
	MsgStationDeleted   = "Station deleted successfully"
	MsgRecordAdded      = "Record added successfully"
)

// ServiceConfig holds configuration for the station service.
type ServiceConfig struct {
	Repository Repository
	// BaseURL prefixes the follow-up links returned to clients.
	BaseURL string
	Logger  zerolog.Logger
}

// Service provides station and record operations.
type Service struct {
	repo    Repository
	baseURL string
	logger  zerolog.Logger
}

// NewService creates a new station service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		repo:    cfg.Repository,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		logger:  cfg.Logger.With().Str("component", "station").Logger(),
	}
}

// List returns every station projected to its id, name and coordinates.
func (s *Service) List(ctx context.Context) (*models.StationList, error) {
	stations, err := s.repo.List(ctx)
	if err != nil {
		return nil, storeErr("list", err)
	}

	items := make([]models.StationListItem, 0, len(stations))
	for _, st := range stations {
		items = append(items, s.toListItem(st))
	}

	return &models.StationList{Count: len(items), Stations: items}, nil
}

// Get retrieves a station with its records.
func (s *Service) Get(ctx context.Context, id string) (*models.Station, error) {
	st, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, storeErr("get", err)
	}

	result := toAPIStation(st)
	return &result, nil
}

// Create validates and stores a new station.
func (s *Service) Create(ctx context.Context, input *models.StationCreateRequest) (*models.StationCreatedResponse, error) {
	st, err := ValidateCreate(input)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	st.ID = "stn_" + uuid.New().String()[:22]
	st.CreatedAt = now
	st.UpdatedAt = now

	if err := s.repo.Create(ctx, st); err != nil {
		return nil, storeErr("create", err)
	}

	s.logger.Info().Str("station_id", st.ID).Msg("station created")

	return &models.StationCreatedResponse{
		Message:        MsgStationCreated,
		CreatedStation: toAPIStation(st),
	}, nil
}

// UpdateName changes a station's name. The name is validated before the
// store is touched, so a rejected name leaves the station unchanged.
func (s *Service) UpdateName(ctx context.Context, id string, input *models.StationUpdateRequest) (*models.StationUpdatedResponse, error) {
	if err := ValidateName(input.Name); err != nil {
		return nil, err
	}

	result, err := s.repo.UpdateName(ctx, id, input.Name)
	if err != nil {
		return nil, storeErr("update name", err)
	}
	if !result.Matched {
		return nil, ErrStationNotFound
	}

	st, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, storeErr("get", err)
	}

	message := MsgStationUnchanged
	if result.Modified {
		message = MsgStationUpdated
		s.logger.Info().Str("station_id", id).Msg("station renamed")
	}

	return &models.StationUpdatedResponse{
		Message:        message,
		UpdatedStation: toAPIStation(st),
		Request:        s.link(id),
	}, nil
}

// Delete removes a station and its records.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeErr("delete", err)
	}

	s.logger.Info().Str("station_id", id).Msg("station deleted")
	return nil
}

// ListRecords returns one station's records after applying the filter.
func (s *Service) ListRecords(ctx context.Context, id string, params models.RecordFilterParams) (*models.StationRecordList, error) {
	spec, err := ParseFilter(params)
	if err != nil {
		return nil, err
	}

	st, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, storeErr("get", err)
	}

	filtered := FilterRecords(st, spec)
	records := make([]models.Record, 0, len(filtered))
	for _, r := range filtered {
		records = append(records, toAPIRecord(r.Record))
	}

	return &models.StationRecordList{
		Message: fmt.Sprintf("Found %d records", len(records)),
		Count:   len(records),
		Records: records,
	}, nil
}

// AppendRecord validates a record and appends it to a station.
func (s *Service) AppendRecord(ctx context.Context, id string, input *models.RecordCreateRequest) (*models.StationUpdatedResponse, error) {
	rec, err := ValidateRecord(input)
	if err != nil {
		return nil, err
	}

	st, err := s.repo.AppendRecord(ctx, id, *rec)
	if err != nil {
		return nil, storeErr("append record", err)
	}

	s.logger.Debug().Str("station_id", id).Float64("ts", rec.TS).Msg("record appended")

	return &models.StationUpdatedResponse{
		Message:        MsgRecordAdded,
		UpdatedStation: toAPIStation(st),
		Request:        s.link(id),
	}, nil
}

// ListAllRecords merges the records of every station, filtered, newest first.
func (s *Service) ListAllRecords(ctx context.Context, params models.RecordFilterParams) (*models.AggregatedRecordList, error) {
	spec, err := ParseFilter(params)
	if err != nil {
		return nil, err
	}

	stations, err := s.repo.ListWithRecords(ctx)
	if err != nil {
		return nil, storeErr("list records", err)
	}

	aggregated := Aggregate(stations, spec)
	records := make([]models.AggregatedRecord, 0, len(aggregated))
	for _, r := range aggregated {
		records = append(records, models.AggregatedRecord{
			StationName: r.StationName,
			Record:      toAPIRecord(r.Record),
		})
	}

	return &models.AggregatedRecordList{Count: len(records), Records: records}, nil
}

// Nearest returns stations within a radius of a point, nearest first.
func (s *Service) Nearest(ctx context.Context, params models.NearestParams) (*models.NearbyStationList, error) {
	q, err := ParseNearest(params)
	if err != nil {
		return nil, err
	}

	stations, err := s.repo.List(ctx)
	if err != nil {
		return nil, storeErr("list", err)
	}

	nearby := Nearest(stations, q)
	items := make([]models.NearbyStation, 0, len(nearby))
	for _, n := range nearby {
		items = append(items, models.NearbyStation{
			StationListItem: s.toListItem(n.Station),
			DistanceKm:      n.DistanceKm,
		})
	}

	return &models.NearbyStationList{Count: len(items), Stations: items}, nil
}

// Summary reports per-pollutant statistics over a station's filtered records.
func (s *Service) Summary(ctx context.Context, id string, params models.RecordFilterParams) (*models.RecordSummary, error) {
	spec, err := ParseFilter(params)
	if err != nil {
		return nil, err
	}

	st, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, storeErr("get", err)
	}

	filtered := FilterRecords(st, spec)
	records := make([]Record, 0, len(filtered))
	for _, r := range filtered {
		records = append(records, r.Record)
	}

	sum := Summarize(records)
	pollutants := make(map[string]models.PollutantStats, len(sum.Pollutants))
	for p, stats := range sum.Pollutants {
		out := models.PollutantStats{Count: stats.Count}
		if mean, ok := stats.Mean(); ok {
			minV, maxV := stats.Min, stats.Max
			out.Min = &minV
			out.Max = &maxV
			out.Mean = &mean
		}
		pollutants[string(p)] = out
	}

	return &models.RecordSummary{
		StationID:   st.ID,
		StationName: st.Name,
		RecordCount: sum.RecordCount,
		FirstTS:     sum.FirstTS,
		LastTS:      sum.LastTS,
		Pollutants:  pollutants,
	}, nil
}

// Ping checks that the station store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return storeErr("ping", s.repo.Ping(ctx))
}

func (s *Service) link(id string) *models.RequestLink {
	return &models.RequestLink{
		Type: "GET",
		URL:  s.baseURL + "/v1/stations/" + id,
	}
}

func (s *Service) toListItem(st *Station) models.StationListItem {
	return models.StationListItem{
		ID:        st.ID,
		Name:      st.Name,
		Latitude:  st.Latitude,
		Longitude: st.Longitude,
		Request:   s.link(st.ID),
	}
}

func toAPIStation(st *Station) models.Station {
	records := make([]models.Record, 0, len(st.Records))
	for _, r := range st.Records {
		records = append(records, toAPIRecord(r))
	}

	return models.Station{
		ID:        st.ID,
		Name:      st.Name,
		Latitude:  st.Latitude,
		Longitude: st.Longitude,
		Records:   records,
		CreatedAt: models.Timestamp(st.CreatedAt),
		UpdatedAt: models.Timestamp(st.UpdatedAt),
	}
}

func toAPIRecord(r Record) models.Record {
	return models.Record{
		TS:   r.TS,
		NOx:  r.NOx,
		NO2:  r.NO2,
		NO:   r.NO,
		PM10: r.PM10,
		CO:   r.CO,
		O3:   r.O3,
		SO2:  r.SO2,
	}
}
