package ingest_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airlog/airlog/internal/api/models"
	"github.com/airlog/airlog/internal/ingest"
	"github.com/airlog/airlog/internal/station"
)

var errDown = errors.New("connection refused")

// brokenAppender fails every append with a store error.
type brokenAppender struct{}

func (brokenAppender) AppendRecord(context.Context, string, *models.RecordCreateRequest) (*models.StationUpdatedResponse, error) {
	return nil, &station.StoreError{Op: "append record", Err: errDown}
}

func newStationService(t *testing.T) (*station.Service, string) {
	t.Helper()
	svc := station.NewService(station.ServiceConfig{
		Repository: station.NewInMemoryRepository(),
		Logger:     zerolog.New(io.Discard),
	})
	created, err := svc.Create(context.Background(), &models.StationCreateRequest{
		Name:      "Leeds Centre",
		Latitude:  models.NewNumber(53.8),
		Longitude: models.NewNumber(-1.55),
	})
	require.NoError(t, err)
	return svc, created.CreatedStation.ID
}

func TestHandler_AppendsRecord(t *testing.T) {
	svc, id := newStationService(t)
	h := ingest.NewHandler(svc, zerolog.New(io.Discard))

	payload := `{"stationId":"` + id + `","record":{"ts":1000,"nox":1.2,"no2":0,"no":"3","so2":0}}`
	outcome := h.Handle(context.Background(), []byte(payload), "")

	assert.Equal(t, ingest.Ack, outcome)
	st, err := svc.Get(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, st.Records, 1)
	assert.Equal(t, 3.0, st.Records[0].NO)
	require.NotNil(t, st.Records[0].SO2)
	assert.Nil(t, st.Records[0].PM10)
	assert.Equal(t, ingest.Stats{Received: 1, Appended: 1}, h.Stats())
}

func TestHandler_UsesFallbackStationID(t *testing.T) {
	svc, id := newStationService(t)
	h := ingest.NewHandler(svc, zerolog.New(io.Discard))

	outcome := h.Handle(context.Background(), []byte(`{"record":{"ts":1,"nox":1,"no2":1,"no":1}}`), id)

	assert.Equal(t, ingest.Ack, outcome)
	assert.Equal(t, int64(1), h.Stats().Appended)
}

func TestHandler_PermanentFailuresAreAcked(t *testing.T) {
	svc, id := newStationService(t)

	tests := []struct {
		name    string
		payload string
	}{
		{"malformed json", `{"stationId":`},
		{"no station id", `{"record":{"ts":1,"nox":1,"no2":1,"no":1}}`},
		{"missing ts", `{"stationId":"` + id + `","record":{"nox":1,"no2":1,"no":1}}`},
		{"non numeric reading", `{"stationId":"` + id + `","record":{"ts":1,"nox":"high","no2":1,"no":1}}`},
		{"unknown station", `{"stationId":"stn_missing","record":{"ts":1,"nox":1,"no2":1,"no":1}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := ingest.NewHandler(svc, zerolog.New(io.Discard))

			assert.Equal(t, ingest.Ack, h.Handle(context.Background(), []byte(tt.payload), ""))
			assert.Equal(t, ingest.Stats{Received: 1, Rejected: 1}, h.Stats())
		})
	}

	st, err := svc.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Empty(t, st.Records)
}

func TestHandler_StoreFailureIsNacked(t *testing.T) {
	h := ingest.NewHandler(brokenAppender{}, zerolog.New(io.Discard))

	outcome := h.Handle(context.Background(), []byte(`{"stationId":"stn_1","record":{"ts":1,"nox":1,"no2":1,"no":1}}`), "")

	assert.Equal(t, ingest.Nack, outcome)
	assert.Equal(t, "nack", outcome.String())
	assert.Equal(t, ingest.Stats{Received: 1, Failed: 1}, h.Stats())
}

func TestStationIDFromTopic(t *testing.T) {
	tests := []struct {
		topic string
		want  string
	}{
		{"airlog/stations/stn_123/records", "stn_123"},
		{"stations/abc/records", "abc"},
		{"site/leeds/stations/stn_9/records", "stn_9"},
		{"airlog/stations/stn_123", ""},
		{"airlog/stations//records", ""},
		{"airlog/records", ""},
	}

	for _, tt := range tests {
		t.Run(tt.topic, func(t *testing.T) {
			assert.Equal(t, tt.want, ingest.StationIDFromTopic(tt.topic))
		})
	}
}

func TestHandler_WithMetrics(t *testing.T) {
	metrics, err := ingest.NewMetrics()
	require.NoError(t, err)

	svc, id := newStationService(t)
	h := ingest.NewHandler(svc, zerolog.New(io.Discard)).WithMetrics("mqtt", metrics)

	assert.Equal(t, ingest.Ack, h.Handle(context.Background(), []byte(`{"record":{"ts":1,"nox":1,"no2":1,"no":1}}`), id))
	assert.Equal(t, ingest.Ack, h.Handle(context.Background(), []byte(`not json`), id))
	assert.Equal(t, ingest.Stats{Received: 2, Appended: 1, Rejected: 1}, h.Stats())
}
