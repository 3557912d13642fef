// Package ingest appends pollution records delivered by message brokers.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/airlog/airlog/internal/api/models"
	"github.com/airlog/airlog/internal/station"
)

// Message is the JSON payload of one ingest delivery.
type Message struct {
	StationID string                     `json:"stationId"`
	Record    models.RecordCreateRequest `json:"record"`
}

// Outcome tells a source whether to acknowledge a delivery.
type Outcome int

const (
	// Ack removes the delivery. Used for appended records and for
	// deliveries that can never succeed.
	Ack Outcome = iota
	// Nack asks the broker to redeliver after a store failure.
	Nack
)

func (o Outcome) String() string {
	if o == Nack {
		return "nack"
	}
	return "ack"
}

// Source delivers messages to a Handler until its context ends.
type Source interface {
	Run(ctx context.Context) error
	Close() error
}

// Appender appends a validated record to a station.
type Appender interface {
	AppendRecord(ctx context.Context, stationID string, input *models.RecordCreateRequest) (*models.StationUpdatedResponse, error)
}

// Stats counts delivery outcomes.
type Stats struct {
	Received int64 `json:"received"`
	Appended int64 `json:"appended"`
	Rejected int64 `json:"rejected"`
	Failed   int64 `json:"failed"`
}

// Handler decodes deliveries and appends their records.
type Handler struct {
	appender Appender
	logger   zerolog.Logger
	source   string
	metrics  *Metrics

	received atomic.Int64
	appended atomic.Int64
	rejected atomic.Int64
	failed   atomic.Int64
}

// NewHandler creates a new Handler.
func NewHandler(appender Appender, logger zerolog.Logger) *Handler {
	return &Handler{
		appender: appender,
		logger:   logger.With().Str("component", "ingest").Logger(),
	}
}

// WithMetrics records every delivery on m, labelled with the source name.
func (h *Handler) WithMetrics(source string, m *Metrics) *Handler {
	h.source = source
	h.metrics = m
	return h
}

// Handle processes one payload. fallbackStationID is used when the payload
// names no station, as when the broker topic carries it.
func (h *Handler) Handle(ctx context.Context, payload []byte, fallbackStationID string) Outcome {
	start := time.Now()
	h.received.Add(1)

	result := h.handle(ctx, payload, fallbackStationID)
	h.metrics.record(ctx, h.source, result, time.Since(start))

	switch result {
	case resultAppended:
		h.appended.Add(1)
	case resultRejected:
		h.rejected.Add(1)
	default:
		h.failed.Add(1)
		return Nack
	}
	return Ack
}

func (h *Handler) handle(ctx context.Context, payload []byte, fallbackStationID string) string {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		h.logger.Warn().Err(err).Int("size", len(payload)).Msg("dropping malformed message")
		return resultRejected
	}

	stationID := strings.TrimSpace(msg.StationID)
	if stationID == "" {
		stationID = fallbackStationID
	}
	if stationID == "" {
		h.logger.Warn().Msg("dropping message without station id")
		return resultRejected
	}

	logger := h.logger.With().Str("station_id", stationID).Logger()

	_, err := h.appender.AppendRecord(ctx, stationID, &msg.Record)
	switch {
	case err == nil:
		logger.Debug().Msg("record ingested")
		return resultAppended

	case isPermanent(err):
		logger.Warn().Err(err).Msg("dropping rejected record")
		return resultRejected

	default:
		logger.Error().Err(err).Msg("record ingest failed")
		return resultFailed
	}
}

// Stats returns a snapshot of the outcome counters.
func (h *Handler) Stats() Stats {
	return Stats{
		Received: h.received.Load(),
		Appended: h.appended.Load(),
		Rejected: h.rejected.Load(),
		Failed:   h.failed.Load(),
	}
}

// isPermanent reports errors that redelivery cannot fix.
func isPermanent(err error) bool {
	var valErr *station.ValidationError
	return errors.As(err, &valErr) || errors.Is(err, station.ErrStationNotFound)
}
