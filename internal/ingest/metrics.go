package ingest

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/airlog/airlog/internal/telemetry"
)

const meterName = "github.com/airlog/airlog/internal/ingest"

// Delivery results recorded on the metrics and in Stats.
const (
	resultAppended = "appended"
	resultRejected = "rejected"
	resultFailed   = "failed"
)

// Metrics holds the OpenTelemetry instruments for ingest deliveries.
type Metrics struct {
	messages metric.Int64Counter
	duration metric.Float64Histogram
}

// NewMetrics creates ingest instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := telemetry.Meter(meterName)

	messages, err := meter.Int64Counter(
		"airlog.ingest.messages",
		metric.WithDescription("Ingest deliveries by result"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"airlog.ingest.duration",
		metric.WithDescription("Time spent handling one ingest delivery"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{messages: messages, duration: duration}, nil
}

func (m *Metrics) record(ctx context.Context, source, result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("source", source),
		attribute.String("result", result),
	)
	m.messages.Add(ctx, 1, attrs)
	m.duration.Record(ctx, elapsed.Seconds(), attrs)
}
