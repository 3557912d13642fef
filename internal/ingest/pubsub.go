package ingest

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
)

// PubSubConfig holds configuration for the Pub/Sub source.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	// MaxOutstanding bounds concurrently processed messages. Default: 10.
	MaxOutstanding int
	Logger         zerolog.Logger
}

// PubSubSource receives ingest messages from a Pub/Sub subscription.
type PubSubSource struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	handler          *Handler
	logger           zerolog.Logger
}

// NewPubSubSource creates a new Pub/Sub source.
func NewPubSubSource(ctx context.Context, cfg PubSubConfig, handler *Handler) (*PubSubSource, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	maxOutstanding := cfg.MaxOutstanding
	if maxOutstanding <= 0 {
		maxOutstanding = 10
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)
	subscriber.ReceiveSettings.MaxOutstandingMessages = maxOutstanding
	subscriber.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &PubSubSource{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		handler:          handler,
		logger:           cfg.Logger.With().Str("source", "pubsub").Logger(),
	}, nil
}

// Run receives messages until ctx is cancelled.
func (s *PubSubSource) Run(ctx context.Context) error {
	s.logger.Info().
		Str("subscription", s.subscriptionName).
		Msg("starting pubsub source")

	return s.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		s.logger.Debug().
			Str("message_id", msg.ID).
			Str("publish_time", msg.PublishTime.Format(time.RFC3339)).
			Msg("received pubsub message")

		// Publishers may name the station in an attribute instead of the body.
		if s.handler.Handle(ctx, msg.Data, msg.Attributes["stationId"]) == Nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

// Close closes the Pub/Sub client.
func (s *PubSubSource) Close() error {
	return s.client.Close()
}
