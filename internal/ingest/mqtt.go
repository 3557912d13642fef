package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
)

const (
	// qosAtLeastOnce is the MQTT delivery guarantee used for subscriptions.
	qosAtLeastOnce = byte(1)
	// handleTimeout bounds the store work for one delivery.
	handleTimeout = 30 * time.Second
)

// MQTTConfig holds configuration for the MQTT source.
type MQTTConfig struct {
	Broker   string
	Port     int
	ClientID string
	// Topic may contain wildcards, e.g. "airlog/stations/+/records".
	Topic  string
	Logger zerolog.Logger
}

// MQTTSource receives ingest messages from an MQTT broker.
//
// Acknowledgement is manual. A nacked delivery is left unacknowledged so the
// broker redelivers it on the next session, which is kept across reconnects.
type MQTTSource struct {
	client  mqtt.Client
	cfg     MQTTConfig
	handler *Handler
	logger  zerolog.Logger

	mu        sync.RWMutex
	connected bool
}

// NewMQTTSource creates a new MQTT source. It does not connect.
func NewMQTTSource(cfg MQTTConfig, handler *Handler) *MQTTSource {
	s := &MQTTSource{
		cfg:     cfg,
		handler: handler,
		logger:  cfg.Logger.With().Str("source", "mqtt").Logger(),
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.Broker, cfg.Port))
	opts.SetClientID(cfg.ClientID)
	opts.SetCleanSession(false)
	opts.SetAutoAckDisabled(true)
	opts.SetOrderMatters(false)

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)
	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	// Subscriptions are restored on every (re)connect.
	opts.SetOnConnectHandler(func(c mqtt.Client) {
		s.setConnected(true)
		s.logger.Info().Str("broker", cfg.Broker).Int("port", cfg.Port).Msg("mqtt connected")
		if err := s.subscribe(c); err != nil {
			s.logger.Error().Err(err).Msg("mqtt subscribe failed")
		}
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		s.setConnected(false)
		s.logger.Warn().Err(err).Msg("mqtt connection lost")
	})

	s.client = mqtt.NewClient(opts)
	return s
}

// Run connects and processes messages until ctx is cancelled.
func (s *MQTTSource) Run(ctx context.Context) error {
	token := s.client.Connect()

	const poll = 200 * time.Millisecond
	for !token.WaitTimeout(poll) {
		select {
		case <-ctx.Done():
			s.client.Disconnect(0)
			return ctx.Err()
		default:
		}
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}

	<-ctx.Done()
	return nil
}

func (s *MQTTSource) subscribe(c mqtt.Client) error {
	token := c.Subscribe(s.cfg.Topic, qosAtLeastOnce, s.onMessage)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("subscribe timeout for topic %s", s.cfg.Topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe to %s: %w", s.cfg.Topic, err)
	}
	s.logger.Info().Str("topic", s.cfg.Topic).Msg("subscribed to mqtt topic")
	return nil
}

func (s *MQTTSource) onMessage(_ mqtt.Client, msg mqtt.Message) {
	s.logger.Debug().Str("topic", msg.Topic()).Int("size", len(msg.Payload())).Msg("received mqtt message")

	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	if s.handler.Handle(ctx, msg.Payload(), StationIDFromTopic(msg.Topic())) == Ack {
		msg.Ack()
	}
}

// IsConnected reports whether the broker connection is up.
func (s *MQTTSource) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected && s.client.IsConnected()
}

// Close unsubscribes and disconnects.
func (s *MQTTSource) Close() error {
	if s.IsConnected() {
		s.client.Unsubscribe(s.cfg.Topic).WaitTimeout(2 * time.Second)
	}
	s.client.Disconnect(250)
	s.setConnected(false)
	s.logger.Info().Msg("mqtt source disconnected")
	return nil
}

func (s *MQTTSource) setConnected(v bool) {
	s.mu.Lock()
	s.connected = v
	s.mu.Unlock()
}
