package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker/v2"
)

// ErrCircuitOpen is returned when the circuit breaker rejects a call.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// GuardConfig holds configuration for a Guard.
type GuardConfig struct {
	// Name identifies the guarded dependency in the registry.
	Name string

	// MaxRetries bounds retries made by Retry.
	// Default: 2
	MaxRetries uint64

	// InitialInterval is the initial retry backoff interval.
	// Default: 50ms
	InitialInterval time.Duration

	// MaxInterval is the maximum retry backoff interval.
	// Default: 1 second
	MaxInterval time.Duration

	// Expected reports errors that are ordinary outcomes rather than
	// dependency failures. They neither trip the breaker nor get retried.
	Expected func(err error) bool

	// CircuitBreaker is the circuit breaker configuration.
	// If nil, uses DefaultCircuitBreakerConfig.
	CircuitBreaker *CircuitBreakerConfig

	// Registry receives success and failure reports. May be nil.
	Registry *Registry
}

// DefaultGuardConfig returns sensible defaults for a store guard.
func DefaultGuardConfig(name string) GuardConfig {
	cbConfig := DefaultCircuitBreakerConfig(name)
	return GuardConfig{
		Name:            name,
		MaxRetries:      2,
		InitialInterval: 50 * time.Millisecond,
		MaxInterval:     time.Second,
		CircuitBreaker:  &cbConfig,
	}
}

// Guard runs operations through a circuit breaker with optional retries.
type Guard struct {
	breaker *gobreaker.CircuitBreaker[struct{}]
	config  GuardConfig
}

// NewGuard creates a Guard and registers it when a registry is configured.
func NewGuard(cfg GuardConfig) *Guard {
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 2
	}
	if cfg.InitialInterval == 0 {
		cfg.InitialInterval = 50 * time.Millisecond
	}
	if cfg.MaxInterval == 0 {
		cfg.MaxInterval = time.Second
	}

	cbConfig := DefaultCircuitBreakerConfig(cfg.Name)
	if cfg.CircuitBreaker != nil {
		cbConfig = *cfg.CircuitBreaker
	}
	if cbConfig.IsSuccessful == nil {
		cbConfig.IsSuccessful = func(err error) bool {
			return err == nil || cfg.isExpected(err)
		}
	}

	g := &Guard{
		breaker: NewCircuitBreaker[struct{}](cbConfig),
		config:  cfg,
	}

	if cfg.Registry != nil {
		cfg.Registry.Register(cfg.Name, g)
	}

	return g
}

func (c GuardConfig) isExpected(err error) bool {
	return c.Expected != nil && c.Expected(err)
}

// Name returns the guarded dependency name.
func (g *Guard) Name() string {
	return g.config.Name
}

// Execute runs fn once through the circuit breaker.
func (g *Guard) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	_, err := g.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = ErrCircuitOpen
	}
	g.report(err)
	return err
}

// Retry runs fn through the circuit breaker, retrying unexpected failures with
// exponential backoff. Only idempotent operations should be retried.
func (g *Guard) Retry(ctx context.Context, fn func(ctx context.Context) error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = g.config.InitialInterval
	bo.MaxInterval = g.config.MaxInterval
	bo.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, g.config.MaxRetries), ctx)

	return backoff.Retry(func() error {
		err := g.Execute(ctx, fn)
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrCircuitOpen) || g.config.isExpected(err) || ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return err
	}, policy)
}

// report records the call outcome. Calls rejected by an open breaker never
// reached the dependency and are not recorded.
func (g *Guard) report(err error) {
	if g.config.Registry == nil || errors.Is(err, ErrCircuitOpen) {
		return
	}
	if err == nil || g.config.isExpected(err) {
		g.config.Registry.RecordSuccess(g.config.Name)
		return
	}
	g.config.Registry.RecordFailure(g.config.Name, err)
}

// CircuitBreakerState returns the current state of the circuit breaker.
func (g *Guard) CircuitBreakerState() gobreaker.State {
	return g.breaker.State()
}

// CircuitBreakerCounts returns the current counts of the circuit breaker.
func (g *Guard) CircuitBreakerCounts() gobreaker.Counts {
	return g.breaker.Counts()
}
