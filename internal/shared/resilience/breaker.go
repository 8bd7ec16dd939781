package resilience

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"

	"legal-analyzer-api/internal/shared/telemetry"
)

// Config tunes the per-operation circuit breakers.
type Config struct {
	Enabled          bool
	MinRequests      uint32
	FailureRatio     float64
	OpenTimeout      time.Duration
	HalfOpenMaxCalls uint32
	Interval         time.Duration
}

// DefaultConfig returns the breaker settings used in production.
func DefaultConfig() Config {
	return Config{
		Enabled:          true,
		MinRequests:      5,
		FailureRatio:     0.6,
		OpenTimeout:      30 * time.Second,
		HalfOpenMaxCalls: 1,
		Interval:         time.Minute,
	}
}

func (c Config) normalize() Config {
	out := c
	def := DefaultConfig()
	if out.MinRequests == 0 {
		out.MinRequests = def.MinRequests
	}
	if out.FailureRatio <= 0 || out.FailureRatio > 1 {
		out.FailureRatio = def.FailureRatio
	}
	if out.OpenTimeout <= 0 {
		out.OpenTimeout = def.OpenTimeout
	}
	if out.HalfOpenMaxCalls == 0 {
		out.HalfOpenMaxCalls = def.HalfOpenMaxCalls
	}
	if out.Interval < 0 {
		out.Interval = 0
	}
	return out
}

// IsFailure decides whether an error counts against the breaker.
type IsFailure func(err error) bool

// StateListener is told whenever a breaker changes state.
type StateListener func(operation string, open bool)

// Breakers runs calls through one gobreaker instance per operation name.
// Calls are attempted once; there is no retry.
type Breakers struct {
	cfg      Config
	listener StateListener

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[any]
}

// New builds a Breakers set. listener may be nil.
func New(cfg Config, listener StateListener) *Breakers {
	return &Breakers{
		cfg:      cfg.normalize(),
		listener: listener,
		breakers: make(map[string]*gobreaker.CircuitBreaker[any]),
	}
}

// Execute invokes fn once, guarded by the breaker for operation.
func (b *Breakers) Execute(ctx context.Context, operation string, fn func(context.Context) error, isFailure IsFailure) error {
	if fn == nil {
		return fmt.Errorf("resilience: operation callback is nil")
	}
	if b == nil || !b.cfg.Enabled {
		return fn(ctx)
	}
	op := strings.TrimSpace(operation)
	if op == "" {
		op = "unknown"
	}
	if isFailure == nil {
		isFailure = DefaultIsFailure
	}

	breaker := b.circuitBreaker(op, isFailure)
	_, err := breaker.Execute(func() (any, error) {
		return nil, fn(ctx)
	})
	return err
}

// State reports the current state of the breaker for operation.
func (b *Breakers) State(operation string) gobreaker.State {
	if b == nil {
		return gobreaker.StateClosed
	}
	b.mu.Lock()
	breaker, ok := b.breakers[operation]
	b.mu.Unlock()
	if !ok {
		return gobreaker.StateClosed
	}
	return breaker.State()
}

func (b *Breakers) circuitBreaker(operation string, isFailure IsFailure) *gobreaker.CircuitBreaker[any] {
	b.mu.Lock()
	defer b.mu.Unlock()

	if breaker, ok := b.breakers[operation]; ok {
		return breaker
	}

	settings := gobreaker.Settings{
		Name:        operation,
		MaxRequests: b.cfg.HalfOpenMaxCalls,
		Interval:    b.cfg.Interval,
		Timeout:     b.cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < b.cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= b.cfg.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !isFailure(err)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			telemetry.Warn("circuit_breaker.state_change", map[string]any{
				"operation": name,
				"from":      from.String(),
				"to":        to.String(),
			})
			if b.listener != nil {
				b.listener(name, to == gobreaker.StateOpen)
			}
		},
	}

	breaker := gobreaker.NewCircuitBreaker[any](settings)
	b.breakers[operation] = breaker
	return breaker
}

// IsOpen reports whether err came from a tripped breaker rather than the call.
func IsOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

// DefaultIsFailure counts everything except caller cancellation.
func DefaultIsFailure(err error) bool {
	return !errors.Is(err, context.Canceled)
}
