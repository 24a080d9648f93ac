package circuitbreaker

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
)

type CircuitState int

const (
	// Closed lets calls through and counts consecutive failures.
	Closed CircuitState = iota
	// Open rejects calls until RecoveryTimeout has passed.
	Open
	// HalfOpen lets up to SuccessThreshold trial calls through.
	HalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

var ErrCircuitOpen = errors.New("circuit breaker is open")

type CircuitBreaker interface {
	Call(func() error) error
	State() CircuitState
}

type Config struct {
	// Name shows up in gobreaker's own state tracking.
	Name             string
	FailureThreshold int
	RecoveryTimeout  time.Duration
	// SuccessThreshold is both the number of half-open trial calls admitted and
	// the number of successes that close the circuit.
	SuccessThreshold int

	// IsFailure decides which errors count against the circuit. By default a
	// canceled context is the caller giving up, not the dependency failing.
	IsFailure func(error) bool

	// OnStateChange runs under the breaker's lock and must not call back into it.
	OnStateChange func(from, to CircuitState)
}

func DefaultConfig() *Config {
	return &Config{
		FailureThreshold: 5,
		RecoveryTimeout:  60 * time.Second,
		SuccessThreshold: 3,
	}
}

func defaultIsFailure(err error) bool {
	return err != nil && !errors.Is(err, context.Canceled)
}

type circuitBreaker struct {
	breaker *gobreaker.CircuitBreaker
}

// NewCircuitBreaker applies defaults for nil config and zero-valued fields.
func NewCircuitBreaker(config *Config) CircuitBreaker {
	if config == nil {
		config = DefaultConfig()
	}
	cfg := *config
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 1
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 1
	}
	if cfg.IsFailure == nil {
		cfg.IsFailure = defaultIsFailure
	}

	threshold := uint32(cfg.FailureThreshold)
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: uint32(cfg.SuccessThreshold),
		Timeout:     cfg.RecoveryTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return !cfg.IsFailure(err)
		},
	}
	if cfg.OnStateChange != nil {
		settings.OnStateChange = func(_ string, from, to gobreaker.State) {
			cfg.OnStateChange(fromGobreaker(from), fromGobreaker(to))
		}
	}

	return &circuitBreaker{breaker: gobreaker.NewCircuitBreaker(settings)}
}

// Call runs fn unless the circuit is open. fn's error is returned unchanged.
func (cb *circuitBreaker) Call(fn func() error) error {
	_, err := cb.breaker.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrCircuitOpen
	}
	return err
}

func (cb *circuitBreaker) State() CircuitState {
	return fromGobreaker(cb.breaker.State())
}

func fromGobreaker(s gobreaker.State) CircuitState {
	switch s {
	case gobreaker.StateOpen:
		return Open
	case gobreaker.StateHalfOpen:
		return HalfOpen
	default:
		return Closed
	}
}
