package currency

import (
	"context"
	"errors"
	"sync"
	"time"
)

const (
	circuitBreakerThreshold   = 5
	circuitBreakerTimeout     = 5 * time.Minute
	circuitBreakerHalfOpenMax = 3
)

var ErrCircuitOpen = errors.New("rate source circuit open")

type CircuitState string

const (
	CircuitClosed   CircuitState = "closed"
	CircuitHalfOpen CircuitState = "half-open"
	CircuitOpen     CircuitState = "open"
)

// CircuitBreaker stops calling a failing rate source for a while after repeated failures.
type CircuitBreaker struct {
	mu               sync.Mutex
	failures         int
	state            CircuitState
	openUntil        time.Time
	halfOpenAttempts int

	threshold int
	timeout   time.Duration
	now       func() time.Time
}

func NewCircuitBreaker(threshold int, timeout time.Duration) *CircuitBreaker {
	if threshold <= 0 {
		threshold = circuitBreakerThreshold
	}
	if timeout <= 0 {
		timeout = circuitBreakerTimeout
	}
	return &CircuitBreaker{
		state:     CircuitClosed,
		threshold: threshold,
		timeout:   timeout,
		now:       time.Now,
	}
}

func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures++

	if cb.state == CircuitHalfOpen || cb.failures >= cb.threshold {
		cb.state = CircuitOpen
		cb.openUntil = cb.now().Add(cb.timeout)
		cb.halfOpenAttempts = 0
	}
}

func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitHalfOpen:
		cb.state = CircuitClosed
		cb.failures = 0
		cb.halfOpenAttempts = 0
	case CircuitClosed:
		cb.failures = 0
	}
}

func (cb *CircuitBreaker) CanAttempt() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitHalfOpen:
		if cb.halfOpenAttempts < circuitBreakerHalfOpenMax {
			cb.halfOpenAttempts++
			return true
		}
		return false
	case CircuitOpen:
		if cb.now().After(cb.openUntil) {
			cb.state = CircuitHalfOpen
			cb.halfOpenAttempts = 1
			return true
		}
		return false
	default:
		return true
	}
}

func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

type circuitRateSource struct {
	breaker *CircuitBreaker
	next    RateSource
}

// NewCircuitRateSource guards s with breaker. Calls made while the circuit is open fail
// with ErrCircuitOpen without reaching s.
func NewCircuitRateSource(breaker *CircuitBreaker, s RateSource) RateSource {
	return &circuitRateSource{breaker: breaker, next: s}
}

func (s *circuitRateSource) FetchRates(ctx context.Context) (map[string]CurrencyRate, error) {
	if !s.breaker.CanAttempt() {
		return nil, ErrCircuitOpen
	}
	rates, err := s.next.FetchRates(ctx)
	if err != nil {
		// A caller giving up says nothing about the source.
		if ctx.Err() == nil {
			s.breaker.RecordFailure()
		}
		return nil, err
	}
	s.breaker.RecordSuccess()
	return rates, nil
}
