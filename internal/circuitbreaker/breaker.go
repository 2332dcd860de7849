// Package circuitbreaker guards outbound calls to the gas-refund
// engine's external collaborators (the swaps subgraph, block explorer,
// price oracle and stake sources named in spec.md §6) so a collaborator
// stuck failing does not get hammered by every ingestion slice while it
// recovers.
package circuitbreaker

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/choppy227/paraswap-volume-tracker/internal/metrics"
)

// ErrCircuitOpen is returned by Allow while a collaborator's circuit is open.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// State is one of a breaker's three states.
type State int

const (
	StateClosed   State = iota // calls flow through normally
	StateOpen                  // collaborator is failing, calls are rejected
	StateHalfOpen              // probing whether the collaborator recovered
)

// Breaker is a per-collaborator circuit breaker: it flips open after
// FailureThreshold consecutive failures, then probes with up to
// SuccessThreshold calls in half-open before closing again.
type Breaker struct {
	mu               sync.Mutex
	collaborator     string
	logger           *slog.Logger
	state            State
	failureCount     int
	successCount     int
	failureThreshold int
	successThreshold int
	openTimeout      time.Duration
	lastFailureAt    time.Time
}

// Config tunes one Breaker. Zero values fall back to the defaults noted
// per field.
type Config struct {
	FailureThreshold int           // failures before opening (default: 5)
	SuccessThreshold int           // successes in half-open before closing (default: 2)
	OpenTimeout      time.Duration // time spent open before probing again (default: 30s)
}

// New constructs a Breaker for the named collaborator (e.g. "subgraph",
// "explorer", "price-oracle", "stake-source"); the name labels the
// gasrefund_collaborator_circuit_state gauge and any transition log
// lines, so an operator can tell which downstream dependency tripped.
func New(collaborator string, cfg Config, logger *slog.Logger) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 2
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	b := &Breaker{
		collaborator:     collaborator,
		logger:           logger,
		state:            StateClosed,
		failureThreshold: cfg.FailureThreshold,
		successThreshold: cfg.SuccessThreshold,
		openTimeout:      cfg.OpenTimeout,
	}
	metrics.CollaboratorCircuitState.WithLabelValues(collaborator).Set(float64(StateClosed))
	return b
}

// Allow reports whether a call to the collaborator should proceed.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case StateClosed:
		return nil
	case StateOpen:
		if time.Since(b.lastFailureAt) > b.openTimeout {
			b.setState(StateHalfOpen)
			return nil
		}
		return ErrCircuitOpen
	case StateHalfOpen:
		return nil
	}
	return nil
}

// RecordSuccess records a successful collaborator call.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failureCount = 0
	if b.state == StateHalfOpen {
		b.successCount++
		if b.successCount >= b.successThreshold {
			b.setState(StateClosed)
		}
	}
}

// RecordFailure records a failed collaborator call.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failureCount++
	b.successCount = 0
	b.lastFailureAt = time.Now()
	if b.state == StateHalfOpen {
		b.setState(StateOpen)
	} else if b.state == StateClosed && b.failureCount >= b.failureThreshold {
		b.setState(StateOpen)
	}
}

// GetState returns the current state, promoting Open to HalfOpen first
// if openTimeout has elapsed.
func (b *Breaker) GetState() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateOpen && time.Since(b.lastFailureAt) > b.openTimeout {
		b.setState(StateHalfOpen)
	}
	return b.state
}

func (b *Breaker) setState(to State) {
	from := b.state
	if from == to {
		return
	}
	b.state = to
	b.successCount = 0
	if to == StateClosed {
		b.failureCount = 0
	}
	metrics.CollaboratorCircuitState.WithLabelValues(b.collaborator).Set(float64(to))
	if b.logger != nil {
		b.logger.Warn("collaborator circuit state changed",
			"collaborator", b.collaborator, "from", from.String(), "to", to.String())
	}
}

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}
