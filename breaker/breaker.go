// Package breaker implements the three-state circuit breaker spec §4.6
// requires in front of the cache store client — never the database itself.
//
// Grounded on agentuity-go-common/resilience/circuit_breaker.go: the same
// atomic-counter state machine and State()/Stats() accessors, trimmed down
// from that file's generic Execute(ctx, func() error) wrapper (with its
// concurrent half-open request semaphore and per-call request timeout) to
// the simpler canExecute()/OnSuccess()/OnFailure() triad spec §4.6
// specifies: HALF_OPEN allows exactly one probe at a time, a boolean, not a
// MaxConcurrentRequests slot counter.
package breaker

import (
	"errors"
	"sync/atomic"
	"time"
)

// ErrOpen is returned by Allow when the breaker is OPEN and its timeout has
// not yet elapsed.
var ErrOpen = errors.New("breaker: circuit open")

// State is one of the three circuit breaker states.
type State int32

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "CLOSED"
	case HalfOpen:
		return "HALF_OPEN"
	case Open:
		return "OPEN"
	default:
		return "UNKNOWN"
	}
}

// Config configures the failure threshold and open-state timeout.
type Config struct {
	Threshold int
	Timeout   time.Duration
}

// DefaultConfig matches spec §4.6's defaults: 5 failures, 30s timeout.
func DefaultConfig() Config {
	return Config{Threshold: 5, Timeout: 30 * time.Second}
}

// Breaker guards a single downstream dependency (the cache store client).
type Breaker struct {
	cfg Config

	state           int32
	failures        int32
	halfOpenInFlight int32
	lastFailureNano int64
}

// New creates a Breaker starting CLOSED.
func New(cfg Config) *Breaker {
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultConfig().Threshold
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	return &Breaker{cfg: cfg, state: int32(Closed)}
}

// State reports the current state without mutating it, except for the
// OPEN → HALF_OPEN transition Allow itself performs on timeout elapse.
func (b *Breaker) State() State { return State(atomic.LoadInt32(&b.state)) }

// Allow reports whether a call may proceed. It returns ErrOpen when the
// breaker is OPEN and its timeout has not elapsed, and admits exactly one
// concurrent probe when HALF_OPEN.
func (b *Breaker) Allow() error {
	switch b.State() {
	case Closed:
		return nil
	case Open:
		if b.timeoutElapsed() {
			atomic.CompareAndSwapInt32(&b.state, int32(Open), int32(HalfOpen))
			return b.Allow()
		}
		return ErrOpen
	case HalfOpen:
		if atomic.CompareAndSwapInt32(&b.halfOpenInFlight, 0, 1) {
			return nil
		}
		return ErrOpen
	default:
		return ErrOpen
	}
}

func (b *Breaker) timeoutElapsed() bool {
	last := atomic.LoadInt64(&b.lastFailureNano)
	return time.Since(time.Unix(0, last)) >= b.cfg.Timeout
}

// OnSuccess records a successful call. In HALF_OPEN it closes the breaker;
// in CLOSED it resets the failure counter.
func (b *Breaker) OnSuccess() {
	switch b.State() {
	case HalfOpen:
		atomic.StoreInt32(&b.failures, 0)
		atomic.StoreInt32(&b.halfOpenInFlight, 0)
		atomic.StoreInt32(&b.state, int32(Closed))
	case Closed:
		atomic.StoreInt32(&b.failures, 0)
	}
}

// OnFailure records a failed call, opening the breaker once the failure
// threshold is reached (or immediately, if the failing call was the
// HALF_OPEN probe).
func (b *Breaker) OnFailure() {
	atomic.StoreInt64(&b.lastFailureNano, time.Now().UnixNano())

	switch b.State() {
	case HalfOpen:
		atomic.StoreInt32(&b.halfOpenInFlight, 0)
		atomic.StoreInt32(&b.state, int32(Open))
	case Closed:
		failures := atomic.AddInt32(&b.failures, 1)
		if int(failures) >= b.cfg.Threshold {
			atomic.StoreInt32(&b.state, int32(Open))
		}
	}
}

// Stats is a point-in-time snapshot for health reporting (registry.Health).
type Stats struct {
	State    State
	Failures int
}

// Stats returns a snapshot of the breaker's counters.
func (b *Breaker) Stats() Stats {
	return Stats{
		State:    b.State(),
		Failures: int(atomic.LoadInt32(&b.failures)),
	}
}
