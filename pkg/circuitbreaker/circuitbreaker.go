package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

type CircuitState int

const (
	// Closed lets every call through.
	Closed CircuitState = iota
	// Open rejects calls with ErrCircuitOpen until RecoveryTimeout has passed.
	Open
	// HalfOpen lets calls through to probe recovery; one failure reopens.
	HalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

type CircuitBreaker interface {
	Call(func() error) error
	State() CircuitState
	Reset()
}

type Config struct {
	FailureThreshold int           // consecutive failures that open the circuit
	RecoveryTimeout  time.Duration // time spent open before probing
	SuccessThreshold int           // successes in HalfOpen that close it again

	// IsFailure decides which errors count against the circuit. Defaults to every non-nil error.
	IsFailure func(error) bool
	// OnStateChange runs after each transition, outside the breaker's lock.
	OnStateChange func(from, to CircuitState)
}

func DefaultConfig() *Config {
	return &Config{
		FailureThreshold: 5,
		RecoveryTimeout:  60 * time.Second,
		SuccessThreshold: 3,
	}
}

type circuitBreaker struct {
	config *Config
	now    func() time.Time

	mu          sync.Mutex
	state       CircuitState
	failures    int
	successes   int
	nextAttempt time.Time
}

func NewCircuitBreaker(config *Config) CircuitBreaker {
	return newCircuitBreaker(config, time.Now)
}

func newCircuitBreaker(config *Config, now func() time.Time) *circuitBreaker {
	if config == nil {
		config = DefaultConfig()
	}

	cfg := *config
	if cfg.FailureThreshold < 1 {
		cfg.FailureThreshold = 1
	}
	if cfg.SuccessThreshold < 1 {
		cfg.SuccessThreshold = 1
	}
	if cfg.IsFailure == nil {
		cfg.IsFailure = func(err error) bool { return err != nil }
	}

	return &circuitBreaker{config: &cfg, now: now, state: Closed}
}

// stateAt promotes Open to HalfOpen once the recovery timeout has passed. Callers hold mu.
func (cb *circuitBreaker) stateAt(now time.Time) CircuitState {
	if cb.state == Open && !now.Before(cb.nextAttempt) {
		return HalfOpen
	}
	return cb.state
}

// transition returns a func that fires the callback; callers run it after unlocking.
func (cb *circuitBreaker) transition(to CircuitState) func() {
	from := cb.state
	if from == to {
		return func() {}
	}

	cb.state = to
	cb.successes = 0
	if to == Open {
		cb.nextAttempt = cb.now().Add(cb.config.RecoveryTimeout)
	}
	if to == Closed {
		cb.failures = 0
	}

	if hook := cb.config.OnStateChange; hook != nil {
		return func() { hook(from, to) }
	}
	return func() {}
}

func (cb *circuitBreaker) Call(fn func() error) error {
	cb.mu.Lock()
	state := cb.stateAt(cb.now())
	notify := cb.transition(state)
	cb.mu.Unlock()
	notify()

	if state == Open {
		return ErrCircuitOpen
	}

	// fn runs without the lock held.
	err := fn()

	cb.mu.Lock()
	if cb.config.IsFailure(err) {
		notify = cb.recordFailure()
	} else {
		notify = cb.recordSuccess()
	}
	cb.mu.Unlock()
	notify()

	return err
}

func (cb *circuitBreaker) recordFailure() func() {
	cb.failures++

	switch cb.state {
	case Closed:
		if cb.failures >= cb.config.FailureThreshold {
			return cb.transition(Open)
		}
	case HalfOpen:
		return cb.transition(Open)
	}
	return func() {}
}

func (cb *circuitBreaker) recordSuccess() func() {
	cb.failures = 0

	if cb.state == HalfOpen {
		cb.successes++
		if cb.successes >= cb.config.SuccessThreshold {
			return cb.transition(Closed)
		}
	}
	return func() {}
}

// State reports HalfOpen as soon as the recovery timeout has passed, even before the next call.
func (cb *circuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.stateAt(cb.now())
}

func (cb *circuitBreaker) Reset() {
	cb.mu.Lock()
	notify := cb.transition(Closed)
	cb.failures = 0
	cb.mu.Unlock()
	notify()
}
