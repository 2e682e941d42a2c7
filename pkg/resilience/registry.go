package resilience

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
)

// Names of the upstream dependencies this service talks to
const (
	DepSchedule = "schedule"
	DepPatient  = "patient"
	DepDoctor   = "doctor"
	DepUser     = "user"
	DepSession  = "session"
)

// CircuitState is the externally visible state of a dependency's breaker
type CircuitState string

const (
	CircuitClosed   CircuitState = "CLOSED"
	CircuitOpen     CircuitState = "OPEN"
	CircuitHalfOpen CircuitState = "HALF_OPEN"
)

// Policy configures timeout, retry, and circuit-breaker behaviour for one
// named upstream dependency
type Policy struct {
	// Timeout bounds each individual attempt
	Timeout time.Duration

	// MaxAttempts is the total number of attempts, including the first
	MaxAttempts int

	// BackoffBase is the delay before the first retry; subsequent delays
	// double up to BackoffMax
	BackoffBase time.Duration
	BackoffMax  time.Duration

	// FailureRatio trips the breaker once exceeded over the sliding window
	FailureRatio float64

	// MinSamples is the minimum number of calls in the window before the
	// ratio is evaluated
	MinSamples uint32

	// CoolDown is how long the breaker stays open before allowing a
	// half-open trial call
	CoolDown time.Duration

	// Window is the interval after which closed-state counters reset
	Window time.Duration
}

// DefaultPolicy returns the policy applied to dependencies without an
// explicit configuration
func DefaultPolicy() Policy {
	return Policy{
		Timeout:      10 * time.Second,
		MaxAttempts:  3,
		BackoffBase:  200 * time.Millisecond,
		BackoffMax:   5 * time.Second,
		FailureRatio: 0.5,
		MinSamples:   5,
		CoolDown:     30 * time.Second,
		Window:       60 * time.Second,
	}
}

// Dependency is one named upstream with its breaker and policy
type Dependency struct {
	name    string
	policy  Policy
	breaker *gobreaker.CircuitBreaker
}

// Name returns the dependency name
func (d *Dependency) Name() string {
	return d.name
}

// State returns the current circuit state
func (d *Dependency) State() CircuitState {
	return fromBreakerState(d.breaker.State())
}

func fromBreakerState(s gobreaker.State) CircuitState {
	switch s {
	case gobreaker.StateOpen:
		return CircuitOpen
	case gobreaker.StateHalfOpen:
		return CircuitHalfOpen
	default:
		return CircuitClosed
	}
}

// TransitionFunc observes one circuit breaker state change
type TransitionFunc func(name string, from, to CircuitState)

// Registry maps dependency names to their independently configured circuit
// breakers. Registration happens once at startup; lookups are concurrent.
type Registry struct {
	mu           sync.RWMutex
	deps         map[string]*Dependency
	onTransition TransitionFunc
}

// NewRegistry creates an empty dependency registry
func NewRegistry() *Registry {
	return &Registry{
		deps: make(map[string]*Dependency),
	}
}

// OnTransition sets a callback invoked on every breaker state change across
// all registered dependencies. Set it before serving traffic; the callback
// runs synchronously inside breaker execution and must not block.
func (r *Registry) OnTransition(fn TransitionFunc) {
	r.mu.Lock()
	r.onTransition = fn
	r.mu.Unlock()
}

// Register configures a breaker for the named dependency, replacing any
// previous registration
func (r *Registry) Register(name string, policy Policy) *Dependency {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    policy.Window,
		Timeout:     policy.CoolDown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < policy.MinSamples {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio > policy.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("dependency", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit state changed")

			r.mu.RLock()
			fn := r.onTransition
			r.mu.RUnlock()
			if fn != nil {
				fn(name, fromBreakerState(from), fromBreakerState(to))
			}
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			// Expected absence is not a dependency failure.
			var ce *CallError
			return errors.As(err, &ce) && ce.Kind == KindNotFound
		},
	}

	dep := &Dependency{
		name:    name,
		policy:  policy,
		breaker: gobreaker.NewCircuitBreaker(settings),
	}

	r.mu.Lock()
	r.deps[name] = dep
	r.mu.Unlock()

	return dep
}

// Get returns the dependency registered under name
func (r *Registry) Get(name string) (*Dependency, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	dep, ok := r.deps[name]
	return dep, ok
}

// State returns the circuit state for the named dependency, defaulting to
// CLOSED for unknown names
func (r *Registry) State(name string) CircuitState {
	if dep, ok := r.Get(name); ok {
		return dep.State()
	}
	return CircuitClosed
}
