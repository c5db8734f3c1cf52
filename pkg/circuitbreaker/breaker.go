package circuitbreaker

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

var ErrOpen = errors.New("circuit breaker is open")

type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

type Config struct {
	FailureThreshold uint32
	OpenTimeout      time.Duration
	OnStateChange    func(name string, from State, to State)
	Logger           *zap.Logger
	now              func() time.Time
}

// Breaker guards a single named dependency. It never retries: while open,
// Execute fails immediately with ErrOpen. One probe call is let through once
// the open timeout has elapsed.
type Breaker struct {
	name string
	cfg  Config

	mu         sync.Mutex
	state      State
	failures   uint32
	openedAt   time.Time
	probing    bool
	generation uint64
}

func New(name string, cfg Config) *Breaker {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.OpenTimeout == 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.now == nil {
		cfg.now = time.Now
	}
	return &Breaker{name: name, cfg: cfg}
}

func (b *Breaker) Name() string {
	return b.name
}

// Execute runs fn unless the breaker is open. countable decides which errors
// returned by fn count as dependency failures; nil counts every error.
func (b *Breaker) Execute(fn func() error, countable func(error) bool) error {
	generation, err := b.before()
	if err != nil {
		return err
	}

	err = fn()
	failed := err != nil && (countable == nil || countable(err))
	b.after(generation, !failed)
	return err
}

func (b *Breaker) before() (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.cfg.now()
	if b.state == StateOpen && now.Sub(b.openedAt) >= b.cfg.OpenTimeout {
		b.setState(StateHalfOpen)
	}

	switch b.state {
	case StateOpen:
		return b.generation, ErrOpen
	case StateHalfOpen:
		if b.probing {
			return b.generation, ErrOpen
		}
		b.probing = true
	}
	return b.generation, nil
}

func (b *Breaker) after(generation uint64, success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if generation != b.generation {
		return
	}

	if success {
		b.failures = 0
		if b.state == StateHalfOpen {
			b.setState(StateClosed)
		}
		return
	}

	b.failures++
	if b.state == StateHalfOpen || b.failures >= b.cfg.FailureThreshold {
		b.openedAt = b.cfg.now()
		b.setState(StateOpen)
	}
}

func (b *Breaker) setState(state State) {
	if b.state == state {
		return
	}

	prev := b.state
	b.state = state
	b.generation++
	b.probing = false
	if state == StateClosed {
		b.failures = 0
	}

	if b.cfg.OnStateChange != nil {
		b.cfg.OnStateChange(b.name, prev, state)
	}

	b.cfg.Logger.Info("Circuit breaker state changed",
		zap.String("name", b.name),
		zap.String("from", prev.String()),
		zap.String("to", state.String()),
	)
}

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen && b.cfg.now().Sub(b.openedAt) >= b.cfg.OpenTimeout {
		return StateHalfOpen
	}
	return b.state
}

// Set hands out one Breaker per dependency name, created on first use.
type Set struct {
	cfg      Config
	mu       sync.Mutex
	breakers map[string]*Breaker
}

func NewSet(cfg Config) *Set {
	return &Set{cfg: cfg, breakers: make(map[string]*Breaker)}
}

func (s *Set) Get(name string) *Breaker {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.breakers[name]
	if !ok {
		b = New(name, s.cfg)
		s.breakers[name] = b
	}
	return b
}
