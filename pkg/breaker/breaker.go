package breaker

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

type State int

const (
	StateClosed State = iota + 1
	StateOpen
	StateHalfOpen
)

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

var ErrOpen = errors.New("circuit breaker is open")

// Breaker stops calling a failing dependency for openTimeout after
// maxFailures consecutive failures, then lets a single probe through.
type Breaker struct {
	name string
	log  *zap.Logger
	now  func() time.Time

	mu          sync.Mutex
	state       State
	failures    int
	maxFailures int
	openSince   time.Time
	openTimeout time.Duration
}

type Option func(*Breaker)

func WithLogger(log *zap.Logger) Option {
	return func(b *Breaker) {
		if log != nil {
			b.log = log
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(b *Breaker) {
		if now != nil {
			b.now = now
		}
	}
}

func New(name string, maxFailures int, openTimeout time.Duration, opts ...Option) *Breaker {
	if maxFailures <= 0 {
		maxFailures = 1
	}
	b := &Breaker{
		name:        name,
		log:         zap.NewNop(),
		now:         time.Now,
		state:       StateClosed,
		maxFailures: maxFailures,
		openTimeout: openTimeout,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Allow returns ErrOpen while the dependency is considered down.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateOpen:
		if b.now().Sub(b.openSince) > b.openTimeout {
			b.log.Warn("circuit breaker half-open", zap.String("breaker", b.name))
			b.state = StateHalfOpen
			return nil
		}
		return ErrOpen

	case StateHalfOpen:
		return ErrOpen
	}
	return nil
}

func (b *Breaker) OnSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateHalfOpen {
		b.log.Info("circuit breaker closed", zap.String("breaker", b.name))
		b.state = StateClosed
	}
	b.failures = 0
}

func (b *Breaker) OnFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateHalfOpen:
		b.log.Error("circuit breaker reopened after failed probe", zap.String("breaker", b.name))
		b.trip()

	case StateClosed:
		b.failures++
		if b.failures >= b.maxFailures {
			b.log.Error("circuit breaker open",
				zap.String("breaker", b.name),
				zap.Int("failures", b.failures),
			)
			b.trip()
		}
	}
}

func (b *Breaker) trip() {
	b.state = StateOpen
	b.openSince = b.now()
}

// Do runs fn through the breaker. Errors for which ignore returns true are
// passed through without counting as failures.
func (b *Breaker) Do(fn func() error, ignore func(error) bool) error {
	if err := b.Allow(); err != nil {
		return err
	}
	err := fn()
	if err != nil && (ignore == nil || !ignore(err)) {
		b.OnFailure()
		return err
	}
	b.OnSuccess()
	return err
}
