package alarm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/catmanduz/link-reminder/internal/domain"
	"github.com/catmanduz/link-reminder/internal/logger"
)

const (
	// DefaultPollInterval caps how long the loop sleeps between store checks
	DefaultPollInterval = time.Minute
)

// Store persists timer registrations so they survive restarts.
type Store interface {
	PutAlarm(ctx context.Context, name string, when time.Time) error
	RemoveAlarm(ctx context.Context, name string) (bool, error)
	GetAlarm(ctx context.Context, name string) (time.Time, bool, error)
	NextAlarm(ctx context.Context) (domain.Alarm, bool, error)
	DueAlarms(ctx context.Context, now time.Time) ([]domain.Alarm, error)
	AllAlarms(ctx context.Context) ([]domain.Alarm, error)
}

// Handler is invoked once per fired registration, from the service goroutine.
type Handler func(ctx context.Context, name string)

// Service is the persistent timer service: named registrations that fire
// a callback at an absolute time, at most once each.
type Service struct {
	store        Store
	logger       logger.Logger
	now          func() time.Time
	pollInterval time.Duration

	mu       sync.RWMutex
	handlers []Handler

	wake     chan struct{}
	stopCh   chan struct{}
	stopOnce sync.Once
	running  chan struct{}
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides time.Now (tests).
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithPollInterval sets the maximum sleep between store checks.
func WithPollInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.pollInterval = d
		}
	}
}

// New creates a new timer service on top of store
func New(store Store, log logger.Logger, opts ...Option) *Service {
	s := &Service{
		store:        store,
		logger:       log,
		now:          time.Now,
		pollInterval: DefaultPollInterval,
		wake:         make(chan struct{}, 1),
		stopCh:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnFire registers a callback run for every fired registration.
func (s *Service) OnFire(h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, h)
}

// Create registers (or replaces) the timer called name.
func (s *Service) Create(ctx context.Context, name string, when time.Time) error {
	if err := s.store.PutAlarm(ctx, name, when); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
	}
	s.logger.Debug("timer created",
		logger.String("name", name),
		logger.Time("when", when))
	s.nudge()
	return nil
}

// Cancel removes the timer called name. Unknown names are not an error.
func (s *Service) Cancel(ctx context.Context, name string) error {
	removed, err := s.store.RemoveAlarm(ctx, name)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
	}
	if removed {
		s.logger.Debug("timer canceled", logger.String("name", name))
		s.nudge()
	}
	return nil
}

// Get returns the fire time of the timer called name.
func (s *Service) Get(ctx context.Context, name string) (time.Time, bool, error) {
	when, ok, err := s.store.GetAlarm(ctx, name)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
	}
	return when, ok, nil
}

// All returns every registration, earliest first.
func (s *Service) All(ctx context.Context) ([]domain.Alarm, error) {
	alarms, err := s.store.AllAlarms(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
	}
	return alarms, nil
}

// FireDue fires every registration whose time has come and returns how many fired.
// A registration fires only if this call is the one that removed it.
func (s *Service) FireDue(ctx context.Context) (int, error) {
	due, err := s.store.DueAlarms(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
	}

	fired := 0
	var errs []error
	for _, a := range due {
		removed, err := s.store.RemoveAlarm(ctx, a.Name)
		if err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", a.Name, err))
			continue
		}
		if !removed {
			continue
		}

		s.logger.Info("timer fired",
			logger.String("name", a.Name),
			logger.Time("scheduled_for", a.When))
		s.dispatch(ctx, a.Name)
		fired++
	}

	return fired, errors.Join(errs...)
}

// Start runs the fire loop in its own goroutine until Stop or ctx is done.
func (s *Service) Start(ctx context.Context) error {
	s.running = make(chan struct{})
	go func() {
		defer close(s.running)
		s.loop(ctx)
	}()
	return nil
}

// Stop stops the fire loop and waits for it to exit
func (s *Service) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	if s.running != nil {
		<-s.running
	}
}

func (s *Service) loop(ctx context.Context) {
	for {
		wait := s.pollInterval
		if _, err := s.FireDue(ctx); err != nil {
			s.logger.Error("failed to fire due timers", logger.Error(err))
		} else {
			wait = s.nextWait(ctx)
		}

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-s.wake:
			timer.Stop()
		case <-s.stopCh:
			timer.Stop()
			return
		case <-ctx.Done():
			timer.Stop()
			return
		}
	}
}

// nextWait returns the time until the earliest registration, capped by the poll interval.
func (s *Service) nextWait(ctx context.Context) time.Duration {
	next, ok, err := s.store.NextAlarm(ctx)
	if err != nil {
		s.logger.Warn("failed to read next timer", logger.Error(err))
		return s.pollInterval
	}
	if !ok {
		return s.pollInterval
	}

	wait := next.When.Sub(s.now())
	if wait < 0 {
		return 0
	}
	if wait > s.pollInterval {
		return s.pollInterval
	}
	return wait
}

func (s *Service) dispatch(ctx context.Context, name string) {
	s.mu.RLock()
	handlers := make([]Handler, len(s.handlers))
	copy(handlers, s.handlers)
	s.mu.RUnlock()

	for _, h := range handlers {
		s.safeCall(ctx, h, name)
	}
}

// safeCall keeps a panicking handler from killing the loop.
func (s *Service) safeCall(ctx context.Context, h Handler, name string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("timer handler panicked",
				logger.String("name", name),
				logger.String("panic", fmt.Sprint(r)))
		}
	}()
	h(ctx, name)
}

func (s *Service) nudge() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}
