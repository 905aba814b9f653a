package reminder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/catmanduz/link-reminder/internal/domain"
	"github.com/catmanduz/link-reminder/internal/logger"
)

// Timers is the persistent timer service the scheduler drives.
type Timers interface {
	Create(ctx context.Context, name string, when time.Time) error
	Cancel(ctx context.Context, name string) error
	All(ctx context.Context) ([]domain.Alarm, error)
}

// Links is the part of the link repository the scheduler needs.
type Links interface {
	Get(ctx context.Context, id string) (*domain.Link, error)
	List(ctx context.Context) ([]*domain.Link, error)
	SetReminder(ctx context.Context, id string, at *time.Time) (*domain.Link, error)
}

// RehydrateReport summarizes a startup rehydration.
type RehydrateReport struct {
	Rearmed int `json:"rearmed"`
	Dropped int `json:"dropped"`
	Pruned  int `json:"pruned"`
}

// Scheduler keeps link ReminderAt fields and timer registrations in step:
// a link has a reminder exactly when one timer named after its id exists.
//
// Arm, Disarm, Rehydrate and PruneOrphans each run as one unit through a
// single slot, so their cancel/persist/create steps never interleave.
// CancelTimer stays outside the slot: the repository calls it while
// holding its own mutation slot.
type Scheduler struct {
	links  Links
	timers Timers
	logger logger.Logger
	now    func() time.Time
	slot   chan struct{}
}

// Option customizes a Scheduler.
type Option func(*Scheduler)

// WithClock overrides time.Now (tests).
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// New creates a new reminder scheduler
func New(links Links, timers Timers, log logger.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		links:  links,
		timers: timers,
		logger: log,
		now:    time.Now,
		slot:   make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// acquire waits for the scheduler slot. The returned func releases it.
func (s *Scheduler) acquire(ctx context.Context) (func(), error) {
	select {
	case s.slot <- struct{}{}:
		return func() { <-s.slot }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Arm schedules a reminder for link id at when, replacing any previous one.
// A nil when only cancels. A when that is not in the future cancels, clears
// the link's reminder and returns domain.ErrReminderInPast.
// Unknown ids are ignored once the timer is canceled.
func (s *Scheduler) Arm(ctx context.Context, id string, when *time.Time) error {
	release, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	if when == nil {
		return s.disarm(ctx, id)
	}

	if err := s.CancelTimer(ctx, id); err != nil {
		return err
	}

	// Timer registrations are stored with millisecond precision
	at := when.Truncate(time.Millisecond)
	if !at.After(s.now()) {
		if err := s.clearReminder(ctx, id); err != nil {
			return err
		}
		return domain.ErrReminderInPast
	}

	if _, err := s.links.SetReminder(ctx, id, &at); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Debug("arm ignored for unknown link", logger.String("id", id))
			return nil
		}
		return err
	}

	if err := s.timers.Create(ctx, domain.TimerName(id), at); err != nil {
		// Keep the record honest: no timer, no reminder
		if clearErr := s.clearReminder(ctx, id); clearErr != nil {
			s.logger.Warn("failed to roll back reminder",
				logger.String("id", id),
				logger.Error(clearErr))
		}
		return fmt.Errorf("create timer for %s: %w", id, err)
	}

	s.logger.Info("reminder armed",
		logger.String("id", id),
		logger.Time("at", at))
	return nil
}

// Disarm cancels the reminder of link id. Unknown ids are a no-op.
func (s *Scheduler) Disarm(ctx context.Context, id string) error {
	release, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	return s.disarm(ctx, id)
}

func (s *Scheduler) disarm(ctx context.Context, id string) error {
	if err := s.CancelTimer(ctx, id); err != nil {
		return err
	}
	if err := s.clearReminder(ctx, id); err != nil {
		return err
	}
	s.logger.Debug("reminder disarmed", logger.String("id", id))
	return nil
}

// CancelTimer drops the timer registration of link id without touching the record.
func (s *Scheduler) CancelTimer(ctx context.Context, id string) error {
	if err := s.timers.Cancel(ctx, domain.TimerName(id)); err != nil {
		return fmt.Errorf("cancel timer for %s: %w", id, err)
	}
	return nil
}

// Rehydrate re-creates timers for future reminders and silently drops past ones,
// then prunes registrations nothing backs. Run once at startup, before the
// timer service starts firing.
func (s *Scheduler) Rehydrate(ctx context.Context) (RehydrateReport, error) {
	var report RehydrateReport

	release, err := s.acquire(ctx)
	if err != nil {
		return report, err
	}
	defer release()

	all, err := s.links.List(ctx)
	if err != nil {
		return report, fmt.Errorf("list links: %w", err)
	}

	now := s.now()
	var errs []error
	for _, link := range all {
		if !link.HasReminder() {
			continue
		}

		if link.ReminderAt.After(now) {
			if err := s.timers.Create(ctx, domain.TimerName(link.ID), *link.ReminderAt); err != nil {
				errs = append(errs, fmt.Errorf("rearm %s: %w", link.ID, err))
				continue
			}
			report.Rearmed++
			continue
		}

		// Missed while not running: dropped without notification
		if err := s.CancelTimer(ctx, link.ID); err != nil {
			errs = append(errs, err)
			continue
		}
		if err := s.clearReminder(ctx, link.ID); err != nil {
			errs = append(errs, fmt.Errorf("drop %s: %w", link.ID, err))
			continue
		}
		s.logger.Info("missed reminder dropped",
			logger.String("id", link.ID),
			logger.Time("was_due", *link.ReminderAt))
		report.Dropped++
	}

	pruned, err := s.pruneOrphans(ctx)
	if err != nil {
		errs = append(errs, err)
	}
	report.Pruned = pruned

	s.logger.Info("reminders rehydrated",
		logger.Int("rearmed", report.Rearmed),
		logger.Int("dropped", report.Dropped),
		logger.Int("pruned", report.Pruned))

	return report, errors.Join(errs...)
}

// PruneOrphans cancels reminder timers whose link is gone or carries no reminder.
// Registrations outside the reminder namespace are left alone.
func (s *Scheduler) PruneOrphans(ctx context.Context) (int, error) {
	release, err := s.acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer release()

	return s.pruneOrphans(ctx)
}

func (s *Scheduler) pruneOrphans(ctx context.Context) (int, error) {
	// Timers first: a reminder armed in between is then seen on its link
	alarms, err := s.timers.All(ctx)
	if err != nil {
		return 0, fmt.Errorf("list timers: %w", err)
	}

	all, err := s.links.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list links: %w", err)
	}

	armed := make(map[string]bool, len(all))
	for _, link := range all {
		if link.HasReminder() {
			armed[link.ID] = true
		}
	}

	pruned := 0
	var errs []error
	for _, a := range alarms {
		id, ok := domain.LinkIDFromTimer(a.Name)
		if !ok || armed[id] {
			continue
		}
		if err := s.timers.Cancel(ctx, a.Name); err != nil {
			errs = append(errs, fmt.Errorf("prune %s: %w", a.Name, err))
			continue
		}
		s.logger.Debug("orphan timer pruned", logger.String("name", a.Name))
		pruned++
	}

	return pruned, errors.Join(errs...)
}

// clearReminder clears ReminderAt, ignoring unknown ids.
func (s *Scheduler) clearReminder(ctx context.Context, id string) error {
	if _, err := s.links.SetReminder(ctx, id, nil); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return nil
}
