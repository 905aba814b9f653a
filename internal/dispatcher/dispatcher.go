package dispatcher

import (
	"context"
	"errors"
	"time"

	"github.com/catmanduz/link-reminder/internal/domain"
	"github.com/catmanduz/link-reminder/internal/logger"
	"github.com/catmanduz/link-reminder/internal/notify"
)

// Alert actions, by button index.
const (
	ActionOpen   = 0
	ActionSnooze = 1
)

// Outcome kinds
const (
	OutcomeOpen   = "open"
	OutcomeSnooze = "snooze"
)

var (
	// ErrUnknownAction is returned for an action index the alert does not offer.
	ErrUnknownAction = errors.New("unknown alert action")
	// ErrAlertNotFound is returned for actions on an alert that is gone.
	ErrAlertNotFound = notify.ErrAlertNotFound
)

// actionLabels are the buttons of every reminder alert, by index
var actionLabels = []string{"Open", "Snooze"}

// Reminders is the repository side the dispatcher needs.
type Reminders interface {
	ClearDueReminder(ctx context.Context, id string, now time.Time) (*domain.Link, bool, error)
}

// Armer re-arms a reminder on snooze.
type Armer interface {
	Arm(ctx context.Context, id string, when *time.Time) error
}

// Outcome tells the caller what to do after an alert action.
type Outcome struct {
	Action        string          `json:"action"`
	LinkID        string          `json:"linkId"`
	URL           string          `json:"url,omitempty"`
	SnoozeOptions []time.Duration `json:"snoozeOptions,omitempty"`
}

// Dispatcher turns fired timers into alerts and routes alert actions.
type Dispatcher struct {
	reminders Reminders
	armer     Armer
	center    *notify.Center
	logger    logger.Logger
	now       func() time.Time
	offsets   []time.Duration
}

// Option customizes a Dispatcher.
type Option func(*Dispatcher)

// WithClock overrides time.Now (tests).
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

// WithSnoozeOffsets sets the quick offsets offered by the snooze picker.
func WithSnoozeOffsets(offsets []time.Duration) Option {
	return func(d *Dispatcher) {
		if len(offsets) > 0 {
			d.offsets = append([]time.Duration(nil), offsets...)
		}
	}
}

// New creates a new notification dispatcher
func New(reminders Reminders, armer Armer, center *notify.Center, log logger.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		reminders: reminders,
		armer:     armer,
		center:    center,
		logger:    log,
		now:       time.Now,
		offsets:   DefaultSnoozeOffsets(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DefaultSnoozeOffsets returns the quick picks of the snooze picker.
func DefaultSnoozeOffsets() []time.Duration {
	return []time.Duration{10 * time.Minute, time.Hour, 3 * time.Hour, 24 * time.Hour}
}

// HandleFire reacts to a fired timer. The link's reminder is cleared before
// the alert is presented. A link that is gone or was re-armed meanwhile gets
// no alert.
func (d *Dispatcher) HandleFire(ctx context.Context, timerName string) {
	id, ok := domain.LinkIDFromTimer(timerName)
	if !ok {
		return
	}

	link, cleared, err := d.reminders.ClearDueReminder(ctx, id, d.now())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			d.logger.Debug("fired timer for deleted link", logger.String("id", id))
			return
		}
		d.logger.Error("failed to clear fired reminder",
			logger.String("id", id),
			logger.Error(err))
		return
	}
	if !cleared {
		d.logger.Debug("fired timer superseded", logger.String("id", id))
		return
	}

	d.center.Create(ctx, domain.NotificationName(id), notify.Alert{
		LinkID:  id,
		Title:   link.Title,
		Body:    link.URL,
		URL:     link.URL,
		Actions: actionLabels,
	})
}

// HandleAction runs the action at index on the alert called name.
// Open and Snooze both clear the alert; an unknown index leaves it alone.
func (d *Dispatcher) HandleAction(ctx context.Context, name string, index int) (Outcome, error) {
	alert, ok := d.center.Get(name)
	if !ok {
		return Outcome{}, ErrAlertNotFound
	}

	switch index {
	case ActionOpen:
		d.center.Clear(ctx, name)
		d.logger.Info("alert opened", logger.String("id", alert.LinkID))
		return Outcome{Action: OutcomeOpen, LinkID: alert.LinkID, URL: alert.URL}, nil
	case ActionSnooze:
		d.center.Clear(ctx, name)
		d.logger.Info("snooze requested", logger.String("id", alert.LinkID))
		return Outcome{Action: OutcomeSnooze, LinkID: alert.LinkID, SnoozeOptions: d.SnoozeOptions()}, nil
	default:
		return Outcome{}, ErrUnknownAction
	}
}

// Dismiss clears the alert called name. The link's reminder stays cleared.
func (d *Dispatcher) Dismiss(ctx context.Context, name string) error {
	if !d.center.Clear(ctx, name) {
		return ErrAlertNotFound
	}
	id, _ := domain.LinkIDFromNotification(name)
	d.logger.Debug("alert dismissed", logger.String("id", id))
	return nil
}

// Snooze confirms the picker: the link's reminder is re-armed at when.
func (d *Dispatcher) Snooze(ctx context.Context, id string, when time.Time) error {
	return d.armer.Arm(ctx, id, &when)
}

// SnoozeOptions returns the picker's quick offsets.
func (d *Dispatcher) SnoozeOptions() []time.Duration {
	return append([]time.Duration(nil), d.offsets...)
}
