package notify

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/catmanduz/link-reminder/internal/logger"
)

// ErrAlertNotFound is returned for names with no live alert.
var ErrAlertNotFound = errors.New("alert not found")

// Alert is an ephemeral, user-facing reminder notification.
type Alert struct {
	Name      string    `json:"name"`
	LinkID    string    `json:"linkId"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	URL       string    `json:"url"`
	Actions   []string  `json:"actions"`
	CreatedAt time.Time `json:"createdAt"`
}

// Center holds the live alerts, keyed by name. Alerts do not survive a restart.
type Center struct {
	mu     sync.RWMutex
	alerts map[string]Alert
	logger logger.Logger
	now    func() time.Time
}

// NewCenter creates an empty notification center
func NewCenter(log logger.Logger) *Center {
	return &Center{
		alerts: make(map[string]Alert),
		logger: log,
		now:    time.Now,
	}
}

// Create presents an alert under name, replacing any alert with the same name.
func (c *Center) Create(_ context.Context, name string, alert Alert) Alert {
	alert.Name = name
	alert.Actions = append([]string(nil), alert.Actions...)
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = c.now()
	}

	c.mu.Lock()
	_, replaced := c.alerts[name]
	c.alerts[name] = alert
	c.mu.Unlock()

	c.logger.Info("alert presented",
		logger.String("name", name),
		logger.String("title", alert.Title),
		logger.Bool("replaced", replaced))

	return alert
}

// Clear removes the alert called name and reports whether one was live.
func (c *Center) Clear(_ context.Context, name string) bool {
	c.mu.Lock()
	_, ok := c.alerts[name]
	delete(c.alerts, name)
	c.mu.Unlock()

	if ok {
		c.logger.Debug("alert cleared", logger.String("name", name))
	}
	return ok
}

// Get returns the live alert called name
func (c *Center) Get(name string) (Alert, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	alert, ok := c.alerts[name]
	if !ok {
		return Alert{}, false
	}
	alert.Actions = append([]string(nil), alert.Actions...)
	return alert, true
}

// List returns every live alert, oldest first
func (c *Center) List() []Alert {
	c.mu.RLock()
	list := make([]Alert, 0, len(c.alerts))
	for _, a := range c.alerts {
		a.Actions = append([]string(nil), a.Actions...)
		list = append(list, a)
	}
	c.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].Name < list[j].Name
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list
}

// Count returns the number of live alerts
func (c *Center) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.alerts)
}
