package domain

import (
	"strings"
	"time"
)

const (
	// TimerNamespace prefixes every reminder timer registration.
	TimerNamespace = "lr:rem:"
	// NotificationNamespace prefixes every reminder alert.
	NotificationNamespace = "lr:note:"
)

// Alarm is a persisted timer registration.
type Alarm struct {
	Name string
	When time.Time
}

// TimerName returns the timer registration name for a link id.
func TimerName(id string) string {
	return TimerNamespace + id
}

// NotificationName returns the alert name for a link id.
func NotificationName(id string) string {
	return NotificationNamespace + id
}

// LinkIDFromTimer extracts the link id from a timer name.
// ok is false for names outside the reminder namespace.
func LinkIDFromTimer(name string) (id string, ok bool) {
	return cutNamespace(name, TimerNamespace)
}

// LinkIDFromNotification extracts the link id from an alert name.
func LinkIDFromNotification(name string) (id string, ok bool) {
	return cutNamespace(name, NotificationNamespace)
}

func cutNamespace(name, prefix string) (string, bool) {
	id, found := strings.CutPrefix(name, prefix)
	if !found || id == "" {
		return "", false
	}
	return id, true
}
