package deps

import (
	"context"
	"time"

	"github.com/catmanduz/link-reminder/internal/alarm"
	"github.com/catmanduz/link-reminder/internal/dispatcher"
	"github.com/catmanduz/link-reminder/internal/links"
	"github.com/catmanduz/link-reminder/internal/logger"
	"github.com/catmanduz/link-reminder/internal/notify"
	"github.com/catmanduz/link-reminder/internal/reminder"
)

// Pinger reports whether the backing store answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StoreStats is reported by backends that can count their records cheaply.
type StoreStats interface {
	Count() int
	GetLastWrite() time.Time
}

type Deps struct {
	Logger        logger.Logger
	StartTime     time.Time
	Version       string
	Commit        string
	BuildDate     string
	GoVersion     string
	TimeNow       func() time.Time // for testing, defaults to time.Now
	AllowedHosts  []string         // Host headers allowed to access the server
	AllowedCIDRS  []string         // IPs allowed to access readyz/infra/import endpoints
	TrustProxy    bool             // true if running behind a trusted reverse proxy (e.g., cloudflared)
	StoreKind     string           // "redis" | "memory"
	Store         Pinger           // nil when the store has nothing to ping
	Stats         StoreStats       // nil when the store does not report stats
	Links         *links.Repository
	Reminders     *reminder.Scheduler
	Alarms        *alarm.Service
	Alerts        *notify.Center
	Dispatcher    *dispatcher.Dispatcher
	Rehydration   func() reminder.RehydrateReport // report of the startup rehydration
	ImportTrigger chan struct{}                   // manual bookmark import (nil if import disabled)
}

// Now returns the current time through TimeNow when set.
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
