package scheduler

import (
	"context"
	"time"

	"github.com/catmanduz/link-reminder/internal/logger"
)

const (
	// DefaultOrphanGCInterval is how often stray timer registrations are pruned
	DefaultOrphanGCInterval = time.Hour
)

// Pruner removes timer registrations that no armed link backs.
type Pruner interface {
	PruneOrphans(ctx context.Context) (int, error)
}

// OrphanCollector periodically prunes stray reminder timers
type OrphanCollector struct {
	pruner   Pruner
	logger   logger.Logger
	interval time.Duration
	stopCh   chan struct{}
}

// NewOrphanCollector creates a new orphan collector
func NewOrphanCollector(pruner Pruner, log logger.Logger, interval time.Duration) *OrphanCollector {
	if interval <= 0 {
		interval = DefaultOrphanGCInterval
	}

	return &OrphanCollector{
		pruner:   pruner,
		logger:   log,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic collection. The first pass runs after one interval,
// startup rehydration already prunes once.
func (oc *OrphanCollector) Start(ctx context.Context) error {
	ticker := time.NewTicker(oc.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := oc.Collect(ctx); err != nil {
					oc.logger.Error("orphan timer collection failed",
						logger.Error(err))
				}
			case <-oc.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the collector
func (oc *OrphanCollector) Stop() {
	close(oc.stopCh)
}

// Collect runs one pruning pass
func (oc *OrphanCollector) Collect(ctx context.Context) (int, error) {
	pruned, err := oc.pruner.PruneOrphans(ctx)
	if pruned > 0 {
		oc.logger.Info("orphan timers collected",
			logger.Int("pruned", pruned))
	} else {
		oc.logger.Debug("no orphan timers to collect")
	}
	return pruned, err
}
