package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/catmanduz/link-reminder/internal/domain"
	"github.com/catmanduz/link-reminder/internal/logger"
	"github.com/catmanduz/link-reminder/internal/sources/homepage"
)

// Importer saves links coming from an external bookmark source.
type Importer interface {
	Import(ctx context.Context, in domain.LinkInput) (*domain.Link, bool, error)
}

// ImportReport summarizes one import pass
type ImportReport struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
}

// BookmarkImporter periodically imports a Homepage bookmarks.yaml into the link repository
type BookmarkImporter struct {
	loader        *homepage.Loader
	mapper        *homepage.Mapper
	importer      Importer
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	manualTrigger chan struct{}
}

// NewBookmarkImporter creates a new bookmark importer
func NewBookmarkImporter(
	bookmarkFile string,
	importer Importer,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *BookmarkImporter {
	return &BookmarkImporter{
		loader:        homepage.NewLoader(bookmarkFile),
		mapper:        homepage.NewMapper(),
		importer:      importer,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start begins the periodic import process
func (bi *BookmarkImporter) Start(ctx context.Context) error {
	// Import immediately on start
	if _, err := bi.Import(ctx); err != nil {
		return fmt.Errorf("initial bookmark import failed: %w", err)
	}

	ticker := time.NewTicker(bi.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := bi.Import(ctx); err != nil {
					bi.logger.Error("failed to import bookmarks",
						logger.Error(err))
				}
			case <-bi.manualTrigger:
				bi.logger.Info("manual bookmark import triggered")
				if _, err := bi.Import(ctx); err != nil {
					bi.logger.Error("failed to import bookmarks",
						logger.Error(err))
				}
			case <-bi.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the importer
func (bi *BookmarkImporter) Stop() {
	close(bi.stopCh)
}

// Import loads the bookmarks file and saves every entry.
// Known URLs keep their user-edited metadata.
func (bi *BookmarkImporter) Import(ctx context.Context) (ImportReport, error) {
	var report ImportReport

	bi.logger.Info("importing bookmarks from homepage",
		logger.String("file", bi.loader.Path()))

	config, err := bi.loader.Load()
	if err != nil {
		return report, fmt.Errorf("failed to load bookmarks: %w", err)
	}

	inputs, err := bi.mapper.MapBookmarks(config)
	if err != nil {
		return report, fmt.Errorf("failed to map bookmarks: %w", err)
	}

	for _, in := range inputs {
		_, created, err := bi.importer.Import(ctx, in)
		if err != nil {
			bi.logger.Warn("failed to import bookmark",
				logger.String("url", in.URL),
				logger.Error(err))
			report.Failed++
			continue
		}
		if created {
			report.Created++
		} else {
			report.Updated++
		}
	}

	bi.logger.Info("bookmarks imported",
		logger.Int("created", report.Created),
		logger.Int("updated", report.Updated),
		logger.Int("failed", report.Failed))

	return report, nil
}
