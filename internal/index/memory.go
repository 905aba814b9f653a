package index

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/catmanduz/link-reminder/internal/domain"
)

// MemoryIndex is the in-process backend for links, categories and timer
// registrations. It satisfies links.Store and alarm.Store and is used when
// LR_STORE=memory and by tests. Nothing survives a restart.
type MemoryIndex struct {
	mu         sync.RWMutex
	links      map[string]*domain.Link // ID -> Link
	urls       map[string]string       // URL -> ID
	categories []string                // insertion order
	alarms     map[string]time.Time    // timer name -> fire time
	lastWrite  time.Time
}

// NewMemoryIndex creates a new memory index
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		links:  make(map[string]*domain.Link),
		urls:   make(map[string]string),
		alarms: make(map[string]time.Time),
	}
}

// ─────────────────────────────────────────────────────────────────
// Link methods
// ─────────────────────────────────────────────────────────────────

// GetLink retrieves a copy of a link by ID
func (idx *MemoryIndex) GetLink(_ context.Context, id string) (*domain.Link, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	link, ok := idx.links[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	return link.Clone(), nil
}

// FindLinkByURL retrieves a copy of the link saved under url
func (idx *MemoryIndex) FindLinkByURL(_ context.Context, url string) (*domain.Link, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	id, ok := idx.urls[url]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, url)
	}
	return idx.links[id].Clone(), nil
}

// SaveLink adds or replaces a link and keeps the URL index in sync
func (idx *MemoryIndex) SaveLink(_ context.Context, link *domain.Link) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if prev, ok := idx.links[link.ID]; ok && prev.URL != link.URL {
		delete(idx.urls, prev.URL)
	}
	idx.links[link.ID] = link.Clone()
	idx.urls[link.URL] = link.ID
	idx.lastWrite = time.Now()
	return nil
}

// DeleteLink removes a link from the index
func (idx *MemoryIndex) DeleteLink(_ context.Context, id string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if link, ok := idx.links[id]; ok {
		delete(idx.urls, link.URL)
		delete(idx.links, id)
		idx.lastWrite = time.Now()
	}
	return nil
}

// GetAllLinks returns copies of all links
func (idx *MemoryIndex) GetAllLinks(_ context.Context) ([]*domain.Link, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	links := make([]*domain.Link, 0, len(idx.links))
	for _, link := range idx.links {
		links = append(links, link.Clone())
	}
	return links, nil
}

// ClearLinks removes every link
func (idx *MemoryIndex) ClearLinks(_ context.Context) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.links = make(map[string]*domain.Link)
	idx.urls = make(map[string]string)
	idx.lastWrite = time.Now()
	return nil
}

// Count returns the number of links in the index
func (idx *MemoryIndex) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return len(idx.links)
}

// GetLastWrite returns the timestamp of the last link mutation
func (idx *MemoryIndex) GetLastWrite() time.Time {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.lastWrite
}

// ─────────────────────────────────────────────────────────────────
// Category methods
// ─────────────────────────────────────────────────────────────────

// AddCategory appends a category unless it is already known
func (idx *MemoryIndex) AddCategory(_ context.Context, category string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	for _, c := range idx.categories {
		if c == category {
			return nil
		}
	}
	idx.categories = append(idx.categories, category)
	return nil
}

// GetCategories returns the categories in insertion order
func (idx *MemoryIndex) GetCategories(_ context.Context) ([]string, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return append([]string(nil), idx.categories...), nil
}

// ─────────────────────────────────────────────────────────────────
// Alarm methods
// ─────────────────────────────────────────────────────────────────

// PutAlarm creates or replaces a timer registration
func (idx *MemoryIndex) PutAlarm(_ context.Context, name string, when time.Time) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.alarms[name] = when
	return nil
}

// RemoveAlarm deletes a registration and reports whether it existed
func (idx *MemoryIndex) RemoveAlarm(_ context.Context, name string) (bool, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, ok := idx.alarms[name]; !ok {
		return false, nil
	}
	delete(idx.alarms, name)
	return true, nil
}

// GetAlarm returns the fire time of a registration
func (idx *MemoryIndex) GetAlarm(_ context.Context, name string) (time.Time, bool, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	when, ok := idx.alarms[name]
	return when, ok, nil
}

// NextAlarm returns the earliest registration
func (idx *MemoryIndex) NextAlarm(ctx context.Context) (domain.Alarm, bool, error) {
	all, _ := idx.AllAlarms(ctx)
	if len(all) == 0 {
		return domain.Alarm{}, false, nil
	}
	return all[0], true, nil
}

// DueAlarms returns the registrations whose fire time is not after now, earliest first
func (idx *MemoryIndex) DueAlarms(ctx context.Context, now time.Time) ([]domain.Alarm, error) {
	all, _ := idx.AllAlarms(ctx)
	due := make([]domain.Alarm, 0, len(all))
	for _, a := range all {
		if a.When.After(now) {
			break
		}
		due = append(due, a)
	}
	return due, nil
}

// AllAlarms returns every registration, earliest first
func (idx *MemoryIndex) AllAlarms(_ context.Context) ([]domain.Alarm, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	alarms := make([]domain.Alarm, 0, len(idx.alarms))
	for name, when := range idx.alarms {
		alarms = append(alarms, domain.Alarm{Name: name, When: when})
	}
	sort.Slice(alarms, func(i, j int) bool {
		if alarms[i].When.Equal(alarms[j].When) {
			return alarms[i].Name < alarms[j].Name
		}
		return alarms[i].When.Before(alarms[j].When)
	})
	return alarms, nil
}
