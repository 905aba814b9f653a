package links

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/catmanduz/link-reminder/internal/domain"
	"github.com/catmanduz/link-reminder/internal/logger"
)

// Repository owns the link records and the category vocabulary.
//
// Every mutation runs through a single-slot queue, so two read-modify-write
// sequences (two quick saves, a save racing a reminder clear...) never
// interleave on the same snapshot. Reads go straight to the store.
type Repository struct {
	store    Store
	logger   logger.Logger
	now      func() time.Time
	newID    func() string
	queue    chan struct{}
	canceler ReminderCanceler
}

// Option customizes a Repository.
type Option func(*Repository)

// WithClock overrides time.Now (tests).
func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

// WithIDGenerator overrides the record id generator (tests).
func WithIDGenerator(gen func() string) Option {
	return func(r *Repository) { r.newID = gen }
}

// WithReminderCanceler sets the component told to cancel timers of deleted links.
func WithReminderCanceler(c ReminderCanceler) Option {
	return func(r *Repository) { r.canceler = c }
}

// NewRepository creates a new link repository on top of store.
func NewRepository(store Store, log logger.Logger, opts ...Option) *Repository {
	r := &Repository{
		store:  store,
		logger: log,
		now:    time.Now,
		newID:  uuid.NewString,
		queue:  make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetReminderCanceler wires the reminder scheduler after construction.
// Must be called before the repository is shared between goroutines.
func (r *Repository) SetReminderCanceler(c ReminderCanceler) {
	r.canceler = c
}

// acquire waits for the mutation slot. The returned func releases it.
func (r *Repository) acquire(ctx context.Context) (func(), error) {
	select {
	case r.queue <- struct{}{}:
		return func() { <-r.queue }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Upsert saves a link with full metadata, keyed by its normalized URL.
// An existing record keeps its ID and AddedAt; every other field is replaced.
func (r *Repository) Upsert(ctx context.Context, in domain.LinkInput) (*domain.Link, error) {
	normalized, err := domain.NormalizeURL(in.URL)
	if err != nil {
		return nil, err
	}

	release, err := r.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	existing, err := r.findByURL(ctx, normalized)
	if err != nil {
		return nil, err
	}

	now := r.now()
	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = normalized
	}

	link := &domain.Link{
		URL:       normalized,
		Title:     title,
		Domain:    domain.DeriveDomain(normalized),
		Category:  domain.NormalizeCategory(in.Category),
		Keywords:  domain.NormalizeKeywords(in.Keywords),
		UpdatedAt: now,
	}
	if in.ReminderAt != nil {
		at := *in.ReminderAt
		link.ReminderAt = &at
	}

	if existing != nil {
		link.ID = existing.ID
		link.AddedAt = existing.AddedAt
	} else {
		link.ID = r.newID()
		link.AddedAt = now
	}

	if err := r.store.SaveLink(ctx, link); err != nil {
		return nil, storageErr("save link", err)
	}
	if err := r.addCategories(ctx, link.Category); err != nil {
		return nil, err
	}

	r.logger.Debug("link saved",
		logger.String("id", link.ID),
		logger.String("url", link.URL),
		logger.Bool("created", existing == nil))

	return link.Clone(), nil
}

// QuickUpsert is the one-click save: it only touches Title, Domain and
// LastQuickSavedAt of an existing record, or creates a bare one.
func (r *Repository) QuickUpsert(ctx context.Context, rawURL, title string) (*domain.Link, error) {
	link, _, err := r.quickSave(ctx, domain.LinkInput{URL: rawURL, Title: title}, false)
	return link, err
}

// Import saves a link coming from an external bookmark source. Unknown URLs
// are created with the given category and keywords; known ones get the
// quick-save treatment so user edits survive repeated imports.
func (r *Repository) Import(ctx context.Context, in domain.LinkInput) (*domain.Link, bool, error) {
	return r.quickSave(ctx, in, true)
}

func (r *Repository) quickSave(ctx context.Context, in domain.LinkInput, withMetadata bool) (*domain.Link, bool, error) {
	normalized, err := domain.NormalizeURL(in.URL)
	if err != nil {
		return nil, false, err
	}

	release, err := r.acquire(ctx)
	if err != nil {
		return nil, false, err
	}
	defer release()

	existing, err := r.findByURL(ctx, normalized)
	if err != nil {
		return nil, false, err
	}

	now := r.now()
	title := strings.TrimSpace(in.Title)
	derived := domain.DeriveDomain(normalized)

	link := existing
	if link != nil {
		if title != "" {
			link.Title = title
		}
		if derived != "" {
			link.Domain = derived
		}
		link.LastQuickSavedAt = now
	} else {
		if title == "" {
			title = normalized
		}
		link = &domain.Link{
			ID:               r.newID(),
			URL:              normalized,
			Title:            title,
			Domain:           derived,
			Category:         domain.DefaultCategory,
			Keywords:         []string{},
			AddedAt:          now,
			LastQuickSavedAt: now,
		}
		if withMetadata {
			link.Category = domain.NormalizeCategory(in.Category)
			link.Keywords = domain.NormalizeKeywords(in.Keywords)
		}
	}

	if err := r.store.SaveLink(ctx, link); err != nil {
		return nil, false, storageErr("save link", err)
	}
	if err := r.addCategories(ctx, link.Category); err != nil {
		return nil, false, err
	}

	created := existing == nil
	r.logger.Debug("link quick-saved",
		logger.String("id", link.ID),
		logger.String("url", link.URL),
		logger.Bool("created", created))

	return link.Clone(), created, nil
}

// Delete removes a link and tells the reminder canceler to drop its timer.
// Deleting an unknown id is a no-op.
func (r *Repository) Delete(ctx context.Context, id string) error {
	release, err := r.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	if _, err := r.store.GetLink(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return storageErr("get link", err)
	}

	if err := r.store.DeleteLink(ctx, id); err != nil {
		return storageErr("delete link", err)
	}

	r.logger.Info("link deleted", logger.String("id", id))

	if r.canceler != nil {
		if err := r.canceler.CancelTimer(ctx, id); err != nil {
			return fmt.Errorf("cancel reminder timer of %s: %w", id, err)
		}
	}
	return nil
}

// ClearAll removes every link. Categories are kept; armed timers are canceled.
func (r *Repository) ClearAll(ctx context.Context) error {
	release, err := r.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	all, err := r.store.GetAllLinks(ctx)
	if err != nil {
		return storageErr("list links", err)
	}

	if err := r.store.ClearLinks(ctx); err != nil {
		return storageErr("clear links", err)
	}

	r.logger.Info("all links cleared", logger.Int("count", len(all)))

	if r.canceler == nil {
		return nil
	}
	var errs []error
	for _, link := range all {
		if !link.HasReminder() {
			continue
		}
		if err := r.canceler.CancelTimer(ctx, link.ID); err != nil {
			errs = append(errs, fmt.Errorf("cancel reminder timer of %s: %w", link.ID, err))
		}
	}
	return errors.Join(errs...)
}

// List returns every link, newest AddedAt first.
func (r *Repository) List(ctx context.Context) ([]*domain.Link, error) {
	all, err := r.store.GetAllLinks(ctx)
	if err != nil {
		return nil, storageErr("list links", err)
	}
	domain.SortNewestFirst(all)
	return all, nil
}

// Get returns a link by id, or domain.ErrNotFound.
func (r *Repository) Get(ctx context.Context, id string) (*domain.Link, error) {
	link, err := r.store.GetLink(ctx, id)
	if err != nil {
		return nil, storageErr("get link", err)
	}
	return link, nil
}

// Categories returns the category vocabulary in insertion order,
// always including domain.DefaultCategory.
func (r *Repository) Categories(ctx context.Context) ([]string, error) {
	cats, err := r.store.GetCategories(ctx)
	if err != nil {
		return nil, storageErr("get categories", err)
	}
	for _, c := range cats {
		if c == domain.DefaultCategory {
			return cats, nil
		}
	}
	return append([]string{domain.DefaultCategory}, cats...), nil
}

// SetReminder sets (or clears, when at is nil) the ReminderAt field of a link.
func (r *Repository) SetReminder(ctx context.Context, id string, at *time.Time) (*domain.Link, error) {
	release, err := r.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	link, err := r.store.GetLink(ctx, id)
	if err != nil {
		return nil, storageErr("get link", err)
	}

	if at != nil {
		when := *at
		link.ReminderAt = &when
	} else {
		link.ReminderAt = nil
	}

	if err := r.store.SaveLink(ctx, link); err != nil {
		return nil, storageErr("save link", err)
	}
	return link.Clone(), nil
}

// ClearDueReminder clears ReminderAt if it is set and not after now, in one step.
// cleared is false when the link has no reminder or a later one (re-armed meanwhile).
func (r *Repository) ClearDueReminder(ctx context.Context, id string, now time.Time) (link *domain.Link, cleared bool, err error) {
	release, err := r.acquire(ctx)
	if err != nil {
		return nil, false, err
	}
	defer release()

	link, err = r.store.GetLink(ctx, id)
	if err != nil {
		return nil, false, storageErr("get link", err)
	}

	if link.ReminderAt == nil || link.ReminderAt.After(now) {
		return link, false, nil
	}

	link.ReminderAt = nil
	if err := r.store.SaveLink(ctx, link); err != nil {
		return nil, false, storageErr("save link", err)
	}
	return link.Clone(), true, nil
}

func (r *Repository) findByURL(ctx context.Context, url string) (*domain.Link, error) {
	link, err := r.store.FindLinkByURL(ctx, url)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, storageErr("find link", err)
	}
	return link, nil
}

// addCategories records the default category plus any extra ones.
func (r *Repository) addCategories(ctx context.Context, extra ...string) error {
	for _, c := range append([]string{domain.DefaultCategory}, extra...) {
		if err := r.store.AddCategory(ctx, c); err != nil {
			return storageErr("add category", err)
		}
	}
	return nil
}

// storageErr tags backend failures with domain.ErrStorageUnavailable.
// Not-found errors pass through untouched.
func storageErr(op string, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStorageUnavailable, err)
}
