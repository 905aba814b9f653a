package links

import (
	"context"

	"github.com/catmanduz/link-reminder/internal/domain"
)

// Store is the persistent key-value backend of the repository.
//
// Implementations return domain.ErrNotFound (possibly wrapped) for missing ids
// and plain errors for backend failures. They are not required to be safe for
// concurrent read-modify-write; the Repository serializes mutations.
type Store interface {
	GetLink(ctx context.Context, id string) (*domain.Link, error)
	FindLinkByURL(ctx context.Context, url string) (*domain.Link, error)
	SaveLink(ctx context.Context, link *domain.Link) error
	DeleteLink(ctx context.Context, id string) error
	GetAllLinks(ctx context.Context) ([]*domain.Link, error)
	ClearLinks(ctx context.Context) error

	AddCategory(ctx context.Context, category string) error
	GetCategories(ctx context.Context) ([]string, error)
}

// ReminderCanceler cancels the timer of a link that is going away.
type ReminderCanceler interface {
	CancelTimer(ctx context.Context, id string) error
}
