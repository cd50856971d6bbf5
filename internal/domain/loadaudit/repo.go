package loadaudit

import "context"

// Repository is append-and-read-only: audit entries are never updated or
// deleted once written.
type Repository interface {
	Append(ctx context.Context, e *Entry) error
	ListRecent(ctx context.Context, limit int) ([]*Entry, error)
}
