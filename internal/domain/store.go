package domain

import "context"

// OwnerFilter scopes a store query to a slice of the document table.
// Use the constructors; the zero value matches nothing.
type OwnerFilter struct {
	id      int64
	scoped  bool
	unowned bool
	all     bool
}

// OwnerOf scopes a query to documents owned by the given user.
func OwnerOf(id int64) OwnerFilter {
	return OwnerFilter{id: id, scoped: true}
}

// Unowned scopes a query to legacy documents that have no owner. This is the
// scope anonymous HTTP callers get.
func Unowned() OwnerFilter {
	return OwnerFilter{unowned: true}
}

// AllOwners matches every document regardless of owner. It is a store-layer
// capability for trusted in-process callers (CLI, bot channel) and must not
// be reachable from the HTTP boundary.
func AllOwners() OwnerFilter {
	return OwnerFilter{all: true}
}

// Owner returns the owner ID and whether the filter names a single owner.
func (f OwnerFilter) Owner() (int64, bool) { return f.id, f.scoped }

// Unowned reports whether the filter matches only ownerless rows.
func (f OwnerFilter) Unowned() bool { return f.unowned }

// All reports whether the filter matches every document.
func (f OwnerFilter) All() bool { return f.all }

// DocumentStore persists captured documents. Search and listing are
// most-recent-first. Question answering only reads; the ingestion path is
// the sole writer.
type DocumentStore interface {
	// Insert stores a document and returns its assigned ID. The store
	// assigns StoredAt.
	Insert(ctx context.Context, doc Document) (int64, error)

	// GetByID returns a document, or nil when it does not exist or is not
	// visible through the filter.
	GetByID(ctx context.Context, id int64, owner OwnerFilter) (*Document, error)

	// SearchContent returns documents whose title or content contains the
	// query as a case-insensitive substring, ordered by StoredAt descending.
	SearchContent(ctx context.Context, query string, owner OwnerFilter, limit int) ([]Document, error)

	// ListRecent returns documents ordered by StoredAt descending.
	ListRecent(ctx context.Context, owner OwnerFilter, limit, offset int) ([]Document, error)

	// Count returns the number of documents visible through the filter.
	Count(ctx context.Context, owner OwnerFilter) (int64, error)

	// Delete removes a document. It reports whether a row was removed;
	// rows outside the filter are left untouched.
	Delete(ctx context.Context, id int64, owner OwnerFilter) (bool, error)

	Close() error
}

// UserStore persists accounts for the auth engine.
type UserStore interface {
	// CreateUser inserts an account and returns its ID. Emails are unique.
	CreateUser(ctx context.Context, email, passwordHash string) (int64, error)

	// GetUserByEmail returns nil when no account exists.
	GetUserByEmail(ctx context.Context, email string) (*User, error)
}
