// Package db provides the scalar codecs that bind value objects to database
// columns, and the store interfaces that the engine sub-packages implement.
//
// Each Codec knows, per Dialect, which physical column type to declare and how
// to convert its value object to and from the scalar the engine speaks. The
// decision between string-encoded and native UUID storage is made once by the
// Dialect's NativeUUID flag rather than per row.
package db

import (
	"context"
	"fmt"

	"github.com/dekarrin/valobj/contact"
	"github.com/dekarrin/valobj/value"
)

// Dialect describes the capabilities of a database engine that the codecs
// need to know about.
type Dialect struct {
	// Name is the name of the engine, e.g. "sqlite".
	Name string

	// NativeUUID is whether the engine has a native UUID column type. If
	// false, UUIDs are stored as their 36-character text form.
	NativeUUID bool

	// NumberedParams is whether statement placeholders are numbered ($1, $2)
	// instead of positional (?).
	NumberedParams bool
}

var (
	// SQLite is the dialect of modernc.org/sqlite. It has no UUID type.
	SQLite = Dialect{Name: "sqlite"}

	// Postgres is the dialect of PostgreSQL as reached through pgx.
	Postgres = Dialect{Name: "postgres", NativeUUID: true, NumberedParams: true}

	// InMemory is the dialect of the in-memory store, which holds value
	// objects directly.
	InMemory = Dialect{Name: "inmem", NativeUUID: true}
)

func (d Dialect) String() string {
	return d.Name
}

// Placeholder returns the placeholder for the n-th (1-indexed) parameter of a
// statement.
func (d Dialect) Placeholder(n int) string {
	if d.NumberedParams {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// Store is a connection to a persistence layer that holds contacts.
type Store interface {
	// Contacts returns the repository of Contact records.
	Contacts() ContactRepo

	// Dialect returns the dialect that the Store's values are encoded in.
	Dialect() Dialect

	// Close closes any pending operations on the Store and on all of its
	// Repos. It should always be called once the Store is no longer in use.
	Close() error
}

// ContactRepo is a repository of Contact records.
//
// Errors returned by implementations match valobj.ErrConstraintViolation when
// a Contact with the same ID or Email already exists, valobj.ErrNotFound when
// a requested Contact does not exist, and valobj.ErrDecodingFailure when a
// stored row could not be converted back into value objects.
type ContactRepo interface {
	// Create inserts the given Contact. The ID of c is kept as-is. This
	// returns the Contact as it appears in the store after creation.
	Create(ctx context.Context, c contact.Contact) (contact.Contact, error)

	// SaveAll inserts all of the given Contacts as a single unit. If any of
	// them cannot be inserted, none of them are.
	SaveAll(ctx context.Context, cs ...contact.Contact) error

	// Get retrieves the Contact with the given ID.
	Get(ctx context.Context, id value.ID) (contact.Contact, error)

	// GetByEmail retrieves the Contact with the given Email.
	GetByEmail(ctx context.Context, email value.Email) (contact.Contact, error)

	// First retrieves the first Contact in the store. If there are none,
	// valobj.ErrNotFound is returned.
	First(ctx context.Context) (contact.Contact, error)

	// GetAll retrieves all Contacts. If there are none, the returned slice
	// will have a length of zero and the error will be nil.
	GetAll(ctx context.Context) ([]contact.Contact, error)

	// Count returns the number of stored Contacts.
	Count(ctx context.Context) (int, error)

	// Delete removes the Contact with the given ID and returns it as it
	// appeared immediately before deletion.
	Delete(ctx context.Context, id value.ID) (contact.Contact, error)

	// Close performs any clean-up operations required.
	Close() error
}
