// Package value contains the value objects that the contact model is built
// from, along with the flexible input parser that accepts them either as a
// bare scalar, as a structured map, or already-built.
//
// Value objects are immutable. They are comparable with ==, which gives the same
// result as calling Equal, so they may be used directly as map keys.
package value

import (
	"bytes"
	"fmt"

	"github.com/dekarrin/rezi/v2"
	"github.com/dekarrin/valobj"
	"github.com/google/uuid"
)

// ID is an identifier value object wrapping a UUID. The zero value is an unset
// ID; all constructors reject input that would produce it.
type ID struct {
	v uuid.UUID
}

// NewID creates an ID from an already-parsed UUID. The nil UUID is rejected.
func NewID(u uuid.UUID) (ID, error) {
	if u == uuid.Nil {
		return ID{}, valobj.NewValidationError("", "nil UUID is not a valid ID")
	}
	return ID{v: u}, nil
}

// ParseID parses the text form of a UUID into an ID. Any form accepted by
// uuid.Parse is allowed.
func ParseID(s string) (ID, error) {
	if s == "" {
		return ID{}, valobj.NewValidationError("", "value cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return ID{}, valobj.NewValidationError("", fmt.Sprintf("%q is not a valid UUID", s), err)
	}
	return NewID(u)
}

// MustParseID is ParseID but panics on error. It is intended for tests and
// package-level vars.
func MustParseID(s string) ID {
	id, err := ParseID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// GenerateID returns a new random ID.
func GenerateID() (ID, error) {
	u, err := uuid.NewRandom()
	if err != nil {
		return ID{}, fmt.Errorf("could not generate ID: %w", err)
	}
	return ID{v: u}, nil
}

// UUID returns the wrapped UUID.
func (id ID) UUID() uuid.UUID {
	return id.v
}

// Primitive returns the wrapped UUID.
func (id ID) Primitive() interface{} {
	return id.v
}

// IsZero returns whether id is the unset zero value.
func (id ID) IsZero() bool {
	return id.v == uuid.Nil
}

// Equal returns whether other wraps the same UUID as id.
func (id ID) Equal(other ID) bool {
	return id.v == other.v
}

// String returns the canonical 36-character hyphenated form of the UUID.
func (id ID) String() string {
	return id.v.String()
}

func (id ID) MarshalBinary() ([]byte, error) {
	return rezi.MustEnc(id.v.String()), nil
}

func (id *ID) UnmarshalBinary(data []byte) error {
	rr, err := rezi.NewReader(bytes.NewBuffer(data), nil)
	if err != nil {
		return err
	}

	var s string
	err = rr.Dec(&s)
	if err != nil {
		return rezi.Wrapf(0, "uuid: %s", err)
	}

	decoded, err := ParseID(s)
	if err != nil {
		return err
	}

	*id = decoded
	return nil
}
