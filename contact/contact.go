// Package contact holds the Contact entity record, the aggregate persisted by
// the stores in the db packages.
package contact

import (
	"bytes"
	"fmt"

	"github.com/dekarrin/rezi/v2"
	"github.com/dekarrin/valobj"
	"github.com/dekarrin/valobj/value"
)

// Contact is a persisted contact. ID is the primary key and Email is unique
// among all stored Contacts; uniqueness is enforced by the store.
type Contact struct {
	ID    value.ID    // PK, NOT NULL
	Email value.Email // UNIQUE, NOT NULL
}

// New creates a Contact from raw input for each field. Each input may be a bare
// scalar, the structured {"value": ...} form, or a built value object. The
// returned error identifies the offending field.
func New(id, email value.Input) (Contact, error) {
	var c Contact
	var err error

	c.ID, err = value.IDFrom(id)
	if err != nil {
		return Contact{}, valobj.AtField("id", err)
	}
	c.Email, err = value.EmailFrom(email)
	if err != nil {
		return Contact{}, valobj.AtField("email", err)
	}

	return c, nil
}

// Must is New but panics on error.
func Must(id, email value.Input) Contact {
	c, err := New(id, email)
	if err != nil {
		panic(err)
	}
	return c
}

// Validate returns a ValidationError if any field of c is unset. A Contact
// built with New is always valid; a zero Contact is not.
func (c Contact) Validate() error {
	if c.ID.IsZero() {
		return valobj.NewValidationError("id", "value is required")
	}
	if c.Email.IsZero() {
		return valobj.NewValidationError("email", "value cannot be empty")
	}
	return nil
}

// Equal returns whether other has the same ID and Email as c.
func (c Contact) Equal(other Contact) bool {
	return c.ID.Equal(other.ID) && c.Email.Equal(other.Email)
}

func (c Contact) String() string {
	return fmt.Sprintf("Contact<%s, %s>", c.ID, c.Email)
}

func (c Contact) MarshalBinary() ([]byte, error) {
	var enc []byte

	enc = append(enc, rezi.MustEnc(c.ID)...)
	enc = append(enc, rezi.MustEnc(c.Email)...)

	return enc, nil
}

func (c *Contact) UnmarshalBinary(data []byte) error {
	rr, err := rezi.NewReader(bytes.NewBuffer(data), nil)
	if err != nil {
		return err
	}

	var decoded Contact

	err = rr.Dec(&decoded.ID)
	if err != nil {
		return rezi.Wrapf(0, "id: %s", err)
	}

	err = rr.Dec(&decoded.Email)
	if err != nil {
		return rezi.Wrapf(0, "email: %s", err)
	}

	*c = decoded
	return nil
}
