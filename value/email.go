package value

import (
	"bytes"
	"unicode/utf8"

	"github.com/dekarrin/rezi/v2"
	"github.com/dekarrin/valobj"
)

// Email is an email address value object. It must be non-empty UTF-8 text; the
// address is not otherwise validated against RFC 5322.
type Email struct {
	v string
}

// NewEmail creates an Email. It fails if s is empty or is not valid UTF-8.
func NewEmail(s string) (Email, error) {
	if s == "" {
		return Email{}, valobj.NewValidationError("", "value cannot be empty")
	}
	if !utf8.ValidString(s) {
		return Email{}, valobj.NewValidationError("", "value is not valid UTF-8")
	}
	return Email{v: s}, nil
}

// MustEmail is NewEmail but panics on error.
func MustEmail(s string) Email {
	em, err := NewEmail(s)
	if err != nil {
		panic(err)
	}
	return em
}

// Value returns the wrapped address.
func (em Email) Value() string {
	return em.v
}

// Primitive returns the wrapped address.
func (em Email) Primitive() interface{} {
	return em.v
}

func (em Email) IsZero() bool {
	return em.v == ""
}

func (em Email) Equal(other Email) bool {
	return em.v == other.v
}

func (em Email) String() string {
	return em.v
}

func (em Email) MarshalBinary() ([]byte, error) {
	return rezi.MustEnc(em.v), nil
}

func (em *Email) UnmarshalBinary(data []byte) error {
	rr, err := rezi.NewReader(bytes.NewBuffer(data), nil)
	if err != nil {
		return err
	}

	var s string
	err = rr.Dec(&s)
	if err != nil {
		return rezi.Wrapf(0, "address: %s", err)
	}

	decoded, err := NewEmail(s)
	if err != nil {
		return err
	}

	*em = decoded
	return nil
}
