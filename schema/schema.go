// Package schema is the external, serializable view of a Contact. A
// ContactSchema carries the same value objects as the record it came from and
// can be written in one of two wire shapes:
//
//	Compact:  {"id": "<uuid>", "email": "<address>"}
//	Expanded: {"id": {"value": "<uuid>"}, "email": {"value": "<address>"}}
//
// Reading accepts either shape for each field independently, so output of
// either mode can always be read back in.
package schema

import (
	"encoding/json"
	"fmt"

	"github.com/dekarrin/valobj"
	"github.com/dekarrin/valobj/contact"
	"github.com/dekarrin/valobj/value"
)

// Mode selects the wire shape used for value object fields.
type Mode int

const (
	// Expanded writes each value object as {"value": <primitive>}. It is the
	// default mode.
	Expanded Mode = iota

	// Compact writes each value object as its bare primitive.
	Compact
)

func (m Mode) String() string {
	switch m {
	case Expanded:
		return "expanded"
	case Compact:
		return "compact"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ContactSchema is the validated external view of a contact.Contact.
type ContactSchema struct {
	ID    value.ID
	Email value.Email
}

// New validates raw input for each field and builds a ContactSchema from it.
// Each input may be a bare scalar, the structured {"value": ...} form, or a
// built value object; all three produce equal results.
func New(id, email value.Input) (ContactSchema, error) {
	c, err := contact.New(id, email)
	if err != nil {
		return ContactSchema{}, err
	}
	return ContactSchema(c), nil
}

// FromRecord builds a ContactSchema from a stored Contact. The record's value
// objects are carried over as-is.
func FromRecord(c contact.Contact) (ContactSchema, error) {
	if err := c.Validate(); err != nil {
		return ContactSchema{}, err
	}
	return ContactSchema(c), nil
}

// Record converts cs back to the entity record.
func (cs ContactSchema) Record() contact.Contact {
	return contact.Contact(cs)
}

// Equal returns whether other holds the same ID and Email as cs.
func (cs ContactSchema) Equal(other ContactSchema) bool {
	return cs.ID.Equal(other.ID) && cs.Email.Equal(other.Email)
}

func (cs ContactSchema) String() string {
	return fmt.Sprintf("ContactSchema<%s, %s>", cs.ID, cs.Email)
}

// Map returns the structured form of cs in the given mode. The result contains
// only strings and nested map[string]interface{} values, so it can be handed to
// any encoder.
func (cs ContactSchema) Map(mode Mode) map[string]interface{} {
	id := cs.ID.String()
	email := cs.Email.Value()

	if mode == Compact {
		return map[string]interface{}{
			"id":    id,
			"email": email,
		}
	}

	return map[string]interface{}{
		"id":    map[string]interface{}{value.ValueKey: id},
		"email": map[string]interface{}{value.ValueKey: email},
	}
}

// wire mirrors the JSON field order. Using a struct instead of Map keeps "id"
// ahead of "email" in the output.
type wire struct {
	ID    interface{} `json:"id" yaml:"id"`
	Email interface{} `json:"email" yaml:"email"`
}

type wireValue struct {
	Value string `json:"value" yaml:"value"`
}

func (cs ContactSchema) wire(mode Mode) wire {
	if mode == Compact {
		return wire{ID: cs.ID.String(), Email: cs.Email.Value()}
	}
	return wire{
		ID:    wireValue{Value: cs.ID.String()},
		Email: wireValue{Value: cs.Email.Value()},
	}
}

// Marshal returns the JSON encoding of cs in the given mode.
func (cs ContactSchema) Marshal(mode Mode) ([]byte, error) {
	return cs.Encode(valobj.JSON, mode)
}

// MarshalJSON returns the Expanded JSON encoding of cs.
func (cs ContactSchema) MarshalJSON() ([]byte, error) {
	return json.Marshal(cs.wire(Expanded))
}

// Encode returns cs encoded in the given format and mode.
func (cs ContactSchema) Encode(f valobj.Format, mode Mode) ([]byte, error) {
	return f.Marshal(cs.wire(mode))
}

// Unmarshal parses JSON data in either wire shape into a ContactSchema.
func Unmarshal(data []byte) (ContactSchema, error) {
	return Decode(valobj.JSON, data)
}

// Decode parses data of the given format in either wire shape into a
// ContactSchema. Both fields are required.
func Decode(f valobj.Format, data []byte) (ContactSchema, error) {
	var raw map[string]interface{}
	if err := f.Unmarshal(data, &raw); err != nil {
		return ContactSchema{}, fmt.Errorf("decode %s: %w", f, err)
	}
	return FromMap(raw)
}

// FromMap builds a ContactSchema from a decoded structured form such as the one
// returned by Map. Missing fields are reported as validation errors.
func FromMap(m map[string]interface{}) (ContactSchema, error) {
	id, ok := m["id"]
	if !ok {
		return ContactSchema{}, valobj.NewValidationError("id", "field required")
	}
	email, ok := m["email"]
	if !ok {
		return ContactSchema{}, valobj.NewValidationError("email", "field required")
	}

	return New(value.Raw(normalizeDecoded(id)), value.Raw(normalizeDecoded(email)))
}

// UnmarshalJSON parses JSON data in either wire shape into cs.
func (cs *ContactSchema) UnmarshalJSON(data []byte) error {
	decoded, err := Unmarshal(data)
	if err != nil {
		return err
	}
	*cs = decoded
	return nil
}

// normalizeDecoded converts the map types produced by YAML decoding into the
// map[string]interface{} form that value.Raw recognizes.
func normalizeDecoded(v interface{}) interface{} {
	if m, ok := v.(map[interface{}]interface{}); ok {
		conv := make(map[string]interface{}, len(m))
		for k, sub := range m {
			conv[fmt.Sprint(k)] = sub
		}
		return conv
	}
	return v
}
