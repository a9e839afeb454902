package value

import (
	"fmt"

	"github.com/dekarrin/valobj"
	"github.com/google/uuid"
)

// ValueKey is the name of the single field in the structured form of a value
// object, e.g. {"value": "test@email.com"}.
const ValueKey = "value"

// Object is implemented by every value object in this package.
type Object interface {
	// Primitive returns the wrapped primitive value.
	Primitive() interface{}
}

// InputKind is the shape of an Input.
type InputKind int

const (
	KindNone InputKind = iota
	KindScalar
	KindFields
	KindObject
)

func (k InputKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindScalar:
		return "scalar"
	case KindFields:
		return "fields"
	case KindObject:
		return "object"
	default:
		return fmt.Sprintf("InputKind(%d)", int(k))
	}
}

// Input is raw input for a value object field. It holds exactly one of a bare
// scalar (a string or uuid.UUID), the structured map form, or an already-built
// value object. The zero value holds nothing and is rejected by Normalize.
type Input struct {
	kind   InputKind
	scalar interface{}
	fields map[string]interface{}
	obj    Object
}

// Scalar returns an Input holding a bare scalar.
func Scalar(v interface{}) Input {
	return Input{kind: KindScalar, scalar: v}
}

// Fields returns an Input holding the structured map form of a value object.
func Fields(m map[string]interface{}) Input {
	return Input{kind: KindFields, fields: m}
}

// FromObject returns an Input holding an already-built value object.
func FromObject(o Object) Input {
	return Input{kind: KindObject, obj: o}
}

// Raw classifies a dynamically-typed value, such as one produced by decoding
// JSON or YAML into an interface{}, into an Input.
func Raw(v interface{}) Input {
	switch typed := v.(type) {
	case Input:
		return typed
	case Object:
		return FromObject(typed)
	case map[string]interface{}:
		return Fields(typed)
	case map[string]string:
		m := make(map[string]interface{}, len(typed))
		for k, s := range typed {
			m[k] = s
		}
		return Fields(m)
	default:
		return Scalar(v)
	}
}

// Kind returns the shape of the input.
func (in Input) Kind() InputKind {
	return in.kind
}

// Normalize puts in into a canonical structured form. A non-empty string or
// uuid.UUID scalar is wrapped into Fields({key: scalar}). Structured maps and
// value objects are returned unchanged. An empty string fails with a
// ValidationError with reason "value cannot be empty", as does any scalar that
// is not one of the accepted types.
func Normalize(in Input, key string) (Input, error) {
	switch in.kind {
	case KindScalar:
		switch s := in.scalar.(type) {
		case string:
			if s == "" {
				return Input{}, valobj.NewValidationError("", "value cannot be empty")
			}
			return Fields(map[string]interface{}{key: s}), nil
		case uuid.UUID:
			return Fields(map[string]interface{}{key: s}), nil
		case nil:
			return Input{}, valobj.NewValidationError("", "value is required")
		default:
			return Input{}, valobj.NewValidationError("", fmt.Sprintf("unsupported input type %T", s))
		}
	case KindFields:
		return in, nil
	case KindObject:
		if in.obj == nil {
			return Input{}, valobj.NewValidationError("", "value is required")
		}
		return in, nil
	default:
		return Input{}, valobj.NewValidationError("", "value is required")
	}
}

// IDFrom builds an ID from any of the accepted input shapes.
func IDFrom(in Input) (ID, error) {
	n, err := Normalize(in, ValueKey)
	if err != nil {
		return ID{}, err
	}

	if n.kind == KindObject {
		id, ok := n.obj.(ID)
		if !ok {
			return ID{}, valobj.NewValidationError("", fmt.Sprintf("expected an ID, got %T", n.obj))
		}
		if id.IsZero() {
			return ID{}, valobj.NewValidationError("", "value is required")
		}
		return id, nil
	}

	raw, ok := n.fields[ValueKey]
	if !ok {
		return ID{}, valobj.NewValidationError(ValueKey, "field required")
	}

	var id ID
	switch typed := raw.(type) {
	case string:
		id, err = ParseID(typed)
	case uuid.UUID:
		id, err = NewID(typed)
	case ID:
		id, err = typed, nil
		if id.IsZero() {
			err = valobj.NewValidationError("", "value is required")
		}
	default:
		err = valobj.NewValidationError("", fmt.Sprintf("unsupported type %T", raw))
	}
	if err != nil {
		return ID{}, valobj.AtField(ValueKey, err)
	}
	return id, nil
}

// EmailFrom builds an Email from any of the accepted input shapes.
func EmailFrom(in Input) (Email, error) {
	n, err := Normalize(in, ValueKey)
	if err != nil {
		return Email{}, err
	}

	if n.kind == KindObject {
		em, ok := n.obj.(Email)
		if !ok {
			return Email{}, valobj.NewValidationError("", fmt.Sprintf("expected an Email, got %T", n.obj))
		}
		if em.IsZero() {
			return Email{}, valobj.NewValidationError("", "value cannot be empty")
		}
		return em, nil
	}

	raw, ok := n.fields[ValueKey]
	if !ok {
		return Email{}, valobj.NewValidationError(ValueKey, "field required")
	}

	var em Email
	switch typed := raw.(type) {
	case string:
		em, err = NewEmail(typed)
	case Email:
		em, err = typed, nil
		if em.IsZero() {
			err = valobj.NewValidationError("", "value cannot be empty")
		}
	default:
		err = valobj.NewValidationError("", fmt.Sprintf("unsupported type %T", raw))
	}
	if err != nil {
		return Email{}, valobj.AtField(ValueKey, err)
	}
	return em, nil
}
