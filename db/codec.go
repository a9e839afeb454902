package db

import (
	"database/sql"
	"database/sql/driver"
	"fmt"

	"github.com/dekarrin/valobj"
	"github.com/dekarrin/valobj/value"
	"github.com/google/uuid"
)

// Codec converts a value object of type V to and from its database
// representation.
type Codec[V interface{ IsZero() bool }] struct {
	// Column gives the physical column type to declare for V in dialect d.
	Column func(d Dialect) string

	// ToDB converts a set V to its scalar form in dialect d.
	ToDB func(v V, d Dialect) driver.Value

	// FromDB converts a non-nil scalar read from dialect d back into a V.
	FromDB func(scalar interface{}, d Dialect) (V, error)
}

// Encode returns the scalar to bind for v. A nil or unset v encodes as nil,
// which is stored as NULL.
func (c Codec[V]) Encode(v *V, d Dialect) driver.Value {
	if v == nil || (*v).IsZero() {
		return nil
	}
	return c.ToDB(*v, d)
}

// Decode converts a scalar read from the database into a V. A nil scalar
// decodes as a nil *V with no error.
func (c Codec[V]) Decode(scalar interface{}, d Dialect) (*V, error) {
	if scalar == nil {
		return nil, nil
	}
	v, err := c.FromDB(scalar, d)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Target returns an sql.Scanner that decodes a column into dest. A NULL
// column sets dest to the zero value of V.
func (c Codec[V]) Target(dest *V, d Dialect) sql.Scanner {
	return scanTarget[V]{codec: c, dialect: d, dest: dest}
}

type scanTarget[V interface{ IsZero() bool }] struct {
	codec   Codec[V]
	dialect Dialect
	dest    *V
}

func (st scanTarget[V]) Scan(src interface{}) error {
	v, err := st.codec.Decode(src, st.dialect)
	if err != nil {
		return err
	}
	if v == nil {
		var zero V
		*st.dest = zero
		return nil
	}
	*st.dest = *v
	return nil
}

// IDCodec stores IDs as the native UUID type where the dialect has one and as
// the 36-character canonical text form otherwise.
var IDCodec = Codec[value.ID]{
	Column: func(d Dialect) string {
		if d.NativeUUID {
			return "UUID"
		}
		return "CHAR(36)"
	},
	ToDB: func(id value.ID, d Dialect) driver.Value {
		if d.NativeUUID {
			return id.UUID()
		}
		return id.String()
	},
	FromDB: func(scalar interface{}, d Dialect) (value.ID, error) {
		var u uuid.UUID
		var err error

		switch typed := scalar.(type) {
		case string:
			u, err = uuid.Parse(typed)
		case []byte:
			if len(typed) == 16 {
				u, err = uuid.FromBytes(typed)
			} else {
				u, err = uuid.ParseBytes(typed)
			}
		case [16]byte:
			u = uuid.UUID(typed)
		case uuid.UUID:
			u = typed
		default:
			return value.ID{}, valobj.NewError(fmt.Sprintf("stored ID has unsupported type %T", scalar), valobj.ErrDecodingFailure)
		}
		if err != nil {
			return value.ID{}, valobj.NewError(fmt.Sprintf("stored ID %v", scalar), err, valobj.ErrDecodingFailure)
		}

		id, err := value.NewID(u)
		if err != nil {
			return value.ID{}, valobj.NewError("stored ID", err, valobj.ErrDecodingFailure)
		}
		return id, nil
	},
}

// EmailCodec stores Emails as text in every dialect.
var EmailCodec = Codec[value.Email]{
	Column: func(d Dialect) string {
		return "TEXT"
	},
	ToDB: func(em value.Email, d Dialect) driver.Value {
		return em.Value()
	},
	FromDB: func(scalar interface{}, d Dialect) (value.Email, error) {
		var s string
		switch typed := scalar.(type) {
		case string:
			s = typed
		case []byte:
			s = string(typed)
		default:
			return value.Email{}, valobj.NewError(fmt.Sprintf("stored email has unsupported type %T", scalar), valobj.ErrDecodingFailure)
		}

		em, err := value.NewEmail(s)
		if err != nil {
			return value.Email{}, valobj.NewError("stored email", err, valobj.ErrDecodingFailure)
		}
		return em, nil
	},
}
