package value

import (
	"testing"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestInputShapeProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	nonEmpty := gen.AnyString().SuchThat(func(s string) bool { return s != "" })

	properties.Property("all Email input shapes are equal", prop.ForAll(
		func(s string) bool {
			fromScalar, err1 := EmailFrom(Scalar(s))
			fromFields, err2 := EmailFrom(Fields(map[string]interface{}{ValueKey: s}))
			fromObj, err3 := EmailFrom(FromObject(MustEmail(s)))

			if err1 != nil || err2 != nil || err3 != nil {
				return false
			}
			return fromScalar == fromFields && fromFields == fromObj && fromScalar.Value() == s
		},
		nonEmpty,
	))

	properties.Property("all ID input shapes are equal", prop.ForAll(
		func(b []uint8) bool {
			var u uuid.UUID
			copy(u[:], b)
			if u == uuid.Nil {
				return true
			}

			fromUUID, err1 := IDFrom(Scalar(u))
			fromText, err2 := IDFrom(Scalar(u.String()))
			fromFields, err3 := IDFrom(Fields(map[string]interface{}{ValueKey: u.String()}))

			if err1 != nil || err2 != nil || err3 != nil {
				return false
			}
			return fromUUID == fromText && fromText == fromFields && fromUUID.UUID() == u
		},
		gen.SliceOfN(16, gen.UInt8()),
	))

	properties.Property("normalizing a scalar twice is stable", prop.ForAll(
		func(s string) bool {
			once, err := Normalize(Scalar(s), ValueKey)
			if err != nil {
				return false
			}
			twice, err := Normalize(once, ValueKey)
			if err != nil {
				return false
			}
			return twice.Kind() == KindFields && twice.fields[ValueKey] == s
		},
		nonEmpty,
	))

	properties.TestingRun(t)
}
