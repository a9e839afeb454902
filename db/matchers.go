package db

import (
	"database/sql/driver"

	"github.com/google/uuid"
)

// This file contains matchers to be used with DATA-DOG/go-sqlmock.

// AnyUUID is a DATA-DOG/go-sqlmock compatible matcher used for matching against
// any UUID that is encoded as a string, byte array, or directly as a uuid.UUID.
type AnyUUID struct{}

func (m AnyUUID) Match(v driver.Value) bool {
	strUUID, ok := v.(string)
	if ok {
		_, err := uuid.Parse(strUUID)
		return err == nil
	}

	bUUID, ok := v.([]byte)
	if ok {
		_, err := uuid.FromBytes(bUUID)
		return err == nil
	}

	_, ok = v.(uuid.UUID)
	return ok
}

// UUIDText is a DATA-DOG/go-sqlmock compatible matcher that matches a UUID
// bound in its canonical 36-character text form, which is what a uuid.UUID
// argument becomes once converted by database/sql.
type UUIDText string

func (m UUIDText) Match(v driver.Value) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	return len(s) == 36 && s == string(m)
}
