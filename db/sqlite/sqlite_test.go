package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/dekarrin/valobj"
	"github.com/dekarrin/valobj/contact"
	"github.com/dekarrin/valobj/db"
	"github.com/dekarrin/valobj/value"
	"github.com/stretchr/testify/assert"
)

const testUUID = "a0eebc99-9c0b-4ef8-bb6d-6bb9bd380a11"

func openTestStore(t *testing.T) (db.Store, bool) {
	store, err := Open(context.Background(), t.TempDir(), "contacts.db", nil)
	if !assert.NoError(t, err) {
		return nil, false
	}
	t.Cleanup(func() { store.Close() })
	return store, true
}

func Test_Open(t *testing.T) {
	assert := assert.New(t)

	dir := filepath.Join(t.TempDir(), "nested", "data")
	store, err := Open(context.Background(), dir, "contacts.db", nil)
	if !assert.NoError(err) {
		return
	}
	defer store.Close()

	assert.Equal(db.SQLite, store.Dialect())
	assert.FileExists(filepath.Join(dir, "contacts.db"))
}

func Test_SaveThenFirst(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	store, ok := openTestStore(t)
	if !ok {
		return
	}

	exID := value.MustParseID(testUUID)
	exEmail := value.MustEmail("test@email.com")
	input := contact.Must(value.FromObject(exID), value.FromObject(exEmail))

	_, err := store.Contacts().Create(ctx, input)
	if !assert.NoError(err) {
		return
	}

	actual, err := store.Contacts().First(ctx)
	if !assert.NoError(err) {
		return
	}
	count, err := store.Contacts().Count(ctx)
	if !assert.NoError(err) {
		return
	}

	assert.Equal(1, count)
	assert.Equal(exID, actual.ID)
	assert.Equal(exEmail, actual.Email)
	assert.Equal(testUUID, actual.ID.String())
}

func Test_DuplicateEmail(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	store, ok := openTestStore(t)
	if !ok {
		return
	}

	first := contact.Must(value.Scalar(testUUID), value.Scalar("test@email.com"))
	second := contact.Must(value.Scalar("284968fa-1ec3-4d69-9a89-a6bbe60d2883"), value.Scalar("test@email.com"))

	_, err := store.Contacts().Create(ctx, first)
	if !assert.NoError(err) {
		return
	}

	_, err = store.Contacts().Create(ctx, second)
	assert.ErrorIs(err, valobj.ErrConstraintViolation)
	assert.ErrorIs(err, valobj.ErrDB)

	count, err := store.Contacts().Count(ctx)
	if !assert.NoError(err) {
		return
	}
	assert.Equal(1, count)
}

func Test_DuplicateID(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	store, ok := openTestStore(t)
	if !ok {
		return
	}

	_, err := store.Contacts().Create(ctx, contact.Must(value.Scalar(testUUID), value.Scalar("a@email.com")))
	if !assert.NoError(err) {
		return
	}

	_, err = store.Contacts().Create(ctx, contact.Must(value.Scalar(testUUID), value.Scalar("b@email.com")))
	assert.ErrorIs(err, valobj.ErrConstraintViolation)
}

func Test_SaveAll_IsAtomic(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	store, ok := openTestStore(t)
	if !ok {
		return
	}

	err := store.Contacts().SaveAll(ctx,
		contact.Must(value.Scalar(testUUID), value.Scalar("test@email.com")),
		contact.Must(value.Scalar("284968fa-1ec3-4d69-9a89-a6bbe60d2883"), value.Scalar("test@email.com")),
	)
	assert.ErrorIs(err, valobj.ErrConstraintViolation)

	count, err := store.Contacts().Count(ctx)
	if !assert.NoError(err) {
		return
	}
	assert.Equal(0, count)

	_, err = store.Contacts().First(ctx)
	assert.ErrorIs(err, valobj.ErrNotFound)
}

func Test_GetAndDelete(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	store, ok := openTestStore(t)
	if !ok {
		return
	}
	c := contact.Must(value.Scalar(testUUID), value.Scalar("test@email.com"))

	err := store.Contacts().SaveAll(ctx, c)
	if !assert.NoError(err) {
		return
	}

	byID, err := store.Contacts().Get(ctx, c.ID)
	if assert.NoError(err) {
		assert.Equal(c, byID)
	}
	byEmail, err := store.Contacts().GetByEmail(ctx, c.Email)
	if assert.NoError(err) {
		assert.Equal(c, byEmail)
	}
	all, err := store.Contacts().GetAll(ctx)
	if assert.NoError(err) {
		assert.Equal([]contact.Contact{c}, all)
	}

	deleted, err := store.Contacts().Delete(ctx, c.ID)
	if assert.NoError(err) {
		assert.Equal(c, deleted)
	}

	_, err = store.Contacts().Get(ctx, c.ID)
	assert.ErrorIs(err, valobj.ErrNotFound)
}

func Test_CorruptRow(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	dir := t.TempDir()

	store, err := Open(ctx, dir, "contacts.db", nil)
	if !assert.NoError(err) {
		return
	}
	defer store.Close()

	raw, err := sql.Open("sqlite", filepath.Join(dir, "contacts.db"))
	if !assert.NoError(err) {
		return
	}
	defer raw.Close()
	_, err = raw.Exec(`INSERT INTO contacts (id, email) VALUES ('not-a-uuid', 'test@email.com');`)
	if !assert.NoError(err) {
		return
	}

	_, err = store.Contacts().First(ctx)
	assert.ErrorIs(err, valobj.ErrDecodingFailure)
}

func Test_MemoryFile(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	store, err := Open(ctx, "", MemoryFile, nil)
	if !assert.NoError(err) {
		return
	}
	defer store.Close()

	_, err = store.Contacts().Create(ctx, contact.Must(value.Scalar(testUUID), value.Scalar("test@email.com")))
	assert.NoError(err)

	count, err := store.Contacts().Count(ctx)
	if assert.NoError(err) {
		assert.Equal(1, count)
	}
}
