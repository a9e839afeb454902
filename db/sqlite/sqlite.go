// Package sqlite provides a contact store on SQLite through the pure-Go
// modernc.org/sqlite driver. SQLite has no UUID column type, so IDs are stored
// as their 36-character text form.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dekarrin/valobj"
	"github.com/dekarrin/valobj/db"
	"github.com/dekarrin/valobj/db/sqlstore"
	"modernc.org/sqlite"
)

// MemoryFile is the file name that opens a private in-memory database.
const MemoryFile = ":memory:"

// WrapDBError wraps an error from the SQLite engine into an error useable by
// the rest of valobj. It should be called on any error returned from SQLite
// before a repo passes the error back to a caller.
func WrapDBError(err error) error {
	sqliteErr := &sqlite.Error{}
	if errors.As(err, &sqliteErr) {
		primaryCode := sqliteErr.Code() & 0xff
		if primaryCode == 19 {
			// preserve the error message for constraint violations
			return valobj.WrapDBError(valobj.NewError(valobj.ErrConstraintViolation.Error(), err, valobj.ErrConstraintViolation))
		}
		if primaryCode == 1 {
			// this is a generic error and thus the string is not descriptive,
			// so preserve the original error instead
			return valobj.WrapDBError(err)
		}
		return valobj.WrapDBError(err, sqlite.ErrorCodeString[sqliteErr.Code()])
	} else if errors.Is(err, sql.ErrNoRows) {
		return valobj.ErrNotFound
	}
	return valobj.WrapDBError(err)
}

// Open opens (creating if needed) the SQLite database file in dir and returns
// a store of contacts in it. If file is MemoryFile, dir is ignored and the
// database lives only as long as the returned Store.
func Open(ctx context.Context, dir, file string, log valobj.Logger) (sqlstore.Store, error) {
	dbPath := file
	if file != MemoryFile {
		err := os.MkdirAll(dir, 0770)
		if err != nil {
			return sqlstore.Store{}, fmt.Errorf("create data dir: %w", err)
		}
		dbPath = filepath.Join(dir, file)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return sqlstore.Store{}, WrapDBError(err)
	}
	if file == MemoryFile {
		// every connection to :memory: is a different database
		conn.SetMaxOpenConns(1)
	}

	contacts, err := sqlstore.NewContactsDB(ctx, conn, db.SQLite, sqlstore.Options{
		WrapError: WrapDBError,
		Log:       log,
	})
	if err != nil {
		conn.Close()
		return sqlstore.Store{}, fmt.Errorf("open contacts table: %w", err)
	}

	return sqlstore.NewStore(contacts), nil
}
