// Package postgres provides a contact store on PostgreSQL through the pgx
// database/sql driver. IDs are stored in a native UUID column.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dekarrin/valobj"
	"github.com/dekarrin/valobj/db"
	"github.com/dekarrin/valobj/db/sqlstore"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
)

const (
	// DriverName is the database/sql driver name that pgx registers.
	DriverName = "pgx"

	// integrity constraint violation, e.g. 23505 unique_violation.
	constraintClass = "23"
)

// WrapDBError wraps an error from PostgreSQL into an error useable by the rest
// of valobj. It should be called on any error returned from the driver before a
// repo passes the error back to a caller.
func WrapDBError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if strings.HasPrefix(pgErr.Code, constraintClass) {
			return valobj.WrapDBError(valobj.NewError(valobj.ErrConstraintViolation.Error(), err, valobj.ErrConstraintViolation))
		}
		return valobj.WrapDBErrorf(err, "SQLSTATE %s", pgErr.Code)
	} else if errors.Is(err, sql.ErrNoRows) {
		return valobj.ErrNotFound
	}
	return valobj.WrapDBError(err)
}

// Open connects to the PostgreSQL server at dsn and returns a store of
// contacts on it. The contacts table is created if it does not yet exist.
func Open(ctx context.Context, dsn string, log valobj.Logger) (sqlstore.Store, error) {
	conn, err := sql.Open(DriverName, dsn)
	if err != nil {
		return sqlstore.Store{}, WrapDBError(err)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return sqlstore.Store{}, fmt.Errorf("ping postgres: %w", WrapDBError(err))
	}

	store, err := OpenDB(ctx, conn, log)
	if err != nil {
		conn.Close()
		return sqlstore.Store{}, err
	}
	return store, nil
}

// OpenDB returns a store of contacts on an already-open connection to a
// PostgreSQL server.
func OpenDB(ctx context.Context, conn *sql.DB, log valobj.Logger) (sqlstore.Store, error) {
	contacts, err := sqlstore.NewContactsDB(ctx, conn, db.Postgres, sqlstore.Options{
		WrapError: WrapDBError,
		Log:       log,
	})
	if err != nil {
		return sqlstore.Store{}, fmt.Errorf("open contacts table: %w", err)
	}

	return sqlstore.NewStore(contacts), nil
}
