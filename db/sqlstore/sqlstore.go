// Package sqlstore provides a ContactRepo over database/sql that works with any
// Dialect. Engine packages such as db/sqlite and db/postgres open the
// connection and supply the conversion of their engine-specific errors.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dekarrin/valobj"
	"github.com/dekarrin/valobj/contact"
	"github.com/dekarrin/valobj/db"
	"github.com/dekarrin/valobj/logging"
	"github.com/dekarrin/valobj/value"
)

// DefaultTable is the name of the table that contacts are stored in if none is
// given.
const DefaultTable = "contacts"

// CreateTableSQL returns the DDL statement that declares the contacts table in
// dialect d. Column types are taken from the codecs of each field.
func CreateTableSQL(table string, d db.Dialect) string {
	return `CREATE TABLE IF NOT EXISTS ` + table + ` (
		id ` + db.IDCodec.Column(d) + ` NOT NULL PRIMARY KEY,
		email ` + db.EmailCodec.Column(d) + ` NOT NULL UNIQUE
	);`
}

// Options configures a ContactsDB.
type Options struct {
	// Table is the name of the table to use. Defaults to DefaultTable.
	Table string

	// WrapError converts errors from the engine into valobj errors. If nil,
	// sql.ErrNoRows becomes valobj.ErrNotFound and all other errors are
	// wrapped with valobj.WrapDBError with no conversion.
	WrapError func(error) error

	// Log receives statement logging. Defaults to a logging.NoOpLogger.
	Log valobj.Logger
}

// ContactsDB is a db.ContactRepo backed by a SQL table.
type ContactsDB struct {
	db      *sql.DB
	dialect db.Dialect
	table   string
	wrapErr func(error) error
	log     valobj.Logger
}

// NewContactsDB creates the contacts table in conn if it does not already
// exist and returns a ContactsDB that operates on it.
func NewContactsDB(ctx context.Context, conn *sql.DB, d db.Dialect, opts Options) (*ContactsDB, error) {
	repo := &ContactsDB{
		db:      conn,
		dialect: d,
		table:   opts.Table,
		wrapErr: opts.WrapError,
		log:     opts.Log,
	}
	if repo.table == "" {
		repo.table = DefaultTable
	}
	if repo.wrapErr == nil {
		repo.wrapErr = wrapDBError
	}
	if repo.log == nil {
		repo.log = logging.NoOpLogger{}
	}

	if err := repo.init(ctx); err != nil {
		return nil, err
	}
	return repo, nil
}

func wrapDBError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return valobj.ErrNotFound
	}
	return valobj.WrapDBError(err)
}

func (repo *ContactsDB) init(ctx context.Context) error {
	ddl := CreateTableSQL(repo.table, repo.dialect)
	repo.log.Debugf("%s: declaring table %s (id %s, email %s)", repo.dialect, repo.table, db.IDCodec.Column(repo.dialect), db.EmailCodec.Column(repo.dialect))

	_, err := repo.db.ExecContext(ctx, ddl)
	if err != nil {
		return repo.wrapErr(err)
	}
	return nil
}

func (repo *ContactsDB) insertSQL() string {
	return `INSERT INTO ` + repo.table + ` (id, email) VALUES (` + repo.dialect.Placeholder(1) + `, ` + repo.dialect.Placeholder(2) + `);`
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func (repo *ContactsDB) insert(ctx context.Context, ex execer, c contact.Contact) error {
	if err := c.Validate(); err != nil {
		return err
	}

	repo.log.Tracef("%s: insert %s", repo.table, c)
	_, err := ex.ExecContext(
		ctx,
		repo.insertSQL(),
		db.IDCodec.Encode(&c.ID, repo.dialect),
		db.EmailCodec.Encode(&c.Email, repo.dialect),
	)
	if err != nil {
		return repo.wrapErr(err)
	}
	return nil
}

func (repo *ContactsDB) Create(ctx context.Context, c contact.Contact) (contact.Contact, error) {
	if err := repo.insert(ctx, repo.db, c); err != nil {
		return contact.Contact{}, err
	}

	return repo.Get(ctx, c.ID)
}

func (repo *ContactsDB) SaveAll(ctx context.Context, cs ...contact.Contact) error {
	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return repo.wrapErr(err)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	for i := range cs {
		if err := repo.insert(ctx, tx, cs[i]); err != nil {
			return fmt.Errorf("contact %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return repo.wrapErr(err)
	}
	committed = true
	return nil
}

func (repo *ContactsDB) scanOne(row *sql.Row) (contact.Contact, error) {
	var c contact.Contact
	err := row.Scan(
		db.IDCodec.Target(&c.ID, repo.dialect),
		db.EmailCodec.Target(&c.Email, repo.dialect),
	)
	if err != nil {
		if errors.Is(err, valobj.ErrDecodingFailure) {
			return contact.Contact{}, fmt.Errorf("decode stored contact: %w", err)
		}
		return contact.Contact{}, repo.wrapErr(err)
	}
	return c, nil
}

func (repo *ContactsDB) Get(ctx context.Context, id value.ID) (contact.Contact, error) {
	row := repo.db.QueryRowContext(ctx, `SELECT id, email FROM `+repo.table+` WHERE id = `+repo.dialect.Placeholder(1)+`;`,
		db.IDCodec.Encode(&id, repo.dialect),
	)
	return repo.scanOne(row)
}

func (repo *ContactsDB) GetByEmail(ctx context.Context, email value.Email) (contact.Contact, error) {
	row := repo.db.QueryRowContext(ctx, `SELECT id, email FROM `+repo.table+` WHERE email = `+repo.dialect.Placeholder(1)+`;`,
		db.EmailCodec.Encode(&email, repo.dialect),
	)
	return repo.scanOne(row)
}

func (repo *ContactsDB) First(ctx context.Context) (contact.Contact, error) {
	row := repo.db.QueryRowContext(ctx, `SELECT id, email FROM `+repo.table+` LIMIT 1;`)
	return repo.scanOne(row)
}

func (repo *ContactsDB) GetAll(ctx context.Context) ([]contact.Contact, error) {
	rows, err := repo.db.QueryContext(ctx, `SELECT id, email FROM `+repo.table+`;`)
	if err != nil {
		return nil, repo.wrapErr(err)
	}
	defer rows.Close()

	all := []contact.Contact{}

	for rows.Next() {
		var c contact.Contact
		err = rows.Scan(
			db.IDCodec.Target(&c.ID, repo.dialect),
			db.EmailCodec.Target(&c.Email, repo.dialect),
		)
		if err != nil {
			if errors.Is(err, valobj.ErrDecodingFailure) {
				return nil, fmt.Errorf("decode stored contact: %w", err)
			}
			return nil, repo.wrapErr(err)
		}

		all = append(all, c)
	}

	if err := rows.Err(); err != nil {
		return all, repo.wrapErr(err)
	}

	return all, nil
}

func (repo *ContactsDB) Count(ctx context.Context) (int, error) {
	var count int
	row := repo.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+repo.table+`;`)
	if err := row.Scan(&count); err != nil {
		return 0, repo.wrapErr(err)
	}
	return count, nil
}

func (repo *ContactsDB) Delete(ctx context.Context, id value.ID) (contact.Contact, error) {
	curVal, err := repo.Get(ctx, id)
	if err != nil {
		return curVal, err
	}

	res, err := repo.db.ExecContext(ctx, `DELETE FROM `+repo.table+` WHERE id = `+repo.dialect.Placeholder(1)+`;`,
		db.IDCodec.Encode(&id, repo.dialect),
	)
	if err != nil {
		return curVal, repo.wrapErr(err)
	}
	rowsAff, err := res.RowsAffected()
	if err != nil {
		return curVal, repo.wrapErr(err)
	}
	if rowsAff < 1 {
		return curVal, valobj.ErrNotFound
	}

	return curVal, nil
}

func (repo *ContactsDB) Close() error {
	return repo.db.Close()
}

// Store is a db.Store over a single SQL connection.
type Store struct {
	contacts *ContactsDB
}

// NewStore creates a Store from an already-initialized ContactsDB.
func NewStore(contacts *ContactsDB) Store {
	return Store{contacts: contacts}
}

func (s Store) Contacts() db.ContactRepo {
	return s.contacts
}

func (s Store) Dialect() db.Dialect {
	return s.contacts.dialect
}

func (s Store) Close() error {
	return s.contacts.Close()
}
