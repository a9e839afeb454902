package config

import (
	"context"
	"fmt"

	"github.com/dekarrin/valobj"
	"github.com/dekarrin/valobj/db"
	"github.com/dekarrin/valobj/db/inmem"
	"github.com/dekarrin/valobj/db/postgres"
	"github.com/dekarrin/valobj/db/sqlite"
	"github.com/dekarrin/valobj/internal/sorted"
)

// Connector opens a db.Store for a Database configuration.
type Connector func(ctx context.Context, conf Database, log valobj.Logger) (db.Store, error)

// ConnectorRegistry holds registered connector functions for opening stores on
// database connections.
//
// The zero value can be immediately used and will have the built-in connectors
// for every DBType available. This can be disabled by setting DisableDefaults
// to true before attempting to use it.
type ConnectorRegistry struct {
	DisableDefaults bool
	reg             map[DBType]Connector
}

func (cr *ConnectorRegistry) initDefaults() {
	if cr.reg != nil {
		return
	}

	cr.reg = map[DBType]Connector{}
	if cr.DisableDefaults {
		return
	}

	cr.reg[DatabaseInMemory] = func(ctx context.Context, conf Database, log valobj.Logger) (db.Store, error) {
		store, err := inmem.Open(conf.DataPath(), log)
		if err != nil {
			return nil, fmt.Errorf("initialize inmem: %w", err)
		}
		return store, nil
	}
	cr.reg[DatabaseSQLite] = func(ctx context.Context, conf Database, log valobj.Logger) (db.Store, error) {
		store, err := sqlite.Open(ctx, conf.Dir, conf.File, log)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite: %w", err)
		}
		return store, nil
	}
	cr.reg[DatabasePostgres] = func(ctx context.Context, conf Database, log valobj.Logger) (db.Store, error) {
		store, err := postgres.Open(ctx, conf.DSN, log)
		if err != nil {
			return nil, fmt.Errorf("initialize postgres: %w", err)
		}
		return store, nil
	}
}

// Register sets the connector used for the given engine, replacing any that
// was already registered for it.
func (cr *ConnectorRegistry) Register(engine DBType, connector Connector) error {
	if connector == nil {
		return fmt.Errorf("connector function cannot be nil")
	}
	if engine == DatabaseNone || engine == "" {
		return fmt.Errorf("cannot register a connector for DB type %q", engine)
	}

	cr.initDefaults()

	cr.reg[engine] = connector
	return nil
}

// List returns an alphabetized list of all DB types that currently have a
// registered connector.
func (cr *ConnectorRegistry) List() []DBType {
	cr.initDefaults()

	return sorted.Keys(cr.reg)
}

// Connect opens a connection to the configured database, returning a generic
// db.Store. The Database is validated first; call FillDefaults on it
// beforehand if defaults are intended to be used. If log is nil, the store
// does not log.
func (cr *ConnectorRegistry) Connect(ctx context.Context, conf Database, log valobj.Logger) (db.Store, error) {
	cr.initDefaults()

	if err := conf.Validate(); err != nil {
		return nil, err
	}

	connector, ok := cr.reg[conf.Type]
	if !ok {
		return nil, fmt.Errorf("%q has no registered connector", conf.Type)
	}

	return connector(ctx, conf, log)
}

var defaultRegistry = &ConnectorRegistry{}

// Connect opens the configured database using the built-in connectors.
func Connect(ctx context.Context, conf Database, log valobj.Logger) (db.Store, error) {
	return defaultRegistry.Connect(ctx, conf, log)
}
