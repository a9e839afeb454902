package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dekarrin/valobj"
	"github.com/dekarrin/valobj/contact"
	"github.com/dekarrin/valobj/db"
	"github.com/dekarrin/valobj/logging"
	"github.com/dekarrin/valobj/value"
	"github.com/stretchr/testify/assert"
)

func Test_DetectFormat(t *testing.T) {
	testCases := []struct {
		name   string
		file   string
		expect valobj.Format
	}{
		{
			name:   ".yml single file",
			file:   "config.yml",
			expect: valobj.YAML,
		},
		{
			name:   ".yaml multi-dir rel path",
			file:   "path/to/config.yaml",
			expect: valobj.YAML,
		},
		{
			name:   ".YML abs path",
			file:   "/etc/path/to/config.YML",
			expect: valobj.YAML,
		},
		{
			name:   ".YaMl",
			file:   "someConfigFile.YaMl",
			expect: valobj.YAML,
		},
		{
			name:   ".jsn",
			file:   "config.jsn",
			expect: valobj.JSON,
		},
		{
			name:   ".json",
			file:   "path/to/config.json",
			expect: valobj.JSON,
		},
		{
			name:   ".JSN",
			file:   "/etc/path/to/config.JSN",
			expect: valobj.JSON,
		},
		{
			name:   ".jSoN",
			file:   "someConfigFile.jSoN",
			expect: valobj.JSON,
		},
		{
			name:   "invalid file",
			file:   "someConfigFile.txt",
			expect: valobj.NoFormat,
		},
		{
			name:   "no extension",
			file:   "config",
			expect: valobj.NoFormat,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			actual := DetectFormat(tc.file)

			assert.Equal(tc.expect, actual)
		})
	}
}

func Test_ParseDBConnString(t *testing.T) {
	testCases := []struct {
		name      string
		input     string
		expect    Database
		expectErr bool
	}{
		{
			name:   "inmem",
			input:  "inmem",
			expect: Database{Type: DatabaseInMemory},
		},
		{
			name:   "inmem with dir and file",
			input:  "inmem:dir=data,file=c.rezi",
			expect: Database{Type: DatabaseInMemory, Dir: "data", File: "c.rezi"},
		},
		{
			name:      "inmem params without dir",
			input:     "inmem:file=c.rezi",
			expectErr: true,
		},
		{
			name:   "sqlite",
			input:  "sqlite:data",
			expect: Database{Type: DatabaseSQLite, Dir: "data"},
		},
		{
			name:      "sqlite without dir",
			input:     "sqlite",
			expectErr: true,
		},
		{
			name:   "postgres",
			input:  "postgres:postgres://u:p@localhost:5432/contacts",
			expect: Database{Type: DatabasePostgres, DSN: "postgres://u:p@localhost:5432/contacts"},
		},
		{
			name:   "postgres alias",
			input:  "PG:host=localhost",
			expect: Database{Type: DatabasePostgres, DSN: "host=localhost"},
		},
		{
			name:      "postgres without dsn",
			input:     "postgres",
			expectErr: true,
		},
		{
			name:      "unknown engine",
			input:     "mysql:whatever",
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			actual, err := ParseDBConnString(tc.input)
			if tc.expectErr {
				assert.Error(err)
				return
			}
			assert.NoError(err)
			assert.Equal(tc.expect, actual)
		})
	}
}

func Test_Config_FillDefaults_Validate(t *testing.T) {
	testCases := []struct {
		name      string
		cfg       Config
		expect    Config
		expectErr bool
	}{
		{
			name: "empty config",
			cfg:  Config{},
			expect: Config{
				DB:  Database{Type: DatabaseInMemory},
				Log: Log{Provider: valobj.Jellog},
			},
		},
		{
			name: "sqlite gets default file",
			cfg:  Config{DB: Database{Type: DatabaseSQLite, Dir: "data"}},
			expect: Config{
				DB:  Database{Type: DatabaseSQLite, Dir: "data", File: DefaultSQLiteFile},
				Log: Log{Provider: valobj.Jellog},
			},
		},
		{
			name: "inmem with dir gets default file",
			cfg:  Config{DB: Database{Type: DatabaseInMemory, Dir: "data"}},
			expect: Config{
				DB:  Database{Type: DatabaseInMemory, Dir: "data", File: DefaultDataFile},
				Log: Log{Provider: valobj.Jellog},
			},
		},
		{
			name: "sqlite without dir",
			cfg:  Config{DB: Database{Type: DatabaseSQLite}},
			expect: Config{
				DB:  Database{Type: DatabaseSQLite, File: DefaultSQLiteFile},
				Log: Log{Provider: valobj.Jellog},
			},
			expectErr: true,
		},
		{
			name: "postgres without dsn",
			cfg:  Config{DB: Database{Type: DatabasePostgres}},
			expect: Config{
				DB:  Database{Type: DatabasePostgres},
				Log: Log{Provider: valobj.Jellog},
			},
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			actual := tc.cfg.FillDefaults()
			assert.Equal(tc.expect, actual)

			err := actual.Validate()
			if tc.expectErr {
				assert.Error(err)
			} else {
				assert.NoError(err)
			}
		})
	}
}

func Test_Load(t *testing.T) {
	testCases := []struct {
		name      string
		file      string
		content   string
		expect    Config
		expectErr bool
	}{
		{
			name: "yaml",
			file: "config.yaml",
			content: "db:\n" +
				"  type: sqlite\n" +
				"  dir: data\n" +
				"logging:\n" +
				"  enabled: true\n" +
				"  provider: jellog\n",
			expect: Config{
				DB:     Database{Type: DatabaseSQLite, Dir: "data"},
				Log:    Log{Enabled: true, Provider: valobj.Jellog},
				Format: valobj.YAML,
			},
		},
		{
			name:    "json",
			file:    "config.json",
			content: `{"db": {"type": "postgres", "dsn": "host=localhost"}}`,
			expect: Config{
				DB:     Database{Type: DatabasePostgres, DSN: "host=localhost"},
				Format: valobj.JSON,
			},
		},
		{
			name:    "empty db type",
			file:    "config.yml",
			content: "logging:\n  enabled: false\n",
			expect: Config{
				DB:     Database{Type: DatabaseNone},
				Format: valobj.YAML,
			},
		},
		{
			name:      "bad db type",
			file:      "config.json",
			content:   `{"db": {"type": "mysql"}}`,
			expectErr: true,
		},
		{
			name:      "bad log provider",
			file:      "config.json",
			content:   `{"logging": {"provider": "zap"}}`,
			expectErr: true,
		},
		{
			name:      "unsupported extension",
			file:      "config.toml",
			content:   "",
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			file := filepath.Join(t.TempDir(), tc.file)
			if !assert.NoError(os.WriteFile(file, []byte(tc.content), 0660)) {
				return
			}

			actual, err := Load(file)
			if tc.expectErr {
				assert.Error(err)
				return
			}
			assert.NoError(err)
			assert.Equal(tc.expect, actual)
		})
	}
}

func Test_Load_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func Test_Dump_RoundTrip(t *testing.T) {
	for _, f := range SupportedFormats() {
		t.Run(f.String(), func(t *testing.T) {
			assert := assert.New(t)

			cfg := Config{
				DB:     Database{Type: DatabaseInMemory, Dir: "data", File: "c.rezi"},
				Log:    Log{Enabled: true, Provider: valobj.Jellog, File: "valobj.log"},
				Format: f,
			}

			actual, err := Decode(f, Dump(cfg))
			assert.NoError(err)
			assert.Equal(cfg, actual)
		})
	}
}

func Test_Log_Create(t *testing.T) {
	assert := assert.New(t)

	log, err := Log{}.Create()
	assert.NoError(err)
	assert.IsType(logging.NoOpLogger{}, log)

	log, err = Log{Enabled: true, Provider: valobj.Jellog, File: filepath.Join(t.TempDir(), "test.log")}.Create()
	assert.NoError(err)
	assert.NotNil(log)
}

func Test_ConnectorRegistry(t *testing.T) {
	assert := assert.New(t)

	cr := &ConnectorRegistry{}
	assert.Equal([]DBType{DatabaseInMemory, DatabasePostgres, DatabaseSQLite}, cr.List())

	empty := &ConnectorRegistry{DisableDefaults: true}
	assert.Empty(empty.List())

	_, err := empty.Connect(context.Background(), Database{Type: DatabaseInMemory}, nil)
	assert.Error(err)

	var called bool
	err = empty.Register(DatabaseInMemory, func(ctx context.Context, conf Database, log valobj.Logger) (db.Store, error) {
		called = true
		return nil, nil
	})
	assert.NoError(err)
	_, err = empty.Connect(context.Background(), Database{Type: DatabaseInMemory}, nil)
	assert.NoError(err)
	assert.True(called)

	assert.Error(empty.Register(DatabaseNone, nil))
	assert.Error(empty.Register(DatabaseSQLite, nil))
}

func Test_Connect(t *testing.T) {
	testCases := []struct {
		name   string
		conf   Database
		expect db.Dialect
	}{
		{
			name:   "inmem",
			conf:   Database{Type: DatabaseInMemory},
			expect: db.InMemory,
		},
		{
			name:   "inmem with file",
			conf:   Database{Type: DatabaseInMemory, File: DefaultDataFile},
			expect: db.InMemory,
		},
		{
			name:   "sqlite",
			conf:   Database{Type: DatabaseSQLite, File: DefaultSQLiteFile},
			expect: db.SQLite,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)
			ctx := context.Background()

			conf := tc.conf
			conf.Dir = t.TempDir()

			store, err := Connect(ctx, conf, nil)
			if !assert.NoError(err) {
				return
			}
			defer store.Close()

			assert.Equal(tc.expect, store.Dialect())

			c := contact.Must(value.Scalar("0b4f3a2e-1d5c-4e6f-9a8b-7c6d5e4f3a2b"), value.Scalar("test@email.com"))
			_, err = store.Contacts().Create(ctx, c)
			assert.NoError(err)

			first, err := store.Contacts().First(ctx)
			assert.NoError(err)
			assert.True(c.Equal(first))
		})
	}
}
