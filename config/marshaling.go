package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dekarrin/valobj"
)

type marshaledDatabase struct {
	Type string `yaml:"type" json:"type"`
	Dir  string `yaml:"dir,omitempty" json:"dir,omitempty"`
	File string `yaml:"file,omitempty" json:"file,omitempty"`
	DSN  string `yaml:"dsn,omitempty" json:"dsn,omitempty"`
}

type marshaledLog struct {
	Enabled  bool   `yaml:"enabled" json:"enabled"`
	Provider string `yaml:"provider,omitempty" json:"provider,omitempty"`
	File     string `yaml:"file,omitempty" json:"file,omitempty"`
}

type marshaledConfig struct {
	DB      marshaledDatabase `yaml:"db" json:"db"`
	Logging marshaledLog      `yaml:"logging" json:"logging"`
}

// SupportedFormats returns a list of formats that the config module supports
// decoding. Includes all but NoFormat.
func SupportedFormats() []valobj.Format {
	return []valobj.Format{valobj.JSON, valobj.YAML}
}

// DetectFormat detects the format of a given configuration file and returns the
// Format that can decode it. Returns NoFormat if the format could not be
// detected.
func DetectFormat(file string) valobj.Format {
	ext := strings.ToLower(filepath.Ext(file))
	ext = strings.TrimPrefix(ext, ".")

	for _, f := range SupportedFormats() {
		for _, checkedExt := range f.Extensions() {
			checkedExt = strings.TrimPrefix(strings.ToLower(checkedExt), ".")
			if ext == checkedExt {
				return f
			}
		}
	}

	return valobj.NoFormat
}

// Load loads a configuration from a JSON or YAML file. The format of the file
// is determined by examining its extension; files ending in .json or .jsn are
// parsed as JSON files, and files ending in .yaml or .yml are parsed as YAML
// files. Other extensions are not supported. The extension is not
// case-sensitive.
//
// The returned Config has not had defaults filled or been validated.
func Load(file string) (Config, error) {
	f := DetectFormat(file)
	if f == valobj.NoFormat {
		var exts []string
		for _, sf := range SupportedFormats() {
			for _, ext := range sf.Extensions() {
				exts = append(exts, "."+ext)
			}
		}
		last := len(exts) - 1
		exts[last] = "or " + exts[last]

		return Config{}, fmt.Errorf("%s: incompatible format; must be a %s file", file, strings.Join(exts, ", "))
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", file, err)
	}

	cfg, err := Decode(f, data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", file, err)
	}
	return cfg, nil
}

// Decode parses a Config from data in the given format.
func Decode(f valobj.Format, data []byte) (Config, error) {
	var mc marshaledConfig
	if err := f.Unmarshal(data, &mc); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := cfg.unmarshal(mc); err != nil {
		return Config{}, err
	}
	cfg.Format = f
	return cfg, nil
}

// Encode returns cfg encoded in the given format.
func Encode(f valobj.Format, cfg Config) ([]byte, error) {
	return f.Marshal(cfg.marshal())
}

// Dump dumps the configuration into the bytes of a formatted file. This is the
// complete representation of the current state of the Config, and if parsed by
// Load, would result in an equivalent config.
//
// The config will be dumped in the same format it was loaded with, or will
// default to YAML if the cfg was created without loading from a data stream.
//
// This function will cause a panic if there is a problem marshaling the config
// data in its format.
func Dump(cfg Config) []byte {
	f := cfg.Format
	if f == valobj.NoFormat {
		f = valobj.YAML
	}
	b, err := Encode(f, cfg)
	if err != nil {
		panic(fmt.Sprintf("format encoding failed: %v", err))
	}
	return b
}

// unmarshal completely replaces all attributes.
//
// does no validation except that which is required for parsing.
func (cfg *Config) unmarshal(m marshaledConfig) error {
	if err := cfg.DB.unmarshal(m.DB); err != nil {
		return fmt.Errorf("db: %w", err)
	}
	if err := cfg.Log.unmarshal(m.Logging); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}

func (cfg Config) marshal() marshaledConfig {
	return marshaledConfig{
		DB:      cfg.DB.marshal(),
		Logging: cfg.Log.marshal(),
	}
}

// unmarshal completely replaces all attributes. A blank type is left as
// DatabaseNone so FillDefaults can choose it.
func (db *Database) unmarshal(m marshaledDatabase) error {
	var err error

	db.Type = DatabaseNone
	if m.Type != "" {
		db.Type, err = ParseDBType(m.Type)
		if err != nil {
			return fmt.Errorf("type: %w", err)
		}
	}

	db.Dir = m.Dir
	db.File = m.File
	db.DSN = m.DSN

	return nil
}

func (db Database) marshal() marshaledDatabase {
	m := marshaledDatabase{
		Dir:  db.Dir,
		File: db.File,
		DSN:  db.DSN,
	}
	if db.Type != DatabaseNone {
		m.Type = db.Type.String()
	}
	return m
}

func (log *Log) unmarshal(m marshaledLog) error {
	var err error

	log.Enabled = m.Enabled
	log.Provider, err = valobj.ParseLogProvider(m.Provider)
	if err != nil {
		return fmt.Errorf("provider: %w", err)
	}
	log.File = m.File

	return nil
}

func (log Log) marshal() marshaledLog {
	m := marshaledLog{
		Enabled: log.Enabled,
		File:    log.File,
	}
	if log.Provider != valobj.NoLog {
		m.Provider = log.Provider.String()
	}
	return m
}
