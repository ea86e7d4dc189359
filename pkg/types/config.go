package types

import (
	"errors"
	"path/filepath"
)

// Config selects a storage backend and where it keeps its file.
type Config struct {
	Backend string `json:"backend" yaml:"backend"`
	DataDir string `json:"data_dir" yaml:"data_dir"`
}

// Supported backend names.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// File names inside DataDir, one per backend.
const (
	JSONFileName   = "data.json"
	SQLiteFileName = "teas.db"
)

// Config validation errors.
var (
	ErrBackendEmpty   = errors.New("backend must not be empty")
	ErrBackendUnknown = errors.New("unknown backend")
)

var knownBackends = map[string]string{
	BackendJSON:   JSONFileName,
	BackendSQLite: SQLiteFileName,
}

// Validate checks that the Config names a known backend.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if _, ok := knownBackends[c.Backend]; !ok {
		return ErrBackendUnknown
	}
	return nil
}

// DataPath returns the file the configured backend reads and writes.
// An empty DataDir means the working directory.
func (c Config) DataPath() string {
	dir := c.DataDir
	if dir == "" {
		dir = "."
	}
	name, ok := knownBackends[c.Backend]
	if !ok {
		name = JSONFileName
	}
	return filepath.Join(dir, name)
}
