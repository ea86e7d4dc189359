// Package caddy is the public entry point for opening a tea store.
package caddy

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/afero"

	"github.com/mesh-intelligence/caddy/internal/jsonfile"
	"github.com/mesh-intelligence/caddy/internal/sqlite"
	"github.com/mesh-intelligence/caddy/pkg/types"
)

// Version is the caddy release version.
const Version = "0.1.0"

type options struct {
	fs     afero.Fs
	now    func() time.Time
	logger *slog.Logger
}

// Option configures Open.
type Option func(*options)

// WithFs sets the filesystem used by the JSON backend. Defaults to the OS
// filesystem.
func WithFs(fs afero.Fs) Option {
	return func(o *options) { o.fs = fs }
}

// WithClock sets the clock used for the first identifier of an empty store.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithLogger sets the logger handed to the backend.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// Open validates cfg and returns the store for cfg.Backend at cfg.DataPath().
// The caller must Close the store.
//
// Example:
//
//	store, err := caddy.Open(types.Config{Backend: types.BackendJSON})
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
func Open(cfg types.Config, opts ...Option) (types.Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{fs: afero.NewOsFs(), now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	switch cfg.Backend {
	case types.BackendSQLite:
		sopts := []sqlite.Option{sqlite.WithClock(o.now)}
		if o.logger != nil {
			sopts = append(sopts, sqlite.WithLogger(o.logger))
		}
		store, err := sqlite.Open(cfg.DataPath(), sopts...)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return store, nil
	default:
		jopts := []jsonfile.Option{jsonfile.WithClock(o.now)}
		if o.logger != nil {
			jopts = append(jopts, jsonfile.WithLogger(o.logger))
		}
		return jsonfile.New(o.fs, cfg.DataPath(), jopts...), nil
	}
}
