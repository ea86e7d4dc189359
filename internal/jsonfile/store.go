// Package jsonfile implements the tea Store over a single JSON file holding
// an array of records. Every operation reads the whole file; every save
// rewrites it. There is no locking: one writer at a time is assumed.
package jsonfile

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"slices"
	"time"

	"github.com/spf13/afero"

	"github.com/mesh-intelligence/caddy/pkg/types"
)

// Store is a tea store backed by one JSON file on an afero filesystem.
type Store struct {
	fs     afero.Fs
	path   string
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used to derive the first identifier of an
// empty store.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// New returns a Store reading and writing path on fs.
// The file is created on the first Save.
func New(fs afero.Fs, path string, opts ...Option) *Store {
	s := &Store{
		fs:     fs,
		path:   path,
		now:    time.Now,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the file the store reads and writes.
func (s *Store) Path() string { return s.path }

// Load returns every tea in file order.
func (s *Store) Load() ([]types.Tea, error) {
	return readTeas(s.fs, s.path)
}

// GetByName returns the first tea named name.
func (s *Store) GetByName(name string) (types.Tea, bool, error) {
	teas, err := s.Load()
	if err != nil {
		return types.Tea{}, false, err
	}
	i := slices.IndexFunc(teas, func(t types.Tea) bool { return t.Name == name })
	if i < 0 {
		return types.Tea{}, false, nil
	}
	return teas[i], true, nil
}

// GenerateNewID returns max(id)+1, or the current time in milliseconds when
// the store is empty.
func (s *Store) GenerateNewID() (int64, error) {
	teas, err := s.Load()
	if err != nil {
		return 0, err
	}
	return nextID(teas, s.now)
}

// Save inserts tea or replaces the record with the same id, keeping its
// position, then rewrites the file.
func (s *Store) Save(tea types.Tea) error {
	teas, err := s.Load()
	if err != nil {
		return err
	}
	teas, replaced, err := apply(teas, tea)
	if err != nil {
		return err
	}

	if err := writeTeas(s.fs, s.path, teas); err != nil {
		return err
	}
	s.logger.Debug("tea saved", "path", s.path, "id", tea.ID, "name", tea.Name, "replaced", replaced)
	return nil
}

// Import saves every tea in order with the same rules as Save, then writes
// the file once. If any tea is rejected the file is left untouched.
func (s *Store) Import(teas []types.Tea) error {
	current, err := s.Load()
	if err != nil {
		return err
	}
	for _, tea := range teas {
		if current, _, err = apply(current, tea); err != nil {
			return fmt.Errorf("importing %q: %w", tea.Name, err)
		}
	}

	if err := writeTeas(s.fs, s.path, current); err != nil {
		return err
	}
	s.logger.Debug("teas imported", "path", s.path, "count", len(teas))
	return nil
}

// Init writes an empty store if the file does not exist yet.
func (s *Store) Init() error {
	exists, err := afero.Exists(s.fs, s.path)
	if err != nil || exists {
		return err
	}
	return writeTeas(s.fs, s.path, nil)
}

// Close is a no-op; the store holds no open handles between calls.
func (s *Store) Close() error { return nil }

// checkUnique reports whether saving tea would give a name or an id two
// owners. Name conflicts are reported before id conflicts.
func checkUnique(teas []types.Tea, tea types.Tea) error {
	if slices.ContainsFunc(teas, func(t types.Tea) bool { return t.Name == tea.Name && t.ID != tea.ID }) {
		return &types.DuplicateNameError{Name: tea.Name}
	}
	if slices.ContainsFunc(teas, func(t types.Tea) bool { return t.ID == tea.ID && t.Name != tea.Name }) {
		return &types.DuplicateIDError{ID: tea.ID}
	}
	return nil
}

// apply replaces the tea with the same id in place or appends tea.
func apply(teas []types.Tea, tea types.Tea) ([]types.Tea, bool, error) {
	if err := checkUnique(teas, tea); err != nil {
		return nil, false, err
	}
	i := slices.IndexFunc(teas, func(t types.Tea) bool { return t.ID == tea.ID })
	if i >= 0 {
		teas[i] = tea
		return teas, true, nil
	}
	return append(teas, tea), false, nil
}

func nextID(teas []types.Tea, now func() time.Time) (int64, error) {
	if len(teas) == 0 {
		return now().UnixMilli(), nil
	}
	maxID := teas[0].ID
	for _, t := range teas[1:] {
		maxID = max(maxID, t.ID)
	}
	if maxID == math.MaxInt64 {
		return 0, types.ErrIDExhausted
	}
	return maxID + 1, nil
}
