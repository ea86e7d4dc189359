// Package sqlite implements the tea Store on an embedded SQLite database.
// It offers the same operations, errors and identifier policy as the JSON
// file store, with uniqueness checks and writes done inside a transaction.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/caddy/pkg/types"
)

// Store is a tea store backed by a single SQLite file.
type Store struct {
	db     *sql.DB
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

// Open opens (creating if needed) the database at path and ensures the
// schema exists. The caller must Close the store.
func Open(path string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	if _, err := db.Exec(createTeas); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	s := &Store{
		db:     db,
		path:   path,
		now:    time.Now,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Path returns the database file.
func (s *Store) Path() string { return s.path }

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Load returns every tea in store order.
func (s *Store) Load() ([]types.Tea, error) {
	rows, err := s.db.Query(selectTeas)
	if err != nil {
		return nil, fmt.Errorf("querying teas: %w", err)
	}
	defer rows.Close()

	var teas []types.Tea
	for rows.Next() {
		tea, err := s.hydrate(rows)
		if err != nil {
			return nil, err
		}
		teas = append(teas, tea)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating teas: %w", err)
	}
	return teas, nil
}

// GetByName returns the tea named name.
func (s *Store) GetByName(name string) (types.Tea, bool, error) {
	tea, err := s.hydrate(s.db.QueryRow(selectTeaByName, name))
	if errors.Is(err, sql.ErrNoRows) {
		return types.Tea{}, false, nil
	}
	if err != nil {
		return types.Tea{}, false, err
	}
	return tea, true, nil
}

// GenerateNewID returns max(id)+1, or the current time in milliseconds when
// the store is empty.
func (s *Store) GenerateNewID() (int64, error) {
	var count, maxID int64
	if err := s.db.QueryRow(selectIDStats).Scan(&count, &maxID); err != nil {
		return 0, fmt.Errorf("querying ids: %w", err)
	}
	if count == 0 {
		return s.now().UnixMilli(), nil
	}
	if maxID == math.MaxInt64 {
		return 0, types.ErrIDExhausted
	}
	return maxID + 1, nil
}

// Save inserts tea or replaces the row with the same id in place.
func (s *Store) Save(tea types.Tea) error {
	return s.inTx(func(tx *sql.Tx) error {
		replaced, err := saveTx(tx, tea)
		if err != nil {
			return err
		}
		s.logger.Debug("tea saved", "path", s.path, "id", tea.ID, "name", tea.Name, "replaced", replaced)
		return nil
	})
}

// Import saves teas in order within a single transaction. Either every tea
// is saved or none is.
func (s *Store) Import(teas []types.Tea) error {
	return s.inTx(func(tx *sql.Tx) error {
		for _, tea := range teas {
			if _, err := saveTx(tx, tea); err != nil {
				return fmt.Errorf("importing %q: %w", tea.Name, err)
			}
		}
		s.logger.Debug("teas imported", "path", s.path, "count", len(teas))
		return nil
	})
}

func (s *Store) inTx(fn func(tx *sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// saveTx applies the uniqueness rules, then updates or inserts. It reports
// whether an existing row was replaced.
func saveTx(tx *sql.Tx, tea types.Tea) (bool, error) {
	taken, err := exists(tx, selectNameOwner, tea.Name, tea.ID)
	if err != nil {
		return false, err
	}
	if taken {
		return false, &types.DuplicateNameError{Name: tea.Name}
	}
	taken, err = exists(tx, selectIDOwner, tea.ID, tea.Name)
	if err != nil {
		return false, err
	}
	if taken {
		return false, &types.DuplicateIDError{ID: tea.ID}
	}

	extra, err := encodeExtra(tea.Extra)
	if err != nil {
		return false, err
	}

	res, err := tx.Exec(updateTeaByID, tea.Name, tea.Description, extra, tea.ID)
	if err != nil {
		return false, fmt.Errorf("updating tea: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("updating tea: %w", err)
	}
	if n > 0 {
		return true, nil
	}

	if _, err := tx.Exec(insertTea, tea.ID, tea.Name, tea.Description, extra); err != nil {
		return false, fmt.Errorf("inserting tea: %w", err)
	}
	return false, nil
}

func exists(tx *sql.Tx, query string, args ...any) (bool, error) {
	var one int
	err := tx.QueryRow(query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking uniqueness: %w", err)
	}
	return true, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// hydrate converts one row into a Tea.
func (s *Store) hydrate(row scanner) (types.Tea, error) {
	var tea types.Tea
	var extra sql.NullString
	if err := row.Scan(&tea.ID, &tea.Name, &tea.Description, &extra); err != nil {
		return types.Tea{}, err
	}
	if extra.Valid && extra.String != "" {
		v, err := types.DecodeValue([]byte(extra.String))
		if err != nil {
			return types.Tea{}, &types.ParseError{Path: s.path, Err: err}
		}
		fields, ok := v.(map[string]any)
		if !ok {
			return types.Tea{}, &types.ParseError{Path: s.path, Err: errExtraNotObject}
		}
		tea.Extra = fields
	}
	return tea, nil
}

var errExtraNotObject = errors.New("extra column must hold a JSON object")

func encodeExtra(extra map[string]any) (sql.NullString, error) {
	if len(extra) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(extra)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encoding extra fields: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}
