// Package teas implements the upsert service: adding a tea by name, reusing
// the stored identifier when the name is already known.
package teas

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/mesh-intelligence/caddy/pkg/types"
)

// Store is the subset of types.Store the service needs.
type Store interface {
	GetByName(name string) (types.Tea, bool, error)
	GenerateNewID() (int64, error)
	Save(tea types.Tea) error
}

// Result is the outcome of AddTea. Its JSON form is {"success": bool}; Err
// carries the cause of a failure for callers that want it.
type Result struct {
	Success bool  `json:"success"`
	Err     error `json:"-"`
}

// Service upserts teas into a Store.
type Service struct {
	store  Store
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// New returns a Service writing to store.
func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddTea saves input under its existing identifier when a tea with the same
// name is stored, or under a newly generated one otherwise. It never returns
// an error: any failure is reported as Success false with the cause in Err.
func (s *Service) AddTea(input types.TeaInput) Result {
	tea, updated, err := s.upsert(input)
	if err != nil {
		s.logger.Warn("add tea failed", "name", input.Name, "err", err)
		return Result{Success: false, Err: err}
	}
	s.logger.Debug("tea added", "name", tea.Name, "id", tea.ID, "updated", updated)
	return Result{Success: true}
}

func (s *Service) upsert(input types.TeaInput) (types.Tea, bool, error) {
	existing, found, err := s.store.GetByName(input.Name)
	if err != nil {
		return types.Tea{}, false, fmt.Errorf("looking up %q: %w", input.Name, err)
	}

	id := existing.ID
	if !found {
		if id, err = s.store.GenerateNewID(); err != nil {
			return types.Tea{}, false, fmt.Errorf("generating id: %w", err)
		}
	}

	tea := input.WithID(id)
	if err := s.store.Save(tea); err != nil {
		return types.Tea{}, false, fmt.Errorf("saving %q: %w", input.Name, err)
	}
	return tea, found, nil
}
