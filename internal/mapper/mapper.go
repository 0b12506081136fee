// ABOUTME: Core mapping service tying the project registry to the store
// ABOUTME: Provides project registration and comma-delimited project resolution

package mapper

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/relops/vcsmap/internal/store"
)

// Service implements the mapping engines over a Store. It is stateless
// business logic; uniqueness arbitration is left entirely to the store.
type Service struct {
	store  store.Store
	logger *slog.Logger

	// now is swappable for deterministic timestamps in tests
	now func() time.Time
}

// New creates a mapping service backed by the given store.
func New(st store.Store, logger *slog.Logger) *Service {
	return &Service{
		store:  st,
		logger: logger.With("component", "mapper"),
		now:    time.Now,
	}
}

// RegisterProject creates a new project. Returns store.ErrProjectExists if
// the name is already registered (exact, case-sensitive match).
func (s *Service) RegisterProject(ctx context.Context, name string) (*store.Project, error) {
	p, err := s.store.CreateProject(ctx, name)
	if err != nil {
		return nil, err
	}
	s.logger.Info("registered project", "name", p.Name, "id", p.ID)
	return p, nil
}

// ResolveProject looks up a single project by name.
// Returns store.ErrNotFound if it doesn't exist.
func (s *Service) ResolveProject(ctx context.Context, name string) (*store.Project, error) {
	return s.store.GetProjectByName(ctx, name)
}

// ResolveProjects splits a comma-delimited name list and resolves each name.
// Unknown names are dropped; an empty or fully-unmatched list yields an empty
// slice, not an error — downstream queries then simply find nothing.
func (s *Service) ResolveProjects(ctx context.Context, commaDelimited string) ([]*store.Project, error) {
	return s.store.GetProjectsByNames(ctx, strings.Split(commaDelimited, ","))
}

// projectIDs extracts the id list queries operate on.
func projectIDs(projects []*store.Project) []string {
	ids := make([]string, len(projects))
	for i, p := range projects {
		ids[i] = p.ID
	}
	return ids
}
