// ABOUTME: Store interface and data types for vcsmap persistence
// ABOUTME: Defines Project, Mapping structs and typed errors for database operations

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrProjectExists is returned when registering a project name that is already taken
var ErrProjectExists = errors.New("project already exists")

// ErrDuplicateMapping is returned when an insert collides with an existing
// (project, hg) or (project, git) pair
var ErrDuplicateMapping = errors.New("mapping already exists")

// VCS identifies which side of a mapping a revision belongs to.
// It is always one of VCSHg or VCSGit; queries dispatch on it rather than
// interpolating user input into SQL.
type VCS string

const (
	VCSHg  VCS = "hg"
	VCSGit VCS = "git"
)

// Project is a registered namespace for mappings. Names are globally unique
// and case-sensitive; the id is store-assigned and never changes.
type Project struct {
	ID   string
	Name string
}

// Mapping is one hg↔git revision pair belonging to a project. Both changesets
// are exactly 40 lowercase hex characters; DateAdded is Unix seconds assigned
// at insert time. Mappings are immutable once stored.
type Mapping struct {
	ProjectID    string
	HgChangeset  string
	GitChangeset string
	DateAdded    int64
}

// Store defines the interface for project and mapping persistence
type Store interface {
	// Projects
	CreateProject(ctx context.Context, name string) (*Project, error)
	GetProjectByName(ctx context.Context, name string) (*Project, error)
	GetProjectsByNames(ctx context.Context, names []string) ([]*Project, error)

	// Mappings
	InsertMapping(ctx context.Context, m *Mapping) error
	InsertMappings(ctx context.Context, ms []*Mapping) error
	FindByPrefix(ctx context.Context, projectIDs []string, side VCS, prefix string) (*Mapping, error)
	ListMappings(ctx context.Context, projectIDs []string, since *time.Time) ([]*Mapping, error)

	// Close releases any resources held by the store
	Close() error
}
