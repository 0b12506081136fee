// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Provides project/mapping persistence with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS projects (
			id   TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE
		);

		CREATE TABLE IF NOT EXISTS mappings (
			project_id    TEXT NOT NULL REFERENCES projects(id),
			hg_changeset  TEXT NOT NULL,
			git_changeset TEXT NOT NULL,
			date_added    INTEGER NOT NULL
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_mappings_project_hg
			ON mappings(project_id, hg_changeset);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_mappings_project_git
			ON mappings(project_id, git_changeset);

		CREATE INDEX IF NOT EXISTS idx_mappings_project_added
			ON mappings(project_id, date_added);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	s.logger.Info("closing SQLite store")
	return s.db.Close()
}

// isConstraintViolation checks if the error is a SQLite UNIQUE constraint violation
func isConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "UNIQUE constraint failed") ||
		strings.Contains(errStr, "constraint failed")
}

// CreateProject registers a new project name and returns it with a
// store-assigned id. Returns ErrProjectExists if the name is already taken.
func (s *SQLiteStore) CreateProject(ctx context.Context, name string) (*Project, error) {
	p := &Project{
		ID:   uuid.NewString(),
		Name: name,
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (id, name) VALUES (?, ?)`,
		p.ID, p.Name,
	)
	if err != nil {
		if isConstraintViolation(err) {
			return nil, ErrProjectExists
		}
		return nil, fmt.Errorf("inserting project: %w", err)
	}

	s.logger.Debug("created project", "id", p.ID, "name", p.Name)
	return p, nil
}

// GetProjectByName retrieves a project by its exact, case-sensitive name.
// Returns ErrNotFound if the project doesn't exist.
func (s *SQLiteStore) GetProjectByName(ctx context.Context, name string) (*Project, error) {
	var p Project
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name FROM projects WHERE name = ?`,
		name,
	).Scan(&p.ID, &p.Name)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying project: %w", err)
	}

	return &p, nil
}

// GetProjectsByNames retrieves the projects whose names appear in the given
// list. Unknown names are dropped; an empty result is not an error.
func (s *SQLiteStore) GetProjectsByNames(ctx context.Context, names []string) ([]*Project, error) {
	if len(names) == 0 {
		return nil, nil
	}

	query := `SELECT id, name FROM projects WHERE name IN (` + placeholders(len(names)) + `)`
	rows, err := s.db.QueryContext(ctx, query, stringArgs(names)...)
	if err != nil {
		return nil, fmt.Errorf("querying projects: %w", err)
	}
	defer rows.Close()

	var projects []*Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, fmt.Errorf("scanning project row: %w", err)
		}
		projects = append(projects, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating project rows: %w", err)
	}
	return projects, nil
}

// InsertMapping inserts a single mapping. Returns ErrDuplicateMapping if
// either changeset already exists for the project; the UNIQUE indexes are the
// sole arbiter between concurrent inserts of the same pair.
func (s *SQLiteStore) InsertMapping(ctx context.Context, m *Mapping) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO mappings (project_id, hg_changeset, git_changeset, date_added)
		 VALUES (?, ?, ?, ?)`,
		m.ProjectID, m.HgChangeset, m.GitChangeset, m.DateAdded,
	)
	if err != nil {
		if isConstraintViolation(err) {
			return ErrDuplicateMapping
		}
		return fmt.Errorf("inserting mapping: %w", err)
	}

	s.logger.Debug("inserted mapping", "project_id", m.ProjectID, "hg", m.HgChangeset, "git", m.GitChangeset)
	return nil
}

// InsertMappings inserts a batch of mappings in a single transaction.
// If any insert collides with an existing row or another row in the batch,
// the whole transaction rolls back and ErrDuplicateMapping is returned;
// nothing from the batch is persisted.
func (s *SQLiteStore) InsertMappings(ctx context.Context, ms []*Mapping) error {
	if len(ms) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO mappings (project_id, hg_changeset, git_changeset, date_added)
		 VALUES (?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, m := range ms {
		if _, err := stmt.ExecContext(ctx, m.ProjectID, m.HgChangeset, m.GitChangeset, m.DateAdded); err != nil {
			if isConstraintViolation(err) {
				return ErrDuplicateMapping
			}
			return fmt.Errorf("inserting mapping batch row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing mapping batch: %w", err)
	}

	s.logger.Debug("inserted mapping batch", "count", len(ms))
	return nil
}

// FindByPrefix returns the first mapping in the given projects whose hg or
// git changeset starts with prefix. The column is chosen from the typed VCS
// value and the prefix is bound as a query parameter, never interpolated.
// Returns ErrNotFound if nothing matches.
func (s *SQLiteStore) FindByPrefix(ctx context.Context, projectIDs []string, side VCS, prefix string) (*Mapping, error) {
	if len(projectIDs) == 0 {
		return nil, ErrNotFound
	}

	var column string
	switch side {
	case VCSHg:
		column = "hg_changeset"
	case VCSGit:
		column = "git_changeset"
	default:
		return nil, fmt.Errorf("unknown vcs side %q", side)
	}

	query := `
		SELECT project_id, hg_changeset, git_changeset, date_added
		FROM mappings
		WHERE project_id IN (` + placeholders(len(projectIDs)) + `)
		AND ` + column + ` LIKE ?
		LIMIT 1
	`
	args := append(stringArgs(projectIDs), prefix+"%")

	var m Mapping
	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&m.ProjectID,
		&m.HgChangeset,
		&m.GitChangeset,
		&m.DateAdded,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying mapping by prefix: %w", err)
	}

	return &m, nil
}

// ListMappings returns all mappings for the given projects ordered by
// git_changeset ascending (hg_changeset as tiebreak). If since is non-nil,
// only mappings with date_added strictly after it are returned. The result
// is fully materialized.
func (s *SQLiteStore) ListMappings(ctx context.Context, projectIDs []string, since *time.Time) ([]*Mapping, error) {
	if len(projectIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT project_id, hg_changeset, git_changeset, date_added
		FROM mappings
		WHERE project_id IN (` + placeholders(len(projectIDs)) + `)
	`
	args := stringArgs(projectIDs)

	if since != nil {
		query += ` AND date_added > ?`
		args = append(args, since.Unix())
	}
	query += ` ORDER BY git_changeset ASC, hg_changeset ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying mappings: %w", err)
	}
	defer rows.Close()

	var mappings []*Mapping
	for rows.Next() {
		var m Mapping
		if err := rows.Scan(&m.ProjectID, &m.HgChangeset, &m.GitChangeset, &m.DateAdded); err != nil {
			return nil, fmt.Errorf("scanning mapping row: %w", err)
		}
		mappings = append(mappings, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating mapping rows: %w", err)
	}

	return mappings, nil
}

// placeholders returns n comma-separated SQL placeholders, e.g. "?, ?, ?"
func placeholders(n int) string {
	return strings.Repeat("?, ", n-1) + "?"
}

// stringArgs converts a string slice to the []any form driver calls expect
func stringArgs(ss []string) []any {
	args := make([]any, len(ss))
	for i, s := range ss {
		args[i] = s
	}
	return args
}

// Ensure SQLiteStore implements Store interface
var _ Store = (*SQLiteStore)(nil)
