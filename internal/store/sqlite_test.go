// ABOUTME: Tests for SQLite store implementation
// ABOUTME: Covers project CRUD, mapping uniqueness, batch atomicity, prefix search, and scans

package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// rev builds a full 40-character changeset from a hex prefix.
func rev(prefix string) string {
	return prefix + strings.Repeat("0", 40-len(prefix))
}

func mustProject(t *testing.T, s *SQLiteStore, name string) *Project {
	t.Helper()
	p, err := s.CreateProject(context.Background(), name)
	if err != nil {
		t.Fatalf("CreateProject(%q) failed: %v", name, err)
	}
	return p
}

func mustInsert(t *testing.T, s *SQLiteStore, projectID, hg, git string) {
	t.Helper()
	err := s.InsertMapping(context.Background(), &Mapping{
		ProjectID:    projectID,
		HgChangeset:  hg,
		GitChangeset: git,
		DateAdded:    time.Now().Unix(),
	})
	if err != nil {
		t.Fatalf("InsertMapping failed: %v", err)
	}
}

func TestNewSQLiteStore_CreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "subdir", "nested", "test.db")

	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("database file was not created in nested directory")
	}
}

func TestCreateAndGetProject(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := mustProject(t, s, "build-mozilla-org")
	if p.ID == "" {
		t.Fatal("expected store-assigned project id")
	}

	got, err := s.GetProjectByName(ctx, "build-mozilla-org")
	if err != nil {
		t.Fatalf("GetProjectByName failed: %v", err)
	}
	if got.ID != p.ID {
		t.Errorf("ID mismatch: got %q, want %q", got.ID, p.ID)
	}
	if got.Name != p.Name {
		t.Errorf("Name mismatch: got %q, want %q", got.Name, p.Name)
	}
}

func TestCreateProject_Duplicate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := mustProject(t, s, "gecko")

	if _, err := s.CreateProject(ctx, "gecko"); err != ErrProjectExists {
		t.Errorf("expected ErrProjectExists, got %v", err)
	}

	// The first registration must be unaffected
	got, err := s.GetProjectByName(ctx, "gecko")
	if err != nil {
		t.Fatalf("GetProjectByName failed: %v", err)
	}
	if got.ID != first.ID {
		t.Errorf("first registration changed: got id %q, want %q", got.ID, first.ID)
	}
}

func TestCreateProject_CaseSensitive(t *testing.T) {
	s := newTestStore(t)

	mustProject(t, s, "gecko")
	mustProject(t, s, "Gecko")
}

func TestGetProjectByName_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetProjectByName(context.Background(), "nonexistent")
	if err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGetProjectsByNames(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p1 := mustProject(t, s, "p1")
	p2 := mustProject(t, s, "p2")

	projects, err := s.GetProjectsByNames(ctx, []string{"p1", "p2", "unknown"})
	if err != nil {
		t.Fatalf("GetProjectsByNames failed: %v", err)
	}
	if len(projects) != 2 {
		t.Fatalf("expected 2 projects, got %d", len(projects))
	}
	found := map[string]bool{}
	for _, p := range projects {
		found[p.ID] = true
	}
	if !found[p1.ID] || !found[p2.ID] {
		t.Errorf("missing expected projects in %v", projects)
	}
}

func TestGetProjectsByNames_Empty(t *testing.T) {
	s := newTestStore(t)

	projects, err := s.GetProjectsByNames(context.Background(), nil)
	if err != nil {
		t.Fatalf("GetProjectsByNames failed: %v", err)
	}
	if len(projects) != 0 {
		t.Errorf("expected no projects, got %d", len(projects))
	}

	projects, err = s.GetProjectsByNames(context.Background(), []string{"nope", "also-nope"})
	if err != nil {
		t.Fatalf("GetProjectsByNames failed: %v", err)
	}
	if len(projects) != 0 {
		t.Errorf("expected no projects for unmatched names, got %d", len(projects))
	}
}

func TestInsertMapping_DuplicateHg(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := mustProject(t, s, "gecko")

	mustInsert(t, s, p.ID, rev("aa"), rev("bb"))

	err := s.InsertMapping(ctx, &Mapping{
		ProjectID:    p.ID,
		HgChangeset:  rev("aa"),
		GitChangeset: rev("cc"),
		DateAdded:    time.Now().Unix(),
	})
	if err != ErrDuplicateMapping {
		t.Errorf("expected ErrDuplicateMapping on hg collision, got %v", err)
	}
}

func TestInsertMapping_DuplicateGit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := mustProject(t, s, "gecko")

	mustInsert(t, s, p.ID, rev("aa"), rev("bb"))

	err := s.InsertMapping(ctx, &Mapping{
		ProjectID:    p.ID,
		HgChangeset:  rev("dd"),
		GitChangeset: rev("bb"),
		DateAdded:    time.Now().Unix(),
	})
	if err != ErrDuplicateMapping {
		t.Errorf("expected ErrDuplicateMapping on git collision, got %v", err)
	}
}

func TestInsertMapping_SameRevisionsDifferentProjects(t *testing.T) {
	s := newTestStore(t)
	p1 := mustProject(t, s, "p1")
	p2 := mustProject(t, s, "p2")

	// Uniqueness is scoped per project
	mustInsert(t, s, p1.ID, rev("aa"), rev("bb"))
	mustInsert(t, s, p2.ID, rev("aa"), rev("bb"))
}

func TestInsertMappings_AtomicOnExistingDuplicate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := mustProject(t, s, "gecko")

	mustInsert(t, s, p.ID, rev("aa"), rev("bb"))

	now := time.Now().Unix()
	batch := []*Mapping{
		{ProjectID: p.ID, HgChangeset: rev("11"), GitChangeset: rev("22"), DateAdded: now},
		{ProjectID: p.ID, HgChangeset: rev("33"), GitChangeset: rev("44"), DateAdded: now},
		{ProjectID: p.ID, HgChangeset: rev("aa"), GitChangeset: rev("55"), DateAdded: now},
	}

	if err := s.InsertMappings(ctx, batch); err != ErrDuplicateMapping {
		t.Fatalf("expected ErrDuplicateMapping, got %v", err)
	}

	// Nothing from the batch may be visible
	mappings, err := s.ListMappings(ctx, []string{p.ID}, nil)
	if err != nil {
		t.Fatalf("ListMappings failed: %v", err)
	}
	if len(mappings) != 1 {
		t.Errorf("expected only the pre-existing mapping, got %d rows", len(mappings))
	}
}

func TestInsertMappings_AtomicOnIntraBatchDuplicate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := mustProject(t, s, "gecko")

	now := time.Now().Unix()
	batch := []*Mapping{
		{ProjectID: p.ID, HgChangeset: rev("11"), GitChangeset: rev("22"), DateAdded: now},
		{ProjectID: p.ID, HgChangeset: rev("11"), GitChangeset: rev("33"), DateAdded: now},
	}

	if err := s.InsertMappings(ctx, batch); err != ErrDuplicateMapping {
		t.Fatalf("expected ErrDuplicateMapping, got %v", err)
	}

	mappings, err := s.ListMappings(ctx, []string{p.ID}, nil)
	if err != nil {
		t.Fatalf("ListMappings failed: %v", err)
	}
	if len(mappings) != 0 {
		t.Errorf("expected empty store after rolled-back batch, got %d rows", len(mappings))
	}
}

func TestInsertMappings_Empty(t *testing.T) {
	s := newTestStore(t)

	if err := s.InsertMappings(context.Background(), nil); err != nil {
		t.Errorf("empty batch should be a no-op, got %v", err)
	}
}

func TestFindByPrefix(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := mustProject(t, s, "gecko")

	mustInsert(t, s, p.ID, rev("abcdef"), rev("123456"))

	tests := []struct {
		name   string
		side   VCS
		prefix string
		found  bool
	}{
		{"full hg revision", VCSHg, rev("abcdef"), true},
		{"full git revision", VCSGit, rev("123456"), true},
		{"short hg prefix", VCSHg, "ab", true},
		{"short git prefix", VCSGit, "1234", true},
		{"absent prefix", VCSHg, "ff", false},
		{"hg prefix on git side", VCSGit, "ab", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := s.FindByPrefix(ctx, []string{p.ID}, tt.side, tt.prefix)
			if tt.found {
				if err != nil {
					t.Fatalf("FindByPrefix failed: %v", err)
				}
				if m.HgChangeset != rev("abcdef") || m.GitChangeset != rev("123456") {
					t.Errorf("unexpected mapping: %+v", m)
				}
			} else if err != ErrNotFound {
				t.Errorf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestFindByPrefix_NoProjects(t *testing.T) {
	s := newTestStore(t)

	_, err := s.FindByPrefix(context.Background(), nil, VCSHg, "ab")
	if err != ErrNotFound {
		t.Errorf("expected ErrNotFound for empty project filter, got %v", err)
	}
}

func TestFindByPrefix_UnknownSide(t *testing.T) {
	s := newTestStore(t)
	p := mustProject(t, s, "gecko")

	_, err := s.FindByPrefix(context.Background(), []string{p.ID}, VCS("svn"), "ab")
	if err == nil {
		t.Error("expected error for unknown vcs side")
	}
}

func TestListMappings_OrderedByGitChangeset(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := mustProject(t, s, "gecko")

	mustInsert(t, s, p.ID, rev("aa"), rev("cc"))
	mustInsert(t, s, p.ID, rev("bb"), rev("aa"))
	mustInsert(t, s, p.ID, rev("cc"), rev("bb"))

	mappings, err := s.ListMappings(ctx, []string{p.ID}, nil)
	if err != nil {
		t.Fatalf("ListMappings failed: %v", err)
	}
	if len(mappings) != 3 {
		t.Fatalf("expected 3 mappings, got %d", len(mappings))
	}
	for i, want := range []string{rev("aa"), rev("bb"), rev("cc")} {
		if mappings[i].GitChangeset != want {
			t.Errorf("position %d: got git %q, want %q", i, mappings[i].GitChangeset, want)
		}
	}
}

func TestListMappings_UnionAcrossProjects(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p1 := mustProject(t, s, "p1")
	p2 := mustProject(t, s, "p2")

	mustInsert(t, s, p1.ID, rev("aa"), rev("bb"))
	mustInsert(t, s, p2.ID, rev("cc"), rev("aa"))

	mappings, err := s.ListMappings(ctx, []string{p1.ID, p2.ID}, nil)
	if err != nil {
		t.Fatalf("ListMappings failed: %v", err)
	}
	if len(mappings) != 2 {
		t.Fatalf("expected 2 mappings, got %d", len(mappings))
	}
	if mappings[0].GitChangeset != rev("aa") || mappings[1].GitChangeset != rev("bb") {
		t.Errorf("union not ordered by git changeset: %+v", mappings)
	}
}

func TestListMappings_Since(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := mustProject(t, s, "gecko")

	old := &Mapping{ProjectID: p.ID, HgChangeset: rev("aa"), GitChangeset: rev("bb"), DateAdded: 1000}
	recent := &Mapping{ProjectID: p.ID, HgChangeset: rev("cc"), GitChangeset: rev("dd"), DateAdded: 2000}
	if err := s.InsertMapping(ctx, old); err != nil {
		t.Fatalf("InsertMapping failed: %v", err)
	}
	if err := s.InsertMapping(ctx, recent); err != nil {
		t.Fatalf("InsertMapping failed: %v", err)
	}

	// Strictly-after semantics: a cutoff equal to a row's date_added excludes it
	cutoff := time.Unix(1000, 0)
	mappings, err := s.ListMappings(ctx, []string{p.ID}, &cutoff)
	if err != nil {
		t.Fatalf("ListMappings failed: %v", err)
	}
	if len(mappings) != 1 {
		t.Fatalf("expected 1 mapping after cutoff, got %d", len(mappings))
	}
	if mappings[0].HgChangeset != rev("cc") {
		t.Errorf("unexpected mapping after cutoff: %+v", mappings[0])
	}
}

func TestListMappings_NoProjects(t *testing.T) {
	s := newTestStore(t)

	mappings, err := s.ListMappings(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("ListMappings failed: %v", err)
	}
	if len(mappings) != 0 {
		t.Errorf("expected empty result for empty project filter, got %d", len(mappings))
	}
}
