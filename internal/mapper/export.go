// ABOUTME: Export/query engine composing store scans into mapfile text and lookups
// ABOUTME: Pure formatting plus thin compositions over FindByPrefix and ListMappings

package mapper

import (
	"context"
	"strings"
	"time"

	"github.com/relops/vcsmap/internal/store"
)

// BuildMapfile renders records as mapfile text: one "<hg> <git>" line per
// record, in the given order. Returns ok=false for an empty sequence, which
// callers report as not-found. Pure formatting, no I/O.
func BuildMapfile(records []*store.Mapping) (string, bool) {
	if len(records) == 0 {
		return "", false
	}
	var b strings.Builder
	for _, m := range records {
		b.WriteString(m.HgChangeset)
		b.WriteByte(' ')
		b.WriteString(m.GitChangeset)
		b.WriteByte('\n')
	}
	return b.String(), true
}

// LookupRevision finds the first mapping in the given projects whose hg or
// git changeset starts with prefix and formats it as "<hg> <git>". The prefix
// may be 1-40 hex characters. Returns store.ErrNotFound when nothing matches.
func (s *Service) LookupRevision(ctx context.Context, projects []*store.Project, side store.VCS, prefix string) (string, error) {
	if err := CheckChangeset(prefix, false); err != nil {
		return "", err
	}

	m, err := s.store.FindByPrefix(ctx, projectIDs(projects), side, prefix)
	if err != nil {
		return "", err
	}
	return m.HgChangeset + " " + m.GitChangeset, nil
}

// FullMapfile exports every mapping for the given projects, ordered by git
// changeset. Returns store.ErrNotFound when there are no records.
func (s *Service) FullMapfile(ctx context.Context, projects []*store.Project) (string, error) {
	records, err := s.store.ListMappings(ctx, projectIDs(projects), nil)
	if err != nil {
		return "", err
	}
	text, ok := BuildMapfile(records)
	if !ok {
		return "", store.ErrNotFound
	}
	return text, nil
}

// MapfileSince exports the mappings added strictly after the given time.
// Returns store.ErrNotFound when the window is empty.
func (s *Service) MapfileSince(ctx context.Context, projects []*store.Project, since time.Time) (string, error) {
	records, err := s.store.ListMappings(ctx, projectIDs(projects), &since)
	if err != nil {
		return "", err
	}
	text, ok := BuildMapfile(records)
	if !ok {
		return "", store.ErrNotFound
	}
	return text, nil
}
