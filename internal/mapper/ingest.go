// ABOUTME: Ingestion engine for mapfile lines with strict and permissive duplicate handling
// ABOUTME: Parses "<hg> <git>" records and inserts them atomically or best-effort

package mapper

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/relops/vcsmap/internal/store"
)

// parseLine splits a mapfile line into its two changesets. ok is false for
// lines that do not contain exactly two space-separated tokens; those are
// header/footer noise and are skipped silently.
func parseLine(line string) (hg, git string, ok bool) {
	line = strings.TrimRight(line, " \t\r\n")
	parts := strings.Split(line, " ")
	if len(parts) != 2 {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// InsertMany ingests newline-delimited "<hg> <git>" records for a project.
//
// With allowDups=false the whole batch is staged and committed in a single
// transaction: any collision — against existing rows or between lines of the
// same batch — returns store.ErrDuplicateMapping and persists nothing.
//
// With allowDups=true each line commits independently; collisions are skipped
// and later lines keep processing. A malformed changeset on a parseable line
// aborts with ErrInvalidFormat in both modes, since format is a structural
// precondition for insert rather than a duplicate.
func (s *Service) InsertMany(ctx context.Context, project *store.Project, body io.Reader, allowDups bool) error {
	dateAdded := s.now().Unix()

	var batch []*store.Mapping
	inserted, skipped := 0, 0

	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		hg, git, ok := parseLine(scanner.Text())
		if !ok {
			continue
		}
		if err := CheckChangeset(hg, true); err != nil {
			return err
		}
		if err := CheckChangeset(git, true); err != nil {
			return err
		}

		m := &store.Mapping{
			ProjectID:    project.ID,
			HgChangeset:  hg,
			GitChangeset: git,
			DateAdded:    dateAdded,
		}

		if !allowDups {
			batch = append(batch, m)
			continue
		}

		switch err := s.store.InsertMapping(ctx, m); {
		case errors.Is(err, store.ErrDuplicateMapping):
			skipped++
		case err != nil:
			return err
		default:
			inserted++
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading mapfile body: %w", err)
	}

	if !allowDups {
		if err := s.store.InsertMappings(ctx, batch); err != nil {
			return err
		}
		inserted = len(batch)
	}

	s.logger.Info("ingested mapfile",
		"project", project.Name,
		"inserted", inserted,
		"skipped", skipped,
		"allow_dups", allowDups,
	)
	return nil
}

// InsertOne validates and inserts a single mapping, returning the stored
// record. A collision fails with store.ErrDuplicateMapping; there is no
// duplicate-tolerant variant for single inserts.
func (s *Service) InsertOne(ctx context.Context, project *store.Project, hg, git string) (*store.Mapping, error) {
	if err := CheckChangeset(hg, true); err != nil {
		return nil, err
	}
	if err := CheckChangeset(git, true); err != nil {
		return nil, err
	}

	m := &store.Mapping{
		ProjectID:    project.ID,
		HgChangeset:  hg,
		GitChangeset: git,
		DateAdded:    s.now().Unix(),
	}
	if err := s.store.InsertMapping(ctx, m); err != nil {
		return nil, err
	}

	s.logger.Info("inserted mapping", "project", project.Name, "hg", hg, "git", git)
	return m, nil
}
