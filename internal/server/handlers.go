// ABOUTME: HTTP handlers translating mapper results and errors into wire responses
// ABOUTME: Mapfiles and lookups are text/plain; acks and records are JSON

package server

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/araddon/dateparse"

	"github.com/relops/vcsmap/internal/mapper"
	"github.com/relops/vcsmap/internal/store"
)

// MappingResponse is the JSON body returned by the single-insert route.
type MappingResponse struct {
	HgChangeset  string `json:"hg_changeset"`
	GitChangeset string `json:"git_changeset"`
	DateAdded    int64  `json:"date_added"`
	ProjectName  string `json:"project_name"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeText(w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, text)
}

// writeCoreError maps the core's typed errors onto HTTP statuses. Anything
// unrecognized is a 500 and gets logged with its full chain.
func (s *Server) writeCoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, mapper.ErrInvalidFormat), errors.Is(err, mapper.ErrUnknownVCS):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, store.ErrDuplicateMapping):
		writeError(w, http.StatusConflict, "mapping already exists")
	case errors.Is(err, store.ErrProjectExists):
		writeError(w, http.StatusConflict, "project already exists")
	default:
		s.logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// handleHealth handles GET /health requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleLookupRevision handles GET /{projects}/rev/{vcs}/{prefix}.
// It translates a full or partial revision on either side into the matching
// "<hg> <git>" pair across the named projects.
func (s *Server) handleLookupRevision(w http.ResponseWriter, r *http.Request) {
	side, err := mapper.ParseVCS(r.PathValue("vcs"))
	if err != nil {
		s.writeCoreError(w, err)
		return
	}

	projects, err := s.mapper.ResolveProjects(r.Context(), r.PathValue("projects"))
	if err != nil {
		s.writeCoreError(w, err)
		return
	}

	row, err := s.mapper.LookupRevision(r.Context(), projects, side, r.PathValue("prefix"))
	if err != nil {
		s.writeCoreError(w, err)
		return
	}
	writeText(w, row)
}

// handleFullMapfile handles GET /{projects}/mapfile/full.
func (s *Server) handleFullMapfile(w http.ResponseWriter, r *http.Request) {
	projects, err := s.mapper.ResolveProjects(r.Context(), r.PathValue("projects"))
	if err != nil {
		s.writeCoreError(w, err)
		return
	}

	mapfile, err := s.mapper.FullMapfile(r.Context(), projects)
	if err != nil {
		s.writeCoreError(w, err)
		return
	}
	writeText(w, mapfile)
}

// handleMapfileSince handles GET /{projects}/mapfile/since/{since}.
// The since segment is a human date string; parsing it is a transport
// concern, so a bad date is a 400 here and never reaches the core.
func (s *Server) handleMapfileSince(w http.ResponseWriter, r *http.Request) {
	since, err := dateparse.ParseAny(r.PathValue("since"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date")
		return
	}

	projects, err := s.mapper.ResolveProjects(r.Context(), r.PathValue("projects"))
	if err != nil {
		s.writeCoreError(w, err)
		return
	}

	mapfile, err := s.mapper.MapfileSince(r.Context(), projects, since)
	if err != nil {
		s.writeCoreError(w, err)
		return
	}
	writeText(w, mapfile)
}

// handleInsertStrict handles POST /{project}/insert: the whole batch commits
// atomically, and any duplicate rejects it with 409.
func (s *Server) handleInsertStrict(w http.ResponseWriter, r *http.Request) {
	s.insertMany(w, r, false)
}

// handleInsertPermissive handles POST /{project}/insert/ignoredups: duplicate
// lines are skipped and the rest of the batch still commits.
func (s *Server) handleInsertPermissive(w http.ResponseWriter, r *http.Request) {
	s.insertMany(w, r, true)
}

func (s *Server) insertMany(w http.ResponseWriter, r *http.Request, allowDups bool) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "text/plain" {
		writeError(w, http.StatusBadRequest, "content-type must be text/plain")
		return
	}

	project, err := s.mapper.ResolveProject(r.Context(), r.PathValue("project"))
	if err != nil {
		s.writeCoreError(w, err)
		return
	}

	if err := s.mapper.InsertMany(r.Context(), project, r.Body, allowDups); err != nil {
		s.writeCoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

// handleInsertOne handles POST /{project}/insert/{hg}/{git} and echoes the
// stored record back as JSON.
func (s *Server) handleInsertOne(w http.ResponseWriter, r *http.Request) {
	project, err := s.mapper.ResolveProject(r.Context(), r.PathValue("project"))
	if err != nil {
		s.writeCoreError(w, err)
		return
	}

	m, err := s.mapper.InsertOne(r.Context(), project, r.PathValue("hg"), r.PathValue("git"))
	if err != nil {
		s.writeCoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, MappingResponse{
		HgChangeset:  m.HgChangeset,
		GitChangeset: m.GitChangeset,
		DateAdded:    m.DateAdded,
		ProjectName:  project.Name,
	})
}

// handleRegisterProject handles POST /{project}.
func (s *Server) handleRegisterProject(w http.ResponseWriter, r *http.Request) {
	if _, err := s.mapper.RegisterProject(r.Context(), r.PathValue("project")); err != nil {
		s.writeCoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}
