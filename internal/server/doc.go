// Package server is the HTTP transport shell for vcsmap.
//
// Routes:
//
//	GET  /health
//	GET  /{projects}/rev/{vcs}/{prefix}      lookup by full or partial revision
//	GET  /{projects}/mapfile/full            full mapfile export
//	GET  /{projects}/mapfile/since/{since}   export of records added after a date
//	POST /{project}                          register a project
//	POST /{project}/insert                   bulk ingest, atomic, 409 on any duplicate
//	POST /{project}/insert/ignoredups        bulk ingest, duplicates skipped
//	POST /{project}/insert/{hg}/{git}        single record insert
//
// {projects} may be a comma-delimited list meaning an OR across the named
// projects; mutating routes take exactly one project. Bulk ingest bodies must
// be text/plain mapfile lines. Error statuses: 400 malformed input, 404 no
// project or no match, 409 uniqueness conflict.
package server
