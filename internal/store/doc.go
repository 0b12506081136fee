// Package store provides persistent storage for vcsmap using SQLite.
//
// # Data Models
//
//   - Project: registered namespace with a globally unique, case-sensitive name
//     and a store-assigned uuid id
//   - Mapping: immutable hg↔git changeset pair belonging to one project, with
//     an insert-time Unix timestamp
//
// # Uniqueness
//
// Per-project uniqueness of each changeset side is enforced by two composite
// UNIQUE indexes:
//
//	UNIQUE (project_id, hg_changeset)
//	UNIQUE (project_id, git_changeset)
//
// These indexes are the sole arbiter between concurrent inserts of the same
// pair: exactly one insert wins, everyone else observes ErrDuplicateMapping.
// There is no application-level locking.
//
// # SQLite Configuration
//
// The store uses SQLite with WAL mode for concurrent reads:
//
//	PRAGMA journal_mode=WAL;
//	PRAGMA foreign_keys=ON;
//
// # Error Handling
//
// Common errors:
//
//   - ErrNotFound: requested entity does not exist
//   - ErrProjectExists: project name already registered
//   - ErrDuplicateMapping: insert collided on either changeset side
//
// All methods accept context.Context for cancellation support. Changeset
// format validation happens in the mapper package before the store is
// touched; the store assumes well-formed input.
package store
