// Package mapper implements the core engines over the mapping store: the
// project registry, the ingestion engine, and the export/query engine.
//
// Ingestion accepts newline-delimited "<hg> <git>" mapfile lines. Lines that
// do not parse into exactly two tokens are treated as header/footer noise and
// skipped. Strict mode commits the whole batch in one transaction and rejects
// it entirely on any duplicate; permissive mode commits per line and skips
// duplicates. Malformed changesets abort in both modes.
//
// Changeset format (lowercase hex, exactly 40 characters for storage, 1-40
// for lookup prefixes) is validated here, before the store is touched, so the
// store only ever reports genuine uniqueness violations.
package mapper
