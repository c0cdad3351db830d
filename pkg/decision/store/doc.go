// Package store persists policy decision audit records.
//
// Two backends are provided: an in-memory store for tests and ephemeral
// deployments, and a SQLite store for durable audit trails. Both are
// append-only; the engine treats decision writes as transactional boundaries
// around otherwise pure computation.
package store
