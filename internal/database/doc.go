// Package database provides PostgreSQL connectivity and repositories.
//
// Uses pgx for connection pooling and plain SQL migrations run at startup.
// Repositories implement the domain interfaces: ThemeRepository,
// WorkRepository, SnapshotRepository.
package database
