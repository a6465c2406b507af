package database

import (
	"context"
	"database/sql"
)

// Service abstracts connection management, migrations and maintenance for the
// embedded store. Repositories receive the service by injection; nothing else
// holds a raw handle.
type Service interface {
	// Connection management
	Connect(ctx context.Context, config *Config) error
	Close() error
	Health(ctx context.Context) error

	// Database access
	DB() *sql.DB

	// Migration management
	Migrate(ctx context.Context) error
	MigrationVersion(ctx context.Context) (int64, error)

	// Maintenance
	Optimize(ctx context.Context) error

	// Reset discards the store on disk and recreates the schema. It exists
	// only for the explicit user-triggered "reset all data" action.
	Reset(ctx context.Context) error
}

// MigrationManager handles schema evolution.
type MigrationManager interface {
	RunMigrations(ctx context.Context) error
	CurrentVersion(ctx context.Context) (int64, error)
	ValidateMigrations() error
}
