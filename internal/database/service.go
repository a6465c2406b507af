package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	dberrors "focusdeck/internal/infrastructure/errors"
	"focusdeck/internal/infrastructure/logging"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// SQLiteService implements Service on top of the modernc sqlite driver.
//
// Lifecycle: NewSQLiteService, Connect, Migrate, then hand DB() to the
// repositories. Close releases the connection; Reset wipes the files and
// rebuilds the schema.
type SQLiteService struct {
	db              *sql.DB
	config          *Config
	migrationRunner MigrationManager
	logger          logging.Logger
}

// NewSQLiteService creates a new SQLite database service.
func NewSQLiteService(logger logging.Logger) *SQLiteService {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &SQLiteService{logger: logger}
}

// Connect establishes a connection to the SQLite database.
func (s *SQLiteService) Connect(ctx context.Context, config *Config) error {
	s.config = config

	// Close any existing connection to prevent resource leaks.
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close existing database connection", "error", err)
		}
		s.db = nil
		s.migrationRunner = nil
	}

	db, err := sql.Open("sqlite", config.ConnectionString())
	if err != nil {
		return dberrors.HandleConnectionError("Connect", fmt.Sprintf("failed to open database: %v", err))
	}

	s.configureConnectionPool(db, config)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return dberrors.HandleConnectionError("Connect", fmt.Sprintf("failed to ping database: %v", err))
	}

	s.db = db
	s.migrationRunner = NewMigrationRunner(db, s.logger)

	s.logger.Info("Connected to SQLite database", "path", config.Path)
	return nil
}

// Close closes the database connection.
func (s *SQLiteService) Close() error {
	if s.db == nil {
		return nil
	}

	if err := s.db.Close(); err != nil {
		return dberrors.HandleConnectionError("Close", fmt.Sprintf("failed to close database: %v", err))
	}

	s.db = nil
	s.migrationRunner = nil

	s.logger.Info("Closed SQLite database connection")
	return nil
}

// Migrate runs database migrations.
func (s *SQLiteService) Migrate(ctx context.Context) error {
	if s.db == nil {
		return dberrors.HandleConnectionError("Migrate", "database not connected")
	}
	if s.migrationRunner == nil {
		return dberrors.HandleValidationError("Migrate", "migrationRunner", "nil", "migration runner not initialized")
	}

	if err := s.migrationRunner.ValidateMigrations(); err != nil {
		return dberrors.WrapDatabaseErrorWithContext("Migrate", err, map[string]string{
			"phase": "validation",
		})
	}
	if err := s.migrationRunner.RunMigrations(ctx); err != nil {
		return dberrors.WrapDatabaseErrorWithContext("Migrate", err, map[string]string{
			"phase": "execution",
		})
	}

	return nil
}

// Health checks the database connection health.
func (s *SQLiteService) Health(ctx context.Context) error {
	if s.db == nil {
		return dberrors.HandleConnectionError("Health", "database not connected")
	}

	if err := s.db.PingContext(ctx); err != nil {
		return dberrors.WrapDatabaseErrorWithContext("Health", err, map[string]string{
			"phase": "ping",
		})
	}

	var result int
	if err := s.db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return dberrors.WrapDatabaseErrorWithContext("Health", err, map[string]string{
			"phase": "query",
		})
	}
	if result != 1 {
		return dberrors.HandleValidationError("Health", "query_result", fmt.Sprintf("%d", result), "expected result 1")
	}

	return nil
}

// DB returns the underlying database connection for use by repositories.
func (s *SQLiteService) DB() *sql.DB {
	return s.db
}

// MigrationVersion returns the current migration version.
func (s *SQLiteService) MigrationVersion(ctx context.Context) (int64, error) {
	if s.db == nil {
		return 0, dberrors.HandleConnectionError("MigrationVersion", "database not connected")
	}
	if s.migrationRunner == nil {
		return 0, dberrors.HandleValidationError("MigrationVersion", "migrationRunner", "nil", "migration runner not initialized")
	}

	version, err := s.migrationRunner.CurrentVersion(ctx)
	if err != nil {
		return 0, dberrors.WrapDatabaseError("MigrationVersion", err)
	}
	return version, nil
}

// Optimize runs ANALYZE, a WAL checkpoint and VACUUM.
func (s *SQLiteService) Optimize(ctx context.Context) error {
	if s.db == nil {
		return dberrors.HandleConnectionError("Optimize", "database not connected")
	}

	if _, err := s.db.ExecContext(ctx, "ANALYZE"); err != nil {
		return dberrors.WrapDatabaseErrorWithContext("Optimize", err, map[string]string{
			"phase": "analyze",
		})
	}

	// Best-effort on non-WAL journals.
	if _, err := s.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		s.logger.Warn("wal_checkpoint failed", "error", err)
	}

	if _, err := s.db.ExecContext(ctx, "VACUUM"); err != nil {
		return dberrors.WrapDatabaseErrorWithContext("Optimize", err, map[string]string{
			"phase": "vacuum",
		})
	}

	s.logger.Info("Database optimization completed")
	return nil
}

// Reset discards the database files and recreates the schema from scratch.
// This is the recovery path behind the user's "reset all data" action; it is
// never invoked automatically.
func (s *SQLiteService) Reset(ctx context.Context) error {
	if s.config == nil {
		return dberrors.HandleConnectionError("Reset", "service never connected")
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database before reset", "error", err)
		}
		s.db = nil
		s.migrationRunner = nil
	}

	if !s.config.IsInMemory() {
		for _, suffix := range []string{"", "-wal", "-shm"} {
			path := s.config.Path + suffix
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				return dberrors.WrapDatabaseErrorWithContext("Reset", err, map[string]string{
					"path": path,
				})
			}
		}
	}

	if err := s.Connect(ctx, s.config); err != nil {
		return err
	}
	if err := s.Migrate(ctx); err != nil {
		return err
	}

	s.logger.Info("Database reset completed", "path", s.config.Path)
	return nil
}

// configureConnectionPool tunes the pool for SQLite. Non-WAL journal modes
// get a single connection to avoid writer lock contention; WAL keeps a small
// capped pool.
func (s *SQLiteService) configureConnectionPool(db *sql.DB, config *Config) {
	if config.ForceSingleConnection || !strings.EqualFold(config.JournalMode, "WAL") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		s.logger.Info("Configured SQLite for single connection mode",
			"journalMode", config.JournalMode, "forced", config.ForceSingleConnection)
		return
	}

	maxConns := config.MaxConnections
	if maxConns <= 0 || maxConns > 4 {
		maxConns = 4
	}
	idleConns := config.MaxIdleConns
	if idleConns <= 0 {
		idleConns = 1
	}
	if idleConns > maxConns {
		idleConns = maxConns
	}

	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(idleConns)
	s.logger.Info("Configured SQLite connection pool (WAL mode)",
		"maxOpenConns", maxConns, "maxIdleConns", idleConns)
}
