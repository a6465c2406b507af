package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"focusdeck/internal/database"
	repoerrors "focusdeck/internal/infrastructure/errors"
	"focusdeck/internal/infrastructure/logging"
)

// dbtx is the subset of *sql.DB and *sql.Tx the repositories query through,
// letting WithTransaction swap a transaction in transparently.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLiteRepository implements Repository with hand-written SQL over the
// database service's connection. The handle is resolved through the service
// on every call, so a user-triggered store recreate does not strand the
// repository on a closed connection.
type SQLiteRepository struct {
	service     database.Service
	tx          dbtx
	retryConfig *repoerrors.RetryConfig
	logger      logging.Logger
}

var _ Repository = (*SQLiteRepository)(nil)

// NewSQLiteRepository creates a repository over the given database service.
func NewSQLiteRepository(dbService database.Service, logger logging.Logger) *SQLiteRepository {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	return &SQLiteRepository{
		service:     dbService,
		retryConfig: repoerrors.DefaultRetryConfig(),
		logger:      logger,
	}
}

// conn returns the active statement target, either the enclosing
// transaction or the service's live connection. A service that is closed or
// mid-reset reads as a connection error, never as a nil handle.
func (r *SQLiteRepository) conn(op string) (dbtx, error) {
	if r.tx != nil {
		return r.tx, nil
	}
	if db := r.service.DB(); db != nil {
		return db, nil
	}
	return nil, repoerrors.HandleConnectionError(op, "database service is not connected")
}

// NewSQLiteRepositoryWithConfig creates a repository with a custom retry
// configuration.
func NewSQLiteRepositoryWithConfig(dbService database.Service, retryConfig *repoerrors.RetryConfig, logger logging.Logger) *SQLiteRepository {
	repo := NewSQLiteRepository(dbService, logger)
	if retryConfig != nil {
		repo.retryConfig = retryConfig
	}
	return repo
}

// WithTransaction executes fn inside a transaction with retry on transient
// begin/commit failures. The nested repository shares the caller's logger and
// retry policy but routes every statement through the transaction.
func (r *SQLiteRepository) WithTransaction(ctx context.Context, fn func(repo Repository) error) error {
	start := time.Now()

	err := repoerrors.WithRetry(ctx, r.retryConfig, func() error {
		db := r.service.DB()
		if db == nil {
			return repoerrors.HandleConnectionError("WithTransaction", "database service is not connected")
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return repoerrors.WrapDatabaseError("WithTransaction.Begin", err)
		}

		committed := false
		defer func() {
			if !committed {
				if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
					r.logger.Debug("Failed to rollback transaction", "error", rollbackErr)
				}
			}
		}()

		txRepo := &SQLiteRepository{
			service:     r.service,
			tx:          tx,
			retryConfig: r.retryConfig,
			logger:      r.logger,
		}

		if err := fn(txRepo); err != nil {
			r.logger.Debug("Transaction function failed", "error", err)
			return err
		}

		if err := tx.Commit(); err != nil {
			return repoerrors.WrapDatabaseError("WithTransaction.Commit", err)
		}
		committed = true
		return nil
	})

	if err == nil {
		logging.LogOperation(r.logger, "WithTransaction", time.Since(start), nil)
	}
	return err
}
