package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	repoerrors "focusdeck/internal/infrastructure/errors"
	"focusdeck/internal/infrastructure/logging"
	"focusdeck/internal/types"
)

// UpsertSession inserts or replaces a session record by id. Timestamps are
// stored as epoch seconds.
func (r *SQLiteRepository) UpsertSession(ctx context.Context, session types.FocusSession) error {
	start := time.Now()

	if session.ID == "" {
		err := repoerrors.HandleValidationError("UpsertSession", "id", "", "session id is required")
		logging.LogError(r.logger, err, "UpsertSession", nil)
		return err
	}
	if !session.Mode.Valid() {
		err := repoerrors.HandleValidationError("UpsertSession", "mode", string(session.Mode), "unknown mode")
		logging.LogError(r.logger, err, "UpsertSession", nil)
		return err
	}

	var endedAt sql.NullInt64
	if session.EndedAt != nil {
		endedAt = sql.NullInt64{Int64: session.EndedAt.Unix(), Valid: true}
	}

	err := repoerrors.WithRetry(ctx, r.retryConfig, func() error {
		conn, err := r.conn("UpsertSession")
		if err != nil {
			return err
		}
		_, err = conn.ExecContext(ctx, `
			INSERT INTO sessions (id, mode, started_at, ended_at, duration_seconds, completed)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				ended_at = excluded.ended_at,
				duration_seconds = excluded.duration_seconds,
				completed = excluded.completed`,
			session.ID, string(session.Mode), session.StartedAt.Unix(), endedAt,
			session.DurationSeconds, boolToInt(session.Completed))
		if err != nil {
			repoErr := repoerrors.WrapDatabaseErrorWithContext("UpsertSession", err, map[string]string{
				"session_id": session.ID,
				"mode":       string(session.Mode),
			})
			if repoerrors.IsRetryable(repoErr) {
				r.logger.Debug("Retryable error in UpsertSession", "error", err, "session_id", session.ID)
			} else {
				logging.LogError(r.logger, repoErr, "UpsertSession", nil)
			}
			return repoErr
		}
		return nil
	})

	if err == nil {
		logging.LogOperation(r.logger, "UpsertSession", time.Since(start), map[string]interface{}{
			"session_id": session.ID,
			"mode":       string(session.Mode),
			"completed":  session.Completed,
		})
	}
	return err
}

// GetSessionByID fetches a single session record.
func (r *SQLiteRepository) GetSessionByID(ctx context.Context, id string) (*types.FocusSession, error) {
	var result *types.FocusSession

	err := repoerrors.WithRetry(ctx, r.retryConfig, func() error {
		conn, err := r.conn("GetSessionByID")
		if err != nil {
			return err
		}
		row := conn.QueryRowContext(ctx, `
			SELECT id, mode, started_at, ended_at, duration_seconds, completed
			FROM sessions WHERE id = ?`, id)

		session, err := scanSession(row)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return repoerrors.HandleNotFound("GetSessionByID", "session", id)
			}
			return repoerrors.WrapDatabaseErrorWithContext("GetSessionByID", err, map[string]string{
				"session_id": id,
			})
		}
		result = session
		return nil
	})

	return result, err
}

// GetSessionsSince returns all sessions started at or after since, newest
// first.
func (r *SQLiteRepository) GetSessionsSince(ctx context.Context, since time.Time) ([]types.FocusSession, error) {
	start := time.Now()
	var result []types.FocusSession

	err := repoerrors.WithRetry(ctx, r.retryConfig, func() error {
		conn, err := r.conn("GetSessionsSince")
		if err != nil {
			return err
		}
		rows, err := conn.QueryContext(ctx, `
			SELECT id, mode, started_at, ended_at, duration_seconds, completed
			FROM sessions
			WHERE started_at >= ?
			ORDER BY started_at DESC`, since.Unix())
		if err != nil {
			repoErr := repoerrors.WrapDatabaseErrorWithContext("GetSessionsSince", err, map[string]string{
				"since": since.Format(time.RFC3339),
			})
			if repoerrors.IsRetryable(repoErr) {
				r.logger.Debug("Retryable error in GetSessionsSince", "error", err)
			} else {
				logging.LogError(r.logger, repoErr, "GetSessionsSince", nil)
			}
			return repoErr
		}
		defer rows.Close()

		sessions := make([]types.FocusSession, 0)
		for rows.Next() {
			session, err := scanSession(rows)
			if err != nil {
				return repoerrors.WrapDatabaseError("GetSessionsSince.Scan", err)
			}
			sessions = append(sessions, *session)
		}
		if err := rows.Err(); err != nil {
			return repoerrors.WrapDatabaseError("GetSessionsSince.Rows", err)
		}

		result = sessions
		return nil
	})

	if err == nil {
		logging.LogOperation(r.logger, "GetSessionsSince", time.Since(start), map[string]interface{}{
			"since": since.Format("2006-01-02"),
			"count": len(result),
		})
	}
	return result, err
}

// CountCompletedFocusSince counts completed focus sessions started at or
// after since.
func (r *SQLiteRepository) CountCompletedFocusSince(ctx context.Context, since time.Time) (int, error) {
	var count int

	err := repoerrors.WithRetry(ctx, r.retryConfig, func() error {
		conn, err := r.conn("CountCompletedFocusSince")
		if err != nil {
			return err
		}
		err = conn.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM sessions
			WHERE mode = ? AND completed = 1 AND started_at >= ?`,
			string(types.ModeFocus), since.Unix()).Scan(&count)
		if err != nil {
			return repoerrors.WrapDatabaseErrorWithContext("CountCompletedFocusSince", err, map[string]string{
				"since": since.Format(time.RFC3339),
			})
		}
		return nil
	})

	return count, err
}

// DeleteAllSessions removes every session record.
func (r *SQLiteRepository) DeleteAllSessions(ctx context.Context) error {
	start := time.Now()

	err := repoerrors.WithRetry(ctx, r.retryConfig, func() error {
		conn, err := r.conn("DeleteAllSessions")
		if err != nil {
			return err
		}
		res, err := conn.ExecContext(ctx, `DELETE FROM sessions`)
		if err != nil {
			return repoerrors.WrapDatabaseError("DeleteAllSessions", err)
		}
		if deleted, err := res.RowsAffected(); err == nil {
			r.logger.Info("Deleted session records", "count", deleted)
		}
		return nil
	})

	if err == nil {
		logging.LogOperation(r.logger, "DeleteAllSessions", time.Since(start), nil)
	}
	return err
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*types.FocusSession, error) {
	var (
		id        string
		mode      string
		startedAt int64
		endedAt   sql.NullInt64
		duration  int64
		completed int
	)
	if err := row.Scan(&id, &mode, &startedAt, &endedAt, &duration, &completed); err != nil {
		return nil, err
	}

	session := &types.FocusSession{
		ID:              id,
		Mode:            types.Mode(mode),
		StartedAt:       time.Unix(startedAt, 0),
		DurationSeconds: duration,
		Completed:       completed != 0,
	}
	if endedAt.Valid {
		ended := time.Unix(endedAt.Int64, 0)
		session.EndedAt = &ended
	}
	return session, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
