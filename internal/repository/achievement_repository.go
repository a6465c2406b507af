package repository

import (
	"context"
	"database/sql"
	"time"

	repoerrors "focusdeck/internal/infrastructure/errors"
	"focusdeck/internal/infrastructure/logging"
	"focusdeck/internal/types"
)

// SeedAchievements inserts any catalog rows missing from the table. Existing
// rows keep progress and unlock state; static display metadata is refreshed
// so catalog wording fixes reach old databases.
func (r *SQLiteRepository) SeedAchievements(ctx context.Context, defaults []types.Achievement) error {
	start := time.Now()

	err := repoerrors.WithRetry(ctx, r.retryConfig, func() error {
		conn, err := r.conn("SeedAchievements")
		if err != nil {
			return err
		}
		for _, a := range defaults {
			_, err := conn.ExecContext(ctx, `
				INSERT INTO achievements (id, title, description, icon, type, progress, target, unlocked, unlocked_date)
				VALUES (?, ?, ?, ?, ?, ?, ?, 0, NULL)
				ON CONFLICT (id) DO UPDATE SET
					title = excluded.title,
					description = excluded.description,
					icon = excluded.icon,
					target = excluded.target`,
				a.ID, a.Title, a.Description, a.Icon, string(a.Type), a.Progress, a.Target)
			if err != nil {
				return repoerrors.WrapDatabaseErrorWithContext("SeedAchievements", err, map[string]string{
					"achievement_id": a.ID,
				})
			}
		}
		return nil
	})

	if err == nil {
		logging.LogOperation(r.logger, "SeedAchievements", time.Since(start), map[string]interface{}{
			"count": len(defaults),
		})
	} else {
		logging.LogError(r.logger, err, "SeedAchievements", nil)
	}
	return err
}

// ListAchievements returns all achievement rows in catalog order.
func (r *SQLiteRepository) ListAchievements(ctx context.Context) ([]types.Achievement, error) {
	var result []types.Achievement

	err := repoerrors.WithRetry(ctx, r.retryConfig, func() error {
		conn, err := r.conn("ListAchievements")
		if err != nil {
			return err
		}
		rows, err := conn.QueryContext(ctx, `
			SELECT id, title, description, icon, type, progress, target, unlocked, unlocked_date
			FROM achievements
			ORDER BY id`)
		if err != nil {
			repoErr := repoerrors.WrapDatabaseError("ListAchievements", err)
			if repoerrors.IsRetryable(repoErr) {
				r.logger.Debug("Retryable error in ListAchievements", "error", err)
			} else {
				logging.LogError(r.logger, repoErr, "ListAchievements", nil)
			}
			return repoErr
		}
		defer rows.Close()

		achievements := make([]types.Achievement, 0)
		for rows.Next() {
			var (
				a            types.Achievement
				achType      string
				unlocked     int
				unlockedDate sql.NullInt64
			)
			if err := rows.Scan(&a.ID, &a.Title, &a.Description, &a.Icon, &achType,
				&a.Progress, &a.Target, &unlocked, &unlockedDate); err != nil {
				return repoerrors.WrapDatabaseError("ListAchievements.Scan", err)
			}
			a.Type = types.AchievementType(achType)
			a.Unlocked = unlocked != 0
			if unlockedDate.Valid {
				t := time.Unix(unlockedDate.Int64, 0)
				a.UnlockedDate = &t
			}
			achievements = append(achievements, a)
		}
		if err := rows.Err(); err != nil {
			return repoerrors.WrapDatabaseError("ListAchievements.Rows", err)
		}

		result = achievements
		return nil
	})

	return result, err
}

// UpsertAchievement inserts or replaces an achievement row by id.
func (r *SQLiteRepository) UpsertAchievement(ctx context.Context, achievement types.Achievement) error {
	start := time.Now()

	if achievement.ID == "" {
		err := repoerrors.HandleValidationError("UpsertAchievement", "id", "", "achievement id is required")
		logging.LogError(r.logger, err, "UpsertAchievement", nil)
		return err
	}

	var unlockedDate sql.NullInt64
	if achievement.UnlockedDate != nil {
		unlockedDate = sql.NullInt64{Int64: achievement.UnlockedDate.Unix(), Valid: true}
	}

	err := repoerrors.WithRetry(ctx, r.retryConfig, func() error {
		conn, err := r.conn("UpsertAchievement")
		if err != nil {
			return err
		}
		_, err = conn.ExecContext(ctx, `
			INSERT INTO achievements (id, title, description, icon, type, progress, target, unlocked, unlocked_date)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				progress = excluded.progress,
				unlocked = excluded.unlocked,
				unlocked_date = excluded.unlocked_date`,
			achievement.ID, achievement.Title, achievement.Description, achievement.Icon,
			string(achievement.Type), achievement.Progress, achievement.Target,
			boolToInt(achievement.Unlocked), unlockedDate)
		if err != nil {
			repoErr := repoerrors.WrapDatabaseErrorWithContext("UpsertAchievement", err, map[string]string{
				"achievement_id": achievement.ID,
			})
			if repoerrors.IsRetryable(repoErr) {
				r.logger.Debug("Retryable error in UpsertAchievement", "error", err)
			} else {
				logging.LogError(r.logger, repoErr, "UpsertAchievement", nil)
			}
			return repoErr
		}
		return nil
	})

	if err == nil {
		logging.LogOperation(r.logger, "UpsertAchievement", time.Since(start), map[string]interface{}{
			"achievement_id": achievement.ID,
			"progress":       achievement.Progress,
			"unlocked":       achievement.Unlocked,
		})
	}
	return err
}
