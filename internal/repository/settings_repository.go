package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	repoerrors "focusdeck/internal/infrastructure/errors"
	"focusdeck/internal/infrastructure/logging"
	"focusdeck/internal/types"
)

// LoadConfiguration returns the stored timer policy. A missing row or an
// unknown schema version yields the defaults rather than an error; the
// settings bag never becomes dynamically typed.
func (r *SQLiteRepository) LoadConfiguration(ctx context.Context) (types.SessionConfiguration, error) {
	config := types.DefaultConfiguration()

	err := repoerrors.WithRetry(ctx, r.retryConfig, func() error {
		conn, err := r.conn("LoadConfiguration")
		if err != nil {
			return err
		}
		row := conn.QueryRowContext(ctx, `
			SELECT schema_version, focus_seconds, short_break_seconds, long_break_seconds,
				sessions_until_long_break, auto_start_breaks, auto_start_focus,
				sound_enabled, sound_volume
			FROM settings WHERE id = 1`)

		var (
			stored                                   types.SessionConfiguration
			autoStartBreaks, autoStartFocus, soundOn int
		)
		err = row.Scan(&stored.SchemaVersion, &stored.FocusSeconds, &stored.ShortBreakSeconds,
			&stored.LongBreakSeconds, &stored.SessionsUntilLongBreak,
			&autoStartBreaks, &autoStartFocus, &soundOn, &stored.SoundVolume)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				// First run: keep defaults.
				return nil
			}
			return repoerrors.WrapDatabaseError("LoadConfiguration", err)
		}

		if stored.SchemaVersion != types.ConfigurationSchemaVersion {
			r.logger.Warn("Ignoring settings row with unknown schema version",
				"stored_version", stored.SchemaVersion,
				"expected_version", types.ConfigurationSchemaVersion)
			return nil
		}

		stored.AutoStartBreaks = autoStartBreaks != 0
		stored.AutoStartFocus = autoStartFocus != 0
		stored.SoundEnabled = soundOn != 0
		config = stored
		return nil
	})

	return config, err
}

// SaveConfiguration validates and stores the timer policy as the single
// settings row.
func (r *SQLiteRepository) SaveConfiguration(ctx context.Context, config types.SessionConfiguration) error {
	start := time.Now()

	if err := validateConfiguration(config); err != nil {
		logging.LogError(r.logger, err, "SaveConfiguration", nil)
		return err
	}

	config.SchemaVersion = types.ConfigurationSchemaVersion

	err := repoerrors.WithRetry(ctx, r.retryConfig, func() error {
		conn, err := r.conn("SaveConfiguration")
		if err != nil {
			return err
		}
		_, err = conn.ExecContext(ctx, `
			INSERT INTO settings (id, schema_version, focus_seconds, short_break_seconds,
				long_break_seconds, sessions_until_long_break, auto_start_breaks,
				auto_start_focus, sound_enabled, sound_volume, updated_at)
			VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				schema_version = excluded.schema_version,
				focus_seconds = excluded.focus_seconds,
				short_break_seconds = excluded.short_break_seconds,
				long_break_seconds = excluded.long_break_seconds,
				sessions_until_long_break = excluded.sessions_until_long_break,
				auto_start_breaks = excluded.auto_start_breaks,
				auto_start_focus = excluded.auto_start_focus,
				sound_enabled = excluded.sound_enabled,
				sound_volume = excluded.sound_volume,
				updated_at = excluded.updated_at`,
			config.SchemaVersion, config.FocusSeconds, config.ShortBreakSeconds,
			config.LongBreakSeconds, config.SessionsUntilLongBreak,
			boolToInt(config.AutoStartBreaks), boolToInt(config.AutoStartFocus),
			boolToInt(config.SoundEnabled), config.SoundVolume, time.Now().Unix())
		if err != nil {
			repoErr := repoerrors.WrapDatabaseError("SaveConfiguration", err)
			if repoerrors.IsRetryable(repoErr) {
				r.logger.Debug("Retryable error in SaveConfiguration", "error", err)
			} else {
				logging.LogError(r.logger, repoErr, "SaveConfiguration", nil)
			}
			return repoErr
		}
		return nil
	})

	if err == nil {
		logging.LogOperation(r.logger, "SaveConfiguration", time.Since(start), map[string]interface{}{
			"focus_seconds": config.FocusSeconds,
		})
	}
	return err
}

// validateConfiguration rejects invalid policy at the edit boundary so it
// never reaches the timer.
func validateConfiguration(config types.SessionConfiguration) error {
	check := func(field string, seconds int) error {
		if seconds <= 0 {
			return repoerrors.HandleValidationError("SaveConfiguration", field,
				fmt.Sprintf("%d", seconds), "duration must be positive")
		}
		return nil
	}

	if err := check("focus_seconds", config.FocusSeconds); err != nil {
		return err
	}
	if err := check("short_break_seconds", config.ShortBreakSeconds); err != nil {
		return err
	}
	if err := check("long_break_seconds", config.LongBreakSeconds); err != nil {
		return err
	}
	if config.SessionsUntilLongBreak < 1 {
		return repoerrors.HandleValidationError("SaveConfiguration", "sessions_until_long_break",
			fmt.Sprintf("%d", config.SessionsUntilLongBreak), "cadence must be at least 1")
	}
	if config.SoundVolume < 0 || config.SoundVolume > 1 {
		return repoerrors.HandleValidationError("SaveConfiguration", "sound_volume",
			fmt.Sprintf("%.2f", config.SoundVolume), "volume must be between 0 and 1")
	}
	return nil
}
