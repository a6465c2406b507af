package repository

import (
	"context"
	"time"

	"focusdeck/internal/types"
)

// SessionRepository persists interval records and answers the time-range
// queries the stats pipeline is built on.
type SessionRepository interface {
	// UpsertSession inserts or replaces a session by id, so a retried write
	// after a failed attempt is safe.
	UpsertSession(ctx context.Context, session types.FocusSession) error

	// GetSessionByID fetches one session record.
	GetSessionByID(ctx context.Context, id string) (*types.FocusSession, error)

	// GetSessionsSince returns all sessions with startedAt >= since,
	// most-recent-first.
	GetSessionsSince(ctx context.Context, since time.Time) ([]types.FocusSession, error)

	// CountCompletedFocusSince counts completed focus sessions with
	// startedAt >= since. The scheduler consults this with the local
	// day boundary; the count is database truth, never a cached counter.
	CountCompletedFocusSince(ctx context.Context, since time.Time) (int, error)

	// DeleteAllSessions removes every session record.
	DeleteAllSessions(ctx context.Context) error
}

// AchievementRepository persists achievement rows.
type AchievementRepository interface {
	// SeedAchievements inserts any missing rows from the default catalog.
	// Existing rows keep their progress; the call is idempotent.
	SeedAchievements(ctx context.Context, defaults []types.Achievement) error

	// ListAchievements returns all achievement rows.
	ListAchievements(ctx context.Context) ([]types.Achievement, error)

	// UpsertAchievement inserts or replaces an achievement row by id.
	UpsertAchievement(ctx context.Context, achievement types.Achievement) error
}

// SettingsRepository persists the timer policy as a single versioned row.
type SettingsRepository interface {
	// LoadConfiguration returns the stored policy, or defaults when no row
	// exists or the stored schema version is unknown.
	LoadConfiguration(ctx context.Context) (types.SessionConfiguration, error)

	// SaveConfiguration validates and stores the policy.
	SaveConfiguration(ctx context.Context, config types.SessionConfiguration) error
}

// Repository bundles the three typed repositories over one storage handle.
type Repository interface {
	SessionRepository
	AchievementRepository
	SettingsRepository

	// WithTransaction executes fn atomically against all three tables.
	WithTransaction(ctx context.Context, fn func(repo Repository) error) error
}
