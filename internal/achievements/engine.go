// Package achievements applies milestone progress rules to completed focus
// sessions and detects unlock transitions. Rules come in three shapes:
// accumulate (add a delta), replace (overwrite with a fresh computation),
// and ratchet (keep the maximum ever observed). Unlocking is one-way; no
// code path re-locks a row or moves its unlock date.
package achievements

import (
	"context"
	"time"

	"focusdeck/internal/infrastructure/logging"
	"focusdeck/internal/platform"
	"focusdeck/internal/repository"
	"focusdeck/internal/stats"
	"focusdeck/internal/types"
)

// UnlockHandler receives achievements at the moment they unlock.
type UnlockHandler func(achievement types.Achievement)

// Engine recomputes achievement progress from session history.
type Engine struct {
	repo     repository.Repository
	logger   logging.Logger
	onUnlock UnlockHandler
}

// NewEngine creates an achievement engine. onUnlock may be nil.
func NewEngine(repo repository.Repository, logger logging.Logger, onUnlock UnlockHandler) *Engine {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Engine{
		repo:     repo,
		logger:   logger,
		onUnlock: onUnlock,
	}
}

// Seed ensures the default catalog exists in storage. Safe to call on every
// startup.
func (e *Engine) Seed(ctx context.Context) error {
	return e.repo.SeedAchievements(ctx, Catalog())
}

// List returns all achievement rows.
func (e *Engine) List(ctx context.Context) ([]types.Achievement, error) {
	return e.repo.ListAchievements(ctx)
}

// HandleFocusCompletion updates every achievement after a focus session
// runs to completion. history must contain all sessions, including the one
// just closed; the engine derives streaks and ratchet values from it rather
// than trusting incremental counters.
func (e *Engine) HandleFocusCompletion(ctx context.Context, session types.FocusSession, history []types.FocusSession, now time.Time) error {
	if session.Mode != types.ModeFocus || !session.Completed {
		return nil
	}

	rows, err := e.repo.ListAchievements(ctx)
	if err != nil {
		return err
	}

	facts := deriveFacts(session, history, now)

	for _, row := range rows {
		updated, changed := applyRule(row, facts)
		if !changed {
			continue
		}

		unlocking := !row.Unlocked && updated.Progress >= updated.Target
		if unlocking {
			updated.Unlocked = true
			unlockedAt := now
			updated.UnlockedDate = &unlockedAt
		}

		if err := e.repo.UpsertAchievement(ctx, updated); err != nil {
			logging.LogError(e.logger, err, "achievement update failed", map[string]interface{}{
				"achievement_id": row.ID,
			})
			continue
		}

		if unlocking {
			e.logger.Info("achievement unlocked",
				"achievement_id", updated.ID,
				"title", updated.Title)
			if e.onUnlock != nil {
				e.onUnlock(updated)
			}
		}
	}

	return nil
}

// sessionFacts holds the derived values each rule type reads.
type sessionFacts struct {
	sessionMinutes    float64
	currentStreak     float64
	activeDaysInWeek  float64
	activeDaysInMonth float64
	earlyBirdCount    float64
	nightOwlCount     float64
	weekendCount      float64
	longestMinutes    float64
}

func deriveFacts(session types.FocusSession, history []types.FocusSession, now time.Time) sessionFacts {
	facts := sessionFacts{
		sessionMinutes: float64(session.DurationSeconds / 60),
		currentStreak:  float64(stats.CurrentStreak(history, now)),
	}

	weekStart := startOfWeek(now)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	weekDays := make(map[time.Time]struct{})
	monthDays := make(map[time.Time]struct{})

	for _, s := range history {
		if s.Mode != types.ModeFocus || !s.Completed {
			continue
		}

		day := platform.StartOfDay(s.StartedAt)
		if !day.Before(weekStart) {
			weekDays[day] = struct{}{}
		}
		if !day.Before(monthStart) {
			monthDays[day] = struct{}{}
		}

		hour := s.StartedAt.Hour()
		if hour < 7 {
			facts.earlyBirdCount++
		}
		if hour >= 22 {
			facts.nightOwlCount++
		}

		switch s.StartedAt.Weekday() {
		case time.Saturday, time.Sunday:
			facts.weekendCount++
		}

		if minutes := float64(s.DurationSeconds / 60); minutes > facts.longestMinutes {
			facts.longestMinutes = minutes
		}
	}

	facts.activeDaysInWeek = float64(len(weekDays))
	facts.activeDaysInMonth = float64(len(monthDays))
	return facts
}

// applyRule returns the row with its progress rule applied and whether the
// row changed.
func applyRule(row types.Achievement, facts sessionFacts) (types.Achievement, bool) {
	switch row.Type {
	case types.AchievementSessionsCompleted:
		row.Progress++
		return row, true
	case types.AchievementTotalFocusTime:
		row.Progress += facts.sessionMinutes
		return row, true
	case types.AchievementStreak, types.AchievementConsistency:
		changed := row.Progress != facts.currentStreak
		row.Progress = facts.currentStreak
		return row, changed
	case types.AchievementPerfectWeek:
		return ratchet(row, facts.activeDaysInWeek)
	case types.AchievementPerfectMonth:
		return ratchet(row, facts.activeDaysInMonth)
	case types.AchievementEarlyBird:
		return ratchet(row, facts.earlyBirdCount)
	case types.AchievementNightOwl:
		return ratchet(row, facts.nightOwlCount)
	case types.AchievementWeekendWarrior:
		return ratchet(row, facts.weekendCount)
	case types.AchievementMarathon:
		return ratchet(row, facts.longestMinutes)
	default:
		return row, false
	}
}

func ratchet(row types.Achievement, value float64) (types.Achievement, bool) {
	if value <= row.Progress {
		return row, false
	}
	row.Progress = value
	return row, true
}

// startOfWeek returns midnight of the current week's Monday.
func startOfWeek(t time.Time) time.Time {
	day := platform.StartOfDay(t)
	offset := int(day.Weekday()) - int(time.Monday)
	if offset < 0 {
		offset += 7
	}
	return day.AddDate(0, 0, -offset)
}
