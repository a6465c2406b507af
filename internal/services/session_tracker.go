// Package services bridges the timer state machine to persistence and the
// host UI. The tracker owns the open interval record; stats and achievement
// recomputation run on a background context so the tick path never blocks
// on derived-data work.
package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"focusdeck/internal/achievements"
	"focusdeck/internal/infrastructure/logging"
	"focusdeck/internal/platform"
	"focusdeck/internal/repository"
	"focusdeck/internal/stats"
	"focusdeck/internal/types"
)

const persistTimeout = 5 * time.Second

// ConfigProvider supplies the current timer policy.
type ConfigProvider func() types.SessionConfiguration

// SessionTracker records interval boundaries as durable sessions. The close
// write happens synchronously on the command path, so the persisted
// completed-today count is already correct when the scheduler consults it
// for the next-mode decision.
type SessionTracker struct {
	repo     repository.Repository
	engine   *achievements.Engine
	notifier Notifier
	clock    platform.Clock
	config   ConfigProvider
	logger   logging.Logger

	mu   sync.Mutex
	open *types.FocusSession

	background sync.WaitGroup
	recompute  sync.Mutex
}

// NewSessionTracker creates a tracker. notifier may be nil to drop events.
func NewSessionTracker(repo repository.Repository, engine *achievements.Engine, notifier Notifier, clock platform.Clock, config ConfigProvider, logger logging.Logger) *SessionTracker {
	if notifier == nil {
		notifier = NewNoopNotifier()
	}
	if clock == nil {
		clock = platform.NewSystemClock()
	}
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &SessionTracker{
		repo:     repo,
		engine:   engine,
		notifier: notifier,
		clock:    clock,
		config:   config,
		logger:   logger,
	}
}

// SetNotifier swaps the event sink once the host runtime is available.
func (t *SessionTracker) SetNotifier(notifier Notifier) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if notifier == nil {
		notifier = NewNoopNotifier()
	}
	t.notifier = notifier
}

// IntervalStarted opens an in-memory session record. Nothing is persisted
// until the interval closes, so an abandoned process never leaves a
// half-open row behind.
func (t *SessionTracker) IntervalStarted(mode types.Mode) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock.Now()
	t.open = &types.FocusSession{
		ID:              uuid.New().String(),
		Mode:            mode,
		StartedAt:       now,
		DurationSeconds: int64(t.config().DurationForMode(mode)),
		Completed:       false,
	}

	t.logger.Debug("interval opened",
		"session_id", t.open.ID,
		"mode", string(mode))
}

// IntervalEnded closes the open record with the actual elapsed wall-clock
// duration and persists it. Every close is written, completed or not, so
// history stays a faithful audit of what happened. A completed focus close
// additionally kicks off achievement recomputation in the background.
func (t *SessionTracker) IntervalEnded(mode types.Mode, completed bool) {
	t.mu.Lock()
	session := t.open
	t.open = nil
	notifier := t.notifier
	t.mu.Unlock()

	if session == nil {
		t.logger.Warn("interval close without an open record", "mode", string(mode))
		return
	}

	now := t.clock.Now()
	elapsed := int64(now.Sub(session.StartedAt) / time.Second)
	if elapsed < 0 {
		elapsed = 0
	}
	session.EndedAt = &now
	session.DurationSeconds = elapsed
	session.Completed = completed

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if err := t.repo.UpsertSession(ctx, *session); err != nil {
		// The write already went through one retry inside the repository.
		// Drop the record and keep the timer alive; counts may read low
		// until the next successful write.
		logging.LogError(t.logger, err, "session close write failed", map[string]interface{}{
			"session_id": session.ID,
			"mode":       string(session.Mode),
		})
		return
	}

	t.logger.Info("session closed",
		"session_id", session.ID,
		"mode", string(session.Mode),
		"duration_seconds", session.DurationSeconds,
		"completed", session.Completed)

	if completed {
		cfg := t.config()
		if cfg.SoundEnabled {
			sound := SoundBreakComplete
			if session.Mode == types.ModeFocus {
				sound = SoundFocusComplete
			}
			notifier.PlaySound(sound, cfg.SoundVolume)
		}
	}

	if session.Mode == types.ModeFocus && completed {
		t.background.Add(1)
		go t.recomputeDerived(*session)
	}
}

// recomputeDerived refreshes achievements off the command path. Runs are
// serialized: the engine's read-modify-write over achievement rows must not
// interleave with itself when completions land close together.
func (t *SessionTracker) recomputeDerived(session types.FocusSession) {
	defer t.background.Done()

	t.recompute.Lock()
	defer t.recompute.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	history, err := t.repo.GetSessionsSince(ctx, time.Unix(0, 0))
	if err != nil {
		logging.LogError(t.logger, err, "history load for achievements failed", map[string]interface{}{
			"session_id": session.ID,
		})
		return
	}

	if err := t.engine.HandleFocusCompletion(ctx, session, history, t.clock.Now()); err != nil {
		logging.LogError(t.logger, err, "achievement recomputation failed", map[string]interface{}{
			"session_id": session.ID,
		})
	}
}

// CompletedFocusToday reports the persisted count of focus sessions
// completed since the local midnight. A failed query reads as zero, which
// only delays a long break rather than corrupting state.
func (t *SessionTracker) CompletedFocusToday() int {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	count, err := t.repo.CountCompletedFocusSince(ctx, platform.StartOfDay(t.clock.Now()))
	if err != nil {
		logging.LogError(t.logger, err, "completed-today count failed", nil)
		return 0
	}
	return count
}

// StatsSummary computes the summary for a period. A failed query yields an
// empty summary rather than an error surfaced to the host.
func (t *SessionTracker) StatsSummary(ctx context.Context, period types.Period) types.StatsSummary {
	sessions, err := t.sessionsFor(ctx, period)
	if err != nil {
		return types.StatsSummary{}
	}
	return stats.Summarize(sessions, t.clock.Now())
}

// ChartSeries computes the per-day chart buckets for a period.
func (t *SessionTracker) ChartSeries(ctx context.Context, period types.Period) []types.ChartPoint {
	sessions, err := t.sessionsFor(ctx, period)
	if err != nil {
		return nil
	}
	return stats.ChartSeries(sessions, period, t.clock.Now())
}

func (t *SessionTracker) sessionsFor(ctx context.Context, period types.Period) ([]types.FocusSession, error) {
	sessions, err := t.repo.GetSessionsSince(ctx, period.Start(t.clock.Now()))
	if err != nil {
		logging.LogError(t.logger, err, "session query failed", map[string]interface{}{
			"period": string(period),
		})
		return nil, err
	}
	return sessions, nil
}

// Wait blocks until in-flight background recomputation finishes. Called on
// shutdown and by tests.
func (t *SessionTracker) Wait() {
	t.background.Wait()
}
