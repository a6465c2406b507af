package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"focusdeck/internal/achievements"
	"focusdeck/internal/repository"
	"focusdeck/internal/testutils"
	"focusdeck/internal/types"
)

type capturedSound struct {
	sound  string
	volume float64
}

// captureNotifier records events for assertions.
type captureNotifier struct {
	mu       sync.Mutex
	sounds   []capturedSound
	unlocked []types.Achievement
}

func (n *captureNotifier) PlaySound(sound string, volume float64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sounds = append(n.sounds, capturedSound{sound: sound, volume: volume})
}

func (n *captureNotifier) AchievementUnlocked(a types.Achievement) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.unlocked = append(n.unlocked, a)
}

func (n *captureNotifier) TimerStateChanged(types.TimerState) {}
func (n *captureNotifier) StorageDegraded(string)             {}

func setupTracker(t *testing.T) (*SessionTracker, *repository.MemoryRepository, *captureNotifier, *testutils.FakeClock) {
	t.Helper()

	repo := repository.NewMemoryRepository()
	logger := testutils.NewCaptureLogger()
	notifier := &captureNotifier{}
	clock := testutils.NewFakeClock(time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local))

	engine := achievements.NewEngine(repo, logger, nil)
	if err := engine.Seed(context.Background()); err != nil {
		t.Fatalf("Failed to seed achievements: %v", err)
	}

	tracker := NewSessionTracker(repo, engine, notifier, clock, types.DefaultConfiguration, logger)
	return tracker, repo, notifier, clock
}

func TestCompletedFocusSessionIsPersistedWithElapsedDuration(t *testing.T) {
	tracker, repo, _, clock := setupTracker(t)
	ctx := context.Background()

	tracker.IntervalStarted(types.ModeFocus)
	clock.Advance(25 * time.Minute)
	tracker.IntervalEnded(types.ModeFocus, true)
	tracker.Wait()

	sessions, err := repo.GetSessionsSince(ctx, time.Unix(0, 0))
	if err != nil {
		t.Fatalf("GetSessionsSince failed: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("Expected 1 persisted session, got %d", len(sessions))
	}

	session := sessions[0]
	if session.DurationSeconds != 25*60 {
		t.Errorf("Expected elapsed duration 1500, got %d", session.DurationSeconds)
	}
	if !session.Completed {
		t.Error("Expected session to be completed")
	}
	if session.EndedAt == nil {
		t.Error("Expected endedAt to be set")
	}
	if session.Mode != types.ModeFocus {
		t.Errorf("Expected focus mode, got %s", session.Mode)
	}

	if got := tracker.CompletedFocusToday(); got != 1 {
		t.Errorf("Expected completed-today count 1, got %d", got)
	}
}

func TestSkippedFocusSessionRecordsActualElapsedTime(t *testing.T) {
	// Skip at ten minutes into a 25-minute focus session.
	tracker, repo, _, clock := setupTracker(t)
	ctx := context.Background()

	tracker.IntervalStarted(types.ModeFocus)
	clock.Advance(10 * time.Minute)
	tracker.IntervalEnded(types.ModeFocus, false)
	tracker.Wait()

	sessions, err := repo.GetSessionsSince(ctx, time.Unix(0, 0))
	if err != nil {
		t.Fatalf("GetSessionsSince failed: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("Expected the skip to be persisted, got %d sessions", len(sessions))
	}
	if sessions[0].DurationSeconds != 600 {
		t.Errorf("Expected duration 600, got %d", sessions[0].DurationSeconds)
	}
	if sessions[0].Completed {
		t.Error("Expected skipped session to be incomplete")
	}

	// An incomplete session feeds no achievement progress.
	rows, err := repo.ListAchievements(ctx)
	if err != nil {
		t.Fatalf("ListAchievements failed: %v", err)
	}
	for _, row := range rows {
		if row.Progress != 0 {
			t.Errorf("Expected no progress on %s, got %v", row.ID, row.Progress)
		}
	}

	if got := tracker.CompletedFocusToday(); got != 0 {
		t.Errorf("Expected completed-today count 0, got %d", got)
	}
}

func TestBreakSessionsAreRecordedButDoNotCount(t *testing.T) {
	tracker, repo, _, clock := setupTracker(t)
	ctx := context.Background()

	tracker.IntervalStarted(types.ModeShortBreak)
	clock.Advance(5 * time.Minute)
	tracker.IntervalEnded(types.ModeShortBreak, true)
	tracker.Wait()

	sessions, err := repo.GetSessionsSince(ctx, time.Unix(0, 0))
	if err != nil {
		t.Fatalf("GetSessionsSince failed: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("Expected break close to be persisted, got %d sessions", len(sessions))
	}
	if got := tracker.CompletedFocusToday(); got != 0 {
		t.Errorf("Expected break to not count toward focus total, got %d", got)
	}
}

func TestCompletionTriggersAchievementProgress(t *testing.T) {
	tracker, repo, _, clock := setupTracker(t)
	ctx := context.Background()

	tracker.IntervalStarted(types.ModeFocus)
	clock.Advance(25 * time.Minute)
	tracker.IntervalEnded(types.ModeFocus, true)
	tracker.Wait()

	rows, err := repo.ListAchievements(ctx)
	if err != nil {
		t.Fatalf("ListAchievements failed: %v", err)
	}
	for _, row := range rows {
		switch row.Type {
		case types.AchievementSessionsCompleted:
			if row.Progress != 1 {
				t.Errorf("Expected sessions progress 1, got %v", row.Progress)
			}
		case types.AchievementTotalFocusTime:
			if row.Progress != 25 {
				t.Errorf("Expected focus-time progress 25, got %v", row.Progress)
			}
		}
	}
}

func TestCompletionPlaysOutcomeSound(t *testing.T) {
	tracker, _, notifier, clock := setupTracker(t)

	tracker.IntervalStarted(types.ModeFocus)
	clock.Advance(25 * time.Minute)
	tracker.IntervalEnded(types.ModeFocus, true)
	tracker.Wait()

	if len(notifier.sounds) != 1 {
		t.Fatalf("Expected 1 sound event, got %d", len(notifier.sounds))
	}
	if notifier.sounds[0].sound != SoundFocusComplete {
		t.Errorf("Expected %s, got %s", SoundFocusComplete, notifier.sounds[0].sound)
	}
	if notifier.sounds[0].volume != 0.7 {
		t.Errorf("Expected default volume 0.7, got %v", notifier.sounds[0].volume)
	}
}

func TestNoSoundOnIncompleteClose(t *testing.T) {
	tracker, _, notifier, clock := setupTracker(t)

	tracker.IntervalStarted(types.ModeFocus)
	clock.Advance(time.Minute)
	tracker.IntervalEnded(types.ModeFocus, false)
	tracker.Wait()

	if len(notifier.sounds) != 0 {
		t.Errorf("Expected no sound on incomplete close, got %d events", len(notifier.sounds))
	}
}

func TestNoSoundWhenDisabled(t *testing.T) {
	repo := repository.NewMemoryRepository()
	logger := testutils.NewCaptureLogger()
	notifier := &captureNotifier{}
	clock := testutils.NewFakeClock(time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local))
	engine := achievements.NewEngine(repo, logger, nil)

	silent := types.DefaultConfiguration()
	silent.SoundEnabled = false
	tracker := NewSessionTracker(repo, engine, notifier, clock, func() types.SessionConfiguration {
		return silent
	}, logger)

	tracker.IntervalStarted(types.ModeFocus)
	clock.Advance(25 * time.Minute)
	tracker.IntervalEnded(types.ModeFocus, true)
	tracker.Wait()

	if len(notifier.sounds) != 0 {
		t.Errorf("Expected no sound when disabled, got %d events", len(notifier.sounds))
	}
}

func TestCloseWithoutOpenIntervalIsHarmless(t *testing.T) {
	tracker, repo, _, _ := setupTracker(t)

	tracker.IntervalEnded(types.ModeFocus, true)
	tracker.Wait()

	sessions, err := repo.GetSessionsSince(context.Background(), time.Unix(0, 0))
	if err != nil {
		t.Fatalf("GetSessionsSince failed: %v", err)
	}
	if len(sessions) != 0 {
		t.Errorf("Expected nothing persisted, got %d sessions", len(sessions))
	}
}

func TestStatsSummaryAndChartSeries(t *testing.T) {
	tracker, _, _, clock := setupTracker(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		tracker.IntervalStarted(types.ModeFocus)
		clock.Advance(25 * time.Minute)
		tracker.IntervalEnded(types.ModeFocus, true)

		tracker.IntervalStarted(types.ModeShortBreak)
		clock.Advance(5 * time.Minute)
		tracker.IntervalEnded(types.ModeShortBreak, true)
	}
	tracker.Wait()

	summary := tracker.StatsSummary(ctx, types.PeriodToday)
	if summary.TotalSessions != 4 {
		t.Errorf("Expected 4 focus sessions, got %d", summary.TotalSessions)
	}
	if summary.CompletedSessions != 4 {
		t.Errorf("Expected 4 completed sessions, got %d", summary.CompletedSessions)
	}
	if summary.TotalFocusMinutes != 100 {
		t.Errorf("Expected 100 focus minutes, got %d", summary.TotalFocusMinutes)
	}
	if summary.CompletionRate != 100 {
		t.Errorf("Expected 100%% completion rate, got %v", summary.CompletionRate)
	}

	series := tracker.ChartSeries(ctx, types.PeriodToday)
	if len(series) != 1 {
		t.Fatalf("Expected a single bucket for today, got %d", len(series))
	}
	if series[0].FocusMinutes != 100 || series[0].SessionCount != 4 {
		t.Errorf("Expected 100 minutes over 4 sessions, got %d over %d",
			series[0].FocusMinutes, series[0].SessionCount)
	}
}

func TestBackToBackCompletionsAllReachAchievements(t *testing.T) {
	tracker, repo, _, clock := setupTracker(t)
	ctx := context.Background()

	// No Wait between closes: the background recomputations overlap and
	// must still land every accumulate increment.
	for i := 0; i < 5; i++ {
		tracker.IntervalStarted(types.ModeFocus)
		clock.Advance(25 * time.Minute)
		tracker.IntervalEnded(types.ModeFocus, true)
	}
	tracker.Wait()

	rows, err := repo.ListAchievements(ctx)
	if err != nil {
		t.Fatalf("ListAchievements failed: %v", err)
	}
	for _, a := range rows {
		switch a.Type {
		case types.AchievementSessionsCompleted:
			if a.Progress != 5 {
				t.Errorf("Expected 5 completed-session increments, got %v", a.Progress)
			}
		case types.AchievementTotalFocusTime:
			if a.Progress != 125 {
				t.Errorf("Expected 125 accumulated focus minutes, got %v", a.Progress)
			}
		}
	}
}
