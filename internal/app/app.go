// Package app owns the application wiring: one database service constructed
// at startup and lent to the repositories, the timer machine driven by a
// single owned ticker, and the bound command/query surface the frontend
// calls.
package app

import (
	"context"
	"os"
	"time"

	"focusdeck/internal/achievements"
	"focusdeck/internal/database"
	"focusdeck/internal/infrastructure/logging"
	"focusdeck/internal/platform"
	"focusdeck/internal/repository"
	"focusdeck/internal/services"
	"focusdeck/internal/timer"
	"focusdeck/internal/types"
)

const startupTimeout = 10 * time.Second

// App is the application root. All fields are wired once in Startup; the
// tick loop is the only goroutine it owns.
type App struct {
	ctx    context.Context
	logger logging.Logger
	clock  platform.Clock

	dbService database.Service
	repo      repository.Repository
	degraded  bool

	engine   *achievements.Engine
	tracker  *services.SessionTracker
	machine  *timer.Machine
	notifier services.Notifier

	tickStop chan struct{}
	tickDone chan struct{}
}

// New creates the application shell. Wiring that needs the runtime context
// waits for Startup.
func New() *App {
	return &App{
		logger:   logging.NewDefaultLogger(),
		clock:    platform.NewSystemClock(),
		notifier: services.NewNoopNotifier(),
	}
}

// Startup connects storage, seeds achievements, restores the persisted
// configuration and starts the tick loop. A storage failure degrades to an
// in-memory repository instead of aborting; the timer still works, history
// just does not survive the process.
func (a *App) Startup(ctx context.Context) {
	a.ctx = ctx
	a.notifier = services.NewEventNotifier(ctx)

	a.connectStorage(ctx)

	a.engine = achievements.NewEngine(a.repo, a.logger, func(unlocked types.Achievement) {
		a.notifier.AchievementUnlocked(unlocked)
	})

	seedCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()
	if err := a.engine.Seed(seedCtx); err != nil {
		logging.LogError(a.logger, err, "achievement seeding failed", nil)
	}

	config, err := a.repo.LoadConfiguration(seedCtx)
	if err != nil {
		logging.LogError(a.logger, err, "configuration load failed, using defaults", nil)
		config = types.DefaultConfiguration()
	}

	a.tracker = services.NewSessionTracker(a.repo, a.engine, a.notifier, a.clock, func() types.SessionConfiguration {
		return a.machine.Configuration()
	}, a.logger)
	a.machine = timer.NewMachine(config, a.clock, a.tracker, a.tracker.CompletedFocusToday, a.logger)
	a.machine.RefreshCompletedToday(a.tracker.CompletedFocusToday())

	a.startTickLoop()

	a.logger.Info("application started", "degraded", a.degraded)
}

// connectStorage opens the SQLite store, falling back to memory when the
// open or migration fails.
func (a *App) connectStorage(ctx context.Context) {
	config := database.ConfigForEnvironment(os.Getenv("FOCUSDECK_ENVIRONMENT"))
	config.LoadFromEnvironment()

	connectCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	service := database.NewSQLiteService(a.logger)
	if err := config.Validate(); err == nil {
		if err := service.Connect(connectCtx, config); err != nil {
			logging.LogError(a.logger, err, "database connect failed", nil)
		} else if err := service.Migrate(connectCtx); err != nil {
			logging.LogError(a.logger, err, "database migration failed", nil)
			_ = service.Close()
		} else {
			a.dbService = service
			a.repo = repository.NewSQLiteRepository(service, a.logger)
			return
		}
	} else {
		logging.LogError(a.logger, err, "database configuration invalid", nil)
	}

	a.degraded = true
	a.repo = repository.NewMemoryRepository()
	a.notifier.StorageDegraded("persistent storage unavailable, history will not survive restart")
	a.logger.Warn("running without persistence")
}

// Shutdown stops the tick loop, waits for background recomputation and
// closes storage.
func (a *App) Shutdown(ctx context.Context) {
	a.stopTickLoop()

	if a.tracker != nil {
		a.tracker.Wait()
	}
	if a.dbService != nil {
		if err := a.dbService.Close(); err != nil {
			logging.LogError(a.logger, err, "database close failed", nil)
		}
	}
	a.logger.Info("application stopped")
}

// startTickLoop drives the machine at a 1-second cadence. The loop is the
// only tick source; stopTickLoop tears it down before a new one may exist.
func (a *App) startTickLoop() {
	a.tickStop = make(chan struct{})
	a.tickDone = make(chan struct{})

	go func(stop, done chan struct{}) {
		defer close(done)
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				a.machine.Tick()
				a.notifier.TimerStateChanged(a.machine.State())
			case <-stop:
				return
			}
		}
	}(a.tickStop, a.tickDone)
}

func (a *App) stopTickLoop() {
	if a.tickStop == nil {
		return
	}
	close(a.tickStop)
	<-a.tickDone
	a.tickStop = nil
	a.tickDone = nil
}

// publishState pushes a fresh snapshot after a command.
func (a *App) publishState() {
	a.notifier.TimerStateChanged(a.machine.State())
}

// StartTimer starts or resumes the countdown.
func (a *App) StartTimer() {
	a.machine.Start()
	a.publishState()
}

// PauseTimer halts the countdown without closing the interval.
func (a *App) PauseTimer() {
	a.machine.Pause()
	a.publishState()
}

// ResumeTimer continues a paused countdown.
func (a *App) ResumeTimer() {
	a.machine.Resume()
	a.publishState()
}

// SkipInterval abandons the current interval and advances the mode.
func (a *App) SkipInterval() {
	a.machine.Skip()
	a.machine.RefreshCompletedToday(a.tracker.CompletedFocusToday())
	a.publishState()
}

// ResetTimer abandons the current interval and stops.
func (a *App) ResetTimer() {
	a.machine.Reset()
	a.publishState()
}

// SetMode switches the loaded mode, stopping the timer first if needed.
func (a *App) SetMode(mode string) error {
	if err := a.machine.SetMode(types.Mode(mode)); err != nil {
		return err
	}
	a.publishState()
	return nil
}

// UpdateDuration edits one mode's target length in minutes and persists the
// updated policy.
func (a *App) UpdateDuration(mode string, minutes int) error {
	if err := a.machine.UpdateDuration(types.Mode(mode), minutes); err != nil {
		return err
	}
	if err := a.saveConfiguration(a.machine.Configuration()); err != nil {
		return err
	}
	a.publishState()
	return nil
}

// UpdateConfiguration validates, persists and applies a full policy object.
func (a *App) UpdateConfiguration(config types.SessionConfiguration) error {
	if err := a.saveConfiguration(config); err != nil {
		return err
	}
	a.machine.SetConfiguration(config)
	a.publishState()
	return nil
}

func (a *App) saveConfiguration(config types.SessionConfiguration) error {
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()
	return a.repo.SaveConfiguration(ctx, config)
}

// ResetAllData discards all history, achievement progress and settings.
// With persistent storage this recreates the store from scratch; in
// degraded mode the in-memory tables are wiped instead.
func (a *App) ResetAllData() error {
	a.machine.Reset()

	// The reset below closes and recreates the store; any in-flight
	// background recomputation must release the old handle first.
	a.tracker.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	if a.dbService != nil {
		if err := a.dbService.Reset(ctx); err != nil {
			return err
		}
	} else {
		if err := a.repo.DeleteAllSessions(ctx); err != nil {
			return err
		}
		for _, row := range achievements.Catalog() {
			if err := a.repo.UpsertAchievement(ctx, row); err != nil {
				return err
			}
		}
	}

	if err := a.engine.Seed(ctx); err != nil {
		logging.LogError(a.logger, err, "achievement reseed failed", nil)
	}

	config := types.DefaultConfiguration()
	if err := a.saveConfiguration(config); err != nil {
		logging.LogError(a.logger, err, "default configuration save failed", nil)
	}
	a.machine.SetConfiguration(config)
	a.machine.RefreshCompletedToday(0)
	a.publishState()

	a.logger.Info("all data reset")
	return nil
}

// GetTimerState returns the live timer snapshot.
func (a *App) GetTimerState() types.TimerState {
	return a.machine.State()
}

// GetConfiguration returns the active timer policy.
func (a *App) GetConfiguration() types.SessionConfiguration {
	return a.machine.Configuration()
}

// GetStats summarizes the session history for a period. Unknown period
// strings read as all-time.
func (a *App) GetStats(period string) types.StatsSummary {
	return a.tracker.StatsSummary(a.ctx, normalizePeriod(period))
}

// GetChartSeries returns per-day focus buckets for a period.
func (a *App) GetChartSeries(period string) []types.ChartPoint {
	return a.tracker.ChartSeries(a.ctx, normalizePeriod(period))
}

// GetAchievements lists all achievements with current progress.
func (a *App) GetAchievements() []types.Achievement {
	rows, err := a.engine.List(a.ctx)
	if err != nil {
		logging.LogError(a.logger, err, "achievement list failed", nil)
		return []types.Achievement{}
	}
	return rows
}

func normalizePeriod(period string) types.Period {
	p := types.Period(period)
	if !p.Valid() {
		return types.PeriodAllTime
	}
	return p
}
