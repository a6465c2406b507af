// Package timer implements the interval scheduler. The machine is
// tick-driven, not wall-clock-driven: the host delivers one Tick per second
// while running, and a withheld tick simply stalls remaining time. All
// transitions run under one mutex so a Skip can never interleave with a
// tick-triggered completion.
package timer

import (
	"sync"
	"time"

	"focusdeck/internal/infrastructure/logging"
	"focusdeck/internal/platform"
	"focusdeck/internal/types"
)

// skipDebounce suppresses duplicate skip calls fired in quick succession,
// which would otherwise double-advance the mode.
const skipDebounce = 500 * time.Millisecond

// Listener observes interval boundaries. Calls happen on the serialized
// command path, so listener work is complete before the transition returns.
type Listener interface {
	// IntervalStarted fires when a new interval begins ticking (or is loaded
	// paused after a skip).
	IntervalStarted(mode types.Mode)

	// IntervalEnded fires when the open interval closes. completed is true
	// only when the interval ran to zero remaining time.
	IntervalEnded(mode types.Mode, completed bool)
}

// CompletedTodayFunc reports the persisted count of focus sessions completed
// today. The machine consults it for the long-break cadence so scheduling
// stays correct across restarts.
type CompletedTodayFunc func() int

// Machine is the timer state machine. Exactly one of stopped, running,
// paused holds at any instant.
type Machine struct {
	mu sync.Mutex

	config types.SessionConfiguration

	mode             types.Mode
	remainingSeconds int
	totalSeconds     int
	isActive         bool
	isPaused         bool
	intervalOpen     bool

	lastSkip time.Time

	clock          platform.Clock
	listener       Listener
	completedToday CompletedTodayFunc
	logger         logging.Logger

	// cache of the persisted count, refreshed after each transition that
	// can change it. Never used for scheduling decisions.
	completedTodayCache int
}

// NewMachine builds a stopped machine loaded with the focus interval.
// listener and completedToday may be nil, in which case boundaries go
// unobserved and the cadence count is treated as zero.
func NewMachine(config types.SessionConfiguration, clock platform.Clock, listener Listener, completedToday CompletedTodayFunc, logger logging.Logger) *Machine {
	if clock == nil {
		clock = platform.NewSystemClock()
	}
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	m := &Machine{
		config:         config,
		clock:          clock,
		listener:       listener,
		completedToday: completedToday,
		logger:         logger,
	}
	m.loadMode(types.ModeFocus)
	return m
}

// Start begins ticking. Stopped starts a new tracked interval; Paused
// resumes the open one. Running is a no-op.
func (m *Machine) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case m.isActive:
		return
	case m.isPaused:
		m.isPaused = false
		m.isActive = true
	default:
		m.beginInterval()
	}
}

// Pause halts ticking without closing the open interval. No-op unless
// running.
func (m *Machine) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.isActive {
		return
	}
	m.isActive = false
	m.isPaused = true
}

// Resume restarts ticking. No-op unless paused.
func (m *Machine) Resume() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.isPaused {
		return
	}
	m.isPaused = false
	m.isActive = true
}

// Tick advances the countdown by one second. Only meaningful while running;
// reaching zero completes the interval, advances the mode, and honors the
// auto-start policy for the mode that just finished.
func (m *Machine) Tick() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.isActive {
		return
	}

	if m.remainingSeconds > 0 {
		m.remainingSeconds--
	}
	if m.remainingSeconds > 0 {
		return
	}

	m.completeInterval()
}

// Skip abandons the current interval as incomplete and advances the mode,
// preserving the running/paused/stopped state it found. Duplicate calls
// inside the debounce window are suppressed.
func (m *Machine) Skip() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	if now.Sub(m.lastSkip) < skipDebounce {
		return
	}
	m.lastSkip = now

	wasRunning := m.isActive
	wasPaused := m.isPaused

	m.closeInterval(false)
	m.loadMode(m.nextMode())

	if wasRunning || wasPaused {
		m.beginInterval()
		if wasPaused {
			m.isActive = false
			m.isPaused = true
		}
	}
}

// Reset abandons the current interval as incomplete, reloads the current
// mode's target duration, and forces the machine to stopped.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closeInterval(false)
	m.loadMode(m.mode)
}

// SetMode switches the loaded mode. Switching while running or paused
// implicitly stops the timer first, closing any open interval as
// incomplete.
func (m *Machine) SetMode(mode types.Mode) error {
	if !mode.Valid() {
		return errInvalidMode(mode)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.closeInterval(false)
	m.loadMode(mode)
	return nil
}

// UpdateDuration edits one mode's target duration in minutes. When the
// edited mode is currently loaded and the machine is stopped, the countdown
// reflects the change immediately.
func (m *Machine) UpdateDuration(mode types.Mode, minutes int) error {
	if !mode.Valid() {
		return errInvalidMode(mode)
	}
	if minutes < 1 {
		return errInvalidDuration(minutes)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	seconds := minutes * 60
	switch mode {
	case types.ModeFocus:
		m.config.FocusSeconds = seconds
	case types.ModeShortBreak:
		m.config.ShortBreakSeconds = seconds
	case types.ModeLongBreak:
		m.config.LongBreakSeconds = seconds
	}

	if mode == m.mode && !m.isActive && !m.isPaused {
		m.totalSeconds = seconds
		m.remainingSeconds = seconds
	}
	return nil
}

// SetConfiguration replaces the whole policy object. When stopped, the
// loaded mode's countdown is refreshed from the new targets.
func (m *Machine) SetConfiguration(config types.SessionConfiguration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.config = config
	if !m.isActive && !m.isPaused {
		m.totalSeconds = config.DurationForMode(m.mode)
		m.remainingSeconds = m.totalSeconds
	}
}

// Configuration returns a copy of the current policy.
func (m *Machine) Configuration() types.SessionConfiguration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.config
}

// State returns a snapshot of the live state.
func (m *Machine) State() types.TimerState {
	m.mu.Lock()
	defer m.mu.Unlock()

	return types.TimerState{
		Mode:                   m.mode,
		TimeRemainingSeconds:   m.remainingSeconds,
		TotalDurationSeconds:   m.totalSeconds,
		IsActive:               m.isActive,
		IsPaused:               m.isPaused,
		SessionsCompletedToday: m.completedTodayCache,
	}
}

// RefreshCompletedToday updates the cached count shown in state snapshots.
func (m *Machine) RefreshCompletedToday(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completedTodayCache = count
}

// beginInterval opens a new tracked interval and starts ticking. Caller
// holds the lock.
func (m *Machine) beginInterval() {
	m.isActive = true
	m.isPaused = false
	m.intervalOpen = true
	if m.listener != nil {
		m.listener.IntervalStarted(m.mode)
	}
}

// closeInterval closes the open interval, if any, and stops ticking. Caller
// holds the lock.
func (m *Machine) closeInterval(completed bool) {
	if m.intervalOpen {
		m.intervalOpen = false
		if m.listener != nil {
			m.listener.IntervalEnded(m.mode, completed)
		}
	}
	m.isActive = false
	m.isPaused = false
}

// completeInterval handles the countdown reaching zero. Caller holds the
// lock.
func (m *Machine) completeInterval() {
	finished := m.mode
	m.closeInterval(true)
	m.refreshCompletedCount()
	m.loadMode(m.nextMode())
	m.logger.Debug("interval completed",
		"finished_mode", string(finished),
		"next_mode", string(m.mode),
		"completed_today", m.completedTodayCache)

	autoStart := m.config.AutoStartFocus
	if finished == types.ModeFocus {
		autoStart = m.config.AutoStartBreaks
	}
	if autoStart {
		m.beginInterval()
	}
}

// loadMode points the countdown at a mode's target duration and leaves the
// machine stopped. Caller holds the lock.
func (m *Machine) loadMode(mode types.Mode) {
	m.mode = mode
	m.totalSeconds = m.config.DurationForMode(mode)
	m.remainingSeconds = m.totalSeconds
}

// nextMode applies the long-break cadence. Leaving focus, the persisted
// completed-today count decides between break lengths; a zero count never
// triggers a long break. Leaving any break, the next mode is always focus.
// Caller holds the lock.
func (m *Machine) nextMode() types.Mode {
	if m.mode.IsBreak() {
		return types.ModeFocus
	}

	completed := 0
	if m.completedToday != nil {
		completed = m.completedToday()
	}
	// Cadence is validated at the settings boundary, but the machine must
	// stay well-defined even if an unvalidated policy reaches it.
	cadence := m.config.SessionsUntilLongBreak
	if cadence < 1 {
		cadence = 1
	}
	if completed > 0 && completed%cadence == 0 {
		return types.ModeLongBreak
	}
	return types.ModeShortBreak
}

// refreshCompletedCount re-reads the persisted count into the snapshot
// cache. Caller holds the lock.
func (m *Machine) refreshCompletedCount() {
	if m.completedToday == nil {
		return
	}
	m.completedTodayCache = m.completedToday()
}
