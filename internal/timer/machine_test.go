package timer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"focusdeck/internal/testutils"
	"focusdeck/internal/types"
)

type endedInterval struct {
	mode      types.Mode
	completed bool
}

type stubListener struct {
	started []types.Mode
	ended   []endedInterval
}

func (l *stubListener) IntervalStarted(mode types.Mode) {
	l.started = append(l.started, mode)
}

func (l *stubListener) IntervalEnded(mode types.Mode, completed bool) {
	l.ended = append(l.ended, endedInterval{mode: mode, completed: completed})
}

func testConfig() types.SessionConfiguration {
	cfg := types.DefaultConfiguration()
	cfg.FocusSeconds = 3
	cfg.ShortBreakSeconds = 2
	cfg.LongBreakSeconds = 4
	return cfg
}

func newTestMachine(t *testing.T, completed *int) (*Machine, *stubListener, *testutils.FakeClock) {
	t.Helper()
	listener := &stubListener{}
	clock := testutils.NewFakeClock(time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local))
	machine := NewMachine(testConfig(), clock, listener, func() int { return *completed }, testutils.NewCaptureLogger())
	return machine, listener, clock
}

func TestNewMachineStartsStoppedOnFocus(t *testing.T) {
	completed := 0
	machine, _, _ := newTestMachine(t, &completed)

	state := machine.State()
	assert.Equal(t, types.ModeFocus, state.Mode)
	assert.Equal(t, 3, state.TimeRemainingSeconds)
	assert.Equal(t, 3, state.TotalDurationSeconds)
	assert.False(t, state.IsActive)
	assert.False(t, state.IsPaused)
}

func TestStartPauseResumeExclusivity(t *testing.T) {
	completed := 0
	machine, listener, _ := newTestMachine(t, &completed)

	machine.Start()
	state := machine.State()
	assert.True(t, state.IsActive)
	assert.False(t, state.IsPaused)

	// Starting again must not open a second interval.
	machine.Start()
	assert.Len(t, listener.started, 1)

	machine.Pause()
	state = machine.State()
	assert.False(t, state.IsActive)
	assert.True(t, state.IsPaused)

	machine.Resume()
	state = machine.State()
	assert.True(t, state.IsActive)
	assert.False(t, state.IsPaused)

	// Resuming through Start must not open a new interval either.
	machine.Pause()
	machine.Start()
	assert.Len(t, listener.started, 1)
}

func TestPauseResumeLeavesRemainingUnchanged(t *testing.T) {
	completed := 0
	machine, _, _ := newTestMachine(t, &completed)

	machine.Start()
	machine.Tick()
	before := machine.State().TimeRemainingSeconds

	machine.Pause()
	machine.Resume()
	assert.Equal(t, before, machine.State().TimeRemainingSeconds)
}

func TestPauseOnlyFromRunning(t *testing.T) {
	completed := 0
	machine, _, _ := newTestMachine(t, &completed)

	machine.Pause()
	state := machine.State()
	assert.False(t, state.IsActive)
	assert.False(t, state.IsPaused)

	machine.Resume()
	state = machine.State()
	assert.False(t, state.IsActive)
	assert.False(t, state.IsPaused)
}

func TestTickIgnoredUnlessRunning(t *testing.T) {
	completed := 0
	machine, _, _ := newTestMachine(t, &completed)

	machine.Tick()
	assert.Equal(t, 3, machine.State().TimeRemainingSeconds)

	machine.Start()
	machine.Pause()
	machine.Tick()
	assert.Equal(t, 3, machine.State().TimeRemainingSeconds)
}

func TestCompletionClosesSessionAndAdvances(t *testing.T) {
	completed := 0
	machine, listener, _ := newTestMachine(t, &completed)

	machine.Start()
	for i := 0; i < 3; i++ {
		machine.Tick()
	}

	require.Len(t, listener.ended, 1)
	assert.Equal(t, types.ModeFocus, listener.ended[0].mode)
	assert.True(t, listener.ended[0].completed)

	state := machine.State()
	assert.Equal(t, types.ModeShortBreak, state.Mode)
	assert.False(t, state.IsActive)
	assert.False(t, state.IsPaused)
	assert.Equal(t, 2, state.TimeRemainingSeconds)
}

func TestTickNeverGoesNegative(t *testing.T) {
	completed := 0
	machine, _, _ := newTestMachine(t, &completed)

	machine.Start()
	for i := 0; i < 10; i++ {
		machine.Tick()
		assert.GreaterOrEqual(t, machine.State().TimeRemainingSeconds, 0)
	}
}

func TestLongBreakCadence(t *testing.T) {
	tests := []struct {
		completedToday int
		want           types.Mode
	}{
		{0, types.ModeShortBreak},
		{1, types.ModeShortBreak},
		{2, types.ModeShortBreak},
		{3, types.ModeShortBreak},
		{4, types.ModeLongBreak},
		{5, types.ModeShortBreak},
		{7, types.ModeShortBreak},
		{8, types.ModeLongBreak},
		{12, types.ModeLongBreak},
	}

	for _, tt := range tests {
		completed := tt.completedToday
		machine, _, _ := newTestMachine(t, &completed)

		machine.Start()
		for i := 0; i < 3; i++ {
			machine.Tick()
		}

		assert.Equal(t, tt.want, machine.State().Mode,
			"completedToday=%d", tt.completedToday)
	}
}

func TestZeroCadencePolicyCompletesWithoutPanic(t *testing.T) {
	completed := 1
	machine, _, _ := newTestMachine(t, &completed)

	// An unvalidated policy with a zero cadence must not reach the modulus
	// unfloored.
	cfg := testConfig()
	cfg.SessionsUntilLongBreak = 0
	machine.SetConfiguration(cfg)

	machine.Start()
	for i := 0; i < 3; i++ {
		machine.Tick()
	}

	// Floored cadence of 1 schedules a long break after every focus.
	assert.Equal(t, types.ModeLongBreak, machine.State().Mode)
}

func TestBreakAlwaysAdvancesToFocus(t *testing.T) {
	for _, mode := range []types.Mode{types.ModeShortBreak, types.ModeLongBreak} {
		completed := 4
		machine, _, _ := newTestMachine(t, &completed)

		require.NoError(t, machine.SetMode(mode))
		machine.Start()
		for i := 0; i < 4; i++ {
			machine.Tick()
		}

		assert.Equal(t, types.ModeFocus, machine.State().Mode, "from %s", mode)
	}
}

func TestAutoStartBreaks(t *testing.T) {
	completed := 0
	listener := &stubListener{}
	clock := testutils.NewFakeClock(time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local))
	cfg := testConfig()
	cfg.AutoStartBreaks = true
	machine := NewMachine(cfg, clock, listener, func() int { return completed }, testutils.NewCaptureLogger())

	machine.Start()
	for i := 0; i < 3; i++ {
		machine.Tick()
	}

	state := machine.State()
	assert.Equal(t, types.ModeShortBreak, state.Mode)
	assert.True(t, state.IsActive)
	require.Len(t, listener.started, 2)
	assert.Equal(t, types.ModeShortBreak, listener.started[1])
}

func TestSkipPreservesRunningState(t *testing.T) {
	completed := 0
	machine, listener, _ := newTestMachine(t, &completed)

	machine.Start()
	machine.Tick()
	machine.Skip()

	require.Len(t, listener.ended, 1)
	assert.False(t, listener.ended[0].completed)

	state := machine.State()
	assert.Equal(t, types.ModeShortBreak, state.Mode)
	assert.True(t, state.IsActive)
	assert.Equal(t, 2, state.TimeRemainingSeconds)
	require.Len(t, listener.started, 2)
}

func TestSkipPreservesPausedState(t *testing.T) {
	completed := 0
	machine, _, _ := newTestMachine(t, &completed)

	machine.Start()
	machine.Pause()
	machine.Skip()

	state := machine.State()
	assert.Equal(t, types.ModeShortBreak, state.Mode)
	assert.False(t, state.IsActive)
	assert.True(t, state.IsPaused)
}

func TestSkipWhileStoppedStaysStopped(t *testing.T) {
	completed := 0
	machine, listener, _ := newTestMachine(t, &completed)

	machine.Skip()

	state := machine.State()
	assert.Equal(t, types.ModeShortBreak, state.Mode)
	assert.False(t, state.IsActive)
	assert.False(t, state.IsPaused)
	assert.Empty(t, listener.started)
	assert.Empty(t, listener.ended)
}

func TestSkipDebounceSuppressesDuplicates(t *testing.T) {
	completed := 0
	machine, _, clock := newTestMachine(t, &completed)

	machine.Skip()
	assert.Equal(t, types.ModeShortBreak, machine.State().Mode)

	// A duplicate inside the debounce window must not double-advance.
	clock.Advance(100 * time.Millisecond)
	machine.Skip()
	assert.Equal(t, types.ModeShortBreak, machine.State().Mode)

	clock.Advance(600 * time.Millisecond)
	machine.Skip()
	assert.Equal(t, types.ModeFocus, machine.State().Mode)
}

func TestResetClosesIncompleteAndStops(t *testing.T) {
	completed := 0
	machine, listener, _ := newTestMachine(t, &completed)

	machine.Start()
	machine.Tick()
	machine.Reset()

	require.Len(t, listener.ended, 1)
	assert.False(t, listener.ended[0].completed)

	state := machine.State()
	assert.Equal(t, types.ModeFocus, state.Mode)
	assert.Equal(t, 3, state.TimeRemainingSeconds)
	assert.False(t, state.IsActive)
	assert.False(t, state.IsPaused)
}

func TestSetModeWhileRunningStopsFirst(t *testing.T) {
	completed := 0
	machine, listener, _ := newTestMachine(t, &completed)

	machine.Start()
	require.NoError(t, machine.SetMode(types.ModeLongBreak))

	require.Len(t, listener.ended, 1)
	assert.False(t, listener.ended[0].completed)

	state := machine.State()
	assert.Equal(t, types.ModeLongBreak, state.Mode)
	assert.Equal(t, 4, state.TimeRemainingSeconds)
	assert.False(t, state.IsActive)
}

func TestSetModeRejectsUnknownMode(t *testing.T) {
	completed := 0
	machine, _, _ := newTestMachine(t, &completed)

	assert.Error(t, machine.SetMode(types.Mode("nap")))
}

func TestUpdateDurationAppliesImmediatelyWhenStopped(t *testing.T) {
	completed := 0
	machine, _, _ := newTestMachine(t, &completed)

	require.NoError(t, machine.UpdateDuration(types.ModeFocus, 30))

	state := machine.State()
	assert.Equal(t, 30*60, state.TimeRemainingSeconds)
	assert.Equal(t, 30*60, state.TotalDurationSeconds)
	assert.Equal(t, 30*60, machine.Configuration().FocusSeconds)
}

func TestUpdateDurationDefersWhileRunning(t *testing.T) {
	completed := 0
	machine, _, _ := newTestMachine(t, &completed)

	machine.Start()
	machine.Tick()
	require.NoError(t, machine.UpdateDuration(types.ModeFocus, 30))

	// The running countdown keeps its remaining time; only the policy moves.
	assert.Equal(t, 2, machine.State().TimeRemainingSeconds)
	assert.Equal(t, 30*60, machine.Configuration().FocusSeconds)
}

func TestUpdateDurationValidation(t *testing.T) {
	completed := 0
	machine, _, _ := newTestMachine(t, &completed)

	assert.Error(t, machine.UpdateDuration(types.ModeFocus, 0))
	assert.Error(t, machine.UpdateDuration(types.Mode("nap"), 10))
}

// countingListener mimics the tracker: the persisted completed count is
// already bumped when the interval close returns, before the scheduler
// consults it.
type countingListener struct {
	stubListener
	completed int
}

func (l *countingListener) IntervalEnded(mode types.Mode, completed bool) {
	l.stubListener.IntervalEnded(mode, completed)
	if mode == types.ModeFocus && completed {
		l.completed++
	}
}

func TestFullPomodoroCycle(t *testing.T) {
	// Four focus sessions in a row, each followed by its break. The first
	// three get a short break; the fourth, a long one.
	listener := &countingListener{}
	clock := testutils.NewFakeClock(time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local))
	machine := NewMachine(testConfig(), clock, listener, func() int { return listener.completed }, testutils.NewCaptureLogger())

	runOut := func() {
		machine.Start()
		for machine.State().IsActive {
			machine.Tick()
		}
	}

	var breaks []types.Mode
	for i := 0; i < 4; i++ {
		runOut()
		breaks = append(breaks, machine.State().Mode)
		runOut() // the break itself
		assert.Equal(t, types.ModeFocus, machine.State().Mode)
	}

	assert.Equal(t, []types.Mode{
		types.ModeShortBreak,
		types.ModeShortBreak,
		types.ModeShortBreak,
		types.ModeLongBreak,
	}, breaks)
}
