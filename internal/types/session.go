package types

import "time"

// Mode identifies the kind of interval the timer runs.
type Mode string

const (
	ModeFocus      Mode = "focus"
	ModeShortBreak Mode = "short_break"
	ModeLongBreak  Mode = "long_break"
)

// IsBreak reports whether the mode is one of the two break modes.
func (m Mode) IsBreak() bool {
	return m == ModeShortBreak || m == ModeLongBreak
}

// Valid reports whether m is one of the three known modes.
func (m Mode) Valid() bool {
	return m == ModeFocus || m == ModeShortBreak || m == ModeLongBreak
}

// FocusSession is the durable record of one interval's actual occurrence.
// A session is write-once-then-closed: after creation only Completed,
// EndedAt and DurationSeconds change, at the single moment the interval ends.
type FocusSession struct {
	ID              string     `json:"id"`
	Mode            Mode       `json:"mode"`
	StartedAt       time.Time  `json:"startedAt"`
	EndedAt         *time.Time `json:"endedAt,omitempty"`
	DurationSeconds int64      `json:"durationSeconds"` // actual elapsed, not the configured target
	Completed       bool       `json:"completed"`
}

// SessionConfiguration is the timer policy: target durations, long-break
// cadence and auto-advance behavior. It is edited through the settings
// surface and persisted as a single versioned row.
type SessionConfiguration struct {
	SchemaVersion          int     `json:"schemaVersion"`
	FocusSeconds           int     `json:"focusSeconds"`
	ShortBreakSeconds      int     `json:"shortBreakSeconds"`
	LongBreakSeconds       int     `json:"longBreakSeconds"`
	SessionsUntilLongBreak int     `json:"sessionsUntilLongBreak"`
	AutoStartBreaks        bool    `json:"autoStartBreaks"`
	AutoStartFocus         bool    `json:"autoStartFocus"`
	SoundEnabled           bool    `json:"soundEnabled"`
	SoundVolume            float64 `json:"soundVolume"`
}

// ConfigurationSchemaVersion is the current settings row layout version.
// Unknown or older rows are replaced by defaults rather than interpreted.
const ConfigurationSchemaVersion = 1

// DefaultConfiguration returns the classic 25/5/15 pomodoro policy.
func DefaultConfiguration() SessionConfiguration {
	return SessionConfiguration{
		SchemaVersion:          ConfigurationSchemaVersion,
		FocusSeconds:           25 * 60,
		ShortBreakSeconds:      5 * 60,
		LongBreakSeconds:       15 * 60,
		SessionsUntilLongBreak: 4,
		AutoStartBreaks:        false,
		AutoStartFocus:         false,
		SoundEnabled:           true,
		SoundVolume:            0.7,
	}
}

// DurationForMode returns the configured target duration for a mode in seconds.
func (c SessionConfiguration) DurationForMode(m Mode) int {
	switch m {
	case ModeShortBreak:
		return c.ShortBreakSeconds
	case ModeLongBreak:
		return c.LongBreakSeconds
	default:
		return c.FocusSeconds
	}
}

// TimerState is a read-only snapshot of the machine's live state, exposed to
// the host frontend. Exactly one of stopped, running and paused holds:
// stopped is !IsActive && !IsPaused.
type TimerState struct {
	Mode                   Mode `json:"mode"`
	TimeRemainingSeconds   int  `json:"timeRemainingSeconds"`
	TotalDurationSeconds   int  `json:"totalDurationSeconds"`
	IsActive               bool `json:"isActive"`
	IsPaused               bool `json:"isPaused"`
	SessionsCompletedToday int  `json:"sessionsCompletedToday"`
}
