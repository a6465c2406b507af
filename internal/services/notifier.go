package services

import (
	"context"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"focusdeck/internal/types"
)

// Notifier delivers fire-and-forget events to the host UI. The core never
// consumes a return value from any of these calls.
type Notifier interface {
	// PlaySound asks the host to play the named outcome sound.
	PlaySound(sound string, volume float64)

	// AchievementUnlocked announces a fresh unlock.
	AchievementUnlocked(achievement types.Achievement)

	// TimerStateChanged publishes a state snapshot after a transition.
	TimerStateChanged(state types.TimerState)

	// StorageDegraded warns that persistence is unavailable and history will
	// not survive a restart.
	StorageDegraded(reason string)
}

// Outcome sound identifiers consumed by the host's audio player.
const (
	SoundFocusComplete = "focus_complete"
	SoundBreakComplete = "break_complete"
)

// EventNotifier emits Wails runtime events the frontend subscribes to.
type EventNotifier struct {
	ctx context.Context
}

// NewEventNotifier creates a notifier bound to the Wails runtime context.
func NewEventNotifier(ctx context.Context) *EventNotifier {
	return &EventNotifier{ctx: ctx}
}

func (n *EventNotifier) PlaySound(sound string, volume float64) {
	runtime.EventsEmit(n.ctx, "timer:sound", map[string]interface{}{
		"sound":  sound,
		"volume": volume,
	})
}

func (n *EventNotifier) AchievementUnlocked(achievement types.Achievement) {
	runtime.EventsEmit(n.ctx, "achievements:unlocked", achievement)
}

func (n *EventNotifier) TimerStateChanged(state types.TimerState) {
	runtime.EventsEmit(n.ctx, "timer:state", state)
}

func (n *EventNotifier) StorageDegraded(reason string) {
	runtime.EventsEmit(n.ctx, "storage:degraded", map[string]interface{}{
		"reason": reason,
	})
}

// NoopNotifier drops every event. Used before the runtime context exists
// and in tests.
type NoopNotifier struct{}

func NewNoopNotifier() *NoopNotifier { return &NoopNotifier{} }

func (NoopNotifier) PlaySound(string, float64)             {}
func (NoopNotifier) AchievementUnlocked(types.Achievement) {}
func (NoopNotifier) TimerStateChanged(types.TimerState)    {}
func (NoopNotifier) StorageDegraded(string)                {}
