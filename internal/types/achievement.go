package types

import "time"

// AchievementType selects the progress-update rule applied on each
// completed focus session.
type AchievementType string

const (
	AchievementSessionsCompleted AchievementType = "sessions_completed"
	AchievementTotalFocusTime    AchievementType = "total_focus_time"
	AchievementStreak            AchievementType = "streak"
	AchievementPerfectWeek       AchievementType = "perfect_week"
	AchievementPerfectMonth      AchievementType = "perfect_month"
	AchievementEarlyBird         AchievementType = "early_bird"
	AchievementNightOwl          AchievementType = "night_owl"
	AchievementWeekendWarrior    AchievementType = "weekend_warrior"
	AchievementMarathon          AchievementType = "marathon"
	AchievementConsistency       AchievementType = "consistency"
)

// Achievement is a gamified milestone. Unlocked transitions false→true
// exactly once; UnlockedDate is set at that transition and never moves.
type Achievement struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Icon         string          `json:"icon"`
	Type         AchievementType `json:"type"`
	Progress     float64         `json:"progress"`
	Target       float64         `json:"target"`
	Unlocked     bool            `json:"unlocked"`
	UnlockedDate *time.Time      `json:"unlockedDate,omitempty"`
}
