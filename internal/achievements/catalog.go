package achievements

import "focusdeck/internal/types"

// Catalog returns the seed set of achievements, one per rule type. IDs are
// stable across releases; seeding refreshes display metadata but never
// touches progress or unlock state.
func Catalog() []types.Achievement {
	return []types.Achievement{
		{
			ID:          "centurion",
			Title:       "Centurion",
			Description: "Complete 100 focus sessions",
			Icon:        "🏆",
			Type:        types.AchievementSessionsCompleted,
			Target:      100,
		},
		{
			ID:          "deep_worker",
			Title:       "Deep Worker",
			Description: "Accumulate 1,000 minutes of focused work",
			Icon:        "⏳",
			Type:        types.AchievementTotalFocusTime,
			Target:      1000,
		},
		{
			ID:          "on_fire",
			Title:       "On Fire",
			Description: "Keep a 7-day focus streak going",
			Icon:        "🔥",
			Type:        types.AchievementStreak,
			Target:      7,
		},
		{
			ID:          "perfect_week",
			Title:       "Perfect Week",
			Description: "Focus every day of a single week",
			Icon:        "📅",
			Type:        types.AchievementPerfectWeek,
			Target:      7,
		},
		{
			ID:          "perfect_month",
			Title:       "Perfect Month",
			Description: "Focus on 30 days of a single month",
			Icon:        "🗓️",
			Type:        types.AchievementPerfectMonth,
			Target:      30,
		},
		{
			ID:          "early_bird",
			Title:       "Early Bird",
			Description: "Complete 10 focus sessions before 7 AM",
			Icon:        "🌅",
			Type:        types.AchievementEarlyBird,
			Target:      10,
		},
		{
			ID:          "night_owl",
			Title:       "Night Owl",
			Description: "Complete 10 focus sessions after 10 PM",
			Icon:        "🦉",
			Type:        types.AchievementNightOwl,
			Target:      10,
		},
		{
			ID:          "weekend_warrior",
			Title:       "Weekend Warrior",
			Description: "Complete 20 focus sessions on weekends",
			Icon:        "💪",
			Type:        types.AchievementWeekendWarrior,
			Target:      20,
		},
		{
			ID:          "marathon",
			Title:       "Marathon",
			Description: "Finish a single focus session of 50 minutes or more",
			Icon:        "🏃",
			Type:        types.AchievementMarathon,
			Target:      50,
		},
		{
			ID:          "creature_of_habit",
			Title:       "Creature of Habit",
			Description: "Keep a 30-day focus streak going",
			Icon:        "📈",
			Type:        types.AchievementConsistency,
			Target:      30,
		},
	}
}
