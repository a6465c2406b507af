// Package stats derives aggregate facts from session records. Everything
// here is a pure function over a session list: summaries are recomputed on
// demand and never persisted, so they cannot drift from database truth.
package stats

import (
	"sort"
	"time"

	"focusdeck/internal/platform"
	"focusdeck/internal/types"
)

// Summarize computes the stats summary for a session list. Break sessions
// are recorded for audit but carry no weight here; every figure is derived
// from focus-mode sessions only.
func Summarize(sessions []types.FocusSession, now time.Time) types.StatsSummary {
	var (
		summary      types.StatsSummary
		totalSeconds int64
	)

	for _, session := range sessions {
		if session.Mode != types.ModeFocus {
			continue
		}
		summary.TotalSessions++
		totalSeconds += session.DurationSeconds
		if session.Completed {
			summary.CompletedSessions++
		}
	}

	summary.TotalFocusMinutes = totalSeconds / 60
	if summary.TotalSessions > 0 {
		summary.CompletionRate = float64(summary.CompletedSessions) / float64(summary.TotalSessions) * 100
		summary.AverageSessionLength = float64(totalSeconds) / float64(summary.TotalSessions) / 60
	}

	summary.CurrentStreak = CurrentStreak(sessions, now)
	summary.BestStreak = BestStreak(sessions)

	return summary
}

// activeDays returns the distinct calendar days (midnight, local time) that
// contain at least one completed focus session.
func activeDays(sessions []types.FocusSession) []time.Time {
	seen := make(map[time.Time]struct{})
	for _, session := range sessions {
		if session.Mode != types.ModeFocus || !session.Completed {
			continue
		}
		seen[platform.StartOfDay(session.StartedAt)] = struct{}{}
	}

	days := make([]time.Time, 0, len(seen))
	for day := range seen {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

// CurrentStreak counts consecutive active days backward from today. Today
// itself must be active, otherwise the streak is 0.
func CurrentStreak(sessions []types.FocusSession, now time.Time) int {
	days := activeDays(sessions)
	if len(days) == 0 {
		return 0
	}

	active := make(map[time.Time]struct{}, len(days))
	for _, day := range days {
		active[day] = struct{}{}
	}

	day := platform.StartOfDay(now)
	if _, ok := active[day]; !ok {
		return 0
	}

	streak := 0
	for {
		if _, ok := active[day]; !ok {
			break
		}
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

// BestStreak finds the longest run of consecutive active days anywhere in
// the session set.
func BestStreak(sessions []types.FocusSession) int {
	days := activeDays(sessions)
	if len(days) == 0 {
		return 0
	}

	best, run := 1, 1
	for i := 1; i < len(days); i++ {
		if days[i].Sub(days[i-1]) == 24*time.Hour || days[i].Equal(days[i-1].AddDate(0, 0, 1)) {
			run++
		} else {
			run = 1
		}
		if run > best {
			best = run
		}
	}
	return best
}

// ChartSeries buckets focus activity per calendar day across the period's
// range, zero-filling days with no sessions. For the all-time period the
// range starts at the earliest recorded session.
func ChartSeries(sessions []types.FocusSession, period types.Period, now time.Time) []types.ChartPoint {
	end := platform.StartOfDay(now)
	start := platform.StartOfDay(period.Start(now))

	if period == types.PeriodAllTime {
		earliest := end
		for _, session := range sessions {
			day := platform.StartOfDay(session.StartedAt)
			if day.Before(earliest) {
				earliest = day
			}
		}
		start = earliest
	}

	type bucket struct {
		minutes int64
		count   int
	}
	buckets := make(map[time.Time]*bucket)
	for _, session := range sessions {
		if session.Mode != types.ModeFocus {
			continue
		}
		day := platform.StartOfDay(session.StartedAt)
		if day.Before(start) || day.After(end) {
			continue
		}
		b := buckets[day]
		if b == nil {
			b = &bucket{}
			buckets[day] = b
		}
		b.minutes += session.DurationSeconds / 60
		b.count++
	}

	var series []types.ChartPoint
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		point := types.ChartPoint{Date: day}
		if b := buckets[day]; b != nil {
			point.FocusMinutes = b.minutes
			point.SessionCount = b.count
		}
		series = append(series, point)
	}
	return series
}
