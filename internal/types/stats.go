package types

import "time"

// Period selects the time window for stats and chart queries.
type Period string

const (
	PeriodToday     Period = "today"
	PeriodThisWeek  Period = "week"
	PeriodThisMonth Period = "month"
	PeriodAllTime   Period = "all"
)

// statsEpoch is the fixed lower bound for all-time queries. Timestamps are
// stored as epoch seconds, so the zero time is a safe floor.
var statsEpoch = time.Unix(0, 0)

// Start returns the inclusive lower bound of the period relative to now.
func (p Period) Start(now time.Time) time.Time {
	switch p {
	case PeriodToday:
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	case PeriodThisWeek:
		return now.AddDate(0, 0, -7)
	case PeriodThisMonth:
		return now.AddDate(0, -1, 0)
	default:
		return statsEpoch
	}
}

// Valid reports whether p is a known period.
func (p Period) Valid() bool {
	switch p {
	case PeriodToday, PeriodThisWeek, PeriodThisMonth, PeriodAllTime:
		return true
	}
	return false
}

// StatsSummary is a derived aggregate over the sessions of one period. It is
// never persisted; every read recomputes it from the session set so counts
// can not drift from database truth.
type StatsSummary struct {
	TotalSessions        int     `json:"totalSessions"`
	CompletedSessions    int     `json:"completedSessions"`
	TotalFocusMinutes    int64   `json:"totalFocusMinutes"`
	CompletionRate       float64 `json:"completionRate"`
	AverageSessionLength float64 `json:"averageSessionLength"` // minutes
	CurrentStreak        int     `json:"currentStreak"`
	BestStreak           int     `json:"bestStreak"`
}

// ChartPoint is one calendar-day bucket of the chart series.
type ChartPoint struct {
	Date         time.Time `json:"date"` // midnight, local time
	FocusMinutes int64     `json:"focusMinutes"`
	SessionCount int       `json:"sessionCount"`
}
