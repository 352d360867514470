// Package timeutil holds the duration-display and calendar-window math shared
// by the time clock store and its summaries. All calendar computations are
// UTC-anchored; day and week windows never depend on the machine's zone.
package timeutil

import (
	"fmt"
	"math"
	"time"
)

const DateLayout = "2006-01-02"

// FormatDuration renders minutes as "1h 30m".
func FormatDuration(minutes int) string {
	if minutes <= 0 {
		return "0h 0m"
	}
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

// SessionMinutes is the floored number of minutes between clock-in and now.
// Negative differences (clock skew) collapse to zero.
func SessionMinutes(now, clockIn time.Time) int {
	d := now.Sub(clockIn)
	if d < 0 {
		return 0
	}
	return int(d / time.Minute)
}

// HoursRounded converts minutes to hours rounded to two decimals, matching
// the display convention of the summaries.
func HoursRounded(minutes int) float64 {
	return math.Round(float64(minutes)/60*100) / 100
}

// DayWindow returns the UTC calendar day containing t:
// 00:00:00 through 23:59:59.
func DayWindow(t time.Time) (time.Time, time.Time) {
	u := t.UTC()
	start := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.Add(24*time.Hour - time.Second)
}

// WeekWindow returns the UTC week containing t, Monday 00:00:00 through
// Sunday 23:59:59.
func WeekWindow(t time.Time) (time.Time, time.Time) {
	u := t.UTC()
	daysSinceMonday := (int(u.Weekday()) + 6) % 7
	monday := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC).
		AddDate(0, 0, -daysSinceMonday)
	return monday, monday.AddDate(0, 0, 7).Add(-time.Second)
}

// FormatDate renders the YYYY-MM-DD form the entries endpoint expects.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// FormatWeekRange renders "Aug 24 - Aug 30" for the week starting at monday.
func FormatWeekRange(monday time.Time) string {
	m := monday.UTC()
	sunday := m.AddDate(0, 0, 6)
	return fmt.Sprintf("%s - %s", m.Format("Jan 2"), sunday.Format("Jan 2"))
}
