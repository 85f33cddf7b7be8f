package format

import (
	"sort"
	"time"
)

// CalculateStreakDays counts consecutive calendar days with activity, ending
// today or yesterday relative to now. Each date is read as the calendar day
// it carries, today is now's calendar day in its own location, and several
// records on the same day count once.
func CalculateStreakDays(dates []time.Time, now time.Time) int {
	if len(dates) == 0 {
		return 0
	}

	today := calendarDay(now)

	seen := make(map[time.Time]struct{}, len(dates))
	days := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		day := calendarDay(d)
		if _, ok := seen[day]; ok {
			continue
		}
		seen[day] = struct{}{}
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })

	streak := 0
	for _, day := range days {
		gap := daysBetween(day, today)
		if gap == streak || gap == streak+1 {
			streak++
			continue
		}
		break
	}
	return streak
}

// calendarDay keeps the year, month and day t carries and drops its zone,
// so a DATE column scanned as UTC midnight stays on the same day.
func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
