package gym

import "time"

// UpcomingMonday returns the Monday a week starting around t is anchored to, at midnight in t's location.
// On a Sunday that is the following day, otherwise the Monday of t's week.
func UpcomingMonday(t time.Time) time.Time {
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	if t.Weekday() == time.Sunday {
		return midnight.AddDate(0, 0, 1)
	}
	return midnight.AddDate(0, 0, -(int(t.Weekday()) - 1))
}
