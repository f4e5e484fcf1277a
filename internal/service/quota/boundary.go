package quota

import "time"

// CurrentBoundary returns the most recent refill boundary at or before now:
// today's refillHour:00 in loc, or yesterday's if now is earlier than that.
func CurrentBoundary(now time.Time, loc *time.Location, refillHour int) time.Time {
	local := now.In(loc)
	boundary := time.Date(local.Year(), local.Month(), local.Day(), refillHour, 0, 0, 0, loc)
	if local.Before(boundary) {
		// AddDate keeps the wall-clock hour across DST changes, Add(-24h) does not.
		prev := boundary.AddDate(0, 0, -1)
		boundary = time.Date(prev.Year(), prev.Month(), prev.Day(), refillHour, 0, 0, 0, loc)
	}
	return boundary
}

// NextBoundary returns the first refill boundary strictly after now.
func NextBoundary(now time.Time, loc *time.Location, refillHour int) time.Time {
	next := CurrentBoundary(now, loc, refillHour).AddDate(0, 0, 1)
	return time.Date(next.Year(), next.Month(), next.Day(), refillHour, 0, 0, 0, loc)
}

// DaysBetween returns the number of calendar days from a to b, comparing
// their dates in loc. Elapsed hours are irrelevant, so a 23h or 25h DST day
// still counts as one.
func DaysBetween(a, b time.Time, loc *time.Location) int {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}
