package recur

import "time"

// Next computes the first occurrence strictly after from under the pattern,
// in the pattern's timezone, returned in UTC. The second return value is
// false when no valid occurrence exists, which happens when the pattern's
// end date would be exceeded or the pattern is malformed. Occurrence counts
// are not visible here; MaxOccurrences is the caller's concern.
func Next(from time.Time, p Pattern) (time.Time, bool) {
	loc := p.Location()
	from = from.In(loc)
	interval := p.Interval
	if interval < 1 {
		interval = 1
	}

	var next time.Time
	switch p.Kind {
	case KindDaily:
		next = from.AddDate(0, 0, interval)
	case KindWeekly:
		if len(p.Weekdays) == 0 {
			next = from.AddDate(0, 0, 7*interval)
		} else {
			next = nextWeekday(from, interval, p.Weekdays)
		}
	case KindMonthly:
		next = addMonthsClamped(from, interval, p.MonthDay)
	case KindYearly:
		next = addYearsClamped(from, interval, p.MonthOfYear)
	case KindCustom:
		if p.Expr == "" {
			next = from.AddDate(0, 0, interval)
			break
		}
		sched, err := cronParser.Parse(p.Expr)
		if err != nil {
			return time.Time{}, false
		}
		next = sched.Next(from)
		if next.IsZero() {
			return time.Time{}, false
		}
	default:
		return time.Time{}, false
	}

	next = next.In(time.UTC)
	if p.EndDate != nil && next.After(*p.EndDate) {
		return time.Time{}, false
	}
	return next, true
}

// nextWeekday scans forward day by day for the first date whose weekday is
// in the set. Any non-empty set matches within seven days; the whole-week
// jump below is a defensive fallback for a set that validation should have
// rejected.
func nextWeekday(from time.Time, interval int, weekdays []int) time.Time {
	set := make(map[int]bool, len(weekdays))
	min := 7
	for _, wd := range weekdays {
		set[wd] = true
		if wd < min {
			min = wd
		}
	}
	for d := 1; d <= 7; d++ {
		c := from.AddDate(0, 0, d)
		if set[int(c.Weekday())] {
			return c
		}
	}
	base := from.AddDate(0, 0, 7*interval)
	weekStart := base.AddDate(0, 0, -int(base.Weekday()))
	return weekStart.AddDate(0, 0, min)
}

// addMonthsClamped advances whole months and clamps the day of month to the
// target month's length instead of rolling over (day 31 in a 30-day month
// yields day 30). anchorDay overrides the source day when set, so repeated
// steps keep aiming at the original day rather than drifting after a clamp.
func addMonthsClamped(from time.Time, months, anchorDay int) time.Time {
	day := from.Day()
	if anchorDay >= 1 {
		day = anchorDay
	}
	first := time.Date(from.Year(), from.Month(), 1, from.Hour(), from.Minute(), from.Second(), 0, from.Location())
	target := first.AddDate(0, months, 0)
	return time.Date(target.Year(), target.Month(), clampDay(day, target.Year(), target.Month()),
		from.Hour(), from.Minute(), from.Second(), 0, from.Location())
}

func addYearsClamped(from time.Time, years, monthOfYear int) time.Time {
	year := from.Year() + years
	month := from.Month()
	if monthOfYear >= 1 {
		month = time.Month(monthOfYear)
	}
	return time.Date(year, month, clampDay(from.Day(), year, month),
		from.Hour(), from.Minute(), from.Second(), 0, from.Location())
}

func clampDay(day, year int, month time.Month) int {
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > last {
		return last
	}
	return day
}
