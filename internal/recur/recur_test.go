package recur_test

import (
	"testing"
	"time"

	"taskcycle/internal/recur"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextDailyInterval(t *testing.T) {
	from := date(2024, time.January, 10)
	for _, interval := range []int{1, 2, 5, 14} {
		p := recur.Pattern{Kind: recur.KindDaily, Interval: interval}
		next, ok := recur.Next(from, p)
		if !ok {
			t.Fatalf("interval %d: expected occurrence", interval)
		}
		if got := next.Sub(from); got != time.Duration(interval)*24*time.Hour {
			t.Fatalf("interval %d: got delta %v", interval, got)
		}
	}
}

func TestNextWeeklySameWeekday(t *testing.T) {
	from := date(2024, time.January, 4) // Thursday
	p := recur.Pattern{Kind: recur.KindWeekly, Interval: 2}
	next, ok := recur.Next(from, p)
	if !ok {
		t.Fatal("expected occurrence")
	}
	if want := date(2024, time.January, 18); !next.Equal(want) {
		t.Fatalf("got %v want %v", next, want)
	}
	if next.Weekday() != from.Weekday() {
		t.Fatalf("weekday changed: %v", next.Weekday())
	}
}

func TestNextWeeklyWeekdaySet(t *testing.T) {
	// Mon/Wed/Fri starting from Thursday 2024-01-04.
	p := recur.Pattern{Kind: recur.KindWeekly, Interval: 1, Weekdays: []int{1, 3, 5}}
	want := []time.Time{
		date(2024, time.January, 5),  // Friday
		date(2024, time.January, 8),  // Monday
		date(2024, time.January, 10), // Wednesday
	}
	cur := date(2024, time.January, 4)
	for i, w := range want {
		next, ok := recur.Next(cur, p)
		if !ok {
			t.Fatalf("step %d: expected occurrence", i)
		}
		if !next.Equal(w) {
			t.Fatalf("step %d: got %v want %v", i, next, w)
		}
		cur = next
	}
}

func TestNextMonthlyClampsToShortMonth(t *testing.T) {
	p := recur.Pattern{Kind: recur.KindMonthly, Interval: 1, MonthDay: 31}
	next, ok := recur.Next(date(2024, time.March, 31), p)
	if !ok {
		t.Fatal("expected occurrence")
	}
	if want := date(2024, time.April, 30); !next.Equal(want) {
		t.Fatalf("got %v want %v", next, want)
	}
}

func TestNextYearlyLeapDayClamp(t *testing.T) {
	p := recur.Pattern{Kind: recur.KindYearly, Interval: 1}
	next, ok := recur.Next(date(2024, time.February, 29), p)
	if !ok {
		t.Fatal("expected occurrence")
	}
	if want := date(2025, time.February, 28); !next.Equal(want) {
		t.Fatalf("got %v want %v", next, want)
	}
}

func TestNextYearlyMonthOfYear(t *testing.T) {
	p := recur.Pattern{Kind: recur.KindYearly, Interval: 1, MonthOfYear: 6}
	next, ok := recur.Next(date(2024, time.March, 15), p)
	if !ok {
		t.Fatal("expected occurrence")
	}
	if want := date(2025, time.June, 15); !next.Equal(want) {
		t.Fatalf("got %v want %v", next, want)
	}
}

func TestNextRespectsEndDate(t *testing.T) {
	end := date(2024, time.January, 5)
	p := recur.Pattern{Kind: recur.KindDaily, Interval: 3, EndDate: &end}
	if next, ok := recur.Next(date(2024, time.January, 1), p); !ok || !next.Equal(date(2024, time.January, 4)) {
		t.Fatalf("within end date: got %v ok=%v", next, ok)
	}
	if _, ok := recur.Next(date(2024, time.January, 4), p); ok {
		t.Fatal("expected no occurrence past end date")
	}
}

func TestNextCustomCron(t *testing.T) {
	p := recur.Pattern{Kind: recur.KindCustom, Interval: 1, Expr: "0 9 * * 1"}
	next, ok := recur.Next(time.Date(2024, time.January, 4, 12, 0, 0, 0, time.UTC), p)
	if !ok {
		t.Fatal("expected occurrence")
	}
	if want := time.Date(2024, time.January, 8, 9, 0, 0, 0, time.UTC); !next.Equal(want) {
		t.Fatalf("got %v want %v", next, want)
	}
}

func TestNextCustomWithoutExprFallsBackToDaily(t *testing.T) {
	p := recur.Pattern{Kind: recur.KindCustom, Interval: 3}
	next, ok := recur.Next(date(2024, time.January, 1), p)
	if !ok || !next.Equal(date(2024, time.January, 4)) {
		t.Fatalf("got %v ok=%v", next, ok)
	}
}

func TestGenerateDailyBatch(t *testing.T) {
	p := recur.Pattern{Kind: recur.KindDaily, Interval: 1}
	got := recur.Generate(date(2024, time.January, 1), p, recur.GenerateOptions{
		MaxBatch:  3,
		Remaining: -1,
		Now:       date(2024, time.January, 1),
	})
	want := []time.Time{
		date(2024, time.January, 2),
		date(2024, time.January, 3),
		date(2024, time.January, 4),
	}
	if len(got) != len(want) {
		t.Fatalf("got %d occurrences, want %d", len(got), len(want))
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Fatalf("occurrence %d: got %v want %v", i, got[i], want[i])
		}
	}
}

func TestGenerateMonthlyClampDoesNotDrift(t *testing.T) {
	// Jan 31 monthly: Feb clamps to 29 (2024 is a leap year) but March must
	// return to the 31st.
	p := recur.Pattern{Kind: recur.KindMonthly, Interval: 1}
	got := recur.Generate(date(2024, time.January, 31), p, recur.GenerateOptions{
		MaxBatch:  4,
		Remaining: -1,
		Now:       date(2024, time.January, 31),
	})
	want := []time.Time{
		date(2024, time.February, 29),
		date(2024, time.March, 31),
		date(2024, time.April, 30),
		date(2024, time.May, 31),
	}
	if len(got) != len(want) {
		t.Fatalf("got %d occurrences, want %d", len(got), len(want))
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Fatalf("occurrence %d: got %v want %v", i, got[i], want[i])
		}
	}
}

func TestGenerateHonorsRemaining(t *testing.T) {
	p := recur.Pattern{Kind: recur.KindDaily, Interval: 1, MaxOccurrences: 2}
	got := recur.Generate(date(2024, time.January, 1), p, recur.GenerateOptions{
		MaxBatch:  10,
		Remaining: 2,
		Now:       date(2024, time.January, 1),
	})
	if len(got) != 2 {
		t.Fatalf("got %d occurrences, want 2", len(got))
	}
}

func TestGenerateBoundedByHorizon(t *testing.T) {
	now := date(2024, time.January, 1)
	p := recur.Pattern{Kind: recur.KindDaily, Interval: 1}
	got := recur.Generate(now, p, recur.GenerateOptions{MaxBatch: 400, Remaining: -1, Now: now})
	if len(got) == 0 || len(got) >= 400 {
		t.Fatalf("expected horizon to cap generation, got %d", len(got))
	}
	horizon := now.AddDate(0, recur.HorizonMonths, 0)
	for _, occ := range got {
		if occ.After(horizon) {
			t.Fatalf("occurrence %v past horizon %v", occ, horizon)
		}
	}
}

func TestGenerateNeverExceedsMaxBatch(t *testing.T) {
	p := recur.Pattern{Kind: recur.KindDaily, Interval: 1}
	got := recur.Generate(date(2024, time.January, 1), p, recur.GenerateOptions{
		MaxBatch:  5,
		Remaining: -1,
		Now:       date(2024, time.January, 1),
	})
	if len(got) != 5 {
		t.Fatalf("got %d occurrences, want 5", len(got))
	}
	for i := 1; i < len(got); i++ {
		if !got[i].After(got[i-1]) {
			t.Fatalf("occurrences not strictly increasing at %d", i)
		}
	}
}

func TestValidateRejectsBadPatterns(t *testing.T) {
	now := date(2024, time.June, 1)
	past := date(2024, time.January, 1)
	cases := []struct {
		name string
		p    recur.Pattern
	}{
		{"zero interval", recur.Pattern{Kind: recur.KindWeekly, Interval: 0}},
		{"weekday out of range", recur.Pattern{Kind: recur.KindWeekly, Interval: 1, Weekdays: []int{7}}},
		{"month day out of range", recur.Pattern{Kind: recur.KindMonthly, Interval: 1, MonthDay: 32}},
		{"month out of range", recur.Pattern{Kind: recur.KindYearly, Interval: 1, MonthOfYear: 13}},
		{"past end date", recur.Pattern{Kind: recur.KindDaily, Interval: 1, EndDate: &past}},
		{"unknown kind", recur.Pattern{Kind: "fortnightly", Interval: 1}},
		{"bad cron", recur.Pattern{Kind: recur.KindCustom, Interval: 1, Expr: "not a cron"}},
		{"bad timezone", recur.Pattern{Kind: recur.KindDaily, Interval: 1, Timezone: "Mars/Olympus"}},
	}
	for _, tc := range cases {
		if errs := recur.Validate(tc.p, now); len(errs) == 0 {
			t.Errorf("%s: expected validation errors", tc.name)
		}
	}
}

func TestValidateAcceptsGoodPatterns(t *testing.T) {
	now := date(2024, time.June, 1)
	end := date(2024, time.December, 1)
	cases := []recur.Pattern{
		{Kind: recur.KindDaily, Interval: 1},
		{Kind: recur.KindWeekly, Interval: 2, Weekdays: []int{1, 3, 5}},
		{Kind: recur.KindMonthly, Interval: 1, MonthDay: 31, EndDate: &end},
		{Kind: recur.KindYearly, Interval: 1, MonthOfYear: 12},
		{Kind: recur.KindCustom, Interval: 1, Expr: "30 8 * * 1-5"},
		{Kind: recur.KindDaily, Interval: 1, Timezone: "Europe/Paris"},
	}
	for i, p := range cases {
		if errs := recur.Validate(p, now); len(errs) != 0 {
			t.Errorf("case %d: unexpected errors %v", i, errs)
		}
	}
}
