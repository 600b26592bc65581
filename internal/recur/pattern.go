// Package recur implements recurrence patterns for task series: pattern
// validation, next-occurrence calculation, and bounded series generation.
// All functions are pure; callers pass reference times explicitly.
package recur

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

type Kind string

const (
	KindDaily   Kind = "daily"
	KindWeekly  Kind = "weekly"
	KindMonthly Kind = "monthly"
	KindYearly  Kind = "yearly"
	KindCustom  Kind = "custom"
)

// Pattern describes how a task series repeats. Weekdays uses 0=Sunday
// through 6=Saturday and is meaningful only for weekly patterns; MonthDay
// only for monthly; MonthOfYear only for yearly. Expr is a standard
// five-field cron expression used by custom patterns; a custom pattern
// without an expression behaves like daily. An empty Timezone means UTC.
type Pattern struct {
	Kind           Kind       `json:"kind" enum:"daily,weekly,monthly,yearly,custom"`
	Interval       int        `json:"interval"`
	Weekdays       []int      `json:"weekdays,omitempty"`
	MonthDay       int        `json:"month_day,omitempty"`
	MonthOfYear    int        `json:"month_of_year,omitempty"`
	Expr           string     `json:"expr,omitempty"`
	Timezone       string     `json:"timezone,omitempty"`
	EndDate        *time.Time `json:"end_date,omitempty"`
	MaxOccurrences int        `json:"max_occurrences,omitempty"`
}

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Location resolves the pattern's timezone, falling back to UTC when the
// name is empty or unknown. Validate reports unknown names; Location stays
// total so calculation never fails on a pattern that already passed it.
func (p Pattern) Location() *time.Location {
	if p.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Validate checks the pattern for internal consistency relative to now.
// It returns a list of human-readable problems; an empty list means the
// pattern is usable.
func Validate(p Pattern, now time.Time) []string {
	var errs []string
	switch p.Kind {
	case KindDaily, KindWeekly, KindMonthly, KindYearly, KindCustom:
	default:
		errs = append(errs, fmt.Sprintf("unknown pattern kind %q", p.Kind))
	}
	if p.Interval < 1 {
		errs = append(errs, "interval must be at least 1")
	}
	for _, wd := range p.Weekdays {
		if wd < 0 || wd > 6 {
			errs = append(errs, fmt.Sprintf("weekday %d out of range 0-6", wd))
		}
	}
	if p.MonthDay != 0 && (p.MonthDay < 1 || p.MonthDay > 31) {
		errs = append(errs, fmt.Sprintf("month day %d out of range 1-31", p.MonthDay))
	}
	if p.MonthOfYear != 0 && (p.MonthOfYear < 1 || p.MonthOfYear > 12) {
		errs = append(errs, fmt.Sprintf("month %d out of range 1-12", p.MonthOfYear))
	}
	if p.MaxOccurrences < 0 {
		errs = append(errs, "max occurrences must not be negative")
	}
	if p.EndDate != nil && !p.EndDate.After(now) {
		errs = append(errs, "end date must be in the future")
	}
	if p.Timezone != "" {
		if _, err := time.LoadLocation(p.Timezone); err != nil {
			errs = append(errs, fmt.Sprintf("unknown timezone %q", p.Timezone))
		}
	}
	if p.Kind == KindCustom && p.Expr != "" {
		if _, err := cronParser.Parse(p.Expr); err != nil {
			errs = append(errs, fmt.Sprintf("invalid cron expression %q: %v", p.Expr, err))
		}
	}
	return errs
}
