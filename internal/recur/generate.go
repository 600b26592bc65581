package recur

import "time"

// HorizonMonths bounds how far past the current time the generator will
// schedule, regardless of pattern. A daily pattern with no end conditions
// would otherwise materialize without bound.
const HorizonMonths = 6

// GenerateOptions bounds a generation run. Remaining is the number of
// occurrences still allowed under the pattern's MaxOccurrences; a negative
// value means unlimited. Now anchors the scheduling horizon.
type GenerateOptions struct {
	MaxBatch  int
	Remaining int
	Now       time.Time
}

// Generate produces up to MaxBatch occurrence dates after start, strictly
// increasing, by repeatedly applying Next. It stops when the calculator
// finds no further date, Remaining is exhausted, or the next date would
// fall more than HorizonMonths past Now.
//
// Monthly patterns without an explicit month day are anchored to start's
// day of month so a clamped occurrence (Jan 31 -> Feb 29) does not drag
// later ones down with it (Mar 31, not Mar 29).
func Generate(start time.Time, p Pattern, opts GenerateOptions) []time.Time {
	if opts.MaxBatch <= 0 {
		return nil
	}
	if p.Kind == KindMonthly && p.MonthDay == 0 {
		p.MonthDay = start.In(p.Location()).Day()
	}
	horizon := opts.Now.AddDate(0, HorizonMonths, 0)
	remaining := opts.Remaining
	cur := start
	var out []time.Time
	for len(out) < opts.MaxBatch {
		if remaining == 0 {
			break
		}
		next, ok := Next(cur, p)
		if !ok {
			break
		}
		if next.After(horizon) {
			break
		}
		out = append(out, next)
		if remaining > 0 {
			remaining--
		}
		cur = next
	}
	return out
}
