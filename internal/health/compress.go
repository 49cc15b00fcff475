package health

import (
	"slices"
	"strconv"
	"strings"

	"cloud.google.com/go/civil"
)

// Interval is a closed run of consecutive calendar dates.
type Interval struct {
	Start civil.Date `json:"start"`
	End   civil.Date `json:"end"`
}

// Days returns the number of dates covered by the interval
func (iv Interval) Days() int {
	return iv.End.DaysSince(iv.Start) + 1
}

// Dates expands the interval back into its dates.
func (iv Interval) Dates() []civil.Date {
	out := make([]civil.Date, 0, iv.Days())
	for d := iv.Start; !d.After(iv.End); d = d.AddDays(1) {
		out = append(out, d)
	}
	return out
}

// CompressDates collapses dates into the fewest closed intervals, ascending.
// Input order and duplicates do not matter. Empty input returns nil.
func CompressDates(dates []civil.Date) []Interval {
	if len(dates) == 0 {
		return nil
	}

	sorted := slices.Clone(dates)
	slices.SortFunc(sorted, compareDates)
	sorted = slices.Compact(sorted)

	var out []Interval
	cur := Interval{Start: sorted[0], End: sorted[0]}
	for _, d := range sorted[1:] {
		if d == cur.End.AddDays(1) {
			cur.End = d
			continue
		}
		out = append(out, cur)
		cur = Interval{Start: d, End: d}
	}
	return append(out, cur)
}

// ExpandIntervals returns every date covered by intervals, ascending.
func ExpandIntervals(intervals []Interval) []civil.Date {
	var out []civil.Date
	for _, iv := range intervals {
		out = append(out, iv.Dates()...)
	}
	return out
}

// FormatIntervals renders intervals as compact text such as "Dec 1-2, 4-11".
//
// The month is written whenever it differs from the month the previous
// interval ended in, so "Dec 30-Jan 2, 5" reads naturally across a year end.
// No intervals render as the empty string.
func FormatIntervals(intervals []Interval) string {
	parts := make([]string, 0, len(intervals))
	var prev civil.Date
	for i, iv := range intervals {
		var b strings.Builder
		if i == 0 || !sameMonth(prev, iv.Start) {
			b.WriteString(monthDay(iv.Start))
		} else {
			b.WriteString(strconv.Itoa(iv.Start.Day))
		}

		if iv.End != iv.Start {
			b.WriteByte('-')
			if sameMonth(iv.Start, iv.End) {
				b.WriteString(strconv.Itoa(iv.End.Day))
			} else {
				b.WriteString(monthDay(iv.End))
			}
		}

		parts = append(parts, b.String())
		prev = iv.End
	}
	return strings.Join(parts, ", ")
}

// SummarizeDates compresses and formats dates in one step.
func SummarizeDates(dates []civil.Date) string {
	return FormatIntervals(CompressDates(dates))
}

func compareDates(a, b civil.Date) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}

func sameMonth(a, b civil.Date) bool {
	return a.Year == b.Year && a.Month == b.Month
}

func monthDay(d civil.Date) string {
	return d.Month.String()[:3] + " " + strconv.Itoa(d.Day)
}
