package search

import (
	"strconv"
	"time"
)

// YearWindow returns the n most recent calendar years anchored at now, as
// decimal strings in descending order. The window anchors to the wall
// clock, never to the data: callers merge sparse backend results into it
// and anything outside is dropped.
func YearWindow(now time.Time, n int) []string {
	if n <= 0 {
		return nil
	}
	years := make([]string, 0, n)
	for y := now.Year(); y > now.Year()-n; y-- {
		years = append(years, strconv.Itoa(y))
	}
	return years
}

// YearValue pairs one year of a series with its value.
type YearValue[T any] struct {
	Year  string
	Value T
}

// FillYearWindow merges a sparse year-keyed update set into the canonical
// window. Every window year appears exactly once, in window order, with
// the zero value of T when the sparse set has no entry; sparse years
// outside the window are discarded.
func FillYearWindow[T any](window []string, sparse map[string]T) []YearValue[T] {
	series := make([]YearValue[T], 0, len(window))
	for _, year := range window {
		series = append(series, YearValue[T]{Year: year, Value: sparse[year]})
	}
	return series
}
