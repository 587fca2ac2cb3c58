package query

import (
	"time"

	"github.com/INLOpen/nexusfetch/core"
)

// TimeRange is the observed data extent of one table.
type TimeRange struct {
	Min time.Time
	Max time.Time
}

// IsZero reports whether the range carries no data.
func (tr TimeRange) IsZero() bool {
	return tr.Min.IsZero() && tr.Max.IsZero()
}

// Tier span ceilings, indexed like core.Granularities (finest to coarsest).
// A zero ceiling means unbounded. Entity-filtered requests touch far fewer
// series, so they tolerate finer tiers over longer spans.
var (
	tierCeilings = []time.Duration{
		8 * time.Hour,
		3 * 24 * time.Hour,
		30 * 24 * time.Hour,
		0,
	}
	tierCeilingsFiltered = []time.Duration{
		2 * 24 * time.Hour,
		14 * 24 * time.Hour,
		90 * 24 * time.Hour,
		0,
	}
)

// ResolveWindow fills in missing request bounds. The end defaults to now
// capped at the latest available data across the requested tables; the start
// defaults to defaultWindow before the end, floored at the earliest
// available data. Tables with no data contribute nothing.
func ResolveWindow(start, end time.Time, available []TimeRange, now time.Time, defaultWindow time.Duration) (time.Time, time.Time, error) {
	if end.IsZero() {
		end = now
		var latest time.Time
		for _, tr := range available {
			if !tr.IsZero() && tr.Max.After(latest) {
				latest = tr.Max
			}
		}
		if !latest.IsZero() && latest.Before(end) {
			end = latest
		}
	}
	if start.IsZero() {
		start = end.Add(-defaultWindow)
		var earliest time.Time
		for _, tr := range available {
			if tr.IsZero() {
				continue
			}
			if earliest.IsZero() || tr.Min.Before(earliest) {
				earliest = tr.Min
			}
		}
		if !earliest.IsZero() && earliest.After(start) {
			start = earliest
		}
	}
	if start.After(end) {
		return time.Time{}, time.Time{}, &core.InvalidTimeRangeError{Start: start, End: end}
	}
	return start, end, nil
}

// ResolveGranularity validates an explicit tier or, when freq is empty,
// selects the finest tier whose ceiling covers the requested span. Selection
// is monotone: a wider span never yields a finer tier.
func ResolveGranularity(freq string, span time.Duration, entityFiltered bool) (core.Granularity, error) {
	if freq != "" {
		g := core.Granularity(freq)
		if !g.IsValid() {
			return "", &core.InvalidFrequencyError{Freq: freq}
		}
		return g, nil
	}

	ceilings := tierCeilings
	if entityFiltered {
		ceilings = tierCeilingsFiltered
	}
	for i, g := range core.Granularities {
		if ceilings[i] == 0 || span <= ceilings[i] {
			return g, nil
		}
	}
	return core.Granularities[len(core.Granularities)-1], nil
}
