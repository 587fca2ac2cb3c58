package frame

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/INLOpen/nexusfetch/core"
)

// Resample buckets rows by the time rule and aggregates every non-key,
// non-categorical column with the function recorded in its schema. Rows are
// first grouped by the categorical columns actually present, so values from
// different entities never mix inside a bucket. Group keys are restored as
// columns and the result is re-indexed purely by time, sorted
// chronologically (grouping scrambles temporal order).
//
// With no aggregatable columns left, the result degenerates to the
// time/group index with no value columns rather than failing.
func Resample(f *Frame, rule time.Duration) *Frame {
	if f == nil || f.NumRows() == 0 || rule <= 0 {
		return f
	}

	var groupCols, aggCols []*Column
	for _, c := range f.cols {
		if c.Categorical {
			groupCols = append(groupCols, c)
		} else {
			aggCols = append(aggCols, c)
		}
	}

	type bucket struct {
		ts     time.Time
		srcRow int // representative row for group column values
		values [][]float64
	}
	byKey := make(map[string]*bucket)
	var order []*bucket

	for i := 0; i < f.NumRows(); i++ {
		ts := f.times[i].Truncate(rule)
		var sb strings.Builder
		sb.WriteString(ts.Format(time.RFC3339Nano))
		for _, c := range groupCols {
			sb.WriteByte(0x1f)
			if c.IsNull(i) {
				sb.WriteByte(0x00)
			} else {
				sb.WriteString(c.Label(i))
			}
		}
		key := sb.String()
		bk, ok := byKey[key]
		if !ok {
			bk = &bucket{ts: ts, srcRow: i, values: make([][]float64, len(aggCols))}
			byKey[key] = bk
			order = append(order, bk)
		}
		for j, c := range aggCols {
			if !c.IsNull(i) {
				bk.values[j] = append(bk.values[j], c.Float(i))
			}
		}
	}

	out := &Frame{index: make(map[string]int)}
	for _, c := range f.cols {
		out.EnsureColumn(specOf(c))
	}
	for _, bk := range order {
		values := make(map[string]any)
		for _, c := range groupCols {
			if v := c.Value(bk.srcRow); v != nil {
				values[c.Name] = v
			}
		}
		for j, c := range aggCols {
			v := aggregate(c.Agg, bk.values[j])
			if !math.IsNaN(v) {
				values[c.Name] = v
			}
		}
		out.AppendRow(bk.ts, values)
	}
	out.SortByTime()
	return out
}

// aggregate reduces the non-null values of one bucket. An empty input yields
// NaN for every function.
func aggregate(agg core.AggregationFunc, vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	switch agg {
	case core.AggSum:
		var sum float64
		for _, v := range vals {
			sum += v
		}
		return sum
	case core.AggMax:
		m := vals[0]
		for _, v := range vals[1:] {
			if v > m {
				m = v
			}
		}
		return m
	case core.AggMode:
		return ModeFloat(vals)
	default: // mean
		var sum float64
		for _, v := range vals {
			sum += v
		}
		return sum / float64(len(vals))
	}
}

// ModeFloat returns the most frequent value, NaN on an empty input. When
// several values share the maximum frequency the smallest wins, so the
// result does not depend on input order.
func ModeFloat(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	counts := make(map[float64]int)
	for _, v := range vals {
		counts[v]++
	}
	best := math.NaN()
	bestCount := 0
	for v, n := range counts {
		if n > bestCount || (n == bestCount && v < best) {
			best = v
			bestCount = n
		}
	}
	return best
}

// ModeLabel is ModeFloat for label values; ties resolve to the
// lexicographically smallest. The second return is false on empty input.
func ModeLabel(vals []string) (string, bool) {
	if len(vals) == 0 {
		return "", false
	}
	counts := make(map[string]int)
	for _, v := range vals {
		counts[v]++
	}
	keys := make([]string, 0, len(counts))
	for v := range counts {
		keys = append(keys, v)
	}
	sort.Strings(keys)
	best := ""
	bestCount := 0
	for _, v := range keys {
		if counts[v] > bestCount {
			best = v
			bestCount = counts[v]
		}
	}
	return best, true
}
