package frame

import (
	"strings"
	"time"

	"github.com/INLOpen/nexusfetch/core"
	"github.com/INLOpen/nexusfetch/schema"
)

// FromRowSet expands one query result into a per-table frame. Tag dimensions
// (identity columns fixed per series) become regular columns, the schema's
// value-transform hook is applied to every cell, and all series are
// concatenated. Value columns are table-qualified ("ping_RTT") to avoid
// cross-table collisions; grouping keys keep their bare names so the merge
// can join on them.
func FromRowSet(rs *core.RowSet, t *schema.TableSchema, reg *schema.Registry) *Frame {
	f := &Frame{index: make(map[string]int)}
	if rs == nil {
		return f
	}

	for _, s := range rs.Series {
		timeIdx := -1
		names := make([]string, len(s.Columns))
		for i, colName := range s.Columns {
			if strings.EqualFold(colName, schema.TimeColumn) {
				timeIdx = i
				continue
			}
			spec := columnSpecFor(t, reg, colName)
			f.EnsureColumn(spec)
			names[i] = spec.Name
		}
		if timeIdx < 0 {
			continue
		}

		// Tag keys sorted by map iteration don't matter: EnsureColumn is
		// idempotent and cells are set per row below.
		tagNames := make(map[string]string, len(s.Tags))
		for tagKey := range s.Tags {
			spec := columnSpecFor(t, reg, tagKey)
			spec.Kind = Label
			f.EnsureColumn(spec)
			tagNames[tagKey] = spec.Name
		}

		for _, row := range s.Values {
			if timeIdx >= len(row) {
				continue
			}
			ts, ok := core.ToTime(row[timeIdx])
			if !ok {
				continue
			}
			values := make(map[string]any, len(row)+len(s.Tags))
			for i, cell := range row {
				if i == timeIdx || i >= len(s.Columns) || cell == nil {
					continue
				}
				values[names[i]] = t.ApplyTransform(s.Columns[i], cell)
			}
			for tagKey, tagVal := range s.Tags {
				values[tagNames[tagKey]] = tagVal
			}
			f.AppendRow(ts, values)
		}
	}
	return f
}

func columnSpecFor(t *schema.TableSchema, reg *schema.Registry, field string) ColumnSpec {
	key := t.IsKey(field)
	categorical := key || reg.Categorical(field)
	agg, ok := reg.Aggregation(field)
	if !ok {
		if categorical {
			agg = core.AggMode
		} else {
			agg = core.AggMean
		}
	}
	name := field
	if !key {
		name = t.Name + "_" + field
	}
	kind := Float
	if categorical {
		kind = Label
	}
	return ColumnSpec{
		Name:        name,
		Field:       field,
		Kind:        kind,
		Key:         key,
		Categorical: categorical,
		Agg:         agg,
	}
}

// MergeAll combines per-table frames via a sequential outer join and
// restores chronological order. Merging in any order yields the same rows up
// to sort.
func MergeAll(frames []*Frame) *Frame {
	var merged *Frame
	for _, f := range frames {
		if f == nil || f.NumCols() == 0 {
			continue
		}
		merged = OuterJoin(merged, f)
	}
	if merged == nil {
		return New()
	}
	merged.SortByTime()
	return merged
}

// OuterJoin joins two frames on every column they have in common: the time
// index plus any shared grouping keys. Rows with only partial coverage keep
// nulls for the other frame's columns.
func OuterJoin(a, b *Frame) *Frame {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}

	var shared []string
	for _, c := range a.cols {
		if b.HasColumn(c.Name) {
			shared = append(shared, c.Name)
		}
	}

	out := &Frame{index: make(map[string]int)}
	for _, c := range a.cols {
		out.EnsureColumn(specOf(c))
	}
	var bOnly []string
	for _, c := range b.cols {
		if !a.HasColumn(c.Name) {
			bOnly = append(bOnly, c.Name)
		}
		out.EnsureColumn(specOf(c))
	}

	bByKey := make(map[string][]int)
	for j := 0; j < b.NumRows(); j++ {
		k := joinKey(b, shared, j)
		bByKey[k] = append(bByKey[k], j)
	}
	used := make([]bool, b.NumRows())

	for i := 0; i < a.NumRows(); i++ {
		k := joinKey(a, shared, i)
		match := -1
		for _, j := range bByKey[k] {
			if !used[j] {
				used[j] = true
				match = j
				break
			}
		}
		values := make(map[string]any)
		for _, c := range a.cols {
			if v := c.Value(i); v != nil {
				values[c.Name] = v
			}
		}
		if match >= 0 {
			for _, name := range bOnly {
				bc, _ := b.Column(name)
				if v := bc.Value(match); v != nil {
					values[name] = v
				}
			}
		}
		out.AppendRow(a.times[i], values)
	}

	for j := 0; j < b.NumRows(); j++ {
		if used[j] {
			continue
		}
		values := make(map[string]any)
		for _, c := range b.cols {
			if v := c.Value(j); v != nil {
				values[c.Name] = v
			}
		}
		out.AppendRow(b.times[j], values)
	}

	out.SortByTime()
	return out
}

func specOf(c *Column) ColumnSpec {
	return ColumnSpec{
		Name: c.Name, Field: c.Field, Kind: c.Kind,
		Key: c.Key, Categorical: c.Categorical, Agg: c.Agg,
	}
}

// joinKey renders the join columns of row i into a comparable key. The time
// index always participates; a missing cell keeps its own sentinel so nulls
// only match nulls.
func joinKey(f *Frame, shared []string, i int) string {
	var sb strings.Builder
	sb.WriteString(f.times[i].UTC().Format(time.RFC3339Nano))
	for _, name := range shared {
		c, _ := f.Column(name)
		sb.WriteByte(0x1f)
		if c.IsNull(i) {
			sb.WriteByte(0x00)
			continue
		}
		sb.WriteString(c.Label(i))
	}
	return sb.String()
}
