// Package frame implements the in-memory result table the fetch pipeline
// assembles: a time index plus typed columns carrying the schema metadata
// (grouping key, categorical, aggregation function) later stages depend on.
package frame

import (
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/INLOpen/nexusfetch/core"
)

// Kind is the storage representation of a column.
type Kind int

const (
	// Float columns hold numeric readings; NaN marks a missing cell.
	Float Kind = iota
	// Label columns hold categorical values; a validity mask marks missing
	// cells.
	Label
)

// Column is one column of a Frame together with the schema metadata that
// drives normalization, resampling and interpolation.
type Column struct {
	Name        string // output name: bare for keys, table-qualified for fields
	Field       string // bare schema field name
	Kind        Kind
	Key         bool // grouping key (identity column)
	Categorical bool
	Agg         core.AggregationFunc

	floats []float64
	labels []string
	valid  []bool
}

// ColumnSpec declares a column to be created.
type ColumnSpec struct {
	Name        string
	Field       string
	Kind        Kind
	Key         bool
	Categorical bool
	Agg         core.AggregationFunc
}

// Frame is a column-oriented table indexed by time. It is built by the
// merger and mutated in place by the later pipeline stages; it is owned by a
// single call and never shared.
type Frame struct {
	times []time.Time
	cols  []*Column
	index map[string]int
}

// New creates an empty frame with the given columns.
func New(specs ...ColumnSpec) *Frame {
	f := &Frame{index: make(map[string]int)}
	for _, s := range specs {
		f.EnsureColumn(s)
	}
	return f
}

// NumRows returns the number of rows.
func (f *Frame) NumRows() int {
	return len(f.times)
}

// NumCols returns the number of columns.
func (f *Frame) NumCols() int {
	return len(f.cols)
}

// Columns returns the column names in order.
func (f *Frame) Columns() []string {
	names := make([]string, len(f.cols))
	for i, c := range f.cols {
		names[i] = c.Name
	}
	return names
}

// Column returns a column by name.
func (f *Frame) Column(name string) (*Column, bool) {
	i, ok := f.index[name]
	if !ok {
		return nil, false
	}
	return f.cols[i], true
}

// HasColumn reports whether the frame carries the named column.
func (f *Frame) HasColumn(name string) bool {
	_, ok := f.index[name]
	return ok
}

// Time returns the timestamp of row i.
func (f *Frame) Time(i int) time.Time {
	return f.times[i]
}

// EnsureColumn adds the column if missing, backfilling nulls for existing
// rows, and returns it.
func (f *Frame) EnsureColumn(s ColumnSpec) *Column {
	if i, ok := f.index[s.Name]; ok {
		return f.cols[i]
	}
	c := &Column{
		Name:        s.Name,
		Field:       s.Field,
		Kind:        s.Kind,
		Key:         s.Key,
		Categorical: s.Categorical,
		Agg:         s.Agg,
	}
	for range f.times {
		c.appendNull()
	}
	f.index[s.Name] = len(f.cols)
	f.cols = append(f.cols, c)
	return c
}

// AppendRow adds one row. Values maps column names to cell values; columns
// absent from the map get a null cell. Unknown names are ignored.
func (f *Frame) AppendRow(t time.Time, values map[string]any) {
	f.times = append(f.times, t)
	for _, c := range f.cols {
		v, ok := values[c.Name]
		if !ok || v == nil {
			c.appendNull()
			continue
		}
		c.appendValue(v)
	}
}

// IsNull reports whether cell i of the column is missing.
func (c *Column) IsNull(i int) bool {
	if c.Kind == Float {
		return math.IsNaN(c.floats[i])
	}
	return !c.valid[i]
}

// Float returns the numeric cell i; NaN when missing or non-numeric.
func (c *Column) Float(i int) float64 {
	if c.Kind == Float {
		return c.floats[i]
	}
	if !c.valid[i] {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(c.labels[i], 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// Label returns the label cell i; the empty string when missing.
func (c *Column) Label(i int) string {
	if c.Kind == Label {
		if !c.valid[i] {
			return ""
		}
		return c.labels[i]
	}
	if math.IsNaN(c.floats[i]) {
		return ""
	}
	return formatFloatLabel(c.floats[i])
}

// Value returns the cell as an any: float64, string, or nil when missing.
func (c *Column) Value(i int) any {
	if c.IsNull(i) {
		return nil
	}
	if c.Kind == Float {
		return c.floats[i]
	}
	return c.labels[i]
}

func (c *Column) appendNull() {
	if c.Kind == Float {
		c.floats = append(c.floats, math.NaN())
		return
	}
	c.labels = append(c.labels, "")
	c.valid = append(c.valid, false)
}

func (c *Column) appendValue(v any) {
	if c.Kind == Float {
		f, ok := coerceFloat(v)
		if !ok {
			f = math.NaN()
		}
		c.floats = append(c.floats, f)
		return
	}
	s, ok := coerceLabel(v)
	c.labels = append(c.labels, s)
	c.valid = append(c.valid, ok)
}

func (c *Column) setNull(i int) {
	if c.Kind == Float {
		c.floats[i] = math.NaN()
		return
	}
	c.labels[i] = ""
	c.valid[i] = false
}

func (c *Column) copyCell(dst int, src int) {
	if c.Kind == Float {
		c.floats[dst] = c.floats[src]
		return
	}
	c.labels[dst] = c.labels[src]
	c.valid[dst] = c.valid[src]
}

// coerceFloat converts the store cell representations into a float64.
func coerceFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(x, 64)
		return f, err == nil
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// coerceLabel converts a cell into its label form. Integral numbers render
// without a fractional part so "1" and "1.0" never coexist.
func coerceLabel(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case float64:
		if math.IsNaN(x) {
			return "", false
		}
		return formatFloatLabel(x), true
	case float32:
		return formatFloatLabel(float64(x)), true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case bool:
		return strconv.FormatBool(x), true
	}
	return "", false
}

func formatFloatLabel(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// SortByTime stably sorts the rows chronologically. Stages that group rows
// scramble temporal order; every one of them restores it through here.
func (f *Frame) SortByTime() {
	n := f.NumRows()
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	sort.SliceStable(perm, func(a, b int) bool {
		return f.times[perm[a]].Before(f.times[perm[b]])
	})
	f.applyPermutation(perm)
}

func (f *Frame) applyPermutation(perm []int) {
	times := make([]time.Time, len(perm))
	for i, p := range perm {
		times[i] = f.times[p]
	}
	f.times = times
	for _, c := range f.cols {
		if c.Kind == Float {
			floats := make([]float64, len(perm))
			for i, p := range perm {
				floats[i] = c.floats[p]
			}
			c.floats = floats
			continue
		}
		labels := make([]string, len(perm))
		valid := make([]bool, len(perm))
		for i, p := range perm {
			labels[i] = c.labels[p]
			valid[i] = c.valid[p]
		}
		c.labels = labels
		c.valid = valid
	}
}

// selectRows returns a new frame containing the given rows, preserving
// column metadata.
func (f *Frame) selectRows(rows []int) *Frame {
	out := &Frame{index: make(map[string]int)}
	for _, c := range f.cols {
		out.EnsureColumn(ColumnSpec{
			Name: c.Name, Field: c.Field, Kind: c.Kind,
			Key: c.Key, Categorical: c.Categorical, Agg: c.Agg,
		})
	}
	for _, r := range rows {
		out.times = append(out.times, f.times[r])
		for i, c := range f.cols {
			oc := out.cols[i]
			if c.Kind == Float {
				oc.floats = append(oc.floats, c.floats[r])
				continue
			}
			oc.labels = append(oc.labels, c.labels[r])
			oc.valid = append(oc.valid, c.valid[r])
		}
	}
	return out
}
