// Package schema holds the static table metadata the fetch pipeline is
// driven by: per-column aggregation tags, grouping keys, default probe
// fields and post-fetch value transforms.
package schema

import (
	"strings"

	"github.com/INLOpen/nexusfetch/core"
)

// TimeColumn is the synthetic time column every measurement carries.
const TimeColumn = "time"

// TransformFunc decodes a raw cell value of the named field after rows are
// fetched, e.g. an integer enum into a human-readable label. Returning the
// input unchanged is valid.
type TransformFunc func(field string, value any) any

// Column describes one column of a table. A grouping key identifies the
// physical entity a row belongs to and never carries an aggregation tag;
// every non-key column carries exactly one.
type Column struct {
	Name string
	Agg  core.AggregationFunc
	Key  bool
}

// TableSchema describes one measurement source.
type TableSchema struct {
	Name         string
	Columns      []Column
	DefaultField string        // used for "is data present" time-range probes
	Transform    TransformFunc // optional
}

// Keys returns the grouping-key column names in declaration order.
func (t *TableSchema) Keys() []string {
	var keys []string
	for _, c := range t.Columns {
		if c.Key {
			keys = append(keys, c.Name)
		}
	}
	return keys
}

// Fields returns the non-key column names in declaration order.
func (t *TableSchema) Fields() []string {
	var fields []string
	for _, c := range t.Columns {
		if !c.Key {
			fields = append(fields, c.Name)
		}
	}
	return fields
}

// ColumnNames returns all column names in declaration order.
func (t *TableSchema) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Column looks a column up by exact name.
func (t *TableSchema) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// HasColumn reports whether name is a column of the table. The match is
// case-insensitive and the synthetic time column always belongs.
func (t *TableSchema) HasColumn(name string) bool {
	if strings.EqualFold(name, TimeColumn) {
		return true
	}
	for _, c := range t.Columns {
		if strings.EqualFold(c.Name, name) {
			return true
		}
	}
	return false
}

// IsKey reports whether name is one of the table's grouping keys.
func (t *TableSchema) IsKey(name string) bool {
	for _, c := range t.Columns {
		if c.Key && strings.EqualFold(c.Name, name) {
			return true
		}
	}
	return false
}

// ApplyTransform runs the table's value-transform hook, if any.
func (t *TableSchema) ApplyTransform(field string, value any) any {
	if t.Transform == nil || value == nil {
		return value
	}
	return t.Transform(field, value)
}
