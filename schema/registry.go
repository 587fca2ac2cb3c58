package schema

import (
	"sort"
	"strings"

	"github.com/INLOpen/nexusfetch/core"
)

// Registry resolves table and column names and carries the mappings derived
// from all registered schemas: column name -> aggregation function, and the
// global set of categorical (label-like) column names. A Registry is
// read-only after construction and safe for concurrent use; configuration
// changes are handled by building a fresh one.
type Registry struct {
	tables      []*TableSchema
	byName      map[string]*TableSchema
	agg         map[string]core.AggregationFunc
	categorical map[string]bool
}

// NewRegistry builds a registry from the given schemas. Registration order
// is preserved and decides ownership lookups for shared key columns.
func NewRegistry(tables ...*TableSchema) *Registry {
	r := &Registry{
		byName:      make(map[string]*TableSchema, len(tables)),
		agg:         make(map[string]core.AggregationFunc),
		categorical: make(map[string]bool),
	}
	for _, t := range tables {
		r.tables = append(r.tables, t)
		r.byName[strings.ToLower(t.Name)] = t
		for _, c := range t.Columns {
			if c.Key {
				// Keys are joined and grouped on, never aggregated. When one
				// does end up in an aggregation position it behaves like a
				// label column.
				if _, ok := r.agg[c.Name]; !ok {
					r.agg[c.Name] = core.AggMode
				}
				r.categorical[c.Name] = true
				continue
			}
			r.agg[c.Name] = c.Agg
			if c.Agg.Categorical() {
				r.categorical[c.Name] = true
			}
		}
	}
	return r
}

// Tables returns the registered schemas in registration order.
func (r *Registry) Tables() []*TableSchema {
	return r.tables
}

// TableNames returns all registered table names, sorted.
func (r *Registry) TableNames() []string {
	names := make([]string, 0, len(r.tables))
	for _, t := range r.tables {
		names = append(names, t.Name)
	}
	sort.Strings(names)
	return names
}

// Lookup resolves a table by canonical name (case-insensitive).
func (r *Registry) Lookup(name string) (*TableSchema, error) {
	if t, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]; ok {
		return t, nil
	}
	return nil, &core.UnknownTableError{Table: name}
}

// ResolveColumns maps requested column names onto the table's canonical
// names. Matching is case-insensitive and accepts the dotted form
// "table.column". An empty list or the wildcard "*" selects all columns.
func (r *Registry) ResolveColumns(t *TableSchema, requested []string) ([]string, error) {
	if len(requested) == 0 {
		return t.ColumnNames(), nil
	}

	var resolved []string
	selectAll := false
	seen := make(map[string]bool)
	for _, col := range requested {
		col = strings.TrimSpace(col)
		if col == "" {
			continue
		}
		if col == "*" || strings.EqualFold(col, t.Name) {
			selectAll = true
			break
		}
		bare := col
		if i := strings.LastIndexByte(col, '.'); i >= 0 {
			// "other.column" addresses a different table; let its own
			// resolution pass handle it.
			if !strings.EqualFold(col[:i], t.Name) {
				continue
			}
			bare = col[i+1:]
		}
		canonical := ""
		for _, tc := range t.Columns {
			if strings.EqualFold(tc.Name, bare) {
				canonical = tc.Name
				break
			}
		}
		if canonical == "" {
			return nil, &core.UnknownColumnError{Table: t.Name, Column: col}
		}
		if !seen[canonical] {
			seen[canonical] = true
			resolved = append(resolved, canonical)
		}
	}

	if selectAll || len(resolved) == 0 {
		for _, tc := range t.Columns {
			if !seen[tc.Name] {
				seen[tc.Name] = true
				resolved = append(resolved, tc.Name)
			}
		}
	}
	return resolved, nil
}

// Aggregation returns the aggregation function registered for a bare column
// name, across all tables.
func (r *Registry) Aggregation(column string) (core.AggregationFunc, bool) {
	agg, ok := r.agg[column]
	return agg, ok
}

// Categorical reports whether a bare column name belongs to the global
// categorical set.
func (r *Registry) Categorical(column string) bool {
	return r.categorical[column]
}

// CategoricalColumns returns the global categorical set, sorted.
func (r *Registry) CategoricalColumns() []string {
	cols := make([]string, 0, len(r.categorical))
	for c := range r.categorical {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}

// KeyOwner returns the first registered table that carries the named column
// as a grouping key. Used to find a join target when a request implies a key
// column none of its tables provide.
func (r *Registry) KeyOwner(column string) (*TableSchema, bool) {
	for _, t := range r.tables {
		if t.IsKey(column) {
			return t, true
		}
	}
	return nil, false
}
