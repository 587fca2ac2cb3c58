package query

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/INLOpen/nexusfetch/core"
	"github.com/INLOpen/nexusfetch/schema"
)

// Built is one query ready for dispatch, tagged with the table it targets so
// the merger can identify results regardless of completion order.
type Built struct {
	Table     *schema.TableSchema
	Text      string
	Auxiliary bool // key-lookup only, adds a join target but no value columns
}

// Builder assembles per-table query text. It applies predicate pushdown: a
// filter clause is attached to a table only if the clause's leading
// identifier names one of that table's columns.
type Builder struct {
	reg *schema.Registry
}

func NewBuilder(reg *schema.Registry) *Builder {
	return &Builder{reg: reg}
}

var identRe = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)

// FieldName extracts the leading identifier token of a filter clause.
// Leading punctuation (e.g. a grouping paren) is skipped.
func FieldName(clause string) string {
	return identRe.FindString(clause)
}

// TimeClauses renders the resolved window bounds as pushdown filters. Every
// table carries the time column, so these reach every query.
func TimeClauses(start, end time.Time) []string {
	return []string{
		fmt.Sprintf("time >= '%s'", start.UTC().Format(time.RFC3339Nano)),
		fmt.Sprintf("time <= '%s'", end.UTC().Format(time.RFC3339Nano)),
	}
}

// NodeClause renders an entity-id filter as one OR-disjunction on NodeId.
func NodeClause(nodeIDs []string) string {
	if len(nodeIDs) == 0 {
		return ""
	}
	parts := make([]string, len(nodeIDs))
	for i, id := range nodeIDs {
		parts[i] = fmt.Sprintf("NodeId = '%s'", id)
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

// Build emits one query per requested table plus, when the request implies a
// key column owned by a table that was not requested, one auxiliary query
// against that owning table so the merge has a join target.
//
// The spec must already carry a resolved window, granularity and limit.
func (b *Builder) Build(spec *Spec) ([]Built, error) {
	tables := make([]*schema.TableSchema, 0, len(spec.Tables))
	seen := make(map[string]bool)
	for _, name := range spec.Tables {
		t, err := b.reg.Lookup(name)
		if err != nil {
			return nil, err
		}
		if !seen[t.Name] {
			seen[t.Name] = true
			tables = append(tables, t)
		}
	}
	if len(tables) == 0 {
		return nil, &core.UnknownTableError{Table: ""}
	}

	perTable, aux, err := b.distributeColumns(tables, spec.Columns)
	if err != nil {
		return nil, err
	}

	where := make([]string, 0, len(spec.Where)+3)
	where = append(where, spec.Where...)
	if clause := NodeClause(spec.NodeIDs); clause != "" {
		where = append(where, clause)
	}
	where = append(where, TimeClauses(spec.StartTime, spec.EndTime)...)

	var built []Built
	for _, t := range tables {
		cols := perTable[t.Name]
		if len(cols) == 0 {
			cols = t.ColumnNames()
		}
		built = append(built, Built{
			Table: t,
			Text:  b.queryText(t, cols, where, spec, false),
		})
	}
	for _, owner := range aux {
		if seen[owner.Name] {
			continue
		}
		built = append(built, Built{
			Table:     owner,
			Text:      b.queryText(owner, owner.Keys(), where, spec, true),
			Auxiliary: true,
		})
	}
	return built, nil
}

// distributeColumns assigns each requested column to the tables that own it.
// A bare column that no requested table has, but which is a grouping key of
// another registered table, marks that table for an auxiliary lookup.
func (b *Builder) distributeColumns(tables []*schema.TableSchema, columns []string) (map[string][]string, []*schema.TableSchema, error) {
	perTable := make(map[string][]string)
	var aux []*schema.TableSchema
	auxSeen := make(map[string]bool)

	addCol := func(t *schema.TableSchema, bare string) error {
		canonical := ""
		for _, c := range t.Columns {
			if strings.EqualFold(c.Name, bare) {
				canonical = c.Name
				break
			}
		}
		if canonical == "" {
			return &core.UnknownColumnError{Table: t.Name, Column: bare}
		}
		for _, existing := range perTable[t.Name] {
			if existing == canonical {
				return nil
			}
		}
		perTable[t.Name] = append(perTable[t.Name], canonical)
		return nil
	}
	markAux := func(owner *schema.TableSchema) {
		if !auxSeen[owner.Name] {
			auxSeen[owner.Name] = true
			aux = append(aux, owner)
		}
	}

	for _, col := range columns {
		col = strings.TrimSpace(col)
		if col == "" {
			continue
		}
		if col == "*" {
			for _, t := range tables {
				perTable[t.Name] = t.ColumnNames()
			}
			continue
		}

		if i := strings.LastIndexByte(col, '.'); i >= 0 {
			prefix, bare := col[:i], col[i+1:]
			var target *schema.TableSchema
			for _, t := range tables {
				if strings.EqualFold(t.Name, prefix) {
					target = t
					break
				}
			}
			if target != nil {
				if err := addCol(target, bare); err != nil {
					return nil, nil, err
				}
				continue
			}
			owner, err := b.reg.Lookup(prefix)
			if err != nil {
				return nil, nil, err
			}
			if owner.IsKey(bare) {
				markAux(owner)
				continue
			}
			return nil, nil, &core.UnknownColumnError{Table: owner.Name, Column: bare}
		}

		matched := false
		for _, t := range tables {
			if t.HasColumn(col) {
				matched = true
				if strings.EqualFold(col, schema.TimeColumn) {
					break // always present, nothing to select
				}
				if err := addCol(t, col); err != nil {
					return nil, nil, err
				}
			}
		}
		if matched {
			continue
		}
		if owner, ok := b.reg.KeyOwner(col); ok {
			markAux(owner)
			continue
		}
		return nil, nil, &core.UnknownColumnError{Table: tables[0].Name, Column: col}
	}
	return perTable, aux, nil
}

func (b *Builder) queryText(t *schema.TableSchema, cols []string, where []string, spec *Spec, auxiliary bool) string {
	selectList := b.selectList(t, cols, spec.Resample, auxiliary)

	parts := []string{fmt.Sprintf("SELECT %s FROM %s", selectList, spec.Granularity.Measurement(t.Name))}

	var pushed []string
	for _, clause := range where {
		if field := FieldName(clause); field != "" && t.HasColumn(field) {
			pushed = append(pushed, clause)
		}
	}
	if len(pushed) > 0 {
		parts = append(parts, "WHERE "+strings.Join(pushed, " AND "))
	}

	var groupBy []string
	if spec.Resample != "" && !auxiliary {
		groupBy = append(groupBy, fmt.Sprintf("time(%s)", spec.Resample))
	}
	groupBy = append(groupBy, t.Keys()...)
	if len(groupBy) > 0 {
		parts = append(parts, "GROUP BY "+strings.Join(groupBy, ", "))
	}

	if spec.Limit > 0 {
		parts = append(parts, fmt.Sprintf("LIMIT %d", spec.Limit))
	}
	return strings.Join(parts, " ")
}

// selectList renders either the raw columns or, when a resample rule is in
// effect, one aggregation expression per non-key column using the function
// registered in its schema.
func (b *Builder) selectList(t *schema.TableSchema, cols []string, resample string, auxiliary bool) string {
	if resample != "" && !auxiliary {
		var exprs []string
		for _, name := range cols {
			c, ok := t.Column(name)
			if !ok || c.Key {
				continue
			}
			exprs = append(exprs, fmt.Sprintf("%s(%s) AS %s", c.Agg, c.Name, c.Name))
		}
		if len(exprs) > 0 {
			return strings.Join(exprs, ", ")
		}
		// Only key columns requested; nothing to aggregate.
	}
	return strings.Join(cols, ", ")
}
