package fetch

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/INLOpen/nexusfetch/core"
	"github.com/INLOpen/nexusfetch/query"
	"github.com/INLOpen/nexusfetch/schema"
)

// Metadata lookups over the store. All of them are memoized; Reload and
// InvalidateCaches drop the memos.

// InvalidateCaches drops every memoized metadata lookup.
func (c *Client) InvalidateCaches() {
	c.mu.RLock()
	defer c.mu.RUnlock()
	c.timeRanges.Clear()
	c.nodeTables.Clear()
	c.distinct.Clear()
}

// TableTimeRange returns the table's earliest and latest timestamp, probing
// the finest tier with two single-row queries on the table's default field.
// A zero TimeRange means the table holds no data (for that node).
func (c *Client) TableTimeRange(ctx context.Context, table, nodeID string) (query.TimeRange, error) {
	_, reg, exec := c.snapshot()
	t, err := reg.Lookup(table)
	if err != nil {
		return query.TimeRange{}, err
	}

	key := "timerange|" + t.Name + "|" + nodeID
	return c.timeRanges.GetOrLoad(key, func() (query.TimeRange, error) {
		where := ""
		if nodeID != "" {
			where = fmt.Sprintf(" WHERE NodeId = '%s'", nodeID)
		}
		measurement := core.Gran10ms.Measurement(t.Name)
		probes := []query.Built{
			{Table: t, Text: fmt.Sprintf("SELECT %s FROM %s%s ORDER BY time LIMIT 1", t.DefaultField, measurement, where), Auxiliary: true},
			{Table: t, Text: fmt.Sprintf("SELECT %s FROM %s%s ORDER BY time DESC LIMIT 1", t.DefaultField, measurement, where), Auxiliary: true},
		}
		results, err := exec.ExecuteAll(ctx, probes, nil)
		if err != nil {
			return query.TimeRange{}, err
		}

		var tr query.TimeRange
		for _, r := range results {
			for _, s := range r.Rows.Series {
				ti := timeColumnIndex(s.Columns)
				if ti < 0 {
					continue
				}
				for _, row := range s.Values {
					if ti >= len(row) {
						continue
					}
					ts, ok := core.ToTime(row[ti])
					if !ok {
						continue
					}
					if tr.Min.IsZero() || ts.Before(tr.Min) {
						tr.Min = ts
					}
					if tr.Max.IsZero() || ts.After(tr.Max) {
						tr.Max = ts
					}
				}
			}
		}
		return tr, nil
	})
}

// NodesForTable returns the sorted node ids present per table.
func (c *Client) NodesForTable(ctx context.Context) (map[string][]string, error) {
	_, _, exec := c.snapshot()
	return c.nodeTables.GetOrLoad("nodes_for_table", func() (map[string][]string, error) {
		probe := []query.Built{{
			Table: &schema.TableSchema{Name: "tags"},
			Text:  "SHOW TAG VALUES WITH KEY = NodeId",
		}}
		results, err := exec.ExecuteAll(ctx, probe, nil)
		if err != nil {
			return nil, err
		}

		nodes := make(map[string]map[string]bool)
		for _, r := range results {
			for _, s := range r.Rows.Series {
				vi := valueColumnIndex(s.Columns)
				if vi < 0 {
					continue
				}
				table := s.Table()
				if nodes[table] == nil {
					nodes[table] = make(map[string]bool)
				}
				for _, row := range s.Values {
					if vi < len(row) {
						if id, ok := row[vi].(string); ok {
							nodes[table][id] = true
						}
					}
				}
			}
		}

		out := make(map[string][]string, len(nodes))
		for table, set := range nodes {
			ids := make([]string, 0, len(set))
			for id := range set {
				ids = append(ids, id)
			}
			sortNodeIDs(ids)
			out[table] = ids
		}
		return out, nil
	})
}

// AllNodes returns every node id available in the store, numerically sorted.
func (c *Client) AllNodes(ctx context.Context) ([]string, error) {
	perTable, err := c.NodesForTable(ctx)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool)
	for _, ids := range perTable {
		for _, id := range ids {
			set[id] = true
		}
	}
	all := make([]string, 0, len(set))
	for id := range set {
		all = append(all, id)
	}
	sortNodeIDs(all)
	return all, nil
}

// AllTables returns the tables that hold any data in the store, sorted.
func (c *Client) AllTables(ctx context.Context) ([]string, error) {
	perTable, err := c.NodesForTable(ctx)
	if err != nil {
		return nil, err
	}
	tables := make([]string, 0, len(perTable))
	for table := range perTable {
		tables = append(tables, table)
	}
	sort.Strings(tables)
	return tables, nil
}

// TablesForNode returns the tables the node appears in, sorted.
func (c *Client) TablesForNode(ctx context.Context, nodeID string) ([]string, error) {
	perTable, err := c.NodesForTable(ctx)
	if err != nil {
		return nil, err
	}
	var tables []string
	for table, ids := range perTable {
		for _, id := range ids {
			if id == nodeID {
				tables = append(tables, table)
				break
			}
		}
	}
	sort.Strings(tables)
	return tables, nil
}

// DistinctOptions narrows a DistinctValues lookup.
type DistinctOptions struct {
	NodeID      string
	Where       []string
	Granularity string // tier to probe; defaults to 1s
	StartTime   time.Time
	EndTime     time.Time
}

// DistinctValues returns the sorted set of unique values of table.field.
func (c *Client) DistinctValues(ctx context.Context, table, field string, opts DistinctOptions) ([]string, error) {
	_, reg, exec := c.snapshot()
	t, err := reg.Lookup(table)
	if err != nil {
		return nil, err
	}
	cols, err := reg.ResolveColumns(t, []string{field})
	if err != nil {
		return nil, err
	}
	canonical := cols[0]

	freq := opts.Granularity
	if freq == "" {
		freq = core.Gran1s.String()
	}
	gran := core.Granularity(freq)
	if !gran.IsValid() {
		return nil, &core.InvalidFrequencyError{Freq: freq}
	}

	where := append([]string(nil), opts.Where...)
	if opts.NodeID != "" {
		where = append(where, fmt.Sprintf("NodeId = '%s'", opts.NodeID))
	}
	if !opts.StartTime.IsZero() {
		where = append(where, fmt.Sprintf("time >= '%s'", opts.StartTime.UTC().Format(time.RFC3339Nano)))
	}
	if !opts.EndTime.IsZero() {
		where = append(where, fmt.Sprintf("time <= '%s'", opts.EndTime.UTC().Format(time.RFC3339Nano)))
	}
	text := fmt.Sprintf("SELECT DISTINCT(%s) FROM %s", canonical, gran.Measurement(t.Name))
	if len(where) > 0 {
		text += " WHERE " + strings.Join(where, " AND ")
	}

	key := strings.Join(append([]string{"distinct", t.Name, canonical, freq, opts.NodeID,
		opts.StartTime.Format(time.RFC3339Nano), opts.EndTime.Format(time.RFC3339Nano)}, opts.Where...), "|")
	return c.distinct.GetOrLoad(key, func() ([]string, error) {
		results, err := exec.ExecuteAll(ctx, []query.Built{{Table: t, Text: text, Auxiliary: true}}, nil)
		if err != nil {
			return nil, err
		}
		set := make(map[string]bool)
		for _, r := range results {
			for _, s := range r.Rows.Series {
				di := distinctColumnIndex(s.Columns)
				for _, row := range s.Values {
					for i, cell := range row {
						if cell == nil || i == timeColumnIndex(s.Columns) {
							continue
						}
						if di >= 0 && i != di {
							continue
						}
						set[fmt.Sprintf("%v", cell)] = true
					}
				}
			}
		}
		values := make([]string, 0, len(set))
		for v := range set {
			values = append(values, v)
		}
		sort.Strings(values)
		return values, nil
	})
}

func timeColumnIndex(columns []string) int {
	for i, c := range columns {
		if strings.EqualFold(c, schema.TimeColumn) {
			return i
		}
	}
	return -1
}

func valueColumnIndex(columns []string) int {
	for i, c := range columns {
		if strings.EqualFold(c, "value") {
			return i
		}
	}
	return -1
}

func distinctColumnIndex(columns []string) int {
	for i, c := range columns {
		if strings.EqualFold(c, "distinct") {
			return i
		}
	}
	return -1
}

// sortNodeIDs orders node ids numerically when possible, lexically otherwise.
func sortNodeIDs(ids []string) {
	sort.Slice(ids, func(i, j int) bool {
		a, errA := strconv.Atoi(ids[i])
		b, errB := strconv.Atoi(ids[j])
		if errA == nil && errB == nil {
			return a < b
		}
		return ids[i] < ids[j]
	})
}
