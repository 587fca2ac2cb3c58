package core

import "strings"

// Series is one tagged group inside a query result: rows sharing the fixed
// tag values of their grouping columns. Values rows are ordered by time; the
// first entry of each row corresponds to Columns[0], which is always "time"
// (epoch milliseconds).
type Series struct {
	Measurement string
	Tags        map[string]string
	Columns     []string
	Values      [][]any
}

// Table strips the granularity suffix from the series measurement name,
// e.g. "ping_10ms" -> "ping".
func (s *Series) Table() string {
	if i := strings.LastIndexByte(s.Measurement, '_'); i > 0 {
		if Granularity(s.Measurement[i+1:]).IsValid() {
			return s.Measurement[:i]
		}
	}
	return s.Measurement
}

// RowSet is the result of one executed query: a sequence of tagged series.
// It is produced by the store client and consumed immediately by the merger.
type RowSet struct {
	Series []Series
}

// Len returns the total number of rows across all series.
func (rs *RowSet) Len() int {
	n := 0
	for i := range rs.Series {
		n += len(rs.Series[i].Values)
	}
	return n
}
