// Package query builds store query text from table schemas and resolves the
// request time window and granularity tier. It never parses store responses.
package query

import (
	"time"

	"github.com/INLOpen/nexusfetch/core"
)

// Spec is the ephemeral description of one fetch request. It is constructed
// per call and never persisted.
type Spec struct {
	Tables      []string
	Columns     []string // empty or "*" selects all columns
	NodeIDs     []string // entity-id filter, expands to one OR-disjunction on NodeId
	Where       []string // free-form filter clauses, pushed down per table
	StartTime   time.Time
	EndTime     time.Time
	Granularity core.Granularity // empty selects a tier from the time span
	Resample    string           // bucket rule, e.g. "1h"; empty disables resampling
	Interpolate string           // "", "linear", "nearest", "ffill", "bfill"
	Limit       int              // per-query row limit; 0 applies the configured default
}

// EntityFiltered reports whether the request narrows to specific entities.
// Tier ceilings differ for entity-filtered requests.
func (s *Spec) EntityFiltered() bool {
	return len(s.NodeIDs) > 0
}
