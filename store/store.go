// Package store defines the contract between the fetch core and the
// time-series store transport. Connection lifecycle, authentication and
// retries belong to the implementation, not to this module.
package store

import (
	"context"
	"time"

	"github.com/INLOpen/nexusfetch/core"
)

// Client executes query text against the store. Implementations must be
// safe for concurrent use; the executor dispatches one call per query in
// parallel. Failures are reported as *core.StoreError.
type Client interface {
	// ExecuteQuery runs one query and returns its tagged row groups.
	ExecuteQuery(ctx context.Context, query string) (*core.RowSet, error)

	// Timeout is the store's configured per-query timeout. The executor
	// derives its own deadline from it.
	Timeout() time.Duration
}
