// Package executor dispatches built queries against the store with bounded
// concurrency and all-or-nothing batch semantics.
package executor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"github.com/INLOpen/nexusfetch/core"
	"github.com/INLOpen/nexusfetch/query"
	"github.com/INLOpen/nexusfetch/store"
)

// Result pairs a completed query with its rows. Results carry their query so
// consumers can identify them by table metadata; completion order is
// unrelated to submission order.
type Result struct {
	Query query.Built
	Rows  *core.RowSet
}

// ProgressFunc is invoked once per successfully completed query. It is for
// progress reporting only, never control flow.
type ProgressFunc func(completed, total int, q query.Built)

// Executor fans a query batch out over the store client. A fresh bounded
// worker set is created per call and torn down on completion; the Executor
// itself holds no per-call state and is safe for concurrent use.
type Executor struct {
	store  store.Client
	grace  time.Duration
	logger *slog.Logger
	tracer trace.Tracer
}

// New creates an Executor. grace is added to the store's configured timeout
// for each query's deadline. A nil tracer provider disables tracing.
func New(st store.Client, grace time.Duration, logger *slog.Logger, tp trace.TracerProvider) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	if tp == nil {
		tp = noop.NewTracerProvider()
	}
	return &Executor{
		store:  st,
		grace:  grace,
		logger: logger.With("component", "Executor"),
		tracer: tp.Tracer("github.com/INLOpen/nexusfetch/executor"),
	}
}

// ExecuteAll runs every query concurrently, with the worker count bounded by
// the number of queries, and returns the results in completion order. If any
// query times out or the store reports a failure, the whole batch fails and
// partial results are discarded.
func (e *Executor) ExecuteAll(ctx context.Context, queries []query.Built, onProgress ProgressFunc) ([]Result, error) {
	if len(queries) == 0 {
		return nil, nil
	}

	batchID := uuid.NewString()
	ctx, span := e.tracer.Start(ctx, "Executor.ExecuteAll", trace.WithAttributes(
		attribute.String("batch_id", batchID),
		attribute.Int("query_count", len(queries)),
	))
	defer span.End()

	timeout := e.store.Timeout() + e.grace
	e.logger.Debug("Dispatching query batch", "batch_id", batchID, "queries", len(queries), "timeout", timeout)

	resultCh := make(chan Result, len(queries))
	var mu sync.Mutex
	completed := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(len(queries))
	for _, q := range queries {
		q := q
		g.Go(func() error {
			qctx, cancel := context.WithTimeout(gctx, timeout)
			defer cancel()

			_, qspan := e.tracer.Start(qctx, "Executor.Query", trace.WithAttributes(
				attribute.String("table", q.Table.Name),
				attribute.Bool("auxiliary", q.Auxiliary),
			))
			defer qspan.End()

			e.logger.Debug("Executing query", "batch_id", batchID, "query", q.Text)
			rows, err := e.store.ExecuteQuery(qctx, q.Text)
			if err != nil {
				qspan.SetStatus(codes.Error, err.Error())
				e.logger.Error("Query failed", "batch_id", batchID, "table", q.Table.Name, "error", err)
				if !core.IsStoreError(err) {
					err = &core.StoreError{Query: q.Text, Err: err}
				}
				return err
			}
			e.logger.Debug("Query completed", "batch_id", batchID, "table", q.Table.Name, "rows", rows.Len())
			resultCh <- Result{Query: q, Rows: rows}

			mu.Lock()
			completed++
			done := completed
			mu.Unlock()
			if onProgress != nil {
				onProgress(done, len(queries), q)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, &core.BatchError{BatchID: batchID, Queries: len(queries), Err: err}
	}
	close(resultCh)

	results := make([]Result, 0, len(queries))
	for r := range resultCh {
		results = append(results, r)
	}
	return results, nil
}
