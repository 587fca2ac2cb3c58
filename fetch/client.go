// Package fetch is the public entry point: it turns a request for tables,
// columns, filters and a time window into one time-aligned result table,
// fanning the per-table queries out over the store and running the
// merge/normalize/resample/interpolate pipeline on the results.
package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/INLOpen/nexusfetch/cache"
	"github.com/INLOpen/nexusfetch/config"
	"github.com/INLOpen/nexusfetch/core"
	"github.com/INLOpen/nexusfetch/executor"
	"github.com/INLOpen/nexusfetch/frame"
	"github.com/INLOpen/nexusfetch/query"
	"github.com/INLOpen/nexusfetch/schema"
	"github.com/INLOpen/nexusfetch/store"
)

// Request describes one FetchTable call.
type Request struct {
	Tables      []string
	Columns     []string // empty selects all columns of every table
	NodeIDs     []string // entity-id filter
	Where       []string // free-form filter clauses, pushed down per table
	StartTime   time.Time
	EndTime     time.Time
	Granularity string // one of the registered tiers; empty selects from the span
	Resample    string // bucket rule, e.g. "1h"; empty disables resampling
	Interpolate string // "linear", "nearest", "ffill", "bfill"; empty disables
	Limit       int    // per-query row limit; 0 applies the configured default

	// OnProgress, if set, is invoked once per successfully completed query.
	OnProgress executor.ProgressFunc
}

// Client coordinates the fetch pipeline. Schema metadata and the aggregation
// registry are read-only after construction and shared across concurrent
// calls; per-call state is never shared. Reload rebuilds the derived state
// when configuration changes.
type Client struct {
	mu     sync.RWMutex
	cfg    *config.Config
	store  store.Client
	reg    *schema.Registry
	exec   *executor.Executor
	logger *slog.Logger
	tracer trace.Tracer
	tp     trace.TracerProvider

	timeRanges *cache.LRU[query.TimeRange]
	nodeTables *cache.LRU[map[string][]string]
	distinct   *cache.LRU[[]string]
}

// NewClient creates a fetch client over the given store transport. A nil
// config applies the defaults, a nil tracer provider disables tracing.
func NewClient(st store.Client, cfg *config.Config, logger *slog.Logger, tp trace.TracerProvider) *Client {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if tp == nil {
		tp = noop.NewTracerProvider()
	}
	c := &Client{
		store:  st,
		logger: logger.With("component", "FetchClient"),
		tracer: tp.Tracer("github.com/INLOpen/nexusfetch/fetch"),
		tp:     tp,
	}
	c.rebuild(cfg)
	return c
}

// rebuild derives all config-dependent state. Callers hold mu or are inside
// construction.
func (c *Client) rebuild(cfg *config.Config) {
	c.cfg = cfg
	c.reg = schema.DefaultRegistry()
	grace := cfg.BatchGrace(5*time.Second, c.logger)
	c.exec = executor.New(c.store, grace, c.logger, c.tp)
	c.timeRanges = cache.NewLRU[query.TimeRange](cfg.Cache.Capacity)
	c.nodeTables = cache.NewLRU[map[string][]string](cfg.Cache.Capacity)
	c.distinct = cache.NewLRU[[]string](cfg.Cache.Capacity)
}

// Reload applies a new configuration: the registry and executor are rebuilt
// and every memoized metadata lookup is dropped. Wired as the callback of
// config.Watcher.
func (c *Client) Reload(cfg *config.Config) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rebuild(cfg)
	c.logger.Info("Configuration reloaded, metadata caches cleared")
}

// SetStore swaps the store transport (e.g. after connection parameters
// changed) and drops the memoized lookups that came from the old one.
func (c *Client) SetStore(st store.Client) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store = st
	c.rebuild(c.cfg)
}

// Registry returns the active schema registry.
func (c *Client) Registry() *schema.Registry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.reg
}

// snapshot returns the call-stable view of the shared state.
func (c *Client) snapshot() (*config.Config, *schema.Registry, *executor.Executor) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg, c.reg, c.exec
}

// FetchTable retrieves the requested tables and assembles them into one
// time-aligned table. All failures abort the whole call; there is no
// partial-result mode.
func (c *Client) FetchTable(ctx context.Context, req Request) (*frame.Frame, error) {
	cfg, reg, exec := c.snapshot()

	ctx, span := c.tracer.Start(ctx, "FetchClient.FetchTable", trace.WithAttributes(
		attribute.StringSlice("tables", req.Tables),
		attribute.Int("nodes", len(req.NodeIDs)),
	))
	defer span.End()
	fail := func(err error) (*frame.Frame, error) {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if len(req.Tables) == 0 {
		return fail(&core.UnknownTableError{Table: ""})
	}
	// Caller errors surface before any query executes.
	tables := make([]*schema.TableSchema, 0, len(req.Tables))
	for _, name := range req.Tables {
		t, err := reg.Lookup(name)
		if err != nil {
			return fail(err)
		}
		tables = append(tables, t)
	}
	if req.Interpolate != "" && !frame.ValidInterpolation(req.Interpolate) {
		return fail(fmt.Errorf("unknown interpolation method %q", req.Interpolate))
	}
	var resampleRule time.Duration
	if req.Resample != "" {
		d, err := core.ParseExtendedDuration(req.Resample)
		if err != nil || d <= 0 {
			return fail(fmt.Errorf("invalid resample rule %q: %w", req.Resample, err))
		}
		resampleRule = d
	}

	start, end, err := c.resolveWindow(ctx, cfg, tables, req.StartTime, req.EndTime)
	if err != nil {
		return fail(err)
	}
	gran, err := query.ResolveGranularity(req.Granularity, end.Sub(start), len(req.NodeIDs) > 0)
	if err != nil {
		return fail(err)
	}

	limit := req.Limit
	if limit <= 0 {
		limit = cfg.Query.RowLimit
	}
	spec := &query.Spec{
		Tables:      req.Tables,
		Columns:     req.Columns,
		NodeIDs:     req.NodeIDs,
		Where:       req.Where,
		StartTime:   start,
		EndTime:     end,
		Granularity: gran,
		Resample:    req.Resample,
		Interpolate: req.Interpolate,
		Limit:       limit,
	}
	built, err := query.NewBuilder(reg).Build(spec)
	if err != nil {
		return fail(err)
	}

	results, err := exec.ExecuteAll(ctx, built, req.OnProgress)
	if err != nil {
		return fail(err)
	}

	// Results arrive in completion order; each one is identified by the
	// table recorded in its query, never by position.
	frames := make([]*frame.Frame, 0, len(results))
	for _, r := range results {
		frames = append(frames, frame.FromRowSet(r.Rows, r.Query.Table, reg))
	}
	merged := frame.MergeAll(frames)
	frame.Normalize(merged)

	if resampleRule > 0 && merged.NumRows() > 0 {
		merged = frame.Resample(merged, resampleRule)
	}
	if req.Interpolate != "" {
		merged = frame.Interpolate(merged, req.Interpolate)
	}
	merged.SortByTime()

	c.logger.Debug("Fetch complete", "tables", req.Tables, "rows", merged.NumRows(), "columns", merged.NumCols())
	return merged, nil
}

// resolveWindow fills in missing request bounds from the tables' available
// data, then validates the window.
func (c *Client) resolveWindow(ctx context.Context, cfg *config.Config, tables []*schema.TableSchema, start, end time.Time) (time.Time, time.Time, error) {
	var available []query.TimeRange
	if start.IsZero() || end.IsZero() {
		for _, t := range tables {
			tr, err := c.TableTimeRange(ctx, t.Name, "")
			if err != nil {
				return time.Time{}, time.Time{}, err
			}
			available = append(available, tr)
		}
	}
	window := config.ParseDuration(cfg.Query.DefaultWindow, 14*24*time.Hour, c.logger)
	return query.ResolveWindow(start, end, available, time.Now().UTC(), window)
}
