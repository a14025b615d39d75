// Package engine executes translated queries against PostgreSQL and shapes
// the API-facing responses.
package engine

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"srql-engine/internal/common"
	"srql-engine/internal/srql/catalog"
	"srql-engine/internal/srql/parser"
	"srql-engine/internal/srql/translate"
)

// Executor runs a parameterized statement and returns rows as generic maps.
type Executor interface {
	Query(ctx context.Context, sql string, args []interface{}) ([]map[string]interface{}, error)
}

// PoolExecutor adapts a pgx pool to the Executor interface.
type PoolExecutor struct {
	pool *pgxpool.Pool
}

// NewPoolExecutor wraps an established pool.
func NewPoolExecutor(pool *pgxpool.Pool) *PoolExecutor {
	return &PoolExecutor{pool: pool}
}

// Query implements Executor over pgx.
func (e *PoolExecutor) Query(ctx context.Context, sql string, args []interface{}) ([]map[string]interface{}, error) {
	rows, err := e.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToMap)
}

// TranslateRequest carries a query for translation without execution.
type TranslateRequest struct {
	Query  string `json:"query" binding:"required"`
	Limit  int64  `json:"limit,omitempty"`
	Cursor string `json:"cursor,omitempty"`
}

// QueryRequest carries a query for execution.
type QueryRequest struct {
	Query  string `json:"query" binding:"required"`
	Limit  int64  `json:"limit,omitempty"`
	Cursor string `json:"cursor,omitempty"`
}

// QueryResponse is the executed form: rows plus pagination and viz metadata.
type QueryResponse struct {
	Results    []map[string]interface{} `json:"results"`
	Entity     string                   `json:"entity"`
	Pagination translate.PaginationMeta `json:"pagination"`
	Viz        translate.VizMeta        `json:"viz"`
}

// QueryEngine parses, plans, translates, and optionally executes queries.
type QueryEngine struct {
	cat  catalog.Catalog
	exec Executor
	opts translate.Options
	log  zerolog.Logger
	now  func() time.Time
}

// New builds an engine. exec may be nil for translate-only deployments.
func New(cat catalog.Catalog, exec Executor, opts translate.Options, log zerolog.Logger) *QueryEngine {
	return &QueryEngine{
		cat:  cat,
		exec: exec,
		opts: opts,
		log:  log,
		now:  time.Now,
	}
}

// Entities lists the queryable entity names.
func (e *QueryEngine) Entities() []string {
	return e.cat.Entities()
}

func (e *QueryEngine) plan(query string, limit int64, cursor string) (*translate.Plan, error) {
	ast, err := parser.Parse(query)
	if err != nil {
		return nil, err
	}
	return translate.BuildPlan(e.cat, ast, limit, cursor, e.now(), e.opts)
}

// Translate renders a query to SQL without touching the database.
func (e *QueryEngine) Translate(req TranslateRequest) (*translate.Result, error) {
	plan, err := e.plan(req.Query, req.Limit, req.Cursor)
	if err != nil {
		return nil, err
	}
	return translate.Translate(plan, e.opts)
}

// Query translates and executes, deriving pagination from the fetched page.
func (e *QueryEngine) Query(ctx context.Context, req QueryRequest) (*QueryResponse, error) {
	if e.exec == nil {
		return nil, common.NewError(common.ErrUnavailable, "query execution is not configured")
	}

	plan, err := e.plan(req.Query, req.Limit, req.Cursor)
	if err != nil {
		return nil, err
	}
	result, err := translate.Translate(plan, e.opts)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	rows, err := e.exec.Query(ctx, result.SQL, translate.Values(result.Params))
	if err != nil {
		e.log.Error().Err(err).Str("entity", result.Entity).Msg("query execution failed")
		return nil, common.NewErrorWithCause(common.ErrQueryExecution, "query execution failed", err)
	}

	e.log.Debug().
		Str("entity", result.Entity).
		Int("rows", len(rows)).
		Dur("elapsed", time.Since(start)).
		Msg("query executed")

	if rows == nil {
		rows = []map[string]interface{}{}
	}
	return &QueryResponse{
		Results:    rows,
		Entity:     result.Entity,
		Pagination: translate.BuildPagination(plan.Limit, plan.Offset, int64(len(rows))),
		Viz:        result.Viz,
	}, nil
}
