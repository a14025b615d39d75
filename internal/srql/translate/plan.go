package translate

import (
	"time"

	"srql-engine/internal/srql/catalog"
	"srql-engine/internal/srql/parser"
	"srql-engine/internal/srql/timerange"
)

// Options bound query planning.
type Options struct {
	DefaultLimit int64
	MaxLimit     int64
	GraphName    string
}

// Plan is a validated, executable form of a parsed query.
type Plan struct {
	Entity    *catalog.Entity
	Filters   []parser.Filter
	Order     []parser.OrderClause
	Limit     int64
	Offset    int64
	TimeRange *timerange.Range

	Downsample *parser.Downsample
	Cypher     string

	Stats bool
	Mode  string
}

// BuildPlan resolves the entity, clamps the limit, decodes the cursor, and
// resolves the time filter against now. requestLimit and requestCursor come
// from the surrounding API request and take precedence over query tokens.
func BuildPlan(cat catalog.Catalog, ast *parser.AST, requestLimit int64, requestCursor string, now time.Time, opts Options) (*Plan, error) {
	entity, err := cat.Resolve(ast.Entity)
	if err != nil {
		return nil, err
	}

	limit := requestLimit
	if limit <= 0 {
		limit = ast.Limit
	}
	limit = determineLimit(limit, opts)

	cursor := requestCursor
	if cursor == "" {
		cursor = ast.Cursor
	}
	var offset int64
	if cursor != "" {
		offset, err = DecodeCursor(cursor)
		if err != nil {
			return nil, err
		}
	}

	var tr *timerange.Range
	if ast.Time != nil {
		resolved, err := ast.Time.Resolve(now)
		if err != nil {
			return nil, err
		}
		tr = &resolved
	}

	plan := &Plan{
		Entity:     entity,
		Filters:    ast.Filters,
		Order:      ast.Order,
		Limit:      limit,
		Offset:     offset,
		TimeRange:  tr,
		Downsample: ast.Downsample,
		Cypher:     ast.Cypher,
		Stats:      ast.Stats,
		Mode:       ast.Mode,
	}
	normalizeDeviceAliases(plan)
	return plan, nil
}

func determineLimit(candidate int64, opts Options) int64 {
	limit := candidate
	if limit <= 0 {
		limit = opts.DefaultLimit
	}
	if limit < 1 {
		limit = 1
	}
	if limit > opts.MaxLimit {
		limit = opts.MaxLimit
	}
	return limit
}

// normalizeDeviceAliases rewrites uid/device_id references so either spelling
// works against every entity. Devices expose uid; everything else exposes
// device_id; agents carry their own uid and are left alone.
func normalizeDeviceAliases(plan *Plan) {
	for i := range plan.Filters {
		if mapped, ok := normalizeDeviceField(plan.Entity, plan.Filters[i].Field); ok {
			plan.Filters[i].Field = mapped
		}
	}
	for i := range plan.Order {
		if mapped, ok := normalizeDeviceField(plan.Entity, plan.Order[i].Field); ok {
			plan.Order[i].Field = mapped
		}
	}
	if plan.Downsample != nil && plan.Downsample.Series != "" {
		if mapped, ok := normalizeDeviceField(plan.Entity, plan.Downsample.Series); ok {
			plan.Downsample.Series = mapped
		}
	}
}

func normalizeDeviceField(entity *catalog.Entity, field string) (string, bool) {
	if entity.IDField == "" {
		return "", false
	}
	if field == "uid" && entity.IDField == "device_id" {
		return "device_id", true
	}
	if field == "device_id" && entity.IDField == "uid" {
		return "uid", true
	}
	return "", false
}
