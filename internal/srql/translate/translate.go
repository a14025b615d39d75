// Package translate turns parsed queries into parameterized PostgreSQL, with
// typed binds, cursor pagination, and visualization metadata.
package translate

import (
	"srql-engine/internal/common"
)

// Result is a fully translated query, ready for execution or for handing to
// an external runner.
type Result struct {
	SQL        string         `json:"sql"`
	Params     []BindParam    `json:"params"`
	Entity     string         `json:"entity"`
	Pagination PaginationMeta `json:"pagination"`
	Viz        VizMeta        `json:"viz"`
}

// Translate renders a plan into SQL. Graph plans go through the Cypher
// passthrough, downsampled plans through time_bucket aggregation, and the
// rest through the plain relational builder.
func Translate(plan *Plan, opts Options) (*Result, error) {
	var (
		sql    string
		params []BindParam
		err    error
	)

	switch {
	case plan.Entity.Graph:
		sql, params, err = buildCypher(plan, opts.GraphName)
	case plan.Cypher != "":
		err = common.NewError(common.ErrQueryInvalid,
			"cypher clauses are only valid on the graph entity")
	case plan.Downsample != nil:
		sql, params, err = buildDownsample(plan)
	default:
		sql, params, err = buildSelect(plan)
	}
	if err != nil {
		return nil, err
	}

	return &Result{
		SQL:        sql,
		Params:     params,
		Entity:     plan.Entity.Name,
		Pagination: TranslatePagination(plan.Limit, plan.Offset),
		Viz:        MetaForPlan(plan),
	}, nil
}
