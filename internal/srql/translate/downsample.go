package translate

import (
	"fmt"
	"strings"
	"time"

	"srql-engine/internal/common"
)

// buildDownsample renders a time_bucket aggregation. Downsampled queries
// always need an explicit time range so the bucket count stays bounded.
func buildDownsample(plan *Plan) (string, []BindParam, error) {
	entity := plan.Entity
	meta := entity.Downsample
	if meta == nil {
		return "", nil, common.NewError(common.ErrQueryInvalid,
			fmt.Sprintf("%s does not support downsampling", entity.Name))
	}
	if plan.TimeRange == nil {
		return "", nil, common.NewError(common.ErrQueryInvalid,
			"downsampled queries require a time filter")
	}

	secs := int64(plan.Downsample.Bucket / time.Second)
	if secs <= 0 {
		return "", nil, common.NewError(common.ErrQueryInvalid, "bucket size must be at least one second")
	}

	series := plan.Downsample.Series
	if series == "" {
		series = meta.DefaultSeries
	}
	if !entity.SeriesAllowed(series) {
		return "", nil, common.NewError(common.ErrQueryInvalid,
			fmt.Sprintf("'%s' cannot be used as a series for %s", series, entity.Name))
	}
	seriesCol, ok := entity.Column(series)
	if !ok {
		return "", nil, common.NewError(common.ErrQueryFieldUnknown,
			fmt.Sprintf("unsupported series field '%s' for %s", series, entity.Name))
	}
	valueCol, ok := entity.Column(meta.ValueColumn)
	if !ok {
		return "", nil, common.ErrInternalError(
			fmt.Sprintf("downsample value column '%s' missing from %s", meta.ValueColumn, entity.Name))
	}

	stmt := &statement{}
	stmt.sql.WriteString(fmt.Sprintf(
		`SELECT time_bucket(make_interval(secs => %d), %s) AS timestamp, %s::text AS series, %s(%s) AS value`,
		secs,
		quoteIdent(entity.Table, entity.TimeColumn),
		quoteIdent(entity.Table, seriesCol.ColumnName()),
		plan.Downsample.Agg,
		quoteIdent(entity.Table, valueCol.ColumnName()),
	))
	stmt.sql.WriteString(` FROM "` + entity.Table + `"`)

	where, err := buildPredicates(stmt, plan)
	if err != nil {
		return "", nil, err
	}
	if len(where) > 0 {
		stmt.sql.WriteString(" WHERE " + strings.Join(where, " AND "))
	}

	stmt.sql.WriteString(" GROUP BY 1, 2 ORDER BY 1 ASC")
	stmt.sql.WriteString(" LIMIT " + stmt.nextPlaceholder(1))
	stmt.sql.WriteString(" OFFSET " + stmt.nextPlaceholder(2))

	sql := stmt.sql.String()
	params := stmt.params
	if err := reconcileLimitOffsetBinds(sql, &params, plan.Limit, plan.Offset); err != nil {
		return "", nil, err
	}
	return sql, params, nil
}
