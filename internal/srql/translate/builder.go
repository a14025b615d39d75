package translate

import (
	"fmt"
	"strconv"
	"strings"

	"srql-engine/internal/common"
	"srql-engine/internal/srql/catalog"
	"srql-engine/internal/srql/parser"
)

// statement accumulates SQL text and positional binds with aligned numbering.
type statement struct {
	sql    strings.Builder
	params []BindParam
}

func (s *statement) push(p BindParam) string {
	s.params = append(s.params, p)
	return "$" + strconv.Itoa(len(s.params))
}

// nextPlaceholder names a placeholder number beyond the collected binds;
// reconcileLimitOffsetBinds fills those in afterwards.
func (s *statement) nextPlaceholder(extra int) string {
	return "$" + strconv.Itoa(len(s.params)+extra)
}

func quoteIdent(table, column string) string {
	return `"` + table + `"."` + column + `"`
}

// buildSelect renders a plain (non-downsampled) relational query.
func buildSelect(plan *Plan) (string, []BindParam, error) {
	entity := plan.Entity
	stmt := &statement{}

	stmt.sql.WriteString("SELECT ")
	stmt.sql.WriteString(selectList(entity))
	stmt.sql.WriteString(` FROM "` + entity.Table + `"`)

	where, err := buildPredicates(stmt, plan)
	if err != nil {
		return "", nil, err
	}
	if len(where) > 0 {
		stmt.sql.WriteString(" WHERE " + strings.Join(where, " AND "))
	}

	stmt.sql.WriteString(" ORDER BY " + orderList(entity, plan.Order))

	stmt.sql.WriteString(" LIMIT " + stmt.nextPlaceholder(1))
	stmt.sql.WriteString(" OFFSET " + stmt.nextPlaceholder(2))

	sql := stmt.sql.String()
	params := stmt.params
	if err := reconcileLimitOffsetBinds(sql, &params, plan.Limit, plan.Offset); err != nil {
		return "", nil, err
	}
	return sql, params, nil
}

func selectList(entity *catalog.Entity) string {
	parts := make([]string, 0, len(entity.Columns))
	for _, col := range entity.Columns {
		expr := quoteIdent(entity.Table, col.ColumnName())
		if col.SQLName != "" && col.SQLName != col.Name {
			expr += ` AS "` + col.Name + `"`
		}
		parts = append(parts, expr)
	}
	return strings.Join(parts, ", ")
}

// buildPredicates renders the time range first, then each filter in query
// order, so placeholder numbering is stable for a given query.
func buildPredicates(stmt *statement, plan *Plan) ([]string, error) {
	entity := plan.Entity
	var predicates []string

	if plan.TimeRange != nil {
		timeCol := quoteIdent(entity.Table, entity.TimeColumn)
		if !plan.TimeRange.Start.IsZero() {
			predicates = append(predicates, timeCol+" >= "+stmt.push(TimestamptzParam(plan.TimeRange.Start)))
		}
		predicates = append(predicates, timeCol+" <= "+stmt.push(TimestamptzParam(plan.TimeRange.End)))
	}

	forced := forcedMetricType(plan)
	if forced != "" {
		predicates = append(predicates,
			quoteIdent(entity.Table, "metric_type")+" = "+stmt.push(TextParam(forced)))
	}

	for _, filter := range plan.Filters {
		pred, err := buildFilterPredicate(stmt, entity, filter)
		if err != nil {
			return nil, err
		}
		if pred != "" {
			predicates = append(predicates, pred)
		}
	}

	return predicates, nil
}

func forcedMetricType(plan *Plan) string {
	if plan.Entity.Downsample == nil || plan.Entity.Downsample.ForcedMetricType == "" {
		return ""
	}
	for _, filter := range plan.Filters {
		if filter.Field == "metric_type" {
			return ""
		}
	}
	return plan.Entity.Downsample.ForcedMetricType
}

//nolint:gocyclo // operator dispatch per column capability.
func buildFilterPredicate(stmt *statement, entity *catalog.Entity, filter parser.Filter) (string, error) {
	col, ok := entity.Column(filter.Field)
	if !ok {
		return "", common.NewError(common.ErrQueryFieldUnknown,
			fmt.Sprintf("unsupported filter field '%s' for %s", filter.Field, entity.Name))
	}

	ident := quoteIdent(entity.Table, col.ColumnName())

	switch col.Cap {
	case catalog.CapFull:
		return textPredicate(stmt, ident, filter, true)

	case catalog.CapNoList:
		if filter.Value.IsList {
			return "", common.NewError(common.ErrQueryInvalid,
				fmt.Sprintf("%s filter does not support lists", filter.Field))
		}
		return textPredicate(stmt, ident, filter, false)

	case catalog.CapEquality:
		if filter.Value.IsList || filter.Op == parser.OpLike || filter.Op == parser.OpNotLike {
			return "", common.NewError(common.ErrQueryInvalid,
				fmt.Sprintf("%s filter only supports equality", filter.Field))
		}
		op := "="
		if filter.Op == parser.OpNotEq {
			op = "<>"
		}
		return ident + " " + op + " " + stmt.push(TextParam(filter.Value.Scalar)), nil

	case catalog.CapBool:
		if filter.Op != parser.OpEq && filter.Op != parser.OpNotEq {
			return "", common.NewError(common.ErrQueryInvalid,
				fmt.Sprintf("%s only supports equality", filter.Field))
		}
		value, err := parseBool(filter.Value.Scalar)
		if err != nil {
			return "", err
		}
		op := "="
		if filter.Op == parser.OpNotEq {
			op = "<>"
		}
		return ident + " " + op + " " + stmt.push(BoolParam(value)), nil

	case catalog.CapNumber:
		return numberPredicate(stmt, ident, filter)

	case catalog.CapContains:
		values := filter.Value.List
		if !filter.Value.IsList {
			values = []string{filter.Value.Scalar}
		}
		if len(values) == 0 {
			return "", nil
		}
		return "coalesce(" + ident + ", ARRAY[]::text[]) @> " + stmt.push(TextArrayParam(values)), nil

	default:
		return "", common.NewError(common.ErrQueryInvalid,
			fmt.Sprintf("%s is not filterable", filter.Field))
	}
}

func textPredicate(stmt *statement, ident string, filter parser.Filter, allowLists bool) (string, error) {
	switch filter.Op {
	case parser.OpEq:
		return ident + " = " + stmt.push(TextParam(filter.Value.Scalar)), nil
	case parser.OpNotEq:
		return ident + " <> " + stmt.push(TextParam(filter.Value.Scalar)), nil
	case parser.OpLike:
		return ident + " ILIKE " + stmt.push(TextParam(filter.Value.Scalar)), nil
	case parser.OpNotLike:
		return ident + " NOT ILIKE " + stmt.push(TextParam(filter.Value.Scalar)), nil
	case parser.OpIn, parser.OpNotIn:
		if !allowLists {
			return "", common.NewError(common.ErrQueryInvalid, "list values are not allowed here")
		}
		if len(filter.Value.List) == 0 {
			return "", nil
		}
		placeholders := make([]string, 0, len(filter.Value.List))
		for _, item := range filter.Value.List {
			placeholders = append(placeholders, stmt.push(TextParam(item)))
		}
		op := "IN"
		if filter.Op == parser.OpNotIn {
			op = "NOT IN"
		}
		return ident + " " + op + " (" + strings.Join(placeholders, ", ") + ")", nil
	default:
		return "", common.NewError(common.ErrQueryInvalid, "unsupported operator")
	}
}

func numberPredicate(stmt *statement, ident string, filter parser.Filter) (string, error) {
	if filter.Value.IsList {
		if len(filter.Value.List) == 0 {
			return "", nil
		}
		placeholders := make([]string, 0, len(filter.Value.List))
		for _, item := range filter.Value.List {
			n, err := strconv.ParseInt(item, 10, 64)
			if err != nil {
				return "", common.NewError(common.ErrQueryInvalid,
					fmt.Sprintf("invalid numeric value '%s'", item))
			}
			placeholders = append(placeholders, stmt.push(IntParam(n)))
		}
		op := "IN"
		if filter.Op == parser.OpNotIn {
			op = "NOT IN"
		}
		return ident + " " + op + " (" + strings.Join(placeholders, ", ") + ")", nil
	}

	if filter.Op == parser.OpLike || filter.Op == parser.OpNotLike {
		return "", common.NewError(common.ErrQueryInvalid, "pattern matching is not supported on numeric fields")
	}

	op := "="
	if filter.Op == parser.OpNotEq {
		op = "<>"
	}

	if n, err := strconv.ParseInt(filter.Value.Scalar, 10, 64); err == nil {
		return ident + " " + op + " " + stmt.push(IntParam(n)), nil
	}
	f, err := strconv.ParseFloat(filter.Value.Scalar, 64)
	if err != nil {
		return "", common.NewError(common.ErrQueryInvalid,
			fmt.Sprintf("invalid numeric value '%s'", filter.Value.Scalar))
	}
	return ident + " " + op + " " + stmt.push(FloatParam(f)), nil
}

// orderList renders the validated sort terms, falling back to the entity
// default. Unknown sort fields are dropped rather than rejected.
func orderList(entity *catalog.Entity, order []parser.OrderClause) string {
	var parts []string
	for _, clause := range order {
		col, ok := entity.Column(clause.Field)
		if !ok {
			continue
		}
		parts = append(parts, quoteIdent(entity.Table, col.ColumnName())+direction(clause.Descending))
	}

	if len(parts) == 0 {
		for _, sort := range entity.DefaultOrder {
			col, ok := entity.Column(sort.Field)
			if !ok {
				continue
			}
			parts = append(parts, quoteIdent(entity.Table, col.ColumnName())+direction(sort.Descending))
		}
	}

	return strings.Join(parts, ", ")
}

func direction(descending bool) string {
	if descending {
		return " DESC"
	}
	return " ASC"
}

func parseBool(raw string) (bool, error) {
	switch strings.ToLower(raw) {
	case "true", "1", "yes":
		return true, nil
	case "false", "0", "no":
		return false, nil
	default:
		return false, common.NewError(common.ErrQueryInvalid, fmt.Sprintf("invalid boolean value '%s'", raw))
	}
}

// maxDollarPlaceholder finds the highest $n placeholder in a statement.
func maxDollarPlaceholder(sql string) int {
	bytes := []byte(sql)
	max := 0
	i := 0

	for i < len(bytes) {
		if bytes[i] != '$' {
			i++
			continue
		}

		i++
		if i >= len(bytes) || bytes[i] < '0' || bytes[i] > '9' {
			continue
		}

		value := 0
		for i < len(bytes) && bytes[i] >= '0' && bytes[i] <= '9' {
			value = value*10 + int(bytes[i]-'0')
			i++
		}
		if value > max {
			max = value
		}
	}

	return max
}

// reconcileLimitOffsetBinds appends the trailing limit/offset binds and
// asserts the placeholder count lines up with the collected parameters.
func reconcileLimitOffsetBinds(sql string, params *[]BindParam, limit, offset int64) error {
	expected := maxDollarPlaceholder(sql)
	current := len(*params)
	if expected < current {
		return common.NewError(common.ErrInternal,
			fmt.Sprintf("sql expects %d binds but %d were collected", expected, current))
	}

	switch expected - current {
	case 0:
		return nil
	case 1:
		*params = append(*params, IntParam(limit))
		return nil
	case 2:
		*params = append(*params, IntParam(limit), IntParam(offset))
		return nil
	default:
		return common.NewError(common.ErrInternal,
			fmt.Sprintf("unexpected bind arity gap: %d", expected-current))
	}
}
