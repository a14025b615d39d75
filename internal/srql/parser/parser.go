// Package parser converts the SRQL key:value syntax into a structured AST.
//
// A query is a line of whitespace-separated tokens. Quoted and parenthesized
// spans stay intact during tokenization, so values may carry spaces and
// comma lists. Each token is split on its first colon into key and value.
package parser

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"srql-engine/internal/common"
	"srql-engine/internal/srql/timerange"
)

// FilterOp enumerates filter comparison operators.
type FilterOp int

const (
	OpEq FilterOp = iota
	OpNotEq
	OpLike
	OpNotLike
	OpIn
	OpNotIn
)

// Value is either a scalar or a parenthesized list.
type Value struct {
	Scalar string
	List   []string
	IsList bool
}

// AsScalar returns the scalar form or an error for list values.
func (v Value) AsScalar() (string, error) {
	if v.IsList {
		return "", common.NewError(common.ErrQueryInvalid, "expected scalar value")
	}
	return v.Scalar, nil
}

// Filter is a single field predicate.
type Filter struct {
	Field string
	Op    FilterOp
	Value Value
}

// Negated reports whether the operator is one of the negated forms.
func (f Filter) Negated() bool {
	return f.Op == OpNotEq || f.Op == OpNotLike || f.Op == OpNotIn
}

// OrderClause is one sort term.
type OrderClause struct {
	Field      string
	Descending bool
}

// Downsample carries the bucket:/agg:/series: aggregation hints.
type Downsample struct {
	Bucket time.Duration
	Agg    string
	Series string
}

// AST is the parsed query.
type AST struct {
	Entity     string
	Filters    []Filter
	Order      []OrderClause
	Limit      int64
	Cursor     string
	Time       *timerange.Spec
	Downsample *Downsample
	Cypher     string

	// Streaming hints, recorded but not acted on.
	Stats   bool
	Window  string
	Bounded bool
	Mode    string
}

var validAggs = []string{"avg", "min", "max", "sum", "count"}

// Parse converts an SRQL string into an AST. Entity names are kept verbatim
// (lowercased); catalog validation happens during planning.
func Parse(input string) (*AST, error) {
	ast := &AST{}
	var ds Downsample

	for _, token := range tokenize(input) {
		rawKey, rawValue, err := splitToken(token)
		if err != nil {
			return nil, err
		}
		key := strings.ToLower(strings.TrimSpace(rawKey))
		value := parseValue(rawValue)

		switch key {
		case "in":
			scalar, err := value.AsScalar()
			if err != nil {
				return nil, err
			}
			ast.Entity = strings.ToLower(stripQuotes(scalar))
		case "limit":
			scalar, err := value.AsScalar()
			if err != nil {
				return nil, err
			}
			parsed, err := strconv.ParseInt(scalar, 10, 64)
			if err != nil {
				return nil, common.NewError(common.ErrQueryInvalid, "invalid limit")
			}
			if parsed <= 0 {
				return nil, common.NewError(common.ErrQueryInvalid, "limit must be a positive integer")
			}
			ast.Limit = parsed
		case "sort", "order":
			scalar, err := value.AsScalar()
			if err != nil {
				return nil, err
			}
			ast.Order = append(ast.Order, parseOrder(scalar)...)
		case "time", "timeframe":
			scalar, err := value.AsScalar()
			if err != nil {
				return nil, err
			}
			spec, err := timerange.Parse(scalar)
			if err != nil {
				return nil, err
			}
			ast.Time = spec
		case "cursor":
			scalar, err := value.AsScalar()
			if err != nil {
				return nil, err
			}
			ast.Cursor = scalar
		case "bucket":
			scalar, err := value.AsScalar()
			if err != nil {
				return nil, err
			}
			bucket, err := time.ParseDuration(scalar)
			if err != nil || bucket <= 0 {
				return nil, common.NewError(common.ErrQueryInvalid, fmt.Sprintf("invalid bucket '%s'", scalar))
			}
			ds.Bucket = bucket
		case "agg":
			scalar, err := value.AsScalar()
			if err != nil {
				return nil, err
			}
			agg := strings.ToLower(scalar)
			if !common.Contains(validAggs, agg) {
				return nil, common.NewError(common.ErrQueryInvalid, fmt.Sprintf("unsupported aggregate '%s'", scalar))
			}
			ds.Agg = agg
		case "series":
			scalar, err := value.AsScalar()
			if err != nil {
				return nil, err
			}
			ds.Series = strings.ToLower(scalar)
		case "cypher":
			scalar, err := value.AsScalar()
			if err != nil {
				return nil, err
			}
			ast.Cypher = scalar
		case "stats":
			scalar, _ := value.AsScalar()
			ast.Stats = strings.EqualFold(scalar, "true")
		case "window":
			scalar, _ := value.AsScalar()
			ast.Window = scalar
		case "bounded":
			scalar, _ := value.AsScalar()
			ast.Bounded = strings.EqualFold(scalar, "true")
		case "mode":
			scalar, _ := value.AsScalar()
			ast.Mode = scalar
		default:
			ast.Filters = append(ast.Filters, buildFilter(rawKey, value))
		}
	}

	if ast.Entity == "" {
		return nil, common.NewError(common.ErrQueryInvalid, "queries must include an in:<entity> token")
	}

	if ds.Bucket > 0 || ds.Agg != "" || ds.Series != "" {
		if ds.Bucket <= 0 {
			return nil, common.NewError(common.ErrQueryInvalid, "downsampling requires a bucket: token")
		}
		if ds.Agg == "" {
			ds.Agg = "avg"
		}
		ast.Downsample = &ds
	}

	return ast, nil
}

func buildFilter(key string, value Value) Filter {
	field := strings.TrimSpace(key)
	negated := false
	if stripped, ok := strings.CutPrefix(field, "!"); ok {
		field = stripped
		negated = true
	}

	var op FilterOp
	if value.IsList {
		op = OpIn
		if negated {
			op = OpNotIn
		}
	} else if strings.Contains(value.Scalar, "%") {
		op = OpLike
		if negated {
			op = OpNotLike
		}
	} else {
		op = OpEq
		if negated {
			op = OpNotEq
		}
	}

	return Filter{
		Field: strings.ToLower(field),
		Op:    op,
		Value: value,
	}
}

func parseOrder(raw string) []OrderClause {
	var clauses []OrderClause
	for _, segment := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(segment)
		if trimmed == "" {
			continue
		}

		parts := strings.SplitN(trimmed, ":", 3)
		field := strings.ToLower(strings.TrimSpace(parts[0]))
		if field == "" {
			continue
		}

		descending := true
		if len(parts) > 1 && strings.EqualFold(strings.TrimSpace(parts[1]), "asc") {
			descending = false
		}

		clauses = append(clauses, OrderClause{Field: field, Descending: descending})
	}
	return clauses
}

func tokenize(input string) []string {
	var tokens []string
	var current strings.Builder
	var quote rune
	depth := 0
	escape := false

	flush := func() {
		if trimmed := strings.TrimSpace(current.String()); trimmed != "" {
			tokens = append(tokens, trimmed)
		}
		current.Reset()
	}

	for _, ch := range input {
		if escape {
			current.WriteRune(ch)
			escape = false
			continue
		}

		if quote != 0 {
			if ch == '\\' {
				escape = true
				continue
			}
			if ch == quote {
				quote = 0
			}
			current.WriteRune(ch)
			continue
		}

		switch {
		case ch == '"' || ch == '\'' || ch == '`':
			quote = ch
			current.WriteRune(ch)
		case ch == '(':
			depth++
			current.WriteRune(ch)
		case ch == ')':
			if depth > 0 {
				depth--
			}
			current.WriteRune(ch)
		case isSpace(ch) && depth == 0:
			flush()
		default:
			current.WriteRune(ch)
		}
	}
	flush()

	return tokens
}

func splitToken(token string) (string, string, error) {
	key, value, found := strings.Cut(token, ":")
	if !found {
		return "", "", common.NewError(common.ErrQueryInvalid, fmt.Sprintf("missing ':' in token '%s'", token))
	}
	return key, value, nil
}

func parseValue(raw string) Value {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "(") && strings.HasSuffix(trimmed, ")") {
		inner := trimmed[1 : len(trimmed)-1]
		var values []string
		for _, item := range splitList(inner) {
			cleaned := stripQuotes(strings.TrimSpace(item))
			if cleaned != "" {
				values = append(values, cleaned)
			}
		}
		return Value{List: values, IsList: true}
	}
	return Value{Scalar: stripQuotes(trimmed)}
}

func splitList(value string) []string {
	var items []string
	var current strings.Builder
	var quote rune
	depth := 0
	escape := false

	for _, ch := range value {
		if escape {
			current.WriteRune(ch)
			escape = false
			continue
		}

		if quote != 0 {
			if ch == '\\' {
				escape = true
				continue
			}
			if ch == quote {
				quote = 0
			}
			current.WriteRune(ch)
			continue
		}

		switch {
		case ch == '"' || ch == '\'' || ch == '`':
			quote = ch
			current.WriteRune(ch)
		case ch == '(':
			depth++
			current.WriteRune(ch)
		case ch == ')':
			if depth > 0 {
				depth--
			}
			current.WriteRune(ch)
		case ch == ',' && depth == 0:
			items = append(items, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteRune(ch)
		}
	}

	if trimmed := strings.TrimSpace(current.String()); trimmed != "" {
		items = append(items, trimmed)
	}

	return items
}

func stripQuotes(value string) string {
	value = strings.Trim(value, `"`)
	return strings.Trim(value, "'")
}

func isSpace(ch rune) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}
