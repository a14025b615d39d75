package translate

import (
	"fmt"
	"strings"

	"srql-engine/internal/common"
)

// mutationKeywords are the Cypher clauses that write to the graph. The
// passthrough is strictly read-only, so any of these fails translation.
var mutationKeywords = []string{
	"create", "merge", "delete", "detach", "set", "remove", "drop",
}

// buildCypher wraps a Cypher query in an Apache AGE invocation that returns
// the matched nodes as a single jsonb topology document. The statement binds
// exactly two parameters, limit and offset.
func buildCypher(plan *Plan, graphName string) (string, []BindParam, error) {
	cypher := strings.TrimSpace(plan.Cypher)
	if cypher == "" {
		return "", nil, common.NewError(common.ErrQueryInvalid, "graph queries require a cypher clause")
	}
	if err := ensureReadOnlyCypher(cypher); err != nil {
		return "", nil, err
	}
	if graphName == "" {
		graphName = "topology"
	}

	sql := fmt.Sprintf(
		`WITH g AS (SELECT result FROM cypher('%s', $cq$ %s $cq$) AS (result agtype) LIMIT $1 OFFSET $2) `+
			`SELECT jsonb_build_object('nodes', coalesce(jsonb_agg(g.result::jsonb), jsonb_build_array()), `+
			`'relationships', jsonb_build_array()) AS topology FROM g`,
		graphName, cypher,
	)

	params := []BindParam{IntParam(plan.Limit), IntParam(plan.Offset)}
	return sql, params, nil
}

// ensureReadOnlyCypher rejects mutating clauses. Keywords inside quoted
// string literals do not count.
func ensureReadOnlyCypher(cypher string) error {
	for _, word := range cypherWords(cypher) {
		for _, keyword := range mutationKeywords {
			if word == keyword {
				return common.NewError(common.ErrQueryNotReadOnly,
					fmt.Sprintf("cypher passthrough is read-only, '%s' is not allowed", strings.ToUpper(keyword)))
			}
		}
	}
	return nil
}

// cypherWords tokenizes the query into lowercased bare words, skipping
// single- and double-quoted literals.
func cypherWords(cypher string) []string {
	var words []string
	var current strings.Builder
	var quote rune

	flush := func() {
		if current.Len() > 0 {
			words = append(words, strings.ToLower(current.String()))
			current.Reset()
		}
	}

	for _, r := range cypher {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			flush()
			quote = r
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_':
			current.WriteRune(r)
		default:
			flush()
		}
	}
	flush()
	return words
}
