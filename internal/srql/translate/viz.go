package translate

import (
	"srql-engine/internal/srql/catalog"
)

// VizKind names a rendering suggestion for a result set.
type VizKind string

const (
	VizTable      VizKind = "table"
	VizTimeseries VizKind = "timeseries"
	VizTopology   VizKind = "topology"
)

// ColumnMeta describes one result column to a renderer.
type ColumnMeta struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Semantic string `json:"semantic,omitempty"`
	Unit     string `json:"unit,omitempty"`
}

// VizSuggestion names a default rendering plus the axis columns to bind.
type VizSuggestion struct {
	Kind   VizKind `json:"kind"`
	X      string  `json:"x,omitempty"`
	Y      string  `json:"y,omitempty"`
	Series string  `json:"series,omitempty"`
}

// VizMeta accompanies translated and executed queries so a client can pick a
// sensible default presentation without inspecting rows.
type VizMeta struct {
	Suggestion VizSuggestion `json:"suggestion"`
	Entity     string        `json:"entity"`
	TimeColumn string        `json:"time_column,omitempty"`
	Columns    []ColumnMeta  `json:"columns"`
}

// MetaForPlan derives visualization metadata from the plan shape: cypher
// passthrough renders as topology, downsampled queries as timeseries, and
// everything else as a table over the entity's columns.
func MetaForPlan(plan *Plan) VizMeta {
	if plan.Entity.Graph {
		return VizMeta{
			Suggestion: VizSuggestion{Kind: VizTopology},
			Entity:     plan.Entity.Name,
			Columns: []ColumnMeta{
				{Name: "topology", Type: string(catalog.TypeJSON), Semantic: string(catalog.SemanticDetail)},
			},
		}
	}

	if plan.Downsample != nil {
		return VizMeta{
			Suggestion: VizSuggestion{Kind: VizTimeseries, X: "timestamp", Y: "value", Series: "series"},
			Entity:     plan.Entity.Name,
			TimeColumn: "timestamp",
			Columns: []ColumnMeta{
				{Name: "timestamp", Type: string(catalog.TypeTimestamp), Semantic: string(catalog.SemanticTime)},
				{Name: "series", Type: string(catalog.TypeString), Semantic: string(catalog.SemanticName)},
				{Name: "value", Type: string(catalog.TypeNumber), Semantic: string(catalog.SemanticMetric), Unit: downsampleUnit(plan)},
			},
		}
	}

	columns := make([]ColumnMeta, 0, len(plan.Entity.Columns))
	for _, col := range plan.Entity.Columns {
		columns = append(columns, ColumnMeta{
			Name:     col.Name,
			Type:     string(col.Type),
			Semantic: string(col.Semantic),
			Unit:     col.Unit,
		})
	}
	return VizMeta{
		Suggestion: VizSuggestion{Kind: VizTable},
		Entity:     plan.Entity.Name,
		TimeColumn: plan.Entity.TimeColumn,
		Columns:    columns,
	}
}

func downsampleUnit(plan *Plan) string {
	meta := plan.Entity.Downsample
	if meta == nil {
		return ""
	}
	if col, ok := plan.Entity.Column(meta.ValueColumn); ok {
		return col.Unit
	}
	return ""
}
