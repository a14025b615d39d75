// Package catalog defines the queryable entities, their backing tables, and
// per-column capabilities. Translation validates every filter and sort field
// against this catalog before any SQL is produced.
package catalog

import (
	"fmt"
	"sync"

	"srql-engine/internal/common"
)

// ColumnType classifies a column for visualization metadata.
type ColumnType string

const (
	TypeString    ColumnType = "string"
	TypeNumber    ColumnType = "number"
	TypeBoolean   ColumnType = "boolean"
	TypeTimestamp ColumnType = "timestamp"
	TypeJSON      ColumnType = "json"
	TypeArray     ColumnType = "array"
)

// Semantic hints what a column means to a chart or table renderer.
type Semantic string

const (
	SemanticID      Semantic = "id"
	SemanticName    Semantic = "name"
	SemanticAddress Semantic = "address"
	SemanticStatus  Semantic = "status"
	SemanticMetric  Semantic = "metric"
	SemanticTime    Semantic = "time"
	SemanticDetail  Semantic = "detail"
)

// Capability restricts which filter operators a column accepts.
type Capability int

const (
	// CapFull allows equality, LIKE, and IN lists.
	CapFull Capability = iota
	// CapEquality allows only = and <>.
	CapEquality
	// CapNoList allows equality and LIKE but rejects lists.
	CapNoList
	// CapBool parses true|1|yes / false|0|no and allows = and <>.
	CapBool
	// CapNumber binds numeric values; lists become per-element binds.
	CapNumber
	// CapContains matches text arrays by containment.
	CapContains
	// CapNone marks a column as select-only.
	CapNone
)

// Column describes one queryable or selectable column.
type Column struct {
	// Name is the field name used in SRQL tokens.
	Name string
	// SQLName is the backing column; empty means same as Name.
	SQLName  string
	Type     ColumnType
	Semantic Semantic
	Unit     string
	Cap      Capability
}

// ColumnName returns the backing SQL column name.
func (c Column) ColumnName() string {
	if c.SQLName != "" {
		return c.SQLName
	}
	return c.Name
}

// Sort is a default ordering term, expressed in SRQL field names.
type Sort struct {
	Field      string
	Descending bool
}

// DownsampleMeta is present for entities that support bucket:/agg: queries.
type DownsampleMeta struct {
	ValueColumn      string
	DefaultSeries    string
	SeriesFields     []string
	ForcedMetricType string
}

// Entity is one queryable target of the in: token.
type Entity struct {
	Name         string
	Aliases      []string
	Table        string
	TimeColumn   string
	Columns      []Column
	DefaultOrder []Sort
	Downsample   *DownsampleMeta

	// IDField is the entity's identifier for uid/device_id alias
	// normalization: "uid" on devices, "device_id" elsewhere. Empty
	// disables remapping (agents carry both fields).
	IDField string

	// Graph marks the Cypher passthrough pseudo-entity.
	Graph bool
}

// Column looks up a column by its SRQL field name.
func (e *Entity) Column(field string) (Column, bool) {
	for _, col := range e.Columns {
		if col.Name == field {
			return col, true
		}
	}
	return Column{}, false
}

// SeriesAllowed reports whether a field may serve as a downsample series.
func (e *Entity) SeriesAllowed(field string) bool {
	if e.Downsample == nil {
		return false
	}
	return common.Contains(e.Downsample.SeriesFields, field)
}

// Catalog resolves entity names (including aliases) to definitions.
type Catalog interface {
	Resolve(name string) (*Entity, error)
	Entities() []string
	Register(entity *Entity) error
}

// CatalogImpl is the standard Catalog implementation.
type CatalogImpl struct {
	mu       sync.RWMutex
	entities map[string]*Entity
	aliases  map[string]string
}

// New creates an empty catalog.
func New() *CatalogImpl {
	return &CatalogImpl{
		entities: make(map[string]*Entity),
		aliases:  make(map[string]string),
	}
}

// Default returns a catalog populated with the built-in entities.
func Default() *CatalogImpl {
	c := New()
	for _, entity := range builtinEntities() {
		// builtin definitions are static and well-formed
		_ = c.Register(entity)
	}
	return c
}

// Register adds an entity and its aliases to the catalog.
func (c *CatalogImpl) Register(entity *Entity) error {
	if entity == nil || entity.Name == "" {
		return common.NewError(common.ErrInvalidInput, "entity name is required")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entities[entity.Name]; exists {
		return common.NewError(common.ErrAlreadyExists, fmt.Sprintf("entity already registered: %s", entity.Name))
	}

	c.entities[entity.Name] = entity
	for _, alias := range entity.Aliases {
		c.aliases[alias] = entity.Name
	}
	return nil
}

// Resolve maps a raw entity name or alias to its definition.
func (c *CatalogImpl) Resolve(name string) (*Entity, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if entity, ok := c.entities[name]; ok {
		return entity, nil
	}
	if canonical, ok := c.aliases[name]; ok {
		return c.entities[canonical], nil
	}
	return nil, common.ErrQueryEntityUnknownError(name)
}

// Entities lists the canonical entity names.
func (c *CatalogImpl) Entities() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.entities))
	for name := range c.entities {
		names = append(names, name)
	}
	return names
}
