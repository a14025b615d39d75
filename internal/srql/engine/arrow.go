package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/ipc"
	"github.com/apache/arrow/go/v14/arrow/memory"

	"srql-engine/internal/common"
	"srql-engine/internal/srql/catalog"
	"srql-engine/internal/srql/translate"
)

// EncodeArrow renders an executed result set as an Arrow IPC stream. Column
// types come from the visualization metadata: numbers become float64,
// booleans stay booleans, timestamps become millisecond timestamps, and
// everything else is rendered as a string.
func EncodeArrow(resp *QueryResponse) ([]byte, error) {
	schema := arrowSchema(resp.Viz)
	alloc := memory.NewGoAllocator()

	builder := array.NewRecordBuilder(alloc, schema)
	defer builder.Release()

	for _, row := range resp.Results {
		for i, col := range resp.Viz.Columns {
			if err := appendValue(builder.Field(i), col, row[col.Name]); err != nil {
				return nil, err
			}
		}
	}

	record := builder.NewRecord()
	defer record.Release()

	var buf bytes.Buffer
	writer := ipc.NewWriter(&buf, ipc.WithSchema(schema), ipc.WithAllocator(alloc))
	if err := writer.Write(record); err != nil {
		return nil, common.NewErrorWithCause(common.ErrInternal, "arrow encoding failed", err)
	}
	if err := writer.Close(); err != nil {
		return nil, common.NewErrorWithCause(common.ErrInternal, "arrow encoding failed", err)
	}
	return buf.Bytes(), nil
}

func arrowSchema(viz translate.VizMeta) *arrow.Schema {
	fields := make([]arrow.Field, 0, len(viz.Columns))
	for _, col := range viz.Columns {
		fields = append(fields, arrow.Field{
			Name:     col.Name,
			Type:     arrowType(col.Type),
			Nullable: true,
		})
	}
	return arrow.NewSchema(fields, nil)
}

func arrowType(columnType string) arrow.DataType {
	switch catalog.ColumnType(columnType) {
	case catalog.TypeNumber:
		return arrow.PrimitiveTypes.Float64
	case catalog.TypeBoolean:
		return arrow.FixedWidthTypes.Boolean
	case catalog.TypeTimestamp:
		return arrow.FixedWidthTypes.Timestamp_ms
	default:
		return arrow.BinaryTypes.String
	}
}

func appendValue(fb array.Builder, col translate.ColumnMeta, value interface{}) error {
	if value == nil {
		fb.AppendNull()
		return nil
	}

	switch b := fb.(type) {
	case *array.Float64Builder:
		f, ok := asFloat64(value)
		if !ok {
			fb.AppendNull()
			return nil
		}
		b.Append(f)
	case *array.BooleanBuilder:
		v, ok := value.(bool)
		if !ok {
			fb.AppendNull()
			return nil
		}
		b.Append(v)
	case *array.TimestampBuilder:
		t, ok := value.(time.Time)
		if !ok {
			fb.AppendNull()
			return nil
		}
		b.Append(arrow.Timestamp(t.UnixMilli()))
	case *array.StringBuilder:
		b.Append(asString(value))
	default:
		return common.ErrInternalError(fmt.Sprintf("unsupported arrow builder for column %s", col.Name))
	}
	return nil
}

func asFloat64(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}

func asString(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano)
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(raw)
	}
}
