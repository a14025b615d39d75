package translate

import (
	"encoding/json"
	"time"
)

// BindKind tags the wire representation of a bind parameter.
type BindKind string

const (
	BindText        BindKind = "text"
	BindTextArray   BindKind = "text_array"
	BindIntArray    BindKind = "int_array"
	BindBool        BindKind = "bool"
	BindInt         BindKind = "int"
	BindFloat       BindKind = "float"
	BindTimestamptz BindKind = "timestamptz"
)

// BindParam is a typed positional SQL parameter. It serializes as a tagged
// union ({"t": kind, "v": value}) so non-Go consumers can rebuild the
// statement, and exposes the native Go value for pgx execution.
type BindParam struct {
	Kind  BindKind
	Text  string
	Texts []string
	Ints  []int64
	Bool  bool
	Int   int64
	Float float64
	Time  time.Time
}

// TextParam builds a text bind.
func TextParam(v string) BindParam { return BindParam{Kind: BindText, Text: v} }

// TextArrayParam builds a text[] bind.
func TextArrayParam(v []string) BindParam { return BindParam{Kind: BindTextArray, Texts: v} }

// IntArrayParam builds a bigint[] bind.
func IntArrayParam(v []int64) BindParam { return BindParam{Kind: BindIntArray, Ints: v} }

// BoolParam builds a boolean bind.
func BoolParam(v bool) BindParam { return BindParam{Kind: BindBool, Bool: v} }

// IntParam builds a bigint bind.
func IntParam(v int64) BindParam { return BindParam{Kind: BindInt, Int: v} }

// FloatParam builds a double precision bind.
func FloatParam(v float64) BindParam { return BindParam{Kind: BindFloat, Float: v} }

// TimestamptzParam builds a timestamptz bind.
func TimestamptzParam(v time.Time) BindParam {
	return BindParam{Kind: BindTimestamptz, Time: v.UTC()}
}

// Value returns the native value handed to the SQL driver.
func (b BindParam) Value() interface{} {
	switch b.Kind {
	case BindText:
		return b.Text
	case BindTextArray:
		return b.Texts
	case BindIntArray:
		return b.Ints
	case BindBool:
		return b.Bool
	case BindInt:
		return b.Int
	case BindFloat:
		return b.Float
	case BindTimestamptz:
		return b.Time
	default:
		return nil
	}
}

// MarshalJSON renders the tagged union form.
func (b BindParam) MarshalJSON() ([]byte, error) {
	var v interface{}
	switch b.Kind {
	case BindText:
		v = b.Text
	case BindTextArray:
		v = b.Texts
	case BindIntArray:
		v = b.Ints
	case BindBool:
		v = b.Bool
	case BindInt:
		v = b.Int
	case BindFloat:
		v = b.Float
	case BindTimestamptz:
		v = b.Time.Format(time.RFC3339Nano)
	}
	return json.Marshal(struct {
		T BindKind    `json:"t"`
		V interface{} `json:"v"`
	}{T: b.Kind, V: v})
}

// Values converts a parameter list into driver arguments.
func Values(params []BindParam) []interface{} {
	args := make([]interface{}, 0, len(params))
	for _, p := range params {
		args = append(args, p.Value())
	}
	return args
}
