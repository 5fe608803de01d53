package domain

import (
	"fmt"
	"time"
)

type Kind int

const (
	KindNull Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindTime:
		return "time"
	default:
		return "unknown"
	}
}

// Value is one cell of a fact row: a closed set of scalar variants so that
// rule code fails fast on shape mismatches instead of silently misreading
// a driver-provided dynamic value.
type Value struct {
	kind Kind
	s    string
	i    int64
	f    float64
	b    bool
	t    time.Time
}

func NullValue() Value             { return Value{kind: KindNull} }
func StringValue(v string) Value   { return Value{kind: KindString, s: v} }
func IntValue(v int64) Value       { return Value{kind: KindInt, i: v} }
func FloatValue(v float64) Value   { return Value{kind: KindFloat, f: v} }
func BoolValue(v bool) Value       { return Value{kind: KindBool, b: v} }
func TimeValue(v time.Time) Value  { return Value{kind: KindTime, t: v} }

// ValueFromAny normalizes a driver-scanned value into a Value.
func ValueFromAny(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return NullValue(), nil
	case string:
		return StringValue(x), nil
	case []byte:
		return StringValue(string(x)), nil
	case int64:
		return IntValue(x), nil
	case int:
		return IntValue(int64(x)), nil
	case int32:
		return IntValue(int64(x)), nil
	case float64:
		return FloatValue(x), nil
	case bool:
		return BoolValue(x), nil
	case time.Time:
		return TimeValue(x), nil
	default:
		return Value{}, fmt.Errorf("unsupported driver value type %T", v)
	}
}

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) AsString() (string, error) {
	if v.kind != KindString {
		return "", fmt.Errorf("value is %s, not string", v.kind)
	}
	return v.s, nil
}

func (v Value) AsInt() (int64, error) {
	switch v.kind {
	case KindInt:
		return v.i, nil
	case KindBool:
		// bit columns surface as bool or int depending on the driver
		if v.b {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("value is %s, not int", v.kind)
	}
}

func (v Value) AsFloat() (float64, error) {
	switch v.kind {
	case KindFloat:
		return v.f, nil
	case KindInt:
		return float64(v.i), nil
	default:
		return 0, fmt.Errorf("value is %s, not float", v.kind)
	}
}

func (v Value) AsBool() (bool, error) {
	switch v.kind {
	case KindBool:
		return v.b, nil
	case KindInt:
		return v.i != 0, nil
	default:
		return false, fmt.Errorf("value is %s, not bool", v.kind)
	}
}

func (v Value) AsTime() (time.Time, error) {
	if v.kind != KindTime {
		return time.Time{}, fmt.Errorf("value is %s, not time", v.kind)
	}
	return v.t, nil
}

// Row is one record of a fact: column name to scalar value.
type Row map[string]Value

func (r Row) Value(name string) (Value, bool) {
	v, ok := r[name]
	return v, ok
}

func (r Row) String(name string) (string, error) {
	v, ok := r[name]
	if !ok {
		return "", fmt.Errorf("column %q missing", name)
	}
	return v.AsString()
}

func (r Row) Int(name string) (int64, error) {
	v, ok := r[name]
	if !ok {
		return 0, fmt.Errorf("column %q missing", name)
	}
	return v.AsInt()
}

func (r Row) Bool(name string) (bool, error) {
	v, ok := r[name]
	if !ok {
		return false, fmt.Errorf("column %q missing", name)
	}
	return v.AsBool()
}

func (r Row) Time(name string) (time.Time, error) {
	v, ok := r[name]
	if !ok {
		return time.Time{}, fmt.Errorf("column %q missing", name)
	}
	return v.AsTime()
}

// StringOr returns the column as a string, or def when the column is
// missing, null, or of another kind.
func (r Row) StringOr(name, def string) string {
	v, ok := r[name]
	if !ok {
		return def
	}
	s, err := v.AsString()
	if err != nil {
		return def
	}
	return s
}

func (r Row) IntOr(name string, def int64) int64 {
	v, ok := r[name]
	if !ok {
		return def
	}
	i, err := v.AsInt()
	if err != nil {
		return def
	}
	return i
}

func (r Row) BoolOr(name string, def bool) bool {
	v, ok := r[name]
	if !ok {
		return def
	}
	b, err := v.AsBool()
	if err != nil {
		return def
	}
	return b
}

func (r Row) TimeOr(name string, def time.Time) time.Time {
	v, ok := r[name]
	if !ok {
		return def
	}
	t, err := v.AsTime()
	if err != nil {
		return def
	}
	return t
}
