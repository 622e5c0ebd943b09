// Package ldvalue defines the JSON-typed value union used throughout the flag data model
// and evaluation results, so that callers and the evaluator never depend on interface{}.
package ldvalue

import (
	"encoding/json"
	"sort"
)

// ValueType describes the JSON type of a Value.
type ValueType int

// The possible JSON types a Value can hold.
const (
	NullType ValueType = iota
	BoolType
	NumberType
	StringType
	ArrayType
	ObjectType
)

func (t ValueType) String() string {
	switch t {
	case BoolType:
		return "bool"
	case NumberType:
		return "number"
	case StringType:
		return "string"
	case ArrayType:
		return "array"
	case ObjectType:
		return "object"
	default:
		return "null"
	}
}

// Value is an immutable JSON-typed value: null, bool, number, string, array, or object.
// The zero value is Null().
type Value struct {
	valueType ValueType
	boolVal   bool
	numVal    float64
	strVal    string
	arrayVal  []Value
	objectVal map[string]Value
}

// Null returns a null Value.
func Null() Value { return Value{} }

// Bool returns a boolean Value.
func Bool(b bool) Value { return Value{valueType: BoolType, boolVal: b} }

// Int returns a numeric Value from an int.
func Int(n int) Value { return Value{valueType: NumberType, numVal: float64(n)} }

// Float64 returns a numeric Value from a float64.
func Float64(n float64) Value { return Value{valueType: NumberType, numVal: n} }

// String returns a string Value.
func String(s string) Value { return Value{valueType: StringType, strVal: s} }

// Array returns an array Value. The slice is copied defensively.
func Array(items ...Value) Value {
	cp := make([]Value, len(items))
	copy(cp, items)
	return Value{valueType: ArrayType, arrayVal: cp}
}

// Object returns an object Value. The map is copied defensively.
func Object(m map[string]Value) Value {
	cp := make(map[string]Value, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return Value{valueType: ObjectType, objectVal: cp}
}

// Type returns the JSON type of the value.
func (v Value) Type() ValueType { return v.valueType }

// IsNull returns true if the value is null.
func (v Value) IsNull() bool { return v.valueType == NullType }

// BoolValue returns the value as a bool, or false if it is not a bool.
func (v Value) BoolValue() bool { return v.valueType == BoolType && v.boolVal }

// IntValue returns the value as an int, truncating toward zero if it is a non-integral number.
// Returns 0 for non-numeric types.
func (v Value) IntValue() int {
	if v.valueType != NumberType {
		return 0
	}
	return int(v.numVal)
}

// Float64Value returns the value as a float64. Returns 0 for non-numeric types.
func (v Value) Float64Value() float64 {
	if v.valueType != NumberType {
		return 0
	}
	return v.numVal
}

// StringValue returns the value as a string. Returns "" for non-string types.
func (v Value) StringValue() string {
	if v.valueType != StringType {
		return ""
	}
	return v.strVal
}

// Count returns the number of elements for an array or object value, else 0.
func (v Value) Count() int {
	switch v.valueType {
	case ArrayType:
		return len(v.arrayVal)
	case ObjectType:
		return len(v.objectVal)
	default:
		return 0
	}
}

// GetByIndex returns the element at the given index of an array value, or Null().
func (v Value) GetByIndex(i int) Value {
	if v.valueType != ArrayType || i < 0 || i >= len(v.arrayVal) {
		return Null()
	}
	return v.arrayVal[i]
}

// GetByKey returns the named property of an object value, or Null() if absent.
func (v Value) GetByKey(key string) Value {
	if v.valueType != ObjectType {
		return Null()
	}
	val, ok := v.objectVal[key]
	if !ok {
		return Null()
	}
	return val
}

// Keys returns the sorted keys of an object value, or nil.
func (v Value) Keys() []string {
	if v.valueType != ObjectType {
		return nil
	}
	keys := make([]string, 0, len(v.objectVal))
	for k := range v.objectVal {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Equal reports deep equality between two values.
func (v Value) Equal(o Value) bool {
	if v.valueType != o.valueType {
		return false
	}
	switch v.valueType {
	case BoolType:
		return v.boolVal == o.boolVal
	case NumberType:
		return v.numVal == o.numVal
	case StringType:
		return v.strVal == o.strVal
	case ArrayType:
		if len(v.arrayVal) != len(o.arrayVal) {
			return false
		}
		for i := range v.arrayVal {
			if !v.arrayVal[i].Equal(o.arrayVal[i]) {
				return false
			}
		}
		return true
	case ObjectType:
		if len(v.objectVal) != len(o.objectVal) {
			return false
		}
		for k, vv := range v.objectVal {
			ov, ok := o.objectVal[k]
			if !ok || !vv.Equal(ov) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// AsArbitraryValue converts a Value into ordinary Go interface{} values (nil, bool, float64,
// string, []interface{}, map[string]interface{}), suitable for handing to encoding/json.
func (v Value) AsArbitraryValue() interface{} {
	switch v.valueType {
	case BoolType:
		return v.boolVal
	case NumberType:
		return v.numVal
	case StringType:
		return v.strVal
	case ArrayType:
		out := make([]interface{}, len(v.arrayVal))
		for i, e := range v.arrayVal {
			out[i] = e.AsArbitraryValue()
		}
		return out
	case ObjectType:
		out := make(map[string]interface{}, len(v.objectVal))
		for k, e := range v.objectVal {
			out[k] = e.AsArbitraryValue()
		}
		return out
	default:
		return nil
	}
}

// FromArbitraryValue builds a Value from ordinary Go interface{} values as produced by
// encoding/json.Unmarshal into interface{}.
func FromArbitraryValue(raw interface{}) Value {
	switch t := raw.(type) {
	case nil:
		return Null()
	case bool:
		return Bool(t)
	case float64:
		return Float64(t)
	case string:
		return String(t)
	case []interface{}:
		items := make([]Value, len(t))
		for i, e := range t {
			items[i] = FromArbitraryValue(e)
		}
		return Array(items...)
	case map[string]interface{}:
		m := make(map[string]Value, len(t))
		for k, e := range t {
			m[k] = FromArbitraryValue(e)
		}
		return Object(m)
	default:
		return Null()
	}
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.AsArbitraryValue())
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = FromArbitraryValue(raw)
	return nil
}
