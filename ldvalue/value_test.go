package ldvalue

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZeroValueIsNull(t *testing.T) {
	var v Value
	assert.True(t, v.IsNull())
	assert.Equal(t, NullType, v.Type())
}

func TestConstructorsAndAccessors(t *testing.T) {
	assert.True(t, Bool(true).BoolValue())
	assert.Equal(t, 3, Int(3).IntValue())
	assert.Equal(t, 3.5, Float64(3.5).Float64Value())
	assert.Equal(t, "hi", String("hi").StringValue())
}

func TestAccessorsReturnZeroForWrongType(t *testing.T) {
	assert.False(t, String("x").BoolValue())
	assert.Equal(t, 0, String("x").IntValue())
	assert.Equal(t, "", Int(3).StringValue())
}

func TestArrayAccess(t *testing.T) {
	v := Array(Int(1), Int(2), Int(3))
	assert.Equal(t, 3, v.Count())
	assert.Equal(t, Int(2), v.GetByIndex(1))
	assert.True(t, v.GetByIndex(5).IsNull())
}

func TestObjectAccess(t *testing.T) {
	v := Object(map[string]Value{"a": Int(1), "b": Int(2)})
	assert.Equal(t, 2, v.Count())
	assert.Equal(t, Int(1), v.GetByKey("a"))
	assert.True(t, v.GetByKey("missing").IsNull())
	assert.Equal(t, []string{"a", "b"}, v.Keys())
}

func TestArrayConstructorCopiesDefensively(t *testing.T) {
	items := []Value{Int(1), Int(2)}
	v := Array(items...)
	items[0] = Int(99)
	assert.Equal(t, Int(1), v.GetByIndex(0))
}

func TestEqual(t *testing.T) {
	assert.True(t, Int(1).Equal(Int(1)))
	assert.False(t, Int(1).Equal(Int(2)))
	assert.False(t, Int(1).Equal(String("1")))
	assert.True(t, Array(Int(1), Int(2)).Equal(Array(Int(1), Int(2))))
	assert.False(t, Array(Int(1), Int(2)).Equal(Array(Int(1), Int(3))))
}

func TestEqualObjectsComparesValuesNotJustKeys(t *testing.T) {
	a := Object(map[string]Value{"x": Int(1)})
	b := Object(map[string]Value{"x": Int(2)})
	assert.False(t, a.Equal(b))
	assert.True(t, a.Equal(Object(map[string]Value{"x": Int(1)})))
}

func TestArbitraryValueRoundTrip(t *testing.T) {
	orig := Object(map[string]Value{
		"name": String("flag"),
		"tags": Array(String("a"), String("b")),
		"on":   Bool(true),
	})
	raw := orig.AsArbitraryValue()
	back := FromArbitraryValue(raw)
	assert.True(t, orig.Equal(back))
}

func TestJSONMarshalUnmarshal(t *testing.T) {
	v := Object(map[string]Value{"a": Int(1), "b": Array(Bool(true), Null())})
	data, err := json.Marshal(v)
	require.NoError(t, err)

	var out Value
	require.NoError(t, json.Unmarshal(data, &out))
	assert.True(t, v.Equal(out))
}
