package flagstate

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchflag/ffcore/ldreason"
	"github.com/launchflag/ffcore/ldvalue"
)

func TestBuilderAddFlagAndGetFlag(t *testing.T) {
	b := NewBuilder(true)
	b.AddFlag("my-flag", FlagState{Value: ldvalue.Bool(true), Version: 3, Variation: ldvalue.NewOptionalInt(0)})
	state := b.Build()

	assert.True(t, state.IsValid())
	flag, ok := state.GetFlag("my-flag")
	require.True(t, ok)
	assert.Equal(t, ldvalue.Bool(true), flag.Value)
	assert.Equal(t, 3, flag.Version)
}

func TestBuilderWithoutReasonsStripsReason(t *testing.T) {
	b := NewBuilder(false)
	b.AddFlag("my-flag", FlagState{Value: ldvalue.Bool(true), Reason: ldreason.NewFallthrough()})
	state := b.Build()

	flag, ok := state.GetFlag("my-flag")
	require.True(t, ok)
	assert.Equal(t, ldreason.Reason{}, flag.Reason)
}

func TestInvalidateMarksSnapshotInvalid(t *testing.T) {
	state := NewBuilder(true).Invalidate().Build()
	assert.False(t, state.IsValid())
}

func TestToValuesMapDiscardsMetadata(t *testing.T) {
	b := NewBuilder(true)
	b.AddFlag("a", FlagState{Value: ldvalue.Int(1)})
	b.AddFlag("b", FlagState{Value: ldvalue.Int(2)})
	values := b.Build().ToValuesMap()
	assert.Equal(t, map[string]ldvalue.Value{"a": ldvalue.Int(1), "b": ldvalue.Int(2)}, values)
}

func TestMarshalJSONShape(t *testing.T) {
	b := NewBuilder(true)
	b.AddFlag("my-flag", FlagState{Value: ldvalue.String("x"), Version: 1, Variation: ldvalue.NewOptionalInt(0)})
	state := b.Build()

	data, err := json.Marshal(state)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, "x", out["my-flag"])
	assert.Equal(t, true, out["$valid"])
	flagsState, ok := out["$flagsState"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, flagsState, "my-flag")
}
