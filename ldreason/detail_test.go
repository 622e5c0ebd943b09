package ldreason

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/launchflag/ffcore/ldvalue"
)

func TestNewDetail(t *testing.T) {
	d := NewDetail(ldvalue.Bool(true), 0, NewOff())
	assert.Equal(t, ldvalue.Bool(true), d.Value)
	assert.Equal(t, 0, d.VariationIndex)
	assert.False(t, d.IsDefaultValue())
}

func TestNewDetailForErrorHasNoVariationIndex(t *testing.T) {
	d := NewDetailForError(FlagNotFoundKind, ldvalue.Bool(false))
	assert.Equal(t, -1, d.VariationIndex)
	assert.True(t, d.IsDefaultValue())
	assert.True(t, d.Reason.IsError())
	assert.Equal(t, ldvalue.Bool(false), d.Value)
}
