package ldmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/launchflag/ffcore/ldvalue"
)

func TestClausePreprocessedValueUnavailableBeforePreprocess(t *testing.T) {
	c := Clause{Op: OperatorMatches, Values: []ldvalue.Value{ldvalue.String("^a")}}
	_, ok := c.PreprocessedValue(0)
	assert.False(t, ok)
}

func TestClausePreprocessCachesCompiledRegex(t *testing.T) {
	c := Clause{Op: OperatorMatches, Values: []ldvalue.Value{ldvalue.String("^a")}}
	c.Preprocess()

	pv, ok := c.PreprocessedValue(0)
	assert.True(t, ok)
	assert.False(t, pv.ParseFailed)
	assert.NotNil(t, pv.Regex)
	assert.True(t, pv.Regex.MatchString("abc"))
}

func TestClausePreprocessMarksUnparseableRegexAsFailed(t *testing.T) {
	c := Clause{Op: OperatorMatches, Values: []ldvalue.Value{ldvalue.String("[")}}
	c.Preprocess()

	pv, ok := c.PreprocessedValue(0)
	assert.True(t, ok)
	assert.True(t, pv.ParseFailed)
}

func TestClausePreprocessCachesSemVer(t *testing.T) {
	c := Clause{Op: OperatorSemVerEqual, Values: []ldvalue.Value{ldvalue.String("1.2.3")}}
	c.Preprocess()

	pv, ok := c.PreprocessedValue(0)
	assert.True(t, ok)
	assert.False(t, pv.ParseFailed)
	assert.Equal(t, 0, pv.SemVer.Compare(mustParseSemVer(t, "1.2.3")))
}

func TestClauseValueInSetOnlyBuiltAboveThreshold(t *testing.T) {
	small := Clause{Op: OperatorIn, Values: []ldvalue.Value{ldvalue.String("a"), ldvalue.String("b")}}
	small.Preprocess()
	_, hasSet := small.ValueInSet(ldvalue.String("a"))
	assert.False(t, hasSet)

	values := make([]ldvalue.Value, 0, largeValueSetThreshold+1)
	for i := 0; i <= largeValueSetThreshold; i++ {
		values = append(values, ldvalue.Int(i))
	}
	large := Clause{Op: OperatorIn, Values: values}
	large.Preprocess()

	matched, hasSet := large.ValueInSet(ldvalue.Int(3))
	assert.True(t, hasSet)
	assert.True(t, matched)

	matched, hasSet = large.ValueInSet(ldvalue.Int(-1))
	assert.True(t, hasSet)
	assert.False(t, matched)
}

func mustParseSemVer(t *testing.T, s string) SemVer {
	t.Helper()
	sv, ok := ParseSemVer(s)
	assert.True(t, ok)
	return sv
}
