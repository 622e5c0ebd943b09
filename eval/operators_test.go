package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/launchflag/ffcore/ldcontext"
	"github.com/launchflag/ffcore/ldmodel"
	"github.com/launchflag/ffcore/ldvalue"
)

func TestOperatorMatchesUsesPreprocessedRegex(t *testing.T) {
	clause := &ldmodel.Clause{Op: ldmodel.OperatorMatches, Values: []ldvalue.Value{ldvalue.String("^foo.*")}}
	clause.Preprocess()

	fn := operatorFn(ldmodel.OperatorMatches)
	assert.True(t, fn(clause, 0, ldvalue.String("foobar")))
	assert.False(t, fn(clause, 0, ldvalue.String("barfoo")))
}

func TestOperatorMatchesFallsBackWithoutPreprocessing(t *testing.T) {
	clause := &ldmodel.Clause{Op: ldmodel.OperatorMatches, Values: []ldvalue.Value{ldvalue.String("^foo.*")}}

	fn := operatorFn(ldmodel.OperatorMatches)
	assert.True(t, fn(clause, 0, ldvalue.String("foobar")))
}

func TestOperatorMatchesPreprocessedParseFailureNeverMatches(t *testing.T) {
	clause := &ldmodel.Clause{Op: ldmodel.OperatorMatches, Values: []ldvalue.Value{ldvalue.String("[")}}
	clause.Preprocess()

	fn := operatorFn(ldmodel.OperatorMatches)
	assert.False(t, fn(clause, 0, ldvalue.String("anything")))
}

func TestOperatorSemVerUsesPreprocessedValue(t *testing.T) {
	clause := &ldmodel.Clause{Op: ldmodel.OperatorSemVerLessThan, Values: []ldvalue.Value{ldvalue.String("2.0.0")}}
	clause.Preprocess()

	fn := operatorFn(ldmodel.OperatorSemVerLessThan)
	assert.True(t, fn(clause, 0, ldvalue.String("1.0.0")))
	assert.False(t, fn(clause, 0, ldvalue.String("3.0.0")))
}

func TestOperatorBeforeUsesPreprocessedValue(t *testing.T) {
	clause := &ldmodel.Clause{Op: ldmodel.OperatorBefore, Values: []ldvalue.Value{ldvalue.String("2024-01-01T00:00:00Z")}}
	clause.Preprocess()

	fn := operatorFn(ldmodel.OperatorBefore)
	assert.True(t, fn(clause, 0, ldvalue.String("2023-01-01T00:00:00Z")))
	assert.False(t, fn(clause, 0, ldvalue.String("2025-01-01T00:00:00Z")))
}

func TestValueInSetMatchesLargeInClause(t *testing.T) {
	values := make([]ldvalue.Value, 0, 20)
	for i := 0; i < 20; i++ {
		values = append(values, ldvalue.String(string(rune('a'+i))))
	}
	clause := &ldmodel.Clause{Op: ldmodel.OperatorIn, Values: values}
	clause.Preprocess()

	matched, hasSet := clause.ValueInSet(ldvalue.String("c"))
	assert.True(t, hasSet)
	assert.True(t, matched)

	matched, hasSet = clause.ValueInSet(ldvalue.String("zz"))
	assert.True(t, hasSet)
	assert.False(t, matched)
}

func TestValueInSetHasNoTableBelowThreshold(t *testing.T) {
	clause := &ldmodel.Clause{Op: ldmodel.OperatorIn, Values: []ldvalue.Value{ldvalue.String("a")}}
	clause.Preprocess()

	_, hasSet := clause.ValueInSet(ldvalue.String("a"))
	assert.False(t, hasSet)
}

func TestMatchAnyUsesValueSetForLargeInClause(t *testing.T) {
	values := make([]ldvalue.Value, 0, 20)
	for i := 0; i < 20; i++ {
		values = append(values, ldvalue.Int(i))
	}
	clause := &ldmodel.Clause{Op: ldmodel.OperatorIn, Attribute: ldcontext.NewRef("n"), Values: values}
	clause.Preprocess()

	fn := operatorFn(clause.Op)
	assert.True(t, matchAny(clause, fn, ldvalue.Int(5)))
	assert.False(t, matchAny(clause, fn, ldvalue.Int(999)))
}
