package ldreason

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReasonConstructors(t *testing.T) {
	assert.Equal(t, Reason{Kind: OffKind}, NewOff())
	assert.Equal(t, Reason{Kind: TargetMatchKind}, NewTargetMatch())
	assert.Equal(t, Reason{Kind: FallthroughKind}, NewFallthrough())
	assert.Equal(t, Reason{Kind: RuleMatchKind, RuleIndex: 2, RuleID: "rule-a"}, NewRuleMatch(2, "rule-a"))
	assert.Equal(t, Reason{Kind: PrerequisiteFailedKind, PrerequisiteKey: "other-flag"}, NewPrerequisiteFailed("other-flag"))
}

func TestNewErrorSetsErrorKindAndIsError(t *testing.T) {
	r := NewError(FlagNotFoundKind)
	assert.Equal(t, FlagNotFoundKind, r.Kind)
	assert.Equal(t, FlagNotFoundKind, r.ErrorKind)
	assert.True(t, r.IsError())
}

func TestNonErrorReasonIsNotError(t *testing.T) {
	assert.False(t, NewOff().IsError())
}

func TestWithInExperimentAndBigSegmentsStatusAreImmutable(t *testing.T) {
	base := NewRuleMatch(0, "rule-a")
	withExperiment := base.WithInExperiment(true)
	withStatus := base.WithBigSegmentsStatus(BigSegmentsStale)

	assert.False(t, base.InExperiment)
	assert.True(t, withExperiment.InExperiment)
	assert.Equal(t, BigSegmentsStatus(""), base.BigSegmentsStatus)
	assert.Equal(t, BigSegmentsStale, withStatus.BigSegmentsStatus)
}
