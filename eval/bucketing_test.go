package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/launchflag/ffcore/ldcontext"
	"github.com/launchflag/ffcore/ldmodel"
)

func experimentRollout() ldmodel.VariationOrRollout {
	return ldmodel.VariationOrRollout{
		Rollout: &ldmodel.Rollout{
			ContextKind: ldcontext.Kind("org"),
			Kind:        ldmodel.RolloutKindExperiment,
			Variations: []ldmodel.WeightedVariation{
				{Variation: 0, Weight: 50000},
				{Variation: 1, Weight: 50000},
			},
		},
	}
}

func TestVariationIndexForContextReportsInExperimentWhenContextPresent(t *testing.T) {
	vr := experimentRollout()
	c := ldcontext.NewWithKind(ldcontext.Kind("org"), "org-1")

	_, inExperiment, ok := variationIndexForContext(vr, c, "flag", "salt")

	assert := assert.New(t)
	assert.True(ok)
	assert.True(inExperiment)
}

func TestVariationIndexForContextNotInExperimentWhenNamedKindAbsent(t *testing.T) {
	vr := experimentRollout()
	// This context has no "org" sub-context, so the experiment's bucketing target is absent.
	c := ldcontext.New("user-1")

	index, inExperiment, ok := variationIndexForContext(vr, c, "flag", "salt")

	assert.True(t, ok)
	assert.False(t, inExperiment)
	assert.Equal(t, 0, index)
}

func TestBucketReportsContextPresence(t *testing.T) {
	present := ldcontext.NewWithKind(ldcontext.Kind("org"), "org-1")
	_, ok := bucket(present, "flag", "salt", nil, ldcontext.Ref{}, ldcontext.Kind("org"))
	assert.True(t, ok)

	absent := ldcontext.New("user-1")
	value, ok := bucket(absent, "flag", "salt", nil, ldcontext.Ref{}, ldcontext.Kind("org"))
	assert.False(t, ok)
	assert.Equal(t, float64(0), value)
}
