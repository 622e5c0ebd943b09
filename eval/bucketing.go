// Package eval implements the pure flag evaluator and its bucketing primitive,
// operating over the immutable records in ldmodel.
package eval

import (
	"crypto/sha1" //nolint:gosec // bucketing is not a security boundary, only deterministic sharding
	"encoding/hex"
	"strconv"

	"github.com/launchflag/ffcore/ldcontext"
	"github.com/launchflag/ffcore/ldmodel"
	"github.com/launchflag/ffcore/ldvalue"
)

// bucketScale is 0xFFFFFFFFFFFFFFF (15 hex F's, i.e. 2^60-1), the fixed divisor that turns the
// first 15 hex digits of a SHA-1 digest into a value in [0, 1).
const bucketScale = float64(0xFFFFFFFFFFFFFFF)

// bucket computes the deterministic [0,1) bucket value for a context against a flag/segment
// key, salt, optional seed, and optional bucketBy attribute/context kind.
//
// The second return value reports whether the named context kind was present: when it is
// absent, the caller must report "not in experiment" rather than trusting the returned 0 value,
// which is otherwise indistinguishable from a context that genuinely bucketed to 0. A 0 bucket
// value (with contextPresent true) is also returned when the resolved bucketBy attribute is not
// a string or integer.
func bucket(c ldcontext.Context, key, salt string, seed *int, bucketBy ldcontext.Ref, contextKind ldcontext.Kind) (value float64, contextPresent bool) {
	sub, ok := c.ContextByKind(contextKind)
	if !ok {
		return 0, false
	}
	ref := bucketBy
	if !ref.IsValid() || ref.Depth() == 0 {
		ref = ldcontext.NewRef("key")
	}
	attrVal := sub.GetValue(ref)
	input, ok := bucketableStringValue(attrVal)
	if !ok {
		return 0, true
	}

	var hashInput string
	if seed != nil {
		hashInput = strconv.Itoa(*seed) + "." + input
	} else {
		hashInput = key + "." + salt + "." + input
	}

	sum := sha1.Sum([]byte(hashInput)) //nolint:gosec
	hexDigest := hex.EncodeToString(sum[:])
	first15 := hexDigest[:15]
	n, err := strconv.ParseUint(first15, 16, 64)
	if err != nil {
		return 0, true
	}
	return float64(n) / bucketScale, true
}

// bucketableStringValue converts a string or integer-valued attribute to its bucketing input
// string form; any other type (bool, float with fraction, array, object, null) is not
// bucketable.
func bucketableStringValue(v ldvalue.Value) (string, bool) {
	switch v.Type() {
	case ldvalue.StringType:
		return v.StringValue(), true
	case ldvalue.NumberType:
		f := v.Float64Value()
		if f != float64(int64(f)) {
			return "", false
		}
		return strconv.FormatInt(int64(f), 10), true
	default:
		return "", false
	}
}

// variationIndexForContext resolves a VariationOrRollout to a concrete variation index for the
// given context. Returns (-1, false, false) if the record is malformed
// (empty rollout / nil variation+rollout).  The second return value reports whether the
// selection came from an experiment-kind rollout with a tracked bucket (forces reason
// tracking); the third reports whether the record was well-formed, and is true for a fixed
// Variation as well as for a rollout.
func variationIndexForContext(
	vr ldmodel.VariationOrRollout,
	c ldcontext.Context,
	key, salt string,
) (index int, inExperiment bool, ok bool) {
	if vr.Variation != nil {
		return *vr.Variation, false, true
	}
	if vr.Rollout == nil || len(vr.Rollout.Variations) == 0 {
		return -1, false, false
	}
	ro := vr.Rollout
	b, contextPresent := bucket(c, key, salt, ro.Seed, ro.BucketBy, ro.ContextKind)
	target := b * 100000

	var cumulative float64
	for _, wv := range ro.Variations {
		cumulative += float64(wv.Weight)
		if target < cumulative {
			tracked := contextPresent && ro.Kind == ldmodel.RolloutKindExperiment && !wv.Untracked
			return wv.Variation, tracked, true
		}
	}
	// Rounding remainder (or weights summing to <100000): the last bucket absorbs it.
	last := ro.Variations[len(ro.Variations)-1]
	tracked := contextPresent && ro.Kind == ldmodel.RolloutKindExperiment && !last.Untracked
	return last.Variation, tracked, true
}
