package eval

import (
	"github.com/launchflag/ffcore/ldmodel"
	"github.com/launchflag/ffcore/ldreason"
)

// DataProvider is the read-only view of the data store that the evaluator needs in order to
// resolve prerequisites and segment-match clauses by key. Implementations must tolerate being
// asked for a key that does not exist.
type DataProvider interface {
	GetFlag(key string) (*ldmodel.Flag, bool)
	GetSegment(key string) (*ldmodel.Segment, bool)
}

// BigSegmentMembership is a single context's resolved answer from the big-segment oracle: a
// yes/no verdict per segment key, or nil if the oracle has no opinion and rule evaluation
// should proceed normally.
type BigSegmentMembership interface {
	CheckMembership(segmentKey string) *bool
}

// BigSegmentProvider resolves big-segment membership for a context, returning the health of
// the answer alongside it. A nil BigSegmentProvider is treated as NOT_CONFIGURED.
type BigSegmentProvider interface {
	GetMembership(contextKey string) (BigSegmentMembership, ldreason.BigSegmentsStatus)
}

// PrerequisiteEvent records the outcome of evaluating one prerequisite flag while evaluating
// another, for analytics purposes.
type PrerequisiteEvent struct {
	FlagKey          string
	PrerequisiteFlag ldmodel.Flag
	Result           ldreason.Detail
}

// PrerequisiteSink receives a PrerequisiteEvent for every prerequisite evaluated, whether it
// succeeded or failed.
type PrerequisiteSink func(PrerequisiteEvent)
