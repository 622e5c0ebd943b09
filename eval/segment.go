package eval

import (
	"github.com/launchflag/ffcore/ldcontext"
	"github.com/launchflag/ffcore/ldmodel"
	"github.com/launchflag/ffcore/ldreason"
)

// segmentContains resolves a segment by key and tests context membership, recording the
// health of any big-segment lookup performed along the way into st so the top-level Evaluate
// call can attach it to the returned Reason.
func (e *Evaluator) segmentContains(key string, c ldcontext.Context, st *evalState) bool {
	segment, found := e.data.GetSegment(key)
	if !found || segment.Deleted {
		return false
	}
	return e.segmentMatches(segment, c, st)
}

func (e *Evaluator) segmentMatches(segment *ldmodel.Segment, c ldcontext.Context, st *evalState) bool {
	sub, hasDefault := c.ContextByKind(ldcontext.DefaultKind)

	if hasDefault {
		if segment.IncludesKey(sub.Key()) {
			return true
		}
		if segment.ExcludesKey(sub.Key()) {
			return false
		}
	}

	for i := range segment.IncludedContexts {
		ts := &segment.IncludedContexts[i]
		if target, ok := c.ContextByKind(ts.ContextKind); ok && ts.Contains(target.Key()) {
			return true
		}
	}
	for i := range segment.ExcludedContexts {
		ts := &segment.ExcludedContexts[i]
		if target, ok := c.ContextByKind(ts.ContextKind); ok && ts.Contains(target.Key()) {
			return false
		}
	}

	if segment.Unbounded && segment.Generation != nil {
		included, matched := e.checkBigSegment(segment, c, st)
		if matched {
			return included
		}
		// Oracle had no opinion: fall through to rules.
	}

	for i := range segment.Rules {
		rule := &segment.Rules[i]
		if !e.ruleMatches(rule.Clauses, c, st) {
			continue
		}
		if rule.Weight == nil {
			return true
		}
		kind := rule.RolloutContextKind
		if kind == "" {
			kind = ldcontext.DefaultKind
		}
		b, contextPresent := bucket(c, segment.Key, segment.Salt, nil, rule.BucketBy, kind)
		if contextPresent && b*100000 < float64(*rule.Weight) {
			return true
		}
	}
	return false
}

// checkBigSegment consults the big-segment oracle for the segment's configured context kind.
// The bool "matched" return indicates a definitive yes/no; when false, the caller must fall
// through to ordinary segment rules. When big segments are not configured at all, the answer is
// a definitive non-match. Either way the status observed is folded
// into st.bigSegmentsStatus, taking the worst status seen across however many big segments a
// single evaluation touches.
func (e *Evaluator) checkBigSegment(segment *ldmodel.Segment, c ldcontext.Context, st *evalState) (included bool, matched bool) {
	if e.bigSegments == nil {
		st.recordBigSegmentsStatus(ldreason.BigSegmentsNotConfigured)
		return false, true
	}
	kind := segment.UnboundedContextKind
	if kind == "" {
		kind = ldcontext.DefaultKind
	}
	sub, ok := c.ContextByKind(kind)
	if !ok {
		st.recordBigSegmentsStatus(ldreason.BigSegmentsNotConfigured)
		return false, false
	}
	membership, status := e.bigSegments.GetMembership(sub.Key())
	st.recordBigSegmentsStatus(status)
	if membership == nil {
		return false, false
	}
	verdict := membership.CheckMembership(segment.Key)
	if verdict == nil {
		return false, false
	}
	return *verdict, true
}

// bigSegmentsStatusRank orders statuses from best to worst so that recordBigSegmentsStatus can
// keep the single worst status seen when an evaluation consults more than one big segment.
var bigSegmentsStatusRank = map[ldreason.BigSegmentsStatus]int{
	ldreason.BigSegmentsHealthy:       0,
	ldreason.BigSegmentsStale:         1,
	ldreason.BigSegmentsStoreError:    2,
	ldreason.BigSegmentsNotConfigured: 3,
}

func (st *evalState) recordBigSegmentsStatus(status ldreason.BigSegmentsStatus) {
	if status == "" {
		return
	}
	if st.bigSegmentsStatus == "" || bigSegmentsStatusRank[status] > bigSegmentsStatusRank[st.bigSegmentsStatus] {
		st.bigSegmentsStatus = status
	}
}
