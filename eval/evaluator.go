package eval

import (
	"github.com/launchflag/ffcore/ldcontext"
	"github.com/launchflag/ffcore/ldmodel"
	"github.com/launchflag/ffcore/ldreason"
	"github.com/launchflag/ffcore/ldvalue"
)

// Evaluator evaluates flags against a context, consulting a DataProvider for prerequisite
// flags and segments, and an optional BigSegmentProvider for unbounded segment membership.
// An Evaluator holds no mutable state of its own and is safe to call concurrently from any
// goroutine; all state needed during a single recursive evaluation (the cycle-
// detection visited set, the big-segments status seen so far) lives in an evalState value
// created fresh by Evaluate and threaded through the call stack by reference.
type Evaluator struct {
	data        DataProvider
	bigSegments BigSegmentProvider
}

// NewEvaluator creates an Evaluator. bigSegments may be nil if Big Segments are not configured.
func NewEvaluator(data DataProvider, bigSegments BigSegmentProvider) *Evaluator {
	return &Evaluator{data: data, bigSegments: bigSegments}
}

// evalState is the per-call scratch space for one top-level Evaluate invocation.
type evalState struct {
	visited           map[string]bool
	bigSegmentsStatus ldreason.BigSegmentsStatus
}

// Evaluate runs the algorithm against a single flag and returns the resulting
// Detail. prereqSink, if non-nil, is called once for every prerequisite flag evaluated
// (including nested ones), whether or not it was satisfied.
func (e *Evaluator) Evaluate(flag *ldmodel.Flag, c ldcontext.Context, prereqSink PrerequisiteSink) ldreason.Detail {
	if !c.IsValid() {
		return ldreason.NewDetailForError(ldreason.UserNotSpecifiedKind, ldvalue.Null())
	}
	st := &evalState{visited: map[string]bool{}}
	detail := e.evaluateInternal(flag, c, prereqSink, st)
	if st.bigSegmentsStatus != "" {
		detail.Reason = detail.Reason.WithBigSegmentsStatus(st.bigSegmentsStatus)
	}
	return detail
}

func (e *Evaluator) evaluateInternal(
	flag *ldmodel.Flag,
	c ldcontext.Context,
	prereqSink PrerequisiteSink,
	st *evalState,
) ldreason.Detail {
	if !flag.On {
		return e.offValue(flag, ldreason.NewOff())
	}

	if st.visited[flag.Key] {
		return ldreason.NewDetailForError(ldreason.MalformedFlagKind, ldvalue.Null())
	}
	st.visited[flag.Key] = true
	defer delete(st.visited, flag.Key)

	if reason, ok := e.checkPrerequisites(flag, c, prereqSink, st); !ok {
		return e.offValue(flag, reason)
	}

	if detail, ok := e.checkTargets(flag, c); ok {
		return detail
	}

	for i := range flag.Rules {
		rule := &flag.Rules[i]
		if e.ruleMatches(rule.Clauses, c, st) {
			reason := rule.MatchReason(i)
			detail := e.valueForVariationOrRollout(flag, rule.VariationOrRollout, c, reason)
			if rule.TrackEvents {
				detail.ForceReasonTracking = true
			}
			return detail
		}
	}

	detail := e.valueForVariationOrRollout(flag, flag.Fallthrough, c, ldreason.NewFallthrough())
	if flag.TrackEventsFallthrough {
		detail.ForceReasonTracking = true
	}
	return detail
}

func (e *Evaluator) checkPrerequisites(
	flag *ldmodel.Flag,
	c ldcontext.Context,
	prereqSink PrerequisiteSink,
	st *evalState,
) (ldreason.Reason, bool) {
	for i := range flag.Prerequisites {
		prereq := &flag.Prerequisites[i]
		prereqFlag, found := e.data.GetFlag(prereq.Key)
		if !found {
			return prereq.FailedReason(), false
		}

		result := e.evaluateInternal(prereqFlag, c, prereqSink, st)

		if prereqSink != nil {
			prereqSink(PrerequisiteEvent{
				FlagKey:          flag.Key,
				PrerequisiteFlag: *prereqFlag,
				Result:           result,
			})
		}

		if result.Reason.Kind == ldreason.MalformedFlagKind && result.Reason.IsError() {
			return ldreason.Reason{Kind: ldreason.MalformedFlagKind, ErrorKind: ldreason.MalformedFlagKind}, false
		}

		ok := prereqFlag.On && !result.IsDefaultValue() && result.VariationIndex == prereq.Variation
		if !ok {
			return prereq.FailedReason(), false
		}
	}
	return ldreason.Reason{}, true
}

func (e *Evaluator) checkTargets(flag *ldmodel.Flag, c ldcontext.Context) (ldreason.Detail, bool) {
	for i := range flag.ContextTargets {
		t := &flag.ContextTargets[i]
		sub, ok := c.ContextByKind(t.ContextKind)
		if !ok {
			continue
		}
		if t.Contains(sub.Key()) {
			return e.variationDetail(flag, t.Variation, ldreason.NewTargetMatch()), true
		}
	}
	sub, ok := c.ContextByKind(ldcontext.DefaultKind)
	if ok {
		for i := range flag.Targets {
			t := &flag.Targets[i]
			if t.Contains(sub.Key()) {
				return e.variationDetail(flag, t.Variation, ldreason.NewTargetMatch()), true
			}
		}
	}
	return ldreason.Detail{}, false
}

func (e *Evaluator) ruleMatches(clauses []ldmodel.Clause, c ldcontext.Context, st *evalState) bool {
	for i := range clauses {
		if !e.clauseMatches(&clauses[i], c, st) {
			return false
		}
	}
	return true
}

func (e *Evaluator) clauseMatches(clause *ldmodel.Clause, c ldcontext.Context, st *evalState) bool {
	if clause.Op == ldmodel.OperatorSegmentMatch {
		matched := false
		for _, v := range clause.Values {
			if v.Type() != ldvalue.StringType {
				continue
			}
			if e.segmentContains(v.StringValue(), c, st) {
				matched = true
				break
			}
		}
		return maybeNegate(clause, matched)
	}

	if clause.Op == ldmodel.OperatorMatchesExpr {
		return maybeNegate(clause, evaluateCelClause(clause, c))
	}

	kind := clause.ContextKind
	if kind == "" {
		kind = ldcontext.DefaultKind
	}
	sub, ok := c.ContextByKind(kind)
	if !ok {
		// A clause about a context kind the context doesn't have is a non-match, not an error,
		// and negation does not flip "no context" into a match.
		return false
	}

	attrVal := sub.GetValue(clause.Attribute)
	if attrVal.IsNull() {
		return false
	}

	fn := operatorFn(clause.Op)
	if attrVal.Type() == ldvalue.ArrayType {
		for i := 0; i < attrVal.Count(); i++ {
			if matchAny(clause, fn, attrVal.GetByIndex(i)) {
				return maybeNegate(clause, true)
			}
		}
		return maybeNegate(clause, false)
	}
	return maybeNegate(clause, matchAny(clause, fn, attrVal))
}

// matchAny reports whether v matches any of clause.Values under fn. For "in" clauses with a
// preprocessed hash lookup table, this is an O(1) membership test instead of a linear scan.
func matchAny(clause *ldmodel.Clause, fn opFn, v ldvalue.Value) bool {
	if clause.Op == ldmodel.OperatorIn {
		if matched, hasSet := clause.ValueInSet(v); hasSet {
			return matched
		}
	}
	for i := range clause.Values {
		if fn(clause, i, v) {
			return true
		}
	}
	return false
}

func maybeNegate(clause *ldmodel.Clause, matched bool) bool {
	if clause.Negate {
		return !matched
	}
	return matched
}

func (e *Evaluator) valueForVariationOrRollout(
	flag *ldmodel.Flag,
	vr ldmodel.VariationOrRollout,
	c ldcontext.Context,
	reason ldreason.Reason,
) ldreason.Detail {
	index, inExperiment, ok := variationIndexForContext(vr, c, flag.Key, flag.Salt)
	if !ok {
		return ldreason.NewDetailForError(ldreason.MalformedFlagKind, ldvalue.Null())
	}
	detail := e.variationDetail(flag, index, reason.WithInExperiment(inExperiment))
	detail.ForceReasonTracking = inExperiment
	return detail
}

func (e *Evaluator) variationDetail(flag *ldmodel.Flag, index int, reason ldreason.Reason) ldreason.Detail {
	if index < 0 || index >= len(flag.Variations) {
		return ldreason.NewDetailForError(ldreason.MalformedFlagKind, ldvalue.Null())
	}
	return ldreason.NewDetail(flag.Variations[index], index, reason)
}

func (e *Evaluator) offValue(flag *ldmodel.Flag, reason ldreason.Reason) ldreason.Detail {
	if reason.Kind == ldreason.PrerequisiteFailedKind {
		reason.ErrorKind = ""
	}
	if flag.OffVariation == nil {
		return ldreason.Detail{Value: ldvalue.Null(), VariationIndex: -1, Reason: reason}
	}
	return e.variationDetail(flag, *flag.OffVariation, reason)
}
