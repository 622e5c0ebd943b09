// Package ldmodel defines the immutable, version-stamped flag/segment data model, plus the
// preprocessing caches attached to it before evaluation.
package ldmodel

import (
	"github.com/launchflag/ffcore/ldcontext"
	"github.com/launchflag/ffcore/ldreason"
	"github.com/launchflag/ffcore/ldvalue"
)

// Prerequisite is a reference to another flag that must evaluate to a specific variation for
// this flag to be considered eligible.
type Prerequisite struct {
	Key       string `json:"key"`
	Variation int    `json:"variation"`

	// preprocessedFailedReason caches the PREREQUISITE_FAILED reason instance for this
	// prerequisite's key, so repeated evaluations of the same flag don't allocate.
	preprocessedFailedReason *ldreason.Reason
}

// FailedReason returns the cached PREREQUISITE_FAILED reason, computing it on demand if the
// record was never preprocessed.
func (p *Prerequisite) FailedReason() ldreason.Reason {
	if p.preprocessedFailedReason != nil {
		return *p.preprocessedFailedReason
	}
	return ldreason.NewPrerequisiteFailed(p.Key)
}

// Target is a legacy (user-kind, or named-kind for ContextTargets) list of context keys that
// should receive a fixed variation.
type Target struct {
	ContextKind ldcontext.Kind `json:"contextKind,omitempty"`
	Values      []string       `json:"values"`
	Variation   int            `json:"variation"`

	keySet map[string]bool
}

// Preprocess builds the Target's key-set lookup cache.
func (t *Target) Preprocess() {
	t.keySet = make(map[string]bool, len(t.Values))
	for _, v := range t.Values {
		t.keySet[v] = true
	}
}

// Contains reports whether key is in this target's value list.
func (t *Target) Contains(key string) bool {
	if t.keySet != nil {
		return t.keySet[key]
	}
	for _, v := range t.Values {
		if v == key {
			return true
		}
	}
	return false
}

// WeightedVariation assigns a rollout weight (out of 100000) to a variation index.
type WeightedVariation struct {
	Variation int `json:"variation"`
	Weight    int `json:"weight"`
	// Untracked excludes this bucket from forced experiment-reason tracking even when the
	// rollout is of RolloutKindExperiment.
	Untracked bool `json:"untracked,omitempty"`
}

// RolloutKind distinguishes an ordinary weighted rollout from an experiment, which forces
// reason tracking on the bucket that was selected.
type RolloutKind string

// The two kinds of rollout.
const (
	RolloutKindRollout    RolloutKind = "rollout"
	RolloutKindExperiment RolloutKind = "experiment"
)

// Rollout is a weighted assignment of a context to one of several variations via bucketing.
type Rollout struct {
	ContextKind ldcontext.Kind      `json:"contextKind,omitempty"`
	Variations  []WeightedVariation `json:"variations"`
	BucketBy    ldcontext.Ref       `json:"bucketBy,omitempty"`
	Kind        RolloutKind         `json:"kind,omitempty"`
	Seed        *int                `json:"seed,omitempty"`
}

// VariationOrRollout is a tagged union: either a fixed Variation index, or a Rollout. Exactly
// one of Variation/Rollout should be set; Variation == nil && Rollout == nil is a malformed
// flag.
type VariationOrRollout struct {
	Variation *int     `json:"variation,omitempty"`
	Rollout   *Rollout `json:"rollout,omitempty"`
}

// Rule is a single targeting rule: a set of clauses that must all match, and the variation or
// rollout to apply when they do.
type Rule struct {
	ID                 string  `json:"id"`
	Clauses            []Clause `json:"clauses"`
	VariationOrRollout `json:",inline"`
	TrackEvents        bool `json:"trackEvents,omitempty"`

	preprocessedMatchReason *ldreason.Reason
}

// MatchReason returns the cached RULE_MATCH reason for this rule at the given index.
func (r *Rule) MatchReason(index int) ldreason.Reason {
	if r.preprocessedMatchReason != nil {
		reason := *r.preprocessedMatchReason
		reason.RuleIndex = index
		return reason
	}
	return ldreason.NewRuleMatch(index, r.ID)
}

// Flag is the immutable description of a single feature flag.
type Flag struct {
	Key                    string             `json:"key"`
	Version                int                `json:"version"`
	On                     bool               `json:"on"`
	Variations             []ldvalue.Value    `json:"variations"`
	OffVariation           *int               `json:"offVariation,omitempty"`
	Fallthrough            VariationOrRollout `json:"fallthrough"`
	Targets                []Target           `json:"targets,omitempty"`
	ContextTargets         []Target           `json:"contextTargets,omitempty"`
	Rules                  []Rule             `json:"rules,omitempty"`
	Prerequisites          []Prerequisite     `json:"prerequisites,omitempty"`
	Salt                   string             `json:"salt,omitempty"`
	TrackEvents            bool               `json:"trackEvents,omitempty"`
	TrackEventsFallthrough bool               `json:"trackEventsFallthrough,omitempty"`
	DebugEventsUntilDate   *int64             `json:"debugEventsUntilDate,omitempty"`
	ClientSide             bool               `json:"clientSide,omitempty"`

	// Deleted marks this record as a tombstone: only Key and Version are meaningful, and a
	// tombstone must never be treated as a present flag by callers other than the data store's
	// own version-comparison logic.
	Deleted bool `json:"deleted,omitempty"`
}

// Preprocess computes and attaches all derived caches described. Idempotent;
// safe to call multiple times or to skip entirely.
func (f *Flag) Preprocess() {
	for i := range f.Prerequisites {
		reason := ldreason.NewPrerequisiteFailed(f.Prerequisites[i].Key)
		f.Prerequisites[i].preprocessedFailedReason = &reason
	}
	for i := range f.Rules {
		reason := ldreason.NewRuleMatch(i, f.Rules[i].ID)
		f.Rules[i].preprocessedMatchReason = &reason
		for j := range f.Rules[i].Clauses {
			f.Rules[i].Clauses[j].Preprocess()
		}
	}
	for i := range f.Targets {
		f.Targets[i].Preprocess()
	}
	for i := range f.ContextTargets {
		f.ContextTargets[i].Preprocess()
	}
}

// GetKey, GetVersion, IsFullEventTrackingEnabled, GetDebugEventsUntilDate, and
// IsExperimentationEnabled let a Flag satisfy ldevents.FlagEventProperties, so the evaluator's
// caller can hand the flag straight to the event factory without an adapter.

func (f *Flag) GetKey() string { return f.Key }

func (f *Flag) GetVersion() int { return f.Version }

func (f *Flag) IsFullEventTrackingEnabled() bool { return f.TrackEvents }

func (f *Flag) GetDebugEventsUntilDate() *int64 { return f.DebugEventsUntilDate }

// IsExperimentationEnabled reports whether this evaluation reason should bypass the normal
// TrackEvents gate and always generate a full feature event, per the flag's experimentation rules.
func (f *Flag) IsExperimentationEnabled(reason ldreason.Reason) bool {
	if reason.InExperiment {
		return true
	}
	if reason.Kind == ldreason.FallthroughKind {
		return f.TrackEventsFallthrough
	}
	return false
}
