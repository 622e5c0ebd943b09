// Package ldevents implements the analytics event pipeline: a single-writer dispatcher
// that owns the event summarizer and context-dedup cache, a fixed-size pool of flush workers,
// and an HTTP event sender. Grounded on the SDK's ldevents package, adapted from
// lduser.User/FeatureRequestEvent to ldcontext.Context/EvaluationData and extended with the
// migration-op and alias event kinds.
package ldevents

import (
	"github.com/launchflag/ffcore/ldcontext"
	"github.com/launchflag/ffcore/ldreason"
	"github.com/launchflag/ffcore/ldtime"
	"github.com/launchflag/ffcore/ldvalue"
)

// Event is the common interface satisfied by every input event type the dispatcher accepts.
type Event interface {
	GetBase() BaseEvent
}

// BaseEvent carries the fields every event kind shares.
type BaseEvent struct {
	CreationDate ldtime.UnixMillisecondTime
	Context      ldcontext.Context
}

// GetBase implements Event.
func (b BaseEvent) GetBase() BaseEvent { return b }

// FlagEventProperties is the subset of a flag's configuration the event factory needs in order
// to decide how to record an evaluation. *ldmodel.Flag satisfies this.
type FlagEventProperties interface {
	GetKey() string
	GetVersion() int
	IsFullEventTrackingEnabled() bool
	GetDebugEventsUntilDate() *int64
	IsExperimentationEnabled(reason ldreason.Reason) bool
}

// EvaluationData is the input event recorded for a single flag evaluation.
type EvaluationData struct {
	BaseEvent
	Key                  string
	Version              ldvalue.OptionalInt
	Variation            ldvalue.OptionalInt
	Value                ldvalue.Value
	Default              ldvalue.Value
	Reason               ldreason.Reason
	PrereqOf             ldvalue.OptionalString
	TrackEvents          bool
	Debug                bool
	DebugEventsUntilDate *int64
}

// IdentifyEvent records that a context was seen, without any associated evaluation.
type IdentifyEvent struct {
	BaseEvent
}

// CustomEvent records an application-defined event, optionally carrying a numeric metric value.
type CustomEvent struct {
	BaseEvent
	Key         string
	Data        ldvalue.Value
	HasMetric   bool
	MetricValue float64
}

// IndexEvent is synthesized by the dispatcher, not submitted by callers: the first time it sees
// a context it hasn't seen recently, it emits one of these so the event service can learn the
// context's attributes even when the full event that referenced it only inlines the context key.
type IndexEvent struct {
	BaseEvent
}

// MigrationOpEvent records the outcome of a single migration-assisted operation: which origins
// were invoked, how long each took, and whether their results agreed.
type MigrationOpEvent struct {
	BaseEvent
	Op              string
	FlagKey         string
	FlagVersion     ldvalue.OptionalInt
	Variation       ldvalue.OptionalInt
	Invoked         map[string]bool
	LatenciesMillis map[string]int64
	Errors          map[string]bool
	ConsistencyRate ldvalue.OptionalInt
}

// AliasEvent records that two context keys refer to the same underlying subject, so the event
// service can fold their analytics history together.
type AliasEvent struct {
	BaseEvent
	OldKey  string
	OldKind ldcontext.Kind
	NewKey  string
	NewKind ldcontext.Kind
}

// EventFactory builds input events, optionally attaching evaluation reasons and deciding whether
// a debug event should also be scheduled.
type EventFactory struct {
	withReasons bool
}

// NewEventFactory creates an EventFactory. withReasons controls whether evaluation reasons are
// attached to every generated EvaluationData (normally only done for client-facing SDKs).
func NewEventFactory(withReasons bool) EventFactory {
	return EventFactory{withReasons: withReasons}
}

// NewEvaluationData builds the EvaluationData for a completed flag evaluation.
func (f EventFactory) NewEvaluationData(
	flag FlagEventProperties,
	context ldcontext.Context,
	detail ldreason.Detail,
	defaultVal ldvalue.Value,
	prereqOf string,
) EvaluationData {
	requireExperimentData := flag.IsExperimentationEnabled(detail.Reason)
	e := EvaluationData{
		BaseEvent:   BaseEvent{CreationDate: ldtime.UnixMillisNow(), Context: context},
		Key:         flag.GetKey(),
		Version:     ldvalue.NewOptionalInt(flag.GetVersion()),
		Value:       detail.Value,
		Default:     defaultVal,
		TrackEvents: flag.IsFullEventTrackingEnabled() || requireExperimentData,
	}
	if detail.VariationIndex >= 0 {
		e.Variation = ldvalue.NewOptionalInt(detail.VariationIndex)
	}
	if f.withReasons || requireExperimentData {
		e.Reason = detail.Reason
	}
	if prereqOf != "" {
		e.PrereqOf = ldvalue.NewOptionalString(prereqOf)
	}
	e.DebugEventsUntilDate = flag.GetDebugEventsUntilDate()
	return e
}

// NewUnknownFlagEvaluationData builds the EvaluationData recorded when a named flag doesn't
// exist: there's no flag configuration to consult, so tracking/debug fields are left at zero
// value.
func (f EventFactory) NewUnknownFlagEvaluationData(
	key string,
	context ldcontext.Context,
	defaultVal ldvalue.Value,
	reason ldreason.Reason,
) EvaluationData {
	e := EvaluationData{
		BaseEvent: BaseEvent{CreationDate: ldtime.UnixMillisNow(), Context: context},
		Key:       key,
		Value:     defaultVal,
		Default:   defaultVal,
	}
	if f.withReasons {
		e.Reason = reason
	}
	return e
}

// NewIdentifyEvent builds an IdentifyEvent for context.
func (f EventFactory) NewIdentifyEvent(context ldcontext.Context) IdentifyEvent {
	return IdentifyEvent{BaseEvent{CreationDate: ldtime.UnixMillisNow(), Context: context}}
}

// NewCustomEvent builds a CustomEvent with no metric value attached.
func (f EventFactory) NewCustomEvent(key string, context ldcontext.Context, data ldvalue.Value) CustomEvent {
	return CustomEvent{
		BaseEvent: BaseEvent{CreationDate: ldtime.UnixMillisNow(), Context: context},
		Key:       key,
		Data:      data,
	}
}

// NewCustomEventWithMetric builds a CustomEvent carrying a numeric metric value.
func (f EventFactory) NewCustomEventWithMetric(
	key string, context ldcontext.Context, data ldvalue.Value, metricValue float64,
) CustomEvent {
	e := f.NewCustomEvent(key, context, data)
	e.HasMetric = true
	e.MetricValue = metricValue
	return e
}

// NewAliasEvent builds an AliasEvent linking oldContext to newContext.
func (f EventFactory) NewAliasEvent(newContext, oldContext ldcontext.Context) AliasEvent {
	return AliasEvent{
		BaseEvent: BaseEvent{CreationDate: ldtime.UnixMillisNow(), Context: newContext},
		OldKey:    oldContext.Key(),
		OldKind:   oldContext.Kind(),
		NewKey:    newContext.Key(),
		NewKind:   newContext.Kind(),
	}
}
