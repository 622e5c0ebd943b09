// Package flagstate holds the "evaluate every flag for this context" snapshot used to bootstrap
// client-side SDKs. Grounded on the SDK's interfaces/flagstate package, trimmed to a plain
// encoding/json-based MarshalJSON, the same encoding ldmodel and ldevents use.
package flagstate

import (
	"encoding/json"

	"github.com/launchflag/ffcore/ldreason"
	"github.com/launchflag/ffcore/ldvalue"
)

// FlagState is one flag's evaluation result and metadata as of when AllFlags was built.
type FlagState struct {
	Value                ldvalue.Value
	Variation            ldvalue.OptionalInt
	Version              int
	Reason               ldreason.Reason
	TrackEvents          bool
	DebugEventsUntilDate *int64
}

// AllFlags is a snapshot of every flag's evaluation result for one evaluation context. Marshaling
// it to JSON produces the `$flagsState`/flat-value structure client-side LaunchDarkly SDKs expect
// for bootstrapping.
type AllFlags struct {
	flags map[string]FlagState
	valid bool
}

// IsValid reports whether the snapshot succeeded; false means the data store was unavailable and
// no flag data was recorded.
func (a AllFlags) IsValid() bool { return a.valid }

// GetFlag looks up one flag's recorded state.
func (a AllFlags) GetFlag(key string) (FlagState, bool) {
	f, ok := a.flags[key]
	return f, ok
}

// ToValuesMap returns a flat map of flag key to evaluated value, discarding metadata.
func (a AllFlags) ToValuesMap() map[string]ldvalue.Value {
	out := make(map[string]ldvalue.Value, len(a.flags))
	for k, v := range a.flags {
		out[k] = v.Value
	}
	return out
}

type flagMetaJSON struct {
	Variation            *int          `json:"variation,omitempty"`
	Version              int           `json:"version"`
	Reason               *ldreason.Reason `json:"reason,omitempty"`
	TrackEvents          bool          `json:"trackEvents,omitempty"`
	DebugEventsUntilDate *int64        `json:"debugEventsUntilDate,omitempty"`
}

// MarshalJSON produces `{"<flagKey>": <value>, ..., "$valid": true, "$flagsState": {"<flagKey>": {...}}}`.
func (a AllFlags) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(a.flags)+2)
	meta := make(map[string]flagMetaJSON, len(a.flags))
	for key, f := range a.flags {
		out[key] = f.Value.AsArbitraryValue()
		m := flagMetaJSON{Version: f.Version, TrackEvents: f.TrackEvents, DebugEventsUntilDate: f.DebugEventsUntilDate}
		if f.Variation.IsDefined() {
			v := f.Variation.IntValue()
			m.Variation = &v
		}
		if f.Reason.Kind != "" {
			reason := f.Reason
			m.Reason = &reason
		}
		meta[key] = m
	}
	out["$valid"] = a.valid
	out["$flagsState"] = meta
	return json.Marshal(out)
}

// Builder incrementally constructs an AllFlags snapshot.
type Builder struct {
	state       AllFlags
	withReasons bool
}

// NewBuilder creates a Builder. withReasons controls whether AddFlag records the evaluation
// reason; omitting reasons keeps the bootstrap payload small when the caller doesn't need them.
func NewBuilder(withReasons bool) *Builder {
	return &Builder{state: AllFlags{flags: map[string]FlagState{}, valid: true}, withReasons: withReasons}
}

// AddFlag records one flag's state.
func (b *Builder) AddFlag(key string, flag FlagState) *Builder {
	if !b.withReasons {
		flag.Reason = ldreason.Reason{}
	}
	b.state.flags[key] = flag
	return b
}

// Invalidate marks the snapshot as failed, e.g. because the data store was unavailable.
func (b *Builder) Invalidate() *Builder {
	b.state.valid = false
	return b
}

// Build returns the finished, immutable snapshot.
func (b *Builder) Build() AllFlags {
	s := AllFlags{flags: make(map[string]FlagState, len(b.state.flags)), valid: b.state.valid}
	for k, v := range b.state.flags {
		s.flags[k] = v
	}
	return s
}
