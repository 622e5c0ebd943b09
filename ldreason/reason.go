// Package ldreason defines the evaluation reason and detail types returned alongside a
// flag evaluation, mirroring the shape of go-sdk-common/v3/ldreason.
package ldreason

// Kind enumerates the reasons an evaluation can produce a particular variation.
type Kind string

// The evaluation reason kinds an evaluation can produce.
const (
	OffKind               Kind = "OFF"
	TargetMatchKind       Kind = "TARGET_MATCH"
	RuleMatchKind         Kind = "RULE_MATCH"
	PrerequisiteFailedKind Kind = "PREREQUISITE_FAILED"
	FallthroughKind       Kind = "FALLTHROUGH"

	ClientNotReadyKind Kind = "CLIENT_NOT_READY"
	FlagNotFoundKind   Kind = "FLAG_NOT_FOUND"
	UserNotSpecifiedKind Kind = "USER_NOT_SPECIFIED"
	MalformedFlagKind  Kind = "MALFORMED_FLAG"
	WrongTypeKind      Kind = "WRONG_TYPE"
	ExceptionKind      Kind = "EXCEPTION"
)

// BigSegmentsStatus describes the health of a big-segment membership answer as observed
// during a single clause evaluation.
type BigSegmentsStatus string

// The possible big-segment status values.
const (
	BigSegmentsHealthy       BigSegmentsStatus = "HEALTHY"
	BigSegmentsStale         BigSegmentsStatus = "STALE"
	BigSegmentsStoreError    BigSegmentsStatus = "STORE_ERROR"
	BigSegmentsNotConfigured BigSegmentsStatus = "NOT_CONFIGURED"
)

// Reason is the full description of why an evaluation produced the value it did.
type Reason struct {
	Kind              Kind              `json:"kind"`
	RuleIndex         int               `json:"ruleIndex,omitempty"`
	RuleID            string            `json:"ruleId,omitempty"`
	PrerequisiteKey   string            `json:"prerequisiteKey,omitempty"`
	ErrorKind         Kind              `json:"errorKind,omitempty"`
	InExperiment      bool              `json:"inExperiment,omitempty"`
	BigSegmentsStatus BigSegmentsStatus `json:"bigSegmentsStatus,omitempty"`
}

// NewOff returns the OFF reason.
func NewOff() Reason { return Reason{Kind: OffKind} }

// NewTargetMatch returns the TARGET_MATCH reason.
func NewTargetMatch() Reason { return Reason{Kind: TargetMatchKind} }

// NewRuleMatch returns the RULE_MATCH reason for the given rule index/id.
func NewRuleMatch(index int, ruleID string) Reason {
	return Reason{Kind: RuleMatchKind, RuleIndex: index, RuleID: ruleID}
}

// NewPrerequisiteFailed returns the PREREQUISITE_FAILED reason naming the failing prerequisite.
func NewPrerequisiteFailed(key string) Reason {
	return Reason{Kind: PrerequisiteFailedKind, PrerequisiteKey: key}
}

// NewFallthrough returns the FALLTHROUGH reason.
func NewFallthrough() Reason { return Reason{Kind: FallthroughKind} }

// NewError returns an error reason of the given kind (CLIENT_NOT_READY, FLAG_NOT_FOUND,
// USER_NOT_SPECIFIED, MALFORMED_FLAG, WRONG_TYPE, or EXCEPTION).
func NewError(kind Kind) Reason { return Reason{Kind: kind, ErrorKind: kind} }

// IsError reports whether this reason represents an evaluation error.
func (r Reason) IsError() bool { return r.ErrorKind != "" }

// WithInExperiment returns a copy of the reason with InExperiment set.
func (r Reason) WithInExperiment(inExperiment bool) Reason {
	r.InExperiment = inExperiment
	return r
}

// WithBigSegmentsStatus returns a copy of the reason annotated with a big-segments status.
func (r Reason) WithBigSegmentsStatus(status BigSegmentsStatus) Reason {
	r.BigSegmentsStatus = status
	return r
}
