package ldmodel

import (
	"regexp"
	"time"

	"github.com/launchflag/ffcore/ldcontext"
	"github.com/launchflag/ffcore/ldvalue"
)

// Clause is a single targeting predicate within a Rule or SegmentRule.
type Clause struct {
	ContextKind ldcontext.Kind  `json:"contextKind,omitempty"`
	Attribute   ldcontext.Ref   `json:"attribute"`
	Op          Operator        `json:"op"`
	Values      []ldvalue.Value `json:"values"`
	Negate      bool            `json:"negate,omitempty"`

	// CelExpression holds the source text of a matchesExpr clause (see Operator doc comment).
	// Populated only when Op == OperatorMatchesExpr.
	CelExpression string `json:"celExpression,omitempty"`

	preprocessed clausePreprocessedData
}

// clausePreprocessedData holds derived lookup caches built during preprocessing. All fields are optional;
// the evaluator must tolerate a zero-value (unpreprocessed) clause.
type clausePreprocessedData struct {
	valuesByIndex []ClausePreprocessedValue
	// valueSet is a hash-based lookup table for "in" clauses with many values, keyed by the
	// JSON-normalized string form of each clause value.
	valueSet map[string]bool
}

// ClausePreprocessedValue is the cache entry for a single Clause.Values[i], computed by
// Preprocess and consumed by the evaluator's operator functions instead of re-parsing the
// value on every evaluation.
type ClausePreprocessedValue struct {
	// ParseFailed indicates this value could not be parsed for the clause's operator (e.g. a
	// malformed semver literal); such a value can never match but does not disable the clause.
	ParseFailed bool
	Regex       *regexp.Regexp
	SemVer      SemVer
	Time        time.Time
}

// Preprocess computes and attaches the clause's derived caches. Safe to call more than once;
// safe to skip (the evaluator falls back to computing these values on the fly).
func (c *Clause) Preprocess() {
	switch c.Op {
	case OperatorMatches, OperatorSemVerEqual, OperatorSemVerLessThan, OperatorSemVerGreaterThan,
		OperatorBefore, OperatorAfter:
		c.preprocessed.valuesByIndex = make([]ClausePreprocessedValue, len(c.Values))
		for i, v := range c.Values {
			c.preprocessed.valuesByIndex[i] = preprocessClauseValue(c.Op, v)
		}
	case OperatorIn:
		if len(c.Values) > largeValueSetThreshold {
			c.preprocessed.valueSet = make(map[string]bool, len(c.Values))
			for _, v := range c.Values {
				c.preprocessed.valueSet[normalizeValueKey(v)] = true
			}
		}
	}
}

// PreprocessedValue returns the cache entry for c.Values[i], if Preprocess has built one for
// this clause's operator. The second return is false when no cache is available (the clause
// hasn't been preprocessed, or its operator doesn't use a per-value cache), in which case the
// caller must parse c.Values[i] itself.
func (c *Clause) PreprocessedValue(i int) (ClausePreprocessedValue, bool) {
	if i < 0 || i >= len(c.preprocessed.valuesByIndex) {
		return ClausePreprocessedValue{}, false
	}
	return c.preprocessed.valuesByIndex[i], true
}

// ValueInSet reports whether v is among c.Values, using the hash lookup table Preprocess builds
// for large "in" clauses. The second return is false when no such table was built (Values has
// no more than largeValueSetThreshold entries, or Preprocess was never called), in which case the caller must
// fall back to scanning c.Values directly.
func (c *Clause) ValueInSet(v ldvalue.Value) (matched bool, hasSet bool) {
	if c.preprocessed.valueSet == nil {
		return false, false
	}
	return c.preprocessed.valueSet[normalizeValueKey(v)], true
}

// largeValueSetThreshold is the clause.Values length above which we build a hash lookup
// table instead of doing a linear scan.
const largeValueSetThreshold = 15

func preprocessClauseValue(op Operator, v ldvalue.Value) ClausePreprocessedValue {
	switch op {
	case OperatorMatches:
		if v.Type() != ldvalue.StringType {
			return ClausePreprocessedValue{ParseFailed: true}
		}
		re, err := regexp.Compile(v.StringValue())
		if err != nil {
			return ClausePreprocessedValue{ParseFailed: true}
		}
		return ClausePreprocessedValue{Regex: re}
	case OperatorSemVerEqual, OperatorSemVerLessThan, OperatorSemVerGreaterThan:
		if v.Type() != ldvalue.StringType {
			return ClausePreprocessedValue{ParseFailed: true}
		}
		sv, ok := ParseSemVer(v.StringValue())
		if !ok {
			return ClausePreprocessedValue{ParseFailed: true}
		}
		return ClausePreprocessedValue{SemVer: sv}
	case OperatorBefore, OperatorAfter:
		t, ok := parseClauseTime(v)
		if !ok {
			return ClausePreprocessedValue{ParseFailed: true}
		}
		return ClausePreprocessedValue{Time: t}
	default:
		return ClausePreprocessedValue{}
	}
}

func parseClauseTime(v ldvalue.Value) (time.Time, bool) {
	switch v.Type() {
	case ldvalue.NumberType:
		ms := v.Float64Value()
		return time.UnixMilli(int64(ms)).UTC(), true
	case ldvalue.StringType:
		t, err := time.Parse(time.RFC3339Nano, v.StringValue())
		if err != nil {
			return time.Time{}, false
		}
		return t.UTC(), true
	default:
		return time.Time{}, false
	}
}

func normalizeValueKey(v ldvalue.Value) string {
	// JSON-normalized form: type tag + canonical representation, so that e.g. the string "1"
	// and the number 1 never collide.
	switch v.Type() {
	case ldvalue.StringType:
		return "s:" + v.StringValue()
	case ldvalue.NumberType:
		return "n:" + formatFloat(v.Float64Value())
	case ldvalue.BoolType:
		if v.BoolValue() {
			return "b:true"
		}
		return "b:false"
	default:
		return "?"
	}
}
