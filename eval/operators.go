package eval

import (
	"regexp"
	"strings"
	"time"

	"github.com/launchflag/ffcore/ldmodel"
	"github.com/launchflag/ffcore/ldvalue"
)

// opFn compares a single context attribute value against clause.Values[index], consulting
// clause.PreprocessedValue(index) when available instead of re-parsing the clause value.
type opFn func(clause *ldmodel.Clause, index int, attrValue ldvalue.Value) bool

var allOps = map[ldmodel.Operator]opFn{
	ldmodel.OperatorIn:                 operatorInFn,
	ldmodel.OperatorEndsWith:           stringOp(strings.HasSuffix),
	ldmodel.OperatorStartsWith:         stringOp(strings.HasPrefix),
	ldmodel.OperatorMatches:            operatorMatchesFn,
	ldmodel.OperatorContains:           stringOp(strings.Contains),
	ldmodel.OperatorLessThan:           numericOp(func(a, b float64) bool { return a < b }),
	ldmodel.OperatorLessThanOrEqual:    numericOp(func(a, b float64) bool { return a <= b }),
	ldmodel.OperatorGreaterThan:        numericOp(func(a, b float64) bool { return a > b }),
	ldmodel.OperatorGreaterThanOrEqual: numericOp(func(a, b float64) bool { return a >= b }),
	ldmodel.OperatorBefore:             dateOp(time.Time.Before),
	ldmodel.OperatorAfter:              dateOp(time.Time.After),
	ldmodel.OperatorSemVerEqual:        semVerOp(func(c int) bool { return c == 0 }),
	ldmodel.OperatorSemVerLessThan:     semVerOp(func(c int) bool { return c < 0 }),
	ldmodel.OperatorSemVerGreaterThan:  semVerOp(func(c int) bool { return c > 0 }),
}

func operatorFn(op ldmodel.Operator) opFn {
	if fn, ok := allOps[op]; ok {
		return fn
	}
	return func(*ldmodel.Clause, int, ldvalue.Value) bool { return false }
}

func operatorInFn(clause *ldmodel.Clause, index int, a ldvalue.Value) bool {
	return a.Equal(clause.Values[index])
}

func stringOp(fn func(s, substr string) bool) opFn {
	return func(clause *ldmodel.Clause, index int, a ldvalue.Value) bool {
		b := clause.Values[index]
		if a.Type() != ldvalue.StringType || b.Type() != ldvalue.StringType {
			return false
		}
		return fn(a.StringValue(), b.StringValue())
	}
}

func numericOp(fn func(a, b float64) bool) opFn {
	return func(clause *ldmodel.Clause, index int, a ldvalue.Value) bool {
		b := clause.Values[index]
		if a.Type() != ldvalue.NumberType || b.Type() != ldvalue.NumberType {
			return false
		}
		return fn(a.Float64Value(), b.Float64Value())
	}
}

func operatorMatchesFn(clause *ldmodel.Clause, index int, a ldvalue.Value) bool {
	if a.Type() != ldvalue.StringType {
		return false
	}
	if pv, ok := clause.PreprocessedValue(index); ok {
		if pv.ParseFailed || pv.Regex == nil {
			return false
		}
		return pv.Regex.MatchString(a.StringValue())
	}
	b := clause.Values[index]
	if b.Type() != ldvalue.StringType {
		return false
	}
	re, err := regexp.Compile(b.StringValue())
	if err != nil {
		return false
	}
	return re.MatchString(a.StringValue())
}

func dateOp(fn func(a, b time.Time) bool) opFn {
	return func(clause *ldmodel.Clause, index int, a ldvalue.Value) bool {
		at, ok := parseDateTimeValue(a)
		if !ok {
			return false
		}
		if pv, ok := clause.PreprocessedValue(index); ok {
			if pv.ParseFailed {
				return false
			}
			return fn(at, pv.Time)
		}
		b := clause.Values[index]
		bt, ok := parseDateTimeValue(b)
		if !ok {
			return false
		}
		return fn(at, bt)
	}
}

func parseDateTimeValue(v ldvalue.Value) (time.Time, bool) {
	switch v.Type() {
	case ldvalue.NumberType:
		return time.UnixMilli(int64(v.Float64Value())).UTC(), true
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

func semVerOp(accept func(cmp int) bool) opFn {
	return func(clause *ldmodel.Clause, index int, a ldvalue.Value) bool {
		if a.Type() != ldvalue.StringType {
			return false
		}
		av, ok := ldmodel.ParseSemVer(a.StringValue())
		if !ok {
			return false
		}
		if pv, ok := clause.PreprocessedValue(index); ok {
			if pv.ParseFailed {
				return false
			}
			return accept(av.Compare(pv.SemVer))
		}
		b := clause.Values[index]
		if b.Type() != ldvalue.StringType {
			return false
		}
		bv, ok := ldmodel.ParseSemVer(b.StringValue())
		if !ok {
			return false
		}
		return accept(av.Compare(bv))
	}
}
