package ldreason

import "github.com/launchflag/ffcore/ldvalue"

// Detail is the full result of a single flag evaluation: the resolved value, the index of the
// variation that produced it (-1 if none, e.g. on error or an off flag with no off variation),
// and the Reason describing how the value was selected.
type Detail struct {
	Value           ldvalue.Value
	VariationIndex  int
	Reason          Reason
	ForceReasonTracking bool
}

// NewDetail builds a successful Detail.
func NewDetail(value ldvalue.Value, variationIndex int, reason Reason) Detail {
	return Detail{Value: value, VariationIndex: variationIndex, Reason: reason}
}

// NewDetailForError builds an error Detail; VariationIndex is always -1 for errors.
func NewDetailForError(errKind Kind, defaultValue ldvalue.Value) Detail {
	return Detail{Value: defaultValue, VariationIndex: -1, Reason: NewError(errKind)}
}

// IsDefaultValue reports whether no variation was selected (VariationIndex == -1).
func (d Detail) IsDefaultValue() bool { return d.VariationIndex < 0 }
