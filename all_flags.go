package ffcore

import (
	"github.com/launchflag/ffcore/eval"
	"github.com/launchflag/ffcore/flagstate"
	"github.com/launchflag/ffcore/ldcontext"
	"github.com/launchflag/ffcore/ldmodel"
	"github.com/launchflag/ffcore/ldvalue"
)

// AllFlagsState evaluates every known flag for evalContext and returns a snapshot suitable for
// bootstrapping a client-side SDK. Grounded on the SDK's LDClient.AllFlagsState, a thin
// fan-out over the evaluator and data store.
func (c *Client) AllFlagsState(evalContext ldcontext.Context, withReasons bool) flagstate.AllFlags {
	builder := flagstate.NewBuilder(withReasons)

	items, err := c.store.GetAll(ldmodel.Flags)
	if err != nil {
		return builder.Invalidate().Build()
	}

	for key, item := range items {
		flag, ok := item.Item.(*ldmodel.Flag)
		if !ok {
			continue
		}
		detail := c.evaluator.Evaluate(flag, evalContext, func(eval.PrerequisiteEvent) {})
		state := flagstate.FlagState{
			Value:                detail.Value,
			Version:              flag.Version,
			Reason:               detail.Reason,
			TrackEvents:          flag.TrackEvents || detail.ForceReasonTracking,
			DebugEventsUntilDate: flag.DebugEventsUntilDate,
		}
		if detail.VariationIndex >= 0 {
			state.Variation = ldvalue.NewOptionalInt(detail.VariationIndex)
		}
		builder.AddFlag(key, state)
	}
	return builder.Build()
}
