// Package flagtracker lets a caller watch for a flag's value changing for a given evaluation
// context, layered over the data store's flag-change broadcast. Grounded on the SDK's
// internal/flag_tracker_impl.go: not a core evaluation component, but a direct, cheap
// consumer of the change stream.
package flagtracker

import (
	"sync"

	"github.com/launchflag/ffcore/internal/broadcast"
	"github.com/launchflag/ffcore/ldcontext"
	"github.com/launchflag/ffcore/ldvalue"
)

const subscriberChannelBufferLength = 10

// ValueChangeEvent reports that flag Key's evaluated value for a particular context changed.
type ValueChangeEvent struct {
	Key      string
	OldValue ldvalue.Value
	NewValue ldvalue.Value
}

// EvaluateFunc evaluates one flag for one context, exactly like Client.JSONVariation.
type EvaluateFunc func(flagKey string, evalContext ldcontext.Context, defaultValue ldvalue.Value) ldvalue.Value

// Tracker lets callers subscribe to raw flag-change notifications, or to a single flag's
// resolved-value changes for a fixed context.
type Tracker struct {
	broadcaster *broadcast.FlagChangeBroadcaster
	evaluate    EvaluateFunc

	lock          sync.Mutex
	subscriptions map[<-chan ValueChangeEvent]<-chan broadcast.FlagChangeEvent
}

// New creates a Tracker backed by broadcaster, using evaluate to resolve flag values for the
// value-change listeners.
func New(broadcaster *broadcast.FlagChangeBroadcaster, evaluate EvaluateFunc) *Tracker {
	return &Tracker{
		broadcaster:   broadcaster,
		evaluate:      evaluate,
		subscriptions: make(map[<-chan ValueChangeEvent]<-chan broadcast.FlagChangeEvent),
	}
}

// AddFlagChangeListener subscribes to every flag-change notification, regardless of key.
func (t *Tracker) AddFlagChangeListener() <-chan broadcast.FlagChangeEvent {
	return t.broadcaster.AddListener()
}

// RemoveFlagChangeListener unsubscribes a channel obtained from AddFlagChangeListener.
func (t *Tracker) RemoveFlagChangeListener(ch <-chan broadcast.FlagChangeEvent) {
	t.broadcaster.RemoveListener(ch)
}

// AddFlagValueChangeListener subscribes to flagKey's resolved value changing for evalContext. The
// returned channel receives an event only when re-evaluating after a change actually produces a
// different value than last observed.
func (t *Tracker) AddFlagValueChangeListener(
	flagKey string, evalContext ldcontext.Context, defaultValue ldvalue.Value,
) <-chan ValueChangeEvent {
	valueCh := make(chan ValueChangeEvent, subscriberChannelBufferLength)
	flagCh := t.broadcaster.AddListener()
	go t.runValueChangeListener(flagCh, valueCh, flagKey, evalContext, defaultValue)

	t.lock.Lock()
	t.subscriptions[valueCh] = flagCh
	t.lock.Unlock()

	return valueCh
}

// RemoveFlagValueChangeListener unsubscribes a channel obtained from AddFlagValueChangeListener.
func (t *Tracker) RemoveFlagValueChangeListener(ch <-chan ValueChangeEvent) {
	t.lock.Lock()
	flagCh, ok := t.subscriptions[ch]
	delete(t.subscriptions, ch)
	t.lock.Unlock()

	if ok {
		t.broadcaster.RemoveListener(flagCh)
	}
}

func (t *Tracker) runValueChangeListener(
	flagCh <-chan broadcast.FlagChangeEvent,
	valueCh chan<- ValueChangeEvent,
	flagKey string,
	evalContext ldcontext.Context,
	defaultValue ldvalue.Value,
) {
	currentValue := t.evaluate(flagKey, evalContext, defaultValue)
	for change := range flagCh {
		if change.Key != flagKey {
			continue
		}
		newValue := t.evaluate(flagKey, evalContext, defaultValue)
		if newValue.Equal(currentValue) {
			continue
		}
		oldValue := currentValue
		currentValue = newValue
		valueCh <- ValueChangeEvent{Key: flagKey, OldValue: oldValue, NewValue: newValue}
	}
	close(valueCh)
}
