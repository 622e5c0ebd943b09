package ldcomponents

import (
	"github.com/launchflag/ffcore/ldevents"
	"github.com/launchflag/ffcore/subsystems"
)

type noEventsBuilder struct{}

// NoEvents returns a factory for a no-op event processor: analytics events are accepted and
// discarded without ever reaching the network.
func NoEvents() subsystems.EventProcessorFactory {
	return noEventsBuilder{}
}

func (b noEventsBuilder) CreateEventProcessor(context subsystems.ClientContext) (subsystems.EventProcessor, error) {
	return ldevents.NewNullEventProcessor(), nil
}
