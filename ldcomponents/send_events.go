package ldcomponents

import (
	"time"

	"github.com/launchflag/ffcore/ldevents"
	"github.com/launchflag/ffcore/subsystems"
)

// DefaultEventsCapacity is the default size of the event processor's internal buffer.
const DefaultEventsCapacity = 1000

// DefaultEventsFlushInterval is the default interval between automatic flushes.
const DefaultEventsFlushInterval = 5 * time.Second

// DefaultEventsURI is the default analytics-events endpoint.
const DefaultEventsURI = "https://events.launchflag.example"

// EventProcessorBuilder configures the default, buffered analytics event processor.
type EventProcessorBuilder struct {
	allAttributesPrivate  bool
	capacity              int
	diagnosticRecordingInterval time.Duration
	eventsURI             string
	flushInterval         time.Duration
	privateAttributeNames []string
	contextKeysCapacity   int
	contextKeysFlushInterval time.Duration
}

// SendEvents returns a configurable factory for the default event processor. This is the
// default if no Events factory is set on Config.
func SendEvents() *EventProcessorBuilder {
	return &EventProcessorBuilder{
		capacity:                 DefaultEventsCapacity,
		diagnosticRecordingInterval: ldevents.DefaultDiagnosticRecordingInterval,
		eventsURI:                DefaultEventsURI,
		flushInterval:            DefaultEventsFlushInterval,
		contextKeysCapacity:      1000,
		contextKeysFlushInterval: ldevents.DefaultContextKeysFlushInterval,
	}
}

// AllAttributesPrivate redacts every context attribute from outgoing events, not just those
// named by PrivateAttributeNames.
func (b *EventProcessorBuilder) AllAttributesPrivate(value bool) *EventProcessorBuilder {
	b.allAttributesPrivate = value
	return b
}

// Capacity sets the maximum number of events buffered between flushes; events are dropped (and
// counted) once the buffer is full.
func (b *EventProcessorBuilder) Capacity(capacity int) *EventProcessorBuilder {
	b.capacity = capacity
	return b
}

// FlushInterval sets how often buffered events are automatically flushed.
func (b *EventProcessorBuilder) FlushInterval(interval time.Duration) *EventProcessorBuilder {
	b.flushInterval = interval
	return b
}

// PrivateAttributeNames marks context attributes to redact from every outgoing event,
// regardless of the per-context private-attribute list.
func (b *EventProcessorBuilder) PrivateAttributeNames(names ...string) *EventProcessorBuilder {
	b.privateAttributeNames = names
	return b
}

// BaseURI overrides the analytics-events service endpoint.
func (b *EventProcessorBuilder) BaseURI(uri string) *EventProcessorBuilder {
	b.eventsURI = uri
	return b
}

// CreateEventProcessor builds the default event processor.
func (b *EventProcessorBuilder) CreateEventProcessor(context subsystems.ClientContext) (subsystems.EventProcessor, error) {
	client := newHTTPClient(context)
	headers := defaultHeaders(context)
	cfg := ldevents.EventsConfiguration{
		AllAttributesPrivate:        b.allAttributesPrivate,
		Capacity:                    b.capacity,
		DiagnosticRecordingInterval: b.diagnosticRecordingInterval,
		DiagnosticURI:               b.eventsURI + "/diagnostic",
		EventsURI:                   b.eventsURI + "/bulk",
		FlushInterval:               b.flushInterval,
		Headers:                     headers,
		HTTPClient:                  client,
		Loggers:                     context.GetLoggers(),
		PrivateAttributeNames:       b.privateAttributeNames,
		ContextKeysCapacity:         b.contextKeysCapacity,
		ContextKeysFlushInterval:    b.contextKeysFlushInterval,
	}
	return ldevents.NewDefaultEventProcessor(cfg), nil
}
