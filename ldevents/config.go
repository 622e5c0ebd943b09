package ldevents

import (
	"net/http"
	"time"
)

// DefaultDiagnosticRecordingInterval is the default value for EventsConfiguration.DiagnosticRecordingInterval.
const DefaultDiagnosticRecordingInterval = 15 * time.Minute

// DefaultFlushInterval is the default value for EventsConfiguration.FlushInterval.
const DefaultFlushInterval = 5 * time.Second

// DefaultContextKeysFlushInterval is the default value for EventsConfiguration.ContextKeysFlushInterval.
const DefaultContextKeysFlushInterval = 5 * time.Minute

// Loggers is the logging surface the event dispatcher needs; satisfied by ldlog.Loggers and by
// subsystems.Loggers.
type Loggers interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// EventsConfiguration contains options affecting the behavior of the events engine. Grounded on
// the SDK's ldevents.EventsConfiguration, generalized from user-attribute privacy to
// context-attribute privacy.
type EventsConfiguration struct {
	// AllAttributesPrivate hides every context attribute (other than the key) from the event
	// service, regardless of PrivateAttributeNames.
	AllAttributesPrivate bool
	// Capacity is the number of events the dispatcher buffers in memory before a flush. Once
	// exceeded, further events are dropped (and counted) until the next flush.
	Capacity int
	// DiagnosticRecordingInterval is how often periodic diagnostic events are sent, if
	// DiagnosticsManager is non-nil.
	DiagnosticRecordingInterval time.Duration
	DiagnosticURI               string
	DiagnosticsManager          *DiagnosticsManager
	EventsURI                   string
	FlushInterval               time.Duration
	Headers                     http.Header
	HTTPClient                  *http.Client
	Loggers                     Loggers
	PrivateAttributeNames       []string
	ContextKeysCapacity         int
	ContextKeysFlushInterval    time.Duration
}
