package ldevents

import "time"

// EventProcessor is the event-dispatching boundary satisfying subsystems.EventProcessor.
// SendEvent accepts any of EvaluationData/IdentifyEvent/CustomEvent/IndexEvent/AliasEvent/
// MigrationOpEvent; anything else is ignored.
type EventProcessor interface {
	SendEvent(event interface{})
	Flush()
	// FlushBlocking triggers a flush and waits (up to timeout) for all in-flight flushes to
	// finish, returning false if the timeout elapsed first. A zero timeout waits forever.
	FlushBlocking(timeout time.Duration) bool
	Close() error
}

// EventSender delivers already-formatted analytics or diagnostic event payloads.
type EventSender interface {
	SendEventData(kind EventDataKind, data []byte, eventCount int) EventSenderResult
}

// EventDataKind identifies the payload type handed to an EventSender.
type EventDataKind string

const (
	AnalyticsEventDataKind EventDataKind = "analytics"
	DiagnosticEventDataKind EventDataKind = "diagnostic"
)

// EventSenderResult is the return type for EventSender.SendEventData.
type EventSenderResult struct {
	Success        bool
	MustShutDown   bool
	TimeFromServer uint64
}
