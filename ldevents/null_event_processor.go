package ldevents

import "time"

type nullEventProcessor struct{}

// NewNullEventProcessor returns an EventProcessor that discards every event, for offline mode or
// tests that don't care about analytics output.
func NewNullEventProcessor() EventProcessor {
	return nullEventProcessor{}
}

func (n nullEventProcessor) SendEvent(e interface{})             {}
func (n nullEventProcessor) Flush()                               {}
func (n nullEventProcessor) FlushBlocking(timeout time.Duration) bool { return true }
func (n nullEventProcessor) Close() error                         { return nil }
