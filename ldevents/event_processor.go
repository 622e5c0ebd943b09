package ldevents

import (
	"sync"
	"time"
)

const maxFlushWorkers = 5

// defaultEventProcessor is the EventProcessor returned by NewDefaultEventProcessor: a thin
// front door that posts messages onto the dispatcher's inbox and never blocks the caller.
type defaultEventProcessor struct {
	inboxCh       chan eventDispatcherMessage
	inboxFullOnce sync.Once
	closeOnce     sync.Once
	loggers       Loggers
}

// eventDispatcher owns all mutable dispatcher state. Apart from disabled and lastKnownPastTime,
// every field is touched only from the single goroutine running runMainLoop. stateLock guards
// those two fields: flush workers write them through handleResult from their own goroutines,
// while the dispatcher goroutine reads them in isDisabled and shouldDebugEvent.
type eventDispatcher struct {
	config              EventsConfiguration
	eventFactory         EventFactory
	lastKnownPastTime    uint64
	deduplicatedContexts int
	eventsInLastBatch    int
	disabled             bool
	stateLock            sync.Mutex
}

// flushPayload is a detached copy of pending output handed to a flush worker; the dispatcher
// clears its own outbox as soon as the flush channel accepts this.
type flushPayload struct {
	diagnosticEvent interface{}
	events          []Event
	summary         eventSummaryData
}

// eventDispatcherMessage is the payload of the inbox channel.
type eventDispatcherMessage interface{}

type sendEventMessage struct{ event Event }
type flushEventsMessage struct{}
type shutdownEventsMessage struct{ replyCh chan struct{} }
type syncEventsMessage struct{ replyCh chan struct{} }

// NewDefaultEventProcessor creates the default EventProcessor: a dispatcher goroutine plus a
// fixed pool of flush-worker goroutines, all communicating over an inbox channel of the
// configured capacity.
func NewDefaultEventProcessor(config EventsConfiguration) EventProcessor {
	if config.Capacity <= 0 {
		config.Capacity = 1000
	}
	inboxCh := make(chan eventDispatcherMessage, config.Capacity)
	startEventDispatcher(config, inboxCh)
	return &defaultEventProcessor{inboxCh: inboxCh, loggers: config.Loggers}
}

func (ep *defaultEventProcessor) SendEvent(e interface{}) {
	evt, ok := e.(Event)
	if !ok {
		return
	}
	ep.postNonBlockingMessageToInbox(sendEventMessage{event: evt})
}

func (ep *defaultEventProcessor) Flush() {
	ep.postNonBlockingMessageToInbox(flushEventsMessage{})
}

func (ep *defaultEventProcessor) postNonBlockingMessageToInbox(m eventDispatcherMessage) bool {
	select {
	case ep.inboxCh <- m:
		return true
	default:
	}
	ep.inboxFullOnce.Do(func() {
		ep.loggers.Warnf("events are being produced faster than they can be processed; some events will be dropped")
	})
	return false
}

// FlushBlocking triggers a flush and blocks until the dispatcher confirms every in-flight flush
// has completed, or timeout elapses (a zero timeout waits forever).
func (ep *defaultEventProcessor) FlushBlocking(timeout time.Duration) bool {
	ep.inboxCh <- flushEventsMessage{}
	m := syncEventsMessage{replyCh: make(chan struct{}, 1)}
	select {
	case ep.inboxCh <- m:
	default:
		return false
	}
	if timeout <= 0 {
		<-m.replyCh
		return true
	}
	select {
	case <-m.replyCh:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (ep *defaultEventProcessor) Close() error {
	ep.closeOnce.Do(func() {
		ep.inboxCh <- flushEventsMessage{}
		m := shutdownEventsMessage{replyCh: make(chan struct{})}
		ep.inboxCh <- m
		<-m.replyCh
	})
	return nil
}

func startEventDispatcher(config EventsConfiguration, inboxCh <-chan eventDispatcherMessage) {
	ed := &eventDispatcher{config: config, eventFactory: NewEventFactory(false)}

	flushCh := make(chan *flushPayload, 1)
	var workersGroup sync.WaitGroup
	sender := newDefaultEventSender(config.HTTPClient, config.EventsURI, config.DiagnosticURI, config.Headers, config.Loggers)
	for i := 0; i < maxFlushWorkers; i++ {
		startFlushTask(config, sender, flushCh, &workersGroup, ed.handleResult)
	}
	if config.DiagnosticsManager != nil {
		ed.sendDiagnosticsEvent(config.DiagnosticsManager.CreateInitEvent(), flushCh, &workersGroup)
	}
	go ed.runMainLoop(inboxCh, flushCh, &workersGroup)
}

func (ed *eventDispatcher) runMainLoop(
	inboxCh <-chan eventDispatcherMessage,
	flushCh chan<- *flushPayload,
	workersGroup *sync.WaitGroup,
) {
	outbox := newEventsOutbox(ed.config.Capacity, ed.config.Loggers)
	contextKeys := newLruCache(ed.config.ContextKeysCapacity)

	flushInterval := ed.config.FlushInterval
	if flushInterval <= 0 {
		flushInterval = DefaultFlushInterval
	}
	contextKeysFlushInterval := ed.config.ContextKeysFlushInterval
	if contextKeysFlushInterval <= 0 {
		contextKeysFlushInterval = DefaultContextKeysFlushInterval
	}
	flushTicker := time.NewTicker(flushInterval)
	resetTicker := time.NewTicker(contextKeysFlushInterval)

	var diagnosticsTicker *time.Ticker
	var diagnosticsTickerCh <-chan time.Time
	if dm := ed.config.DiagnosticsManager; dm != nil {
		interval := ed.config.DiagnosticRecordingInterval
		if interval <= 0 {
			interval = DefaultDiagnosticRecordingInterval
		}
		diagnosticsTicker = time.NewTicker(interval)
		diagnosticsTickerCh = diagnosticsTicker.C
	}

	for {
		select {
		case message := <-inboxCh:
			switch m := message.(type) {
			case sendEventMessage:
				ed.processEvent(m.event, &outbox, &contextKeys)
			case flushEventsMessage:
				ed.triggerFlush(&outbox, flushCh, workersGroup)
			case syncEventsMessage:
				workersGroup.Wait()
				m.replyCh <- struct{}{}
			case shutdownEventsMessage:
				flushTicker.Stop()
				resetTicker.Stop()
				if diagnosticsTicker != nil {
					diagnosticsTicker.Stop()
				}
				workersGroup.Wait()
				close(flushCh)
				m.replyCh <- struct{}{}
				return
			}
		case <-flushTicker.C:
			ed.triggerFlush(&outbox, flushCh, workersGroup)
		case <-resetTicker.C:
			contextKeys.clear()
		case <-diagnosticsTickerCh:
			dm := ed.config.DiagnosticsManager
			if dm == nil {
				break
			}
			event := dm.CreateStatsEventAndReset(outbox.droppedEvents, ed.deduplicatedContexts, ed.eventsInLastBatch)
			outbox.droppedEvents = 0
			ed.deduplicatedContexts = 0
			ed.eventsInLastBatch = 0
			ed.sendDiagnosticsEvent(event, flushCh, workersGroup)
		}
	}
}

func (ed *eventDispatcher) processEvent(evt Event, outbox *eventsOutbox, contextKeys *lruCache) {
	if eval, ok := evt.(EvaluationData); ok {
		outbox.addToSummary(eval)
	}

	willAddFullEvent := false
	var debugEvent Event
	switch e := evt.(type) {
	case EvaluationData:
		willAddFullEvent = e.TrackEvents
		if ed.shouldDebugEvent(&e) {
			de := e
			de.Debug = true
			debugEvent = de
		}
	default:
		willAddFullEvent = true
	}

	context := evt.GetBase().Context
	_, isIdentify := evt.(IdentifyEvent)
	if contextKeys.add(context.FullyQualifiedKey()) {
		ed.deduplicatedContexts++
	} else if !isIdentify {
		indexEvent := IndexEvent{BaseEvent{CreationDate: evt.GetBase().CreationDate, Context: context}}
		outbox.addEvent(indexEvent)
	}

	if willAddFullEvent {
		outbox.addEvent(evt)
	}
	if debugEvent != nil {
		outbox.addEvent(debugEvent)
	}
}

func (ed *eventDispatcher) shouldDebugEvent(evt *EvaluationData) bool {
	if evt.DebugEventsUntilDate == nil {
		return false
	}
	ed.stateLock.Lock()
	defer ed.stateLock.Unlock()
	until := uint64(*evt.DebugEventsUntilDate)
	return until > ed.lastKnownPastTime && until > uint64(time.Now().UnixMilli())
}

func (ed *eventDispatcher) triggerFlush(outbox *eventsOutbox, flushCh chan<- *flushPayload, workersGroup *sync.WaitGroup) {
	if ed.isDisabled() {
		outbox.clear()
		return
	}
	payload := outbox.getPayload()
	totalEventCount := len(payload.events)
	if len(payload.summary.flags) > 0 {
		totalEventCount++
	}
	if totalEventCount == 0 {
		ed.eventsInLastBatch = 0
		return
	}
	workersGroup.Add(1)
	select {
	case flushCh <- &payload:
		ed.eventsInLastBatch = totalEventCount
		outbox.clear()
	default:
		workersGroup.Done()
	}
}

func (ed *eventDispatcher) isDisabled() bool {
	ed.stateLock.Lock()
	defer ed.stateLock.Unlock()
	return ed.disabled
}

func (ed *eventDispatcher) handleResult(result EventSenderResult) {
	ed.stateLock.Lock()
	defer ed.stateLock.Unlock()
	if result.MustShutDown {
		ed.disabled = true
		return
	}
	if result.TimeFromServer != 0 {
		ed.lastKnownPastTime = result.TimeFromServer
	}
}

func (ed *eventDispatcher) sendDiagnosticsEvent(event interface{}, flushCh chan<- *flushPayload, workersGroup *sync.WaitGroup) {
	payload := flushPayload{diagnosticEvent: event}
	workersGroup.Add(1)
	select {
	case flushCh <- &payload:
	default:
		workersGroup.Done()
	}
}

func startFlushTask(
	config EventsConfiguration,
	sender EventSender,
	flushCh <-chan *flushPayload,
	workersGroup *sync.WaitGroup,
	resultFn func(EventSenderResult),
) {
	formatter := newEventOutputFormatter(config)
	go runFlushTask(sender, formatter, flushCh, resultFn, workersGroup)
}

func runFlushTask(
	sender EventSender,
	formatter eventOutputFormatter,
	flushCh <-chan *flushPayload,
	resultFn func(EventSenderResult),
	workersGroup *sync.WaitGroup,
) {
	for payload := range flushCh {
		if payload.diagnosticEvent != nil {
			data, err := marshalSingle(payload.diagnosticEvent)
			if err == nil {
				resultFn(sender.SendEventData(DiagnosticEventDataKind, data, 1))
			}
		} else {
			data := formatter.makeOutputEvents(payload.events, payload.summary)
			if len(data) > 0 {
				resultFn(sender.SendEventData(AnalyticsEventDataKind, data, len(payload.events)))
			}
		}
		workersGroup.Done()
	}
}
