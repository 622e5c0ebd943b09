package ldevents

import (
	"encoding/json"
	"sort"

	"github.com/launchflag/ffcore/ldcontext"
	"github.com/launchflag/ffcore/ldvalue"
)

// eventsOutbox buffers pending output events and the running summary between flushes. Owned
// exclusively by the dispatcher goroutine.
type eventsOutbox struct {
	capacity      int
	events        []Event
	summarizer    eventSummarizer
	droppedEvents int
	loggers       Loggers
	capacityWarn  bool
}

func newEventsOutbox(capacity int, loggers Loggers) eventsOutbox {
	return eventsOutbox{capacity: capacity, summarizer: newEventSummarizer(), loggers: loggers}
}

func (o *eventsOutbox) addEvent(e Event) {
	if o.capacity > 0 && len(o.events) >= o.capacity {
		o.droppedEvents++
		if !o.capacityWarn {
			o.capacityWarn = true
			o.loggers.Warnf("Exceeded event queue capacity of %d; some events will be dropped", o.capacity)
		}
		return
	}
	o.events = append(o.events, e)
}

func (o *eventsOutbox) addToSummary(e EvaluationData) {
	o.summarizer.summarizeEvent(e)
}

func (o *eventsOutbox) getPayload() flushPayload {
	return flushPayload{events: o.events, summary: o.summarizer.snapshot()}
}

func (o *eventsOutbox) clear() {
	o.events = nil
	o.summarizer.clear()
	o.capacityWarn = false
}

// contextOutputFilter redacts private context attributes before an event carries a context
// inline, per the PrivateAttributeNames/AllAttributesPrivate configuration. Grounded on the SDK's userFilter, generalized from lduser.User to ldcontext.Context.
type contextOutputFilter struct {
	allAttributesPrivate bool
	globalPrivateNames   map[string]bool
}

func newContextOutputFilter(config EventsConfiguration) contextOutputFilter {
	names := make(map[string]bool, len(config.PrivateAttributeNames))
	for _, n := range config.PrivateAttributeNames {
		names[n] = true
	}
	return contextOutputFilter{allAttributesPrivate: config.AllAttributesPrivate, globalPrivateNames: names}
}

func (f contextOutputFilter) toOutputValue(c ldcontext.Context) ldvalue.Value {
	m := map[string]ldvalue.Value{"key": ldvalue.String(c.Key())}
	if c.Kind() != "" && c.Kind() != ldcontext.DefaultKind {
		m["kind"] = ldvalue.String(string(c.Kind()))
	}
	var redacted []string
	for name, val := range c.Attributes() {
		if f.allAttributesPrivate || f.globalPrivateNames[name] || c.IsAttributePrivate(name) {
			redacted = append(redacted, name)
			continue
		}
		m[name] = val
	}
	if len(redacted) > 0 {
		sort.Strings(redacted)
		arr := make([]ldvalue.Value, len(redacted))
		for i, n := range redacted {
			arr[i] = ldvalue.String(n)
		}
		m["_redactedAttributes"] = ldvalue.Array(arr...)
	}
	return ldvalue.Object(m)
}

// eventOutputFormatter serializes the dispatcher's pending events and summary into the wire
// format the event-ingestion service expects.
type eventOutputFormatter struct {
	contextFilter contextOutputFilter
	config        EventsConfiguration
}

func newEventOutputFormatter(config EventsConfiguration) eventOutputFormatter {
	return eventOutputFormatter{contextFilter: newContextOutputFilter(config), config: config}
}

type outputEvent map[string]interface{}

func (f eventOutputFormatter) makeOutputEvents(events []Event, summary eventSummaryData) []byte {
	var out []outputEvent
	for _, e := range events {
		out = append(out, f.makeOutputEvent(e))
	}
	if len(summary.flags) > 0 {
		out = append(out, f.makeSummaryEvent(summary))
	}
	if len(out) == 0 {
		return nil
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil
	}
	return data
}

func (f eventOutputFormatter) makeOutputEvent(e Event) outputEvent {
	switch evt := e.(type) {
	case EvaluationData:
		kind := "feature"
		if evt.Debug {
			kind = "debug"
		}
		o := outputEvent{
			"kind":         kind,
			"creationDate": evt.CreationDate,
			"key":          evt.Key,
			"value":        evt.Value,
			"default":      evt.Default,
		}
		if evt.Version.IsDefined() {
			o["version"] = evt.Version.IntValue()
		}
		if evt.Variation.IsDefined() {
			o["variation"] = evt.Variation.IntValue()
		}
		if evt.Reason.Kind != "" {
			o["reason"] = evt.Reason
		}
		if evt.PrereqOf.IsDefined() {
			o["prereqOf"] = evt.PrereqOf.StringValue()
		}
		if evt.Debug {
			o["context"] = f.contextFilter.toOutputValue(evt.Context)
		} else {
			o["contextKeys"] = contextKeysMap(evt.Context)
		}
		return o
	case IdentifyEvent:
		return outputEvent{
			"kind":         "identify",
			"creationDate": evt.CreationDate,
			"context":      f.contextFilter.toOutputValue(evt.Context),
		}
	case CustomEvent:
		o := outputEvent{
			"kind":         "custom",
			"creationDate": evt.CreationDate,
			"key":          evt.Key,
			"contextKeys":  contextKeysMap(evt.Context),
		}
		if !evt.Data.IsNull() {
			o["data"] = evt.Data
		}
		if evt.HasMetric {
			o["metricValue"] = evt.MetricValue
		}
		return o
	case IndexEvent:
		return outputEvent{
			"kind":         "index",
			"creationDate": evt.CreationDate,
			"context":      f.contextFilter.toOutputValue(evt.Context),
		}
	case AliasEvent:
		return outputEvent{
			"kind":         "alias",
			"creationDate": evt.CreationDate,
			"key":          evt.NewKey,
			"contextKind":  evt.NewKind,
			"previousKey":  evt.OldKey,
			"previousContextKind": evt.OldKind,
		}
	case MigrationOpEvent:
		return outputEvent{
			"kind":            "migration_op",
			"creationDate":    evt.CreationDate,
			"contextKeys":     contextKeysMap(evt.Context),
			"operation":       evt.Op,
			"evaluation":      outputEvent{"key": evt.FlagKey},
			"measurements":    outputEvent{"invoked": evt.Invoked, "latencyMs": evt.LatenciesMillis, "error": evt.Errors},
		}
	default:
		return outputEvent{"kind": "unknown"}
	}
}

func marshalSingle(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func contextKeysMap(c ldcontext.Context) map[string]string {
	keys := make(map[string]string)
	n := c.IndividualContextCount()
	if n == 0 {
		n = 1
	}
	for i := 0; i < n; i++ {
		single, ok := c.IndividualContextByIndex(i)
		if !ok {
			single = c
		}
		kind := single.Kind()
		if kind == "" {
			kind = ldcontext.DefaultKind
		}
		keys[string(kind)] = single.Key()
	}
	return keys
}

func (f eventOutputFormatter) makeSummaryEvent(summary eventSummaryData) outputEvent {
	features := make(map[string]interface{}, len(summary.flags))
	for key, fs := range summary.flags {
		var counters []outputEvent
		for ck, cv := range fs.counters {
			c := outputEvent{"count": cv.count, "value": cv.value}
			if ck.version.IsDefined() {
				c["version"] = ck.version.IntValue()
			} else {
				c["unknown"] = true
			}
			if ck.variation.IsDefined() {
				c["variation"] = ck.variation.IntValue()
			}
			counters = append(counters, c)
		}
		kinds := make([]string, 0, len(fs.contextKinds))
		for k := range fs.contextKinds {
			kinds = append(kinds, string(k))
		}
		sort.Strings(kinds)
		features[key] = outputEvent{
			"default":      fs.defaultValue,
			"counters":     counters,
			"contextKinds": kinds,
		}
	}
	return outputEvent{
		"kind":      "summary",
		"startDate": summary.startDate,
		"endDate":   summary.endDate,
		"features":  features,
	}
}
