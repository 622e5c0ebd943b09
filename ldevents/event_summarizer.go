package ldevents

import (
	"github.com/launchflag/ffcore/ldcontext"
	"github.com/launchflag/ffcore/ldtime"
	"github.com/launchflag/ffcore/ldvalue"
)

// counterKey identifies one (variation, flag version) combination within a flag's summary.
// Grounded on event_summarizer_test.go's expectations (the production file isn't present in the
// reference corpus).
type counterKey struct {
	variation ldvalue.OptionalInt
	version   ldvalue.OptionalInt
}

type counterValue struct {
	count int
	value ldvalue.Value
}

// flagSummary accumulates counters and the set of context kinds seen for one flag key.
type flagSummary struct {
	defaultValue ldvalue.Value
	contextKinds map[ldcontext.Kind]struct{}
	counters     map[counterKey]*counterValue
}

// eventSummaryData is the immutable snapshot returned by eventSummarizer.snapshot.
type eventSummaryData struct {
	startDate ldtime.UnixMillisecondTime
	endDate   ldtime.UnixMillisecondTime
	flags     map[string]flagSummary
}

// eventSummary is the alias used by the flush payload; identical shape to eventSummaryData.
type eventSummary = eventSummaryData

// eventSummarizer accumulates per-flag evaluation counters between flushes. Owned exclusively by
// the dispatcher goroutine; never touched concurrently.
type eventSummarizer struct {
	startDate ldtime.UnixMillisecondTime
	endDate   ldtime.UnixMillisecondTime
	flags     map[string]flagSummary
}

func newEventSummarizer() eventSummarizer {
	return eventSummarizer{flags: make(map[string]flagSummary)}
}

func (s *eventSummarizer) summarizeEvent(e EvaluationData) {
	fs, ok := s.flags[e.Key]
	if !ok {
		fs = flagSummary{
			defaultValue: e.Default,
			contextKinds: make(map[ldcontext.Kind]struct{}),
			counters:     make(map[counterKey]*counterValue),
		}
		s.flags[e.Key] = fs
	}
	kind := e.Context.Kind()
	if kind == "" {
		kind = ldcontext.DefaultKind
	}
	fs.contextKinds[kind] = struct{}{}

	ck := counterKey{variation: e.Variation, version: e.Version}
	if cv, ok := fs.counters[ck]; ok {
		cv.count++
	} else {
		fs.counters[ck] = &counterValue{count: 1, value: e.Value}
	}

	if s.startDate == 0 || e.CreationDate < s.startDate {
		s.startDate = e.CreationDate
	}
	if e.CreationDate > s.endDate {
		s.endDate = e.CreationDate
	}
}

func (s *eventSummarizer) snapshot() eventSummaryData {
	return eventSummaryData{startDate: s.startDate, endDate: s.endDate, flags: s.flags}
}

func (s *eventSummarizer) clear() {
	s.startDate = 0
	s.endDate = 0
	s.flags = make(map[string]flagSummary)
}
