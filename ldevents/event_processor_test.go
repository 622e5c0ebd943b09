package ldevents

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchflag/ffcore/ldcontext"
	"github.com/launchflag/ffcore/ldreason"
	"github.com/launchflag/ffcore/ldvalue"
)

type flagEventPropertiesStub struct {
	key                  string
	version              int
	trackEvents          bool
	debugEventsUntilDate *int64
}

func (f *flagEventPropertiesStub) GetKey() string                       { return f.key }
func (f *flagEventPropertiesStub) GetVersion() int                      { return f.version }
func (f *flagEventPropertiesStub) IsFullEventTrackingEnabled() bool     { return f.trackEvents }
func (f *flagEventPropertiesStub) GetDebugEventsUntilDate() *int64      { return f.debugEventsUntilDate }
func (f *flagEventPropertiesStub) IsExperimentationEnabled(ldreason.Reason) bool { return false }

func evalDetail(value ldvalue.Value, variation int) ldreason.Detail {
	return ldreason.NewDetail(value, variation, ldreason.NewFallthrough())
}

type capturingLoggers struct{}

func (capturingLoggers) Debugf(string, ...interface{}) {}
func (capturingLoggers) Infof(string, ...interface{})  {}
func (capturingLoggers) Warnf(string, ...interface{})  {}
func (capturingLoggers) Errorf(string, ...interface{}) {}

func newTestServer(t *testing.T, onRequest func(*http.Request, []byte)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf, _ := io.ReadAll(r.Body)
		if onRequest != nil {
			onRequest(r, buf)
		}
		w.WriteHeader(http.StatusOK)
	}))
}

func TestEventProcessorSendsAndFlushes(t *testing.T) {
	var mu sync.Mutex
	var gotPayload bool
	server := newTestServer(t, func(r *http.Request, body []byte) {
		mu.Lock()
		defer mu.Unlock()
		if len(body) > 0 {
			gotPayload = true
		}
		assert.Equal(t, currentEventSchema, r.Header.Get(eventSchemaHeader))
		assert.NotEmpty(t, r.Header.Get(payloadIDHeader))
	})
	defer server.Close()

	config := EventsConfiguration{
		Capacity:      10,
		EventsURI:     server.URL,
		FlushInterval: time.Hour,
		HTTPClient:    server.Client(),
		Loggers:       capturingLoggers{},
	}
	ep := NewDefaultEventProcessor(config)
	defer ep.Close()

	factory := NewEventFactory(false)
	ctx := ldcontext.New("user-1")
	ep.SendEvent(factory.NewIdentifyEvent(ctx))

	require.True(t, ep.FlushBlocking(5*time.Second))

	mu.Lock()
	defer mu.Unlock()
	assert.True(t, gotPayload)
}

func TestEventProcessorDedupsIndexEvents(t *testing.T) {
	var mu sync.Mutex
	var bodies [][]byte
	server := newTestServer(t, func(_ *http.Request, body []byte) {
		mu.Lock()
		defer mu.Unlock()
		bodies = append(bodies, body)
	})
	defer server.Close()

	config := EventsConfiguration{
		Capacity:            10,
		EventsURI:           server.URL,
		FlushInterval:       time.Hour,
		ContextKeysCapacity: 100,
		HTTPClient:          server.Client(),
		Loggers:             capturingLoggers{},
	}
	ep := NewDefaultEventProcessor(config)
	defer ep.Close()

	ctx := ldcontext.New("user-1")
	flag := flagEventPropertiesStub{key: "flag", version: 1, trackEvents: true}
	detail := evalDetail(ldvalue.String("v"), 0)

	factory := NewEventFactory(false)
	ep.SendEvent(factory.NewEvaluationData(&flag, ctx, detail, ldvalue.String("d"), ""))
	ep.SendEvent(factory.NewEvaluationData(&flag, ctx, detail, ldvalue.String("d"), ""))
	require.True(t, ep.FlushBlocking(5*time.Second))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, bodies, 1)
	// Only one index event should have been recorded for the repeated context.
	assertContainsOnce(t, string(bodies[0]), `"kind":"index"`)
}

func TestEventProcessorIdentifySeedsDedupCacheForLaterFeatureEvent(t *testing.T) {
	var mu sync.Mutex
	var bodies [][]byte
	server := newTestServer(t, func(_ *http.Request, body []byte) {
		mu.Lock()
		defer mu.Unlock()
		bodies = append(bodies, body)
	})
	defer server.Close()

	config := EventsConfiguration{
		Capacity:            10,
		EventsURI:           server.URL,
		FlushInterval:       time.Hour,
		ContextKeysCapacity: 100,
		HTTPClient:          server.Client(),
		Loggers:             capturingLoggers{},
	}
	ep := NewDefaultEventProcessor(config)
	defer ep.Close()

	ctx := ldcontext.New("user-1")
	flag := flagEventPropertiesStub{key: "flag", version: 1, trackEvents: true}
	detail := evalDetail(ldvalue.String("v"), 0)

	factory := NewEventFactory(false)
	ep.SendEvent(factory.NewIdentifyEvent(ctx))
	ep.SendEvent(factory.NewEvaluationData(&flag, ctx, detail, ldvalue.String("d"), ""))
	require.True(t, ep.FlushBlocking(5*time.Second))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, bodies, 1)
	// The identify already recorded this context, so the following feature event must not
	// synthesize an index event for it.
	assert.NotContains(t, string(bodies[0]), `"kind":"index"`)
	assertContainsOnce(t, string(bodies[0]), `"kind":"identify"`)
}

func assertContainsOnce(t *testing.T, haystack, needle string) {
	t.Helper()
	count := 0
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			count++
		}
	}
	assert.Equal(t, 1, count)
}
