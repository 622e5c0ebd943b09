package ldevents

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventSenderReportsShutdownOnUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	sender := newDefaultEventSender(server.Client(), server.URL, "", nil, capturingLoggers{})
	result := sender.SendEventData(AnalyticsEventDataKind, []byte(`[]`), 0)

	assert.False(t, result.Success)
	assert.True(t, result.MustShutDown)
}

func TestEventSenderSucceedsOnOK(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, currentEventSchema, r.Header.Get(eventSchemaHeader))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sender := newDefaultEventSender(server.Client(), server.URL, "", nil, capturingLoggers{})
	result := sender.SendEventData(AnalyticsEventDataKind, []byte(`[]`), 1)

	assert.True(t, result.Success)
	assert.False(t, result.MustShutDown)
}

func TestEventSenderSkipsEmptyPayload(t *testing.T) {
	sender := newDefaultEventSender(http.DefaultClient, "", "", nil, capturingLoggers{})
	result := sender.SendEventData(AnalyticsEventDataKind, nil, 0)
	assert.True(t, result.Success)
}
