package ldevents

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	eventSchemaHeader  = "X-LaunchDarkly-Event-Schema"
	payloadIDHeader    = "X-LaunchDarkly-Payload-ID"
	currentEventSchema = "4"
)

// defaultEventSender posts already-serialized event payloads over HTTP, retrying once on a
// recoverable failure. Grounded on the SDK's sendEventsTask.postEvents.
type defaultEventSender struct {
	client  *http.Client
	uri     string
	diagURI string
	headers http.Header
	loggers Loggers
}

func newDefaultEventSender(client *http.Client, uri, diagURI string, headers http.Header, loggers Loggers) *defaultEventSender {
	if client == nil {
		client = http.DefaultClient
	}
	return &defaultEventSender{client: client, uri: uri, diagURI: diagURI, headers: headers, loggers: loggers}
}

func (s *defaultEventSender) SendEventData(kind EventDataKind, data []byte, eventCount int) EventSenderResult {
	uri := s.uri
	if kind == DiagnosticEventDataKind {
		uri = s.diagURI
	}
	if uri == "" || len(data) == 0 {
		return EventSenderResult{Success: true}
	}

	payloadUUID, _ := uuid.NewRandom()
	payloadID := payloadUUID.String()

	var resp *http.Response
	var respErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			s.loggers.Warnf("will retry posting events after 1 second")
			time.Sleep(time.Second)
		}
		req, err := http.NewRequest("POST", uri, bytes.NewReader(data))
		if err != nil {
			s.loggers.Errorf("unable to create event request: %s", err)
			return EventSenderResult{Success: false}
		}
		for k, vs := range s.headers {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
		req.Header.Set("Content-Type", "application/json")
		if kind == AnalyticsEventDataKind {
			req.Header.Set(eventSchemaHeader, currentEventSchema)
			req.Header.Set(payloadIDHeader, payloadID)
		}

		resp, respErr = s.client.Do(req)
		if resp != nil && resp.Body != nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
		}
		if respErr != nil {
			s.loggers.Warnf("error sending events: %s", respErr)
			continue
		}
		if resp.StatusCode >= 400 && isHTTPErrorRecoverable(resp.StatusCode) {
			s.loggers.Warnf("received error status %d sending events", resp.StatusCode)
			continue
		}
		break
	}
	if respErr != nil || resp == nil {
		return EventSenderResult{Success: false}
	}
	if err := checkForHTTPError(resp.StatusCode, uri); err != nil {
		s.loggers.Errorf(httpErrorMessage(resp.StatusCode, "posting events", "some events were dropped"))
		return EventSenderResult{Success: false, MustShutDown: !isHTTPErrorRecoverable(resp.StatusCode)}
	}
	var serverTime uint64
	if dt, err := http.ParseTime(resp.Header.Get("Date")); err == nil {
		serverTime = uint64(dt.UnixMilli())
	}
	return EventSenderResult{Success: true, TimeFromServer: serverTime}
}
