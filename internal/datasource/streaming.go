package datasource

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	es "github.com/launchdarkly/eventsource"
	"golang.org/x/exp/maps"

	"github.com/launchflag/ffcore/subsystems"
)

const (
	putEvent    = "put"
	patchEvent  = "patch"
	deleteEvent = "delete"

	streamReadTimeout        = 5 * time.Minute
	streamMaxRetryDelay      = 30 * time.Second
	streamRetryResetInterval = 60 * time.Second
	streamJitterRatio        = 0.5
	defaultStreamRetryDelay  = 1 * time.Second
)

// StreamConfig configures the streaming data source.
type StreamConfig struct {
	URI                   string
	InitialReconnectDelay time.Duration
}

// StreamProcessor is the streaming data source: an SSE subscription via
// github.com/launchdarkly/eventsource, restarted on malformed events or store outages. Grounded
// on the SDK's internal/datasource/streaming_data_source.go.
type StreamProcessor struct {
	cfg     StreamConfig
	updates subsystems.DataSourceUpdateSink
	client  *http.Client
	headers http.Header
	loggers subsystems.Loggers

	initialized atomic.Bool
	halt        chan struct{}
	closeOnce   sync.Once
	readyOnce   sync.Once
}

// NewStreamProcessor creates a StreamProcessor. httpClient is the already-configured client to
// issue the SSE request on (its Timeout is forced to zero, since a stream connection is never
// expected to complete within any fixed duration).
func NewStreamProcessor(
	cfg StreamConfig,
	updates subsystems.DataSourceUpdateSink,
	httpClient *http.Client,
	headers http.Header,
	loggers subsystems.Loggers,
) *StreamProcessor {
	client := httpClient
	if client == nil {
		client = &http.Client{}
	}
	clientCopy := *client
	clientCopy.Timeout = 0
	return &StreamProcessor{
		cfg:     cfg,
		updates: updates,
		client:  &clientCopy,
		headers: headers,
		loggers: loggers,
		halt:    make(chan struct{}),
	}
}

func (sp *StreamProcessor) IsInitialized() bool { return sp.initialized.Load() }

func (sp *StreamProcessor) Start(ctx context.Context, closeWhenReady chan<- struct{}) {
	sp.loggers.Infof("starting streaming connection to %s", sp.cfg.URI)
	go sp.subscribe(ctx, closeWhenReady)
}

func (sp *StreamProcessor) subscribe(ctx context.Context, closeWhenReady chan<- struct{}) {
	req, err := http.NewRequestWithContext(ctx, "GET", sp.cfg.URI, nil)
	if err != nil {
		sp.loggers.Errorf("unable to create stream request: %s", err)
		errInfo := subsystems.DataSourceErrorInfo{Kind: subsystems.ErrorKindUnknown, Message: err.Error(), Time: time.Now()}
		sp.updates.UpdateStatus(subsystems.DataSourceOff, &errInfo)
		sp.signalReady(closeWhenReady)
		return
	}
	if sp.headers != nil {
		req.Header = maps.Clone(sp.headers)
	}

	initialRetryDelay := sp.cfg.InitialReconnectDelay
	if initialRetryDelay <= 0 {
		initialRetryDelay = defaultStreamRetryDelay
	}

	errorHandler := func(err error) es.StreamErrorHandlerResult {
		if se, ok := err.(es.SubscriptionError); ok {
			errInfo := subsystems.DataSourceErrorInfo{Kind: subsystems.ErrorKindErrorResponse, StatusCode: se.Code, Time: time.Now()}
			if isRecoverableStatus(se.Code) {
				sp.updates.UpdateStatus(subsystems.DataSourceInterrupted, &errInfo)
				return es.StreamErrorHandlerResult{CloseNow: false}
			}
			sp.updates.UpdateStatus(subsystems.DataSourceOff, &errInfo)
			return es.StreamErrorHandlerResult{CloseNow: true}
		}
		errInfo := subsystems.DataSourceErrorInfo{Kind: subsystems.ErrorKindNetworkError, Message: err.Error(), Time: time.Now()}
		sp.updates.UpdateStatus(subsystems.DataSourceInterrupted, &errInfo)
		return es.StreamErrorHandlerResult{CloseNow: false}
	}

	stream, err := es.SubscribeWithRequestAndOptions(req,
		es.StreamOptionHTTPClient(sp.client),
		es.StreamOptionReadTimeout(streamReadTimeout),
		es.StreamOptionInitialRetry(initialRetryDelay),
		es.StreamOptionUseBackoff(streamMaxRetryDelay),
		es.StreamOptionUseJitter(streamJitterRatio),
		es.StreamOptionRetryResetInterval(streamRetryResetInterval),
		es.StreamOptionErrorHandler(errorHandler),
		es.StreamOptionCanRetryFirstConnection(-1),
	)
	if err != nil {
		sp.signalReady(closeWhenReady)
		return
	}
	sp.consumeStream(stream, closeWhenReady)
}

func (sp *StreamProcessor) consumeStream(stream *es.Stream, closeWhenReady chan<- struct{}) {
	defer func() {
		for range stream.Events {
		}
	}()
	for {
		select {
		case event, ok := <-stream.Events:
			if !ok {
				return
			}
			sp.handleEvent(event, stream, closeWhenReady)
		case <-sp.halt:
			stream.Close()
			return
		}
	}
}

func (sp *StreamProcessor) handleEvent(event es.Event, stream *es.Stream, closeWhenReady chan<- struct{}) {
	processed := true
	restart := false

	malformed := func(err error) {
		sp.loggers.Errorf("received malformed %q event (%s); restarting stream", event.Event(), err)
		errInfo := subsystems.DataSourceErrorInfo{Kind: subsystems.ErrorKindInvalidData, Message: err.Error(), Time: time.Now()}
		sp.updates.UpdateStatus(subsystems.DataSourceInterrupted, &errInfo)
		restart, processed = true, false
	}
	storeFailed := func(desc string) {
		sp.loggers.Errorf("failed to store %s; restarting stream", desc)
		restart, processed = true, false
	}

	switch event.Event() {
	case putEvent:
		put, err := parsePutData([]byte(event.Data()))
		if err != nil {
			malformed(err)
			break
		}
		if sp.updates.Init(put.Data) {
			sp.setInitialized(closeWhenReady)
		} else {
			storeFailed("initial streaming payload")
		}
	case patchEvent:
		patch, err := parsePatchData([]byte(event.Data()))
		if err != nil {
			malformed(err)
			break
		}
		if patch.Key == "" {
			break
		}
		if !sp.updates.Upsert(patch.Kind, patch.Key, patch.Data) {
			storeFailed("streaming update of " + patch.Key)
		}
	case deleteEvent:
		del, err := parseDeleteData([]byte(event.Data()))
		if err != nil {
			malformed(err)
			break
		}
		if del.Key == "" {
			break
		}
		tombstone := subsystems.ItemDescriptor{Version: del.Version, Item: nil}
		if !sp.updates.Upsert(del.Kind, del.Key, tombstone) {
			storeFailed("streaming deletion of " + del.Key)
		}
	default:
		sp.loggers.Infof("unexpected stream event: %s", event.Event())
	}

	if processed {
		sp.updates.UpdateStatus(subsystems.DataSourceValid, nil)
	}
	if restart {
		stream.Restart()
	}
}

func (sp *StreamProcessor) setInitialized(closeWhenReady chan<- struct{}) {
	wasInit := sp.initialized.Swap(true)
	if !wasInit {
		sp.loggers.Infof("streaming connection is active")
	}
	sp.signalReady(closeWhenReady)
}

func (sp *StreamProcessor) signalReady(closeWhenReady chan<- struct{}) {
	sp.readyOnce.Do(func() { close(closeWhenReady) })
}

func (sp *StreamProcessor) Close() error {
	sp.closeOnce.Do(func() {
		close(sp.halt)
		sp.updates.UpdateStatus(subsystems.DataSourceOff, nil)
	})
	return nil
}

func isRecoverableStatus(code int) bool {
	return code == 400 || code == 408 || code == 429 || code >= 500
}

var _ subsystems.DataSource = (*StreamProcessor)(nil)
