package datasource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gregjones/httpcache"

	"github.com/launchflag/ffcore/subsystems"
)

// PollingConfig configures the polling data source.
type PollingConfig struct {
	URI          string
	PollInterval time.Duration
}

// httpStatusError is returned by poll when the polling endpoint responds with a non-2xx status.
type httpStatusError struct {
	Code int
}

func (e httpStatusError) Error() string { return fmt.Sprintf("HTTP error %d", e.Code) }

// PollingProcessor is the polling data source: it fetches the full flag/segment snapshot on
// a fixed interval via an httpcache-wrapped transport, so an unchanged snapshot is not
// downloaded again: the transport answers a 304 with the cached body, which is then parsed and
// applied like any other response. Grounded on the SDK's
// internal/datasource/polling_data_source.go.
type PollingProcessor struct {
	uri          string
	pollInterval time.Duration
	client       *http.Client
	headers      http.Header
	updates      subsystems.DataSourceUpdateSink
	loggers      subsystems.Loggers

	initialized atomic.Bool
	quit        chan struct{}
	closeOnce   sync.Once
}

// NewPollingProcessor creates a PollingProcessor. httpClient's Transport is wrapped in an
// httpcache.Transport so repeated polls send conditional requests; a 304 from the server is
// returned to poll as the cached response and re-applied.
func NewPollingProcessor(
	cfg PollingConfig,
	updates subsystems.DataSourceUpdateSink,
	httpClient *http.Client,
	headers http.Header,
	loggers subsystems.Loggers,
) *PollingProcessor {
	client := httpClient
	if client == nil {
		client = &http.Client{}
	}
	transport := client.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	cachedClient := *client
	cachedClient.Transport = httpcache.NewTransport(httpcache.NewMemoryCache())
	cachedClient.Transport.(*httpcache.Transport).Transport = transport

	return &PollingProcessor{
		uri:          cfg.URI,
		pollInterval: cfg.PollInterval,
		client:       &cachedClient,
		headers:      headers,
		updates:      updates,
		loggers:      loggers,
		quit:         make(chan struct{}),
	}
}

func (pp *PollingProcessor) IsInitialized() bool { return pp.initialized.Load() }

func (pp *PollingProcessor) Start(ctx context.Context, closeWhenReady chan<- struct{}) {
	pp.loggers.Infof("starting polling with interval %s", pp.pollInterval)
	go pp.run(ctx, closeWhenReady)
}

func (pp *PollingProcessor) run(ctx context.Context, closeWhenReady chan<- struct{}) {
	var ready sync.Once
	notifyReady := func() { ready.Do(func() { close(closeWhenReady) }) }
	defer notifyReady()

	ticker := time.NewTicker(pp.pollInterval)
	defer ticker.Stop()

	poll := func() bool {
		err := pp.poll(ctx)
		if err != nil {
			if hse, ok := err.(httpStatusError); ok {
				errInfo := subsystems.DataSourceErrorInfo{Kind: subsystems.ErrorKindErrorResponse, StatusCode: hse.Code, Time: time.Now()}
				if !isRecoverableStatus(hse.Code) {
					pp.updates.UpdateStatus(subsystems.DataSourceOff, &errInfo)
					return false
				}
				pp.updates.UpdateStatus(subsystems.DataSourceInterrupted, &errInfo)
				return true
			}
			errInfo := subsystems.DataSourceErrorInfo{Kind: subsystems.ErrorKindNetworkError, Message: err.Error(), Time: time.Now()}
			pp.updates.UpdateStatus(subsystems.DataSourceInterrupted, &errInfo)
			return true
		}
		pp.updates.UpdateStatus(subsystems.DataSourceValid, nil)
		if !pp.initialized.Swap(true) {
			pp.loggers.Infof("first polling request succeeded")
		}
		notifyReady()
		return true
	}

	if !poll() {
		return
	}
	for {
		select {
		case <-pp.quit:
			return
		case <-ticker.C:
			if !poll() {
				return
			}
		}
	}
}

func (pp *PollingProcessor) poll(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", pp.uri, nil)
	if err != nil {
		return err
	}
	for k, vs := range pp.headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	resp, err := pp.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotModified {
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return httpStatusError{Code: resp.StatusCode}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	put, err := parsePutData(body)
	if err != nil {
		return err
	}
	pp.updates.Init(put.Data)
	return nil
}

func (pp *PollingProcessor) Close() error {
	pp.closeOnce.Do(func() { close(pp.quit) })
	return nil
}

var _ subsystems.DataSource = (*PollingProcessor)(nil)
