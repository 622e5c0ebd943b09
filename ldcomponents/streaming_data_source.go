// Package ldcomponents provides configuration builder functions for the pluggable
// subsystems.DataSourceFactory/DataStoreFactory/EventProcessorFactory/BigSegmentStoreFactory
// implementations a Config wires together. Grounded on the SDK's ldcomponents package: one
// builder type per concern, each with a constructor function, chainable setters, and a
// Create*/Build method the client calls at startup.
package ldcomponents

import (
	"net"
	"net/http"
	"time"

	"github.com/launchflag/ffcore/internal/datasource"
	"github.com/launchflag/ffcore/subsystems"
)

// DefaultStreamingBaseURI is the default streaming endpoint.
const DefaultStreamingBaseURI = "https://stream.launchflag.example"

// DefaultInitialReconnectDelay is the default value for StreamingDataSourceBuilder.InitialReconnectDelay.
const DefaultInitialReconnectDelay = time.Second

// StreamingDataSourceBuilder configures the streaming (SSE) data source.
type StreamingDataSourceBuilder struct {
	baseURI               string
	initialReconnectDelay time.Duration
}

// StreamingDataSource returns a configurable factory for the streaming data source. This is the
// default if no DataSource is set on Config.
func StreamingDataSource() *StreamingDataSourceBuilder {
	return &StreamingDataSourceBuilder{
		baseURI:               DefaultStreamingBaseURI,
		initialReconnectDelay: DefaultInitialReconnectDelay,
	}
}

// BaseURI overrides the streaming service endpoint.
func (b *StreamingDataSourceBuilder) BaseURI(uri string) *StreamingDataSourceBuilder {
	b.baseURI = uri
	return b
}

// InitialReconnectDelay sets the initial reconnect delay for the streaming connection; it
// backs off exponentially with jitter on repeated failures.
func (b *StreamingDataSourceBuilder) InitialReconnectDelay(delay time.Duration) *StreamingDataSourceBuilder {
	if delay <= 0 {
		delay = DefaultInitialReconnectDelay
	}
	b.initialReconnectDelay = delay
	return b
}

// CreateDataSource is called by the SDK to build the streaming processor.
func (b *StreamingDataSourceBuilder) CreateDataSource(
	context subsystems.ClientContext, updates subsystems.DataSourceUpdateSink,
) (subsystems.DataSource, error) {
	client := newHTTPClient(context)
	cfg := datasource.StreamConfig{URI: b.baseURI + "/all", InitialReconnectDelay: b.initialReconnectDelay}
	return datasource.NewStreamProcessor(cfg, updates, client, defaultHeaders(context), context.GetLoggers()), nil
}

func newHTTPClient(context subsystems.ClientContext) *http.Client {
	httpCfg := context.GetHTTP()
	if httpCfg.CreateHTTPClient != nil {
		// The subsystems.HTTPClient placeholder interface only exists to let ClientContext be
		// mocked without importing net/http; real data sources talk directly to net/http.
		_ = httpCfg.CreateHTTPClient
	}
	client := &http.Client{Timeout: httpCfg.SocketTimeout}
	if httpCfg.ConnectTimeout > 0 {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.DialContext = (&net.Dialer{Timeout: httpCfg.ConnectTimeout}).DialContext
		client.Transport = transport
	}
	return client
}

func defaultHeaders(context subsystems.ClientContext) http.Header {
	h := http.Header{}
	h.Set("Authorization", context.GetSDKKey())
	for k, v := range context.GetHTTP().Headers {
		h.Set(k, v)
	}
	return h
}
