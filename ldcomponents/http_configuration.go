package ldcomponents

import (
	"time"

	"github.com/launchflag/ffcore/subsystems"
)

// DefaultConnectTimeout is the default value for HTTPConfigurationBuilder.ConnectTimeout.
const DefaultConnectTimeout = 10 * time.Second

// DefaultSocketTimeout is the default value for HTTPConfigurationBuilder.SocketTimeout.
const DefaultSocketTimeout = 5 * time.Minute

// HTTPConfigurationBuilder configures the HTTP transport concerns shared by every data source
// and the event processor: timeouts and default headers.
type HTTPConfigurationBuilder struct {
	connectTimeout time.Duration
	socketTimeout  time.Duration
	headers        map[string]string
}

// HTTPConfig returns a configurable factory for HTTP transport settings.
func HTTPConfig() *HTTPConfigurationBuilder {
	return &HTTPConfigurationBuilder{
		connectTimeout: DefaultConnectTimeout,
		socketTimeout:  DefaultSocketTimeout,
		headers:        map[string]string{},
	}
}

// ConnectTimeout sets the maximum time to wait for a TCP connection to be established.
func (b *HTTPConfigurationBuilder) ConnectTimeout(timeout time.Duration) *HTTPConfigurationBuilder {
	b.connectTimeout = timeout
	return b
}

// SocketTimeout sets the maximum time to wait for a response once a request has been sent.
func (b *HTTPConfigurationBuilder) SocketTimeout(timeout time.Duration) *HTTPConfigurationBuilder {
	b.socketTimeout = timeout
	return b
}

// Header adds a header to every outgoing request, in addition to the SDK key and payload
// headers the data source and event processor set themselves.
func (b *HTTPConfigurationBuilder) Header(key, value string) *HTTPConfigurationBuilder {
	b.headers[key] = value
	return b
}

// Build produces the subsystems.HTTPConfiguration the client context carries.
func (b *HTTPConfigurationBuilder) Build() subsystems.HTTPConfiguration {
	return subsystems.HTTPConfiguration{
		Headers:        b.headers,
		ConnectTimeout: b.connectTimeout,
		SocketTimeout:  b.socketTimeout,
	}
}
