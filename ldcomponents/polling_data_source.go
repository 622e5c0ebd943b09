package ldcomponents

import (
	"time"

	"github.com/launchflag/ffcore/internal/datasource"
	"github.com/launchflag/ffcore/subsystems"
)

// DefaultPollingBaseURI is the default polling endpoint.
const DefaultPollingBaseURI = "https://poll.launchflag.example"

// DefaultPollInterval is the default value for PollingDataSourceBuilder.PollInterval.
const DefaultPollInterval = 30 * time.Second

// MinimumPollInterval is the floor PollInterval is clamped to.
const MinimumPollInterval = 30 * time.Second

// PollingDataSourceBuilder configures the polling data source, an alternative to streaming for
// environments where a long-lived SSE connection isn't viable (e.g. behind a restrictive proxy).
type PollingDataSourceBuilder struct {
	baseURI      string
	pollInterval time.Duration
}

// PollingDataSource returns a configurable factory for the polling data source.
func PollingDataSource() *PollingDataSourceBuilder {
	return &PollingDataSourceBuilder{baseURI: DefaultPollingBaseURI, pollInterval: DefaultPollInterval}
}

// BaseURI overrides the polling service endpoint.
func (b *PollingDataSourceBuilder) BaseURI(uri string) *PollingDataSourceBuilder {
	b.baseURI = uri
	return b
}

// PollInterval sets how often the full dataset is re-fetched; values below MinimumPollInterval
// are clamped up to it.
func (b *PollingDataSourceBuilder) PollInterval(interval time.Duration) *PollingDataSourceBuilder {
	if interval < MinimumPollInterval {
		interval = MinimumPollInterval
	}
	b.pollInterval = interval
	return b
}

// CreateDataSource is called by the SDK to build the polling processor.
func (b *PollingDataSourceBuilder) CreateDataSource(
	context subsystems.ClientContext, updates subsystems.DataSourceUpdateSink,
) (subsystems.DataSource, error) {
	client := newHTTPClient(context)
	cfg := datasource.PollingConfig{URI: b.baseURI + "/all", PollInterval: b.pollInterval}
	return datasource.NewPollingProcessor(cfg, updates, client, defaultHeaders(context), context.GetLoggers()), nil
}
