// Package ffcore assembles the evaluation core (ldmodel/eval), the pluggable subsystems,
// and the ldevents pipeline into a single client, the way the SDK's root ldclient package
// wires together ldeval, ldevents, and the data store/source factories.
package ffcore

import (
	"github.com/launchflag/ffcore/ldcomponents"
	"github.com/launchflag/ffcore/ldlog"
	"github.com/launchflag/ffcore/subsystems"
)

// Config is the set of factories Client uses to build its pluggable subsystems.
// Every field defaults to the in-process, network-talking behavior described in ldcomponents'
// doc comments; set a field to customize or disable that subsystem.
type Config struct {
	// DataStore builds the data store. Defaults to ldcomponents.InMemoryDataStore().
	DataStore subsystems.DataStoreFactory
	// DataSource builds the data source. Defaults to ldcomponents.StreamingDataSource().
	DataSource subsystems.DataSourceFactory
	// Events builds the event processor. Defaults to ldcomponents.SendEvents().
	Events subsystems.EventProcessorFactory
	// BigSegments configures the big segments oracle. Defaults to disabled (nil manager).
	BigSegments *ldcomponents.BigSegmentsConfigurationBuilder
	// HTTP configures shared HTTP transport settings. When nil, the client uses a zero
	// subsystems.HTTPConfiguration: no timeouts and no extra headers.
	HTTP *ldcomponents.HTTPConfigurationBuilder
	// Logging configures the client's ldlog.Loggers. Defaults to ldcomponents.Logging().
	Logging *ldcomponents.LoggingConfigurationBuilder
}

// clientContextImpl is the subsystems.ClientContext every factory is invoked with. Grounded on
// the SDK's clientContextImpl.
type clientContextImpl struct {
	sdkKey  string
	loggers ldlog.Loggers
	http    subsystems.HTTPConfiguration
}

func (c *clientContextImpl) GetSDKKey() string                   { return c.sdkKey }
func (c *clientContextImpl) GetLoggers() subsystems.Loggers      { return c.loggers }
func (c *clientContextImpl) GetHTTP() subsystems.HTTPConfiguration { return c.http }

var _ subsystems.ClientContext = (*clientContextImpl)(nil)
