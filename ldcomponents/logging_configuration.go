package ldcomponents

import (
	"github.com/launchflag/ffcore/ldlog"
)

// LoggingConfigurationBuilder configures the destination and level filtering of log output.
type LoggingConfigurationBuilder struct {
	loggers ldlog.Loggers
}

// Logging returns a configuration builder for logging, with default settings: an
// ldlog.NewDefaultLoggers() destination at ldlog.Info level.
func Logging() *LoggingConfigurationBuilder {
	return &LoggingConfigurationBuilder{loggers: ldlog.NewDefaultLoggers()}
}

// Loggers specifies an instance of ldlog.Loggers to use, such as one built with
// ldlog.NewZapLoggers for structured output.
func (b *LoggingConfigurationBuilder) Loggers(loggers ldlog.Loggers) *LoggingConfigurationBuilder {
	b.loggers = loggers
	return b
}

// MinLevel sets the minimum level for log output; messages below it are suppressed.
func (b *LoggingConfigurationBuilder) MinLevel(level ldlog.LogLevel) *LoggingConfigurationBuilder {
	b.loggers.SetMinLevel(level)
	return b
}

// CreateLoggingConfiguration is called internally by the client to obtain the configured
// ldlog.Loggers.
func (b *LoggingConfigurationBuilder) CreateLoggingConfiguration() ldlog.Loggers {
	return b.loggers
}

// NoLogging returns a logging configuration with all output suppressed.
func NoLogging() *LoggingConfigurationBuilder {
	return &LoggingConfigurationBuilder{loggers: ldlog.NewDisabledLoggers()}
}
