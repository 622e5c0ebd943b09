package ffcore

import (
	"context"
	"errors"
	"time"

	"github.com/launchflag/ffcore/bigsegments"
	"github.com/launchflag/ffcore/eval"
	"github.com/launchflag/ffcore/flagtracker"
	"github.com/launchflag/ffcore/internal/broadcast"
	"github.com/launchflag/ffcore/internal/datastore"
	"github.com/launchflag/ffcore/ldcomponents"
	"github.com/launchflag/ffcore/ldcontext"
	"github.com/launchflag/ffcore/ldevents"
	"github.com/launchflag/ffcore/ldlog"
	"github.com/launchflag/ffcore/ldmodel"
	"github.com/launchflag/ffcore/ldreason"
	"github.com/launchflag/ffcore/ldvalue"
	"github.com/launchflag/ffcore/subsystems"
)

// ErrInitializationTimeout is returned by MakeClient when waitFor elapses before the data
// source finishes (or fails) its initial connection.
var ErrInitializationTimeout = errors.New("timeout waiting for client initialization")

// ErrInitializationFailed is returned by MakeClient when the data source reports it will never
// successfully initialize (e.g. an unrecoverable auth failure).
var ErrInitializationFailed = errors.New("client initialization failed")

// Client is the evaluation core's public façade: it owns the data store, data source, event
// processor, and evaluator, and exposes the handful of entry points needed to evaluate flags and
// submit analytics events. Grounded on the SDK's LDClient assembly in ldclient.go, trimmed to
// the subset of the public SDK surface this package exposes.
type Client struct {
	sdkKey         string
	loggers        ldlog.Loggers
	store          subsystems.DataStore
	storeUpdates   *dataStoreUpdates
	dataSource     subsystems.DataSource
	sourceUpdates  *dataSourceUpdates
	eventProcessor subsystems.EventProcessor
	evaluator      *eval.Evaluator
	bigSegments    *bigsegments.Manager
	eventFactory   ldevents.EventFactory
	flagChange     *broadcast.FlagChangeBroadcaster
	tracker        *flagtracker.Tracker
	hooks          []Hook
}

// MakeClient builds and starts a Client, blocking up to waitFor for the data source to report
// its initial state. waitFor == 0 returns immediately without waiting.
func MakeClient(sdkKey string, config Config, waitFor time.Duration) (*Client, error) {
	loggers := ldlog.NewDefaultLoggers()
	if config.Logging != nil {
		loggers = config.Logging.CreateLoggingConfiguration()
	}

	httpConfig := subsystems.HTTPConfiguration{}
	if config.HTTP != nil {
		httpConfig = config.HTTP.Build()
	}
	clientContext := &clientContextImpl{sdkKey: sdkKey, loggers: loggers, http: httpConfig}

	storeUpdates := newDataStoreUpdates()
	storeFactory := config.DataStore
	if storeFactory == nil {
		storeFactory = ldcomponents.InMemoryDataStore()
	}
	store, err := storeFactory.CreateDataStore(clientContext, storeUpdates)
	if err != nil {
		return nil, err
	}
	storeUpdates.setStore(store)
	storeStatuses := &dataStoreStatusProvider{updates: storeUpdates}

	flagChangeBroadcaster := broadcast.NewFlagChangeBroadcaster()
	sourceUpdates := newDataSourceUpdates(store, storeStatuses, flagChangeBroadcaster, loggers)

	var bigSegmentsManager *bigsegments.Manager
	if config.BigSegments != nil {
		bigSegmentsManager, err = config.BigSegments.CreateBigSegments(clientContext)
		if err != nil {
			return nil, err
		}
	}

	eventsFactory := config.Events
	if eventsFactory == nil {
		eventsFactory = ldcomponents.SendEvents()
	}
	eventProcessor, err := eventsFactory.CreateEventProcessor(clientContext)
	if err != nil {
		return nil, err
	}

	var bigSegmentsProvider eval.BigSegmentProvider
	if bigSegmentsManager != nil {
		bigSegmentsProvider = bigSegmentsManager
	}
	evaluator := eval.NewEvaluator(datastore.NewProvider(store), bigSegmentsProvider)

	client := &Client{
		sdkKey:         sdkKey,
		loggers:        loggers,
		store:          store,
		storeUpdates:   storeUpdates,
		sourceUpdates:  sourceUpdates,
		eventProcessor: eventProcessor,
		evaluator:      evaluator,
		bigSegments:    bigSegmentsManager,
		eventFactory:   ldevents.NewEventFactory(true),
		flagChange:     flagChangeBroadcaster,
	}
	client.tracker = flagtracker.New(flagChangeBroadcaster, func(key string, evalContext ldcontext.Context, defaultValue ldvalue.Value) ldvalue.Value {
		return client.JSONVariation(key, evalContext, defaultValue)
	})

	sourceFactory := config.DataSource
	if sourceFactory == nil {
		sourceFactory = ldcomponents.StreamingDataSource()
	}
	client.dataSource, err = sourceFactory.CreateDataSource(clientContext, sourceUpdates)
	if err != nil {
		return nil, err
	}

	closeWhenReady := make(chan struct{})
	client.dataSource.Start(context.Background(), closeWhenReady)

	if waitFor <= 0 {
		go func() { <-closeWhenReady }()
		return client, nil
	}

	select {
	case <-closeWhenReady:
		if !client.dataSource.IsInitialized() {
			return client, ErrInitializationFailed
		}
		return client, nil
	case <-time.After(waitFor):
		return client, ErrInitializationTimeout
	}
}

// AddHook registers a Hook to be invoked around every evaluation.
func (c *Client) AddHook(hook Hook) {
	c.hooks = append(c.hooks, hook)
}

// Initialized reports whether the data source has successfully received its initial data set.
// It stays false after a failed first connection attempt.
func (c *Client) Initialized() bool {
	return c.dataSource.IsInitialized()
}

// DataSourceStatusProvider exposes the data-source status and its change notifications.
func (c *Client) DataSourceStatusProvider() subsystems.DataSourceStatusProvider {
	return c.sourceUpdates
}

// DataStoreStatusProvider exposes the data-store status and its change notifications.
func (c *Client) DataStoreStatusProvider() subsystems.DataStoreStatusProvider {
	return &dataStoreStatusProvider{updates: c.storeUpdates}
}

// FlagTracker exposes flag-change and flag-value-change subscriptions.
func (c *Client) FlagTracker() *flagtracker.Tracker {
	return c.tracker
}

// BoolVariation evaluates a boolean flag, returning defaultValue if the flag is missing,
// targeting is off with no off variation, or an error occurs.
func (c *Client) BoolVariation(key string, context ldcontext.Context, defaultValue bool) bool {
	detail, _ := c.evaluate(key, context, ldvalue.Bool(defaultValue))
	return detail.Value.BoolValue()
}

// StringVariation evaluates a string flag.
func (c *Client) StringVariation(key string, context ldcontext.Context, defaultValue string) string {
	detail, _ := c.evaluate(key, context, ldvalue.String(defaultValue))
	return detail.Value.StringValue()
}

// IntVariation evaluates a numeric flag, truncating toward zero.
func (c *Client) IntVariation(key string, context ldcontext.Context, defaultValue int) int {
	detail, _ := c.evaluate(key, context, ldvalue.Int(defaultValue))
	return detail.Value.IntValue()
}

// JSONVariation evaluates a flag of any JSON type.
func (c *Client) JSONVariation(key string, context ldcontext.Context, defaultValue ldvalue.Value) ldvalue.Value {
	detail, _ := c.evaluate(key, context, defaultValue)
	return detail.Value
}

// BoolVariationDetail is BoolVariation plus the full evaluation reason.
func (c *Client) BoolVariationDetail(key string, context ldcontext.Context, defaultValue bool) (bool, ldreason.Detail) {
	detail, _ := c.evaluate(key, context, ldvalue.Bool(defaultValue))
	return detail.Value.BoolValue(), detail
}

// Evaluate runs the evaluator against the named flag, running hooks and emitting the resulting
// analytics event, and returns the full Detail.
func (c *Client) Evaluate(key string, evalContext ldcontext.Context, defaultValue ldvalue.Value) ldreason.Detail {
	detail, _ := c.evaluate(key, evalContext, defaultValue)
	return detail
}

func (c *Client) evaluate(key string, evalContext ldcontext.Context, defaultValue ldvalue.Value) (ldreason.Detail, *ldmodel.Flag) {
	for _, h := range c.hooks {
		h.BeforeEvaluation(key, evalContext)
	}

	flag, err := c.store.Get(ldmodel.Flags, key)
	if err != nil || flag.Item == nil {
		detail := ldreason.NewDetailForError(ldreason.FlagNotFoundKind, defaultValue)
		c.sendUnknownFlagEvent(key, evalContext, defaultValue, detail.Reason)
		c.runAfterHooks(key, evalContext, detail)
		return detail, nil
	}
	f, isFlag := flag.Item.(*ldmodel.Flag)
	if !isFlag {
		detail := ldreason.NewDetailForError(ldreason.MalformedFlagKind, defaultValue)
		c.runAfterHooks(key, evalContext, detail)
		return detail, nil
	}

	var prereqEvents []eval.PrerequisiteEvent
	detail := c.evaluator.Evaluate(f, evalContext, func(e eval.PrerequisiteEvent) {
		prereqEvents = append(prereqEvents, e)
	})
	if detail.IsDefaultValue() {
		detail.Value = defaultValue
	}

	for _, pe := range prereqEvents {
		evt := c.eventFactory.NewEvaluationData(&pe.PrerequisiteFlag, evalContext, pe.Result, ldvalue.Null(), pe.FlagKey)
		c.eventProcessor.SendEvent(evt)
	}
	evt := c.eventFactory.NewEvaluationData(f, evalContext, detail, defaultValue, "")
	c.eventProcessor.SendEvent(evt)

	c.runAfterHooks(key, evalContext, detail)
	return detail, f
}

func (c *Client) sendUnknownFlagEvent(key string, evalContext ldcontext.Context, defaultValue ldvalue.Value, reason ldreason.Reason) {
	c.eventProcessor.SendEvent(c.eventFactory.NewUnknownFlagEvaluationData(key, evalContext, defaultValue, reason))
}

func (c *Client) runAfterHooks(key string, evalContext ldcontext.Context, detail ldreason.Detail) {
	for _, h := range c.hooks {
		h.AfterEvaluation(key, evalContext, detail)
	}
}

// Identify reports details about an evaluation context, e.g. to populate the LaunchDarkly
// dashboard's context explorer without creating a flag evaluation.
func (c *Client) Identify(evalContext ldcontext.Context) {
	c.eventProcessor.SendEvent(c.eventFactory.NewIdentifyEvent(evalContext))
}

// TrackEvent records a custom conversion event with no attached data.
func (c *Client) TrackEvent(eventName string, evalContext ldcontext.Context) {
	c.eventProcessor.SendEvent(c.eventFactory.NewCustomEvent(eventName, evalContext, ldvalue.Null()))
}

// TrackData records a custom conversion event carrying arbitrary JSON data.
func (c *Client) TrackData(eventName string, evalContext ldcontext.Context, data ldvalue.Value) {
	c.eventProcessor.SendEvent(c.eventFactory.NewCustomEvent(eventName, evalContext, data))
}

// TrackMetric records a custom conversion event carrying a numeric metric value, e.g. for
// revenue or latency tracking in an experiment.
func (c *Client) TrackMetric(eventName string, evalContext ldcontext.Context, data ldvalue.Value, metricValue float64) {
	c.eventProcessor.SendEvent(c.eventFactory.NewCustomEventWithMetric(eventName, evalContext, data, metricValue))
}

// Alias associates two evaluation contexts as referring to the same end user, e.g. after an
// anonymous context authenticates.
func (c *Client) Alias(newContext, oldContext ldcontext.Context) {
	c.eventProcessor.SendEvent(c.eventFactory.NewAliasEvent(newContext, oldContext))
}

// TrackMigrationOp records a migration_op event describing one dual-write/dual-read operation
// carried out while migrating traffic between an old and new implementation; the migration
// orchestration itself is the caller's responsibility.
func (c *Client) TrackMigrationOp(event ldevents.MigrationOpEvent) {
	c.eventProcessor.SendEvent(event)
}

// Flush triggers an asynchronous flush of any buffered analytics events.
func (c *Client) Flush() {
	c.eventProcessor.Flush()
}

// Close shuts down the data source, flushes and closes the event processor, and closes the data
// store and big segments manager. Close is idempotent-safe to call once at shutdown; it is not
// safe to call Client methods afterward.
func (c *Client) Close() error {
	var firstErr error
	if err := c.dataSource.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := c.eventProcessor.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := c.store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if c.bigSegments != nil {
		if err := c.bigSegments.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
