// Package subsystems defines the boundary interfaces between the evaluation core and its
// pluggable collaborators: data store, data source, event sender, and the broadcasters that
// report their status. These are contracts only; concrete implementations live under
// internal/datastore, internal/datasource, internal/broadcast, bigsegments, and ldevents.
package subsystems

import (
	"context"
	"time"

	"github.com/launchflag/ffcore/ldmodel"
)

// DataKind identifies a collection in the data store (flags or segments).
type DataKind = ldmodel.DataKind

// SerializedItemDescriptor is the persistent-store boundary's unit of storage: a version
// number plus the serialized form of the item (or an empty string + Deleted for a tombstone).
type SerializedItemDescriptor struct {
	Version    int
	Deleted    bool
	Serialized string
}

// ItemDescriptor is the in-memory data store's unit of storage: a version number plus the
// parsed item (nil for a tombstone).
type ItemDescriptor struct {
	Version int
	Item    interface{}
}

// DataStore is the boundary: a concurrent, versioned, keyed map of flags and segments.
// Implementations must make upsert atomic with respect to concurrent get/getAll: readers never
// observe a torn write.
type DataStore interface {
	// Init atomically replaces the store's full contents and marks it initialized.
	Init(allData map[DataKind]map[string]ItemDescriptor) error

	// Get returns the item for (kind, key), or ItemDescriptor{Version: -1} if absent.
	Get(kind DataKind, key string) (ItemDescriptor, error)

	// GetAll returns a snapshot of every item of the given kind.
	GetAll(kind DataKind) (map[string]ItemDescriptor, error)

	// Upsert applies item iff item.Version is greater than the version already stored (a
	// tombstone participates in version comparison like any other item). Returns whether the
	// write took effect.
	Upsert(kind DataKind, key string, item ItemDescriptor) (bool, error)

	IsInitialized() bool
	Close() error
}

// DataStoreFactory builds a DataStore for one client instance. ClientContext carries ambient
// configuration (logging, SDK key) the store may need.
type DataStoreFactory interface {
	CreateDataStore(context ClientContext, dataStoreUpdates DataStoreUpdateSink) (DataStore, error)
}

// PersistentDataStore is the four-operation boundary for an external backing store:
// the core serializes items before handing them to the store, and deserializes what it reads
// back. Implementations need not understand flag/segment semantics at all.
type PersistentDataStore interface {
	Init(allData map[DataKind]map[string]SerializedItemDescriptor) error
	Get(kind DataKind, key string) (SerializedItemDescriptor, error)
	GetAll(kind DataKind) (map[string]SerializedItemDescriptor, error)
	Upsert(kind DataKind, key string, item SerializedItemDescriptor) (bool, error)
	IsInitialized() bool
	Close() error
}

// PersistentDataStoreFactory builds a PersistentDataStore backing adapter.
type PersistentDataStoreFactory interface {
	CreatePersistentDataStore(context ClientContext) (PersistentDataStore, error)
}

// DataStoreUpdateSink is how a DataStore (or the data source writing through it) reports
// status changes, decoupling the store implementation from the broadcaster.
type DataStoreUpdateSink interface {
	UpdateStatus(status DataStoreStatus)
	GetCacheStats() DataStoreCacheStats
}

// DataStoreStatus is the data-store state: available vs needing a refresh because an outage
// may have left the cache stale relative to the backing store.
type DataStoreStatus struct {
	Available bool
	// NeedsRefresh signals that the store just recovered from an outage and cannot guarantee
	// its cache reflects the backing store's current contents. It is published to data-store
	// status listeners only; the built-in data sources do not subscribe to it and are not
	// restarted by it.
	NeedsRefresh bool
}

// DataStoreCacheStats reports the persistent-store wrapper's read-through cache counters.
type DataStoreCacheStats struct {
	Hits          int64
	Misses        int64
	Loads         int64
	LoadExceptions int64
	LoadTimeTotal time.Duration
}

// DataSourceUpdateSink is how a data source (streaming or polling) writes data into the store
// and reports its own connection status, without knowing how the store or broadcasters work.
type DataSourceUpdateSink interface {
	Init(allData map[DataKind]map[string]ItemDescriptor) bool
	Upsert(kind DataKind, key string, item ItemDescriptor) bool
	UpdateStatus(state DataSourceState, err *DataSourceErrorInfo)
	GetDataStoreStatusProvider() DataStoreStatusProvider
}

// DataSourceState is the data-source state machine.
type DataSourceState string

// Data-source states.
const (
	DataSourceInitializing DataSourceState = "INITIALIZING"
	DataSourceValid        DataSourceState = "VALID"
	DataSourceInterrupted  DataSourceState = "INTERRUPTED"
	DataSourceOff          DataSourceState = "OFF"
)

// DataSourceErrorKind classifies why a data source stopped or is retrying.
type DataSourceErrorKind string

// Error kinds for DataSourceErrorInfo.
const (
	ErrorKindUnknown        DataSourceErrorKind = "UNKNOWN"
	ErrorKindNetworkError   DataSourceErrorKind = "NETWORK_ERROR"
	ErrorKindErrorResponse  DataSourceErrorKind = "ERROR_RESPONSE"
	ErrorKindInvalidData    DataSourceErrorKind = "INVALID_DATA"
	ErrorKindStoreError     DataSourceErrorKind = "STORE_ERROR"
)

// DataSourceErrorInfo records the last error observed by a data source.
type DataSourceErrorInfo struct {
	Kind       DataSourceErrorKind
	StatusCode int
	Message    string
	Time       time.Time
}

// DataSourceStatus is the full status snapshot exposed to callers.
type DataSourceStatus struct {
	State      DataSourceState
	StateSince time.Time
	LastError  *DataSourceErrorInfo
}

// DataSourceStatusProvider exposes the current data-source status and lets callers subscribe
// to changes.
type DataSourceStatusProvider interface {
	GetStatus() DataSourceStatus
	AddListener() <-chan DataSourceStatus
	RemoveListener(ch <-chan DataSourceStatus)
}

// DataStoreStatusProvider exposes the current data-store status and lets callers subscribe
// to changes.
type DataStoreStatusProvider interface {
	GetStatus() DataStoreStatus
	AddListener() <-chan DataStoreStatus
	RemoveListener(ch <-chan DataStoreStatus)
	GetCacheStats() DataStoreCacheStats
}

// DataSource is the running component (streaming or polling). Start begins connecting in
// the background; closeWhenReady is signaled once initialization completes or fails
// permanently. Close must release all goroutines and the connection within a bounded window.
type DataSource interface {
	Start(ctx context.Context, closeWhenReady chan<- struct{})
	IsInitialized() bool
	Close() error
}

// DataSourceFactory builds a DataSource wired to a DataSourceUpdateSink.
type DataSourceFactory interface {
	CreateDataSource(context ClientContext, dataSourceUpdates DataSourceUpdateSink) (DataSource, error)
}

// EventProcessor is the boundary the public client uses to submit analytics input events.
// All methods are non-blocking; SendEvent drops the event rather than blocking the caller when
// the inbox is full (the default processor logs a warning the first time; these drops are not
// counted in diagnostics).
type EventProcessor interface {
	SendEvent(event interface{})
	Flush()
	FlushBlocking(timeout time.Duration) bool
	Close() error
}

// EventProcessorFactory builds an EventProcessor.
type EventProcessorFactory interface {
	CreateEventProcessor(context ClientContext) (EventProcessor, error)
}

// ClientContext carries the ambient configuration and logging handed to every factory at
// construction time, matching the SDK's subsystems.ClientContext shape.
type ClientContext interface {
	GetSDKKey() string
	GetLoggers() Loggers
	GetHTTP() HTTPConfiguration
}

// Loggers is the minimal logging surface factories need; satisfied by ldlog.Loggers.
type Loggers interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// HTTPConfiguration carries the pluggable HTTP concerns: connect and socket timeouts, and
// headers added to outgoing requests. It has no proxy or TLS settings, and the built-in data
// sources and event processor do not call CreateHTTPClient. Transport internals themselves are
// out of scope; this is the surface a
// DataSourceFactory/PersistentDataStoreFactory/EventProcessorFactory configures against.
type HTTPConfiguration struct {
	CreateHTTPClient func() HTTPClient
	Headers          map[string]string
	ConnectTimeout   time.Duration
	SocketTimeout    time.Duration
}

// HTTPClient is the minimal surface the data source/event sender need from an *http.Client,
// kept as an interface so tests can substitute a fake transport without touching net/http.
type HTTPClient interface {
	Do(req *httpRequest) (*httpResponse, error)
}

// httpRequest/httpResponse are placeholders kept intentionally minimal: production wiring
// builds its own *http.Client from the timeouts and headers (see ldcomponents) and uses
// *http.Request/*http.Response directly; this interface exists only so ClientContext.GetHTTP
// can be mocked in tests without importing net/http into subsystems.
type httpRequest struct {
	Method string
	URL    string
	Header map[string][]string
}

type httpResponse struct {
	StatusCode int
	Header     map[string][]string
	Body       []byte
}

// BigSegmentStoreFactory builds the backing store adapter a bigsegments.Manager polls.
type BigSegmentStoreFactory interface {
	CreateBigSegmentStore(context ClientContext) (BigSegmentStore, error)
}

// BigSegmentStore is the persistent-store boundary for big segments.
type BigSegmentStore interface {
	GetMembership(contextHash string) (BigSegmentMembershipData, error)
	GetMetadata() (BigSegmentStoreMetadata, error)
	Close() error
}

// BigSegmentMembershipData is the raw included/excluded segment-ref sets for one context hash.
type BigSegmentMembershipData struct {
	Included []string
	Excluded []string
}

// BigSegmentStoreMetadata reports freshness of the backing store's big-segment data.
type BigSegmentStoreMetadata struct {
	LastUpToDate *time.Time
}
