package ffcore

import (
	"sync"
	"time"

	"github.com/launchflag/ffcore/internal/broadcast"
	"github.com/launchflag/ffcore/ldmodel"
	"github.com/launchflag/ffcore/subsystems"
)

// cacheStatsSource is implemented by data stores that track read-through cache statistics
// (currently only internal/datastore.PersistentStoreWrapper); the in-memory store doesn't, so
// dataStoreUpdates.GetCacheStats falls back to a zero value for it.
type cacheStatsSource interface {
	GetCacheStats() subsystems.DataStoreCacheStats
}

// dataStoreUpdates is the subsystems.DataStoreUpdateSink the client hands to the configured
// DataStoreFactory. It is constructed before the store exists (the factory needs it as an
// argument) and wired to the store afterward via setStore, mirroring the SDK's two-phase
// "create the sink, then create the store, then let the sink see the store" assembly.
type dataStoreUpdates struct {
	broadcaster *broadcast.DataStoreStatusBroadcaster
	mu          sync.RWMutex
	store       subsystems.DataStore
	status      subsystems.DataStoreStatus
}

func newDataStoreUpdates() *dataStoreUpdates {
	return &dataStoreUpdates{
		broadcaster: broadcast.NewDataStoreStatusBroadcaster(),
		status:      subsystems.DataStoreStatus{Available: true},
	}
}

func (d *dataStoreUpdates) setStore(store subsystems.DataStore) {
	d.mu.Lock()
	d.store = store
	d.mu.Unlock()
}

func (d *dataStoreUpdates) UpdateStatus(status subsystems.DataStoreStatus) {
	d.mu.Lock()
	d.status = status
	d.mu.Unlock()
	d.broadcaster.Update(status)
}

func (d *dataStoreUpdates) GetCacheStats() subsystems.DataStoreCacheStats {
	d.mu.RLock()
	store := d.store
	d.mu.RUnlock()
	if withStats, ok := store.(cacheStatsSource); ok {
		return withStats.GetCacheStats()
	}
	return subsystems.DataStoreCacheStats{}
}

// dataStoreStatusProvider exposes dataStoreUpdates as a subsystems.DataStoreStatusProvider.
type dataStoreStatusProvider struct {
	updates *dataStoreUpdates
}

func (p *dataStoreStatusProvider) GetStatus() subsystems.DataStoreStatus {
	p.updates.mu.RLock()
	defer p.updates.mu.RUnlock()
	return p.updates.status
}

func (p *dataStoreStatusProvider) AddListener() <-chan subsystems.DataStoreStatus {
	return p.updates.broadcaster.AddListener()
}

func (p *dataStoreStatusProvider) RemoveListener(ch <-chan subsystems.DataStoreStatus) {
	p.updates.broadcaster.RemoveListener(ch)
}

func (p *dataStoreStatusProvider) GetCacheStats() subsystems.DataStoreCacheStats {
	return p.updates.GetCacheStats()
}

var _ subsystems.DataStoreUpdateSink = (*dataStoreUpdates)(nil)
var _ subsystems.DataStoreStatusProvider = (*dataStoreStatusProvider)(nil)

// dataSourceUpdates is the subsystems.DataSourceUpdateSink the client hands to the configured
// DataSourceFactory. It writes incoming data through to the store, compares flag versions
// against what was there before to drive the flag-change broadcaster, and tracks
// the data-source state machine.
type dataSourceUpdates struct {
	store             subsystems.DataStore
	storeStatuses     *dataStoreStatusProvider
	statusBroadcaster *broadcast.DataSourceStatusBroadcaster
	flagChange        *broadcast.FlagChangeBroadcaster
	loggers           subsystems.Loggers

	mu         sync.Mutex
	state      subsystems.DataSourceState
	stateSince time.Time
	lastError  *subsystems.DataSourceErrorInfo
}

func newDataSourceUpdates(
	store subsystems.DataStore,
	storeStatuses *dataStoreStatusProvider,
	flagChange *broadcast.FlagChangeBroadcaster,
	loggers subsystems.Loggers,
) *dataSourceUpdates {
	return &dataSourceUpdates{
		store:             store,
		storeStatuses:     storeStatuses,
		statusBroadcaster: broadcast.NewDataSourceStatusBroadcaster(),
		flagChange:        flagChange,
		loggers:           loggers,
		state:             subsystems.DataSourceInitializing,
		stateSince:        now(),
	}
}

func (d *dataSourceUpdates) Init(allData map[subsystems.DataKind]map[string]subsystems.ItemDescriptor) bool {
	previousFlags, _ := d.store.GetAll(ldmodel.Flags)
	if err := d.store.Init(allData); err != nil {
		d.loggers.Errorf("data store init failed: %s", err)
		d.UpdateStatus(subsystems.DataSourceInterrupted, &subsystems.DataSourceErrorInfo{
			Kind: subsystems.ErrorKindStoreError, Message: err.Error(), Time: now(),
		})
		return false
	}
	d.diffAndBroadcastFlags(previousFlags, allData[ldmodel.Flags])
	return true
}

func (d *dataSourceUpdates) Upsert(kind subsystems.DataKind, key string, item subsystems.ItemDescriptor) bool {
	updated, err := d.store.Upsert(kind, key, item)
	if err != nil {
		d.loggers.Errorf("data store upsert failed: %s", err)
		d.UpdateStatus(subsystems.DataSourceInterrupted, &subsystems.DataSourceErrorInfo{
			Kind: subsystems.ErrorKindStoreError, Message: err.Error(), Time: now(),
		})
		return false
	}
	if updated && kind == ldmodel.Flags && d.flagChange != nil {
		d.flagChange.Update(broadcast.FlagChangeEvent{Key: key})
	}
	return updated
}

func (d *dataSourceUpdates) diffAndBroadcastFlags(before, after map[string]subsystems.ItemDescriptor) {
	if d.flagChange == nil {
		return
	}
	seen := make(map[string]bool, len(after))
	for key, item := range after {
		seen[key] = true
		if old, ok := before[key]; !ok || old.Version != item.Version {
			d.flagChange.Update(broadcast.FlagChangeEvent{Key: key})
		}
	}
	for key := range before {
		if !seen[key] {
			d.flagChange.Update(broadcast.FlagChangeEvent{Key: key})
		}
	}
}

func (d *dataSourceUpdates) UpdateStatus(state subsystems.DataSourceState, err *subsystems.DataSourceErrorInfo) {
	d.mu.Lock()
	if state == d.state && err == nil {
		d.mu.Unlock()
		return
	}
	if state != d.state {
		d.state = state
		d.stateSince = now()
	}
	if err != nil {
		d.lastError = err
	}
	status := subsystems.DataSourceStatus{State: d.state, StateSince: d.stateSince, LastError: d.lastError}
	d.mu.Unlock()
	d.statusBroadcaster.Update(status)
}

func (d *dataSourceUpdates) GetDataStoreStatusProvider() subsystems.DataStoreStatusProvider {
	return d.storeStatuses
}

func (d *dataSourceUpdates) GetStatus() subsystems.DataSourceStatus {
	d.mu.Lock()
	defer d.mu.Unlock()
	return subsystems.DataSourceStatus{State: d.state, StateSince: d.stateSince, LastError: d.lastError}
}

func (d *dataSourceUpdates) AddListener() <-chan subsystems.DataSourceStatus {
	return d.statusBroadcaster.AddListener()
}

func (d *dataSourceUpdates) RemoveListener(ch <-chan subsystems.DataSourceStatus) {
	d.statusBroadcaster.RemoveListener(ch)
}

var _ subsystems.DataSourceUpdateSink = (*dataSourceUpdates)(nil)
var _ subsystems.DataSourceStatusProvider = (*dataSourceUpdates)(nil)

func now() time.Time { return time.Now() }
