package datastore

import (
	"fmt"
	"sync"
	"time"

	"github.com/launchdarkly/ccache"
	"golang.org/x/sync/singleflight"

	"github.com/launchflag/ffcore/subsystems"
)

const initCheckedKey = "$initChecked"

// PersistentStoreWrapper is the subsystems.DataStore implementation used whenever a
// subsystems.PersistentDataStoreFactory is configured: it serializes items before handing them
// to core, and layers a read-through ccache.Cache plus a singleflight.Group in front of core so
// that a burst of concurrent Get/GetAll calls for the same key collapses into one backing-store
// read. Grounded on the SDK's internal/datastore/persistent_data_store_wrapper.go.
type PersistentStoreWrapper struct {
	core     subsystems.PersistentDataStore
	updates  subsystems.DataStoreUpdateSink
	poller   *statusPoller
	cache    *ccache.Cache
	cacheTTL time.Duration
	requests singleflight.Group
	loggers  subsystems.Loggers
	serialize   func(subsystems.DataKind, subsystems.ItemDescriptor) subsystems.SerializedItemDescriptor
	deserialize func(subsystems.DataKind, subsystems.SerializedItemDescriptor) subsystems.ItemDescriptor

	initLock sync.RWMutex
	inited   bool

	stats struct {
		mu             sync.Mutex
		hits, misses   int64
		loads          int64
		loadExceptions int64
		loadTimeTotal  time.Duration
	}
}

// NewPersistentStoreWrapper wraps core with a read-through cache. cacheTTL == 0 disables
// caching entirely (every call hits core); cacheTTL < 0 means cache forever.
func NewPersistentStoreWrapper(
	core subsystems.PersistentDataStore,
	updates subsystems.DataStoreUpdateSink,
	cacheTTL time.Duration,
	loggers subsystems.Loggers,
	serialize func(subsystems.DataKind, subsystems.ItemDescriptor) subsystems.SerializedItemDescriptor,
	deserialize func(subsystems.DataKind, subsystems.SerializedItemDescriptor) subsystems.ItemDescriptor,
) *PersistentStoreWrapper {
	var c *ccache.Cache
	if cacheTTL != 0 {
		c = ccache.New(ccache.Configure())
	}
	w := &PersistentStoreWrapper{
		core:        core,
		updates:     updates,
		cache:       c,
		cacheTTL:    cacheTTL,
		loggers:     loggers,
		serialize:   serialize,
		deserialize: deserialize,
	}
	w.poller = newStatusPoller(w.pollAvailability, updates, c == nil || cacheTTL > 0, loggers)
	return w
}

func (w *PersistentStoreWrapper) hasInfiniteCache() bool { return w.cache != nil && w.cacheTTL < 0 }

func (w *PersistentStoreWrapper) effectiveTTL() time.Duration {
	if w.cacheTTL < 0 {
		return time.Hour * 24 * 365
	}
	return w.cacheTTL
}

func (w *PersistentStoreWrapper) Init(allData map[subsystems.DataKind]map[string]subsystems.ItemDescriptor) error {
	serialized := make(map[subsystems.DataKind]map[string]subsystems.SerializedItemDescriptor, len(allData))
	for kind, byKey := range allData {
		out := make(map[string]subsystems.SerializedItemDescriptor, len(byKey))
		for k, v := range byKey {
			out[k] = w.serialize(kind, v)
		}
		serialized[kind] = out
	}
	err := w.core.Init(serialized)
	w.processError(err)
	if err != nil && !w.hasInfiniteCache() {
		return err
	}
	if w.cache != nil {
		for kind, byKey := range allData {
			for k, v := range byKey {
				w.cache.Set(itemCacheKey(kind, k), v, w.effectiveTTL())
			}
			w.cache.Set(allItemsCacheKey(kind), byKey, w.effectiveTTL())
		}
	}
	w.initLock.Lock()
	w.inited = true
	w.initLock.Unlock()
	return err
}

func (w *PersistentStoreWrapper) Get(kind subsystems.DataKind, key string) (subsystems.ItemDescriptor, error) {
	if w.cache == nil {
		item, err := w.loadOne(kind, key)
		w.processError(err)
		return item, err
	}
	cacheKey := itemCacheKey(kind, key)
	if entry := w.cache.Get(cacheKey); entry != nil && !entry.Expired() {
		w.recordHit()
		return entry.Value().(subsystems.ItemDescriptor), nil
	}
	w.recordMiss()
	reqKey := fmt.Sprintf("get:%d:%s", kind, key)
	v, err, _ := w.requests.Do(reqKey, func() (interface{}, error) {
		item, err := w.loadOne(kind, key)
		w.processError(err)
		if err == nil {
			w.cache.Set(cacheKey, item, w.effectiveTTL())
		}
		return item, err
	})
	if err != nil {
		return subsystems.ItemDescriptor{Version: -1}, err
	}
	return v.(subsystems.ItemDescriptor), nil
}

func (w *PersistentStoreWrapper) GetAll(kind subsystems.DataKind) (map[string]subsystems.ItemDescriptor, error) {
	if w.cache == nil {
		items, err := w.loadAll(kind)
		w.processError(err)
		return items, err
	}
	cacheKey := allItemsCacheKey(kind)
	if entry := w.cache.Get(cacheKey); entry != nil && !entry.Expired() {
		w.recordHit()
		return entry.Value().(map[string]subsystems.ItemDescriptor), nil
	}
	w.recordMiss()
	reqKey := fmt.Sprintf("all:%d", kind)
	v, err, _ := w.requests.Do(reqKey, func() (interface{}, error) {
		items, err := w.loadAll(kind)
		w.processError(err)
		if err == nil {
			w.cache.Set(cacheKey, items, w.effectiveTTL())
		}
		return items, err
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]subsystems.ItemDescriptor), nil
}

func (w *PersistentStoreWrapper) Upsert(kind subsystems.DataKind, key string, item subsystems.ItemDescriptor) (bool, error) {
	updated, err := w.core.Upsert(kind, key, w.serialize(kind, item))
	w.processError(err)
	if err != nil && !w.hasInfiniteCache() {
		return updated, err
	}
	if w.cache != nil {
		cacheKey := itemCacheKey(kind, key)
		allKey := allItemsCacheKey(kind)
		if err == nil && updated {
			w.cache.Set(cacheKey, item, w.effectiveTTL())
			w.cache.Delete(allKey)
		} else if err == nil {
			w.cache.Delete(cacheKey)
			w.cache.Delete(allKey)
			_, _ = w.Get(kind, key)
		} else if w.hasInfiniteCache() {
			w.cache.Set(cacheKey, item, w.effectiveTTL())
		}
	}
	return updated, err
}

func (w *PersistentStoreWrapper) IsInitialized() bool {
	w.initLock.RLock()
	prev := w.inited
	w.initLock.RUnlock()
	if prev {
		return true
	}
	if w.cache != nil {
		if entry := w.cache.Get(initCheckedKey); entry != nil && !entry.Expired() {
			return false
		}
	}
	val := w.core.IsInitialized()
	if val {
		w.initLock.Lock()
		w.inited = true
		w.initLock.Unlock()
		if w.cache != nil {
			w.cache.Delete(initCheckedKey)
		}
	} else if w.cache != nil {
		w.cache.Set(initCheckedKey, struct{}{}, w.effectiveTTL())
	}
	return val
}

func (w *PersistentStoreWrapper) Close() error {
	w.poller.Close()
	if w.cache != nil {
		w.cache.Stop()
	}
	return w.core.Close()
}

// GetCacheStats implements subsystems.DataStoreUpdateSink's companion accessor for the // diagnostics surface (hits, misses, loads, load-exceptions, load time totals).
func (w *PersistentStoreWrapper) GetCacheStats() subsystems.DataStoreCacheStats {
	w.stats.mu.Lock()
	defer w.stats.mu.Unlock()
	return subsystems.DataStoreCacheStats{
		Hits:           w.stats.hits,
		Misses:         w.stats.misses,
		Loads:          w.stats.loads,
		LoadExceptions: w.stats.loadExceptions,
		LoadTimeTotal:  w.stats.loadTimeTotal,
	}
}

func (w *PersistentStoreWrapper) recordHit() {
	w.stats.mu.Lock()
	w.stats.hits++
	w.stats.mu.Unlock()
}

func (w *PersistentStoreWrapper) recordMiss() {
	w.stats.mu.Lock()
	w.stats.misses++
	w.stats.mu.Unlock()
}

func (w *PersistentStoreWrapper) loadOne(kind subsystems.DataKind, key string) (subsystems.ItemDescriptor, error) {
	start := time.Now()
	serialized, err := w.core.Get(kind, key)
	w.recordLoad(start, err)
	if err != nil {
		return subsystems.ItemDescriptor{Version: -1}, err
	}
	if serialized.Version == 0 && serialized.Serialized == "" && !serialized.Deleted {
		return subsystems.ItemDescriptor{Version: -1}, nil
	}
	return w.deserialize(kind, serialized), nil
}

func (w *PersistentStoreWrapper) loadAll(kind subsystems.DataKind) (map[string]subsystems.ItemDescriptor, error) {
	start := time.Now()
	all, err := w.core.GetAll(kind)
	w.recordLoad(start, err)
	if err != nil {
		return nil, err
	}
	out := make(map[string]subsystems.ItemDescriptor, len(all))
	for k, v := range all {
		out[k] = w.deserialize(kind, v)
	}
	return out, nil
}

func (w *PersistentStoreWrapper) recordLoad(start time.Time, err error) {
	w.stats.mu.Lock()
	w.stats.loads++
	w.stats.loadTimeTotal += time.Since(start)
	if err != nil {
		w.stats.loadExceptions++
	}
	w.stats.mu.Unlock()
}

// processError tells the data-store status poller about a backing-store failure: the store is
// reported unavailable through the status broadcast and polled until it recovers. The data
// source is not restarted.
func (w *PersistentStoreWrapper) processError(err error) {
	if err != nil {
		w.poller.onOutage(err, w.loggers)
	}
}

// pollAvailability is the statusPoller's recovery probe: any call into core that returns
// without panicking or blocking indefinitely is evidence the backing store is reachable again.
// IsInitialized is chosen because every subsystems.PersistentDataStore implementation must
// support it cheaply.
func (w *PersistentStoreWrapper) pollAvailability() (recovered bool) {
	defer func() {
		if r := recover(); r != nil {
			recovered = false
		}
	}()
	w.core.IsInitialized()
	return true
}

func itemCacheKey(kind subsystems.DataKind, key string) string {
	return fmt.Sprintf("item:%d:%s", kind, key)
}

func allItemsCacheKey(kind subsystems.DataKind) string {
	return fmt.Sprintf("all:%d", kind)
}
