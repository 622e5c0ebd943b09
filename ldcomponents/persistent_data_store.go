package ldcomponents

import (
	"time"

	"github.com/launchflag/ffcore/internal/datastore"
	"github.com/launchflag/ffcore/subsystems"
)

// DefaultCacheTTL is the default read-through cache lifetime for a persistent data store.
const DefaultCacheTTL = 15 * time.Second

// PersistentDataStoreBuilder wraps a subsystems.PersistentDataStoreFactory with the read-through
// caching layer every persistent backing store needs (the core never talks to the backing store
// directly).
type PersistentDataStoreBuilder struct {
	wrapped  subsystems.PersistentDataStoreFactory
	cacheTTL time.Duration
}

// PersistentDataStore wraps a backing PersistentDataStoreFactory (e.g. one backed by Redis) in
// the caching adapter the core expects.
func PersistentDataStore(wrapped subsystems.PersistentDataStoreFactory) *PersistentDataStoreBuilder {
	return &PersistentDataStoreBuilder{wrapped: wrapped, cacheTTL: DefaultCacheTTL}
}

// CacheTime sets the read-through cache TTL. Zero disables caching; negative caches forever.
func (b *PersistentDataStoreBuilder) CacheTime(ttl time.Duration) *PersistentDataStoreBuilder {
	b.cacheTTL = ttl
	return b
}

// CacheForever disables cache expiration: once read, an item is never re-fetched from the
// backing store except on an explicit Upsert.
func (b *PersistentDataStoreBuilder) CacheForever() *PersistentDataStoreBuilder {
	b.cacheTTL = -1
	return b
}

// CreateDataStore builds the backing store via the wrapped factory, then layers the cache.
func (b *PersistentDataStoreBuilder) CreateDataStore(
	context subsystems.ClientContext, updates subsystems.DataStoreUpdateSink,
) (subsystems.DataStore, error) {
	core, err := b.wrapped.CreatePersistentDataStore(context)
	if err != nil {
		return nil, err
	}
	return datastore.NewPersistentStoreWrapper(
		core, updates, b.cacheTTL, context.GetLoggers(), datastore.Serialize, datastore.Deserialize,
	), nil
}
