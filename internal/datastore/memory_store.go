// Package datastore implements the data store: an in-memory keyed/versioned map, and a
// persistent-store wrapper that layers a read-through cache and write-through over an external
// subsystems.PersistentDataStore. Grounded on the SDK's data_store.go and
// internal/datastore/in_memory_data_store_impl.go.
package datastore

import (
	"sync"

	"github.com/launchflag/ffcore/subsystems"
)

// InMemoryDataStore is the default subsystems.DataStore: a read-write-lock-guarded map of
// flags and segments. Upsert is atomic with respect to Get/GetAll by holding the write lock for
// the whole compare-and-swap.
type InMemoryDataStore struct {
	mu          sync.RWMutex
	items       map[subsystems.DataKind]map[string]subsystems.ItemDescriptor
	initialized bool
	updates     subsystems.DataStoreUpdateSink
}

// NewInMemoryDataStore creates an empty, uninitialized store. updates may be nil if the caller
// does not need status notifications (e.g. in tests).
func NewInMemoryDataStore(updates subsystems.DataStoreUpdateSink) *InMemoryDataStore {
	return &InMemoryDataStore{
		items:   map[subsystems.DataKind]map[string]subsystems.ItemDescriptor{},
		updates: updates,
	}
}

func (s *InMemoryDataStore) Init(allData map[subsystems.DataKind]map[string]subsystems.ItemDescriptor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[subsystems.DataKind]map[string]subsystems.ItemDescriptor, len(allData))
	for kind, byKey := range allData {
		cp := make(map[string]subsystems.ItemDescriptor, len(byKey))
		for k, v := range byKey {
			cp[k] = v
		}
		s.items[kind] = cp
	}
	s.initialized = true
	return nil
}

func (s *InMemoryDataStore) Get(kind subsystems.DataKind, key string) (subsystems.ItemDescriptor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byKey, ok := s.items[kind]
	if !ok {
		return subsystems.ItemDescriptor{Version: -1}, nil
	}
	item, ok := byKey[key]
	if !ok {
		return subsystems.ItemDescriptor{Version: -1}, nil
	}
	return item, nil
}

// GetAll returns a defensive copy so callers can range over it without holding the store's lock.
func (s *InMemoryDataStore) GetAll(kind subsystems.DataKind) (map[string]subsystems.ItemDescriptor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byKey := s.items[kind]
	cp := make(map[string]subsystems.ItemDescriptor, len(byKey))
	for k, v := range byKey {
		cp[k] = v
	}
	return cp, nil
}

func (s *InMemoryDataStore) Upsert(kind subsystems.DataKind, key string, item subsystems.ItemDescriptor) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byKey, ok := s.items[kind]
	if !ok {
		byKey = map[string]subsystems.ItemDescriptor{}
		s.items[kind] = byKey
	}
	existing, found := byKey[key]
	if found && existing.Version >= item.Version {
		return false, nil
	}
	byKey[key] = item
	return true, nil
}

func (s *InMemoryDataStore) IsInitialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialized
}

func (s *InMemoryDataStore) Close() error { return nil }
