// Package ldredis provides a Redis-backed subsystems.PersistentDataStoreFactory and
// subsystems.BigSegmentStoreFactory, for use with ldcomponents.PersistentDataStore and
// ldcomponents.BigSegments. Grounded on the SDK's redis package, adapted from redigo's
// connection-pool-and-MULTI/WATCH API to github.com/redis/go-redis/v9's client and
// optimistic-transaction (Watch) API.
package ldredis

import (
	"context"
	"encoding/json"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/launchflag/ffcore/ldmodel"
	"github.com/launchflag/ffcore/subsystems"
)

// DefaultURL is the default Redis connection string used if DataStoreBuilder.URL is never called.
const DefaultURL = "redis://localhost:6379"

// DefaultPrefix is prepended (with a colon) to every Redis key the store uses.
const DefaultPrefix = "launchflag"

const initedKeySuffix = "$inited"

// DataStoreBuilder configures a Redis-backed persistent data store. Wrap it in
// ldcomponents.PersistentDataStore before storing it on Config.DataStore.
type DataStoreBuilder struct {
	url    string
	prefix string
	client *goredis.Client
}

// DataStore returns a configurable builder for a Redis-backed data store.
func DataStore() *DataStoreBuilder {
	return &DataStoreBuilder{url: DefaultURL, prefix: DefaultPrefix}
}

// URL sets the Redis connection string (e.g. "redis://hostname:6379/0").
func (b *DataStoreBuilder) URL(url string) *DataStoreBuilder {
	if url == "" {
		url = DefaultURL
	}
	b.url = url
	return b
}

// Prefix sets the string prepended to every Redis key the store uses.
func (b *DataStoreBuilder) Prefix(prefix string) *DataStoreBuilder {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	b.prefix = prefix
	return b
}

// Client supplies a preconfigured client, overriding URL.
func (b *DataStoreBuilder) Client(client *goredis.Client) *DataStoreBuilder {
	b.client = client
	return b
}

// CreatePersistentDataStore builds the Redis-backed subsystems.PersistentDataStore.
func (b *DataStoreBuilder) CreatePersistentDataStore(clientContext subsystems.ClientContext) (subsystems.PersistentDataStore, error) {
	client := b.client
	if client == nil {
		opts, err := goredis.ParseURL(b.url)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		client = goredis.NewClient(opts)
	}
	return &dataStore{client: client, prefix: b.prefix, loggers: clientContext.GetLoggers()}, nil
}

type dataStore struct {
	client  *goredis.Client
	prefix  string
	loggers subsystems.Loggers
}

func (s *dataStore) featuresKey(kind subsystems.DataKind) string {
	return s.prefix + ":" + ldmodel.DataKind(kind).String()
}

func (s *dataStore) initedKey() string {
	return s.prefix + ":" + initedKeySuffix
}

func (s *dataStore) Init(allData map[subsystems.DataKind]map[string]subsystems.SerializedItemDescriptor) error {
	ctx := context.Background()
	_, err := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		for kind, items := range allData {
			baseKey := s.featuresKey(kind)
			pipe.Del(ctx, baseKey)
			for key, item := range items {
				data, jsonErr := json.Marshal(item)
				if jsonErr != nil {
					return fmt.Errorf("failed to marshal %s key %s: %w", kind, key, jsonErr)
				}
				pipe.HSet(ctx, baseKey, key, data)
			}
		}
		pipe.Set(ctx, s.initedKey(), "", 0)
		return nil
	})
	return err
}

func (s *dataStore) Get(kind subsystems.DataKind, key string) (subsystems.SerializedItemDescriptor, error) {
	ctx := context.Background()
	jsonStr, err := s.client.HGet(ctx, s.featuresKey(kind), key).Result()
	if err == goredis.Nil {
		s.loggers.Debugf("key %s not found in %s", key, kind)
		return subsystems.SerializedItemDescriptor{Version: -1, Deleted: true}, nil
	}
	if err != nil {
		return subsystems.SerializedItemDescriptor{}, err
	}
	var item subsystems.SerializedItemDescriptor
	if jsonErr := json.Unmarshal([]byte(jsonStr), &item); jsonErr != nil {
		return subsystems.SerializedItemDescriptor{}, fmt.Errorf("failed to unmarshal %s key %s: %w", kind, key, jsonErr)
	}
	return item, nil
}

func (s *dataStore) GetAll(kind subsystems.DataKind) (map[string]subsystems.SerializedItemDescriptor, error) {
	ctx := context.Background()
	values, err := s.client.HGetAll(ctx, s.featuresKey(kind)).Result()
	if err != nil {
		return nil, err
	}
	results := make(map[string]subsystems.SerializedItemDescriptor, len(values))
	for k, v := range values {
		var item subsystems.SerializedItemDescriptor
		if jsonErr := json.Unmarshal([]byte(v), &item); jsonErr != nil {
			return nil, fmt.Errorf("failed to unmarshal %s key %s: %w", kind, k, jsonErr)
		}
		results[k] = item
	}
	return results, nil
}

// Upsert uses an optimistic WATCH/MULTI transaction: a concurrent writer touching the same hash
// forces a retry so a stale Upsert never clobbers a newer version written elsewhere.
func (s *dataStore) Upsert(kind subsystems.DataKind, key string, item subsystems.SerializedItemDescriptor) (bool, error) {
	ctx := context.Background()
	baseKey := s.featuresKey(kind)
	updated := false
	txf := func(tx *goredis.Tx) error {
		existing, getErr := s.Get(kind, key)
		if getErr != nil {
			return getErr
		}
		if existing.Version >= item.Version {
			s.loggers.Debugf("attempted to update key %s in %s with a version that is the same or older: %d", key, kind, item.Version)
			return nil
		}
		data, jsonErr := json.Marshal(item)
		if jsonErr != nil {
			return fmt.Errorf("failed to marshal %s key %s: %w", kind, key, jsonErr)
		}
		_, execErr := tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.HSet(ctx, baseKey, key, data)
			return nil
		})
		if execErr == nil {
			updated = true
		}
		return execErr
	}
	var err error
	for {
		err = s.client.Watch(ctx, txf, baseKey)
		if err != goredis.TxFailedErr {
			break
		}
		s.loggers.Debugf("concurrent modification of %s key %s detected, retrying", kind, key)
	}
	return updated, err
}

func (s *dataStore) IsInitialized() bool {
	n, _ := s.client.Exists(context.Background(), s.initedKey()).Result()
	return n == 1
}

func (s *dataStore) Close() error {
	return s.client.Close()
}
