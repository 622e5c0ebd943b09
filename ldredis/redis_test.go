package ldredis

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchflag/ffcore/ldlog"
	"github.com/launchflag/ffcore/ldmodel"
	"github.com/launchflag/ffcore/subsystems"
)

// These tests exercise the store against a live Redis instance at DefaultURL, the same
// convention the SDK's redis package uses for its own store tests. They are skipped if no
// server is reachable so the rest of the suite still runs in environments without Redis.

type testClientContext struct{}

func (testClientContext) GetSDKKey() string                    { return "test-sdk-key" }
func (testClientContext) GetLoggers() subsystems.Loggers       { return ldlog.NewDisabledLoggers() }
func (testClientContext) GetHTTP() subsystems.HTTPConfiguration { return subsystems.HTTPConfiguration{} }

func requireRedis(t *testing.T) string {
	t.Helper()
	prefix := fmt.Sprintf("ldredis-test-%d", time.Now().UnixNano())
	opts, err := goredis.ParseURL(DefaultURL)
	require.NoError(t, err)
	client := goredis.NewClient(opts)
	defer client.Close()
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis not reachable at %s: %v", DefaultURL, err)
	}
	return prefix
}

func serialized(version int, jsonData string) subsystems.SerializedItemDescriptor {
	return subsystems.SerializedItemDescriptor{Version: version, Serialized: jsonData}
}

func TestDataStoreInitAndGetAll(t *testing.T) {
	prefix := requireRedis(t)
	store, err := DataStore().Prefix(prefix).CreatePersistentDataStore(testClientContext{})
	require.NoError(t, err)
	defer store.Close()

	flagJSON, err := json.Marshal(map[string]interface{}{"key": "flag-a", "version": 1})
	require.NoError(t, err)

	err = store.Init(map[subsystems.DataKind]map[string]subsystems.SerializedItemDescriptor{
		ldmodel.Flags: {"flag-a": serialized(1, string(flagJSON))},
	})
	require.NoError(t, err)
	assert.True(t, store.IsInitialized())

	all, err := store.GetAll(ldmodel.Flags)
	require.NoError(t, err)
	require.Contains(t, all, "flag-a")
	assert.Equal(t, 1, all["flag-a"].Version)
}

func TestDataStoreGetMissingKeyReturnsDeleted(t *testing.T) {
	prefix := requireRedis(t)
	store, err := DataStore().Prefix(prefix).CreatePersistentDataStore(testClientContext{})
	require.NoError(t, err)
	defer store.Close()

	item, err := store.Get(ldmodel.Flags, "does-not-exist")
	require.NoError(t, err)
	assert.Equal(t, -1, item.Version)
	assert.True(t, item.Deleted)
}

func TestDataStoreUpsertRejectsStaleVersion(t *testing.T) {
	prefix := requireRedis(t)
	store, err := DataStore().Prefix(prefix).CreatePersistentDataStore(testClientContext{})
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Init(map[subsystems.DataKind]map[string]subsystems.SerializedItemDescriptor{
		ldmodel.Flags: {"flag-a": serialized(2, `{"key":"flag-a","version":2}`)},
	}))

	updated, err := store.Upsert(ldmodel.Flags, "flag-a", serialized(1, `{"key":"flag-a","version":1}`))
	require.NoError(t, err)
	assert.False(t, updated)

	item, err := store.Get(ldmodel.Flags, "flag-a")
	require.NoError(t, err)
	assert.Equal(t, 2, item.Version)
}

func TestDataStoreUpsertAppliesNewerVersion(t *testing.T) {
	prefix := requireRedis(t)
	store, err := DataStore().Prefix(prefix).CreatePersistentDataStore(testClientContext{})
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Init(map[subsystems.DataKind]map[string]subsystems.SerializedItemDescriptor{
		ldmodel.Flags: {"flag-a": serialized(1, `{"key":"flag-a","version":1}`)},
	}))

	updated, err := store.Upsert(ldmodel.Flags, "flag-a", serialized(2, `{"key":"flag-a","version":2}`))
	require.NoError(t, err)
	assert.True(t, updated)

	item, err := store.Get(ldmodel.Flags, "flag-a")
	require.NoError(t, err)
	assert.Equal(t, 2, item.Version)
}

func TestBigSegmentStoreMembershipAndMetadata(t *testing.T) {
	prefix := requireRedis(t)
	opts, err := goredis.ParseURL(DefaultURL)
	require.NoError(t, err)
	rawClient := goredis.NewClient(opts)
	defer rawClient.Close()

	ctx := context.Background()
	require.NoError(t, rawClient.SAdd(ctx, redisIncludeKey(prefix, "user-hash"), "segment-a").Err())
	require.NoError(t, rawClient.SAdd(ctx, redisExcludeKey(prefix, "user-hash"), "segment-b").Err())
	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, rawClient.Set(ctx, redisSynchronizedKey(prefix), now.Format(time.RFC3339Nano), 0).Err())

	store, err := BigSegmentsStore().Prefix(prefix).CreateBigSegmentStore(testClientContext{})
	require.NoError(t, err)
	defer store.Close()

	membership, err := store.GetMembership("user-hash")
	require.NoError(t, err)
	assert.Contains(t, membership.Included, "segment-a")
	assert.Contains(t, membership.Excluded, "segment-b")

	metadata, err := store.GetMetadata()
	require.NoError(t, err)
	require.NotNil(t, metadata.LastUpToDate)
	assert.True(t, metadata.LastUpToDate.Equal(now))
}
