package ldcomponents

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchflag/ffcore/subsystems"
)

type fakePersistentDataStore struct{}

func (fakePersistentDataStore) Init(allData map[subsystems.DataKind]map[string]subsystems.SerializedItemDescriptor) error {
	return nil
}
func (fakePersistentDataStore) Get(kind subsystems.DataKind, key string) (subsystems.SerializedItemDescriptor, error) {
	return subsystems.SerializedItemDescriptor{Version: -1}, nil
}
func (fakePersistentDataStore) GetAll(kind subsystems.DataKind) (map[string]subsystems.SerializedItemDescriptor, error) {
	return nil, nil
}
func (fakePersistentDataStore) Upsert(kind subsystems.DataKind, key string, item subsystems.SerializedItemDescriptor) (bool, error) {
	return true, nil
}
func (fakePersistentDataStore) IsInitialized() bool { return true }
func (fakePersistentDataStore) Close() error        { return nil }

type fakePersistentDataStoreFactory struct{}

func (fakePersistentDataStoreFactory) CreatePersistentDataStore(context subsystems.ClientContext) (subsystems.PersistentDataStore, error) {
	return fakePersistentDataStore{}, nil
}

func TestPersistentDataStoreBuilderWrapsBackingStore(t *testing.T) {
	store, err := PersistentDataStore(fakePersistentDataStoreFactory{}).
		CacheTime(0).
		CreateDataStore(newFakeClientContext(), noopDataStoreUpdates{})
	require.NoError(t, err)
	require.NotNil(t, store)
	assert.NoError(t, store.Close())
}

func TestPersistentDataStoreBuilderCacheForever(t *testing.T) {
	b := PersistentDataStore(fakePersistentDataStoreFactory{}).CacheForever()
	store, err := b.CreateDataStore(newFakeClientContext(), noopDataStoreUpdates{})
	require.NoError(t, err)
	assert.NoError(t, store.Close())
}

type noopDataStoreUpdates struct{}

func (noopDataStoreUpdates) UpdateStatus(status subsystems.DataStoreStatus) {}
func (noopDataStoreUpdates) GetCacheStats() subsystems.DataStoreCacheStats {
	return subsystems.DataStoreCacheStats{}
}

type fakeBigSegmentStore struct{}

func (fakeBigSegmentStore) GetMembership(contextHash string) (subsystems.BigSegmentMembershipData, error) {
	return subsystems.BigSegmentMembershipData{}, nil
}
func (fakeBigSegmentStore) GetMetadata() (subsystems.BigSegmentStoreMetadata, error) {
	return subsystems.BigSegmentStoreMetadata{}, nil
}
func (fakeBigSegmentStore) Close() error { return nil }

type fakeBigSegmentStoreFactory struct{}

func (fakeBigSegmentStoreFactory) CreateBigSegmentStore(context subsystems.ClientContext) (subsystems.BigSegmentStore, error) {
	return fakeBigSegmentStore{}, nil
}

func TestBigSegmentsBuilderNilFactoryDisables(t *testing.T) {
	manager, err := BigSegments(nil).CreateBigSegments(newFakeClientContext())
	require.NoError(t, err)
	assert.Nil(t, manager)
}

func TestBigSegmentsBuilderWiresStore(t *testing.T) {
	manager, err := BigSegments(fakeBigSegmentStoreFactory{}).CreateBigSegments(newFakeClientContext())
	require.NoError(t, err)
	require.NotNil(t, manager)
	assert.NoError(t, manager.Close())
}

func TestFileDataSourceBuilderLoadsFromDisk(t *testing.T) {
	path := writeTempFlagsFile(t)
	factory := FileDataSource(path)
	source, err := factory.CreateDataSource(newFakeClientContext(), fakeDataSourceUpdates{})
	require.NoError(t, err)
	require.NotNil(t, source)

	done := make(chan struct{})
	source.Start(context.Background(), done)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for initial load")
	}
	assert.True(t, source.IsInitialized())
	assert.NoError(t, source.Close())
}

type fakeDataSourceUpdates struct{}

func (fakeDataSourceUpdates) Init(allData map[subsystems.DataKind]map[string]subsystems.ItemDescriptor) bool {
	return true
}
func (fakeDataSourceUpdates) Upsert(kind subsystems.DataKind, key string, item subsystems.ItemDescriptor) bool {
	return true
}
func (fakeDataSourceUpdates) UpdateStatus(state subsystems.DataSourceState, err *subsystems.DataSourceErrorInfo) {
}
func (fakeDataSourceUpdates) GetDataStoreStatusProvider() subsystems.DataStoreStatusProvider {
	return nil
}

func writeTempFlagsFile(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := dir + "/flags.yaml"
	content := []byte("flags:\n  my-flag:\n    key: my-flag\n    version: 1\n    on: true\n    variations: [true, false]\n    fallthrough:\n      variation: 0\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))
	return path
}
