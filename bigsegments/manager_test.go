package bigsegments

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchflag/ffcore/ldreason"
	"github.com/launchflag/ffcore/subsystems"
)

type noopLoggers struct{}

func (noopLoggers) Debugf(string, ...interface{}) {}
func (noopLoggers) Infof(string, ...interface{})  {}
func (noopLoggers) Warnf(string, ...interface{})  {}
func (noopLoggers) Errorf(string, ...interface{}) {}

type fakeStore struct {
	mu         sync.Mutex
	metadata   subsystems.BigSegmentStoreMetadata
	metaErr    error
	membership map[string]subsystems.BigSegmentMembershipData
	memErr     error
}

func (s *fakeStore) GetMembership(contextHash string) (subsystems.BigSegmentMembershipData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.memErr != nil {
		return subsystems.BigSegmentMembershipData{}, s.memErr
	}
	return s.membership[contextHash], nil
}

func (s *fakeStore) GetMetadata() (subsystems.BigSegmentStoreMetadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.metaErr != nil {
		return subsystems.BigSegmentStoreMetadata{}, s.metaErr
	}
	return s.metadata, nil
}

func (s *fakeStore) Close() error { return nil }

func TestGetMembershipReturnsHealthyWhenFresh(t *testing.T) {
	now := time.Now()
	hash := HashForContextKey("user-1")
	store := &fakeStore{
		metadata:   subsystems.BigSegmentStoreMetadata{LastUpToDate: &now},
		membership: map[string]subsystems.BigSegmentMembershipData{hash: {Included: []string{"seg1"}}},
	}
	m := NewManager(store, time.Hour, time.Hour, time.Minute, noopLoggers{})
	defer m.Close()

	mem, status := m.GetMembership("user-1")
	require.Equal(t, ldreason.BigSegmentsHealthy, status)
	require.NotNil(t, mem)
	included := mem.CheckMembership("seg1")
	require.NotNil(t, included)
	assert.True(t, *included)
}

func TestGetMembershipReturnsStaleWhenMetadataOld(t *testing.T) {
	old := time.Now().Add(-time.Hour)
	store := &fakeStore{metadata: subsystems.BigSegmentStoreMetadata{LastUpToDate: &old}}
	m := NewManager(store, time.Millisecond, time.Minute, time.Minute, noopLoggers{})
	defer m.Close()

	_, status := m.GetMembership("user-1")
	assert.Equal(t, ldreason.BigSegmentsStale, status)
}

func TestGetMembershipReturnsStoreErrorWhenMetadataFails(t *testing.T) {
	store := &fakeStore{metaErr: errors.New("boom")}
	m := NewManager(store, time.Hour, time.Hour, time.Minute, noopLoggers{})
	defer m.Close()

	mem, status := m.GetMembership("user-1")
	assert.Nil(t, mem)
	assert.Equal(t, ldreason.BigSegmentsStoreError, status)
}

func TestStatusBroadcasterReceivesUpdates(t *testing.T) {
	now := time.Now()
	store := &fakeStore{metadata: subsystems.BigSegmentStoreMetadata{LastUpToDate: &now}}
	m := NewManager(store, time.Hour, time.Hour, time.Minute, noopLoggers{})
	defer m.Close()

	ch := m.StatusBroadcaster().AddListener()
	defer m.StatusBroadcaster().RemoveListener(ch)

	old := time.Now().Add(-time.Hour)
	store.mu.Lock()
	store.metadata = subsystems.BigSegmentStoreMetadata{LastUpToDate: &old}
	store.mu.Unlock()

	m.pollAndUpdateStatus()

	select {
	case status := <-ch:
		assert.True(t, status.Stale)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for status broadcast")
	}
}
