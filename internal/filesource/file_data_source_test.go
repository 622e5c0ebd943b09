package filesource

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchflag/ffcore/ldlog"
	"github.com/launchflag/ffcore/ldmodel"
	"github.com/launchflag/ffcore/subsystems"
)

type recordingUpdates struct {
	initCh  chan map[subsystems.DataKind]map[string]subsystems.ItemDescriptor
	statuses []subsystems.DataSourceState
}

func newRecordingUpdates() *recordingUpdates {
	return &recordingUpdates{initCh: make(chan map[subsystems.DataKind]map[string]subsystems.ItemDescriptor, 4)}
}

func (r *recordingUpdates) Init(allData map[subsystems.DataKind]map[string]subsystems.ItemDescriptor) bool {
	r.initCh <- allData
	return true
}
func (r *recordingUpdates) Upsert(kind subsystems.DataKind, key string, item subsystems.ItemDescriptor) bool {
	return true
}
func (r *recordingUpdates) UpdateStatus(state subsystems.DataSourceState, err *subsystems.DataSourceErrorInfo) {
	r.statuses = append(r.statuses, state)
}
func (r *recordingUpdates) GetDataStoreStatusProvider() subsystems.DataStoreStatusProvider { return nil }

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "flags.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestStartLoadsFlagsFromDisk(t *testing.T) {
	path := writeFile(t, "flags:\n  my-flag:\n    version: 1\n    on: true\n    variations: [true, false]\n    fallthrough:\n      variation: 0\n")
	updates := newRecordingUpdates()
	ds := New(path, false, updates, ldlog.NewDisabledLoggers())

	done := make(chan struct{})
	ds.Start(context.Background(), done)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for initial load")
	}

	assert.True(t, ds.IsInitialized())
	require.NoError(t, ds.Close())

	select {
	case allData := <-updates.initCh:
		flags := allData[ldmodel.Flags]
		require.Contains(t, flags, "my-flag")
		assert.Equal(t, 1, flags["my-flag"].Version)
	default:
		t.Fatal("Init was never called")
	}
}

func TestStartReportsErrorStatusOnMissingFile(t *testing.T) {
	updates := newRecordingUpdates()
	ds := New(filepath.Join(t.TempDir(), "missing.yaml"), false, updates, ldlog.NewDisabledLoggers())

	done := make(chan struct{})
	ds.Start(context.Background(), done)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for Start to report failure")
	}

	assert.False(t, ds.IsInitialized())
	require.Contains(t, updates.statuses, subsystems.DataSourceInterrupted)
}
