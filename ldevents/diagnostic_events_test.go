package ldevents

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/launchflag/ffcore/ldvalue"
)

func TestDiagnosticsManagerCreatesInitEvent(t *testing.T) {
	id := NewDiagnosticID("my-sdk-key")
	m := NewDiagnosticsManager(id, ldvalue.Null(), ldvalue.Null())

	event := m.CreateInitEvent().(diagnosticInitEvent)
	assert.Equal(t, "diagnostic-init", event.Kind)
	assert.Equal(t, id, event.ID)
	assert.Equal(t, "Go", event.Platform.Name)
}

func TestDiagnosticsManagerResetsStreamInitsAfterStats(t *testing.T) {
	m := NewDiagnosticsManager(NewDiagnosticID("key"), ldvalue.Null(), ldvalue.Null())
	m.RecordStreamInit(1000, false, 50)

	event := m.CreateStatsEventAndReset(2, 3, 4).(diagnosticPeriodicEvent)
	assert.Len(t, event.StreamInits, 1)
	assert.Equal(t, 2, event.DroppedEvents)
	assert.Equal(t, 3, event.DeduplicatedUsers)
	assert.Equal(t, 4, event.EventsInLastBatch)

	event2 := m.CreateStatsEventAndReset(0, 0, 0).(diagnosticPeriodicEvent)
	assert.Empty(t, event2.StreamInits)
}
