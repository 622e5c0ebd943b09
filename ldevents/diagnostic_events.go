package ldevents

import (
	"runtime"
	"sync"

	"github.com/google/uuid"

	"github.com/launchflag/ffcore/ldtime"
	"github.com/launchflag/ffcore/ldvalue"
)

// DiagnosticID uniquely identifies one SDK instance's diagnostic event stream across its
// lifetime, plus a truncated suffix of the SDK key so operators can correlate without exposing
// the whole key.
type DiagnosticID struct {
	DiagnosticID string `json:"diagnosticId"`
	SDKKeySuffix string `json:"sdkKeySuffix,omitempty"`
}

// NewDiagnosticID builds a DiagnosticID, deriving the key suffix from sdkKey.
func NewDiagnosticID(sdkKey string) DiagnosticID {
	id, _ := uuid.NewRandom()
	suffix := sdkKey
	if len(sdkKey) > 6 {
		suffix = sdkKey[len(sdkKey)-6:]
	}
	return DiagnosticID{DiagnosticID: id.String(), SDKKeySuffix: suffix}
}

type diagnosticPlatformData struct {
	Name      string `json:"name"`
	GoVersion string `json:"goVersion"`
	OSArch    string `json:"osArch"`
	OSName    string `json:"osName"`
}

type diagnosticStreamInitInfo struct {
	Timestamp      ldtime.UnixMillisecondTime `json:"timestamp"`
	Failed         bool                       `json:"failed"`
	DurationMillis int64                      `json:"durationMillis"`
}

type diagnosticBaseEvent struct {
	Kind         string                     `json:"kind"`
	ID           DiagnosticID               `json:"id"`
	CreationDate ldtime.UnixMillisecondTime `json:"creationDate"`
}

type diagnosticInitEvent struct {
	diagnosticBaseEvent
	SDK           ldvalue.Value          `json:"sdk"`
	Configuration ldvalue.Value          `json:"configuration"`
	Platform      diagnosticPlatformData `json:"platform"`
}

type diagnosticPeriodicEvent struct {
	diagnosticBaseEvent
	DataSinceDate     ldtime.UnixMillisecondTime `json:"dataSinceDate"`
	DroppedEvents     int                        `json:"droppedEvents"`
	DeduplicatedUsers int                        `json:"deduplicatedUsers"`
	EventsInLastBatch int                        `json:"eventsInLastBatch"`
	StreamInits       []diagnosticStreamInitInfo `json:"streamInits"`
}

// DiagnosticsManager tracks and formats the periodic usage-statistics events an event processor
// sends alongside ordinary analytics events. Grounded on the SDK's ldevents diagnostic
// manager, trimmed of fields this module's Config doesn't expose (no proxy/relay-daemon
// settings).
type DiagnosticsManager struct {
	id            DiagnosticID
	sdkData       ldvalue.Value
	configData    ldvalue.Value
	startTime     ldtime.UnixMillisecondTime
	dataSinceTime ldtime.UnixMillisecondTime
	streamInits   []diagnosticStreamInitInfo
	lock          sync.Mutex
}

// NewDiagnosticsManager creates a DiagnosticsManager.
func NewDiagnosticsManager(id DiagnosticID, configData, sdkData ldvalue.Value) *DiagnosticsManager {
	now := ldtime.UnixMillisNow()
	return &DiagnosticsManager{id: id, sdkData: sdkData, configData: configData, startTime: now, dataSinceTime: now}
}

// RecordStreamInit records that a streaming connection attempt succeeded or failed, for
// inclusion in the next periodic event.
func (m *DiagnosticsManager) RecordStreamInit(timestamp ldtime.UnixMillisecondTime, failed bool, durationMillis int64) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.streamInits = append(m.streamInits, diagnosticStreamInitInfo{Timestamp: timestamp, Failed: failed, DurationMillis: durationMillis})
}

// CreateInitEvent builds the one-time startup diagnostic event.
func (m *DiagnosticsManager) CreateInitEvent() interface{} {
	return diagnosticInitEvent{
		diagnosticBaseEvent: diagnosticBaseEvent{Kind: "diagnostic-init", ID: m.id, CreationDate: m.startTime},
		SDK:                 m.sdkData,
		Configuration:       m.configData,
		Platform: diagnosticPlatformData{
			Name:      "Go",
			GoVersion: runtime.Version(),
			OSName:    normalizeOSName(runtime.GOOS),
			OSArch:    runtime.GOARCH,
		},
	}
}

// CreateStatsEventAndReset builds the periodic usage-statistics event and resets the counters it
// reports, so the next interval starts from zero.
func (m *DiagnosticsManager) CreateStatsEventAndReset(droppedEvents, deduplicatedContexts, eventsInLastBatch int) interface{} {
	m.lock.Lock()
	defer m.lock.Unlock()
	now := ldtime.UnixMillisNow()
	event := diagnosticPeriodicEvent{
		diagnosticBaseEvent: diagnosticBaseEvent{Kind: "diagnostic", ID: m.id, CreationDate: now},
		DataSinceDate:       m.dataSinceTime,
		DroppedEvents:       droppedEvents,
		DeduplicatedUsers:   deduplicatedContexts,
		EventsInLastBatch:   eventsInLastBatch,
		StreamInits:         m.streamInits,
	}
	m.streamInits = nil
	m.dataSinceTime = now
	return event
}

func normalizeOSName(osName string) string {
	switch osName {
	case "darwin":
		return "MacOS"
	case "windows":
		return "Windows"
	case "linux":
		return "Linux"
	}
	return osName
}
