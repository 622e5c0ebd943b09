package broadcast

import (
	"sync"

	"github.com/launchflag/ffcore/subsystems"
)

// DataSourceStatusBroadcaster is the concrete broadcaster for data-source status changes,
// also tracking the current status so GetStatus callers see it immediately without waiting
// for the next transition. A newly added listener receives only updates made after it
// subscribed.
type DataSourceStatusBroadcaster struct {
	b  *Broadcaster[subsystems.DataSourceStatus]
	mu sync.Mutex
	st subsystems.DataSourceStatus
}

// NewDataSourceStatusBroadcaster creates a broadcaster starting in the INITIALIZING state.
func NewDataSourceStatusBroadcaster() *DataSourceStatusBroadcaster {
	return &DataSourceStatusBroadcaster{
		b:  NewBroadcaster[subsystems.DataSourceStatus](),
		st: subsystems.DataSourceStatus{State: subsystems.DataSourceInitializing},
	}
}

func (d *DataSourceStatusBroadcaster) GetStatus() subsystems.DataSourceStatus {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.st
}

// Update records a new status and broadcasts it to listeners.
func (d *DataSourceStatusBroadcaster) Update(status subsystems.DataSourceStatus) {
	d.mu.Lock()
	d.st = status
	d.mu.Unlock()
	d.b.Broadcast(status)
}

func (d *DataSourceStatusBroadcaster) AddListener() <-chan subsystems.DataSourceStatus {
	return d.b.AddListener()
}

func (d *DataSourceStatusBroadcaster) RemoveListener(ch <-chan subsystems.DataSourceStatus) {
	d.b.RemoveListener(ch)
}

func (d *DataSourceStatusBroadcaster) Close() { d.b.Close() }

// DataStoreStatusBroadcaster is the concrete broadcaster for data-store status changes.
type DataStoreStatusBroadcaster struct {
	b  *Broadcaster[subsystems.DataStoreStatus]
	mu sync.Mutex
	st subsystems.DataStoreStatus
}

// NewDataStoreStatusBroadcaster creates a broadcaster starting in the available state.
func NewDataStoreStatusBroadcaster() *DataStoreStatusBroadcaster {
	return &DataStoreStatusBroadcaster{
		b:  NewBroadcaster[subsystems.DataStoreStatus](),
		st: subsystems.DataStoreStatus{Available: true},
	}
}

func (d *DataStoreStatusBroadcaster) GetStatus() subsystems.DataStoreStatus {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.st
}

func (d *DataStoreStatusBroadcaster) Update(status subsystems.DataStoreStatus) {
	d.mu.Lock()
	d.st = status
	d.mu.Unlock()
	d.b.Broadcast(status)
}

func (d *DataStoreStatusBroadcaster) AddListener() <-chan subsystems.DataStoreStatus {
	return d.b.AddListener()
}

func (d *DataStoreStatusBroadcaster) RemoveListener(ch <-chan subsystems.DataStoreStatus) {
	d.b.RemoveListener(ch)
}

func (d *DataStoreStatusBroadcaster) Close() { d.b.Close() }

// FlagChangeEvent names a single flag whose value or targeting may have changed, the input to
// the flag-change tracker.
type FlagChangeEvent struct {
	Key string
}

// FlagChangeBroadcaster fans out FlagChangeEvent notifications to anything watching flag
// updates, e.g. the flag tracker's per-context value-change watchers.
type FlagChangeBroadcaster struct {
	b *Broadcaster[FlagChangeEvent]
}

func NewFlagChangeBroadcaster() *FlagChangeBroadcaster {
	return &FlagChangeBroadcaster{b: NewBroadcaster[FlagChangeEvent]()}
}

func (f *FlagChangeBroadcaster) Update(event FlagChangeEvent)              { f.b.Broadcast(event) }
func (f *FlagChangeBroadcaster) AddListener() <-chan FlagChangeEvent       { return f.b.AddListener() }
func (f *FlagChangeBroadcaster) RemoveListener(ch <-chan FlagChangeEvent)  { f.b.RemoveListener(ch) }
func (f *FlagChangeBroadcaster) Close()                                   { f.b.Close() }

// BigSegmentStoreStatus reports the health of the bigsegments.Manager's poll loop: whether the
// backing store is reachable, and whether the data it last returned is stale relative to
// bigSegmentsStaleAfter.
type BigSegmentStoreStatus struct {
	Available bool
	Stale     bool
}

// BigSegmentStoreStatusBroadcaster is the concrete broadcaster for big-segment store health.
type BigSegmentStoreStatusBroadcaster struct {
	b  *Broadcaster[BigSegmentStoreStatus]
	mu sync.Mutex
	st BigSegmentStoreStatus
}

func NewBigSegmentStoreStatusBroadcaster() *BigSegmentStoreStatusBroadcaster {
	return &BigSegmentStoreStatusBroadcaster{
		b:  NewBroadcaster[BigSegmentStoreStatus](),
		st: BigSegmentStoreStatus{Available: true},
	}
}

func (d *BigSegmentStoreStatusBroadcaster) GetStatus() BigSegmentStoreStatus {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.st
}

func (d *BigSegmentStoreStatusBroadcaster) Update(status BigSegmentStoreStatus) {
	d.mu.Lock()
	d.st = status
	d.mu.Unlock()
	d.b.Broadcast(status)
}

func (d *BigSegmentStoreStatusBroadcaster) AddListener() <-chan BigSegmentStoreStatus {
	return d.b.AddListener()
}

func (d *BigSegmentStoreStatusBroadcaster) RemoveListener(ch <-chan BigSegmentStoreStatus) {
	d.b.RemoveListener(ch)
}

func (d *BigSegmentStoreStatusBroadcaster) Close() { d.b.Close() }
