package datastore

import (
	"sync"
	"time"

	"github.com/launchflag/ffcore/subsystems"
)

// statusPoller tracks the persistent-store wrapper's availability and, after an outage, polls
// the backing store on a fixed interval until it recovers. Grounded on the SDK's
// dataStoreStatusPoller (internal/datastore), simplified to two states: available and
// needs-refresh.
type statusPoller struct {
	pollAvailability func() bool
	updates          subsystems.DataStoreUpdateSink
	loggers          subsystems.Loggers
	reportNeedsRefreshOnRecovery bool

	mu        sync.Mutex
	available bool
	closeCh   chan struct{}
	closed    bool
}

const statusPollInterval = 500 * time.Millisecond

func newStatusPoller(
	pollAvailability func() bool,
	updates subsystems.DataStoreUpdateSink,
	reportNeedsRefreshOnRecovery bool,
	loggers subsystems.Loggers,
) *statusPoller {
	return &statusPoller{
		pollAvailability:             pollAvailability,
		updates:                      updates,
		loggers:                      loggers,
		reportNeedsRefreshOnRecovery: reportNeedsRefreshOnRecovery,
		available:                    true,
	}
}

// onOutage is called whenever an operation against the backing store fails. The first failure
// transitions to unavailable and starts a poll loop; subsequent failures while already
// unavailable are no-ops.
func (p *statusPoller) onOutage(err error, loggers subsystems.Loggers) {
	p.mu.Lock()
	if !p.available || p.closed {
		p.mu.Unlock()
		return
	}
	p.available = false
	p.closeCh = make(chan struct{})
	closeCh := p.closeCh
	p.mu.Unlock()

	if loggers != nil {
		loggers.Errorf("persistent store is unavailable: %s", err)
	}
	p.updates.UpdateStatus(subsystems.DataStoreStatus{Available: false})

	go p.pollUntilRecovered(closeCh)
}

func (p *statusPoller) pollUntilRecovered(closeCh <-chan struct{}) {
	ticker := time.NewTicker(statusPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-closeCh:
			return
		case <-ticker.C:
			if p.pollAvailability() {
				p.mu.Lock()
				p.available = true
				p.mu.Unlock()
				p.updates.UpdateStatus(subsystems.DataStoreStatus{
					Available:    true,
					NeedsRefresh: p.reportNeedsRefreshOnRecovery,
				})
				return
			}
		}
	}
}

func (p *statusPoller) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	if p.closeCh != nil {
		close(p.closeCh)
	}
}
