// Package bigsegments implements the concrete oracle behind eval.BigSegmentProvider: it polls
// a subsystems.BigSegmentStore for membership and freshness metadata, caches answers between
// polls, and maintains a status broadcaster. Grounded on the SDK's
// internal/bigsegments/big_segment_store_manager.go, adapted from per-user membership lookups
// to per-context-key lookups against an included/excluded segment-ref set.
package bigsegments

import (
	"crypto/sha256"
	"encoding/base64"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/launchflag/ffcore/eval"
	"github.com/launchflag/ffcore/internal/broadcast"
	"github.com/launchflag/ffcore/ldreason"
	"github.com/launchflag/ffcore/subsystems"
)

// membership implements eval.BigSegmentMembership over the included/excluded sets returned by
// the backing store: included wins over excluded.
type membership struct {
	included map[string]bool
	excluded map[string]bool
}

func (m membership) CheckMembership(segmentKey string) *bool {
	if m.included[segmentKey] {
		v := true
		return &v
	}
	if m.excluded[segmentKey] {
		v := false
		return &v
	}
	return nil
}

// Manager owns a subsystems.BigSegmentStore: it polls metadata on a timer to compute
// availability and staleness, caches per-context membership answers with a TTL, and collapses
// concurrent cache misses for the same context key into a single backing-store read.
type Manager struct {
	store       subsystems.BigSegmentStore
	broadcaster *broadcast.BigSegmentStoreStatusBroadcaster
	staleAfter  time.Duration
	cache       *cache.Cache
	cacheTTL    time.Duration
	requests    singleflight.Group
	loggers     subsystems.Loggers

	lock       sync.RWMutex
	haveStatus bool
	lastStatus broadcast.BigSegmentStoreStatus
	pollCloser chan struct{}
}

// NewManager creates a Manager and starts its background poll loop immediately. Closing the
// Manager closes the store.
func NewManager(
	store subsystems.BigSegmentStore,
	pollInterval time.Duration,
	staleAfter time.Duration,
	cacheTTL time.Duration,
	loggers subsystems.Loggers,
) *Manager {
	pollCloser := make(chan struct{})
	m := &Manager{
		store:       store,
		broadcaster: broadcast.NewBigSegmentStoreStatusBroadcaster(),
		staleAfter:  staleAfter,
		cache:       cache.New(cacheTTL, cacheTTL*2),
		cacheTTL:    cacheTTL,
		loggers:     loggers,
		pollCloser:  pollCloser,
	}
	go m.runPollTask(pollInterval, pollCloser)
	return m
}

// GetMembership implements eval.BigSegmentProvider. It returns (nil, NOT_CONFIGURED)-equivalent
// results deliberately only at the eval package layer (a nil *Manager is never handed out);
// here a store error always yields STORE_ERROR.
func (m *Manager) GetMembership(contextKey string) (eval.BigSegmentMembership, ldreason.BigSegmentsStatus) {
	status := m.status()
	if !status.Available {
		return nil, ldreason.BigSegmentsStoreError
	}

	hash := HashForContextKey(contextKey)
	if cached, ok := m.cache.Get(contextKey); ok {
		if cached == nil {
			return membership{}, resultStatus(status)
		}
		return cached.(membership), resultStatus(status)
	}

	value, err, _ := m.requests.Do(contextKey, func() (interface{}, error) {
		m.loggers.Debugf("querying big segment membership for context hash %q", hash)
		return m.store.GetMembership(hash)
	})
	if err != nil {
		m.loggers.Errorf("big segment store returned error: %s", err)
		return nil, ldreason.BigSegmentsStoreError
	}
	data := value.(subsystems.BigSegmentMembershipData)
	mem := membership{included: toSet(data.Included), excluded: toSet(data.Excluded)}
	m.cache.Set(contextKey, mem, m.cacheTTL)
	return mem, resultStatus(status)
}

func resultStatus(status broadcast.BigSegmentStoreStatus) ldreason.BigSegmentsStatus {
	if status.Stale {
		return ldreason.BigSegmentsStale
	}
	return ldreason.BigSegmentsHealthy
}

func toSet(values []string) map[string]bool {
	out := make(map[string]bool, len(values))
	for _, v := range values {
		out[v] = true
	}
	return out
}

// Status returns the broadcaster's current view, polling synchronously the first time it is
// called before the background loop has ever run (mirrors the SDK's getStatus).
func (m *Manager) Status() broadcast.BigSegmentStoreStatus { return m.status() }

func (m *Manager) status() broadcast.BigSegmentStoreStatus {
	m.lock.RLock()
	status, have := m.lastStatus, m.haveStatus
	m.lock.RUnlock()
	if have {
		return status
	}
	return m.pollAndUpdateStatus()
}

func (m *Manager) pollAndUpdateStatus() broadcast.BigSegmentStoreStatus {
	metadata, err := m.store.GetMetadata()

	var newStatus broadcast.BigSegmentStoreStatus
	if err == nil {
		newStatus.Available = true
		newStatus.Stale = metadata.LastUpToDate == nil || time.Since(*metadata.LastUpToDate) >= m.staleAfter
	} else {
		m.loggers.Errorf("big segment store status query returned error: %s", err)
		newStatus.Available = false
	}

	m.lock.Lock()
	oldStatus, had := m.lastStatus, m.haveStatus
	m.lastStatus = newStatus
	m.haveStatus = true
	m.lock.Unlock()

	if !had || newStatus != oldStatus {
		m.broadcaster.Update(newStatus)
	}
	return newStatus
}

func (m *Manager) runPollTask(pollInterval time.Duration, closer <-chan struct{}) {
	if pollInterval > m.staleAfter {
		pollInterval = m.staleAfter
	}
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-closer:
			return
		case <-ticker.C:
			m.pollAndUpdateStatus()
		}
	}
}

// StatusBroadcaster exposes the status broadcaster for callers wanting to subscribe.
func (m *Manager) StatusBroadcaster() *broadcast.BigSegmentStoreStatusBroadcaster { return m.broadcaster }

// Close shuts down the poll loop, the cache, the broadcaster, and finally the backing store.
func (m *Manager) Close() error {
	m.lock.Lock()
	if m.pollCloser != nil {
		close(m.pollCloser)
		m.pollCloser = nil
	}
	m.lock.Unlock()
	m.cache.Flush()
	m.broadcaster.Close()
	return m.store.Close()
}

// HashForContextKey computes the hash sent to the backing store in place of a raw context key,
// matching the SDK's HashForUserKey convention.
func HashForContextKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return base64.StdEncoding.EncodeToString(sum[:])
}
