package ldcomponents

import (
	"time"

	"github.com/launchflag/ffcore/bigsegments"
	"github.com/launchflag/ffcore/subsystems"
)

// DefaultBigSegmentsContextCacheTime is the default value for
// BigSegmentsConfigurationBuilder.ContextCacheTime.
const DefaultBigSegmentsContextCacheTime = 5 * time.Second

// DefaultBigSegmentsStatusPollInterval is the default value for
// BigSegmentsConfigurationBuilder.StatusPollInterval.
const DefaultBigSegmentsStatusPollInterval = 5 * time.Second

// DefaultBigSegmentsStaleAfter is the default value for BigSegmentsConfigurationBuilder.StaleAfter.
const DefaultBigSegmentsStaleAfter = 2 * time.Minute

// BigSegmentsConfigurationBuilder configures the big segments feature: a storeFactory is always
// required, since big segments only apply when an external backing store (e.g. Redis) is
// configured to mirror the LaunchDarkly-computed segment membership.
type BigSegmentsConfigurationBuilder struct {
	storeFactory       subsystems.BigSegmentStoreFactory
	contextCacheTime   time.Duration
	statusPollInterval time.Duration
	staleAfter         time.Duration
}

// BigSegments returns a configuration builder for the big segments feature. If storeFactory is
// nil, big segments are disabled and any flag rule referencing one behaves as though the
// evaluated context is excluded from every such segment.
func BigSegments(storeFactory subsystems.BigSegmentStoreFactory) *BigSegmentsConfigurationBuilder {
	return &BigSegmentsConfigurationBuilder{
		storeFactory:       storeFactory,
		contextCacheTime:   DefaultBigSegmentsContextCacheTime,
		statusPollInterval: DefaultBigSegmentsStatusPollInterval,
		staleAfter:         DefaultBigSegmentsStaleAfter,
	}
}

// ContextCacheTime sets how long a per-context membership answer is cached before the manager
// re-queries the backing store.
func (b *BigSegmentsConfigurationBuilder) ContextCacheTime(ttl time.Duration) *BigSegmentsConfigurationBuilder {
	b.contextCacheTime = ttl
	return b
}

// StatusPollInterval sets how often the manager polls the backing store's metadata to compute
// availability and staleness.
func (b *BigSegmentsConfigurationBuilder) StatusPollInterval(interval time.Duration) *BigSegmentsConfigurationBuilder {
	b.statusPollInterval = interval
	return b
}

// StaleAfter sets how long since the backing store's last update before its data is considered
// stale; evaluations needing big segments report BigSegmentsStale past this point.
func (b *BigSegmentsConfigurationBuilder) StaleAfter(staleAfter time.Duration) *BigSegmentsConfigurationBuilder {
	b.staleAfter = staleAfter
	return b
}

// CreateBigSegments builds the manager, or returns nil if no storeFactory was configured.
func (b *BigSegmentsConfigurationBuilder) CreateBigSegments(context subsystems.ClientContext) (*bigsegments.Manager, error) {
	if b.storeFactory == nil {
		return nil, nil
	}
	store, err := b.storeFactory.CreateBigSegmentStore(context)
	if err != nil {
		return nil, err
	}
	return bigsegments.NewManager(store, b.statusPollInterval, b.staleAfter, b.contextCacheTime, context.GetLoggers()), nil
}
