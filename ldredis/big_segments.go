package ldredis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/launchflag/ffcore/subsystems"
)

func redisIncludeKey(prefix, contextHash string) string {
	return fmt.Sprintf("%s:big_segment_include:%s", prefix, contextHash)
}

func redisExcludeKey(prefix, contextHash string) string {
	return fmt.Sprintf("%s:big_segment_exclude:%s", prefix, contextHash)
}

func redisSynchronizedKey(prefix string) string {
	return prefix + ":big_segments_synchronized_on"
}

// BigSegmentsBuilder configures a Redis-backed subsystems.BigSegmentStoreFactory, mirroring the
// same include/exclude-set layout the synchronizer job populates.
type BigSegmentsBuilder struct {
	url    string
	prefix string
	client *goredis.Client
}

// BigSegmentsStore returns a configurable builder for a Redis-backed big segment store.
func BigSegmentsStore() *BigSegmentsBuilder {
	return &BigSegmentsBuilder{url: DefaultURL, prefix: DefaultPrefix}
}

// URL sets the Redis connection string.
func (b *BigSegmentsBuilder) URL(url string) *BigSegmentsBuilder {
	if url == "" {
		url = DefaultURL
	}
	b.url = url
	return b
}

// Prefix sets the string prepended to every Redis key the store uses.
func (b *BigSegmentsBuilder) Prefix(prefix string) *BigSegmentsBuilder {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	b.prefix = prefix
	return b
}

// CreateBigSegmentStore builds the Redis-backed subsystems.BigSegmentStore.
func (b *BigSegmentsBuilder) CreateBigSegmentStore(clientContext subsystems.ClientContext) (subsystems.BigSegmentStore, error) {
	opts, err := goredis.ParseURL(b.url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return &bigSegmentStore{client: goredis.NewClient(opts), prefix: b.prefix}, nil
}

type bigSegmentStore struct {
	client *goredis.Client
	prefix string
}

func (s *bigSegmentStore) GetMembership(contextHash string) (subsystems.BigSegmentMembershipData, error) {
	ctx := context.Background()
	included, err := s.client.SMembers(ctx, redisIncludeKey(s.prefix, contextHash)).Result()
	if err != nil {
		return subsystems.BigSegmentMembershipData{}, err
	}
	excluded, err := s.client.SMembers(ctx, redisExcludeKey(s.prefix, contextHash)).Result()
	if err != nil {
		return subsystems.BigSegmentMembershipData{}, err
	}
	return subsystems.BigSegmentMembershipData{Included: included, Excluded: excluded}, nil
}

func (s *bigSegmentStore) GetMetadata() (subsystems.BigSegmentStoreMetadata, error) {
	ctx := context.Background()
	raw, err := s.client.Get(ctx, redisSynchronizedKey(s.prefix)).Result()
	if err == goredis.Nil {
		return subsystems.BigSegmentStoreMetadata{}, nil
	}
	if err != nil {
		return subsystems.BigSegmentStoreMetadata{}, err
	}
	parsed, parseErr := time.Parse(time.RFC3339Nano, raw)
	if parseErr != nil {
		return subsystems.BigSegmentStoreMetadata{}, parseErr
	}
	return subsystems.BigSegmentStoreMetadata{LastUpToDate: &parsed}, nil
}

func (s *bigSegmentStore) Close() error {
	return s.client.Close()
}
