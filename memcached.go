package glitchreveal

import (
	"context"
	"fmt"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
)

// MemcachedStore implements the Store interface using Memcached.
type MemcachedStore struct {
	client         *memcache.Client
	ttl            time.Duration
	maxRecordBytes int
}

// MemcachedConfig holds configuration for the Memcached store.
type MemcachedConfig struct {
	Servers        []string
	TTL            time.Duration // Zero keeps records until evicted.
	MaxRecordBytes int
	Timeout        time.Duration // Timeout for Memcached operations. Zero means no timeout.
}

// NewMemcachedStore creates a new MemcachedStore.
func NewMemcachedStore(ttl time.Duration, servers ...string) *MemcachedStore {
	return NewMemcachedStoreWithConfig(MemcachedConfig{
		Servers: servers,
		TTL:     ttl,
		// A visitor must never wait on a dead cache longer than this.
		Timeout: 500 * time.Millisecond,
	})
}

// NewMemcachedStoreWithConfig creates a new MemcachedStore with custom configuration.
func NewMemcachedStoreWithConfig(cfg MemcachedConfig) *MemcachedStore {
	client := memcache.New(cfg.Servers...)
	client.Timeout = cfg.Timeout

	return &MemcachedStore{
		client:         client,
		ttl:            cfg.TTL,
		maxRecordBytes: cfg.MaxRecordBytes,
	}
}

// Get retrieves a record from Memcached.
func (s *MemcachedStore) Get(ctx context.Context, key string) (*Record, error) {
	item, err := s.client.Get(key)
	if err == memcache.ErrCacheMiss {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get from memcached: %w", err)
	}
	return decodeRecord(item.Value, s.maxRecordBytes)
}

// Save stores a record in Memcached.
func (s *MemcachedStore) Save(ctx context.Context, key string, r *Record) error {
	buf := getBuffer()
	defer putBuffer(buf)

	blob, err := encodeRecord(buf, r, s.maxRecordBytes)
	if err != nil {
		return err
	}

	err = s.client.Set(&memcache.Item{
		Key:        key,
		Value:      blob,
		Expiration: calculateMemcachedExpiration(time.Now(), s.ttl),
	})
	if err != nil {
		return fmt.Errorf("failed to save to memcached: %w", err)
	}
	return nil
}

// Delete removes a record from Memcached.
func (s *MemcachedStore) Delete(ctx context.Context, key string) error {
	err := s.client.Delete(key)
	if err != nil && err != memcache.ErrCacheMiss {
		return fmt.Errorf("failed to delete from memcached: %w", err)
	}
	return nil
}

// Close is a no-op for Memcached client.
func (s *MemcachedStore) Close() error {
	return nil
}

// calculateMemcachedExpiration calculates the expiration value for Memcached.
// Memcached treats values > 30 days (60*60*24*30 seconds) as absolute Unix timestamps.
// Values <= 30 days are treated as a delta from the current time. Zero never expires.
func calculateMemcachedExpiration(now time.Time, ttl time.Duration) int32 {
	const maxDelta = 30 * 24 * 60 * 60 // 30 days in seconds

	if ttl <= 0 {
		return 0
	}

	// Past 30 days a delta would be read as a timestamp in 1970.
	if ttl > maxDelta*time.Second {
		return int32(now.Add(ttl).Unix())
	}

	// Sub-second TTLs round up so they don't turn into "never".
	secs := int32(ttl / time.Second)
	if secs == 0 {
		secs = 1
	}
	return secs
}
