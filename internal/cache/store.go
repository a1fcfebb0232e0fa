// Package cache implements the read-through cache over vehicle, deal
// and booking data. The backing store is Redis but every consumer
// sees only the Store interface, and every operation is fail-open:
// a cache outage degrades reads to database queries and writes to
// no-ops, it never blocks or fails a request.
package cache

import (
	"context"
	"errors"
	"log"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store is the capability handed to services. Get reports a miss
// (false) for absent keys and for any backend failure; Set and
// DeletePattern report success and swallow failures after logging
// them. IsConnected is checked by every operation before touching
// the network so a known-dead backend costs nothing per request.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) bool
	DeletePattern(ctx context.Context, pattern string) bool
	IsConnected() bool
}

// RedisStore implements Store over go-redis. A nil client (Redis
// unreachable at boot) is a valid state and behaves as permanently
// disconnected. The connected flag flips off on the first network
// error and back on after a successful ping, so per-request work
// short-circuits while the backend is down.
type RedisStore struct {
	client    *redis.Client
	connected atomic.Bool
}

// NewRedisStore wraps an already-constructed client. Passing nil is
// allowed and yields a store that reports every read as a miss.
func NewRedisStore(client *redis.Client) *RedisStore {
	s := &RedisStore{client: client}
	s.connected.Store(client != nil)
	return s
}

// IsConnected reports whether the backing store was reachable the
// last time we talked to it.
func (s *RedisStore) IsConnected() bool {
	return s.client != nil && s.connected.Load()
}

// Get returns the raw cached bytes for key, or (nil, false) on a
// miss, a disconnected backend or any backend error.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool) {
	if !s.IsConnected() {
		return nil, false
	}
	b, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		s.degrade("get", key, err)
		return nil, false
	}
	return b, true
}

// Set stores value under key with the given expiry. Returns false
// (never an error) when the backend is unreachable.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) bool {
	if !s.IsConnected() {
		return false
	}
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		s.degrade("set", key, err)
		return false
	}
	return true
}

// DeletePattern removes every key matching the glob pattern (e.g.
// "vehicles:*"). Keys are enumerated with SCAN rather than KEYS so
// a large keyspace does not stall the server, and deleted in
// batches. Best-effort: false on any failure.
func (s *RedisStore) DeletePattern(ctx context.Context, pattern string) bool {
	if !s.IsConnected() {
		return false
	}
	var batch []string
	iter := s.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) >= 100 {
			if err := s.client.Del(ctx, batch...).Err(); err != nil {
				s.degrade("del", pattern, err)
				return false
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		s.degrade("scan", pattern, err)
		return false
	}
	if len(batch) > 0 {
		if err := s.client.Del(ctx, batch...).Err(); err != nil {
			s.degrade("del", pattern, err)
			return false
		}
	}
	return true
}

// Ping re-checks connectivity and restores the connected flag on
// success. The health endpoint calls it on every probe, so a
// recovered backend is picked up without a restart.
func (s *RedisStore) Ping(ctx context.Context) bool {
	if s.client == nil {
		return false
	}
	if err := s.client.Ping(ctx).Err(); err != nil {
		s.degrade("ping", "", err)
		return false
	}
	s.connected.Store(true)
	return true
}

// degrade flips the connected flag off on backend failures. A
// cancelled or expired caller context says nothing about the backend,
// so those errors only cost the one request.
func (s *RedisStore) degrade(op, subject string, err error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		log.Printf("cache: %s %q aborted by caller: %v", op, subject, err)
		return
	}
	s.connected.Store(false)
	log.Printf("cache: %s %q failed, degrading to miss: %v", op, subject, err)
}
