// Package cache provides a typed, best-effort JSON cache adapter over Redis.
// Every Get/Set/Delete failure is logged and swallowed (Ping and Close
// return their errors): the cache is read-optional
// from the caller's perspective, since the owning stream worker will
// overwrite any value on the next delta.
package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"dexstream/pkg/utils"
)

// Store wraps a multiplexed Redis client. The zero value is not usable;
// construct one with Dial.
type Store struct {
	client *redis.Client
	logger *log.Logger
}

// Dial parses endpoint as "host:port" (the REDIS_HOST convention) and opens
// a multiplexed connection. It does not block waiting for connectivity;
// call Ping to verify the server is reachable.
func Dial(endpoint string, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.StandardLogger()
	}
	client := redis.NewClient(&redis.Options{Addr: endpoint})
	return &Store{client: client, logger: logger}, nil
}

// NewWithClient wraps an already-constructed redis.Client, mainly so tests
// can point it at a miniredis instance.
func NewWithClient(client *redis.Client, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Store{client: client, logger: logger}
}

// Ping verifies connectivity to the Redis server.
func (s *Store) Ping(ctx context.Context) error {
	return utils.Wrap(s.client.Ping(ctx).Err(), "ping redis")
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.client.Close()
}

// Get fetches key and JSON-decodes it into T. A miss or any I/O/decode
// failure is logged and reported as ok=false; callers treat cache reads as
// best-effort and fall back to recomputing.
func Get[T any](ctx context.Context, s *Store, key string) (T, bool) {
	var zero T
	raw, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.WithError(err).WithField("key", key).Debug("cache get failed")
		}
		return zero, false
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("cache value failed to decode")
		return zero, false
	}
	return out, true
}

// Set JSON-encodes value and stores it under key with no expiry. Failures
// are logged and swallowed: the next delta will overwrite the key anyway.
func Set[T any](ctx context.Context, s *Store, key string, value T) {
	raw, err := json.Marshal(value)
	if err != nil {
		s.logger.WithError(err).WithField("key", key).Error("cache value failed to encode")
		return
	}
	if err := s.client.Set(ctx, key, raw, 0).Err(); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("cache set failed")
	}
}

// Delete removes key. Failures are logged and swallowed.
func (s *Store) Delete(ctx context.Context, key string) {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("cache delete failed")
	}
}

// Keys renders the fixed stream:* key schema, all lowercased.
var Keys = struct {
	Status      func(network string) string
	Latest      func(network string) string
	Updated     func(network string) string
	Tokens      func(network string) string
	Components  func(network string) string
	Orderbook   func(network, tag string) string
}{
	Status:     func(network string) string { return fmt.Sprintf("stream:status:%s", lower(network)) },
	Latest:     func(network string) string { return fmt.Sprintf("stream:latest:%s", lower(network)) },
	Updated:    func(network string) string { return fmt.Sprintf("stream:updated:%s", lower(network)) },
	Tokens:     func(network string) string { return fmt.Sprintf("stream:tokens:%s", lower(network)) },
	Components: func(network string) string { return fmt.Sprintf("stream:components:%s", lower(network)) },
	Orderbook: func(network, tag string) string {
		return fmt.Sprintf("stream:orderbook:%s:%s", lower(network), lower(tag))
	},
}

func lower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
