package redis

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// KV is a Redis-backed implementation of store.KV. Reads are fail-soft: any
// Redis error is logged and reported as absence, matching the engine's
// "corrupt or missing means default" contract. An optional TTL bounds how
// long abandoned attempt state lingers.
type KV struct {
	client *redis.Client
	ttl    time.Duration
}

func NewKV(client *redis.Client, ttl time.Duration) *KV {
	return &KV{client: client, ttl: ttl}
}

func (s *KV) Get(ctx context.Context, key string) ([]byte, bool) {
	raw, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		log.Printf("redis kv: get %q: %v", key, err)
		return nil, false
	}
	return raw, true
}

func (s *KV) Set(ctx context.Context, key string, value []byte) error {
	return s.client.Set(ctx, key, value, s.ttl).Err()
}

func (s *KV) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}
