package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
)

func testClient(t *testing.T) (*goredis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestKVRoundTrip(t *testing.T) {
	ctx := context.Background()
	client, _ := testClient(t)
	kv := NewKV(client, 0)

	if _, ok := kv.Get(ctx, "quiz:session:q1"); ok {
		t.Fatalf("expected miss on empty store")
	}

	if err := kv.Set(ctx, "quiz:session:q1", []byte(`{"quizId":"q1"}`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	raw, ok := kv.Get(ctx, "quiz:session:q1")
	if !ok || string(raw) != `{"quizId":"q1"}` {
		t.Fatalf("unexpected get: %q ok=%v", raw, ok)
	}

	if err := kv.Delete(ctx, "quiz:session:q1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := kv.Get(ctx, "quiz:session:q1"); ok {
		t.Fatalf("expected miss after delete")
	}
}

func TestKVAppliesTTL(t *testing.T) {
	ctx := context.Background()
	client, mr := testClient(t)
	kv := NewKV(client, time.Minute)

	if err := kv.Set(ctx, "quiz:answers:q1", []byte(`{}`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if ttl := mr.TTL("quiz:answers:q1"); ttl != time.Minute {
		t.Fatalf("expected 1m ttl, got %v", ttl)
	}

	mr.FastForward(2 * time.Minute)
	if _, ok := kv.Get(ctx, "quiz:answers:q1"); ok {
		t.Fatalf("expected expiry after ttl")
	}
}

func TestKVGetFailSoftOnError(t *testing.T) {
	ctx := context.Background()
	client, mr := testClient(t)
	kv := NewKV(client, 0)

	mr.Close()
	if _, ok := kv.Get(ctx, "quiz:session:q1"); ok {
		t.Fatalf("expected miss when redis is unreachable")
	}
}
