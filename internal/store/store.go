// Package store defines the key-value persistence boundary of the engine.
// Everything durable (answers in progress, session state, results, attempt
// history, the progress ledger) lives behind KV, so the engine runs the same
// against the in-memory store in tests and Redis in production.
package store

import (
	"context"
	"encoding/json"
	"log"
)

// KV is a flat keyed byte store. Get reports absence rather than erroring:
// a missing or unreadable entry is treated as "no value" so that corrupt
// persisted state can never wedge an attempt.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// GetJSON decodes the value at key into out. Absent or malformed entries
// report false; a decode failure is logged and treated as absence.
func GetJSON(ctx context.Context, kv KV, key string, out any) bool {
	raw, ok := kv.Get(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		log.Printf("store: discarding malformed entry %q: %v", key, err)
		return false
	}
	return true
}

// SetJSON encodes v and stores it at key.
func SetJSON(ctx context.Context, kv KV, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return kv.Set(ctx, key, raw)
}

// Prefixed returns a view of kv with every key prefixed, for scoping the
// engine's state to one learner.
func Prefixed(kv KV, prefix string) KV {
	return &prefixed{kv: kv, prefix: prefix}
}

type prefixed struct {
	kv     KV
	prefix string
}

func (p *prefixed) Get(ctx context.Context, key string) ([]byte, bool) {
	return p.kv.Get(ctx, p.prefix+key)
}

func (p *prefixed) Set(ctx context.Context, key string, value []byte) error {
	return p.kv.Set(ctx, p.prefix+key, value)
}

func (p *prefixed) Delete(ctx context.Context, key string) error {
	return p.kv.Delete(ctx, p.prefix+key)
}
