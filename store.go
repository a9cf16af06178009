package simpleredis

import (
	"slices"
	"strings"

	"github.com/ananthvk/simpleredis/internal/cmap"
	"github.com/ananthvk/simpleredis/internal/resp"
)

// Backend is the in-memory store shared by every connection. It keeps two independent
// namespaces: plain keys holding a single frame, and hash keys holding a field -> frame map.
// Every operation is atomic for the key it touches; nothing is atomic across keys.
type Backend struct {
	shardCount int
	values     *cmap.Map[resp.Frame]
	hashes     *cmap.Map[map[string]resp.Frame]
}

// FieldValue is one field of a hash.
type FieldValue struct {
	Field string
	Value resp.Frame
}

type Option func(*Backend)

// WithShardCount sets the number of lock shards of each namespace. n must be a power of two,
// otherwise cmap.DefaultShardCount is used.
func WithShardCount(n int) Option {
	return func(b *Backend) {
		b.shardCount = n
	}
}

func NewBackend(opts ...Option) *Backend {
	b := &Backend{shardCount: cmap.DefaultShardCount}
	for _, opt := range opts {
		opt(b)
	}
	b.values = cmap.NewWithShards[resp.Frame](b.shardCount)
	b.hashes = cmap.NewWithShards[map[string]resp.Frame](b.shardCount)
	return b
}

// Get returns the value stored at key. If the key does not exist, `ErrKeyNotFound` is returned
func (b *Backend) Get(key string) (resp.Frame, error) {
	value, ok := b.values.Get(key)
	if !ok {
		return nil, ErrKeyNotFound
	}
	return value, nil
}

// Set stores value at key, replacing any previous value
func (b *Backend) Set(key string, value resp.Frame) {
	b.values.Set(key, value)
}

// Delete removes the given keys from both namespaces and returns how many of them existed
func (b *Backend) Delete(keys ...string) int {
	deleted := 0
	for _, key := range keys {
		inValues := b.values.Delete(key)
		inHashes := b.hashes.Delete(key)
		if inValues || inHashes {
			deleted++
		}
	}
	return deleted
}

// Keys returns every key of both namespaces in ascending order
func (b *Backend) Keys() []string {
	keys := append(b.values.Keys(), b.hashes.Keys()...)
	slices.Sort(keys)
	return slices.Compact(keys)
}

// Len returns the number of distinct keys
func (b *Backend) Len() int {
	return len(b.Keys())
}

// HGet returns the value of field in the hash stored at key. `ErrKeyNotFound` is returned when
// the hash does not exist and `ErrFieldNotFound` when the field does not.
func (b *Backend) HGet(key, field string) (resp.Frame, error) {
	var (
		value resp.Frame
		err   error
	)
	b.hashes.View(key, func(fields map[string]resp.Frame, exists bool) {
		if !exists {
			err = ErrKeyNotFound
			return
		}
		v, ok := fields[field]
		if !ok {
			err = ErrFieldNotFound
			return
		}
		value = v
	})
	return value, err
}

// HSet stores value at field of the hash at key, creating the hash if needed. It reports
// whether the field is new.
func (b *Backend) HSet(key, field string, value resp.Frame) bool {
	created := false
	b.hashes.Compute(key, func(fields map[string]resp.Frame, exists bool) (map[string]resp.Frame, bool) {
		if !exists {
			fields = make(map[string]resp.Frame)
		}
		_, existed := fields[field]
		created = !existed
		fields[field] = value
		return fields, true
	})
	return created
}

// HGetAll returns every field of the hash at key sorted by field name. A missing hash yields
// an empty slice.
func (b *Backend) HGetAll(key string) []FieldValue {
	var pairs []FieldValue
	b.hashes.View(key, func(fields map[string]resp.Frame, _ bool) {
		pairs = make([]FieldValue, 0, len(fields))
		for field, value := range fields {
			pairs = append(pairs, FieldValue{Field: field, Value: value})
		}
	})
	slices.SortFunc(pairs, func(a, b FieldValue) int {
		return strings.Compare(a.Field, b.Field)
	})
	return pairs
}

// HDel removes fields from the hash at key and returns how many existed. The hash itself is
// removed once it has no fields left.
func (b *Backend) HDel(key string, fields ...string) int {
	deleted := 0
	b.hashes.Compute(key, func(hash map[string]resp.Frame, exists bool) (map[string]resp.Frame, bool) {
		if !exists {
			return nil, false
		}
		for _, field := range fields {
			if _, ok := hash[field]; ok {
				delete(hash, field)
				deleted++
			}
		}
		return hash, len(hash) > 0
	})
	return deleted
}
