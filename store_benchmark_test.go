package simpleredis

import (
	"fmt"
	"testing"

	"github.com/ananthvk/simpleredis/internal/resp"
)

func BenchmarkGet(b *testing.B) {
	backend := NewBackend()
	backend.Set("small key", resp.NewBulkString([]byte("The quick brown fox jumps over the lazy dogs")))
	for b.Loop() {
		backend.Get("small key")
	}
}

func BenchmarkSetLargeData(b *testing.B) {
	backend := NewBackend()

	// Pre-allocate a 1 MB value
	value := make([]byte, 999*999)
	for i := range value {
		value[i] = byte(i % 256)
	}
	frame := resp.NewBulkString(value)

	i := 0
	for b.Loop() {
		// Vary the key slightly for each iteration
		backend.Set(fmt.Sprintf("key-%d", i%256), frame)
		i++
	}
}

func BenchmarkParallelHSet(b *testing.B) {
	backend := NewBackend(WithShardCount(64))
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			backend.HSet(fmt.Sprintf("hash-%d", i%128), fmt.Sprintf("field-%d", i%16), resp.Integer(i))
			i++
		}
	})
}
