package simpleredis

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ananthvk/simpleredis/internal/resp"
)

func TestConcurrentCounters(t *testing.T) {
	backend := NewBackend(WithShardCount(8))

	// Initialize 20 counters
	numCounters := 20
	for i := 1; i <= numCounters; i++ {
		backend.Set(fmt.Sprintf("counter%d", i), resp.Integer(0))
	}

	numWriterGoroutines := numCounters
	numReaderGoroutines := 20
	incrementsPerWriter := 500

	var writers sync.WaitGroup
	var readers sync.WaitGroup
	done := make(chan struct{})
	errs := make(chan error, numWriterGoroutines+numReaderGoroutines)
	var totalIncrements int64

	// Each writer increments only its own counter, so read-modify-write needs no extra locking
	for writerID := 1; writerID <= numWriterGoroutines; writerID++ {
		writers.Add(1)
		go func(id int) {
			defer writers.Done()
			counterKey := fmt.Sprintf("counter%d", id)
			for range incrementsPerWriter {
				val, err := backend.Get(counterKey)
				if err != nil {
					errs <- fmt.Errorf("writer %d: failed to read counter: %w", id, err)
					return
				}
				backend.Set(counterKey, val.(resp.Integer)+1)
				atomic.AddInt64(&totalIncrements, 1)
			}
		}(writerID)
	}

	for readerID := range numReaderGoroutines {
		readers.Add(1)
		go func(id int) {
			defer readers.Done()
			for readCount := 0; ; readCount++ {
				select {
				case <-done:
					return
				default:
				}
				counterKey := fmt.Sprintf("counter%d", (id+readCount)%numCounters+1)
				val, err := backend.Get(counterKey)
				if err != nil {
					errs <- fmt.Errorf("reader %d: failed to read %s: %w", id, counterKey, err)
					return
				}
				if v := val.(resp.Integer); v < 0 || int(v) > incrementsPerWriter {
					errs <- fmt.Errorf("reader %d: counter %s out of range: %d", id, counterKey, v)
					return
				}
			}
		}(readerID)
	}

	writers.Wait()
	close(done)
	readers.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}

	if totalIncrements != int64(numWriterGoroutines*incrementsPerWriter) {
		t.Errorf("expected %d increments, got %d", numWriterGoroutines*incrementsPerWriter, totalIncrements)
	}
	for i := 1; i <= numCounters; i++ {
		val, err := backend.Get(fmt.Sprintf("counter%d", i))
		if err != nil {
			t.Fatalf("failed to read counter%d: %v", i, err)
		}
		if val != resp.Integer(incrementsPerWriter) {
			t.Errorf("counter%d = %v, want %d", i, val, incrementsPerWriter)
		}
	}
}

func TestConcurrentHashWrites(t *testing.T) {
	backend := NewBackend()
	const writers = 16
	const fieldsPerWriter = 200

	var wg sync.WaitGroup
	for w := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for f := range fieldsPerWriter {
				backend.HSet("shared", fmt.Sprintf("w%d-f%d", w, f), resp.Integer(f))
			}
		}()
	}
	wg.Wait()

	if got := len(backend.HGetAll("shared")); got != writers*fieldsPerWriter {
		t.Errorf("expected %d fields, got %d", writers*fieldsPerWriter, got)
	}
}
