package store

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyedMutex_SerializesPerKey(t *testing.T) {
	req := require.New(t)
	km := NewKeyedMutex()

	// The map itself is read-only; each counter is guarded by its key's lock.
	counters := map[string]*int{"a": new(int), "b": new(int)}
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		for _, key := range []string{"a", "b"} {
			key := key
			wg.Add(1)
			go func() {
				defer wg.Done()
				unlock := km.Lock(key)
				defer unlock()
				*counters[key]++
			}()
		}
	}
	wg.Wait()

	req.Equal(100, *counters["a"])
	req.Equal(100, *counters["b"])
}

func TestKeyedMutex_ReleasesEntries(t *testing.T) {
	req := require.New(t)
	km := NewKeyedMutex()

	unlock := km.Lock("a")
	km.mu.Lock()
	req.Len(km.locks, 1)
	km.mu.Unlock()

	unlock()
	km.mu.Lock()
	req.Empty(km.locks)
	km.mu.Unlock()
}
