package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequence(t *testing.T) {
	s := NewSequence()
	assert.Equal(t, int64(0), s.Current())
	assert.Equal(t, int64(1), s.Next())
	assert.Equal(t, int64(2), s.Next())
	assert.Equal(t, int64(2), s.Current())

	s.Reset()
	assert.Equal(t, int64(0), s.Current())
	assert.Equal(t, int64(1), s.Next())
}

func TestSequenceConcurrent(t *testing.T) {
	s := NewSequence()
	const workers, calls = 50, 100

	var wg sync.WaitGroup
	seen := make(chan int64, workers*calls)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range calls {
				seen <- s.Next()
			}
		}()
	}
	wg.Wait()
	close(seen)

	unique := make(map[int64]bool)
	for v := range seen {
		assert.False(t, unique[v], "duplicate value %d", v)
		unique[v] = true
	}
	assert.Len(t, unique, workers*calls)
	assert.Equal(t, int64(workers*calls), s.Current())
}

func TestCompileSheet(t *testing.T) {
	s := CompileSheet(t, `device: r: { kind: "reactor" }`)
	assert.Len(t, s.Devices, 1)
}

func TestWriteSheet(t *testing.T) {
	path := WriteSheet(t, t.TempDir(), "nested/plant.cue", "stream: a: {}")
	assert.FileExists(t, path)
}
