package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequentialIDs(t *testing.T) {
	g := NewSequentialIDs("entry")

	id, err := g.Next()
	require.NoError(t, err)
	assert.Equal(t, "entry-0001", id)

	id, _ = g.Next()
	assert.Equal(t, "entry-0002", id)
	assert.EqualValues(t, 2, g.Issued())

	g.Reset()
	id, _ = g.Next()
	assert.Equal(t, "entry-0001", id)
}

func TestSequentialIDs_DefaultPrefix(t *testing.T) {
	id, err := NewSequentialIDs("").Next()
	require.NoError(t, err)
	assert.Equal(t, "id-0001", id)
}

func TestSequentialIDs_Concurrent(t *testing.T) {
	g := NewSequentialIDs("c")

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = map[string]bool{}
	)
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, _ := g.Next()
			mu.Lock()
			seen[id] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 50)
	assert.EqualValues(t, 50, g.Issued())
}
