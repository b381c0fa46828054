package dbcache

import (
	"bytes"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyIsStableAndOrderSensitive(t *testing.T) {
	k1 := Key("/proj/app.py", []string{"/etc/known", "/proj/.pyflyby"})
	k2 := Key("/proj/app.py", []string{"/etc/known", "/proj/.pyflyby"})
	assert.Equal(t, k1, k2)

	k3 := Key("/proj/app.py", []string{"/proj/.pyflyby", "/etc/known"})
	assert.NotEqual(t, k1, k3, "root order changes precedence, so the key must differ")

	k4 := Key("/proj/other.py", []string{"/etc/known", "/proj/.pyflyby"})
	assert.NotEqual(t, k1, k4)
}

func TestCacheBasic(t *testing.T) {
	c := New(Options{MaxSize: 3})

	c.Set("a", []byte("db-a"))
	c.Set("b", []byte("db-b"))
	c.Set("c", []byte("db-c"))

	assert.Equal(t, 3, c.Len())

	val, found := c.Get("a")
	require.True(t, found)
	assert.Equal(t, []byte("db-a"), val)
}

func TestCacheLRUEviction(t *testing.T) {
	c := New(Options{MaxSize: 3})

	c.Set("a", []byte("1"))
	c.Set("b", []byte("2"))
	c.Set("c", []byte("3"))

	c.Get("a") // a becomes most recently used

	c.Set("d", []byte("4")) // evicts b

	assert.Equal(t, 3, c.Len())

	_, found := c.Get("b")
	assert.False(t, found, "b should have been evicted")

	_, found = c.Get("a")
	assert.True(t, found)
	_, found = c.Get("d")
	assert.True(t, found)
}

func TestCacheInvalidate(t *testing.T) {
	c := New(Options{MaxSize: 10})
	c.Set("a", []byte("1"))
	c.Set("b", []byte("2"))

	c.Invalidate("a")

	assert.Equal(t, 1, c.Len())
	_, found := c.Get("a")
	assert.False(t, found)
}

func TestCacheClear(t *testing.T) {
	c := New(Options{MaxSize: 10})
	c.Set("a", []byte("1"))
	c.Set("b", []byte("2"))

	c.Clear()

	assert.Equal(t, 0, c.Len())
}

func TestCacheSaveLoad(t *testing.T) {
	c := New(Options{MaxSize: 10})
	c.Set("key1", []byte("db-one"))
	c.Set("key2", []byte("db-two"))

	var buf bytes.Buffer
	require.NoError(t, c.Save(&buf))

	c2 := New(Options{MaxSize: 10})
	require.NoError(t, c2.Load(&buf))

	assert.Equal(t, 2, c2.Len())
	val, found := c2.Get("key1")
	require.True(t, found)
	assert.Equal(t, []byte("db-one"), val)
}

func TestCacheSaveLoadFileRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "nested", "importdb.cache")

	c := New(Options{MaxSize: 10})
	c.Set("key1", []byte("db-one"))

	require.NoError(t, c.SaveToFile(path))

	c2 := New(Options{MaxSize: 10})
	require.NoError(t, c2.LoadFromFile(path))

	val, found := c2.Get("key1")
	require.True(t, found)
	assert.Equal(t, []byte("db-one"), val)
}

func TestCacheLoadFromFileMissingIsNotError(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "nonexistent.cache")

	c := New(Options{MaxSize: 10})
	require.NoError(t, c.LoadFromFile(path))
	assert.Equal(t, 0, c.Len())
}

func TestCacheGetOrLoadCachesResult(t *testing.T) {
	c := New(Options{MaxSize: 10})
	calls := 0
	load := func() ([]byte, error) {
		calls++
		return []byte("built"), nil
	}

	v1, err := c.GetOrLoad("k", load)
	require.NoError(t, err)
	assert.Equal(t, []byte("built"), v1)

	v2, err := c.GetOrLoad("k", load)
	require.NoError(t, err)
	assert.Equal(t, []byte("built"), v2)
	assert.Equal(t, 1, calls, "second call should hit the cache, not reload")
}

func TestCacheGetOrLoadPropagatesError(t *testing.T) {
	c := New(Options{MaxSize: 10})
	wantErr := errors.New("contributor file unreadable")

	_, err := c.GetOrLoad("k", func() ([]byte, error) {
		return nil, wantErr
	})
	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, 0, c.Len(), "a failed load must not populate the cache")
}

func TestCacheGetOrLoadCollapsesConcurrentMisses(t *testing.T) {
	c := New(Options{MaxSize: 10})

	var calls int
	var mu sync.Mutex
	started := make(chan struct{})
	release := make(chan struct{})

	load := func() ([]byte, error) {
		mu.Lock()
		calls++
		first := calls == 1
		mu.Unlock()
		if first {
			close(started)
			<-release
		}
		return []byte("built-once"), nil
	}

	var wg sync.WaitGroup
	results := make([][]byte, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.GetOrLoad("shared-key", load)
			require.NoError(t, err)
			results[i] = v
		}(i)
	}

	<-started
	close(release)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls, "concurrent misses for the same key should collapse into one load")
	for _, r := range results {
		assert.Equal(t, []byte("built-once"), r)
	}
}

func TestInstrumentedCacheStats(t *testing.T) {
	c := NewInstrumented(Options{MaxSize: 10})

	c.Set("key1", []byte("v"))
	c.Get("key1")
	c.Get("key2")

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.HitCount)
	assert.Equal(t, int64(1), stats.MissCount)
	assert.Equal(t, 1, stats.Length)
}
