package sprite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stardex-app/stardex/model"
)

// memDownloader serves deterministic bytes per URL and counts calls.
type memDownloader struct {
	mu    sync.Mutex
	calls map[string]int
	fail  map[string]error
}

func newMemDownloader() *memDownloader {
	return &memDownloader{
		calls: make(map[string]int),
		fail:  make(map[string]error),
	}
}

func (d *memDownloader) download(_ context.Context, url string) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls[url]++
	if err := d.fail[url]; err != nil {
		return nil, err
	}
	return []byte("image:" + url), nil
}

func (d *memDownloader) count(url string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls[url]
}

func newTestCache(t *testing.T, d *memDownloader) *Cache {
	t.Helper()
	c, err := NewCache(filepath.Join(t.TempDir(), "sprites"), d.download)
	require.NoError(t, err)
	return c
}

func urlFor(id model.SpeciesID) string {
	return fmt.Sprintf("https://img.example/%d.png", id)
}

func urls(ids ...model.SpeciesID) map[model.SpeciesID]string {
	out := make(map[model.SpeciesID]string, len(ids))
	for _, id := range ids {
		out[id] = urlFor(id)
	}
	return out
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not reached in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestCachePathDeterministic(t *testing.T) {
	c := newTestCache(t, newMemDownloader())

	assert.Equal(t, c.Path(25), c.Path(25))
	assert.NotEqual(t, c.Path(25), c.Path(26))
	assert.Equal(t, "25.png", filepath.Base(c.Path(25)))
}

func TestCachePopulate(t *testing.T) {
	d := newMemDownloader()
	c := newTestCache(t, d)

	require.NoError(t, c.Populate(context.Background(), urls(1, 2, 3)))

	for _, id := range []model.SpeciesID{1, 2, 3} {
		assert.True(t, c.Has(id))
		data, err := os.ReadFile(c.Path(id))
		require.NoError(t, err)
		assert.Equal(t, "image:"+urlFor(id), string(data))
	}
}

func TestCachePopulateSkipsExisting(t *testing.T) {
	d := newMemDownloader()
	c := newTestCache(t, d)

	require.NoError(t, c.Populate(context.Background(), urls(1)))
	require.NoError(t, c.Populate(context.Background(), urls(1)))

	assert.Equal(t, 1, d.count(urlFor(1)))
}

func TestCachePopulateToleratesFailures(t *testing.T) {
	d := newMemDownloader()
	d.fail[urlFor(2)] = errors.New("boom")
	c := newTestCache(t, d)

	require.NoError(t, c.Populate(context.Background(), urls(1, 2, 3)))

	assert.True(t, c.Has(1))
	assert.False(t, c.Has(2))
	assert.True(t, c.Has(3))
}

func TestCacheRenewAllOverwrites(t *testing.T) {
	d := newMemDownloader()
	c := newTestCache(t, d)

	require.NoError(t, c.Populate(context.Background(), urls(1)))
	require.NoError(t, c.RenewAll(context.Background(), urls(1)))

	assert.Equal(t, 2, d.count(urlFor(1)))
}

func TestCacheEnsure(t *testing.T) {
	d := newMemDownloader()
	c := newTestCache(t, d)

	path, pending, err := c.Ensure(context.Background(), 7, urlFor(7))
	require.NoError(t, err)
	assert.True(t, pending)
	assert.Empty(t, path)

	waitFor(t, func() bool { return c.Has(7) })

	path, pending, err = c.Ensure(context.Background(), 7, urlFor(7))
	require.NoError(t, err)
	assert.False(t, pending)
	assert.Equal(t, c.Path(7), path)
	assert.Equal(t, 1, d.count(urlFor(7)))
}

func TestCacheEnsureNoURL(t *testing.T) {
	c := newTestCache(t, newMemDownloader())

	_, _, err := c.Ensure(context.Background(), 9, "")
	assert.ErrorIs(t, err, ErrNoSprite)
}

func TestCacheEnsureDedupesInflight(t *testing.T) {
	var inFlight atomic.Int32
	release := make(chan struct{})
	slow := func(_ context.Context, url string) ([]byte, error) {
		inFlight.Add(1)
		<-release
		return []byte("x"), nil
	}

	c, err := NewCache(filepath.Join(t.TempDir(), "sprites"), slow)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		_, pending, err := c.Ensure(context.Background(), 3, urlFor(3))
		require.NoError(t, err)
		assert.True(t, pending)
	}

	waitFor(t, func() bool { return inFlight.Load() == 1 })
	close(release)
	waitFor(t, func() bool { return c.Has(3) })
	assert.Equal(t, int32(1), inFlight.Load())
}

func TestCacheEnsureBoundsConcurrency(t *testing.T) {
	var inFlight, peak, done atomic.Int32
	slow := func(_ context.Context, url string) ([]byte, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		inFlight.Add(-1)
		done.Add(1)
		return []byte("x"), nil
	}

	c, err := NewCache(filepath.Join(t.TempDir(), "sprites"), slow, func(o *Options) {
		o.Workers = 2
	})
	require.NoError(t, err)

	for id := model.SpeciesID(1); id <= 50; id++ {
		_, pending, err := c.Ensure(context.Background(), id, urlFor(id))
		require.NoError(t, err)
		assert.True(t, pending)
	}

	waitFor(t, func() bool { return done.Load() == 50 })
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestCachePopulateCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := newTestCache(t, newMemDownloader())
	err := c.Populate(ctx, urls(1, 2, 3))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCacheAtomicWrite(t *testing.T) {
	d := newMemDownloader()
	c := newTestCache(t, d)

	require.NoError(t, c.Populate(context.Background(), urls(1)))

	entries, err := os.ReadDir(filepath.Dir(c.Path(1)))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "1.png", entries[0].Name())
}
