package sprite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/stardex-app/stardex/internal/fs"
	"github.com/stardex-app/stardex/model"
)

// DefaultWorkers bounds concurrent sprite downloads.
const DefaultWorkers = 20

// ErrNoSprite is returned when a species has no sprite upstream.
var ErrNoSprite = errors.New("no sprite available")

// Downloader fetches raw image bytes for a sprite URL.
type Downloader func(ctx context.Context, url string) ([]byte, error)

// Options configures a Cache.
type Options struct {
	// FS is the file system used for writes. Defaults to the local one.
	FS fs.FileSystem

	// Workers bounds concurrent downloads. Defaults to DefaultWorkers.
	Workers int64

	// Logger receives per-sprite failure logs. Defaults to a discard
	// logger.
	Logger *slog.Logger
}

// Cache is the on-disk sprite store. All methods are safe for concurrent
// use.
type Cache struct {
	dir      string
	fsys     fs.FileSystem
	download Downloader
	sem      *semaphore.Weighted
	logger   *slog.Logger

	mu       sync.Mutex
	inflight map[model.SpeciesID]struct{}
}

// NewCache creates the cache rooted at dir, creating it if needed.
func NewCache(dir string, download Downloader, optFns ...func(*Options)) (*Cache, error) {
	opts := Options{
		FS:      fs.Default,
		Workers: DefaultWorkers,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&opts)
		}
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	if err := opts.FS.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("sprite: create cache dir: %w", err)
	}

	return &Cache{
		dir:      dir,
		fsys:     opts.FS,
		download: download,
		sem:      semaphore.NewWeighted(opts.Workers),
		logger:   opts.Logger,
		inflight: make(map[model.SpeciesID]struct{}),
	}, nil
}

// Path returns the deterministic file path for id, whether or not the
// file exists yet.
func (c *Cache) Path(id model.SpeciesID) string {
	return filepath.Join(c.dir, fmt.Sprintf("%d.png", id))
}

// Has reports whether the sprite for id is already on disk.
func (c *Cache) Has(id model.SpeciesID) bool {
	_, err := c.fsys.Stat(c.Path(id))
	return err == nil
}

// Ensure returns the sprite path if present. Otherwise, when url is
// non-empty and a downloader is configured, it starts an asynchronous
// fetch-and-write and reports pending=true; the caller can poll Has or
// call Ensure again later.
func (c *Cache) Ensure(ctx context.Context, id model.SpeciesID, url string) (path string, pending bool, err error) {
	if c.Has(id) {
		return c.Path(id), false, nil
	}
	if url == "" || c.download == nil {
		return "", false, ErrNoSprite
	}

	c.mu.Lock()
	if _, running := c.inflight[id]; !running {
		c.inflight[id] = struct{}{}
		go func() {
			defer func() {
				c.mu.Lock()
				delete(c.inflight, id)
				c.mu.Unlock()
			}()
			// The same worker pool bounds background fetches and bulk
			// population.
			if err := c.sem.Acquire(ctx, 1); err != nil {
				return
			}
			defer c.sem.Release(1)
			if err := c.fetchOne(ctx, id, url); err != nil {
				c.logger.Warn("sprite download failed", "id", id, "error", err)
			}
		}()
	}
	c.mu.Unlock()

	return "", true, nil
}

// Populate downloads every missing sprite in urls with bounded
// concurrency. Individual failures are logged and skipped; Populate only
// fails on cancellation.
func (c *Cache) Populate(ctx context.Context, urls map[model.SpeciesID]string) error {
	return c.downloadAll(ctx, urls, false)
}

// RenewAll re-downloads every sprite in urls unconditionally, overwriting
// existing files. Used for repair flows, independent of archive renewal.
func (c *Cache) RenewAll(ctx context.Context, urls map[model.SpeciesID]string) error {
	return c.downloadAll(ctx, urls, true)
}

func (c *Cache) downloadAll(ctx context.Context, urls map[model.SpeciesID]string, force bool) error {
	if c.download == nil {
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	for id, url := range urls {
		if !force && c.Has(id) {
			continue
		}
		if err := c.sem.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer c.sem.Release(1)
			if err := c.fetchOne(gctx, id, url); err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				c.logger.Warn("sprite download failed", "id", id, "error", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("sprite: populate: %w", err)
	}
	return ctx.Err()
}

// fetchOne downloads one sprite and commits it atomically: temp file in
// the cache dir, then rename over the final path.
func (c *Cache) fetchOne(ctx context.Context, id model.SpeciesID, url string) error {
	data, err := c.download(ctx, url)
	if err != nil {
		return err
	}

	tmp, err := c.fsys.CreateTemp(c.dir, fmt.Sprintf("%d.png.tmp-*", id))
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = c.fsys.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return c.fsys.Rename(tmpName, c.Path(id))
}
