package stardex

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/stardex-app/stardex/archive"
	"github.com/stardex-app/stardex/fetch"
	"github.com/stardex-app/stardex/internal/fs"
	"github.com/stardex-app/stardex/model"
	"github.com/stardex-app/stardex/sprite"
)

// ArchiveFileName is the archive file name inside the data directory.
const ArchiveFileName = "stardex.sdx"

// State is the lifecycle state of a Dex.
type State uint32

const (
	// StateUninitialized means no archive has been opened yet.
	StateUninitialized State = iota
	// StateBuilding means the first-run sync and archive build is running.
	StateBuilding
	// StateReady means the archive is mapped and queryable.
	StateReady
	// StateRenewing means a renew sync is running; the previous archive
	// stays queryable throughout.
	StateRenewing
	// StateFailed means the last build attempt failed with no valid
	// archive to fall back to.
	StateFailed
)

var stateNames = [...]string{
	StateUninitialized: "uninitialized",
	StateBuilding:      "building",
	StateReady:         "ready",
	StateRenewing:      "renewing",
	StateFailed:        "failed",
}

// String implements fmt.Stringer.
func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", uint32(s))
}

// Dex is the top-level facade: it owns the archive lifecycle, the mapped
// store, the upstream client and the sprite cache. All methods are safe
// for concurrent use. Queries stay available during a renew; record views
// handed out before a renew remain valid until Close, because retired
// mappings are kept open.
type Dex struct {
	dataDir     string
	archivePath string
	opts        Options

	fetcher *fetch.Fetcher
	client  *fetch.Client
	sprites *sprite.Cache

	state atomic.Uint32
	store atomic.Pointer[archive.Store]

	// buildMu serializes Building and Renewing; queries never take it.
	buildMu sync.Mutex

	// retired holds stores replaced by a renew. They stay mapped so views
	// created before the swap keep working, and are unmapped in Close.
	retiredMu sync.Mutex
	retired   []*archive.Store

	skipped atomic.Int64

	// spriteURLs is the URL mapping captured by the most recent sync in
	// this process. Ids absent here fall back to the URL template.
	urlMu      sync.Mutex
	spriteURLs map[model.SpeciesID]string

	closed atomic.Bool
}

// New creates a Dex rooted at dataDir. No I/O happens until OpenOrBuild.
func New(dataDir string, optFns ...func(*Options)) (*Dex, error) {
	opts := Options{
		Workers:           fetch.DefaultWorkers,
		SpriteWorkers:     sprite.DefaultWorkers,
		MaxSkipFraction:   0.1,
		FS:                fs.Default,
		SpriteURLTemplate: DefaultSpriteURLTemplate,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&opts)
		}
	}
	if opts.Logger == nil {
		opts.Logger = NoopLogger()
	}

	client := fetch.NewClient(opts.BaseURL, func(o *fetch.ClientOptions) {
		o.HTTPClient = opts.HTTPClient
		o.RequestsPerSecond = opts.RequestsPerSecond
	})
	fetcher := fetch.New(client, func(o *fetch.Options) {
		o.Workers = opts.Workers
		o.OnProgress = opts.OnProgress
		o.MaxSkipFraction = opts.MaxSkipFraction
		o.Logger = opts.Logger.Logger
	})
	sprites, err := sprite.NewCache(
		filepath.Join(dataDir, "sprites"),
		client.SpriteImage,
		func(o *sprite.Options) {
			o.FS = opts.FS
			o.Workers = opts.SpriteWorkers
			o.Logger = opts.Logger.Logger
		},
	)
	if err != nil {
		return nil, err
	}

	return &Dex{
		dataDir:     dataDir,
		archivePath: filepath.Join(dataDir, ArchiveFileName),
		opts:        opts,
		fetcher:     fetcher,
		client:      client,
		sprites:     sprites,
	}, nil
}

// DataDir returns the data directory the Dex was created with.
func (d *Dex) DataDir() string {
	return d.dataDir
}

// ArchivePath returns the archive file location.
func (d *Dex) ArchivePath() string {
	return d.archivePath
}

// State returns the current lifecycle state.
func (d *Dex) State() State {
	return State(d.state.Load())
}

func (d *Dex) setState(s State) {
	d.state.Store(uint32(s))
}

// Skipped returns the number of species skipped by the most recent sync
// in this process.
func (d *Dex) Skipped() int {
	return int(d.skipped.Load())
}

// OpenOrBuild opens the existing archive, or runs a full sync and builds
// one when the archive is missing or corrupt. It returns the resulting
// state; StateFailed comes with the causing error.
func (d *Dex) OpenOrBuild(ctx context.Context) (State, error) {
	d.buildMu.Lock()
	defer d.buildMu.Unlock()

	if d.store.Load() != nil {
		return StateReady, nil
	}

	s, err := archive.Open(d.archivePath)
	if err == nil {
		d.store.Store(s)
		d.setState(StateReady)
		d.opts.Logger.LogOpen(ctx, d.archivePath, s.Count(), nil)
		return StateReady, nil
	}
	if !errors.Is(err, archive.ErrMissing) && !errors.Is(err, archive.ErrCorrupt) {
		d.setState(StateFailed)
		return StateFailed, translateError(err)
	}
	d.opts.Logger.LogOpen(ctx, d.archivePath, 0, err)

	d.setState(StateBuilding)
	if err := d.sync(ctx); err != nil {
		d.setState(StateFailed)
		return StateFailed, translateError(err)
	}
	d.setState(StateReady)
	return StateReady, nil
}

// Renew re-fetches the full dataset and atomically replaces the archive.
// Queries keep answering from the previous archive until the new one is
// committed and mapped. A failed or canceled renew leaves the previous
// archive authoritative. Renew requires StateReady and rejects concurrent
// builds with ErrRenewInProgress.
func (d *Dex) Renew(ctx context.Context) error {
	if !d.buildMu.TryLock() {
		return ErrRenewInProgress
	}
	defer d.buildMu.Unlock()

	if d.store.Load() == nil {
		return ErrNotReady
	}

	d.setState(StateRenewing)
	if err := d.sync(ctx); err != nil {
		// The previous archive was never touched; stay ready on it.
		d.setState(StateReady)
		return translateError(err)
	}
	d.setState(StateReady)
	return nil
}

// sync runs one full fetch, commits the archive atomically and swaps the
// mapped store. Caller holds buildMu.
func (d *Dex) sync(ctx context.Context) error {
	result, err := d.fetcher.Fetch(ctx)
	d.opts.Logger.LogSync(ctx, lenRecords(result), skippedOf(result), err)
	if err != nil {
		return err
	}

	if err := archive.Write(d.opts.FS, d.archivePath, result.Records); err != nil {
		d.opts.Logger.LogBuild(ctx, d.archivePath, len(result.Records), err)
		return err
	}
	d.opts.Logger.LogBuild(ctx, d.archivePath, len(result.Records), nil)

	s, err := archive.Open(d.archivePath)
	if err != nil {
		return err
	}

	if old := d.store.Swap(s); old != nil {
		d.retiredMu.Lock()
		d.retired = append(d.retired, old)
		d.retiredMu.Unlock()
		d.opts.Logger.LogSwap(ctx, s.Count())
	}

	d.skipped.Store(int64(result.Skipped))
	d.urlMu.Lock()
	d.spriteURLs = result.SpriteURLs
	d.urlMu.Unlock()

	// The archive is committed, opened and swapped at this point. Sprite
	// downloads are best-effort, so a cancellation landing during
	// population must not fail the sync.
	if err := d.sprites.Populate(ctx, result.SpriteURLs); err != nil {
		d.opts.Logger.Logger.Warn("sprite population interrupted", "error", err)
	}
	return nil
}

func lenRecords(r *fetch.Result) int {
	if r == nil {
		return 0
	}
	return len(r.Records)
}

func skippedOf(r *fetch.Result) int {
	if r == nil {
		return 0
	}
	return r.Skipped
}

// current returns the mapped store or ErrNotReady.
func (d *Dex) current() (*archive.Store, error) {
	s := d.store.Load()
	if s == nil {
		return nil, ErrNotReady
	}
	return s, nil
}

// Count returns the number of records in the current archive.
func (d *Dex) Count() (int, error) {
	s, err := d.current()
	if err != nil {
		return 0, err
	}
	return s.Count(), nil
}

// TypeNames returns the type tags present in the current archive.
func (d *Dex) TypeNames() ([]string, error) {
	s, err := d.current()
	if err != nil {
		return nil, err
	}
	return s.TypeNames(), nil
}

// Get returns the record view for id.
func (d *Dex) Get(id model.SpeciesID) (archive.RecordView, error) {
	s, err := d.current()
	if err != nil {
		return archive.RecordView{}, err
	}
	v, err := s.Get(id)
	if err != nil {
		return archive.RecordView{}, translateError(err)
	}
	return v, nil
}

// All returns a lazy sequence over every record in stored order.
func (d *Dex) All() (iter.Seq[archive.RecordView], error) {
	s, err := d.current()
	if err != nil {
		return nil, err
	}
	return s.All(), nil
}

// Query answers a filtered query against the current archive. The
// returned sequence is bound to the store that was current at call time,
// so it stays consistent across a concurrent renew.
func (d *Dex) Query(q archive.Query) (iter.Seq[archive.RecordView], error) {
	s, err := d.current()
	if err != nil {
		return nil, err
	}
	return s.Find(q), nil
}

// Header returns the current archive header.
func (d *Dex) Header() (archive.Header, error) {
	s, err := d.current()
	if err != nil {
		return archive.Header{}, err
	}
	return s.Header(), nil
}

// SpritePath resolves the on-disk sprite path for id. When the sprite is
// not cached yet, a background download starts and pending is reported
// true; call again once it lands.
func (d *Dex) SpritePath(ctx context.Context, id model.SpeciesID) (path string, pending bool, err error) {
	return d.sprites.Ensure(ctx, id, d.spriteURL(id))
}

// RenewSprites re-downloads every sprite for the current archive,
// overwriting the cache. Independent of archive renewal.
func (d *Dex) RenewSprites(ctx context.Context) error {
	s, err := d.current()
	if err != nil {
		return err
	}
	urls := make(map[model.SpeciesID]string, s.Count())
	for v := range s.All() {
		id := v.ID()
		urls[id] = d.spriteURL(id)
	}
	return d.sprites.RenewAll(ctx, urls)
}

func (d *Dex) spriteURL(id model.SpeciesID) string {
	d.urlMu.Lock()
	url, ok := d.spriteURLs[id]
	d.urlMu.Unlock()
	if ok {
		return url
	}
	return fmt.Sprintf(d.opts.SpriteURLTemplate, id)
}

// Close unmaps the current store and every retired store. After Close all
// record views are invalid.
func (d *Dex) Close() error {
	if !d.closed.CompareAndSwap(false, true) {
		return nil
	}
	d.setState(StateUninitialized)

	var errs []error
	if s := d.store.Swap(nil); s != nil {
		errs = append(errs, s.Close())
	}
	d.retiredMu.Lock()
	retired := d.retired
	d.retired = nil
	d.retiredMu.Unlock()
	for _, s := range retired {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}
