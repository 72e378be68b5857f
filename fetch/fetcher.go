package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/stardex-app/stardex/model"
)

// DefaultWorkers bounds the per-species detail fetches running at once.
const DefaultWorkers = 30

// ErrTooManyFailures is returned when the skipped fraction of a sync
// exceeds the configured threshold.
var ErrTooManyFailures = errors.New("too many fetch failures")

// Progress is a coarse progress report: fraction of species completed
// within the current stage.
type Progress struct {
	Stage string
	Done  int
	Total int
}

// Result is the outcome of one full sync.
type Result struct {
	// Records holds every successfully fetched species, id-ascending.
	Records []model.SpeciesRecord

	// SpriteURLs maps species ids to their sprite image URL. Species
	// without a sprite are absent.
	SpriteURLs map[model.SpeciesID]string

	// Skipped counts species dropped after exhausting their retry budget.
	Skipped int
}

// Options configures a Fetcher.
type Options struct {
	// Workers is the bounded worker pool size. Defaults to DefaultWorkers.
	Workers int64

	// OnProgress, if set, receives coarse progress updates. Calls are
	// serialized.
	OnProgress func(Progress)

	// MaxSkipFraction is the tolerated fraction of skipped species before
	// the sync fails as a whole. Defaults to 0.1.
	MaxSkipFraction float64

	// Logger receives per-species failure logs. Defaults to a discard
	// logger.
	Logger *slog.Logger
}

// Fetcher produces the ordered record sequence and the sprite URL mapping
// for one sync.
type Fetcher struct {
	client *Client
	opts   Options

	progressMu sync.Mutex
}

// New creates a Fetcher on top of client.
func New(client *Client, optFns ...func(*Options)) *Fetcher {
	opts := Options{
		Workers:         DefaultWorkers,
		MaxSkipFraction: 0.1,
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
	return &Fetcher{client: client, opts: opts}
}

// Fetch runs a full sync: species index first, then per-species detail
// through the worker pool. Individual failures are retried by the client,
// then skipped; only cancellation or a skip fraction above the threshold
// fails the sync.
func (f *Fetcher) Fetch(ctx context.Context) (*Result, error) {
	entries, err := f.client.ListSpecies(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch: species index: %w", err)
	}
	f.report(Progress{Stage: "index", Done: len(entries), Total: len(entries)})

	records := make([]*model.SpeciesRecord, len(entries))
	spriteURLs := make(map[model.SpeciesID]string, len(entries))

	var (
		mu   sync.Mutex // guards spriteURLs
		done atomic.Int64
	)

	sem := semaphore.NewWeighted(f.opts.Workers)
	g, gctx := errgroup.WithContext(ctx)

	for i, entry := range entries {
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			defer func() {
				f.report(Progress{
					Stage: "details",
					Done:  int(done.Add(1)),
					Total: len(entries),
				})
			}()

			rec, spriteURL, err := f.fetchOne(gctx, entry.Name)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				f.opts.Logger.Warn("skipping species", "name", entry.Name, "error", err)
				return nil
			}
			records[i] = rec
			if spriteURL != "" {
				mu.Lock()
				spriteURLs[rec.ID] = spriteURL
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &Result{SpriteURLs: spriteURLs}
	for _, rec := range records {
		if rec != nil {
			result.Records = append(result.Records, *rec)
		}
	}
	result.Skipped = len(entries) - len(result.Records)

	if len(entries) > 0 {
		frac := float64(result.Skipped) / float64(len(entries))
		if frac > f.opts.MaxSkipFraction {
			return nil, fmt.Errorf("%w: %d of %d species", ErrTooManyFailures, result.Skipped, len(entries))
		}
	}

	// Stored order is upstream id order.
	sort.Slice(result.Records, func(a, b int) bool {
		return result.Records[a].ID < result.Records[b].ID
	})

	return result, nil
}

// fetchOne assembles one species record. Detail failure skips the record;
// species extras and encounters degrade to their empty defaults instead.
func (f *Fetcher) fetchOne(ctx context.Context, name string) (*model.SpeciesRecord, string, error) {
	p, err := f.client.Pokemon(ctx, name)
	if err != nil {
		return nil, "", err
	}

	sp, err := f.client.Species(ctx, p.ID)
	if err != nil {
		f.opts.Logger.Debug("species extras unavailable", "name", name, "error", err)
		sp = nil
	}

	var evo []uint32
	if sp != nil && sp.EvolutionChain.URL != "" {
		evo, err = f.client.EvolutionChain(ctx, sp.EvolutionChain.URL)
		if err != nil {
			f.opts.Logger.Debug("evolution chain unavailable", "name", name, "error", err)
			evo = nil
		}
	}

	encs, err := f.client.Encounters(ctx, p.ID)
	if err != nil {
		f.opts.Logger.Debug("encounters unavailable", "name", name, "error", err)
		encs = nil
	}

	rec := convertRecord(p, sp, encs, evo)
	return &rec, p.Sprites.FrontDefault, nil
}

func (f *Fetcher) report(p Progress) {
	if f.opts.OnProgress == nil {
		return
	}
	f.progressMu.Lock()
	defer f.progressMu.Unlock()
	f.opts.OnProgress(p)
}
