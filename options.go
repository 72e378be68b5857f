package stardex

import (
	"log/slog"
	"net/http"

	"github.com/stardex-app/stardex/fetch"
	"github.com/stardex-app/stardex/internal/fs"
)

// DefaultSpriteURLTemplate is the fallback sprite location, used when a
// sprite URL was not captured by a sync in this process (for example after
// reopening an existing archive). The verb receives the species id.
const DefaultSpriteURLTemplate = "https://raw.githubusercontent.com/PokeAPI/sprites/master/sprites/pokemon/%d.png"

// Options configures a Dex.
type Options struct {
	// Logger receives structured lifecycle and failure logs. Defaults to a
	// discard logger.
	Logger *Logger

	// BaseURL is the upstream API root. Defaults to fetch.DefaultBaseURL.
	BaseURL string

	// HTTPClient is the client used for all upstream requests.
	HTTPClient *http.Client

	// RequestsPerSecond caps the upstream request rate across all workers.
	// <= 0 disables rate limiting.
	RequestsPerSecond float64

	// Workers bounds concurrent per-species detail fetches during a sync.
	// Defaults to fetch.DefaultWorkers.
	Workers int64

	// SpriteWorkers bounds concurrent sprite downloads. Defaults to
	// sprite.DefaultWorkers.
	SpriteWorkers int64

	// MaxSkipFraction is the tolerated fraction of skipped species before a
	// sync fails as a whole. Defaults to 0.1.
	MaxSkipFraction float64

	// OnProgress, if set, receives coarse sync progress updates.
	OnProgress func(fetch.Progress)

	// FS is the file system used for archive and sprite writes. Defaults
	// to the local one.
	FS fs.FileSystem

	// SpriteURLTemplate overrides DefaultSpriteURLTemplate.
	SpriteURLTemplate string
}

// WithLogger sets the logger.
func WithLogger(logger *Logger) func(*Options) {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithLogLevel installs a text logger to stderr at the given level.
func WithLogLevel(level slog.Level) func(*Options) {
	return func(o *Options) {
		o.Logger = NewTextLogger(level)
	}
}

// WithBaseURL sets the upstream API root.
func WithBaseURL(baseURL string) func(*Options) {
	return func(o *Options) {
		o.BaseURL = baseURL
	}
}

// WithHTTPClient sets the HTTP client used for upstream requests.
func WithHTTPClient(client *http.Client) func(*Options) {
	return func(o *Options) {
		o.HTTPClient = client
	}
}

// WithRateLimit caps the upstream request rate.
func WithRateLimit(requestsPerSecond float64) func(*Options) {
	return func(o *Options) {
		o.RequestsPerSecond = requestsPerSecond
	}
}

// WithWorkers bounds concurrent detail fetches during a sync.
func WithWorkers(workers int64) func(*Options) {
	return func(o *Options) {
		o.Workers = workers
	}
}

// WithSpriteWorkers bounds concurrent sprite downloads.
func WithSpriteWorkers(workers int64) func(*Options) {
	return func(o *Options) {
		o.SpriteWorkers = workers
	}
}

// WithProgress registers a sync progress callback.
func WithProgress(fn func(fetch.Progress)) func(*Options) {
	return func(o *Options) {
		o.OnProgress = fn
	}
}

// WithFileSystem sets the file system used for writes. Intended for
// fault-injection tests.
func WithFileSystem(fsys fs.FileSystem) func(*Options) {
	return func(o *Options) {
		o.FS = fsys
	}
}

// WithSpriteURLTemplate overrides the fallback sprite URL template.
func WithSpriteURLTemplate(template string) func(*Options) {
	return func(o *Options) {
		o.SpriteURLTemplate = template
	}
}
