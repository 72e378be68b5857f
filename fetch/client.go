package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultBaseURL is the canonical upstream API endpoint.
const DefaultBaseURL = "https://pokeapi.co/api/v2"

// indexPageLimit is large enough to fetch the whole species index in one
// request.
const indexPageLimit = 20000

// ErrStatus is returned for non-retryable HTTP status codes.
var ErrStatus = errors.New("unexpected status")

// ClientOptions configures the upstream client.
type ClientOptions struct {
	// HTTPClient is the underlying HTTP client. Defaults to a client with
	// a 30s request timeout.
	HTTPClient *http.Client

	// RequestsPerSecond caps the request rate across all workers.
	// <= 0 disables rate limiting.
	RequestsPerSecond float64

	// MaxAttempts is the per-request attempt budget, first try included.
	MaxAttempts int

	// RetryBackoff is the initial backoff between attempts; it doubles
	// after every failure.
	RetryBackoff time.Duration
}

// Client is a minimal upstream REST client. It is safe for concurrent use.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	limiter     *rate.Limiter
	maxAttempts int
	backoff     time.Duration

	// Evolution chains are shared between species; memoize them so one
	// sync fetches each chain once.
	chainMu sync.Mutex
	chains  map[string][]uint32
}

// NewClient creates a client for the API rooted at baseURL.
// An empty baseURL selects DefaultBaseURL.
func NewClient(baseURL string, optFns ...func(*ClientOptions)) *Client {
	opts := ClientOptions{
		MaxAttempts:  3,
		RetryBackoff: 500 * time.Millisecond,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&opts)
		}
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}

	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  opts.HTTPClient,
		maxAttempts: max(1, opts.MaxAttempts),
		backoff:     opts.RetryBackoff,
		chains:      make(map[string][]uint32),
	}
	if opts.RequestsPerSecond > 0 {
		burst := int(opts.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}
	return c
}

// get performs one rate-limited, retried GET and returns the body.
// Transient failures (network errors, 5xx, 429) are retried with
// exponential backoff up to the attempt budget.
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	backoff := c.backoff

	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		body, retryable, err := c.getOnce(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
	}

	return nil, fmt.Errorf("fetch: %s: %w", url, lastErr)
}

func (c *Client) getOnce(ctx context.Context, url string) (body []byte, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("%w: %s", ErrStatus, resp.Status)
	default:
		return nil, false, fmt.Errorf("%w: %s", ErrStatus, resp.Status)
	}

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, err
	}
	return body, false, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	body, err := c.get(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("fetch: decode %s: %w", url, err)
	}
	return nil
}

// ListSpecies fetches the canonical species index: id-ordered names that
// determine total record count and fetch order.
func (c *Client) ListSpecies(ctx context.Context) ([]IndexEntry, error) {
	var idx indexResponse
	url := fmt.Sprintf("%s/pokemon?limit=%d&offset=0", c.baseURL, indexPageLimit)
	if err := c.getJSON(ctx, url, &idx); err != nil {
		return nil, err
	}
	return idx.Results, nil
}

// Pokemon fetches per-species detail by name.
func (c *Client) Pokemon(ctx context.Context, name string) (*wirePokemon, error) {
	var p wirePokemon
	if err := c.getJSON(ctx, c.baseURL+"/pokemon/"+name, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Species fetches flavor text, generation and the evolution chain link.
func (c *Client) Species(ctx context.Context, id uint32) (*wireSpecies, error) {
	var s wireSpecies
	url := fmt.Sprintf("%s/pokemon-species/%d", c.baseURL, id)
	if err := c.getJSON(ctx, url, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Encounters fetches the encounter areas for a species.
func (c *Client) Encounters(ctx context.Context, id uint32) ([]wireEncounter, error) {
	var encs []wireEncounter
	url := fmt.Sprintf("%s/pokemon/%d/encounters", c.baseURL, id)
	if err := c.getJSON(ctx, url, &encs); err != nil {
		return nil, err
	}
	return encs, nil
}

// EvolutionChain resolves a chain URL into the ordered species ids of the
// chain. Results are memoized for the lifetime of the client.
func (c *Client) EvolutionChain(ctx context.Context, url string) ([]uint32, error) {
	c.chainMu.Lock()
	ids, ok := c.chains[url]
	c.chainMu.Unlock()
	if ok {
		return ids, nil
	}

	var chain wireEvolutionChain
	if err := c.getJSON(ctx, url, &chain); err != nil {
		return nil, err
	}
	ids = flattenChain(&chain.Chain, nil)

	c.chainMu.Lock()
	c.chains[url] = ids
	c.chainMu.Unlock()
	return ids, nil
}

// SpriteImage downloads raw sprite bytes.
func (c *Client) SpriteImage(ctx context.Context, url string) ([]byte, error) {
	return c.get(ctx, url)
}

// flattenChain walks the evolution tree depth-first, collecting species
// ids in chain order.
func flattenChain(link *chainLink, ids []uint32) []uint32 {
	if id, ok := idFromURL(link.Species.URL); ok {
		ids = append(ids, id)
	}
	for i := range link.EvolvesTo {
		ids = flattenChain(&link.EvolvesTo[i], ids)
	}
	return ids
}

// idFromURL extracts the trailing numeric id of a resource URL
// (".../pokemon-species/3/" -> 3).
func idFromURL(url string) (uint32, bool) {
	url = strings.TrimRight(url, "/")
	i := strings.LastIndexByte(url, '/')
	if i < 0 {
		return 0, false
	}
	n, err := strconv.ParseUint(url[i+1:], 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(n), true
}
