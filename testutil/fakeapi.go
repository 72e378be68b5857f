package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/stardex-app/stardex/model"
)

// FakeAPI serves an upstream-compatible JSON API from an httptest server.
// Endpoints are registered as path -> body; failures can be injected per
// path to exercise retry and skip behavior.
type FakeAPI struct {
	server *httptest.Server

	mu       sync.Mutex
	bodies   map[string][]byte
	statuses map[string]int // permanent non-200 status per path
	failures map[string]int // remaining 500 responses per path
	requests map[string]int
	hooks    map[string]func()
	index    []model.SpeciesID
}

// NewFakeAPI starts the server. The caller must Close it.
func NewFakeAPI() *FakeAPI {
	a := &FakeAPI{
		bodies:   make(map[string][]byte),
		statuses: make(map[string]int),
		failures: make(map[string]int),
		requests: make(map[string]int),
		hooks:    make(map[string]func()),
	}
	a.server = httptest.NewServer(http.HandlerFunc(a.handle))
	return a
}

// URL returns the server base URL.
func (a *FakeAPI) URL() string {
	return a.server.URL
}

// Close shuts the server down.
func (a *FakeAPI) Close() {
	a.server.Close()
}

func (a *FakeAPI) handle(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	a.mu.Lock()
	a.requests[path]++
	hook := a.hooks[path]
	a.mu.Unlock()
	if hook != nil {
		hook()
	}

	a.mu.Lock()
	if n := a.failures[path]; n > 0 {
		a.failures[path] = n - 1
		a.mu.Unlock()
		http.Error(w, "injected failure", http.StatusInternalServerError)
		return
	}
	if status, ok := a.statuses[path]; ok {
		a.mu.Unlock()
		http.Error(w, "injected status", status)
		return
	}
	body, ok := a.bodies[path]
	a.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	_, _ = w.Write(body)
}

// Handle registers a response body for path.
func (a *FakeAPI) Handle(path string, body []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.bodies[path] = body
}

// HandleJSON registers a JSON response for path.
func (a *FakeAPI) HandleJSON(path string, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	a.Handle(path, body)
}

// OnRequest registers fn to run whenever path is requested, before the
// response is written.
func (a *FakeAPI) OnRequest(path string, fn func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.hooks[path] = fn
}

// FailTimes makes the next n requests to path return 500.
func (a *FakeAPI) FailTimes(path string, n int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failures[path] = n
}

// Status makes every request to path return the given status code.
func (a *FakeAPI) Status(path string, code int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.statuses[path] = code
}

// Requests returns how many requests path received.
func (a *FakeAPI) Requests(path string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.requests[path]
}

// AddSpecies registers the full endpoint set for one synthetic species:
// detail, species extras, encounters, evolution chain and sprite image.
// The species also joins the index served at /pokemon.
func (a *FakeAPI) AddSpecies(id model.SpeciesID) {
	name := SpeciesName(id)
	gen := model.Generation(1 + (uint32(id)-1)%9)

	a.HandleJSON("/pokemon/"+name, map[string]any{
		"id":     id,
		"name":   name,
		"height": 10,
		"weight": 100,
		"types": []map[string]any{
			{"slot": 1, "type": map[string]any{"name": "grass"}},
		},
		"abilities": []map[string]any{
			{"is_hidden": false, "ability": map[string]any{"name": "overgrow"}},
		},
		"stats": []map[string]any{
			{"base_stat": 45, "stat": map[string]any{"name": "hp"}},
			{"base_stat": 49, "stat": map[string]any{"name": "attack"}},
			{"base_stat": 49, "stat": map[string]any{"name": "defense"}},
			{"base_stat": 65, "stat": map[string]any{"name": "special-attack"}},
			{"base_stat": 65, "stat": map[string]any{"name": "special-defense"}},
			{"base_stat": 45, "stat": map[string]any{"name": "speed"}},
		},
		"sprites": map[string]any{
			"front_default": fmt.Sprintf("%s/sprites/%d.png", a.server.URL, id),
		},
	})

	a.HandleJSON(fmt.Sprintf("/pokemon-species/%d", id), map[string]any{
		"flavor_text_entries": []map[string]any{
			{
				"flavor_text": fmt.Sprintf("Flavor for %s.", name),
				"language":    map[string]any{"name": "en"},
			},
		},
		"generation": map[string]any{"name": gen.String()},
		"evolution_chain": map[string]any{
			"url": fmt.Sprintf("%s/evolution-chain/%d/", a.server.URL, id),
		},
	})

	a.HandleJSON(fmt.Sprintf("/pokemon/%d/encounters", id), []any{})

	a.HandleJSON(fmt.Sprintf("/evolution-chain/%d/", id), map[string]any{
		"chain": map[string]any{
			"species": map[string]any{
				"name": name,
				"url":  fmt.Sprintf("%s/pokemon-species/%d/", a.server.URL, id),
			},
			"evolves_to": []any{},
		},
	})

	a.Handle(fmt.Sprintf("/sprites/%d.png", id), []byte("fake png "+name))

	a.mu.Lock()
	a.index = append(a.index, id)
	a.mu.Unlock()
	a.refreshIndex()
}

// Populate registers species with ids 1..num.
func (a *FakeAPI) Populate(num int) {
	for i := 1; i <= num; i++ {
		a.AddSpecies(model.SpeciesID(i))
	}
}

func (a *FakeAPI) refreshIndex() {
	a.mu.Lock()
	ids := append([]model.SpeciesID(nil), a.index...)
	a.mu.Unlock()

	results := make([]map[string]any, len(ids))
	for i, id := range ids {
		results[i] = map[string]any{
			"name": SpeciesName(id),
			"url":  fmt.Sprintf("%s/pokemon-species/%d/", a.server.URL, id),
		}
	}
	a.HandleJSON("/pokemon", map[string]any{
		"count":   len(results),
		"results": results,
	})
}

// SpeciesName returns the synthetic species name used by AddSpecies.
func SpeciesName(id model.SpeciesID) string {
	return fmt.Sprintf("species-%d", id)
}

// ExpectedRecord returns the record AddSpecies data converts to.
func ExpectedRecord(id model.SpeciesID) model.SpeciesRecord {
	return model.SpeciesRecord{
		ID:           id,
		Name:         SpeciesName(id),
		Height:       10,
		Weight:       100,
		Types:        []string{"grass"},
		Abilities:    []string{"overgrow"},
		Stats:        model.Stats{HP: 45, Attack: 49, Defense: 49, SpAttack: 65, SpDefense: 65, Speed: 45},
		Generation:   model.Generation(1 + (uint32(id)-1)%9),
		FlavorText:   fmt.Sprintf("Flavor for %s.", SpeciesName(id)),
		EvolutionIDs: []model.SpeciesID{id},
	}
}
