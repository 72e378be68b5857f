package testutil

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/stardex-app/stardex/model"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Records generates num species records with ids 1..num, pseudo-random
// but reproducible content, covering every generation and a rotating
// subset of type tags. Records are returned in id order.
func (r *RNG) Records(num int) []model.SpeciesRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	types := model.TypeNames()
	records := make([]model.SpeciesRecord, num)
	for i := range records {
		id := model.SpeciesID(i + 1)

		recTypes := []string{types[i%len(types)]}
		if r.rand.Intn(2) == 0 {
			second := types[(i+1+r.rand.Intn(len(types)-1))%len(types)]
			if second != recTypes[0] {
				recTypes = append(recTypes, second)
			}
		}

		abilities := []string{fmt.Sprintf("Ability %d", r.rand.Intn(100))}
		if r.rand.Intn(3) == 0 {
			abilities = append(abilities, fmt.Sprintf("Ability %d (HIDDEN)", r.rand.Intn(100)))
		}

		var evo []model.SpeciesID
		if i > 0 && r.rand.Intn(2) == 0 {
			evo = []model.SpeciesID{model.SpeciesID(r.rand.Intn(i) + 1), id}
		}

		var encs []model.Encounter
		numEncs := r.rand.Intn(3)
		for e := 0; e < numEncs; e++ {
			encs = append(encs, model.Encounter{
				Area:    fmt.Sprintf("Area %d", r.rand.Intn(50)),
				Methods: []string{fmt.Sprintf("Game %d: Walk", r.rand.Intn(10))},
			})
		}

		records[i] = model.SpeciesRecord{
			ID:         id,
			Name:       fmt.Sprintf("species-%04d", id),
			Height:     int32(r.rand.Intn(200) + 1),
			Weight:     int32(r.rand.Intn(10000) + 1),
			Types:      recTypes,
			Abilities:  abilities,
			Stats:      r.statsLocked(),
			Generation: model.Generation(i % model.NumGenerations),
			FlavorText: fmt.Sprintf("Flavor text for species %d.", id),

			EvolutionIDs: evo,
			Encounters:   encs,
		}
	}
	return records
}

// Stats generates one pseudo-random stat block.
func (r *RNG) Stats() model.Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.statsLocked()
}

func (r *RNG) statsLocked() model.Stats {
	roll := func() int32 { return int32(r.rand.Intn(200) + 1) }
	return model.Stats{
		HP:        roll(),
		Attack:    roll(),
		Defense:   roll(),
		SpAttack:  roll(),
		SpDefense: roll(),
		Speed:     roll(),
	}
}

// Record returns a single fully populated record with fixed content,
// convenient for exact-value assertions.
func Record(id model.SpeciesID) model.SpeciesRecord {
	return model.SpeciesRecord{
		ID:         id,
		Name:       fmt.Sprintf("species-%04d", id),
		Height:     7,
		Weight:     69,
		Types:      []string{"grass", "poison"},
		Abilities:  []string{"Overgrow", "Chlorophyll (HIDDEN)"},
		Stats:      model.Stats{HP: 45, Attack: 49, Defense: 49, SpAttack: 65, SpDefense: 65, Speed: 45},
		Generation: model.GenerationOne,
		FlavorText: "A strange seed was planted on its back at birth.",

		EvolutionIDs: []model.SpeciesID{id, id + 1, id + 2},
		Encounters: []model.Encounter{
			{Area: "Pallet Area", Methods: []string{"Red: Gift", "Blue: Gift"}},
		},
	}
}
