package fetch

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stardex-app/stardex/model"
)

func mustDecode[T any](t *testing.T, data string) *T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal([]byte(data), &out))
	return &out
}

const bulbasaurJSON = `{
	"id": 1, "name": "bulbasaur", "height": 7, "weight": 69,
	"types": [
		{"slot": 1, "type": {"name": "grass"}},
		{"slot": 2, "type": {"name": "poison"}}
	],
	"abilities": [
		{"is_hidden": false, "ability": {"name": "overgrow"}},
		{"is_hidden": true, "ability": {"name": "chlorophyll"}}
	],
	"stats": [
		{"base_stat": 45, "stat": {"name": "hp"}},
		{"base_stat": 49, "stat": {"name": "attack"}},
		{"base_stat": 49, "stat": {"name": "defense"}},
		{"base_stat": 65, "stat": {"name": "special-attack"}},
		{"base_stat": 65, "stat": {"name": "special-defense"}},
		{"base_stat": 45, "stat": {"name": "speed"}},
		{"base_stat": 999, "stat": {"name": "bogus-stat"}}
	],
	"sprites": {"front_default": "https://sprites.example/1.png"}
}`

const bulbasaurSpeciesJSON = `{
	"flavor_text_entries": [
		{"flavor_text": "Ein seltsamer Samen.", "language": {"name": "de"}},
		{"flavor_text": "A strange seed was\nplanted on its back\fat birth.", "language": {"name": "en"}}
	],
	"generation": {"name": "generation-i"},
	"evolution_chain": {"url": "https://pokeapi.co/api/v2/evolution-chain/1/"}
}`

func TestCapitalize(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"kanto-route-2", "Kanto Route 2"},
		{"walk", "Walk"},
		{"red", "Red"},
		{"", ""},
		{"a--b", "A  B"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, capitalize(tt.in))
	}
}

func TestConvertRecord(t *testing.T) {
	p := mustDecode[wirePokemon](t, bulbasaurJSON)
	sp := mustDecode[wireSpecies](t, bulbasaurSpeciesJSON)

	rec := convertRecord(p, sp, nil, []uint32{1, 2, 3})

	assert.Equal(t, model.SpeciesID(1), rec.ID)
	assert.Equal(t, "bulbasaur", rec.Name)
	assert.Equal(t, int32(7), rec.Height)
	assert.Equal(t, int32(69), rec.Weight)
	assert.Equal(t, []string{"grass", "poison"}, rec.Types)
	assert.Equal(t, []string{"overgrow", "chlorophyll (HIDDEN)"}, rec.Abilities)
	assert.Equal(t, model.Stats{HP: 45, Attack: 49, Defense: 49, SpAttack: 65, SpDefense: 65, Speed: 45}, rec.Stats)
	assert.Equal(t, model.GenerationOne, rec.Generation)
	assert.Equal(t, "A strange seed was planted on its back at birth.", rec.FlavorText)
	assert.Equal(t, []model.SpeciesID{1, 2, 3}, rec.EvolutionIDs)
	assert.Empty(t, rec.Encounters)
}

func TestConvertRecordMissingExtras(t *testing.T) {
	p := &wirePokemon{ID: 132, Name: "ditto"}

	rec := convertRecord(p, nil, nil, nil)

	assert.Equal(t, model.GenerationUnknown, rec.Generation)
	assert.Empty(t, rec.FlavorText)
	assert.Empty(t, rec.EvolutionIDs)
}

func TestConvertEncounter(t *testing.T) {
	enc := mustDecode[wireEncounter](t, `{
		"location_area": {"name": "kanto-route-2-south-towards-viridian-city"},
		"version_details": [
			{
				"version": {"name": "red"},
				"encounter_details": [
					{"method": {"name": "walk"}},
					{"method": {"name": "walk"}},
					{"method": {"name": "old-rod"}}
				]
			},
			{
				"version": {"name": "blue"},
				"encounter_details": [{"method": {"name": "walk"}}]
			}
		]
	}`)

	got := convertEncounter(enc)

	assert.Equal(t, "Kanto Route 2 South Towards Viridian City", got.Area)
	assert.Equal(t, []string{"Red: Walk, Old Rod", "Blue: Walk"}, got.Methods)
}

func TestEnglishFlavorTextAbsent(t *testing.T) {
	sp := mustDecode[wireSpecies](t, `{
		"flavor_text_entries": [
			{"flavor_text": "Texte.", "language": {"name": "fr"}}
		]
	}`)

	assert.Empty(t, englishFlavorText(sp))
}

func TestIDFromURL(t *testing.T) {
	tests := []struct {
		url      string
		expected uint32
		ok       bool
	}{
		{"https://pokeapi.co/api/v2/pokemon-species/3/", 3, true},
		{"https://pokeapi.co/api/v2/pokemon-species/151", 151, true},
		{"https://pokeapi.co/api/v2/pokemon-species/x/", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		id, ok := idFromURL(tt.url)
		assert.Equal(t, tt.ok, ok, tt.url)
		assert.Equal(t, tt.expected, id, tt.url)
	}
}
