package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerationString(t *testing.T) {
	tests := []struct {
		g        Generation
		expected string
	}{
		{GenerationUnknown, "unknown"},
		{GenerationOne, "generation-i"},
		{GenerationFive, "generation-v"},
		{GenerationNine, "generation-ix"},
		{Generation(42), "generation(42)"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.g.String())
	}
}

func TestParseGeneration(t *testing.T) {
	tests := []struct {
		name     string
		expected Generation
	}{
		{"generation-i", GenerationOne},
		{"GENERATION-IX", GenerationNine},
		{"unknown", GenerationUnknown},
		{"generation-x", GenerationUnknown},
		{"", GenerationUnknown},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ParseGeneration(tt.name))
	}
}

func TestLookupGeneration(t *testing.T) {
	tests := []struct {
		name     string
		expected Generation
		ok       bool
	}{
		{"generation-i", GenerationOne, true},
		{"unknown", GenerationUnknown, true},
		{"generation-x", GenerationUnknown, false},
		{"", GenerationUnknown, false},
	}

	for _, tt := range tests {
		g, ok := LookupGeneration(tt.name)
		assert.Equal(t, tt.expected, g, tt.name)
		assert.Equal(t, tt.ok, ok, tt.name)
	}
}

func TestGenerationRoundTrip(t *testing.T) {
	for g := GenerationUnknown; g < NumGenerations; g++ {
		assert.Equal(t, g, ParseGeneration(g.String()))
	}
}

func TestStatsTotal(t *testing.T) {
	s := Stats{HP: 45, Attack: 49, Defense: 49, SpAttack: 65, SpDefense: 65, Speed: 45}
	assert.Equal(t, int32(318), s.Total())
	assert.Equal(t, int32(0), Stats{}.Total())
}

func TestStatsAtLeast(t *testing.T) {
	s := Stats{HP: 80, Attack: 82, Defense: 83, SpAttack: 100, SpDefense: 100, Speed: 80}

	tests := []struct {
		name     string
		min      Stats
		expected bool
	}{
		{"ZeroMinimums", Stats{}, true},
		{"AllMet", Stats{HP: 80, Speed: 80}, true},
		{"OneBelow", Stats{HP: 81}, false},
		{"Exact", s, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, s.AtLeast(tt.min))
		})
	}
}

func TestTypeNames(t *testing.T) {
	names := TypeNames()
	assert.Len(t, names, 18)

	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		_, dup := seen[n]
		assert.False(t, dup, "duplicate type tag %q", n)
		seen[n] = struct{}{}
	}
}
