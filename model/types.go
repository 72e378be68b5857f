package model

import (
	"fmt"
	"strings"
)

// SpeciesID is the stable, upstream-assigned primary key of a species.
type SpeciesID uint32

// Generation is a fixed enumerated grouping of species by release era.
// The zero value is GenerationUnknown.
type Generation uint8

const (
	GenerationUnknown Generation = iota
	GenerationOne
	GenerationTwo
	GenerationThree
	GenerationFour
	GenerationFive
	GenerationSix
	GenerationSeven
	GenerationEight
	GenerationNine

	// NumGenerations is the number of generation values, Unknown included.
	NumGenerations = 10
)

// generationNames maps Generation values to their upstream tag names.
var generationNames = [NumGenerations]string{
	"unknown",
	"generation-i",
	"generation-ii",
	"generation-iii",
	"generation-iv",
	"generation-v",
	"generation-vi",
	"generation-vii",
	"generation-viii",
	"generation-ix",
}

// String returns the upstream tag name for g.
func (g Generation) String() string {
	if int(g) >= len(generationNames) {
		return fmt.Sprintf("generation(%d)", uint8(g))
	}
	return generationNames[g]
}

// LookupGeneration parses an upstream generation tag name and reports
// whether the name was recognized.
func LookupGeneration(name string) (Generation, bool) {
	name = strings.ToLower(name)
	for i, n := range generationNames {
		if n == name {
			return Generation(i), true
		}
	}
	return GenerationUnknown, false
}

// ParseGeneration parses an upstream generation tag name.
// Unrecognized names map to GenerationUnknown.
func ParseGeneration(name string) Generation {
	g, _ := LookupGeneration(name)
	return g
}

// Stats holds the six base stats of a species.
type Stats struct {
	HP        int32
	Attack    int32
	Defense   int32
	SpAttack  int32
	SpDefense int32
	Speed     int32
}

// Total returns the sum of all six stats.
func (s Stats) Total() int32 {
	return s.HP + s.Attack + s.Defense + s.SpAttack + s.SpDefense + s.Speed
}

// AtLeast reports whether every stat in s meets the corresponding minimum.
// Zero minimums impose no constraint.
func (s Stats) AtLeast(min Stats) bool {
	return s.HP >= min.HP &&
		s.Attack >= min.Attack &&
		s.Defense >= min.Defense &&
		s.SpAttack >= min.SpAttack &&
		s.SpDefense >= min.SpDefense &&
		s.Speed >= min.Speed
}

// Encounter describes one encounter area and how the species is found
// there, one entry per game ("Red: Walk, Surf").
type Encounter struct {
	Area    string
	Methods []string
}

// SpeciesRecord is a full species entry. Immutable once written to the
// archive; every field round-trips byte-for-byte through the binary format.
type SpeciesRecord struct {
	ID         SpeciesID
	Name       string
	Height     int32 // native units (decimetres)
	Weight     int32 // native units (hectograms)
	Types      []string
	Abilities  []string
	Stats      Stats
	Generation Generation
	FlavorText string

	// EvolutionIDs lists related species in chain order. May be empty.
	EvolutionIDs []SpeciesID

	// Encounters lists where the species can be found. May be empty.
	Encounters []Encounter
}

// typeNames are the canonical type tags, in display order.
var typeNames = []string{
	"normal", "fire", "water", "electric", "grass", "ice",
	"fighting", "poison", "ground", "flying", "psychic", "bug",
	"rock", "ghost", "dragon", "dark", "steel", "fairy",
}

// TypeNames returns the canonical type tags in display order.
// The returned slice must not be mutated.
func TypeNames() []string {
	return typeNames
}
