package fetch

import (
	"strings"

	"github.com/stardex-app/stardex/model"
)

// statNames maps upstream stat tags to their slot in model.Stats.
var statNames = map[string]int{
	"hp":              0,
	"attack":          1,
	"defense":         2,
	"special-attack":  3,
	"special-defense": 4,
	"speed":           5,
}

// convertRecord flattens the upstream object graph into one owned record.
// sp, encs and evo may be nil/empty; the record then carries the documented
// "may be empty" defaults instead of back-references.
func convertRecord(p *wirePokemon, sp *wireSpecies, encs []wireEncounter, evo []uint32) model.SpeciesRecord {
	rec := model.SpeciesRecord{
		ID:     model.SpeciesID(p.ID),
		Name:   p.Name,
		Height: p.Height,
		Weight: p.Weight,
	}

	for _, t := range p.Types {
		rec.Types = append(rec.Types, t.Type.Name)
	}

	for _, a := range p.Abilities {
		name := a.Ability.Name
		if a.IsHidden {
			name += " (HIDDEN)"
		}
		rec.Abilities = append(rec.Abilities, name)
	}

	var stats [6]int32
	for _, s := range p.Stats {
		if slot, ok := statNames[s.Stat.Name]; ok {
			stats[slot] = s.BaseStat
		}
	}
	rec.Stats = model.Stats{
		HP:        stats[0],
		Attack:    stats[1],
		Defense:   stats[2],
		SpAttack:  stats[3],
		SpDefense: stats[4],
		Speed:     stats[5],
	}

	if sp != nil {
		rec.Generation = model.ParseGeneration(sp.Generation.Name)
		rec.FlavorText = englishFlavorText(sp)
	}

	for _, id := range evo {
		rec.EvolutionIDs = append(rec.EvolutionIDs, model.SpeciesID(id))
	}

	for i := range encs {
		rec.Encounters = append(rec.Encounters, convertEncounter(&encs[i]))
	}

	return rec
}

// convertEncounter folds one encounter area into an owned entry with one
// "Game: Method, Method" string per game version. Repeated methods within
// a version are dropped, keeping first-seen order.
func convertEncounter(enc *wireEncounter) model.Encounter {
	out := model.Encounter{Area: capitalize(enc.LocationArea.Name)}
	for _, vd := range enc.VersionDetails {
		seen := make(map[string]struct{}, len(vd.EncounterDetails))
		var methods []string
		for _, ed := range vd.EncounterDetails {
			m := capitalize(ed.Method.Name)
			if _, dup := seen[m]; dup {
				continue
			}
			seen[m] = struct{}{}
			methods = append(methods, m)
		}
		out.Methods = append(out.Methods,
			capitalize(vd.Version.Name)+": "+strings.Join(methods, ", "))
	}
	return out
}

// englishFlavorText picks the first English flavor entry and normalizes
// the upstream's embedded line and form-feed breaks.
func englishFlavorText(sp *wireSpecies) string {
	for _, e := range sp.FlavorTextEntries {
		if e.Language.Name != "en" {
			continue
		}
		text := strings.ReplaceAll(e.FlavorText, "\n", " ")
		text = strings.ReplaceAll(text, "\f", " ")
		return text
	}
	return ""
}

// capitalize turns an upstream kebab-case tag into display form:
// "kanto-route-2" -> "Kanto Route 2".
func capitalize(s string) string {
	words := strings.Split(s, "-")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
