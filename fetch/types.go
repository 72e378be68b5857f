package fetch

// Wire shapes for the subset of the upstream JSON API the fetcher
// consumes. Field sets are intentionally minimal; unknown fields are
// ignored during decoding.

// NamedResource is the upstream's ubiquitous {name, url} pair.
type NamedResource struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// IndexEntry is one entry of the canonical species index. The index
// determines the total record count and the fetch order.
type IndexEntry struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type indexResponse struct {
	Count   int          `json:"count"`
	Results []IndexEntry `json:"results"`
}

type wirePokemon struct {
	ID     uint32 `json:"id"`
	Name   string `json:"name"`
	Height int32  `json:"height"`
	Weight int32  `json:"weight"`
	Types  []struct {
		Slot int           `json:"slot"`
		Type NamedResource `json:"type"`
	} `json:"types"`
	Abilities []struct {
		IsHidden bool          `json:"is_hidden"`
		Ability  NamedResource `json:"ability"`
	} `json:"abilities"`
	Stats []struct {
		BaseStat int32         `json:"base_stat"`
		Stat     NamedResource `json:"stat"`
	} `json:"stats"`
	Sprites struct {
		FrontDefault string `json:"front_default"`
	} `json:"sprites"`
}

type wireSpecies struct {
	FlavorTextEntries []struct {
		FlavorText string        `json:"flavor_text"`
		Language   NamedResource `json:"language"`
	} `json:"flavor_text_entries"`
	Generation     NamedResource `json:"generation"`
	EvolutionChain struct {
		URL string `json:"url"`
	} `json:"evolution_chain"`
}

type wireEncounter struct {
	LocationArea   NamedResource `json:"location_area"`
	VersionDetails []struct {
		Version          NamedResource `json:"version"`
		EncounterDetails []struct {
			Method NamedResource `json:"method"`
		} `json:"encounter_details"`
	} `json:"version_details"`
}

type wireEvolutionChain struct {
	Chain chainLink `json:"chain"`
}

type chainLink struct {
	Species   NamedResource `json:"species"`
	EvolvesTo []chainLink   `json:"evolves_to"`
}
