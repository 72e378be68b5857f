// Package stardex provides an offline-first local store for a large,
// mostly-static species reference dataset.
//
// A one-time sync fetches the full dataset from the upstream source,
// serializes it into a single checksummed binary archive and populates an
// on-disk sprite cache. The archive is then memory-mapped for the rest of
// the process lifetime; lookups and filtered queries interpret mapped
// bytes in place, without per-record allocation or deserialization.
//
// # Quick Start
//
//	ctx := context.Background()
//	dex, _ := stardex.New("/home/user/.cache/stardex")
//	state, err := dex.OpenOrBuild(ctx) // syncs on first run
//	defer dex.Close()
//
//	view, _ := dex.Get(6)
//	fmt.Println(view.Name(), view.Stats().Total())
//
//	results, _ := dex.Query(archive.Query{
//	    Types:    []string{"fire", "flying"},
//	    TypeMode: archive.TypeModeExclusive,
//	    MinStats: model.Stats{HP: 70},
//	})
//	for v := range results {
//	    fmt.Println(v.Name())
//	}
//
// # Lifecycle
//
// The Dex owns a small state machine:
//
//	Uninitialized ──► Building ──► Ready ◄──► Renewing
//	        │             │          ▲            │
//	        └── valid ────┼──────────┘            │
//	                      ▼                       ▼
//	                    Failed ◄──── (no previous archive)
//
// A renew that fails, or is canceled, leaves the previously committed
// archive authoritative; record views handed out before a renew stay
// valid until Close because retired mappings are kept open.
package stardex
