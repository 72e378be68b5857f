// Package model defines the core data types shared by the fetcher, the
// archive builder and the archive store.
//
// # Identity Types
//
//   - SpeciesID: Stable, upstream-assigned primary key (uint32)
//   - Generation: Fixed release-era grouping, including an Unknown fallback
//
// # Data Types
//
//   - SpeciesRecord: Full species entry as written into the archive
//   - Stats: The six base stats
//   - Encounter: A single encounter area with its per-game methods
//
// Records are plain owned values. Cross-references (evolution links) are
// stored as id lists and resolved through the archive store, never as
// embedded pointers.
package model
