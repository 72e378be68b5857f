// Package archive implements the single-file binary archive that holds
// every species record plus the precomputed filter indices.
//
// # File Layout
//
//	┌──────────────────────────────────────────────┐
//	│ Header (64 bytes, magic/version/checksum)    │
//	│ Record directory (16 bytes per record)       │
//	│ Id-sorted position array (4 bytes per record)│
//	│ Type → roaring bitmap table                  │
//	│ Generation → roaring bitmap table            │
//	│ Record section (8-byte aligned records)      │
//	└──────────────────────────────────────────────┘
//
// All integers are little-endian. The CRC32 checksum in the header covers
// every byte after the header; any mismatch, as well as any structural
// inconsistency, invalidates the whole file.
//
// # Zero-Copy Reads
//
// The store memory-maps the file and hands out RecordView values that
// interpret mapped bytes in place. Fixed fields live at fixed offsets;
// variable fields are resolved through a per-record offset table. Strings
// returned by a view alias the mapping and become invalid once the store
// is closed.
//
// # Building
//
// Write assembles the whole archive in one buffer, checksums it, writes it
// to a temporary file and atomically renames it into place, so a reader
// never observes a half-written archive.
package archive
