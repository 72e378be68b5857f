// Package mmap provides read-only memory-mapped file access.
//
// Mapping a file allows the archive store to interpret its contents in
// place, without copying record bytes through read buffers. The mapping is
// immutable for its lifetime; callers must ensure no views into Data
// outlive Close.
//
// Unix platforms use mmap(2) via golang.org/x/sys. Windows uses
// CreateFileMapping/MapViewOfFile.
package mmap
