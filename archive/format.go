package archive

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// MagicNumber identifies stardex archive files (ASCII: "SDX1").
	MagicNumber = 0x31584453
	// Version is the current file format version.
	// A mismatch forces a rebuild; there is no migration path.
	Version = 0x00010000

	// HeaderSize is the fixed size of the file header in bytes.
	HeaderSize = 64

	// dirEntrySize is the size of one record directory entry.
	dirEntrySize = 16

	// recordFixedSize is the fixed part of every encoded record:
	// id, height, weight, six stats, generation and the field offset table.
	recordFixedSize = 64

	// recordAlign is the alignment of record starts within the record
	// section. Keeps fixed fields and the evolution id array aligned for
	// in-place views.
	recordAlign = 8
)

var (
	// ErrMissing is returned when the archive file does not exist.
	// A missing archive is a first-run condition, not corruption.
	ErrMissing = errors.New("archive missing")

	// ErrCorrupt is returned for any integrity failure: bad magic, version
	// mismatch, checksum mismatch or structural inconsistency. The archive
	// is never partially trusted.
	ErrCorrupt = errors.New("archive corrupt")

	// ErrNotFound is returned by lookups for ids not present in the archive.
	ErrNotFound = errors.New("record not found")
)

// Header is the fixed 64-byte header at the start of every archive.
type Header struct {
	Magic        uint32
	Version      uint32
	RecordCount  uint32
	TypeCount    uint32
	IndexOffset  uint64
	RecordOffset uint64
	FileSize     uint64
	Checksum     uint32 // CRC32 (IEEE) of all bytes after the header
}

func (h *Header) marshal(dst []byte) {
	binary.LittleEndian.PutUint32(dst[0:4], h.Magic)
	binary.LittleEndian.PutUint32(dst[4:8], h.Version)
	binary.LittleEndian.PutUint32(dst[8:12], h.RecordCount)
	binary.LittleEndian.PutUint32(dst[12:16], h.TypeCount)
	binary.LittleEndian.PutUint64(dst[16:24], h.IndexOffset)
	binary.LittleEndian.PutUint64(dst[24:32], h.RecordOffset)
	binary.LittleEndian.PutUint64(dst[32:40], h.FileSize)
	binary.LittleEndian.PutUint32(dst[40:44], h.Checksum)
	// bytes 44..64 are reserved and stay zero
}

func parseHeader(data []byte) (*Header, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("%w: file too small (%d bytes)", ErrCorrupt, len(data))
	}
	h := &Header{
		Magic:        binary.LittleEndian.Uint32(data[0:4]),
		Version:      binary.LittleEndian.Uint32(data[4:8]),
		RecordCount:  binary.LittleEndian.Uint32(data[8:12]),
		TypeCount:    binary.LittleEndian.Uint32(data[12:16]),
		IndexOffset:  binary.LittleEndian.Uint64(data[16:24]),
		RecordOffset: binary.LittleEndian.Uint64(data[24:32]),
		FileSize:     binary.LittleEndian.Uint64(data[32:40]),
		Checksum:     binary.LittleEndian.Uint32(data[40:44]),
	}
	if h.Magic != MagicNumber {
		return nil, fmt.Errorf("%w: invalid magic 0x%08x", ErrCorrupt, h.Magic)
	}
	if h.Version != Version {
		return nil, fmt.Errorf("%w: unsupported version 0x%08x", ErrCorrupt, h.Version)
	}
	if h.FileSize != uint64(len(data)) {
		return nil, fmt.Errorf("%w: declared size %d, actual %d", ErrCorrupt, h.FileSize, len(data))
	}
	if h.IndexOffset != HeaderSize {
		return nil, fmt.Errorf("%w: unexpected index offset %d", ErrCorrupt, h.IndexOffset)
	}
	if h.RecordOffset < h.IndexOffset || h.RecordOffset > h.FileSize {
		return nil, fmt.Errorf("%w: record offset %d out of bounds", ErrCorrupt, h.RecordOffset)
	}
	if h.RecordOffset%recordAlign != 0 {
		return nil, fmt.Errorf("%w: misaligned record offset %d", ErrCorrupt, h.RecordOffset)
	}
	// The checksum only covers bytes after the header, so the reserved
	// region must be verified here.
	for _, b := range data[44:HeaderSize] {
		if b != 0 {
			return nil, fmt.Errorf("%w: nonzero reserved header bytes", ErrCorrupt)
		}
	}
	return h, nil
}

// dirEntry is one record directory entry. Stored order matches insertion
// order from the fetch. Offset is relative to the record section.
type dirEntry struct {
	ID     uint32
	Length uint32
	Offset uint64
}
