package archive

import (
	"encoding/binary"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/stardex-app/stardex/internal/fs"
	"github.com/stardex-app/stardex/model"
)

// Encode serializes records plus the precomputed filter indices into one
// archive buffer. Records keep their input order; ids must be unique.
func Encode(records []model.SpeciesRecord) ([]byte, error) {
	entries := make([]dirEntry, len(records))
	seen := make(map[model.SpeciesID]struct{}, len(records))

	// Record section first: the directory needs offsets and lengths.
	var body []byte
	for i := range records {
		rec := &records[i]
		if _, dup := seen[rec.ID]; dup {
			return nil, fmt.Errorf("duplicate species id %d", rec.ID)
		}
		seen[rec.ID] = struct{}{}

		start := len(body)
		var err error
		body, err = appendRecord(body, rec)
		if err != nil {
			return nil, err
		}
		entries[i] = dirEntry{
			ID:     uint32(rec.ID),
			Length: uint32(len(body) - start),
			Offset: uint64(start),
		}
		for len(body)%recordAlign != 0 {
			body = append(body, 0)
		}
	}

	index, err := encodeIndex(records, entries)
	if err != nil {
		return nil, err
	}

	recordOffset := HeaderSize + uint64(len(index))
	for recordOffset%recordAlign != 0 {
		index = append(index, 0)
		recordOffset++
	}

	buf := make([]byte, 0, int(recordOffset)+len(body))
	buf = append(buf, make([]byte, HeaderSize)...)
	buf = append(buf, index...)
	buf = append(buf, body...)

	h := Header{
		Magic:        MagicNumber,
		Version:      Version,
		RecordCount:  uint32(len(records)),
		TypeCount:    uint32(countTypes(records)),
		IndexOffset:  HeaderSize,
		RecordOffset: recordOffset,
		FileSize:     uint64(len(buf)),
		Checksum:     checksum(buf[HeaderSize:]),
	}
	h.marshal(buf[:HeaderSize])

	return buf, nil
}

// encodeIndex builds the directory, the id-sorted position array and the
// type and generation bitmap tables.
func encodeIndex(records []model.SpeciesRecord, entries []dirEntry) ([]byte, error) {
	var out []byte

	// Directory, stored order.
	for _, e := range entries {
		out = appendUint32(out, e.ID)
		out = appendUint32(out, e.Length)
		out = appendUint64(out, e.Offset)
	}

	// Positions sorted by id, for binary-search lookup.
	positions := make([]uint32, len(entries))
	for i := range positions {
		positions[i] = uint32(i)
	}
	sort.Slice(positions, func(a, b int) bool {
		return entries[positions[a]].ID < entries[positions[b]].ID
	})
	for _, p := range positions {
		out = appendUint32(out, p)
	}

	// Type bitmaps, name order = first occurrence.
	typeOrder, typeBitmaps := groupByType(records)
	for _, name := range typeOrder {
		var err error
		out, err = appendString16(out, name)
		if err != nil {
			return nil, fmt.Errorf("type tag: %w", err)
		}
		out, err = appendBitmap(out, typeBitmaps[name])
		if err != nil {
			return nil, err
		}
	}

	// Generation bitmaps, one per enum value, Unknown included.
	out = append(out, uint8(model.NumGenerations))
	genBitmaps := groupByGeneration(records)
	for g, bm := range genBitmaps {
		out = append(out, uint8(g))
		var err error
		out, err = appendBitmap(out, bm)
		if err != nil {
			return nil, err
		}
	}

	return out, nil
}

func appendUint64(dst []byte, v uint64) []byte {
	return binary.LittleEndian.AppendUint64(dst, v)
}

func appendBitmap(dst []byte, bm *roaring.Bitmap) ([]byte, error) {
	data, err := bm.ToBytes()
	if err != nil {
		return nil, fmt.Errorf("serialize bitmap: %w", err)
	}
	dst = appendUint32(dst, uint32(len(data)))
	return append(dst, data...), nil
}

func groupByType(records []model.SpeciesRecord) ([]string, map[string]*roaring.Bitmap) {
	var order []string
	bitmaps := make(map[string]*roaring.Bitmap)
	for i := range records {
		for _, t := range records[i].Types {
			bm, ok := bitmaps[t]
			if !ok {
				bm = roaring.New()
				bitmaps[t] = bm
				order = append(order, t)
			}
			bm.Add(uint32(records[i].ID))
		}
	}
	return order, bitmaps
}

func groupByGeneration(records []model.SpeciesRecord) [model.NumGenerations]*roaring.Bitmap {
	var bitmaps [model.NumGenerations]*roaring.Bitmap
	for g := range bitmaps {
		bitmaps[g] = roaring.New()
	}
	for i := range records {
		g := records[i].Generation
		if int(g) >= len(bitmaps) {
			g = model.GenerationUnknown
		}
		bitmaps[g].Add(uint32(records[i].ID))
	}
	return bitmaps
}

func countTypes(records []model.SpeciesRecord) int {
	seen := make(map[string]struct{})
	for i := range records {
		for _, t := range records[i].Types {
			seen[t] = struct{}{}
		}
	}
	return len(seen)
}

// Write encodes records and commits the archive to path atomically: the
// buffer is written to a temporary file in the same directory, synced, and
// renamed into place. A previously valid archive at path is replaced only
// after the new one is fully committed.
func Write(fsys fs.FileSystem, path string, records []model.SpeciesRecord) error {
	if fsys == nil {
		fsys = fs.Default
	}

	buf, err := Encode(records)
	if err != nil {
		return fmt.Errorf("archive: encode: %w", err)
	}

	dir := filepath.Dir(path)
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("archive: create directory %s: %w", dir, err)
	}

	tmp, err := fsys.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("archive: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		// Best-effort cleanup; a no-op after a successful rename.
		_ = fsys.Remove(tmpName)
	}()

	if _, err := tmp.Write(buf); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("archive: write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("archive: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("archive: close: %w", err)
	}

	if err := fsys.Rename(tmpName, path); err != nil {
		return fmt.Errorf("archive: rename: %w", err)
	}

	return nil
}
