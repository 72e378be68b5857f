package archive

import (
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"sort"
	"strings"
	"sync/atomic"
	"unsafe"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/stardex-app/stardex/internal/mmap"
	"github.com/stardex-app/stardex/model"
)

// TypeMode selects the combination semantics when multiple type tags are
// part of a query.
type TypeMode uint8

const (
	// TypeModeInclusive matches species having any of the selected types.
	TypeModeInclusive TypeMode = iota
	// TypeModeExclusive matches species having all of the selected types.
	TypeModeExclusive
)

// String returns "inclusive" or "exclusive".
func (m TypeMode) String() string {
	if m == TypeModeExclusive {
		return "exclusive"
	}
	return "inclusive"
}

// Query describes a filtered scan. Zero-value fields impose no constraint.
type Query struct {
	// Types restricts matches by type tag, combined per TypeMode.
	Types    []string
	TypeMode TypeMode

	// Generations restricts matches to any of the listed generations.
	Generations []model.Generation

	// MinStats drops records with any stat below the given minimum.
	MinStats model.Stats

	// MinTotal drops records whose stat total is below the threshold.
	MinTotal int32

	// Name keeps records whose name contains the substring
	// (case-insensitive). Applied last; it cannot be pre-indexed.
	Name string
}

// Store answers lookups and filtered scans against one memory-mapped
// archive. All reads are synchronous and allocation-free for fixed fields;
// the underlying memory is immutable for the store's lifetime, so
// concurrent readers need no locking.
type Store struct {
	m      *mmap.File
	header *Header

	// entries and sorted are views into the mapping.
	entries []dirEntry
	sorted  []uint32

	typeNames   []string
	typeBitmaps map[string]*roaring.Bitmap
	genBitmaps  [model.NumGenerations]*roaring.Bitmap

	closed atomic.Bool
}

// Open maps the archive at path and validates it before exposing any data:
// header fields, full checksum, record structure and index invariants. Any
// failure yields ErrMissing or ErrCorrupt; partially valid archives are
// never exposed.
func Open(path string) (*Store, error) {
	m, err := mmap.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissing, path)
		}
		return nil, fmt.Errorf("archive: open %s: %w", path, err)
	}

	s, err := newStore(m)
	if err != nil {
		_ = m.Close()
		return nil, err
	}
	return s, nil
}

func newStore(m *mmap.File) (*Store, error) {
	data := m.Data

	h, err := parseHeader(data)
	if err != nil {
		return nil, err
	}
	if err := verifyChecksum(h, data); err != nil {
		return nil, err
	}

	s := &Store{m: m, header: h}
	if err := s.parseIndex(data); err != nil {
		return nil, err
	}
	if err := s.validateRecords(); err != nil {
		return nil, err
	}
	if err := s.validateBitmaps(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) parseIndex(data []byte) error {
	h := s.header
	count := int(h.RecordCount)

	index := data[h.IndexOffset:h.RecordOffset]
	r := newSliceReader(index)

	// Directory and sorted position array are fixed-size tables;
	// reinterpret them in place instead of decoding entry by entry.
	dirBytes, err := r.readBytes(count * dirEntrySize)
	if err != nil {
		return err
	}
	if count > 0 {
		s.entries = unsafe.Slice((*dirEntry)(unsafe.Pointer(&dirBytes[0])), count)
	}

	sortedBytes, err := r.readBytes(count * 4)
	if err != nil {
		return err
	}
	if count > 0 {
		s.sorted = unsafe.Slice((*uint32)(unsafe.Pointer(&sortedBytes[0])), count)
	}

	// Type bitmap table.
	s.typeBitmaps = make(map[string]*roaring.Bitmap, h.TypeCount)
	for i := 0; i < int(h.TypeCount); i++ {
		nameLen, err := r.readUint16()
		if err != nil {
			return err
		}
		nameBytes, err := r.readBytes(int(nameLen))
		if err != nil {
			return err
		}
		name := viewString(nameBytes)
		bm, err := readBitmap(r)
		if err != nil {
			return err
		}
		if _, dup := s.typeBitmaps[name]; dup {
			return fmt.Errorf("%w: duplicate type tag %q", ErrCorrupt, name)
		}
		s.typeNames = append(s.typeNames, name)
		s.typeBitmaps[name] = bm
	}

	// Generation bitmap table.
	genCount, err := r.readUint8()
	if err != nil {
		return err
	}
	if genCount != model.NumGenerations {
		return fmt.Errorf("%w: unexpected generation table size %d", ErrCorrupt, genCount)
	}
	for i := 0; i < int(genCount); i++ {
		g, err := r.readUint8()
		if err != nil {
			return err
		}
		if int(g) >= model.NumGenerations {
			return fmt.Errorf("%w: unknown generation tag %d", ErrCorrupt, g)
		}
		bm, err := readBitmap(r)
		if err != nil {
			return err
		}
		if s.genBitmaps[g] != nil {
			return fmt.Errorf("%w: duplicate generation tag %d", ErrCorrupt, g)
		}
		s.genBitmaps[g] = bm
	}

	return nil
}

// readBitmap parses a length-prefixed roaring bitmap as a view over the
// mapping. The bitmap shares the mapped buffer and must never be mutated.
func readBitmap(r *sliceReader) (*roaring.Bitmap, error) {
	n, err := r.readUint32()
	if err != nil {
		return nil, err
	}
	raw, err := r.readBytes(int(n))
	if err != nil {
		return nil, err
	}
	bm := roaring.New()
	if _, err := bm.FromBuffer(raw); err != nil {
		return nil, fmt.Errorf("%w: bitmap: %v", ErrCorrupt, err)
	}
	return bm, nil
}

// validateRecords bounds-checks every directory entry and walks every
// record's internal structure once, so views never recheck.
func (s *Store) validateRecords() error {
	bodyLen := s.header.FileSize - s.header.RecordOffset
	var prevID int64 = -1
	for i, e := range s.entries {
		if e.Offset+uint64(e.Length) > bodyLen {
			return fmt.Errorf("%w: record %d exceeds record section", ErrCorrupt, e.ID)
		}
		v := s.viewAt(e)
		if err := v.validate(); err != nil {
			return err
		}
		if uint32(v.ID()) != e.ID {
			return fmt.Errorf("%w: directory id %d does not match record id %d", ErrCorrupt, e.ID, v.ID())
		}

		// The sorted array must be a permutation with strictly ascending ids.
		pos := s.sorted[i]
		if int(pos) >= len(s.entries) {
			return fmt.Errorf("%w: sorted position %d out of range", ErrCorrupt, pos)
		}
		id := int64(s.entries[pos].ID)
		if id <= prevID {
			return fmt.Errorf("%w: sorted index not strictly ascending at %d", ErrCorrupt, i)
		}
		prevID = id
	}
	return nil
}

// validateBitmaps enforces the index invariant: every id appearing in a
// bitmap resolves to a record present in the archive.
func (s *Store) validateBitmaps() error {
	check := func(kind string, bm *roaring.Bitmap) error {
		it := bm.Iterator()
		for it.HasNext() {
			id := it.Next()
			if _, ok := s.lookup(model.SpeciesID(id)); !ok {
				return fmt.Errorf("%w: %s index references missing id %d", ErrCorrupt, kind, id)
			}
		}
		return nil
	}
	for _, name := range s.typeNames {
		if err := check("type", s.typeBitmaps[name]); err != nil {
			return err
		}
	}
	for _, bm := range s.genBitmaps {
		if err := check("generation", bm); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) viewAt(e dirEntry) RecordView {
	base := s.header.RecordOffset
	return RecordView{b: s.m.Data[base+e.Offset : base+e.Offset+uint64(e.Length)]}
}

// lookup binary-searches the id-sorted index array.
func (s *Store) lookup(id model.SpeciesID) (dirEntry, bool) {
	n := len(s.sorted)
	i := sort.Search(n, func(i int) bool {
		return s.entries[s.sorted[i]].ID >= uint32(id)
	})
	if i < n && s.entries[s.sorted[i]].ID == uint32(id) {
		return s.entries[s.sorted[i]], true
	}
	return dirEntry{}, false
}

// Count returns the number of records in the archive.
func (s *Store) Count() int {
	return len(s.entries)
}

// TypeNames returns the type tags present in the archive, in first-seen
// order. The strings alias the mapping.
func (s *Store) TypeNames() []string {
	return s.typeNames
}

// Get returns the record view for id, or ErrNotFound.
func (s *Store) Get(id model.SpeciesID) (RecordView, error) {
	e, ok := s.lookup(id)
	if !ok {
		return RecordView{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return s.viewAt(e), nil
}

// All returns a lazy, restartable sequence over every record in stored
// order. No record bytes are copied.
func (s *Store) All() iter.Seq[RecordView] {
	return func(yield func(RecordView) bool) {
		for _, e := range s.entries {
			if !yield(s.viewAt(e)) {
				return
			}
		}
	}
}

// Find answers a filtered query. Candidate ids are narrowed through the
// type and generation bitmaps first; the stat and name predicates then run
// only over the remaining candidates. Unknown type or generation tags
// produce empty matches, not errors.
func (s *Store) Find(q Query) iter.Seq[RecordView] {
	candidates, constrained := s.candidates(q)
	pred := s.predicate(q)

	return func(yield func(RecordView) bool) {
		if !constrained {
			for _, e := range s.entries {
				v := s.viewAt(e)
				if pred(v) && !yield(v) {
					return
				}
			}
			return
		}
		it := candidates.Iterator()
		for it.HasNext() {
			e, ok := s.lookup(model.SpeciesID(it.Next()))
			if !ok {
				continue
			}
			v := s.viewAt(e)
			if pred(v) && !yield(v) {
				return
			}
		}
	}
}

// candidates resolves the index-backed part of q into an id set.
// The bool result reports whether any index constraint applied.
func (s *Store) candidates(q Query) (*roaring.Bitmap, bool) {
	var result *roaring.Bitmap

	if len(q.Types) > 0 {
		result = s.typeSet(q.Types, q.TypeMode)
	}

	if len(q.Generations) > 0 {
		gens := roaring.New()
		for _, g := range q.Generations {
			if int(g) < model.NumGenerations {
				gens.Or(s.genBitmaps[g])
			}
		}
		if result == nil {
			result = gens
		} else {
			result = roaring.And(result, gens)
		}
	}

	return result, result != nil
}

// typeSet combines the selected type bitmaps: union for inclusive mode,
// intersection for exclusive mode. Mapped bitmaps are never mutated; all
// combination happens on fresh bitmaps.
func (s *Store) typeSet(types []string, mode TypeMode) *roaring.Bitmap {
	result := roaring.New()
	for i, t := range types {
		bm, ok := s.typeBitmaps[t]
		if !ok {
			// Unknown tag: empty set. Intersection collapses to empty.
			if mode == TypeModeExclusive {
				return roaring.New()
			}
			continue
		}
		if i == 0 || mode == TypeModeInclusive {
			result.Or(bm)
			continue
		}
		result = roaring.And(result, bm)
	}
	return result
}

func (s *Store) predicate(q Query) func(RecordView) bool {
	name := strings.ToLower(q.Name)
	min := q.MinStats
	minTotal := q.MinTotal
	return func(v RecordView) bool {
		if min != (model.Stats{}) || minTotal > 0 {
			stats := v.Stats()
			if !stats.AtLeast(min) {
				return false
			}
			if stats.Total() < minTotal {
				return false
			}
		}
		if name != "" && !strings.Contains(strings.ToLower(v.Name()), name) {
			return false
		}
		return true
	}
}

// Header returns a copy of the validated file header.
func (s *Store) Header() Header {
	return *s.header
}

// Close unmaps the archive. Views created from this store become invalid;
// Close must only be called once no reader can still hold one.
func (s *Store) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.m.Close()
}
