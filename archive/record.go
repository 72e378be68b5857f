package archive

import (
	"encoding/binary"
	"fmt"
	"strings"
	"unsafe"

	"github.com/stardex-app/stardex/model"
)

// Encoded record layout, offsets relative to the record start:
//
//	0   id          uint32
//	4   height      int32
//	8   weight      int32
//	12  stats       6 × int32
//	36  generation  uint8
//	37  padding     [3]byte
//	40  field offset table: name, types, abilities, flavor, evo, enc (6 × uint32)
//	64  variable data
//
// Variable fields are length-prefixed:
//
//	name:       uint16 len + bytes
//	types:      uint8 count, each uint8 len + bytes
//	abilities:  uint8 count, each uint16 len + bytes
//	flavor:     uint32 len + bytes
//	evo:        uint16 count + uint16 pad + count × uint32 (4-byte aligned)
//	encounters: uint16 count, each: uint16 len area + uint16 count methods,
//	            each uint16 len + bytes

const (
	offID         = 0
	offHeight     = 4
	offWeight     = 8
	offStats      = 12
	offGeneration = 36
	offFieldTable = 40
)

// field table slots
const (
	fieldName = iota
	fieldTypes
	fieldAbilities
	fieldFlavor
	fieldEvolution
	fieldEncounters
	numFields
)

func appendUint16(dst []byte, v uint16) []byte {
	return binary.LittleEndian.AppendUint16(dst, v)
}

func appendUint32(dst []byte, v uint32) []byte {
	return binary.LittleEndian.AppendUint32(dst, v)
}

func appendString16(dst []byte, s string) ([]byte, error) {
	if len(s) > 0xFFFF {
		return nil, fmt.Errorf("string field too long: %d bytes", len(s))
	}
	dst = appendUint16(dst, uint16(len(s)))
	return append(dst, s...), nil
}

// appendRecord encodes rec at the end of dst and returns the grown slice.
// The encoded length excludes trailing alignment padding; padding is the
// builder's concern.
func appendRecord(dst []byte, rec *model.SpeciesRecord) ([]byte, error) {
	start := len(dst)
	dst = append(dst, make([]byte, recordFixedSize)...)

	fixed := func() []byte { return dst[start : start+recordFixedSize] }

	binary.LittleEndian.PutUint32(fixed()[offID:], uint32(rec.ID))
	binary.LittleEndian.PutUint32(fixed()[offHeight:], uint32(rec.Height))
	binary.LittleEndian.PutUint32(fixed()[offWeight:], uint32(rec.Weight))
	for i, v := range [6]int32{
		rec.Stats.HP, rec.Stats.Attack, rec.Stats.Defense,
		rec.Stats.SpAttack, rec.Stats.SpDefense, rec.Stats.Speed,
	} {
		binary.LittleEndian.PutUint32(fixed()[offStats+4*i:], uint32(v))
	}
	fixed()[offGeneration] = uint8(rec.Generation)

	var offsets [numFields]uint32
	setOff := func(field int) {
		offsets[field] = uint32(len(dst) - start)
	}

	// name
	setOff(fieldName)
	var err error
	if dst, err = appendString16(dst, rec.Name); err != nil {
		return nil, fmt.Errorf("record %d: name: %w", rec.ID, err)
	}

	// types
	setOff(fieldTypes)
	if len(rec.Types) > 0xFF {
		return nil, fmt.Errorf("record %d: too many types: %d", rec.ID, len(rec.Types))
	}
	dst = append(dst, uint8(len(rec.Types)))
	for _, t := range rec.Types {
		if len(t) > 0xFF {
			return nil, fmt.Errorf("record %d: type tag too long: %q", rec.ID, t)
		}
		dst = append(dst, uint8(len(t)))
		dst = append(dst, t...)
	}

	// abilities
	setOff(fieldAbilities)
	if len(rec.Abilities) > 0xFF {
		return nil, fmt.Errorf("record %d: too many abilities: %d", rec.ID, len(rec.Abilities))
	}
	dst = append(dst, uint8(len(rec.Abilities)))
	for _, a := range rec.Abilities {
		if dst, err = appendString16(dst, a); err != nil {
			return nil, fmt.Errorf("record %d: ability: %w", rec.ID, err)
		}
	}

	// flavor text
	setOff(fieldFlavor)
	dst = appendUint32(dst, uint32(len(rec.FlavorText)))
	dst = append(dst, rec.FlavorText...)

	// evolution ids, aligned so the store can view them in place
	for (len(dst)-start)%4 != 0 {
		dst = append(dst, 0)
	}
	setOff(fieldEvolution)
	if len(rec.EvolutionIDs) > 0xFFFF {
		return nil, fmt.Errorf("record %d: too many evolution links: %d", rec.ID, len(rec.EvolutionIDs))
	}
	dst = appendUint16(dst, uint16(len(rec.EvolutionIDs)))
	dst = appendUint16(dst, 0)
	for _, id := range rec.EvolutionIDs {
		dst = appendUint32(dst, uint32(id))
	}

	// encounters
	setOff(fieldEncounters)
	if len(rec.Encounters) > 0xFFFF {
		return nil, fmt.Errorf("record %d: too many encounter areas: %d", rec.ID, len(rec.Encounters))
	}
	dst = appendUint16(dst, uint16(len(rec.Encounters)))
	for _, enc := range rec.Encounters {
		if dst, err = appendString16(dst, enc.Area); err != nil {
			return nil, fmt.Errorf("record %d: encounter area: %w", rec.ID, err)
		}
		if len(enc.Methods) > 0xFFFF {
			return nil, fmt.Errorf("record %d: too many encounter methods: %d", rec.ID, len(enc.Methods))
		}
		dst = appendUint16(dst, uint16(len(enc.Methods)))
		for _, m := range enc.Methods {
			if dst, err = appendString16(dst, m); err != nil {
				return nil, fmt.Errorf("record %d: encounter method: %w", rec.ID, err)
			}
		}
	}

	for i, off := range offsets {
		binary.LittleEndian.PutUint32(fixed()[offFieldTable+4*i:], off)
	}

	return dst, nil
}

// RecordView is a zero-copy view of one encoded record inside the mapped
// archive. Field accessors decode bytes in place; returned strings alias
// the mapping and are only valid while the owning Store is open.
//
// Views handed out by an open Store are always structurally valid: the
// whole file was checksummed before any view was created.
type RecordView struct {
	b []byte
}

// viewString interprets b as a string without copying.
func viewString(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(&b[0], len(b))
}

func (v RecordView) fieldOffset(field int) int {
	return int(binary.LittleEndian.Uint32(v.b[offFieldTable+4*field:]))
}

// ID returns the stable species id.
func (v RecordView) ID() model.SpeciesID {
	return model.SpeciesID(binary.LittleEndian.Uint32(v.b[offID:]))
}

// Height returns the height in native units.
func (v RecordView) Height() int32 {
	return int32(binary.LittleEndian.Uint32(v.b[offHeight:]))
}

// Weight returns the weight in native units.
func (v RecordView) Weight() int32 {
	return int32(binary.LittleEndian.Uint32(v.b[offWeight:]))
}

// Stats returns the six base stats.
func (v RecordView) Stats() model.Stats {
	at := func(i int) int32 {
		return int32(binary.LittleEndian.Uint32(v.b[offStats+4*i:]))
	}
	return model.Stats{
		HP:        at(0),
		Attack:    at(1),
		Defense:   at(2),
		SpAttack:  at(3),
		SpDefense: at(4),
		Speed:     at(5),
	}
}

// Generation returns the generation tag.
func (v RecordView) Generation() model.Generation {
	return model.Generation(v.b[offGeneration])
}

// Name returns the species name.
func (v RecordView) Name() string {
	off := v.fieldOffset(fieldName)
	n := int(binary.LittleEndian.Uint16(v.b[off:]))
	return viewString(v.b[off+2 : off+2+n])
}

// Types returns the ordered type tags. The strings alias the mapping.
func (v RecordView) Types() []string {
	off := v.fieldOffset(fieldTypes)
	count := int(v.b[off])
	off++
	out := make([]string, count)
	for i := range out {
		n := int(v.b[off])
		off++
		out[i] = viewString(v.b[off : off+n])
		off += n
	}
	return out
}

// Abilities returns the ordered ability names. The strings alias the mapping.
func (v RecordView) Abilities() []string {
	off := v.fieldOffset(fieldAbilities)
	count := int(v.b[off])
	off++
	out := make([]string, count)
	for i := range out {
		n := int(binary.LittleEndian.Uint16(v.b[off:]))
		off += 2
		out[i] = viewString(v.b[off : off+n])
		off += n
	}
	return out
}

// FlavorText returns the flavor text, or "" when the species has none.
func (v RecordView) FlavorText() string {
	off := v.fieldOffset(fieldFlavor)
	n := int(binary.LittleEndian.Uint32(v.b[off:]))
	return viewString(v.b[off+4 : off+4+n])
}

// EvolutionIDs returns the related species ids in chain order.
// The returned slice views the mapping when alignment allows, and must
// not be mutated.
func (v RecordView) EvolutionIDs() []model.SpeciesID {
	off := v.fieldOffset(fieldEvolution)
	count := int(binary.LittleEndian.Uint16(v.b[off:]))
	if count == 0 {
		return nil
	}
	ids := v.b[off+4 : off+4+4*count]
	if uintptr(unsafe.Pointer(&ids[0]))%4 == 0 {
		return unsafe.Slice((*model.SpeciesID)(unsafe.Pointer(&ids[0])), count)
	}
	out := make([]model.SpeciesID, count)
	for i := range out {
		out[i] = model.SpeciesID(binary.LittleEndian.Uint32(ids[4*i:]))
	}
	return out
}

// Encounters decodes the per-area encounter entries. Strings alias the
// mapping; the slices are allocated per call.
func (v RecordView) Encounters() []model.Encounter {
	off := v.fieldOffset(fieldEncounters)
	count := int(binary.LittleEndian.Uint16(v.b[off:]))
	off += 2
	if count == 0 {
		return nil
	}
	out := make([]model.Encounter, count)
	for i := range out {
		n := int(binary.LittleEndian.Uint16(v.b[off:]))
		off += 2
		out[i].Area = viewString(v.b[off : off+n])
		off += n
		methods := int(binary.LittleEndian.Uint16(v.b[off:]))
		off += 2
		out[i].Methods = make([]string, methods)
		for j := range out[i].Methods {
			n = int(binary.LittleEndian.Uint16(v.b[off:]))
			off += 2
			out[i].Methods[j] = viewString(v.b[off : off+n])
			off += n
		}
	}
	return out
}

// Materialize copies the view into an owned SpeciesRecord that stays valid
// after the store is closed.
func (v RecordView) Materialize() model.SpeciesRecord {
	rec := model.SpeciesRecord{
		ID:         v.ID(),
		Name:       strings.Clone(v.Name()),
		Height:     v.Height(),
		Weight:     v.Weight(),
		Stats:      v.Stats(),
		Generation: v.Generation(),
		FlavorText: strings.Clone(v.FlavorText()),
	}
	if types := v.Types(); len(types) > 0 {
		rec.Types = make([]string, len(types))
		for i, t := range types {
			rec.Types[i] = strings.Clone(t)
		}
	}
	if abilities := v.Abilities(); len(abilities) > 0 {
		rec.Abilities = make([]string, len(abilities))
		for i, a := range abilities {
			rec.Abilities[i] = strings.Clone(a)
		}
	}
	if evo := v.EvolutionIDs(); len(evo) > 0 {
		rec.EvolutionIDs = append([]model.SpeciesID(nil), evo...)
	}
	if encounters := v.Encounters(); len(encounters) > 0 {
		rec.Encounters = make([]model.Encounter, len(encounters))
		for i, enc := range encounters {
			rec.Encounters[i].Area = strings.Clone(enc.Area)
			rec.Encounters[i].Methods = make([]string, len(enc.Methods))
			for j, m := range enc.Methods {
				rec.Encounters[i].Methods[j] = strings.Clone(m)
			}
		}
	}
	return rec
}

// validate walks every field of the record and checks that all lengths and
// offsets stay inside the record bounds. Called once per record at open
// time so views can decode without rechecking.
func (v RecordView) validate() error {
	if len(v.b) < recordFixedSize {
		return fmt.Errorf("%w: record shorter than fixed part (%d bytes)", ErrCorrupt, len(v.b))
	}
	r := newSliceReader(v.b)
	r.off = offFieldTable
	var offsets [numFields]uint32
	for i := range offsets {
		off, err := r.readUint32()
		if err != nil {
			return err
		}
		if off < recordFixedSize || int(off) > len(v.b) {
			return fmt.Errorf("%w: field offset %d out of record bounds", ErrCorrupt, off)
		}
		offsets[i] = off
	}

	// name
	r.off = int(offsets[fieldName])
	n, err := r.readUint16()
	if err != nil {
		return err
	}
	if _, err = r.readBytes(int(n)); err != nil {
		return err
	}

	// types
	r.off = int(offsets[fieldTypes])
	count8, err := r.readUint8()
	if err != nil {
		return err
	}
	for i := 0; i < int(count8); i++ {
		ln, err := r.readUint8()
		if err != nil {
			return err
		}
		if _, err = r.readBytes(int(ln)); err != nil {
			return err
		}
	}

	// abilities
	r.off = int(offsets[fieldAbilities])
	count8, err = r.readUint8()
	if err != nil {
		return err
	}
	for i := 0; i < int(count8); i++ {
		ln, err := r.readUint16()
		if err != nil {
			return err
		}
		if _, err = r.readBytes(int(ln)); err != nil {
			return err
		}
	}

	// flavor
	r.off = int(offsets[fieldFlavor])
	ln32, err := r.readUint32()
	if err != nil {
		return err
	}
	if _, err = r.readBytes(int(ln32)); err != nil {
		return err
	}

	// evolution ids
	r.off = int(offsets[fieldEvolution])
	count, err := r.readUint16()
	if err != nil {
		return err
	}
	if _, err = r.readBytes(2 + 4*int(count)); err != nil {
		return err
	}

	// encounters
	r.off = int(offsets[fieldEncounters])
	areas, err := r.readUint16()
	if err != nil {
		return err
	}
	for i := 0; i < int(areas); i++ {
		ln, err := r.readUint16()
		if err != nil {
			return err
		}
		if _, err = r.readBytes(int(ln)); err != nil {
			return err
		}
		methods, err := r.readUint16()
		if err != nil {
			return err
		}
		for j := 0; j < int(methods); j++ {
			ln, err = r.readUint16()
			if err != nil {
				return err
			}
			if _, err = r.readBytes(int(ln)); err != nil {
				return err
			}
		}
	}

	return nil
}
