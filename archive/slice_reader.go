package archive

import (
	"encoding/binary"
	"fmt"
)

// sliceReader provides bounds-checked sequential reads over a byte slice.
// It is used while parsing the index section of a mapped archive so a
// truncated or corrupt file surfaces as an error instead of a panic.
type sliceReader struct {
	b   []byte
	off int
}

func newSliceReader(b []byte) *sliceReader {
	return &sliceReader{b: b}
}

func (r *sliceReader) readBytes(n int) ([]byte, error) {
	if n < 0 || r.off+n > len(r.b) {
		return nil, fmt.Errorf("%w: out of bounds read (%d bytes at %d, len=%d)",
			ErrCorrupt, n, r.off, len(r.b))
	}
	out := r.b[r.off : r.off+n]
	r.off += n
	return out, nil
}

func (r *sliceReader) readUint8() (uint8, error) {
	b, err := r.readBytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *sliceReader) readUint16() (uint16, error) {
	b, err := r.readBytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *sliceReader) readUint32() (uint32, error) {
	b, err := r.readBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}
