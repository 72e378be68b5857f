package archive

import (
	"fmt"
	"hash/crc32"
)

// Checksum integrity is verified with CRC32 (IEEE polynomial): fast,
// hardware-accelerated on modern CPUs, and good at detecting storage
// corruption. It is not cryptographically secure; the archive format only
// defends against accidental corruption, not tampering.

// checksum computes the CRC32 checksum of data.
func checksum(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}

// verifyChecksum recomputes the checksum of the region after the header
// and compares it against the header's declared value.
func verifyChecksum(h *Header, data []byte) error {
	actual := checksum(data[HeaderSize:])
	if actual != h.Checksum {
		return fmt.Errorf("%w: checksum mismatch: expected 0x%08x, got 0x%08x",
			ErrCorrupt, h.Checksum, actual)
	}
	return nil
}
