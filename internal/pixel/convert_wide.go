//go:build amd64 || arm64

package pixel

import "encoding/binary"

func init() {
	convertPacked = convertWide8
}

const (
	keepGA  = 0xFF00FF00FF00FF00 // G and A bytes of two packed pixels
	swapLow = 0x000000FF000000FF // B (or R) bytes of two packed pixels
)

// swapWord swaps the B and R byte of the two BGRA pixels packed into a
// little-endian 64-bit word.
func swapWord(v uint64) uint64 {
	return v&keepGA | v&swapLow<<16 | v>>16&swapLow
}

// convertWide8 processes 8 pixels (32 bytes, four 64-bit words) per
// iteration and leaves the tail to the scalar loop. The word loads are
// little-endian, matching the packed byte order on these targets.
func convertWide8(dst, src []byte, pixels int) {
	blocks := pixels / 8
	for i := 0; i < blocks; i++ {
		off := i * 32
		binary.LittleEndian.PutUint64(dst[off:], swapWord(binary.LittleEndian.Uint64(src[off:])))
		binary.LittleEndian.PutUint64(dst[off+8:], swapWord(binary.LittleEndian.Uint64(src[off+8:])))
		binary.LittleEndian.PutUint64(dst[off+16:], swapWord(binary.LittleEndian.Uint64(src[off+16:])))
		binary.LittleEndian.PutUint64(dst[off+24:], swapWord(binary.LittleEndian.Uint64(src[off+24:])))
	}
	if rem := pixels % 8; rem > 0 {
		off := blocks * 32
		convertScalar(dst[off:], src[off:], rem)
	}
}
