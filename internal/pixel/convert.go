// Package pixel converts packed BGRA capture buffers to the RGBA layout
// used everywhere downstream. The conversion swaps bytes 0 and 2 of every
// 4-byte group; G and A pass through.
//
// Wide targets get a word-shuffle path that handles 8 pixels per
// iteration (see convert_wide.go); other architectures run a 4-pixel
// unrolled loop. Both hand the tail below their block width to the scalar
// loop, so output is byte-identical no matter which path runs.
package pixel

// convertPacked is chosen per architecture at link time.
var convertPacked func(dst, src []byte, pixels int)

// Convert returns a new RGBA buffer converted from src, which must hold
// packed BGRA pixels (len(src) must be a multiple of 4).
func Convert(src []byte) []byte {
	dst := make([]byte, len(src))
	ConvertInto(dst, src)
	return dst
}

// ConvertInto converts src (packed BGRA) into dst (packed RGBA). dst must
// be at least as long as src. Panics on a short dst or a src length that
// is not a multiple of 4, which indicates a caller bug.
func ConvertInto(dst, src []byte) {
	if len(src)%4 != 0 {
		panic("pixel: source length not a multiple of 4")
	}
	ConvertRow(dst, src, len(src)/4)
}

// ConvertRow converts exactly pixels pixels from src into dst. It is the
// entry point for stride-padded frames: the caller passes one scanline's
// first width*4 bytes at a time.
func ConvertRow(dst, src []byte, pixels int) {
	if pixels == 0 {
		return
	}
	_ = src[pixels*4-1]
	_ = dst[pixels*4-1]
	convertPacked(dst, src, pixels)
}

// convertScalar is the per-pixel reference loop. Every vector path must
// match it byte for byte.
func convertScalar(dst, src []byte, pixels int) {
	for i := 0; i < pixels*4; i += 4 {
		dst[i] = src[i+2]
		dst[i+1] = src[i+1]
		dst[i+2] = src[i]
		dst[i+3] = src[i+3]
	}
}
