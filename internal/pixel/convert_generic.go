//go:build !amd64 && !arm64

package pixel

func init() {
	convertPacked = convertQuad
}

// convertQuad processes 4 pixels (16 bytes) per iteration with an
// unrolled byte loop, then hands the tail to the scalar loop.
func convertQuad(dst, src []byte, pixels int) {
	blocks := pixels / 4
	for i := 0; i < blocks; i++ {
		off := i * 16
		dst[off], dst[off+1], dst[off+2], dst[off+3] = src[off+2], src[off+1], src[off], src[off+3]
		dst[off+4], dst[off+5], dst[off+6], dst[off+7] = src[off+6], src[off+5], src[off+4], src[off+7]
		dst[off+8], dst[off+9], dst[off+10], dst[off+11] = src[off+10], src[off+9], src[off+8], src[off+11]
		dst[off+12], dst[off+13], dst[off+14], dst[off+15] = src[off+14], src[off+13], src[off+12], src[off+15]
	}
	if rem := pixels % 4; rem > 0 {
		off := blocks * 16
		convertScalar(dst[off:], src[off:], rem)
	}
}
