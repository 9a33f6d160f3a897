// Package edid parses the fixed-layout identification block a display
// exposes (EDID). Only the fields needed for identity resolution are
// extracted: manufacturer id, product code and serial number, plus the
// optional string serial hidden in the descriptor blocks.
//
// Layout reference: https://en.wikipedia.org/wiki/Extended_Display_Identification_Data
package edid

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/bryanchriswhite/ScreenGrab/internal/caperr"
)

// BlockSize is the size of the base EDID block. Descriptors shorter than
// this are rejected outright.
const BlockSize = 128

var header = [8]byte{0x00, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x00}

const (
	manufacturerOffset = 8
	productOffset      = 10
	serialOffset       = 12
	descriptorOffset   = 54
	descriptorSize     = 18
	descriptorCount    = 4
)

// Info holds the identity fields of one parsed descriptor.
type Info struct {
	// ManufacturerID is the three-letter PNP id (e.g. "DEL", "SAM").
	ManufacturerID string
	// ProductCode is the manufacturer-assigned model code.
	ProductCode uint16
	// SerialNumber is the numeric serial. Zero means the vendor did not
	// program one; a string serial descriptor may still exist.
	SerialNumber uint32
}

// Parse validates the header signature and extracts the identity fields.
// Returns caperr.ErrMalformedDescriptor (wrapped) for short or invalid
// data so resolvers can fall through to their next tier.
func Parse(data []byte) (Info, error) {
	if len(data) < BlockSize {
		return Info{}, fmt.Errorf("%w: %d bytes, need %d", caperr.ErrMalformedDescriptor, len(data), BlockSize)
	}
	if [8]byte(data[:8]) != header {
		return Info{}, fmt.Errorf("%w: bad header signature", caperr.ErrMalformedDescriptor)
	}

	// Manufacturer id: big-endian u16 holding three 5-bit letters, each
	// biased by +64 into uppercase ASCII.
	packed := binary.BigEndian.Uint16(data[manufacturerOffset:])
	mfg := string([]byte{
		byte(packed>>10&0x1F) + 64,
		byte(packed>>5&0x1F) + 64,
		byte(packed&0x1F) + 64,
	})

	return Info{
		ManufacturerID: mfg,
		ProductCode:    binary.LittleEndian.Uint16(data[productOffset:]),
		SerialNumber:   binary.LittleEndian.Uint32(data[serialOffset:]),
	}, nil
}

// StringSerial scans the four 18-byte descriptor blocks for a serial
// string descriptor (tag 00 00 00 FF) and returns its printable-ASCII
// payload, trimmed. Returns "" when no block carries one.
func StringSerial(data []byte) string {
	for i := 0; i < descriptorCount; i++ {
		off := descriptorOffset + i*descriptorSize
		if off+descriptorSize > len(data) {
			break
		}
		d := data[off : off+descriptorSize]
		if d[0] != 0x00 || d[1] != 0x00 || d[2] != 0x00 || d[3] != 0xFF {
			continue
		}
		var b strings.Builder
		for _, c := range d[5:18] {
			if c >= 0x20 && c <= 0x7E {
				b.WriteByte(c)
			}
		}
		if s := strings.TrimSpace(b.String()); s != "" {
			return s
		}
	}
	return ""
}
