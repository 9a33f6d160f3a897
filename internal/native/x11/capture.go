package x11

import (
	"fmt"
	"image"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/bryanchriswhite/ScreenGrab/internal/caperr"
	"github.com/bryanchriswhite/ScreenGrab/internal/native"
)

// CaptureRegion grabs a display-local region from the root window. The
// returned frame is BGRA as the server delivers it.
func (b *Backend) CaptureRegion(id native.DisplayID, region image.Rectangle) (native.RawFrame, error) {
	depth := int(b.screen.RootDepth)
	if depth != 24 && depth != 32 {
		return native.RawFrame{}, fmt.Errorf("root depth %d: %w", depth, caperr.ErrUnsupported)
	}

	display, err := b.displayByID(id)
	if err != nil {
		return native.RawFrame{}, err
	}

	// Translate to root coordinates.
	x := display.Bounds.Min.X + region.Min.X
	y := display.Bounds.Min.Y + region.Min.Y
	width := region.Dx()
	height := region.Dy()

	reply, err := xproto.GetImage(
		b.conn,
		xproto.ImageFormatZPixmap,
		xproto.Drawable(b.root),
		int16(x), int16(y),
		uint16(width), uint16(height),
		0xffffffff,
	).Reply()
	if err != nil {
		return native.RawFrame{}, fmt.Errorf("failed to get image: %w", err)
	}

	if want := width * height * 4; len(reply.Data) < want {
		return native.RawFrame{}, fmt.Errorf("short image reply: %d bytes, want %d", len(reply.Data), want)
	}

	// At depth 24 the fourth byte of each ZPixmap pixel is undefined,
	// typically zero, which would render as a fully transparent image.
	if depth == 24 {
		forceOpaque(reply.Data)
	}

	return native.RawFrame{
		Data:   reply.Data,
		Width:  width,
		Height: height,
		Stride: width * 4,
		Format: native.FormatBGRA,
	}, nil
}

// forceOpaque overwrites the alpha byte of every BGRA pixel with 0xFF.
func forceOpaque(data []byte) {
	for i := 3; i < len(data); i += 4 {
		data[i] = 0xFF
	}
}

func (b *Backend) displayByID(id native.DisplayID) (native.Display, error) {
	displays, err := b.Displays()
	if err != nil {
		return native.Display{}, err
	}
	for _, d := range displays {
		if d.ID == id {
			return d, nil
		}
	}
	return native.Display{}, fmt.Errorf("display %d: %w", id, caperr.ErrNotFound)
}
