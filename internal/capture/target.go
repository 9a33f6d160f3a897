package capture

import (
	"fmt"
	"image"

	"github.com/bryanchriswhite/ScreenGrab/internal/native"
)

// resolveTarget matches a request rectangle in global coordinates to a
// display and converts it to a display-local region. Matching order:
// the display containing the rectangle's center, then the first display
// the rectangle overlaps, then the primary. Empty rectangles take the
// full bounds of the matched display.
func resolveTarget(displays []native.Display, rect image.Rectangle) (native.Display, image.Rectangle, error) {
	if len(displays) == 0 {
		return native.Display{}, image.Rectangle{}, fmt.Errorf("no displays attached")
	}

	display := matchDisplay(displays, rect)

	if rect.Empty() {
		return display, image.Rect(0, 0, display.Bounds.Dx(), display.Bounds.Dy()), nil
	}

	// Clip to the display before going local; requests may hang over an
	// edge.
	clipped := rect.Intersect(display.Bounds)
	if clipped.Empty() {
		return native.Display{}, image.Rectangle{}, fmt.Errorf(
			"region %v lies outside display %d bounds %v", rect, display.ID, display.Bounds)
	}
	return display, clipped.Sub(display.Bounds.Min), nil
}

func matchDisplay(displays []native.Display, rect image.Rectangle) native.Display {
	center := rect.Min.Add(image.Pt(rect.Dx()/2, rect.Dy()/2))
	for _, d := range displays {
		if center.In(d.Bounds) {
			return d
		}
	}
	for _, d := range displays {
		if rect.Overlaps(d.Bounds) {
			return d
		}
	}
	for _, d := range displays {
		if d.Primary {
			return d
		}
	}
	return displays[0]
}
