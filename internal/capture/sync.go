package capture

import (
	"fmt"
	"image"

	"github.com/bryanchriswhite/ScreenGrab/internal/native"
)

// captureSync runs one capture over the synchronous path. This path has
// no caches and no deadlines; it blocks until the backend answers.
func (s *Session) captureSync(display native.Display, region image.Rectangle) (*image.RGBA, error) {
	frame, err := s.svcs.Legacy.CaptureRegion(display.ID, region)
	if err != nil {
		return nil, fmt.Errorf("synchronous capture failed: %w", err)
	}
	// The frame already covers exactly the requested region.
	return frameToRGBA(frame, image.Rect(0, 0, frame.Width, frame.Height))
}
