package capture

import (
	"fmt"
	"image"

	"github.com/bryanchriswhite/ScreenGrab/internal/native"
	"github.com/bryanchriswhite/ScreenGrab/internal/pixel"
)

// frameToRGBA converts a raw frame to image.RGBA, cropped to the given
// region in frame coordinates. Only BGRA frames are accepted; a frame
// tagged with any other format means the backend broke its contract.
// When the crop covers the whole frame and rows carry no padding the
// buffer converts in one pass; otherwise each row converts separately
// through the stride.
func frameToRGBA(frame native.RawFrame, crop image.Rectangle) (*image.RGBA, error) {
	if frame.Format != native.FormatBGRA {
		return nil, fmt.Errorf("unexpected pixel format %d, want BGRA", frame.Format)
	}
	full := image.Rect(0, 0, frame.Width, frame.Height)
	crop = crop.Intersect(full)
	if crop.Empty() {
		return nil, fmt.Errorf("crop region outside %dx%d frame", frame.Width, frame.Height)
	}
	if frame.Stride < frame.Width*4 {
		return nil, fmt.Errorf("stride %d too small for width %d", frame.Stride, frame.Width)
	}
	if need := (frame.Height-1)*frame.Stride + frame.Width*4; len(frame.Data) < need {
		return nil, fmt.Errorf("frame buffer %d bytes, need %d", len(frame.Data), need)
	}

	w, h := crop.Dx(), crop.Dy()
	img := image.NewRGBA(image.Rect(0, 0, w, h))

	if crop == full && frame.Stride == frame.Width*4 {
		pixel.ConvertInto(img.Pix, frame.Data[:frame.Width*frame.Height*4])
		return img, nil
	}
	for y := 0; y < h; y++ {
		src := frame.Data[(crop.Min.Y+y)*frame.Stride+crop.Min.X*4:]
		pixel.ConvertRow(img.Pix[y*img.Stride:], src, w)
	}
	return img, nil
}
