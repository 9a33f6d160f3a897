package capture

import (
	"image"

	"github.com/bryanchriswhite/ScreenGrab/internal/await"
	"github.com/bryanchriswhite/ScreenGrab/internal/logger"
	"github.com/bryanchriswhite/ScreenGrab/internal/native"
)

// captureStreamed runs one capture over the streaming path. The stream
// is sized to the requested region, so delivered frames convert whole.
// An empty region widens to the full display bounds. The frame sink is
// attached per capture and removed before returning, but the stream
// itself keeps running.
func (s *Session) captureStreamed(display native.Display, region image.Rectangle) (*image.RGBA, error) {
	content, err := s.shareableContent()
	if err != nil {
		return nil, err
	}

	if region.Empty() {
		region = image.Rect(0, 0, display.Bounds.Dx(), display.Bounds.Dy())
	}
	stream, started, err := s.ensureStream(content, display.ID, region)
	if err != nil {
		return nil, err
	}

	h := await.New[native.RawFrame]()
	if err := stream.AddOutput(func(f native.RawFrame) { h.Complete(f, nil) }); err != nil {
		return nil, err
	}
	defer func() {
		if err := stream.RemoveOutput(); err != nil {
			logger.WithComponent("capture").Warn().
				Err(err).
				Uint32("display_id", uint32(display.ID)).
				Msg("Failed to detach frame sink")
		}
	}()

	if !started {
		sh := await.New[struct{}]()
		stream.Start(func(err error) { sh.Complete(struct{}{}, err) })
		if _, err := sh.Await("stream start", s.opts.Deadlines.StreamStart); err != nil {
			return nil, err
		}
		s.markStarted(stream)
	}

	frame, err := h.Await("frame", s.opts.Deadlines.Frame)
	if err != nil {
		return nil, err
	}
	return frameToRGBA(frame, image.Rect(0, 0, frame.Width, frame.Height))
}

// ensureStream returns the cached stream when it matches the display
// and region and has started, otherwise creates a replacement. An
// entry left behind by a failed or timed-out start is never retried;
// it is replaced like any other mismatch. The replaced stream is
// dropped without a stop handshake; tearing it down synchronously
// would stall the capture, and backends reclaim abandoned streams.
func (s *Session) ensureStream(content native.ShareableContent, id native.DisplayID, region image.Rectangle) (native.Stream, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c := s.stream; c != nil && c.display == id && c.region == region && c.started {
		return c.stream, true, nil
	}

	stream, err := s.svcs.Stream.CreateStream(content, id, region)
	if err != nil {
		return nil, false, err
	}
	s.stream = &cachedStream{
		stream:  stream,
		display: id,
		region:  region,
	}
	return stream, false, nil
}

func (s *Session) markStarted(stream native.Stream) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stream != nil && s.stream.stream == stream {
		s.stream.started = true
	}
}
