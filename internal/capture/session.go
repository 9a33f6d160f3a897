// Package capture orchestrates screen capture. Every capture goes
// through one entry point that prefers the backend's streaming path and
// falls back to the synchronous one when streaming is unavailable or
// misbehaves within its deadlines.
package capture

import (
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/bryanchriswhite/ScreenGrab/internal/await"
	"github.com/bryanchriswhite/ScreenGrab/internal/logger"
	"github.com/bryanchriswhite/ScreenGrab/internal/native"
)

// DefaultDeadline bounds each step of the streaming path.
const DefaultDeadline = 500 * time.Millisecond

// Deadlines bound the three asynchronous steps of a streamed capture.
// Zero fields take DefaultDeadline.
type Deadlines struct {
	Content     time.Duration
	StreamStart time.Duration
	Frame       time.Duration
}

func (d Deadlines) withDefaults() Deadlines {
	if d.Content <= 0 {
		d.Content = DefaultDeadline
	}
	if d.StreamStart <= 0 {
		d.StreamStart = DefaultDeadline
	}
	if d.Frame <= 0 {
		d.Frame = DefaultDeadline
	}
	return d
}

// Services are the backend pieces a session captures through. Stream
// may be nil for backends without a streaming path.
type Services struct {
	Displays native.DisplayService
	Legacy   native.LegacyCapturer
	Stream   native.StreamService
}

// Options tune session behavior.
type Options struct {
	// ExcludeCurrent removes this process's own windows from captured
	// content, where the backend supports it.
	ExcludeCurrent bool
	Deadlines      Deadlines
}

// Session owns the capture caches. Shareable content and streams are
// expensive to establish, so a session keeps both alive across
// captures: content per exclusion flag, and one stream keyed by
// display and captured region. A stream that survives a capture is
// left running so the next capture with the same key skips both the
// create and the start handshake.
type Session struct {
	svcs Services
	opts Options

	mu      sync.Mutex
	content map[bool]native.ShareableContent
	stream  *cachedStream
}

type cachedStream struct {
	stream  native.Stream
	display native.DisplayID
	region  image.Rectangle
	started bool
}

// NewSession builds a session over the given backend services.
func NewSession(svcs Services, opts Options) *Session {
	opts.Deadlines = opts.Deadlines.withDefaults()
	return &Session{
		svcs:    svcs,
		opts:    opts,
		content: make(map[bool]native.ShareableContent),
	}
}

// Capture grabs the given rectangle in global coordinates. An empty
// rectangle means the full bounds of the matched display. The matched
// display is the one containing the rectangle's center, else the first
// one the rectangle overlaps, else the primary.
func (s *Session) Capture(rect image.Rectangle) (*image.RGBA, error) {
	displays, err := s.svcs.Displays.Displays()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate displays: %w", err)
	}

	display, region, err := resolveTarget(displays, rect)
	if err != nil {
		return nil, err
	}
	return s.captureOn(display, region)
}

// CaptureDisplay grabs the full bounds of one display.
func (s *Session) CaptureDisplay(id native.DisplayID) (*image.RGBA, error) {
	displays, err := s.svcs.Displays.Displays()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate displays: %w", err)
	}
	for _, d := range displays {
		if d.ID == id {
			region := image.Rect(0, 0, d.Bounds.Dx(), d.Bounds.Dy())
			return s.captureOn(d, region)
		}
	}
	return nil, fmt.Errorf("display %d not found", id)
}

func (s *Session) captureOn(display native.Display, region image.Rectangle) (*image.RGBA, error) {
	if s.svcs.Stream != nil && s.svcs.Stream.Available() {
		img, err := s.captureStreamed(display, region)
		if err == nil {
			return img, nil
		}
		logger.WithComponent("capture").Warn().
			Err(err).
			Uint32("display_id", uint32(display.ID)).
			Msg("Streamed capture failed, falling back to synchronous path")
	}
	return s.captureSync(display, region)
}

// shareableContent returns cached content for the session's exclusion
// flag, fetching it once with a bounded wait.
func (s *Session) shareableContent() (native.ShareableContent, error) {
	exclude := s.opts.ExcludeCurrent

	s.mu.Lock()
	if c, ok := s.content[exclude]; ok {
		s.mu.Unlock()
		return c, nil
	}
	s.mu.Unlock()

	h := await.New[native.ShareableContent]()
	s.svcs.Stream.FetchShareableContent(exclude, h.Complete)
	content, err := h.Await("shareable content", s.opts.Deadlines.Content)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.content[exclude] = content
	s.mu.Unlock()
	return content, nil
}

// InvalidateContent drops cached shareable content, forcing the next
// capture to re-fetch. Call after display topology changes.
func (s *Session) InvalidateContent() {
	s.mu.Lock()
	s.content = make(map[bool]native.ShareableContent)
	s.mu.Unlock()
}
