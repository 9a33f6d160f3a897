// Package native defines the platform abstraction the capture pipeline
// is built against. Backends live in subpackages; everything above this
// layer is platform independent.
package native

import "image"

// DisplayID identifies a display within the current session. IDs are
// stable for the session but not across reboots or replugs.
type DisplayID uint32

// WindowID identifies a top-level window within the current session.
type WindowID uint32

// PixelFormat names the byte order of a RawFrame.
type PixelFormat int

// FormatBGRA is the native order backends deliver; it is the only
// layout the conversion pipeline accepts.
const FormatBGRA PixelFormat = 0

// RawFrame is one captured frame as the backend delivered it. Stride is
// in bytes and may exceed Width*4 when rows carry padding.
type RawFrame struct {
	Data   []byte
	Width  int
	Height int
	Stride int
	Format PixelFormat
}

// Display describes one attached output.
type Display struct {
	ID          DisplayID
	Name        string
	Bounds      image.Rectangle
	Primary     bool
	ScaleFactor float64
}

// Window describes one top-level window. Z is the stacking position,
// zero being frontmost.
type Window struct {
	ID      WindowID
	PID     int
	Title   string
	AppName string
	Bounds  image.Rectangle
	Z       int
}

// AppInfo identifies the frontmost application.
type AppInfo struct {
	Name string
	PID  int
}

// DisplayService enumerates attached displays.
type DisplayService interface {
	Displays() ([]Display, error)
	PrimaryDisplay() (Display, error)
}

// DescriptorService exposes display identity sources. Both methods
// return caperr.ErrNotFound (wrapped) when the backend has nothing for
// the display, letting resolvers fall through to the next tier.
type DescriptorService interface {
	// RawDescriptor returns the display's EDID block, unparsed.
	RawDescriptor(id DisplayID) ([]byte, error)
	// UUID returns a backend-provided stable identifier.
	UUID(id DisplayID) (string, error)
}

// LegacyCapturer is the synchronous capture path, always available.
type LegacyCapturer interface {
	// CaptureRegion grabs the region in display-local coordinates.
	CaptureRegion(id DisplayID, region image.Rectangle) (RawFrame, error)
}

// ShareableContent is the backend's snapshot of capturable displays,
// fetched once and reused across captures.
type ShareableContent interface {
	Displays() []Display
}

// StreamService is the modern asynchronous capture path. Backends that
// cannot offer one report Available() == false and the orchestrator
// stays on the legacy path.
type StreamService interface {
	Available() bool
	// FetchShareableContent resolves the current capturable content and
	// invokes done exactly once, possibly from another thread.
	FetchShareableContent(excludeCurrent bool, done func(ShareableContent, error))
	// CreateStream builds a stream covering the given display-local
	// region. Delivered frames carry the region's dimensions. The stream
	// is not started.
	CreateStream(content ShareableContent, id DisplayID, region image.Rectangle) (Stream, error)
}

// Stream is one live capture stream. A stream carries at most one
// output at a time.
type Stream interface {
	// Start begins delivery and invokes done exactly once.
	Start(done func(error))
	// Stop halts delivery and invokes done exactly once.
	Stop(done func(error))
	// AddOutput registers the frame sink. Fails if one is attached.
	AddOutput(fn func(RawFrame)) error
	// RemoveOutput detaches the current sink.
	RemoveOutput() error
}

// Workspace exposes the frontmost application and window stacking
// order, plus change notification for focus tracking.
type Workspace interface {
	FrontmostApplication() (AppInfo, error)
	// WindowList returns top-level windows in z-order, frontmost first.
	WindowList() ([]Window, error)
	// SubscribeAppActivated invokes fn on every focus change until the
	// returned cancel func is called.
	SubscribeAppActivated(fn func()) (cancel func(), err error)
}
