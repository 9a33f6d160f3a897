// Package screengrab captures displays and tracks the focused
// application. A Session owns the native connection and the capture
// caches; open one and keep it for the life of the program.
//
//	session, err := screengrab.Open()
//	if err != nil { ... }
//	defer session.Close()
//
//	img, err := session.Primary().Capture()
package screengrab

import (
	"errors"
	"fmt"
	"image"
	"strconv"
	"time"

	"github.com/bryanchriswhite/ScreenGrab/internal/caperr"
	"github.com/bryanchriswhite/ScreenGrab/internal/capture"
	"github.com/bryanchriswhite/ScreenGrab/internal/focus"
	"github.com/bryanchriswhite/ScreenGrab/internal/identity"
	"github.com/bryanchriswhite/ScreenGrab/internal/native"
	"github.com/bryanchriswhite/ScreenGrab/internal/native/x11"
)

// Sentinel errors callers can branch on with errors.Is.
var (
	// ErrTimeout means a bounded capture step expired; the capture fell
	// back where possible.
	ErrTimeout = caperr.ErrTimeout
	// ErrNotFound means no display or window matched the query.
	ErrNotFound = caperr.ErrNotFound
	// ErrInvalidRegion means a capture rectangle had no area.
	ErrInvalidRegion = errors.New("capture region has no area")
)

// Option tunes a Session.
type Option func(*options)

type options struct {
	captureOpts capture.Options
}

// WithExcludeSelf removes this process's own windows from captured
// content, where the backend supports it.
func WithExcludeSelf() Option {
	return func(o *options) { o.captureOpts.ExcludeCurrent = true }
}

// WithDeadlines bounds the asynchronous steps of streamed captures.
// Zero values keep the defaults.
func WithDeadlines(content, streamStart, frame time.Duration) Option {
	return func(o *options) {
		o.captureOpts.Deadlines = capture.Deadlines{
			Content:     content,
			StreamStart: streamStart,
			Frame:       frame,
		}
	}
}

// Session is one connection to the native display system.
type Session struct {
	displays  native.DisplayService
	workspace native.Workspace
	resolver  *identity.Resolver
	cap       *capture.Session
	close     func()
}

// Open connects to the display system.
func Open(opts ...Option) (*Session, error) {
	backend, err := x11.New()
	if err != nil {
		return nil, fmt.Errorf("failed to open display backend: %w", err)
	}
	s := newSession(sessionServices{
		displays:    backend,
		descriptors: backend,
		legacy:      backend,
		stream:      backend,
		workspace:   backend,
		close:       backend.Close,
	}, opts...)
	return s, nil
}

type sessionServices struct {
	displays    native.DisplayService
	descriptors native.DescriptorService
	legacy      native.LegacyCapturer
	stream      native.StreamService
	workspace   native.Workspace
	close       func()
}

func newSession(svcs sessionServices, opts ...Option) *Session {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return &Session{
		displays:  svcs.displays,
		workspace: svcs.workspace,
		resolver:  identity.NewResolver(svcs.descriptors),
		cap: capture.NewSession(capture.Services{
			Displays: svcs.displays,
			Legacy:   svcs.legacy,
			Stream:   svcs.stream,
		}, o.captureOpts),
		close: svcs.close,
	}
}

// Close releases the native connection. Captures on a closed session
// fail.
func (s *Session) Close() {
	if s.close != nil {
		s.close()
	}
}

// Display is one attached output, bound to the session that enumerated
// it.
type Display struct {
	// ID is the session-scoped native identifier.
	ID uint32
	// UUID is the stable identity, surviving reboots when the display
	// exposes a descriptor.
	UUID        string
	Name        string
	Bounds      image.Rectangle
	IsPrimary   bool
	ScaleFactor float64

	session *Session
}

// Displays enumerates attached displays.
func (s *Session) Displays() ([]Display, error) {
	nds, err := s.displays.Displays()
	if err != nil {
		return nil, err
	}
	displays := make([]Display, len(nds))
	for i, nd := range nds {
		displays[i] = s.wrapDisplay(nd)
	}
	return displays, nil
}

// Primary returns the primary display.
func (s *Session) Primary() (Display, error) {
	nd, err := s.displays.PrimaryDisplay()
	if err != nil {
		return Display{}, err
	}
	return s.wrapDisplay(nd), nil
}

// FromPoint returns the display containing the point in global
// coordinates.
func (s *Session) FromPoint(p image.Point) (Display, error) {
	nds, err := s.displays.Displays()
	if err != nil {
		return Display{}, err
	}
	for _, nd := range nds {
		if p.In(nd.Bounds) {
			return s.wrapDisplay(nd), nil
		}
	}
	return Display{}, fmt.Errorf("no display contains %v: %w", p, ErrNotFound)
}

// FromUniqueKey finds a display by serial number, UUID or numeric id,
// in that order.
func (s *Session) FromUniqueKey(key string) (Display, error) {
	nds, err := s.displays.Displays()
	if err != nil {
		return Display{}, err
	}

	for _, nd := range nds {
		if serial, err := s.resolver.Serial(nd.ID); err == nil && serial == key {
			return s.wrapDisplay(nd), nil
		}
	}
	for _, nd := range nds {
		if s.resolver.UUID(nd.ID) == key {
			return s.wrapDisplay(nd), nil
		}
	}
	if id, err := strconv.ParseUint(key, 10, 32); err == nil {
		for _, nd := range nds {
			if nd.ID == native.DisplayID(id) {
				return s.wrapDisplay(nd), nil
			}
		}
	}
	return Display{}, fmt.Errorf("no display matches %q: %w", key, ErrNotFound)
}

func (s *Session) wrapDisplay(nd native.Display) Display {
	return Display{
		ID:          uint32(nd.ID),
		UUID:        s.resolver.UUID(nd.ID),
		Name:        nd.Name,
		Bounds:      nd.Bounds,
		IsPrimary:   nd.Primary,
		ScaleFactor: nd.ScaleFactor,
		session:     s,
	}
}

// Serial resolves the display's serial number. Wraps a sentinel the
// caller can test with errors.Is when the display exposes none; use
// UUID identity then.
func (d Display) Serial() (string, error) {
	return d.session.resolver.Serial(native.DisplayID(d.ID))
}

// Capture grabs the display's full bounds.
func (d Display) Capture() (*image.RGBA, error) {
	return d.session.cap.CaptureDisplay(native.DisplayID(d.ID))
}

// CaptureRegion grabs a rectangle in display-local coordinates.
func (d Display) CaptureRegion(rect image.Rectangle) (*image.RGBA, error) {
	if rect.Dx() <= 0 || rect.Dy() <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRegion, rect)
	}
	return d.session.cap.Capture(rect.Add(d.Bounds.Min))
}

// CaptureArea grabs a rectangle in global coordinates, matching it to
// whichever display it falls on.
func (s *Session) CaptureArea(rect image.Rectangle) (*image.RGBA, error) {
	if rect.Dx() <= 0 || rect.Dy() <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRegion, rect)
	}
	return s.cap.Capture(rect)
}

// Refresh drops cached capture state so the next capture sees the
// current display topology. Call after plugging or unplugging a
// monitor.
func (s *Session) Refresh() {
	s.cap.InvalidateContent()
}

// Window is one visible top-level window, bound to the session that
// enumerated it. Unmapped and zero-sized windows are never listed.
type Window struct {
	ID      uint32          `json:"id"`
	Title   string          `json:"title"`
	AppName string          `json:"app_name"`
	PID     int             `json:"pid"`
	Bounds  image.Rectangle `json:"bounds"`
	// Z is the stacking position, zero being frontmost.
	Z int `json:"z"`
	// IsFocused marks the window the user is working in.
	IsFocused bool `json:"is_focused"`

	session *Session
}

// Windows lists top-level windows, frontmost first.
func (s *Session) Windows() ([]Window, error) {
	nws, err := s.workspace.WindowList()
	if err != nil {
		return nil, err
	}

	var frontPID int
	if app, err := s.workspace.FrontmostApplication(); err == nil {
		frontPID = app.PID
	}

	windows := make([]Window, len(nws))
	for i, nw := range nws {
		windows[i] = Window{
			ID:        uint32(nw.ID),
			Title:     nw.Title,
			AppName:   nw.AppName,
			PID:       nw.PID,
			Bounds:    nw.Bounds,
			Z:         nw.Z,
			IsFocused: nw.Z == 0 && frontPID != 0 && nw.PID == frontPID,
			session:   s,
		}
	}
	return windows, nil
}

// CurrentDisplay returns the display hosting the window: center
// containment first, then overlap, then the primary.
func (w Window) CurrentDisplay() (Display, error) {
	center := w.Bounds.Min.Add(image.Pt(w.Bounds.Dx()/2, w.Bounds.Dy()/2))
	if d, err := w.session.FromPoint(center); err == nil {
		return d, nil
	}

	nds, err := w.session.displays.Displays()
	if err != nil {
		return Display{}, err
	}
	for _, nd := range nds {
		if w.Bounds.Overlaps(nd.Bounds) {
			return w.session.wrapDisplay(nd), nil
		}
	}
	return w.session.Primary()
}

// CaptureImage grabs the window's bounds from the screen. Content of
// overlapping windows above it is included; this is a screen crop, not
// an off-screen window render.
func (w Window) CaptureImage() (*image.RGBA, error) {
	if w.Bounds.Dx() <= 0 || w.Bounds.Dy() <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRegion, w.Bounds)
	}
	return w.session.cap.Capture(w.Bounds)
}

// Focus is one observation of the frontmost application.
type Focus = focus.Snapshot

// CurrentFocus reports the frontmost application and the identity of
// the display it occupies. The underlying tracker is process-wide and
// starts on first call.
func (s *Session) CurrentFocus() (Focus, error) {
	tracker, err := focus.Shared(func() (*focus.Tracker, error) {
		return focus.NewTracker(s.workspace, s.displays, s.resolver)
	})
	if err != nil {
		return Focus{}, err
	}
	return tracker.Current()
}
