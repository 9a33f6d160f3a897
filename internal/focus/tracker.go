// Package focus tracks the frontmost application and the display it
// occupies. One tracker serves the whole process; it subscribes to
// activation events once and keeps the latest observation behind a
// read-write lock.
package focus

import (
	"fmt"
	"image"
	"sync"
	"sync/atomic"

	"github.com/bryanchriswhite/ScreenGrab/internal/caperr"
	"github.com/bryanchriswhite/ScreenGrab/internal/identity"
	"github.com/bryanchriswhite/ScreenGrab/internal/logger"
	"github.com/bryanchriswhite/ScreenGrab/internal/mainthread"
	"github.com/bryanchriswhite/ScreenGrab/internal/native"
)

// Snapshot is one consistent observation of the frontmost application.
// DisplayID is the stable identity of the display hosting its
// frontmost window.
type Snapshot struct {
	Name      string
	PID       int
	DisplayID string
}

// Tracker observes focus changes. Use Shared for the process-wide
// instance.
type Tracker struct {
	workspace native.Workspace
	displays  native.DisplayService
	resolver  *identity.Resolver
	cancel    func()

	mu       sync.RWMutex
	current  Snapshot
	poisoned bool
}

var shared atomic.Pointer[Tracker]

// Shared returns the process-wide tracker, building one through init on
// first use. Concurrent first calls race to publish; losers shut their
// tracker down and adopt the winner's.
func Shared(init func() (*Tracker, error)) (*Tracker, error) {
	if t := shared.Load(); t != nil {
		return t, nil
	}
	t, err := init()
	if err != nil {
		return nil, err
	}
	if !shared.CompareAndSwap(nil, t) {
		t.Close()
		return shared.Load(), nil
	}
	return t, nil
}

// NewTracker subscribes to activation events and takes the first
// observation. Subscription setup runs on the dedicated native thread.
func NewTracker(workspace native.Workspace, displays native.DisplayService, resolver *identity.Resolver) (*Tracker, error) {
	t := &Tracker{
		workspace: workspace,
		displays:  displays,
		resolver:  resolver,
	}

	var subErr error
	mainthread.Do(func() {
		t.cancel, subErr = workspace.SubscribeAppActivated(t.refresh)
		if subErr == nil {
			t.refresh()
		}
	})
	if subErr != nil {
		return nil, fmt.Errorf("failed to subscribe to activation events: %w", subErr)
	}
	return t, nil
}

// Close cancels the activation subscription.
func (t *Tracker) Close() {
	if t.cancel != nil {
		t.cancel()
	}
}

// Current returns the latest observation. Returns
// caperr.ErrStatePoisoned after a refresh panicked; the tracker holds
// whatever it observed last and will not update again.
func (t *Tracker) Current() (Snapshot, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.poisoned {
		return Snapshot{}, caperr.ErrStatePoisoned
	}
	return t.current, nil
}

// refresh recomputes the snapshot under the write lock, so readers
// never see a half-written observation. A panic inside the lock leaves
// unknown state behind; the tracker marks itself poisoned instead of
// serving it.
func (t *Tracker) refresh() {
	t.mu.Lock()
	defer t.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			t.poisoned = true
			logger.WithComponent("focus").Error().
				Interface("panic", r).
				Msg("Focus refresh panicked, tracker poisoned")
		}
	}()
	if t.poisoned {
		return
	}

	snap, err := t.observe()
	if err != nil {
		logger.WithComponent("focus").Debug().
			Err(err).
			Msg("Focus observation failed, keeping previous snapshot")
		return
	}
	t.current = snap
}

func (t *Tracker) observe() (Snapshot, error) {
	app, err := t.workspace.FrontmostApplication()
	if err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{Name: app.Name, PID: app.PID}
	snap.DisplayID = t.displayIdentity(app.PID)
	return snap, nil
}

// displayIdentity finds the display hosting the app's frontmost window
// and resolves its identity: serial when the display exposes one, UUID
// otherwise. Returns "" when the app has no visible window.
func (t *Tracker) displayIdentity(pid int) string {
	windows, err := t.workspace.WindowList()
	if err != nil {
		return ""
	}
	displays, err := t.displays.Displays()
	if err != nil || len(displays) == 0 {
		return ""
	}

	// The list is frontmost first, so the first window of the pid is
	// the one the user sees.
	for _, w := range windows {
		if w.PID != pid {
			continue
		}
		d := displayFor(displays, w.Bounds)
		if serial, err := t.resolver.Serial(d.ID); err == nil {
			return serial
		}
		return t.resolver.UUID(d.ID)
	}
	return ""
}

// displayFor matches a window rectangle to a display: center
// containment first, then overlap, then the primary.
func displayFor(displays []native.Display, bounds image.Rectangle) native.Display {
	center := bounds.Min.Add(image.Pt(bounds.Dx()/2, bounds.Dy()/2))
	for _, d := range displays {
		if center.In(d.Bounds) {
			return d
		}
	}
	for _, d := range displays {
		if bounds.Overlaps(d.Bounds) {
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
