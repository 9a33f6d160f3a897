package focus

import (
	"errors"
	"fmt"
	"image"
	"strconv"
	"sync"
	"testing"

	"github.com/bryanchriswhite/ScreenGrab/internal/caperr"
	"github.com/bryanchriswhite/ScreenGrab/internal/identity"
	"github.com/bryanchriswhite/ScreenGrab/internal/native"
)

type fakeWorkspace struct {
	mu          sync.Mutex
	app         native.AppInfo
	windows     []native.Window
	panicOnList bool
	activated   func()
}

func (f *fakeWorkspace) FrontmostApplication() (native.AppInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.app, nil
}

func (f *fakeWorkspace) WindowList() ([]native.Window, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panicOnList {
		panic("window list unavailable")
	}
	return f.windows, nil
}

func (f *fakeWorkspace) SubscribeAppActivated(fn func()) (func(), error) {
	f.activated = fn
	return func() {}, nil
}

func (f *fakeWorkspace) setFrontmost(name string, pid int) {
	f.mu.Lock()
	f.app = native.AppInfo{Name: name, PID: pid}
	f.windows = []native.Window{{ID: 1, PID: pid, Bounds: image.Rect(10, 10, 50, 40)}}
	f.mu.Unlock()
	f.activated()
}

type fakeDisplays struct{}

func (fakeDisplays) Displays() ([]native.Display, error) {
	return []native.Display{{ID: 1, Bounds: image.Rect(0, 0, 100, 100), Primary: true}}, nil
}

func (f fakeDisplays) PrimaryDisplay() (native.Display, error) {
	ds, _ := f.Displays()
	return ds[0], nil
}

// detachedDisplays reports no attached displays without an error.
type detachedDisplays struct{}

func (detachedDisplays) Displays() ([]native.Display, error) { return nil, nil }
func (detachedDisplays) PrimaryDisplay() (native.Display, error) {
	return native.Display{}, fmt.Errorf("no displays: %w", caperr.ErrNotFound)
}

type noDescriptors struct{}

func (noDescriptors) UUID(id native.DisplayID) (string, error) {
	return "", fmt.Errorf("display %d: %w", id, caperr.ErrNotFound)
}

func (noDescriptors) RawDescriptor(id native.DisplayID) ([]byte, error) {
	return nil, fmt.Errorf("display %d: %w", id, caperr.ErrNotFound)
}

func newTestTracker(t *testing.T, ws *fakeWorkspace) *Tracker {
	t.Helper()
	tr, err := NewTracker(ws, fakeDisplays{}, identity.NewResolver(noDescriptors{}))
	if err != nil {
		t.Fatalf("NewTracker: %v", err)
	}
	t.Cleanup(tr.Close)
	return tr
}

func TestTrackerObservesFrontmost(t *testing.T) {
	ws := &fakeWorkspace{
		app:     native.AppInfo{Name: "editor", PID: 1234},
		windows: []native.Window{{ID: 1, PID: 1234, Bounds: image.Rect(10, 10, 50, 40)}},
	}
	tr := newTestTracker(t, ws)

	snap, err := tr.Current()
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if snap.Name != "editor" || snap.PID != 1234 {
		t.Errorf("snapshot = %+v, want editor/1234", snap)
	}
	if snap.DisplayID != "DISPLAY-1" {
		t.Errorf("DisplayID = %q, want DISPLAY-1", snap.DisplayID)
	}
}

func TestTrackerNoDisplaysAttached(t *testing.T) {
	ws := &fakeWorkspace{
		app:     native.AppInfo{Name: "editor", PID: 1234},
		windows: []native.Window{{ID: 1, PID: 1234, Bounds: image.Rect(10, 10, 50, 40)}},
	}
	tr, err := NewTracker(ws, detachedDisplays{}, identity.NewResolver(noDescriptors{}))
	if err != nil {
		t.Fatalf("NewTracker: %v", err)
	}
	t.Cleanup(tr.Close)

	snap, err := tr.Current()
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if snap.Name != "editor" || snap.PID != 1234 {
		t.Errorf("snapshot = %+v, want editor/1234", snap)
	}
	if snap.DisplayID != "" {
		t.Errorf("DisplayID = %q, want empty with no displays", snap.DisplayID)
	}
}

func TestTrackerFollowsActivations(t *testing.T) {
	ws := &fakeWorkspace{app: native.AppInfo{Name: "a", PID: 1}}
	tr := newTestTracker(t, ws)

	ws.setFrontmost("terminal", 4321)

	snap, err := tr.Current()
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if snap.Name != "terminal" || snap.PID != 4321 {
		t.Errorf("snapshot = %+v, want terminal/4321", snap)
	}
}

// Snapshots must never mix fields from two observations. Writers keep
// Name equal to the decimal PID so readers can check consistency.
func TestTrackerSnapshotNotTorn(t *testing.T) {
	ws := &fakeWorkspace{app: native.AppInfo{Name: "1", PID: 1}}
	tr := newTestTracker(t, ws)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				snap, err := tr.Current()
				if err != nil {
					t.Errorf("Current: %v", err)
					return
				}
				if snap.Name != strconv.Itoa(snap.PID) {
					t.Errorf("torn snapshot: name %q, pid %d", snap.Name, snap.PID)
					return
				}
			}
		}()
	}

	for pid := 2; pid < 100; pid++ {
		ws.setFrontmost(strconv.Itoa(pid), pid)
	}
	close(stop)
	wg.Wait()
}

func TestTrackerPoisoned(t *testing.T) {
	ws := &fakeWorkspace{app: native.AppInfo{Name: "a", PID: 7}}
	tr := newTestTracker(t, ws)

	ws.mu.Lock()
	ws.panicOnList = true
	ws.mu.Unlock()
	ws.activated()

	_, err := tr.Current()
	if !errors.Is(err, caperr.ErrStatePoisoned) {
		t.Fatalf("err = %v, want ErrStatePoisoned", err)
	}

	// Poisoning is permanent, later refreshes do not clear it.
	ws.mu.Lock()
	ws.panicOnList = false
	ws.mu.Unlock()
	ws.activated()

	if _, err := tr.Current(); !errors.Is(err, caperr.ErrStatePoisoned) {
		t.Fatalf("err after recovery attempt = %v, want ErrStatePoisoned", err)
	}
}

func TestSharedPublishesOnce(t *testing.T) {
	ws := &fakeWorkspace{app: native.AppInfo{Name: "a", PID: 1}}
	builds := 0
	init := func() (*Tracker, error) {
		builds++
		return NewTracker(ws, fakeDisplays{}, identity.NewResolver(noDescriptors{}))
	}

	first, err := Shared(init)
	if err != nil {
		t.Fatalf("Shared: %v", err)
	}
	second, err := Shared(init)
	if err != nil {
		t.Fatalf("Shared: %v", err)
	}
	if first != second {
		t.Error("Shared returned different trackers")
	}
	if builds != 1 {
		t.Errorf("init ran %d times, want 1", builds)
	}
}
