package x11

import (
	"fmt"
	"image"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/bryanchriswhite/ScreenGrab/internal/caperr"
	"github.com/bryanchriswhite/ScreenGrab/internal/logger"
	"github.com/bryanchriswhite/ScreenGrab/internal/native"
)

// activatePollInterval paces focus-change detection.
const activatePollInterval = 200 * time.Millisecond

// FrontmostApplication resolves the active window's application via
// EWMH properties.
func (b *Backend) FrontmostApplication() (native.AppInfo, error) {
	win, err := b.activeWindow()
	if err != nil {
		return native.AppInfo{}, err
	}

	info := native.AppInfo{Name: b.appName(win)}
	if pidAtom, err := b.atom("_NET_WM_PID"); err == nil {
		if pid, err := b.propertyCardinal(win, pidAtom); err == nil {
			info.PID = int(pid)
		}
	}
	if info.Name == "" && info.PID == 0 {
		return native.AppInfo{}, fmt.Errorf("active window carries no identity: %w", caperr.ErrNotFound)
	}
	return info, nil
}

// WindowList returns top-level windows frontmost first, from the EWMH
// stacking list.
func (b *Backend) WindowList() ([]native.Window, error) {
	stackAtom, err := b.atom("_NET_CLIENT_LIST_STACKING")
	if err != nil {
		return nil, err
	}
	reply, err := xproto.GetProperty(
		b.conn,
		false,
		b.root,
		stackAtom,
		xproto.AtomWindow,
		0,
		(1<<32)-1,
	).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to read stacking list: %w", err)
	}

	// The property is bottom-to-top; walk it in reverse so index zero is
	// the frontmost window.
	n := len(reply.Value) / 4
	windows := make([]native.Window, 0, n)
	for i := n - 1; i >= 0; i-- {
		v := reply.Value[i*4:]
		win := xproto.Window(uint32(v[0]) | uint32(v[1])<<8 | uint32(v[2])<<16 | uint32(v[3])<<24)

		w, err := b.windowInfo(win)
		if err != nil {
			continue
		}
		w.Z = len(windows)
		windows = append(windows, w)
	}
	return windows, nil
}

// SubscribeAppActivated polls the active window and invokes fn when it
// changes. The returned cancel stops the poll loop.
func (b *Backend) SubscribeAppActivated(fn func()) (func(), error) {
	if _, err := b.atom("_NET_ACTIVE_WINDOW"); err != nil {
		return nil, fmt.Errorf("window manager does not expose active window: %w", err)
	}

	stop := make(chan struct{})
	var once sync.Once

	go func() {
		log := logger.WithComponent("x11-workspace")
		ticker := time.NewTicker(activatePollInterval)
		defer ticker.Stop()

		last, _ := b.activeWindow()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				win, err := b.activeWindow()
				if err != nil {
					log.Debug().Err(err).Msg("Active window query failed")
					continue
				}
				if win != last {
					last = win
					fn()
				}
			}
		}
	}()

	return func() { once.Do(func() { close(stop) }) }, nil
}

func (b *Backend) activeWindow() (xproto.Window, error) {
	activeAtom, err := b.atom("_NET_ACTIVE_WINDOW")
	if err != nil {
		return 0, err
	}
	win, err := b.propertyWindow(b.root, activeAtom)
	if err != nil {
		return 0, fmt.Errorf("no active window: %w", caperr.ErrNotFound)
	}
	return win, nil
}

func (b *Backend) windowInfo(win xproto.Window) (native.Window, error) {
	// Unmapped or degenerate windows are not shareable and stay out of
	// the list.
	attrs, err := xproto.GetWindowAttributes(b.conn, win).Reply()
	if err != nil {
		return native.Window{}, err
	}
	if attrs.Class != xproto.WindowClassInputOutput || attrs.MapState != xproto.MapStateViewable {
		return native.Window{}, fmt.Errorf("window %d not viewable", win)
	}

	geom, err := xproto.GetGeometry(b.conn, xproto.Drawable(win)).Reply()
	if err != nil {
		return native.Window{}, err
	}
	if geom.Width == 0 || geom.Height == 0 {
		return native.Window{}, fmt.Errorf("window %d has no area", win)
	}

	// Window geometry is parent-relative; translate to root coordinates.
	x, y := int(geom.X), int(geom.Y)
	if trans, err := xproto.TranslateCoordinates(b.conn, win, b.root, 0, 0).Reply(); err == nil {
		x, y = int(trans.DstX), int(trans.DstY)
	}

	w := native.Window{
		ID:      native.WindowID(win),
		AppName: b.appName(win),
		Bounds:  image.Rect(x, y, x+int(geom.Width), y+int(geom.Height)),
	}

	if titleAtom, err := b.atom("_NET_WM_NAME"); err == nil {
		if title, err := b.propertyString(win, titleAtom); err == nil {
			w.Title = title
		}
	}
	if w.Title == "" {
		if titleAtom, err := b.atom("WM_NAME"); err == nil {
			if title, err := b.propertyString(win, titleAtom); err == nil {
				w.Title = title
			}
		}
	}
	if pidAtom, err := b.atom("_NET_WM_PID"); err == nil {
		if pid, err := b.propertyCardinal(win, pidAtom); err == nil {
			w.PID = int(pid)
		}
	}
	return w, nil
}

// appName reads the class half of WM_CLASS, the closest X11 analogue of
// an application name.
func (b *Backend) appName(win xproto.Window) string {
	classAtom, err := b.atom("WM_CLASS")
	if err != nil {
		return ""
	}
	raw, err := b.propertyString(win, classAtom)
	if err != nil {
		return ""
	}
	// WM_CLASS holds "instance\0class\0".
	parts := strings.Split(strings.TrimRight(raw, "\x00"), "\x00")
	if len(parts) == 2 {
		return parts[1]
	}
	return parts[0]
}
