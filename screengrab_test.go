package screengrab

import (
	"errors"
	"fmt"
	"image"
	"testing"

	"github.com/bryanchriswhite/ScreenGrab/internal/caperr"
	"github.com/bryanchriswhite/ScreenGrab/internal/native"
)

type fakeBackend struct {
	displays []native.Display
	windows  []native.Window
	edids    map[native.DisplayID][]byte
	captures int
}

func (f *fakeBackend) Displays() ([]native.Display, error) { return f.displays, nil }

func (f *fakeBackend) PrimaryDisplay() (native.Display, error) {
	for _, d := range f.displays {
		if d.Primary {
			return d, nil
		}
	}
	return f.displays[0], nil
}

func (f *fakeBackend) UUID(id native.DisplayID) (string, error) {
	return "", fmt.Errorf("display %d: %w", id, caperr.ErrNotFound)
}

func (f *fakeBackend) RawDescriptor(id native.DisplayID) ([]byte, error) {
	if d, ok := f.edids[id]; ok {
		return d, nil
	}
	return nil, fmt.Errorf("display %d: %w", id, caperr.ErrNotFound)
}

func (f *fakeBackend) CaptureRegion(id native.DisplayID, region image.Rectangle) (native.RawFrame, error) {
	f.captures++
	w, h := region.Dx(), region.Dy()
	data := make([]byte, w*h*4)
	for i := 0; i < len(data); i += 4 {
		data[i], data[i+1], data[i+2], data[i+3] = 0xB0, 0x60, 0x20, 0xFF
	}
	return native.RawFrame{Data: data, Width: w, Height: h, Stride: w * 4, Format: native.FormatBGRA}, nil
}

func (f *fakeBackend) FrontmostApplication() (native.AppInfo, error) {
	return native.AppInfo{Name: "app", PID: 1}, nil
}

func (f *fakeBackend) WindowList() ([]native.Window, error) { return f.windows, nil }

func (f *fakeBackend) SubscribeAppActivated(fn func()) (func(), error) {
	return func() {}, nil
}

func testEDID(mfg string, product uint16, serial uint32) []byte {
	data := make([]byte, 128)
	copy(data, []byte{0x00, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x00})
	packed := uint16(mfg[0]-64)<<10 | uint16(mfg[1]-64)<<5 | uint16(mfg[2]-64)
	data[8], data[9] = byte(packed>>8), byte(packed)
	data[10], data[11] = byte(product), byte(product>>8)
	data[12], data[13], data[14], data[15] = byte(serial), byte(serial>>8), byte(serial>>16), byte(serial>>24)
	return data
}

func testSession() (*Session, *fakeBackend) {
	b := &fakeBackend{
		displays: []native.Display{
			{ID: 1, Name: "eDP-1", Bounds: image.Rect(0, 0, 64, 48), Primary: true, ScaleFactor: 1},
			{ID: 2, Name: "DP-1", Bounds: image.Rect(64, 0, 128, 48), ScaleFactor: 1},
		},
		windows: []native.Window{
			{ID: 10, PID: 1, Title: "front", Bounds: image.Rect(5, 5, 30, 30)},
			{ID: 11, PID: 2, Title: "back", Bounds: image.Rect(70, 5, 90, 30), Z: 1},
		},
		edids: map[native.DisplayID][]byte{
			1: testEDID("DEL", 0xA0C5, 4242),
		},
	}
	s := newSession(sessionServices{
		displays:    b,
		descriptors: b,
		legacy:      b,
		workspace:   b,
	})
	return s, b
}

func TestDisplaysCarryIdentity(t *testing.T) {
	s, _ := testSession()

	displays, err := s.Displays()
	if err != nil {
		t.Fatalf("Displays: %v", err)
	}
	if len(displays) != 2 {
		t.Fatalf("got %d displays, want 2", len(displays))
	}
	if displays[0].UUID != "DEL-A0C5-00001092" {
		t.Errorf("UUID = %q, want DEL-A0C5-00001092", displays[0].UUID)
	}
	// No descriptor on the second display, identity degrades to a
	// session handle.
	if displays[1].UUID != "DISPLAY-2" {
		t.Errorf("UUID = %q, want DISPLAY-2", displays[1].UUID)
	}
}

func TestDisplaySerial(t *testing.T) {
	s, _ := testSession()

	displays, _ := s.Displays()
	serial, err := displays[0].Serial()
	if err != nil {
		t.Fatalf("Serial: %v", err)
	}
	if serial != "4242" {
		t.Errorf("Serial = %q, want 4242", serial)
	}

	if _, err := displays[1].Serial(); !errors.Is(err, caperr.ErrSerialUnavailable) {
		t.Errorf("err = %v, want ErrSerialUnavailable", err)
	}
}

func TestFromPoint(t *testing.T) {
	s, _ := testSession()

	d, err := s.FromPoint(image.Pt(100, 20))
	if err != nil {
		t.Fatalf("FromPoint: %v", err)
	}
	if d.ID != 2 {
		t.Errorf("display = %d, want 2", d.ID)
	}

	if _, err := s.FromPoint(image.Pt(500, 500)); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestFromUniqueKey(t *testing.T) {
	s, _ := testSession()

	cases := []struct {
		key  string
		want uint32
	}{
		{"4242", 1},             // serial
		{"DEL-A0C5-00001092", 1}, // UUID
		{"DISPLAY-2", 2},        // session handle
		{"2", 2},                // numeric id
	}
	for _, c := range cases {
		d, err := s.FromUniqueKey(c.key)
		if err != nil {
			t.Errorf("FromUniqueKey(%q): %v", c.key, err)
			continue
		}
		if d.ID != c.want {
			t.Errorf("FromUniqueKey(%q) = display %d, want %d", c.key, d.ID, c.want)
		}
	}

	if _, err := s.FromUniqueKey("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestCaptureRegionValidation(t *testing.T) {
	s, _ := testSession()
	displays, _ := s.Displays()

	if _, err := displays[0].CaptureRegion(image.Rect(10, 10, 10, 20)); !errors.Is(err, ErrInvalidRegion) {
		t.Errorf("err = %v, want ErrInvalidRegion", err)
	}
	if _, err := s.CaptureArea(image.Rectangle{}); !errors.Is(err, ErrInvalidRegion) {
		t.Errorf("err = %v, want ErrInvalidRegion", err)
	}
}

func TestDisplayCapture(t *testing.T) {
	s, b := testSession()
	displays, _ := s.Displays()

	img, err := displays[0].Capture()
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if got := img.Bounds(); got.Dx() != 64 || got.Dy() != 48 {
		t.Errorf("bounds = %v, want 64x48", got)
	}
	if b.captures != 1 {
		t.Errorf("backend captured %d times, want 1", b.captures)
	}
}

func TestWindowsFrontmostFirst(t *testing.T) {
	s, _ := testSession()

	windows, err := s.Windows()
	if err != nil {
		t.Fatalf("Windows: %v", err)
	}
	if len(windows) != 2 {
		t.Fatalf("got %d windows, want 2", len(windows))
	}
	if windows[0].Title != "front" || windows[0].Z != 0 {
		t.Errorf("first window = %+v, want frontmost", windows[0])
	}
	if !windows[0].IsFocused {
		t.Error("frontmost window of the active app not marked focused")
	}
	if windows[1].IsFocused {
		t.Error("background window marked focused")
	}
}

func TestWindowCurrentDisplay(t *testing.T) {
	s, _ := testSession()

	windows, err := s.Windows()
	if err != nil {
		t.Fatalf("Windows: %v", err)
	}

	d, err := windows[0].CurrentDisplay()
	if err != nil {
		t.Fatalf("CurrentDisplay: %v", err)
	}
	if d.ID != 1 {
		t.Errorf("display = %d, want 1", d.ID)
	}

	d, err = windows[1].CurrentDisplay()
	if err != nil {
		t.Fatalf("CurrentDisplay: %v", err)
	}
	if d.ID != 2 {
		t.Errorf("display = %d, want 2", d.ID)
	}
}

func TestWindowCaptureImage(t *testing.T) {
	s, _ := testSession()

	windows, err := s.Windows()
	if err != nil {
		t.Fatalf("Windows: %v", err)
	}

	img, err := windows[0].CaptureImage()
	if err != nil {
		t.Fatalf("CaptureImage: %v", err)
	}
	if got := img.Bounds(); got.Dx() != 25 || got.Dy() != 25 {
		t.Errorf("bounds = %v, want 25x25", got)
	}
}
