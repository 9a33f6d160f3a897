package x11

import (
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/bryanchriswhite/ScreenGrab/internal/logger"
	"github.com/bryanchriswhite/ScreenGrab/internal/native"
)

// streamFrameInterval paces the delivery loop. X11 has no push-style
// capture API, so streams poll the server.
const streamFrameInterval = 33 * time.Millisecond

// Available reports whether the streaming path can be used.
func (b *Backend) Available() bool {
	return b.conn != nil
}

// FetchShareableContent snapshots the connected displays and hands them
// to done from a separate goroutine, mirroring how push-style backends
// deliver this callback.
func (b *Backend) FetchShareableContent(excludeCurrent bool, done func(native.ShareableContent, error)) {
	go func() {
		displays, err := b.Displays()
		if err != nil {
			done(nil, err)
			return
		}
		done(&shareableContent{displays: displays, excludeCurrent: excludeCurrent}, nil)
	}()
}

type shareableContent struct {
	displays       []native.Display
	excludeCurrent bool
}

func (s *shareableContent) Displays() []native.Display { return s.displays }

// CreateStream builds a polling stream over one display-local region.
// The stream is idle until Start.
func (b *Backend) CreateStream(content native.ShareableContent, id native.DisplayID, region image.Rectangle) (native.Stream, error) {
	found := false
	for _, d := range content.Displays() {
		if d.ID == id {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("display %d not in shareable content", id)
	}

	return &stream{
		backend: b,
		display: id,
		region:  region,
	}, nil
}

type stream struct {
	backend *Backend
	display native.DisplayID
	region  image.Rectangle

	mu      sync.Mutex
	output  func(native.RawFrame)
	started bool
	stop    chan struct{}
}

func (s *stream) Start(done func(error)) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		done(nil)
		return
	}
	s.started = true
	s.stop = make(chan struct{})
	stop := s.stop
	s.mu.Unlock()

	go s.deliverLoop(stop)
	done(nil)
}

func (s *stream) Stop(done func(error)) {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		done(nil)
		return
	}
	s.started = false
	close(s.stop)
	s.mu.Unlock()
	done(nil)
}

func (s *stream) AddOutput(fn func(native.RawFrame)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.output != nil {
		return fmt.Errorf("stream already has an output")
	}
	s.output = fn
	return nil
}

func (s *stream) RemoveOutput() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.output = nil
	return nil
}

// deliverLoop polls the server and feeds frames to the attached output.
// Frames captured while no output is attached are dropped.
func (s *stream) deliverLoop(stop chan struct{}) {
	log := logger.WithComponent("x11-stream")
	ticker := time.NewTicker(streamFrameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			output := s.output
			s.mu.Unlock()
			if output == nil {
				continue
			}

			frame, err := s.backend.CaptureRegion(s.display, s.region)
			if err != nil {
				log.Warn().
					Err(err).
					Uint32("display_id", uint32(s.display)).
					Msg("Frame capture failed, skipping tick")
				continue
			}
			output(frame)
		}
	}
}
