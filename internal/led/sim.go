package led

import (
	"fmt"
	"sync"

	"github.com/coreman2200/wikihat/internal/model"
)

// FrameObserver receives every frame written to a Sim strip together with
// the brightness it was written at.
type FrameObserver func(f model.Frame, brightness uint8)

// Sim is an in-memory strip. It mirrors writes to an optional observer
// (the preview server).
type Sim struct {
	mu         sync.Mutex
	count      int
	brightness uint8
	last       model.Frame
	closed     bool
	observer   FrameObserver
}

func NewSim(count int, observer FrameObserver) *Sim {
	return &Sim{
		count:      count,
		brightness: MaxBrightness,
		last:       model.Blank(count),
		observer:   observer,
	}
}

func (s *Sim) Len() int { return s.count }

func (s *Sim) SetBrightness(level uint8) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.brightness = clampBrightness(level)
	return nil
}

func (s *Sim) Write(f model.Frame) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if len(f) != s.count {
		s.mu.Unlock()
		return fmt.Errorf("frame length %d does not match count %d", len(f), s.count)
	}
	s.last = f.Clone()
	obs, b := s.observer, s.brightness
	s.mu.Unlock()

	if obs != nil {
		obs(f.Clone(), b)
	}
	return nil
}

// Last returns a copy of the most recent frame.
func (s *Sim) Last() model.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last.Clone()
}

func (s *Sim) Brightness() uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.brightness
}

func (s *Sim) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
