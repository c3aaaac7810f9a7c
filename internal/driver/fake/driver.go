// Package fake provides recording peripherals for headless tests.
package fake

import (
	"fmt"
	"sync"

	"github.com/coreman2200/wikihat/internal/model"
)

// Strip records every call made to it.
type Strip struct {
	N int

	// WriteErr, when set, is consulted for every Write with the 1-based
	// call number.
	WriteErr         func(call int) error
	SetBrightnessErr error
	CloseErr         error

	mu         sync.Mutex
	frames     []model.Frame
	brightness []uint8
	writeCalls int
	closeCalls int
	closed     bool
}

func NewStrip(n int) *Strip { return &Strip{N: n} }

func (s *Strip) Len() int { return s.N }

func (s *Strip) SetBrightness(level uint8) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.brightness = append(s.brightness, level)
	return s.SetBrightnessErr
}

func (s *Strip) Write(f model.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeCalls++
	if len(f) != s.N {
		return fmt.Errorf("frame length %d does not match count %d", len(f), s.N)
	}
	if s.WriteErr != nil {
		if err := s.WriteErr(s.writeCalls); err != nil {
			return err
		}
	}
	s.frames = append(s.frames, f.Clone())
	return nil
}

func (s *Strip) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeCalls++
	s.closed = true
	return s.CloseErr
}

// Frames returns every successfully written frame, oldest first.
func (s *Strip) Frames() []model.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Frame, len(s.frames))
	copy(out, s.frames)
	return out
}

func (s *Strip) FrameCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

// Last returns the most recent frame, or nil.
func (s *Strip) Last() model.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1]
}

func (s *Strip) Brightness() []uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]uint8(nil), s.brightness...)
}

func (s *Strip) WriteCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeCalls
}

func (s *Strip) CloseCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeCalls
}
