package segment

import "sync"

// TextObserver receives the exact Width characters shown, or "" when the
// display is switched off.
type TextObserver func(text string)

// Sim is an in-memory display mirrored to an optional observer.
type Sim struct {
	mu       sync.Mutex
	text     string
	enabled  bool
	closed   bool
	observer TextObserver
}

func NewSim(observer TextObserver) *Sim {
	return &Sim{text: Fit(""), observer: observer}
}

func (s *Sim) SetEnabled(on bool) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.enabled = on
	shown := s.shownLocked()
	s.mu.Unlock()
	s.notify(shown)
	return nil
}

func (s *Sim) DisplayInt(n int) error { return s.set(FitInt(n)) }

func (s *Sim) DisplayString(str string) error { return s.set(Fit(str)) }

func (s *Sim) Clear() error { return s.set(Fit("")) }

func (s *Sim) set(text string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.text = text
	shown := s.shownLocked()
	s.mu.Unlock()
	s.notify(shown)
	return nil
}

func (s *Sim) shownLocked() string {
	if !s.enabled {
		return ""
	}
	return s.text
}

func (s *Sim) notify(text string) {
	if s.observer != nil {
		s.observer(text)
	}
}

// Text returns what the display currently shows.
func (s *Sim) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shownLocked()
}

func (s *Sim) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
