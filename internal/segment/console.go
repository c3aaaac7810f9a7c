package segment

import (
	"sync"

	"github.com/rs/zerolog"
)

// Console logs what a display would show.
type Console struct {
	mu      sync.Mutex
	log     zerolog.Logger
	enabled bool
	closed  bool
}

func NewConsole(log zerolog.Logger) *Console {
	return &Console{log: log.With().Str("display", "console").Logger()}
}

func (c *Console) SetEnabled(on bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.enabled = on
	c.log.Debug().Bool("enabled", on).Msg("display power")
	return nil
}

func (c *Console) DisplayInt(n int) error {
	return c.show(FitInt(n))
}

func (c *Console) DisplayString(s string) error {
	return c.show(Fit(s))
}

func (c *Console) Clear() error {
	return c.show(Fit(""))
}

func (c *Console) show(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.enabled {
		c.log.Info().Str("text", "["+text+"]").Msg("display")
	}
	return nil
}

func (c *Console) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}
