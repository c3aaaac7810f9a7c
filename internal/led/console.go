package led

import (
	"fmt"
	"image"
	"sync"

	"github.com/coreman2200/wikihat/internal/model"
	"periph.io/x/conn/v3/display"
	"periph.io/x/extra/devices/screen"
)

// Console prints frames as coloured blocks on the terminal. Used when no
// SPI port is present.
type Console struct {
	mu         sync.Mutex
	drawer     display.Drawer
	count      int
	brightness uint8
}

func NewConsole(count int) (*Console, error) {
	if count <= 0 {
		return nil, fmt.Errorf("invalid LED count: %d", count)
	}
	return &Console{drawer: screen.New(count), count: count, brightness: MaxBrightness}, nil
}

func (c *Console) Len() int { return c.count }

func (c *Console) SetBrightness(level uint8) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.drawer == nil {
		return ErrClosed
	}
	c.brightness = clampBrightness(level)
	return nil
}

func (c *Console) Write(f model.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.drawer == nil {
		return ErrClosed
	}
	if len(f) != c.count {
		return fmt.Errorf("frame length %d does not match count %d", len(f), c.count)
	}
	s := consoleScale(c.brightness)
	scaled := make(model.Frame, len(f))
	for i, col := range f {
		scaled[i] = col.Scale(s)
	}
	return c.drawer.Draw(c.drawer.Bounds(), scaled.Image(), image.Point{})
}

// consoleScale only distinguishes on from off. The strip idles at level 1,
// which brightnessScale would draw as near black.
func consoleScale(level uint8) float64 {
	if level == 0 {
		return 0
	}
	return 1
}

func (c *Console) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.drawer == nil {
		return nil
	}
	err := c.drawer.Halt()
	c.drawer = nil
	return err
}
