package segment

import (
	"fmt"
	"io"
	"sync"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ht16k33"
)

// DefaultAddress is the HT16K33 backpack address with no jumpers set.
const DefaultAddress uint16 = ht16k33.I2CAddr

// displayOff is the HT16K33 display setup command with the on bit clear.
const displayOff = 0x80

// HT16K33 is a 14-segment alphanumeric backpack on I²C.
type HT16K33 struct {
	mu   sync.Mutex
	dev  *ht16k33.Dev
	disp *ht16k33.Display
	raw  i2c.Dev
	bus  io.Closer
}

// OpenHT16K33 opens the named I²C bus ("" for the first one registered).
func OpenHT16K33(busName string, addr uint16) (*HT16K33, error) {
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %q: %w", busName, err)
	}
	h, err := NewHT16K33(bus, addr)
	if err != nil {
		_ = bus.Close()
		return nil, err
	}
	h.bus = bus
	return h, nil
}

// NewHT16K33 initializes the chip at addr on bus. The bus is not closed by
// Close.
func NewHT16K33(bus i2c.Bus, addr uint16) (*HT16K33, error) {
	if addr == 0 {
		addr = DefaultAddress
	}
	dev, err := ht16k33.NewI2C(bus, addr)
	if err != nil {
		return nil, fmt.Errorf("ht16k33 at %#x: %w", addr, err)
	}
	disp, err := ht16k33.NewAlphaNumericDisplay(bus, addr)
	if err != nil {
		return nil, fmt.Errorf("ht16k33 at %#x: %w", addr, err)
	}
	return &HT16K33{dev: dev, disp: disp, raw: i2c.Dev{Bus: bus, Addr: addr}}, nil
}

func (h *HT16K33) SetEnabled(on bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.disp == nil {
		return ErrClosed
	}
	if on {
		return h.dev.SetBlink(ht16k33.BlinkOff)
	}
	_, err := h.raw.Write([]byte{displayOff})
	return err
}

func (h *HT16K33) DisplayInt(n int) error {
	return h.DisplayString(FitInt(n))
}

func (h *HT16K33) DisplayString(s string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.disp == nil {
		return ErrClosed
	}
	_, err := h.disp.WriteString(Fit(s))
	return err
}

func (h *HT16K33) Clear() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.disp == nil {
		return ErrClosed
	}
	return h.disp.Halt()
}

func (h *HT16K33) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.disp == nil {
		return nil
	}
	h.dev, h.disp = nil, nil
	if h.bus == nil {
		return nil
	}
	err := h.bus.Close()
	h.bus = nil
	return err
}
