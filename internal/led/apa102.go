package led

import (
	"fmt"
	"io"
	"sync"

	"github.com/coreman2200/wikihat/internal/model"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
)

// DefaultAPA102Speed is a conservative clock for short strips.
const DefaultAPA102Speed = 1 * physic.MegaHertz

// APA102 drives an APA102/SK9822 strip over SPI. Each cell carries the
// 5-bit global brightness in its header byte.
type APA102 struct {
	mu         sync.Mutex
	conn       spi.Conn
	port       io.Closer
	count      int
	brightness uint8
}

// OpenAPA102 opens the named SPI port ("" for the first one registered).
func OpenAPA102(portName string, count int, speed physic.Frequency) (*APA102, error) {
	p, err := spireg.Open(portName)
	if err != nil {
		return nil, fmt.Errorf("open spi port %q: %w", portName, err)
	}
	a, err := NewAPA102(p, count, speed)
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	a.port = p
	return a, nil
}

// NewAPA102 connects to an already opened port. The caller keeps ownership
// of p.
func NewAPA102(p spi.Port, count int, speed physic.Frequency) (*APA102, error) {
	if count <= 0 {
		return nil, fmt.Errorf("invalid LED count: %d", count)
	}
	if speed <= 0 {
		speed = DefaultAPA102Speed
	}
	c, err := p.Connect(speed, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("spi connect: %w", err)
	}
	return &APA102{conn: c, count: count, brightness: MaxBrightness}, nil
}

func (a *APA102) Len() int { return a.count }

func (a *APA102) SetBrightness(level uint8) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.conn == nil {
		return ErrClosed
	}
	a.brightness = clampBrightness(level)
	return nil
}

func (a *APA102) Write(f model.Frame) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.conn == nil {
		return ErrClosed
	}
	if len(f) != a.count {
		return fmt.Errorf("frame length %d does not match count %d", len(f), a.count)
	}
	if err := a.conn.Tx(EncodeAPA102(f, a.brightness), nil); err != nil {
		return fmt.Errorf("spi write: %w", err)
	}
	return nil
}

func (a *APA102) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.conn == nil {
		return nil
	}
	a.conn = nil
	if a.port != nil {
		err := a.port.Close()
		a.port = nil
		return err
	}
	return nil
}

// EncodeAPA102 builds the wire stream: a 32-bit zero start frame, one
// 0b111xxxxx,B,G,R word per cell, and an end frame of at least n/2 clock
// edges (never shorter than 32 bits).
func EncodeAPA102(f model.Frame, brightness uint8) []byte {
	endLen := (len(f) + 15) / 16
	if endLen < 4 {
		endLen = 4
	}
	buf := make([]byte, 4, 4+len(f)*4+endLen)
	head := 0xE0 | clampBrightness(brightness)
	for _, c := range f {
		buf = append(buf, head, c.B, c.G, c.R)
	}
	for i := 0; i < endLen; i++ {
		buf = append(buf, 0xFF)
	}
	return buf
}
