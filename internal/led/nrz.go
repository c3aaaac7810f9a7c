package led

import (
	"fmt"
	"io"
	"sync"

	"github.com/coreman2200/wikihat/internal/model"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
)

// NRZBitRate is the WS2812 data rate.
const NRZBitRate = 800 * physic.KiloHertz

// nrzSPIFreq clocks three SPI bits per NRZ bit. nrzled accepts no other
// rate.
const nrzSPIFreq = (800*3 + 100) * physic.KiloHertz

// NRZ drives a WS281x strip through periph's nrzled SPI encoder. The
// protocol has no global brightness, so it is applied to the channels.
type NRZ struct {
	mu         sync.Mutex
	dev        *nrzled.Dev
	port       io.Closer
	count      int
	brightness uint8
}

func OpenNRZ(portName string, count int) (*NRZ, error) {
	p, err := spireg.Open(portName)
	if err != nil {
		return nil, fmt.Errorf("open spi port %q: %w", portName, err)
	}
	n, err := NewNRZ(p, count)
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	n.port = p
	return n, nil
}

func NewNRZ(p spi.Port, count int) (*NRZ, error) {
	if count <= 0 {
		return nil, fmt.Errorf("invalid LED count: %d", count)
	}
	d, err := nrzled.NewSPI(p, &nrzled.Opts{
		NumPixels: count,
		Channels:  3,
		Freq:      nrzSPIFreq,
	})
	if err != nil {
		return nil, fmt.Errorf("open nrzled strip: %w", err)
	}
	return &NRZ{dev: d, count: count, brightness: MaxBrightness}, nil
}

func (n *NRZ) Len() int { return n.count }

func (n *NRZ) SetBrightness(level uint8) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.dev == nil {
		return ErrClosed
	}
	n.brightness = clampBrightness(level)
	return nil
}

func (n *NRZ) Write(f model.Frame) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.dev == nil {
		return ErrClosed
	}
	if len(f) != n.count {
		return fmt.Errorf("frame length %d does not match count %d", len(f), n.count)
	}
	s := brightnessScale(n.brightness)
	scaled := make(model.Frame, len(f))
	for i, c := range f {
		scaled[i] = c.Scale(s)
	}
	if _, err := n.dev.Write(scaled.RGB()); err != nil {
		return fmt.Errorf("nrzled write: %w", err)
	}
	return nil
}

func (n *NRZ) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.dev == nil {
		return nil
	}
	err := n.dev.Halt()
	n.dev = nil
	if n.port != nil {
		if cerr := n.port.Close(); err == nil {
			err = cerr
		}
		n.port = nil
	}
	return err
}
