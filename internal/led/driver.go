package led

import (
	"errors"

	"github.com/coreman2200/wikihat/internal/model"
)

// MaxBrightness is the top of the 5-bit global brightness scale.
const MaxBrightness uint8 = 31

// ErrClosed is returned by drivers used after Close.
var ErrClosed = errors.New("led: strip closed")

// Strip abstracts an addressable RGB LED strip.
type Strip interface {
	// Len is the number of cells.
	Len() int
	// SetBrightness sets the global brightness, 0..MaxBrightness.
	SetBrightness(level uint8) error
	// Write pushes a frame to hardware. len(f) must equal Len().
	Write(f model.Frame) error
	// Close releases resources.
	Close() error
}

func clampBrightness(level uint8) uint8 {
	if level > MaxBrightness {
		return MaxBrightness
	}
	return level
}

// brightnessScale maps the 5-bit level to a channel multiplier for strips
// without a hardware global brightness.
func brightnessScale(level uint8) float64 {
	return float64(clampBrightness(level)) / float64(MaxBrightness)
}
