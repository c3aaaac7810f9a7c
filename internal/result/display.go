// Package result shows a search hit count on a 4-character display.
package result

import (
	"errors"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/coreman2200/wikihat/internal/peripheral"
	"github.com/coreman2200/wikihat/internal/segment"
)

// Ready is shown once the display is opened.
const Ready = "GOOD"

// Overflow is shown for counts of ten digits or more.
const Overflow = "HUGE"

const peripheralName = "display"

var ErrNegativeCount = errors.New("result: negative count")

// Format buckets v by digit count: up to 4 digits verbatim, up to 6 in
// thousands ("12k"), up to 9 in millions ("1M"), otherwise Overflow.
// Division rounds to nearest with ties away from zero.
func Format(v uint64) string {
	digits := len(strconv.FormatUint(v, 10))
	switch {
	case digits <= 4:
		return strconv.FormatUint(v, 10)
	case digits <= 6:
		return unitize(v, 1_000, "k")
	case digits <= 9:
		return unitize(v, 1_000_000, "M")
	default:
		return Overflow
	}
}

func unitize(v, denominator uint64, unit string) string {
	return strconv.FormatUint((v+denominator/2)/denominator, 10) + unit
}

type Display struct {
	mu   sync.Mutex
	disp segment.Display
	log  zerolog.Logger
}

// Open takes ownership of d, switches it on and shows Ready. On failure d
// is closed and a *peripheral.InitError returned.
func Open(d segment.Display, log zerolog.Logger) (*Display, error) {
	if d == nil {
		return nil, &peripheral.InitError{Peripheral: peripheralName, Err: segment.ErrClosed}
	}
	r := &Display{disp: d, log: log.With().Str("component", "result").Logger()}
	if err := d.SetEnabled(true); err != nil {
		_ = d.Close()
		return nil, &peripheral.InitError{Peripheral: peripheralName, Err: err}
	}
	if err := d.DisplayString(Ready); err != nil {
		_ = d.Close()
		return nil, &peripheral.InitError{Peripheral: peripheralName, Err: err}
	}
	return r, nil
}

// Render shows count. Counts of up to four digits go out as integers, the
// rest as their Format string. Does nothing after Close.
func (r *Display) Render(count int64) error {
	if count < 0 {
		return ErrNegativeCount
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.disp == nil {
		return nil
	}
	text := Format(uint64(count))
	var err error
	if count <= 9999 {
		err = r.disp.DisplayInt(int(count))
	} else {
		err = r.disp.DisplayString(text)
	}
	if err != nil {
		return &peripheral.IOError{Peripheral: peripheralName, Op: "render", Err: err}
	}
	r.log.Debug().Int64("count", count).Str("text", text).Msg("rendered result")
	return nil
}

// Close clears, disables and releases the display. Errors are logged;
// repeated calls do nothing.
func (r *Display) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.disp == nil {
		return
	}
	d := r.disp
	r.disp = nil

	if err := d.Clear(); err != nil {
		r.log.Error().Err(err).Msg("Error closing display")
	}
	if err := d.SetEnabled(false); err != nil {
		r.log.Error().Err(err).Msg("Error closing display")
	}
	if err := d.Close(); err != nil {
		r.log.Error().Err(err).Msg("Error closing display")
	}
}
