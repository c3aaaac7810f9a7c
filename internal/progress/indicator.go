// Package progress animates an LED strip while work is outstanding.
//
// An Indicator owns its strip from Open until Close. Start launches a
// worker that sweeps a single randomly coloured cell back and forth; Stop
// cancels and joins that worker before blanking the strip, so once Stop
// returns nothing else writes to the strip.
package progress

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/coreman2200/wikihat/internal/led"
	"github.com/coreman2200/wikihat/internal/model"
	"github.com/coreman2200/wikihat/internal/peripheral"
	"github.com/coreman2200/wikihat/internal/sequence"
)

const (
	// DefaultCadence is the time between sweep steps.
	DefaultCadence = 100 * time.Millisecond
	// IdleBrightness is the level the strip runs at while open.
	IdleBrightness uint8 = 1

	colorLevels = 8
	colorStep   = 32

	peripheralName = "LED strip"
)

// State of the animation.
type State int

const (
	Idle State = iota
	Running
	Stopping
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	}
	return "unknown"
}

// WritePolicy decides what a failed write during the animation does.
type WritePolicy int

const (
	// FailFast ends the animation; the error is returned by the next Stop.
	FailFast WritePolicy = iota
	// LogAndContinue logs the error and keeps animating.
	LogAndContinue
)

type Options struct {
	// Cadence between steps. Zero means DefaultCadence.
	Cadence time.Duration
	// Rand picks colours. Nil means a time-seeded source.
	Rand *rand.Rand
	// WritePolicy for steady-state write errors.
	WritePolicy WritePolicy
	Log         zerolog.Logger
}

type Indicator struct {
	mu       sync.Mutex
	strip    led.Strip
	count    int
	cadence  time.Duration
	rnd      *rand.Rand
	policy   WritePolicy
	log      zerolog.Logger
	state    State
	sweep    *sequence.Sweep
	cancel   context.CancelFunc
	done     chan struct{}
	writeErr error
}

// Open takes ownership of strip, dims it to IdleBrightness and blanks it.
// On failure the strip is closed and a *peripheral.InitError returned.
func Open(strip led.Strip, o Options) (*Indicator, error) {
	if strip == nil {
		return nil, &peripheral.InitError{Peripheral: peripheralName, Err: led.ErrClosed}
	}
	if o.Cadence <= 0 {
		o.Cadence = DefaultCadence
	}
	if o.Rand == nil {
		now := uint64(time.Now().UnixNano())
		o.Rand = rand.New(rand.NewPCG(now, now>>17))
	}
	p := &Indicator{
		strip:   strip,
		count:   strip.Len(),
		cadence: o.Cadence,
		rnd:     o.Rand,
		policy:  o.WritePolicy,
		log:     o.Log.With().Str("component", "progress").Logger(),
		sweep:   sequence.NewSweep(strip.Len()),
	}
	if err := strip.SetBrightness(IdleBrightness); err != nil {
		_ = strip.Close()
		return nil, &peripheral.InitError{Peripheral: peripheralName, Err: err}
	}
	if err := strip.Write(model.Blank(p.count)); err != nil {
		_ = strip.Close()
		return nil, &peripheral.InitError{Peripheral: peripheralName, Err: err}
	}
	p.log.Debug().Int("count", p.count).Dur("cadence", p.cadence).Msg("initialized LED strip")
	return p, nil
}

func (p *Indicator) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Start begins the sweep. It does nothing unless the indicator is Idle and
// open.
func (p *Indicator) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.strip == nil || p.state != Idle {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	p.state = Running
	p.cancel = cancel
	p.done = done
	p.writeErr = nil
	p.sweep.Reset()
	go p.run(ctx, done)
}

func (p *Indicator) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.cadence)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		p.mu.Lock()
		// Stop may have cancelled while we waited for the lock.
		if ctx.Err() != nil || p.strip == nil {
			p.mu.Unlock()
			return
		}
		idx := p.sweep.Next()
		err := p.strip.Write(model.Single(p.count, idx, p.randomColor()))
		if err != nil && p.policy == FailFast {
			p.writeErr = &peripheral.IOError{Peripheral: peripheralName, Op: "write", Err: err}
			p.mu.Unlock()
			p.log.Error().Err(err).Int("index", idx).Msg("animation write failed; stopping animation")
			return
		}
		p.mu.Unlock()
		if err != nil {
			p.log.Warn().Err(err).Int("index", idx).Msg("animation write failed")
		}
	}
}

// randomColor draws each channel from {0,32,…,224}. An all-off draw is
// redrawn so the lit cell is always visible. Callers hold p.mu.
func (p *Indicator) randomColor() model.Color {
	for {
		c := model.Color{
			R: uint8(p.rnd.IntN(colorLevels) * colorStep),
			G: uint8(p.rnd.IntN(colorLevels) * colorStep),
			B: uint8(p.rnd.IntN(colorLevels) * colorStep),
		}
		if !c.IsOff() {
			return c
		}
	}
}

// Stop cancels the sweep, waits for the worker to exit, and blanks the
// strip. It is safe to call when not running. Under FailFast the write
// error that ended the animation is returned.
func (p *Indicator) Stop() error {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	if p.state == Running {
		p.state = Stopping
	}
	p.mu.Unlock()

	// Every concurrent Stop waits for the same worker.
	if cancel != nil {
		cancel()
		<-done
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done != nil && p.done != done {
		// A later Start already owns the strip.
		return nil
	}
	p.cancel, p.done = nil, nil
	p.state = Idle
	werr := p.writeErr
	p.writeErr = nil
	if p.strip == nil {
		return werr
	}
	if err := p.strip.Write(model.Blank(p.count)); err != nil {
		if werr != nil {
			return werr
		}
		return &peripheral.IOError{Peripheral: peripheralName, Op: "blank", Err: err}
	}
	return werr
}

// Close stops any animation, switches the strip off and releases it.
// Errors are logged, never returned; afterwards every method is a no-op.
func (p *Indicator) Close() {
	if err := p.Stop(); err != nil {
		p.log.Warn().Err(err).Msg("stopping animation on close")
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.strip == nil {
		return
	}
	strip := p.strip
	p.strip = nil

	if err := strip.SetBrightness(0); err != nil {
		p.log.Error().Err(err).Msg("Error closing LED strip")
	}
	if err := strip.Write(model.Blank(p.count)); err != nil {
		p.log.Error().Err(err).Msg("Error closing LED strip")
	}
	if err := strip.Close(); err != nil {
		p.log.Error().Err(err).Msg("Error closing LED strip")
	}
	p.log.Debug().Msg("closed LED strip")
}
