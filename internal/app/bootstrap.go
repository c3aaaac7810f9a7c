package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"github.com/coreman2200/wikihat/internal/config"
	"github.com/coreman2200/wikihat/internal/led"
	"github.com/coreman2200/wikihat/internal/peripheral"
	"github.com/coreman2200/wikihat/internal/progress"
	"github.com/coreman2200/wikihat/internal/result"
	"github.com/coreman2200/wikihat/internal/search"
	"github.com/coreman2200/wikihat/internal/segment"
	"github.com/coreman2200/wikihat/internal/ws"
)

// Core owns both peripherals and the searcher that drives them.
type Core struct {
	Searcher *Searcher
	Progress *progress.Indicator
	Result   *result.Display
	Preview  *ws.State
	log      zerolog.Logger
}

// Options for InitCore beyond the config file.
type Options struct {
	// Preview receives sim driver output. May be nil.
	Preview *ws.State
	// Notify is where failed searches are reported. Defaults to stderr.
	Notify io.Writer
	Log    zerolog.Logger
}

// InitCore opens the strip and the display described by cfg. A peripheral
// that cannot be opened is fatal: anything already opened is released and
// a *peripheral.InitError returned.
func InitCore(cfg *config.Config, o Options) (*Core, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if o.Notify == nil {
		o.Notify = os.Stderr
	}

	strip, err := OpenStrip(cfg.LED, o.Preview)
	if err != nil {
		return nil, &peripheral.InitError{Peripheral: "LED strip", Err: err}
	}
	disp, err := OpenDisplay(cfg.Display, o.Preview, o.Log)
	if err != nil {
		_ = strip.Close()
		return nil, &peripheral.InitError{Peripheral: "display", Err: err}
	}
	ind, res, err := openWith(strip, disp, cfg, o.Log)
	if err != nil {
		return nil, err
	}

	c := &Core{
		Progress: ind,
		Result:   res,
		Preview:  o.Preview,
		log:      o.Log,
	}
	c.Searcher = &Searcher{
		Progress: ind,
		Results:  res,
		Client:   searchClient(cfg),
		Notifier: ConsoleNotifier{W: o.Notify},
		Timeout:  cfg.Search.Timeout,
		Log:      o.Log.With().Str("component", "searcher").Logger(),
	}
	o.Log.Info().
		Str("led", cfg.LED.Driver).
		Int("count", cfg.LED.Count).
		Str("display", cfg.Display.Driver).
		Msg("peripherals ready")
	return c, nil
}

// openWith wraps opened drivers. Both are released if either wrapper
// fails to initialize.
func openWith(strip led.Strip, disp segment.Display, cfg *config.Config, log zerolog.Logger) (*progress.Indicator, *result.Display, error) {
	policy := progress.FailFast
	if cfg.LED.DegradeOnWriteError {
		policy = progress.LogAndContinue
	}
	ind, err := progress.Open(strip, progress.Options{
		Cadence:     cfg.LED.Cadence,
		WritePolicy: policy,
		Log:         log,
	})
	if err != nil {
		_ = disp.Close()
		return nil, nil, err
	}
	res, err := result.Open(disp, log)
	if err != nil {
		ind.Close()
		return nil, nil, err
	}
	return ind, res, nil
}

func searchClient(cfg *config.Config) *search.Client {
	client := search.NewClient(cfg.Search.BaseURL, cfg.Search.Timeout)
	if cfg.Search.UserAgent != "" {
		client.UserAgent = cfg.Search.UserAgent
	}
	return client
}

// Close cancels any outstanding search and releases both peripherals. It
// is safe from any state and never fails.
func (c *Core) Close() {
	if c.Searcher != nil {
		c.Searcher.Cancel()
	}
	c.Progress.Close()
	c.Result.Close()
	c.log.Debug().Msg("peripherals closed")
}

// WithCore opens the peripherals, runs fn, and always releases them.
func WithCore(ctx context.Context, cfg *config.Config, o Options, fn func(ctx context.Context, c *Core) error) error {
	c, err := InitCore(cfg, o)
	if err != nil {
		return err
	}
	defer c.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, c.Searcher.Cancel)
	defer stop()

	return fn(ctx, c)
}

// OpenStrip builds the LED driver named by cfg.Driver.
func OpenStrip(cfg config.LED, preview *ws.State) (led.Strip, error) {
	switch cfg.Driver {
	case "apa102":
		if err := hostInit(); err != nil {
			return nil, err
		}
		speed := physic.Frequency(cfg.SpeedHz) * physic.Hertz
		return led.OpenAPA102(cfg.SPIPort, cfg.Count, speed)
	case "nrzled":
		if err := hostInit(); err != nil {
			return nil, err
		}
		return led.OpenNRZ(cfg.SPIPort, cfg.Count)
	case "console":
		return led.NewConsole(cfg.Count)
	case "sim":
		var obs led.FrameObserver
		if preview != nil {
			obs = preview.PublishFrame
		}
		return led.NewSim(cfg.Count, obs), nil
	}
	return nil, fmt.Errorf("unknown led driver %q", cfg.Driver)
}

// OpenDisplay builds the display driver named by cfg.Driver.
func OpenDisplay(cfg config.Display, preview *ws.State, log zerolog.Logger) (segment.Display, error) {
	switch cfg.Driver {
	case "ht16k33":
		if err := hostInit(); err != nil {
			return nil, err
		}
		return segment.OpenHT16K33(cfg.I2CBus, cfg.Address)
	case "console":
		return segment.NewConsole(log), nil
	case "sim":
		var obs segment.TextObserver
		if preview != nil {
			obs = preview.PublishText
		}
		return segment.NewSim(obs), nil
	}
	return nil, fmt.Errorf("unknown display driver %q", cfg.Driver)
}

func hostInit() error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("periph host init: %w", err)
	}
	return nil
}
