// Package tests holds hardware self-test patterns.
package tests

import (
	"context"
	"fmt"
	"time"

	diag "github.com/coreman2200/wikihat/internal/diagnostics"
	"github.com/coreman2200/wikihat/internal/led"
	"github.com/coreman2200/wikihat/internal/model"
	"github.com/coreman2200/wikihat/internal/segment"
	"github.com/coreman2200/wikihat/internal/sequence"
)

type Kind string

const (
	None       Kind = ""
	IndexSweep Kind = "index_sweep"
	RGBTest    Kind = "rgb_channels"
	Segments   Kind = "segments"
)

// All is every pattern in the order selftest runs them.
var All = []Kind{IndexSweep, RGBTest, Segments}

var white = model.Color{R: 255, G: 255, B: 255}

// displayPattern lights every segment, then shows a word and each digit.
var displayPattern = []string{"8888", "TEST", "0123", "4567", "89  "}

type Plan struct{ Kind Kind }

type Runner struct {
	plan  Plan
	step  int
	cycle []int
}

func NewRunner(plan Plan) *Runner { return &Runner{plan: plan} }
func (r *Runner) Kind() Kind      { return r.plan.Kind }

// Step returns the next strip frame for n cells; false when complete.
func (r *Runner) Step(n int) (model.Frame, bool) {
	var f model.Frame
	switch r.plan.Kind {
	case IndexSweep:
		if r.cycle == nil {
			r.cycle = sequence.Cycle(n)
		}
		if r.step >= len(r.cycle) {
			return nil, false
		}
		f = model.Single(n, r.cycle[r.step], white)
	case RGBTest:
		if r.step >= 3 {
			return nil, false
		}
		c := [3]model.Color{{R: 255}, {G: 255}, {B: 255}}[r.step]
		f = model.Blank(n)
		for i := range f {
			f[i] = c
		}
	default:
		return nil, false
	}
	r.step++
	return f, true
}

// Text returns the next display string; false when complete.
func (r *Runner) Text() (string, bool) {
	if r.plan.Kind != Segments || r.step >= len(displayPattern) {
		return "", false
	}
	s := displayPattern[r.step]
	r.step++
	return s, true
}

// Run plays every kind in order on strip and disp, holding each step for
// hold. Either peripheral may be nil to skip its patterns. Progress is
// reported to sink. The strip is left blank and the display cleared.
func Run(ctx context.Context, strip led.Strip, disp segment.Display, kinds []Kind, hold time.Duration, sink diag.Sink) error {
	if sink == nil {
		sink = func(diag.Diagnostic) {}
	}
	if strip != nil {
		if err := strip.SetBrightness(led.MaxBrightness); err != nil {
			return report(sink, "LED", err)
		}
		defer func() {
			_ = strip.Write(model.Blank(strip.Len()))
		}()
	}
	if disp != nil {
		if err := disp.SetEnabled(true); err != nil {
			return report(sink, "DISPLAY", err)
		}
		defer func() {
			_ = disp.Clear()
		}()
	}

	for _, k := range kinds {
		r := NewRunner(Plan{Kind: k})
		switch k {
		case IndexSweep, RGBTest:
			if strip == nil {
				continue
			}
			sink(diag.Diagnostic{Severity: diag.Info, Code: "TEST.RUNNING", Summary: "Running test", Detail: string(k)})
			steps := 0
			for f, ok := r.Step(strip.Len()); ok; f, ok = r.Step(strip.Len()) {
				if err := strip.Write(f); err != nil {
					return report(sink, "LED", err)
				}
				steps++
				if err := wait(ctx, hold); err != nil {
					return err
				}
			}
			sink(diag.Diagnostic{Severity: diag.Info, Code: "TEST.DONE", Summary: "Test complete", Detail: string(k),
				Evidence: map[string]any{"steps": steps}})
		case Segments:
			if disp == nil {
				continue
			}
			sink(diag.Diagnostic{Severity: diag.Info, Code: "TEST.RUNNING", Summary: "Running test", Detail: string(k)})
			steps := 0
			for s, ok := r.Text(); ok; s, ok = r.Text() {
				if err := disp.DisplayString(s); err != nil {
					return report(sink, "DISPLAY", err)
				}
				steps++
				if err := wait(ctx, hold); err != nil {
					return err
				}
			}
			sink(diag.Diagnostic{Severity: diag.Info, Code: "TEST.DONE", Summary: "Test complete", Detail: string(k),
				Evidence: map[string]any{"steps": steps}})
		default:
			sink(diag.Diagnostic{
				Severity: diag.Warn, Code: "TEST.UNKNOWN", Summary: "Unknown test name",
				Evidence: map[string]any{"name": string(k)},
			})
		}
	}
	return nil
}

func report(sink diag.Sink, what string, err error) error {
	d := diag.Diagnostic{
		Severity: diag.Err,
		Code:     what + ".WRITE",
		Summary:  "Peripheral write failed",
		Detail:   err.Error(),
	}
	switch what {
	case "LED":
		d.LikelyCauses = []string{"SPI disabled in the boot config", "wrong spi_port"}
		d.SuggestedFixes = []string{"enable SPI (dtparam=spi=on)", "set led.driver: console to run without hardware"}
	case "DISPLAY":
		d.LikelyCauses = []string{"I2C disabled", "backpack not at the configured address"}
		d.SuggestedFixes = []string{"enable I2C (dtparam=i2c_arm=on)", "check display.address with i2cdetect"}
	}
	sink(d)
	return fmt.Errorf("%s self-test: %w", what, err)
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
