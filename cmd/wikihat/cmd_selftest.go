package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/coreman2200/wikihat/internal/app"
	diag "github.com/coreman2200/wikihat/internal/diagnostics"
	"github.com/coreman2200/wikihat/internal/peripheral"
	"github.com/coreman2200/wikihat/internal/tests"
	"github.com/coreman2200/wikihat/internal/ws"
)

func newSelftestCommand(g *globalFlags) *cobra.Command {
	var (
		hold time.Duration
		only []string
	)

	cmd := &cobra.Command{
		Use:   "selftest",
		Short: "Walk the strip and the display through test patterns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, g)
			if err != nil {
				return err
			}
			kinds := tests.All
			if len(only) > 0 {
				kinds = make([]tests.Kind, 0, len(only))
				for _, k := range only {
					kinds = append(kinds, tests.Kind(strings.TrimSpace(k)))
				}
			}

			var preview *ws.State
			if cfg.Preview.Addr != "" {
				var shutdown func()
				preview, shutdown = startPreview(cfg.Preview.Addr)
				defer shutdown()
			}
			sink := func(d diag.Diagnostic) {
				d.Log(log.Logger)
				if preview != nil {
					preview.PushDiag(d)
				}
			}

			strip, err := app.OpenStrip(cfg.LED, preview)
			if err != nil {
				return &peripheral.InitError{Peripheral: "LED strip", Err: err}
			}
			defer strip.Close()
			disp, err := app.OpenDisplay(cfg.Display, preview, log.Logger)
			if err != nil {
				return &peripheral.InitError{Peripheral: "display", Err: err}
			}
			defer disp.Close()

			if err := tests.Run(cmd.Context(), strip, disp, kinds, hold, sink); err != nil {
				if cmd.Context().Err() != nil {
					return nil
				}
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "selftest passed")
			return nil
		},
	}
	cmd.Flags().DurationVar(&hold, "hold", 150*time.Millisecond, "time each step stays lit")
	cmd.Flags().StringSliceVar(&only, "only", nil, "run only these patterns: index_sweep, rgb_channels, segments")
	return cmd
}
