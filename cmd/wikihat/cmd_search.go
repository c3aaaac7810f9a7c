package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/coreman2200/wikihat/internal/app"
	"github.com/coreman2200/wikihat/internal/search"
)

func newSearchCommand(g *globalFlags) *cobra.Command {
	var hold time.Duration

	cmd := &cobra.Command{
		Use:   "search <term>",
		Short: "Search once and show the hit count",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			term := strings.Join(args, " ")
			return withCore(cmd, g, func(ctx context.Context, c *app.Core) error {
				res, err := c.Searcher.Search(ctx, term)
				if err != nil {
					// the notifier has printed request failures
					var netErr *search.NetworkError
					if errors.As(err, &netErr) && !fatal(err) {
						return &reportedError{err: err}
					}
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), app.Summary(res.TotalHits))
				return holdFor(ctx, hold)
			})
		},
	}
	cmd.Flags().DurationVar(&hold, "hold", 3*time.Second, "keep the result on the display this long before exiting")
	return cmd
}

// holdFor waits d or until ctx ends. An interrupt while holding is a
// normal exit.
func holdFor(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
	return nil
}
