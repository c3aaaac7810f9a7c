package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/coreman2200/wikihat/internal/app"
	"github.com/coreman2200/wikihat/internal/peripheral"
)

const replPrompt = "wiki> "

func newReplCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Read search terms interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withCore(cmd, g, func(ctx context.Context, c *app.Core) error {
				rl, err := readline.NewEx(&readline.Config{
					Prompt:          replPrompt,
					HistoryFile:     filepath.Join(os.TempDir(), ".wikihat_history"),
					HistoryLimit:    100,
					InterruptPrompt: "^C",
					EOFPrompt:       "exit",
					Stdout:          cmd.OutOrStdout(),
				})
				if err != nil {
					return fmt.Errorf("readline: %w", err)
				}
				defer rl.Close()
				stop := context.AfterFunc(ctx, func() { _ = rl.Close() })
				defer stop()

				return repl(ctx, rl.Readline, cmd.OutOrStdout(), c.Searcher)
			})
		},
	}
}

// repl runs searches line by line until EOF, "exit" or an error that
// leaves the hardware in an unknown state.
func repl(ctx context.Context, readLine func() (string, error), out io.Writer, s *app.Searcher) error {
	for {
		line, err := readLine()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			return err
		}

		term := strings.TrimSpace(line)
		switch term {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		res, err := s.Search(ctx, term)
		if err != nil {
			if fatal(err) {
				return err
			}
			if ctx.Err() != nil {
				return nil
			}
			log.Debug().Err(err).Str("term", term).Msg("search failed")
			continue
		}
		fmt.Fprintln(out, app.Summary(res.TotalHits))
	}
}

// fatal reports whether err came from a peripheral rather than the
// network.
func fatal(err error) bool {
	var ioErr *peripheral.IOError
	return errors.As(err, &ioErr)
}
